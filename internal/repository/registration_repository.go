package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/avitoexc/excursion-bot/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RegistrationRepository журнал завершённых регистраций и лист ожидания.
// Таблица registrations append-only: строки никогда не изменяются.
type RegistrationRepository struct {
	pool *pgxpool.Pool
}

func NewRegistrationRepository(pool *pgxpool.Pool) *RegistrationRepository {
	return &RegistrationRepository{pool: pool}
}

// Append добавляет завершённую регистрацию
func (r *RegistrationRepository) Append(ctx context.Context, telegramID int64, role model.Role, draft model.Draft) error {
	query := `
		INSERT INTO registrations
			(telegram_id, role, slot, city, surname, name, patronymic, birth_date,
			 email, phone, university, faculty, institution_type, institution_name, participants)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	_, err := r.pool.Exec(
		ctx, query,
		telegramID,
		string(role),
		draft.Slot,
		string(draft.City),
		draft.Surname,
		draft.Name,
		draft.Patronymic,
		draft.BirthDate,
		draft.Email,
		draft.Phone,
		draft.University,
		draft.Faculty,
		string(draft.InstitutionType),
		draft.InstitutionName,
		model.FormatParticipants(draft.Participants),
	)
	if err != nil {
		return fmt.Errorf("append registration: %w", err)
	}

	return nil
}

// ListBySlot возвращает регистрации роли на конкретный слот (для выгрузки)
func (r *RegistrationRepository) ListBySlot(ctx context.Context, role model.Role, slotID string) ([]*model.Registration, error) {
	query := `
		SELECT id, telegram_id, slot, city, surname, name, patronymic, birth_date,
		       email, phone, university, faculty, institution_type, institution_name, participants, created_at
		FROM registrations
		WHERE role = $1 AND slot = $2
		ORDER BY id
	`

	rows, err := r.pool.Query(ctx, query, string(role), slotID)
	if err != nil {
		return nil, fmt.Errorf("list registrations by slot: %w", err)
	}
	defer rows.Close()

	var regs []*model.Registration
	for rows.Next() {
		reg := &model.Registration{Role: role}
		var city, instType, participants string
		err := rows.Scan(
			&reg.ID,
			&reg.TelegramID,
			&reg.Draft.Slot,
			&city,
			&reg.Draft.Surname,
			&reg.Draft.Name,
			&reg.Draft.Patronymic,
			&reg.Draft.BirthDate,
			&reg.Draft.Email,
			&reg.Draft.Phone,
			&reg.Draft.University,
			&reg.Draft.Faculty,
			&instType,
			&reg.Draft.InstitutionName,
			&participants,
			&reg.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan registration: %w", err)
		}
		reg.Draft.City = model.City(city)
		reg.Draft.InstitutionType = model.InstitutionType(instType)
		reg.Draft.Participants = parseParticipants(participants)
		regs = append(regs, reg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate registrations: %w", err)
	}

	return regs, nil
}

// AppendWaitingListEntry добавляет запись в лист ожидания
func (r *RegistrationRepository) AppendWaitingListEntry(ctx context.Context, entry *model.WaitingListEntry) error {
	query := `
		INSERT INTO waiting_list (telegram_id, city, slot_label, surname, name, patronymic, phone, email)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.pool.Exec(
		ctx, query,
		entry.TelegramID,
		entry.City,
		entry.SlotLabel,
		entry.Surname,
		entry.Name,
		entry.Patronymic,
		entry.Phone,
		entry.Email,
	)
	if err != nil {
		return fmt.Errorf("append waiting list entry: %w", err)
	}

	return nil
}

// WaitingListBySlot возвращает лист ожидания слота (для рассылки)
func (r *RegistrationRepository) WaitingListBySlot(ctx context.Context, slotLabel string) ([]*model.WaitingListEntry, error) {
	query := `
		SELECT id, telegram_id, city, slot_label, surname, name, patronymic, phone, email, created_at
		FROM waiting_list
		WHERE slot_label = $1
		ORDER BY id
	`

	rows, err := r.pool.Query(ctx, query, slotLabel)
	if err != nil {
		return nil, fmt.Errorf("list waiting list by slot: %w", err)
	}
	defer rows.Close()

	var entries []*model.WaitingListEntry
	for rows.Next() {
		var e model.WaitingListEntry
		err := rows.Scan(
			&e.ID, &e.TelegramID, &e.City, &e.SlotLabel,
			&e.Surname, &e.Name, &e.Patronymic, &e.Phone, &e.Email, &e.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan waiting list entry: %w", err)
		}
		entries = append(entries, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate waiting list: %w", err)
	}

	return entries, nil
}

// LastRegistration возвращает последнюю регистрацию пользователя или nil
func (r *RegistrationRepository) LastRegistration(ctx context.Context, telegramID int64) (*model.Registration, error) {
	query := `
		SELECT role, slot, payload, updated_at
		FROM last_registrations
		WHERE telegram_id = $1
	`

	var (
		role    string
		slot    string
		payload []byte
	)
	reg := &model.Registration{TelegramID: telegramID}
	err := r.pool.QueryRow(ctx, query, telegramID).Scan(&role, &slot, &payload, &reg.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil // Регистраций ещё не было
		}
		return nil, fmt.Errorf("get last registration: %w", err)
	}

	reg.Role = model.Role(role)
	if err := json.Unmarshal(payload, &reg.Draft); err != nil {
		return nil, fmt.Errorf("decode last registration payload: %w", err)
	}
	reg.Draft.Slot = slot

	return reg, nil
}

// SetLastRegistration запоминает регистрацию как последнюю для пользователя.
// Всегда перезаписывает прежнее значение: бот помнит один слот на человека.
func (r *RegistrationRepository) SetLastRegistration(ctx context.Context, telegramID int64, role model.Role, draft model.Draft) error {
	payload, err := json.Marshal(draft)
	if err != nil {
		return fmt.Errorf("encode last registration payload: %w", err)
	}

	query := `
		INSERT INTO last_registrations (telegram_id, role, slot, payload, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (telegram_id) DO UPDATE
		SET role = $2, slot = $3, payload = $4, updated_at = now()
	`

	if _, err := r.pool.Exec(ctx, query, telegramID, string(role), draft.Slot, payload); err != nil {
		return fmt.Errorf("set last registration: %w", err)
	}

	return nil
}

// ClearLastRegistration забывает последнюю регистрацию (после отмены)
func (r *RegistrationRepository) ClearLastRegistration(ctx context.Context, telegramID int64) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM last_registrations WHERE telegram_id = $1`, telegramID); err != nil {
		return fmt.Errorf("clear last registration: %w", err)
	}
	return nil
}

// parseParticipants разбирает колонку "ФИО — дата; ФИО — дата" обратно в список
func parseParticipants(s string) []model.Participant {
	if s == "" {
		return nil
	}
	var participants []model.Participant
	for _, part := range splitTrim(s, ";") {
		fields := splitTrim(part, "—")
		if len(fields) == 0 {
			continue
		}
		p := model.Participant{FullName: fields[0]}
		if len(fields) > 1 {
			p.BirthDate = fields[1]
		}
		participants = append(participants, p)
	}
	return participants
}
