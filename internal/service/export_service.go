package service

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/avitoexc/excursion-bot/internal/model"
	"github.com/avitoexc/excursion-bot/internal/repository"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// Ограничения Excel на имена листов
const maxSheetNameLength = 31

var invalidSheetChars = regexp.MustCompile(`[\\/*?:\[\]]`)

var studentHeaders = []interface{}{
	"Слот", "Telegram ID", "Фамилия", "Имя", "Отчество",
	"Дата рождения", "Почта", "Телефон", "Университет", "Факультет",
}

var groupLeaderHeaders = []interface{}{
	"Слот", "Telegram ID", "Фамилия", "Имя", "Отчество",
	"Дата рождения", "Почта", "Телефон", "Тип учреждения",
	"Название учреждения", "Факультет", "Участники (ФИО, дата рождения)",
}

var userHeaders = []interface{}{
	"Telegram user id", "Username", "First name", "Last name",
}

// ExportService выгрузка регистраций и журнала пользователей в xlsx
type ExportService struct {
	registrations *repository.RegistrationRepository
	users         *repository.UserRepository
	logger        *zap.Logger
}

func NewExportService(
	registrations *repository.RegistrationRepository,
	users *repository.UserRepository,
	logger *zap.Logger,
) *ExportService {
	return &ExportService{
		registrations: registrations,
		users:         users,
		logger:        logger,
	}
}

// sanitizeSheetName убирает запрещённые Excel символы и обрезает имя листа
func sanitizeSheetName(slot string) string {
	name := invalidSheetChars.ReplaceAllString(slot, " ")
	name = strings.Join(strings.Fields(name), " ")
	if len(name) > maxSheetNameLength {
		runes := []rune(name)
		for len(string(runes)) > maxSheetNameLength {
			runes = runes[:len(runes)-1]
		}
		name = string(runes)
	}
	if name == "" {
		name = "Slot"
	}
	return name
}

// ExportSlot собирает книгу с регистрациями роли на слот.
// Возвращает nil, если регистраций нет.
func (s *ExportService) ExportSlot(ctx context.Context, role model.Role, slotID string) (*bytes.Buffer, error) {
	regs, err := s.registrations.ListBySlot(ctx, role, slotID)
	if err != nil {
		return nil, fmt.Errorf("load registrations: %w", err)
	}
	if len(regs) == 0 {
		return nil, nil
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := sanitizeSheetName(slotID)
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	headers := studentHeaders
	if role == model.RoleGroupLeader {
		headers = groupLeaderHeaders
	}
	if err := f.SetSheetRow(sheet, "A1", &headers); err != nil {
		return nil, fmt.Errorf("write headers: %w", err)
	}

	for i, reg := range regs {
		d := reg.Draft
		var row []interface{}
		if role == model.RoleGroupLeader {
			row = []interface{}{
				d.Slot, reg.TelegramID, d.Surname, d.Name, d.Patronymic,
				d.BirthDate, d.Email, d.Phone, d.InstitutionType.DisplayName(),
				d.InstitutionName, d.Faculty, model.FormatParticipants(d.Participants),
			}
		} else {
			row = []interface{}{
				d.Slot, reg.TelegramID, d.Surname, d.Name, d.Patronymic,
				d.BirthDate, d.Email, d.Phone, d.University, d.Faculty,
			}
		}
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("build workbook: %w", err)
	}

	s.logger.Info("Slot export built",
		zap.String("role", string(role)),
		zap.String("slot", slotID),
		zap.Int("rows", len(regs)))

	return buf, nil
}

// ExportUsers собирает книгу со всеми известными пользователями
func (s *ExportService) ExportUsers(ctx context.Context) (*bytes.Buffer, error) {
	users, err := s.users.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Users"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	if err := f.SetSheetRow(sheet, "A1", &userHeaders); err != nil {
		return nil, fmt.Errorf("write headers: %w", err)
	}

	for i, u := range users {
		row := []interface{}{u.TelegramID, u.Username, u.FirstName, u.LastName}
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("build workbook: %w", err)
	}

	return buf, nil
}
