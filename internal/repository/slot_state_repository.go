package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SlotStateRepository реестр занятости слотов: булево подтверждение для
// групповых слотов и счётчик подтверждённых студентов для студенческих.
type SlotStateRepository struct {
	pool *pgxpool.Pool
}

func NewSlotStateRepository(pool *pgxpool.Pool) *SlotStateRepository {
	return &SlotStateRepository{pool: pool}
}

// ClampCount применяет дельту к счётчику, не опуская его ниже нуля
func ClampCount(current, delta int) int {
	next := current + delta
	if next < 0 {
		return 0
	}
	return next
}

// IsGroupSlotConfirmed проверяет, занят ли групповой слот
func (r *SlotStateRepository) IsGroupSlotConfirmed(ctx context.Context, slotID string) (bool, error) {
	query := `SELECT confirmed FROM slot_states WHERE slot_id = $1`

	var confirmed bool
	err := r.pool.QueryRow(ctx, query, slotID).Scan(&confirmed)
	if err != nil {
		if err == pgx.ErrNoRows {
			return false, nil // Неизвестный слот свободен
		}
		return false, fmt.Errorf("get group slot state: %w", err)
	}

	return confirmed, nil
}

// ConfirmGroupSlot помечает групповой слот занятым. Идемпотентно.
func (r *SlotStateRepository) ConfirmGroupSlot(ctx context.Context, slotID string) error {
	query := `
		INSERT INTO slot_states (slot_id, confirmed)
		VALUES ($1, true)
		ON CONFLICT (slot_id) DO UPDATE SET confirmed = true
	`

	if _, err := r.pool.Exec(ctx, query, slotID); err != nil {
		return fmt.Errorf("confirm group slot: %w", err)
	}
	return nil
}

// ReleaseGroupSlot снимает подтверждение с группового слота. Идемпотентно.
func (r *SlotStateRepository) ReleaseGroupSlot(ctx context.Context, slotID string) error {
	query := `
		INSERT INTO slot_states (slot_id, confirmed)
		VALUES ($1, false)
		ON CONFLICT (slot_id) DO UPDATE SET confirmed = false
	`

	if _, err := r.pool.Exec(ctx, query, slotID); err != nil {
		return fmt.Errorf("release group slot: %w", err)
	}
	return nil
}

// StudentSlotCount возвращает число подтверждённых студентов на слоте,
// 0 для неизвестного слота
func (r *SlotStateRepository) StudentSlotCount(ctx context.Context, slotID string) (int, error) {
	query := `SELECT student_count FROM slot_states WHERE slot_id = $1`

	var count int
	err := r.pool.QueryRow(ctx, query, slotID).Scan(&count)
	if err != nil {
		if err == pgx.ErrNoRows {
			return 0, nil
		}
		return 0, fmt.Errorf("get student slot count: %w", err)
	}

	return count, nil
}

// AdjustStudentSlotCount меняет счётчик студентов на дельту в одной
// транзакции, не опуская его ниже нуля
func (r *SlotStateRepository) AdjustStudentSlotCount(ctx context.Context, slotID string, delta int) error {
	if slotID == "" {
		return nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin adjust count: %w", err)
	}
	defer tx.Rollback(ctx)

	var current int
	err = tx.QueryRow(ctx,
		`SELECT student_count FROM slot_states WHERE slot_id = $1 FOR UPDATE`,
		slotID,
	).Scan(&current)
	if err != nil && err != pgx.ErrNoRows {
		return fmt.Errorf("read current count: %w", err)
	}

	next := ClampCount(current, delta)

	_, err = tx.Exec(ctx, `
		INSERT INTO slot_states (slot_id, student_count)
		VALUES ($1, $2)
		ON CONFLICT (slot_id) DO UPDATE SET student_count = $2
	`, slotID, next)
	if err != nil {
		return fmt.Errorf("write new count: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit adjust count: %w", err)
	}
	return nil
}
