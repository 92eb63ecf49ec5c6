package repository

import (
	"context"
	"fmt"

	"github.com/avitoexc/excursion-bot/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SupportRepository треды поддержки: связь пользователь <-> топик
// в форум-группе администраторов
type SupportRepository struct {
	pool *pgxpool.Pool
}

func NewSupportRepository(pool *pgxpool.Pool) *SupportRepository {
	return &SupportRepository{pool: pool}
}

// Create сохраняет новый тред
func (r *SupportRepository) Create(ctx context.Context, thread *model.SupportThread) error {
	query := `
		INSERT INTO support_threads (id, telegram_id, username, admin_chat_id, admin_topic_id, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`

	err := r.pool.QueryRow(
		ctx, query,
		thread.ID,
		thread.TelegramID,
		thread.Username,
		thread.AdminChatID,
		thread.AdminTopicID,
		string(thread.Status),
	).Scan(&thread.CreatedAt, &thread.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create support thread: %w", err)
	}

	return nil
}

// ActiveByUser возвращает незакрытый тред пользователя или nil
func (r *SupportRepository) ActiveByUser(ctx context.Context, telegramID int64) (*model.SupportThread, error) {
	query := `
		SELECT id, telegram_id, username, admin_chat_id, admin_topic_id, status, created_at, updated_at
		FROM support_threads
		WHERE telegram_id = $1 AND status <> 'closed'
		ORDER BY created_at DESC
		LIMIT 1
	`

	return r.scanOne(r.pool.QueryRow(ctx, query, telegramID))
}

// ByTopic находит тред по топику форум-группы
func (r *SupportRepository) ByTopic(ctx context.Context, adminChatID int64, topicID int) (*model.SupportThread, error) {
	query := `
		SELECT id, telegram_id, username, admin_chat_id, admin_topic_id, status, created_at, updated_at
		FROM support_threads
		WHERE admin_chat_id = $1 AND admin_topic_id = $2
		ORDER BY created_at DESC
		LIMIT 1
	`

	return r.scanOne(r.pool.QueryRow(ctx, query, adminChatID, topicID))
}

// SetStatus меняет статус треда
func (r *SupportRepository) SetStatus(ctx context.Context, id string, status model.SupportStatus) error {
	query := `
		UPDATE support_threads
		SET status = $1, updated_at = now()
		WHERE id = $2
	`

	if _, err := r.pool.Exec(ctx, query, string(status), id); err != nil {
		return fmt.Errorf("set support thread status: %w", err)
	}
	return nil
}

func (r *SupportRepository) scanOne(row pgx.Row) (*model.SupportThread, error) {
	var thread model.SupportThread
	var status string
	err := row.Scan(
		&thread.ID,
		&thread.TelegramID,
		&thread.Username,
		&thread.AdminChatID,
		&thread.AdminTopicID,
		&status,
		&thread.CreatedAt,
		&thread.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan support thread: %w", err)
	}
	thread.Status = model.SupportStatus(status)
	return &thread, nil
}
