package repository

import (
	"context"
	"fmt"

	"github.com/avitoexc/excursion-bot/internal/model"
	"github.com/jackc/pgx/v5/pgxpool"
)

// UserRepository журнал всех пользователей, писавших боту.
// Используется для рассылок и выгрузки /users.
type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// Upsert запоминает пользователя или обновляет его данные
func (r *UserRepository) Upsert(ctx context.Context, user *model.User) error {
	query := `
		INSERT INTO users (telegram_id, username, first_name, last_name)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (telegram_id) DO UPDATE
		SET username = $2, first_name = $3, last_name = $4
	`

	_, err := r.pool.Exec(ctx, query, user.TelegramID, user.Username, user.FirstName, user.LastName)
	if err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}

	return nil
}

// GetAll возвращает всех известных пользователей по возрастанию telegram id
func (r *UserRepository) GetAll(ctx context.Context) ([]*model.User, error) {
	query := `
		SELECT telegram_id, username, first_name, last_name, created_at
		FROM users
		ORDER BY telegram_id
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get all users: %w", err)
	}
	defer rows.Close()

	var users []*model.User
	for rows.Next() {
		var user model.User
		err := rows.Scan(
			&user.TelegramID,
			&user.Username,
			&user.FirstName,
			&user.LastName,
			&user.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, &user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}

	return users, nil
}
