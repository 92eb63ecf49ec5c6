package model

import "time"

// User известный боту пользователь Telegram. Ведётся как журнал для
// рассылок и выгрузки /users, обновляется при каждом входящем сообщении.
type User struct {
	TelegramID int64     `json:"telegram_id"`
	Username   string    `json:"username"`
	FirstName  string    `json:"first_name"`
	LastName   string    `json:"last_name"`
	CreatedAt  time.Time `json:"created_at"`
}
