package model

import "time"

type SupportStatus string

const (
	SupportStatusWaiting  SupportStatus = "waiting"  // Ждёт ответа оператора
	SupportStatusAnswered SupportStatus = "answered" // Оператор ответил
	SupportStatusClosed   SupportStatus = "closed"   // Диалог закрыт
)

// SupportThread переписка пользователя с поддержкой. Каждому треду
// соответствует топик в форум-группе администраторов.
type SupportThread struct {
	ID           string        `json:"id"` // uuid
	TelegramID   int64         `json:"telegram_id"`
	Username     string        `json:"username"`
	AdminChatID  int64         `json:"admin_chat_id"`
	AdminTopicID int           `json:"admin_topic_id"`
	Status       SupportStatus `json:"status"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}
