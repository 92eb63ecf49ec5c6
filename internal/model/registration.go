package model

import (
	"strings"
	"time"
)

type Role string

const (
	RoleStudent     Role = "student"
	RoleGroupLeader Role = "group_leader"
)

// Participant участник группы, добавленный руководителем
type Participant struct {
	FullName  string `json:"full_name"`
	BirthDate string `json:"birth_date"`
}

// Draft черновик регистрации, который собирается по шагам диалога.
// Принадлежит ровно одному разговору и сбрасывается при коммите.
type Draft struct {
	Slot string `json:"slot"` // "<метка>_<город>"
	City City   `json:"city"`

	Surname    string `json:"surname"`
	Name       string `json:"name"`
	Patronymic string `json:"patronymic"`
	BirthDate  string `json:"birth_date"` // свободный текст, ожидается ДД.ММ.ГГГГ
	Email      string `json:"email"`
	Phone      string `json:"phone"`

	// Только для студентов
	University string `json:"university,omitempty"`
	Faculty    string `json:"faculty,omitempty"`

	// Только для руководителей групп
	InstitutionType InstitutionType `json:"institution_type,omitempty"`
	InstitutionName string          `json:"institution_name,omitempty"`
	Participants    []Participant   `json:"participants,omitempty"`

	// Временные поля диалога, в запись не попадают
	EditIndex              int    `json:"-"` // -1, когда участник не редактируется
	PendingParticipantName string `json:"-"`
}

// SlotLabel возвращает человекочитаемую часть идентификатора слота
func (d *Draft) SlotLabel() string {
	if i := strings.LastIndex(d.Slot, "_"); i >= 0 {
		return d.Slot[:i]
	}
	return d.Slot
}

// Registration итоговая запись регистрации, одна строка на подтверждённый черновик
type Registration struct {
	ID         int64     `json:"id"`
	TelegramID int64     `json:"telegram_id"`
	Role       Role      `json:"role"`
	Draft      Draft     `json:"draft"`
	CreatedAt  time.Time `json:"created_at"`
}

// WaitingListEntry запись в листе ожидания на занятый слот
type WaitingListEntry struct {
	ID         int64     `json:"id"`
	TelegramID int64     `json:"telegram_id"`
	City       string    `json:"city"` // название города, не код
	SlotLabel  string    `json:"slot_label"`
	Surname    string    `json:"surname"`
	Name       string    `json:"name"`
	Patronymic string    `json:"patronymic"`
	Phone      string    `json:"phone"`
	Email      string    `json:"email"`
	CreatedAt  time.Time `json:"created_at"`
}

// FormatParticipants сворачивает список участников в одну текстовую колонку
// для выгрузки: "ФИО — дата; ФИО — дата"
func FormatParticipants(participants []Participant) string {
	parts := make([]string, 0, len(participants))
	for _, p := range participants {
		parts = append(parts, p.FullName+" — "+p.BirthDate)
	}
	return strings.Join(parts, "; ")
}
