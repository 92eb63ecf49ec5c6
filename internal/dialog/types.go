package dialog

import (
	"context"

	"github.com/avitoexc/excursion-bot/internal/model"
)

// Flow верхнеуровневая ветка диалога регистрации
type Flow string

const (
	FlowNone        Flow = ""
	FlowStudent     Flow = "student"
	FlowGroupLeader Flow = "group_leader"
	FlowWaitingList Flow = "waiting_list"
)

// Step позиция внутри ветки. Переходы описаны в machine.go,
// любое неизвестное значение сбрасывает диалог.
type Step string

const (
	StepNone Step = ""

	// Общий префикс персональных данных
	StepSurname    Step = "surname"
	StepName       Step = "name"
	StepPatronymic Step = "patronymic"
	StepBirthDate  Step = "birth_date"
	StepEmail      Step = "email"
	StepPhone      Step = "phone"

	// Студенты
	StepUniversity Step = "university"
	StepFaculty    Step = "faculty"
	StepConfirm    Step = "confirm"

	// Руководители групп
	StepInstitutionType Step = "institution_type"
	StepInstitutionName Step = "institution_name"

	StepParticipantsList         Step = "participants_list"
	StepParticipantFio           Step = "participant_fio"
	StepParticipantBirthDate     Step = "participant_birth_date"
	StepEditParticipantFio       Step = "edit_participant_fio"
	StepEditParticipantBirthDate Step = "edit_participant_birth_date"

	StepGroupConfirm Step = "group_confirm"
)

// Session состояние одного разговора: ветка, шаг и черновик.
// Живёт от выбора слота до коммита или сброса.
type Session struct {
	Flow  Flow
	Step  Step
	Draft model.Draft
}

// Button кнопка, предлагаемая пользователю
type Button struct {
	Label string
	Data  string
}

// Reply ответ машины: текст и, опционально, клавиатура
type Reply struct {
	Text     string
	Keyboard [][]Button
}

// SlotRegistry доступ к занятости слотов. Шаги диалога только читают
// занятость, изменяет её коммит.
type SlotRegistry interface {
	IsGroupSlotConfirmed(ctx context.Context, slotID string) (bool, error)
	StudentSlotCount(ctx context.Context, slotID string) (int, error)
}

// Committer фиксация завершённых черновиков. Ошибки персистентности
// логируются на стороне реализации и не меняют ответ пользователю.
type Committer interface {
	CommitStudent(ctx context.Context, telegramID int64, draft model.Draft) error
	CommitGroupLeader(ctx context.Context, telegramID int64, draft model.Draft) error
	CommitWaitingList(ctx context.Context, telegramID int64, draft model.Draft) error
}
