package dialog

import (
	"fmt"
	"strings"

	"github.com/avitoexc/excursion-bot/internal/model"
)

// ========================
// Callback Data
// ========================

const (
	ChoiceRoleStudent     = "role_student"
	ChoiceRoleGroupLeader = "role_group"

	// city_<role>_<code>, slot_<role>_<code>_<index>, waitlist_<role>_<code>_<index>
	cityPrefix     = "city_"
	slotPrefix     = "slot_"
	waitlistPrefix = "waitlist_"

	universityPrefix = "university_" // university_<название>
	instTypePrefix   = "insttype_"   // insttype_university|school|spo

	ChoiceParticipantsAdd  = "participants_add"
	participantsEditPrefix = "participants_edit_" // participants_edit_<index>
	ChoiceParticipantsDone = "participants_done"

	ChoiceConfirmStudent = "confirm_student"
	ChoiceConfirmGroup   = "confirm_group"

	// Действия вне диалога регистрации (маршрутизируются контроллером)
	ChoiceConfirmParticipation = "confirm_participation"
	ChoiceCancelRegistration   = "cancel_registration"
	ChoiceAskQuestion          = "ask_question"
)

const (
	roleTokenStudent = "student"
	roleTokenGroup   = "group"
)

const resetText = "⚠️ Что-то пошло не так, данные диалога потеряны.\n\n" +
	"Начните запись заново: /start"

const lostDraftText = "❌ Данные регистрации не найдены.\n\n" +
	"Возможно, бот был перезапущен. Начните запись заново: /start"

// ========================
// Keyboards
// ========================

func roleKeyboard() [][]Button {
	return [][]Button{
		{{Label: "🎓 Я студент", Data: ChoiceRoleStudent}},
		{{Label: "👥 Я руководитель группы", Data: ChoiceRoleGroupLeader}},
		{{Label: "💬 Задать вопрос", Data: ChoiceAskQuestion}},
	}
}

func cityKeyboard(roleToken string) [][]Button {
	return [][]Button{
		{{Label: "Москва", Data: cityPrefix + roleToken + "_" + string(model.CityMoscow)}},
		{{Label: "Санкт-Петербург", Data: cityPrefix + roleToken + "_" + string(model.CitySPB)}},
	}
}

func universityKeyboard() [][]Button {
	rows := make([][]Button, 0, len(model.Universities))
	for _, u := range model.Universities {
		rows = append(rows, []Button{{Label: u, Data: universityPrefix + u}})
	}
	return rows
}

func institutionTypeKeyboard() [][]Button {
	return [][]Button{
		{{Label: "🎓 ВУЗ", Data: instTypePrefix + string(model.InstitutionUniversity)}},
		{{Label: "🏫 Школа", Data: instTypePrefix + string(model.InstitutionSchool)}},
		{{Label: "📚 СПО", Data: instTypePrefix + string(model.InstitutionSPO)}},
	}
}

func confirmKeyboard(data string) [][]Button {
	return [][]Button{
		{{Label: "✅ Подтвердить запись", Data: data}},
	}
}

// participantsKeyboard собирает действия над списком участников: изменить
// существующего, добавить нового (пока не достигнут лимит), завершить.
func participantsKeyboard(participants []model.Participant) [][]Button {
	var rows [][]Button
	for i, p := range participants {
		rows = append(rows, []Button{{
			Label: fmt.Sprintf("✏️ %d. %s", i+1, p.FullName),
			Data:  fmt.Sprintf("%s%d", participantsEditPrefix, i),
		}})
	}
	if len(participants) < model.MaxParticipants {
		label := "➕ Добавить участника"
		if len(participants) == 0 {
			label = "➕ Добавить первого участника"
		}
		rows = append(rows, []Button{{Label: label, Data: ChoiceParticipantsAdd}})
	}
	if len(participants) > 0 {
		rows = append(rows, []Button{{Label: "✅ Завершить список", Data: ChoiceParticipantsDone}})
	}
	return rows
}

// ========================
// Texts
// ========================

func participantsListText(participants []model.Participant) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "👥 Участники группы (%d из %d):\n", len(participants), model.MaxParticipants)
	for i, p := range participants {
		fmt.Fprintf(&sb, "%d. %s — %s\n", i+1, p.FullName, p.BirthDate)
	}
	if len(participants) == 0 {
		sb.WriteString("Пока никого нет.\n")
	}
	sb.WriteString("\nЧто дальше?")
	return sb.String()
}

func studentSummary(d *model.Draft) string {
	return fmt.Sprintf(
		"📋 Проверьте данные:\n\n"+
			"Слот: %s (%s)\n"+
			"Фамилия: %s\n"+
			"Имя: %s\n"+
			"Отчество: %s\n"+
			"Дата рождения: %s\n"+
			"Почта: %s\n"+
			"Телефон: %s\n"+
			"Университет: %s\n"+
			"Факультет: %s\n\n"+
			"Если всё верно, подтвердите запись.",
		d.SlotLabel(), d.City.DisplayName(),
		d.Surname, d.Name, d.Patronymic, d.BirthDate, d.Email, d.Phone,
		d.University, d.Faculty,
	)
}

func groupSummary(d *model.Draft) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "📋 Проверьте данные:\n\n")
	fmt.Fprintf(&sb, "Слот: %s (%s)\n", d.SlotLabel(), d.City.DisplayName())
	fmt.Fprintf(&sb, "Фамилия: %s\nИмя: %s\nОтчество: %s\n", d.Surname, d.Name, d.Patronymic)
	fmt.Fprintf(&sb, "Дата рождения: %s\nПочта: %s\nТелефон: %s\n", d.BirthDate, d.Email, d.Phone)
	fmt.Fprintf(&sb, "Тип учреждения: %s\n", d.InstitutionType.DisplayName())
	if d.InstitutionType == model.InstitutionUniversity {
		fmt.Fprintf(&sb, "Университет: %s\nФакультет: %s\n", d.University, d.Faculty)
	} else {
		fmt.Fprintf(&sb, "Название учреждения: %s\n", d.InstitutionName)
	}
	fmt.Fprintf(&sb, "\nУчастники (%d):\n", len(d.Participants))
	for i, p := range d.Participants {
		fmt.Fprintf(&sb, "%d. %s — %s\n", i+1, p.FullName, p.BirthDate)
	}
	sb.WriteString("\nЕсли всё верно, подтвердите запись.")
	return sb.String()
}
