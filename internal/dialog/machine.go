package dialog

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/avitoexc/excursion-bot/internal/model"
	"github.com/avitoexc/excursion-bot/internal/validate"
	"go.uber.org/zap"
)

// Machine пошаговая машина диалога регистрации. На каждый входящий
// текст или нажатие кнопки обновляет сессию пользователя и возвращает
// следующий ответ. Занятость слотов машина только читает, изменяет её
// коммит через Committer.
type Machine struct {
	sessions  *Sessions
	registry  SlotRegistry
	committer Committer
	logger    *zap.Logger
	now       func() time.Time
}

// NewMachine создаёт машину диалога
func NewMachine(sessions *Sessions, registry SlotRegistry, committer Committer, logger *zap.Logger) *Machine {
	return &Machine{
		sessions:  sessions,
		registry:  registry,
		committer: committer,
		logger:    logger,
		now:       time.Now,
	}
}

// Sessions возвращает хранилище сессий (для команд /cancel и т.п.)
func (m *Machine) Sessions() *Sessions {
	return m.sessions
}

// Start возвращает стартовый экран выбора роли. Сессия пока не создаётся:
// диалог начинается только после выбора доступного слота.
func (m *Machine) Start() Reply {
	return Reply{
		Text:     "Привет! Я бот для записи на экскурсии в офис Авито.\n\nКто записывается?",
		Keyboard: roleKeyboard(),
	}
}

// ========================
// Кнопки
// ========================

// HandleChoice обрабатывает нажатие кнопки. Возвращает ответ и признак
// того, что callback относится к диалогу регистрации.
func (m *Machine) HandleChoice(ctx context.Context, telegramID int64, data string) (Reply, bool) {
	switch {
	case data == ChoiceRoleStudent:
		return Reply{Text: "В каком городе хотите посетить офис?", Keyboard: cityKeyboard(roleTokenStudent)}, true
	case data == ChoiceRoleGroupLeader:
		return Reply{Text: "В каком городе хотите посетить офис?", Keyboard: cityKeyboard(roleTokenGroup)}, true
	case strings.HasPrefix(data, cityPrefix):
		return m.handleCityChoice(ctx, strings.TrimPrefix(data, cityPrefix)), true
	case strings.HasPrefix(data, slotPrefix):
		return m.handleSlotChoice(ctx, telegramID, strings.TrimPrefix(data, slotPrefix)), true
	case strings.HasPrefix(data, waitlistPrefix):
		return m.handleWaitlistChoice(telegramID, strings.TrimPrefix(data, waitlistPrefix)), true
	case strings.HasPrefix(data, universityPrefix):
		return m.handleUniversityChoice(telegramID, strings.TrimPrefix(data, universityPrefix)), true
	case strings.HasPrefix(data, instTypePrefix):
		return m.handleInstitutionTypeChoice(telegramID, strings.TrimPrefix(data, instTypePrefix)), true
	case data == ChoiceParticipantsAdd:
		return m.handleParticipantsAdd(telegramID), true
	case strings.HasPrefix(data, participantsEditPrefix):
		return m.handleParticipantsEdit(telegramID, strings.TrimPrefix(data, participantsEditPrefix)), true
	case data == ChoiceParticipantsDone:
		return m.handleParticipantsDone(telegramID), true
	case data == ChoiceConfirmStudent:
		return m.handleConfirm(ctx, telegramID, FlowStudent), true
	case data == ChoiceConfirmGroup:
		return m.handleConfirm(ctx, telegramID, FlowGroupLeader), true
	}
	return Reply{}, false
}

// handleCityChoice показывает слоты выбранного города с занятостью
func (m *Machine) handleCityChoice(ctx context.Context, rest string) Reply {
	roleToken, city, ok := parseRoleCity(rest)
	if !ok {
		return Reply{Text: resetText}
	}

	var rows [][]Button
	if roleToken == roleTokenStudent {
		for i, label := range model.StudentSlots[city] {
			slotID := model.SlotID(label, city)
			count := m.studentCount(ctx, slotID)
			display := fmt.Sprintf("%s (осталось %d из %d)", label, model.StudentSlotCapacity-count, model.StudentSlotCapacity)
			if count >= model.StudentSlotCapacity {
				display = label + " — мест нет"
			}
			rows = append(rows, []Button{{
				Label: display,
				Data:  fmt.Sprintf("%s%s_%s_%d", slotPrefix, roleToken, city, i),
			}})
		}
	} else {
		for i, label := range model.GroupSlots[city] {
			slotID := model.SlotID(label, city)
			display := label
			if m.groupConfirmed(ctx, slotID) {
				display = label + " — занято"
			}
			rows = append(rows, []Button{{
				Label: display,
				Data:  fmt.Sprintf("%s%s_%s_%d", slotPrefix, roleToken, city, i),
			}})
		}
	}

	return Reply{Text: "Выберите слот:", Keyboard: rows}
}

// handleSlotChoice начинает регистрацию на свободный слот.
// Занятый слот предлагает лист ожидания вместо начала диалога.
func (m *Machine) handleSlotChoice(ctx context.Context, telegramID int64, rest string) Reply {
	roleToken, city, index, ok := parseSlotRef(rest)
	if !ok {
		return Reply{Text: resetText}
	}

	label, ok := slotLabel(roleToken, city, index)
	if !ok {
		return Reply{Text: resetText}
	}
	slotID := model.SlotID(label, city)

	full := false
	flow := FlowStudent
	if roleToken == roleTokenStudent {
		full = m.studentCount(ctx, slotID) >= model.StudentSlotCapacity
	} else {
		flow = FlowGroupLeader
		full = m.groupConfirmed(ctx, slotID)
	}

	if full {
		return Reply{
			Text: fmt.Sprintf("К сожалению, мест на слот «%s» уже нет.\n\n"+
				"Можем записать вас в лист ожидания — напишем, если место освободится.", label),
			Keyboard: [][]Button{
				{{Label: "📝 В лист ожидания", Data: fmt.Sprintf("%s%s_%s_%d", waitlistPrefix, roleToken, city, index)}},
			},
		}
	}

	m.sessions.Put(telegramID, &Session{
		Flow: flow,
		Step: StepSurname,
		Draft: model.Draft{
			Slot:      slotID,
			City:      city,
			EditIndex: -1,
		},
	})

	m.logger.Info("Registration dialog started",
		zap.Int64("telegram_id", telegramID),
		zap.String("flow", string(flow)),
		zap.String("slot", slotID))

	return Reply{
		Text: fmt.Sprintf("Записываю на «%s» (%s).\n\n"+
			"Введите фамилию:\n\nДля отмены используйте /cancel", label, city.DisplayName()),
	}
}

// handleWaitlistChoice начинает короткую анкету листа ожидания
func (m *Machine) handleWaitlistChoice(telegramID int64, rest string) Reply {
	roleToken, city, index, ok := parseSlotRef(rest)
	if !ok {
		return Reply{Text: resetText}
	}
	label, ok := slotLabel(roleToken, city, index)
	if !ok {
		return Reply{Text: resetText}
	}

	m.sessions.Put(telegramID, &Session{
		Flow: FlowWaitingList,
		Step: StepSurname,
		Draft: model.Draft{
			Slot:      model.SlotID(label, city),
			City:      city,
			EditIndex: -1,
		},
	})

	return Reply{Text: "Записываю в лист ожидания.\n\nВведите фамилию:"}
}

func (m *Machine) handleUniversityChoice(telegramID int64, university string) Reply {
	session := m.sessions.Get(telegramID)
	if session == nil || session.Step != StepUniversity {
		// Устаревшая кнопка, молча игнорируем
		return Reply{}
	}

	session.Draft.University = university
	session.Step = StepFaculty
	return Reply{Text: "Введите факультет:"}
}

func (m *Machine) handleInstitutionTypeChoice(telegramID int64, value string) Reply {
	session := m.sessions.Get(telegramID)
	if session == nil || session.Step != StepInstitutionType {
		return Reply{}
	}

	instType := model.InstitutionType(value)
	session.Draft.InstitutionType = instType

	switch instType {
	case model.InstitutionUniversity:
		session.Step = StepUniversity
		return Reply{Text: "Выберите университет:", Keyboard: universityKeyboard()}
	case model.InstitutionSchool, model.InstitutionSPO:
		session.Step = StepInstitutionName
		return Reply{Text: "Введите название учреждения:"}
	default:
		return m.reset(telegramID)
	}
}

func (m *Machine) handleParticipantsAdd(telegramID int64) Reply {
	session := m.sessions.Get(telegramID)
	if session == nil || session.Flow != FlowGroupLeader || session.Step != StepParticipantsList {
		return Reply{}
	}

	if len(session.Draft.Participants) >= model.MaxParticipants {
		// Кнопка при полном списке не показывается, но состояние могло устареть
		return m.participantsListReply(session)
	}

	session.Step = StepParticipantFio
	return Reply{Text: "Введите ФИО участника:"}
}

func (m *Machine) handleParticipantsEdit(telegramID int64, rest string) Reply {
	session := m.sessions.Get(telegramID)
	if session == nil || session.Flow != FlowGroupLeader || session.Step != StepParticipantsList {
		return Reply{}
	}

	index, err := strconv.Atoi(rest)
	if err != nil || index < 0 || index >= len(session.Draft.Participants) {
		m.logger.Warn("Stale participant edit index",
			zap.Int64("telegram_id", telegramID),
			zap.String("index", rest))
		session.Step = StepParticipantFio
		session.Draft.EditIndex = -1
		return Reply{Text: "❌ Не удалось найти участника. Добавьте его заново.\n\nВведите ФИО участника:"}
	}

	session.Draft.EditIndex = index
	session.Step = StepEditParticipantFio
	p := session.Draft.Participants[index]
	return Reply{Text: fmt.Sprintf("Редактирую участника %d (%s).\n\nВведите новое ФИО:", index+1, p.FullName)}
}

func (m *Machine) handleParticipantsDone(telegramID int64) Reply {
	session := m.sessions.Get(telegramID)
	if session == nil || session.Flow != FlowGroupLeader || session.Step != StepParticipantsList {
		return Reply{}
	}

	session.Step = StepGroupConfirm
	return Reply{Text: groupSummary(&session.Draft), Keyboard: confirmKeyboard(ChoiceConfirmGroup)}
}

// handleConfirm финальное подтверждение: фиксирует черновик и чистит сессию.
// Ошибки персистентности логируются в Committer и не показываются пользователю.
func (m *Machine) handleConfirm(ctx context.Context, telegramID int64, flow Flow) Reply {
	session := m.sessions.Get(telegramID)
	if session == nil || session.Flow != flow || session.Draft.Slot == "" {
		return Reply{Text: lostDraftText}
	}

	draft := session.Draft

	var err error
	switch flow {
	case FlowStudent:
		if session.Step != StepConfirm {
			return Reply{Text: lostDraftText}
		}
		err = m.committer.CommitStudent(ctx, telegramID, draft)
	case FlowGroupLeader:
		if session.Step != StepGroupConfirm {
			return Reply{Text: lostDraftText}
		}
		err = m.committer.CommitGroupLeader(ctx, telegramID, draft)
	default:
		return Reply{Text: lostDraftText}
	}

	if err != nil {
		m.logger.Error("Commit failed",
			zap.Error(err),
			zap.Int64("telegram_id", telegramID),
			zap.String("flow", string(flow)))
	}

	m.sessions.Clear(telegramID)

	return Reply{
		Text: fmt.Sprintf("✅ Вы записаны на экскурсию «%s» (%s)!\n\n"+
			"Ближе к дате пришлём напоминание и правила посещения офиса.",
			draft.SlotLabel(), draft.City.DisplayName()),
	}
}

// ========================
// Текстовые шаги
// ========================

// HandleText обрабатывает свободный текст очередного шага.
// Возвращает false, если активного диалога регистрации нет.
func (m *Machine) HandleText(ctx context.Context, telegramID int64, text string) (Reply, bool) {
	session := m.sessions.Get(telegramID)
	if session == nil {
		return Reply{}, false
	}

	text = strings.TrimSpace(text)
	draft := &session.Draft

	switch session.Step {
	case StepSurname:
		draft.Surname = text
		session.Step = StepName
		return Reply{Text: "Введите имя:"}, true

	case StepName:
		draft.Name = text
		session.Step = StepPatronymic
		return Reply{Text: "Введите отчество:"}, true

	case StepPatronymic:
		draft.Patronymic = text
		if session.Flow == FlowWaitingList {
			session.Step = StepPhone
			return Reply{Text: "Введите телефон:"}, true
		}
		session.Step = StepBirthDate
		return Reply{Text: "Введите дату рождения (ДД.ММ.ГГГГ):"}, true

	case StepBirthDate:
		draft.BirthDate = text
		session.Step = StepEmail
		return Reply{Text: "Введите почту:"}, true

	case StepEmail:
		draft.Email = text
		if session.Flow == FlowWaitingList {
			// Лист ожидания подтверждения не требует, коммитим сразу
			return m.commitWaitingList(ctx, telegramID, session), true
		}
		session.Step = StepPhone
		return Reply{Text: "Введите телефон:"}, true

	case StepPhone:
		draft.Phone = text
		switch session.Flow {
		case FlowWaitingList:
			session.Step = StepEmail
			return Reply{Text: "Введите почту:"}, true
		case FlowStudent:
			session.Step = StepUniversity
			return Reply{Text: "Выберите университет:", Keyboard: universityKeyboard()}, true
		case FlowGroupLeader:
			session.Step = StepInstitutionType
			return Reply{Text: "Выберите тип учреждения:", Keyboard: institutionTypeKeyboard()}, true
		default:
			return m.reset(telegramID), true
		}

	case StepUniversity:
		// Шаг ожидает кнопку, свободный текст не продвигает диалог
		return Reply{Text: "Пожалуйста, выберите университет кнопкой:", Keyboard: universityKeyboard()}, true

	case StepInstitutionType:
		return Reply{Text: "Пожалуйста, выберите тип учреждения кнопкой:", Keyboard: institutionTypeKeyboard()}, true

	case StepFaculty:
		draft.Faculty = text
		if session.Flow == FlowGroupLeader {
			return m.enterParticipantsStage(session), true
		}
		session.Step = StepConfirm
		return Reply{Text: studentSummary(draft), Keyboard: confirmKeyboard(ChoiceConfirmStudent)}, true

	case StepInstitutionName:
		draft.InstitutionName = text
		return m.enterParticipantsStage(session), true

	case StepParticipantFio:
		draft.PendingParticipantName = text
		session.Step = StepParticipantBirthDate
		return Reply{Text: "Введите дату рождения участника (ДД.ММ.ГГГГ):"}, true

	case StepParticipantBirthDate:
		if !validate.AgeAtLeast14(text, m.now()) {
			// Имя сохранено, пользователь вводит только новую дату
			return Reply{Text: fmt.Sprintf("❌ Участники младше %d лет не допускаются на экскурсию.\n\n"+
				"Введите дату рождения другого участника или исправьте дату (ДД.ММ.ГГГГ):", validate.MinParticipantAge)}, true
		}
		if len(draft.Participants) >= model.MaxParticipants {
			return m.participantsListReply(session), true
		}
		draft.Participants = append(draft.Participants, model.Participant{
			FullName:  draft.PendingParticipantName,
			BirthDate: text,
		})
		draft.PendingParticipantName = ""
		return m.participantsListReply(session), true

	case StepEditParticipantFio:
		if draft.EditIndex < 0 || draft.EditIndex >= len(draft.Participants) {
			return m.staleEditReply(session), true
		}
		draft.PendingParticipantName = text
		session.Step = StepEditParticipantBirthDate
		return Reply{Text: "Введите дату рождения участника (ДД.ММ.ГГГГ):"}, true

	case StepEditParticipantBirthDate:
		if draft.EditIndex < 0 || draft.EditIndex >= len(draft.Participants) {
			return m.staleEditReply(session), true
		}
		if !validate.AgeAtLeast14(text, m.now()) {
			return Reply{Text: fmt.Sprintf("❌ Участники младше %d лет не допускаются на экскурсию.\n\n"+
				"Введите другую дату рождения (ДД.ММ.ГГГГ):", validate.MinParticipantAge)}, true
		}
		draft.Participants[draft.EditIndex] = model.Participant{
			FullName:  draft.PendingParticipantName,
			BirthDate: text,
		}
		draft.EditIndex = -1
		draft.PendingParticipantName = ""
		return m.participantsListReply(session), true

	case StepParticipantsList:
		return m.participantsListReply(session), true

	case StepConfirm:
		return Reply{Text: "Нажмите кнопку, чтобы подтвердить запись:", Keyboard: confirmKeyboard(ChoiceConfirmStudent)}, true

	case StepGroupConfirm:
		return Reply{Text: "Нажмите кнопку, чтобы подтвердить запись:", Keyboard: confirmKeyboard(ChoiceConfirmGroup)}, true

	default:
		// Рассинхронизированное состояние, единственный безопасный выход — сброс
		m.logger.Warn("Unknown dialog step",
			zap.Int64("telegram_id", telegramID),
			zap.String("step", string(session.Step)))
		return m.reset(telegramID), true
	}
}

// ========================
// Helpers
// ========================

func (m *Machine) enterParticipantsStage(session *Session) Reply {
	session.Step = StepParticipantsList
	return Reply{
		Text: fmt.Sprintf("Теперь добавьте участников группы (до %d человек).", model.MaxParticipants),
		Keyboard: [][]Button{
			{{Label: "➕ Добавить первого участника", Data: ChoiceParticipantsAdd}},
		},
	}
}

func (m *Machine) participantsListReply(session *Session) Reply {
	session.Step = StepParticipantsList
	return Reply{
		Text:     participantsListText(session.Draft.Participants),
		Keyboard: participantsKeyboard(session.Draft.Participants),
	}
}

func (m *Machine) staleEditReply(session *Session) Reply {
	session.Draft.EditIndex = -1
	session.Draft.PendingParticipantName = ""
	session.Step = StepParticipantFio
	return Reply{Text: "❌ Не удалось найти участника. Добавьте его заново.\n\nВведите ФИО участника:"}
}

func (m *Machine) reset(telegramID int64) Reply {
	m.sessions.Clear(telegramID)
	return Reply{Text: resetText}
}

func (m *Machine) commitWaitingList(ctx context.Context, telegramID int64, session *Session) Reply {
	draft := session.Draft
	if err := m.committer.CommitWaitingList(ctx, telegramID, draft); err != nil {
		// Запись в лист ожидания best-effort: пользователь видит успех
		m.logger.Error("Waiting list commit failed",
			zap.Error(err),
			zap.Int64("telegram_id", telegramID),
			zap.String("slot", draft.Slot))
	}
	m.sessions.Clear(telegramID)
	return Reply{
		Text: fmt.Sprintf("✅ Вы в листе ожидания на «%s» (%s).\n\n"+
			"Напишем, если место освободится.", draft.SlotLabel(), draft.City.DisplayName()),
	}
}

func (m *Machine) studentCount(ctx context.Context, slotID string) int {
	count, err := m.registry.StudentSlotCount(ctx, slotID)
	if err != nil {
		m.logger.Error("Failed to read student slot count",
			zap.Error(err), zap.String("slot", slotID))
		return 0
	}
	return count
}

func (m *Machine) groupConfirmed(ctx context.Context, slotID string) bool {
	confirmed, err := m.registry.IsGroupSlotConfirmed(ctx, slotID)
	if err != nil {
		m.logger.Error("Failed to read group slot state",
			zap.Error(err), zap.String("slot", slotID))
		return false
	}
	return confirmed
}

func parseRoleCity(rest string) (string, model.City, bool) {
	parts := strings.Split(rest, "_")
	if len(parts) != 2 {
		return "", "", false
	}
	if parts[0] != roleTokenStudent && parts[0] != roleTokenGroup {
		return "", "", false
	}
	city := model.City(parts[1])
	if city != model.CityMoscow && city != model.CitySPB {
		return "", "", false
	}
	return parts[0], city, true
}

func parseSlotRef(rest string) (string, model.City, int, bool) {
	parts := strings.Split(rest, "_")
	if len(parts) != 3 {
		return "", "", 0, false
	}
	roleToken, city, ok := parseRoleCity(parts[0] + "_" + parts[1])
	if !ok {
		return "", "", 0, false
	}
	index, err := strconv.Atoi(parts[2])
	if err != nil || index < 0 {
		return "", "", 0, false
	}
	return roleToken, city, index, true
}

func slotLabel(roleToken string, city model.City, index int) (string, bool) {
	slots := model.StudentSlots[city]
	if roleToken == roleTokenGroup {
		slots = model.GroupSlots[city]
	}
	if index >= len(slots) {
		return "", false
	}
	return slots[index], true
}
