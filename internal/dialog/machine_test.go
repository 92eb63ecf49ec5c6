package dialog

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/avitoexc/excursion-bot/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeRegistry занятость слотов в памяти
type fakeRegistry struct {
	confirmed map[string]bool
	counts    map[string]int
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{
		confirmed: make(map[string]bool),
		counts:    make(map[string]int),
	}
}

func (f *fakeRegistry) IsGroupSlotConfirmed(_ context.Context, slotID string) (bool, error) {
	return f.confirmed[slotID], nil
}

func (f *fakeRegistry) StudentSlotCount(_ context.Context, slotID string) (int, error) {
	return f.counts[slotID], nil
}

// fakeCommitter запоминает зафиксированные черновики
type fakeCommitter struct {
	students     []model.Draft
	groupLeaders []model.Draft
	waitingList  []model.Draft
	err          error
}

func (f *fakeCommitter) CommitStudent(_ context.Context, _ int64, d model.Draft) error {
	f.students = append(f.students, d)
	return f.err
}

func (f *fakeCommitter) CommitGroupLeader(_ context.Context, _ int64, d model.Draft) error {
	f.groupLeaders = append(f.groupLeaders, d)
	return f.err
}

func (f *fakeCommitter) CommitWaitingList(_ context.Context, _ int64, d model.Draft) error {
	f.waitingList = append(f.waitingList, d)
	return f.err
}

func newTestMachine(registry *fakeRegistry, committer *fakeCommitter) *Machine {
	m := NewMachine(NewSessions(), registry, committer, zap.NewNop())
	m.now = func() time.Time {
		return time.Date(2026, time.February, 1, 12, 0, 0, 0, time.UTC)
	}
	return m
}

const userID int64 = 42

func mustHandleText(t *testing.T, m *Machine, text string) Reply {
	t.Helper()
	reply, ok := m.HandleText(context.Background(), userID, text)
	require.True(t, ok, "text %q must be handled", text)
	return reply
}

func mustHandleChoice(t *testing.T, m *Machine, data string) Reply {
	t.Helper()
	reply, ok := m.HandleChoice(context.Background(), userID, data)
	require.True(t, ok, "choice %q must be handled", data)
	return reply
}

// startGroupFlow проводит руководителя группы до этапа участников
func startGroupFlow(t *testing.T, m *Machine) {
	t.Helper()
	mustHandleChoice(t, m, "slot_group_MSK_0")
	mustHandleText(t, m, "Петрова")
	mustHandleText(t, m, "Анна")
	mustHandleText(t, m, "Сергеевна")
	mustHandleText(t, m, "10.10.1985")
	mustHandleText(t, m, "anna@school.ru")
	mustHandleText(t, m, "79161234567")
	mustHandleChoice(t, m, "insttype_school")
	mustHandleText(t, m, "Школа №57")
}

func TestStudentHappyPath(t *testing.T) {
	registry := newFakeRegistry()
	committer := &fakeCommitter{}
	m := newTestMachine(registry, committer)

	mustHandleChoice(t, m, "slot_student_MSK_0")
	mustHandleText(t, m, "Иванов")
	mustHandleText(t, m, "Пётр")
	mustHandleText(t, m, "Ильич")
	mustHandleText(t, m, "01.01.2005")
	mustHandleText(t, m, "a@b.com")
	mustHandleText(t, m, "79001234567")
	mustHandleChoice(t, m, "university_МГУ")
	summary := mustHandleText(t, m, "Физтех")

	assert.Contains(t, summary.Text, "Иванов")
	assert.Contains(t, summary.Text, "МГУ")

	done := mustHandleChoice(t, m, ChoiceConfirmStudent)
	assert.Contains(t, done.Text, "Вы записаны")

	require.Len(t, committer.students, 1)
	d := committer.students[0]
	assert.Equal(t, "25 февраля, 15:00_MSK", d.Slot)
	assert.Equal(t, "Иванов", d.Surname)
	assert.Equal(t, "Пётр", d.Name)
	assert.Equal(t, "Ильич", d.Patronymic)
	assert.Equal(t, "01.01.2005", d.BirthDate)
	assert.Equal(t, "a@b.com", d.Email)
	assert.Equal(t, "79001234567", d.Phone)
	assert.Equal(t, "МГУ", d.University)
	assert.Equal(t, "Физтех", d.Faculty)

	// Сессия очищена, счётчик слота на этом этапе не меняется
	assert.Nil(t, m.Sessions().Get(userID))
	assert.Equal(t, 0, registry.counts[d.Slot])
}

func TestUniversityStepRejectsFreeText(t *testing.T) {
	m := newTestMachine(newFakeRegistry(), &fakeCommitter{})

	mustHandleChoice(t, m, "slot_student_MSK_0")
	mustHandleText(t, m, "Иванов")
	mustHandleText(t, m, "Пётр")
	mustHandleText(t, m, "Ильич")
	mustHandleText(t, m, "01.01.2005")
	mustHandleText(t, m, "a@b.com")
	mustHandleText(t, m, "79001234567")

	reply := mustHandleText(t, m, "МГУ")
	assert.NotEmpty(t, reply.Keyboard, "re-prompt must repeat the menu")

	session := m.Sessions().Get(userID)
	require.NotNil(t, session)
	assert.Equal(t, StepUniversity, session.Step)
	assert.Empty(t, session.Draft.University)
}

func TestFullStudentSlotOffersWaitingList(t *testing.T) {
	registry := newFakeRegistry()
	registry.counts["25 февраля, 15:00_MSK"] = model.StudentSlotCapacity
	m := newTestMachine(registry, &fakeCommitter{})

	reply := mustHandleChoice(t, m, "slot_student_MSK_0")
	assert.Contains(t, reply.Text, "лист ожидания")
	require.Len(t, reply.Keyboard, 1)
	assert.Equal(t, "waitlist_student_MSK_0", reply.Keyboard[0][0].Data)
	assert.Nil(t, m.Sessions().Get(userID), "full slot must not start the flow")
}

func TestWaitingListScenario(t *testing.T) {
	registry := newFakeRegistry()
	registry.confirmed["20 февраля, 15:00_MSK"] = true
	committer := &fakeCommitter{}
	m := newTestMachine(registry, committer)

	offer := mustHandleChoice(t, m, "slot_group_MSK_0")
	assert.Contains(t, offer.Text, "лист ожидания")

	mustHandleChoice(t, m, "waitlist_group_MSK_0")
	mustHandleText(t, m, "Сидорова")
	mustHandleText(t, m, "Мария")
	mustHandleText(t, m, "Петровна")
	mustHandleText(t, m, "79990001122")
	done := mustHandleText(t, m, "m@s.ru")

	assert.Contains(t, done.Text, "лист")

	require.Len(t, committer.waitingList, 1)
	d := committer.waitingList[0]
	assert.Equal(t, "20 февраля, 15:00", d.SlotLabel())
	assert.Equal(t, model.CityMoscow, d.City)
	assert.Equal(t, "Сидорова", d.Surname)
	assert.Equal(t, "79990001122", d.Phone)
	assert.Equal(t, "m@s.ru", d.Email)

	// Диалог сброшен, реестр слотов не тронут
	assert.Nil(t, m.Sessions().Get(userID))
	assert.True(t, registry.confirmed["20 февраля, 15:00_MSK"])
	assert.Empty(t, registry.counts)
}

func TestGroupLeaderParticipantsFlow(t *testing.T) {
	committer := &fakeCommitter{}
	m := newTestMachine(newFakeRegistry(), committer)

	startGroupFlow(t, m)

	mustHandleChoice(t, m, ChoiceParticipantsAdd)
	mustHandleText(t, m, "Кузнецов Иван")
	list := mustHandleText(t, m, "05.05.2008")
	assert.Contains(t, list.Text, "Кузнецов Иван")

	mustHandleChoice(t, m, ChoiceParticipantsDone)
	done := mustHandleChoice(t, m, ChoiceConfirmGroup)
	assert.Contains(t, done.Text, "Вы записаны")

	require.Len(t, committer.groupLeaders, 1)
	d := committer.groupLeaders[0]
	assert.Equal(t, model.InstitutionSchool, d.InstitutionType)
	assert.Equal(t, "Школа №57", d.InstitutionName)
	require.Len(t, d.Participants, 1)
	assert.Equal(t, "Кузнецов Иван", d.Participants[0].FullName)
}

func TestUnderageParticipantRejected(t *testing.T) {
	m := newTestMachine(newFakeRegistry(), &fakeCommitter{})

	startGroupFlow(t, m)
	mustHandleChoice(t, m, ChoiceParticipantsAdd)
	mustHandleText(t, m, "Младший Участник")

	// Возраст 13 на тестовую дату — шаг повторяется, список не растёт
	reject := mustHandleText(t, m, "01.01.2013")
	assert.Contains(t, reject.Text, "14")

	session := m.Sessions().Get(userID)
	require.NotNil(t, session)
	assert.Equal(t, StepParticipantBirthDate, session.Step)
	assert.Empty(t, session.Draft.Participants)
	assert.Equal(t, "Младший Участник", session.Draft.PendingParticipantName,
		"имя сохраняется для повторного ввода даты")

	// Корректная дата после отказа использует сохранённое имя
	mustHandleText(t, m, "01.01.2005")
	require.Len(t, session.Draft.Participants, 1)
	assert.Equal(t, "Младший Участник", session.Draft.Participants[0].FullName)
}

func TestParticipantListCapAt15(t *testing.T) {
	m := newTestMachine(newFakeRegistry(), &fakeCommitter{})

	startGroupFlow(t, m)
	for i := 0; i < model.MaxParticipants; i++ {
		mustHandleChoice(t, m, ChoiceParticipantsAdd)
		mustHandleText(t, m, fmt.Sprintf("Участник %02d", i+1))
		mustHandleText(t, m, "01.01.2005")
	}

	session := m.Sessions().Get(userID)
	require.NotNil(t, session)
	require.Len(t, session.Draft.Participants, model.MaxParticipants)

	// Кнопка добавления при полном списке не предлагается
	list := m.participantsListReply(session)
	for _, row := range list.Keyboard {
		for _, btn := range row {
			assert.NotEqual(t, ChoiceParticipantsAdd, btn.Data)
		}
	}

	// Повторное нажатие "добавить" список не увеличивает
	mustHandleChoice(t, m, ChoiceParticipantsAdd)
	assert.Len(t, session.Draft.Participants, model.MaxParticipants)
	assert.Equal(t, StepParticipantsList, session.Step)
}

func TestEditParticipantInPlace(t *testing.T) {
	m := newTestMachine(newFakeRegistry(), &fakeCommitter{})

	startGroupFlow(t, m)
	for i := 0; i < 3; i++ {
		mustHandleChoice(t, m, ChoiceParticipantsAdd)
		mustHandleText(t, m, fmt.Sprintf("Участник %d", i+1))
		mustHandleText(t, m, "01.01.2005")
	}

	mustHandleChoice(t, m, "participants_edit_1")
	mustHandleText(t, m, "Исправленный Участник")
	mustHandleText(t, m, "02.02.2006")

	session := m.Sessions().Get(userID)
	require.NotNil(t, session)
	participants := session.Draft.Participants
	require.Len(t, participants, 3)
	assert.Equal(t, "Участник 1", participants[0].FullName)
	assert.Equal(t, "Исправленный Участник", participants[1].FullName)
	assert.Equal(t, "02.02.2006", participants[1].BirthDate)
	assert.Equal(t, "Участник 3", participants[2].FullName)
	assert.Equal(t, -1, session.Draft.EditIndex)
}

func TestStaleEditIndexResetsToAdd(t *testing.T) {
	m := newTestMachine(newFakeRegistry(), &fakeCommitter{})

	startGroupFlow(t, m)
	mustHandleChoice(t, m, ChoiceParticipantsAdd)
	mustHandleText(t, m, "Участник 1")
	mustHandleText(t, m, "01.01.2005")

	reply := mustHandleChoice(t, m, "participants_edit_9")
	assert.Contains(t, reply.Text, "заново")

	session := m.Sessions().Get(userID)
	require.NotNil(t, session)
	assert.Equal(t, StepParticipantFio, session.Step)
	assert.Len(t, session.Draft.Participants, 1)
}

func TestConfirmWithoutDraftReportsLostState(t *testing.T) {
	committer := &fakeCommitter{}
	m := newTestMachine(newFakeRegistry(), committer)

	reply := mustHandleChoice(t, m, ChoiceConfirmStudent)
	assert.Contains(t, reply.Text, "не найдены")
	assert.Empty(t, committer.students)
}

func TestUnknownStepResetsConversation(t *testing.T) {
	m := newTestMachine(newFakeRegistry(), &fakeCommitter{})

	m.Sessions().Put(userID, &Session{Flow: FlowStudent, Step: Step("bogus")})
	reply := mustHandleText(t, m, "что угодно")
	assert.Contains(t, reply.Text, "заново")
	assert.Nil(t, m.Sessions().Get(userID))
}

func TestSlotListShowsAvailability(t *testing.T) {
	registry := newFakeRegistry()
	registry.counts["25 февраля, 15:00_MSK"] = 8
	m := newTestMachine(registry, &fakeCommitter{})

	reply := mustHandleChoice(t, m, "city_student_MSK")
	require.NotEmpty(t, reply.Keyboard)
	assert.Contains(t, reply.Keyboard[0][0].Label, "осталось 7 из 15")
}
