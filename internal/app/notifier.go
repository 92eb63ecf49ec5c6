package app

import (
	"context"
	"fmt"

	"github.com/avitoexc/excursion-bot/internal/dialog"
	"github.com/avitoexc/excursion-bot/internal/model"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

const rulesText = "📋 Правила посещения офиса:\n\n" +
	"• Возьмите с собой паспорт — без него охрана не пропустит.\n" +
	"• Приходите за 15 минут до начала экскурсии.\n" +
	"• Фотографировать можно везде, кроме рабочих зон команд.\n\n" +
	"Если планы изменятся, отмените запись через /myregistration."

const confirmParticipationText = "Ближе к дате экскурсии, пожалуйста, подтвердите участие — " +
	"так мы поймём, сколько гостей ждать."

type commitEvent struct {
	telegramID int64
	role       model.Role
	draft      model.Draft
}

// Notifier фоновый обработчик событий о зафиксированных регистрациях.
// Доставка уведомлений изолирована от коммита: ошибки логируются и не
// влияют на ответ пользователю.
type Notifier struct {
	bot      *bot.Bot
	logger   *zap.Logger
	events   chan commitEvent
	stopChan chan struct{}
}

// NewNotifier создаёт notifier с буфером событий
func NewNotifier(b *bot.Bot, logger *zap.Logger) *Notifier {
	return &Notifier{
		bot:      b,
		logger:   logger,
		events:   make(chan commitEvent, 64),
		stopChan: make(chan struct{}),
	}
}

// RegistrationCommitted ставит событие в очередь, не блокируя коммит.
// При переполненном буфере событие теряется, пользователь уже записан.
func (n *Notifier) RegistrationCommitted(telegramID int64, role model.Role, draft model.Draft) {
	select {
	case n.events <- commitEvent{telegramID: telegramID, role: role, draft: draft}:
	default:
		n.logger.Warn("Notifier queue full, dropping event",
			zap.Int64("telegram_id", telegramID))
	}
}

// Start запускает фоновую доставку уведомлений
func (n *Notifier) Start(ctx context.Context) {
	n.logger.Info("Starting commit notifier")
	go n.run(ctx)
}

// Stop останавливает фоновую доставку
func (n *Notifier) Stop() {
	n.logger.Info("Stopping commit notifier")
	close(n.stopChan)
}

func (n *Notifier) run(ctx context.Context) {
	for {
		select {
		case event := <-n.events:
			n.deliver(ctx, event)
		case <-n.stopChan:
			n.logger.Info("Commit notifier stopped")
			return
		case <-ctx.Done():
			n.logger.Info("Commit notifier cancelled")
			return
		}
	}
}

// deliver отправляет правила посещения и, для студентов, просьбу
// подтвердить участие (второй этап записи)
func (n *Notifier) deliver(ctx context.Context, event commitEvent) {
	_, err := n.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: event.telegramID,
		Text:   rulesText,
	})
	if err != nil {
		n.logger.Error("Failed to send rules message",
			zap.Error(err),
			zap.Int64("telegram_id", event.telegramID))
		return
	}

	if event.role != model.RoleStudent {
		return
	}

	keyboard := &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{{Text: "✅ Подтверждаю участие", CallbackData: dialog.ChoiceConfirmParticipation}},
		},
	}

	_, err = n.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: event.telegramID,
		Text: fmt.Sprintf("%s\n\nВы записаны на «%s» (%s).",
			confirmParticipationText, event.draft.SlotLabel(), event.draft.City.DisplayName()),
		ReplyMarkup: keyboard,
	})
	if err != nil {
		n.logger.Error("Failed to send participation prompt",
			zap.Error(err),
			zap.Int64("telegram_id", event.telegramID))
	}
}
