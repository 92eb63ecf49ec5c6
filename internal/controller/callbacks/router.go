package callbacks

import (
	"context"
	"fmt"

	"github.com/avitoexc/excursion-bot/internal/dialog"
	"github.com/avitoexc/excursion-bot/internal/service"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// Callbacks маршрутизация нажатий инлайн-кнопок
type Callbacks struct {
	machine             *dialog.Machine
	registrationService *service.RegistrationService
	logger              *zap.Logger
	onAskQuestion       func(telegramID int64)
}

func NewCallbacks(
	machine *dialog.Machine,
	registrationService *service.RegistrationService,
	logger *zap.Logger,
	onAskQuestion func(telegramID int64),
) *Callbacks {
	return &Callbacks{
		machine:             machine,
		registrationService: registrationService,
		logger:              logger,
		onAskQuestion:       onAskQuestion,
	}
}

// HandleCallbackQuery обрабатывает нажатие инлайн-кнопки
func (c *Callbacks) HandleCallbackQuery(ctx context.Context, b *bot.Bot, update *models.Update) {
	callback := update.CallbackQuery
	if callback.Message.Message == nil {
		return
	}

	// Убираем "часики" на кнопке
	if _, err := b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: callback.ID,
	}); err != nil {
		c.logger.Error("Failed to answer callback query", zap.Error(err))
	}

	chatID := callback.Message.Message.Chat.ID
	telegramID := callback.From.ID

	switch callback.Data {
	case dialog.ChoiceConfirmParticipation:
		c.handleConfirmParticipation(ctx, b, chatID, telegramID)
	case dialog.ChoiceCancelRegistration:
		c.handleCancelRegistration(ctx, b, chatID, telegramID)
	case dialog.ChoiceAskQuestion:
		c.onAskQuestion(telegramID)
		c.sendText(ctx, b, chatID, "💬 Напишите ваш вопрос одним сообщением, и мы передадим его команде.")
	default:
		reply, handled := c.machine.HandleChoice(ctx, telegramID, callback.Data)
		if !handled {
			c.logger.Warn("Unknown callback data",
				zap.String("data", callback.Data),
				zap.Int64("telegram_id", telegramID))
			return
		}
		c.sendReply(ctx, b, chatID, reply)
	}
}

func (c *Callbacks) handleConfirmParticipation(ctx context.Context, b *bot.Bot, chatID, telegramID int64) {
	reg, err := c.registrationService.ConfirmParticipation(ctx, telegramID)
	if err != nil {
		c.logger.Error("Failed to confirm participation",
			zap.Error(err), zap.Int64("telegram_id", telegramID))
		c.sendText(ctx, b, chatID, "❌ Не получилось подтвердить участие. Попробуйте позже.")
		return
	}
	if reg == nil {
		c.sendText(ctx, b, chatID, "У вас нет записи на экскурсию. Начать: /start")
		return
	}

	c.sendText(ctx, b, chatID, fmt.Sprintf(
		"✅ Участие подтверждено!\n\nЖдём вас: %s (%s)",
		reg.Draft.SlotLabel(), reg.Draft.City.DisplayName()))
}

func (c *Callbacks) handleCancelRegistration(ctx context.Context, b *bot.Bot, chatID, telegramID int64) {
	reg, err := c.registrationService.CancelRegistration(ctx, telegramID)
	if err != nil {
		c.logger.Error("Failed to cancel registration",
			zap.Error(err), zap.Int64("telegram_id", telegramID))
		c.sendText(ctx, b, chatID, "❌ Не получилось отменить запись. Попробуйте позже.")
		return
	}
	if reg == nil {
		c.sendText(ctx, b, chatID, "У вас нет записи на экскурсию. Начать: /start")
		return
	}

	c.sendText(ctx, b, chatID, fmt.Sprintf(
		"✅ Запись на %s отменена.\n\nЗаписаться снова: /start", reg.Draft.SlotLabel()))
}

func (c *Callbacks) sendReply(ctx context.Context, b *bot.Bot, chatID int64, reply dialog.Reply) {
	// Пустой ответ — устаревшая кнопка, отвечать нечем
	if reply.Text == "" {
		return
	}

	params := &bot.SendMessageParams{
		ChatID: chatID,
		Text:   reply.Text,
	}
	if len(reply.Keyboard) > 0 {
		params.ReplyMarkup = toInlineKeyboard(reply.Keyboard)
	}

	if _, err := b.SendMessage(ctx, params); err != nil {
		c.logger.Error("Failed to send message", zap.Error(err), zap.Int64("chat_id", chatID))
	}
}

func (c *Callbacks) sendText(ctx context.Context, b *bot.Bot, chatID int64, text string) {
	c.sendReply(ctx, b, chatID, dialog.Reply{Text: text})
}

func toInlineKeyboard(rows [][]dialog.Button) *models.InlineKeyboardMarkup {
	keyboard := make([][]models.InlineKeyboardButton, 0, len(rows))
	for _, row := range rows {
		buttons := make([]models.InlineKeyboardButton, 0, len(row))
		for _, button := range row {
			buttons = append(buttons, models.InlineKeyboardButton{
				Text:         button.Label,
				CallbackData: button.Data,
			})
		}
		keyboard = append(keyboard, buttons)
	}
	return &models.InlineKeyboardMarkup{InlineKeyboard: keyboard}
}
