package handlers

import (
	"context"

	"github.com/avitoexc/excursion-bot/internal/dialog"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// SendReply отправляет ответ машины диалога в чат
func SendReply(ctx context.Context, b *bot.Bot, logger *zap.Logger, chatID int64, reply dialog.Reply) {
	if reply.Text == "" {
		return
	}

	params := &bot.SendMessageParams{
		ChatID: chatID,
		Text:   reply.Text,
	}
	if kb := ToInlineKeyboard(reply.Keyboard); kb != nil {
		params.ReplyMarkup = kb
	}

	if _, err := b.SendMessage(ctx, params); err != nil {
		logger.Error("Failed to send reply",
			zap.Error(err),
			zap.Int64("chat_id", chatID))
	}
}

// ToInlineKeyboard переводит кнопки машины в формат Telegram
func ToInlineKeyboard(rows [][]dialog.Button) *models.InlineKeyboardMarkup {
	if len(rows) == 0 {
		return nil
	}

	keyboard := make([][]models.InlineKeyboardButton, 0, len(rows))
	for _, row := range rows {
		buttons := make([]models.InlineKeyboardButton, 0, len(row))
		for _, btn := range row {
			buttons = append(buttons, models.InlineKeyboardButton{
				Text:         btn.Label,
				CallbackData: btn.Data,
			})
		}
		keyboard = append(keyboard, buttons)
	}

	return &models.InlineKeyboardMarkup{InlineKeyboard: keyboard}
}

func (h *Handlers) sendText(ctx context.Context, b *bot.Bot, chatID int64, text string) {
	if _, err := b.SendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: text}); err != nil {
		h.logger.Error("Failed to send message",
			zap.Error(err),
			zap.Int64("chat_id", chatID))
	}
}
