package handlers

import (
	"context"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// HandleTextMessage маршрутизирует свободный текст: шаги диалога записи,
// вопросы в поддержку и ответы операторов из форум-группы
func (h *Handlers) HandleTextMessage(ctx context.Context, b *bot.Bot, update *models.Update) {
	message := update.Message
	if message == nil || message.From == nil || message.Text == "" {
		return
	}
	// Команды разбирают отдельные обработчики
	if strings.HasPrefix(message.Text, "/") {
		return
	}

	// Сообщение оператора в топике форум-группы - это ответ пользователю
	if h.adminChatID != 0 && message.Chat.ID == h.adminChatID {
		if message.MessageThreadID != 0 {
			h.relayAnswer(ctx, b, update)
		}
		return
	}

	telegramID := message.From.ID
	h.rememberUser(ctx, update)

	if reply, handled := h.machine.HandleText(ctx, telegramID, message.Text); handled {
		SendReply(ctx, b, h.logger, message.Chat.ID, reply)
		return
	}

	// Пользователь нажал «Задать вопрос» и прислал текст
	if h.takeAsking(telegramID) {
		h.relayQuestion(ctx, b, update)
		return
	}

	// Продолжение открытого обращения в поддержку
	thread, err := h.supportService.ActiveThread(ctx, telegramID)
	if err != nil {
		h.logger.Error("Failed to check support thread",
			zap.Error(err), zap.Int64("telegram_id", telegramID))
	}
	if thread != nil {
		h.relayQuestion(ctx, b, update)
		return
	}

	h.sendText(ctx, b, message.Chat.ID,
		"Я не понял сообщение 🤔\n\nНачать запись на экскурсию: /start\nСправка: /help")
}
