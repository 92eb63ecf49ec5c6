package handlers

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// relayQuestion пересылает вопрос пользователя в топик форум-группы
// администраторов. Для первого вопроса создаёт топик и тред.
func (h *Handlers) relayQuestion(ctx context.Context, b *bot.Bot, update *models.Update) {
	message := update.Message
	telegramID := message.From.ID

	if h.adminChatID == 0 {
		h.logger.Warn("Support question received, but admin chat is not configured",
			zap.Int64("telegram_id", telegramID))
		h.sendText(ctx, b, message.Chat.ID, "❌ Поддержка временно недоступна. Попробуйте позже.")
		return
	}

	thread, err := h.supportService.ActiveThread(ctx, telegramID)
	if err != nil {
		h.logger.Error("Failed to load support thread", zap.Error(err), zap.Int64("telegram_id", telegramID))
		h.sendText(ctx, b, message.Chat.ID, "❌ Не получилось отправить вопрос. Попробуйте позже.")
		return
	}

	if thread == nil {
		topicName := fmt.Sprintf("@%s (%d)", message.From.Username, telegramID)
		if message.From.Username == "" {
			topicName = fmt.Sprintf("%s (%d)", message.From.FirstName, telegramID)
		}

		topic, err := b.CreateForumTopic(ctx, &bot.CreateForumTopicParams{
			ChatID: h.adminChatID,
			Name:   topicName,
		})
		if err != nil {
			h.logger.Error("Failed to create forum topic", zap.Error(err), zap.Int64("telegram_id", telegramID))
			h.sendText(ctx, b, message.Chat.ID, "❌ Не получилось отправить вопрос. Попробуйте позже.")
			return
		}

		thread, err = h.supportService.OpenThread(ctx, telegramID, message.From.Username, h.adminChatID, topic.MessageThreadID)
		if err != nil {
			h.logger.Error("Failed to open support thread", zap.Error(err), zap.Int64("telegram_id", telegramID))
			h.sendText(ctx, b, message.Chat.ID, "❌ Не получилось отправить вопрос. Попробуйте позже.")
			return
		}
	}

	_, err = b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:          thread.AdminChatID,
		MessageThreadID: thread.AdminTopicID,
		Text:            message.Text,
	})
	if err != nil {
		h.logger.Error("Failed to relay question to admin topic",
			zap.Error(err), zap.String("thread_id", thread.ID))
		h.sendText(ctx, b, message.Chat.ID, "❌ Не получилось отправить вопрос. Попробуйте позже.")
		return
	}

	if err := h.supportService.MarkWaiting(ctx, thread.ID); err != nil {
		h.logger.Error("Failed to mark thread waiting", zap.Error(err), zap.String("thread_id", thread.ID))
	}

	h.sendText(ctx, b, message.Chat.ID,
		"✅ Вопрос отправлен команде. Ответ придёт сюда же.")
}

// relayAnswer пересылает ответ оператора из топика форум-группы пользователю
func (h *Handlers) relayAnswer(ctx context.Context, b *bot.Bot, update *models.Update) {
	message := update.Message

	thread, err := h.supportService.ThreadByTopic(ctx, message.Chat.ID, message.MessageThreadID)
	if err != nil {
		h.logger.Error("Failed to find thread by topic",
			zap.Error(err), zap.Int("topic_id", message.MessageThreadID))
		return
	}
	if thread == nil {
		return
	}

	_, err = b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: thread.TelegramID,
		Text:   "💬 Ответ команды:\n\n" + message.Text,
	})
	if err != nil {
		h.logger.Error("Failed to relay answer to user",
			zap.Error(err), zap.String("thread_id", thread.ID))
		return
	}

	if err := h.supportService.MarkAnswered(ctx, thread.ID); err != nil {
		h.logger.Error("Failed to mark thread answered", zap.Error(err), zap.String("thread_id", thread.ID))
	}
}

// HandleCloseThread обрабатывает /close внутри топика - закрывает тред поддержки
func (h *Handlers) HandleCloseThread(ctx context.Context, b *bot.Bot, update *models.Update) {
	message := update.Message
	if message == nil || message.Chat.ID != h.adminChatID || message.MessageThreadID == 0 {
		return
	}

	thread, err := h.supportService.ThreadByTopic(ctx, message.Chat.ID, message.MessageThreadID)
	if err != nil {
		h.logger.Error("Failed to find thread by topic",
			zap.Error(err), zap.Int("topic_id", message.MessageThreadID))
		return
	}
	if thread == nil {
		return
	}

	if err := h.supportService.Close(ctx, thread.ID); err != nil {
		h.logger.Error("Failed to close thread", zap.Error(err), zap.String("thread_id", thread.ID))
		return
	}

	_, err = b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:          message.Chat.ID,
		MessageThreadID: message.MessageThreadID,
		Text:            "✅ Обращение закрыто. Новый вопрос пользователя откроет новый топик.",
	})
	if err != nil {
		h.logger.Error("Failed to confirm thread close", zap.Error(err))
	}
}
