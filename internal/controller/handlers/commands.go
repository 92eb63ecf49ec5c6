package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/avitoexc/excursion-bot/internal/dialog"
	"github.com/avitoexc/excursion-bot/internal/model"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// HandleStart обрабатывает команду /start
func (h *Handlers) HandleStart(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	h.rememberUser(ctx, update)

	reply := h.machine.Start()
	SendReply(ctx, b, h.logger, update.Message.Chat.ID, reply)
}

// HandleHelp обрабатывает команду /help
func (h *Handlers) HandleHelp(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	helpText := "📚 Справка по командам:\n\n" +
		"/start - Начать запись на экскурсию\n" +
		"/myregistration - Моя запись\n" +
		"/cancel - Отменить текущий диалог\n" +
		"/help - Показать эту справку\n\n" +
		"Чтобы задать вопрос команде, нажмите «Задать вопрос» в /start."

	h.sendText(ctx, b, update.Message.Chat.ID, helpText)
}

// HandleCancel обрабатывает команду /cancel - отмена текущего диалога
func (h *Handlers) HandleCancel(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	telegramID := update.Message.From.ID

	if !h.machine.Sessions().Active(telegramID) {
		h.sendText(ctx, b, update.Message.Chat.ID, "❌ Нет активных операций для отмены.")
		return
	}

	h.machine.Sessions().Clear(telegramID)
	h.sendText(ctx, b, update.Message.Chat.ID,
		"✅ Запись отменена.\n\nНачать заново: /start")
}

// HandleMyRegistration показывает последнюю регистрацию пользователя
func (h *Handlers) HandleMyRegistration(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	telegramID := update.Message.From.ID

	reg, err := h.registrationService.LastRegistration(ctx, telegramID)
	if err != nil {
		h.logger.Error("Failed to load last registration",
			zap.Error(err), zap.Int64("telegram_id", telegramID))
		h.sendText(ctx, b, update.Message.Chat.ID, "❌ Не получилось загрузить запись. Попробуйте позже.")
		return
	}
	if reg == nil {
		h.sendText(ctx, b, update.Message.Chat.ID,
			"У вас пока нет записи на экскурсию. Начать: /start")
		return
	}

	roleLabel := "студент"
	if reg.Role == model.RoleGroupLeader {
		roleLabel = "руководитель группы"
	}

	text := fmt.Sprintf("📅 Ваша запись:\n\nСлот: %s (%s)\nРоль: %s",
		reg.Draft.SlotLabel(), reg.Draft.City.DisplayName(), roleLabel)

	keyboard := &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{{Text: "❌ Отменить запись", CallbackData: dialog.ChoiceCancelRegistration}},
		},
	}

	if _, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      update.Message.Chat.ID,
		Text:        text,
		ReplyMarkup: keyboard,
	}); err != nil {
		h.logger.Error("Failed to send registration info", zap.Error(err))
	}
}

// HandleAdmin обрабатывает /admin <пароль> - вход в режим администратора
func (h *Handlers) HandleAdmin(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	chatID := update.Message.Chat.ID
	parts := strings.Fields(update.Message.Text)

	if h.adminPassword == "" {
		h.sendText(ctx, b, chatID, "❌ Режим администратора не настроен.")
		return
	}
	if len(parts) != 2 || parts[1] != h.adminPassword {
		h.sendText(ctx, b, chatID, "❌ Неверный пароль.")
		return
	}

	h.grantAdmin(update.Message.From.ID)
	h.logger.Info("Admin mode granted", zap.Int64("telegram_id", update.Message.From.ID))

	h.sendText(ctx, b, chatID,
		"✅ Режим администратора включён.\n\n"+
			"/export student|group <слот> - выгрузка регистраций\n"+
			"/users - выгрузка пользователей\n"+
			"/broadcast <текст> - рассылка всем\n"+
			"/mailing <слот>|<текст> - рассылка листу ожидания")
}

// HandleExport обрабатывает /export student|group <слот id>
func (h *Handlers) HandleExport(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || !h.requireAdmin(ctx, b, update) {
		return
	}

	chatID := update.Message.Chat.ID
	parts := strings.SplitN(update.Message.Text, " ", 3)
	if len(parts) != 3 {
		h.sendText(ctx, b, chatID, "Формат: /export student|group <слот>\nНапример: /export student 25 февраля, 15:00_MSK")
		return
	}

	role := model.RoleStudent
	switch parts[1] {
	case "student":
	case "group":
		role = model.RoleGroupLeader
	default:
		h.sendText(ctx, b, chatID, "❌ Роль должна быть student или group.")
		return
	}

	slotID := strings.TrimSpace(parts[2])
	buf, err := h.exportService.ExportSlot(ctx, role, slotID)
	if err != nil {
		h.logger.Error("Slot export failed", zap.Error(err), zap.String("slot", slotID))
		h.sendText(ctx, b, chatID, "❌ Не получилось собрать выгрузку.")
		return
	}
	if buf == nil {
		h.sendText(ctx, b, chatID, "На этот слот регистраций нет.")
		return
	}

	filename := fmt.Sprintf("%s_%s.xlsx", parts[1], strings.ReplaceAll(slotID, " ", "_"))
	_, err = b.SendDocument(ctx, &bot.SendDocumentParams{
		ChatID:   chatID,
		Document: &models.InputFileUpload{Filename: filename, Data: buf},
	})
	if err != nil {
		h.logger.Error("Failed to send export document", zap.Error(err))
	}
}

// HandleUsersExport обрабатывает /users - выгрузка журнала пользователей
func (h *Handlers) HandleUsersExport(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || !h.requireAdmin(ctx, b, update) {
		return
	}

	chatID := update.Message.Chat.ID
	buf, err := h.exportService.ExportUsers(ctx)
	if err != nil {
		h.logger.Error("Users export failed", zap.Error(err))
		h.sendText(ctx, b, chatID, "❌ Не получилось собрать выгрузку.")
		return
	}

	_, err = b.SendDocument(ctx, &bot.SendDocumentParams{
		ChatID:   chatID,
		Document: &models.InputFileUpload{Filename: "users.xlsx", Data: buf},
	})
	if err != nil {
		h.logger.Error("Failed to send users document", zap.Error(err))
	}
}

// HandleBroadcast обрабатывает /broadcast <текст> - рассылка всем пользователям
func (h *Handlers) HandleBroadcast(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || !h.requireAdmin(ctx, b, update) {
		return
	}

	chatID := update.Message.Chat.ID
	text := strings.TrimSpace(strings.TrimPrefix(update.Message.Text, "/broadcast"))
	if text == "" {
		h.sendText(ctx, b, chatID, "Формат: /broadcast <текст>")
		return
	}

	users, err := h.userService.All(ctx)
	if err != nil {
		h.logger.Error("Failed to load users for broadcast", zap.Error(err))
		h.sendText(ctx, b, chatID, "❌ Не получилось загрузить пользователей.")
		return
	}

	sent := 0
	for _, user := range users {
		_, err := b.SendMessage(ctx, &bot.SendMessageParams{ChatID: user.TelegramID, Text: text})
		if err != nil {
			// Пользователь мог заблокировать бота, рассылку не прерываем
			h.logger.Warn("Broadcast send failed",
				zap.Error(err), zap.Int64("telegram_id", user.TelegramID))
			continue
		}
		sent++
	}

	h.sendText(ctx, b, chatID, fmt.Sprintf("✅ Отправлено %d из %d.", sent, len(users)))
}

// HandleMailing обрабатывает /mailing <слот>|<текст> - рассылка листу ожидания слота
func (h *Handlers) HandleMailing(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || !h.requireAdmin(ctx, b, update) {
		return
	}

	chatID := update.Message.Chat.ID
	payload := strings.TrimSpace(strings.TrimPrefix(update.Message.Text, "/mailing"))
	parts := strings.SplitN(payload, "|", 2)
	if len(parts) != 2 || strings.TrimSpace(parts[0]) == "" || strings.TrimSpace(parts[1]) == "" {
		h.sendText(ctx, b, chatID, "Формат: /mailing <слот>|<текст>\nНапример: /mailing 25 февраля, 15:00|Освободилось место!")
		return
	}

	slotLabel := strings.TrimSpace(parts[0])
	text := strings.TrimSpace(parts[1])

	entries, err := h.registrationService.WaitingListBySlot(ctx, slotLabel)
	if err != nil {
		h.logger.Error("Failed to load waiting list", zap.Error(err), zap.String("slot_label", slotLabel))
		h.sendText(ctx, b, chatID, "❌ Не получилось загрузить лист ожидания.")
		return
	}
	if len(entries) == 0 {
		h.sendText(ctx, b, chatID, "Лист ожидания этого слота пуст.")
		return
	}

	sent := 0
	for _, entry := range entries {
		_, err := b.SendMessage(ctx, &bot.SendMessageParams{ChatID: entry.TelegramID, Text: text})
		if err != nil {
			h.logger.Warn("Mailing send failed",
				zap.Error(err), zap.Int64("telegram_id", entry.TelegramID))
			continue
		}
		sent++
	}

	h.sendText(ctx, b, chatID, fmt.Sprintf("✅ Отправлено %d из %d.", sent, len(entries)))
}

func (h *Handlers) requireAdmin(ctx context.Context, b *bot.Bot, update *models.Update) bool {
	if h.isAdmin(update.Message.From.ID) {
		return true
	}
	h.sendText(ctx, b, update.Message.Chat.ID, "❌ Команда доступна только администраторам: /admin <пароль>")
	return false
}

func (h *Handlers) rememberUser(ctx context.Context, update *models.Update) {
	from := update.Message.From
	if from == nil {
		return
	}
	h.userService.Remember(ctx, from.ID, from.Username, from.FirstName, from.LastName)
}
