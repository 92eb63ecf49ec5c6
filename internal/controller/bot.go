package controller

import (
	"context"

	"github.com/avitoexc/excursion-bot/internal/controller/callbacks"
	"github.com/avitoexc/excursion-bot/internal/controller/handlers"
	"github.com/avitoexc/excursion-bot/internal/dialog"
	"github.com/avitoexc/excursion-bot/internal/service"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

type BotController struct {
	bot             *bot.Bot
	handlers        *handlers.Handlers
	callbackHandler *callbacks.Callbacks
	logger          *zap.Logger
}

func NewBotController(
	botInstance *bot.Bot,
	machine *dialog.Machine,
	registrationService *service.RegistrationService,
	userService *service.UserService,
	supportService *service.SupportService,
	exportService *service.ExportService,
	adminPassword string,
	adminChatID int64,
	logger *zap.Logger,
) *BotController {
	cmdHandlers := handlers.NewHandlers(
		machine,
		registrationService,
		userService,
		supportService,
		exportService,
		adminPassword,
		adminChatID,
		logger,
	)

	// Кнопка "Задать вопрос" переводит следующий текст пользователя в поддержку
	callbackHandler := callbacks.NewCallbacks(
		machine,
		registrationService,
		logger,
		cmdHandlers.MarkAsking,
	)

	return &BotController{
		bot:             botInstance,
		handlers:        cmdHandlers,
		callbackHandler: callbackHandler,
		logger:          logger,
	}
}

// RegisterHandlers регистрирует все обработчики команд
func (c *BotController) RegisterHandlers(ctx context.Context) error {
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/start", bot.MatchTypeExact, c.handlers.HandleStart)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/help", bot.MatchTypeExact, c.handlers.HandleHelp)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/cancel", bot.MatchTypeExact, c.handlers.HandleCancel)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/myregistration", bot.MatchTypeExact, c.handlers.HandleMyRegistration)

	// Команды администраторов
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/admin", bot.MatchTypePrefix, c.handlers.HandleAdmin)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/export", bot.MatchTypePrefix, c.handlers.HandleExport)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/users", bot.MatchTypeExact, c.handlers.HandleUsersExport)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/broadcast", bot.MatchTypePrefix, c.handlers.HandleBroadcast)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/mailing", bot.MatchTypePrefix, c.handlers.HandleMailing)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/close", bot.MatchTypeExact, c.handlers.HandleCloseThread)

	// Обработчик текстовых сообщений (шаги диалога и поддержка)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "", bot.MatchTypePrefix, c.handlers.HandleTextMessage)

	// Обработчик нажатий на inline кнопки
	c.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, "", bot.MatchTypePrefix, c.callbackHandler.HandleCallbackQuery)

	return c.setCommands(ctx)
}

// setCommands устанавливает список команд в меню бота
func (c *BotController) setCommands(ctx context.Context) error {
	commands := []models.BotCommand{
		{Command: "start", Description: "🚀 Записаться на экскурсию"},
		{Command: "myregistration", Description: "📅 Моя запись"},
		{Command: "cancel", Description: "❌ Отменить текущий диалог"},
		{Command: "help", Description: "❓ Справка по командам"},
	}

	_, err := c.bot.SetMyCommands(ctx, &bot.SetMyCommandsParams{
		Commands: commands,
	})

	if err != nil {
		c.logger.Error("Failed to set bot commands", zap.Error(err))
		return err
	}

	c.logger.Info("✅ Bot commands menu set")
	return nil
}

// Start запускает бота
func (c *BotController) Start(ctx context.Context) error {
	c.logger.Info("Starting bot...")
	c.bot.Start(ctx)
	return nil
}
