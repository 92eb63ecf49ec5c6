package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/avitoexc/excursion-bot/internal/app"
	"github.com/avitoexc/excursion-bot/internal/config"
	"github.com/avitoexc/excursion-bot/internal/controller"
	"github.com/avitoexc/excursion-bot/internal/dialog"
	"github.com/avitoexc/excursion-bot/internal/repository"
	"github.com/avitoexc/excursion-bot/internal/service"
	"github.com/go-telegram/bot"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := app.NewLogger(cfg.Environment)
	defer logger.Sync()

	logger.Info("Starting excursion bot",
		zap.String("environment", cfg.Environment))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Подключение к базе
	pool, err := pgxpool.New(ctx, cfg.DBDSN)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		logger.Fatal("Database is not reachable", zap.Error(err))
	}
	logger.Info("✅ Connected to database")

	// Миграции
	migrator, err := app.NewMigrator(pool, cfg.MigrationsPath, logger)
	if err != nil {
		logger.Fatal("Failed to create migrator", zap.Error(err))
	}
	if err := migrator.Run(ctx); err != nil {
		logger.Fatal("Failed to apply migrations", zap.Error(err))
	}
	migrator.Close()

	// Telegram бот
	b, err := bot.New(cfg.TelegramToken)
	if err != nil {
		logger.Fatal("Failed to create bot", zap.Error(err))
	}

	// Репозитории
	registrationRepo := repository.NewRegistrationRepository(pool)
	slotStateRepo := repository.NewSlotStateRepository(pool)
	userRepo := repository.NewUserRepository(pool)
	supportRepo := repository.NewSupportRepository(pool)

	// Уведомления о зафиксированных регистрациях
	notifier := app.NewNotifier(b, logger)
	notifier.Start(ctx)
	defer notifier.Stop()

	// Сервисы
	registrationService := service.NewRegistrationService(registrationRepo, slotStateRepo, notifier, logger)
	userService := service.NewUserService(userRepo, logger)
	supportService := service.NewSupportService(supportRepo, logger)
	exportService := service.NewExportService(registrationRepo, userRepo, logger)

	// Машина диалога записи
	machine := dialog.NewMachine(dialog.NewSessions(), slotStateRepo, registrationService, logger)

	// Контроллер
	botController := controller.NewBotController(
		b,
		machine,
		registrationService,
		userService,
		supportService,
		exportService,
		cfg.AdminPassword,
		cfg.AdminChatID,
		logger,
	)

	if err := botController.RegisterHandlers(ctx); err != nil {
		logger.Fatal("Failed to register handlers", zap.Error(err))
	}

	logger.Info("🚀 Bot is up, waiting for updates")
	if err := botController.Start(ctx); err != nil {
		logger.Fatal("Bot stopped with error", zap.Error(err))
	}

	logger.Info("Bot shut down gracefully")
}
