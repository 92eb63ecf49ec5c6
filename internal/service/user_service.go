package service

import (
	"context"

	"github.com/avitoexc/excursion-bot/internal/model"
	"github.com/avitoexc/excursion-bot/internal/repository"
	"go.uber.org/zap"
)

// UserService журнал известных пользователей
type UserService struct {
	userRepo *repository.UserRepository
	logger   *zap.Logger
}

func NewUserService(userRepo *repository.UserRepository, logger *zap.Logger) *UserService {
	return &UserService{
		userRepo: userRepo,
		logger:   logger,
	}
}

// Remember запоминает пользователя из входящего сообщения.
// Ошибка не мешает обработке сообщения, только логируется.
func (s *UserService) Remember(ctx context.Context, telegramID int64, username, firstName, lastName string) {
	err := s.userRepo.Upsert(ctx, &model.User{
		TelegramID: telegramID,
		Username:   username,
		FirstName:  firstName,
		LastName:   lastName,
	})
	if err != nil {
		s.logger.Error("Failed to remember user",
			zap.Error(err),
			zap.Int64("telegram_id", telegramID))
	}
}

// All возвращает всех известных пользователей
func (s *UserService) All(ctx context.Context) ([]*model.User, error) {
	return s.userRepo.GetAll(ctx)
}
