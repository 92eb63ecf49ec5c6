package service

import (
	"context"
	"fmt"

	"github.com/avitoexc/excursion-bot/internal/model"
	"github.com/avitoexc/excursion-bot/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SupportService пересылка вопросов пользователей в форум-группу
// администраторов и ответов обратно
type SupportService struct {
	supportRepo *repository.SupportRepository
	logger      *zap.Logger
}

func NewSupportService(supportRepo *repository.SupportRepository, logger *zap.Logger) *SupportService {
	return &SupportService{
		supportRepo: supportRepo,
		logger:      logger,
	}
}

// ActiveThread возвращает открытый тред пользователя или nil
func (s *SupportService) ActiveThread(ctx context.Context, telegramID int64) (*model.SupportThread, error) {
	return s.supportRepo.ActiveByUser(ctx, telegramID)
}

// OpenThread заводит тред для нового вопроса. Топик в форум-группе
// создаёт вызывающая сторона, сюда передаётся его id.
func (s *SupportService) OpenThread(ctx context.Context, telegramID int64, username string, adminChatID int64, topicID int) (*model.SupportThread, error) {
	thread := &model.SupportThread{
		ID:           uuid.NewString(),
		TelegramID:   telegramID,
		Username:     username,
		AdminChatID:  adminChatID,
		AdminTopicID: topicID,
		Status:       model.SupportStatusWaiting,
	}

	if err := s.supportRepo.Create(ctx, thread); err != nil {
		return nil, fmt.Errorf("open support thread: %w", err)
	}

	s.logger.Info("Support thread opened",
		zap.String("thread_id", thread.ID),
		zap.Int64("telegram_id", telegramID),
		zap.Int("topic_id", topicID))

	return thread, nil
}

// ThreadByTopic находит тред по топику, в котором ответил оператор
func (s *SupportService) ThreadByTopic(ctx context.Context, adminChatID int64, topicID int) (*model.SupportThread, error) {
	return s.supportRepo.ByTopic(ctx, adminChatID, topicID)
}

// MarkWaiting пользователь написал в тред, ждём оператора
func (s *SupportService) MarkWaiting(ctx context.Context, threadID string) error {
	return s.supportRepo.SetStatus(ctx, threadID, model.SupportStatusWaiting)
}

// MarkAnswered оператор ответил
func (s *SupportService) MarkAnswered(ctx context.Context, threadID string) error {
	return s.supportRepo.SetStatus(ctx, threadID, model.SupportStatusAnswered)
}

// Close закрывает тред, следующий вопрос пользователя откроет новый
func (s *SupportService) Close(ctx context.Context, threadID string) error {
	return s.supportRepo.SetStatus(ctx, threadID, model.SupportStatusClosed)
}
