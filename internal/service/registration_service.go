package service

import (
	"context"
	"fmt"

	"github.com/avitoexc/excursion-bot/internal/model"
	"github.com/avitoexc/excursion-bot/internal/repository"
	"go.uber.org/zap"
)

// CommitNotifier получает событие о зафиксированной регистрации.
// Вызов не блокирует коммит, ошибки доставки изолированы от него.
type CommitNotifier interface {
	RegistrationCommitted(telegramID int64, role model.Role, draft model.Draft)
}

// RegistrationService фиксация черновиков и управление занятостью слотов
type RegistrationService struct {
	registrations *repository.RegistrationRepository
	slotStates    *repository.SlotStateRepository
	notifier      CommitNotifier
	logger        *zap.Logger
}

func NewRegistrationService(
	registrations *repository.RegistrationRepository,
	slotStates *repository.SlotStateRepository,
	notifier CommitNotifier,
	logger *zap.Logger,
) *RegistrationService {
	return &RegistrationService{
		registrations: registrations,
		slotStates:    slotStates,
		notifier:      notifier,
		logger:        logger,
	}
}

// CommitStudent фиксирует регистрацию студента. Счётчик слота здесь
// не меняется: студент занимает место только после подтверждения
// участия в напоминании (двухэтапная запись против no-show).
func (s *RegistrationService) CommitStudent(ctx context.Context, telegramID int64, draft model.Draft) error {
	if draft.Slot == "" {
		return fmt.Errorf("empty draft")
	}

	var firstErr error
	if err := s.registrations.Append(ctx, telegramID, model.RoleStudent, draft); err != nil {
		firstErr = err
		s.logger.Error("Failed to append student registration",
			zap.Error(err), zap.Int64("telegram_id", telegramID))
	}

	if err := s.registrations.SetLastRegistration(ctx, telegramID, model.RoleStudent, draft); err != nil {
		if firstErr == nil {
			firstErr = err
		}
		s.logger.Error("Failed to remember last registration",
			zap.Error(err), zap.Int64("telegram_id", telegramID))
	}

	s.logger.Info("Student registration committed",
		zap.Int64("telegram_id", telegramID),
		zap.String("slot", draft.Slot))

	s.notifier.RegistrationCommitted(telegramID, model.RoleStudent, draft)

	return firstErr
}

// CommitGroupLeader фиксирует регистрацию руководителя группы и сразу
// помечает групповой слот занятым
func (s *RegistrationService) CommitGroupLeader(ctx context.Context, telegramID int64, draft model.Draft) error {
	if draft.Slot == "" {
		return fmt.Errorf("empty draft")
	}

	var firstErr error
	if err := s.registrations.Append(ctx, telegramID, model.RoleGroupLeader, draft); err != nil {
		firstErr = err
		s.logger.Error("Failed to append group leader registration",
			zap.Error(err), zap.Int64("telegram_id", telegramID))
	}

	if err := s.registrations.SetLastRegistration(ctx, telegramID, model.RoleGroupLeader, draft); err != nil {
		if firstErr == nil {
			firstErr = err
		}
		s.logger.Error("Failed to remember last registration",
			zap.Error(err), zap.Int64("telegram_id", telegramID))
	}

	if err := s.slotStates.ConfirmGroupSlot(ctx, draft.Slot); err != nil {
		if firstErr == nil {
			firstErr = err
		}
		s.logger.Error("Failed to confirm group slot",
			zap.Error(err), zap.String("slot", draft.Slot))
	}

	s.logger.Info("Group leader registration committed",
		zap.Int64("telegram_id", telegramID),
		zap.String("slot", draft.Slot),
		zap.Int("participants", len(draft.Participants)))

	s.notifier.RegistrationCommitted(telegramID, model.RoleGroupLeader, draft)

	return firstErr
}

// CommitWaitingList добавляет запись в лист ожидания. Реестр слотов
// не трогается.
func (s *RegistrationService) CommitWaitingList(ctx context.Context, telegramID int64, draft model.Draft) error {
	entry := &model.WaitingListEntry{
		TelegramID: telegramID,
		City:       draft.City.DisplayName(),
		SlotLabel:  draft.SlotLabel(),
		Surname:    draft.Surname,
		Name:       draft.Name,
		Patronymic: draft.Patronymic,
		Phone:      draft.Phone,
		Email:      draft.Email,
	}

	if err := s.registrations.AppendWaitingListEntry(ctx, entry); err != nil {
		return fmt.Errorf("commit waiting list: %w", err)
	}

	s.logger.Info("Waiting list entry committed",
		zap.Int64("telegram_id", telegramID),
		zap.String("slot_label", entry.SlotLabel))

	return nil
}

// WaitingListBySlot возвращает лист ожидания по метке слота
func (s *RegistrationService) WaitingListBySlot(ctx context.Context, slotLabel string) ([]*model.WaitingListEntry, error) {
	return s.registrations.WaitingListBySlot(ctx, slotLabel)
}

// LastRegistration возвращает последнюю регистрацию пользователя или nil
func (s *RegistrationService) LastRegistration(ctx context.Context, telegramID int64) (*model.Registration, error) {
	return s.registrations.LastRegistration(ctx, telegramID)
}

// ConfirmParticipation второй этап студенческой записи: по кнопке из
// напоминания студент подтверждает, что придёт, и только тогда занимает
// место в счётчике слота
func (s *RegistrationService) ConfirmParticipation(ctx context.Context, telegramID int64) (*model.Registration, error) {
	reg, err := s.registrations.LastRegistration(ctx, telegramID)
	if err != nil {
		return nil, fmt.Errorf("load last registration: %w", err)
	}
	if reg == nil {
		return nil, nil
	}

	if reg.Role == model.RoleStudent {
		if err := s.slotStates.AdjustStudentSlotCount(ctx, reg.Draft.Slot, +1); err != nil {
			return nil, fmt.Errorf("increment slot count: %w", err)
		}
	}

	s.logger.Info("Participation confirmed",
		zap.Int64("telegram_id", telegramID),
		zap.String("slot", reg.Draft.Slot))

	return reg, nil
}

// CancelRegistration отменяет последнюю регистрацию: освобождает групповой
// слот или уменьшает счётчик студентов (не ниже нуля)
func (s *RegistrationService) CancelRegistration(ctx context.Context, telegramID int64) (*model.Registration, error) {
	reg, err := s.registrations.LastRegistration(ctx, telegramID)
	if err != nil {
		return nil, fmt.Errorf("load last registration: %w", err)
	}
	if reg == nil {
		return nil, nil
	}

	switch reg.Role {
	case model.RoleGroupLeader:
		if err := s.slotStates.ReleaseGroupSlot(ctx, reg.Draft.Slot); err != nil {
			return nil, fmt.Errorf("release group slot: %w", err)
		}
	case model.RoleStudent:
		if err := s.slotStates.AdjustStudentSlotCount(ctx, reg.Draft.Slot, -1); err != nil {
			return nil, fmt.Errorf("decrement slot count: %w", err)
		}
	}

	if err := s.registrations.ClearLastRegistration(ctx, telegramID); err != nil {
		return nil, fmt.Errorf("clear last registration: %w", err)
	}

	s.logger.Info("Registration canceled",
		zap.Int64("telegram_id", telegramID),
		zap.String("slot", reg.Draft.Slot))

	return reg, nil
}
