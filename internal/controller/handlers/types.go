package handlers

import (
	"sync"

	"github.com/avitoexc/excursion-bot/internal/dialog"
	"github.com/avitoexc/excursion-bot/internal/service"
	"go.uber.org/zap"
)

// Handlers содержит все зависимости для обработки команд и текстовых шагов
type Handlers struct {
	machine             *dialog.Machine
	registrationService *service.RegistrationService
	userService         *service.UserService
	supportService      *service.SupportService
	exportService       *service.ExportService
	logger              *zap.Logger

	adminPassword string
	adminChatID   int64

	mu     sync.Mutex
	admins map[int64]bool // прошли проверку пароля /admin
	asking map[int64]bool // нажали "Задать вопрос", ждём текст вопроса
}

// NewHandlers создаёт обработчики команд
func NewHandlers(
	machine *dialog.Machine,
	registrationService *service.RegistrationService,
	userService *service.UserService,
	supportService *service.SupportService,
	exportService *service.ExportService,
	adminPassword string,
	adminChatID int64,
	logger *zap.Logger,
) *Handlers {
	return &Handlers{
		machine:             machine,
		registrationService: registrationService,
		userService:         userService,
		supportService:      supportService,
		exportService:       exportService,
		adminPassword:       adminPassword,
		adminChatID:         adminChatID,
		logger:              logger,
		admins:              make(map[int64]bool),
		asking:              make(map[int64]bool),
	}
}

// MarkAsking помечает, что следующий текст пользователя — вопрос в поддержку
func (h *Handlers) MarkAsking(telegramID int64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.asking[telegramID] = true
}

func (h *Handlers) takeAsking(telegramID int64) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.asking[telegramID] {
		return false
	}
	delete(h.asking, telegramID)
	return true
}

func (h *Handlers) isAdmin(telegramID int64) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.admins[telegramID]
}

func (h *Handlers) grantAdmin(telegramID int64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.admins[telegramID] = true
}
