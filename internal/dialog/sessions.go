package dialog

import (
	"sync"
)

// Sessions хранит состояния разговоров по telegram id.
// Явная мапа вместо глобального контекста: машина получает её при создании.
type Sessions struct {
	mu       sync.RWMutex
	sessions map[int64]*Session
}

// NewSessions создаёт пустое хранилище состояний
func NewSessions() *Sessions {
	return &Sessions{
		sessions: make(map[int64]*Session),
	}
}

// Get возвращает сессию пользователя или nil, если активного диалога нет
func (s *Sessions) Get(telegramID int64) *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.sessions[telegramID]
}

// Put заменяет сессию пользователя
func (s *Sessions) Put(telegramID int64, session *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if session == nil {
		delete(s.sessions, telegramID)
		return
	}
	s.sessions[telegramID] = session
}

// Clear сбрасывает диалог пользователя
func (s *Sessions) Clear(telegramID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, telegramID)
}

// Active сообщает, идёт ли у пользователя диалог регистрации
func (s *Sessions) Active(telegramID int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.sessions[telegramID]
	return ok
}
