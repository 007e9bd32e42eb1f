package menu

import (
	"sync"

	"trade_ledger/internal/models"
)

// Sessions — текущий вид каждой поверхности. Одна поверхность = одно сообщение.
type Sessions struct {
	mu    sync.RWMutex
	views map[models.MessageRef]models.View
	locks map[models.MessageRef]*sync.Mutex
}

func NewSessions() *Sessions {
	return &Sessions{
		views: make(map[models.MessageRef]models.View),
		locks: make(map[models.MessageRef]*sync.Mutex),
	}
}

// surfaceLock — мьютекс поверхности: чтение вида, правка и запись идут под ним.
func (s *Sessions) surfaceLock(ref models.MessageRef) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.locks[ref]
	if !ok {
		l = &sync.Mutex{}
		s.locks[ref] = l
	}
	return l
}

// Current возвращает вид поверхности. Незнакомая поверхность (например, после
// рестарта процесса) считается MAIN.
func (s *Sessions) Current(ref models.MessageRef) models.View {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if v, ok := s.views[ref]; ok {
		return v
	}
	return models.ViewMain
}

func (s *Sessions) Set(ref models.MessageRef, v models.View) {
	s.mu.Lock()
	s.views[ref] = v
	s.mu.Unlock()
}

func (s *Sessions) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.views)
}
