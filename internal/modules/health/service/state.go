package service

import (
	"sync"
	"sync/atomic"
	"time"
)

type State struct {
	ready     atomic.Bool
	startedAt time.Time

	lastEventUnix atomic.Int64 // unix seconds

	mu            sync.RWMutex
	lastReportDay string
}

func NewState() *State {
	s := &State{startedAt: time.Now()}
	s.ready.Store(false)
	return s
}

func (s *State) SetReady(v bool) { s.ready.Store(v) }
func (s *State) Ready() bool     { return s.ready.Load() }

// TouchEvent — время последнего принятого события.
func (s *State) TouchEvent(t time.Time) { s.lastEventUnix.Store(t.Unix()) }
func (s *State) LastEvent() time.Time {
	u := s.lastEventUnix.Load()
	if u == 0 {
		return time.Time{}
	}
	return time.Unix(u, 0)
}

// MarkReport — день, за который последний раз ушёл ежедневный отчёт.
func (s *State) MarkReport(day string) {
	s.mu.Lock()
	s.lastReportDay = day
	s.mu.Unlock()
}

func (s *State) LastReportDay() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastReportDay
}

func (s *State) Uptime() time.Duration { return time.Since(s.startedAt) }
