package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"trade_ledger/internal/metrics"
	"trade_ledger/internal/models"
	"trade_ledger/pkg/logger"
)

// FireFunc отправляет отчёт. Ошибка логируется, но день всё равно считается отработанным.
type FireFunc func(ctx context.Context) error

type Params struct {
	Marker   MarkerStore
	Location *time.Location
	Hour     int
	Minute   int
	Poll     time.Duration
	Fire     FireFunc
	Now      func() time.Time
	// OnFired — необязательный хук после срабатывания (health).
	OnFired func(day string)
}

// Scheduler — опрос по таймеру + явное состояние (время срабатывания, last_fired_day).
//
// Срабатывает, когда локальные часы в Location дошли до Hour:Minute и
// last_fired_day != сегодня. Если процесс лежал в момент триггера, отчёт за
// текущий день уходит на первом тике после подъёма; пропущенные дни не догоняются.
//
// lastFired дублирует маркер в памяти: день помечается до отправки, так что
// сломанный маркер не приводит к повторной отправке в тот же день.
type Scheduler struct {
	mu        sync.Mutex
	lastFired string

	marker  MarkerStore
	loc     *time.Location
	hour    int
	minute  int
	poll    time.Duration
	fire    FireFunc
	now     func() time.Time
	onFired func(day string)
}

func New(p Params) (*Scheduler, error) {
	if p.Marker == nil {
		return nil, fmt.Errorf("scheduler: marker store is required")
	}
	if p.Fire == nil {
		return nil, fmt.Errorf("scheduler: fire func is required")
	}
	if p.Hour < 0 || p.Hour > 23 || p.Minute < 0 || p.Minute > 59 {
		return nil, fmt.Errorf("scheduler: bad trigger time %02d:%02d", p.Hour, p.Minute)
	}
	if p.Location == nil {
		p.Location = time.UTC
	}
	if p.Poll <= 0 {
		p.Poll = time.Minute
	}
	if p.Now == nil {
		p.Now = time.Now
	}
	return &Scheduler{
		marker:  p.Marker,
		loc:     p.Location,
		hour:    p.Hour,
		minute:  p.Minute,
		poll:    p.Poll,
		fire:    p.Fire,
		now:     p.Now,
		onFired: p.OnFired,
	}, nil
}

// Due — наступил ли момент срабатывания для дня, в который попадает now.
func (s *Scheduler) Due(now time.Time) bool {
	local := now.In(s.loc)
	trigger := time.Date(local.Year(), local.Month(), local.Day(), s.hour, s.minute, 0, 0, s.loc)
	return !local.Before(trigger)
}

// Tick — одна проверка. fired=true, если отчёт за сегодня был запущен на этом тике.
// Ошибка возвращается только от маркера.
func (s *Scheduler) Tick(ctx context.Context) (fired bool, err error) {
	now := s.now()
	if !s.Due(now) {
		return false, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	today := models.DayKey(now, s.loc)
	if s.lastFired == today {
		return false, nil
	}
	last, err := s.marker.LastFired(ctx)
	if err != nil {
		return false, fmt.Errorf("scheduler.Tick: %w", err)
	}
	if last == today {
		s.lastFired = today
		return false, nil
	}

	s.lastFired = today
	logger.Info("daily report for %s is due (last fired %q)", today, last)
	if err := s.fire(ctx); err != nil {
		logger.Error("daily report for %s failed: %v", today, err)
	}
	metrics.ReportsFired.Inc()
	if s.onFired != nil {
		s.onFired(today)
	}

	if err := s.marker.SetLastFired(ctx, today); err != nil {
		return true, fmt.Errorf("scheduler.Tick: %w", err)
	}
	return true, nil
}

// Run тикает сразу и потом каждые poll до отмены ctx.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.poll)
	defer ticker.Stop()

	for {
		if _, err := s.Tick(ctx); err != nil {
			logger.Error("%v", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
