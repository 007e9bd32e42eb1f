package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"trade_ledger/internal/models"

	"github.com/shopspring/decimal"
)

type memEntry struct {
	trade models.Trade
	seq   uint64
}

// Memory — стор в памяти, для тестов и dev. Не переживает рестарт.
type Memory struct {
	loc *time.Location

	mu      sync.RWMutex
	seq     uint64
	data    map[string]*memEntry
	lastDay string
}

func NewMemory(loc *time.Location) *Memory {
	if loc == nil {
		loc = time.UTC
	}
	return &Memory{
		loc:  loc,
		data: make(map[string]*memEntry),
	}
}

func (m *Memory) OpenTrade(_ context.Context, t models.Trade) (models.Trade, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.seq++
	// замена = новая вставка, запись уезжает в конец порядка
	m.data[t.ID] = &memEntry{trade: t, seq: m.seq}
	return t, nil
}

func (m *Memory) CloseTrade(
	_ context.Context,
	id string,
	exitPrice decimal.Decimal,
	exitTime time.Time,
	pnl decimal.Decimal,
) (models.CloseOutcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.data[id]
	if !ok {
		return models.CloseNotFound, nil
	}
	if !e.trade.IsOpen() {
		return models.CloseAlreadyClosed, nil
	}
	e.trade = e.trade.Close(exitPrice, exitTime, pnl)
	return models.CloseApplied, nil
}

func (m *Memory) Get(_ context.Context, id string) (models.Trade, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.data[id]
	if !ok {
		return models.Trade{}, false, nil
	}
	return e.trade, true, nil
}

func (m *Memory) ListOpen(_ context.Context) ([]models.Trade, error) {
	return m.collect(false, func(t models.Trade) bool { return t.IsOpen() }), nil
}

func (m *Memory) ListRecent(_ context.Context, limit int) ([]models.Trade, error) {
	out := m.collect(true, func(models.Trade) bool { return true })
	limit = NormalizeLimit(limit)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *Memory) ClosedInRange(_ context.Context, day time.Time) ([]models.Trade, error) {
	start, end := models.DayBounds(day, m.loc)
	out := m.collect(false, func(t models.Trade) bool {
		if t.Status != models.StatusClosed || t.ExitTime == nil {
			return false
		}
		return !t.ExitTime.Before(start) && t.ExitTime.Before(end)
	})
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ExitTime.Before(*out[j].ExitTime)
	})
	return out, nil
}

// LastFired / SetLastFired — маркер шедулера для marker=ledger на memory-сторе.
func (m *Memory) LastFired(_ context.Context) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastDay, nil
}

func (m *Memory) SetLastFired(_ context.Context, day string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastDay = day
	return nil
}

func (m *Memory) Close() error { return nil }

// collect снимает копии под RLock и сортирует по seq.
func (m *Memory) collect(newestFirst bool, keep func(models.Trade) bool) []models.Trade {
	m.mu.RLock()
	entries := make([]memEntry, 0, len(m.data))
	for _, e := range m.data {
		if keep(e.trade) {
			entries = append(entries, *e)
		}
	}
	m.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool {
		if newestFirst {
			return entries[i].seq > entries[j].seq
		}
		return entries[i].seq < entries[j].seq
	})

	out := make([]models.Trade, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.trade)
	}
	return out
}
