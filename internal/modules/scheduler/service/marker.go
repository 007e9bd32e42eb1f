package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
)

// MarkerStore хранит last_fired_day — день (YYYY-MM-DD), за который отчёт уже ушёл.
// Пустая строка — отчёт ещё ни разу не отправлялся.
type MarkerStore interface {
	LastFired(ctx context.Context) (string, error)
	SetLastFired(ctx context.Context, day string) error
}

// MemoryMarker живёт до рестарта процесса.
type MemoryMarker struct {
	mu  sync.Mutex
	day string
}

func NewMemoryMarker() *MemoryMarker { return &MemoryMarker{} }

func (m *MemoryMarker) LastFired(context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.day, nil
}

func (m *MemoryMarker) SetLastFired(_ context.Context, day string) error {
	m.mu.Lock()
	m.day = day
	m.mu.Unlock()
	return nil
}

// redisKV — то, что маркер использует из клиента redis.
type redisKV interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

type markerValue struct {
	Day     string    `json:"day"`
	FiredAt time.Time `json:"fired_at"`
}

// RedisMarker — маркер в redis, переживает рестарт и переезд процесса.
type RedisMarker struct {
	rdb redisKV
	key string
	now func() time.Time
}

func NewRedisMarker(rdb redisKV, key string, now func() time.Time) *RedisMarker {
	if now == nil {
		now = time.Now
	}
	return &RedisMarker{rdb: rdb, key: key, now: now}
}

func (m *RedisMarker) LastFired(ctx context.Context) (string, error) {
	data, err := m.rdb.Get(ctx, m.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("scheduler.RedisMarker.LastFired: %w", err)
	}

	var v markerValue
	if err := sonic.Unmarshal(data, &v); err != nil {
		return "", fmt.Errorf("scheduler.RedisMarker.LastFired: decode: %w", err)
	}
	return v.Day, nil
}

func (m *RedisMarker) SetLastFired(ctx context.Context, day string) error {
	data, err := sonic.Marshal(markerValue{Day: day, FiredAt: m.now().UTC()})
	if err != nil {
		return fmt.Errorf("scheduler.RedisMarker.SetLastFired: %w", err)
	}
	if err := m.rdb.Set(ctx, m.key, data, 0).Err(); err != nil {
		return fmt.Errorf("scheduler.RedisMarker.SetLastFired: %w", err)
	}
	return nil
}
