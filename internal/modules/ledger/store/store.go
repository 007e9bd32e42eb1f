// Package store — леджер сделок. Единственный владелец мутаций Trade.
//
// Все реализации сериализуют записи (один писатель за раз), а чтения видят
// либо состояние до записи, либо после, но не половину записи.
package store

import (
	"context"
	"time"

	"trade_ledger/internal/models"

	"github.com/shopspring/decimal"
)

// Store — таблица сделок, ключ — trade id.
type Store interface {
	// OpenTrade создаёт или заменяет запись с тем же id (повтор входа перезаписывает её).
	OpenTrade(ctx context.Context, t models.Trade) (models.Trade, error)
	// CloseTrade переводит OPEN в CLOSED. Неизвестный id и уже закрытая сделка — не ошибка.
	CloseTrade(ctx context.Context, id string, exitPrice decimal.Decimal, exitTime time.Time, pnl decimal.Decimal) (models.CloseOutcome, error)
	Get(ctx context.Context, id string) (models.Trade, bool, error)
	// ListOpen — OPEN-сделки в порядке вставки.
	ListOpen(ctx context.Context) ([]models.Trade, error)
	// ListRecent — последние созданные первыми, не больше limit.
	ListRecent(ctx context.Context, limit int) ([]models.Trade, error)
	// ClosedInRange — CLOSED-сделки, у которых exit_time попадает в календарный день day
	// в опорной таймзоне стора.
	ClosedInRange(ctx context.Context, day time.Time) ([]models.Trade, error)
	Close() error
}

// Reader — то, что можно отдавать наружу без права записи.
type Reader interface {
	Get(ctx context.Context, id string) (models.Trade, bool, error)
	ListOpen(ctx context.Context) ([]models.Trade, error)
	ListRecent(ctx context.Context, limit int) ([]models.Trade, error)
	ClosedInRange(ctx context.Context, day time.Time) ([]models.Trade, error)
}

const (
	DefaultRecentLimit = 20
	MaxRecentLimit     = 200
)

// NormalizeLimit приводит limit к [1, MaxRecentLimit].
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultRecentLimit
	}
	if limit > MaxRecentLimit {
		return MaxRecentLimit
	}
	return limit
}
