package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"trade_ledger/internal/models"

	"github.com/shopspring/decimal"
)

var ErrInvalidDays = errors.New("days must be > 0")

// TradeSource — всё, что агрегатору нужно от леджера.
type TradeSource interface {
	ClosedInRange(ctx context.Context, day time.Time) ([]models.Trade, error)
}

// Aggregator считает дневные и оконные сводки. Состояния не держит,
// каждый вызов — свежий запрос в леджер.
type Aggregator struct {
	trades TradeSource
	loc    *time.Location
}

func NewAggregator(trades TradeSource, loc *time.Location) *Aggregator {
	if loc == nil {
		loc = time.UTC
	}
	return &Aggregator{trades: trades, loc: loc}
}

func (a *Aggregator) Location() *time.Location { return a.loc }

// Daily — сводка за календарный день, в который попадает day.
func (a *Aggregator) Daily(ctx context.Context, day time.Time) (models.DailyStats, error) {
	start := models.DayStart(day, a.loc)
	trades, err := a.trades.ClosedInRange(ctx, start)
	if err != nil {
		return models.DailyStats{}, fmt.Errorf("stats.Daily: %w", err)
	}
	return Summarize(start, trades), nil
}

// Window суммирует Daily за [reference-days+1, reference]. Дни — от новых к старым.
// WinRate окна пересчитывается по суммарным счётчикам, а не усредняется по дням.
func (a *Aggregator) Window(ctx context.Context, days int, reference time.Time) (models.WindowStats, error) {
	if days <= 0 {
		return models.WindowStats{}, ErrInvalidDays
	}

	ref := models.DayStart(reference, a.loc)
	out := models.WindowStats{
		Reference: ref,
		DaysCount: days,
		Days:      make([]models.DailyStats, 0, days),
	}

	total := models.EmptyDailyStats(ref)
	for i := 0; i < days; i++ {
		d, err := a.Daily(ctx, ref.AddDate(0, 0, -i))
		if err != nil {
			return models.WindowStats{}, err
		}
		out.Days = append(out.Days, d)

		total.TotalTrades += d.TotalTrades
		total.WinningTrades += d.WinningTrades
		total.LosingTrades += d.LosingTrades
		total.TotalPnL = total.TotalPnL.Add(d.TotalPnL)
	}
	total.WinRate = models.WinRatePct(total.WinningTrades, total.TotalTrades)
	total.Date = fmt.Sprintf("%s..%s", ref.AddDate(0, 0, -(days-1)).Format(models.DayLayout), ref.Format(models.DayLayout))

	out.Total = total
	out.AveragePerDay = total.TotalPnL.Div(decimal.NewFromInt(int64(days)))
	return out, nil
}

// AveragePerDay = Window(days).TotalPnL / days.
func (a *Aggregator) AveragePerDay(ctx context.Context, days int, reference time.Time) (decimal.Decimal, error) {
	w, err := a.Window(ctx, days, reference)
	if err != nil {
		return decimal.Zero, err
	}
	return w.AveragePerDay, nil
}

// Summarize — чистая свёртка закрытых сделок одного дня.
// pnl > 0 — выигрыш, pnl < 0 — проигрыш, ноль не идёт ни туда, ни туда.
func Summarize(day time.Time, trades []models.Trade) models.DailyStats {
	s := models.EmptyDailyStats(day)
	for _, t := range trades {
		if t.Status != models.StatusClosed {
			continue
		}
		pnl := t.PnL()
		s.TotalTrades++
		switch pnl.Sign() {
		case 1:
			s.WinningTrades++
		case -1:
			s.LosingTrades++
		}
		s.TotalPnL = s.TotalPnL.Add(pnl)
	}
	s.WinRate = models.WinRatePct(s.WinningTrades, s.TotalTrades)
	return s
}
