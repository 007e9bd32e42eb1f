package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const DayLayout = "2006-01-02"

var hundred = decimal.NewFromInt(100)

// DailyStats — агрегат по закрытым сделкам одного календарного дня.
// Не хранится, всегда пересчитывается.
type DailyStats struct {
	Day           time.Time       `json:"-"`
	Date          string          `json:"date"`
	TotalTrades   int             `json:"total_trades"`
	WinningTrades int             `json:"winning_trades"`
	LosingTrades  int             `json:"losing_trades"`
	TotalPnL      decimal.Decimal `json:"total_pnl"`
	WinRate       decimal.Decimal `json:"win_rate"` // проценты, 0..100
}

// EmptyDailyStats — нулевая статистика дня.
func EmptyDailyStats(day time.Time) DailyStats {
	return DailyStats{
		Day:      day,
		Date:     day.Format(DayLayout),
		TotalPnL: decimal.Zero,
		WinRate:  decimal.Zero,
	}
}

// WinRatePct = winning/total*100, 0 если сделок нет.
func WinRatePct(winning, total int) decimal.Decimal {
	if total == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(winning)).Mul(hundred).Div(decimal.NewFromInt(int64(total)))
}

// WindowStats — сумма по дням [Reference-Days+1, Reference].
// Days идут от новых к старым; WinRate пересчитан по суммарным счётчикам.
type WindowStats struct {
	Reference time.Time    `json:"-"`
	DaysCount int          `json:"days_count"`
	Days      []DailyStats `json:"days"`
	Total     DailyStats   `json:"total"`
	// AveragePerDay = Total.TotalPnL / DaysCount.
	AveragePerDay decimal.Decimal `json:"average_per_day"`
}

// DayStart — полночь дня t в зоне loc.
func DayStart(t time.Time, loc *time.Location) time.Time {
	lt := t.In(loc)
	return time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, loc)
}

// DayBounds — полуинтервал [start, end) календарного дня t в зоне loc.
func DayBounds(t time.Time, loc *time.Location) (time.Time, time.Time) {
	start := DayStart(t, loc)
	return start, start.AddDate(0, 0, 1)
}

// DayKey — ключ календарного дня в зоне loc.
func DayKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(DayLayout)
}
