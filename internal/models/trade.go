package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Side string

const (
	SideLong  Side = "LONG"
	SideShort Side = "SHORT"
)

// ParseSide понимает и buy/sell от сигнального источника, и long/short.
func ParseSide(raw string) (Side, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "buy", "long":
		return SideLong, nil
	case "sell", "short":
		return SideShort, nil
	default:
		return "", fmt.Errorf("unknown side %q", raw)
	}
}

type TradeStatus string

const (
	StatusOpen   TradeStatus = "OPEN"
	StatusClosed TradeStatus = "CLOSED"
	// StatusCancelled зарезервирован, переходов в него нет.
	StatusCancelled TradeStatus = "CANCELLED"
)

// Trade — запись леджера. Exit-поля заполнены только у CLOSED.
type Trade struct {
	ID         string          `json:"id"`
	Symbol     string          `json:"symbol"`
	Side       Side            `json:"side"`
	EntryPrice decimal.Decimal `json:"entry_price"`
	Quantity   decimal.Decimal `json:"quantity"`
	EntryTime  time.Time       `json:"entry_time"`

	ExitPrice   *decimal.Decimal `json:"exit_price,omitempty"`
	ExitTime    *time.Time       `json:"exit_time,omitempty"`
	RealizedPnL *decimal.Decimal `json:"realized_pnl,omitempty"`

	Status TradeStatus `json:"status"`
}

// NewOpenTrade собирает свежую OPEN-запись.
func NewOpenTrade(id, symbol string, side Side, entryPrice, quantity decimal.Decimal, entryTime time.Time) Trade {
	return Trade{
		ID:         id,
		Symbol:     symbol,
		Side:       side,
		EntryPrice: entryPrice,
		Quantity:   quantity,
		EntryTime:  entryTime,
		Status:     StatusOpen,
	}
}

// SynthesizeTradeID — id для входа без id: <symbol>_<unix seconds>.
func SynthesizeTradeID(symbol string, arrival time.Time) string {
	return fmt.Sprintf("%s_%d", symbol, arrival.Unix())
}

func (t Trade) IsOpen() bool { return t.Status == StatusOpen }

// Close возвращает копию в состоянии CLOSED.
func (t Trade) Close(exitPrice decimal.Decimal, exitTime time.Time, pnl decimal.Decimal) Trade {
	t.ExitPrice = &exitPrice
	t.ExitTime = &exitTime
	t.RealizedPnL = &pnl
	t.Status = StatusClosed
	return t
}

// PnL возвращает реализованный PnL или ноль для открытой сделки.
func (t Trade) PnL() decimal.Decimal {
	if t.RealizedPnL == nil {
		return decimal.Zero
	}
	return *t.RealizedPnL
}

// CloseOutcome — чем закончился close().
type CloseOutcome int

const (
	CloseApplied CloseOutcome = iota
	CloseNotFound
	CloseAlreadyClosed
)

func (o CloseOutcome) String() string {
	switch o {
	case CloseApplied:
		return "applied"
	case CloseNotFound:
		return "not_found"
	case CloseAlreadyClosed:
		return "already_closed"
	default:
		return "unknown"
	}
}
