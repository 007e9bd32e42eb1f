package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Event — закрытый вариант входящего события: EntryEvent или ExitEvent.
type Event interface {
	EventSymbol() string
	isEvent()
}

type EntryEvent struct {
	ID       string // пусто — id синтезируется
	Symbol   string
	Side     Side
	Price    decimal.Decimal
	Quantity *decimal.Decimal // nil — количество по умолчанию
	At       time.Time
}

type ExitEvent struct {
	ID     string
	Symbol string
	Price  decimal.Decimal
	PnL    decimal.Decimal
	// EntryPrice из payload, используется только для % в алерте,
	// если сделки нет в леджере.
	EntryPrice *decimal.Decimal
	At         time.Time
}

func (e EntryEvent) EventSymbol() string { return e.Symbol }
func (e ExitEvent) EventSymbol() string  { return e.Symbol }

func (EntryEvent) isEvent() {}
func (ExitEvent) isEvent()  {}
