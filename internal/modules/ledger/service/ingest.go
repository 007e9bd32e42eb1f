package service

import (
	"context"
	"fmt"
	"time"

	"trade_ledger/internal/metrics"
	"trade_ledger/internal/models"
	"trade_ledger/internal/modules/ledger/store"
	"trade_ledger/pkg/logger"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// Notifier — куда уходят алерты после записи в леджер.
type Notifier interface {
	NotifyOpened(ctx context.Context, t models.Trade)
	NotifyClosed(ctx context.Context, t models.Trade, pctBase *decimal.Decimal)
}

// Tracker — отметка о последнем обработанном событии (health).
type Tracker interface {
	TouchEvent(t time.Time)
}

// Result — что сделало событие с леджером.
type Result struct {
	Trade   models.Trade
	Outcome models.CloseOutcome // только для exit
}

// Ingestor — единственный путь мутаций леджера: событие -> стор -> алерт.
type Ingestor struct {
	store      store.Store
	notifier   Notifier
	tracker    Tracker
	defaultQty decimal.Decimal
}

func NewIngestor(s store.Store, n Notifier, tracker Tracker, defaultQty decimal.Decimal) *Ingestor {
	return &Ingestor{
		store:      s,
		notifier:   n,
		tracker:    tracker,
		defaultQty: defaultQty,
	}
}

// Handle применяет событие. Наверх уходят только ошибки стора
// и ErrMalformedEvent; доставка алерта ошибку не возвращает.
func (i *Ingestor) Handle(ctx context.Context, ev models.Event) (res Result, err error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "ledger.Handle")
	defer span.Finish()

	action := "unknown"
	defer func() {
		result := "ok"
		if err != nil {
			span.SetTag("error", true)
			result = "error"
			if IsMalformed(err) {
				result = "rejected"
			}
		}
		metrics.EventsIngested.WithLabelValues(action, result).Inc()
	}()

	switch e := ev.(type) {
	case models.EntryEvent:
		action = ActionEntry
		res, err = i.entry(ctx, e)
	case models.ExitEvent:
		action = ActionExit
		res, err = i.exit(ctx, e)
	default:
		return Result{}, errors.Wrapf(ErrMalformedEvent, "unsupported event %T", ev)
	}
	if err != nil {
		return Result{}, err
	}

	if i.tracker != nil {
		i.tracker.TouchEvent(eventTime(ev))
	}
	i.refreshOpenGauge(ctx)
	return res, nil
}

func (i *Ingestor) entry(ctx context.Context, e models.EntryEvent) (Result, error) {
	if e.Symbol == "" {
		return Result{}, errors.Wrap(ErrMalformedEvent, "symbol is required")
	}

	id := e.ID
	if id == "" {
		id = models.SynthesizeTradeID(e.Symbol, e.At)
	}
	qty := i.defaultQty
	if e.Quantity != nil {
		qty = *e.Quantity
	}

	t := models.NewOpenTrade(id, e.Symbol, e.Side, e.Price, qty, e.At.UTC())
	stored, err := i.store.OpenTrade(ctx, t)
	if err != nil {
		return Result{}, fmt.Errorf("ledger.Ingestor.entry: %w", err)
	}
	logger.Info("trade %s opened: %s %s @ %s x %s", stored.ID, stored.Symbol, stored.Side, stored.EntryPrice, stored.Quantity)

	i.notifier.NotifyOpened(ctx, stored)
	return Result{Trade: stored}, nil
}

func (i *Ingestor) exit(ctx context.Context, e models.ExitEvent) (Result, error) {
	if e.Symbol == "" {
		return Result{}, errors.Wrap(ErrMalformedEvent, "symbol is required")
	}

	exitTime := e.At.UTC()
	outcome, err := i.store.CloseTrade(ctx, e.ID, e.Price, exitTime, e.PnL)
	if err != nil {
		return Result{}, fmt.Errorf("ledger.Ingestor.exit: %w", err)
	}

	// Алерт собираем из леджера, если сделка там есть, иначе из самого события.
	// Процент всегда считается от цены входа: pnl / entry_price * 100.
	closed := models.Trade{ID: e.ID, Symbol: e.Symbol}.Close(e.Price, exitTime, e.PnL)
	var pctBase *decimal.Decimal

	switch outcome {
	case models.CloseAlreadyClosed:
		// повтор выхода: леджер не трогаем, второй алерт не шлём
		logger.Warn("trade %s is already closed, exit ignored", e.ID)
		t, _, err := i.store.Get(ctx, e.ID)
		if err != nil {
			return Result{}, fmt.Errorf("ledger.Ingestor.exit: %w", err)
		}
		return Result{Trade: t, Outcome: outcome}, nil

	case models.CloseNotFound:
		logger.Warn("close for unknown trade id=%q symbol=%s ignored", e.ID, e.Symbol)

	case models.CloseApplied:
		t, ok, err := i.store.Get(ctx, e.ID)
		if err != nil {
			return Result{}, fmt.Errorf("ledger.Ingestor.exit: %w", err)
		}
		if ok {
			closed = t
			if !t.EntryPrice.IsZero() {
				base := t.EntryPrice
				pctBase = &base
			}
		}
		logger.Info("trade %s closed: exit %s pnl %s", e.ID, e.Price, e.PnL)
	}

	if pctBase == nil && e.EntryPrice != nil && !e.EntryPrice.IsZero() {
		base := *e.EntryPrice
		pctBase = &base
	}

	i.notifier.NotifyClosed(ctx, closed, pctBase)
	return Result{Trade: closed, Outcome: outcome}, nil
}

func (i *Ingestor) refreshOpenGauge(ctx context.Context) {
	open, err := i.store.ListOpen(ctx)
	if err != nil {
		logger.Warn("open trades gauge: %v", err)
		return
	}
	metrics.OpenTrades.Set(float64(len(open)))
}

func eventTime(ev models.Event) time.Time {
	switch e := ev.(type) {
	case models.EntryEvent:
		return e.At
	case models.ExitEvent:
		return e.At
	}
	return time.Time{}
}
