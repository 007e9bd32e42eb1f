package service

import (
	"context"
	"fmt"
	"time"

	"trade_ledger/internal/format"
	"trade_ledger/internal/metrics"
	"trade_ledger/internal/models"
	"trade_ledger/pkg/logger"

	"github.com/opentracing/opentracing-go"
	"github.com/shopspring/decimal"
)

const (
	KindEntry   = "entry"
	KindExit    = "exit"
	KindReport  = "report"
	KindStartup = "startup"

	outcomeOK     = "ok"
	outcomeFailed = "failed"
)

// Sender — транспорт доставки (Telegram или stdout).
type Sender interface {
	Send(ctx context.Context, chatID int64, msg models.Message) (models.MessageRef, error)
	Edit(ctx context.Context, ref models.MessageRef, msg models.Message) error
}

// Publisher — дополнительное зеркало алертов (websocket-лента).
type Publisher interface {
	Publish(kind, text string, at time.Time)
}

// OpenTrades — срез леджера, нужный для видов.
type OpenTrades interface {
	ListOpen(ctx context.Context) ([]models.Trade, error)
}

// Stats — срез агрегатора.
type Stats interface {
	Daily(ctx context.Context, day time.Time) (models.DailyStats, error)
	Window(ctx context.Context, days int, reference time.Time) (models.WindowStats, error)
}

type Params struct {
	Sender     Sender
	Publishers []Publisher
	Formatter  *format.Formatter
	Trades     OpenTrades
	Stats      Stats

	BroadcastChatID int64
	WindowDays      int
	Timeout         time.Duration
	Now             func() time.Time
}

// Dispatcher форматирует и доставляет алерты. Ошибки доставки не уходят
// наверх из Notify*: запись в леджер к этому моменту уже сделана.
type Dispatcher struct {
	sender     Sender
	publishers []Publisher
	fmt        *format.Formatter
	trades     OpenTrades
	stats      Stats

	broadcast  int64
	windowDays int
	timeout    time.Duration
	now        func() time.Time
}

func NewDispatcher(p Params) *Dispatcher {
	if p.Now == nil {
		p.Now = time.Now
	}
	if p.WindowDays <= 0 {
		p.WindowDays = 7
	}
	if p.Timeout <= 0 {
		p.Timeout = 15 * time.Second
	}
	return &Dispatcher{
		sender:     p.Sender,
		publishers: p.Publishers,
		fmt:        p.Formatter,
		trades:     p.Trades,
		stats:      p.Stats,
		broadcast:  p.BroadcastChatID,
		windowDays: p.WindowDays,
		timeout:    p.Timeout,
		now:        p.Now,
	}
}

func (d *Dispatcher) WindowDays() int { return d.windowDays }

func (d *Dispatcher) BroadcastChatID() int64 { return d.broadcast }

// NotifyOpened — алерт на вход в канал.
func (d *Dispatcher) NotifyOpened(ctx context.Context, t models.Trade) {
	d.broadcastMessage(ctx, KindEntry, d.fmt.EntryAlert(t))
}

// NotifyClosed — алерт на выход. pctBase опционален, см. format.ExitAlert.
func (d *Dispatcher) NotifyClosed(ctx context.Context, t models.Trade, pctBase *decimal.Decimal) {
	d.broadcastMessage(ctx, KindExit, d.fmt.ExitAlert(t, pctBase))
}

// NotifyStarted — сообщение о старте процесса.
func (d *Dispatcher) NotifyStarted(ctx context.Context) {
	d.broadcastMessage(ctx, KindStartup, d.fmt.Started())
}

// Report собирает ежедневный отчёт на момент now.
func (d *Dispatcher) Report(ctx context.Context, windowDays int) (models.Message, error) {
	if windowDays <= 0 {
		windowDays = d.windowDays
	}
	now := d.now()
	loc := d.fmt.Location()

	today, err := d.stats.Daily(ctx, now)
	if err != nil {
		return models.Message{}, err
	}
	yesterday, err := d.stats.Daily(ctx, models.DayStart(now, loc).AddDate(0, 0, -1))
	if err != nil {
		return models.Message{}, err
	}
	window, err := d.stats.Window(ctx, windowDays, now)
	if err != nil {
		return models.Message{}, err
	}
	return d.fmt.DailyReport(now, today, yesterday, window), nil
}

// DeliverReport считает окно и либо шлёт новое сообщение, либо правит
// существующую поверхность surface на месте.
func (d *Dispatcher) DeliverReport(ctx context.Context, chatID int64, windowDays int, surface *models.MessageRef) (err error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "alerts.DeliverReport")
	defer span.Finish()
	defer func() {
		if err != nil {
			span.SetTag("error", true)
			metrics.AlertsDelivered.WithLabelValues(KindReport, outcomeFailed).Inc()
			err = fmt.Errorf("alerts.DeliverReport: %w", err)
			return
		}
		metrics.AlertsDelivered.WithLabelValues(KindReport, outcomeOK).Inc()
	}()

	msg, err := d.Report(ctx, windowDays)
	if err != nil {
		return err
	}
	d.publish(KindReport, msg)

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	if surface != nil {
		return d.sender.Edit(ctx, *surface, msg)
	}
	if chatID == 0 {
		return fmt.Errorf("no destination chat")
	}
	_, err = d.sender.Send(ctx, chatID, msg)
	return err
}

// Snapshot — содержимое вида без навигации. Ошибку данных отдаёт как есть.
func (d *Dispatcher) Snapshot(ctx context.Context, view models.View) (models.Message, error) {
	now := d.now()

	switch view {
	case models.ViewMain:
		return d.fmt.MainMenu(now), nil

	case models.ViewRealtimePnL:
		today, err := d.stats.Daily(ctx, now)
		if err != nil {
			return models.Message{}, err
		}
		window, err := d.stats.Window(ctx, d.windowDays, now)
		if err != nil {
			return models.Message{}, err
		}
		return d.fmt.PnLSummary(today, window), nil

	case models.ViewDailyStats:
		today, err := d.stats.Daily(ctx, now)
		if err != nil {
			return models.Message{}, err
		}
		return d.fmt.DailyStats(today), nil

	case models.ViewOpenTrades:
		open, err := d.trades.ListOpen(ctx)
		if err != nil {
			return models.Message{}, err
		}
		return d.fmt.OpenTrades(open, now), nil

	case models.ViewWeeklyStats:
		window, err := d.stats.Window(ctx, d.windowDays, now)
		if err != nil {
			return models.Message{}, err
		}
		return d.fmt.Window(window), nil

	case models.ViewAlgoStatus:
		open, err := d.trades.ListOpen(ctx)
		if err != nil {
			return models.Message{}, err
		}
		return d.fmt.AlgoStatus(len(open)), nil

	default:
		return models.Message{}, fmt.Errorf("unknown view %q", view)
	}
}

// Render — вид для интерактивной поверхности. Если данные не достать,
// вместо тишины показываем извинение, навигация остаётся.
func (d *Dispatcher) Render(ctx context.Context, view models.View) models.Message {
	msg, err := d.Snapshot(ctx, view)
	if err != nil {
		logger.Error("alerts.Render %s: %v", view, err)
		msg = d.fmt.Apology()
	}
	if view == models.ViewMain && err == nil {
		return msg
	}
	return format.WithNavigation(msg)
}

// Reply — ответ на команду: вид без кнопок или извинение.
func (d *Dispatcher) Reply(ctx context.Context, view models.View) models.Message {
	msg, err := d.Snapshot(ctx, view)
	if err != nil {
		logger.Error("alerts.Reply %s: %v", view, err)
		return d.fmt.Apology()
	}
	return msg
}

func (d *Dispatcher) Welcome() models.Message { return d.fmt.Welcome() }

func (d *Dispatcher) Apology() models.Message { return d.fmt.Apology() }

func (d *Dispatcher) broadcastMessage(ctx context.Context, kind string, msg models.Message) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "alerts."+kind)
	defer span.Finish()

	d.publish(kind, msg)

	if d.broadcast == 0 {
		logger.Warn("alerts: broadcast chat is not configured, %s alert not sent", kind)
		metrics.AlertsDelivered.WithLabelValues(kind, outcomeFailed).Inc()
		return
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	if _, err := d.sender.Send(ctx, d.broadcast, msg); err != nil {
		span.SetTag("error", true)
		logger.Error("alerts: deliver %s to %d: %v", kind, d.broadcast, err)
		metrics.AlertsDelivered.WithLabelValues(kind, outcomeFailed).Inc()
		return
	}
	metrics.AlertsDelivered.WithLabelValues(kind, outcomeOK).Inc()
}

func (d *Dispatcher) publish(kind string, msg models.Message) {
	at := d.now()
	for _, p := range d.publishers {
		p.Publish(kind, msg.Text, at)
	}
}
