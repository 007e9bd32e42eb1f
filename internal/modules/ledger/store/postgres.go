package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"trade_ledger/internal/models"
	"trade_ledger/pkg/db"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// Postgres — леджер в PostgreSQL. Деньги в NUMERIC, читаем через ::TEXT.
type Postgres struct {
	tx  db.TxManager
	sq  squirrel.StatementBuilderType
	loc *time.Location

	wmu     sync.Mutex
	closeFn func()
}

var pgSelectColumns = []string{
	"id", "symbol", "side", "entry_price::TEXT", "quantity::TEXT", "entry_time",
	"exit_price::TEXT", "exit_time", "realized_pnl::TEXT", "status",
}

func NewPostgres(tx db.TxManager, loc *time.Location, closeFn func()) *Postgres {
	if loc == nil {
		loc = time.UTC
	}
	return &Postgres{
		tx:      tx,
		sq:      squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		loc:     loc,
		closeFn: closeFn,
	}
}

// Migrate накатывает схему.
func (p *Postgres) Migrate(ctx context.Context) error {
	if _, err := p.tx.Conn().Exec(ctx, PostgresSchema); err != nil {
		return fmt.Errorf("store.Postgres.Migrate: %w", err)
	}
	return nil
}

func (p *Postgres) OpenTrade(ctx context.Context, t models.Trade) (out models.Trade, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("store.Postgres.OpenTrade: %w", err)
		}
	}()

	query, args, err := p.sq.
		Insert("trades").
		Columns(tradeColumns...).
		Values(
			t.ID, t.Symbol, string(t.Side), t.EntryPrice.String(), t.Quantity.String(),
			t.EntryTime.UTC(), nil, nil, nil, string(models.StatusOpen),
		).
		Suffix(`ON CONFLICT (id) DO UPDATE SET
			symbol = EXCLUDED.symbol,
			side = EXCLUDED.side,
			entry_price = EXCLUDED.entry_price,
			quantity = EXCLUDED.quantity,
			entry_time = EXCLUDED.entry_time,
			exit_price = NULL,
			exit_time = NULL,
			realized_pnl = NULL,
			status = EXCLUDED.status,
			seq = nextval('trades_order_seq')`).
		ToSql()
	if err != nil {
		return models.Trade{}, err
	}

	p.wmu.Lock()
	defer p.wmu.Unlock()

	err = p.tx.RunMaster(ctx, func(ctxTx context.Context, tx pgx.Tx) error {
		_, err := tx.Exec(ctxTx, query, args...)
		return err
	})
	if err != nil {
		return models.Trade{}, err
	}
	t.Status = models.StatusOpen
	t.ExitPrice, t.ExitTime, t.RealizedPnL = nil, nil, nil
	return t, nil
}

func (p *Postgres) CloseTrade(
	ctx context.Context,
	id string,
	exitPrice decimal.Decimal,
	exitTime time.Time,
	pnl decimal.Decimal,
) (outcome models.CloseOutcome, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("store.Postgres.CloseTrade: %w", err)
		}
	}()

	selectQ, selectArgs, err := p.sq.
		Select("status").
		From("trades").
		Where(squirrel.Eq{"id": id}).
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return models.CloseNotFound, err
	}
	updateQ, updateArgs, err := p.sq.
		Update("trades").
		Set("exit_price", exitPrice.String()).
		Set("exit_time", exitTime.UTC()).
		Set("realized_pnl", pnl.String()).
		Set("status", string(models.StatusClosed)).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return models.CloseNotFound, err
	}

	p.wmu.Lock()
	defer p.wmu.Unlock()

	outcome = models.CloseNotFound
	err = p.tx.RunMaster(ctx, func(ctxTx context.Context, tx pgx.Tx) error {
		var status string
		err := tx.QueryRow(ctxTx, selectQ, selectArgs...).Scan(&status)
		if errors.Is(err, pgx.ErrNoRows) {
			outcome = models.CloseNotFound
			return nil
		}
		if err != nil {
			return err
		}
		if models.TradeStatus(status) != models.StatusOpen {
			outcome = models.CloseAlreadyClosed
			return nil
		}
		if _, err := tx.Exec(ctxTx, updateQ, updateArgs...); err != nil {
			return err
		}
		outcome = models.CloseApplied
		return nil
	})
	if err != nil {
		return models.CloseNotFound, err
	}
	return outcome, nil
}

func (p *Postgres) Get(ctx context.Context, id string) (models.Trade, bool, error) {
	trades, err := p.query(ctx, p.sq.Select(pgSelectColumns...).From("trades").Where(squirrel.Eq{"id": id}))
	if err != nil {
		return models.Trade{}, false, fmt.Errorf("store.Postgres.Get: %w", err)
	}
	if len(trades) == 0 {
		return models.Trade{}, false, nil
	}
	return trades[0], true, nil
}

func (p *Postgres) ListOpen(ctx context.Context) ([]models.Trade, error) {
	trades, err := p.query(ctx, p.sq.
		Select(pgSelectColumns...).
		From("trades").
		Where(squirrel.Eq{"status": string(models.StatusOpen)}).
		OrderBy("seq ASC"))
	if err != nil {
		return nil, fmt.Errorf("store.Postgres.ListOpen: %w", err)
	}
	return trades, nil
}

func (p *Postgres) ListRecent(ctx context.Context, limit int) ([]models.Trade, error) {
	trades, err := p.query(ctx, p.sq.
		Select(pgSelectColumns...).
		From("trades").
		OrderBy("seq DESC").
		Limit(uint64(NormalizeLimit(limit))))
	if err != nil {
		return nil, fmt.Errorf("store.Postgres.ListRecent: %w", err)
	}
	return trades, nil
}

func (p *Postgres) ClosedInRange(ctx context.Context, day time.Time) ([]models.Trade, error) {
	start, end := models.DayBounds(day, p.loc)
	trades, err := p.query(ctx, p.sq.
		Select(pgSelectColumns...).
		From("trades").
		Where(squirrel.Eq{"status": string(models.StatusClosed)}).
		Where(squirrel.GtOrEq{"exit_time": start.UTC()}).
		Where(squirrel.Lt{"exit_time": end.UTC()}).
		OrderBy("exit_time ASC"))
	if err != nil {
		return nil, fmt.Errorf("store.Postgres.ClosedInRange: %w", err)
	}
	return trades, nil
}

func (p *Postgres) LastFired(ctx context.Context) (string, error) {
	query, args, err := p.sq.Select("value").From("scheduler_state").Where(squirrel.Eq{"name": reportMarkerName}).ToSql()
	if err != nil {
		return "", err
	}
	var day string
	err = p.tx.Conn().QueryRow(ctx, query, args...).Scan(&day)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("store.Postgres.LastFired: %w", err)
	}
	return day, nil
}

func (p *Postgres) SetLastFired(ctx context.Context, day string) error {
	query, args, err := p.sq.
		Insert("scheduler_state").
		Columns("name", "value").
		Values(reportMarkerName, day).
		Suffix("ON CONFLICT (name) DO UPDATE SET value = EXCLUDED.value").
		ToSql()
	if err != nil {
		return err
	}
	if _, err := p.tx.Conn().Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("store.Postgres.SetLastFired: %w", err)
	}
	return nil
}

func (p *Postgres) Close() error {
	if p.closeFn != nil {
		p.closeFn()
	}
	return nil
}

// query читает в read-only транзакции repeatable read: один снимок на весь результат.
func (p *Postgres) query(ctx context.Context, b squirrel.SelectBuilder) ([]models.Trade, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, err
	}

	var out []models.Trade
	err = p.tx.RunRepeatableRead(ctx, func(ctxTx context.Context, tx pgx.Tx) error {
		rows, err := tx.Query(ctxTx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		out = out[:0]
		for rows.Next() {
			t, err := scanPgTrade(rows)
			if err != nil {
				return err
			}
			out = append(out, t)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func scanPgTrade(row pgx.Row) (models.Trade, error) {
	var (
		t                    models.Trade
		side, status         string
		entryPrice, quantity string
		exitPrice, pnl       *string
		exitTime             *time.Time
	)

	if err := row.Scan(
		&t.ID,
		&t.Symbol,
		&side,
		&entryPrice,
		&quantity,
		&t.EntryTime,
		&exitPrice,
		&exitTime,
		&pnl,
		&status,
	); err != nil {
		return models.Trade{}, err
	}

	var err error
	t.Side = models.Side(side)
	t.Status = models.TradeStatus(status)
	t.EntryTime = t.EntryTime.UTC()
	if t.EntryPrice, err = decimal.NewFromString(entryPrice); err != nil {
		return models.Trade{}, fmt.Errorf("trade %s entry_price: %w", t.ID, err)
	}
	if t.Quantity, err = decimal.NewFromString(quantity); err != nil {
		return models.Trade{}, fmt.Errorf("trade %s quantity: %w", t.ID, err)
	}

	if exitPrice != nil {
		d, err := decimal.NewFromString(*exitPrice)
		if err != nil {
			return models.Trade{}, fmt.Errorf("trade %s exit_price: %w", t.ID, err)
		}
		t.ExitPrice = &d
	}
	if exitTime != nil {
		et := exitTime.UTC()
		t.ExitTime = &et
	}
	if pnl != nil {
		d, err := decimal.NewFromString(*pnl)
		if err != nil {
			return models.Trade{}, fmt.Errorf("trade %s realized_pnl: %w", t.ID, err)
		}
		t.RealizedPnL = &d
	}
	return t, nil
}
