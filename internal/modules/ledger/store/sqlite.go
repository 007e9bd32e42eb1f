package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"trade_ledger/internal/models"

	"github.com/Masterminds/squirrel"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
)

// SQL — леджер поверх database/sql (sqlite3).
type SQL struct {
	db  *sql.DB
	sq  squirrel.StatementBuilderType
	loc *time.Location

	// один писатель за раз
	wmu sync.Mutex
}

// NewSQLite открывает файл и накатывает схему.
func NewSQLite(path string, loc *time.Location) (*SQL, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("store.NewSQLite: %w", err)
	}
	// sqlite плохо живёт с параллельными коннектами на запись
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(SQLiteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store.NewSQLite: schema: %w", err)
	}
	return NewSQL(db, loc), nil
}

// NewSQL оборачивает уже открытый *sql.DB без миграций.
func NewSQL(db *sql.DB, loc *time.Location) *SQL {
	if loc == nil {
		loc = time.UTC
	}
	return &SQL{
		db:  db,
		sq:  squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
		loc: loc,
	}
}

func (s *SQL) OpenTrade(ctx context.Context, t models.Trade) (out models.Trade, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("store.SQL.OpenTrade: %w", err)
		}
	}()

	query, args, err := s.sq.
		Insert("trades").
		Options("OR REPLACE").
		Columns(tradeColumns...).
		Values(
			t.ID, t.Symbol, string(t.Side), t.EntryPrice.String(), t.Quantity.String(),
			t.EntryTime.UTC().UnixMilli(), nil, nil, nil, string(models.StatusOpen),
		).
		ToSql()
	if err != nil {
		return models.Trade{}, err
	}

	s.wmu.Lock()
	defer s.wmu.Unlock()

	if _, err = s.db.ExecContext(ctx, query, args...); err != nil {
		return models.Trade{}, err
	}
	t.Status = models.StatusOpen
	t.ExitPrice, t.ExitTime, t.RealizedPnL = nil, nil, nil
	return t, nil
}

func (s *SQL) CloseTrade(
	ctx context.Context,
	id string,
	exitPrice decimal.Decimal,
	exitTime time.Time,
	pnl decimal.Decimal,
) (outcome models.CloseOutcome, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("store.SQL.CloseTrade: %w", err)
		}
	}()

	s.wmu.Lock()
	defer s.wmu.Unlock()

	query, args, err := s.sq.Select("status").From("trades").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return models.CloseNotFound, err
	}

	var status string
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return models.CloseNotFound, nil
	}
	if err != nil {
		return models.CloseNotFound, err
	}
	if models.TradeStatus(status) != models.StatusOpen {
		return models.CloseAlreadyClosed, nil
	}

	query, args, err = s.sq.
		Update("trades").
		Set("exit_price", exitPrice.String()).
		Set("exit_time", exitTime.UTC().UnixMilli()).
		Set("realized_pnl", pnl.String()).
		Set("status", string(models.StatusClosed)).
		Where(squirrel.Eq{"id": id, "status": string(models.StatusOpen)}).
		ToSql()
	if err != nil {
		return models.CloseNotFound, err
	}
	if _, err = s.db.ExecContext(ctx, query, args...); err != nil {
		return models.CloseNotFound, err
	}
	return models.CloseApplied, nil
}

func (s *SQL) Get(ctx context.Context, id string) (models.Trade, bool, error) {
	trades, err := s.query(ctx, s.sq.Select(tradeColumns...).From("trades").Where(squirrel.Eq{"id": id}))
	if err != nil {
		return models.Trade{}, false, fmt.Errorf("store.SQL.Get: %w", err)
	}
	if len(trades) == 0 {
		return models.Trade{}, false, nil
	}
	return trades[0], true, nil
}

func (s *SQL) ListOpen(ctx context.Context) ([]models.Trade, error) {
	trades, err := s.query(ctx, s.sq.
		Select(tradeColumns...).
		From("trades").
		Where(squirrel.Eq{"status": string(models.StatusOpen)}).
		OrderBy("rowid ASC"))
	if err != nil {
		return nil, fmt.Errorf("store.SQL.ListOpen: %w", err)
	}
	return trades, nil
}

func (s *SQL) ListRecent(ctx context.Context, limit int) ([]models.Trade, error) {
	trades, err := s.query(ctx, s.sq.
		Select(tradeColumns...).
		From("trades").
		OrderBy("rowid DESC").
		Limit(uint64(NormalizeLimit(limit))))
	if err != nil {
		return nil, fmt.Errorf("store.SQL.ListRecent: %w", err)
	}
	return trades, nil
}

func (s *SQL) ClosedInRange(ctx context.Context, day time.Time) ([]models.Trade, error) {
	start, end := models.DayBounds(day, s.loc)
	trades, err := s.query(ctx, s.sq.
		Select(tradeColumns...).
		From("trades").
		Where(squirrel.Eq{"status": string(models.StatusClosed)}).
		Where(squirrel.GtOrEq{"exit_time": start.UTC().UnixMilli()}).
		Where(squirrel.Lt{"exit_time": end.UTC().UnixMilli()}).
		OrderBy("exit_time ASC"))
	if err != nil {
		return nil, fmt.Errorf("store.SQL.ClosedInRange: %w", err)
	}
	return trades, nil
}

func (s *SQL) LastFired(ctx context.Context) (string, error) {
	query, args, err := s.sq.Select("value").From("scheduler_state").Where(squirrel.Eq{"name": reportMarkerName}).ToSql()
	if err != nil {
		return "", err
	}
	var day string
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&day)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("store.SQL.LastFired: %w", err)
	}
	return day, nil
}

func (s *SQL) SetLastFired(ctx context.Context, day string) error {
	query, args, err := s.sq.
		Insert("scheduler_state").
		Options("OR REPLACE").
		Columns("name", "value").
		Values(reportMarkerName, day).
		ToSql()
	if err != nil {
		return err
	}

	s.wmu.Lock()
	defer s.wmu.Unlock()
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("store.SQL.SetLastFired: %w", err)
	}
	return nil
}

func (s *SQL) Close() error {
	return s.db.Close()
}

func (s *SQL) query(ctx context.Context, b squirrel.SelectBuilder) ([]models.Trade, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Trade
	for rows.Next() {
		t, err := scanSQLiteTrade(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func scanSQLiteTrade(rows *sql.Rows) (models.Trade, error) {
	var (
		t                    models.Trade
		side, status         string
		entryPrice, quantity string
		entryMs              int64
		exitPrice, pnl       sql.NullString
		exitMs               sql.NullInt64
	)

	if err := rows.Scan(
		&t.ID,
		&t.Symbol,
		&side,
		&entryPrice,
		&quantity,
		&entryMs,
		&exitPrice,
		&exitMs,
		&pnl,
		&status,
	); err != nil {
		return models.Trade{}, err
	}

	var err error
	t.Side = models.Side(side)
	t.Status = models.TradeStatus(status)
	t.EntryTime = time.UnixMilli(entryMs).UTC()
	if t.EntryPrice, err = decimal.NewFromString(entryPrice); err != nil {
		return models.Trade{}, fmt.Errorf("trade %s entry_price: %w", t.ID, err)
	}
	if t.Quantity, err = decimal.NewFromString(quantity); err != nil {
		return models.Trade{}, fmt.Errorf("trade %s quantity: %w", t.ID, err)
	}

	if exitPrice.Valid {
		d, err := decimal.NewFromString(exitPrice.String)
		if err != nil {
			return models.Trade{}, fmt.Errorf("trade %s exit_price: %w", t.ID, err)
		}
		t.ExitPrice = &d
	}
	if exitMs.Valid {
		et := time.UnixMilli(exitMs.Int64).UTC()
		t.ExitTime = &et
	}
	if pnl.Valid {
		d, err := decimal.NewFromString(pnl.String)
		if err != nil {
			return models.Trade{}, fmt.Errorf("trade %s realized_pnl: %w", t.ID, err)
		}
		t.RealizedPnL = &d
	}
	return t, nil
}
