package store

// SQLiteSchema — время хранится в unix-миллисекундах (UTC), деньги — текстом.
const SQLiteSchema = `
CREATE TABLE IF NOT EXISTS trades (
	id TEXT PRIMARY KEY,
	symbol TEXT NOT NULL,
	side TEXT NOT NULL,
	entry_price TEXT NOT NULL,
	quantity TEXT NOT NULL,
	entry_time INTEGER NOT NULL,
	exit_price TEXT,
	exit_time INTEGER,
	realized_pnl TEXT,
	status TEXT NOT NULL DEFAULT 'OPEN'
);

CREATE INDEX IF NOT EXISTS idx_trades_status ON trades(status);
CREATE INDEX IF NOT EXISTS idx_trades_exit_time ON trades(exit_time);

CREATE TABLE IF NOT EXISTS scheduler_state (
	name TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

// PostgresSchema — NUMERIC для точных денег, seq задаёт порядок вставки.
const PostgresSchema = `
CREATE SEQUENCE IF NOT EXISTS trades_order_seq;

CREATE TABLE IF NOT EXISTS trades (
	id TEXT PRIMARY KEY,
	symbol TEXT NOT NULL,
	side TEXT NOT NULL,
	entry_price NUMERIC NOT NULL,
	quantity NUMERIC NOT NULL,
	entry_time TIMESTAMPTZ NOT NULL,
	exit_price NUMERIC,
	exit_time TIMESTAMPTZ,
	realized_pnl NUMERIC,
	status TEXT NOT NULL DEFAULT 'OPEN',
	seq BIGINT NOT NULL DEFAULT nextval('trades_order_seq')
);

CREATE INDEX IF NOT EXISTS idx_trades_status ON trades(status);
CREATE INDEX IF NOT EXISTS idx_trades_exit_time ON trades(exit_time);

CREATE TABLE IF NOT EXISTS scheduler_state (
	name TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

const reportMarkerName = "daily_report_last_fired_day"

var tradeColumns = []string{
	"id", "symbol", "side", "entry_price", "quantity", "entry_time",
	"exit_price", "exit_time", "realized_pnl", "status",
}
