package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"trade_ledger/internal/format"
	"trade_ledger/internal/modules/config"
	"trade_ledger/internal/modules/ledger"
	"trade_ledger/internal/modules/ledger/store"
	stats "trade_ledger/internal/modules/stats/service"
	"trade_ledger/pkg/logger"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "ledgerctl",
	Short: "Inspect the trade ledger offline",
	Long: `ledgerctl reads the same ledger as the bot and prints reports.

It never modifies trades. Storage settings come from the bot config
(CONFIG_DIR / CONFIG_FILE) and can be overridden with flags.

Examples:
  ledgerctl stats
  ledgerctl stats 2024-01-01
  ledgerctl window --days 14
  ledgerctl trades --limit 50
  ledgerctl open
  ledgerctl report`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.UseNop()
	},
}

var (
	flagDriver string
	flagSQLite string
	flagDSN    string
	flagTZ     string
)

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDriver, "driver", "", "storage driver override (sqlite|postgres)")
	rootCmd.PersistentFlags().StringVar(&flagSQLite, "db", "", "sqlite ledger path override")
	rootCmd.PersistentFlags().StringVar(&flagDSN, "dsn", "", "postgres DSN override")
	rootCmd.PersistentFlags().StringVar(&flagTZ, "tz", "", "reference timezone override")
}

// env — всё, что нужно подкомандам: открытый леджер, агрегатор, форматтер.
type env struct {
	cfg   *config.Config
	store store.Store
	agg   *stats.Aggregator
	fmt   *format.Formatter
	now   time.Time
}

func openEnv(ctx context.Context) (*env, error) {
	cfg, err := config.NewConfig()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if flagDriver != "" {
		cfg.Storage.Driver = flagDriver
	}
	if flagSQLite != "" {
		cfg.Storage.SQLitePath = flagSQLite
	}
	if flagDSN != "" {
		cfg.Storage.DSN = flagDSN
	}
	if flagTZ != "" {
		cfg.Report.Timezone = flagTZ
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if cfg.Storage.Driver == config.StorageMemory {
		return nil, fmt.Errorf("memory storage has nothing to inspect, use --driver sqlite|postgres")
	}

	s, err := ledger.OpenStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	return &env{
		cfg:   cfg,
		store: s,
		agg:   stats.NewAggregator(s, cfg.Location()),
		fmt:   format.New(cfg.Location(), cfg.AlgoInfo()),
		now:   time.Now(),
	}, nil
}

func (e *env) Close() { _ = e.store.Close() }

func printText(w io.Writer, text string) {
	_, _ = fmt.Fprintln(w, text)
}
