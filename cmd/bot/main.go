package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"trade_ledger/internal/modules/alerts"
	alertsvc "trade_ledger/internal/modules/alerts/service"
	"trade_ledger/internal/modules/config"
	"trade_ledger/internal/modules/health"
	healthsvc "trade_ledger/internal/modules/health/service"
	"trade_ledger/internal/modules/httpapi"
	"trade_ledger/internal/modules/ledger"
	"trade_ledger/internal/modules/scheduler"
	"trade_ledger/internal/modules/stats"
	telegram "trade_ledger/internal/modules/telegram_bot"
	"trade_ledger/pkg/logger"
	"trade_ledger/pkg/tracing"

	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		fx.Provide(
			func() context.Context {
				return context.Background()
			},
		),
		config.Module(),
		health.Module(),
		ledger.Module(),
		stats.Module(),
		alerts.Module(),
		telegram.Module(),
		scheduler.Module(),
		httpapi.Module(),
		fx.Invoke(initTracing),
		fx.Invoke(announce),
		fx.NopLogger,
	)

	if err := app.Start(context.Background()); err != nil {
		log.Fatal(err)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	if err := app.Stop(context.Background()); err != nil {
		logger.Error("stop: %v", err)
	}
	logger.Sync()
}

func initTracing(lc fx.Lifecycle, cfg *config.Config) error {
	if !cfg.Tracing.Enabled {
		return nil
	}
	tracing.SetServiceName("trade_ledger")
	_, closer, err := tracing.InitTracer(tracing.Config{
		Host: cfg.Tracing.Host,
		Port: cfg.Tracing.Port,
	})
	if err != nil {
		return err
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			closer()
			return nil
		},
	})
	return nil
}

// announce выставляет ready и шлёт в канал сообщение о старте.
func announce(lc fx.Lifecycle, state *healthsvc.State, d *alertsvc.Dispatcher) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			state.SetReady(true)
			go d.NotifyStarted(context.Background())
			return nil
		},
	})
}
