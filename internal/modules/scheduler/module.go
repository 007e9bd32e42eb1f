package scheduler

import (
	"context"
	"fmt"
	"time"

	alerts "trade_ledger/internal/modules/alerts/service"
	"trade_ledger/internal/modules/config"
	health "trade_ledger/internal/modules/health/service"
	"trade_ledger/internal/modules/ledger/store"
	"trade_ledger/internal/modules/scheduler/service"
	"trade_ledger/pkg/logger"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
)

// NewMarker выбирает, где хранить last_fired_day.
func NewMarker(lc fx.Lifecycle, cfg *config.Config, s store.Store) (service.MarkerStore, error) {
	switch cfg.Report.Marker {
	case config.MarkerMemory:
		return service.NewMemoryMarker(), nil

	case config.MarkerLedger:
		m, ok := s.(service.MarkerStore)
		if !ok {
			return nil, fmt.Errorf("storage driver %q can not hold the report marker", cfg.Storage.Driver)
		}
		return m, nil

	case config.MarkerRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr: cfg.Redis.Addr,
			DB:   cfg.Redis.DB,
		})
		lc.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				return rdb.Ping(ctx).Err()
			},
			OnStop: func(ctx context.Context) error {
				return rdb.Close()
			},
		})
		return service.NewRedisMarker(rdb, cfg.Redis.Key, time.Now), nil

	default:
		return nil, fmt.Errorf("unknown report marker %q", cfg.Report.Marker)
	}
}

func NewScheduler(
	cfg *config.Config,
	marker service.MarkerStore,
	d *alerts.Dispatcher,
	state *health.State,
) (*service.Scheduler, error) {
	hour, minute, err := cfg.ReportAt()
	if err != nil {
		return nil, err
	}
	return service.New(service.Params{
		Marker:   marker,
		Location: cfg.Location(),
		Hour:     hour,
		Minute:   minute,
		Poll:     cfg.Report.PollInterval,
		Fire: func(ctx context.Context) error {
			return d.DeliverReport(ctx, d.BroadcastChatID(), cfg.Report.WindowDays, nil)
		},
		OnFired: state.MarkReport,
	})
}

func Module() fx.Option {
	return fx.Module("scheduler",
		fx.Provide(
			NewMarker,
			NewScheduler,
		),
		fx.Invoke(func(lc fx.Lifecycle, s *service.Scheduler, cfg *config.Config) {
			ctx, cancel := context.WithCancel(context.Background())
			done := make(chan struct{})
			lc.Append(fx.Hook{
				OnStart: func(context.Context) error {
					logger.Info("report scheduler started: %s %s, poll %s",
						cfg.Report.At, cfg.Location(), cfg.Report.PollInterval)
					go func() {
						defer close(done)
						s.Run(ctx)
					}()
					return nil
				},
				OnStop: func(stopCtx context.Context) error {
					cancel()
					select {
					case <-done:
					case <-stopCtx.Done():
					}
					return nil
				},
			})
		}),
	)
}
