package alerts

import (
	"context"

	"trade_ledger/internal/format"
	"trade_ledger/internal/modules/alerts/service"
	"trade_ledger/internal/modules/config"
	"trade_ledger/internal/modules/ledger/store"
	stats "trade_ledger/internal/modules/stats/service"
	"trade_ledger/internal/notify"

	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module("alerts",
		fx.Provide(
			func(cfg *config.Config) *format.Formatter {
				return format.New(cfg.Location(), cfg.AlgoInfo())
			},
			notify.NewHub,
			func(
				cfg *config.Config,
				sender service.Sender,
				hub *notify.Hub,
				f *format.Formatter,
				s store.Store,
				agg *stats.Aggregator,
			) *service.Dispatcher {
				return service.NewDispatcher(service.Params{
					Sender:          sender,
					Publishers:      []service.Publisher{hub},
					Formatter:       f,
					Trades:          s,
					Stats:           agg,
					BroadcastChatID: cfg.Telegram.BroadcastChatID,
					WindowDays:      cfg.Report.WindowDays,
					Timeout:         cfg.DeliveryTimeout,
				})
			},
		),
		fx.Invoke(func(lc fx.Lifecycle, hub *notify.Hub) {
			done := make(chan struct{})
			lc.Append(fx.Hook{
				OnStart: func(ctx context.Context) error {
					go hub.Run(done)
					return nil
				},
				OnStop: func(ctx context.Context) error {
					close(done)
					return nil
				},
			})
		}),
	)
}
