package ledger

import (
	"context"

	"trade_ledger/internal/modules/alerts/service"
	"trade_ledger/internal/modules/config"
	health "trade_ledger/internal/modules/health/service"
	ledger "trade_ledger/internal/modules/ledger/service"
	"trade_ledger/internal/modules/ledger/store"
	"trade_ledger/pkg/logger"

	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module("ledger",
		fx.Provide(
			func(ctx context.Context, lc fx.Lifecycle, cfg *config.Config) (store.Store, error) {
				s, err := OpenStore(ctx, cfg)
				if err != nil {
					return nil, err
				}
				logger.Info("ledger opened, driver=%s", cfg.Storage.Driver)
				lc.Append(fx.Hook{
					OnStop: func(ctx context.Context) error {
						return s.Close()
					},
				})
				return s, nil
			},
			func(cfg *config.Config, s store.Store, d *service.Dispatcher, state *health.State) *ledger.Ingestor {
				return ledger.NewIngestor(s, d, state, cfg.DefaultQty())
			},
		),
	)
}
