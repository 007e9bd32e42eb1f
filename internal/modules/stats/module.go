package stats

import (
	"trade_ledger/internal/modules/config"
	"trade_ledger/internal/modules/ledger/store"
	"trade_ledger/internal/modules/stats/service"

	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module("stats",
		fx.Provide(
			func(cfg *config.Config, s store.Store) *service.Aggregator {
				return service.NewAggregator(s, cfg.Location())
			},
		),
	)
}
