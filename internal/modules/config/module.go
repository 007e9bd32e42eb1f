package config

import (
	"trade_ledger/pkg/logger"

	"go.uber.org/fx"
)

// Module регистрирует конфиг и поднимает логгер сразу после него.
func Module() fx.Option {
	return fx.Module("config",
		fx.Provide(
			NewConfig,
		),
		fx.Invoke(func(cfg *Config) error {
			if err := logger.Init(cfg.Log.Level, cfg.Log.Development); err != nil {
				return err
			}
			logger.SetServiceName("trade_ledger")
			return nil
		}),
	)
}
