package telegram

import (
	"context"

	"trade_ledger/internal/menu"
	alerts "trade_ledger/internal/modules/alerts/service"
	"trade_ledger/internal/modules/config"
	"trade_ledger/internal/modules/telegram_bot/service"
	"trade_ledger/internal/notify"
	"trade_ledger/pkg/logger"

	"go.uber.org/fx"
)

const pollTimeoutSec = 30

type transport struct {
	tg     *service.Telegram // nil, если телеграм выключен
	sender alerts.Sender
}

func newTransport(cfg *config.Config) (*transport, error) {
	if cfg.Telegram.Disabled || cfg.Telegram.Token == "" {
		logger.Warn("telegram is disabled, alerts go to stdout")
		return &transport{sender: notify.NewStdout()}, nil
	}
	tg, err := service.NewTelegram(cfg.Telegram.Token, cfg.Telegram.Timeout)
	if err != nil {
		return nil, err
	}
	return &transport{tg: tg, sender: tg}, nil
}

func Module() fx.Option {
	return fx.Module("telegram",
		// 1. Транспорт: телеграм или stdout
		fx.Provide(
			newTransport,
			func(t *transport) alerts.Sender { return t.sender },
		),

		// 2. Интерактивное меню поверх того же транспорта
		fx.Provide(
			menu.NewSessions,
			func(s *menu.Sessions, d *alerts.Dispatcher, sender alerts.Sender) *menu.Machine {
				return menu.NewMachine(s, d, sender)
			},
		),

		// Запуск long polling через Lifecycle
		fx.Invoke(
			func(lc fx.Lifecycle, t *transport, d *alerts.Dispatcher, m *menu.Machine, cfg *config.Config) {
				if t.tg == nil {
					return
				}
				h := service.NewHandler(t.tg, d, m, cfg.Report.WindowDays)
				ctx, cancel := context.WithCancel(context.Background())

				lc.Append(fx.Hook{
					OnStart: func(context.Context) error {
						go service.Run(ctx, t.tg.Updates(pollTimeoutSec), h)
						return nil
					},
					OnStop: func(context.Context) error {
						cancel()
						t.tg.Stop()
						return nil
					},
				})
			},
		),
	)
}
