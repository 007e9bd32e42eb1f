package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"trade_ledger/internal/modules/config"
	"trade_ledger/internal/modules/health"
	healthsvc "trade_ledger/internal/modules/health/service"
	ledger "trade_ledger/internal/modules/ledger/service"
	"trade_ledger/internal/modules/ledger/store"
	stats "trade_ledger/internal/modules/stats/service"
	"trade_ledger/internal/notify"
	"trade_ledger/pkg/logger"

	"github.com/gorilla/mux"
	"go.uber.org/fx"
)

func newRouter(
	cfg *config.Config,
	ing *ledger.Ingestor,
	s store.Store,
	agg *stats.Aggregator,
	hub *notify.Hub,
	state *healthsvc.State,
) *mux.Router {
	h := NewHandlers(ing, s, agg, cfg.Location(), cfg.Report.WindowDays, time.Now)
	r := NewRouter(h, hub)
	health.Register(r, state)
	return r
}

func RunHTTP(lc fx.Lifecycle, cfg *config.Config, router *mux.Router) {
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", srv.Addr)
			if err != nil {
				return err
			}
			logger.Info("http listening on %s", srv.Addr)
			go func() {
				if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("http server: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}

func Module() fx.Option {
	return fx.Module("httpapi",
		fx.Provide(
			newRouter,
		),
		fx.Invoke(RunHTTP),
	)
}
