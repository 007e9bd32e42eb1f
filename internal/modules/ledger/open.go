package ledger

import (
	"context"
	"fmt"

	"trade_ledger/internal/modules/config"
	"trade_ledger/internal/modules/ledger/store"
	"trade_ledger/internal/modules/postgres"
)

// OpenStore выбирает реализацию леджера по storage.driver.
func OpenStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	loc := cfg.Location()

	switch cfg.Storage.Driver {
	case config.StorageMemory:
		return store.NewMemory(loc), nil

	case config.StorageSQLite:
		return store.NewSQLite(cfg.Storage.SQLitePath, loc)

	case config.StoragePostgres:
		txm, err := postgres.NewTxManager(ctx, cfg.Storage.DSN)
		if err != nil {
			return nil, err
		}
		pg := store.NewPostgres(txm, loc, txm.Close)
		if err := pg.Migrate(ctx); err != nil {
			txm.Close()
			return nil, err
		}
		return pg, nil

	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}
