package storage

import (
	"context"
	"fmt"

	"github.com/RENEILPH10/Step-Counter/internal/config"
	"github.com/RENEILPH10/Step-Counter/internal/db"
)

var connectPostgresFn = db.ConnectPostgres

// Open builds the Store selected by cfg.StoreDriver.
func Open(ctx context.Context, cfg config.Config) (Store, error) {
	switch cfg.StoreDriver {
	case "", config.DriverSQLite:
		return NewSQLiteStore(cfg.SQLitePath)
	case config.DriverPostgres:
		pool, err := connectPostgresFn(cfg)
		if err != nil {
			return nil, wrap("open", err)
		}
		store := NewPostgresStore(pool, pool.Close)
		if err := store.Migrate(ctx); err != nil {
			_ = store.Close()
			return nil, err
		}
		return store, nil
	case config.DriverRedis:
		client := db.ConnectRedis(cfg)
		if client == nil {
			return nil, wrap("open", fmt.Errorf("redis store requires REDIS_ADDR"))
		}
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, wrap("open", err)
		}
		return NewRedisStore(client, true), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}
