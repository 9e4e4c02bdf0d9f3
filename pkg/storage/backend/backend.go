// Package backend selects and opens the configured storage driver.
package backend

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/angelmondragon/gearstore/pkg/config"
	"github.com/angelmondragon/gearstore/pkg/db"
	"github.com/angelmondragon/gearstore/pkg/logger"
	"github.com/angelmondragon/gearstore/pkg/migrate"
	"github.com/angelmondragon/gearstore/pkg/redis"
	"github.com/angelmondragon/gearstore/pkg/storage"
	"github.com/angelmondragon/gearstore/pkg/storage/file"
	"github.com/angelmondragon/gearstore/pkg/storage/memory"
	"github.com/angelmondragon/gearstore/pkg/storage/sqlstore"
)

// Backend is an opened storage driver together with its lifecycle hooks.
type Backend struct {
	storage.Storage
	Driver string
	ping   func(context.Context) error
	close  func() error
}

// Ping checks the backend is reachable.
func (b *Backend) Ping(ctx context.Context) error {
	if b.ping == nil {
		return nil
	}
	return b.ping(ctx)
}

// Close releases connections held by the backend.
func (b *Backend) Close() error {
	if b.close == nil {
		return nil
	}
	return b.close()
}

// Open builds the storage driver named by cfg.Storage.Driver. SQL drivers run
// pending migrations before the store is returned.
func Open(ctx context.Context, cfg *config.Config, logg *logger.Logger) (*Backend, error) {
	driver := cfg.Storage.NormalizedDriver()
	ctx = logg.WithField(ctx, "driver", driver)

	switch driver {
	case config.StorageDriverMemory:
		store := memory.New()
		logg.Warn(ctx, "using in-memory storage; cart and session will not survive a restart")
		return &Backend{Storage: store, Driver: driver, ping: store.Ping}, nil

	case config.StorageDriverFile:
		if dir := filepath.Dir(cfg.Storage.Path); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("creating storage dir: %w", err)
			}
		}
		store, err := file.Open(ctx, cfg.Storage.Path, logg)
		if err != nil {
			return nil, err
		}
		logg.Info(ctx, "file storage opened")
		return &Backend{Storage: store, Driver: driver, ping: store.Ping}, nil

	case config.StorageDriverRedis:
		client, err := redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			return nil, err
		}
		return &Backend{Storage: client, Driver: driver, ping: client.Ping, close: client.Close}, nil

	case config.StorageDriverSQLite, config.StorageDriverPostgres:
		return openSQL(ctx, cfg.Storage, logg)

	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.Storage.Driver)
	}
}

func openSQL(ctx context.Context, cfg config.StorageConfig, logg *logger.Logger) (*Backend, error) {
	client, err := db.New(ctx, cfg, logg)
	if err != nil {
		return nil, err
	}
	sqlDB, err := client.SQLDB()
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	if err := migrate.MaybeRun(ctx, cfg, logg, sqlDB); err != nil {
		_ = client.Close()
		return nil, err
	}
	store, err := sqlstore.New(client.DB())
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	return &Backend{
		Storage: store,
		Driver:  cfg.NormalizedDriver(),
		ping:    client.Ping,
		close:   client.Close,
	}, nil
}
