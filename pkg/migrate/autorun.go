package migrate

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/angelmondragon/gearstore/pkg/config"
	"github.com/angelmondragon/gearstore/pkg/logger"
)

// MaybeRun applies pending storage migrations when auto-migrate is enabled.
func MaybeRun(ctx context.Context, cfg config.StorageConfig, logg *logger.Logger, db *sql.DB) error {
	if !cfg.AutoMigrate {
		return nil
	}

	meta := map[string]any{"driver": cfg.NormalizedDriver()}
	ctx = logg.WithFields(ctx, meta)
	logg.Info(ctx, "running storage migrations")

	if err := Run(ctx, db, cfg.NormalizedDriver(), "up"); err != nil {
		return fmt.Errorf("running goose up: %w", err)
	}

	logg.Info(ctx, "storage migrations completed")
	return nil
}
