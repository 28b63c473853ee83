package migrate

import (
	"context"
	"fmt"

	"github.com/aumatinvert/storefront-api/pkg/config"
	"github.com/aumatinvert/storefront-api/pkg/db"
	"github.com/aumatinvert/storefront-api/pkg/logger"
)

// MaybeRunDev brings a dev database up to date on boot when
// STOREFRONT_AUTO_MIGRATE is set. Goose files are Postgres-only, so sqlite
// gets db.ApplySQLiteSchema. Other environments migrate with cmd/migrate.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !cfg.App.IsDev() || !cfg.FeatureFlags.AutoMigrate {
		logg.Debug(ctx, "schema auto-migrate disabled")
		return nil
	}

	if cfg.FeatureFlags.UseSQLite {
		ctx = logg.WithField(ctx, "driver", db.DriverSQLite)
		if err := db.ApplySQLiteSchema(client.DB()); err != nil {
			return fmt.Errorf("applying sqlite schema: %w", err)
		}
		logg.Info(ctx, "pricing schema up to date")
		return nil
	}

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}

	ctx = logg.WithFields(ctx, map[string]any{"driver": "postgres", "dir": DefaultDir})
	if err := Run(ctx, sqlDB, DefaultDir, "up"); err != nil {
		return fmt.Errorf("running goose up: %w", err)
	}
	logg.Info(ctx, "pricing schema up to date")
	return nil
}
