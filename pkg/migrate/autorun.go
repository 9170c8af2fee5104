package migrate

import (
	"context"
	"fmt"

	"github.com/angelmondragon/foodorder-backend/pkg/config"
	"github.com/angelmondragon/foodorder-backend/pkg/db"
	"github.com/angelmondragon/foodorder-backend/pkg/logger"
)

// Prepare brings the schema up to date at startup. SQLite databases are
// migrated from the models; Postgres runs the embedded goose migrations in
// dev when the auto-migrate flag is on.
func Prepare(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client, models ...any) error {
	if client.Driver() == db.DriverSQLite {
		logg.Info(logg.WithField(ctx, "driver", client.Driver()), "migrate.automigrate")
		if err := client.DB().WithContext(ctx).AutoMigrate(models...); err != nil {
			return fmt.Errorf("sqlite automigrate: %w", err)
		}
		return nil
	}
	if !cfg.App.IsDev() || !cfg.FeatureFlags.AutoMigrate {
		return nil
	}

	sqlDB, err := client.SQL()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}
	ctx = logg.WithField(ctx, "env", cfg.App.Env)
	logg.Info(ctx, "migrate.dev_autorun_started")
	if err := Run(ctx, sqlDB, "", "up"); err != nil {
		return fmt.Errorf("running goose up: %w", err)
	}
	logg.Info(ctx, "migrate.dev_autorun_completed")
	return nil
}
