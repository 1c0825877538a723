package migrate

import (
	"context"
	"fmt"

	"github.com/angelmondragon/gearhub-backend/pkg/config"
	"github.com/angelmondragon/gearhub-backend/pkg/db"
	"github.com/angelmondragon/gearhub-backend/pkg/logger"
)

// MaybeRunDev applies pending embedded migrations at boot, but only in dev
// with GEARHUB_AUTO_MIGRATE on and only against Postgres. Every other setup
// migrates through cmd/migrate.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !cfg.App.IsDev() || !cfg.FeatureFlags.AutoMigrate {
		return nil
	}
	if name := client.DB().Dialector.Name(); name != "postgres" {
		logg.Warn(logg.WithField(ctx, "driver", name), "auto-migrate skipped: migrations target postgres")
		return nil
	}

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}
	m, err := NewMigrator(sqlDB, Embedded())
	if err != nil {
		return err
	}

	applied, err := m.Up(ctx)
	if err != nil {
		return err
	}
	for _, step := range applied {
		logg.Info(logg.WithFields(ctx, map[string]any{"version": step.Version, "path": step.Path}), "migration applied")
	}
	logg.Info(logg.WithField(ctx, "applied", len(applied)), "auto-migrate finished")
	return nil
}
