package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/gearhub-backend/internal/auth"
	"github.com/angelmondragon/gearhub-backend/pkg/config"
	"github.com/angelmondragon/gearhub-backend/pkg/db"
	"github.com/angelmondragon/gearhub-backend/pkg/logger"
	"github.com/angelmondragon/gearhub-backend/pkg/migrate"
	"github.com/angelmondragon/gearhub-backend/pkg/security"
)

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "seed"})

	_ = godotenv.Load()

	adminEmail := flag.String("admin-email", envOr("GEARHUB_SEED_ADMIN_EMAIL", "admin@demo.dev"), "admin login email")
	adminPassword := flag.String("admin-password", envOr("GEARHUB_SEED_ADMIN_PASSWORD", "Admin123!"), "admin login password")
	adminName := flag.String("admin-name", "Admin User", "admin display name")
	withCatalog := flag.Bool("catalog", true, "seed demo categories, products, coupons and faqs")
	flag.Parse()

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "seed",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})
	ctx = logg.WithField(ctx, "env", cfg.App.Env)

	dbClient, err := db.New(ctx, cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(ctx, "error closing database", err)
		}
	}()

	err = migrate.MaybeRunDev(ctx, cfg, logg, dbClient)
	requireResource(ctx, logg, "dev migrations", err)

	if *withCatalog {
		out, err := (&seeder{db: dbClient.DB()}).Run(ctx)
		requireResource(ctx, logg, "catalog seed", err)
		logg.Info(logg.WithFields(ctx, map[string]any{
			"categories": out.Categories,
			"products":   out.Products,
			"variants":   out.Variants,
			"coupons":    out.Coupons,
			"faqs":       out.FAQs,
		}), "catalog seeded")
	}

	registrar, err := auth.NewAdminRegisterService(auth.AdminRegisterServiceParams{
		Repo:   auth.NewRepository(dbClient.DB()),
		Tx:     dbClient,
		Hasher: security.NewHasher(cfg.Password),
	})
	requireResource(ctx, logg, "admin register service", err)

	admin, created, err := registrar.Ensure(ctx, auth.AdminRegisterRequest{
		Name:     *adminName,
		Email:    *adminEmail,
		Password: *adminPassword,
	})
	requireResource(ctx, logg, "admin account", err)

	logg.Info(logg.WithFields(ctx, map[string]any{
		"admin_email": admin.Email,
		"created":     created,
	}), "admin ready")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
