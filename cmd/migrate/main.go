package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/gearhub-backend/pkg/config"
	"github.com/angelmondragon/gearhub-backend/pkg/db"
	"github.com/angelmondragon/gearhub-backend/pkg/logger"
	"github.com/angelmondragon/gearhub-backend/pkg/migrate"
)

const usage = "up|down|redo|status|to|pending|create|validate"

// errPending makes -cmd=pending exit 3 so deploy scripts can gate on it.
var errPending = errors.New("migrations pending")

func main() {
	_ = godotenv.Load()

	cmd := flag.String("cmd", "up", "migration command: "+usage)
	dir := flag.String("dir", migrate.DefaultDir, "goose migrations directory")
	embedded := flag.Bool("embedded", false, "use the migrations compiled into the binary instead of -dir")
	name := flag.String("name", "", "migration name for -cmd=create")
	version := flag.String("version", "", "target version (YYYYMMDDHHMMSS) for -cmd=to")
	flag.Parse()

	// Authoring commands work from a checkout without any environment.
	switch *cmd {
	case "create":
		if *name == "" {
			fail("missing -name for create")
		}
		path, err := migrate.CreateSQLMigration(*dir, *name, time.Now())
		if err != nil {
			fail("create migration: %v", err)
		}
		fmt.Println("created migration:", path)
		return
	case "validate":
		validate := func() error { return migrate.ValidateDir(*dir) }
		if *embedded {
			validate = migrate.ValidateEmbedded
		}
		if err := validate(); err != nil {
			fail("migration validation failed: %v", err)
		}
		fmt.Println("migration validation passed")
		return
	}

	cfg, err := config.Load()
	if err != nil {
		fail("config: %v", err)
	}
	logg := logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"cmd":      *cmd,
		"embedded": *embedded,
	})

	err = run(ctx, logg, cfg.DB, *cmd, source(*dir, *embedded), *version)
	switch {
	case errors.Is(err, errPending):
		os.Exit(3)
	case err != nil:
		logg.Error(ctx, "migrate failed", err)
		os.Exit(1)
	}
}

func source(dir string, embedded bool) fs.FS {
	if embedded {
		return migrate.Embedded()
	}
	return migrate.Dir(dir)
}

func run(ctx context.Context, logg *logger.Logger, dbCfg config.DBConfig, cmd string, migrations fs.FS, version string) error {
	dbClient, err := db.New(ctx, dbCfg, logg)
	if err != nil {
		return err
	}
	defer dbClient.Close()

	sqlDB, err := dbClient.DB().DB()
	if err != nil {
		return err
	}
	m, err := migrate.NewMigrator(sqlDB, migrations)
	if err != nil {
		return err
	}

	var steps []migrate.Step
	switch cmd {
	case "up":
		steps, err = m.Up(ctx)
	case "down":
		steps, err = m.Down(ctx)
	case "redo":
		steps, err = m.Redo(ctx)
	case "to":
		target, perr := strconv.ParseInt(version, 10, 64)
		if perr != nil {
			return fmt.Errorf("invalid -version %q (expected YYYYMMDDHHMMSS): %w", version, perr)
		}
		steps, err = m.To(ctx, target)
	case "status":
		states, err := m.Status(ctx)
		if err != nil {
			return err
		}
		for _, s := range states {
			mark := "pending"
			if s.Applied {
				mark = "applied"
			}
			fmt.Printf("%-8s %d %s\n", mark, s.Version, s.Path)
		}
		return nil
	case "pending":
		pending, err := m.Pending(ctx)
		if err != nil {
			return err
		}
		fmt.Println(pending)
		if pending {
			return errPending
		}
		return nil
	default:
		return fmt.Errorf("unknown -cmd %q, want %s", cmd, usage)
	}

	for _, s := range steps {
		logg.Info(logg.WithFields(ctx, map[string]any{
			"version":   s.Version,
			"path":      s.Path,
			"direction": s.Direction,
		}), "migration step")
	}
	if err != nil {
		return err
	}
	logg.Info(logg.WithField(ctx, "steps", len(steps)), "migrate done")
	return nil
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
