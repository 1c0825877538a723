// Package migrate applies the goose SQL migrations that define the
// storefront schema, either from disk or from the copies compiled into every
// binary.
package migrate

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/pressly/goose/v3"
)

const (
	DefaultDir  = "pkg/migrate/migrations"
	embeddedDir = "migrations"
)

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

// EmbeddedFiles lists the migrations compiled into the binary.
func EmbeddedFiles() ([]string, error) {
	return fs.Glob(embeddedMigrations, embeddedDir+"/*.sql")
}

// Embedded returns the compiled-in migrations rooted at their directory.
func Embedded() fs.FS {
	sub, err := fs.Sub(embeddedMigrations, embeddedDir)
	if err != nil {
		panic(err)
	}
	return sub
}

// Dir returns the migrations in dir on disk.
func Dir(dir string) fs.FS {
	return os.DirFS(dir)
}

// Step is one applied or reverted migration.
type Step struct {
	Version   int64
	Path      string
	Direction string
	Empty     bool
}

// State is one migration and whether the database has it.
type State struct {
	Version int64
	Path    string
	Applied bool
}

// Migrator runs goose against one database without touching goose's
// package-level state. The caller owns db; the Migrator never closes it.
type Migrator struct {
	provider *goose.Provider
}

func NewMigrator(db *sql.DB, migrations fs.FS) (*Migrator, error) {
	if db == nil {
		return nil, errors.New("db is required")
	}
	if migrations == nil {
		return nil, errors.New("migrations are required")
	}
	p, err := goose.NewProvider(goose.DialectPostgres, db, migrations)
	if err != nil {
		return nil, fmt.Errorf("goose provider: %w", err)
	}
	return &Migrator{provider: p}, nil
}

func (m *Migrator) Up(ctx context.Context) ([]Step, error) {
	res, err := m.provider.Up(ctx)
	return steps(res), wrap("up", err)
}

// Down reverts the most recent migration.
func (m *Migrator) Down(ctx context.Context) ([]Step, error) {
	res, err := m.provider.Down(ctx)
	return steps([]*goose.MigrationResult{res}), wrap("down", err)
}

// Redo reverts the most recent migration and applies it again.
func (m *Migrator) Redo(ctx context.Context) ([]Step, error) {
	down, err := m.provider.Down(ctx)
	if err != nil {
		return nil, wrap("redo", err)
	}
	up, err := m.provider.UpByOne(ctx)
	return steps([]*goose.MigrationResult{down, up}), wrap("redo", err)
}

// To moves the schema up or down until target is the newest applied version.
func (m *Migrator) To(ctx context.Context, target int64) ([]Step, error) {
	current, err := m.provider.GetDBVersion(ctx)
	if err != nil {
		return nil, fmt.Errorf("get db version: %w", err)
	}
	var res []*goose.MigrationResult
	switch {
	case current == target:
		return nil, nil
	case current < target:
		res, err = m.provider.UpTo(ctx, target)
	default:
		res, err = m.provider.DownTo(ctx, target)
	}
	return steps(res), wrap(fmt.Sprintf("to %d", target), err)
}

func (m *Migrator) Status(ctx context.Context) ([]State, error) {
	res, err := m.provider.Status(ctx)
	if err != nil {
		return nil, wrap("status", err)
	}
	out := make([]State, 0, len(res))
	for _, s := range res {
		out = append(out, State{
			Version: s.Source.Version,
			Path:    s.Source.Path,
			Applied: s.State == goose.StateApplied,
		})
	}
	return out, nil
}

func (m *Migrator) Pending(ctx context.Context) (bool, error) {
	return m.provider.HasPending(ctx)
}

func steps(res []*goose.MigrationResult) []Step {
	out := make([]Step, 0, len(res))
	for _, r := range res {
		if r == nil || r.Source == nil {
			continue
		}
		out = append(out, Step{Version: r.Source.Version, Path: r.Source.Path, Direction: r.Direction, Empty: r.Empty})
	}
	return out
}

func wrap(op string, err error) error {
	if err == nil || errors.Is(err, goose.ErrNoNextVersion) {
		return nil
	}
	return fmt.Errorf("goose %s: %w", op, err)
}
