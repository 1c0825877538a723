package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/angelmondragon/gearhub-backend/pkg/migrate"
)

func readMigration(t *testing.T, suffix string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", "*_"+suffix+".sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no %s migration file found", suffix)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}

func assertContains(t *testing.T, content string, checks ...string) {
	t.Helper()
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestMigrationsDirIsValid(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("validate migrations: %v", err)
	}
}

func TestCatalogMigrationContainsConstraints(t *testing.T) {
	assertContains(t, readMigration(t, "create_catalog"),
		"CREATE TABLE IF NOT EXISTS products",
		"CREATE TABLE IF NOT EXISTS variants",
		"CONSTRAINT ux_variants_sku UNIQUE (sku)",
		"quantity integer NOT NULL DEFAULT 0 CHECK (quantity >= 0)",
		"FOREIGN KEY (variant_id) REFERENCES variants(id) ON DELETE CASCADE",
		"DROP TABLE IF EXISTS inventory",
	)
}

func TestOrdersMigrationContainsConstraints(t *testing.T) {
	assertContains(t, readMigration(t, "create_orders"),
		"CONSTRAINT ux_orders_order_number UNIQUE (order_number)",
		"CONSTRAINT ux_payments_order_id UNIQUE (order_id)",
		"last_seq integer NOT NULL CHECK (last_seq BETWEEN 1 AND 9999)",
		"snapshot jsonb NOT NULL",
		"DROP TABLE IF EXISTS orders",
	)
}

func TestSupportMigrationUsesTextArrayForTags(t *testing.T) {
	assertContains(t, readMigration(t, "create_support"),
		"tags text[] NOT NULL DEFAULT '{}'",
		"USING GIN (tags)",
		"CONSTRAINT ux_admin_users_email UNIQUE (email)",
	)
}

func TestEmbeddedMigrationsMatchDisk(t *testing.T) {
	onDisk, err := filepath.Glob(filepath.Join("migrations", "*.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	embedded, err := migrate.EmbeddedFiles()
	if err != nil {
		t.Fatalf("list embedded migrations: %v", err)
	}
	if len(embedded) != len(onDisk) {
		t.Fatalf("expected %d embedded migrations, got %d", len(onDisk), len(embedded))
	}
}

func TestEmbeddedMigrationsAreValid(t *testing.T) {
	if err := migrate.ValidateEmbedded(); err != nil {
		t.Fatalf("validate embedded migrations: %v", err)
	}
}

func TestCreateSQLMigrationWritesValidFile(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)

	path, err := migrate.CreateSQLMigration(dir, "Add Order Notes!", now)
	if err != nil {
		t.Fatalf("create migration: %v", err)
	}
	if filepath.Base(path) != "20260304050607_add_order_notes.sql" {
		t.Fatalf("unexpected file name %s", filepath.Base(path))
	}
	if err := migrate.ValidateDir(dir); err != nil {
		t.Fatalf("created migration should validate: %v", err)
	}
	if _, err := migrate.CreateSQLMigration(dir, "add order notes", now); err == nil {
		t.Fatal("expected collision on same version and slug")
	}
	if _, err := migrate.CreateSQLMigration(dir, "!!!", now); err == nil {
		t.Fatal("expected error for empty slug")
	}
}

func TestValidateReportsBadFiles(t *testing.T) {
	fsys := fstest.MapFS{
		"m/20260101000000_ok.sql":        {Data: []byte("-- +goose Up\n-- +goose Down\n")},
		"m/20260101000000_dupe.sql":      {Data: []byte("-- +goose Up\n-- +goose Down\n")},
		"m/2026_bad.sql":                 {Data: []byte("-- +goose Up\n-- +goose Down\n")},
		"m/20260102000000_backwards.sql": {Data: []byte("-- +goose Down\n-- +goose Up\n")},
	}
	err := migrate.Validate(fsys, "m")
	if err == nil {
		t.Fatal("expected validation errors")
	}
	for _, want := range []string{"already used", "YYYYMMDDHHMMSS_slug", "precedes Up"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected %q in %v", want, err)
		}
	}
}
