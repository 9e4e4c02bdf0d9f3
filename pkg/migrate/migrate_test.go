package migrate

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"
	"time"
)

func TestEmbeddedMigrationsAreValid(t *testing.T) {
	if err := ValidateEmbedded(); err != nil {
		t.Fatalf("embedded migrations invalid: %v", err)
	}
}

func TestStorageMigrationCreatesTable(t *testing.T) {
	data, err := migrationsFS.ReadFile("migrations/20260301120000_create_storage_entries.sql")
	if err != nil {
		t.Fatalf("read migration: %v", err)
	}
	for _, sub := range []string{
		"CREATE TABLE IF NOT EXISTS storage_entries",
		"key VARCHAR(128) PRIMARY KEY",
		"DROP TABLE IF EXISTS storage_entries",
	} {
		if !strings.Contains(string(data), sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestValidateFSRejectsBadNames(t *testing.T) {
	fsys := fstest.MapFS{
		"create_things.sql": {Data: []byte("-- +goose Up\n-- +goose Down\n")},
	}
	if err := ValidateFS(fsys); err == nil {
		t.Fatal("expected invalid filename to fail")
	}

	dup := fstest.MapFS{
		"20260101000000_a.sql": {Data: []byte("-- +goose Up\n-- +goose Down\n")},
		"20260101000000_b.sql": {Data: []byte("-- +goose Up\n-- +goose Down\n")},
	}
	if err := ValidateFS(dup); err == nil {
		t.Fatal("expected duplicate versions to fail")
	}

	missingDown := fstest.MapFS{
		"20260101000000_a.sql": {Data: []byte("-- +goose Up\n")},
	}
	if err := ValidateFS(missingDown); err == nil {
		t.Fatal("expected missing down section to fail")
	}
}

func TestCreateSQLMigration(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 3, 2, 10, 30, 0, 0, time.UTC)

	path, err := CreateSQLMigration(dir, "Add Cart Index!", now)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if filepath.Base(path) != "20260302103000_add_cart_index.sql" {
		t.Fatalf("unexpected filename %s", filepath.Base(path))
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected file to exist: %v", err)
	}
	if _, err := CreateSQLMigration(dir, "Add Cart Index!", now); err == nil {
		t.Fatal("expected duplicate create to fail")
	}
	if _, err := CreateSQLMigration(dir, "!!!", now); err == nil {
		t.Fatal("expected empty sanitized name to fail")
	}
}

func TestDialect(t *testing.T) {
	if d, err := Dialect("sqlite"); err != nil || d != "sqlite3" {
		t.Fatalf("unexpected sqlite dialect %q err=%v", d, err)
	}
	if d, err := Dialect("postgres"); err != nil || d != "postgres" {
		t.Fatalf("unexpected postgres dialect %q err=%v", d, err)
	}
	if _, err := Dialect("redis"); err == nil {
		t.Fatal("expected redis to have no dialect")
	}
}
