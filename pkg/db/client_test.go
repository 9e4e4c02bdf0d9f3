package db

import (
	"context"
	"testing"

	"gorm.io/driver/sqlite"

	"github.com/angelmondragon/gearstore/pkg/config"
)

func TestOpenAndPing(t *testing.T) {
	client, err := Open(sqlite.Open("file::memory:"))
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	defer client.Close()

	if err := client.Ping(context.Background()); err != nil {
		t.Fatalf("unexpected ping error: %v", err)
	}
	if _, err := client.SQLDB(); err != nil {
		t.Fatalf("unexpected sql db error: %v", err)
	}
}

func TestNewRejectsNonSQLDrivers(t *testing.T) {
	_, err := New(context.Background(), config.StorageConfig{Driver: "redis", DSN: "x"}, nil)
	if err == nil {
		t.Fatal("expected redis driver to be rejected")
	}
	_, err = New(context.Background(), config.StorageConfig{Driver: "sqlite"}, nil)
	if err == nil {
		t.Fatal("expected missing DSN to be rejected")
	}
}

func TestNewSQLite(t *testing.T) {
	client, err := New(context.Background(), config.StorageConfig{Driver: "SQLite", DSN: "file::memory:"}, nil)
	if err != nil {
		t.Fatalf("new failed: %v", err)
	}
	defer client.Close()
	if err := client.Ping(context.Background()); err != nil {
		t.Fatalf("ping failed: %v", err)
	}
}
