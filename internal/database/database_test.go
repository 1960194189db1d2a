package database

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func setupTestDB(t testing.TB) (*Database, string) {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := New(context.Background(), dbPath)
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	return db, dbPath
}

func TestNewDatabase(t *testing.T) {
	db, dbPath := setupTestDB(t)

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file was not created")
	}

	version, err := db.SchemaVersion(context.Background())
	if err != nil {
		t.Fatalf("SchemaVersion failed: %v", err)
	}
	if version != len(migrations) {
		t.Errorf("Expected schema version %d, got %d", len(migrations), version)
	}

	if err := db.Ping(context.Background()); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
}

func TestNewDatabaseReopen(t *testing.T) {
	db, dbPath := setupTestDB(t)
	ctx := context.Background()

	if err := db.InsertVideo(ctx, &Video{ID: "a", Title: "first", URL: "u", CreatedAt: time.Now()}); err != nil {
		t.Fatalf("InsertVideo failed: %v", err)
	}
	_ = db.Close()

	reopened, err := New(ctx, dbPath)
	if err != nil {
		t.Fatalf("Reopen failed: %v", err)
	}
	defer reopened.Close()

	if _, err := reopened.GetVideo(ctx, "a"); err != nil {
		t.Errorf("Expected video to survive reopen, got %v", err)
	}
}

func TestNewDatabaseMissingDirectory(t *testing.T) {
	_, err := New(context.Background(), filepath.Join(t.TempDir(), "missing", "test.db"))
	if err == nil {
		t.Error("Expected error for a database in a missing directory")
	}
}

func TestMetadata(t *testing.T) {
	db, _ := setupTestDB(t)
	ctx := context.Background()

	if err := db.SetMetadata(ctx, "k", "v1"); err != nil {
		t.Fatalf("SetMetadata failed: %v", err)
	}
	if err := db.SetMetadata(ctx, "k", "v2"); err != nil {
		t.Fatalf("SetMetadata overwrite failed: %v", err)
	}

	got, err := db.GetMetadata(ctx, "k")
	if err != nil || got != "v2" {
		t.Errorf("Expected v2, got %q, %v", got, err)
	}

	if _, err := db.GetMetadata(ctx, "missing"); err == nil {
		t.Error("Expected error for a missing key")
	}
}

func TestRecordQuery(t *testing.T) {
	// Must not panic for either outcome.
	recordQuery("test_operation", time.Now(), nil)
	recordQuery("test_operation", time.Now(), errors.New("test error"))
}
