package db

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/j-veylop/callmap/internal/models"
)

func TestNew(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	db, err := New(dbPath)
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	defer db.Close()

	if db.Path() != dbPath {
		t.Errorf("Expected path %s, got %s", dbPath, db.Path())
	}

	// Verify file exists
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file was not created")
	}
}

func TestNew_CreatesDirectory(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "subdir", "nested", "test.db")

	db, err := New(dbPath)
	if err != nil {
		t.Fatalf("Failed to create database with nested path: %v", err)
	}
	defer db.Close()

	if _, err := os.Stat(filepath.Dir(dbPath)); os.IsNotExist(err) {
		t.Error("Nested directories were not created")
	}
}

func TestSchema_TablesExist(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()

	tables := []string{
		"loads",
		"calls",
		"bills",
	}

	for _, table := range tables {
		var name string
		err := db.QueryRowContext(context.Background(), "SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("Table %s does not exist: %v", table, err)
		}
	}
}

func TestNew_Reopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	first, err := New(dbPath)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	load := &models.LoadRecord{Path: "dataset.json", Customers: 1}
	if err := first.RecordLoad(load, nil, nil); err != nil {
		t.Fatalf("RecordLoad() failed: %v", err)
	}
	_ = first.Close()

	second, err := New(dbPath)
	if err != nil {
		t.Fatalf("New() on existing database failed: %v", err)
	}
	defer second.Close()

	loads, err := second.RecentLoads(10)
	if err != nil {
		t.Fatalf("RecentLoads() failed: %v", err)
	}
	if len(loads) != 1 {
		t.Errorf("reopening should keep archived loads, got %d", len(loads))
	}
}

func TestNew_NewerSchema(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	db, err := New(dbPath)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	if _, err := db.ExecContext(context.Background(), "PRAGMA user_version=99"); err != nil {
		t.Fatalf("failed to bump version: %v", err)
	}
	_ = db.Close()

	if _, err := New(dbPath); err == nil {
		t.Error("New() should refuse a newer schema version")
	}
}

func TestVacuum(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()

	if err := db.Vacuum(); err != nil {
		t.Errorf("Vacuum failed: %v", err)
	}
}

func TestClose(t *testing.T) {
	db := newTestDB(t)

	if err := db.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}

	// Verify database is closed by trying to query
	_, err := db.QueryContext(context.Background(), "SELECT 1")
	if err == nil {
		t.Error("Expected error querying closed database")
	}
}

// Helper to create a test database
func newTestDB(t *testing.T) *DB {
	t.Helper()
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")
	db, err := New(dbPath)
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	return db
}
