// Package db manages the database connection
package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	// Import modernc.org/sqlite as a blank import to register the driver
	_ "modernc.org/sqlite"
)

// DB wraps the SQL database connection with application-specific methods.
type DB struct {
	*sql.DB
	path string
}

// New creates a new database connection and initializes the schema.
func New(path string) (*DB, error) {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// Open database connection
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test connection
	if err := sqlDB.PingContext(context.Background()); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db := &DB{
		DB:   sqlDB,
		path: path,
	}

	// Configure database
	if err := db.configure(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to configure database: %w", err)
	}

	// Create or upgrade schema
	if err := db.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return db, nil
}

// Path returns the database file path.
func (db *DB) Path() string {
	return db.path
}

// configure sets up database pragmas for optimal performance.
func (db *DB) configure() error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA cache_size=-64000", // 64MB cache
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
		"PRAGMA temp_store=MEMORY",
	}

	for _, pragma := range pragmas {
		if _, err := db.ExecContext(context.Background(), pragma); err != nil {
			return fmt.Errorf("failed to execute %s: %w", pragma, err)
		}
	}

	return nil
}

func (db *DB) createLoadsTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS loads (
		id TEXT PRIMARY KEY,
		path TEXT NOT NULL,
		loaded_at TEXT NOT NULL,
		customers INTEGER DEFAULT 0,
		calls INTEGER DEFAULT 0,
		sms INTEGER DEFAULT 0,
		skipped INTEGER DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_loads_loaded_at ON loads(loaded_at);
	`
	_, err := db.ExecContext(context.Background(), query)
	return err
}

func (db *DB) createCallsTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS calls (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		load_id TEXT NOT NULL REFERENCES loads(id) ON DELETE CASCADE,
		month TEXT NOT NULL,
		timestamp TEXT NOT NULL,
		src TEXT NOT NULL,
		dst TEXT NOT NULL,
		duration INTEGER DEFAULT 0,
		billed_minutes INTEGER DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_calls_load_month ON calls(load_id, month);
	`
	_, err := db.ExecContext(context.Background(), query)
	return err
}

func (db *DB) createBillsTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS bills (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		load_id TEXT NOT NULL REFERENCES loads(id) ON DELETE CASCADE,
		customer_id INTEGER NOT NULL,
		month TEXT NOT NULL,
		number TEXT NOT NULL,
		contract TEXT NOT NULL,
		fixed REAL DEFAULT 0,
		minute_rate REAL DEFAULT 0,
		free_minutes INTEGER DEFAULT 0,
		billed_minutes INTEGER DEFAULT 0,
		total REAL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_bills_load_customer ON bills(load_id, customer_id, month);
	`
	_, err := db.ExecContext(context.Background(), query)
	return err
}

// Close closes the database connection gracefully.
func (db *DB) Close() error {
	// Checkpoint WAL before closing
	_, _ = db.ExecContext(context.Background(), "PRAGMA wal_checkpoint(TRUNCATE)")
	return db.DB.Close()
}

// Vacuum performs database maintenance to reclaim space.
func (db *DB) Vacuum() error {
	_, err := db.ExecContext(context.Background(), "VACUUM")
	return err
}
