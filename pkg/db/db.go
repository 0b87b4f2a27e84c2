// Package db owns the sqlite store: connection handling, schema migrations,
// and read queries for the dashboard.
package db

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// Database wraps the SQL handle so call sites do not depend on the driver.
type Database struct {
	DB *sql.DB
}

// New opens the SQLite file at path, creating parent directories as needed.
func New(path string) (*Database, error) {
	if path == "" {
		return nil, errors.New("database path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	handle, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// Single writer; sqlite serializes writes anyway.
	handle.SetMaxOpenConns(1)
	handle.SetConnMaxLifetime(time.Hour)

	return &Database{DB: handle}, nil
}

// NewInMemory opens a private in-memory database, mainly for tests.
func NewInMemory() (*Database, error) {
	handle, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	handle.SetMaxOpenConns(1)
	return &Database{DB: handle}, nil
}

// Close releases the underlying handle. Safe on a nil receiver.
func (d *Database) Close() error {
	if d == nil || d.DB == nil {
		return nil
	}
	return d.DB.Close()
}
