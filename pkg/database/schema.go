// Package database provides SQLite persistence for the verification
// service: comparison records, per-root attestation metadata, and
// service configuration.
package database

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const schemaVersion = "1.0.0"

// Options holds configuration for opening a database
type Options struct {
	Path        string
	EnableWAL   bool
	BusyTimeout int // milliseconds
}

// Open opens a SQLite database connection and initializes the schema
// if needed
func Open(options Options) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", options.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := initializeSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	if options.EnableWAL {
		if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to enable WAL: %w", err)
		}
	}

	if options.BusyTimeout > 0 {
		if _, err := db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", options.BusyTimeout)); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set busy timeout: %w", err)
		}
	}

	return db, nil
}

// Close closes the database connection
func Close(db *sql.DB) error {
	if db == nil {
		return nil
	}
	return db.Close()
}

// initializeSchema creates all tables and indexes
func initializeSchema(db *sql.DB) error {
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version TEXT PRIMARY KEY,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		return fmt.Errorf("failed to create schema_version table: %w", err)
	}

	var currentVersion sql.NullString
	err := db.QueryRow("SELECT version FROM schema_version ORDER BY applied_at DESC LIMIT 1").Scan(&currentVersion)
	if err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("failed to check schema version: %w", err)
	}

	if currentVersion.Valid && currentVersion.String == schemaVersion {
		return nil
	}

	// Comparisons table: one row per contract comparison
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS comparisons (
			comparison_id INTEGER PRIMARY KEY AUTOINCREMENT,
			label TEXT,

			root_v1 TEXT NOT NULL,
			root_v2 TEXT NOT NULL,
			equal BOOLEAN NOT NULL,

			clause_count_v1 INTEGER NOT NULL,
			clause_count_v2 INTEGER NOT NULL,
			mismatch_count INTEGER NOT NULL,

			storage_prefix TEXT NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		return fmt.Errorf("failed to create comparisons table: %w", err)
	}

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_comparisons_root_v1 ON comparisons(root_v1)",
		"CREATE INDEX IF NOT EXISTS idx_comparisons_root_v2 ON comparisons(root_v2)",
		"CREATE INDEX IF NOT EXISTS idx_comparisons_created_at ON comparisons(created_at)",
	}
	for _, indexSQL := range indexes {
		if _, err := db.Exec(indexSQL); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	// Attestations table: signed root commitments and their storage keys
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS attestations (
			attestation_id INTEGER PRIMARY KEY AUTOINCREMENT,
			root TEXT NOT NULL,
			clause_count INTEGER NOT NULL,
			origin TEXT NOT NULL,
			storage_key TEXT UNIQUE NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,

			UNIQUE(root, origin)
		)
	`); err != nil {
		return fmt.Errorf("failed to create attestations table: %w", err)
	}

	if _, err := db.Exec("CREATE INDEX IF NOT EXISTS idx_attestations_root ON attestations(root)"); err != nil {
		return fmt.Errorf("failed to create attestations index: %w", err)
	}

	// Service configuration (key/value)
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS service_config (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		return fmt.Errorf("failed to create service_config table: %w", err)
	}

	if _, err := db.Exec("INSERT OR REPLACE INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("failed to record schema version: %w", err)
	}

	return nil
}

// SetConfig stores a service configuration value
func SetConfig(db *sql.DB, key, value string) error {
	_, err := db.Exec(`
		INSERT INTO service_config (key, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to set config %s: %w", key, err)
	}
	return nil
}

// GetConfig retrieves a service configuration value; a missing key
// returns an empty string
func GetConfig(db *sql.DB, key string) (string, error) {
	var value string
	err := db.QueryRow("SELECT value FROM service_config WHERE key = ?", key).Scan(&value)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", nil
		}
		return "", fmt.Errorf("failed to get config %s: %w", key, err)
	}
	return value, nil
}
