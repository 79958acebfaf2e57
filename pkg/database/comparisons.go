package database

import (
	"database/sql"
	"fmt"
)

// ComparisonRecord is the persisted metadata of one contract comparison.
// The full report and document snapshots live in object storage under
// StoragePrefix; the database row carries only what list and lookup
// queries need.
type ComparisonRecord struct {
	ComparisonID  int64  `json:"comparison_id,omitempty"`
	Label         string `json:"label,omitempty"`
	RootV1        string `json:"root_v1"`
	RootV2        string `json:"root_v2"`
	Equal         bool   `json:"equal"`
	ClauseCountV1 int    `json:"clause_count_v1"`
	ClauseCountV2 int    `json:"clause_count_v2"`
	MismatchCount int    `json:"mismatch_count"`
	StoragePrefix string `json:"storage_prefix"`
	CreatedAt     string `json:"created_at,omitempty"`
}

// InsertComparison inserts a comparison record and returns its ID
func InsertComparison(db *sql.DB, record ComparisonRecord) (int64, error) {
	result, err := db.Exec(`
		INSERT INTO comparisons (
			label, root_v1, root_v2, equal,
			clause_count_v1, clause_count_v2, mismatch_count,
			storage_prefix
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		record.Label,
		record.RootV1,
		record.RootV2,
		record.Equal,
		record.ClauseCountV1,
		record.ClauseCountV2,
		record.MismatchCount,
		record.StoragePrefix,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert comparison: %w", err)
	}

	comparisonID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID: %w", err)
	}

	return comparisonID, nil
}

// GetComparison retrieves a comparison by ID; a missing ID returns nil
func GetComparison(db *sql.DB, comparisonID int64) (*ComparisonRecord, error) {
	var record ComparisonRecord
	var label sql.NullString

	err := db.QueryRow(`
		SELECT comparison_id, label, root_v1, root_v2, equal,
		       clause_count_v1, clause_count_v2, mismatch_count,
		       storage_prefix, created_at
		FROM comparisons
		WHERE comparison_id = ?
	`, comparisonID).Scan(
		&record.ComparisonID,
		&label,
		&record.RootV1,
		&record.RootV2,
		&record.Equal,
		&record.ClauseCountV1,
		&record.ClauseCountV2,
		&record.MismatchCount,
		&record.StoragePrefix,
		&record.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get comparison: %w", err)
	}

	record.Label = label.String
	return &record, nil
}

// ListComparisons returns the most recent comparisons, newest first
func ListComparisons(db *sql.DB, limit int) ([]ComparisonRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := db.Query(`
		SELECT comparison_id, label, root_v1, root_v2, equal,
		       clause_count_v1, clause_count_v2, mismatch_count,
		       storage_prefix, created_at
		FROM comparisons
		ORDER BY comparison_id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list comparisons: %w", err)
	}
	defer rows.Close()

	var records []ComparisonRecord
	for rows.Next() {
		var record ComparisonRecord
		var label sql.NullString

		if err := rows.Scan(
			&record.ComparisonID,
			&label,
			&record.RootV1,
			&record.RootV2,
			&record.Equal,
			&record.ClauseCountV1,
			&record.ClauseCountV2,
			&record.MismatchCount,
			&record.StoragePrefix,
			&record.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan comparison: %w", err)
		}

		record.Label = label.String
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate comparisons: %w", err)
	}

	return records, nil
}

// CountComparisons returns the total number of stored comparisons
func CountComparisons(db *sql.DB) (int64, error) {
	var count int64
	if err := db.QueryRow("SELECT COUNT(*) FROM comparisons").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count comparisons: %w", err)
	}
	return count, nil
}

// FindComparisonsByRoot returns comparisons where either side has the
// given root
func FindComparisonsByRoot(db *sql.DB, root string) ([]ComparisonRecord, error) {
	rows, err := db.Query(`
		SELECT comparison_id, label, root_v1, root_v2, equal,
		       clause_count_v1, clause_count_v2, mismatch_count,
		       storage_prefix, created_at
		FROM comparisons
		WHERE root_v1 = ? OR root_v2 = ?
		ORDER BY comparison_id DESC
	`, root, root)
	if err != nil {
		return nil, fmt.Errorf("failed to query comparisons by root: %w", err)
	}
	defer rows.Close()

	var records []ComparisonRecord
	for rows.Next() {
		var record ComparisonRecord
		var label sql.NullString

		if err := rows.Scan(
			&record.ComparisonID,
			&label,
			&record.RootV1,
			&record.RootV2,
			&record.Equal,
			&record.ClauseCountV1,
			&record.ClauseCountV2,
			&record.MismatchCount,
			&record.StoragePrefix,
			&record.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan comparison: %w", err)
		}

		record.Label = label.String
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate comparisons: %w", err)
	}

	return records, nil
}
