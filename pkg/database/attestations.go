package database

import (
	"database/sql"
	"fmt"
)

// AttestationRecord points at a signed attestation note in storage
type AttestationRecord struct {
	AttestationID int64  `json:"attestation_id,omitempty"`
	Root          string `json:"root"`
	ClauseCount   int    `json:"clause_count"`
	Origin        string `json:"origin"`
	StorageKey    string `json:"storage_key"`
	CreatedAt     string `json:"created_at,omitempty"`
}

// InsertAttestation inserts an attestation record and returns its ID
func InsertAttestation(db *sql.DB, record AttestationRecord) (int64, error) {
	result, err := db.Exec(`
		INSERT INTO attestations (root, clause_count, origin, storage_key)
		VALUES (?, ?, ?, ?)
	`, record.Root, record.ClauseCount, record.Origin, record.StorageKey)
	if err != nil {
		return 0, fmt.Errorf("failed to insert attestation: %w", err)
	}

	attestationID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID: %w", err)
	}

	return attestationID, nil
}

// FindAttestationByRoot returns the newest attestation for a root, or
// nil if the root was never attested
func FindAttestationByRoot(db *sql.DB, root string) (*AttestationRecord, error) {
	var record AttestationRecord

	err := db.QueryRow(`
		SELECT attestation_id, root, clause_count, origin, storage_key, created_at
		FROM attestations
		WHERE root = ?
		ORDER BY attestation_id DESC
		LIMIT 1
	`, root).Scan(
		&record.AttestationID,
		&record.Root,
		&record.ClauseCount,
		&record.Origin,
		&record.StorageKey,
		&record.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get attestation: %w", err)
	}

	return &record, nil
}
