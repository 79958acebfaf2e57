package service

import (
	"crypto/ecdsa"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/veritract/contract-verification/internal/config"
	"github.com/veritract/contract-verification/pkg/contract"
	"github.com/veritract/contract-verification/pkg/cose"
	"github.com/veritract/contract-verification/pkg/database"
	"github.com/veritract/contract-verification/pkg/merkle"
	"github.com/veritract/contract-verification/pkg/storage"
)

// VerificationService coordinates all contract verification operations
type VerificationService struct {
	config     *config.Config
	db         *sql.DB
	storage    storage.Store
	privateKey *ecdsa.PrivateKey
	publicKey  *ecdsa.PublicKey
}

// NewVerificationService creates a new verification service instance
func NewVerificationService(cfg *config.Config) (*VerificationService, error) {
	db, err := database.Open(database.Options{
		Path:      cfg.Database.Path,
		EnableWAL: cfg.Database.EnableWAL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	var store storage.Store
	switch cfg.Storage.Type {
	case "local":
		store, err = storage.NewLocalStore(cfg.Storage.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize local storage: %w", err)
		}
	case "memory":
		store = storage.NewMemoryStore()
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Storage.Type)
	}

	privateKey, err := loadPrivateKey(cfg.Keys.Private)
	if err != nil {
		return nil, fmt.Errorf("failed to load private key: %w", err)
	}

	publicKey, err := loadPublicKey(cfg.Keys.Public)
	if err != nil {
		return nil, fmt.Errorf("failed to load public key: %w", err)
	}

	// Pin the origin on first use so a database cannot silently serve
	// attestations under a different name later.
	storedOrigin, err := database.GetConfig(db, "origin")
	if err != nil {
		return nil, err
	}
	switch storedOrigin {
	case "":
		if err := database.SetConfig(db, "origin", cfg.Origin); err != nil {
			return nil, err
		}
	case cfg.Origin:
	default:
		return nil, fmt.Errorf("database belongs to origin %q, configured origin is %q", storedOrigin, cfg.Origin)
	}

	return &VerificationService{
		config:     cfg,
		db:         db,
		storage:    store,
		privateKey: privateKey,
		publicKey:  publicKey,
	}, nil
}

// Close closes the service and all resources
func (s *VerificationService) Close() error {
	if s.db != nil {
		return database.Close(s.db)
	}
	return nil
}

// Origin returns the configured attestation origin
func (s *VerificationService) Origin() string {
	return s.config.Origin
}

// CompareRequest carries the two contract texts to compare
type CompareRequest struct {
	Label      string `json:"label,omitempty"`
	ContractV1 string `json:"contract_v1"`
	ContractV2 string `json:"contract_v2"`
}

// CompareResult is a persisted comparison together with its record ID
type CompareResult struct {
	ComparisonID int64                `json:"comparison_id"`
	Comparison   *contract.Comparison `json:"comparison"`
}

// CompareContracts compares two contract versions, persists the
// comparison record and stores the document snapshots and report
// under comparisons/<id>/
func (s *VerificationService) CompareContracts(req *CompareRequest) (*CompareResult, error) {
	docV1 := contract.NewDocument(req.ContractV1)
	docV2 := contract.NewDocument(req.ContractV2)
	comparison := contract.Compare(docV1, docV2)

	comparisonID, err := database.InsertComparison(s.db, database.ComparisonRecord{
		Label:         req.Label,
		RootV1:        comparison.RootV1,
		RootV2:        comparison.RootV2,
		Equal:         comparison.Equal,
		ClauseCountV1: comparison.ClauseCountV1,
		ClauseCountV2: comparison.ClauseCountV2,
		MismatchCount: comparison.Report.MismatchCount(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to insert comparison: %w", err)
	}

	prefix := fmt.Sprintf("comparisons/%d", comparisonID)
	if _, err := s.db.Exec(
		"UPDATE comparisons SET storage_prefix = ? WHERE comparison_id = ?",
		prefix, comparisonID,
	); err != nil {
		return nil, fmt.Errorf("failed to update storage prefix: %w", err)
	}

	if err := s.storage.Put(prefix+"/v1.txt", []byte(req.ContractV1)); err != nil {
		return nil, fmt.Errorf("failed to store contract v1: %w", err)
	}
	if err := s.storage.Put(prefix+"/v2.txt", []byte(req.ContractV2)); err != nil {
		return nil, fmt.Errorf("failed to store contract v2: %w", err)
	}

	reportJSON, err := json.Marshal(comparison)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal comparison report: %w", err)
	}
	if err := s.storage.Put(prefix+"/report.json", reportJSON); err != nil {
		return nil, fmt.Errorf("failed to store comparison report: %w", err)
	}

	return &CompareResult{
		ComparisonID: comparisonID,
		Comparison:   comparison,
	}, nil
}

// ComparisonDetail is a stored comparison with its snapshots loaded
// back from object storage
type ComparisonDetail struct {
	Record     *database.ComparisonRecord `json:"record"`
	ContractV1 string                     `json:"contract_v1"`
	ContractV2 string                     `json:"contract_v2"`
	Comparison *contract.Comparison       `json:"comparison"`
}

// GetComparison retrieves a stored comparison by ID; a missing ID
// returns nil
func (s *VerificationService) GetComparison(comparisonID int64) (*ComparisonDetail, error) {
	record, err := database.GetComparison(s.db, comparisonID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, nil
	}

	v1, err := s.storage.Get(record.StoragePrefix + "/v1.txt")
	if err != nil {
		return nil, fmt.Errorf("failed to load contract v1: %w", err)
	}
	v2, err := s.storage.Get(record.StoragePrefix + "/v2.txt")
	if err != nil {
		return nil, fmt.Errorf("failed to load contract v2: %w", err)
	}
	reportJSON, err := s.storage.Get(record.StoragePrefix + "/report.json")
	if err != nil {
		return nil, fmt.Errorf("failed to load comparison report: %w", err)
	}

	var comparison contract.Comparison
	if err := json.Unmarshal(reportJSON, &comparison); err != nil {
		return nil, fmt.Errorf("failed to unmarshal comparison report: %w", err)
	}

	return &ComparisonDetail{
		Record:     record,
		ContractV1: string(v1),
		ContractV2: string(v2),
		Comparison: &comparison,
	}, nil
}

// ListComparisons returns the most recent comparison records
func (s *VerificationService) ListComparisons(limit int) ([]database.ComparisonRecord, error) {
	return database.ListComparisons(s.db, limit)
}

// GenerateProof builds an inclusion proof bundle for the clause at the
// given zero-based index of the contract text
func (s *VerificationService) GenerateProof(contractText string, clauseIndex int) (*merkle.ProofBundle, error) {
	doc := contract.NewDocument(contractText)
	proof, err := doc.Prove(clauseIndex)
	if err != nil {
		return nil, err
	}
	return &merkle.ProofBundle{
		Target: doc.Digests[clauseIndex],
		Root:   doc.Root(),
		Proof:  proof,
	}, nil
}

// VerifyProof checks a proof bundle against its embedded root
func (s *VerificationService) VerifyProof(bundle *merkle.ProofBundle) bool {
	return merkle.VerifyBundle(bundle)
}

// AttestRoot signs an attestation over the given root and stores it.
// Attesting a root the service already attested returns the stored
// attestation unchanged.
func (s *VerificationService) AttestRoot(root string, clauseCount int) (*merkle.Attestation, error) {
	if existing, err := database.FindAttestationByRoot(s.db, root); err != nil {
		return nil, err
	} else if existing != nil {
		encoded, err := s.storage.Get(existing.StorageKey)
		if err != nil {
			return nil, fmt.Errorf("failed to load attestation: %w", err)
		}
		return merkle.DecodeAttestation(string(encoded))
	}

	att, err := merkle.CreateAttestation(root, clauseCount, s.privateKey, s.config.Origin)
	if err != nil {
		return nil, fmt.Errorf("failed to create attestation: %w", err)
	}

	storageKey := fmt.Sprintf("attestations/%s.txt", root)
	if err := s.storage.Put(storageKey, []byte(merkle.EncodeAttestation(att))); err != nil {
		return nil, fmt.Errorf("failed to store attestation: %w", err)
	}

	if _, err := database.InsertAttestation(s.db, database.AttestationRecord{
		Root:        root,
		ClauseCount: clauseCount,
		Origin:      s.config.Origin,
		StorageKey:  storageKey,
	}); err != nil {
		return nil, fmt.Errorf("failed to insert attestation: %w", err)
	}

	return att, nil
}

// GetAttestation returns the stored attestation for a root, or nil if
// the root was never attested
func (s *VerificationService) GetAttestation(root string) (*merkle.Attestation, error) {
	record, err := database.FindAttestationByRoot(s.db, root)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, nil
	}

	encoded, err := s.storage.Get(record.StorageKey)
	if err != nil {
		return nil, fmt.Errorf("failed to load attestation: %w", err)
	}
	return merkle.DecodeAttestation(string(encoded))
}

// VerifyAttestation checks an attestation signature against the
// service public key
func (s *VerificationService) VerifyAttestation(att *merkle.Attestation) (bool, error) {
	return merkle.VerifyAttestation(att, s.publicKey)
}

// SignReceipt issues a COSE Sign1 receipt over a tree root
func (s *VerificationService) SignReceipt(root string, clauseCount int, subject string) ([]byte, error) {
	signer, err := cose.NewES256Signer(s.privateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create signer: %w", err)
	}

	receipt, err := cose.SignRootReceipt(root, clauseCount, cose.ReceiptOptions{
		Issuer:  s.config.Origin,
		Subject: subject,
	}, signer)
	if err != nil {
		return nil, fmt.Errorf("failed to sign receipt: %w", err)
	}

	return cose.EncodeCoseSign1(receipt)
}

// VerifyReceipt checks a CBOR-encoded receipt against the expected
// root using the service public key
func (s *VerificationService) VerifyReceipt(encoded []byte, expectedRoot string) (*cose.ReceiptPayload, error) {
	receipt, err := cose.DecodeCoseSign1(encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode receipt: %w", err)
	}

	verifier, err := cose.NewES256Verifier(s.publicKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create verifier: %w", err)
	}

	return cose.VerifyRootReceipt(receipt, verifier, expectedRoot)
}

// Stats summarizes the service state
type Stats struct {
	Origin          string `json:"origin"`
	ComparisonCount int64  `json:"comparison_count"`
}

// GetStats returns service statistics
func (s *VerificationService) GetStats() (*Stats, error) {
	count, err := database.CountComparisons(s.db)
	if err != nil {
		return nil, err
	}
	return &Stats{
		Origin:          s.config.Origin,
		ComparisonCount: count,
	}, nil
}

// loadPrivateKey loads a private key from a PEM or COSE CBOR file
func loadPrivateKey(path string) (*ecdsa.PrivateKey, error) {
	keyData, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read private key file: %w", err)
	}

	if strings.HasSuffix(path, ".cbor") {
		privateKey, err := cose.ImportPrivateKeyFromCOSECBOR(keyData)
		if err != nil {
			return nil, fmt.Errorf("failed to import CBOR private key: %w", err)
		}
		return privateKey, nil
	}

	privateKey, err := cose.ImportPrivateKeyFromPEM(string(keyData))
	if err != nil {
		return nil, fmt.Errorf("failed to import PEM private key: %w", err)
	}
	return privateKey, nil
}

// loadPublicKey loads a public key from a JWK file
func loadPublicKey(path string) (*ecdsa.PublicKey, error) {
	keyData, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read public key file: %w", err)
	}

	jwk, err := cose.UnmarshalJWK(keyData)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal JWK: %w", err)
	}

	publicKey, err := cose.ImportPublicKeyFromJWK(jwk)
	if err != nil {
		return nil, fmt.Errorf("failed to import JWK public key: %w", err)
	}
	return publicKey, nil
}
