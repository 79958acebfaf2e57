package merkle

import (
	"crypto/ecdsa"
	"encoding/base64"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/veritract/contract-verification/pkg/cose"
)

// Attestation is a signed commitment to a contract's Merkle root.
// Anyone holding the origin's public key can later check that a given
// contract text still hashes to the attested root.
type Attestation struct {
	Root        string // Hex root digest (or EmptyContractRoot)
	ClauseCount int    // Number of leaf clauses the root commits to
	Timestamp   int64  // Unix timestamp in milliseconds
	Origin      string // Attesting party identifier
	Signature   []byte // ES256 signature
}

// CreateAttestation signs an attestation over the given root
func CreateAttestation(root string, clauseCount int, privateKey *ecdsa.PrivateKey, origin string) (*Attestation, error) {
	if root == "" {
		return nil, fmt.Errorf("root digest is required")
	}
	if origin == "" {
		return nil, fmt.Errorf("origin is required")
	}

	timestamp := time.Now().UnixMilli()
	dataToSign := encodeAttestationData(root, clauseCount, timestamp, origin)

	signer, err := cose.NewES256Signer(privateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create signer: %w", err)
	}

	signature, err := signer.Sign(dataToSign)
	if err != nil {
		return nil, fmt.Errorf("failed to sign attestation: %w", err)
	}

	return &Attestation{
		Root:        root,
		ClauseCount: clauseCount,
		Timestamp:   timestamp,
		Origin:      origin,
		Signature:   signature,
	}, nil
}

// VerifyAttestation verifies an attestation signature
func VerifyAttestation(att *Attestation, publicKey *ecdsa.PublicKey) (bool, error) {
	dataToSign := encodeAttestationData(att.Root, att.ClauseCount, att.Timestamp, att.Origin)

	verifier, err := cose.NewES256Verifier(publicKey)
	if err != nil {
		return false, fmt.Errorf("failed to create verifier: %w", err)
	}

	valid, err := verifier.Verify(dataToSign, att.Signature)
	if err != nil {
		return false, fmt.Errorf("failed to verify signature: %w", err)
	}

	return valid, nil
}

// encodeAttestationData produces the canonical byte string covered by
// the signature. Fields are newline-joined in a fixed order so signer
// and verifier always agree.
func encodeAttestationData(root string, clauseCount int, timestamp int64, origin string) []byte {
	return []byte(strings.Join([]string{
		origin,
		fmt.Sprintf("%d", clauseCount),
		root,
		fmt.Sprintf("%d", timestamp),
	}, "\n"))
}

// EncodeAttestation encodes an attestation to signed note format
//
// Format:
//
//	<origin>
//	<clause-count>
//	<root-digest>
//	<timestamp>
//
//	— <origin> <signature-base64>
func EncodeAttestation(att *Attestation) string {
	signatureBase64 := base64.StdEncoding.EncodeToString(att.Signature)

	lines := []string{
		att.Origin,
		fmt.Sprintf("%d", att.ClauseCount),
		att.Root,
		fmt.Sprintf("%d", att.Timestamp),
		"",
		fmt.Sprintf("— %s %s", att.Origin, signatureBase64),
	}

	return strings.Join(lines, "\n")
}

var attestationSignatureRegex = regexp.MustCompile(`^— .+ (.+)$`)

// DecodeAttestation decodes an attestation from signed note format
func DecodeAttestation(encoded string) (*Attestation, error) {
	lines := strings.Split(strings.TrimSpace(encoded), "\n")

	if len(lines) < 6 {
		return nil, fmt.Errorf("invalid attestation format: too few lines (got %d, need at least 6)", len(lines))
	}

	origin := lines[0]

	var clauseCount int
	if _, err := fmt.Sscanf(lines[1], "%d", &clauseCount); err != nil {
		return nil, fmt.Errorf("invalid clause count: %w", err)
	}

	root := lines[2]
	if root == "" {
		return nil, fmt.Errorf("invalid attestation format: missing root digest")
	}

	var timestamp int64
	if _, err := fmt.Sscanf(lines[3], "%d", &timestamp); err != nil {
		return nil, fmt.Errorf("invalid timestamp: %w", err)
	}

	matches := attestationSignatureRegex.FindStringSubmatch(lines[5])
	if len(matches) < 2 {
		return nil, fmt.Errorf("invalid attestation format: signature line malformed")
	}

	signature, err := base64.StdEncoding.DecodeString(matches[1])
	if err != nil {
		return nil, fmt.Errorf("invalid signature encoding: %w", err)
	}

	return &Attestation{
		Root:        root,
		ClauseCount: clauseCount,
		Timestamp:   timestamp,
		Origin:      origin,
		Signature:   signature,
	}, nil
}
