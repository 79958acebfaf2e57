package cose

import (
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"math/big"
)

// Signer creates signatures over raw byte strings
type Signer interface {
	Sign(data []byte) ([]byte, error)
}

// Verifier validates signatures over raw byte strings
type Verifier interface {
	Verify(data []byte, signature []byte) (bool, error)
}

// ES256Signer implements Signer using ECDSA P-256 with SHA-256
type ES256Signer struct {
	privateKey *ecdsa.PrivateKey
}

// NewES256Signer creates a new ES256 signer from a private key
func NewES256Signer(privateKey *ecdsa.PrivateKey) (*ES256Signer, error) {
	if privateKey == nil {
		return nil, fmt.Errorf("private key is nil")
	}
	return &ES256Signer{privateKey: privateKey}, nil
}

// Sign signs data with ECDSA P-256 over its SHA-256 digest.
// Returns the signature in IEEE P1363 format (r || s, 64 bytes).
func (s *ES256Signer) Sign(data []byte) ([]byte, error) {
	hashed := sha256.Sum256(data)

	r, sigS, err := ecdsa.Sign(rand.Reader, s.privateKey, hashed[:])
	if err != nil {
		return nil, fmt.Errorf("failed to sign: %w", err)
	}

	// P-256 r and s are each at most 32 bytes; left-pad into r || s
	signature := make([]byte, 64)
	rBytes := r.Bytes()
	sBytes := sigS.Bytes()
	copy(signature[32-len(rBytes):32], rBytes)
	copy(signature[64-len(sBytes):64], sBytes)

	return signature, nil
}

// ES256Verifier implements Verifier using ECDSA P-256 with SHA-256
type ES256Verifier struct {
	publicKey *ecdsa.PublicKey
}

// NewES256Verifier creates a new ES256 verifier from a public key
func NewES256Verifier(publicKey *ecdsa.PublicKey) (*ES256Verifier, error) {
	if publicKey == nil {
		return nil, fmt.Errorf("public key is nil")
	}
	return &ES256Verifier{publicKey: publicKey}, nil
}

// Verify checks an IEEE P1363 (r || s) signature over data
func (v *ES256Verifier) Verify(data []byte, signature []byte) (bool, error) {
	if len(signature) != 64 {
		return false, fmt.Errorf("invalid signature length: expected 64 bytes, got %d", len(signature))
	}

	hashed := sha256.Sum256(data)

	r := new(big.Int).SetBytes(signature[:32])
	s := new(big.Int).SetBytes(signature[32:])

	return ecdsa.Verify(v.publicKey, hashed[:], r, s), nil
}
