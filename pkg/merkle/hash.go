// Package merkle implements the Merkle tree core for contract
// verification: clause hashing, level-by-level tree construction,
// inclusion proofs, and signed root attestations.
//
// Digests are lowercase hex strings and parent nodes are computed by
// hashing the string concatenation of their children. This keeps trees,
// proofs, and roots directly printable and comparable as text.
package merkle

import (
	"crypto/sha256"
	"encoding/hex"
)

// DigestHexLen is the length of a hex-encoded SHA-256 digest
const DigestHexLen = sha256.Size * 2

// HashClause computes the SHA-256 digest of a clause's UTF-8 bytes,
// rendered as lowercase hexadecimal. Deterministic and side-effect free;
// every equality comparison in the package rests on it.
func HashClause(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
