package merkle

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// ProofBundle packages a proof together with the target digest it
// authenticates and the root it reconstructs, so a verifier needs no
// other context.
type ProofBundle struct {
	Target string `json:"target" cbor:"1,keyasint"`
	Root   string `json:"root" cbor:"2,keyasint"`
	Proof  Proof  `json:"proof" cbor:"3,keyasint"`
}

// EncodeProofBundle encodes a proof bundle to CBOR for file interchange
func EncodeProofBundle(bundle *ProofBundle) ([]byte, error) {
	if bundle == nil {
		return nil, fmt.Errorf("proof bundle is nil")
	}

	encoded, err := cbor.Marshal(bundle)
	if err != nil {
		return nil, fmt.Errorf("failed to encode proof bundle: %w", err)
	}

	return encoded, nil
}

// DecodeProofBundle decodes a CBOR proof bundle
func DecodeProofBundle(data []byte) (*ProofBundle, error) {
	var bundle ProofBundle
	if err := cbor.Unmarshal(data, &bundle); err != nil {
		return nil, fmt.Errorf("failed to decode proof bundle: %w", err)
	}

	if len(bundle.Target) == 0 {
		return nil, fmt.Errorf("invalid proof bundle: missing target digest")
	}
	if len(bundle.Root) == 0 {
		return nil, fmt.Errorf("invalid proof bundle: missing root digest")
	}

	return &bundle, nil
}

// VerifyBundle verifies a bundle's proof against its own declared root
func VerifyBundle(bundle *ProofBundle) bool {
	if bundle == nil {
		return false
	}
	return Verify(bundle.Proof, bundle.Target, bundle.Root)
}
