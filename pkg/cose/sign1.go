package cose

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// COSE header labels (RFC 9052)
const (
	HeaderLabelAlg         = 1  // Algorithm identifier
	HeaderLabelContentType = 3  // Content type
	HeaderLabelKid         = 4  // Key identifier
	HeaderLabelCWTClaims   = 15 // CWT Claims Set (RFC 9597)
	HeaderLabelTyp         = 16 // Type (media type of content)
)

// COSE algorithm identifiers (RFC 9053)
const (
	AlgorithmES256 = -7 // ECDSA w/ SHA-256
)

// CWT claim keys (RFC 8392)
const (
	CWTClaimIss = 1 // Issuer
	CWTClaimSub = 2 // Subject
	CWTClaimIat = 6 // Issued At
)

// ProtectedHeaders represents COSE protected headers (encoded as a CBOR map)
type ProtectedHeaders map[interface{}]interface{}

// CWTClaimsSet represents CWT claims carried in the CWT Claims header
type CWTClaimsSet map[interface{}]interface{}

// CoseSign1 represents a COSE Sign1 structure (RFC 9052)
type CoseSign1 struct {
	Protected   []byte                      // CBOR-encoded protected headers
	Unprotected map[interface{}]interface{} // Unprotected headers
	Payload     []byte                      // Payload
	Signature   []byte                      // Signature bytes
}

// CreateCoseSign1 encodes the protected headers, constructs the RFC 9052
// Sig_structure over the payload, and signs it with the provided signer.
func CreateCoseSign1(protectedHeaders ProtectedHeaders, payload []byte, signer Signer) (*CoseSign1, error) {
	protectedEncoded, err := cbor.Marshal(protectedHeaders)
	if err != nil {
		return nil, fmt.Errorf("failed to encode protected headers: %w", err)
	}

	// Sig_structure = ["Signature1", body_protected, external_aad, payload]
	sigStructure := []interface{}{
		"Signature1",
		protectedEncoded,
		[]byte{},
		payload,
	}

	toBeSigned, err := cbor.Marshal(sigStructure)
	if err != nil {
		return nil, fmt.Errorf("failed to encode Sig_structure: %w", err)
	}

	signature, err := signer.Sign(toBeSigned)
	if err != nil {
		return nil, fmt.Errorf("failed to sign: %w", err)
	}

	return &CoseSign1{
		Protected:   protectedEncoded,
		Unprotected: make(map[interface{}]interface{}),
		Payload:     payload,
		Signature:   signature,
	}, nil
}

// VerifyCoseSign1 reconstructs the Sig_structure and verifies the
// signature with the provided verifier
func VerifyCoseSign1(coseSign1 *CoseSign1, verifier Verifier) (bool, error) {
	sigStructure := []interface{}{
		"Signature1",
		coseSign1.Protected,
		[]byte{},
		coseSign1.Payload,
	}

	toBeSigned, err := cbor.Marshal(sigStructure)
	if err != nil {
		return false, fmt.Errorf("failed to encode Sig_structure: %w", err)
	}

	return verifier.Verify(toBeSigned, coseSign1.Signature)
}

// GetProtectedHeaders decodes the protected headers of a COSE Sign1
func GetProtectedHeaders(coseSign1 *CoseSign1) (ProtectedHeaders, error) {
	var headers ProtectedHeaders
	if err := cbor.Unmarshal(coseSign1.Protected, &headers); err != nil {
		return nil, fmt.Errorf("failed to decode protected headers: %w", err)
	}
	return headers, nil
}

// EncodeCoseSign1 encodes a COSE Sign1 structure to CBOR bytes
//
//	COSE_Sign1 = [protected: bstr, unprotected: {}, payload: bstr, signature: bstr]
func EncodeCoseSign1(coseSign1 *CoseSign1) ([]byte, error) {
	coseArray := []interface{}{
		coseSign1.Protected,
		coseSign1.Unprotected,
		coseSign1.Payload,
		coseSign1.Signature,
	}

	encoded, err := cbor.Marshal(coseArray)
	if err != nil {
		return nil, fmt.Errorf("failed to encode COSE Sign1: %w", err)
	}

	return encoded, nil
}

// DecodeCoseSign1 decodes CBOR bytes to a COSE Sign1 structure
func DecodeCoseSign1(encoded []byte) (*CoseSign1, error) {
	var coseArray []interface{}
	if err := cbor.Unmarshal(encoded, &coseArray); err != nil {
		return nil, fmt.Errorf("failed to decode COSE Sign1: %w", err)
	}

	if len(coseArray) != 4 {
		return nil, fmt.Errorf("invalid COSE Sign1 structure: expected 4 elements, got %d", len(coseArray))
	}

	protected, ok := coseArray[0].([]byte)
	if !ok {
		return nil, fmt.Errorf("invalid protected headers: expected bytes")
	}

	unprotected, ok := coseArray[1].(map[interface{}]interface{})
	if !ok {
		return nil, fmt.Errorf("invalid unprotected headers: expected map")
	}

	var payload []byte
	if coseArray[2] != nil {
		payload, ok = coseArray[2].([]byte)
		if !ok {
			return nil, fmt.Errorf("invalid payload: expected bytes")
		}
	}

	signature, ok := coseArray[3].([]byte)
	if !ok {
		return nil, fmt.Errorf("invalid signature: expected bytes")
	}

	return &CoseSign1{
		Protected:   protected,
		Unprotected: unprotected,
		Payload:     payload,
		Signature:   signature,
	}, nil
}
