package cose

import (
	"fmt"
	"time"

	"github.com/fxamacker/cbor/v2"
)

// ReceiptContentType is the media type of a root receipt payload
const ReceiptContentType = "application/merkle-root+cbor"

// ReceiptPayload is the CBOR payload of a root receipt: the contract's
// Merkle root together with what it commits to
type ReceiptPayload struct {
	Root        string `cbor:"1,keyasint"`
	ClauseCount int    `cbor:"2,keyasint"`
	IssuedAt    int64  `cbor:"3,keyasint"`
}

// ReceiptOptions holds metadata for issuing a root receipt
type ReceiptOptions struct {
	Issuer  string // iss CWT claim
	Subject string // sub CWT claim (e.g. a contract identifier)
}

// SignRootReceipt issues a COSE Sign1 receipt over a contract root.
// The payload is the CBOR-encoded ReceiptPayload; issuer and subject
// ride in the CWT Claims protected header.
func SignRootReceipt(root string, clauseCount int, opts ReceiptOptions, signer Signer) (*CoseSign1, error) {
	if root == "" {
		return nil, fmt.Errorf("root digest is required")
	}

	payload := ReceiptPayload{
		Root:        root,
		ClauseCount: clauseCount,
		IssuedAt:    time.Now().Unix(),
	}

	payloadBytes, err := cbor.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode receipt payload: %w", err)
	}

	headers := ProtectedHeaders{
		HeaderLabelAlg:         AlgorithmES256,
		HeaderLabelContentType: ReceiptContentType,
	}

	claims := make(CWTClaimsSet)
	if opts.Issuer != "" {
		claims[CWTClaimIss] = opts.Issuer
	}
	if opts.Subject != "" {
		claims[CWTClaimSub] = opts.Subject
	}
	claims[CWTClaimIat] = payload.IssuedAt
	headers[HeaderLabelCWTClaims] = claims

	return CreateCoseSign1(headers, payloadBytes, signer)
}

// VerifyRootReceipt verifies a receipt signature and, when expectedRoot
// is non-empty, that the receipt commits to that root. Returns the
// decoded payload on success.
func VerifyRootReceipt(coseSign1 *CoseSign1, verifier Verifier, expectedRoot string) (*ReceiptPayload, error) {
	valid, err := VerifyCoseSign1(coseSign1, verifier)
	if err != nil {
		return nil, fmt.Errorf("failed to verify receipt: %w", err)
	}
	if !valid {
		return nil, fmt.Errorf("receipt signature is invalid")
	}

	var payload ReceiptPayload
	if err := cbor.Unmarshal(coseSign1.Payload, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode receipt payload: %w", err)
	}

	if payload.Root == "" {
		return nil, fmt.Errorf("receipt payload has no root digest")
	}

	if expectedRoot != "" && payload.Root != expectedRoot {
		return nil, fmt.Errorf("receipt root %s does not match expected root %s", payload.Root, expectedRoot)
	}

	return &payload, nil
}

// ReceiptClaims extracts issuer and subject from a receipt's CWT claims
func ReceiptClaims(coseSign1 *CoseSign1) (issuer, subject string, err error) {
	headers, err := GetProtectedHeaders(coseSign1)
	if err != nil {
		return "", "", err
	}

	claims, ok := headers[uint64(HeaderLabelCWTClaims)].(map[interface{}]interface{})
	if !ok {
		// cbor may decode integer keys as int64 depending on sign
		claims, ok = headers[int64(HeaderLabelCWTClaims)].(map[interface{}]interface{})
		if !ok {
			return "", "", nil
		}
	}

	if iss, ok := claims[uint64(CWTClaimIss)].(string); ok {
		issuer = iss
	}
	if sub, ok := claims[uint64(CWTClaimSub)].(string); ok {
		subject = sub
	}

	return issuer, subject, nil
}
