// Package cose provides COSE (RFC 9052) cryptographic operations for
// contract verification: ES256 key generation and import/export, raw
// ES256 signing, and COSE Sign1 receipts over contract roots.
package cose

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"math/big"
	"strings"

	gocose "github.com/veraison/go-cose"
)

// JWK represents a JSON Web Key (RFC 7517) for ES256 keys
type JWK struct {
	Kty string `json:"kty"`           // Key type (always "EC")
	Crv string `json:"crv"`           // Curve (always "P-256")
	X   string `json:"x"`             // X coordinate (base64url)
	Y   string `json:"y"`             // Y coordinate (base64url)
	D   string `json:"d,omitempty"`   // Private key (base64url, optional)
	Kid string `json:"kid,omitempty"` // Key identifier (optional)
	Alg string `json:"alg,omitempty"` // Algorithm (optional, "ES256")
}

// ES256KeyPair holds an ECDSA P-256 key pair
type ES256KeyPair struct {
	Private *ecdsa.PrivateKey
	Public  *ecdsa.PublicKey
}

// GenerateES256KeyPair generates a new ES256 (ECDSA P-256 with SHA-256) key pair
func GenerateES256KeyPair() (*ES256KeyPair, error) {
	privateKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate ES256 key pair: %w", err)
	}

	return &ES256KeyPair{
		Private: privateKey,
		Public:  &privateKey.PublicKey,
	}, nil
}

// ExportPrivateKeyToPEM exports the private key to PEM format (PKCS#8)
func ExportPrivateKeyToPEM(privateKey *ecdsa.PrivateKey) (string, error) {
	if privateKey == nil {
		return "", errors.New("private key is nil")
	}

	derBytes, err := x509.MarshalPKCS8PrivateKey(privateKey)
	if err != nil {
		return "", fmt.Errorf("failed to marshal private key: %w", err)
	}

	pemBlock := &pem.Block{
		Type:  "PRIVATE KEY",
		Bytes: derBytes,
	}

	return string(pem.EncodeToMemory(pemBlock)), nil
}

// ImportPrivateKeyFromPEM imports a private key from PEM format (PKCS#8)
func ImportPrivateKeyFromPEM(pemData string) (*ecdsa.PrivateKey, error) {
	block, _ := pem.Decode([]byte(pemData))
	if block == nil {
		return nil, errors.New("failed to decode PEM block")
	}

	if block.Type != "PRIVATE KEY" {
		return nil, fmt.Errorf("unexpected PEM block type: %s", block.Type)
	}

	key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse PKCS#8 private key: %w", err)
	}

	ecKey, ok := key.(*ecdsa.PrivateKey)
	if !ok {
		return nil, errors.New("key is not an ECDSA private key")
	}

	if ecKey.Curve != elliptic.P256() {
		return nil, errors.New("only P-256 curve is supported")
	}

	return ecKey, nil
}

// ExportPublicKeyToJWK exports the public key to JWK format
func ExportPublicKeyToJWK(publicKey *ecdsa.PublicKey) (*JWK, error) {
	if publicKey == nil {
		return nil, errors.New("public key is nil")
	}

	if publicKey.Curve != elliptic.P256() {
		return nil, errors.New("only P-256 curve is supported")
	}

	// P-256 coordinates are 32 bytes, pad if necessary
	xBytes := padLeft(publicKey.X.Bytes(), 32)
	yBytes := padLeft(publicKey.Y.Bytes(), 32)

	return &JWK{
		Kty: "EC",
		Crv: "P-256",
		X:   base64URLEncode(xBytes),
		Y:   base64URLEncode(yBytes),
		Alg: "ES256",
	}, nil
}

// ImportPublicKeyFromJWK imports a public key from JWK format
func ImportPublicKeyFromJWK(jwk *JWK) (*ecdsa.PublicKey, error) {
	if jwk == nil {
		return nil, errors.New("JWK is nil")
	}

	if jwk.Kty != "EC" {
		return nil, fmt.Errorf("unsupported key type: %s", jwk.Kty)
	}
	if jwk.Crv != "P-256" {
		return nil, fmt.Errorf("unsupported curve: %s", jwk.Crv)
	}

	xBytes, err := base64URLDecode(jwk.X)
	if err != nil {
		return nil, fmt.Errorf("failed to decode x coordinate: %w", err)
	}
	yBytes, err := base64URLDecode(jwk.Y)
	if err != nil {
		return nil, fmt.Errorf("failed to decode y coordinate: %w", err)
	}

	x := new(big.Int).SetBytes(xBytes)
	y := new(big.Int).SetBytes(yBytes)

	publicKey := &ecdsa.PublicKey{
		Curve: elliptic.P256(),
		X:     x,
		Y:     y,
	}

	if !publicKey.Curve.IsOnCurve(x, y) {
		return nil, errors.New("public key point is not on P-256 curve")
	}

	return publicKey, nil
}

// MarshalJWK marshals a JWK to JSON
func MarshalJWK(jwk *JWK) ([]byte, error) {
	return json.Marshal(jwk)
}

// UnmarshalJWK unmarshals JSON to a JWK
func UnmarshalJWK(data []byte) (*JWK, error) {
	var jwk JWK
	if err := json.Unmarshal(data, &jwk); err != nil {
		return nil, err
	}
	return &jwk, nil
}

// ExportPrivateKeyToCOSECBOR exports a private key as a COSE_Key in
// CBOR format (EC2, algorithm ES256)
func ExportPrivateKeyToCOSECBOR(privateKey *ecdsa.PrivateKey) ([]byte, error) {
	if privateKey == nil {
		return nil, errors.New("private key is nil")
	}

	if privateKey.Curve != elliptic.P256() {
		return nil, errors.New("only P-256 curve is supported")
	}

	xBytes := padLeft(privateKey.X.Bytes(), 32)
	yBytes := padLeft(privateKey.Y.Bytes(), 32)
	dBytes := padLeft(privateKey.D.Bytes(), 32)

	coseKey, err := gocose.NewKeyEC2(gocose.AlgorithmES256, xBytes, yBytes, dBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to create COSE EC2 key: %w", err)
	}

	cborData, err := coseKey.MarshalCBOR()
	if err != nil {
		return nil, fmt.Errorf("failed to marshal COSE key: %w", err)
	}

	return cborData, nil
}

// ImportPrivateKeyFromCOSECBOR imports a private key from a CBOR COSE_Key
func ImportPrivateKeyFromCOSECBOR(data []byte) (*ecdsa.PrivateKey, error) {
	coseKey := &gocose.Key{}
	if err := coseKey.UnmarshalCBOR(data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal COSE key: %w", err)
	}

	if coseKey.Algorithm != gocose.AlgorithmES256 {
		return nil, fmt.Errorf("unsupported algorithm: %v", coseKey.Algorithm)
	}

	_, x, y, d := coseKey.EC2()
	if len(d) == 0 {
		return nil, errors.New("COSE key has no private component")
	}

	privateKey := &ecdsa.PrivateKey{
		PublicKey: ecdsa.PublicKey{
			Curve: elliptic.P256(),
			X:     new(big.Int).SetBytes(x),
			Y:     new(big.Int).SetBytes(y),
		},
		D: new(big.Int).SetBytes(d),
	}

	if !privateKey.Curve.IsOnCurve(privateKey.X, privateKey.Y) {
		return nil, errors.New("public key point is not on P-256 curve")
	}

	return privateKey, nil
}

// base64URLEncode encodes bytes to unpadded base64url (RFC 4648)
func base64URLEncode(data []byte) string {
	return base64.RawURLEncoding.EncodeToString(data)
}

// base64URLDecode decodes padded or unpadded base64url
func base64URLDecode(s string) ([]byte, error) {
	s = strings.TrimRight(s, "=")
	return base64.RawURLEncoding.DecodeString(s)
}

// padLeft pads a byte slice to the left with zeros to reach the target length
func padLeft(data []byte, length int) []byte {
	if len(data) >= length {
		return data
	}
	padded := make([]byte, length)
	copy(padded[length-len(data):], data)
	return padded
}
