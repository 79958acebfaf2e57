package merkle_test

import (
	"strings"
	"testing"

	"github.com/veritract/contract-verification/pkg/cose"
	"github.com/veritract/contract-verification/pkg/merkle"
)

func TestAttestation(t *testing.T) {
	keyPair, err := cose.GenerateES256KeyPair()
	if err != nil {
		t.Fatalf("failed to generate key pair: %v", err)
	}

	tree := merkle.Build(hashClauses(
		"Clause 1: The buyer agrees to pay in full within 30 days.",
		"Clause 2: The seller provides a 1-year warranty.",
	))

	t.Run("create and verify", func(t *testing.T) {
		att, err := merkle.CreateAttestation(tree.Root(), tree.LeafCount(), keyPair.Private, "acme-legal")
		if err != nil {
			t.Fatalf("failed to create attestation: %v", err)
		}

		valid, err := merkle.VerifyAttestation(att, keyPair.Public)
		if err != nil {
			t.Fatalf("failed to verify: %v", err)
		}
		if !valid {
			t.Error("expected attestation to verify")
		}
	})

	t.Run("tampered root fails verification", func(t *testing.T) {
		att, err := merkle.CreateAttestation(tree.Root(), tree.LeafCount(), keyPair.Private, "acme-legal")
		if err != nil {
			t.Fatalf("failed to create attestation: %v", err)
		}

		att.Root = merkle.HashClause("a different contract")

		valid, err := merkle.VerifyAttestation(att, keyPair.Public)
		if err != nil {
			t.Fatalf("failed to verify: %v", err)
		}
		if valid {
			t.Error("expected tampered attestation to fail verification")
		}
	})

	t.Run("wrong key fails verification", func(t *testing.T) {
		att, err := merkle.CreateAttestation(tree.Root(), tree.LeafCount(), keyPair.Private, "acme-legal")
		if err != nil {
			t.Fatalf("failed to create attestation: %v", err)
		}

		otherKey, err := cose.GenerateES256KeyPair()
		if err != nil {
			t.Fatalf("failed to generate key pair: %v", err)
		}

		valid, err := merkle.VerifyAttestation(att, otherKey.Public)
		if err != nil {
			t.Fatalf("failed to verify: %v", err)
		}
		if valid {
			t.Error("expected attestation to fail with wrong key")
		}
	})

	t.Run("rejects empty root or origin", func(t *testing.T) {
		if _, err := merkle.CreateAttestation("", 0, keyPair.Private, "acme-legal"); err == nil {
			t.Error("expected error for empty root")
		}
		if _, err := merkle.CreateAttestation(tree.Root(), 2, keyPair.Private, ""); err == nil {
			t.Error("expected error for empty origin")
		}
	})
}

func TestAttestationEncoding(t *testing.T) {
	keyPair, err := cose.GenerateES256KeyPair()
	if err != nil {
		t.Fatalf("failed to generate key pair: %v", err)
	}

	tree := merkle.Build(hashClauses("a", "b", "c"))
	att, err := merkle.CreateAttestation(tree.Root(), 3, keyPair.Private, "acme-legal")
	if err != nil {
		t.Fatalf("failed to create attestation: %v", err)
	}

	t.Run("round trips through note format", func(t *testing.T) {
		encoded := merkle.EncodeAttestation(att)

		if !strings.HasPrefix(encoded, "acme-legal\n") {
			t.Errorf("expected note to start with origin, got %q", encoded)
		}

		decoded, err := merkle.DecodeAttestation(encoded)
		if err != nil {
			t.Fatalf("failed to decode: %v", err)
		}

		if decoded.Root != att.Root {
			t.Errorf("root mismatch: got %s, want %s", decoded.Root, att.Root)
		}
		if decoded.ClauseCount != att.ClauseCount {
			t.Errorf("clause count mismatch: got %d, want %d", decoded.ClauseCount, att.ClauseCount)
		}
		if decoded.Timestamp != att.Timestamp {
			t.Errorf("timestamp mismatch: got %d, want %d", decoded.Timestamp, att.Timestamp)
		}

		valid, err := merkle.VerifyAttestation(decoded, keyPair.Public)
		if err != nil {
			t.Fatalf("failed to verify: %v", err)
		}
		if !valid {
			t.Error("expected decoded attestation to verify")
		}
	})

	t.Run("rejects malformed notes", func(t *testing.T) {
		cases := []string{
			"",
			"just one line",
			"origin\nnot-a-number\nroot\n123\n\n— origin c2ln",
			"origin\n3\nroot\n123\n\nmissing dash line",
		}

		for _, encoded := range cases {
			if _, err := merkle.DecodeAttestation(encoded); err == nil {
				t.Errorf("expected error decoding %q", encoded)
			}
		}
	})
}
