package contract_test

import (
	"testing"

	"github.com/veritract/contract-verification/pkg/contract"
	"github.com/veritract/contract-verification/pkg/merkle"
)

func TestExtractClauses(t *testing.T) {
	t.Run("splits on newlines and discards blank lines", func(t *testing.T) {
		text := "\nClause 1: First.\n\n  \nClause 2: Second.\nClause 3: Third.\n"

		clauses := contract.ExtractClauses(text)

		want := []string{"Clause 1: First.", "Clause 2: Second.", "Clause 3: Third."}
		if len(clauses) != len(want) {
			t.Fatalf("expected %d clauses, got %d: %v", len(want), len(clauses), clauses)
		}
		for i := range want {
			if clauses[i] != want[i] {
				t.Errorf("clause %d: got %q, want %q", i, clauses[i], want[i])
			}
		}
	})

	t.Run("preserves interior whitespace", func(t *testing.T) {
		clauses := contract.ExtractClauses("Term:   spaced   out  ")
		if len(clauses) != 1 {
			t.Fatalf("expected 1 clause, got %d", len(clauses))
		}
		if clauses[0] != "Term:   spaced   out  " {
			t.Errorf("whitespace not preserved: %q", clauses[0])
		}
	})

	t.Run("empty and whitespace-only text yields no clauses", func(t *testing.T) {
		if got := contract.ExtractClauses(""); got != nil {
			t.Errorf("expected nil, got %v", got)
		}
		if got := contract.ExtractClauses("  \n\t\n  "); got != nil {
			t.Errorf("expected nil, got %v", got)
		}
	})
}

func TestHashClauses(t *testing.T) {
	t.Run("hashes each clause in order", func(t *testing.T) {
		clauses := []string{"first", "second"}
		digests := contract.HashClauses(clauses)

		if len(digests) != 2 {
			t.Fatalf("expected 2 digests, got %d", len(digests))
		}
		if digests[0] != merkle.HashClause("first") || digests[1] != merkle.HashClause("second") {
			t.Error("digests out of order or incorrect")
		}
	})
}

func TestStripClauseLabel(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{"Clause 1: The buyer agrees.", "The buyer agrees."},
		{"Section B: Payment schedule.", "Payment schedule."},
		{"Clause 12 : spaced colon", "spaced colon"},
		{"No marker here.", "No marker here."},
		{"Clauses 1: not a marker word", "Clauses 1: not a marker word"},
	}

	for _, tc := range cases {
		if got := contract.StripClauseLabel(tc.input); got != tc.want {
			t.Errorf("StripClauseLabel(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}
