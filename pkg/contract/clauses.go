// Package contract layers document handling on top of the merkle core:
// clause extraction, per-document trees, positional clause comparison,
// and report rendering.
package contract

import (
	"regexp"
	"strings"

	"github.com/veritract/contract-verification/pkg/merkle"
)

// ExtractClauses splits raw contract text into an ordered sequence of
// clauses, one per non-blank line. Interior whitespace is preserved;
// lines that are empty after trimming are discarded.
func ExtractClauses(text string) []string {
	var clauses []string
	for _, line := range strings.Split(strings.TrimSpace(text), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		clauses = append(clauses, line)
	}
	return clauses
}

// HashClauses hashes each clause in order. Order is preserved exactly:
// it encodes each clause's positional identity in the tree.
func HashClauses(clauses []string) []string {
	digests := make([]string, len(clauses))
	for i, clause := range clauses {
		digests[i] = merkle.HashClause(clause)
	}
	return digests
}

var clauseLabelRegex = regexp.MustCompile(`^\s*(?:Clause|Section)\s+\S+\s*:\s*`)

// StripClauseLabel removes a leading "Clause N:" or "Section N:" style
// marker from a clause for display. Purely cosmetic; hashing and
// comparison always use the clause text verbatim.
func StripClauseLabel(clause string) string {
	return clauseLabelRegex.ReplaceAllString(clause, "")
}
