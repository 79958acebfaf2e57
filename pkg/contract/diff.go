package contract

import "github.com/veritract/contract-verification/pkg/merkle"

// DiffEntry is one clause-level comparison result. Index is zero-based;
// Left and Right carry both clause texts on a mismatch and are empty on
// a match.
type DiffEntry struct {
	Index int    `json:"index"`
	Match bool   `json:"match"`
	Left  string `json:"left,omitempty"`
	Right string `json:"right,omitempty"`
}

// AdditionalClauses is the trailing block of a report when one document
// has more clauses than the other
type AdditionalClauses struct {
	Side    string   `json:"side"`  // "v1" or "v2"
	Start   int      `json:"start"` // zero-based index of the first extra clause
	Clauses []string `json:"clauses"`
}

// Report is an ordered clause-level difference report
type Report struct {
	Entries    []DiffEntry        `json:"entries"`
	Additional *AdditionalClauses `json:"additional,omitempty"`
}

// MismatchCount returns the number of mismatched entries. A nil
// report, as carried by an equal comparison, has none.
func (r *Report) MismatchCount() int {
	if r == nil {
		return 0
	}
	n := 0
	for _, e := range r.Entries {
		if !e.Match {
			n++
		}
	}
	return n
}

// BuildReport compares two parallel digest sequences position by
// position and echoes the source clause texts on mismatch.
//
// This is deliberately a positional diff, not a content-aware
// alignment: an insertion in the middle of one document shifts every
// subsequent comparison and reports them all as mismatches. A clause
// appears in at most one entry, and extra clauses from the longer
// document land in the Additional block.
func BuildReport(hashesV1, hashesV2, clausesV1, clausesV2 []string) *Report {
	n := len(hashesV1)
	if len(hashesV2) < n {
		n = len(hashesV2)
	}

	report := &Report{}
	for i := 0; i < n; i++ {
		entry := DiffEntry{Index: i, Match: hashesV1[i] == hashesV2[i]}
		if !entry.Match {
			entry.Left = clausesV1[i]
			entry.Right = clausesV2[i]
		}
		report.Entries = append(report.Entries, entry)
	}

	switch {
	case len(hashesV1) > n:
		report.Additional = &AdditionalClauses{
			Side:    "v1",
			Start:   n,
			Clauses: append([]string(nil), clausesV1[n:]...),
		}
	case len(hashesV2) > n:
		report.Additional = &AdditionalClauses{
			Side:    "v2",
			Start:   n,
			Clauses: append([]string(nil), clausesV2[n:]...),
		}
	}

	return report
}

// Comparison is the full result of comparing two contract versions
type Comparison struct {
	RootV1        string  `json:"root_v1"`
	RootV2        string  `json:"root_v2"`
	Equal         bool    `json:"equal"`
	ClauseCountV1 int     `json:"clause_count_v1"`
	ClauseCountV2 int     `json:"clause_count_v2"`
	Report        *Report `json:"report,omitempty"`
}

// Compare compares two documents by their Merkle roots. On mismatch the
// comparison carries a clause-level report; identical documents carry
// none.
func Compare(v1, v2 *Document) *Comparison {
	cmp := &Comparison{
		RootV1:        v1.Root(),
		RootV2:        v2.Root(),
		ClauseCountV1: len(v1.Clauses),
		ClauseCountV2: len(v2.Clauses),
	}
	cmp.Equal = merkle.RootsEqual(cmp.RootV1, cmp.RootV2)

	if !cmp.Equal {
		cmp.Report = BuildReport(v1.Digests, v2.Digests, v1.Clauses, v2.Clauses)
	}

	return cmp
}
