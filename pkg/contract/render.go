package contract

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	diffpatch "github.com/sergi/go-diff/diffmatchpatch"
)

// FormatReport renders a report as plain text lines suitable for direct
// display. Clause numbers are 1-based and leading "Clause N:" style
// markers are stripped from the echoed texts.
func FormatReport(report *Report) []string {
	lines := []string{"Clause-Level Comparison:"}

	for _, entry := range report.Entries {
		if entry.Match {
			lines = append(lines, fmt.Sprintf("Clause %d: ✓ Match", entry.Index+1))
			continue
		}
		lines = append(lines, fmt.Sprintf("Clause %d: ✗ Difference", entry.Index+1))
		lines = append(lines, fmt.Sprintf("   V1: %s", StripClauseLabel(entry.Left)))
		lines = append(lines, fmt.Sprintf("   V2: %s", StripClauseLabel(entry.Right)))
	}

	if add := report.Additional; add != nil {
		lines = append(lines, "")
		lines = append(lines, fmt.Sprintf("Additional clauses in %s:", strings.ToUpper(add.Side)))
		for i, clause := range add.Clauses {
			lines = append(lines, fmt.Sprintf("   Clause %d: %s", add.Start+i+1, StripClauseLabel(clause)))
		}
	}

	return lines
}

// ColorRenderer renders reports for terminals, highlighting the exact
// characters that changed inside each mismatched clause pair. The
// character diff is display-only; match/mismatch decisions come from
// the positional report alone.
type ColorRenderer struct {
	match    *color.Color
	mismatch *color.Color
	inserted *color.Color
	deleted  *color.Color
	dmp      *diffpatch.DiffMatchPatch
}

// NewColorRenderer creates a renderer with the default palette
func NewColorRenderer() *ColorRenderer {
	return &ColorRenderer{
		match:    color.New(color.FgGreen),
		mismatch: color.New(color.FgRed, color.Bold),
		inserted: color.New(color.FgGreen, color.Underline),
		deleted:  color.New(color.FgRed, color.CrossedOut),
		dmp:      diffpatch.New(),
	}
}

// Render renders a report with per-character highlighting of mismatches
func (r *ColorRenderer) Render(report *Report) []string {
	lines := []string{"Clause-Level Comparison:"}

	for _, entry := range report.Entries {
		if entry.Match {
			lines = append(lines, fmt.Sprintf("Clause %d: %s", entry.Index+1, r.match.Sprint("✓ Match")))
			continue
		}

		left := StripClauseLabel(entry.Left)
		right := StripClauseLabel(entry.Right)
		leftOut, rightOut := r.highlight(left, right)

		lines = append(lines, fmt.Sprintf("Clause %d: %s", entry.Index+1, r.mismatch.Sprint("✗ Difference")))
		lines = append(lines, fmt.Sprintf("   V1: %s", leftOut))
		lines = append(lines, fmt.Sprintf("   V2: %s", rightOut))
	}

	if add := report.Additional; add != nil {
		lines = append(lines, "")
		lines = append(lines, fmt.Sprintf("Additional clauses in %s:", strings.ToUpper(add.Side)))
		for i, clause := range add.Clauses {
			lines = append(lines, fmt.Sprintf("   Clause %d: %s",
				add.Start+i+1, r.inserted.Sprint(StripClauseLabel(clause))))
		}
	}

	return lines
}

// highlight runs a character diff over one clause pair and returns the
// V1 line with deletions marked and the V2 line with insertions marked
func (r *ColorRenderer) highlight(left, right string) (string, string) {
	diffs := r.dmp.DiffMain(left, right, false)
	diffs = r.dmp.DiffCleanupSemantic(diffs)

	var v1, v2 strings.Builder
	for _, d := range diffs {
		switch d.Type {
		case diffpatch.DiffEqual:
			v1.WriteString(d.Text)
			v2.WriteString(d.Text)
		case diffpatch.DiffDelete:
			v1.WriteString(r.deleted.Sprint(d.Text))
		case diffpatch.DiffInsert:
			v2.WriteString(r.inserted.Sprint(d.Text))
		}
	}

	return v1.String(), v2.String()
}
