package contract

import (
	"fmt"
	"io"
	"strings"

	"github.com/veritract/contract-verification/pkg/merkle"
)

// digestLabelLen is how many hex characters of a digest appear in node labels
const digestLabelLen = 12

// WriteDOT renders a document's tree as a Graphviz DOT directed graph.
// Internal nodes are labeled by truncated digest, leaves carry their
// clause text as a tooltip, and the root is highlighted. Presentation
// only; it reads tree contents and imposes nothing on the core.
func WriteDOT(w io.Writer, doc *Document) error {
	tree := doc.Tree

	if _, err := fmt.Fprintln(w, "digraph merkle {"); err != nil {
		return err
	}
	fmt.Fprintln(w, `  rankdir=BT;`)
	fmt.Fprintln(w, `  node [shape=box, fontname="monospace"];`)

	if len(tree) == 0 {
		fmt.Fprintf(w, "  empty [label=%q, style=dashed];\n", merkle.EmptyContractRoot)
		_, err := fmt.Fprintln(w, "}")
		return err
	}

	for levelIdx, level := range tree {
		for nodeIdx, digest := range level {
			name := nodeName(levelIdx, nodeIdx)
			attrs := []string{fmt.Sprintf("label=%q", truncateDigest(digest))}

			if levelIdx == 0 {
				if clause, ok := doc.ClauseByDigest(digest); ok {
					attrs = append(attrs, fmt.Sprintf("tooltip=%q", clause))
				}
			}
			if levelIdx == len(tree)-1 {
				attrs = append(attrs, `style=filled`, `fillcolor=gold`)
			}

			fmt.Fprintf(w, "  %s [%s];\n", name, strings.Join(attrs, ", "))
		}
	}

	// Edges: each node points to its parent; odd trailing nodes have a
	// single child edge since the duplicate is never stored
	for levelIdx := 0; levelIdx < len(tree)-1; levelIdx++ {
		for nodeIdx := range tree[levelIdx] {
			fmt.Fprintf(w, "  %s -> %s;\n", nodeName(levelIdx, nodeIdx), nodeName(levelIdx+1, nodeIdx/2))
		}
	}

	_, err := fmt.Fprintln(w, "}")
	return err
}

func nodeName(level, index int) string {
	return fmt.Sprintf("n%d_%d", level, index)
}

func truncateDigest(digest string) string {
	if len(digest) <= digestLabelLen {
		return digest
	}
	return digest[:digestLabelLen] + "…"
}
