package contract_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/veritract/contract-verification/pkg/contract"
	"github.com/veritract/contract-verification/pkg/merkle"
)

func TestNewDocument(t *testing.T) {
	t.Run("builds tree over extracted clauses", func(t *testing.T) {
		doc := contract.NewDocument(contractV1)

		if len(doc.Clauses) != 3 {
			t.Fatalf("expected 3 clauses, got %d", len(doc.Clauses))
		}
		if len(doc.Digests) != 3 {
			t.Fatalf("expected 3 digests, got %d", len(doc.Digests))
		}
		if doc.Tree.LeafCount() != 3 {
			t.Errorf("expected 3 leaves, got %d", doc.Tree.LeafCount())
		}
		if doc.Root() == merkle.EmptyContractRoot {
			t.Error("expected non-sentinel root")
		}
	})

	t.Run("empty text yields sentinel root", func(t *testing.T) {
		doc := contract.NewDocument("")
		if doc.Root() != merkle.EmptyContractRoot {
			t.Errorf("expected sentinel root, got %s", doc.Root())
		}
	})

	t.Run("clause lookup by digest", func(t *testing.T) {
		doc := contract.NewDocument("one\ntwo")

		clause, ok := doc.ClauseByDigest(doc.Digests[1])
		if !ok || clause != "two" {
			t.Errorf("expected to find clause 'two', got %q (found=%v)", clause, ok)
		}

		if _, ok := doc.ClauseByDigest(merkle.HashClause("missing")); ok {
			t.Error("expected lookup miss for unknown digest")
		}
	})
}

func TestDocumentProve(t *testing.T) {
	doc := contract.NewDocument(contractV1)

	t.Run("proves each clause by index", func(t *testing.T) {
		for i := range doc.Clauses {
			proof, err := doc.Prove(i)
			if err != nil {
				t.Fatalf("clause %d: failed to prove: %v", i, err)
			}
			if !merkle.Verify(proof, doc.Digests[i], doc.Root()) {
				t.Errorf("clause %d: proof did not verify", i)
			}
		}
	})

	t.Run("out-of-range index is ErrNotFound", func(t *testing.T) {
		if _, err := doc.Prove(-1); !errors.Is(err, merkle.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
		if _, err := doc.Prove(len(doc.Clauses)); !errors.Is(err, merkle.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestWriteDOT(t *testing.T) {
	t.Run("renders labeled graph with highlighted root", func(t *testing.T) {
		doc := contract.NewDocument("A\nB\nC")

		var sb strings.Builder
		if err := contract.WriteDOT(&sb, doc); err != nil {
			t.Fatalf("failed to render: %v", err)
		}
		out := sb.String()

		if !strings.HasPrefix(out, "digraph merkle {") {
			t.Errorf("expected digraph header, got %q", out[:20])
		}
		if !strings.Contains(out, "fillcolor=gold") {
			t.Error("expected highlighted root node")
		}
		if !strings.Contains(out, `tooltip="A"`) {
			t.Error("expected leaf tooltip with clause text")
		}
		// 3 leaves -> 2 -> 1: six nodes, five edges
		if got := strings.Count(out, "->"); got != 5 {
			t.Errorf("expected 5 edges, got %d", got)
		}
	})

	t.Run("renders empty tree placeholder", func(t *testing.T) {
		var sb strings.Builder
		if err := contract.WriteDOT(&sb, contract.NewDocument("")); err != nil {
			t.Fatalf("failed to render: %v", err)
		}
		if !strings.Contains(sb.String(), "EMPTY_CONTRACT") {
			t.Error("expected sentinel label for empty tree")
		}
	})
}

func TestColorRenderer(t *testing.T) {
	t.Run("renders all report sections", func(t *testing.T) {
		v1 := contract.NewDocument("same\nchanged a little\nonly in one")
		v2 := contract.NewDocument("same\nchanged a lot")

		lines := contract.NewColorRenderer().Render(contract.Compare(v1, v2).Report)
		joined := strings.Join(lines, "\n")

		if !strings.Contains(joined, "Clause 1:") || !strings.Contains(joined, "Clause 2:") {
			t.Errorf("expected per-clause lines, got:\n%s", joined)
		}
		if !strings.Contains(joined, "Additional clauses in V1:") {
			t.Errorf("expected additional block, got:\n%s", joined)
		}
	})
}
