package merkle

import "errors"

// ErrNotFound is returned by Prove when the target digest is not a
// member of the tree. It is deliberately distinct from the valid empty
// proof of a one-leaf tree.
var ErrNotFound = errors.New("target digest not found in tree")

// Side indicates where a proof step's sibling sits relative to the
// digest being authenticated at that level
type Side string

const (
	SideLeft  Side = "left"
	SideRight Side = "right"
)

// ProofStep is one sibling digest on the path from a leaf to the root
type ProofStep struct {
	Sibling string `json:"sibling" cbor:"1,keyasint"`
	Side    Side   `json:"side" cbor:"2,keyasint"`
}

// Proof is an ordered sequence of steps, one per level traversed
// bottom-up. Applied in order to a target digest they reconstruct the
// root. A proof carries no reference to the tree it came from; it is a
// self-contained verification input.
type Proof []ProofStep

// Prove reconstructs the sibling path for target from tree level 0 up
// to the root. It re-derives the same left-to-right pairing Build uses,
// including the self-pairing of an unpaired trailing node.
//
// A one-leaf tree whose sole leaf equals target yields an empty proof
// and nil error. If target does not appear where expected at any level,
// Prove returns ErrNotFound.
func Prove(tree Tree, target string) (Proof, error) {
	if len(tree) == 0 || len(tree[0]) == 0 {
		return nil, ErrNotFound
	}

	proof := Proof{}
	current := target

	for _, level := range tree[:len(tree)-1] {
		found := false
		for i := 0; i < len(level); i += 2 {
			left := level[i]
			right := left
			if i+1 < len(level) {
				right = level[i+1]
			}

			switch current {
			case left:
				proof = append(proof, ProofStep{Sibling: right, Side: SideRight})
			case right:
				proof = append(proof, ProofStep{Sibling: left, Side: SideLeft})
			default:
				continue
			}

			current = HashClause(left + right)
			found = true
			break
		}

		if !found {
			return nil, ErrNotFound
		}
	}

	// Single-leaf tree: the loop never ran, the target must be the root
	if len(tree) == 1 && tree[0][0] != target {
		return nil, ErrNotFound
	}

	return proof, nil
}

// Verify recomputes the root from target by folding the proof steps in
// order and compares it with expectedRoot. An unrecognized side tag is
// a verification failure, never an error: verification must be safe to
// run on untrusted proof data.
func Verify(proof Proof, target, expectedRoot string) bool {
	computed := target
	for _, step := range proof {
		switch step.Side {
		case SideLeft:
			computed = HashClause(step.Sibling + computed)
		case SideRight:
			computed = HashClause(computed + step.Sibling)
		default:
			return false
		}
	}
	return computed == expectedRoot
}
