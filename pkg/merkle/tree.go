package merkle

// EmptyContractRoot is the sentinel root for a tree built from zero
// leaves. It is not a valid hex digest, so it can never collide with a
// real root.
const EmptyContractRoot = "EMPTY_CONTRACT"

// Level is an ordered sequence of digests at one tree depth
type Level []string

// Tree is an ordered sequence of levels, leaves first, root level last.
// A tree built from no leaves has no levels at all, which is distinct
// from a one-leaf tree (a single level whose sole digest is the root).
// Trees are immutable once built.
type Tree []Level

// Build constructs the full tree from an ordered sequence of leaf
// digests. Each level is derived from the previous by hashing
// consecutive pairs left-to-right; an unpaired trailing node is paired
// with itself (the duplicate is only an input to the parent hash, never
// stored as a node). Construction stops when a level has one digest.
func Build(leaves []string) Tree {
	if len(leaves) == 0 {
		return nil
	}

	level0 := make(Level, len(leaves))
	copy(level0, leaves)

	tree := Tree{level0}
	for {
		current := tree[len(tree)-1]
		if len(current) == 1 {
			return tree
		}

		next := make(Level, 0, (len(current)+1)/2)
		for i := 0; i < len(current); i += 2 {
			left := current[i]
			right := left
			if i+1 < len(current) {
				right = current[i+1]
			}
			next = append(next, HashClause(left+right))
		}
		tree = append(tree, next)
	}
}

// Root returns the sole digest of the last level, or EmptyContractRoot
// if the tree has no levels.
func (t Tree) Root() string {
	if len(t) == 0 || len(t[len(t)-1]) == 0 {
		return EmptyContractRoot
	}
	return t[len(t)-1][0]
}

// LeafCount returns the number of leaf digests
func (t Tree) LeafCount() int {
	if len(t) == 0 {
		return 0
	}
	return len(t[0])
}

// Height returns the number of levels
func (t Tree) Height() int {
	return len(t)
}

// RootsEqual reports whether two roots commit to identical documents
func RootsEqual(root1, root2 string) bool {
	return root1 == root2
}
