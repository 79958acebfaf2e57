package contract

import "github.com/veritract/contract-verification/pkg/merkle"

// Document is one version of a contract: its ordered clauses, their
// leaf digests, and the Merkle tree built over them. Documents are
// immutable once constructed.
type Document struct {
	Clauses []string
	Digests []string
	Tree    merkle.Tree
}

// NewDocument extracts clauses from raw text, hashes them in order, and
// builds the document's tree
func NewDocument(text string) *Document {
	clauses := ExtractClauses(text)
	digests := HashClauses(clauses)
	return &Document{
		Clauses: clauses,
		Digests: digests,
		Tree:    merkle.Build(digests),
	}
}

// Root returns the document's Merkle root, or the empty-contract
// sentinel for a document with no clauses
func (d *Document) Root() string {
	return d.Tree.Root()
}

// ClauseByDigest returns the first clause whose digest matches, for
// labeling tree leaves in renderings
func (d *Document) ClauseByDigest(digest string) (string, bool) {
	for i, dg := range d.Digests {
		if dg == digest {
			return d.Clauses[i], true
		}
	}
	return "", false
}

// Prove generates an inclusion proof for the clause at the given index
func (d *Document) Prove(index int) (merkle.Proof, error) {
	if index < 0 || index >= len(d.Digests) {
		return nil, merkle.ErrNotFound
	}
	return merkle.Prove(d.Tree, d.Digests[index])
}
