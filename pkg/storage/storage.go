// Package storage provides the object store the verification service
// uses for comparison artifacts: document snapshots, serialized trees,
// and attestation notes, addressed by slash-separated keys.
package storage

// Store is a flat key/value object store
type Store interface {
	// Get retrieves data by key; returns nil data if the key does not exist
	Get(key string) ([]byte, error)

	// Put stores data at the specified key
	Put(key string, data []byte) error

	// Delete removes data at the specified key
	Delete(key string) error

	// Exists reports whether a key exists
	Exists(key string) (bool, error)

	// List returns all keys with the given prefix
	List(prefix string) ([]string, error)
}
