package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore implements Store on the local filesystem, one file per key
type LocalStore struct {
	basePath string
}

// NewLocalStore creates a filesystem store rooted at basePath
func NewLocalStore(basePath string) (*LocalStore, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}

	return &LocalStore{basePath: basePath}, nil
}

func (s *LocalStore) path(key string) string {
	return filepath.Join(s.basePath, filepath.FromSlash(key))
}

// Put writes data atomically via temp file and rename
func (s *LocalStore) Put(key string, data []byte) error {
	filePath := s.path(key)

	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return fmt.Errorf("failed to create directory for key %s: %w", key, err)
	}

	tempPath := filePath + ".tmp"
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp file for key %s: %w", key, err)
	}

	if err := os.Rename(tempPath, filePath); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to rename temp file for key %s: %w", key, err)
	}

	return nil
}

// Get retrieves data at the specified key; a missing key is (nil, nil)
func (s *LocalStore) Get(key string) ([]byte, error) {
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read file for key %s: %w", key, err)
	}

	return data, nil
}

// Delete removes data at the specified key; deleting a missing key is a no-op
func (s *LocalStore) Delete(key string) error {
	err := os.Remove(s.path(key))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file for key %s: %w", key, err)
	}
	return nil
}

// Exists reports whether a key exists
func (s *LocalStore) Exists(key string) (bool, error) {
	_, err := os.Stat(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat file for key %s: %w", key, err)
	}
	return true, nil
}

// List returns all keys with the given prefix
func (s *LocalStore) List(prefix string) ([]string, error) {
	var keys []string

	err := filepath.Walk(s.basePath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsPermission(err) {
				return filepath.SkipDir
			}
			return err
		}

		if info.IsDir() {
			return nil
		}

		relPath, err := filepath.Rel(s.basePath, path)
		if err != nil {
			return fmt.Errorf("failed to get relative path: %w", err)
		}

		key := filepath.ToSlash(relPath)
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}

		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to walk directory: %w", err)
	}

	return keys, nil
}
