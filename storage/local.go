package storage

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore implements ObjectStore on the local filesystem. Keys map to
// relative file paths under the base directory. Metadata is ignored.
type LocalStore struct {
	basePath string
}

// NewLocalStore creates a new local store instance
func NewLocalStore(basePath string) (*LocalStore, error) {
	// Create base directory if it doesn't exist
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	return &LocalStore{
		basePath: basePath,
	}, nil
}

// Put stores an object as a file under the base directory
func (s *LocalStore) Put(ctx context.Context, key string, body []byte, metadata map[string]string) error {
	fullPath := filepath.Join(s.basePath, filepath.FromSlash(key))

	// Create directory structure
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	if err := os.WriteFile(fullPath, body, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	return nil
}

// Get retrieves an object by key
func (s *LocalStore) Get(ctx context.Context, key string) ([]byte, error) {
	fullPath := filepath.Join(s.basePath, filepath.FromSlash(key))

	body, err := os.ReadFile(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("object not found: %s", key)
		}
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	return body, nil
}

// List returns all keys under the given prefix
func (s *LocalStore) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string

	err := filepath.WalkDir(s.basePath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(s.basePath, path)
		if err != nil {
			return err
		}

		key := filepath.ToSlash(rel)
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list local objects: %w", err)
	}

	return keys, nil
}
