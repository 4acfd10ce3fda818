// Package blob abstracts where attachment bytes are persisted.
package blob

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Store uploads attachment payloads and returns a public URL for them.
type Store interface {
	Upload(ctx context.Context, path string, data []byte, contentType string) (string, error)
}

// LocalStore writes blobs under a root directory and serves them from a
// configured public base URL. Content type is carried in the path only;
// a real object store implementation would set it as metadata.
type LocalStore struct {
	root    string
	baseURL string
}

// NewLocalStore creates a disk-backed blob store.
func NewLocalStore(root, baseURL string) *LocalStore {
	return &LocalStore{root: root, baseURL: strings.TrimSuffix(baseURL, "/")}
}

// Upload writes the payload and returns its public URL.
func (s *LocalStore) Upload(ctx context.Context, path string, data []byte, contentType string) (string, error) {
	clean := filepath.Clean("/" + path)
	target := filepath.Join(s.root, clean)

	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return "", fmt.Errorf("failed to create blob directory: %w", err)
	}
	if err := os.WriteFile(target, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write blob: %w", err)
	}

	return s.baseURL + filepath.ToSlash(clean), nil
}
