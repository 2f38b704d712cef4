// Package blob abstracts the export file destination. Production uploads to
// S3; development writes to a local directory.
package blob

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Store persists export files under a caller-chosen key.
type Store interface {
	Put(ctx context.Context, key string, body []byte) error
}

// FileStore writes objects as files under a base directory.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

func (s *FileStore) Put(_ context.Context, key string, body []byte) error {
	if err := os.MkdirAll(s.dir, 0o750); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}

	path := filepath.Join(s.dir, filepath.Clean(key))
	if err := os.WriteFile(path, body, 0o640); err != nil {
		return fmt.Errorf("failed to write export file: %w", err)
	}
	return nil
}
