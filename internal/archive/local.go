package archive

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// LocalBackend stores blobs under a directory. Useful for development and
// single-node deployments.
type LocalBackend struct {
	BaseDir string
}

// NewLocalBackend creates a LocalBackend rooted at baseDir.
func NewLocalBackend(baseDir string) *LocalBackend {
	return &LocalBackend{BaseDir: baseDir}
}

func (b *LocalBackend) path(key string) string {
	return filepath.Join(b.BaseDir, filepath.FromSlash(key))
}

// Put writes data to key, creating parent directories.
func (b *LocalBackend) Put(ctx context.Context, key string, data []byte) error {
	path := b.path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Get reads key.
func (b *LocalBackend) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(b.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", key, ErrNotFound)
	}
	return data, err
}
