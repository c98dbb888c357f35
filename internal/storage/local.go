package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// LocalStore writes annotated images to a directory on disk. It is the
// fallback when no S3-compatible storage is configured.
type LocalStore struct {
	dir string
}

func NewLocalStore(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create reports directory: %w", err)
	}
	return &LocalStore{dir: dir}, nil
}

func (l *LocalStore) Save(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	_ = contentType
	if err := ctx.Err(); err != nil {
		return "", err
	}
	path := filepath.Join(l.dir, filepath.Base(key))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write annotated image: %w", err)
	}
	return path, nil
}

// Delete removes a previously saved image. A reference that is already
// gone is not an error, so deletions stay idempotent.
func (l *LocalStore) Delete(ctx context.Context, ref string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path := filepath.Join(l.dir, filepath.Base(ref))
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove annotated image: %w", err)
	}
	return nil
}
