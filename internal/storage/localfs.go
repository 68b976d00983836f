package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// LocalFS keeps blobs on the local filesystem under a base directory. Writes
// go through a temp file and rename so a crashed upload never leaves a
// half-written object behind the key.
type LocalFS struct {
	basePath string
}

func NewLocalFS(basePath string) (*LocalFS, error) {
	if basePath == "" {
		basePath = "./data/storage"
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &LocalFS{basePath: basePath}, nil
}

func (s *LocalFS) Put(_ context.Context, key string, data io.Reader) error {
	path := filepath.Join(s.basePath, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create object dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".upload-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}()

	if _, err := io.Copy(tmp, data); err != nil {
		return fmt.Errorf("write object: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("flush object: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close object: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("commit object: %w", err)
	}
	return nil
}

func (s *LocalFS) Open(_ context.Context, key string) (io.ReadCloser, error) {
	f, err := os.Open(filepath.Join(s.basePath, filepath.FromSlash(key)))
	if err != nil {
		return nil, fmt.Errorf("open object: %w", err)
	}
	return f, nil
}

func (s *LocalFS) Delete(_ context.Context, key string) error {
	err := os.Remove(filepath.Join(s.basePath, filepath.FromSlash(key)))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}
