package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// FileStorage stores objects as plain files under a root directory. It is
// the default backend for local development and tests.
type FileStorage struct {
	root    string
	baseURL string
}

func NewFileStorage(root, baseURL string) (*FileStorage, error) {
	if err := os.MkdirAll(root, 0o770); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", root, err)
	}
	return &FileStorage{root: root, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (s *FileStorage) path(key string) string {
	return filepath.Join(s.root, filepath.FromSlash(key))
}

func (s *FileStorage) WriteObject(ctx context.Context, key string, r io.Reader) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	p := s.path(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o770); err != nil {
		return 0, fmt.Errorf("mkdir %s: %w", filepath.Dir(p), err)
	}

	f, err := os.Create(p)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", p, err)
	}

	n, err := io.Copy(f, r)
	if err != nil {
		_ = f.Close()
		_ = os.Remove(p)
		return 0, fmt.Errorf("write %s: %w", p, err)
	}

	if err := f.Close(); err != nil {
		return 0, fmt.Errorf("close %s: %w", p, err)
	}

	return n, nil
}

func (s *FileStorage) DeleteObject(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := os.Remove(s.path(key))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", key, err)
	}
	return nil
}

func (s *FileStorage) ObjectURL(key string) string {
	return s.baseURL + "/" + key
}
