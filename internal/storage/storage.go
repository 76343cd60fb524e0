// Package storage hands uploaded images to a durable location so the vision
// collaborator can be given a stable reference.
package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ObjectStore persists one uploaded object and returns a URL for it.
type ObjectStore interface {
	Store(ctx context.Context, data []byte, name string) (string, error)
}

// LocalStore keeps uploads on the local filesystem. A cloud object store can
// replace it behind the same interface without touching the engine.
type LocalStore struct {
	dir     string
	baseURL string
}

func NewLocalStore(dir, baseURL string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalStore{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (s *LocalStore) Store(_ context.Context, data []byte, name string) (string, error) {
	ext := filepath.Ext(name)
	if ext == "" {
		ext = ".jpg"
	}
	object := uuid.NewString() + ext
	path := filepath.Join(s.dir, object)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write upload: %w", err)
	}
	if s.baseURL != "" {
		return s.baseURL + "/" + object, nil
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve upload path: %w", err)
	}
	return "file://" + abs, nil
}
