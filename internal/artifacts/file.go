package artifacts

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileStore keeps the current artifact as a plain file in dir, the way the
// download endpoint expects to find config.yaml on disk. Revision history
// lives in memory only.
type FileStore struct {
	dir string

	mu        sync.RWMutex
	revisions map[string][]Revision
}

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create artifact dir: %w", err)
	}
	return &FileStore{
		dir:       dir,
		revisions: make(map[string][]Revision),
	}, nil
}

func (s *FileStore) Backend() string { return "file" }

func (s *FileStore) Put(ctx context.Context, u Upload) (Revision, error) {
	path, err := s.path(u.Name)
	if err != nil {
		return Revision{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(s.dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return Revision{}, fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(u.Content); err != nil {
		tmp.Close()
		return Revision{}, fmt.Errorf("failed to write artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return Revision{}, fmt.Errorf("failed to close artifact: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return Revision{}, fmt.Errorf("failed to move artifact into place: %w", err)
	}

	rev := NewRevision(u)
	s.revisions[u.Name] = append(s.revisions[u.Name], rev)
	return rev, nil
}

func (s *FileStore) Get(ctx context.Context, name string) ([]byte, error) {
	path, err := s.path(name)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read artifact: %w", err)
	}
	return data, nil
}

// List returns revisions newest first.
func (s *FileStore) List(ctx context.Context, name string) ([]Revision, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	revs := s.revisions[name]
	out := make([]Revision, 0, len(revs))
	for i := len(revs) - 1; i >= 0; i-- {
		out = append(out, revs[i])
	}
	return out, nil
}

func (s *FileStore) path(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || name == "." || name == ".." {
		return "", fmt.Errorf("invalid artifact name %q", name)
	}
	return filepath.Join(s.dir, name), nil
}
