package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/pywhiz/pywhiz/internal/storage/local"
)

const (
	fileCollection = "flags"
	fileDocument   = "local"
)

// FileStore keeps all flags in a single JSON document. Every write reloads
// the document first so that another process's keys survive.
type FileStore struct {
	mu    sync.Mutex
	store *local.Store
}

// NewFileStore creates a file backend rooted at dir
func NewFileStore(dir string) (*FileStore, error) {
	store, err := local.NewStore(dir)
	if err != nil {
		return nil, err
	}
	return &FileStore{store: store}, nil
}

func (s *FileStore) load() (map[string]string, error) {
	values := make(map[string]string)
	err := s.store.Load(fileCollection, fileDocument, &values)
	if errors.Is(err, local.ErrNotFound) {
		return make(map[string]string), nil
	}
	// Flags are rebuildable; a damaged document is replaced on the next write
	if errors.Is(err, local.ErrCorrupt) {
		slog.Warn("discarding corrupt flag cache", "error", err)
		return make(map[string]string), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load flags: %w", err)
	}
	if values == nil {
		values = make(map[string]string)
	}
	return values, nil
}

func (s *FileStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	values, err := s.load()
	if err != nil {
		return "", false, err
	}
	v, ok := values[key]
	return v, ok, nil
}

func (s *FileStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	values, err := s.load()
	if err != nil {
		return err
	}
	values[key] = value
	return s.store.Save(fileCollection, fileDocument, values)
}

func (s *FileStore) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	values, err := s.load()
	if err != nil {
		return err
	}
	if _, ok := values[key]; !ok {
		return nil
	}
	delete(values, key)
	return s.store.Save(fileCollection, fileDocument, values)
}

func (s *FileStore) Keys(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	values, err := s.load()
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *FileStore) Close() error {
	return nil
}
