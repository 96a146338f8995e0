// Package store persists application state as JSON blobs behind a small
// key-value seam.
package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// ErrNotFound is returned when a key has never been saved. Typed accessors
// treat it as an empty collection.
var ErrNotFound = errors.New("store: key not found")

// KV is the persistence seam. Implementations must be safe for concurrent
// use.
type KV interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
}

// FileKV keeps one JSON file per key under a data directory. A single writer
// is assumed; writes go through a temp file and rename so a crash never
// leaves a half-written blob.
type FileKV struct {
	dir string
}

// NewFileKV creates the data directory if needed.
func NewFileKV(dir string) (*FileKV, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("NewFileKV: create data dir: %w", err)
	}
	return &FileKV{dir: dir}, nil
}

// Load implements the KV interface.
func (f *FileKV) Load(ctx context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(f.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("Load %q: %w", key, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("Load %q: %w", key, err)
	}
	return data, nil
}

// Save implements the KV interface.
func (f *FileKV) Save(ctx context.Context, key string, data []byte) error {
	tmp := f.path(key) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("Save %q: %w", key, err)
	}
	if err := os.Rename(tmp, f.path(key)); err != nil {
		return fmt.Errorf("Save %q: %w", key, err)
	}
	return nil
}

func (f *FileKV) path(key string) string {
	return filepath.Join(f.dir, key+".json")
}

// MemoryKV is an in-memory implementation of KV.
// Data is lost on restart - used by tests and the throwaway dev mode.
type MemoryKV struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryKV creates an empty in-memory store.
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{data: make(map[string][]byte)}
}

// Load implements the KV interface.
// It returns a copy to avoid external modifications.
func (m *MemoryKV) Load(ctx context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, exists := m.data[key]
	if !exists {
		return nil, fmt.Errorf("Load %q: %w", key, ErrNotFound)
	}

	cp := make([]byte, len(data))
	copy(cp, data)
	return cp, nil
}

// Save implements the KV interface.
func (m *MemoryKV) Save(ctx context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := make([]byte, len(data))
	copy(cp, data)
	m.data[key] = cp
	return nil
}

// Ensure both implementations satisfy the KV interface.
var (
	_ KV = (*FileKV)(nil)
	_ KV = (*MemoryKV)(nil)
)
