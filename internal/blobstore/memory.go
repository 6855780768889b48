package blobstore

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"sync"
)

// MemoryStore is an in-memory Store for tests. Safe for concurrent use.
type MemoryStore struct {
	blobs map[string][]byte
	dirs  map[string]bool
	mu    sync.RWMutex
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		blobs: make(map[string][]byte),
		dirs:  make(map[string]bool),
	}
}

func (m *MemoryStore) Open(key string) (io.ReadCloser, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.blobs[key]
	if !ok {
		return nil, fmt.Errorf("%s: %w", key, ErrBlobNotFound)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *MemoryStore) Exists(key string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.blobs[key]
	return ok, nil
}

func (m *MemoryStore) Stage(key string, r io.Reader) (Staged, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to stage blob: %w", err)
	}
	return &stagedBuffer{store: m, key: key, data: data}, nil
}

func (m *MemoryStore) Copy(src, dst string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, ok := m.blobs[src]
	if !ok {
		return fmt.Errorf("%s: %w", src, ErrBlobNotFound)
	}
	m.blobs[dst] = append([]byte(nil), data...)
	return nil
}

func (m *MemoryStore) Remove(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.blobs, key)
	return nil
}

func (m *MemoryStore) RemoveAll(prefix string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for key := range m.blobs {
		if key == prefix || strings.HasPrefix(key, prefix+"/") {
			delete(m.blobs, key)
		}
	}
	for key := range m.dirs {
		if key == prefix || strings.HasPrefix(key, prefix+"/") {
			delete(m.dirs, key)
		}
	}
	return nil
}

func (m *MemoryStore) MkdirAll(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dirs[key] = true
	return nil
}

// HasDir reports whether MkdirAll was called for key. Test helper.
func (m *MemoryStore) HasDir(key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.dirs[key]
}

type stagedBuffer struct {
	store *MemoryStore
	key   string
	data  []byte
	done  bool
}

func (b *stagedBuffer) Promote() error {
	if b.done {
		return fmt.Errorf("staged blob already finalized")
	}
	b.store.mu.Lock()
	defer b.store.mu.Unlock()
	b.store.blobs[b.key] = b.data
	b.done = true
	return nil
}

func (b *stagedBuffer) Discard() error {
	b.done = true
	return nil
}

func (b *stagedBuffer) Size() int64 { return int64(len(b.data)) }

var _ Store = (*MemoryStore)(nil)
