package blobstore

import (
	"fmt"
	"sync"

	"gestor-go/internal/gestor"
)

// MemoryStore is an in-memory implementation of gestor.BlobStore.
// It backs read-only period views and tests.
// This implementation is safe for concurrent use.
type MemoryStore struct {
	blobs map[string]gestor.Attachment
	mu    sync.RWMutex
}

// NewMemoryStore creates an empty in-memory blob store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: make(map[string]gestor.Attachment)}
}

// Put stores a copy of file under id, replacing any earlier blob.
func (m *MemoryStore) Put(id string, file *gestor.Attachment) error {
	if file == nil {
		return fmt.Errorf("nil attachment for %s", id)
	}
	c := *file
	c.Data = append([]byte(nil), file.Data...)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[id] = c
	return nil
}

// Get returns a copy of the blob stored under id.
func (m *MemoryStore) Get(id string) (*gestor.Attachment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	b, ok := m.blobs[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", id, gestor.ErrBlobNotFound)
	}
	b.Data = append([]byte(nil), b.Data...)
	return &b, nil
}

// Delete removes the blob stored under id. Absent ids are ignored.
func (m *MemoryStore) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.blobs, id)
	return nil
}

// Len returns the number of stored blobs.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.blobs)
}

// IDs returns the identifiers of all stored blobs, in no particular order.
func (m *MemoryStore) IDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.blobs))
	for id := range m.blobs {
		ids = append(ids, id)
	}
	return ids
}

var _ gestor.BlobStore = (*MemoryStore)(nil)
