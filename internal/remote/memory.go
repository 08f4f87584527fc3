package remote

import (
	"context"
	"sync"

	"gestor-go/internal/gestor"
)

// MemoryStore is an in-memory remote store. Snapshots are kept encoded, the
// way a real remote holds them, so callers never share state with it.
// This implementation is safe for concurrent use.
type MemoryStore struct {
	mu      sync.Mutex
	data    map[string][]byte
	fetches int
	stores  int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func (m *MemoryStore) Fetch(ctx context.Context, userID string, creds gestor.Credentials) (*gestor.Snapshot, bool, error) {
	m.mu.Lock()
	raw, ok := m.data[userID]
	m.fetches++
	m.mu.Unlock()
	if !ok {
		return nil, false, nil
	}
	return decodeFetched(raw)
}

func (m *MemoryStore) Store(ctx context.Context, userID string, snap *gestor.Snapshot, creds gestor.Credentials) error {
	raw, err := gestor.EncodeSnapshot(snap)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[userID] = raw
	m.stores++
	return nil
}

// Stores returns how many pushes were received.
func (m *MemoryStore) Stores() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stores
}

// Fetches returns how many fetches were served.
func (m *MemoryStore) Fetches() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fetches
}

// Raw returns the stored JSON for userID.
func (m *MemoryStore) Raw(userID string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.data[userID]
	return raw, ok
}

var _ gestor.RemoteStore = (*MemoryStore)(nil)
