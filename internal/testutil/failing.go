package testutil

import (
	"context"
	"errors"
	"sync"

	"gestor-go/internal/gestor"
)

// ErrInjected is the error returned by the failing store wrappers.
var ErrInjected = errors.New("injected failure")

// FailingBlobStore wraps a BlobStore and fails Put after SetFail(true).
type FailingBlobStore struct {
	gestor.BlobStore

	mu   sync.Mutex
	fail bool
}

func NewFailingBlobStore(inner gestor.BlobStore) *FailingBlobStore {
	return &FailingBlobStore{BlobStore: inner}
}

func (s *FailingBlobStore) SetFail(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = fail
}

func (s *FailingBlobStore) Put(id string, file *gestor.Attachment) error {
	s.mu.Lock()
	fail := s.fail
	s.mu.Unlock()
	if fail {
		return ErrInjected
	}
	return s.BlobStore.Put(id, file)
}

// FailingKVStore wraps a KVStore and fails Set after SetFail(true).
type FailingKVStore struct {
	gestor.KVStore

	mu   sync.Mutex
	fail bool
}

func NewFailingKVStore(inner gestor.KVStore) *FailingKVStore {
	return &FailingKVStore{KVStore: inner}
}

func (s *FailingKVStore) SetFail(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = fail
}

func (s *FailingKVStore) Set(key, value string) error {
	s.mu.Lock()
	fail := s.fail
	s.mu.Unlock()
	if fail {
		return ErrInjected
	}
	return s.KVStore.Set(key, value)
}

// FailingPeriodStore wraps a PeriodStore and fails PutArchive after SetFail(true).
type FailingPeriodStore struct {
	gestor.PeriodStore

	mu   sync.Mutex
	fail bool
}

func NewFailingPeriodStore(inner gestor.PeriodStore) *FailingPeriodStore {
	return &FailingPeriodStore{PeriodStore: inner}
}

func (s *FailingPeriodStore) SetFail(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = fail
}

func (s *FailingPeriodStore) PutArchive(a *gestor.ArchivedPeriod) error {
	s.mu.Lock()
	fail := s.fail
	s.mu.Unlock()
	if fail {
		return ErrInjected
	}
	return s.PeriodStore.PutArchive(a)
}

// FailingRemote wraps a RemoteStore. SetFailStore makes Store fail and
// SetFailFetch makes Fetch fail.
type FailingRemote struct {
	gestor.RemoteStore

	mu        sync.Mutex
	failStore bool
	failFetch bool
}

func NewFailingRemote(inner gestor.RemoteStore) *FailingRemote {
	return &FailingRemote{RemoteStore: inner}
}

func (r *FailingRemote) SetFailStore(fail bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failStore = fail
}

func (r *FailingRemote) SetFailFetch(fail bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failFetch = fail
}

func (r *FailingRemote) Fetch(ctx context.Context, userID string, creds gestor.Credentials) (*gestor.Snapshot, bool, error) {
	r.mu.Lock()
	fail := r.failFetch
	r.mu.Unlock()
	if fail {
		return nil, false, ErrInjected
	}
	return r.RemoteStore.Fetch(ctx, userID, creds)
}

func (r *FailingRemote) Store(ctx context.Context, userID string, snap *gestor.Snapshot, creds gestor.Credentials) error {
	r.mu.Lock()
	fail := r.failStore
	r.mu.Unlock()
	if fail {
		return ErrInjected
	}
	return r.RemoteStore.Store(ctx, userID, snap, creds)
}
