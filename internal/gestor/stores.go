package gestor

import (
	"context"
	"time"
)

// BlobStore is a durable map from attachment identifier to binary.
// Put overwrites (last write wins). Get returns ErrBlobNotFound when the id
// is absent. Delete of an absent id is not an error.
type BlobStore interface {
	Put(id string, file *Attachment) error
	Get(id string) (*Attachment, error)
	Delete(id string) error
}

// KVStore is the local structured-record store holding serialized snapshots
// and small settings.
type KVStore interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Delete(key string) error
}

// Credentials is an opaque bearer credential for the remote store.
type Credentials struct {
	Token string
}

// RemoteStore is the authoritative per-user snapshot store. Fetch reports
// found=false when the user has no data yet.
type RemoteStore interface {
	Fetch(ctx context.Context, userID string, creds Credentials) (*Snapshot, bool, error)
	Store(ctx context.Context, userID string, snap *Snapshot, creds Credentials) error
}

// ArchivedPeriod is a sealed container for one calendar year.
type ArchivedPeriod struct {
	Period    int
	Data      []byte
	Encrypted bool
	CreatedAt time.Time
}

// PeriodStore keeps archived period containers. GetArchive returns
// ErrPeriodNotFound when the period was never archived.
type PeriodStore interface {
	PutArchive(a *ArchivedPeriod) error
	GetArchive(period int) (*ArchivedPeriod, error)
	ListArchives() ([]int, error)
}
