package gestor

import (
	"fmt"
)

const (
	snapshotKeyPrefix   = "gestorProData_"
	lastBackupKeyPrefix = "gestorProLastBackup_"
)

// SnapshotKey is the local KV key holding a user's snapshot.
func SnapshotKey(userID string) string { return snapshotKeyPrefix + userID }

// LastBackupKey is the local KV key holding the time of the user's last export.
func LastBackupKey(userID string) string { return lastBackupKeyPrefix + userID }

// Writer persists a workspace to the local stores. Attachments are always
// written before the snapshot that references them.
type Writer struct {
	userID string
	blobs  BlobStore
	kv     KVStore
	idgen  IDGenerator
	logger Logger
}

func NewWriter(userID string, blobs BlobStore, kv KVStore, idgen IDGenerator, logger Logger) *Writer {
	return &Writer{userID: userID, blobs: blobs, kv: kv, idgen: idgen, logger: logger}
}

// Save runs one persistence cycle: store every attachment not yet in the blob
// store, build the snapshot, and write it under the user's key. The returned
// snapshot is what should be pushed to the remote store.
//
// A failed cycle leaves the workspace usable; slots that were stored stay
// marked and the rest are retried on the next Save.
func (w *Writer) Save(ws *Workspace) (*Snapshot, error) {
	stored := 0
	for _, rec := range ws.Records() {
		for _, ref := range rec.Slots() {
			if !ref.needsStore() {
				continue
			}
			ref.mint(w.idgen)
			if err := w.blobs.Put(ref.ID(), ref.File()); err != nil {
				return nil, fmt.Errorf("%w: storing attachment %s of %s: %w", ErrLocalWrite, ref.ID(), rec.RecordID(), err)
			}
			ref.markStored()
			stored++
		}
	}

	snap := ToStorable(ws, w.idgen)
	data, err := EncodeSnapshot(snap)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLocalWrite, err)
	}
	if err := w.kv.Set(SnapshotKey(w.userID), string(data)); err != nil {
		return nil, fmt.Errorf("%w: writing snapshot: %w", ErrLocalWrite, err)
	}

	w.logger.Debug("local snapshot saved", "user", w.userID, "attachments_stored", stored, "bytes", len(data))
	return snap, nil
}

// Load reads the user's local snapshot. found is false when none was ever saved.
func (w *Writer) Load() (*Snapshot, bool, error) {
	raw, found, err := w.kv.Get(SnapshotKey(w.userID))
	if err != nil {
		return nil, false, fmt.Errorf("reading local snapshot: %w", err)
	}
	if !found {
		return nil, false, nil
	}
	snap, err := DecodeSnapshot([]byte(raw))
	if err != nil {
		return nil, false, fmt.Errorf("local snapshot for %s: %w", w.userID, err)
	}
	return snap, true, nil
}

// Mirror writes a snapshot obtained elsewhere (the remote store) into the
// local cache without touching the blob store.
func (w *Writer) Mirror(snap *Snapshot) error {
	data, err := EncodeSnapshot(snap)
	if err != nil {
		return err
	}
	if err := w.kv.Set(SnapshotKey(w.userID), string(data)); err != nil {
		return fmt.Errorf("%w: mirroring snapshot: %w", ErrLocalWrite, err)
	}
	return nil
}
