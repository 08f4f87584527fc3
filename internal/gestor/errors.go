package gestor

import "errors"

var (
	// ErrLocalWrite marks a failed local persistence cycle (blob put, snapshot
	// encoding or key-value write). The in-memory mutation is kept and the
	// cycle is retried on the next mutation.
	ErrLocalWrite = errors.New("local write failed")

	// ErrRemoteSync marks a failed push to or fetch from the remote store.
	ErrRemoteSync = errors.New("remote sync failed")

	// ErrContainerCorrupt marks an archive container without a usable data entry.
	ErrContainerCorrupt = errors.New("archive container corrupt")

	// ErrArchival marks a roll-off whose archive could not be stored.
	// The live workspace is untouched when this is returned.
	ErrArchival = errors.New("archival failed")

	ErrReadOnly       = errors.New("workspace is read-only while viewing an archived period")
	ErrBlobNotFound   = errors.New("blob not found")
	ErrPeriodNotFound = errors.New("archived period not found")
	ErrPeriodExists   = errors.New("archived period already exists")
	ErrFolderNotEmpty = errors.New("folder has subfolders")
	ErrNotFound       = errors.New("record not found")
)
