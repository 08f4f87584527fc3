package gestor

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// BackupReminderInterval is how long after the last export a backup reminder becomes due.
const BackupReminderInterval = 7 * 24 * time.Hour

// CoordinatorOptions wires one user session.
type CoordinatorOptions struct {
	UserID      string
	Credentials Credentials

	Blobs   BlobStore
	KV      KVStore
	Periods PeriodStore
	// Remote is optional. Without it the session is local-only.
	Remote RemoteStore
	// Encryptor is optional. When set, archived periods are sealed with it.
	Encryptor Encryptor
	// NewViewBlobs returns an empty scratch blob store for a period view.
	NewViewBlobs func() BlobStore

	SyncDelay time.Duration
	Scheduler Scheduler
	Clock     Clock
	IDGen     IDGenerator
	Logger    Logger
	Notifier  Notifier
}

// Coordinator owns the live workspace of one user session. It serializes
// every mutation and the persistence cycle that follows it, drives the sync
// engine, and runs export, import and yearly roll-off.
type Coordinator struct {
	userID       string
	blobs        BlobStore
	kv           KVStore
	periods      PeriodStore
	encryptor    Encryptor
	newViewBlobs func() BlobStore
	clock        Clock
	idgen        IDGenerator
	logger       Logger
	notifier     Notifier

	writer   *Writer
	syncer   *Syncer
	packager *Packager

	mu          sync.Mutex
	ws          *Workspace
	view        *periodView
	lastSaveErr error
}

type periodView struct {
	period int
	blobs  BlobStore
}

// NewCoordinator validates opts and returns a coordinator with an empty
// workspace. Call Bootstrap before use.
func NewCoordinator(opts CoordinatorOptions) (*Coordinator, error) {
	if opts.UserID == "" {
		return nil, fmt.Errorf("user id is required")
	}
	if opts.Blobs == nil || opts.KV == nil || opts.Periods == nil {
		return nil, fmt.Errorf("blob, key-value and period stores are required")
	}
	if opts.NewViewBlobs == nil {
		return nil, fmt.Errorf("view blob store factory is required")
	}
	if opts.Clock == nil {
		opts.Clock = RealClock{}
	}
	if opts.IDGen == nil {
		opts.IDGen = UUIDGenerator{}
	}
	if opts.Logger == nil {
		opts.Logger = NewNopLogger()
	}
	if opts.Notifier == nil {
		opts.Notifier = NopNotifier{}
	}

	return &Coordinator{
		userID:       opts.UserID,
		blobs:        opts.Blobs,
		kv:           opts.KV,
		periods:      opts.Periods,
		encryptor:    opts.Encryptor,
		newViewBlobs: opts.NewViewBlobs,
		clock:        opts.Clock,
		idgen:        opts.IDGen,
		logger:       opts.Logger,
		notifier:     opts.Notifier,
		writer:       NewWriter(opts.UserID, opts.Blobs, opts.KV, opts.IDGen, opts.Logger),
		syncer: NewSyncer(SyncerOptions{
			Remote:      opts.Remote,
			UserID:      opts.UserID,
			Credentials: opts.Credentials,
			Delay:       opts.SyncDelay,
			Scheduler:   opts.Scheduler,
			Logger:      opts.Logger,
			Notifier:    opts.Notifier,
		}),
		packager: NewPackager(opts.IDGen, opts.Clock, opts.Logger),
		ws:       NewWorkspace(),
	}, nil
}

// Bootstrap loads the live workspace. When a remote store is configured and
// holds data for the user, the remote snapshot wins and is mirrored into the
// local cache. A failed fetch falls back to the local snapshot.
func (c *Coordinator) Bootstrap(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bootstrapLocked(ctx)
}

func (c *Coordinator) bootstrapLocked(ctx context.Context) error {
	snap, err := c.loadSourceLocked(ctx)
	if err != nil {
		return err
	}
	c.ws = Hydrate(snap, c.blobs, c.logger)
	c.view = nil
	c.logger.Info("workspace loaded", "user", c.userID, "documents", len(c.ws.Documents), "tasks", len(c.ws.Tasks), "outgoing", len(c.ws.OutgoingDocuments), "sync", c.syncer.Status())
	return nil
}

func (c *Coordinator) loadSourceLocked(ctx context.Context) (*Snapshot, error) {
	if c.syncer.Enabled() {
		// Pending local changes go out before the remote copy is allowed to
		// replace them. If they cannot, the local snapshot is authoritative.
		if err := c.syncer.Flush(ctx); err != nil {
			c.logger.Warn("pending push failed before reload, using local data", "user", c.userID, "error", err)
			return c.loadLocal()
		}
		remote, found, err := c.syncer.Fetch(ctx)
		switch {
		case err != nil:
			c.logger.Warn("remote fetch failed, using local data", "user", c.userID, "error", err)
			c.notifier.Notify(NoticeError, "Could not load data from the cloud. Showing local data.")
		case found:
			if err := c.writer.Mirror(remote); err != nil {
				c.logger.Warn("failed to mirror remote snapshot locally", "user", c.userID, "error", err)
			}
			return remote, nil
		}
	}
	return c.loadLocal()
}

func (c *Coordinator) loadLocal() (*Snapshot, error) {
	snap, found, err := c.writer.Load()
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return snap, nil
}

// Read calls fn with the current workspace under the session lock. fn must
// not retain or modify the workspace.
func (c *Coordinator) Read(fn func(ws *Workspace)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(c.ws)
}

// Mutate applies fn to the live workspace and runs a persistence cycle.
// It returns fn's error, or ErrReadOnly while an archived period is shown.
// Persistence and sync failures are reported through the notifier, not
// returned: the mutation stays in memory and is saved with the next one.
func (c *Coordinator) Mutate(ctx context.Context, fn func(ws *Workspace) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.view != nil {
		return ErrReadOnly
	}
	if err := fn(c.ws); err != nil {
		return err
	}
	c.persistLocked()
	return nil
}

// persistLocked runs the local write and schedules the debounced push.
func (c *Coordinator) persistLocked() bool {
	if c.view != nil {
		return false
	}
	snap, err := c.writer.Save(c.ws)
	if err != nil {
		c.lastSaveErr = err
		c.logger.Error("local save failed", "user", c.userID, "error", err)
		c.notifier.Notify(NoticeError, "Could not save your changes on this device.")
		return false
	}
	c.lastSaveErr = nil
	c.syncer.Schedule(snap)
	return true
}

// LastSaveError returns the error of the last failed local save, or nil if
// the most recent cycle succeeded.
func (c *Coordinator) LastSaveError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastSaveErr
}

func (c *Coordinator) SyncStatus() SyncStatus { return c.syncer.Status() }

func (c *Coordinator) SyncError() error { return c.syncer.LastError() }

func (c *Coordinator) OnSyncStatusChange(fn func(SyncStatus)) { c.syncer.OnStatusChange(fn) }

// SyncEnabled reports whether the session has a remote store.
func (c *Coordinator) SyncEnabled() bool { return c.syncer.Enabled() }

// RetrySync saves the live workspace and pushes it immediately.
func (c *Coordinator) RetrySync(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.view != nil {
		return ErrReadOnly
	}
	if !c.syncer.Enabled() {
		return fmt.Errorf("no remote store configured")
	}
	snap, err := c.writer.Save(c.ws)
	if err != nil {
		c.lastSaveErr = err
		return err
	}
	c.lastSaveErr = nil
	return c.syncer.Retry(ctx, snap)
}

// ReadOnly reports whether an archived period is being shown.
func (c *Coordinator) ReadOnly() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view != nil
}

// ViewingPeriod returns the archived period being shown, if any.
func (c *Coordinator) ViewingPeriod() (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.view == nil {
		return 0, false
	}
	return c.view.period, true
}

// ExportArchive packages the current workspace into a container and records
// the export time for the backup reminder.
func (c *Coordinator) ExportArchive(ctx context.Context) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := c.packager.Export(c.ws)
	if err != nil {
		return nil, err
	}
	if c.view != nil {
		return data, nil
	}
	// Export may have minted ids; save them so the container matches what is stored.
	c.persistLocked()
	stamp := c.clock.Now().UTC().Format(time.RFC3339)
	if err := c.kv.Set(LastBackupKey(c.userID), stamp); err != nil {
		c.logger.Warn("failed to record backup time", "user", c.userID, "error", err)
	}
	return data, nil
}

// ImportArchive replaces the live workspace with the contents of a container.
// The caller is responsible for confirming the replacement.
func (c *Coordinator) ImportArchive(ctx context.Context, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.view != nil {
		return ErrReadOnly
	}
	snap, err := c.packager.Restore(data, c.blobs)
	if err != nil {
		return err
	}
	c.ws = Hydrate(snap, c.blobs, c.logger)
	if c.persistLocked() {
		c.notifier.Notify(NoticeSuccess, "Backup restored.")
	}
	return nil
}

// BackupReminderDue reports whether the user never exported or last exported
// more than BackupReminderInterval ago.
func (c *Coordinator) BackupReminderDue() (bool, error) {
	raw, found, err := c.kv.Get(LastBackupKey(c.userID))
	if err != nil {
		return false, fmt.Errorf("reading last backup time: %w", err)
	}
	if !found {
		return true, nil
	}
	last, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return true, nil
	}
	return c.clock.Now().Sub(last) > BackupReminderInterval, nil
}

// ArchiveCurrentPeriod seals the entire live workspace as the archive of the
// current calendar year and then resets the workspace. Nothing is reset or
// deleted unless the archive was stored; a store failure returns ErrArchival.
func (c *Coordinator) ArchiveCurrentPeriod(ctx context.Context) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.view != nil {
		return 0, ErrReadOnly
	}

	period := c.clock.Now().Year()
	existing, err := c.periods.ListArchives()
	if err != nil {
		return 0, fmt.Errorf("%w: listing archives: %w", ErrArchival, err)
	}
	for _, p := range existing {
		if p == period {
			return 0, fmt.Errorf("%d: %w", period, ErrPeriodExists)
		}
	}

	data, err := c.packager.Export(c.ws)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrArchival, err)
	}
	encrypted := false
	if c.encryptor != nil {
		var sealed bytes.Buffer
		if err := c.encryptor.Encrypt(bytes.NewReader(data), &sealed); err != nil {
			return 0, fmt.Errorf("%w: encrypting archive: %w", ErrArchival, err)
		}
		data = sealed.Bytes()
		encrypted = true
	}
	archive := &ArchivedPeriod{Period: period, Data: data, Encrypted: encrypted, CreatedAt: c.clock.Now().UTC()}
	if err := c.periods.PutArchive(archive); err != nil {
		c.logger.Error("archive store failed, workspace kept", "user", c.userID, "period", period, "error", err)
		c.notifier.Notify(NoticeError, "Could not archive the year. No data was removed.")
		return 0, fmt.Errorf("%w: storing archive %d: %w", ErrArchival, period, err)
	}

	archivedIDs := c.ws.AttachmentIDs()
	c.ws = NewWorkspace()
	for _, id := range archivedIDs {
		if err := c.blobs.Delete(id); err != nil {
			c.logger.Warn("failed to delete archived attachment", "attachment", id, "error", err)
		}
	}
	c.persistLocked()
	// The reset must reach the remote store before anything reloads from it.
	if err := c.syncer.Flush(ctx); err != nil {
		c.logger.Warn("push after archival failed", "user", c.userID, "error", err)
	}

	c.logger.Info("period archived", "user", c.userID, "period", period, "bytes", len(data), "encrypted", encrypted, "attachments", len(archivedIDs))
	c.notifier.Notify(NoticeSuccess, fmt.Sprintf("Year %d archived.", period))
	return period, nil
}

// ListPeriods returns the archived years, newest first.
func (c *Coordinator) ListPeriods() ([]int, error) {
	periods, err := c.periods.ListArchives()
	if err != nil {
		return nil, fmt.Errorf("listing archives: %w", err)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(periods)))
	return periods, nil
}

// ArchiveEncrypted reports whether the given period's container is sealed,
// so callers know to prompt for a passphrase.
func (c *Coordinator) ArchiveEncrypted(period int) (bool, error) {
	a, err := c.periods.GetArchive(period)
	if err != nil {
		return false, err
	}
	return a.Encrypted, nil
}

// ViewPeriod replaces the live view with an archived period, read-only.
// dec is required only for encrypted archives. Attachments are restored into
// a scratch blob store so the live blob store is not touched.
func (c *Coordinator) ViewPeriod(ctx context.Context, period int, dec DecryptionContext) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Unsaved live changes would be lost when the view is swapped in.
	if c.view == nil && c.lastSaveErr != nil && !c.persistLocked() {
		return fmt.Errorf("cannot leave unsaved changes: %w", c.lastSaveErr)
	}

	a, err := c.periods.GetArchive(period)
	if err != nil {
		return err
	}
	data := a.Data
	if a.Encrypted {
		if dec == nil {
			return fmt.Errorf("archive %d is encrypted: passphrase required", period)
		}
		var plain bytes.Buffer
		if err := dec.Decrypt(bytes.NewReader(data), &plain); err != nil {
			return fmt.Errorf("decrypting archive %d: %w", period, err)
		}
		data = plain.Bytes()
	}

	scratch := c.newViewBlobs()
	snap, err := c.packager.Restore(data, scratch)
	if err != nil {
		return fmt.Errorf("opening archive %d: %w", period, err)
	}
	c.ws = Hydrate(snap, scratch, c.logger)
	c.view = &periodView{period: period, blobs: scratch}
	c.logger.Info("viewing archived period", "user", c.userID, "period", period)
	c.notifier.Notify(NoticeInfo, fmt.Sprintf("Viewing archived year %d (read-only).", period))
	return nil
}

// ExitPeriodView discards the archived view and reloads the live workspace.
func (c *Coordinator) ExitPeriodView(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.view == nil {
		return nil
	}
	// bootstrapLocked swaps the workspace and clears the view only once the
	// live source has loaded; on failure the read-only view stays.
	return c.bootstrapLocked(ctx)
}

// Close flushes any pending push. The session must not be used afterwards.
func (c *Coordinator) Close(ctx context.Context) error {
	return c.syncer.Close(ctx)
}
