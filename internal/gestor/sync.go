package gestor

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"
)

// SyncStatus is the state of the remote sync engine.
type SyncStatus string

const (
	SyncIdle    SyncStatus = "idle"
	SyncSyncing SyncStatus = "syncing"
	SyncSynced  SyncStatus = "synced"
	SyncError   SyncStatus = "error"
)

// DefaultSyncDelay is the debounce window between the last mutation and the push.
const DefaultSyncDelay = 2 * time.Second

// pushTimeout bounds a push started by the debounce timer.
const pushTimeout = 30 * time.Second

// SyncerOptions configures a Syncer.
type SyncerOptions struct {
	// Remote is the authoritative store. Nil disables sync; status stays idle.
	Remote      RemoteStore
	UserID      string
	Credentials Credentials
	Delay       time.Duration
	Scheduler   Scheduler
	Logger      Logger
	Notifier    Notifier
}

// Syncer pushes snapshots to the remote store after a debounce window.
//
// Each Schedule cancels the pending timer and starts a new one, so a burst of
// mutations produces one push carrying the latest snapshot. A push that has
// already started is never cancelled; pushes are serialized so a newer push
// starts only after the in-flight one completes.
type Syncer struct {
	remote    RemoteStore
	userID    string
	creds     Credentials
	delay     time.Duration
	scheduler Scheduler
	logger    Logger
	notifier  Notifier

	mu        sync.Mutex
	status    SyncStatus
	lastErr   error
	pending   Timer
	gen       uint64
	latest    *Snapshot
	listeners []func(SyncStatus)

	pushMu   sync.Mutex
	inflight sync.WaitGroup
}

func NewSyncer(opts SyncerOptions) *Syncer {
	if opts.Delay <= 0 {
		opts.Delay = DefaultSyncDelay
	}
	if opts.Scheduler == nil {
		opts.Scheduler = RealScheduler{}
	}
	if opts.Logger == nil {
		opts.Logger = NewNopLogger()
	}
	if opts.Notifier == nil {
		opts.Notifier = NopNotifier{}
	}
	return &Syncer{
		remote:    opts.Remote,
		userID:    opts.UserID,
		creds:     opts.Credentials,
		delay:     opts.Delay,
		scheduler: opts.Scheduler,
		logger:    opts.Logger,
		notifier:  opts.Notifier,
		status:    SyncIdle,
	}
}

// Enabled reports whether a remote store is configured.
func (s *Syncer) Enabled() bool { return s.remote != nil }

func (s *Syncer) Status() SyncStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// LastError returns the error behind the most recent transition to SyncError.
func (s *Syncer) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// OnStatusChange registers fn to be called after every status transition.
func (s *Syncer) OnStatusChange(fn func(SyncStatus)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

func (s *Syncer) setStatus(status SyncStatus, err error) {
	s.mu.Lock()
	changed := s.status != status
	s.status = status
	if status == SyncError {
		s.lastErr = err
	}
	listeners := slices.Clone(s.listeners)
	s.mu.Unlock()

	if !changed {
		return
	}
	for _, fn := range listeners {
		fn(status)
	}
}

// Pending reports whether a debounced push is waiting to fire.
func (s *Syncer) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending != nil
}

// Schedule arms the debounce timer for snap, replacing any pending push.
func (s *Syncer) Schedule(snap *Snapshot) {
	if !s.Enabled() {
		return
	}
	s.mu.Lock()
	if s.pending != nil {
		s.pending.Stop()
	}
	s.gen++
	gen := s.gen
	s.latest = snap
	s.pending = s.scheduler.AfterFunc(s.delay, func() { s.fire(gen) })
	s.mu.Unlock()

	s.setStatus(SyncSyncing, nil)
}

// fire runs when the debounce window of generation gen elapses. A timer that
// was superseded after it started firing is ignored.
func (s *Syncer) fire(gen uint64) {
	s.mu.Lock()
	if gen != s.gen || s.pending == nil {
		s.mu.Unlock()
		return
	}
	snap := s.latest
	s.pending = nil
	s.inflight.Add(1)
	s.mu.Unlock()
	defer s.inflight.Done()

	ctx, cancel := context.WithTimeout(context.Background(), pushTimeout)
	defer cancel()
	_ = s.Push(ctx, snap)
}

// takePending cancels the pending timer and returns the snapshot it would
// have pushed, or nil if nothing was pending.
func (s *Syncer) takePending() *Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending == nil {
		return nil
	}
	s.pending.Stop()
	s.pending = nil
	s.gen++
	return s.latest
}

// Push stores snap remotely now. Failures move the status to SyncError and
// are reported through the notifier; the returned error wraps ErrRemoteSync.
func (s *Syncer) Push(ctx context.Context, snap *Snapshot) error {
	if !s.Enabled() {
		return nil
	}
	s.pushMu.Lock()
	defer s.pushMu.Unlock()

	s.setStatus(SyncSyncing, nil)
	if err := s.remote.Store(ctx, s.userID, snap, s.creds); err != nil {
		s.setStatus(SyncError, err)
		s.logger.Error("remote push failed", "user", s.userID, "error", err)
		s.notifier.Notify(NoticeError, "Could not sync with the cloud. Your changes are saved locally.")
		return fmt.Errorf("%w: %w", ErrRemoteSync, err)
	}
	s.setStatus(SyncSynced, nil)
	s.logger.Info("remote push complete", "user", s.userID, "documents", len(snap.Documents), "tasks", len(snap.Tasks))
	return nil
}

// Retry cancels any pending timer and pushes snap immediately.
func (s *Syncer) Retry(ctx context.Context, snap *Snapshot) error {
	if !s.Enabled() {
		return nil
	}
	s.takePending()
	return s.Push(ctx, snap)
}

// Flush fires a pending push immediately. It is a no-op when nothing is pending.
func (s *Syncer) Flush(ctx context.Context) error {
	snap := s.takePending()
	if snap == nil {
		return nil
	}
	return s.Push(ctx, snap)
}

// Fetch loads the user's snapshot from the remote store.
func (s *Syncer) Fetch(ctx context.Context) (*Snapshot, bool, error) {
	if !s.Enabled() {
		return nil, false, nil
	}
	s.setStatus(SyncSyncing, nil)
	snap, found, err := s.remote.Fetch(ctx, s.userID, s.creds)
	if err != nil {
		s.setStatus(SyncError, err)
		return nil, false, fmt.Errorf("%w: %w", ErrRemoteSync, err)
	}
	s.setStatus(SyncSynced, nil)
	return snap, found, nil
}

// Close flushes any pending push and waits for timer-started pushes to finish.
func (s *Syncer) Close(ctx context.Context) error {
	err := s.Flush(ctx)
	s.inflight.Wait()
	return err
}
