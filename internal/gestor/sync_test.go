package gestor_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"gestor-go/internal/gestor"
	"gestor-go/internal/remote"
	"gestor-go/internal/testutil"
)

func snapshotWithSubject(subject string) *gestor.Snapshot {
	return &gestor.Snapshot{
		Documents:         []gestor.StoredDocument{{ID: "doc-1", Subject: subject}},
		Tasks:             []gestor.StoredTask{},
		OutgoingDocuments: []gestor.StoredOutgoingDocument{},
	}
}

type syncFixture struct {
	cloud    *remote.MemoryStore
	remote   *testutil.FailingRemote
	sched    *testutil.ManualScheduler
	notifier *testutil.RecordingNotifier
	syncer   *gestor.Syncer
}

func newSyncFixture(delay time.Duration) *syncFixture {
	f := &syncFixture{
		cloud:    remote.NewMemoryStore(),
		sched:    testutil.NewManualScheduler(),
		notifier: testutil.NewRecordingNotifier(),
	}
	f.remote = testutil.NewFailingRemote(f.cloud)
	f.syncer = gestor.NewSyncer(gestor.SyncerOptions{
		Remote:    f.remote,
		UserID:    testUser,
		Delay:     delay,
		Scheduler: f.sched,
		Notifier:  f.notifier,
	})
	return f
}

func TestSyncer_Debounce(t *testing.T) {
	t.Run("uses the default window", func(t *testing.T) {
		f := newSyncFixture(0)
		f.syncer.Schedule(snapshotWithSubject("a"))
		if got := f.sched.LastDelay(); got != gestor.DefaultSyncDelay {
			t.Errorf("delay = %v, want %v", got, gestor.DefaultSyncDelay)
		}
	})

	t.Run("push happens only after the window", func(t *testing.T) {
		f := newSyncFixture(time.Second)
		f.syncer.Schedule(snapshotWithSubject("a"))

		if f.syncer.Status() != gestor.SyncSyncing {
			t.Errorf("Status() = %v, want syncing", f.syncer.Status())
		}
		if !f.syncer.Pending() {
			t.Error("Pending() = false, want true")
		}
		if f.cloud.Stores() != 0 {
			t.Fatalf("pushed before the window elapsed")
		}

		f.sched.Fire()
		if f.cloud.Stores() != 1 {
			t.Errorf("Stores() = %d, want 1", f.cloud.Stores())
		}
		if f.syncer.Status() != gestor.SyncSynced {
			t.Errorf("Status() = %v, want synced", f.syncer.Status())
		}
		if f.syncer.Pending() {
			t.Error("Pending() = true after fire")
		}
	})

	t.Run("burst coalesces into one push of the latest snapshot", func(t *testing.T) {
		f := newSyncFixture(time.Second)
		for _, s := range []string{"a", "b", "c", "d", "e"} {
			f.syncer.Schedule(snapshotWithSubject(s))
		}
		if got := f.sched.Pending(); got != 1 {
			t.Errorf("pending timers = %d, want 1", got)
		}
		f.sched.Fire()

		if f.cloud.Stores() != 1 {
			t.Fatalf("Stores() = %d, want 1", f.cloud.Stores())
		}
		got, _, err := f.cloud.Fetch(context.Background(), testUser, gestor.Credentials{})
		if err != nil {
			t.Fatalf("Fetch() error = %v", err)
		}
		if got.Documents[0].Subject != "e" {
			t.Errorf("pushed subject = %q, want latest %q", got.Documents[0].Subject, "e")
		}
	})
}

func TestSyncer_Failure(t *testing.T) {
	f := newSyncFixture(time.Second)
	f.remote.SetFailStore(true)

	f.syncer.Schedule(snapshotWithSubject("a"))
	f.sched.Fire()

	if f.syncer.Status() != gestor.SyncError {
		t.Fatalf("Status() = %v, want error", f.syncer.Status())
	}
	if !errors.Is(f.syncer.LastError(), testutil.ErrInjected) {
		t.Errorf("LastError() = %v, want injected failure", f.syncer.LastError())
	}
	if got := f.notifier.Count(gestor.NoticeError); got != 1 {
		t.Errorf("error notices = %d, want 1", got)
	}

	f.remote.SetFailStore(false)
	if err := f.syncer.Retry(context.Background(), snapshotWithSubject("b")); err != nil {
		t.Fatalf("Retry() error = %v", err)
	}
	if f.syncer.Status() != gestor.SyncSynced {
		t.Errorf("Status() = %v after retry, want synced", f.syncer.Status())
	}
}

func TestSyncer_PushErrorWrapsRemoteSync(t *testing.T) {
	f := newSyncFixture(time.Second)
	f.remote.SetFailStore(true)
	err := f.syncer.Push(context.Background(), snapshotWithSubject("a"))
	if !errors.Is(err, gestor.ErrRemoteSync) {
		t.Errorf("Push() error = %v, want ErrRemoteSync", err)
	}
}

func TestSyncer_Flush(t *testing.T) {
	t.Run("pushes pending snapshot now", func(t *testing.T) {
		f := newSyncFixture(time.Second)
		f.syncer.Schedule(snapshotWithSubject("a"))
		if err := f.syncer.Flush(context.Background()); err != nil {
			t.Fatalf("Flush() error = %v", err)
		}
		if f.cloud.Stores() != 1 {
			t.Errorf("Stores() = %d, want 1", f.cloud.Stores())
		}
		// The cancelled timer must not push a second time.
		f.sched.Fire()
		if f.cloud.Stores() != 1 {
			t.Errorf("Stores() = %d after stale fire, want 1", f.cloud.Stores())
		}
	})

	t.Run("no-op without pending push", func(t *testing.T) {
		f := newSyncFixture(time.Second)
		if err := f.syncer.Flush(context.Background()); err != nil {
			t.Fatalf("Flush() error = %v", err)
		}
		if f.cloud.Stores() != 0 {
			t.Errorf("Stores() = %d, want 0", f.cloud.Stores())
		}
	})

	t.Run("close flushes", func(t *testing.T) {
		f := newSyncFixture(time.Second)
		f.syncer.Schedule(snapshotWithSubject("a"))
		if err := f.syncer.Close(context.Background()); err != nil {
			t.Fatalf("Close() error = %v", err)
		}
		if f.cloud.Stores() != 1 {
			t.Errorf("Stores() = %d, want 1", f.cloud.Stores())
		}
	})
}

func TestSyncer_StatusListeners(t *testing.T) {
	f := newSyncFixture(time.Second)
	var (
		mu  sync.Mutex
		got []gestor.SyncStatus
	)
	f.syncer.OnStatusChange(func(s gestor.SyncStatus) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, s)
	})

	f.syncer.Schedule(snapshotWithSubject("a"))
	f.syncer.Schedule(snapshotWithSubject("b"))
	f.sched.Fire()

	want := []gestor.SyncStatus{gestor.SyncSyncing, gestor.SyncSynced}
	mu.Lock()
	defer mu.Unlock()
	if len(got) != len(want) {
		t.Fatalf("transitions = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("transition %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestSyncer_ListenerAddedDuringNotify(t *testing.T) {
	f := newSyncFixture(time.Second)
	var (
		mu   sync.Mutex
		late []gestor.SyncStatus
		once bool
	)
	f.syncer.OnStatusChange(func(s gestor.SyncStatus) {
		mu.Lock()
		first := !once
		once = true
		mu.Unlock()
		if first {
			f.syncer.OnStatusChange(func(s gestor.SyncStatus) {
				mu.Lock()
				defer mu.Unlock()
				late = append(late, s)
			})
		}
	})

	f.syncer.Schedule(snapshotWithSubject("a"))
	f.sched.Fire()

	mu.Lock()
	defer mu.Unlock()
	if len(late) != 1 || late[0] != gestor.SyncSynced {
		t.Errorf("late listener saw %v, want [synced]", late)
	}
}

func TestSyncer_Fetch(t *testing.T) {
	t.Run("not found", func(t *testing.T) {
		f := newSyncFixture(time.Second)
		_, found, err := f.syncer.Fetch(context.Background())
		if err != nil || found {
			t.Errorf("Fetch() found = %v, err = %v", found, err)
		}
		if f.syncer.Status() != gestor.SyncSynced {
			t.Errorf("Status() = %v, want synced", f.syncer.Status())
		}
	})

	t.Run("error", func(t *testing.T) {
		f := newSyncFixture(time.Second)
		f.remote.SetFailFetch(true)
		if _, _, err := f.syncer.Fetch(context.Background()); !errors.Is(err, gestor.ErrRemoteSync) {
			t.Errorf("Fetch() error = %v, want ErrRemoteSync", err)
		}
		if f.syncer.Status() != gestor.SyncError {
			t.Errorf("Status() = %v, want error", f.syncer.Status())
		}
	})
}

func TestSyncer_Disabled(t *testing.T) {
	sched := testutil.NewManualScheduler()
	s := gestor.NewSyncer(gestor.SyncerOptions{UserID: testUser, Scheduler: sched})

	if s.Enabled() {
		t.Error("Enabled() = true without remote")
	}
	s.Schedule(snapshotWithSubject("a"))
	if sched.Scheduled() != 0 {
		t.Errorf("scheduled %d timers without remote", sched.Scheduled())
	}
	if err := s.Push(context.Background(), snapshotWithSubject("a")); err != nil {
		t.Errorf("Push() error = %v", err)
	}
	if s.Status() != gestor.SyncIdle {
		t.Errorf("Status() = %v, want idle", s.Status())
	}
}
