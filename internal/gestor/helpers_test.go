package gestor_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"gestor-go/internal/blobstore"
	"gestor-go/internal/gestor"
	"gestor-go/internal/remote"
	"gestor-go/internal/testutil"
)

const testUser = "user-1"

// harness holds the stores of one simulated device. Coordinators built from
// the same harness share storage, which is how tests simulate a reload.
type harness struct {
	blobs     *blobstore.MemoryStore
	failBlobs *testutil.FailingBlobStore
	kv        *testutil.FailingKVStore
	periods   *testutil.FailingPeriodStore
	cloud     *remote.MemoryStore
	remote    *testutil.FailingRemote
	sched     *testutil.ManualScheduler
	clock     *testutil.StubClock
	ids       *testutil.StubIDGenerator
	notifier  *testutil.RecordingNotifier
	viewBlobs []*blobstore.MemoryStore
	withCloud bool
}

func newHarness(t *testing.T, withCloud bool) *harness {
	t.Helper()
	store := testutil.NewTestStore(t)
	blobs := blobstore.NewMemoryStore()
	cloud := remote.NewMemoryStore()
	return &harness{
		blobs:     blobs,
		failBlobs: testutil.NewFailingBlobStore(blobs),
		kv:        testutil.NewFailingKVStore(store),
		periods:   testutil.NewFailingPeriodStore(store),
		cloud:     cloud,
		remote:    testutil.NewFailingRemote(cloud),
		sched:     testutil.NewManualScheduler(),
		clock:     testutil.FixedClock(),
		ids:       testutil.NewStubIDGenerator(),
		notifier:  testutil.NewRecordingNotifier(),
		withCloud: withCloud,
	}
}

func (h *harness) options() gestor.CoordinatorOptions {
	var rs gestor.RemoteStore
	if h.withCloud {
		rs = h.remote
	}
	return gestor.CoordinatorOptions{
		UserID:      testUser,
		Credentials: gestor.Credentials{Token: "token"},
		Blobs:       h.failBlobs,
		KV:          h.kv,
		Periods:     h.periods,
		Remote:      rs,
		NewViewBlobs: func() gestor.BlobStore {
			b := blobstore.NewMemoryStore()
			h.viewBlobs = append(h.viewBlobs, b)
			return b
		},
		Scheduler: h.sched,
		Clock:     h.clock,
		IDGen:     h.ids,
		Logger:    gestor.NewNopLogger(),
		Notifier:  h.notifier,
	}
}

// open builds and bootstraps a coordinator over the harness stores.
func (h *harness) open(t *testing.T) *gestor.Coordinator {
	t.Helper()
	return h.openWith(t, h.options())
}

func (h *harness) openWith(t *testing.T, opts gestor.CoordinatorOptions) *gestor.Coordinator {
	t.Helper()
	c, err := gestor.NewCoordinator(opts)
	if err != nil {
		t.Fatalf("NewCoordinator() error = %v", err)
	}
	if err := c.Bootstrap(context.Background()); err != nil {
		t.Fatalf("Bootstrap() error = %v", err)
	}
	return c
}

func file(name, content string) *gestor.Attachment {
	return &gestor.Attachment{Name: name, ContentType: "application/pdf", Data: []byte(content)}
}

// encoded returns the canonical encoding of the coordinator's workspace.
func encoded(t *testing.T, c *gestor.Coordinator) []byte {
	t.Helper()
	var data []byte
	c.Read(func(ws *gestor.Workspace) {
		var err error
		data, err = gestor.EncodeSnapshot(gestor.ToStorable(ws, testutil.NewStubIDGenerator()))
		if err != nil {
			t.Fatalf("EncodeSnapshot() error = %v", err)
		}
	})
	return data
}

func mustEncode(t *testing.T, snap *gestor.Snapshot) []byte {
	t.Helper()
	data, err := gestor.EncodeSnapshot(snap)
	if err != nil {
		t.Fatalf("EncodeSnapshot() error = %v", err)
	}
	return data
}

func assertSameSnapshot(t *testing.T, got, want []byte) {
	t.Helper()
	if !bytes.Equal(got, want) {
		t.Errorf("snapshots differ\n got: %s\nwant: %s", got, want)
	}
}

// sampleWorkspace returns a workspace with one record of each kind, each
// carrying a live attachment.
func sampleWorkspace() *gestor.Workspace {
	ws := gestor.NewWorkspace()
	created := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	path, _ := gestor.FolderPath(ws.Folders, "folder-1-2")
	ws.Documents = []*gestor.IncomingDocument{{
		ID:                "doc-1",
		Name:              "nota.pdf",
		OrderNumber:       1,
		Subject:           "Licencia",
		From:              "Personal",
		SupportType:       gestor.SupportPaper,
		CreatedAt:         created,
		DestinationFolder: &gestor.FolderRef{ID: "folder-1-2", Path: path},
		File:              gestor.NewAttachmentRef(file("nota.pdf", "nota")),
		AdditionalFiles: []gestor.AttachmentRef{
			gestor.NewAttachmentRef(file("anexo.pdf", "anexo")),
		},
	}}
	ws.OutgoingDocuments = []*gestor.OutgoingDocument{{
		ID:        "outdoc-1",
		To:        "Ministerio",
		Subject:   "Respuesta",
		CreatedAt: created,
		File:      gestor.NewAttachmentRef(file("respuesta.pdf", "respuesta")),
	}}
	ws.Tasks = []*gestor.Task{{
		ID:                "task-1",
		Description:       "Responder",
		Status:            gestor.TaskPending,
		RelatedDocumentID: "doc-1",
		CreatedAt:         created,
		Priority:          gestor.PriorityHigh,
		ResultFile:        gestor.NewAttachmentRef(file("informe.pdf", "informe")),
	}}
	return ws
}
