package gestor

import (
	"fmt"
	"time"
)

// Workspace holds the live, typed record collections of one user. Newest
// records come first. A Workspace is not safe for concurrent use; the
// Coordinator serializes access to it.
type Workspace struct {
	Documents         []*IncomingDocument
	Tasks             []*Task
	OutgoingDocuments []*OutgoingDocument
	Folders           []*Folder
}

// NewWorkspace returns an empty workspace seeded with the default folder tree.
func NewWorkspace() *Workspace {
	return &Workspace{Folders: DefaultFolders()}
}

// Records returns every record in a stable order: incoming documents,
// outgoing documents, then tasks.
func (w *Workspace) Records() []Record {
	recs := make([]Record, 0, len(w.Documents)+len(w.OutgoingDocuments)+len(w.Tasks))
	for _, d := range w.Documents {
		recs = append(recs, d)
	}
	for _, d := range w.OutgoingDocuments {
		recs = append(recs, d)
	}
	for _, t := range w.Tasks {
		recs = append(recs, t)
	}
	return recs
}

// AttachmentIDs returns the identifiers of every identified slot.
func (w *Workspace) AttachmentIDs() []string {
	var ids []string
	for _, rec := range w.Records() {
		for _, ref := range rec.Slots() {
			if id := ref.ID(); id != "" {
				ids = append(ids, id)
			}
		}
	}
	return ids
}

func (w *Workspace) Document(id string) *IncomingDocument {
	for _, d := range w.Documents {
		if d.ID == id {
			return d
		}
	}
	return nil
}

func (w *Workspace) OutgoingDocument(id string) *OutgoingDocument {
	for _, d := range w.OutgoingDocuments {
		if d.ID == id {
			return d
		}
	}
	return nil
}

func (w *Workspace) Task(id string) *Task {
	for _, t := range w.Tasks {
		if t.ID == id {
			return t
		}
	}
	return nil
}

// NextOrderNumber returns the daily sequence number for a document
// registered at now: one more than the documents already registered that day.
func (w *Workspace) NextOrderNumber(now time.Time) int {
	y, m, d := now.UTC().Date()
	n := 0
	for _, doc := range w.Documents {
		dy, dm, dd := doc.CreatedAt.UTC().Date()
		if dy == y && dm == m && dd == d {
			n++
		}
	}
	return n + 1
}

func (w *Workspace) insertDocument(d *IncomingDocument) {
	w.Documents = append([]*IncomingDocument{d}, w.Documents...)
}

func (w *Workspace) insertOutgoing(d *OutgoingDocument) {
	w.OutgoingDocuments = append([]*OutgoingDocument{d}, w.OutgoingDocuments...)
}

func (w *Workspace) insertTask(t *Task) {
	w.Tasks = append([]*Task{t}, w.Tasks...)
}

func (w *Workspace) removeDocument(id string) error {
	for i, d := range w.Documents {
		if d.ID == id {
			w.Documents = append(w.Documents[:i:i], w.Documents[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("document %s: %w", id, ErrNotFound)
}

func (w *Workspace) removeOutgoing(id string) error {
	for i, d := range w.OutgoingDocuments {
		if d.ID == id {
			w.OutgoingDocuments = append(w.OutgoingDocuments[:i:i], w.OutgoingDocuments[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("outgoing document %s: %w", id, ErrNotFound)
}

func (w *Workspace) removeTask(id string) error {
	for i, t := range w.Tasks {
		if t.ID == id {
			w.Tasks = append(w.Tasks[:i:i], w.Tasks[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("task %s: %w", id, ErrNotFound)
}
