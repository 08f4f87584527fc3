package gestor

import "time"

// Kind tags the closed set of record variants.
type Kind string

const (
	KindIncoming Kind = "incoming"
	KindOutgoing Kind = "outgoing"
	KindTask     Kind = "task"
)

// Record is the capability shared by every record variant: an immutable
// identity plus zero or more attachment slots. The codec, the writer and the
// archive packager only see records through this interface.
type Record interface {
	RecordID() string
	Kind() Kind
	// Slots returns pointers to every attachment slot, populated or not.
	Slots() []*AttachmentRef
	// FolderPath returns the display path of the destination folder
	// ("A / B"), or "" when the record is unfiled.
	FolderPath() string
}

// FolderRef points a document at a folder and caches its display path.
type FolderRef struct {
	ID   string `json:"id"`
	Path string `json:"path"`
}

type SupportType string

const (
	SupportPaper      SupportType = "papel"
	SupportElectronic SupportType = "electronico"
	SupportOther      SupportType = "otro"
)

type TaskStatus string

const (
	TaskPending    TaskStatus = "pendiente"
	TaskInProgress TaskStatus = "en proceso"
	TaskCompleted  TaskStatus = "completada"
)

type Priority string

const (
	PriorityHigh   Priority = "alta"
	PriorityMedium Priority = "media"
	PriorityLow    Priority = "baja"
)

// IncomingDocument is a registered received document.
type IncomingDocument struct {
	ID                string
	Name              string
	OrderNumber       int
	SentAt            string
	SupportType       SupportType
	DocumentNumber    string
	Folios            int
	Procedure         string
	DestinationFolder *FolderRef
	From              string
	Body              string
	Subject           string
	CreatedAt         time.Time
	File              AttachmentRef
	AdditionalFiles   []AttachmentRef
}

func (d *IncomingDocument) RecordID() string { return d.ID }
func (d *IncomingDocument) Kind() Kind       { return KindIncoming }

func (d *IncomingDocument) Slots() []*AttachmentRef {
	slots := make([]*AttachmentRef, 0, 1+len(d.AdditionalFiles))
	slots = append(slots, &d.File)
	for i := range d.AdditionalFiles {
		slots = append(slots, &d.AdditionalFiles[i])
	}
	return slots
}

func (d *IncomingDocument) FolderPath() string { return folderRefPath(d.DestinationFolder) }

// OutgoingDocument is a registered sent document.
type OutgoingDocument struct {
	ID                string
	To                string
	Subject           string
	Body              string
	File              AttachmentRef
	CreatedAt         time.Time
	RelatedTaskID     string
	DocumentNumber    string
	SupportType       SupportType
	Folios            int
	ReceivedBy        string
	SentAt            string
	DestinationFolder *FolderRef
}

func (d *OutgoingDocument) RecordID() string        { return d.ID }
func (d *OutgoingDocument) Kind() Kind              { return KindOutgoing }
func (d *OutgoingDocument) Slots() []*AttachmentRef { return []*AttachmentRef{&d.File} }
func (d *OutgoingDocument) FolderPath() string      { return folderRefPath(d.DestinationFolder) }

// Task is a follow-up derived from a document or created directly.
type Task struct {
	ID                string
	Description       string
	Status            TaskStatus
	DueDate           string
	RelatedDocumentID string
	CreatedAt         time.Time
	CompletedAt       *time.Time
	ResultFile        AttachmentRef
	Priority          Priority
	Notes             string
	Reminder          bool
}

func (t *Task) RecordID() string        { return t.ID }
func (t *Task) Kind() Kind              { return KindTask }
func (t *Task) Slots() []*AttachmentRef { return []*AttachmentRef{&t.ResultFile} }

// FolderPath is always empty: task results are filed under a fixed bucket.
func (t *Task) FolderPath() string { return "" }

func folderRefPath(ref *FolderRef) string {
	if ref == nil {
		return ""
	}
	return ref.Path
}

var (
	_ Record = (*IncomingDocument)(nil)
	_ Record = (*OutgoingDocument)(nil)
	_ Record = (*Task)(nil)
)
