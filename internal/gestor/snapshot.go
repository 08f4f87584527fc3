package gestor

import (
	"encoding/json"
	"fmt"
	"time"
)

// Snapshot is the pure-data, serializable form of a workspace. It never
// embeds attachment bytes; slots are reduced to identifier plus filename.
type Snapshot struct {
	Documents         []StoredDocument         `json:"documents"`
	Tasks             []StoredTask             `json:"tasks"`
	OutgoingDocuments []StoredOutgoingDocument `json:"outgoingDocuments"`
	Folders           []*Folder                `json:"folderStructure,omitempty"`
}

type StoredDocument struct {
	ID                  string      `json:"id"`
	Name                string      `json:"name"`
	OrderNumber         int         `json:"orderNumber"`
	SentAt              string      `json:"sentAt,omitempty"`
	SupportType         SupportType `json:"supportType,omitempty"`
	DocumentNumber      string      `json:"documentNumber,omitempty"`
	Folios              int         `json:"folios,omitempty"`
	Procedure           string      `json:"procedure,omitempty"`
	DestinationFolder   *FolderRef  `json:"destinationFolder,omitempty"`
	From                string      `json:"from"`
	Body                string      `json:"body,omitempty"`
	Subject             string      `json:"subject"`
	CreatedAt           time.Time   `json:"createdAt"`
	FileID              string      `json:"fileId,omitempty"`
	FileName            string      `json:"fileName,omitempty"`
	AdditionalFileIDs   []string    `json:"additionalFileIds,omitempty"`
	AdditionalFileNames []string    `json:"additionalFileNames,omitempty"`
}

type StoredOutgoingDocument struct {
	ID                string      `json:"id"`
	To                string      `json:"to"`
	Subject           string      `json:"subject"`
	Body              string      `json:"body,omitempty"`
	CreatedAt         time.Time   `json:"createdAt"`
	RelatedTaskID     string      `json:"relatedTaskId,omitempty"`
	DocumentNumber    string      `json:"documentNumber,omitempty"`
	SupportType       SupportType `json:"supportType,omitempty"`
	Folios            int         `json:"folios,omitempty"`
	ReceivedBy        string      `json:"receivedBy,omitempty"`
	SentAt            string      `json:"sentAt,omitempty"`
	DestinationFolder *FolderRef  `json:"destinationFolder,omitempty"`
	FileID            string      `json:"fileId,omitempty"`
	FileName          string      `json:"fileName,omitempty"`
}

type StoredTask struct {
	ID                string     `json:"id"`
	Description       string     `json:"description"`
	Status            TaskStatus `json:"status"`
	DueDate           string     `json:"dueDate,omitempty"`
	RelatedDocumentID string     `json:"relatedDocumentId,omitempty"`
	CreatedAt         time.Time  `json:"createdAt"`
	CompletedAt       *time.Time `json:"completedAt,omitempty"`
	Priority          Priority   `json:"priority,omitempty"`
	Notes             string     `json:"notes,omitempty"`
	Reminder          bool       `json:"reminder,omitempty"`
	ResultFileID      string     `json:"resultFileId,omitempty"`
	ResultFileName    string     `json:"resultFileName,omitempty"`
}

// storedSlot addresses the id and filename fields of one slot inside a
// stored record, so restore can fill in identifiers generically.
type storedSlot struct {
	id   *string
	name *string
}

func (d *StoredDocument) slots() []storedSlot {
	slots := []storedSlot{{id: &d.FileID, name: &d.FileName}}
	for i := range d.AdditionalFileIDs {
		name := new(string)
		if i < len(d.AdditionalFileNames) {
			name = &d.AdditionalFileNames[i]
		}
		slots = append(slots, storedSlot{id: &d.AdditionalFileIDs[i], name: name})
	}
	return slots
}

// alignAdditionalFiles pads the identifier list so every additional filename
// has a slot, as older containers may carry names without identifiers.
func (d *StoredDocument) alignAdditionalFiles() {
	for len(d.AdditionalFileIDs) < len(d.AdditionalFileNames) {
		d.AdditionalFileIDs = append(d.AdditionalFileIDs, "")
	}
}

func (d *StoredOutgoingDocument) slots() []storedSlot {
	return []storedSlot{{id: &d.FileID, name: &d.FileName}}
}

func (t *StoredTask) slots() []storedSlot {
	return []storedSlot{{id: &t.ResultFileID, name: &t.ResultFileName}}
}

// AttachmentIDs returns every attachment identifier the snapshot references.
func (s *Snapshot) AttachmentIDs() []string {
	var ids []string
	add := func(slots []storedSlot) {
		for _, sl := range slots {
			if *sl.id != "" {
				ids = append(ids, *sl.id)
			}
		}
	}
	for i := range s.Documents {
		add(s.Documents[i].slots())
	}
	for i := range s.OutgoingDocuments {
		add(s.OutgoingDocuments[i].slots())
	}
	for i := range s.Tasks {
		add(s.Tasks[i].slots())
	}
	return ids
}

// DecodeSnapshot validates raw JSON against the snapshot schema and decodes it.
// An empty object decodes to an empty snapshot.
func DecodeSnapshot(raw []byte) (*Snapshot, error) {
	if err := validateSnapshotJSON(raw); err != nil {
		return nil, fmt.Errorf("invalid snapshot: %w", err)
	}
	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("decoding snapshot: %w", err)
	}
	return &snap, nil
}

// EncodeSnapshot serializes a snapshot for the local and remote stores.
func EncodeSnapshot(snap *Snapshot) ([]byte, error) {
	data, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("encoding snapshot: %w", err)
	}
	return data, nil
}
