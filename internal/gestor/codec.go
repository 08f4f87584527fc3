package gestor

import (
	"errors"
	"time"
)

// ToStorable reduces a live workspace to a snapshot. Live slots without an
// identifier get one minted in place, so repeated calls return the same ids.
// Bytes are never copied into the snapshot.
func ToStorable(ws *Workspace, idgen IDGenerator) *Snapshot {
	for _, rec := range ws.Records() {
		for _, ref := range rec.Slots() {
			ref.mint(idgen)
		}
	}

	snap := &Snapshot{
		Documents:         make([]StoredDocument, 0, len(ws.Documents)),
		Tasks:             make([]StoredTask, 0, len(ws.Tasks)),
		OutgoingDocuments: make([]StoredOutgoingDocument, 0, len(ws.OutgoingDocuments)),
		Folders:           cloneFolders(ws.Folders),
	}
	for _, d := range ws.Documents {
		snap.Documents = append(snap.Documents, storeDocument(d))
	}
	for _, t := range ws.Tasks {
		snap.Tasks = append(snap.Tasks, storeTask(t))
	}
	for _, d := range ws.OutgoingDocuments {
		snap.OutgoingDocuments = append(snap.OutgoingDocuments, storeOutgoing(d))
	}
	return snap
}

// Hydrate rebuilds a live workspace from a snapshot, re-binding bytes for
// every identifier found in blobs. A missing blob leaves the slot persisted
// without bytes; that is logged, not returned as an error.
func Hydrate(snap *Snapshot, blobs BlobStore, logger Logger) *Workspace {
	if snap == nil {
		return NewWorkspace()
	}
	ws := &Workspace{
		Documents:         make([]*IncomingDocument, 0, len(snap.Documents)),
		Tasks:             make([]*Task, 0, len(snap.Tasks)),
		OutgoingDocuments: make([]*OutgoingDocument, 0, len(snap.OutgoingDocuments)),
		Folders:           cloneFolders(snap.Folders),
	}
	if ws.Folders == nil {
		ws.Folders = DefaultFolders()
	}
	for i := range snap.Documents {
		ws.Documents = append(ws.Documents, loadDocument(&snap.Documents[i]))
	}
	for i := range snap.Tasks {
		ws.Tasks = append(ws.Tasks, loadTask(&snap.Tasks[i]))
	}
	for i := range snap.OutgoingDocuments {
		ws.OutgoingDocuments = append(ws.OutgoingDocuments, loadOutgoing(&snap.OutgoingDocuments[i]))
	}

	for _, rec := range ws.Records() {
		for _, ref := range rec.Slots() {
			if ref.ID() == "" {
				continue
			}
			file, err := blobs.Get(ref.ID())
			switch {
			case err == nil:
				ref.bind(file)
			case errors.Is(err, ErrBlobNotFound):
				logger.Debug("attachment missing from blob store", "record", rec.RecordID(), "attachment", ref.ID())
			default:
				logger.Warn("failed to load attachment", "record", rec.RecordID(), "attachment", ref.ID(), "error", err)
			}
		}
	}
	return ws
}

func slotFields(ref *AttachmentRef) (id, name string) {
	return ref.ID(), ref.Name()
}

func storeDocument(d *IncomingDocument) StoredDocument {
	s := StoredDocument{
		ID:                d.ID,
		Name:              d.Name,
		OrderNumber:       d.OrderNumber,
		SentAt:            d.SentAt,
		SupportType:       d.SupportType,
		DocumentNumber:    d.DocumentNumber,
		Folios:            d.Folios,
		Procedure:         d.Procedure,
		DestinationFolder: copyFolderRef(d.DestinationFolder),
		From:              d.From,
		Body:              d.Body,
		Subject:           d.Subject,
		CreatedAt:         d.CreatedAt,
	}
	s.FileID, s.FileName = slotFields(&d.File)
	for i := range d.AdditionalFiles {
		ref := &d.AdditionalFiles[i]
		if ref.IsEmpty() {
			continue
		}
		id, name := slotFields(ref)
		s.AdditionalFileIDs = append(s.AdditionalFileIDs, id)
		s.AdditionalFileNames = append(s.AdditionalFileNames, name)
	}
	return s
}

func loadDocument(s *StoredDocument) *IncomingDocument {
	d := &IncomingDocument{
		ID:                s.ID,
		Name:              s.Name,
		OrderNumber:       s.OrderNumber,
		SentAt:            s.SentAt,
		SupportType:       s.SupportType,
		DocumentNumber:    s.DocumentNumber,
		Folios:            s.Folios,
		Procedure:         s.Procedure,
		DestinationFolder: copyFolderRef(s.DestinationFolder),
		From:              s.From,
		Body:              s.Body,
		Subject:           s.Subject,
		CreatedAt:         s.CreatedAt,
		File:              PersistedAttachmentRef(s.FileID, s.FileName),
	}
	// Older snapshots list names without ids; those slots keep their name.
	for i := range max(len(s.AdditionalFileIDs), len(s.AdditionalFileNames)) {
		var id, name string
		if i < len(s.AdditionalFileIDs) {
			id = s.AdditionalFileIDs[i]
		}
		if i < len(s.AdditionalFileNames) {
			name = s.AdditionalFileNames[i]
		}
		d.AdditionalFiles = append(d.AdditionalFiles, PersistedAttachmentRef(id, name))
	}
	return d
}

func storeOutgoing(d *OutgoingDocument) StoredOutgoingDocument {
	s := StoredOutgoingDocument{
		ID:                d.ID,
		To:                d.To,
		Subject:           d.Subject,
		Body:              d.Body,
		CreatedAt:         d.CreatedAt,
		RelatedTaskID:     d.RelatedTaskID,
		DocumentNumber:    d.DocumentNumber,
		SupportType:       d.SupportType,
		Folios:            d.Folios,
		ReceivedBy:        d.ReceivedBy,
		SentAt:            d.SentAt,
		DestinationFolder: copyFolderRef(d.DestinationFolder),
	}
	s.FileID, s.FileName = slotFields(&d.File)
	return s
}

func loadOutgoing(s *StoredOutgoingDocument) *OutgoingDocument {
	return &OutgoingDocument{
		ID:                s.ID,
		To:                s.To,
		Subject:           s.Subject,
		Body:              s.Body,
		File:              PersistedAttachmentRef(s.FileID, s.FileName),
		CreatedAt:         s.CreatedAt,
		RelatedTaskID:     s.RelatedTaskID,
		DocumentNumber:    s.DocumentNumber,
		SupportType:       s.SupportType,
		Folios:            s.Folios,
		ReceivedBy:        s.ReceivedBy,
		SentAt:            s.SentAt,
		DestinationFolder: copyFolderRef(s.DestinationFolder),
	}
}

func storeTask(t *Task) StoredTask {
	s := StoredTask{
		ID:                t.ID,
		Description:       t.Description,
		Status:            t.Status,
		DueDate:           t.DueDate,
		RelatedDocumentID: t.RelatedDocumentID,
		CreatedAt:         t.CreatedAt,
		CompletedAt:       copyTime(t.CompletedAt),
		Priority:          t.Priority,
		Notes:             t.Notes,
		Reminder:          t.Reminder,
	}
	s.ResultFileID, s.ResultFileName = slotFields(&t.ResultFile)
	return s
}

func loadTask(s *StoredTask) *Task {
	return &Task{
		ID:                s.ID,
		Description:       s.Description,
		Status:            s.Status,
		DueDate:           s.DueDate,
		RelatedDocumentID: s.RelatedDocumentID,
		CreatedAt:         s.CreatedAt,
		CompletedAt:       copyTime(s.CompletedAt),
		ResultFile:        PersistedAttachmentRef(s.ResultFileID, s.ResultFileName),
		Priority:          s.Priority,
		Notes:             s.Notes,
		Reminder:          s.Reminder,
	}
}

func copyFolderRef(ref *FolderRef) *FolderRef {
	if ref == nil {
		return nil
	}
	c := *ref
	return &c
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
