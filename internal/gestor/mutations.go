package gestor

import (
	"context"
	"fmt"
	"strings"
)

// NewDocument describes an incoming document to register.
type NewDocument struct {
	Name            string
	Subject         string
	From            string
	Body            string
	Procedure       string
	DocumentNumber  string
	SentAt          string
	SupportType     SupportType
	Folios          int
	FolderID        string
	File            *Attachment
	AdditionalFiles []*Attachment
}

// NewTask describes a task to create.
type NewTask struct {
	Description       string
	DueDate           string
	RelatedDocumentID string
	Priority          Priority
	Notes             string
	Reminder          bool
}

// NewOutgoingDocument describes an outgoing document to register.
type NewOutgoingDocument struct {
	To             string
	Subject        string
	Body           string
	DocumentNumber string
	ReceivedBy     string
	SentAt         string
	SupportType    SupportType
	Folios         int
	FolderID       string
	RelatedTaskID  string
	File           *Attachment
}

// TaskUpdate holds the task fields to change; nil fields are left alone.
type TaskUpdate struct {
	Status   *TaskStatus
	Priority *Priority
	DueDate  *string
	Notes    *string
	Reminder *bool
}

func (c *Coordinator) newID(prefix string) string { return prefix + c.idgen.New() }

func (c *Coordinator) buildDocument(ws *Workspace, in NewDocument) (*IncomingDocument, error) {
	if strings.TrimSpace(in.Subject) == "" {
		return nil, fmt.Errorf("document subject is required")
	}
	folder, err := ws.folderRef(in.FolderID)
	if err != nil {
		return nil, err
	}
	now := c.clock.Now().UTC()
	name := in.Name
	if name == "" && in.File != nil {
		name = in.File.Name
	}
	support := in.SupportType
	if support == "" {
		support = SupportElectronic
	}
	doc := &IncomingDocument{
		ID:                c.newID("doc-"),
		Name:              name,
		OrderNumber:       ws.NextOrderNumber(now),
		SentAt:            in.SentAt,
		SupportType:       support,
		DocumentNumber:    in.DocumentNumber,
		Folios:            in.Folios,
		Procedure:         in.Procedure,
		DestinationFolder: folder,
		From:              in.From,
		Body:              in.Body,
		Subject:           in.Subject,
		CreatedAt:         now,
		File:              NewAttachmentRef(in.File),
	}
	for _, f := range in.AdditionalFiles {
		if f != nil {
			doc.AdditionalFiles = append(doc.AdditionalFiles, NewAttachmentRef(f))
		}
	}
	return doc, nil
}

// AddDocument registers an incoming document.
func (c *Coordinator) AddDocument(ctx context.Context, in NewDocument) (*IncomingDocument, error) {
	var doc *IncomingDocument
	err := c.Mutate(ctx, func(ws *Workspace) error {
		d, err := c.buildDocument(ws, in)
		if err != nil {
			return err
		}
		ws.insertDocument(d)
		doc = d
		return nil
	})
	return doc, err
}

// AddDocumentAndTask registers an incoming document plus a follow-up task
// derived from its procedure, due on the document's sent date.
func (c *Coordinator) AddDocumentAndTask(ctx context.Context, in NewDocument) (*IncomingDocument, *Task, error) {
	var (
		doc  *IncomingDocument
		task *Task
	)
	err := c.Mutate(ctx, func(ws *Workspace) error {
		d, err := c.buildDocument(ws, in)
		if err != nil {
			return err
		}
		desc := d.Procedure
		if desc == "" {
			desc = d.Subject
		}
		t := &Task{
			ID:                c.newID("task-"),
			Description:       desc,
			Status:            TaskPending,
			DueDate:           d.SentAt,
			RelatedDocumentID: d.ID,
			CreatedAt:         d.CreatedAt,
			Priority:          PriorityMedium,
		}
		ws.insertDocument(d)
		ws.insertTask(t)
		doc, task = d, t
		return nil
	})
	return doc, task, err
}

// AddTask creates a standalone or document-related task.
func (c *Coordinator) AddTask(ctx context.Context, in NewTask) (*Task, error) {
	var task *Task
	err := c.Mutate(ctx, func(ws *Workspace) error {
		if strings.TrimSpace(in.Description) == "" {
			return fmt.Errorf("task description is required")
		}
		if in.RelatedDocumentID != "" && ws.Document(in.RelatedDocumentID) == nil {
			return fmt.Errorf("document %s: %w", in.RelatedDocumentID, ErrNotFound)
		}
		priority := in.Priority
		if priority == "" {
			priority = PriorityMedium
		}
		t := &Task{
			ID:                c.newID("task-"),
			Description:       in.Description,
			Status:            TaskPending,
			DueDate:           in.DueDate,
			RelatedDocumentID: in.RelatedDocumentID,
			CreatedAt:         c.clock.Now().UTC(),
			Priority:          priority,
			Notes:             in.Notes,
			Reminder:          in.Reminder,
		}
		ws.insertTask(t)
		task = t
		return nil
	})
	return task, err
}

func (c *Coordinator) buildOutgoing(ws *Workspace, in NewOutgoingDocument) (*OutgoingDocument, error) {
	if strings.TrimSpace(in.Subject) == "" {
		return nil, fmt.Errorf("outgoing document subject is required")
	}
	folder, err := ws.folderRef(in.FolderID)
	if err != nil {
		return nil, err
	}
	support := in.SupportType
	if support == "" {
		support = SupportElectronic
	}
	return &OutgoingDocument{
		ID:                c.newID("outdoc-"),
		To:                in.To,
		Subject:           in.Subject,
		Body:              in.Body,
		File:              NewAttachmentRef(in.File),
		CreatedAt:         c.clock.Now().UTC(),
		RelatedTaskID:     in.RelatedTaskID,
		DocumentNumber:    in.DocumentNumber,
		SupportType:       support,
		Folios:            in.Folios,
		ReceivedBy:        in.ReceivedBy,
		SentAt:            in.SentAt,
		DestinationFolder: folder,
	}, nil
}

// AddOutgoingDocument registers an outgoing document.
func (c *Coordinator) AddOutgoingDocument(ctx context.Context, in NewOutgoingDocument) (*OutgoingDocument, error) {
	var out *OutgoingDocument
	err := c.Mutate(ctx, func(ws *Workspace) error {
		d, err := c.buildOutgoing(ws, in)
		if err != nil {
			return err
		}
		ws.insertOutgoing(d)
		out = d
		return nil
	})
	return out, err
}

// UpdateTask changes the given task fields. Moving a task to completed
// stamps its completion time; moving it away clears it.
func (c *Coordinator) UpdateTask(ctx context.Context, id string, upd TaskUpdate) error {
	return c.Mutate(ctx, func(ws *Workspace) error {
		t := ws.Task(id)
		if t == nil {
			return fmt.Errorf("task %s: %w", id, ErrNotFound)
		}
		if upd.Status != nil && *upd.Status != t.Status {
			t.Status = *upd.Status
			if t.Status == TaskCompleted {
				now := c.clock.Now().UTC()
				t.CompletedAt = &now
			} else {
				t.CompletedAt = nil
			}
		}
		if upd.Priority != nil {
			t.Priority = *upd.Priority
		}
		if upd.DueDate != nil {
			t.DueDate = *upd.DueDate
		}
		if upd.Notes != nil {
			t.Notes = *upd.Notes
		}
		if upd.Reminder != nil {
			t.Reminder = *upd.Reminder
		}
		return nil
	})
}

// CompleteTask marks a task completed with its result file and registers
// the outgoing document that delivered the result. The outgoing document
// gets its own copy of the file so each attachment id has one owner.
func (c *Coordinator) CompleteTask(ctx context.Context, taskID string, result *Attachment, out NewOutgoingDocument) (*OutgoingDocument, error) {
	var outgoing *OutgoingDocument
	err := c.Mutate(ctx, func(ws *Workspace) error {
		t := ws.Task(taskID)
		if t == nil {
			return fmt.Errorf("task %s: %w", taskID, ErrNotFound)
		}
		if t.Status == TaskCompleted {
			return fmt.Errorf("task %s is already completed", taskID)
		}
		if out.Subject == "" {
			out.Subject = t.Description
		}
		out.RelatedTaskID = t.ID
		if result != nil {
			cp := *result
			out.File = &cp
		}
		d, err := c.buildOutgoing(ws, out)
		if err != nil {
			return err
		}

		now := c.clock.Now().UTC()
		t.Status = TaskCompleted
		t.CompletedAt = &now
		if result != nil {
			t.ResultFile = NewAttachmentRef(result)
		}
		ws.insertOutgoing(d)
		outgoing = d
		return nil
	})
	return outgoing, err
}

// DeleteDocument removes an incoming document. Its attachments stay in the
// blob store until the next yearly roll-off.
func (c *Coordinator) DeleteDocument(ctx context.Context, id string) error {
	return c.Mutate(ctx, func(ws *Workspace) error { return ws.removeDocument(id) })
}

func (c *Coordinator) DeleteOutgoingDocument(ctx context.Context, id string) error {
	return c.Mutate(ctx, func(ws *Workspace) error { return ws.removeOutgoing(id) })
}

func (c *Coordinator) DeleteTask(ctx context.Context, id string) error {
	return c.Mutate(ctx, func(ws *Workspace) error { return ws.removeTask(id) })
}

// AddFolder creates a folder under parentID, or a root ámbito when parentID is empty.
func (c *Coordinator) AddFolder(ctx context.Context, name, parentID string) (*Folder, error) {
	var folder *Folder
	err := c.Mutate(ctx, func(ws *Workspace) error {
		f, err := ws.AddFolder(c.newID("folder-"), name, parentID)
		folder = f
		return err
	})
	return folder, err
}

func (c *Coordinator) RenameFolder(ctx context.Context, id, name string) error {
	return c.Mutate(ctx, func(ws *Workspace) error { return ws.RenameFolder(id, name) })
}

func (c *Coordinator) DeleteFolder(ctx context.Context, id string) error {
	return c.Mutate(ctx, func(ws *Workspace) error { return ws.DeleteFolder(id) })
}
