package gestor

// Attachment is a binary object attached to a record: an immutable byte
// sequence plus its original filename and a MIME type.
type Attachment struct {
	Name        string
	ContentType string
	Data        []byte
}

// AttachmentState is the lifecycle state of an attachment slot.
type AttachmentState int

const (
	// AttachmentEmpty: nothing attached.
	AttachmentEmpty AttachmentState = iota
	// AttachmentLive: bytes attached by the user, no identifier yet.
	AttachmentLive
	// AttachmentPersisted: identifier known, bytes not loaded (hydration gap
	// or a snapshot that has not been hydrated).
	AttachmentPersisted
	// AttachmentBound: identifier and bytes both present.
	AttachmentBound
)

func (s AttachmentState) String() string {
	switch s {
	case AttachmentLive:
		return "live"
	case AttachmentPersisted:
		return "persisted"
	case AttachmentBound:
		return "bound"
	default:
		return "empty"
	}
}

// AttachmentRef is a named attachment slot on a record.
//
// The only transitions are Empty→Live (user attaches a file), Live→Bound
// (an identifier is minted on first save) and Persisted→Bound (hydration
// finds the bytes in the blob store). Replacing a file means assigning a new
// ref; an identifier is never minted twice for the same ref.
type AttachmentRef struct {
	id     string
	name   string
	file   *Attachment
	stored bool
}

// NewAttachmentRef returns a live slot holding file. A nil file yields an empty slot.
func NewAttachmentRef(file *Attachment) AttachmentRef {
	if file == nil {
		return AttachmentRef{}
	}
	return AttachmentRef{name: file.Name, file: file}
}

// PersistedAttachmentRef returns a slot that only knows its identifier and
// filename, as decoded from a snapshot.
func PersistedAttachmentRef(id, name string) AttachmentRef {
	return AttachmentRef{id: id, name: name}
}

// State reports the lifecycle state of the slot.
func (r *AttachmentRef) State() AttachmentState {
	switch {
	case r.file != nil && r.id == "":
		return AttachmentLive
	case r.file != nil:
		return AttachmentBound
	case r.id != "":
		return AttachmentPersisted
	default:
		return AttachmentEmpty
	}
}

// ID returns the attachment identifier, or "" if none has been minted.
func (r *AttachmentRef) ID() string { return r.id }

// Name returns the attachment filename.
func (r *AttachmentRef) Name() string { return r.name }

// File returns the live binary, or nil when the bytes are not loaded.
func (r *AttachmentRef) File() *Attachment { return r.file }

// IsEmpty reports whether the slot carries neither bytes nor metadata.
func (r *AttachmentRef) IsEmpty() bool {
	return r.file == nil && r.id == "" && r.name == ""
}

// mint assigns a fresh identifier to a live slot. Slots that already carry an
// identifier keep it.
func (r *AttachmentRef) mint(idgen IDGenerator) {
	if r.file != nil && r.id == "" {
		r.id = newAttachmentID(idgen)
	}
}

// needsStore reports whether the bytes have not yet been written to the blob store.
func (r *AttachmentRef) needsStore() bool {
	return r.file != nil && !r.stored
}

func (r *AttachmentRef) markStored() { r.stored = true }

// bind attaches bytes loaded from the blob store.
func (r *AttachmentRef) bind(file *Attachment) {
	if file.Name == "" {
		file.Name = r.name
	}
	if r.name == "" {
		r.name = file.Name
	}
	r.file = file
	r.stored = true
}

func newAttachmentID(idgen IDGenerator) string {
	return "file-" + idgen.New()
}
