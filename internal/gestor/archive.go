package gestor

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path"
	"strings"
)

// Container layout.
const (
	ContainerDataEntry     = "data.json"
	UnfiledIncomingBucket  = "Documentos_Entrantes_Sin_Carpeta"
	UnfiledOutgoingBucket  = "Documentos_Salientes_Sin_Carpeta"
	TaskResultsBucket      = "Resultados_de_Tareas"
	legacyIncomingBucket   = "incoming"
	legacyOutgoingBucket   = "outgoing"
	maxContainerEntryBytes = 512 << 20
)

// Packager exports a workspace as a zip container and restores containers
// into a blob store.
type Packager struct {
	idgen  IDGenerator
	clock  Clock
	logger Logger
}

func NewPackager(idgen IDGenerator, clock Clock, logger Logger) *Packager {
	return &Packager{idgen: idgen, clock: clock, logger: logger}
}

// Export writes the snapshot of ws as data.json plus one entry per attachment
// whose bytes are loaded. Identifiers are minted for live slots first, so the
// data entry always names the ids the files will be restored under. Slots in
// a hydration gap are listed in data.json without a file entry.
func (p *Packager) Export(ws *Workspace) ([]byte, error) {
	snap := ToStorable(ws, p.idgen)
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding container data: %w", err)
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	if err := p.writeEntry(zw, ContainerDataEntry, data); err != nil {
		return nil, err
	}

	written := map[string]bool{ContainerDataEntry: true}
	files := 0
	for _, rec := range ws.Records() {
		dir := exportDir(rec)
		for _, ref := range rec.Slots() {
			file := ref.File()
			if file == nil || ref.Name() == "" {
				continue
			}
			entry := containerEntry(dir, ref.Name())
			if written[entry] && ref.ID() != "" {
				entry = containerEntry(dir, uniqueEntryName(ref.ID(), ref.Name()))
			}
			if written[entry] {
				p.logger.Warn("duplicate container path, keeping first file", "path", entry, "record", rec.RecordID(), "attachment", ref.ID())
				continue
			}
			if err := p.writeEntry(zw, entry, file.Data); err != nil {
				return nil, err
			}
			written[entry] = true
			files++
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("finalizing container: %w", err)
	}
	p.logger.Info("container exported", "documents", len(snap.Documents), "tasks", len(snap.Tasks), "outgoing", len(snap.OutgoingDocuments), "files", files, "bytes", buf.Len())
	return buf.Bytes(), nil
}

func (p *Packager) writeEntry(zw *zip.Writer, name string, data []byte) error {
	w, err := zw.CreateHeader(&zip.FileHeader{
		Name:     name,
		Method:   zip.Deflate,
		Modified: p.clock.Now(),
	})
	if err != nil {
		return fmt.Errorf("creating container entry %s: %w", name, err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("writing container entry %s: %w", name, err)
	}
	return nil
}

// Restore reads a container, stores every attachment it can locate into
// blobs under the identifier declared in data.json (minting one when the
// data entry has none) and returns the snapshot. Attachments missing from
// the container are skipped. Restoring the same container twice stores the
// same blobs under the same ids.
func (p *Packager) Restore(data []byte, blobs BlobStore) (*Snapshot, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrContainerCorrupt, err)
	}
	entries := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		if _, dup := entries[f.Name]; !dup {
			entries[f.Name] = f
		}
	}

	df, ok := entries[ContainerDataEntry]
	if !ok {
		return nil, fmt.Errorf("%w: missing %s", ErrContainerCorrupt, ContainerDataEntry)
	}
	raw, err := readEntry(df)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrContainerCorrupt, err)
	}
	snap, err := DecodeSnapshot(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrContainerCorrupt, err)
	}

	r := &restorer{p: p, entries: entries, blobs: blobs}
	for i := range snap.Documents {
		d := &snap.Documents[i]
		d.alignAdditionalFiles()
		if err := r.restoreSlots(d.ID, d.slots(), KindIncoming, folderRefPath(d.DestinationFolder)); err != nil {
			return nil, err
		}
	}
	for i := range snap.OutgoingDocuments {
		d := &snap.OutgoingDocuments[i]
		if err := r.restoreSlots(d.ID, d.slots(), KindOutgoing, folderRefPath(d.DestinationFolder)); err != nil {
			return nil, err
		}
	}
	for i := range snap.Tasks {
		t := &snap.Tasks[i]
		if err := r.restoreSlots(t.ID, t.slots(), KindTask, ""); err != nil {
			return nil, err
		}
	}

	p.logger.Info("container restored", "documents", len(snap.Documents), "tasks", len(snap.Tasks), "outgoing", len(snap.OutgoingDocuments), "files", r.restored, "missing", r.missing)
	return snap, nil
}

type restorer struct {
	p        *Packager
	entries  map[string]*zip.File
	blobs    BlobStore
	restored int
	missing  int
}

func (r *restorer) restoreSlots(recordID string, slots []storedSlot, kind Kind, folderPath string) error {
	for _, s := range slots {
		name := *s.name
		if name == "" {
			continue
		}
		f := r.locate(candidatePaths(kind, folderPath, *s.id, name))
		if f == nil {
			r.missing++
			r.p.logger.Debug("attachment not in container", "record", recordID, "name", name)
			continue
		}
		content, err := readEntry(f)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrContainerCorrupt, err)
		}
		if *s.id == "" {
			*s.id = newAttachmentID(r.p.idgen)
		}
		file := &Attachment{Name: name, ContentType: DetectContentType(name, content), Data: content}
		if err := r.blobs.Put(*s.id, file); err != nil {
			return fmt.Errorf("storing restored attachment %s: %w", *s.id, err)
		}
		r.restored++
	}
	return nil
}

func (r *restorer) locate(candidates []string) *zip.File {
	for _, c := range candidates {
		if f, ok := r.entries[c]; ok {
			return f
		}
	}
	return nil
}

func readEntry(f *zip.File) ([]byte, error) {
	if f.UncompressedSize64 > maxContainerEntryBytes {
		return nil, fmt.Errorf("entry %s too large: %d bytes", f.Name, f.UncompressedSize64)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("opening entry %s: %w", f.Name, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(io.LimitReader(rc, maxContainerEntryBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading entry %s: %w", f.Name, err)
	}
	if len(data) > maxContainerEntryBytes {
		return nil, fmt.Errorf("entry %s too large", f.Name)
	}
	return data, nil
}

// exportDir is the container directory a record's attachments are written to.
func exportDir(rec Record) string {
	if rec.Kind() == KindTask {
		return TaskResultsBucket
	}
	if p := rec.FolderPath(); p != "" {
		return ContainerDir(p)
	}
	return defaultBucket(rec.Kind())
}

func defaultBucket(kind Kind) string {
	switch kind {
	case KindOutgoing:
		return UnfiledOutgoingBucket
	case KindTask:
		return TaskResultsBucket
	default:
		return UnfiledIncomingBucket
	}
}

func legacyBucket(kind Kind) string {
	switch kind {
	case KindOutgoing:
		return legacyOutgoingBucket
	case KindIncoming:
		return legacyIncomingBucket
	default:
		return ""
	}
}

// candidatePaths lists where an attachment may live in a container, in
// lookup order: the declared folder, the kind's default bucket, then the
// legacy bucket written by older versions. Within each directory the
// id-prefixed name written for colliding filenames comes first.
func candidatePaths(kind Kind, folderPath, id, name string) []string {
	var dirs []string
	if kind != KindTask && folderPath != "" {
		dirs = append(dirs, ContainerDir(folderPath))
	}
	dirs = append(dirs, defaultBucket(kind))
	if legacy := legacyBucket(kind); legacy != "" {
		dirs = append(dirs, legacy)
	}

	var out []string
	for _, dir := range dirs {
		if id != "" {
			out = append(out, containerEntry(dir, uniqueEntryName(id, name)))
		}
		out = append(out, containerEntry(dir, name))
	}
	return out
}

// uniqueEntryName is the filename used when another attachment already took
// name in the same container directory.
func uniqueEntryName(id, name string) string {
	return id + "_" + path.Base(strings.ReplaceAll(name, "\\", "/"))
}

// containerEntry joins a directory and a filename. Directory components in
// the filename are dropped.
func containerEntry(dir, name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	return path.Join(dir, name)
}

// DetectContentType guesses a MIME type from the filename extension, falling
// back to content sniffing.
func DetectContentType(name string, data []byte) string {
	if ct := mime.TypeByExtension(strings.ToLower(path.Ext(name))); ct != "" {
		return ct
	}
	return http.DetectContentType(data)
}

