package app

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gestor-go/internal/blobstore"
	"gestor-go/internal/config"
	"gestor-go/internal/database"
	"gestor-go/internal/encryption"
	"gestor-go/internal/fs"
	"gestor-go/internal/gestor"
	"gestor-go/internal/remote"
)

// EncryptedBackupSuffix marks an exported backup sealed with the user's key.
const EncryptedBackupSuffix = ".age"

// GestorApp is the application layer between the CLI and the Coordinator.
// It constructs all dependencies from config, exposes high-level operations
// that accept raw string paths, and flushes and closes everything on Close.
type GestorApp struct {
	cfg    *config.Config
	db     *database.SQLiteStore
	remote gestor.RemoteStore
	// keys unlocks sealed archives and backups. It is nil when no key paths
	// are configured.
	keys   gestor.Encryptor
	coord  *gestor.Coordinator
	loader *fs.AttachmentLoader
	clock  gestor.Clock
	op     *Operation
	log    *slogAdapter

	logFile *os.File
}

// NewGestorApp creates a fully wired GestorApp from the given config and loads
// the user's workspace. operation identifies the CLI command being run
// (e.g. "AddDocument", "ArchiveYear"). The caller must call Close when done.
func NewGestorApp(ctx context.Context, cfg *config.Config, operation, parameters string) (*GestorApp, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	level, err := parseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	if err := LoadEnv(cfg.BaseDir); err != nil {
		return nil, err
	}
	creds, secrets := secretsFromEnv()

	blobs, err := blobstore.NewStoreFromConfig(cfg.Blobs)
	if err != nil {
		return nil, fmt.Errorf("creating blob store: %w", err)
	}

	db, err := database.NewStoreFromConfig(cfg.Database, cfg.UserID)
	if err != nil {
		return nil, fmt.Errorf("creating database: %w", err)
	}
	if err := db.CheckMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database schema out of date: %w", err)
	}

	rs, err := remote.NewStoreFromConfig(ctx, cfg.Remote, secrets)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating remote store: %w", err)
	}

	keys, sealer, err := encryptorFromConfig(cfg.Encryption)
	if err != nil {
		closeRemote(rs)
		db.Close()
		return nil, err
	}

	clock := gestor.RealClock{}
	op := NewOperation(operation, parameters, clock.Now())
	logger, logFile, err := newLogger(cfg.LogDir, op.ID, level)
	if err != nil {
		closeRemote(rs)
		db.Close()
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	log := &slogAdapter{l: logger}

	opts := gestor.CoordinatorOptions{
		UserID:       cfg.UserID,
		Credentials:  creds,
		Remote:       rs,
		Blobs:        blobs,
		KV:           db,
		Periods:      db,
		Encryptor:    sealer,
		NewViewBlobs: func() gestor.BlobStore { return blobstore.NewMemoryStore() },
		SyncDelay:    cfg.Sync.Debounce(),
		Scheduler:    gestor.RealScheduler{},
		Clock:        clock,
		IDGen:        gestor.UUIDGenerator{},
		Logger:       log,
		Notifier:     &writerNotifier{w: os.Stderr},
	}
	coord, err := gestor.NewCoordinator(opts)
	if err != nil {
		closeRemote(rs)
		db.Close()
		logFile.Close()
		return nil, fmt.Errorf("creating coordinator: %w", err)
	}

	a := &GestorApp{
		cfg:     cfg,
		db:      db,
		remote:  rs,
		keys:    keys,
		coord:   coord,
		loader:  fs.NewAttachmentLoader(0),
		clock:   clock,
		op:      op,
		log:     log,
		logFile: logFile,
	}

	log.Info("operation started", "operation", op.Name, "params", op.Parameters, "user", cfg.UserID)
	if err := coord.Bootstrap(ctx); err != nil {
		a.Close(ctx)
		return nil, fmt.Errorf("loading workspace: %w", err)
	}
	return a, nil
}

// encryptorFromConfig returns the key handle used for unlocking and, when
// encryption is enabled, the same handle for sealing new archives.
func encryptorFromConfig(cfg config.EncryptionConfig) (keys, sealer gestor.Encryptor, err error) {
	if cfg.Type != "test" && (cfg.PublicKeyPath == "" || cfg.PrivateKeyPath == "") {
		if cfg.Enabled {
			return nil, nil, fmt.Errorf("encryption enabled but key paths are not configured")
		}
		return nil, nil, nil
	}
	enc, err := encryption.NewEncryptorFromConfig(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("creating encryptor: %w", err)
	}
	if !cfg.Enabled {
		return enc, nil, nil
	}
	if !enc.IsConfigured() {
		return nil, nil, fmt.Errorf("encryption enabled but keys are missing: run `gestor keys setup`")
	}
	return enc, enc, nil
}

func closeRemote(rs gestor.RemoteStore) {
	if c, ok := rs.(io.Closer); ok {
		c.Close()
	}
}

// Coordinator exposes the session for callers that need the full core API.
func (a *GestorApp) Coordinator() *gestor.Coordinator { return a.coord }

// Status summarizes the session for display.
type Status struct {
	UserID         string
	Documents      int
	Outgoing       int
	Tasks          int
	PendingTasks   int
	SyncEnabled    bool
	SyncStatus     gestor.SyncStatus
	SyncError      error
	SaveError      error
	BackupDue      bool
	ArchivedYears  []int
	EncryptArchive bool
	SchemaVersion  uint
}

// Status returns counts and the health of persistence and sync.
func (a *GestorApp) Status() (*Status, error) {
	s := &Status{
		UserID:         a.cfg.UserID,
		SyncEnabled:    a.coord.SyncEnabled(),
		SyncStatus:     a.coord.SyncStatus(),
		SyncError:      a.coord.SyncError(),
		SaveError:      a.coord.LastSaveError(),
		EncryptArchive: a.cfg.Encryption.Enabled,
	}
	a.coord.Read(func(ws *gestor.Workspace) {
		s.Documents = len(ws.Documents)
		s.Outgoing = len(ws.OutgoingDocuments)
		s.Tasks = len(ws.Tasks)
		for _, t := range ws.Tasks {
			if t.Status != gestor.TaskCompleted {
				s.PendingTasks++
			}
		}
	})
	due, err := a.coord.BackupReminderDue()
	if err != nil {
		return nil, a.op.Fail(err)
	}
	s.BackupDue = due
	years, err := a.coord.ListPeriods()
	if err != nil {
		return nil, a.op.Fail(err)
	}
	s.ArchivedYears = years
	schema, err := a.db.Schema()
	if err != nil {
		return nil, a.op.Fail(err)
	}
	s.SchemaVersion = schema.Version
	return s, nil
}

// Sync saves the workspace and pushes it to the remote store now.
func (a *GestorApp) Sync(ctx context.Context) error {
	return a.op.Fail(a.coord.RetrySync(ctx))
}

// DocumentInput is a NewDocument whose files are given as paths.
type DocumentInput struct {
	gestor.NewDocument
	FilePath        string
	AdditionalPaths []string
	// CreateTask also derives a follow-up task from the document.
	CreateTask bool
}

// AddDocument reads the given files and registers an incoming document.
func (a *GestorApp) AddDocument(ctx context.Context, in DocumentInput) (*gestor.IncomingDocument, *gestor.Task, error) {
	doc := in.NewDocument
	if in.FilePath != "" {
		f, err := a.loader.Read(in.FilePath)
		if err != nil {
			return nil, nil, a.op.Fail(fmt.Errorf("reading %s: %w", in.FilePath, err))
		}
		doc.File = f
	}
	for _, p := range in.AdditionalPaths {
		files, err := a.readPath(p)
		if err != nil {
			return nil, nil, a.op.Fail(err)
		}
		doc.AdditionalFiles = append(doc.AdditionalFiles, files...)
	}

	if in.CreateTask {
		d, t, err := a.coord.AddDocumentAndTask(ctx, doc)
		return d, t, a.op.Fail(err)
	}
	d, err := a.coord.AddDocument(ctx, doc)
	return d, nil, a.op.Fail(err)
}

// readPath loads one file, or every file directly inside a directory.
func (a *GestorApp) readPath(p string) ([]*gestor.Attachment, error) {
	info, err := os.Stat(p)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", p, err)
	}
	if info.IsDir() {
		files, err := a.loader.ReadDirectory(p)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", p, err)
		}
		return files, nil
	}
	f, err := a.loader.Read(p)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", p, err)
	}
	return []*gestor.Attachment{f}, nil
}

// OutgoingInput is a NewOutgoingDocument whose file is given as a path.
type OutgoingInput struct {
	gestor.NewOutgoingDocument
	FilePath string
}

// AddOutgoing registers an outgoing document.
func (a *GestorApp) AddOutgoing(ctx context.Context, in OutgoingInput) (*gestor.OutgoingDocument, error) {
	out := in.NewOutgoingDocument
	if in.FilePath != "" {
		f, err := a.loader.Read(in.FilePath)
		if err != nil {
			return nil, a.op.Fail(fmt.Errorf("reading %s: %w", in.FilePath, err))
		}
		out.File = f
	}
	d, err := a.coord.AddOutgoingDocument(ctx, out)
	return d, a.op.Fail(err)
}

func (a *GestorApp) AddTask(ctx context.Context, in gestor.NewTask) (*gestor.Task, error) {
	t, err := a.coord.AddTask(ctx, in)
	return t, a.op.Fail(err)
}

func (a *GestorApp) UpdateTask(ctx context.Context, id string, upd gestor.TaskUpdate) error {
	return a.op.Fail(a.coord.UpdateTask(ctx, id, upd))
}

// CompleteTask completes a task with the result file at resultPath (optional)
// and registers the outgoing document that delivered it.
func (a *GestorApp) CompleteTask(ctx context.Context, id, resultPath string, out gestor.NewOutgoingDocument) (*gestor.OutgoingDocument, error) {
	var result *gestor.Attachment
	if resultPath != "" {
		f, err := a.loader.Read(resultPath)
		if err != nil {
			return nil, a.op.Fail(fmt.Errorf("reading %s: %w", resultPath, err))
		}
		result = f
	}
	d, err := a.coord.CompleteTask(ctx, id, result, out)
	return d, a.op.Fail(err)
}

// Remove deletes a record of the given kind.
func (a *GestorApp) Remove(ctx context.Context, kind gestor.Kind, id string) error {
	var err error
	switch kind {
	case gestor.KindIncoming:
		err = a.coord.DeleteDocument(ctx, id)
	case gestor.KindOutgoing:
		err = a.coord.DeleteOutgoingDocument(ctx, id)
	case gestor.KindTask:
		err = a.coord.DeleteTask(ctx, id)
	default:
		err = fmt.Errorf("unknown record kind: %q", kind)
	}
	return a.op.Fail(err)
}

func (a *GestorApp) AddFolder(ctx context.Context, name, parentID string) (*gestor.Folder, error) {
	f, err := a.coord.AddFolder(ctx, name, parentID)
	return f, a.op.Fail(err)
}

func (a *GestorApp) RenameFolder(ctx context.Context, id, name string) error {
	return a.op.Fail(a.coord.RenameFolder(ctx, id, name))
}

func (a *GestorApp) RemoveFolder(ctx context.Context, id string) error {
	return a.op.Fail(a.coord.DeleteFolder(ctx, id))
}

// View calls fn with the current workspace, live or archived.
func (a *GestorApp) View(fn func(ws *gestor.Workspace)) {
	a.coord.Read(fn)
}

// SaveAttachments writes every loaded attachment of rec into dir and
// returns the written paths. Slots without bytes are skipped.
func (a *GestorApp) SaveAttachments(dir string, rec gestor.Record) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, a.op.Fail(fmt.Errorf("creating %s: %w", dir, err))
	}
	var written []string
	for _, slot := range rec.Slots() {
		f := slot.File()
		if f == nil {
			continue
		}
		p, err := a.loader.Write(dir, f)
		if err != nil {
			return written, a.op.Fail(fmt.Errorf("saving %s: %w", f.Name, err))
		}
		written = append(written, p)
	}
	return written, nil
}

// BackupFileName is the default name of an exported backup for the given day.
func BackupFileName(now time.Time) string {
	return fmt.Sprintf("respaldo_gestor_pro_%s.zip", now.UTC().Format("2006-01-02"))
}

// ExportBackup writes the workspace container into dir and returns its path.
// With encrypt the container is sealed and gets EncryptedBackupSuffix.
func (a *GestorApp) ExportBackup(ctx context.Context, dir string, encrypt bool) (string, error) {
	if encrypt && (a.keys == nil || !a.keys.IsConfigured()) {
		return "", a.op.Fail(fmt.Errorf("encryption keys are not set up: run `gestor keys setup`"))
	}
	data, err := a.coord.ExportArchive(ctx)
	if err != nil {
		return "", a.op.Fail(fmt.Errorf("exporting: %w", err))
	}
	name := BackupFileName(a.clock.Now())
	if encrypt {
		var sealed bytes.Buffer
		if err := a.keys.Encrypt(bytes.NewReader(data), &sealed); err != nil {
			return "", a.op.Fail(fmt.Errorf("encrypting backup: %w", err))
		}
		data = sealed.Bytes()
		name += EncryptedBackupSuffix
	}
	dest := filepath.Join(dir, name)
	if err := os.WriteFile(dest, data, 0600); err != nil {
		return "", a.op.Fail(fmt.Errorf("writing backup: %w", err))
	}
	a.log.Info("backup exported", "path", dest, "bytes", len(data), "encrypted", encrypt)
	return dest, nil
}

// BackupEncrypted reports whether the backup at path needs a passphrase.
func BackupEncrypted(path string) bool {
	return strings.HasSuffix(path, EncryptedBackupSuffix)
}

// ImportBackup replaces the workspace with the backup at path. passphrase
// is only used for sealed backups.
func (a *GestorApp) ImportBackup(ctx context.Context, path, passphrase string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return a.op.Fail(fmt.Errorf("reading backup: %w", err))
	}
	if BackupEncrypted(path) {
		dec, err := a.unlock(passphrase)
		if err != nil {
			return a.op.Fail(err)
		}
		var plain bytes.Buffer
		if err := dec.Decrypt(bytes.NewReader(data), &plain); err != nil {
			return a.op.Fail(fmt.Errorf("decrypting backup: %w", err))
		}
		data = plain.Bytes()
	}
	if err := a.coord.ImportArchive(ctx, data); err != nil {
		return a.op.Fail(fmt.Errorf("importing: %w", err))
	}
	return nil
}

// ArchiveYear seals the current year and resets the workspace.
func (a *GestorApp) ArchiveYear(ctx context.Context) (int, error) {
	year, err := a.coord.ArchiveCurrentPeriod(ctx)
	return year, a.op.Fail(err)
}

// ListArchives returns archived years, newest first.
func (a *GestorApp) ListArchives() ([]int, error) {
	years, err := a.coord.ListPeriods()
	return years, a.op.Fail(err)
}

// ArchiveEncrypted reports whether opening year needs a passphrase.
func (a *GestorApp) ArchiveEncrypted(year int) (bool, error) {
	enc, err := a.coord.ArchiveEncrypted(year)
	return enc, a.op.Fail(err)
}

// ViewArchive opens an archived year read-only, calls fn with its workspace
// and returns to the live workspace.
func (a *GestorApp) ViewArchive(ctx context.Context, year int, passphrase string, fn func(ws *gestor.Workspace) error) error {
	encrypted, err := a.coord.ArchiveEncrypted(year)
	if err != nil {
		return a.op.Fail(err)
	}
	var dec gestor.DecryptionContext
	if encrypted {
		if dec, err = a.unlock(passphrase); err != nil {
			return a.op.Fail(err)
		}
	}
	if err := a.coord.ViewPeriod(ctx, year, dec); err != nil {
		return a.op.Fail(err)
	}
	var fnErr error
	a.coord.Read(func(ws *gestor.Workspace) { fnErr = fn(ws) })
	if err := a.coord.ExitPeriodView(ctx); err != nil {
		return a.op.Fail(fmt.Errorf("returning to live workspace: %w", err))
	}
	return a.op.Fail(fnErr)
}

func (a *GestorApp) unlock(passphrase string) (gestor.DecryptionContext, error) {
	if a.keys == nil {
		return nil, fmt.Errorf("encryption keys are not configured")
	}
	dec, err := a.keys.Unlock(passphrase)
	if err != nil {
		return nil, fmt.Errorf("unlocking key: %w", err)
	}
	return dec, nil
}

// Close flushes the pending push and closes all resources.
func (a *GestorApp) Close(ctx context.Context) error {
	var firstErr error

	if err := a.coord.Close(ctx); err != nil {
		a.op.Fail(err)
		firstErr = fmt.Errorf("flushing sync: %w", err)
	}

	if err := a.db.Close(); err != nil {
		if firstErr == nil {
			firstErr = fmt.Errorf("closing database: %w", err)
		}
	}
	if c, ok := a.remote.(io.Closer); ok {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("closing remote store: %w", err)
		}
	}

	a.log.Info("operation finished", "operation", a.op.Name, "status", a.op.Status, "elapsed", a.clock.Now().Sub(a.op.StartedAt).Truncate(time.Millisecond))
	if a.logFile != nil {
		a.logFile.Close()
	}

	return firstErr
}
