package fs

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gestor-go/internal/gestor"
)

// DefaultMaxAttachmentBytes bounds a single attachment read from disk.
const DefaultMaxAttachmentBytes = 50 << 20

// ErrTooLarge is returned for files above the loader's size limit.
var ErrTooLarge = errors.New("file exceeds attachment size limit")

// AttachmentLoader reads attachments from and writes them to the local
// filesystem for the command line.
type AttachmentLoader struct {
	maxBytes int64
}

// NewAttachmentLoader returns a loader; maxBytes <= 0 uses DefaultMaxAttachmentBytes.
func NewAttachmentLoader(maxBytes int64) *AttachmentLoader {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxAttachmentBytes
	}
	return &AttachmentLoader{maxBytes: maxBytes}
}

// Read loads a regular file as an attachment named after its basename.
func (l *AttachmentLoader) Read(rawPath string) (*gestor.Attachment, error) {
	absPath, err := filepath.Abs(rawPath)
	if err != nil {
		return nil, fmt.Errorf("resolving absolute path: %w", err)
	}
	info, err := os.Lstat(absPath)
	if err != nil {
		return nil, fmt.Errorf("stat path: %w", err)
	}
	if err := checkRegular(absPath, info); err != nil {
		return nil, err
	}
	if info.Size() > l.maxBytes {
		return nil, fmt.Errorf("%s (%d bytes): %w", absPath, info.Size(), ErrTooLarge)
	}

	f, err := os.Open(absPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, l.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", absPath, err)
	}
	if int64(len(data)) > l.maxBytes {
		return nil, fmt.Errorf("%s: %w", absPath, ErrTooLarge)
	}

	name := filepath.Base(absPath)
	return &gestor.Attachment{Name: name, ContentType: gestor.DetectContentType(name, data), Data: data}, nil
}

func checkRegular(path string, info os.FileInfo) error {
	mode := info.Mode()
	switch {
	case mode.IsDir():
		return fmt.Errorf("cannot attach a directory: %s", path)
	case mode&os.ModeSymlink != 0:
		return fmt.Errorf("symlinks not supported: %s", path)
	case mode&os.ModeDevice != 0:
		return fmt.Errorf("device files not supported: %s", path)
	case mode&os.ModeNamedPipe != 0:
		return fmt.Errorf("named pipes not supported: %s", path)
	case mode&os.ModeSocket != 0:
		return fmt.Errorf("sockets not supported: %s", path)
	}
	return nil
}

// ReadDirectory loads every regular file directly inside dir, sorted by
// name, leaving out files matched by the skip patterns and by the
// directory's own SkipFileName.
func (l *AttachmentLoader) ReadDirectory(dir string) ([]*gestor.Attachment, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading directory: %w", err)
	}
	extra, err := ParseSkipFile(filepath.Join(dir, SkipFileName))
	if err != nil {
		return nil, err
	}
	skip := NewSkipMatcher(extra)

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
	var out []*gestor.Attachment
	for _, entry := range entries {
		if !entry.Type().IsRegular() || skip.Match(entry.Name()) {
			continue
		}
		a, err := l.Read(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

// Write saves an attachment into dir under its own basename and returns the
// written path. Existing files are not replaced.
func (l *AttachmentLoader) Write(dir string, file *gestor.Attachment) (string, error) {
	name := filepath.Base(strings.ReplaceAll(file.Name, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		return "", fmt.Errorf("attachment has no usable file name")
	}
	dest := filepath.Join(dir, name)
	f, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", err
	}
	if _, err := f.Write(file.Data); err != nil {
		f.Close()
		return "", fmt.Errorf("writing %s: %w", dest, err)
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return dest, nil
}
