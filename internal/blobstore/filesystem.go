package blobstore

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gestor-go/internal/gestor"
)

// FileSystemStore is a filesystem-based implementation of gestor.BlobStore.
// Each blob is a data file plus a JSON sidecar with its filename and type:
//
//	<root>/
//	  data/
//	    <id>        (attachment bytes)
//	  meta/
//	    <id>.json   (filename and content type)
type FileSystemStore struct {
	root    string
	dataDir string
	metaDir string
}

type blobMeta struct {
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
	Size        int    `json:"size"`
}

// NewFileSystemStore creates a new filesystem blob store rooted at the given path.
func NewFileSystemStore(root string) (*FileSystemStore, error) {
	dataDir := filepath.Join(root, "data")
	metaDir := filepath.Join(root, "meta")

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	if err := os.MkdirAll(metaDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create meta directory: %w", err)
	}

	return &FileSystemStore{root: root, dataDir: dataDir, metaDir: metaDir}, nil
}

func validateID(id string) error {
	if id == "" || id == "." || id == ".." || strings.ContainsAny(id, `/\`) {
		return fmt.Errorf("invalid blob id: %q", id)
	}
	return nil
}

// Put stores file under id. The data file is written before the sidecar,
// so a sidecar always describes complete bytes.
func (s *FileSystemStore) Put(id string, file *gestor.Attachment) error {
	if err := validateID(id); err != nil {
		return err
	}
	if file == nil {
		return fmt.Errorf("nil attachment for %s", id)
	}

	if err := s.writeFile(filepath.Join(s.dataDir, id), bytes.NewReader(file.Data), int64(len(file.Data))); err != nil {
		return fmt.Errorf("writing blob %s: %w", id, err)
	}

	meta, err := json.Marshal(blobMeta{Name: file.Name, ContentType: file.ContentType, Size: len(file.Data)})
	if err != nil {
		return fmt.Errorf("encoding blob metadata: %w", err)
	}
	if err := s.writeFile(s.metaPath(id), bytes.NewReader(meta), int64(len(meta))); err != nil {
		return fmt.Errorf("writing blob metadata %s: %w", id, err)
	}
	return nil
}

// Get reads the blob stored under id. A blob whose sidecar is missing is
// treated as absent.
func (s *FileSystemStore) Get(id string) (*gestor.Attachment, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}

	var metaBuf bytes.Buffer
	if err := s.readFile(s.metaPath(id), &metaBuf); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", id, gestor.ErrBlobNotFound)
		}
		return nil, err
	}
	var meta blobMeta
	if err := json.Unmarshal(metaBuf.Bytes(), &meta); err != nil {
		return nil, fmt.Errorf("decoding blob metadata %s: %w", id, err)
	}

	var data bytes.Buffer
	if err := s.readFile(filepath.Join(s.dataDir, id), &data); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", id, gestor.ErrBlobNotFound)
		}
		return nil, err
	}
	if data.Len() != meta.Size {
		return nil, fmt.Errorf("blob %s size mismatch: expected %d bytes, got %d", id, meta.Size, data.Len())
	}

	return &gestor.Attachment{Name: meta.Name, ContentType: meta.ContentType, Data: data.Bytes()}, nil
}

// Delete removes the blob and its sidecar. Absent ids are ignored.
func (s *FileSystemStore) Delete(id string) error {
	if err := validateID(id); err != nil {
		return err
	}
	// Sidecar first: without it the blob is already reported absent.
	for _, p := range []string{s.metaPath(id), filepath.Join(s.dataDir, id)} {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("deleting blob %s: %w", id, err)
		}
	}
	return nil
}

// ValidateSetup verifies that the store directories are accessible.
func (s *FileSystemStore) ValidateSetup() error {
	for _, dir := range []string{s.root, s.dataDir, s.metaDir} {
		info, err := os.Stat(dir)
		if err != nil {
			return fmt.Errorf("blob store directory not accessible: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("blob store path is not a directory: %s", dir)
		}
	}
	return nil
}

func (s *FileSystemStore) metaPath(id string) string {
	return filepath.Join(s.metaDir, id+".json")
}

// writeFile writes data from r to the specified path using atomic write (temp file + rename).
func (s *FileSystemStore) writeFile(destPath string, r io.Reader, expectedSize int64) error {
	// Create temp file in the same directory to ensure atomic rename works
	dir := filepath.Dir(destPath)
	tmpFile, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	written, err := io.Copy(tmpFile, r)
	if err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write data: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if written != expectedSize {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", expectedSize, written)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	success = true
	return nil
}

// readFile reads from the specified path and writes to w. A missing file
// yields an error wrapping os.ErrNotExist.
func (s *FileSystemStore) readFile(srcPath string, w io.Writer) error {
	f, err := os.Open(srcPath)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}
	return nil
}

var _ gestor.BlobStore = (*FileSystemStore)(nil)
