package blobstore

import (
	"errors"
	"testing"

	"gestor-go/internal/gestor"
)

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()

	file := &gestor.Attachment{Name: "a.txt", ContentType: "text/plain", Data: []byte("hello")}
	if err := s.Put("file-1", file); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	// Stored bytes are a copy.
	file.Data[0] = 'j'
	got, err := s.Get("file-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if string(got.Data) != "hello" {
		t.Errorf("Data = %q, want %q", got.Data, "hello")
	}
	if s.Len() != 1 {
		t.Errorf("Len() = %d, want 1", s.Len())
	}

	if err := s.Delete("file-1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := s.Get("file-1"); !errors.Is(err, gestor.ErrBlobNotFound) {
		t.Errorf("Get() after Delete error = %v, want ErrBlobNotFound", err)
	}
	if err := s.Put("file-2", nil); err == nil {
		t.Error("Put(nil) expected error")
	}
}
