package remote

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"gestor-go/internal/gestor"
)

// fakeFunctions emulates the two serverless functions: one JSON document per
// bearer token, "{}" when the user has none.
type fakeFunctions struct {
	mu   sync.Mutex
	docs map[string][]byte
}

func (f *fakeFunctions) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token := r.Header.Get("Authorization")
	if token == "" {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"No autorizado"}`))
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/fn/getFromFirestore":
		doc, ok := f.docs[token]
		if !ok {
			doc = []byte("{}")
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(doc)
	case r.Method == http.MethodPost && r.URL.Path == "/fn/syncToFirestore":
		body, _ := io.ReadAll(r.Body)
		f.docs[token] = body
		_, _ = w.Write([]byte(`{"message":"ok"}`))
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func sampleSnapshot() *gestor.Snapshot {
	return &gestor.Snapshot{
		Documents: []gestor.StoredDocument{{
			ID:        "doc-1",
			Subject:   "Solicitud",
			From:      "Dirección",
			CreatedAt: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
			FileID:    "file-1",
			FileName:  "solicitud.pdf",
		}},
		Tasks:             []gestor.StoredTask{},
		OutgoingDocuments: []gestor.StoredOutgoingDocument{},
	}
}

func TestHTTPStore_RoundTrip(t *testing.T) {
	srv := httptest.NewServer(&fakeFunctions{docs: map[string][]byte{}})
	defer srv.Close()

	s := NewHTTPStore(srv.URL+"/fn/", srv.Client())
	creds := gestor.Credentials{Token: "tok-1"}
	ctx := context.Background()

	_, found, err := s.Fetch(ctx, "u1", creds)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if found {
		t.Fatal("Fetch() found = true for new user, want false")
	}

	if err := s.Store(ctx, "u1", sampleSnapshot(), creds); err != nil {
		t.Fatalf("Store() error = %v", err)
	}

	got, found, err := s.Fetch(ctx, "u1", creds)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if !found {
		t.Fatal("Fetch() found = false after Store")
	}
	if len(got.Documents) != 1 || got.Documents[0].FileID != "file-1" {
		t.Errorf("Fetch() documents = %+v", got.Documents)
	}

	// A different token is a different user.
	if _, found, _ := s.Fetch(ctx, "u2", gestor.Credentials{Token: "tok-2"}); found {
		t.Error("Fetch() with another token found data")
	}
}

func TestHTTPStore_Unauthorized(t *testing.T) {
	srv := httptest.NewServer(&fakeFunctions{docs: map[string][]byte{}})
	defer srv.Close()

	s := NewHTTPStore(srv.URL+"/fn", srv.Client())
	_, _, err := s.Fetch(context.Background(), "u1", gestor.Credentials{})

	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("Fetch() error = %v, want *HTTPError", err)
	}
	if httpErr.StatusCode != http.StatusUnauthorized {
		t.Errorf("StatusCode = %d, want %d", httpErr.StatusCode, http.StatusUnauthorized)
	}
	if httpErr.Message != "No autorizado" {
		t.Errorf("Message = %q, want %q", httpErr.Message, "No autorizado")
	}
}

func TestHTTPStore_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"message":"ok"}`))
	}))
	defer srv.Close()

	s := NewHTTPStore(srv.URL, srv.Client())
	s.baseDelay = time.Millisecond
	if err := s.Store(context.Background(), "u1", sampleSnapshot(), gestor.Credentials{Token: "t"}); err != nil {
		t.Fatalf("Store() error = %v", err)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("calls = %d, want 3", got)
	}
}

func TestHTTPStore_GivesUpAfterMaxRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "boom"})
	}))
	defer srv.Close()

	s := NewHTTPStore(srv.URL, srv.Client())
	s.baseDelay = time.Millisecond
	err := s.Store(context.Background(), "u1", sampleSnapshot(), gestor.Credentials{Token: "t"})

	var httpErr *HTTPError
	if !errors.As(err, &httpErr) || httpErr.StatusCode != http.StatusInternalServerError {
		t.Fatalf("Store() error = %v, want http 500", err)
	}
	if got := calls.Load(); got != 4 {
		t.Errorf("calls = %d, want 4", got)
	}
}

func TestHTTPStore_InvalidDocument(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"documents":"not-a-list"}`))
	}))
	defer srv.Close()

	s := NewHTTPStore(srv.URL, srv.Client())
	if _, _, err := s.Fetch(context.Background(), "u1", gestor.Credentials{Token: "t"}); err == nil {
		t.Fatal("Fetch() expected error for invalid document")
	}
}

func TestRetryDelay(t *testing.T) {
	s := NewHTTPStore("http://x", nil)
	tests := []struct {
		name       string
		attempt    int
		retryAfter string
		want       time.Duration
	}{
		{"first attempt", 1, "", 100 * time.Millisecond},
		{"backoff doubles", 3, "", 400 * time.Millisecond},
		{"capped", 10, "", 2 * time.Second},
		{"retry-after seconds", 1, "1", time.Second},
		{"retry-after capped", 1, "60", 2 * time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.retryDelay(tt.attempt, tt.retryAfter); got != tt.want {
				t.Errorf("retryDelay(%d, %q) = %v, want %v", tt.attempt, tt.retryAfter, got, tt.want)
			}
		})
	}
}
