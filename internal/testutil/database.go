package testutil

import (
	"testing"

	"gestor-go/internal/database"
)

// NewTestStore creates a new in-memory SQLite store with migrations applied.
// It serves as both the KV store and the period store in tests.
// The store is automatically closed when the test completes.
func NewTestStore(t *testing.T) *database.SQLiteStore {
	t.Helper()

	store, err := database.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}

	t.Cleanup(func() {
		store.Close()
	})

	return store
}
