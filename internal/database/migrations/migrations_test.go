package migrations

import (
	"database/sql"
	"errors"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

func TestUp_CreatesGestorTables(t *testing.T) {
	db := openTestDB(t)

	if err := Up(db); err != nil {
		t.Fatalf("Up() error = %v", err)
	}

	for _, table := range []string{"kv", "archives", Table} {
		var name string
		err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("table %s was not created: %v", table, err)
		}
	}
}

func TestInspect(t *testing.T) {
	latest, err := Latest()
	if err != nil {
		t.Fatalf("Latest() error = %v", err)
	}
	if latest == 0 {
		t.Fatal("Latest() = 0, want at least one migration")
	}

	tests := []struct {
		name    string
		migrate bool
		want    Status
		pending uint
	}{
		{name: "fresh store", migrate: false, want: Status{Latest: latest}, pending: latest},
		{name: "migrated store", migrate: true, want: Status{Version: latest, Latest: latest}, pending: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := openTestDB(t)
			if tt.migrate {
				if err := Up(db); err != nil {
					t.Fatalf("Up() error = %v", err)
				}
			}
			got, err := Inspect(db)
			if err != nil {
				t.Fatalf("Inspect() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Inspect() = %+v, want %+v", got, tt.want)
			}
			if got.Pending() != tt.pending {
				t.Errorf("Pending() = %d, want %d", got.Pending(), tt.pending)
			}
		})
	}
}

func TestCheck(t *testing.T) {
	latest, err := Latest()
	if err != nil {
		t.Fatalf("Latest() error = %v", err)
	}

	tests := []struct {
		name    string
		prepare func(t *testing.T, db *sql.DB)
		wantErr error
	}{
		{name: "fresh store", prepare: func(t *testing.T, db *sql.DB) {}, wantErr: ErrNoSchema},
		{name: "current store", prepare: func(t *testing.T, db *sql.DB) { mustUp(t, db) }, wantErr: nil},
		{name: "newer store", prepare: func(t *testing.T, db *sql.DB) {
			mustUp(t, db)
			setVersion(t, db, latest+1, false)
		}, wantErr: ErrAhead},
		{name: "dirty store", prepare: func(t *testing.T, db *sql.DB) {
			mustUp(t, db)
			setVersion(t, db, latest, true)
		}, wantErr: ErrDirty},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := openTestDB(t)
			tt.prepare(t, db)
			err := Check(db)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Check() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Check() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestUp_Idempotent(t *testing.T) {
	db := openTestDB(t)
	mustUp(t, db)
	if err := Up(db); err != nil {
		t.Errorf("second Up() error = %v", err)
	}
	if err := Check(db); err != nil {
		t.Errorf("Check() after double migration error = %v", err)
	}
}

func TestSchema_SnapshotKeyUnique(t *testing.T) {
	db := openTestDB(t)
	mustUp(t, db)

	if _, err := db.Exec("INSERT INTO kv (key, value) VALUES ('gestorProData_u1', '{}')"); err != nil {
		t.Fatalf("first insert error = %v", err)
	}
	if _, err := db.Exec("INSERT INTO kv (key, value) VALUES ('gestorProData_u1', '{}')"); err == nil {
		t.Error("duplicate snapshot key inserted, want unique constraint violation")
	}
}

func TestSchema_ArchiveKeyUnique(t *testing.T) {
	db := openTestDB(t)
	mustUp(t, db)

	if _, err := db.Exec("INSERT INTO archives (period, key, data, created_at) VALUES (2024, 'archive_2024', x'00', datetime('now'))"); err != nil {
		t.Fatalf("insert archive error = %v", err)
	}
	if _, err := db.Exec("INSERT INTO archives (period, key, data, created_at) VALUES (2025, 'archive_2024', x'00', datetime('now'))"); err == nil {
		t.Error("duplicate archive key inserted, want unique constraint violation")
	}

	var encrypted bool
	if err := db.QueryRow("SELECT encrypted FROM archives WHERE period = 2024").Scan(&encrypted); err != nil {
		t.Fatalf("reading archive error = %v", err)
	}
	if encrypted {
		t.Error("encrypted default = true, want false")
	}
}

func mustUp(t *testing.T, db *sql.DB) {
	t.Helper()
	if err := Up(db); err != nil {
		t.Fatalf("Up() error = %v", err)
	}
}

// setVersion rewrites the recorded schema version the way a newer binary or
// an interrupted migration would leave it.
func setVersion(t *testing.T, db *sql.DB, version uint, dirty bool) {
	t.Helper()
	if _, err := db.Exec("UPDATE "+Table+" SET version = ?, dirty = ?", version, dirty); err != nil {
		t.Fatalf("setting schema version: %v", err)
	}
}

// openTestDB opens an in-memory SQLite database closed at test cleanup.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}
