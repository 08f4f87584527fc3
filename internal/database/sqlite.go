package database

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"gestor-go/internal/database/migrations"
	"gestor-go/internal/gestor"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteStore is the local structured-record store. The kv table holds
// serialized snapshots and small settings; the archives table holds sealed
// yearly containers under "archive_<year>" keys.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// NewSQLiteStore opens the database at path and migrates it to the latest schema.
// path can be a file path or ":memory:" for an in-memory database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}
	if err := migrations.Up(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating database: %w", err)
	}
	return &SQLiteStore{db: db, path: path}, nil
}

// NewSQLiteStoreFromDB wraps an existing, already migrated connection.
func NewSQLiteStoreFromDB(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// OpenConnection opens and configures a SQLite database connection with appropriate PRAGMAs.
// path can be a file path or ":memory:" for in-memory database.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Every pooled connection to ":memory:" would get its own empty database.
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if path != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to enable WAL: %w", err)
		}
		if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set busy timeout: %w", err)
		}
	}

	return db, nil
}

// Key-value operations

func (s *SQLiteStore) Get(key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM kv WHERE key = ?", key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("reading key %s: %w", key, err)
	}
	return value, true, nil
}

func (s *SQLiteStore) Set(key, value string) error {
	_, err := s.db.Exec(`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("writing key %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) Delete(key string) error {
	if _, err := s.db.Exec("DELETE FROM kv WHERE key = ?", key); err != nil {
		return fmt.Errorf("deleting key %s: %w", key, err)
	}
	return nil
}

// Archive operations

// ArchiveKey is the storage key of an archived period.
func ArchiveKey(period int) string {
	return "archive_" + strconv.Itoa(period)
}

// PutArchive stores a sealed period container. Storing the same period twice
// replaces the earlier container.
func (s *SQLiteStore) PutArchive(a *gestor.ArchivedPeriod) error {
	createdAt := a.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := s.db.Exec(`INSERT INTO archives (period, key, data, encrypted, created_at) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(period) DO UPDATE SET data = excluded.data, encrypted = excluded.encrypted, created_at = excluded.created_at`,
		a.Period, ArchiveKey(a.Period), a.Data, a.Encrypted, createdAt)
	if err != nil {
		return fmt.Errorf("storing %s: %w", ArchiveKey(a.Period), err)
	}
	return nil
}

func (s *SQLiteStore) GetArchive(period int) (*gestor.ArchivedPeriod, error) {
	a := &gestor.ArchivedPeriod{Period: period}
	err := s.db.QueryRow("SELECT data, encrypted, created_at FROM archives WHERE period = ?", period).
		Scan(&a.Data, &a.Encrypted, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", ArchiveKey(period), gestor.ErrPeriodNotFound)
		}
		return nil, fmt.Errorf("reading %s: %w", ArchiveKey(period), err)
	}
	return a, nil
}

// ListArchives returns the archived periods in ascending order.
func (s *SQLiteStore) ListArchives() ([]int, error) {
	rows, err := s.db.Query("SELECT period FROM archives ORDER BY period")
	if err != nil {
		return nil, fmt.Errorf("listing archives: %w", err)
	}
	defer rows.Close()

	var periods []int
	for rows.Next() {
		var p int
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("scanning archive period: %w", err)
		}
		periods = append(periods, p)
	}
	return periods, rows.Err()
}

// CheckMigrations verifies the schema is at the latest version.
func (s *SQLiteStore) CheckMigrations() error {
	return migrations.Check(s.db)
}

// Schema reports the applied and latest schema versions.
func (s *SQLiteStore) Schema() (migrations.Status, error) {
	return migrations.Inspect(s.db)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

var (
	_ gestor.KVStore     = (*SQLiteStore)(nil)
	_ gestor.PeriodStore = (*SQLiteStore)(nil)
)
