// Package migrations owns the schema of the local gestor store: the kv table
// holding workspace snapshots and settings, and the archives table holding
// sealed yearly containers.
package migrations

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed files/*.sql
var files embed.FS

// Table records the applied schema version inside the store.
const Table = "gestor_schema_migrations"

var (
	ErrNoSchema = errors.New("gestor store has no schema")
	ErrDirty    = errors.New("gestor store schema is dirty")
	ErrBehind   = errors.New("gestor store schema is behind this binary")
	ErrAhead    = errors.New("gestor store schema is newer than this binary")
)

// Status is the schema state of one gestor store. Version is 0 before the
// first migration ran.
type Status struct {
	Version uint
	Latest  uint
	Dirty   bool
}

// Pending is the number of migrations Up would apply.
func (s Status) Pending() uint {
	if s.Version >= s.Latest {
		return 0
	}
	return s.Latest - s.Version
}

// Inspect reads the applied schema version without applying migrations.
func Inspect(db *sql.DB) (Status, error) {
	latest, err := Latest()
	if err != nil {
		return Status{}, err
	}
	m, err := open(db)
	if err != nil {
		return Status{}, err
	}
	// Closing m would close db, which the caller owns.

	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return Status{Latest: latest}, nil
	}
	if err != nil {
		return Status{}, fmt.Errorf("reading schema version: %w", err)
	}
	return Status{Version: version, Latest: latest, Dirty: dirty}, nil
}

// Check returns nil when the store is at the schema this binary expects.
func Check(db *sql.DB) error {
	st, err := Inspect(db)
	if err != nil {
		return err
	}
	switch {
	case st.Dirty:
		return fmt.Errorf("%w at version %d: a previous migration failed", ErrDirty, st.Version)
	case st.Version == 0:
		return fmt.Errorf("%w: %d migrations pending", ErrNoSchema, st.Pending())
	case st.Version < st.Latest:
		return fmt.Errorf("%w: at version %d, latest is %d", ErrBehind, st.Version, st.Latest)
	case st.Version > st.Latest:
		return fmt.Errorf("%w: at version %d, binary knows %d", ErrAhead, st.Version, st.Latest)
	}
	return nil
}

// Up applies every pending migration. A current store is left as is.
func Up(db *sql.DB) error {
	m, err := open(db)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrating gestor store: %w", err)
	}
	return nil
}

// Latest is the highest version among the embedded migration files.
func Latest() (uint, error) {
	src, err := iofs.New(files, "files")
	if err != nil {
		return 0, fmt.Errorf("reading migration files: %w", err)
	}
	defer src.Close()

	v, err := src.First()
	if err != nil {
		return 0, fmt.Errorf("reading first migration: %w", err)
	}
	for {
		next, err := src.Next(v)
		if errors.Is(err, fs.ErrNotExist) {
			return v, nil
		}
		if err != nil {
			return 0, fmt.Errorf("reading migration after %d: %w", v, err)
		}
		v = next
	}
}

func open(db *sql.DB) (*migrate.Migrate, error) {
	src, err := iofs.New(files, "files")
	if err != nil {
		return nil, fmt.Errorf("reading migration files: %w", err)
	}
	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{MigrationsTable: Table})
	if err != nil {
		src.Close()
		return nil, fmt.Errorf("opening migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite3", driver)
	if err != nil {
		src.Close()
		return nil, fmt.Errorf("creating migrator: %w", err)
	}
	return m, nil
}
