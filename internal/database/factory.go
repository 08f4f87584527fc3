package database

import (
	"fmt"
	"os"
	"path/filepath"

	"gestor-go/internal/config"
)

// NewStoreFromConfig creates the local store based on the database config type.
// Each user gets their own database file.
func NewStoreFromConfig(cfg config.DatabaseConfig, userID string) (*SQLiteStore, error) {
	switch cfg.Type {
	case "sqlite":
		if cfg.DataDir == "" {
			return nil, fmt.Errorf("data_dir required for sqlite database")
		}
		if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		return NewSQLiteStore(filepath.Join(cfg.DataDir, userID+".db"))
	case "memory":
		return NewSQLiteStore(":memory:")
	default:
		return nil, fmt.Errorf("unknown database type: %s", cfg.Type)
	}
}
