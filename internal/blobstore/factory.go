package blobstore

import (
	"fmt"

	"gestor-go/internal/config"
	"gestor-go/internal/gestor"
)

// NewStoreFromConfig creates a BlobStore implementation based on the blob store config type.
func NewStoreFromConfig(cfg config.BlobStoreConfig) (gestor.BlobStore, error) {
	switch cfg.Type {
	case "memory":
		return NewMemoryStore(), nil
	case "filesystem", "":
		if cfg.Root == "" {
			return nil, fmt.Errorf("filesystem blob store requires root to be set")
		}
		return NewFileSystemStore(cfg.Root)
	default:
		return nil, fmt.Errorf("unknown blob store type: %s", cfg.Type)
	}
}
