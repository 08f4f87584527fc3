package remote

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"gestor-go/internal/config"
	"gestor-go/internal/gestor"
)

// Secrets carries remote credentials that never live in the config file.
type Secrets struct {
	S3AccessKeyID     string
	S3SecretAccessKey string
}

// NewStoreFromConfig creates a RemoteStore based on the remote config type.
// It returns nil, nil when remote sync is disabled.
func NewStoreFromConfig(ctx context.Context, cfg config.RemoteConfig, secrets Secrets) (gestor.RemoteStore, error) {
	switch cfg.Type {
	case "":
		return nil, nil
	case "memory":
		return NewMemoryStore(), nil
	case "http":
		if cfg.HTTPBaseURL == "" {
			return nil, fmt.Errorf("http remote requires http_base_url to be set")
		}
		timeout := 30 * time.Second
		if cfg.HTTPTimeout != "" {
			d, err := time.ParseDuration(cfg.HTTPTimeout)
			if err != nil {
				return nil, fmt.Errorf("parsing http_timeout: %w", err)
			}
			timeout = d
		}
		return NewHTTPStore(cfg.HTTPBaseURL, &http.Client{Timeout: timeout}), nil
	case "s3":
		return NewS3Store(ctx, S3Options{
			Bucket:          cfg.S3Bucket,
			Prefix:          cfg.S3Prefix,
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     secrets.S3AccessKeyID,
			SecretAccessKey: secrets.S3SecretAccessKey,
		})
	case "postgres":
		return NewPostgresStore(cfg.PostgresDSN, cfg.PostgresTable)
	default:
		return nil, fmt.Errorf("unknown remote type: %s", cfg.Type)
	}
}
