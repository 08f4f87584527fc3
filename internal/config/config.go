package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// DefaultDebounceMillis is the default remote push debounce window.
const DefaultDebounceMillis = 2000

// Config represents the main configuration for gestor.
type Config struct {
	UserID     string           `toml:"user_id"`
	BaseDir    string           `toml:"base_dir"`
	LogDir     string           `toml:"log_dir"`
	LogLevel   string           `toml:"log_level,omitempty"` // "debug", "info" (default), "warn", "error"
	Remote     RemoteConfig     `toml:"remote"`
	Blobs      BlobStoreConfig  `toml:"blobs"`
	Database   DatabaseConfig   `toml:"database"`
	Encryption EncryptionConfig `toml:"encryption"`
	Sync       SyncConfig       `toml:"sync"`
}

// EncryptionConfig holds paths to the age key pair used to seal archived periods.
type EncryptionConfig struct {
	Type           string `toml:"type"`    // "age" (default) or "test"
	Enabled        bool   `toml:"enabled"` // seal archived periods at rest
	PublicKeyPath  string `toml:"public_key_path"`
	PrivateKeyPath string `toml:"private_key_path"`
}

// RemoteConfig represents configuration for the remote authoritative store.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
// An empty Type disables remote sync.
type RemoteConfig struct {
	Type string `toml:"type"` // "", "memory", "http", "s3" or "postgres"

	// HTTP-specific fields (only used when Type == "http")
	HTTPBaseURL string `toml:"http_base_url,omitempty"`
	HTTPTimeout string `toml:"http_timeout,omitempty"` // Go duration, default 30s

	// S3-specific fields (only used when Type == "s3")
	S3Bucket   string `toml:"s3_bucket,omitempty"`
	S3Prefix   string `toml:"s3_prefix,omitempty"`
	S3Region   string `toml:"s3_region,omitempty"`
	S3Endpoint string `toml:"s3_endpoint,omitempty"`

	// Postgres-specific fields (only used when Type == "postgres")
	PostgresDSN   string `toml:"postgres_dsn,omitempty"`
	PostgresTable string `toml:"postgres_table,omitempty"`
}

// BlobStoreConfig represents configuration for the attachment blob store.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type BlobStoreConfig struct {
	Type string `toml:"type"`           // "filesystem" or "memory"
	Root string `toml:"root,omitempty"` // only used for type=filesystem
}

// DatabaseConfig represents configuration for the local record database.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type DatabaseConfig struct {
	Type    string `toml:"type"`               // "sqlite" or "memory"
	DataDir string `toml:"data_dir,omitempty"` // only used for type=sqlite
}

// SyncConfig holds remote sync tuning.
type SyncConfig struct {
	DebounceMillis int `toml:"debounce_ms"`
}

// Debounce returns the push debounce window, falling back to the default.
func (s SyncConfig) Debounce() time.Duration {
	if s.DebounceMillis <= 0 {
		return DefaultDebounceMillis * time.Millisecond
	}
	return time.Duration(s.DebounceMillis) * time.Millisecond
}

// NewConfig creates a new local-only Config with the provided values and default paths.
func NewConfig(userID, baseDir string) *Config {
	return &Config{
		UserID:  userID,
		BaseDir: baseDir,
		LogDir:  filepath.Join(baseDir, "log"),
		Blobs: BlobStoreConfig{
			Type: "filesystem",
			Root: filepath.Join(baseDir, "blobs"),
		},
		Database: DatabaseConfig{
			Type:    "sqlite",
			DataDir: filepath.Join(baseDir, "db"),
		},
		Encryption: EncryptionConfig{
			PublicKeyPath:  filepath.Join(baseDir, "keys", "gestor.pub"),
			PrivateKeyPath: filepath.Join(baseDir, "keys", "gestor.key"),
		},
		Sync: SyncConfig{DebounceMillis: DefaultDebounceMillis},
	}
}

// Validate checks the tagged unions for missing required fields.
func (c *Config) Validate() error {
	if c.UserID == "" {
		return fmt.Errorf("user_id is required")
	}
	switch c.Remote.Type {
	case "", "memory":
	case "http":
		if c.Remote.HTTPBaseURL == "" {
			return fmt.Errorf("remote.http_base_url required for http remote")
		}
		if c.Remote.HTTPTimeout != "" {
			if _, err := time.ParseDuration(c.Remote.HTTPTimeout); err != nil {
				return fmt.Errorf("remote.http_timeout: %w", err)
			}
		}
	case "s3":
		if c.Remote.S3Bucket == "" {
			return fmt.Errorf("remote.s3_bucket required for s3 remote")
		}
	case "postgres":
		if c.Remote.PostgresDSN == "" {
			return fmt.Errorf("remote.postgres_dsn required for postgres remote")
		}
	default:
		return fmt.Errorf("unknown remote type: %q", c.Remote.Type)
	}
	if c.Sync.DebounceMillis < 0 {
		return fmt.Errorf("sync.debounce_ms must not be negative")
	}
	return nil
}

// Manager handles reading and writing configuration.
type Manager struct{}

// Read decodes a Config from the provided reader.
func (m *Manager) Read(r io.Reader) (*Config, error) {
	var cfg Config
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// Write encodes a Config to the provided writer.
func (m *Manager) Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// ReadFromFile reads a Config from the specified file path.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	cfg, err := m.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return cfg, nil
}

// writeToFile writes a Config to the specified file path.
func writeToFile(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	if err := m.Write(f, cfg); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Init initializes a new config file at the specified path with the provided Config.
func Init(path string, cfg *Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := writeToFile(path, cfg); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	return nil
}
