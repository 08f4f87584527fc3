package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestManager_ReadWrite_RoundTrip(t *testing.T) {
	original := &Config{
		UserID:   "user-abc",
		BaseDir:  "/home/user/.local/share/gestor",
		LogDir:   "/home/user/.local/share/gestor/log",
		LogLevel: "debug",
		Remote: RemoteConfig{
			Type:     "s3",
			S3Bucket: "gestor-data",
			S3Prefix: "prod",
			S3Region: "eu-west-1",
		},
		Blobs: BlobStoreConfig{Type: "filesystem", Root: "/home/user/.local/share/gestor/blobs"},
		Encryption: EncryptionConfig{
			Enabled:        true,
			PublicKeyPath:  "/home/user/.local/share/gestor/keys/gestor.pub",
			PrivateKeyPath: "/home/user/.local/share/gestor/keys/gestor.key",
		},
		Database: DatabaseConfig{Type: "sqlite", DataDir: "/home/user/.local/share/gestor/db"},
		Sync:     SyncConfig{DebounceMillis: 500},
	}

	var buf bytes.Buffer
	m := &Manager{}

	if err := m.Write(&buf, original); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	got, err := m.Read(&buf)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	if got.UserID != original.UserID {
		t.Errorf("UserID = %q, want %q", got.UserID, original.UserID)
	}
	if got.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want %q", got.LogLevel, "debug")
	}
	if got.Remote != original.Remote {
		t.Errorf("Remote = %+v, want %+v", got.Remote, original.Remote)
	}
	if got.Blobs != original.Blobs {
		t.Errorf("Blobs = %+v, want %+v", got.Blobs, original.Blobs)
	}
	if got.Encryption != original.Encryption {
		t.Errorf("Encryption = %+v, want %+v", got.Encryption, original.Encryption)
	}
	if got.Database != original.Database {
		t.Errorf("Database = %+v, want %+v", got.Database, original.Database)
	}
	if got.Sync.DebounceMillis != 500 {
		t.Errorf("Sync.DebounceMillis = %d, want %d", got.Sync.DebounceMillis, 500)
	}
}

func TestNewConfig(t *testing.T) {
	cfg := NewConfig("user-1", "/data/gestor")

	if cfg.UserID != "user-1" {
		t.Errorf("UserID = %q, want %q", cfg.UserID, "user-1")
	}
	if cfg.LogDir != "/data/gestor/log" {
		t.Errorf("LogDir = %q, want %q", cfg.LogDir, "/data/gestor/log")
	}
	if cfg.Blobs.Root != "/data/gestor/blobs" {
		t.Errorf("Blobs.Root = %q, want %q", cfg.Blobs.Root, "/data/gestor/blobs")
	}
	if cfg.Database.DataDir != "/data/gestor/db" {
		t.Errorf("Database.DataDir = %q, want %q", cfg.Database.DataDir, "/data/gestor/db")
	}
	if cfg.Encryption.PublicKeyPath != "/data/gestor/keys/gestor.pub" {
		t.Errorf("Encryption.PublicKeyPath = %q, want %q", cfg.Encryption.PublicKeyPath, "/data/gestor/keys/gestor.pub")
	}
	if cfg.Remote.Type != "" {
		t.Errorf("Remote.Type = %q, want local-only", cfg.Remote.Type)
	}
	if cfg.Sync.Debounce() != 2*time.Second {
		t.Errorf("Sync.Debounce() = %v, want 2s", cfg.Sync.Debounce())
	}
}

func TestSyncConfig_Debounce(t *testing.T) {
	tests := []struct {
		name   string
		millis int
		want   time.Duration
	}{
		{"unset uses default", 0, 2 * time.Second},
		{"explicit", 250, 250 * time.Millisecond},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := (SyncConfig{DebounceMillis: tt.millis}).Debounce(); got != tt.want {
				t.Errorf("Debounce() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"local only", func(c *Config) {}, false},
		{"missing user", func(c *Config) { c.UserID = "" }, true},
		{"http without url", func(c *Config) { c.Remote = RemoteConfig{Type: "http"} }, true},
		{"http with url", func(c *Config) { c.Remote = RemoteConfig{Type: "http", HTTPBaseURL: "https://example.org"} }, false},
		{"http bad timeout", func(c *Config) {
			c.Remote = RemoteConfig{Type: "http", HTTPBaseURL: "https://example.org", HTTPTimeout: "soon"}
		}, true},
		{"s3 without bucket", func(c *Config) { c.Remote = RemoteConfig{Type: "s3"} }, true},
		{"postgres without dsn", func(c *Config) { c.Remote = RemoteConfig{Type: "postgres"} }, true},
		{"unknown remote", func(c *Config) { c.Remote = RemoteConfig{Type: "ftp"} }, true},
		{"negative debounce", func(c *Config) { c.Sync.DebounceMillis = -1 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig("user-1", "/data/gestor")
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestInit(t *testing.T) {
	t.Run("creates config file", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "gestor.toml")

		if err := Init(path, NewConfig("u1", dir)); err != nil {
			t.Fatalf("Init() error = %v", err)
		}
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("config file not created: %v", err)
		}
	})

	t.Run("fails if file already exists", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "gestor.toml")
		cfg := NewConfig("u1", dir)

		if err := Init(path, cfg); err != nil {
			t.Fatalf("first Init() error = %v", err)
		}
		if err := Init(path, cfg); err == nil {
			t.Fatal("second Init() expected error")
		}
	})
}

func TestReadFromFile(t *testing.T) {
	t.Run("reads valid config", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "gestor.toml")
		cfg := NewConfig("read-test", dir)
		cfg.Database = DatabaseConfig{Type: "memory"}

		if err := Init(path, cfg); err != nil {
			t.Fatalf("Init() error = %v", err)
		}

		got, err := ReadFromFile(path)
		if err != nil {
			t.Fatalf("ReadFromFile() error = %v", err)
		}
		if got.UserID != "read-test" {
			t.Errorf("UserID = %q, want %q", got.UserID, "read-test")
		}
		if got.Database.Type != "memory" {
			t.Errorf("Database.Type = %q, want %q", got.Database.Type, "memory")
		}
	})

	t.Run("returns error for missing file", func(t *testing.T) {
		if _, err := ReadFromFile("/nonexistent/path/gestor.toml"); err == nil {
			t.Fatal("ReadFromFile() expected error for missing file")
		}
	})
}
