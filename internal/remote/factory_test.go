package remote

import (
	"context"
	"testing"

	"gestor-go/internal/config"
)

func TestNewStoreFromConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.RemoteConfig
		wantNil bool
		wantErr bool
	}{
		{name: "disabled", cfg: config.RemoteConfig{}, wantNil: true},
		{name: "memory", cfg: config.RemoteConfig{Type: "memory"}},
		{name: "http", cfg: config.RemoteConfig{Type: "http", HTTPBaseURL: "https://example.org/.netlify/functions", HTTPTimeout: "5s"}},
		{name: "http without url", cfg: config.RemoteConfig{Type: "http"}, wantErr: true},
		{name: "http bad timeout", cfg: config.RemoteConfig{Type: "http", HTTPBaseURL: "https://example.org", HTTPTimeout: "later"}, wantErr: true},
		{name: "postgres", cfg: config.RemoteConfig{Type: "postgres", PostgresDSN: "postgres://localhost/gestor?sslmode=disable"}},
		{name: "postgres without dsn", cfg: config.RemoteConfig{Type: "postgres"}, wantErr: true},
		{name: "s3 without bucket", cfg: config.RemoteConfig{Type: "s3"}, wantErr: true},
		{name: "unknown", cfg: config.RemoteConfig{Type: "carrier-pigeon"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewStoreFromConfig(context.Background(), tt.cfg, Secrets{})
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewStoreFromConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if (got == nil) != tt.wantNil {
				t.Errorf("NewStoreFromConfig() = %v, wantNil %v", got, tt.wantNil)
			}
		})
	}
}
