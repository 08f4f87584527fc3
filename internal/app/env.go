package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"gestor-go/internal/gestor"
	"gestor-go/internal/remote"
)

// Environment variables holding secrets. They never live in the config file.
const (
	EnvFile              = "GESTOR_ENV_FILE"
	EnvRemoteToken       = "GESTOR_REMOTE_TOKEN"
	EnvS3AccessKeyID     = "GESTOR_S3_ACCESS_KEY_ID"
	EnvS3SecretAccessKey = "GESTOR_S3_SECRET_ACCESS_KEY"
)

// LoadEnv loads a dotenv file into the process environment. GESTOR_ENV_FILE
// names the file; otherwise <baseDir>/.env is loaded when it exists.
// Variables already set in the environment are not overridden.
func LoadEnv(baseDir string) error {
	path := os.Getenv(EnvFile)
	if path == "" {
		path = filepath.Join(baseDir, ".env")
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			return nil
		}
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading env file %s: %w", path, err)
	}
	return nil
}

// secretsFromEnv reads the remote bearer token and storage keys.
func secretsFromEnv() (gestor.Credentials, remote.Secrets) {
	return gestor.Credentials{Token: os.Getenv(EnvRemoteToken)},
		remote.Secrets{
			S3AccessKeyID:     os.Getenv(EnvS3AccessKeyID),
			S3SecretAccessKey: os.Getenv(EnvS3SecretAccessKey),
		}
}
