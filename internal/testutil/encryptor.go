package testutil

import (
	"gestor-go/internal/encryption"
	"gestor-go/internal/gestor"
)

// NewTestEncryptor creates a new configured test encryptor for testing.
func NewTestEncryptor() gestor.Encryptor {
	enc := encryption.NewTestEncryptor()
	_ = enc.Setup("test")
	return enc
}
