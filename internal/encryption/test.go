package encryption

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"gestor-go/internal/gestor"
)

// sealedMarker opens every container sealed by TestEncryptor, so a sealed
// backup or archive no longer reads as a zip.
var sealedMarker = []byte("gestor-sealed/test\n")

// ErrWrongPassphrase is returned by TestEncryptor.Unlock for a passphrase
// other than the one given to Setup.
var ErrWrongPassphrase = errors.New("wrong passphrase")

// TestEncryptor seals containers without keys for tests and the "test"
// encryption type. Before Setup any passphrase unlocks; after Setup only
// the configured one does.
type TestEncryptor struct {
	passphrase string
}

var _ gestor.Encryptor = (*TestEncryptor)(nil)

func NewTestEncryptor() *TestEncryptor {
	return &TestEncryptor{}
}

func (e *TestEncryptor) Setup(passphrase string) error {
	if passphrase == "" {
		return fmt.Errorf("passphrase must not be empty")
	}
	e.passphrase = passphrase
	return nil
}

func (e *TestEncryptor) Encrypt(r io.Reader, w io.Writer) error {
	if _, err := w.Write(sealedMarker); err != nil {
		return fmt.Errorf("writing seal marker: %w", err)
	}
	if _, err := io.Copy(w, r); err != nil {
		return fmt.Errorf("sealing container: %w", err)
	}
	return nil
}

func (e *TestEncryptor) Unlock(passphrase string) (gestor.DecryptionContext, error) {
	if e.passphrase != "" && passphrase != e.passphrase {
		return nil, ErrWrongPassphrase
	}
	return testDecryptionContext{}, nil
}

func (e *TestEncryptor) IsConfigured() bool { return true }

type testDecryptionContext struct{}

// Decrypt strips the seal marker. Input without it was not sealed here.
func (testDecryptionContext) Decrypt(r io.Reader, w io.Writer) error {
	marker := make([]byte, len(sealedMarker))
	if _, err := io.ReadFull(r, marker); err != nil {
		return fmt.Errorf("opening sealed container: %w", err)
	}
	if !bytes.Equal(marker, sealedMarker) {
		return fmt.Errorf("opening sealed container: not sealed by the test encryptor")
	}
	if _, err := io.Copy(w, r); err != nil {
		return fmt.Errorf("opening sealed container: %w", err)
	}
	return nil
}
