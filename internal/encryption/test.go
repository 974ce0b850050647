package encryption

import (
	"bytes"
	"fmt"
	"io"

	"foodlog-go/internal/foodlog"
)

// testHeader marks TestEncryptor output so it never equals the plaintext.
var testHeader = []byte("FLENC\x00\x00\x00")

// TestEncryptor is a deterministic stand-in for AgeEncryptor. It prepends a
// fixed header on Encrypt and strips it on Decrypt. If Setup was called,
// Unlock requires the same passphrase.
type TestEncryptor struct {
	passphrase string
	setup      bool
}

var _ foodlog.Encryptor = (*TestEncryptor)(nil)

// NewTestEncryptor creates a new TestEncryptor.
func NewTestEncryptor() *TestEncryptor {
	return &TestEncryptor{}
}

func (e *TestEncryptor) Setup(passphrase string) error {
	e.passphrase = passphrase
	e.setup = true
	return nil
}

func (e *TestEncryptor) Encrypt(r io.Reader, w io.Writer) error {
	if _, err := w.Write(testHeader); err != nil {
		return fmt.Errorf("writing test header: %w", err)
	}
	if _, err := io.Copy(w, r); err != nil {
		return fmt.Errorf("copying data: %w", err)
	}
	return nil
}

func (e *TestEncryptor) Unlock(passphrase string) (foodlog.DecryptionContext, error) {
	if e.setup && passphrase != e.passphrase {
		return nil, ErrWrongPassphrase
	}
	return &TestDecryptionContext{}, nil
}

func (e *TestEncryptor) IsConfigured() bool {
	return true
}

// TestDecryptionContext strips the header added by TestEncryptor.
type TestDecryptionContext struct{}

var _ foodlog.DecryptionContext = (*TestDecryptionContext)(nil)

func (c *TestDecryptionContext) Decrypt(r io.Reader, w io.Writer) error {
	header := make([]byte, len(testHeader))
	if _, err := io.ReadFull(r, header); err != nil {
		return fmt.Errorf("reading test header: %w", err)
	}
	if !bytes.Equal(header, testHeader) {
		return fmt.Errorf("invalid test encryption header")
	}
	if _, err := io.Copy(w, r); err != nil {
		return fmt.Errorf("copying data: %w", err)
	}
	return nil
}
