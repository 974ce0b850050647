package encryption

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"filippo.io/age"

	"foodlog-go/internal/config"
	"foodlog-go/internal/foodlog"
)

// ErrWrongPassphrase means the passphrase does not open the snapshot key.
var ErrWrongPassphrase = errors.New("incorrect passphrase")

// AgeEncryptor seals database snapshots to an X25519 recipient. Pushing a
// snapshot reads only the recipient file; restoring one needs the
// passphrase that wraps the identity file.
type AgeEncryptor struct {
	recipientFile string
	identityFile  string
}

var _ foodlog.Encryptor = (*AgeEncryptor)(nil)

func NewAgeEncryptor(cfg config.EncryptionConfig) *AgeEncryptor {
	return &AgeEncryptor{
		recipientFile: cfg.PublicKeyPath,
		identityFile:  cfg.PrivateKeyPath,
	}
}

func (e *AgeEncryptor) keyFiles() []string {
	return []string{e.recipientFile, e.identityFile}
}

// Setup creates the snapshot key. Existing key files are never replaced:
// snapshots already in a vault would no longer restore.
func (e *AgeEncryptor) Setup(passphrase string) error {
	if passphrase == "" {
		return fmt.Errorf("passphrase must not be empty")
	}
	for _, p := range e.keyFiles() {
		if _, err := os.Stat(p); err == nil {
			return fmt.Errorf("snapshot key %s already exists", p)
		}
		if err := os.MkdirAll(filepath.Dir(p), 0700); err != nil {
			return fmt.Errorf("creating key directory: %w", err)
		}
	}

	identity, err := age.GenerateX25519Identity()
	if err != nil {
		return fmt.Errorf("generating snapshot key: %w", err)
	}
	sealed, err := sealIdentity(identity, passphrase)
	if err != nil {
		return err
	}

	if err := os.WriteFile(e.recipientFile, []byte(identity.Recipient().String()+"\n"), 0644); err != nil {
		return fmt.Errorf("writing recipient file: %w", err)
	}
	if err := os.WriteFile(e.identityFile, sealed, 0600); err != nil {
		os.Remove(e.recipientFile)
		return fmt.Errorf("writing identity file: %w", err)
	}
	return nil
}

// sealIdentity encrypts the identity's text form to a scrypt recipient.
func sealIdentity(identity *age.X25519Identity, passphrase string) ([]byte, error) {
	recipient, err := age.NewScryptRecipient(passphrase)
	if err != nil {
		return nil, fmt.Errorf("deriving passphrase key: %w", err)
	}
	var sealed bytes.Buffer
	if err := ageCopy(&sealed, bytes.NewReader([]byte(identity.String()+"\n")), recipient); err != nil {
		return nil, fmt.Errorf("sealing snapshot key: %w", err)
	}
	return sealed.Bytes(), nil
}

// ageCopy encrypts everything from r into w for recipient.
func ageCopy(w io.Writer, r io.Reader, recipient age.Recipient) error {
	aw, err := age.Encrypt(w, recipient)
	if err != nil {
		return err
	}
	if _, err := io.Copy(aw, r); err != nil {
		return err
	}
	return aw.Close()
}

// Encrypt seals one snapshot stream.
func (e *AgeEncryptor) Encrypt(r io.Reader, w io.Writer) error {
	recipient, err := e.recipient()
	if err != nil {
		return err
	}
	if err := ageCopy(w, r, recipient); err != nil {
		return fmt.Errorf("encrypting snapshot: %w", err)
	}
	return nil
}

func (e *AgeEncryptor) recipient() (age.Recipient, error) {
	data, err := os.ReadFile(e.recipientFile)
	if err != nil {
		return nil, fmt.Errorf("reading recipient file: %w", err)
	}
	recipients, err := age.ParseRecipients(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parsing recipient file: %w", err)
	}
	if len(recipients) == 0 {
		return nil, fmt.Errorf("recipient file %s is empty", e.recipientFile)
	}
	return recipients[0], nil
}

// Unlock opens the identity file so snapshots can be restored.
func (e *AgeEncryptor) Unlock(passphrase string) (foodlog.DecryptionContext, error) {
	sealed, err := os.ReadFile(e.identityFile)
	if err != nil {
		return nil, fmt.Errorf("reading identity file: %w", err)
	}

	scrypt, err := age.NewScryptIdentity(passphrase)
	if err != nil {
		return nil, fmt.Errorf("deriving passphrase key: %w", err)
	}
	plain, err := age.Decrypt(bytes.NewReader(sealed), scrypt)
	if err != nil {
		var noMatch *age.NoIdentityMatchError
		if errors.As(err, &noMatch) || errors.Is(err, age.ErrIncorrectIdentity) {
			return nil, ErrWrongPassphrase
		}
		return nil, fmt.Errorf("opening identity file: %w", err)
	}

	identities, err := age.ParseIdentities(plain)
	if err != nil {
		return nil, fmt.Errorf("parsing identity file: %w", err)
	}
	if len(identities) == 0 {
		return nil, fmt.Errorf("identity file %s holds no key", e.identityFile)
	}
	return &AgeDecryptionContext{identity: identities[0]}, nil
}

func (e *AgeEncryptor) IsConfigured() bool {
	for _, p := range e.keyFiles() {
		if _, err := os.Stat(p); err != nil {
			return false
		}
	}
	return true
}

// AgeDecryptionContext restores snapshots with an unlocked identity.
type AgeDecryptionContext struct {
	identity age.Identity
}

var _ foodlog.DecryptionContext = (*AgeDecryptionContext)(nil)

func (c *AgeDecryptionContext) Decrypt(r io.Reader, w io.Writer) error {
	plain, err := age.Decrypt(r, c.identity)
	if err != nil {
		return fmt.Errorf("opening snapshot: %w", err)
	}
	if _, err := io.Copy(w, plain); err != nil {
		return fmt.Errorf("decrypting snapshot: %w", err)
	}
	return nil
}
