package foodlog

import "io"

// Encryptor encrypts backup snapshots. Encryption needs only the public key;
// decryption needs the passphrase that protects the private key.
type Encryptor interface {
	// Setup generates a key pair, stores the public key in plaintext and
	// the private key encrypted with passphrase.
	Setup(passphrase string) error

	// Encrypt encrypts data read from r and writes ciphertext to w.
	Encrypt(r io.Reader, w io.Writer) error

	// Unlock decrypts the private key with passphrase.
	Unlock(passphrase string) (DecryptionContext, error)

	// IsConfigured returns true if both key files exist.
	IsConfigured() bool
}

// DecryptionContext holds an unlocked private key in memory for one restore.
type DecryptionContext interface {
	Decrypt(r io.Reader, w io.Writer) error
}
