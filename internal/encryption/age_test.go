package encryption

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"foodlog-go/internal/config"
)

func newTestAgeEncryptor(t *testing.T) *AgeEncryptor {
	t.Helper()
	dir := t.TempDir()
	cfg := config.EncryptionConfig{
		PublicKeyPath:  filepath.Join(dir, "keys", "foodlog.pub"),
		PrivateKeyPath: filepath.Join(dir, "keys", "foodlog.key"),
	}
	return NewAgeEncryptor(cfg)
}

func TestAgeEncryptor_IsConfigured_BeforeSetup(t *testing.T) {
	t.Parallel()
	e := newTestAgeEncryptor(t)
	if e.IsConfigured() {
		t.Error("IsConfigured() = true before Setup, want false")
	}
}

func TestAgeEncryptor_Setup(t *testing.T) {
	t.Parallel()

	t.Run("writes both keys", func(t *testing.T) {
		t.Parallel()
		e := newTestAgeEncryptor(t)
		if err := e.Setup("test-passphrase"); err != nil {
			t.Fatalf("Setup() error = %v", err)
		}
		if !e.IsConfigured() {
			t.Error("IsConfigured() = false after Setup, want true")
		}

		info, err := os.Stat(e.identityFile)
		if err != nil {
			t.Fatalf("stat private key: %v", err)
		}
		if info.Mode().Perm() != 0600 {
			t.Errorf("private key mode = %v, want 0600", info.Mode().Perm())
		}

		priv, _ := os.ReadFile(e.identityFile)
		if bytes.Contains(priv, []byte("AGE-SECRET-KEY")) {
			t.Error("private key stored in plaintext")
		}
	})

	t.Run("refuses to overwrite keys", func(t *testing.T) {
		t.Parallel()
		e := newTestAgeEncryptor(t)
		if err := e.Setup("first"); err != nil {
			t.Fatalf("Setup() error = %v", err)
		}
		if err := e.Setup("second"); err == nil {
			t.Fatal("second Setup() expected error")
		}
		if _, err := e.Unlock("first"); err != nil {
			t.Errorf("original key no longer unlocks: %v", err)
		}
	})

	t.Run("rejects empty passphrase", func(t *testing.T) {
		t.Parallel()
		e := newTestAgeEncryptor(t)
		if err := e.Setup(""); err == nil {
			t.Fatal("Setup(\"\") expected error")
		}
		if e.IsConfigured() {
			t.Error("IsConfigured() = true after failed Setup")
		}
	})
}

func TestAgeEncryptor_EncryptDecryptRoundTrip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input []byte
	}{
		{name: "simple text", input: []byte("hello world")},
		{name: "empty", input: []byte{}},
		{name: "binary data", input: []byte{0x00, 0xff, 0x01, 0xfe}},
		{name: "large data", input: bytes.Repeat([]byte("abcdef"), 10000)},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			passphrase := "test-passphrase"
			e := newTestAgeEncryptor(t)
			if err := e.Setup(passphrase); err != nil {
				t.Fatalf("Setup() error = %v", err)
			}

			var encrypted bytes.Buffer
			if err := e.Encrypt(bytes.NewReader(tt.input), &encrypted); err != nil {
				t.Fatalf("Encrypt() error = %v", err)
			}
			if len(tt.input) > 0 && bytes.Contains(encrypted.Bytes(), tt.input) {
				t.Error("encrypted output contains the plaintext")
			}

			dc, err := e.Unlock(passphrase)
			if err != nil {
				t.Fatalf("Unlock() error = %v", err)
			}

			var decrypted bytes.Buffer
			if err := dc.Decrypt(bytes.NewReader(encrypted.Bytes()), &decrypted); err != nil {
				t.Fatalf("Decrypt() error = %v", err)
			}
			if !bytes.Equal(decrypted.Bytes(), tt.input) {
				t.Errorf("round-trip failed: got %d bytes, want %d bytes", decrypted.Len(), len(tt.input))
			}
		})
	}
}

func TestAgeEncryptor_UnlockWrongPassphrase(t *testing.T) {
	t.Parallel()

	e := newTestAgeEncryptor(t)
	if err := e.Setup("correct-passphrase"); err != nil {
		t.Fatalf("Setup() error = %v", err)
	}

	_, err := e.Unlock("wrong-passphrase")
	if !errors.Is(err, ErrWrongPassphrase) {
		t.Errorf("Unlock() error = %v, want ErrWrongPassphrase", err)
	}
}

func TestAgeEncryptor_DecryptWithOtherKey(t *testing.T) {
	t.Parallel()

	a := newTestAgeEncryptor(t)
	b := newTestAgeEncryptor(t)
	if err := a.Setup("pa"); err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	if err := b.Setup("pb"); err != nil {
		t.Fatalf("Setup() error = %v", err)
	}

	var encrypted bytes.Buffer
	if err := a.Encrypt(bytes.NewReader([]byte("secret meal")), &encrypted); err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}

	dc, err := b.Unlock("pb")
	if err != nil {
		t.Fatalf("Unlock() error = %v", err)
	}
	var out bytes.Buffer
	if err := dc.Decrypt(bytes.NewReader(encrypted.Bytes()), &out); err == nil {
		t.Error("Decrypt() with a different key should fail")
	}
}

func TestAgeEncryptor_EncryptBeforeSetup(t *testing.T) {
	t.Parallel()

	e := newTestAgeEncryptor(t)
	var buf bytes.Buffer
	if err := e.Encrypt(bytes.NewReader([]byte("data")), &buf); err == nil {
		t.Error("Encrypt() before Setup should return error")
	}
}

func TestAgeEncryptor_UnlockBeforeSetup(t *testing.T) {
	t.Parallel()

	e := newTestAgeEncryptor(t)
	if _, err := e.Unlock("passphrase"); err == nil {
		t.Error("Unlock() before Setup should return error")
	}
}
