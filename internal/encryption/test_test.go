package encryption

import (
	"bytes"
	"errors"
	"testing"

	"foodlog-go/internal/config"
)

func TestTestEncryptor_EncryptDecrypt(t *testing.T) {
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

			e := NewTestEncryptor()

			var encrypted bytes.Buffer
			if err := e.Encrypt(bytes.NewReader(tt.input), &encrypted); err != nil {
				t.Fatalf("Encrypt() error = %v", err)
			}
			if !bytes.HasPrefix(encrypted.Bytes(), testHeader) {
				t.Error("encrypted output does not start with test header")
			}

			dc, err := e.Unlock("any-passphrase")
			if err != nil {
				t.Fatalf("Unlock() error = %v", err)
			}

			var decrypted bytes.Buffer
			if err := dc.Decrypt(bytes.NewReader(encrypted.Bytes()), &decrypted); err != nil {
				t.Fatalf("Decrypt() error = %v", err)
			}
			if !bytes.Equal(decrypted.Bytes(), tt.input) {
				t.Errorf("round-trip failed: got %q, want %q", decrypted.Bytes(), tt.input)
			}
		})
	}
}

func TestTestEncryptor_PassphraseAfterSetup(t *testing.T) {
	t.Parallel()

	e := NewTestEncryptor()
	if err := e.Setup("right"); err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	if _, err := e.Unlock("wrong"); !errors.Is(err, ErrWrongPassphrase) {
		t.Errorf("Unlock(wrong) error = %v, want ErrWrongPassphrase", err)
	}
	if _, err := e.Unlock("right"); err != nil {
		t.Errorf("Unlock(right) error = %v", err)
	}
}

func TestTestDecryptionContext_BadInput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input []byte
	}{
		{"invalid header", []byte("NOT_VALID_HEADER_data")},
		{"truncated header", []byte("FL")},
		{"empty", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			if err := (&TestDecryptionContext{}).Decrypt(bytes.NewReader(tt.input), &out); err == nil {
				t.Error("Decrypt() expected error")
			}
		})
	}
}

func TestNewEncryptorFromConfig(t *testing.T) {
	tests := []struct {
		typ     string
		want    string
		wantErr bool
	}{
		{typ: "", want: "*encryption.AgeEncryptor"},
		{typ: "age", want: "*encryption.AgeEncryptor"},
		{typ: "test", want: "*encryption.TestEncryptor"},
		{typ: "rot13", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.typ, func(t *testing.T) {
			got, err := NewEncryptorFromConfig(config.EncryptionConfig{Type: tt.typ})
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewEncryptorFromConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			switch got.(type) {
			case *AgeEncryptor:
				if tt.want != "*encryption.AgeEncryptor" {
					t.Errorf("got %T, want %s", got, tt.want)
				}
			case *TestEncryptor:
				if tt.want != "*encryption.TestEncryptor" {
					t.Errorf("got %T, want %s", got, tt.want)
				}
			default:
				t.Errorf("unexpected type %T", got)
			}
		})
	}
}
