package testutil

import (
	"foodlog-go/internal/encryption"
	"foodlog-go/internal/foodlog"
)

// NewTestEncryptor returns a deterministic encryptor for backup tests.
func NewTestEncryptor() foodlog.Encryptor {
	return encryption.NewTestEncryptor()
}
