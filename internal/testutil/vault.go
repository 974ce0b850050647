package testutil

import (
	"foodlog-go/internal/foodlog"
	"foodlog-go/internal/vault"
)

// NewTestVault creates a new in-memory vault for testing.
func NewTestVault() foodlog.Vault {
	return vault.NewMemoryVault("test-vault")
}
