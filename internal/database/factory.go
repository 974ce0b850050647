package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"foodlog-go/internal/config"
	"foodlog-go/internal/foodlog"
)

// NewStoreFromConfig creates an EntryStore based on the store config type.
// The sqlite database lives at <data_dir>/<deviceID>.db.
func NewStoreFromConfig(cfg config.StoreConfig, deviceID string) (foodlog.EntryStore, error) {
	switch cfg.Type {
	case "sqlite":
		if cfg.DataDir == "" {
			return nil, fmt.Errorf("data_dir required for sqlite store")
		}
		if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
			return nil, fmt.Errorf("creating data dir: %w", err)
		}
		s, err := NewSQLiteStore(DBPath(cfg, deviceID))
		if err != nil {
			return nil, err
		}
		return s, nil
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store type: %s", cfg.Type)
	}
}

// DBPath returns the sqlite file path for a device.
func DBPath(cfg config.StoreConfig, deviceID string) string {
	return filepath.Join(cfg.DataDir, deviceID+".db")
}

// Opener defers NewStoreFromConfig until the store is first used.
func Opener(cfg config.StoreConfig, deviceID string) foodlog.StoreOpener {
	return func(ctx context.Context) (foodlog.EntryStore, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return NewStoreFromConfig(cfg, deviceID)
	}
}
