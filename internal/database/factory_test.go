package database

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"foodlog-go/internal/config"
)

func TestNewStoreFromConfig(t *testing.T) {
	t.Run("memory store", func(t *testing.T) {
		cfg := config.StoreConfig{Type: "memory"}
		got, err := NewStoreFromConfig(cfg, "device-123")
		if err != nil {
			t.Fatalf("NewStoreFromConfig() unexpected error: %v", err)
		}
		defer got.Close()

		if _, ok := got.(*MemoryStore); !ok {
			t.Errorf("NewStoreFromConfig() = %T, want *MemoryStore", got)
		}
	})

	t.Run("sqlite store", func(t *testing.T) {
		dataDir := filepath.Join(t.TempDir(), "db")
		cfg := config.StoreConfig{Type: "sqlite", DataDir: dataDir}
		got, err := NewStoreFromConfig(cfg, "device-123")
		if err != nil {
			t.Fatalf("NewStoreFromConfig() unexpected error: %v", err)
		}
		defer got.Close()

		s, ok := got.(*SQLiteStore)
		if !ok {
			t.Fatalf("NewStoreFromConfig() = %T, want *SQLiteStore", got)
		}
		if s.Path() != filepath.Join(dataDir, "device-123.db") {
			t.Errorf("Path() = %q", s.Path())
		}
		if _, err := os.Stat(s.Path()); err != nil {
			t.Errorf("database file not created: %v", err)
		}
	})

	t.Run("sqlite store without data_dir", func(t *testing.T) {
		cfg := config.StoreConfig{Type: "sqlite"}
		got, err := NewStoreFromConfig(cfg, "device-123")
		if err == nil {
			t.Error("NewStoreFromConfig() expected error for missing data_dir, got nil")
		}
		if got != nil {
			t.Error("NewStoreFromConfig() should return nil on error")
		}
	})

	t.Run("unknown store type", func(t *testing.T) {
		cfg := config.StoreConfig{Type: "indexeddb"}
		got, err := NewStoreFromConfig(cfg, "device-123")
		if err == nil {
			t.Error("NewStoreFromConfig() expected error for unknown type, got nil")
		}
		if got != nil {
			t.Error("NewStoreFromConfig() should return nil on error")
		}
	})
}

func TestOpener(t *testing.T) {
	t.Run("opens lazily", func(t *testing.T) {
		dataDir := filepath.Join(t.TempDir(), "db")
		open := Opener(config.StoreConfig{Type: "sqlite", DataDir: dataDir}, "device-1")

		if _, err := os.Stat(dataDir); !os.IsNotExist(err) {
			t.Fatalf("data dir created before open: %v", err)
		}

		store, err := open(context.Background())
		if err != nil {
			t.Fatalf("open() error = %v", err)
		}
		defer store.Close()
	})

	t.Run("fails when data dir is a file", func(t *testing.T) {
		blocker := filepath.Join(t.TempDir(), "blocker")
		if err := os.WriteFile(blocker, []byte("x"), 0600); err != nil {
			t.Fatal(err)
		}
		open := Opener(config.StoreConfig{Type: "sqlite", DataDir: blocker}, "device-1")

		if _, err := open(context.Background()); err == nil {
			t.Fatal("open() expected error")
		}
	})
}
