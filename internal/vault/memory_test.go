package vault

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"foodlog-go/internal/foodlog"
)

func TestMemoryVault_PutAndGetSnapshot(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		data string
	}{
		{"small snapshot", "hello world"},
		{"empty snapshot", ""},
		{"large snapshot", strings.Repeat("x", 10000)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewMemoryVault("test-vault")

			if err := v.PutSnapshot(ctx, "device-1", strings.NewReader(tt.data), int64(len(tt.data)), 7); err != nil {
				t.Fatalf("PutSnapshot() error = %v", err)
			}

			var buf bytes.Buffer
			if err := v.GetSnapshot(ctx, "device-1", &buf); err != nil {
				t.Fatalf("GetSnapshot() error = %v", err)
			}
			if buf.String() != tt.data {
				t.Errorf("GetSnapshot() = %d bytes, want %d", buf.Len(), len(tt.data))
			}
		})
	}
}

func TestMemoryVault_SnapshotVersion(t *testing.T) {
	ctx := context.Background()
	v := NewMemoryVault("test-vault")

	version, err := v.SnapshotVersion(ctx, "device-1")
	if err != nil {
		t.Fatalf("SnapshotVersion() error = %v", err)
	}
	if version != 0 {
		t.Errorf("SnapshotVersion() before put = %d, want 0", version)
	}

	v.PutSnapshot(ctx, "device-1", strings.NewReader("a"), 1, 100)
	v.PutSnapshot(ctx, "device-1", strings.NewReader("b"), 1, 200)

	if version, _ := v.SnapshotVersion(ctx, "device-1"); version != 200 {
		t.Errorf("SnapshotVersion() = %d, want 200", version)
	}
	if version, _ := v.SnapshotVersion(ctx, "device-2"); version != 0 {
		t.Errorf("SnapshotVersion() for other device = %d, want 0", version)
	}
}

func TestMemoryVault_GetSnapshotNotFound(t *testing.T) {
	v := NewMemoryVault("test-vault")

	var buf bytes.Buffer
	err := v.GetSnapshot(context.Background(), "nobody", &buf)
	if !errors.Is(err, foodlog.ErrNoSnapshot) {
		t.Errorf("GetSnapshot() error = %v, want ErrNoSnapshot", err)
	}
}

func TestMemoryVault_PutSnapshotSizeMismatch(t *testing.T) {
	v := NewMemoryVault("test-vault")

	err := v.PutSnapshot(context.Background(), "device-1", strings.NewReader("hello"), 10, 1)
	if err == nil {
		t.Fatal("PutSnapshot() expected error for size mismatch")
	}
	if version, _ := v.SnapshotVersion(context.Background(), "device-1"); version != 0 {
		t.Errorf("SnapshotVersion() after failed put = %d, want 0", version)
	}
}

func TestMemoryVault_ValidateSetup(t *testing.T) {
	if err := NewMemoryVault("test-vault").ValidateSetup(context.Background()); err != nil {
		t.Errorf("ValidateSetup() error = %v", err)
	}
}
