package foodlog

import (
	"context"
	"io"
)

// Vault stores encrypted store snapshots, one current snapshot per device.
// Snapshots are opaque to the vault; it never merges or inspects them.
type Vault interface {
	// PutSnapshot replaces the device's snapshot with size bytes read from r.
	// version is stored alongside and returned by SnapshotVersion.
	PutSnapshot(ctx context.Context, deviceID string, r io.Reader, size int64, version int64) error

	// GetSnapshot writes the device's snapshot to w. Returns ErrNoSnapshot
	// if none has been stored.
	GetSnapshot(ctx context.Context, deviceID string, w io.Writer) error

	// SnapshotVersion returns the stored version, or 0 if there is none.
	SnapshotVersion(ctx context.Context, deviceID string) (int64, error)

	// ValidateSetup verifies that the vault is reachable and writable.
	ValidateSetup(ctx context.Context) error
}
