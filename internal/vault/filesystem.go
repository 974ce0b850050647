package vault

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"foodlog-go/internal/foodlog"
)

// FileSystemVault stores snapshots as files:
//
//	<root>/
//	  snapshots/
//	    <deviceID>.snapshot
//	    <deviceID>.version
type FileSystemVault struct {
	name         string
	root         string
	snapshotsDir string
}

// NewFileSystemVault creates a filesystem vault rooted at root, creating
// the directory layout if needed.
func NewFileSystemVault(name, root string) (*FileSystemVault, error) {
	snapshotsDir := filepath.Join(root, "snapshots")
	if err := os.MkdirAll(snapshotsDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create snapshots directory: %w", err)
	}

	return &FileSystemVault{
		name:         name,
		root:         root,
		snapshotsDir: snapshotsDir,
	}, nil
}

// PutSnapshot writes the snapshot first and the version file second, so a
// reader never sees a version for data that is not there.
func (v *FileSystemVault) PutSnapshot(ctx context.Context, deviceID string, r io.Reader, size int64, version int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := v.writeFile(v.snapshotPath(deviceID), r, size); err != nil {
		return err
	}

	data := strings.NewReader(strconv.FormatInt(version, 10))
	return v.writeFile(v.versionPath(deviceID), data, data.Size())
}

func (v *FileSystemVault) GetSnapshot(ctx context.Context, deviceID string, w io.Writer) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f, err := os.Open(v.snapshotPath(deviceID))
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("device %s: %w", deviceID, foodlog.ErrNoSnapshot)
		}
		return fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("failed to read snapshot: %w", err)
	}
	return nil
}

// SnapshotVersion returns 0 if no version file exists.
func (v *FileSystemVault) SnapshotVersion(ctx context.Context, deviceID string) (int64, error) {
	data, err := os.ReadFile(v.versionPath(deviceID))
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("reading version file: %w", err)
	}

	version, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing version: %w", err)
	}
	return version, nil
}

// ValidateSetup verifies that the vault directories exist and that a file
// can be created in them.
func (v *FileSystemVault) ValidateSetup(ctx context.Context) error {
	info, err := os.Stat(v.root)
	if err != nil {
		return fmt.Errorf("vault root not accessible: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("vault root is not a directory: %s", v.root)
	}

	info, err = os.Stat(v.snapshotsDir)
	if err != nil {
		return fmt.Errorf("vault directory not accessible: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("vault path is not a directory: %s", v.snapshotsDir)
	}

	probe, err := os.CreateTemp(v.snapshotsDir, ".probe-*")
	if err != nil {
		return fmt.Errorf("vault is not writable: %w", err)
	}
	probe.Close()
	return os.Remove(probe.Name())
}

func (v *FileSystemVault) snapshotPath(deviceID string) string {
	return filepath.Join(v.snapshotsDir, deviceID+".snapshot")
}

func (v *FileSystemVault) versionPath(deviceID string) string {
	return filepath.Join(v.snapshotsDir, deviceID+".version")
}

// writeFile writes r to destPath atomically (temp file + rename).
func (v *FileSystemVault) writeFile(destPath string, r io.Reader, expectedSize int64) error {
	tmpFile, err := os.CreateTemp(filepath.Dir(destPath), ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	written, err := io.Copy(tmpFile, r)
	if err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write data: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if written != expectedSize {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", expectedSize, written)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	success = true
	return nil
}

var _ foodlog.Vault = (*FileSystemVault)(nil)
