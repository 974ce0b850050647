package app

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/golang/snappy"

	"foodlog-go/internal/database"
	"foodlog-go/internal/foodlog"
)

// ErrNoVault is returned by backup operations when no vault is configured.
var ErrNoVault = errors.New("no vault configured")

// BackupResult describes a snapshot pushed to or pulled from the vault.
type BackupResult struct {
	DeviceID string
	Version  int64
	Size     int64  // bytes held in the vault
	Checksum string // hex sha256 of the uncompressed database file
}

// SetupBackup generates the encryption keys and checks that the vault is
// reachable.
func (a *FoodLogApp) SetupBackup(ctx context.Context, passphrase string) error {
	if a.vault == nil {
		return ErrNoVault
	}
	if err := a.encryptor.Setup(passphrase); err != nil {
		return fmt.Errorf("setting up encryption: %w", err)
	}
	if err := a.vault.ValidateSetup(ctx); err != nil {
		return fmt.Errorf("validating vault: %w", err)
	}
	a.logger.Info("backup configured", "device", a.cfg.DeviceID)
	return nil
}

// BackupStatus returns the version of the device's snapshot in the vault,
// or 0 if there is none.
func (a *FoodLogApp) BackupStatus(ctx context.Context) (int64, error) {
	if a.vault == nil {
		return 0, ErrNoVault
	}
	return a.vault.SnapshotVersion(ctx, a.cfg.DeviceID)
}

// BackupPush copies the entry store, compresses and encrypts the copy, and
// stores it in the vault. The version is the current unix time, bumped past
// the vault's version if the clock is behind it.
func (a *FoodLogApp) BackupPush(ctx context.Context) (*BackupResult, error) {
	if a.vault == nil {
		return nil, ErrNoVault
	}
	if !a.encryptor.IsConfigured() {
		return nil, fmt.Errorf("encryption keys not found: run 'foodlog backup init' first")
	}

	store, err := a.service.Store(ctx)
	if err != nil {
		return nil, err
	}
	snap, ok := store.(foodlog.Snapshotter)
	if !ok {
		return nil, fmt.Errorf("%s store does not support snapshots", a.cfg.Store.Type)
	}

	tmpDir, err := os.MkdirTemp("", "foodlog-backup-*")
	if err != nil {
		return nil, fmt.Errorf("creating temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	dbPath := filepath.Join(tmpDir, "snapshot.db")
	if err := snap.BackupTo(dbPath); err != nil {
		return nil, fmt.Errorf("snapshotting store: %w", err)
	}

	encPath := filepath.Join(tmpDir, "snapshot.enc")
	checksum, err := sealSnapshot(dbPath, encPath, a.encryptor)
	if err != nil {
		return nil, err
	}

	remote, err := a.vault.SnapshotVersion(ctx, a.cfg.DeviceID)
	if err != nil {
		return nil, fmt.Errorf("reading vault version: %w", err)
	}
	version := a.clock.Now().Unix()
	if version <= remote {
		version = remote + 1
	}

	f, err := os.Open(encPath)
	if err != nil {
		return nil, fmt.Errorf("opening sealed snapshot: %w", err)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat sealed snapshot: %w", err)
	}

	if err := a.vault.PutSnapshot(ctx, a.cfg.DeviceID, f, info.Size(), version); err != nil {
		a.logger.Error("uploading snapshot", "device", a.cfg.DeviceID, "error", err)
		return nil, fmt.Errorf("uploading snapshot: %w", err)
	}

	a.logger.Info("snapshot pushed", "device", a.cfg.DeviceID, "version", version, "size", info.Size(), "sha256", checksum)
	return &BackupResult{DeviceID: a.cfg.DeviceID, Version: version, Size: info.Size(), Checksum: checksum}, nil
}

// BackupPull restores the device's snapshot from the vault into the sqlite
// store path. An existing database is only replaced when force is set. It
// must run before anything opens the entry store.
func (a *FoodLogApp) BackupPull(ctx context.Context, passphrase string, force bool) (*BackupResult, error) {
	if a.vault == nil {
		return nil, ErrNoVault
	}
	if a.cfg.Store.Type != "sqlite" {
		return nil, fmt.Errorf("restore needs a sqlite store, have %q", a.cfg.Store.Type)
	}

	dest := database.DBPath(a.cfg.Store, a.cfg.DeviceID)
	if _, err := os.Stat(dest); err == nil && !force {
		return nil, fmt.Errorf("database already exists at %s (use --force to replace it)", dest)
	}

	version, err := a.vault.SnapshotVersion(ctx, a.cfg.DeviceID)
	if err != nil {
		return nil, fmt.Errorf("reading vault version: %w", err)
	}
	if version == 0 {
		return nil, fmt.Errorf("device %s: %w", a.cfg.DeviceID, foodlog.ErrNoSnapshot)
	}

	dc, err := a.encryptor.Unlock(passphrase)
	if err != nil {
		return nil, fmt.Errorf("unlocking key: %w", err)
	}

	if err := os.MkdirAll(a.cfg.Store.DataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}
	// Same directory as dest so the final rename stays on one filesystem.
	tmpDir, err := os.MkdirTemp(a.cfg.Store.DataDir, ".restore-*")
	if err != nil {
		return nil, fmt.Errorf("creating temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	encPath := filepath.Join(tmpDir, "snapshot.enc")
	size, err := a.download(ctx, encPath)
	if err != nil {
		return nil, err
	}

	dbPath := filepath.Join(tmpDir, "snapshot.db")
	checksum, err := openSnapshot(encPath, dbPath, dc)
	if err != nil {
		return nil, err
	}

	if err := checkRestored(ctx, dbPath); err != nil {
		return nil, err
	}

	for _, suffix := range []string{"-wal", "-shm"} {
		if err := os.Remove(dest + suffix); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("removing stale %s file: %w", suffix, err)
		}
	}
	if err := os.Rename(dbPath, dest); err != nil {
		return nil, fmt.Errorf("installing restored database: %w", err)
	}

	a.logger.Info("snapshot restored", "device", a.cfg.DeviceID, "version", version, "size", size, "sha256", checksum)
	return &BackupResult{DeviceID: a.cfg.DeviceID, Version: version, Size: size, Checksum: checksum}, nil
}

func (a *FoodLogApp) download(ctx context.Context, path string) (int64, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("creating download file: %w", err)
	}
	defer f.Close()

	if err := a.vault.GetSnapshot(ctx, a.cfg.DeviceID, f); err != nil {
		return 0, fmt.Errorf("downloading snapshot: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		return 0, fmt.Errorf("stat download: %w", err)
	}
	return info.Size(), nil
}

// checkRestored opens a restored database, applying any newer migrations,
// and rejects it if any record fails to decode.
func checkRestored(ctx context.Context, path string) error {
	store, err := database.NewSQLiteStore(path)
	if err != nil {
		return fmt.Errorf("opening restored database: %w", err)
	}
	defer store.Close()

	report, err := store.Verify(ctx)
	if err != nil {
		return fmt.Errorf("verifying restored database: %w", err)
	}
	if !report.OK() {
		return fmt.Errorf("restored database has %d bad records: %w", len(report.Problems), foodlog.ErrCorruptRecord)
	}
	return nil
}

// sealSnapshot snappy-compresses and encrypts src into dst. It returns the
// sha256 of src.
func sealSnapshot(src, dst string, enc foodlog.Encryptor) (string, error) {
	in, err := os.Open(src)
	if err != nil {
		return "", fmt.Errorf("opening snapshot: %w", err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("creating sealed snapshot: %w", err)
	}
	defer out.Close()

	h := sha256.New()
	pr, pw := io.Pipe()
	go func() {
		zw := snappy.NewBufferedWriter(pw)
		_, err := io.Copy(zw, io.TeeReader(in, h))
		if closeErr := zw.Close(); err == nil {
			err = closeErr
		}
		pw.CloseWithError(err)
	}()

	if err := enc.Encrypt(pr, out); err != nil {
		pr.CloseWithError(err)
		return "", fmt.Errorf("encrypting snapshot: %w", err)
	}
	if err := out.Sync(); err != nil {
		return "", fmt.Errorf("syncing sealed snapshot: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// openSnapshot reverses sealSnapshot. It returns the sha256 of the
// decompressed output.
func openSnapshot(src, dst string, dc foodlog.DecryptionContext) (string, error) {
	in, err := os.Open(src)
	if err != nil {
		return "", fmt.Errorf("opening download: %w", err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return "", fmt.Errorf("creating restored database: %w", err)
	}
	defer out.Close()

	pr, pw := io.Pipe()
	go func() {
		pw.CloseWithError(dc.Decrypt(in, pw))
	}()

	h := sha256.New()
	if _, err := io.Copy(io.MultiWriter(out, h), snappy.NewReader(pr)); err != nil {
		pr.CloseWithError(err)
		return "", fmt.Errorf("decrypting snapshot: %w", err)
	}
	if err := out.Sync(); err != nil {
		return "", fmt.Errorf("syncing restored database: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
