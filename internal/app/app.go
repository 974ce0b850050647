package app

import (
	"context"
	"fmt"
	"io"
	"os"

	"foodlog-go/internal/config"
	"foodlog-go/internal/database"
	"foodlog-go/internal/encryption"
	"foodlog-go/internal/export"
	"foodlog-go/internal/foodlog"
	"foodlog-go/internal/vault"
)

// FoodLogApp is the layer between the CLI and foodlog.Service. It builds
// every dependency from config, exposes the operations that need more than
// the Service (backup, export, doctor), and releases resources on Close.
type FoodLogApp struct {
	cfg       *config.Config
	service   *foodlog.Service
	vault     foodlog.Vault
	encryptor foodlog.Encryptor
	clock     foodlog.Clock
	logger    foodlog.Logger
	op        *Operation
	logFile   *os.File
}

// NewFoodLogApp creates a fully wired FoodLogApp from cfg. operation names
// the CLI command being run. The entry store is not opened until the first
// call that needs it. The caller must call Close when done.
func NewFoodLogApp(ctx context.Context, cfg *config.Config, operation string) (*FoodLogApp, error) {
	clock := foodlog.RealClock{}
	op := NewOperation(operation, clock.Now())

	logger, logFile, err := newLogger(cfg.LogDir, op.ID, os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	var v foodlog.Vault
	if len(cfg.Vaults) > 0 {
		v, err = vault.NewVaultFromConfig(ctx, cfg.Vaults[0])
		if err != nil {
			logFile.Close()
			return nil, fmt.Errorf("creating vault: %w", err)
		}
	}

	enc, err := encryption.NewEncryptorFromConfig(cfg.Encryption)
	if err != nil {
		logFile.Close()
		return nil, fmt.Errorf("creating encryptor: %w", err)
	}

	a, err := newApp(cfg, database.Opener(cfg.Store, cfg.DeviceID), v, enc, &slogAdapter{l: logger}, clock, foodlog.UUIDGenerator{})
	if err != nil {
		logFile.Close()
		return nil, err
	}
	a.op = op
	a.logFile = logFile
	return a, nil
}

func newApp(cfg *config.Config, opener foodlog.StoreOpener, v foodlog.Vault, enc foodlog.Encryptor, logger foodlog.Logger, clock foodlog.Clock, ids foodlog.IDGenerator) (*FoodLogApp, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = foodlog.NewNopLogger()
	}

	opts := []foodlog.CodecOption{foodlog.WithLocation(loc)}
	if cfg.DefaultUnit != "" {
		unit, ok := foodlog.ParseUnit(cfg.DefaultUnit)
		if !ok {
			return nil, fmt.Errorf("unknown default_unit %q", cfg.DefaultUnit)
		}
		opts = append(opts, foodlog.WithDefaultUnit(unit))
	}
	codec := foodlog.NewCodec(clock, ids, opts...)

	return &FoodLogApp{
		cfg:       cfg,
		service:   foodlog.NewService(opener, codec, logger),
		vault:     v,
		encryptor: enc,
		clock:     clock,
		logger:    logger,
		op:        NewOperation("", clock.Now()),
	}, nil
}

// Service returns the query façade.
func (a *FoodLogApp) Service() *foodlog.Service { return a.service }

// Logger returns the application logger.
func (a *FoodLogApp) Logger() foodlog.Logger { return a.logger }

// Today returns the current calendar date in the configured zone.
func (a *FoodLogApp) Today() string { return a.service.Today() }

// Doctor scans the entry store for records that cannot be decoded.
func (a *FoodLogApp) Doctor(ctx context.Context) (*foodlog.VerifyReport, error) {
	report, err := a.service.Verify(ctx)
	if err != nil {
		return nil, err
	}
	a.logger.Info("store verified", "entries", report.Entries, "offsets", report.Offsets, "problems", len(report.Problems))
	return report, nil
}

// Export writes [from, to] to w. With days set, CSV output holds one row
// per day instead of one per entry.
func (a *FoodLogApp) Export(ctx context.Context, w io.Writer, format export.Format, from, to string, days bool) error {
	r, err := export.Collect(ctx, a.service, from, to, a.clock.Now())
	if err != nil {
		return err
	}
	if days && format == export.FormatCSV {
		err = export.WriteDaysCSV(w, r.Days)
	} else {
		err = export.Write(w, format, r)
	}
	if err != nil {
		return fmt.Errorf("exporting %s..%s: %w", from, to, err)
	}
	a.logger.Info("exported", "from", from, "to", to, "format", string(format), "entries", len(r.Entries))
	return nil
}

// Fail marks the running operation as failed.
func (a *FoodLogApp) Fail(err error) { a.op.Fail(err) }

// Close closes the entry store, logs the operation outcome and closes the
// log file.
func (a *FoodLogApp) Close() error {
	var firstErr error
	if err := a.service.Close(); err != nil {
		firstErr = fmt.Errorf("closing entry store: %w", err)
	}

	a.op.Finish(a.logger, a.clock.Now())

	if a.logFile != nil {
		a.logFile.Close()
	}
	return firstErr
}
