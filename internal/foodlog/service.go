package foodlog

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// Service is the single entry point used by the CLI and any UI layer. It
// owns the store handle, opening it lazily on first use, and delegates to
// the Codec, the store and the Aggregator.
type Service struct {
	codec  *Codec
	logger Logger

	mu      sync.Mutex
	opener  StoreOpener
	raw     EntryStore
	store   EntryStore
	openErr error
}

// NewService creates a Service that opens its store with opener the first
// time it is needed. If opening fails, every later call fails with
// ErrStoreUnavailable without trying again.
func NewService(opener StoreOpener, codec *Codec, logger Logger) *Service {
	if logger == nil {
		logger = NewNopLogger()
	}
	return &Service{codec: codec, logger: logger, opener: opener}
}

// NewServiceWithStore creates a Service around an already open store.
func NewServiceWithStore(store EntryStore, codec *Codec, logger Logger) *Service {
	s := NewService(nil, codec, logger)
	s.raw = store
	s.store = withRetry(store, s.logger)
	return s
}

// Store returns the underlying store, opening it if needed. The returned
// value is the store itself, so optional interfaces such as Snapshotter can
// be asserted on it.
func (s *Service) Store(ctx context.Context) (EntryStore, error) {
	if _, err := s.handle(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.raw == nil {
		return nil, s.openErr
	}
	return s.raw, nil
}

func (s *Service) handle(ctx context.Context) (EntryStore, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.store != nil {
		return s.store, nil
	}
	if s.openErr != nil {
		return nil, s.openErr
	}
	if s.opener == nil {
		s.openErr = fmt.Errorf("%w: no store configured", ErrStoreUnavailable)
		return nil, s.openErr
	}

	raw, err := s.opener(ctx)
	if err != nil {
		// An abandoned call says nothing about the store; the next caller opens again.
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("opening entry store: %w", err)
		}
		s.logger.Error("opening entry store", "error", err)
		s.openErr = fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
		return nil, s.openErr
	}
	s.raw = raw
	s.store = withRetry(raw, s.logger)
	return s.store, nil
}

// Close closes the store if it was opened.
func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.raw == nil {
		return nil
	}
	err := s.raw.Close()
	s.raw, s.store = nil, nil
	s.openErr = fmt.Errorf("%w: service closed", ErrStoreUnavailable)
	return err
}

// Today returns the current calendar date in the service's zone.
func (s *Service) Today() string { return s.codec.Today() }

// Location returns the zone entry dates are assigned in.
func (s *Service) Location() *time.Location { return s.codec.Location() }

// AddEntry validates raw and stores it. targetDate, if non-empty, pins the
// entry to that date instead of today.
func (s *Service) AddEntry(ctx context.Context, raw RawEntry, targetDate string) (*Entry, error) {
	store, err := s.handle(ctx)
	if err != nil {
		return nil, err
	}

	entry, err := s.codec.Normalize(raw, targetDate)
	if err != nil {
		return nil, err
	}

	if err := store.Put(ctx, entry); err != nil {
		s.logger.Error("storing entry", "id", entry.ID, "date", entry.Date, "error", err)
		return nil, fmt.Errorf("storing entry: %w", err)
	}

	s.logger.Info("entry added", "id", entry.ID, "date", entry.Date, "food", entry.Food, "kcal", entry.Kcal)
	return entry, nil
}

// AddParsedEntry stores the food item from a parsing API response.
func (s *Service) AddParsedEntry(ctx context.Context, resp ParsedFoodResponse, method, targetDate string) (*Entry, error) {
	if _, err := s.handle(ctx); err != nil {
		return nil, err
	}
	raw, err := resp.RawEntry(method)
	if err != nil {
		return nil, err
	}
	return s.AddEntry(ctx, raw, targetDate)
}

// GetEntry returns a single entry by id.
func (s *Service) GetEntry(ctx context.Context, id string) (*Entry, error) {
	store, err := s.handle(ctx)
	if err != nil {
		return nil, err
	}
	entry, err := store.GetByID(ctx, id)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.logger.Error("reading entry", "id", id, "error", err)
		}
		return nil, fmt.Errorf("reading entry %s: %w", id, err)
	}
	return entry, nil
}

// GetEntriesByDate returns the entries logged on dt, oldest first.
func (s *Service) GetEntriesByDate(ctx context.Context, dt string) ([]*Entry, error) {
	store, err := s.handle(ctx)
	if err != nil {
		return nil, err
	}
	if err := ValidateDate(dt); err != nil {
		return nil, err
	}
	entries, err := store.QueryByDate(ctx, dt)
	if err != nil {
		s.logger.Error("querying entries", "date", dt, "error", err)
		return nil, fmt.Errorf("querying entries for %s: %w", dt, err)
	}
	return entries, nil
}

// GetEntriesInRange returns entries dated within [from, to].
func (s *Service) GetEntriesInRange(ctx context.Context, from, to string) ([]*Entry, error) {
	store, err := s.handle(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := DaysBetween(from, to); err != nil {
		return nil, err
	}
	entries, err := store.QueryByDateRange(ctx, from, to)
	if err != nil {
		s.logger.Error("querying entries", "from", from, "to", to, "error", err)
		return nil, fmt.Errorf("querying entries for %s..%s: %w", from, to, err)
	}
	return entries, nil
}

// DeleteEntry removes an entry. It reports false, without error, when no
// entry had that id.
func (s *Service) DeleteEntry(ctx context.Context, id string) (bool, error) {
	store, err := s.handle(ctx)
	if err != nil {
		return false, err
	}
	deleted, err := store.DeleteByID(ctx, id)
	if err != nil {
		s.logger.Error("deleting entry", "id", id, "error", err)
		return false, fmt.Errorf("deleting entry %s: %w", id, err)
	}
	if deleted {
		s.logger.Info("entry deleted", "id", id)
	}
	return deleted, nil
}

// GetMacroTotalsForDate sums the nutrients of every entry on dt.
func (s *Service) GetMacroTotalsForDate(ctx context.Context, dt string) (MacroTotals, error) {
	store, err := s.handle(ctx)
	if err != nil {
		return MacroTotals{}, err
	}
	if err := ValidateDate(dt); err != nil {
		return MacroTotals{}, err
	}
	totals, err := NewAggregator(store).TotalsFor(ctx, dt)
	if err != nil {
		s.logger.Error("computing totals", "date", dt, "error", err)
		return MacroTotals{}, err
	}
	return totals, nil
}

// GetCalorieOffset returns the calorie offset for dt, zero if never set.
func (s *Service) GetCalorieOffset(ctx context.Context, dt string) (float64, error) {
	store, err := s.handle(ctx)
	if err != nil {
		return 0, err
	}
	if err := ValidateDate(dt); err != nil {
		return 0, err
	}
	kcal, err := NewAggregator(store).OffsetFor(ctx, dt)
	if err != nil {
		s.logger.Error("reading offset", "date", dt, "error", err)
		return 0, err
	}
	return kcal, nil
}

// SetCalorieOffset records a calorie adjustment for dt, such as calories
// burned through exercise (negative) or an untracked snack (positive).
func (s *Service) SetCalorieOffset(ctx context.Context, dt string, kcal float64) error {
	store, err := s.handle(ctx)
	if err != nil {
		return err
	}
	if err := ValidateDate(dt); err != nil {
		return err
	}
	if !finite(kcal) {
		return invalid("offset", "must be a finite number")
	}
	if err := store.SetOffset(ctx, dt, kcal); err != nil {
		s.logger.Error("setting offset", "date", dt, "error", err)
		return fmt.Errorf("setting offset for %s: %w", dt, err)
	}
	s.logger.Info("offset set", "date", dt, "kcal", kcal)
	return nil
}

// GetDaySummary returns totals, offset and net calories for dt.
func (s *Service) GetDaySummary(ctx context.Context, dt string) (DaySummary, error) {
	store, err := s.handle(ctx)
	if err != nil {
		return DaySummary{}, err
	}
	if err := ValidateDate(dt); err != nil {
		return DaySummary{}, err
	}
	summary, err := NewAggregator(store).DaySummary(ctx, dt)
	if err != nil {
		s.logger.Error("computing summary", "date", dt, "error", err)
		return DaySummary{}, err
	}
	return summary, nil
}

// GetRangeSummary returns a DaySummary for every day in [from, to].
func (s *Service) GetRangeSummary(ctx context.Context, from, to string) ([]DaySummary, error) {
	store, err := s.handle(ctx)
	if err != nil {
		return nil, err
	}
	summaries, err := NewAggregator(store).RangeSummary(ctx, from, to)
	if err != nil {
		if !errors.Is(err, ErrValidation) {
			s.logger.Error("computing range summary", "from", from, "to", to, "error", err)
		}
		return nil, err
	}
	return summaries, nil
}

// Verify runs the store's integrity scan. Stores without one report only
// that they were reachable.
func (s *Service) Verify(ctx context.Context) (*VerifyReport, error) {
	raw, err := s.Store(ctx)
	if err != nil {
		return nil, err
	}
	v, ok := raw.(Verifier)
	if !ok {
		return &VerifyReport{}, nil
	}
	report, err := v.Verify(ctx)
	if err != nil {
		return nil, fmt.Errorf("verifying store: %w", err)
	}
	if !report.OK() {
		s.logger.Warn("store verification found problems", "count", len(report.Problems))
	}
	return report, nil
}
