package testutil

import (
	"context"
	"sync"
	"testing"

	"foodlog-go/internal/database"
	"foodlog-go/internal/foodlog"
)

// NewTestStore creates an in-memory entry store that is closed when the
// test completes.
func NewTestStore(t *testing.T) *database.MemoryStore {
	t.Helper()
	s := database.NewMemoryStore()
	t.Cleanup(func() { s.Close() })
	return s
}

// NewTestSQLiteStore creates a migrated in-memory SQLite store.
func NewTestSQLiteStore(t *testing.T) *database.SQLiteStore {
	t.Helper()
	s, err := database.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to open sqlite store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// FlakyStore wraps an EntryStore and fails the next N calls with Err
// before delegating. Failures are counted across all methods.
type FlakyStore struct {
	foodlog.EntryStore

	mu sync.Mutex
	// Err is returned while failures remain.
	Err error
	// FailAfter, when set, lets the call reach the inner store and then
	// reports Err anyway. This models a write that committed but whose
	// acknowledgement was lost.
	FailAfter bool
	remaining int
	Calls     int
}

// NewFlakyStore fails the next n calls to inner with err.
func NewFlakyStore(inner foodlog.EntryStore, n int, err error) *FlakyStore {
	return &FlakyStore{EntryStore: inner, Err: err, remaining: n}
}

func (f *FlakyStore) fail() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls++
	if f.remaining > 0 {
		f.remaining--
		return true
	}
	return false
}

func (f *FlakyStore) Put(ctx context.Context, e *foodlog.Entry) error {
	if !f.fail() {
		return f.EntryStore.Put(ctx, e)
	}
	if f.FailAfter {
		if err := f.EntryStore.Put(ctx, e); err != nil {
			return err
		}
	}
	return f.Err
}

func (f *FlakyStore) GetByID(ctx context.Context, id string) (*foodlog.Entry, error) {
	if f.fail() {
		return nil, f.Err
	}
	return f.EntryStore.GetByID(ctx, id)
}

func (f *FlakyStore) DeleteByID(ctx context.Context, id string) (bool, error) {
	if f.fail() {
		return false, f.Err
	}
	return f.EntryStore.DeleteByID(ctx, id)
}

func (f *FlakyStore) QueryByDate(ctx context.Context, dt string) ([]*foodlog.Entry, error) {
	if f.fail() {
		return nil, f.Err
	}
	return f.EntryStore.QueryByDate(ctx, dt)
}

func (f *FlakyStore) QueryByDateRange(ctx context.Context, from, to string) ([]*foodlog.Entry, error) {
	if f.fail() {
		return nil, f.Err
	}
	return f.EntryStore.QueryByDateRange(ctx, from, to)
}

func (f *FlakyStore) GetOffset(ctx context.Context, dt string) (float64, error) {
	if f.fail() {
		return 0, f.Err
	}
	return f.EntryStore.GetOffset(ctx, dt)
}

func (f *FlakyStore) SetOffset(ctx context.Context, dt string, kcal float64) error {
	if f.fail() {
		return f.Err
	}
	return f.EntryStore.SetOffset(ctx, dt, kcal)
}

func (f *FlakyStore) QueryOffsets(ctx context.Context, from, to string) (map[string]float64, error) {
	if f.fail() {
		return nil, f.Err
	}
	return f.EntryStore.QueryOffsets(ctx, from, to)
}

// CountingOpener returns a StoreOpener that hands out store (or err) and
// counts how often it was invoked. Like database.Opener it fails with
// ctx.Err() on a done context.
func CountingOpener(store foodlog.EntryStore, err error) (foodlog.StoreOpener, *int) {
	var mu sync.Mutex
	calls := 0
	return func(ctx context.Context) (foodlog.EntryStore, error) {
		mu.Lock()
		defer mu.Unlock()
		calls++
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if err != nil {
			return nil, err
		}
		return store, nil
	}, &calls
}

// RecordingLogger captures log messages for assertions.
type RecordingLogger struct {
	mu       sync.Mutex
	Messages []string
}

func (l *RecordingLogger) record(level, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Messages = append(l.Messages, level+": "+msg)
}

func (l *RecordingLogger) Debug(msg string, _ ...any) { l.record("DEBUG", msg) }
func (l *RecordingLogger) Info(msg string, _ ...any)  { l.record("INFO", msg) }
func (l *RecordingLogger) Warn(msg string, _ ...any)  { l.record("WARN", msg) }
func (l *RecordingLogger) Error(msg string, _ ...any) { l.record("ERROR", msg) }

var _ foodlog.Logger = (*RecordingLogger)(nil)
