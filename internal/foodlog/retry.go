package foodlog

import (
	"context"
	"errors"
	"reflect"
	"time"
)

// retryingStore retries each operation once when the underlying store
// reports ErrTransientIO. A second transient failure is returned as is.
type retryingStore struct {
	EntryStore
	logger Logger
}

var _ EntryStore = (*retryingStore)(nil)

func withRetry(store EntryStore, logger Logger) EntryStore {
	if _, ok := store.(*retryingStore); ok {
		return store
	}
	return &retryingStore{EntryStore: store, logger: logger}
}

func (s *retryingStore) retry(op string, fn func() error) error {
	err := fn()
	if err == nil || !errors.Is(err, ErrTransientIO) {
		return err
	}
	s.logger.Warn("retrying store operation", "op", op, "error", err)
	return fn()
}

func (s *retryingStore) Put(ctx context.Context, e *Entry) error {
	attempt := 0
	return s.retry("put", func() error {
		attempt++
		err := s.EntryStore.Put(ctx, e)
		if attempt > 1 && errors.Is(err, ErrDuplicateID) {
			// The first attempt may have committed before failing.
			stored, getErr := s.EntryStore.GetByID(ctx, e.ID)
			if getErr == nil && sameEntry(stored, e) {
				return nil
			}
		}
		return err
	})
}

func (s *retryingStore) GetByID(ctx context.Context, id string) (e *Entry, err error) {
	err = s.retry("get", func() error {
		e, err = s.EntryStore.GetByID(ctx, id)
		return err
	})
	return e, err
}

func (s *retryingStore) DeleteByID(ctx context.Context, id string) (deleted bool, err error) {
	err = s.retry("delete", func() error {
		deleted, err = s.EntryStore.DeleteByID(ctx, id)
		return err
	})
	return deleted, err
}

func (s *retryingStore) QueryByDate(ctx context.Context, dt string) (entries []*Entry, err error) {
	err = s.retry("query_by_date", func() error {
		entries, err = s.EntryStore.QueryByDate(ctx, dt)
		return err
	})
	return entries, err
}

func (s *retryingStore) QueryByDateRange(ctx context.Context, from, to string) (entries []*Entry, err error) {
	err = s.retry("query_by_date_range", func() error {
		entries, err = s.EntryStore.QueryByDateRange(ctx, from, to)
		return err
	})
	return entries, err
}

func (s *retryingStore) GetOffset(ctx context.Context, dt string) (kcal float64, err error) {
	err = s.retry("get_offset", func() error {
		kcal, err = s.EntryStore.GetOffset(ctx, dt)
		return err
	})
	return kcal, err
}

func (s *retryingStore) SetOffset(ctx context.Context, dt string, kcal float64) error {
	return s.retry("set_offset", func() error {
		return s.EntryStore.SetOffset(ctx, dt, kcal)
	})
}

func (s *retryingStore) QueryOffsets(ctx context.Context, from, to string) (offsets map[string]float64, err error) {
	err = s.retry("query_offsets", func() error {
		offsets, err = s.EntryStore.QueryOffsets(ctx, from, to)
		return err
	})
	return offsets, err
}

// sameEntry compares entries field by field. Timestamps are compared with
// Equal since a store round trip drops the monotonic reading.
func sameEntry(a, b *Entry) bool {
	if a == nil || b == nil {
		return false
	}
	if !a.Timestamp.Equal(b.Timestamp) {
		return false
	}
	ac, bc := *a, *b
	ac.Timestamp, bc.Timestamp = time.Time{}, time.Time{}
	return reflect.DeepEqual(ac, bc)
}
