package database

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"foodlog-go/internal/foodlog"
)

// MemoryStore is an in-memory foodlog.EntryStore. It keeps a per-date index
// of entry ids alongside the primary map, mirroring the SQLite layout.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*memoryEntry
	byDate  map[string][]string
	offsets map[string]float64
	seq     int64
	closed  bool
}

type memoryEntry struct {
	entry foodlog.Entry
	seq   int64
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]*memoryEntry),
		byDate:  make(map[string][]string),
		offsets: make(map[string]float64),
	}
}

func (s *MemoryStore) Put(ctx context.Context, e *foodlog.Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errStoreClosed
	}

	if _, exists := s.entries[e.ID]; exists {
		return fmt.Errorf("inserting entry %s: %w", e.ID, foodlog.ErrDuplicateID)
	}
	s.seq++
	s.entries[e.ID] = &memoryEntry{entry: copyEntry(e), seq: s.seq}

	ids := append(s.byDate[e.Date], e.ID)
	sort.SliceStable(ids, func(i, j int) bool {
		return s.less(s.entries[ids[i]], s.entries[ids[j]])
	})
	s.byDate[e.Date] = ids
	return nil
}

func (s *MemoryStore) GetByID(ctx context.Context, id string) (*foodlog.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, errStoreClosed
	}

	me, ok := s.entries[id]
	if !ok {
		return nil, fmt.Errorf("entry %s: %w", id, foodlog.ErrNotFound)
	}
	e := copyEntry(&me.entry)
	return &e, nil
}

func (s *MemoryStore) DeleteByID(ctx context.Context, id string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false, errStoreClosed
	}

	me, ok := s.entries[id]
	if !ok {
		return false, nil
	}
	delete(s.entries, id)

	dt := me.entry.Date
	ids := s.byDate[dt]
	for i, other := range ids {
		if other == id {
			ids = append(ids[:i:i], ids[i+1:]...)
			break
		}
	}
	if len(ids) == 0 {
		delete(s.byDate, dt)
	} else {
		s.byDate[dt] = ids
	}
	return true, nil
}

func (s *MemoryStore) QueryByDate(ctx context.Context, dt string) ([]*foodlog.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, errStoreClosed
	}
	return s.collect(s.byDate[dt]), nil
}

func (s *MemoryStore) QueryByDateRange(ctx context.Context, from, to string) ([]*foodlog.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, errStoreClosed
	}

	var dates []string
	for dt := range s.byDate {
		if dt >= from && dt <= to {
			dates = append(dates, dt)
		}
	}
	sort.Strings(dates)

	entries := []*foodlog.Entry{}
	for _, dt := range dates {
		entries = append(entries, s.collect(s.byDate[dt])...)
	}
	return entries, nil
}

func (s *MemoryStore) GetOffset(ctx context.Context, dt string) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return 0, errStoreClosed
	}
	return s.offsets[dt], nil
}

func (s *MemoryStore) SetOffset(ctx context.Context, dt string, kcal float64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errStoreClosed
	}
	s.offsets[dt] = kcal
	return nil
}

func (s *MemoryStore) QueryOffsets(ctx context.Context, from, to string) (map[string]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, errStoreClosed
	}

	offsets := make(map[string]float64)
	for dt, kcal := range s.offsets {
		if dt >= from && dt <= to {
			offsets[dt] = kcal
		}
	}
	return offsets, nil
}

// Verify counts what the store holds. Entries are copied in on Put, so
// there is nothing to decode.
func (s *MemoryStore) Verify(ctx context.Context) (*foodlog.VerifyReport, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, errStoreClosed
	}
	return &foodlog.VerifyReport{Entries: len(s.entries), Offsets: len(s.offsets)}, nil
}

// Close marks the store closed. Later calls fail.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *MemoryStore) less(a, b *memoryEntry) bool {
	if !a.entry.Timestamp.Equal(b.entry.Timestamp) {
		return a.entry.Timestamp.Before(b.entry.Timestamp)
	}
	return a.seq < b.seq
}

func (s *MemoryStore) collect(ids []string) []*foodlog.Entry {
	entries := make([]*foodlog.Entry, 0, len(ids))
	for _, id := range ids {
		e := copyEntry(&s.entries[id].entry)
		entries = append(entries, &e)
	}
	return entries
}

func copyEntry(e *foodlog.Entry) foodlog.Entry {
	c := *e
	if e.Confidence != nil {
		v := *e.Confidence
		c.Confidence = &v
	}
	return c
}

var errStoreClosed = errors.New("store is closed")

var (
	_ foodlog.EntryStore = (*MemoryStore)(nil)
	_ foodlog.Verifier   = (*MemoryStore)(nil)
)
