package foodlog

import "context"

// EntryStore persists entries keyed by id with a secondary index on the
// calendar date, plus a per-date calorie offset in a separate keyspace.
// Implementations must be safe for concurrent use.
type EntryStore interface {
	// Put inserts a new entry. Returns ErrDuplicateID if the id exists.
	Put(ctx context.Context, e *Entry) error

	// GetByID returns the entry with the given id, or ErrNotFound.
	GetByID(ctx context.Context, id string) (*Entry, error)

	// DeleteByID removes an entry. Deleting an unknown id is not an error
	// and returns false.
	DeleteByID(ctx context.Context, id string) (bool, error)

	// QueryByDate returns all entries for a date ordered by timestamp
	// ascending. An empty day yields an empty slice.
	QueryByDate(ctx context.Context, dt string) ([]*Entry, error)

	// QueryByDateRange returns entries with from <= date <= to, ordered by
	// date then timestamp.
	QueryByDateRange(ctx context.Context, from, to string) ([]*Entry, error)

	// GetOffset returns the calorie offset for a date, or 0 if unset.
	GetOffset(ctx context.Context, dt string) (float64, error)

	// SetOffset overwrites the calorie offset for a date.
	SetOffset(ctx context.Context, dt string, kcal float64) error

	// QueryOffsets returns every offset set within [from, to].
	QueryOffsets(ctx context.Context, from, to string) (map[string]float64, error)

	// Close releases the underlying storage.
	Close() error
}

// Snapshotter is implemented by stores that can write a consistent copy of
// themselves to a file.
type Snapshotter interface {
	BackupTo(destPath string) error
}

// Verifier is implemented by stores that can scan their own contents for
// undecodable records.
type Verifier interface {
	Verify(ctx context.Context) (*VerifyReport, error)
}

// VerifyReport is the result of a store integrity scan.
type VerifyReport struct {
	Entries  int
	Offsets  int
	Problems []string
}

// OK reports whether the scan found nothing wrong.
func (r *VerifyReport) OK() bool { return len(r.Problems) == 0 }

// StoreOpener opens an EntryStore. Service calls it at most once.
type StoreOpener func(ctx context.Context) (EntryStore, error)
