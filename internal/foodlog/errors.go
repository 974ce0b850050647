package foodlog

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks input rejected before it reached the store.
	ErrValidation = errors.New("validation failed")

	// ErrStoreUnavailable means the entry store could not be opened. Once
	// returned by a Service it is returned for every later call as well.
	ErrStoreUnavailable = errors.New("entry store unavailable")

	// ErrNotFound is returned by EntryStore.GetByID for an unknown id.
	ErrNotFound = errors.New("entry not found")

	// ErrTransientIO marks a store failure that may succeed on retry
	// (a busy or locked database, for example).
	ErrTransientIO = errors.New("transient storage error")

	// ErrDuplicateID is returned by EntryStore.Put when the id is taken.
	ErrDuplicateID = errors.New("duplicate entry id")

	// ErrCorruptRecord marks a stored row that could not be decoded.
	ErrCorruptRecord = errors.New("corrupt record")

	// ErrNoSnapshot is returned by a Vault that holds no snapshot for a device.
	ErrNoSnapshot = errors.New("no snapshot in vault")
)

// ValidationError describes a single rejected field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
