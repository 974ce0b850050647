package foodlog

import (
	"time"

	"github.com/google/uuid"
)

// Clock abstracts time retrieval so business logic is deterministic in tests.
type Clock interface {
	Now() time.Time
}

// RealClock returns the actual current time.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// IDGenerator abstracts unique ID generation so tests are deterministic.
type IDGenerator interface {
	New() string
}

// UUIDGenerator produces random (v4) UUIDs. They are URL-safe and unique
// enough that two devices never need to coordinate.
type UUIDGenerator struct{}

func (UUIDGenerator) New() string { return uuid.New().String() }
