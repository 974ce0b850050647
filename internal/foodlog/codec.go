package foodlog

import (
	"math"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

// Codec validates raw input and turns it into a persistable Entry. It does
// no I/O; ids and timestamps come from the injected generator and clock.
type Codec struct {
	clock       Clock
	idgen       IDGenerator
	loc         *time.Location
	defaultUnit Unit
}

// CodecOption configures a Codec.
type CodecOption func(*Codec)

// WithLocation sets the zone used to derive an entry's calendar date.
// Defaults to time.Local.
func WithLocation(loc *time.Location) CodecOption {
	return func(c *Codec) {
		if loc != nil {
			c.loc = loc
		}
	}
}

// WithDefaultUnit sets the unit used when input carries an unknown one.
func WithDefaultUnit(u Unit) CodecOption {
	return func(c *Codec) {
		if u.Valid() {
			c.defaultUnit = u
		}
	}
}

// NewCodec creates a Codec.
func NewCodec(clock Clock, idgen IDGenerator, opts ...CodecOption) *Codec {
	c := &Codec{
		clock:       clock,
		idgen:       idgen,
		loc:         time.Local,
		defaultUnit: DefaultUnit,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Location returns the zone the codec assigns dates in.
func (c *Codec) Location() *time.Location { return c.loc }

// Today returns the current calendar date in the codec's zone.
func (c *Codec) Today() string { return DateOf(c.clock.Now(), c.loc) }

// Normalize validates raw and builds an Entry with a fresh id and timestamp.
//
// If targetDate is non-empty it must be canonical YYYY-MM-DD and becomes the
// entry's date verbatim; otherwise the date is the timestamp's local
// calendar date. Missing nutrients become zero and an unknown unit falls
// back to the default unit.
func (c *Codec) Normalize(raw RawEntry, targetDate string) (*Entry, error) {
	food := norm.NFC.String(strings.TrimSpace(raw.Food))
	if food == "" {
		return nil, invalid("food", "must not be empty")
	}

	if !finite(raw.Quantity) || raw.Quantity <= 0 {
		return nil, invalid("quantity", "must be a positive number, got %v", raw.Quantity)
	}

	kcal, err := nutrient("kcal", raw.Kcal)
	if err != nil {
		return nil, err
	}
	fat, err := nutrient("fat", raw.Fat)
	if err != nil {
		return nil, err
	}
	carbs, err := nutrient("carbs", raw.Carbs)
	if err != nil {
		return nil, err
	}
	protein, err := nutrient("protein", raw.Protein)
	if err != nil {
		return nil, err
	}

	method := MethodText
	if m := strings.ToLower(strings.TrimSpace(raw.Method)); m != "" {
		method = Method(m)
		if !method.Valid() {
			return nil, invalid("method", "unknown method %q", raw.Method)
		}
	}

	var confidence *float64
	if raw.Confidence != nil {
		v := *raw.Confidence
		if !finite(v) || v < 0 || v > 1 {
			return nil, invalid("confidence", "must be between 0 and 1, got %v", v)
		}
		confidence = &v
	}

	unit, ok := ParseUnit(raw.Unit)
	if !ok {
		unit = c.defaultUnit
	}

	now := c.clock.Now()
	date := targetDate
	if date != "" {
		if err := ValidateDate(date); err != nil {
			return nil, err
		}
	} else {
		date = DateOf(now, c.loc)
	}

	return &Entry{
		ID:         c.idgen.New(),
		Date:       date,
		Timestamp:  now,
		Food:       food,
		Quantity:   raw.Quantity,
		Unit:       unit,
		Kcal:       kcal,
		Fat:        fat,
		Carbs:      carbs,
		Protein:    protein,
		Method:     method,
		Confidence: confidence,
	}, nil
}

func nutrient(field string, v *float64) (float64, error) {
	if v == nil {
		return 0, nil
	}
	if !finite(*v) || *v < 0 {
		return 0, invalid(field, "must be a non-negative number, got %v", *v)
	}
	return *v, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
