package foodlog

import (
	"strings"
	"time"
)

// DateLayout is the canonical calendar-date form used for Entry.Date and at
// every API boundary.
const DateLayout = "2006-01-02"

// Unit is the measurement unit of an entry's quantity.
type Unit string

const (
	UnitGram       Unit = "g"
	UnitMilliliter Unit = "ml"
	UnitCup        Unit = "cup"
	UnitTablespoon Unit = "tbsp"
	UnitTeaspoon   Unit = "tsp"
	UnitPiece      Unit = "piece"
	UnitSlice      Unit = "slice"
)

// DefaultUnit is used when an incoming unit is missing or unrecognised.
const DefaultUnit = UnitPiece

var unitAliases = map[string]Unit{
	"g":           UnitGram,
	"gram":        UnitGram,
	"grams":       UnitGram,
	"ml":          UnitMilliliter,
	"milliliter":  UnitMilliliter,
	"milliliters": UnitMilliliter,
	"millilitre":  UnitMilliliter,
	"millilitres": UnitMilliliter,
	"cup":         UnitCup,
	"cups":        UnitCup,
	"tbsp":        UnitTablespoon,
	"tablespoon":  UnitTablespoon,
	"tablespoons": UnitTablespoon,
	"tsp":         UnitTeaspoon,
	"teaspoon":    UnitTeaspoon,
	"teaspoons":   UnitTeaspoon,
	"piece":       UnitPiece,
	"pieces":      UnitPiece,
	"pc":          UnitPiece,
	"pcs":         UnitPiece,
	"slice":       UnitSlice,
	"slices":      UnitSlice,
}

// ParseUnit maps a unit label (case-insensitive, common plurals and long
// names accepted) to a Unit. ok is false when the label is unknown.
func ParseUnit(s string) (u Unit, ok bool) {
	u, ok = unitAliases[strings.ToLower(strings.TrimSpace(s))]
	return u, ok
}

// Valid reports whether u is one of the known units.
func (u Unit) Valid() bool {
	switch u {
	case UnitGram, UnitMilliliter, UnitCup, UnitTablespoon, UnitTeaspoon, UnitPiece, UnitSlice:
		return true
	}
	return false
}

// Method records how an entry was captured.
type Method string

const (
	MethodBarcode Method = "barcode"
	MethodVoice   Method = "voice"
	MethodText    Method = "text"
)

// Valid reports whether m is one of the known capture methods.
func (m Method) Valid() bool {
	switch m {
	case MethodBarcode, MethodVoice, MethodText:
		return true
	}
	return false
}

// Entry is one food item logged by the user. Entries are immutable once
// created; a correction is a delete followed by a new entry.
type Entry struct {
	ID         string
	Date       string // local calendar date, DateLayout
	Timestamp  time.Time
	Food       string
	Quantity   float64
	Unit       Unit
	Kcal       float64
	Fat        float64
	Carbs      float64
	Protein    float64
	Method     Method
	Confidence *float64
}

// RawEntry is unvalidated caller input for a new entry. Nil nutrient
// pointers mean "not provided" and are stored as zero.
type RawEntry struct {
	Food       string
	Quantity   float64
	Unit       string
	Kcal       *float64
	Fat        *float64
	Carbs      *float64
	Protein    *float64
	Method     string
	Confidence *float64
}

// MacroTotals is the sum of nutrients over a set of entries.
type MacroTotals struct {
	Calories float64 `json:"calories" yaml:"calories"`
	Fat      float64 `json:"fat" yaml:"fat"`
	Carbs    float64 `json:"carbs" yaml:"carbs"`
	Protein  float64 `json:"protein" yaml:"protein"`
}

// Add returns t with e's nutrients added.
func (t MacroTotals) Add(e *Entry) MacroTotals {
	t.Calories += e.Kcal
	t.Fat += e.Fat
	t.Carbs += e.Carbs
	t.Protein += e.Protein
	return t
}

// DaySummary combines a day's intake totals with its calorie offset.
// Net is Totals.Calories + Offset.
type DaySummary struct {
	Date    string      `json:"date" yaml:"date"`
	Totals  MacroTotals `json:"totals" yaml:"totals"`
	Offset  float64     `json:"offset" yaml:"offset"`
	Net     float64     `json:"net" yaml:"net"`
	Entries int         `json:"entries" yaml:"entries"`
}

// ValidateDate checks that s is a real calendar date in canonical
// YYYY-MM-DD form. "2024-3-1" and "2024-02-30" are both rejected.
func ValidateDate(s string) error {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return invalid("date", "%q is not YYYY-MM-DD", s)
	}
	if t.Format(DateLayout) != s {
		return invalid("date", "%q is not canonical", s)
	}
	return nil
}

// DateOf returns the calendar date of t in loc.
func DateOf(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(DateLayout)
}
