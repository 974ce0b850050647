package foodlog_test

import (
	"errors"
	"testing"
	"time"

	"foodlog-go/internal/foodlog"
)

func TestValidateDate(t *testing.T) {
	tests := []struct {
		in    string
		valid bool
	}{
		{"2024-03-10", true},
		{"2024-02-29", true},
		{"2023-02-29", false},
		{"2024-02-30", false},
		{"2024-3-10", false},
		{"2024-03-1", false},
		{"20240310", false},
		{"2024-03-10T00:00:00Z", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			err := foodlog.ValidateDate(tt.in)
			if tt.valid && err != nil {
				t.Errorf("ValidateDate(%q) error = %v", tt.in, err)
			}
			if !tt.valid && !errors.Is(err, foodlog.ErrValidation) {
				t.Errorf("ValidateDate(%q) error = %v, want ErrValidation", tt.in, err)
			}
		})
	}
}

func TestParseUnit(t *testing.T) {
	tests := []struct {
		in   string
		want foodlog.Unit
		ok   bool
	}{
		{"g", foodlog.UnitGram, true},
		{"Grams", foodlog.UnitGram, true},
		{" ml ", foodlog.UnitMilliliter, true},
		{"millilitres", foodlog.UnitMilliliter, true},
		{"cups", foodlog.UnitCup, true},
		{"TBSP", foodlog.UnitTablespoon, true},
		{"teaspoon", foodlog.UnitTeaspoon, true},
		{"pcs", foodlog.UnitPiece, true},
		{"slices", foodlog.UnitSlice, true},
		{"", "", false},
		{"handful", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := foodlog.ParseUnit(tt.in)
			if got != tt.want || ok != tt.ok {
				t.Errorf("ParseUnit(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestMethod_Valid(t *testing.T) {
	for _, m := range []foodlog.Method{foodlog.MethodBarcode, foodlog.MethodVoice, foodlog.MethodText} {
		if !m.Valid() {
			t.Errorf("%q.Valid() = false", m)
		}
	}
	if foodlog.Method("photo").Valid() {
		t.Error(`"photo".Valid() = true`)
	}
}

func TestDateOf(t *testing.T) {
	ts := time.Date(2024, 3, 10, 23, 30, 0, 0, time.UTC)
	tokyo := time.FixedZone("JST", 9*60*60)

	if got := foodlog.DateOf(ts, time.UTC); got != "2024-03-10" {
		t.Errorf("DateOf(UTC) = %q", got)
	}
	if got := foodlog.DateOf(ts, tokyo); got != "2024-03-11" {
		t.Errorf("DateOf(JST) = %q, want 2024-03-11", got)
	}
}

func TestValidationError_Message(t *testing.T) {
	err := &foodlog.ValidationError{Field: "quantity", Reason: "must be positive"}
	if got := err.Error(); got != "invalid quantity: must be positive" {
		t.Errorf("Error() = %q", got)
	}
}
