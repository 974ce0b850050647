package main

import (
	"testing"

	"github.com/spf13/pflag"
)

func TestRawEntryFromFlags(t *testing.T) {
	flags := pflag.NewFlagSet("add", pflag.ContinueOnError)
	addEntryFlags(flags)

	err := flags.Parse([]string{"--food", "apple", "--kcal", "95", "--fat", "0", "--unit", "pieces"})
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	raw := rawEntryFromFlags(flags)
	if raw.Food != "apple" || raw.Unit != "pieces" {
		t.Errorf("raw = %+v", raw)
	}
	if raw.Quantity != 1 {
		t.Errorf("Quantity = %v, want default 1", raw.Quantity)
	}
	if raw.Kcal == nil || *raw.Kcal != 95 {
		t.Errorf("Kcal = %v, want 95", raw.Kcal)
	}
	if raw.Fat == nil || *raw.Fat != 0 {
		t.Errorf("Fat = %v, want explicit 0", raw.Fat)
	}
	if raw.Carbs != nil || raw.Protein != nil || raw.Confidence != nil {
		t.Error("unset nutrient flags should stay nil")
	}
}

func TestNum(t *testing.T) {
	tests := map[float64]string{95: "95", 0.3: "0.3", -200: "-200", 1.25: "1.25"}
	for in, want := range tests {
		if got := num(in); got != want {
			t.Errorf("num(%v) = %q, want %q", in, got, want)
		}
	}
}
