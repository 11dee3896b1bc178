package core

import (
	"errors"
	"math"
	"sort"
	"testing"
)

func TestTolerance(t *testing.T) {
	tests := []struct {
		name string
		opts AverageOptions
		mass float64
		want float64
	}{
		{"ppm", AverageOptions{TolerancePPM, 10}, 500, 0.005},
		{"mDa", AverageOptions{ToleranceMilliDa, 5}, 500, 0.005},
		{"absolute", AverageOptions{ToleranceAbsolute, 0.01}, 500, 0.01},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.opts.Tolerance(tt.mass)
			if math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("Tolerance() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAverageOptionsValidate(t *testing.T) {
	if err := DefaultAverageOptions().Validate(); err != nil {
		t.Errorf("Expected default options to be valid, got %v", err)
	}
	err := AverageOptions{ToleranceUnits: TolerancePPM, ToleranceValue: 0}.Validate()
	if !errors.Is(err, ErrInvalidOptions) {
		t.Errorf("Expected ErrInvalidOptions, got %v", err)
	}
}

func TestParseToleranceUnits(t *testing.T) {
	for in, want := range map[string]ToleranceUnits{"PPM": TolerancePPM, "mDa": ToleranceMilliDa, "Da": ToleranceAbsolute} {
		got, err := ParseToleranceUnits(in)
		if err != nil || got != want {
			t.Errorf("ParseToleranceUnits(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseToleranceUnits("furlongs"); err == nil {
		t.Error("Expected error for unknown units")
	}
}

func TestRoundFloat(t *testing.T) {
	tests := []struct {
		name      string
		val       float64
		precision int
		want      float64
	}{
		{"round to 2 decimals", 3.14159, 2, 3.14},
		{"round to 4 decimals", 3.14159, 4, 3.1416},
		{"round to 0 decimals", 3.6, 0, 4.0},
		{"round negative", -3.14159, 2, -3.14},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RoundFloat(tt.val, tt.precision)
			if got != tt.want {
				t.Errorf("RoundFloat() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCompareInclusionItems(t *testing.T) {
	items := []InclusionItem{
		{Descriptor: "B", Mass: 100},
		{Descriptor: "A", Mass: 300},
		{Descriptor: "A", Mass: 200, Threshold: 50},
		{Descriptor: "A", Mass: 200, Threshold: 10, ScanNumber: 9},
		{Descriptor: "A", Mass: 200, Threshold: 10, ScanNumber: 3},
	}

	sort.SliceStable(items, func(i, j int) bool { return Compare(items[i], items[j]) < 0 })

	want := []InclusionItem{
		{Descriptor: "A", Mass: 200, Threshold: 10, ScanNumber: 3},
		{Descriptor: "A", Mass: 200, Threshold: 10, ScanNumber: 9},
		{Descriptor: "A", Mass: 200, Threshold: 50},
		{Descriptor: "A", Mass: 300},
		{Descriptor: "B", Mass: 100},
	}
	for i := range want {
		if items[i] != want[i] {
			t.Errorf("Position %d: expected %+v, got %+v", i, want[i], items[i])
		}
	}
}

func TestLogEntryLookup(t *testing.T) {
	entry := LogEntry{Values: []LogValue{
		{Label: "Ion Injection Time (ms):", Value: "12.5"},
		{Label: "FT Resolution:", Value: "60000"},
	}}

	got, err := entry.Float("Ion Injection Time (ms)")
	if err != nil || got != 12.5 {
		t.Errorf("Expected 12.5, got %v (%v)", got, err)
	}
	if _, ok := entry.FindPrefix("ft resolution", "orbitrap resolution"); !ok {
		t.Error("Expected resolution field by prefix")
	}
	if _, err := entry.Float("Missing"); err == nil {
		t.Error("Expected error for missing field")
	}
}
