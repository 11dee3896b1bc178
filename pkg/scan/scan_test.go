package scan

import (
	"errors"
	"testing"

	"github.com/ChrisMcGann/RawInspect/pkg/core"
	"github.com/ChrisMcGann/RawInspect/pkg/store/memory"
)

func TestLoad(t *testing.T) {
	ms2 := memory.MS2Scan(2, 0.2, 500.1, []float64{150, 250}, []float64{10, 20})
	s := memory.New(memory.Run{Scans: []memory.Scan{
		memory.ProfileScan(1, 0.1, []float64{100, 101}, []float64{5, 6}),
		ms2,
	}})

	rec, err := Load(s, 1)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if rec.HasCentroid || len(rec.ProfileMasses) != 2 || rec.MSOrder != core.MS1 {
		t.Errorf("Unexpected profile record %+v", rec)
	}

	rec, err = Load(s, 2)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !rec.HasCentroid || len(rec.CentroidMasses) != 2 {
		t.Errorf("Expected 2 centroid peaks, got %+v", rec)
	}
	if mass, ok := rec.PrecursorMass(); !ok || mass != 500.1 {
		t.Errorf("Expected precursor 500.1, got %v", mass)
	}
}

func TestLoadFailures(t *testing.T) {
	bad := memory.ProfileScan(1, 0.1, []float64{100}, []float64{5})
	bad.Corrupt = true
	s := memory.New(memory.Run{Scans: []memory.Scan{bad}})

	_, err := Load(s, 1)
	if !errors.Is(err, core.ErrScanRead) {
		t.Errorf("Expected ErrScanRead, got %v", err)
	}
	var se *core.ScanError
	if !errors.As(err, &se) || se.Scan != 1 {
		t.Errorf("Expected ScanError for scan 1, got %v", err)
	}

	if _, err := Load(s, 50); !errors.Is(err, core.ErrScanRead) {
		t.Errorf("Expected ErrScanRead for out-of-range scan, got %v", err)
	}
}

func TestFailuresLedger(t *testing.T) {
	f := NewFailures(nil)
	f.Record(3, errors.New("boom"))
	f.Record(4, errors.New("bang"))

	other := NewFailures(nil)
	other.Record(9, errors.New("fizz"))
	f.Merge(other)

	if f.Count != 3 || len(f.Messages) != 3 {
		t.Errorf("Expected 3 failures, got %d (%v)", f.Count, f.Messages)
	}
	if f.Messages[0] != "scan 3: boom" {
		t.Errorf("Unexpected message %q", f.Messages[0])
	}
}

func TestRange(t *testing.T) {
	s := memory.New(memory.Run{Scans: []memory.Scan{
		memory.ProfileScan(5, 0.1, nil, nil),
		memory.ProfileScan(9, 0.2, nil, nil),
	}})

	tests := []struct {
		name        string
		first, last int
		wantFirst   int
		wantLast    int
	}{
		{"whole run", 0, 0, 5, 9},
		{"clamped last", 6, 100, 6, 9},
		{"clamped first", 1, 7, 5, 7},
		{"first past run", 100, 0, 100, 99},
		{"inverted", 8, 6, 8, 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			first, last := Range(s, tt.first, tt.last)
			if first != tt.wantFirst || last != tt.wantLast {
				t.Errorf("Expected %d..%d, got %d..%d", tt.wantFirst, tt.wantLast, first, last)
			}
			if last < first-1 {
				t.Errorf("Expected last >= first-1, got %d..%d", first, last)
			}
		})
	}
}

func TestRangeEmptyStore(t *testing.T) {
	first, last := Range(memory.New(memory.Run{}), 0, 0)
	if last >= first {
		t.Errorf("Expected empty range, got %d..%d", first, last)
	}
}
