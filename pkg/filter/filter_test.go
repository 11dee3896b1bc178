package filter

import (
	"testing"

	"github.com/ChrisMcGann/RawInspect/pkg/core"
)

func testRecord() *core.ScanRecord {
	rec := core.ScanRecord{ScanNumber: 1}
	rec = rec.WithCentroid([]core.Peak{
		{MZ: 300, Intensity: 100},
		{MZ: 100, Intensity: 1000},
		{MZ: 200, Intensity: 5},
		{MZ: 250, Intensity: 0},
		{MZ: 400, Intensity: 400},
	})
	return &rec
}

func TestApply(t *testing.T) {
	tests := []struct {
		name   string
		config Config
		want   []float64
	}{
		{"no filters drops zero intensity", Config{}, []float64{100, 200, 300, 400}},
		{"top 2", Config{TopN: 2}, []float64{100, 400}},
		{"cutoff 10 percent", Config{IntensityCutoff: 10}, []float64{100, 300, 400}},
		{"mass range", Config{MassRange: &core.MassRange{Low: 150, High: 350}}, []float64{200, 300}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.config.Apply(testRecord())
			if len(got) != len(tt.want) {
				t.Fatalf("Expected %d peaks, got %d (%v)", len(tt.want), len(got), got)
			}
			for i, p := range got {
				if p.MZ != tt.want[i] {
					t.Errorf("Peak %d: expected m/z %.1f, got %.1f", i, tt.want[i], p.MZ)
				}
			}
		})
	}
}

func TestApplyDoesNotModifyRecord(t *testing.T) {
	rec := testRecord()
	cfg := Config{TopN: 1}
	cfg.Apply(rec)
	if len(rec.CentroidMasses) != 5 {
		t.Errorf("Expected record to keep 5 peaks, got %d", len(rec.CentroidMasses))
	}
}

func TestScanFilterMatches(t *testing.T) {
	const ms2 = "FTMS + c ESI d Full ms2 500.1000@hcd30.00 [100.0000-1000.0000]"
	const ms1 = "FTMS + p ESI Full ms [350.0000-1800.0000]"

	tests := []struct {
		pattern string
		text    string
		want    bool
	}{
		{"", ms1, true},
		{"ms2", ms2, true},
		{"ms2", ms1, false},
		{"ms", ms2, false},
		{"FTMS + p", ms1, true},
		{"ftms full ms", ms1, true},
		{"full ftms", ms1, false},
		{`re:ms2 500\.1`, ms2, true},
		{`re:^ITMS`, ms2, false},
	}

	for _, tt := range tests {
		f, err := NewScanFilter(tt.pattern)
		if err != nil {
			t.Fatalf("NewScanFilter(%q) failed: %v", tt.pattern, err)
		}
		if got := f.Matches(tt.text); got != tt.want {
			t.Errorf("%q.Matches(%q) = %v, want %v", tt.pattern, tt.text, got, tt.want)
		}
	}
}

func TestScanFilterInvalidExpression(t *testing.T) {
	if _, err := NewScanFilter("re:(["); err == nil {
		t.Error("Expected error for invalid expression")
	}
}
