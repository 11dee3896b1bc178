package precision

import (
	"errors"
	"math"
	"testing"

	"github.com/ChrisMcGann/RawInspect/pkg/core"
	"github.com/ChrisMcGann/RawInspect/pkg/store/memory"
)

func TestEstimateOnePerPeak(t *testing.T) {
	rec := core.ScanRecord{ScanNumber: 1}.WithCentroid([]core.Peak{
		{MZ: 500, Intensity: 10000},
		{MZ: 1000, Intensity: 100},
	})

	got := Default().Estimate(&rec, "FTMS", 1, 50000)
	if len(got) != 2 {
		t.Fatalf("Expected 2 estimates, got %d", len(got))
	}

	// 500/50000 = 0.01 Da width, 10000 ions -> 0.0001 Da = 0.1 mDa, 0.2 ppm
	if math.Abs(got[0].AccuracyMilliDa-0.1) > 1e-9 || math.Abs(got[0].AccuracyPPM-0.2) > 1e-9 {
		t.Errorf("Unexpected first estimate %+v", got[0])
	}
	if got[1].AccuracyPPM <= got[0].AccuracyPPM {
		t.Errorf("Expected weaker peak to be less precise, got %+v", got)
	}
	if got[0].Mass != 500 {
		t.Errorf("Expected mass 500, got %v", got[0].Mass)
	}
}

func TestEstimateProfileOnlyIsEmpty(t *testing.T) {
	rec := core.ScanRecord{ScanNumber: 1, ProfileMasses: []float64{100}, ProfileIntensities: []float64{1}}
	if got := Default().Estimate(&rec, "FTMS", 10, 0); len(got) != 0 {
		t.Errorf("Expected no estimates without centroid data, got %d", len(got))
	}
}

func TestNominalResolution(t *testing.T) {
	if NominalResolution("ftms") != 60000 {
		t.Error("Expected FTMS nominal resolution 60000")
	}
	if NominalResolution("unknown") != 2000 {
		t.Error("Expected fallback to ITMS resolution")
	}
}

func TestEstimateScan(t *testing.T) {
	sc := memory.CentroidScan(1, 0.1, []float64{400, 800}, []float64{100, 100})
	sc.Trailer = []string{"25.0", "120000"}
	bare := memory.CentroidScan(2, 0.2, []float64{400}, []float64{100})
	s := memory.New(memory.Run{
		Scans: []memory.Scan{sc, bare},
		TrailerFields: []core.TrailerField{
			{Label: "Ion Injection Time (ms):", DataType: core.FieldDouble},
			{Label: "Orbitrap Resolution:", DataType: core.FieldInt},
		},
	})

	rec := core.ScanRecord{ScanNumber: 1, Analyzer: "FTMS"}.WithCentroid([]core.Peak{{MZ: 400, Intensity: 100}, {MZ: 800, Intensity: 100}})
	got, err := EstimateScan(s, &rec, Default(), 0)
	if err != nil {
		t.Fatalf("EstimateScan failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Expected 2 estimates, got %d", len(got))
	}
	want := 400.0 / 120000 / math.Sqrt(2500) * 1000
	if math.Abs(got[0].AccuracyMilliDa-want) > 1e-12 {
		t.Errorf("Expected %.6f mDa, got %.6f", want, got[0].AccuracyMilliDa)
	}

	rec.ScanNumber = 2
	if _, err := EstimateScan(s, &rec, Default(), 0); !errors.Is(err, core.ErrIonTimeNotFound) {
		t.Errorf("Expected ErrIonTimeNotFound, got %v", err)
	}
}
