package centroid

import (
	"math"
	"reflect"
	"testing"

	"github.com/ChrisMcGann/RawInspect/pkg/core"
	"github.com/ChrisMcGann/RawInspect/pkg/validate"
)

func profileRecord(masses, intensities []float64) core.ScanRecord {
	return core.ScanRecord{
		ScanNumber:         1,
		ProfileMasses:      masses,
		ProfileIntensities: intensities,
	}
}

func TestLocalMaximaPeaks(t *testing.T) {
	rec := profileRecord(
		[]float64{100.0, 100.1, 100.2, 100.3, 100.4, 100.5, 100.6, 100.7},
		[]float64{0, 10, 30, 10, 0, 5, 20, 5},
	)

	out := Default().ToCentroid(rec)
	if !out.HasCentroid {
		t.Fatal("Expected centroid data")
	}
	if len(out.CentroidMasses) != 2 {
		t.Fatalf("Expected 2 peaks, got %v", out.CentroidMasses)
	}
	if math.Abs(out.CentroidMasses[0]-100.2) > 1e-9 || out.CentroidIntensities[0] != 30 {
		t.Errorf("Expected first peak at 100.2/30, got %.4f/%v", out.CentroidMasses[0], out.CentroidIntensities[0])
	}
	if math.Abs(out.CentroidMasses[1]-100.6) > 1e-9 || out.CentroidIntensities[1] != 20 {
		t.Errorf("Expected second peak at 100.6/20, got %.4f/%v", out.CentroidMasses[1], out.CentroidIntensities[1])
	}
	if len(out.ProfileMasses) != len(rec.ProfileMasses) {
		t.Error("Expected profile data to be preserved")
	}
}

func TestNoiseFloor(t *testing.T) {
	rec := profileRecord(
		[]float64{1, 2, 3, 4, 5, 6},
		[]float64{0, 3, 0, 100, 0, 2},
	)

	out := LocalMaxima{RelativeNoise: 0.05}.ToCentroid(rec)
	if len(out.CentroidMasses) != 1 || out.CentroidMasses[0] != 4 {
		t.Errorf("Expected only the peak at 4, got %v", out.CentroidMasses)
	}

	out = LocalMaxima{NoiseFloor: 2.5}.ToCentroid(rec)
	if len(out.CentroidMasses) != 2 {
		t.Errorf("Expected 2 peaks above 2.5, got %v", out.CentroidMasses)
	}
}

func TestPlateauYieldsOnePeak(t *testing.T) {
	rec := profileRecord([]float64{1, 2, 3, 4, 5}, []float64{1, 5, 5, 5, 1})
	out := Default().ToCentroid(rec)
	if len(out.CentroidMasses) != 1 {
		t.Errorf("Expected one peak for a plateau, got %v", out.CentroidMasses)
	}
}

func TestIdempotentAndMonotone(t *testing.T) {
	inputs := []core.ScanRecord{
		profileRecord([]float64{100, 100.1, 100.2, 100.3, 100.4}, []float64{1, 4, 2, 8, 1}),
		profileRecord([]float64{300, 200, 100, 400}, []float64{5, 9, 5, 7}),
		profileRecord(nil, nil),
	}

	c := Default()
	for i, in := range inputs {
		once := c.ToCentroid(in)
		twice := c.ToCentroid(once)
		if !reflect.DeepEqual(once, twice) {
			t.Errorf("Input %d: centroiding is not idempotent", i)
		}
		if len(once.CentroidMasses) > len(in.ProfileMasses) {
			t.Errorf("Input %d: %d peaks from %d profile points", i, len(once.CentroidMasses), len(in.ProfileMasses))
		}
		result := validate.Validate(&once)
		if result.Centroid.HasFailure() {
			t.Errorf("Input %d: centroid masses not strictly increasing: %v", i, once.CentroidMasses)
		}
	}
}

func TestExistingCentroidUnchanged(t *testing.T) {
	rec := profileRecord([]float64{1, 2, 3}, []float64{1, 2, 1}).WithCentroid([]core.Peak{{MZ: 7, Intensity: 1}})
	out := Default().ToCentroid(rec)
	if !reflect.DeepEqual(rec, out) {
		t.Error("Expected record with centroid data to be returned unchanged")
	}
}
