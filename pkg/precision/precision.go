// Package precision estimates per-peak mass accuracy from ion statistics.
package precision

import (
	"math"
	"strings"

	"github.com/ChrisMcGann/RawInspect/pkg/core"
	"github.com/ChrisMcGann/RawInspect/pkg/store"
	"github.com/ChrisMcGann/RawInspect/pkg/trailer"
)

// PeakAccuracy is the accuracy estimate for one centroid peak.
type PeakAccuracy struct {
	Mass            float64
	AccuracyMilliDa float64
	AccuracyPPM     float64
}

// Estimator produces one estimate per centroid peak of rec, or none when rec
// has no centroid data.
type Estimator interface {
	Estimate(rec *core.ScanRecord, massAnalyzer string, ionTime, resolution float64) []PeakAccuracy
}

// Nominal resolutions used when the trailer does not report one.
var defaultResolution = map[string]float64{
	"FTMS": 60000,
	"ITMS": 2000,
	"TOF":  20000,
	"SQMS": 1000,
	"TQMS": 1000,
}

// StatisticalModel treats the peak width (m/R) as the single-ion spread and
// shrinks it by the square root of the ion count, estimated as
// intensity * ionTime / IntensityPerIon.
type StatisticalModel struct {
	IntensityPerIon float64 // Signal per ion per ms (0 = 1)
}

// Default returns the statistical model.
func Default() Estimator {
	return StatisticalModel{}
}

// Estimate implements Estimator.
func (m StatisticalModel) Estimate(rec *core.ScanRecord, massAnalyzer string, ionTime, resolution float64) []PeakAccuracy {
	if !rec.HasCentroid {
		return nil
	}

	if resolution <= 0 {
		resolution = NominalResolution(massAnalyzer)
	}
	perIon := m.IntensityPerIon
	if perIon <= 0 {
		perIon = 1
	}
	if ionTime <= 0 {
		ionTime = 1
	}

	out := make([]PeakAccuracy, len(rec.CentroidMasses))
	for i, mz := range rec.CentroidMasses {
		ions := rec.CentroidIntensities[i] * ionTime / perIon
		if ions < 1 {
			ions = 1
		}
		width := math.Abs(mz) / resolution
		accuracy := width / math.Sqrt(ions)

		out[i] = PeakAccuracy{
			Mass:            mz,
			AccuracyMilliDa: accuracy * 1000,
		}
		if mz != 0 {
			out[i].AccuracyPPM = accuracy / math.Abs(mz) * 1e6
		}
	}
	return out
}

// NominalResolution returns a typical resolution for the analyzer name.
func NominalResolution(massAnalyzer string) float64 {
	if r, ok := defaultResolution[strings.ToUpper(strings.TrimSpace(massAnalyzer))]; ok {
		return r
	}
	return defaultResolution["ITMS"]
}

// EstimateScan looks up the ion time and resolution of rec in the trailer log
// and runs est. It fails with core.ErrIonTimeNotFound when the trailer has
// no ion time.
func EstimateScan(s store.Store, rec *core.ScanRecord, est Estimator, fallbackResolution float64) ([]PeakAccuracy, error) {
	ionTime, err := trailer.IonTime(s, rec.ScanNumber)
	if err != nil {
		return nil, err
	}
	if fallbackResolution <= 0 {
		fallbackResolution = NominalResolution(rec.Analyzer)
	}
	resolution := trailer.Resolution(s, rec.ScanNumber, fallbackResolution)
	return est.Estimate(rec, rec.Analyzer, ionTime, resolution), nil
}
