// Package centroid reduces profile scans to centroid peak lists.
package centroid

import (
	"github.com/ChrisMcGann/RawInspect/pkg/core"
)

// Centroider converts a profile record into one with centroid data. A record
// that already has centroid data is returned unchanged. Implementations must
// be deterministic and emit strictly increasing masses, never more peaks than
// profile points.
type Centroider interface {
	ToCentroid(rec core.ScanRecord) core.ScanRecord
}

// LocalMaxima picks every local maximum of the profile trace above the noise
// floor. The peak mass is the intensity-weighted mean over the points that
// fall monotonically away from the apex; the peak intensity is the apex
// intensity.
type LocalMaxima struct {
	// NoiseFloor excludes points whose intensity does not exceed it.
	NoiseFloor float64
	// RelativeNoise additionally excludes points below this fraction of the
	// base peak (0 disables).
	RelativeNoise float64
}

// Default returns the local-maxima centroider with no noise exclusion beyond
// zero intensity.
func Default() Centroider {
	return LocalMaxima{}
}

// ToCentroid implements Centroider.
func (c LocalMaxima) ToCentroid(rec core.ScanRecord) core.ScanRecord {
	if rec.HasCentroid {
		return rec
	}
	return rec.WithCentroid(c.Pick(rec.ProfileMasses, rec.ProfileIntensities))
}

// Pick runs peak detection over parallel profile arrays.
func (c LocalMaxima) Pick(masses, intensities []float64) []core.Peak {
	n := len(masses)
	if len(intensities) < n {
		n = len(intensities)
	}
	if n == 0 {
		return []core.Peak{}
	}

	floor := c.NoiseFloor
	if c.RelativeNoise > 0 {
		base := 0.0
		for _, v := range intensities[:n] {
			if v > base {
				base = v
			}
		}
		if rel := base * c.RelativeNoise; rel > floor {
			floor = rel
		}
	}

	peaks := make([]core.Peak, 0, n/2+1)
	for i := 0; i < n; i++ {
		apex := intensities[i]
		if apex <= floor {
			continue
		}
		// Rising edge into i (or start of trace) and not rising out of it.
		if i > 0 && intensities[i-1] >= apex {
			continue
		}
		if i < n-1 && intensities[i+1] > apex {
			continue
		}

		left := i
		for left > 0 && intensities[left-1] < intensities[left] && intensities[left-1] > floor {
			left--
		}
		right := i
		for right < n-1 && intensities[right+1] < intensities[right] && intensities[right+1] > floor {
			right++
		}

		var sumI, sumW float64
		for j := left; j <= right; j++ {
			sumI += intensities[j]
			sumW += masses[j] * intensities[j]
		}
		mz := masses[i]
		if sumI > 0 {
			mz = sumW / sumI
		}

		// Out-of-order profile input must not produce non-increasing output.
		if last := len(peaks) - 1; last >= 0 && mz <= peaks[last].MZ {
			if apex > peaks[last].Intensity {
				peaks[last].Intensity = apex
			}
			continue
		}
		peaks = append(peaks, core.Peak{MZ: mz, Intensity: apex})
	}

	return peaks
}
