// Package core provides the in-memory scan models and validation logic
// shared by every RawInspect analysis.
package core

import (
	"fmt"
	"math"
	"strings"
)

// MSOrder is the acquisition stage of a scan.
type MSOrder int

const (
	MSOrderUnknown MSOrder = iota
	MS1
	MS2
	MS3
)

// String returns the conventional "msN" label.
func (o MSOrder) String() string {
	if o <= MSOrderUnknown {
		return "ms?"
	}
	if o == MS1 {
		return "ms"
	}
	return fmt.Sprintf("ms%d", int(o))
}

// Reaction is one fragmentation stage of a scan event. Index 0 of a scan's
// reaction list is the first-stage precursor.
type Reaction struct {
	PrecursorMass   float64
	CollisionEnergy float64
	IsolationWidth  float64
}

// ScanRecord holds one scan's profile and optional centroid data plus
// metadata. Records are value objects with no reference back to the store.
type ScanRecord struct {
	// Required fields
	ScanNumber    int     // Positive, unique within a run
	RetentionTime float64 // Minutes
	MSOrder       MSOrder
	FilterText    string

	// Profile trace
	ProfileMasses      []float64
	ProfileIntensities []float64

	// Centroid peak list, only meaningful when HasCentroid is set
	HasCentroid         bool
	CentroidMasses      []float64
	CentroidIntensities []float64
	CentroidCharges     []int

	// Optional metadata
	Reactions []Reaction
	Analyzer  string // FTMS, ITMS, etc.
}

// Peak is a single m/z, intensity pair with an optional charge.
type Peak struct {
	MZ        float64
	Intensity float64
	Charge    int
}

// ValidationError represents an error found during scan validation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error in %s: %s", e.Field, e.Message)
}

// Validate checks the structural invariants of a scan record: positive scan
// number, index-aligned parallel arrays and finite values.
func (s *ScanRecord) Validate() error {
	var errs []string

	if s.ScanNumber <= 0 {
		errs = append(errs, "scan number must be positive")
	}
	if math.IsNaN(s.RetentionTime) || math.IsInf(s.RetentionTime, 0) {
		errs = append(errs, "retention time must be finite")
	}
	if len(s.ProfileMasses) != len(s.ProfileIntensities) {
		errs = append(errs, fmt.Sprintf("profile arrays misaligned (%d masses, %d intensities)",
			len(s.ProfileMasses), len(s.ProfileIntensities)))
	}

	if s.HasCentroid {
		if len(s.CentroidMasses) != len(s.CentroidIntensities) {
			errs = append(errs, fmt.Sprintf("centroid arrays misaligned (%d masses, %d intensities)",
				len(s.CentroidMasses), len(s.CentroidIntensities)))
		}
		if s.CentroidCharges != nil && len(s.CentroidCharges) != len(s.CentroidMasses) {
			errs = append(errs, fmt.Sprintf("centroid charges misaligned (%d masses, %d charges)",
				len(s.CentroidMasses), len(s.CentroidCharges)))
		}
	} else if len(s.CentroidMasses) > 0 || len(s.CentroidIntensities) > 0 {
		errs = append(errs, "centroid data present without centroid flag")
	}

	for i, mz := range s.ProfileMasses {
		if math.IsNaN(mz) || math.IsInf(mz, 0) {
			errs = append(errs, fmt.Sprintf("profile point %d has invalid m/z", i))
		}
	}
	for i, mz := range s.CentroidMasses {
		if math.IsNaN(mz) || math.IsInf(mz, 0) {
			errs = append(errs, fmt.Sprintf("centroid peak %d has invalid m/z", i))
		}
	}

	if len(errs) > 0 {
		return &ValidationError{
			Field:   s.Name(),
			Message: strings.Join(errs, "; "),
		}
	}

	return nil
}

// ProfilePeaks returns the profile trace as a peak slice.
func (s *ScanRecord) ProfilePeaks() []Peak {
	peaks := make([]Peak, len(s.ProfileMasses))
	for i, mz := range s.ProfileMasses {
		peaks[i] = Peak{MZ: mz, Intensity: s.ProfileIntensities[i]}
	}
	return peaks
}

// CentroidPeaks returns the centroid peak list, or nil without centroid data.
func (s *ScanRecord) CentroidPeaks() []Peak {
	if !s.HasCentroid {
		return nil
	}
	peaks := make([]Peak, len(s.CentroidMasses))
	for i, mz := range s.CentroidMasses {
		peaks[i] = Peak{MZ: mz, Intensity: s.CentroidIntensities[i]}
		if i < len(s.CentroidCharges) {
			peaks[i].Charge = s.CentroidCharges[i]
		}
	}
	return peaks
}

// Peaks returns the centroid peaks when present, otherwise the profile trace.
func (s *ScanRecord) Peaks() []Peak {
	if s.HasCentroid {
		return s.CentroidPeaks()
	}
	return s.ProfilePeaks()
}

// WithCentroid returns a copy of the record carrying the given centroid peaks.
func (s ScanRecord) WithCentroid(peaks []Peak) ScanRecord {
	s.HasCentroid = true
	s.CentroidMasses = make([]float64, len(peaks))
	s.CentroidIntensities = make([]float64, len(peaks))
	s.CentroidCharges = make([]int, len(peaks))
	for i, p := range peaks {
		s.CentroidMasses[i] = p.MZ
		s.CentroidIntensities[i] = p.Intensity
		s.CentroidCharges[i] = p.Charge
	}
	return s
}

// WithProfile returns a copy of the record carrying the given profile trace.
func (s ScanRecord) WithProfile(peaks []Peak) ScanRecord {
	s.ProfileMasses = make([]float64, len(peaks))
	s.ProfileIntensities = make([]float64, len(peaks))
	for i, p := range peaks {
		s.ProfileMasses[i] = p.MZ
		s.ProfileIntensities[i] = p.Intensity
	}
	return s
}

// PrecursorMass returns the first-stage precursor mass and whether one exists.
func (s *ScanRecord) PrecursorMass() (float64, bool) {
	if len(s.Reactions) == 0 {
		return 0, false
	}
	return s.Reactions[0].PrecursorMass, true
}

// TotalIntensity returns the summed intensity of Peaks().
func (s *ScanRecord) TotalIntensity() float64 {
	total := 0.0
	if s.HasCentroid {
		for _, v := range s.CentroidIntensities {
			total += v
		}
		return total
	}
	for _, v := range s.ProfileIntensities {
		total += v
	}
	return total
}

// Name returns the record name in format "scan N"
func (s *ScanRecord) Name() string {
	return fmt.Sprintf("scan %d", s.ScanNumber)
}
