package core

import (
	"fmt"
	"math"
	"strings"
)

// Proton mass for charge calculations
const ProtonMass = 1.00727646688

// ToleranceUnits selects how a tolerance value is interpreted.
type ToleranceUnits int

const (
	TolerancePPM      ToleranceUnits = iota // parts per million of the reference mass
	ToleranceMilliDa                        // 1/1000 Da
	ToleranceAbsolute                       // Da
)

func (u ToleranceUnits) String() string {
	switch u {
	case TolerancePPM:
		return "ppm"
	case ToleranceMilliDa:
		return "mDa"
	case ToleranceAbsolute:
		return "absolute"
	default:
		return fmt.Sprintf("ToleranceUnits(%d)", int(u))
	}
}

// ParseToleranceUnits accepts "ppm", "mDa" or "absolute" (also "Da"), case-insensitively.
func ParseToleranceUnits(s string) (ToleranceUnits, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ppm":
		return TolerancePPM, nil
	case "mda", "mmu":
		return ToleranceMilliDa, nil
	case "absolute", "da", "amu":
		return ToleranceAbsolute, nil
	default:
		return 0, fmt.Errorf("%w: unknown tolerance units %q", ErrInvalidOptions, s)
	}
}

// AverageOptions controls how peaks of several scans are merged.
type AverageOptions struct {
	ToleranceUnits ToleranceUnits
	ToleranceValue float64 // > 0
}

// DefaultAverageOptions returns a 5 ppm merge tolerance.
func DefaultAverageOptions() AverageOptions {
	return AverageOptions{ToleranceUnits: TolerancePPM, ToleranceValue: 5}
}

// Validate checks that the tolerance is usable.
func (o AverageOptions) Validate() error {
	if !(o.ToleranceValue > 0) || math.IsInf(o.ToleranceValue, 0) {
		return fmt.Errorf("%w: tolerance value must be positive, got %v", ErrInvalidOptions, o.ToleranceValue)
	}
	if o.ToleranceUnits < TolerancePPM || o.ToleranceUnits > ToleranceAbsolute {
		return fmt.Errorf("%w: %v", ErrInvalidOptions, o.ToleranceUnits)
	}
	return nil
}

// Tolerance returns the absolute tolerance in Da around the given mass.
func (o AverageOptions) Tolerance(mass float64) float64 {
	switch o.ToleranceUnits {
	case TolerancePPM:
		return math.Abs(mass) * o.ToleranceValue * 1e-6
	case ToleranceMilliDa:
		return o.ToleranceValue / 1000
	default:
		return o.ToleranceValue
	}
}

// MassRange is a closed m/z interval.
type MassRange struct {
	Low  float64
	High float64
}

// Contains reports whether mz lies within the range.
func (r MassRange) Contains(mz float64) bool {
	return mz >= r.Low && mz <= r.High
}

// PPMError returns (observed-reference)/reference in parts per million.
func PPMError(observed, reference float64) float64 {
	if reference == 0 {
		return 0
	}
	return (observed - reference) / reference * 1e6
}

// RoundFloat rounds a float to n decimal places
func RoundFloat(val float64, precision int) float64 {
	ratio := math.Pow(10, float64(precision))
	return math.Round(val*ratio) / ratio
}
