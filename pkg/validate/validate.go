// Package validate checks the mass ordering of scans.
package validate

import (
	"log/slog"

	"github.com/ChrisMcGann/RawInspect/pkg/core"
	"github.com/ChrisMcGann/RawInspect/pkg/scan"
	"github.com/ChrisMcGann/RawInspect/pkg/store"
)

// ArrayResult summarizes the ordering of one mass array kind. FirstFailureScan
// is 0 while no failure has been seen.
type ArrayResult struct {
	FailureCount     int
	FirstFailureScan int
	FirstFailureMass float64
}

// HasFailure reports whether any out-of-order mass was found.
func (r ArrayResult) HasFailure() bool {
	return r.FailureCount > 0
}

func (r *ArrayResult) check(scanNumber int, masses []float64) {
	if len(masses) == 0 {
		return
	}
	// A mass passes only if it is a new running maximum.
	highest := masses[0]
	for _, mz := range masses[1:] {
		if mz > highest {
			highest = mz
			continue
		}
		if r.FailureCount == 0 {
			r.FirstFailureScan = scanNumber
			r.FirstFailureMass = mz
		}
		r.FailureCount++
	}
}

// Result holds profile and centroid findings accumulated over one or more scans.
type Result struct {
	Profile      ArrayResult
	Centroid     ArrayResult
	ScansChecked int
}

// Validator accumulates monotonicity findings across scans.
type Validator struct {
	result Result
}

// Add checks one record and folds its findings into the running result.
func (v *Validator) Add(rec *core.ScanRecord) {
	v.result.ScansChecked++
	v.result.Profile.check(rec.ScanNumber, rec.ProfileMasses)
	if rec.HasCentroid {
		v.result.Centroid.check(rec.ScanNumber, rec.CentroidMasses)
	}
}

// Result returns the accumulated findings.
func (v *Validator) Result() Result {
	return v.result
}

// Validate checks a single record.
func Validate(rec *core.ScanRecord) Result {
	var v Validator
	v.Add(rec)
	return v.Result()
}

// ValidateRange loads every scan in first..last and validates it. Scans that
// cannot be read are recorded in the returned ledger and skipped.
func ValidateRange(s store.Store, first, last int, logger *slog.Logger) (Result, *scan.Failures) {
	failures := scan.NewFailures(logger)
	var v Validator
	for n := first; n <= last; n++ {
		rec, err := scan.Load(s, n)
		if err != nil {
			failures.Record(n, err)
			continue
		}
		v.Add(&rec)
	}
	return v.Result(), failures
}
