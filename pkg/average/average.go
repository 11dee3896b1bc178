// Package average combines several scans into one averaged spectrum.
//
// Peaks of all constituent scans (centroid when a scan has it, profile
// otherwise) are pooled, sorted by m/z and merged greedily: a cluster is
// anchored at its lowest mass and absorbs every following peak within the
// tolerance of that anchor. Each cluster becomes one output peak whose mass is
// the intensity-weighted mean and whose intensity is the cluster sum, so total
// intensity is conserved and the output never has more peaks than the input.
package average

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/ChrisMcGann/RawInspect/pkg/core"
	"github.com/ChrisMcGann/RawInspect/pkg/filter"
	"github.com/ChrisMcGann/RawInspect/pkg/scan"
	"github.com/ChrisMcGann/RawInspect/pkg/store"
)

// Averager averages scans read from a store.
type Averager struct {
	Store  store.Store
	Logger *slog.Logger
}

// New creates an averager over s.
func New(s store.Store, logger *slog.Logger) *Averager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Averager{Store: s, Logger: logger}
}

// Result is an averaged spectrum plus the scans that went into it.
type Result struct {
	Record   core.ScanRecord
	Scans    []int
	Failures *scan.Failures
}

// MatchingScans lists the scans in first..last whose filter text matches
// scanFilter. Scans whose filter cannot be read are recorded and skipped.
func (a *Averager) MatchingScans(scanFilter *filter.ScanFilter, first, last int) ([]int, *scan.Failures) {
	failures := scan.NewFailures(a.Logger)
	var numbers []int
	for n := first; n <= last; n++ {
		f, err := a.Store.FilterFor(n)
		if err != nil {
			failures.Record(n, err)
			continue
		}
		if scanFilter.Matches(f.Text) {
			numbers = append(numbers, n)
		}
	}
	return numbers, failures
}

// AverageByRange averages every scan in first..last matching scanFilter. It
// is equivalent to AverageByList over MatchingScans.
func (a *Averager) AverageByRange(scanFilter *filter.ScanFilter, first, last int, opts core.AverageOptions) (Result, error) {
	if err := opts.Validate(); err != nil {
		return Result{}, err
	}

	numbers, failures := a.MatchingScans(scanFilter, first, last)
	if len(numbers) == 0 {
		return Result{Failures: failures}, fmt.Errorf("%w: filter %q in scans %d-%d", core.ErrEmptyRange, scanFilter.String(), first, last)
	}

	res, err := a.AverageByList(numbers, opts)
	if res.Failures != nil {
		failures.Merge(res.Failures)
	}
	res.Failures = failures
	return res, err
}

// AverageByList averages the given scans.
func (a *Averager) AverageByList(numbers []int, opts core.AverageOptions) (Result, error) {
	if err := opts.Validate(); err != nil {
		return Result{}, err
	}

	failures := scan.NewFailures(a.Logger)
	records := make([]core.ScanRecord, 0, len(numbers))
	for _, n := range numbers {
		rec, err := scan.Load(a.Store, n)
		if err != nil {
			failures.Record(n, err)
			continue
		}
		records = append(records, rec)
	}

	if len(records) == 0 {
		return Result{Failures: failures}, fmt.Errorf("%w: none of %d listed scans could be read", core.ErrEmptyRange, len(numbers))
	}

	used := make([]int, len(records))
	for i, rec := range records {
		used[i] = rec.ScanNumber
	}

	return Result{Record: Combine(records, opts), Scans: used, Failures: failures}, nil
}

type contribution struct {
	peak  core.Peak
	order int
}

// Combine merges the peaks of records. The output carries the metadata of
// the first record; HasCentroid is set when any record had centroid data.
func Combine(records []core.ScanRecord, opts core.AverageOptions) core.ScanRecord {
	if len(records) == 0 {
		return core.ScanRecord{}
	}

	anyCentroid := false
	var pool []contribution
	for _, rec := range records {
		if rec.HasCentroid {
			anyCentroid = true
		}
		for _, p := range rec.Peaks() {
			pool = append(pool, contribution{peak: p, order: len(pool)})
		}
	}

	// Input order breaks ties so equal inputs always merge the same way.
	sort.SliceStable(pool, func(i, j int) bool {
		if pool[i].peak.MZ != pool[j].peak.MZ {
			return pool[i].peak.MZ < pool[j].peak.MZ
		}
		return pool[i].order < pool[j].order
	})

	var merged []core.Peak
	for i := 0; i < len(pool); {
		anchor := pool[i].peak.MZ
		limit := anchor + opts.Tolerance(anchor)

		j := i
		var sumI, sumMZ, sumWeighted, best float64
		charge := 0
		for j < len(pool) && pool[j].peak.MZ <= limit {
			p := pool[j].peak
			sumI += p.Intensity
			sumMZ += p.MZ
			sumWeighted += p.MZ * p.Intensity
			if j == i || p.Intensity > best {
				best = p.Intensity
				charge = p.Charge
			}
			j++
		}

		mz := sumMZ / float64(j-i)
		if sumI > 0 {
			mz = sumWeighted / sumI
		}
		merged = append(merged, core.Peak{MZ: mz, Intensity: sumI, Charge: charge})
		i = j
	}

	first := records[0]
	out := core.ScanRecord{
		ScanNumber:    first.ScanNumber,
		RetentionTime: first.RetentionTime,
		MSOrder:       first.MSOrder,
		FilterText:    first.FilterText,
		Analyzer:      first.Analyzer,
		Reactions:     first.Reactions,
	}
	if anyCentroid {
		return out.WithCentroid(merged)
	}
	return out.WithProfile(merged)
}
