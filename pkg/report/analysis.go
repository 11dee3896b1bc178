package report

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ChrisMcGann/RawInspect/pkg/average"
	"github.com/ChrisMcGann/RawInspect/pkg/core"
	"github.com/ChrisMcGann/RawInspect/pkg/filter"
	"github.com/ChrisMcGann/RawInspect/pkg/inclusion"
	"github.com/ChrisMcGann/RawInspect/pkg/precision"
	"github.com/ChrisMcGann/RawInspect/pkg/scan"
	"github.com/ChrisMcGann/RawInspect/pkg/sequence"
)

// averaging averages the scans of the range whose filter matches the
// configured pattern.
func (r *Runner) averaging(sess *session) (*scan.Failures, error) {
	scanFilter, err := filter.NewScanFilter(r.Config.Averaging.Filter)
	if err != nil {
		return nil, err
	}
	opts, err := r.Config.Averaging.Options()
	if err != nil {
		return nil, err
	}

	avg := average.New(sess.store, r.Logger)
	result, err := avg.AverageByRange(scanFilter, sess.first, sess.last, opts)
	if err != nil {
		return result.Failures, err
	}
	r.Metrics.AddScansRead(len(result.Scans))

	rec := result.Record
	r.printf("Filter %q: %d scans averaged at %g %s\n", scanFilter, len(result.Scans), opts.ToleranceValue, opts.ToleranceUnits)
	r.printf("Averaged peaks: %d, total intensity %.4g\n", len(rec.Peaks()), rec.TotalIntensity())

	top := filter.Config{TopN: r.limit(len(rec.Peaks()))}
	r.printPeaks(top.Apply(&rec))
	return result.Failures, nil
}

// precision estimates per-peak mass accuracy for one centroided scan.
func (r *Runner) precision(sess *session) (*scan.Failures, error) {
	failures := scan.NewFailures(r.Logger)

	var rec core.ScanRecord
	if n := r.Config.Precision.Scan; n > 0 {
		loaded, err := scan.Load(sess.store, n)
		if err != nil {
			return nil, err
		}
		rec = loaded
	} else {
		found := false
		for n := sess.first; n <= sess.last && !found; n++ {
			loaded, err := scan.Load(sess.store, n)
			if err != nil {
				failures.Record(n, err)
				continue
			}
			if loaded.MSOrder == core.MS1 && loaded.HasCentroid {
				rec, found = loaded, true
			}
		}
		if !found {
			r.printf("No MS1 scan with centroid data in %d - %d\n", sess.first, sess.last)
			return failures, nil
		}
	}
	r.Metrics.AddScansRead(1)

	estimates, err := precision.EstimateScan(sess.store, &rec, r.Estimator, r.Config.Precision.Resolution)
	if err != nil {
		return failures, err
	}

	r.printf("%s (%s): %d estimates\n", rec.Name(), rec.Analyzer, len(estimates))
	for _, e := range estimates[:r.limit(len(estimates))] {
		r.printf("  %.4f\t%.4f mDa\t%.3f ppm\n", e.Mass, e.AccuracyMilliDa, e.AccuracyPPM)
	}
	return failures, nil
}

// inclusionList parses the method's target tables and matches them to MS2
// scans of the range.
func (r *Runner) inclusionList(sess *session) (*scan.Failures, error) {
	cfg := r.Config.Inclusion
	policy, err := inclusion.ParsePolicy(cfg.Policy)
	if err != nil {
		return nil, err
	}

	items, err := inclusion.ParseStore(sess.store, cfg.Table())
	if err != nil {
		return nil, err
	}
	if cfg.Exclusion {
		tbl := inclusion.ExclusionTable
		tbl.Separator = cfg.Separator
		tbl.HeaderToken = cfg.HeaderToken
		excluded, err := inclusion.ParseStore(sess.store, tbl)
		if err != nil {
			return nil, err
		}
		items = append(items, excluded...)
	}

	if len(items) == 0 {
		r.printf("No target list found in %d instrument methods\n", sess.store.MethodCount())
		return nil, nil
	}

	matcher := inclusion.NewMatcher(sess.store, cfg.RelativeTolerance, r.Logger)
	matcher.Policy = policy
	failures := matcher.Match(items, sess.first, sess.last)
	inclusion.Sort(items)

	unmatched := len(inclusion.Unmatched(items))
	r.Metrics.ObserveInclusion(len(items)-unmatched, unmatched)

	r.printf("Targets: %d, matched: %d, unmatched: %d\n", len(items), len(items)-unmatched, unmatched)
	for _, it := range items[:r.limit(len(items))] {
		r.printf("  %s\n", it)
	}
	return failures, nil
}

// sequenceFile writes a sequence list that re-acquires the run.
func (r *Runner) sequenceFile(sess *session) (*scan.Failures, error) {
	instrument := ""
	if named, ok := sess.store.(interface{ Instrument() string }); ok {
		instrument = named.Instrument()
	}

	seq := sequence.FromRun(sess.path, instrument, r.Config.Sequence.Samples)
	out := r.Config.Sequence.Output
	if out == "" {
		out = strings.TrimSuffix(sess.path, filepath.Ext(sess.path)) + ".sequence.yaml"
	}
	if err := sequence.Save(out, seq); err != nil {
		return nil, fmt.Errorf("sequence file: %w", err)
	}
	r.printf("Sequence file: %s (%d samples)\n", out, len(seq.Samples))
	return nil, nil
}
