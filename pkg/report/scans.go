package report

import (
	"github.com/ChrisMcGann/RawInspect/pkg/core"
	"github.com/ChrisMcGann/RawInspect/pkg/filter"
	"github.com/ChrisMcGann/RawInspect/pkg/scan"
	"github.com/ChrisMcGann/RawInspect/pkg/validate"
)

// scanAnalysis checks mass ordering of every scan and counts scans per MS order.
func (r *Runner) scanAnalysis(sess *session) (*scan.Failures, error) {
	failures := scan.NewFailures(r.Logger)
	var v validate.Validator
	orders := make(map[core.MSOrder]int)

	for n := sess.first; n <= sess.last; n++ {
		rec, err := scan.Load(sess.store, n)
		if err != nil {
			failures.Record(n, err)
			continue
		}
		v.Add(&rec)
		orders[rec.MSOrder]++
	}

	result := v.Result()
	r.Metrics.AddScansRead(result.ScansChecked)
	r.Metrics.AddMonotonicityFailures("profile", result.Profile.FailureCount)
	r.Metrics.AddMonotonicityFailures("centroid", result.Centroid.FailureCount)

	r.printf("Scans checked: %d\n", result.ScansChecked)
	r.printf("MS1 scans: %d, MS2 scans: %d", orders[core.MS1], orders[core.MS2])
	if n := orders[core.MS3]; n > 0 {
		r.printf(", MS3 scans: %d", n)
	}
	r.printf("\n")
	r.printArrayResult("Profile", result.Profile)
	r.printArrayResult("Centroid", result.Centroid)
	return failures, nil
}

func (r *Runner) printArrayResult(kind string, res validate.ArrayResult) {
	if !res.HasFailure() {
		r.printf("%s masses: in order\n", kind)
		return
	}
	r.printf("%s masses: %d ordering failures, first at scan %d mass %.4f\n",
		kind, res.FailureCount, res.FirstFailureScan, res.FirstFailureMass)
}

// scanInformation lists the header of every scan without reading its data.
func (r *Runner) scanInformation(sess *session) (*scan.Failures, error) {
	failures := scan.NewFailures(r.Logger)
	printed := 0
	total := sess.last - sess.first + 1

	for n := sess.first; n <= sess.last; n++ {
		rt, err := sess.store.RetentionTime(n)
		if err != nil {
			failures.Record(n, err)
			continue
		}
		desc, err := sess.store.FilterFor(n)
		if err != nil {
			failures.Record(n, err)
			continue
		}
		event, err := sess.store.ScanEventFor(n)
		if err != nil {
			failures.Record(n, err)
			continue
		}

		if printed >= r.limit(total) {
			continue
		}
		printed++

		order := event.MSOrder
		if order == core.MSOrderUnknown {
			order = desc.MSOrder
		}
		r.printf("Scan %d: RT %.4f %s %s", n, rt, order, desc.Text)
		if len(event.Reactions) > 0 {
			rx := event.Reactions[0]
			r.printf(" precursor %.4f CE %.1f width %.2f", rx.PrecursorMass, rx.CollisionEnergy, rx.IsolationWidth)
		}
		r.printf("\n")
	}
	return failures, nil
}

// spectrumRead prints the filtered peak list of one scan.
func (r *Runner) spectrumRead(sess *session) (*scan.Failures, error) {
	number := r.Config.Spectrum.Scan
	if number == 0 {
		number = sess.first
	}
	rec, err := scan.Load(sess.store, number)
	if err != nil {
		return nil, err
	}
	r.Metrics.AddScansRead(1)

	cfg := filter.Config{
		TopN:            r.Config.Spectrum.TopN,
		IntensityCutoff: r.Config.Spectrum.Cutoff,
	}
	peaks := cfg.Apply(&rec)

	kind := "profile"
	if rec.HasCentroid {
		kind = "centroid"
	}
	r.printf("%s: %s, %d %s points, %d after filtering\n", rec.Name(), rec.FilterText, len(rec.Peaks()), kind, len(peaks))
	r.printPeaks(peaks)
	return nil, nil
}

func (r *Runner) printPeaks(peaks []core.Peak) {
	for _, p := range peaks[:r.limit(len(peaks))] {
		if p.Charge != 0 {
			r.printf("  %.4f\t%.1f\tz=%d\n", p.MZ, p.Intensity, p.Charge)
			continue
		}
		r.printf("  %.4f\t%.1f\n", p.MZ, p.Intensity)
	}
}

// fullScanRead loads every scan of the range.
func (r *Runner) fullScanRead(sess *session) (*scan.Failures, error) {
	failures := scan.NewFailures(r.Logger)
	read := 0
	points := 0
	tic := 0.0

	for n := sess.first; n <= sess.last; n++ {
		rec, err := scan.Load(sess.store, n)
		if err != nil {
			failures.Record(n, err)
			continue
		}
		read++
		points += len(rec.ProfileMasses) + len(rec.CentroidMasses)
		tic += rec.TotalIntensity()
	}
	r.Metrics.AddScansRead(read)

	r.printf("Scans read: %d of %d\n", read, sess.last-sess.first+1)
	r.printf("Data points: %d\n", points)
	r.printf("Total intensity: %.4g\n", tic)
	return failures, nil
}

// centroiding reduces one profile scan to centroids and checks the result.
func (r *Runner) centroiding(sess *session) (*scan.Failures, error) {
	number := r.Config.Spectrum.Scan
	if number == 0 {
		number = sess.first
	}
	rec, err := scan.Load(sess.store, number)
	if err != nil {
		return nil, err
	}
	r.Metrics.AddScansRead(1)

	if rec.HasCentroid {
		r.printf("%s already has %d centroids\n", rec.Name(), len(rec.CentroidMasses))
	}
	out := r.Centroider.ToCentroid(rec)
	res := validate.Validate(&out)

	r.printf("%s: %d profile points -> %d centroids\n", rec.Name(), len(rec.ProfileMasses), len(out.CentroidMasses))
	r.printArrayResult("Centroid", res.Centroid)
	r.printPeaks(out.CentroidPeaks())
	return nil, nil
}
