package report

import (
	"fmt"

	"github.com/ChrisMcGann/RawInspect/pkg/chromatogram"
	"github.com/ChrisMcGann/RawInspect/pkg/core"
	"github.com/ChrisMcGann/RawInspect/pkg/scan"
	"github.com/ChrisMcGann/RawInspect/pkg/store"
)

func (r *Runner) chromatogram(sess *session) (*scan.Failures, error) {
	traceType, err := chromatogram.ParseTraceType(r.Config.Chromatogram.Trace)
	if err != nil {
		return nil, err
	}
	spec := store.TraceSpec{Type: traceType, MassRange: r.Config.Chromatogram.MassRange()}
	return r.trace(sess, spec)
}

func (r *Runner) massChromatogram(sess *session) (*scan.Failures, error) {
	mr := r.Config.Chromatogram.MassRange()
	if mr == nil {
		return nil, fmt.Errorf("%w: massChromatogram needs chromatogram.massLow and massHigh", core.ErrInvalidOptions)
	}
	return r.trace(sess, store.TraceSpec{Type: store.TraceMassRange, MassRange: mr})
}

// analogChannel reads the configured analog channel and switches back to
// the MS channel afterwards.
func (r *Runner) analogChannel(sess *session) (*scan.Failures, error) {
	index := r.Config.Analog.Channel - 1
	if err := sess.store.SelectChannel(store.DeviceAnalog, index); err != nil {
		return nil, err
	}
	defer func() {
		if err := sess.store.SelectChannel(store.DeviceMS, 0); err != nil {
			r.Logger.Error("reselecting MS channel", "error", err)
		}
	}()

	r.printf("Analog channel %d\n", r.Config.Analog.Channel)
	return r.trace(sess, store.TraceSpec{Type: store.TraceAnalog})
}

func (r *Runner) trace(sess *session, spec store.TraceSpec) (*scan.Failures, error) {
	ext := chromatogram.New(sess.store, r.Logger)
	points, failures, err := ext.Extract(spec, sess.first, sess.last)
	if err != nil {
		return failures, err
	}

	r.printf("%s trace", spec.Type)
	if spec.MassRange != nil {
		r.printf(" %.4f-%.4f", spec.MassRange.Low, spec.MassRange.High)
	}
	r.printf(": %d points\n", len(points))

	maxPoint := -1
	for i, p := range points {
		if maxPoint < 0 || p.Intensity > points[maxPoint].Intensity {
			maxPoint = i
		}
	}
	if maxPoint >= 0 {
		r.printf("Apex: %.4f min, %.4g\n", points[maxPoint].Time, points[maxPoint].Intensity)
	}
	for _, p := range points[:r.limit(len(points))] {
		r.printf("  %.4f\t%.4g\n", p.Time, p.Intensity)
	}
	return failures, nil
}
