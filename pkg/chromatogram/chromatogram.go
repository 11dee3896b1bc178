// Package chromatogram extracts intensity traces over a scan range.
package chromatogram

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/ChrisMcGann/RawInspect/pkg/core"
	"github.com/ChrisMcGann/RawInspect/pkg/scan"
	"github.com/ChrisMcGann/RawInspect/pkg/store"
)

// ParseTraceType maps a configuration name to a trace type.
func ParseTraceType(s string) (store.TraceType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "tic", "total", "totalion":
		return store.TraceTIC, nil
	case "basepeak", "base-peak", "bpc":
		return store.TraceBasePeak, nil
	case "massrange", "mass-range", "xic":
		return store.TraceMassRange, nil
	case "analog":
		return store.TraceAnalog, nil
	default:
		return 0, fmt.Errorf("%w: unknown trace type %q", core.ErrInvalidOptions, s)
	}
}

// Extractor builds chromatograms from a store.
type Extractor struct {
	Store  store.Store
	Logger *slog.Logger
}

// New creates an extractor over s.
func New(s store.Store, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{Store: s, Logger: logger}
}

// Extract returns one point per readable scan in first..last. MS traces are
// computed from scan data; device traces (analog and the like) come from the
// store. Unsupported trace/device combinations fail with core.ErrNoData.
func (e *Extractor) Extract(spec store.TraceSpec, first, last int) ([]core.ChromatogramPoint, *scan.Failures, error) {
	failures := scan.NewFailures(e.Logger)

	if spec.Type == store.TraceMassRange && spec.MassRange == nil {
		return nil, failures, fmt.Errorf("%w: mass range trace needs a mass range", core.ErrInvalidOptions)
	}

	if !spec.Type.ScanDerived() || e.Store.Device() != store.DeviceMS {
		points, err := e.fromStore(spec, first, last)
		return points, failures, err
	}

	points := make([]core.ChromatogramPoint, 0, max(last-first+1, 0))
	for n := first; n <= last; n++ {
		rec, err := scan.Load(e.Store, n)
		if err != nil {
			failures.Record(n, err)
			continue
		}
		points = append(points, core.ChromatogramPoint{
			Time:      rec.RetentionTime,
			Intensity: Intensity(&rec, spec),
		})
	}

	return points, failures, nil
}

func (e *Extractor) fromStore(spec store.TraceSpec, first, last int) ([]core.ChromatogramPoint, error) {
	trace, err := e.Store.Chromatogram(spec, first, last)
	if err != nil {
		return nil, fmt.Errorf("%s chromatogram on %s device: %w", spec.Type, e.Store.Device(), err)
	}

	n := len(trace.Times)
	if len(trace.Intensities) < n {
		n = len(trace.Intensities)
	}
	points := make([]core.ChromatogramPoint, n)
	for i := 0; i < n; i++ {
		points[i] = core.ChromatogramPoint{Time: trace.Times[i], Intensity: trace.Intensities[i]}
	}
	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Time < points[j].Time
	})
	return points, nil
}

// Intensity computes the trace value of one scan. The mass window defaults
// to the whole scan.
func Intensity(rec *core.ScanRecord, spec store.TraceSpec) float64 {
	value := 0.0
	for _, p := range rec.Peaks() {
		if spec.MassRange != nil && !spec.MassRange.Contains(p.MZ) {
			continue
		}
		switch spec.Type {
		case store.TraceBasePeak:
			if p.Intensity > value {
				value = p.Intensity
			}
		default:
			value += p.Intensity
		}
	}
	return value
}
