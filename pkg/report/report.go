// Package report runs the configured report sections against one run file.
// Each section writes plain text to the runner's output. A section that fails
// prints one diagnostic line and the remaining sections still run; only the
// checks in Open abort a file.
package report

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/ChrisMcGann/RawInspect/pkg/centroid"
	"github.com/ChrisMcGann/RawInspect/pkg/config"
	"github.com/ChrisMcGann/RawInspect/pkg/core"
	"github.com/ChrisMcGann/RawInspect/pkg/metrics"
	"github.com/ChrisMcGann/RawInspect/pkg/precision"
	"github.com/ChrisMcGann/RawInspect/pkg/scan"
	"github.com/ChrisMcGann/RawInspect/pkg/store"
)

// Opener opens a data store for a path.
type Opener func(path string) (store.Store, error)

// Open opens path and applies the fatal checks: the store must open, must
// not flag an internal error, must not still be acquiring and must have an
// MS channel. On success the MS channel is selected.
func Open(path string, open Opener) (store.Store, error) {
	s, err := open(path)
	if err != nil {
		if errors.Is(err, core.ErrOpen) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s: %w", core.ErrOpen, path, err)
	}
	if err := check(s); err != nil {
		s.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

func check(s store.Store) error {
	if s.InError() {
		return core.ErrStoreFault
	}
	if s.IsAcquiring() {
		return core.ErrAcquiring
	}
	if err := s.SelectChannel(store.DeviceMS, 0); err != nil {
		if errors.Is(err, core.ErrChannelAbsent) {
			return err
		}
		return fmt.Errorf("%w: %w", core.ErrChannelAbsent, err)
	}
	return nil
}

// Runner runs the enabled report sections. A Runner writes to a single
// output and must not be shared between goroutines; Metrics may be.
type Runner struct {
	Config     *config.Config
	Out        io.Writer
	Logger     *slog.Logger
	Metrics    *metrics.Metrics
	Centroider centroid.Centroider
	Estimator  precision.Estimator
}

// NewRunner creates a runner with the default centroiding and precision
// strategies.
func NewRunner(cfg *config.Config, out io.Writer, logger *slog.Logger, m *metrics.Metrics) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		Config:     cfg,
		Out:        out,
		Logger:     logger,
		Metrics:    m,
		Centroider: centroid.Default(),
		Estimator:  precision.Default(),
	}
}

// session is the state of one file being reported.
type session struct {
	path  string
	store store.Store
	first int
	last  int
}

type section struct {
	name string
	on   bool
	run  func(*Runner, *session) (*scan.Failures, error)
}

func (r *Runner) sections() []section {
	rep := r.Config.Reports
	return []section{
		{"scanAnalysis", rep.ScanAnalysis, (*Runner).scanAnalysis},
		{"trailerFields", rep.TrailerFields, (*Runner).trailerFields},
		{"statusLog", rep.StatusLog, (*Runner).statusLog},
		{"scanInformation", rep.ScanInformation, (*Runner).scanInformation},
		{"spectrumRead", rep.SpectrumRead, (*Runner).spectrumRead},
		{"fullScanRead", rep.FullScanRead, (*Runner).fullScanRead},
		{"chromatogram", rep.Chromatogram, (*Runner).chromatogram},
		{"massChromatogram", rep.MassChromatogram, (*Runner).massChromatogram},
		{"analogChannel", rep.AnalogChannel, (*Runner).analogChannel},
		{"averaging", rep.Averaging, (*Runner).averaging},
		{"centroiding", rep.Centroiding, (*Runner).centroiding},
		{"precision", rep.Precision, (*Runner).precision},
		{"inclusionList", rep.InclusionList, (*Runner).inclusionList},
		{"sequenceFile", rep.SequenceFile, (*Runner).sequenceFile},
	}
}

// RunFile opens path, runs every enabled section and closes the store. The
// returned error is non-nil only for the fatal open checks.
func (r *Runner) RunFile(path string, open Opener) error {
	s, err := Open(path, open)
	if err != nil {
		r.Metrics.FileDone(err)
		return err
	}
	defer s.Close()

	r.Run(path, s)
	r.Metrics.FileDone(nil)
	return nil
}

// Run writes the file header and every enabled section for an opened store
// with the MS channel selected.
func (r *Runner) Run(path string, s store.Store) {
	first, last := scan.Range(s, r.Config.Range.First, r.Config.Range.Last)
	sess := &session{path: path, store: s, first: first, last: last}

	r.header(sess)

	for _, sec := range r.sections() {
		if !sec.on {
			continue
		}
		r.printf("\n== %s ==\n", sec.name)

		start := time.Now()
		failures, err := sec.run(r, sess)
		r.Metrics.ObserveReport(sec.name, start, err)

		if failures != nil && failures.Count > 0 {
			r.Metrics.AddScanFailures(sec.name, failures.Count)
			r.printf("Scans skipped: %d\n", failures.Count)
		}
		if err != nil {
			r.Logger.Error("report failed", "report", sec.name, "file", path, "error", err)
			r.printf("%s failed: %v\n", sec.name, err)
		}
	}
}

func (r *Runner) header(sess *session) {
	s := sess.store
	r.printf("File: %s\n", sess.path)
	if named, ok := s.(interface{ Instrument() string }); ok && named.Instrument() != "" {
		r.printf("Instrument: %s\n", named.Instrument())
	}
	r.printf("Scans: %d - %d\n", s.FirstScan(), s.LastScan())
	if sess.last < sess.first {
		r.printf("Scan range: empty (no scans from %d)\n", sess.first)
	} else if sess.first != s.FirstScan() || sess.last != s.LastScan() {
		r.printf("Scan range: %d - %d\n", sess.first, sess.last)
	}

	startTime, err1 := s.RetentionTime(s.FirstScan())
	endTime, err2 := s.RetentionTime(s.LastScan())
	if err1 == nil && err2 == nil {
		r.printf("Time range: %.2f - %.2f min\n", startTime, endTime)
	}
	r.printf("Instrument methods: %d\n", s.MethodCount())
}

func (r *Runner) printf(format string, args ...any) {
	fmt.Fprintf(r.Out, format, args...)
}

// limit returns how many of n lines to print.
func (r *Runner) limit(n int) int {
	if r.Config.MaxLines > 0 && n > r.Config.MaxLines {
		return r.Config.MaxLines
	}
	return n
}
