// Package scan builds ScanRecords from an Instrument Data Store and keeps the
// per-scan failure ledger used by every scan-range sweep.
package scan

import (
	"fmt"
	"log/slog"

	"github.com/ChrisMcGann/RawInspect/pkg/core"
	"github.com/ChrisMcGann/RawInspect/pkg/store"
)

// Load reads one scan from the store. Nothing is cached: every call fetches
// again. Any store failure is reported as core.ErrScanRead.
func Load(s store.Store, number int) (core.ScanRecord, error) {
	rt, err := s.RetentionTime(number)
	if err != nil {
		return core.ScanRecord{}, readError(number, "retention time", err)
	}

	filter, err := s.FilterFor(number)
	if err != nil {
		return core.ScanRecord{}, readError(number, "filter", err)
	}

	event, err := s.ScanEventFor(number)
	if err != nil {
		return core.ScanRecord{}, readError(number, "scan event", err)
	}

	raw, err := s.RawScan(number)
	if err != nil {
		return core.ScanRecord{}, readError(number, "raw scan", err)
	}

	order := event.MSOrder
	if order == core.MSOrderUnknown {
		order = filter.MSOrder
	}
	analyzer := event.Analyzer
	if analyzer == "" {
		analyzer = filter.Analyzer
	}

	rec := core.ScanRecord{
		ScanNumber:    number,
		RetentionTime: rt,
		MSOrder:       order,
		FilterText:    filter.Text,
		Reactions:     event.Reactions,
		Analyzer:      analyzer,
	}
	rec = rec.WithProfile(raw.Profile)
	if raw.Centroid != nil {
		rec = rec.WithCentroid(raw.Centroid)
	}

	if err := rec.Validate(); err != nil {
		return core.ScanRecord{}, readError(number, "validate", err)
	}

	return rec, nil
}

func readError(number int, op string, err error) error {
	return core.NewScanError(number, op, fmt.Errorf("%w: %w", core.ErrScanRead, err))
}

// Failures records recoverable per-scan errors during a sweep.
type Failures struct {
	Count    int
	Messages []string
	logger   *slog.Logger
}

// NewFailures creates a ledger that logs each failure to logger (or the
// default logger when nil).
func NewFailures(logger *slog.Logger) *Failures {
	if logger == nil {
		logger = slog.Default()
	}
	return &Failures{logger: logger}
}

// Record counts a failure for scan and logs it.
func (f *Failures) Record(number int, err error) {
	f.Count++
	msg := fmt.Sprintf("scan %d: %v", number, err)
	f.Messages = append(f.Messages, msg)
	if f.logger == nil {
		f.logger = slog.Default()
	}
	f.logger.Warn("scan failed", "scan", number, "error", err)
}

// Merge folds other into f without logging again.
func (f *Failures) Merge(other *Failures) {
	if other == nil {
		return
	}
	f.Count += other.Count
	f.Messages = append(f.Messages, other.Messages...)
}

// Range returns the scan numbers first..last clamped to the store bounds.
// Zero bounds select the store's own first or last scan. A range that does
// not overlap the run comes back empty, with last == first-1.
func Range(s store.Store, first, last int) (int, int) {
	if s.LastScan() <= 0 {
		return 1, 0
	}
	if first <= 0 || first < s.FirstScan() {
		first = s.FirstScan()
	}
	if last <= 0 || last > s.LastScan() {
		last = s.LastScan()
	}
	if first > last {
		last = first - 1
	}
	return first, last
}
