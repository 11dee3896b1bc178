// Package memory provides an in-memory Instrument Data Store. It backs the
// tests and serves as the staging area for runs imported into SQLite.
package memory

import (
	"fmt"
	"sort"

	"github.com/ChrisMcGann/RawInspect/pkg/core"
	"github.com/ChrisMcGann/RawInspect/pkg/store"
)

// Scan is one stored scan.
type Scan struct {
	Number        int
	RetentionTime float64
	Filter        store.FilterDescriptor
	Event         store.ScanEvent
	Data          store.RawScan
	Trailer       []string // Values by trailer field position
	Corrupt       bool     // RawScan fails for this scan
}

// StatusSample is one time-stamped status log row.
type StatusSample struct {
	Time   float64
	Values []string // Values by status field position
}

// AnalogSample is one reading of an analog channel.
type AnalogSample struct {
	Scan  int
	Time  float64
	Value float64
}

// Run is the complete content of one acquisition.
type Run struct {
	Instrument    string
	Acquiring     bool
	Fault         bool
	Scans         []Scan
	TrailerFields []core.TrailerField
	StatusFields  []core.TrailerField
	Status        []StatusSample
	Methods       []string
	Analog        [][]AnalogSample // One slice per analog channel
}

// Store serves a Run through the store.Store interface.
type Store struct {
	run     Run
	byScan  map[int]int
	device  store.DeviceKind
	channel int
	closed  bool
}

// New creates a store over run. Scans and status samples are sorted by scan
// number and time respectively; the MS channel is selected when present.
func New(run Run) *Store {
	sort.SliceStable(run.Scans, func(i, j int) bool {
		return run.Scans[i].Number < run.Scans[j].Number
	})
	sort.SliceStable(run.Status, func(i, j int) bool {
		return run.Status[i].Time < run.Status[j].Time
	})

	s := &Store{
		run:    run,
		byScan: make(map[int]int, len(run.Scans)),
	}
	for i, sc := range run.Scans {
		s.byScan[sc.Number] = i
	}
	return s
}

// Run returns the underlying run.
func (s *Store) Run() *Run {
	return &s.run
}

// Instrument returns the instrument name recorded for the run.
func (s *Store) Instrument() string { return s.run.Instrument }

func (s *Store) IsAcquiring() bool { return s.run.Acquiring }

func (s *Store) InError() bool { return s.run.Fault }

func (s *Store) SelectChannel(kind store.DeviceKind, index int) error {
	switch kind {
	case store.DeviceMS:
		if len(s.run.Scans) == 0 || index != 0 {
			return fmt.Errorf("%w: %s %d", core.ErrChannelAbsent, kind, index+1)
		}
	case store.DeviceAnalog:
		if index < 0 || index >= len(s.run.Analog) {
			return fmt.Errorf("%w: %s %d", core.ErrChannelAbsent, kind, index+1)
		}
	default:
		return fmt.Errorf("%w: %s %d", core.ErrChannelAbsent, kind, index+1)
	}
	s.device = kind
	s.channel = index
	return nil
}

func (s *Store) Device() store.DeviceKind { return s.device }

func (s *Store) FirstScan() int {
	if len(s.run.Scans) == 0 {
		return 0
	}
	return s.run.Scans[0].Number
}

func (s *Store) LastScan() int {
	if len(s.run.Scans) == 0 {
		return 0
	}
	return s.run.Scans[len(s.run.Scans)-1].Number
}

func (s *Store) scan(number int, op string) (*Scan, error) {
	if s.closed {
		return nil, core.NewScanError(number, op, fmt.Errorf("%w: store closed", core.ErrScanRead))
	}
	i, ok := s.byScan[number]
	if !ok {
		return nil, core.NewScanError(number, op, fmt.Errorf("%w: scan out of range", core.ErrScanRead))
	}
	return &s.run.Scans[i], nil
}

func (s *Store) RetentionTime(number int) (float64, error) {
	sc, err := s.scan(number, "retention time")
	if err != nil {
		return 0, err
	}
	return sc.RetentionTime, nil
}

func (s *Store) ScanNumberFromTime(t float64) (int, error) {
	if len(s.run.Scans) == 0 {
		return 0, fmt.Errorf("%w: run has no scans", core.ErrNoData)
	}
	// First index whose time exceeds t; the scan before it is the answer.
	i := sort.Search(len(s.run.Scans), func(i int) bool {
		return s.run.Scans[i].RetentionTime > t
	})
	if i == 0 {
		return s.run.Scans[0].Number, nil
	}
	return s.run.Scans[i-1].Number, nil
}

func (s *Store) FilterFor(number int) (store.FilterDescriptor, error) {
	sc, err := s.scan(number, "filter")
	if err != nil {
		return store.FilterDescriptor{}, err
	}
	return sc.Filter, nil
}

func (s *Store) ScanEventFor(number int) (store.ScanEvent, error) {
	sc, err := s.scan(number, "scan event")
	if err != nil {
		return store.ScanEvent{}, err
	}
	ev := sc.Event
	ev.Reactions = append([]core.Reaction(nil), sc.Event.Reactions...)
	return ev, nil
}

func (s *Store) RawScan(number int) (store.RawScan, error) {
	sc, err := s.scan(number, "raw scan")
	if err != nil {
		return store.RawScan{}, err
	}
	if sc.Corrupt {
		return store.RawScan{}, core.NewScanError(number, "raw scan", fmt.Errorf("%w: corrupt record", core.ErrScanRead))
	}
	out := store.RawScan{Profile: append([]core.Peak(nil), sc.Data.Profile...)}
	if sc.Data.Centroid != nil {
		out.Centroid = append([]core.Peak{}, sc.Data.Centroid...)
	}
	return out, nil
}

func (s *Store) TrailerFields() ([]core.TrailerField, error) {
	return append([]core.TrailerField(nil), s.run.TrailerFields...), nil
}

func (s *Store) TrailerEntry(number int) (core.LogEntry, error) {
	sc, err := s.scan(number, "trailer")
	if err != nil {
		return core.LogEntry{}, err
	}
	return BuildEntry(sc.RetentionTime, s.run.TrailerFields, sc.Trailer), nil
}

func (s *Store) StatusFields() ([]core.TrailerField, error) {
	return append([]core.TrailerField(nil), s.run.StatusFields...), nil
}

func (s *Store) StatusEntryAtTime(t float64) (core.LogEntry, error) {
	if len(s.run.Status) == 0 {
		return core.LogEntry{}, fmt.Errorf("%w: no status log", core.ErrNoData)
	}
	i := sort.Search(len(s.run.Status), func(i int) bool {
		return s.run.Status[i].Time > t
	})
	if i > 0 {
		i--
	}
	sample := s.run.Status[i]
	return BuildEntry(sample.Time, s.run.StatusFields, sample.Values), nil
}

func (s *Store) MethodCount() int { return len(s.run.Methods) }

func (s *Store) MethodText(index int) (string, error) {
	if index < 0 || index >= len(s.run.Methods) {
		return "", fmt.Errorf("%w: method %d", core.ErrNoData, index)
	}
	return s.run.Methods[index], nil
}

func (s *Store) Chromatogram(spec store.TraceSpec, first, last int) (store.RawTrace, error) {
	if spec.Type != store.TraceAnalog || s.device != store.DeviceAnalog {
		return store.RawTrace{}, fmt.Errorf("%w: %s trace on %s device", core.ErrNoData, spec.Type, s.device)
	}
	var trace store.RawTrace
	for _, sample := range s.run.Analog[s.channel] {
		if sample.Scan < first || sample.Scan > last {
			continue
		}
		trace.Times = append(trace.Times, sample.Time)
		trace.Intensities = append(trace.Intensities, sample.Value)
		trace.Scans = append(trace.Scans, sample.Scan)
	}
	return trace, nil
}

func (s *Store) Close() error {
	s.closed = true
	return nil
}

// BuildEntry pairs positional values with field labels.
func BuildEntry(t float64, fields []core.TrailerField, values []string) core.LogEntry {
	entry := core.LogEntry{Time: t, Values: make([]core.LogValue, 0, len(fields))}
	for i, f := range fields {
		v := ""
		if i < len(values) {
			v = values[i]
		}
		entry.Values = append(entry.Values, core.LogValue{Label: f.Label, Value: v})
	}
	return entry
}

var _ store.Store = (*Store)(nil)

// ProfileScan builds an MS1 profile scan from parallel arrays.
func ProfileScan(number int, rt float64, masses, intensities []float64) Scan {
	return Scan{
		Number:        number,
		RetentionTime: rt,
		Filter:        store.FilterDescriptor{Text: "FTMS + p ESI Full ms", MSOrder: core.MS1, Analyzer: "FTMS"},
		Event:         store.ScanEvent{MSOrder: core.MS1, Analyzer: "FTMS"},
		Data:          store.RawScan{Profile: zipPeaks(masses, intensities)},
	}
}

// CentroidScan builds an MS1 scan carrying only centroid data.
func CentroidScan(number int, rt float64, masses, intensities []float64) Scan {
	return Scan{
		Number:        number,
		RetentionTime: rt,
		Filter:        store.FilterDescriptor{Text: "FTMS + c ESI Full ms", MSOrder: core.MS1, Analyzer: "FTMS"},
		Event:         store.ScanEvent{MSOrder: core.MS1, Analyzer: "FTMS"},
		Data:          store.RawScan{Centroid: zipPeaks(masses, intensities)},
	}
}

// MS2Scan builds a centroided MS2 scan fragmenting precursor.
func MS2Scan(number int, rt, precursor float64, masses, intensities []float64) Scan {
	filter := fmt.Sprintf("FTMS + c ESI d Full ms2 %.4f@hcd30.00", precursor)
	return Scan{
		Number:        number,
		RetentionTime: rt,
		Filter:        store.FilterDescriptor{Text: filter, MSOrder: core.MS2, Analyzer: "FTMS"},
		Event: store.ScanEvent{
			MSOrder:   core.MS2,
			Analyzer:  "FTMS",
			Reactions: []core.Reaction{{PrecursorMass: precursor, CollisionEnergy: 30, IsolationWidth: 2}},
		},
		Data: store.RawScan{Centroid: zipPeaks(masses, intensities)},
	}
}

func zipPeaks(masses, intensities []float64) []core.Peak {
	peaks := make([]core.Peak, len(masses))
	for i, mz := range masses {
		peaks[i] = core.Peak{MZ: mz}
		if i < len(intensities) {
			peaks[i].Intensity = intensities[i]
		}
	}
	return peaks
}
