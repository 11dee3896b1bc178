// Package store defines the Instrument Data Store interface consumed by the
// RawInspect analyses. Implementations open the acquisition container and
// expose indexed, random-access scan retrieval.
//
// A Store is safe for sequential single-consumer access only. Callers that
// work in parallel must open one Store per goroutine.
package store

import (
	"fmt"

	"github.com/ChrisMcGann/RawInspect/pkg/core"
)

// DeviceKind identifies an instrument channel family.
type DeviceKind int

const (
	DeviceMS DeviceKind = iota
	DeviceAnalog
	DeviceUV
	DevicePDA
)

func (d DeviceKind) String() string {
	switch d {
	case DeviceMS:
		return "MS"
	case DeviceAnalog:
		return "Analog"
	case DeviceUV:
		return "UV"
	case DevicePDA:
		return "PDA"
	default:
		return fmt.Sprintf("DeviceKind(%d)", int(d))
	}
}

// FilterDescriptor is the parsed scan filter of one scan.
type FilterDescriptor struct {
	Text     string
	MSOrder  core.MSOrder
	Analyzer string
}

// ScanEvent describes how a scan was acquired.
type ScanEvent struct {
	MSOrder   core.MSOrder
	Analyzer  string
	Reactions []core.Reaction
}

// RawScan is the stored data of one scan. Centroid is nil when the scan has
// no centroid stream.
type RawScan struct {
	Profile  []core.Peak
	Centroid []core.Peak
}

// TraceType selects how a chromatogram intensity is computed.
type TraceType int

const (
	TraceTIC TraceType = iota
	TraceBasePeak
	TraceMassRange
	TraceAnalog
)

func (t TraceType) String() string {
	switch t {
	case TraceTIC:
		return "TIC"
	case TraceBasePeak:
		return "BasePeak"
	case TraceMassRange:
		return "MassRange"
	case TraceAnalog:
		return "Analog"
	default:
		return fmt.Sprintf("TraceType(%d)", int(t))
	}
}

// ScanDerived reports whether the trace is computed from MS scan data.
func (t TraceType) ScanDerived() bool {
	return t == TraceTIC || t == TraceBasePeak || t == TraceMassRange
}

// TraceSpec selects a chromatogram. MassRange nil means the full scan.
type TraceSpec struct {
	Type      TraceType
	MassRange *core.MassRange
}

// RawTrace is a chromatogram as returned by the store.
type RawTrace struct {
	Times       []float64
	Intensities []float64
	Scans       []int
}

// Store is the Instrument Data Store.
type Store interface {
	// IsAcquiring reports whether the file is still being written.
	IsAcquiring() bool
	// InError reports whether the store flagged an internal error on open.
	InError() bool
	// SelectChannel makes a device channel current. Fails with
	// core.ErrChannelAbsent when the run has no such channel.
	SelectChannel(kind DeviceKind, index int) error
	// Device returns the currently selected channel kind.
	Device() DeviceKind

	FirstScan() int
	LastScan() int
	RetentionTime(scan int) (float64, error)
	// ScanNumberFromTime returns the last scan whose retention time does not
	// exceed t, or the first scan when t precedes the run.
	ScanNumberFromTime(t float64) (int, error)
	FilterFor(scan int) (FilterDescriptor, error)
	ScanEventFor(scan int) (ScanEvent, error)
	RawScan(scan int) (RawScan, error)

	TrailerFields() ([]core.TrailerField, error)
	TrailerEntry(scan int) (core.LogEntry, error)
	StatusFields() ([]core.TrailerField, error)
	// StatusEntryAtTime returns the nearest preceding (or exact) status sample.
	StatusEntryAtTime(t float64) (core.LogEntry, error)

	MethodCount() int
	MethodText(index int) (string, error)

	// Chromatogram returns a raw trace; core.ErrNoData when the trace type
	// is unsupported for the selected device.
	Chromatogram(spec TraceSpec, first, last int) (RawTrace, error)

	Close() error
}

// InRange reports whether scan lies within the store's scan bounds.
func InRange(s Store, scan int) bool {
	return scan >= s.FirstScan() && scan <= s.LastScan()
}
