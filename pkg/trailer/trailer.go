// Package trailer indexes the per-scan trailer log and the time-based status
// log of a run.
package trailer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ChrisMcGann/RawInspect/pkg/core"
	"github.com/ChrisMcGann/RawInspect/pkg/store"
)

// Log selects which telemetry log to index.
type Log int

const (
	TrailerLog Log = iota
	StatusLog
)

func (l Log) String() string {
	if l == StatusLog {
		return "status"
	}
	return "trailer"
}

// Label families searched for the ion accumulation time and the instrument
// resolution. Vendors spell these differently across instrument lines.
var (
	IonTimeLabels    = []string{"ion injection time", "ion time", "ion accumulation time", "fill time"}
	ResolutionLabels = []string{"ft resolution", "orbitrap resolution", "resolution"}
)

// FieldCatalog lists the fields of the log in store order, unfiltered.
func FieldCatalog(s store.Store, log Log) ([]core.TrailerField, error) {
	var (
		fields []core.TrailerField
		err    error
	)
	if log == StatusLog {
		fields, err = s.StatusFields()
	} else {
		fields, err = s.TrailerFields()
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s fields: %w", log, err)
	}
	return fields, nil
}

// Displayable drops fields with an empty label or a Null type.
func Displayable(fields []core.TrailerField) []core.TrailerField {
	var out []core.TrailerField
	for _, f := range fields {
		if strings.TrimSpace(strings.TrimSuffix(f.Label, ":")) == "" || f.DataType == core.FieldNull {
			continue
		}
		out = append(out, f)
	}
	return out
}

// LookupByTime resolves the nearest preceding (or exact) log entry for the
// retention time t.
func LookupByTime(s store.Store, log Log, t float64) (core.LogEntry, error) {
	if log == StatusLog {
		entry, err := s.StatusEntryAtTime(t)
		if err != nil {
			return core.LogEntry{}, fmt.Errorf("status log at %.4f min: %w", t, err)
		}
		return entry, nil
	}

	number, err := s.ScanNumberFromTime(t)
	if err != nil {
		return core.LogEntry{}, fmt.Errorf("trailer log at %.4f min: %w", t, err)
	}
	entry, err := s.TrailerEntry(number)
	if err != nil {
		return core.LogEntry{}, fmt.Errorf("trailer log at %.4f min: %w", t, err)
	}
	return entry, nil
}

// LookupByScan converts the scan number to its retention time and resolves
// the log entry at that time.
func LookupByScan(s store.Store, log Log, number int) (core.LogEntry, error) {
	t, err := s.RetentionTime(number)
	if err != nil {
		return core.LogEntry{}, fmt.Errorf("%s log for scan %d: %w", log, number, err)
	}
	return LookupByTime(s, log, t)
}

// IonTime returns the ion accumulation time (ms) recorded for a scan.
func IonTime(s store.Store, number int) (float64, error) {
	entry, err := LookupByScan(s, TrailerLog, number)
	if err != nil {
		return 0, err
	}
	v, ok := entry.FindPrefix(IonTimeLabels...)
	if !ok {
		return 0, core.NewScanError(number, "ion time", core.ErrIonTimeNotFound)
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v.Value), 64)
	if err != nil {
		return 0, core.NewScanError(number, "ion time", fmt.Errorf("%w: %q=%q", core.ErrIonTimeNotFound, v.Label, v.Value))
	}
	return f, nil
}

// Resolution returns the instrument resolution recorded for a scan, or
// fallback when the trailer carries none.
func Resolution(s store.Store, number int, fallback float64) float64 {
	entry, err := LookupByScan(s, TrailerLog, number)
	if err != nil {
		return fallback
	}
	v, ok := entry.FindPrefix(ResolutionLabels...)
	if !ok {
		return fallback
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v.Value), 64)
	if err != nil || f <= 0 {
		return fallback
	}
	return f
}
