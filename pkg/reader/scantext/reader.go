// Package scantext provides a streaming reader for plain-text scan dumps
package scantext

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ChrisMcGann/RawInspect/pkg/core"
	"github.com/ChrisMcGann/RawInspect/pkg/store/memory"
)

// Reader provides streaming access to scan dump files.
//
// A dump is a sequence of entries:
//
//	Scan: 12
//	RT: 1.234
//	Order: 2
//	Filter: FTMS + c ESI d Full ms2 500.1000@hcd30.00
//	Analyzer: FTMS
//	Precursor: 500.1 30 2.0
//	Trailer: Ion Injection Time (ms)=22.5
//	Num peaks: 2
//	150.1	1200
//	250.2	800
//	Num centroids: 1
//	150.1	1200	1
//
// Entries with unreadable peak lines are kept and marked corrupt.
type Reader struct {
	scanner     *bufio.Scanner
	lineNum     int
	pending     *string
	currentScan *memory.Scan
	fields      []core.TrailerField
	fieldIndex  map[string]int
	err         error
}

// NewReader creates a new scan dump reader
func NewReader(r io.Reader) *Reader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	return &Reader{
		scanner:    scanner,
		fieldIndex: make(map[string]int),
	}
}

// Next advances to the next scan. Returns false when no more scans or error.
func (r *Reader) Next() bool {
	r.currentScan = nil

	sc, err := r.readScan()
	if err != nil {
		if err != io.EOF {
			r.err = err
		}
		return false
	}

	r.currentScan = sc
	return true
}

// Scan returns the current scan
func (r *Reader) Scan() *memory.Scan {
	return r.currentScan
}

// Err returns any error encountered during reading
func (r *Reader) Err() error {
	return r.err
}

// TrailerFields returns the trailer catalog collected so far, in first-seen order.
func (r *Reader) TrailerFields() []core.TrailerField {
	return append([]core.TrailerField(nil), r.fields...)
}

func (r *Reader) nextLine() (string, bool) {
	if r.pending != nil {
		line := *r.pending
		r.pending = nil
		return line, true
	}
	if !r.scanner.Scan() {
		return "", false
	}
	r.lineNum++
	return strings.TrimSpace(r.scanner.Text()), true
}

func (r *Reader) unread(line string) {
	r.pending = &line
}

// readScan reads a single scan entry from the dump
func (r *Reader) readScan() (*memory.Scan, error) {
	var sc *memory.Scan

	for {
		line, ok := r.nextLine()
		if !ok {
			break
		}

		// Skip empty lines and comments between entries
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, found := strings.Cut(line, ":")
		if !found {
			return nil, fmt.Errorf("line %d: expected 'Key: value', got %q", r.lineNum, line)
		}
		value = strings.TrimSpace(value)

		if key == "Scan" {
			if sc != nil {
				// Start of the next entry
				r.unread(line)
				return sc, nil
			}
			n, err := strconv.Atoi(value)
			if err != nil || n <= 0 {
				return nil, fmt.Errorf("line %d: invalid scan number %q", r.lineNum, value)
			}
			sc = &memory.Scan{Number: n}
			continue
		}

		if sc == nil {
			return nil, fmt.Errorf("line %d: %s before first Scan header", r.lineNum, key)
		}

		if err := r.parseHeader(sc, key, value); err != nil {
			return nil, fmt.Errorf("line %d: %w", r.lineNum, err)
		}
	}

	if err := r.scanner.Err(); err != nil {
		return nil, err
	}

	// If we have a partially read scan, return it
	if sc != nil {
		return sc, nil
	}

	return nil, io.EOF
}

func (r *Reader) parseHeader(sc *memory.Scan, key, value string) error {
	switch key {
	case "RT", "RetentionTime":
		rt, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid retention time: %w", err)
		}
		sc.RetentionTime = rt

	case "Order":
		order, err := parseOrder(value)
		if err != nil {
			return err
		}
		sc.Event.MSOrder = order
		sc.Filter.MSOrder = order

	case "Filter":
		sc.Filter.Text = value
		if sc.Filter.MSOrder == core.MSOrderUnknown {
			sc.Filter.MSOrder = orderFromFilter(value)
		}

	case "Analyzer":
		sc.Event.Analyzer = value
		sc.Filter.Analyzer = value

	case "Precursor":
		reaction, err := parseReaction(value)
		if err != nil {
			return err
		}
		sc.Event.Reactions = append(sc.Event.Reactions, reaction)

	case "Trailer":
		label, v, ok := strings.Cut(value, "=")
		if !ok {
			return fmt.Errorf("invalid trailer %q, expected 'Label=value'", value)
		}
		r.setTrailer(sc, strings.TrimSpace(label), strings.TrimSpace(v))

	case "Num peaks":
		peaks, err := r.readPeaks(sc, value)
		if err != nil {
			return err
		}
		sc.Data.Profile = peaks

	case "Num centroids":
		peaks, err := r.readPeaks(sc, value)
		if err != nil {
			return err
		}
		sc.Data.Centroid = peaks

	default:
		// Unknown keys are ignored
	}
	return nil
}

// readPeaks reads the declared number of peak lines
func (r *Reader) readPeaks(sc *memory.Scan, countStr string) ([]core.Peak, error) {
	n, err := strconv.Atoi(countStr)
	if err != nil || n < 0 {
		return nil, fmt.Errorf("invalid peak count %q", countStr)
	}

	peaks := make([]core.Peak, 0, n)
	for len(peaks) < n {
		line, ok := r.nextLine()
		if !ok {
			sc.Corrupt = true
			break
		}
		peak, err := parsePeak(line)
		if err != nil {
			sc.Corrupt = true
			peaks = append(peaks, core.Peak{})
			continue
		}
		peaks = append(peaks, peak)
	}
	return peaks, nil
}

func (r *Reader) setTrailer(sc *memory.Scan, label, value string) {
	pos, ok := r.fieldIndex[label]
	if !ok {
		pos = len(r.fields)
		r.fieldIndex[label] = pos
		r.fields = append(r.fields, core.TrailerField{Position: pos, Label: label, DataType: core.FieldNull})
	}
	r.fields[pos].DataType = widen(r.fields[pos].DataType, value)

	for len(sc.Trailer) <= pos {
		sc.Trailer = append(sc.Trailer, "")
	}
	sc.Trailer[pos] = value
}

// widen returns the narrowest type that holds both current values and v
func widen(current core.FieldType, v string) core.FieldType {
	if v == "" || current == core.FieldString {
		return current
	}
	if _, err := strconv.ParseInt(v, 10, 64); err == nil {
		if current == core.FieldNull {
			return core.FieldInt
		}
		return current
	}
	if _, err := strconv.ParseFloat(v, 64); err == nil {
		return core.FieldDouble
	}
	return core.FieldString
}

// parsePeak parses a single peak line (format: "mz intensity [charge]")
func parsePeak(line string) (core.Peak, error) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return core.Peak{}, fmt.Errorf("invalid peak format, expected at least 2 fields")
	}

	mz, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return core.Peak{}, fmt.Errorf("invalid m/z value: %w", err)
	}

	intensity, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return core.Peak{}, fmt.Errorf("invalid intensity value: %w", err)
	}

	peak := core.Peak{MZ: mz, Intensity: intensity}
	if len(fields) >= 3 {
		z, err := strconv.Atoi(fields[2])
		if err != nil {
			return core.Peak{}, fmt.Errorf("invalid charge value: %w", err)
		}
		peak.Charge = z
	}
	return peak, nil
}

func parseReaction(value string) (core.Reaction, error) {
	fields := strings.Fields(value)
	if len(fields) == 0 {
		return core.Reaction{}, fmt.Errorf("empty precursor")
	}
	var nums [3]float64
	for i := 0; i < len(fields) && i < 3; i++ {
		f, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return core.Reaction{}, fmt.Errorf("invalid precursor value %q: %w", fields[i], err)
		}
		nums[i] = f
	}
	return core.Reaction{PrecursorMass: nums[0], CollisionEnergy: nums[1], IsolationWidth: nums[2]}, nil
}

func parseOrder(value string) (core.MSOrder, error) {
	v := strings.TrimPrefix(strings.ToLower(value), "ms")
	if v == "" {
		return core.MS1, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid ms order %q", value)
	}
	return core.MSOrder(n), nil
}

// orderFromFilter reads the "ms", "ms2", ... token of a filter string
func orderFromFilter(filter string) core.MSOrder {
	for _, tok := range strings.Fields(strings.ToLower(filter)) {
		if !strings.HasPrefix(tok, "ms") {
			continue
		}
		if order, err := parseOrder(tok); err == nil {
			return order
		}
	}
	return core.MSOrderUnknown
}

// ReadRun reads every scan of r into a run. Analyzer names found in scans
// are applied to filters that lack one.
func ReadRun(r io.Reader) (*memory.Run, error) {
	reader := NewReader(r)
	run := &memory.Run{}
	for reader.Next() {
		sc := reader.Scan()
		if sc.Event.MSOrder == core.MSOrderUnknown {
			sc.Event.MSOrder = sc.Filter.MSOrder
		}
		if sc.Filter.Analyzer == "" {
			sc.Filter.Analyzer = analyzerFromFilter(sc.Filter.Text)
			sc.Event.Analyzer = sc.Filter.Analyzer
		}
		run.Scans = append(run.Scans, *sc)
	}
	if err := reader.Err(); err != nil {
		return nil, fmt.Errorf("error reading scan dump: %w", err)
	}
	run.TrailerFields = reader.TrailerFields()
	return run, nil
}

func analyzerFromFilter(filter string) string {
	fields := strings.Fields(filter)
	if len(fields) == 0 {
		return ""
	}
	switch strings.ToUpper(fields[0]) {
	case "FTMS", "ITMS", "TOF", "SQMS", "TQMS":
		return strings.ToUpper(fields[0])
	}
	return ""
}
