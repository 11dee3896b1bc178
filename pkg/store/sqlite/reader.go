package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/ChrisMcGann/RawInspect/pkg/core"
	"github.com/ChrisMcGann/RawInspect/pkg/store"
	"github.com/ChrisMcGann/RawInspect/pkg/store/memory"
	_ "github.com/mattn/go-sqlite3"
)

// Store reads a run database. Scan data is fetched from the file on every
// call; only the scan-number/retention-time index is held in memory.
type Store struct {
	db         *sql.DB
	path       string
	instrument string
	acquiring  bool
	fault      bool
	numbers    []int
	times      []float64
	methods    int
	analog     int
	device     store.DeviceKind
	channel    int
}

// Open opens a run database read-only. Failures wrap core.ErrOpen.
func Open(path string) (*Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", core.ErrOpen, path, err)
	}

	db, err := sql.Open("sqlite3", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", core.ErrOpen, path, err)
	}

	s := &Store{db: db, path: path}
	if err := s.load(); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %s: %w", core.ErrOpen, path, err)
	}
	return s, nil
}

func (s *Store) load() error {
	row := s.db.QueryRow(`SELECT Instrument, Acquiring, ErrorFlag FROM HeaderTable LIMIT 1`)
	var instrument sql.NullString
	if err := row.Scan(&instrument, &s.acquiring, &s.fault); err != nil {
		return fmt.Errorf("reading header: %w", err)
	}
	s.instrument = instrument.String

	rows, err := s.db.Query(`SELECT ScanNumber, RetentionTime FROM ScanTable ORDER BY ScanNumber`)
	if err != nil {
		return fmt.Errorf("reading scan index: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var n int
		var t float64
		if err := rows.Scan(&n, &t); err != nil {
			return fmt.Errorf("reading scan index: %w", err)
		}
		s.numbers = append(s.numbers, n)
		s.times = append(s.times, t)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("reading scan index: %w", err)
	}

	if err := s.db.QueryRow(`SELECT COUNT(*) FROM MethodTable`).Scan(&s.methods); err != nil {
		return fmt.Errorf("counting methods: %w", err)
	}
	if err := s.db.QueryRow(`SELECT COUNT(DISTINCT Channel) FROM AnalogTable`).Scan(&s.analog); err != nil {
		return fmt.Errorf("counting analog channels: %w", err)
	}
	return nil
}

// Path returns the file the store was opened from.
func (s *Store) Path() string { return s.path }

// Instrument returns the instrument name recorded in the header.
func (s *Store) Instrument() string { return s.instrument }

func (s *Store) IsAcquiring() bool { return s.acquiring }

func (s *Store) InError() bool { return s.fault }

func (s *Store) SelectChannel(kind store.DeviceKind, index int) error {
	ok := false
	switch kind {
	case store.DeviceMS:
		ok = len(s.numbers) > 0 && index == 0
	case store.DeviceAnalog:
		ok = index >= 0 && index < s.analog
	}
	if !ok {
		return fmt.Errorf("%w: %s %d", core.ErrChannelAbsent, kind, index+1)
	}
	s.device = kind
	s.channel = index
	return nil
}

func (s *Store) Device() store.DeviceKind { return s.device }

func (s *Store) FirstScan() int {
	if len(s.numbers) == 0 {
		return 0
	}
	return s.numbers[0]
}

func (s *Store) LastScan() int {
	if len(s.numbers) == 0 {
		return 0
	}
	return s.numbers[len(s.numbers)-1]
}

func scanErr(number int, op string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		err = errors.New("scan out of range")
	}
	return core.NewScanError(number, op, fmt.Errorf("%w: %w", core.ErrScanRead, err))
}

func (s *Store) RetentionTime(number int) (float64, error) {
	var t float64
	err := s.db.QueryRow(`SELECT RetentionTime FROM ScanTable WHERE ScanNumber = ?`, number).Scan(&t)
	if err != nil {
		return 0, scanErr(number, "retention time", err)
	}
	return t, nil
}

func (s *Store) ScanNumberFromTime(t float64) (int, error) {
	if len(s.numbers) == 0 {
		return 0, fmt.Errorf("%w: run has no scans", core.ErrNoData)
	}
	i := sort.Search(len(s.times), func(i int) bool { return s.times[i] > t })
	if i == 0 {
		return s.numbers[0], nil
	}
	return s.numbers[i-1], nil
}

func (s *Store) FilterFor(number int) (store.FilterDescriptor, error) {
	var f store.FilterDescriptor
	var order int
	err := s.db.QueryRow(`SELECT ScanFilter, MSOrder, MassAnalyzer FROM ScanTable WHERE ScanNumber = ?`, number).
		Scan(&f.Text, &order, &f.Analyzer)
	if err != nil {
		return store.FilterDescriptor{}, scanErr(number, "filter", err)
	}
	f.MSOrder = core.MSOrder(order)
	return f, nil
}

func (s *Store) ScanEventFor(number int) (store.ScanEvent, error) {
	var ev store.ScanEvent
	var order int
	err := s.db.QueryRow(`SELECT MSOrder, MassAnalyzer FROM ScanTable WHERE ScanNumber = ?`, number).
		Scan(&order, &ev.Analyzer)
	if err != nil {
		return store.ScanEvent{}, scanErr(number, "scan event", err)
	}
	ev.MSOrder = core.MSOrder(order)

	rows, err := s.db.Query(`
		SELECT PrecursorMass, CollisionEnergy, IsolationWidth
		FROM ReactionTable WHERE ScanNumber = ? ORDER BY Stage`, number)
	if err != nil {
		return store.ScanEvent{}, scanErr(number, "reactions", err)
	}
	defer rows.Close()
	for rows.Next() {
		var r core.Reaction
		if err := rows.Scan(&r.PrecursorMass, &r.CollisionEnergy, &r.IsolationWidth); err != nil {
			return store.ScanEvent{}, scanErr(number, "reactions", err)
		}
		ev.Reactions = append(ev.Reactions, r)
	}
	if err := rows.Err(); err != nil {
		return store.ScanEvent{}, scanErr(number, "reactions", err)
	}
	return ev, nil
}

func (s *Store) RawScan(number int) (store.RawScan, error) {
	var (
		corrupt, hasCentroid               bool
		profileMZ, profileInt              []byte
		centroidMZ, centroidInt, centroidZ []byte
	)
	err := s.db.QueryRow(`
		SELECT Corrupt, HasCentroid, blobProfileMass, blobProfileIntensity,
			blobCentroidMass, blobCentroidIntensity, blobCentroidCharge
		FROM ScanTable WHERE ScanNumber = ?`, number).
		Scan(&corrupt, &hasCentroid, &profileMZ, &profileInt, &centroidMZ, &centroidInt, &centroidZ)
	if err != nil {
		return store.RawScan{}, scanErr(number, "raw scan", err)
	}
	if corrupt {
		return store.RawScan{}, scanErr(number, "raw scan", errors.New("corrupt record"))
	}

	var raw store.RawScan
	raw.Profile, err = joinPeaks(profileMZ, profileInt, nil)
	if err != nil {
		return store.RawScan{}, scanErr(number, "profile", err)
	}
	if hasCentroid {
		raw.Centroid, err = joinPeaks(centroidMZ, centroidInt, centroidZ)
		if err != nil {
			return store.RawScan{}, scanErr(number, "centroid", err)
		}
	}
	return raw, nil
}

func (s *Store) fields(log string) ([]core.TrailerField, error) {
	rows, err := s.db.Query(`SELECT Position, Label, DataType FROM FieldTable WHERE Log = ? ORDER BY Position`, log)
	if err != nil {
		return nil, fmt.Errorf("reading %s fields: %w", log, err)
	}
	defer rows.Close()

	var fields []core.TrailerField
	for rows.Next() {
		var f core.TrailerField
		var typ string
		if err := rows.Scan(&f.Position, &f.Label, &typ); err != nil {
			return nil, fmt.Errorf("reading %s fields: %w", log, err)
		}
		f.DataType = core.ParseFieldType(typ)
		fields = append(fields, f)
	}
	return fields, rows.Err()
}

func (s *Store) TrailerFields() ([]core.TrailerField, error) {
	return s.fields(logTrailer)
}

func (s *Store) values(query string, arg any, width int) ([]string, error) {
	rows, err := s.db.Query(query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	values := make([]string, width)
	for rows.Next() {
		var pos int
		var v string
		if err := rows.Scan(&pos, &v); err != nil {
			return nil, err
		}
		if pos >= 0 && pos < width {
			values[pos] = v
		}
	}
	return values, rows.Err()
}

func (s *Store) TrailerEntry(number int) (core.LogEntry, error) {
	t, err := s.RetentionTime(number)
	if err != nil {
		return core.LogEntry{}, err
	}
	fields, err := s.TrailerFields()
	if err != nil {
		return core.LogEntry{}, scanErr(number, "trailer", err)
	}
	values, err := s.values(`SELECT Position, Value FROM TrailerTable WHERE ScanNumber = ?`, number, len(fields))
	if err != nil {
		return core.LogEntry{}, scanErr(number, "trailer", err)
	}
	return memory.BuildEntry(t, fields, values), nil
}

func (s *Store) StatusFields() ([]core.TrailerField, error) {
	return s.fields(logStatus)
}

func (s *Store) StatusEntryAtTime(t float64) (core.LogEntry, error) {
	var id int
	var at float64
	err := s.db.QueryRow(`SELECT SampleId, Time FROM StatusTable WHERE Time <= ? ORDER BY Time DESC, SampleId DESC LIMIT 1`, t).
		Scan(&id, &at)
	if errors.Is(err, sql.ErrNoRows) {
		err = s.db.QueryRow(`SELECT SampleId, Time FROM StatusTable ORDER BY Time, SampleId LIMIT 1`).Scan(&id, &at)
	}
	if errors.Is(err, sql.ErrNoRows) {
		return core.LogEntry{}, fmt.Errorf("%w: no status log", core.ErrNoData)
	}
	if err != nil {
		return core.LogEntry{}, fmt.Errorf("reading status log: %w", err)
	}

	fields, err := s.StatusFields()
	if err != nil {
		return core.LogEntry{}, err
	}
	values, err := s.values(`SELECT Position, Value FROM StatusTable WHERE SampleId = ?`, id, len(fields))
	if err != nil {
		return core.LogEntry{}, fmt.Errorf("reading status sample %d: %w", id, err)
	}
	return memory.BuildEntry(at, fields, values), nil
}

func (s *Store) MethodCount() int { return s.methods }

func (s *Store) MethodText(index int) (string, error) {
	var text string
	err := s.db.QueryRow(`SELECT Text FROM MethodTable WHERE MethodIndex = ?`, index).Scan(&text)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: method %d", core.ErrNoData, index)
	}
	if err != nil {
		return "", fmt.Errorf("reading method %d: %w", index, err)
	}
	return text, nil
}

func (s *Store) Chromatogram(spec store.TraceSpec, first, last int) (store.RawTrace, error) {
	if spec.Type != store.TraceAnalog || s.device != store.DeviceAnalog {
		return store.RawTrace{}, fmt.Errorf("%w: %s trace on %s device", core.ErrNoData, spec.Type, s.device)
	}

	rows, err := s.db.Query(`
		SELECT Time, Value, ScanNumber FROM AnalogTable
		WHERE Channel = ? AND ScanNumber BETWEEN ? AND ?
		ORDER BY Time`, s.channel, first, last)
	if err != nil {
		return store.RawTrace{}, fmt.Errorf("reading analog channel %d: %w", s.channel+1, err)
	}
	defer rows.Close()

	var trace store.RawTrace
	for rows.Next() {
		var t, v float64
		var n int
		if err := rows.Scan(&t, &v, &n); err != nil {
			return store.RawTrace{}, fmt.Errorf("reading analog channel %d: %w", s.channel+1, err)
		}
		trace.Times = append(trace.Times, t)
		trace.Intensities = append(trace.Intensities, v)
		trace.Scans = append(trace.Scans, n)
	}
	return trace, rows.Err()
}

func (s *Store) Close() error {
	return s.db.Close()
}

var _ store.Store = (*Store)(nil)
