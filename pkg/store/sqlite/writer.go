package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/ChrisMcGann/RawInspect/pkg/core"
	"github.com/ChrisMcGann/RawInspect/pkg/store/memory"
	_ "github.com/mattn/go-sqlite3"
)

// Writer handles writing acquisition runs to SQLite database files. All rows
// are written in one transaction that Finalize commits.
type Writer struct {
	db           *sql.DB
	tx           *sql.Tx
	outputPath   string
	scanStmt     *sql.Stmt
	reactionStmt *sql.Stmt
	trailerStmt  *sql.Stmt
	statusStmt   *sql.Stmt
	fieldStmt    *sql.Stmt
	analogStmt   *sql.Stmt
	methodStmt   *sql.Stmt
	statusID     int
	methodIndex  int
	scans        int
	instrument   string
	acquiring    bool
	fault        bool
	finalized    bool
}

// NewWriter creates a new SQLite writer
func NewWriter(outputPath string) (*Writer, error) {
	db, err := sql.Open("sqlite3", outputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	w := &Writer{
		db:         db,
		outputPath: outputPath,
	}

	if err := w.createTables(); err != nil {
		db.Close()
		return nil, err
	}

	tx, err := db.Begin()
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	w.tx = tx

	if err := w.prepareStatements(); err != nil {
		tx.Rollback()
		db.Close()
		return nil, err
	}

	return w, nil
}

// createTables creates the required database schema
func (w *Writer) createTables() error {
	if _, err := w.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}
	return nil
}

// prepareStatements prepares SQL statements for batch insertion
func (w *Writer) prepareStatements() error {
	var err error

	prepare := func(dst **sql.Stmt, name, query string) {
		if err != nil {
			return
		}
		*dst, err = w.tx.Prepare(query)
		if err != nil {
			err = fmt.Errorf("failed to prepare %s statement: %w", name, err)
		}
	}

	prepare(&w.scanStmt, "scan", `
		INSERT INTO ScanTable (
			ScanNumber, RetentionTime, MSOrder, ScanFilter, MassAnalyzer, Corrupt,
			HasCentroid, blobProfileMass, blobProfileIntensity,
			blobCentroidMass, blobCentroidIntensity, blobCentroidCharge
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	prepare(&w.reactionStmt, "reaction", `
		INSERT INTO ReactionTable (ScanNumber, Stage, PrecursorMass, CollisionEnergy, IsolationWidth)
		VALUES (?, ?, ?, ?, ?)
	`)
	prepare(&w.trailerStmt, "trailer", `
		INSERT INTO TrailerTable (ScanNumber, Position, Value) VALUES (?, ?, ?)
	`)
	prepare(&w.statusStmt, "status", `
		INSERT INTO StatusTable (SampleId, Time, Position, Value) VALUES (?, ?, ?, ?)
	`)
	prepare(&w.fieldStmt, "field", `
		INSERT OR REPLACE INTO FieldTable (Log, Position, Label, DataType) VALUES (?, ?, ?, ?)
	`)
	prepare(&w.analogStmt, "analog", `
		INSERT INTO AnalogTable (Channel, ScanNumber, Time, Value) VALUES (?, ?, ?, ?)
	`)
	prepare(&w.methodStmt, "method", `
		INSERT INTO MethodTable (MethodIndex, Text) VALUES (?, ?)
	`)

	return err
}

// SetHeader records run-level flags written by Finalize.
func (w *Writer) SetHeader(instrument string, acquiring, fault bool) {
	w.instrument = instrument
	w.acquiring = acquiring
	w.fault = fault
}

// WriteScan writes a single scan with its reactions and trailer values
func (w *Writer) WriteScan(sc *memory.Scan) error {
	profileMZ, profileInt := splitPeaks(sc.Data.Profile)

	// Centroid blobs stay NULL for profile-only scans
	var centroidMZ, centroidInt, centroidZ []byte
	hasCentroid := sc.Data.Centroid != nil
	if hasCentroid {
		mz, in := splitPeaks(sc.Data.Centroid)
		centroidMZ = encodeFloat64s(mz)
		centroidInt = encodeFloat64s(in)
		centroidZ = encodeCharges(sc.Data.Centroid)
	}

	order := sc.Event.MSOrder
	if order == core.MSOrderUnknown {
		order = sc.Filter.MSOrder
	}
	analyzer := sc.Event.Analyzer
	if analyzer == "" {
		analyzer = sc.Filter.Analyzer
	}

	_, err := w.scanStmt.Exec(
		sc.Number,                  // ScanNumber
		sc.RetentionTime,           // RetentionTime
		int(order),                 // MSOrder
		sc.Filter.Text,             // ScanFilter
		analyzer,                   // MassAnalyzer
		sc.Corrupt,                 // Corrupt
		hasCentroid,                // HasCentroid
		encodeFloat64s(profileMZ),  // blobProfileMass
		encodeFloat64s(profileInt), // blobProfileIntensity
		centroidMZ,                 // blobCentroidMass
		centroidInt,                // blobCentroidIntensity
		centroidZ,                  // blobCentroidCharge
	)
	if err != nil {
		return fmt.Errorf("failed to insert scan %d: %w", sc.Number, err)
	}

	for stage, r := range sc.Event.Reactions {
		if _, err := w.reactionStmt.Exec(sc.Number, stage, r.PrecursorMass, r.CollisionEnergy, r.IsolationWidth); err != nil {
			return fmt.Errorf("failed to insert reaction %d of scan %d: %w", stage, sc.Number, err)
		}
	}

	for pos, v := range sc.Trailer {
		if _, err := w.trailerStmt.Exec(sc.Number, pos, v); err != nil {
			return fmt.Errorf("failed to insert trailer value %d of scan %d: %w", pos, sc.Number, err)
		}
	}

	w.scans++
	return nil
}

// WriteFields writes the trailer or status field catalog
func (w *Writer) WriteFields(log string, fields []core.TrailerField) error {
	for i, f := range fields {
		if _, err := w.fieldStmt.Exec(log, i, f.Label, f.DataType.String()); err != nil {
			return fmt.Errorf("failed to insert %s field %q: %w", log, f.Label, err)
		}
	}
	return nil
}

// WriteStatus writes one status log sample
func (w *Writer) WriteStatus(sample memory.StatusSample) error {
	w.statusID++
	for pos, v := range sample.Values {
		if _, err := w.statusStmt.Exec(w.statusID, sample.Time, pos, v); err != nil {
			return fmt.Errorf("failed to insert status sample at %.4f: %w", sample.Time, err)
		}
	}
	return nil
}

// WriteMethod appends one instrument method text
func (w *Writer) WriteMethod(text string) error {
	if _, err := w.methodStmt.Exec(w.methodIndex, text); err != nil {
		return fmt.Errorf("failed to insert method %d: %w", w.methodIndex, err)
	}
	w.methodIndex++
	return nil
}

// WriteAnalog writes the samples of one analog channel
func (w *Writer) WriteAnalog(channel int, samples []memory.AnalogSample) error {
	for _, s := range samples {
		if _, err := w.analogStmt.Exec(channel, s.Scan, s.Time, s.Value); err != nil {
			return fmt.Errorf("failed to insert analog sample of channel %d: %w", channel, err)
		}
	}
	return nil
}

// WriteRun writes a complete in-memory run
func (w *Writer) WriteRun(run *memory.Run) error {
	w.SetHeader(run.Instrument, run.Acquiring, run.Fault)

	if err := w.WriteFields(logTrailer, run.TrailerFields); err != nil {
		return err
	}
	if err := w.WriteFields(logStatus, run.StatusFields); err != nil {
		return err
	}
	for i := range run.Scans {
		if err := w.WriteScan(&run.Scans[i]); err != nil {
			return err
		}
	}
	for _, s := range run.Status {
		if err := w.WriteStatus(s); err != nil {
			return err
		}
	}
	for _, m := range run.Methods {
		if err := w.WriteMethod(m); err != nil {
			return err
		}
	}
	for ch, samples := range run.Analog {
		if err := w.WriteAnalog(ch, samples); err != nil {
			return err
		}
	}
	return nil
}

// Scans returns the number of scans written so far.
func (w *Writer) Scans() int {
	return w.scans
}

// Finalize writes the header table, commits and closes the database
func (w *Writer) Finalize() error {
	if w.finalized {
		return nil
	}
	w.finalized = true

	_, err := w.tx.Exec(`
		INSERT INTO HeaderTable (version, CreationDate, Instrument, Acquiring, ErrorFlag)
		VALUES (?, ?, ?, ?, ?)
	`, 1, time.Now().Format(headerDateFormat), w.instrument, w.acquiring, w.fault)
	if err != nil {
		w.tx.Rollback()
		w.db.Close()
		return fmt.Errorf("failed to insert header: %w", err)
	}

	// Close prepared statements
	for _, stmt := range []*sql.Stmt{w.scanStmt, w.reactionStmt, w.trailerStmt, w.statusStmt, w.fieldStmt, w.analogStmt, w.methodStmt} {
		if stmt != nil {
			stmt.Close()
		}
	}

	if err := w.tx.Commit(); err != nil {
		w.db.Close()
		return fmt.Errorf("failed to commit database: %w", err)
	}

	// Close database
	if err := w.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	return nil
}

// Close finalizes the database if that has not happened yet
func (w *Writer) Close() error {
	return w.Finalize()
}
