// Package sqlite stores acquisition runs in SQLite "run database" files and
// serves them through the store.Store interface.
package sqlite

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/ChrisMcGann/RawInspect/pkg/core"
)

// Date format for HeaderTable (ISO 8601)
const headerDateFormat = "2006-01-02"

const schema = `
CREATE TABLE IF NOT EXISTS HeaderTable (
	version INTEGER NOT NULL DEFAULT 0,
	CreationDate TEXT,
	Instrument TEXT,
	Acquiring BOOL,
	ErrorFlag BOOL
);

CREATE TABLE IF NOT EXISTS ScanTable (
	ScanNumber INTEGER PRIMARY KEY,
	RetentionTime DOUBLE,
	MSOrder INTEGER,
	ScanFilter TEXT,
	MassAnalyzer TEXT,
	Corrupt BOOL,
	HasCentroid BOOL,
	blobProfileMass BLOB,
	blobProfileIntensity BLOB,
	blobCentroidMass BLOB,
	blobCentroidIntensity BLOB,
	blobCentroidCharge BLOB
);

CREATE INDEX IF NOT EXISTS ScanTimeIndex ON ScanTable (RetentionTime);

CREATE TABLE IF NOT EXISTS ReactionTable (
	ScanNumber INTEGER REFERENCES ScanTable(ScanNumber),
	Stage INTEGER,
	PrecursorMass DOUBLE,
	CollisionEnergy DOUBLE,
	IsolationWidth DOUBLE,
	PRIMARY KEY (ScanNumber, Stage)
);

CREATE TABLE IF NOT EXISTS FieldTable (
	Log TEXT,
	Position INTEGER,
	Label TEXT,
	DataType TEXT,
	PRIMARY KEY (Log, Position)
);

CREATE TABLE IF NOT EXISTS TrailerTable (
	ScanNumber INTEGER REFERENCES ScanTable(ScanNumber),
	Position INTEGER,
	Value TEXT,
	PRIMARY KEY (ScanNumber, Position)
);

CREATE TABLE IF NOT EXISTS StatusTable (
	SampleId INTEGER,
	Time DOUBLE,
	Position INTEGER,
	Value TEXT,
	PRIMARY KEY (SampleId, Position)
);

CREATE INDEX IF NOT EXISTS StatusTimeIndex ON StatusTable (Time);

CREATE TABLE IF NOT EXISTS MethodTable (
	MethodIndex INTEGER PRIMARY KEY,
	Text TEXT
);

CREATE TABLE IF NOT EXISTS AnalogTable (
	Channel INTEGER,
	ScanNumber INTEGER,
	Time DOUBLE,
	Value DOUBLE
);
`

const (
	logTrailer = "trailer"
	logStatus  = "status"
)

// encodeFloat64s encodes values as a little-endian float64 blob
func encodeFloat64s(values []float64) []byte {
	buf := make([]byte, len(values)*8)
	for i, v := range values {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(v))
	}
	return buf
}

// decodeFloat64s reverses encodeFloat64s
func decodeFloat64s(buf []byte) ([]float64, error) {
	if len(buf)%8 != 0 {
		return nil, fmt.Errorf("float64 blob length %d is not a multiple of 8", len(buf))
	}
	values := make([]float64, len(buf)/8)
	for i := range values {
		values[i] = math.Float64frombits(binary.LittleEndian.Uint64(buf[i*8:]))
	}
	return values, nil
}

// encodeCharges encodes charges as a little-endian int32 blob
func encodeCharges(peaks []core.Peak) []byte {
	buf := make([]byte, len(peaks)*4)
	for i, p := range peaks {
		binary.LittleEndian.PutUint32(buf[i*4:], uint32(int32(p.Charge)))
	}
	return buf
}

func decodeCharges(buf []byte) ([]int, error) {
	if len(buf)%4 != 0 {
		return nil, fmt.Errorf("charge blob length %d is not a multiple of 4", len(buf))
	}
	values := make([]int, len(buf)/4)
	for i := range values {
		values[i] = int(int32(binary.LittleEndian.Uint32(buf[i*4:])))
	}
	return values, nil
}

func splitPeaks(peaks []core.Peak) (masses, intensities []float64) {
	masses = make([]float64, len(peaks))
	intensities = make([]float64, len(peaks))
	for i, p := range peaks {
		masses[i] = p.MZ
		intensities[i] = p.Intensity
	}
	return masses, intensities
}

func joinPeaks(massBlob, intensityBlob, chargeBlob []byte) ([]core.Peak, error) {
	masses, err := decodeFloat64s(massBlob)
	if err != nil {
		return nil, fmt.Errorf("mass blob: %w", err)
	}
	intensities, err := decodeFloat64s(intensityBlob)
	if err != nil {
		return nil, fmt.Errorf("intensity blob: %w", err)
	}
	if len(masses) != len(intensities) {
		return nil, fmt.Errorf("%d masses but %d intensities", len(masses), len(intensities))
	}
	var charges []int
	if chargeBlob != nil {
		charges, err = decodeCharges(chargeBlob)
		if err != nil {
			return nil, fmt.Errorf("charge blob: %w", err)
		}
	}

	peaks := make([]core.Peak, len(masses))
	for i := range masses {
		peaks[i] = core.Peak{MZ: masses[i], Intensity: intensities[i]}
		if i < len(charges) {
			peaks[i].Charge = charges[i]
		}
	}
	return peaks, nil
}
