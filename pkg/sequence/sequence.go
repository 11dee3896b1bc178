// Package sequence writes and reads sample sequence lists as YAML.
package sequence

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Sample types accepted in a sequence.
const (
	TypeUnknown    = "Unknown"
	TypeBlank      = "Blank"
	TypeQC         = "QC"
	TypeStdBracket = "StdBracket"
)

// Sample is one injection of a sequence.
type Sample struct {
	SampleID         string  `yaml:"sampleId"`
	SampleName       string  `yaml:"sampleName"`
	SampleType       string  `yaml:"sampleType"`
	FileName         string  `yaml:"fileName"`
	Path             string  `yaml:"path"`
	InstrumentMethod string  `yaml:"instrumentMethod,omitempty"`
	InjectionVolume  float64 `yaml:"injectionVolume"`
	Vial             string  `yaml:"vial,omitempty"`
	Comment          string  `yaml:"comment,omitempty"`
}

// Sequence is an ordered list of samples.
type Sequence struct {
	Instrument string   `yaml:"instrument,omitempty"`
	Bracket    string   `yaml:"bracket"`
	Samples    []Sample `yaml:"samples"`
}

// FromRun builds a sequence of count unknown samples that re-acquire the run
// at path. File names are the run's base name suffixed with the sample index.
func FromRun(path, instrument string, count int) Sequence {
	dir := filepath.Dir(path)
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	seq := Sequence{Instrument: instrument, Bracket: "Open"}
	for i := 1; i <= count; i++ {
		seq.Samples = append(seq.Samples, Sample{
			SampleID:        fmt.Sprintf("%d", i),
			SampleName:      fmt.Sprintf("Sample %d", i),
			SampleType:      TypeUnknown,
			FileName:        fmt.Sprintf("%s_%02d", base, i),
			Path:            dir,
			InjectionVolume: 1,
			Vial:            fmt.Sprintf("A%d", i),
		})
	}
	return seq
}

// Validate checks that every sample can be written.
func (s Sequence) Validate() error {
	if len(s.Samples) == 0 {
		return fmt.Errorf("sequence has no samples")
	}
	for i, sample := range s.Samples {
		if sample.FileName == "" {
			return fmt.Errorf("sample %d: file name is required", i+1)
		}
		switch sample.SampleType {
		case TypeUnknown, TypeBlank, TypeQC, TypeStdBracket:
		default:
			return fmt.Errorf("sample %d: unknown sample type %q", i+1, sample.SampleType)
		}
		if sample.InjectionVolume < 0 {
			return fmt.Errorf("sample %d: negative injection volume", i+1)
		}
	}
	return nil
}

// Write encodes the sequence as YAML.
func Write(w io.Writer, s Sequence) error {
	if err := s.Validate(); err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("encoding sequence: %w", err)
	}
	return enc.Close()
}

// Save writes the sequence to path, replacing any existing file.
func Save(path string, s Sequence) error {
	var buf bytes.Buffer
	if err := Write(&buf, s); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("writing sequence file %s: %w", path, err)
	}
	return nil
}

// Load reads a sequence file written by Save.
func Load(path string) (Sequence, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Sequence{}, fmt.Errorf("reading sequence file %s: %w", path, err)
	}
	var s Sequence
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Sequence{}, fmt.Errorf("parsing sequence file %s: %w", path, err)
	}
	return s, s.Validate()
}
