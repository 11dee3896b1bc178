// Package config loads and validates the report configuration from YAML files
// with environment-variable overrides. Every report toggle lives in one
// explicit Reports struct that is passed once to the report runner.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ChrisMcGann/RawInspect/pkg/chromatogram"
	"github.com/ChrisMcGann/RawInspect/pkg/core"
	"github.com/ChrisMcGann/RawInspect/pkg/inclusion"
)

// Config is the top-level configuration.
type Config struct {
	Reports      Reports            `yaml:"reports"`
	Range        RangeConfig        `yaml:"range"`
	Averaging    AveragingConfig    `yaml:"averaging"`
	Chromatogram ChromatogramConfig `yaml:"chromatogram"`
	Inclusion    InclusionConfig    `yaml:"inclusion"`
	Precision    PrecisionConfig    `yaml:"precision"`
	Spectrum     SpectrumConfig     `yaml:"spectrum"`
	Sequence     SequenceConfig     `yaml:"sequence"`
	Analog       AnalogConfig       `yaml:"analog"`
	Batch        BatchConfig        `yaml:"batch"`
	Logging      LoggingConfig      `yaml:"logging"`
	Metrics      MetricsConfig      `yaml:"metrics"`

	// MaxLines caps the per-peak and per-point lines of each report. Zero
	// prints everything.
	MaxLines int `yaml:"maxLines"`
}

// Reports enumerates every report section. A section runs only when its
// toggle is set.
type Reports struct {
	ScanAnalysis     bool `yaml:"scanAnalysis"`
	Averaging        bool `yaml:"averaging"`
	Precision        bool `yaml:"precision"`
	Centroiding      bool `yaml:"centroiding"`
	SequenceFile     bool `yaml:"sequenceFile"`
	Chromatogram     bool `yaml:"chromatogram"`
	InclusionList    bool `yaml:"inclusionList"`
	StatusLog        bool `yaml:"statusLog"`
	TrailerFields    bool `yaml:"trailerFields"`
	FullScanRead     bool `yaml:"fullScanRead"`
	AnalogChannel    bool `yaml:"analogChannel"`
	MassChromatogram bool `yaml:"massChromatogram"`
	ScanInformation  bool `yaml:"scanInformation"`
	SpectrumRead     bool `yaml:"spectrumRead"`
}

// toggles maps YAML names to report toggles, in report order.
func (r *Reports) toggles() []struct {
	name string
	flag *bool
} {
	return []struct {
		name string
		flag *bool
	}{
		{"scanAnalysis", &r.ScanAnalysis},
		{"trailerFields", &r.TrailerFields},
		{"statusLog", &r.StatusLog},
		{"scanInformation", &r.ScanInformation},
		{"spectrumRead", &r.SpectrumRead},
		{"fullScanRead", &r.FullScanRead},
		{"chromatogram", &r.Chromatogram},
		{"massChromatogram", &r.MassChromatogram},
		{"analogChannel", &r.AnalogChannel},
		{"averaging", &r.Averaging},
		{"centroiding", &r.Centroiding},
		{"precision", &r.Precision},
		{"inclusionList", &r.InclusionList},
		{"sequenceFile", &r.SequenceFile},
	}
}

// Names returns every report name in run order.
func (r Reports) Names() []string {
	var names []string
	for _, t := range r.toggles() {
		names = append(names, t.name)
	}
	return names
}

// Enabled returns the names of the enabled reports in run order.
func (r Reports) Enabled() []string {
	var names []string
	for _, t := range r.toggles() {
		if *t.flag {
			names = append(names, t.name)
		}
	}
	return names
}

// Set switches one report on or off. "all" addresses every report.
func (r *Reports) Set(name string, on bool) error {
	name = strings.TrimSpace(name)
	found := false
	for _, t := range r.toggles() {
		if name == "all" || strings.EqualFold(t.name, name) {
			*t.flag = on
			found = true
		}
	}
	if !found {
		return fmt.Errorf("%w: unknown report %q", core.ErrInvalidOptions, name)
	}
	return nil
}

// RangeConfig narrows the scan range. Zero means the store's own bound.
type RangeConfig struct {
	First int `yaml:"first"`
	Last  int `yaml:"last"`
}

// AveragingConfig selects the scans to average and the merge tolerance.
type AveragingConfig struct {
	Filter         string  `yaml:"filter"`
	ToleranceUnits string  `yaml:"toleranceUnits"`
	ToleranceValue float64 `yaml:"toleranceValue"`
}

// Options converts the configuration to averaging options.
func (a AveragingConfig) Options() (core.AverageOptions, error) {
	units, err := core.ParseToleranceUnits(a.ToleranceUnits)
	if err != nil {
		return core.AverageOptions{}, err
	}
	opts := core.AverageOptions{ToleranceUnits: units, ToleranceValue: a.ToleranceValue}
	return opts, opts.Validate()
}

// ChromatogramConfig controls the chromatogram and mass chromatogram reports.
type ChromatogramConfig struct {
	Trace    string  `yaml:"trace"`
	MassLow  float64 `yaml:"massLow"`
	MassHigh float64 `yaml:"massHigh"`
}

// MassRange returns the configured window, or nil when none is set.
func (c ChromatogramConfig) MassRange() *core.MassRange {
	if c.MassLow == 0 && c.MassHigh == 0 {
		return nil
	}
	return &core.MassRange{Low: c.MassLow, High: c.MassHigh}
}

// InclusionConfig controls table parsing and precursor matching.
type InclusionConfig struct {
	RelativeTolerance float64 `yaml:"relativeTolerance"`
	Policy            string  `yaml:"policy"`
	StartMarker       string  `yaml:"startMarker"`
	EndMarker         string  `yaml:"endMarker"`
	Separator         string  `yaml:"separator"`
	HeaderToken       string  `yaml:"headerToken"`
	Exclusion         bool    `yaml:"exclusion"`
}

// Table returns the inclusion table layout.
func (i InclusionConfig) Table() inclusion.Table {
	return inclusion.Table{
		StartMarker: i.StartMarker,
		EndMarker:   i.EndMarker,
		Separator:   i.Separator,
		HeaderToken: i.HeaderToken,
	}
}

// PrecisionConfig selects the scan to estimate and the fallback resolution.
// Scan zero means the first MS1 scan with centroid data. A zero resolution
// falls back to the analyzer's nominal value.
type PrecisionConfig struct {
	Scan       int     `yaml:"scan"`
	Resolution float64 `yaml:"resolution"`
}

// SpectrumConfig controls the spectrum read and centroiding reports. Scan
// zero means the first scan of the range.
type SpectrumConfig struct {
	Scan   int     `yaml:"scan"`
	TopN   int     `yaml:"topN"`
	Cutoff float64 `yaml:"cutoff"` // percent of base peak
}

// SequenceConfig controls the sequence file report. An empty Output writes
// <run>.sequence.yaml next to the run file.
type SequenceConfig struct {
	Output  string `yaml:"output"`
	Samples int    `yaml:"samples"`
}

// AnalogConfig selects the analog channel (1-based).
type AnalogConfig struct {
	Channel int `yaml:"channel"`
}

// BatchConfig controls the batch command.
type BatchConfig struct {
	Workers int `yaml:"workers"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig controls the metrics textfile written at the end of a run.
type MetricsConfig struct {
	Textfile string `yaml:"textfile"`
}

// Load reads a YAML config file (if provided), applies environment-variable
// overrides and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the configuration used when no file is given. Only the
// scan analysis report is on.
func Default() *Config {
	return &Config{
		Reports: Reports{ScanAnalysis: true},
		Averaging: AveragingConfig{
			Filter:         "ms",
			ToleranceUnits: "ppm",
			ToleranceValue: 5,
		},
		Chromatogram: ChromatogramConfig{Trace: "basepeak"},
		Inclusion: InclusionConfig{
			RelativeTolerance: 1e-5,
			Policy:            "first",
			StartMarker:       inclusion.InclusionTable.StartMarker,
			EndMarker:         inclusion.InclusionTable.EndMarker,
			Separator:         inclusion.InclusionTable.Separator,
			HeaderToken:       inclusion.InclusionTable.HeaderToken,
		},
		Sequence: SequenceConfig{Samples: 10},
		Analog:   AnalogConfig{Channel: 1},
		Batch:    BatchConfig{Workers: 4},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		MaxLines: 20,
	}
}

// Validate checks option values that would otherwise fail mid-run.
func (c *Config) Validate() error {
	if c.Range.First < 0 || c.Range.Last < 0 {
		return fmt.Errorf("%w: scan range must not be negative", core.ErrInvalidOptions)
	}
	if c.Range.Last != 0 && c.Range.First > c.Range.Last {
		return fmt.Errorf("%w: first scan %d after last scan %d", core.ErrInvalidOptions, c.Range.First, c.Range.Last)
	}
	if _, err := c.Averaging.Options(); err != nil {
		return fmt.Errorf("averaging: %w", err)
	}
	if _, err := chromatogram.ParseTraceType(c.Chromatogram.Trace); err != nil {
		return fmt.Errorf("chromatogram: %w", err)
	}
	if c.Chromatogram.MassHigh < c.Chromatogram.MassLow {
		return fmt.Errorf("%w: chromatogram mass range %g-%g", core.ErrInvalidOptions, c.Chromatogram.MassLow, c.Chromatogram.MassHigh)
	}
	if c.Inclusion.RelativeTolerance <= 0 {
		return fmt.Errorf("%w: inclusion relative tolerance must be positive", core.ErrInvalidOptions)
	}
	if _, err := inclusion.ParsePolicy(c.Inclusion.Policy); err != nil {
		return fmt.Errorf("inclusion: %w", err)
	}
	if c.Inclusion.StartMarker == "" || c.Inclusion.EndMarker == "" || c.Inclusion.Separator == "" {
		return fmt.Errorf("%w: inclusion table markers and separator are required", core.ErrInvalidOptions)
	}
	if c.Spectrum.TopN < 0 || c.Spectrum.Cutoff < 0 || c.Spectrum.Cutoff > 100 {
		return fmt.Errorf("%w: spectrum topN must be >= 0 and cutoff within 0-100", core.ErrInvalidOptions)
	}
	if c.MaxLines < 0 {
		return fmt.Errorf("%w: maxLines must not be negative", core.ErrInvalidOptions)
	}
	if c.Sequence.Samples < 1 {
		return fmt.Errorf("%w: sequence needs at least one sample", core.ErrInvalidOptions)
	}
	if c.Analog.Channel < 1 {
		return fmt.Errorf("%w: analog channel is 1-based", core.ErrInvalidOptions)
	}
	if c.Batch.Workers < 1 {
		return fmt.Errorf("%w: batch workers must be at least 1", core.ErrInvalidOptions)
	}
	return nil
}

// applyEnvOverrides reads RAWINSPECT_* environment variables and overrides
// the corresponding config fields.
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("RAWINSPECT_REPORTS"); v != "" {
		for _, name := range strings.Split(v, ",") {
			if err := cfg.Reports.Set(name, true); err != nil {
				return fmt.Errorf("RAWINSPECT_REPORTS: %w", err)
			}
		}
	}
	if v := os.Getenv("RAWINSPECT_FIRST_SCAN"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Range.First = n
		}
	}
	if v := os.Getenv("RAWINSPECT_LAST_SCAN"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Range.Last = n
		}
	}
	if v := os.Getenv("RAWINSPECT_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("RAWINSPECT_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("RAWINSPECT_METRICS_TEXTFILE"); v != "" {
		cfg.Metrics.Textfile = v
	}
	if v := os.Getenv("RAWINSPECT_BATCH_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Batch.Workers = n
		}
	}
	return nil
}
