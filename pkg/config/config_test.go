package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/ChrisMcGann/RawInspect/pkg/core"
)

func TestDefaultEnablesOnlyScanAnalysis(t *testing.T) {
	cfg := Default()

	enabled := cfg.Reports.Enabled()
	if !reflect.DeepEqual(enabled, []string{"scanAnalysis"}) {
		t.Errorf("Expected only scanAnalysis enabled, got %v", enabled)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Expected default config to validate, got %v", err)
	}
	if len(cfg.Reports.Names()) != 14 {
		t.Errorf("Expected 14 report toggles, got %d", len(cfg.Reports.Names()))
	}
}

func TestReportsSet(t *testing.T) {
	var r Reports

	if err := r.Set("inclusionList", true); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !r.InclusionList {
		t.Error("Expected inclusionList to be enabled")
	}
	if err := r.Set("CHROMATOGRAM", true); err != nil || !r.Chromatogram {
		t.Errorf("Expected case-insensitive match, got %v", err)
	}
	if err := r.Set("nope", true); !errors.Is(err, core.ErrInvalidOptions) {
		t.Errorf("Expected ErrInvalidOptions, got %v", err)
	}

	if err := r.Set("all", true); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(r.Enabled()) != 14 {
		t.Errorf("Expected all 14 reports enabled, got %d", len(r.Enabled()))
	}
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rawinspect.yaml")
	data := `
reports:
  scanAnalysis: false
  averaging: true
  precision: true
averaging:
  filter: "ms2"
  toleranceUnits: mDa
  toleranceValue: 2.5
range:
  first: 10
  last: 20
logging:
  level: debug
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if !reflect.DeepEqual(cfg.Reports.Enabled(), []string{"averaging", "precision"}) {
		t.Errorf("Expected averaging and precision, got %v", cfg.Reports.Enabled())
	}
	opts, err := cfg.Averaging.Options()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if opts.ToleranceUnits != core.ToleranceMilliDa || opts.ToleranceValue != 2.5 {
		t.Errorf("Expected 2.5 mDa, got %v %v", opts.ToleranceValue, opts.ToleranceUnits)
	}
	if cfg.Range.First != 10 || cfg.Range.Last != 20 {
		t.Errorf("Expected range 10-20, got %d-%d", cfg.Range.First, cfg.Range.Last)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "text" {
		t.Errorf("Expected debug/text logging, got %s/%s", cfg.Logging.Level, cfg.Logging.Format)
	}
	// Untouched sections keep their defaults
	if cfg.Inclusion.RelativeTolerance != 1e-5 {
		t.Errorf("Expected default inclusion tolerance, got %v", cfg.Inclusion.RelativeTolerance)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("RAWINSPECT_REPORTS", "statusLog,trailerFields")
	t.Setenv("RAWINSPECT_LAST_SCAN", "50")
	t.Setenv("RAWINSPECT_LOGGING_FORMAT", "json")
	t.Setenv("RAWINSPECT_METRICS_TEXTFILE", "/tmp/rawinspect.prom")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if !cfg.Reports.StatusLog || !cfg.Reports.TrailerFields || !cfg.Reports.ScanAnalysis {
		t.Errorf("Expected env reports added to defaults, got %v", cfg.Reports.Enabled())
	}
	if cfg.Range.Last != 50 {
		t.Errorf("Expected last scan 50, got %d", cfg.Range.Last)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Expected json format, got %s", cfg.Logging.Format)
	}
	if cfg.Metrics.Textfile != "/tmp/rawinspect.prom" {
		t.Errorf("Expected textfile override, got %s", cfg.Metrics.Textfile)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Expected error for missing file")
	}

	t.Setenv("RAWINSPECT_REPORTS", "bogus")
	if _, err := Load(""); !errors.Is(err, core.ErrInvalidOptions) {
		t.Errorf("Expected ErrInvalidOptions for unknown report, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"negative first", func(c *Config) { c.Range.First = -1 }},
		{"inverted range", func(c *Config) { c.Range.First, c.Range.Last = 10, 5 }},
		{"zero tolerance", func(c *Config) { c.Averaging.ToleranceValue = 0 }},
		{"bad units", func(c *Config) { c.Averaging.ToleranceUnits = "furlongs" }},
		{"bad trace", func(c *Config) { c.Chromatogram.Trace = "uv" }},
		{"inverted mass range", func(c *Config) { c.Chromatogram.MassLow, c.Chromatogram.MassHigh = 500, 400 }},
		{"bad policy", func(c *Config) { c.Inclusion.Policy = "random" }},
		{"no separator", func(c *Config) { c.Inclusion.Separator = "" }},
		{"cutoff over 100", func(c *Config) { c.Spectrum.Cutoff = 150 }},
		{"analog channel zero", func(c *Config) { c.Analog.Channel = 0 }},
		{"no workers", func(c *Config) { c.Batch.Workers = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			if err := cfg.Validate(); !errors.Is(err, core.ErrInvalidOptions) {
				t.Errorf("Expected ErrInvalidOptions, got %v", err)
			}
		})
	}
}

func TestMassRange(t *testing.T) {
	c := ChromatogramConfig{}
	if c.MassRange() != nil {
		t.Error("Expected nil mass range when unset")
	}
	c.MassLow, c.MassHigh = 400, 500
	r := c.MassRange()
	if r == nil || !r.Contains(450) || r.Contains(501) {
		t.Errorf("Unexpected mass range %v", r)
	}
}
