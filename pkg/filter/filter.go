// Package filter provides scan-filter matching and peak filtering for scan records
package filter

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/ChrisMcGann/RawInspect/pkg/core"
)

// Config holds peak filtering configuration
type Config struct {
	TopN            int     // Keep only top N most intense peaks (0 = no limit)
	IntensityCutoff float64 // Keep only peaks above this % of base peak (0 = no cutoff)
	MassRange       *core.MassRange
}

// Apply returns the peaks of rec after all configured filters, sorted by m/z.
// The record itself is not modified.
func (c *Config) Apply(rec *core.ScanRecord) []core.Peak {
	peaks := RemoveZeroIntensityPeaks(rec.Peaks())

	// Restrict to mass window first
	if c.MassRange != nil {
		peaks = c.filterByMassRange(peaks)
	}

	// Apply intensity filters
	if c.IntensityCutoff > 0 {
		peaks = c.filterByIntensity(peaks)
	}

	// Apply top-N filter
	if c.TopN > 0 {
		peaks = c.filterTopN(peaks)
	}

	// Ensure peaks are sorted after all filtering
	sort.SliceStable(peaks, func(i, j int) bool {
		return peaks[i].MZ < peaks[j].MZ
	})

	return peaks
}

func (c *Config) filterByMassRange(peaks []core.Peak) []core.Peak {
	var filtered []core.Peak
	for _, peak := range peaks {
		if c.MassRange.Contains(peak.MZ) {
			filtered = append(filtered, peak)
		}
	}
	return filtered
}

// filterByIntensity removes peaks below the intensity cutoff percentage
func (c *Config) filterByIntensity(peaks []core.Peak) []core.Peak {
	if len(peaks) == 0 {
		return peaks
	}

	// Find maximum intensity
	maxIntensity := 0.0
	for _, peak := range peaks {
		if peak.Intensity > maxIntensity {
			maxIntensity = peak.Intensity
		}
	}

	// Calculate threshold
	threshold := (c.IntensityCutoff / 100.0) * maxIntensity

	var filtered []core.Peak
	for _, peak := range peaks {
		if peak.Intensity >= threshold {
			filtered = append(filtered, peak)
		}
	}

	return filtered
}

// filterTopN keeps only the N most intense peaks
func (c *Config) filterTopN(peaks []core.Peak) []core.Peak {
	if len(peaks) <= c.TopN {
		return peaks
	}

	// Create a copy and sort by intensity descending
	sorted := make([]core.Peak, len(peaks))
	copy(sorted, peaks)

	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Intensity > sorted[j].Intensity
	})

	return sorted[:c.TopN]
}

// RemoveZeroIntensityPeaks removes peaks with zero or negative intensity
func RemoveZeroIntensityPeaks(peaks []core.Peak) []core.Peak {
	var filtered []core.Peak
	for _, peak := range peaks {
		if peak.Intensity > 0 {
			filtered = append(filtered, peak)
		}
	}
	return filtered
}

// ScanFilter matches scan filter strings such as "FTMS + p ESI Full ms".
// An empty pattern matches every scan. A pattern prefixed with "re:" is a
// regular expression; otherwise its whitespace-separated tokens must occur in
// the filter text in the same order (case-insensitive).
type ScanFilter struct {
	pattern string
	tokens  []string
	re      *regexp.Regexp
}

// NewScanFilter compiles a scan filter pattern.
func NewScanFilter(pattern string) (*ScanFilter, error) {
	f := &ScanFilter{pattern: strings.TrimSpace(pattern)}

	if expr, ok := strings.CutPrefix(f.pattern, "re:"); ok {
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("invalid scan filter expression %q: %w", expr, err)
		}
		f.re = re
		return f, nil
	}

	f.tokens = tokenize(f.pattern)
	return f, nil
}

// Matches reports whether the scan filter text satisfies the pattern.
func (f *ScanFilter) Matches(text string) bool {
	if f == nil {
		return true
	}
	if f.re != nil {
		return f.re.MatchString(text)
	}
	if len(f.tokens) == 0 {
		return true
	}

	next := 0
	for _, tok := range tokenize(text) {
		if tok == f.tokens[next] {
			next++
			if next == len(f.tokens) {
				return true
			}
		}
	}
	return false
}

// String returns the pattern the filter was built from.
func (f *ScanFilter) String() string {
	if f == nil {
		return ""
	}
	return f.pattern
}

func tokenize(s string) []string {
	return strings.Fields(strings.ToLower(s))
}
