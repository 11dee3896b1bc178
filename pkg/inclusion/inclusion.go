// Package inclusion reconstructs inclusion and exclusion target tables from
// instrument method text and matches them against acquired MS2 scans.
package inclusion

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/ChrisMcGann/RawInspect/pkg/core"
	"github.com/ChrisMcGann/RawInspect/pkg/scan"
	"github.com/ChrisMcGann/RawInspect/pkg/store"
)

// Table describes how a target table is delimited inside method text.
type Table struct {
	StartMarker string
	EndMarker   string
	Separator   string
	HeaderToken string // A row whose first field equals this token is the column header
	Exclusion   bool
}

// InclusionTable is the default inclusion mass list layout.
var InclusionTable = Table{
	StartMarker: "Mass List Table",
	EndMarker:   "End Mass List Table",
	Separator:   "|",
	HeaderToken: "CompoundName",
}

// ExclusionTable is the default exclusion mass list layout.
var ExclusionTable = Table{
	StartMarker: "Exclusion List Table",
	EndMarker:   "End Exclusion List Table",
	Separator:   "|",
	HeaderToken: "CompoundName",
	Exclusion:   true,
}

const tableFields = 4

// Parse collects the table rows found in the method texts. Each row must
// have exactly four fields (descriptor, mass, threshold, reserved); other
// rows, the header and rows with unparsable numbers are skipped.
func Parse(texts []string, tbl Table) []core.InclusionItem {
	var items []core.InclusionItem
	for _, text := range texts {
		items = append(items, parseText(text, tbl)...)
	}
	return items
}

func parseText(text string, tbl Table) []core.InclusionItem {
	var items []core.InclusionItem
	inTable := false

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(strings.TrimSuffix(raw, "\r"))

		if !inTable {
			if line == tbl.StartMarker {
				inTable = true
			}
			continue
		}
		if line == tbl.EndMarker {
			inTable = false
			continue
		}
		fields := strings.Split(line, tbl.Separator)
		if len(fields) != tableFields {
			continue
		}
		if tbl.HeaderToken != "" && strings.TrimSpace(fields[0]) == tbl.HeaderToken {
			continue
		}

		mass, err := strconv.ParseFloat(strings.TrimSpace(fields[1]), 64)
		if err != nil {
			continue
		}
		threshold, err := strconv.ParseFloat(strings.TrimSpace(fields[2]), 64)
		if err != nil {
			continue
		}

		items = append(items, core.InclusionItem{
			Descriptor:  strings.TrimSpace(fields[0]),
			Mass:        mass,
			Threshold:   threshold,
			IsExclusion: tbl.Exclusion,
		})
	}

	return items
}

// ParseStore reads every method text of the store and parses tbl from them.
func ParseStore(s store.Store, tbl Table) ([]core.InclusionItem, error) {
	texts := make([]string, 0, s.MethodCount())
	for i := 0; i < s.MethodCount(); i++ {
		text, err := s.MethodText(i)
		if err != nil {
			return nil, fmt.Errorf("reading method %d: %w", i, err)
		}
		texts = append(texts, text)
	}
	return Parse(texts, tbl), nil
}

// Policy decides what happens when an already assigned item matches again.
type Policy int

const (
	// FirstAssignmentWins only lets unassigned items match.
	FirstAssignmentWins Policy = iota
	// LastMatchWins lets every match overwrite the assignment.
	LastMatchWins
)

// ParsePolicy maps "first" or "last" to a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "first":
		return FirstAssignmentWins, nil
	case "last":
		return LastMatchWins, nil
	default:
		return 0, fmt.Errorf("%w: unknown match policy %q", core.ErrInvalidOptions, s)
	}
}

// Matcher assigns MS2 scans to table items.
type Matcher struct {
	Store             store.Store
	RelativeTolerance float64
	Policy            Policy
	Logger            *slog.Logger
}

// NewMatcher creates a matcher with the first-assignment policy.
func NewMatcher(s store.Store, relativeTolerance float64, logger *slog.Logger) *Matcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Matcher{Store: s, RelativeTolerance: relativeTolerance, Logger: logger}
}

// Match walks scans first..last and, for each MS2 scan, assigns the scan
// number to the first eligible item whose mass lies within
// precursor*RelativeTolerance of the first-stage precursor. Items are
// modified in place; at most one item is assigned per scan.
func (m *Matcher) Match(items []core.InclusionItem, first, last int) *scan.Failures {
	failures := scan.NewFailures(m.Logger)

	for n := first; n <= last; n++ {
		event, err := m.Store.ScanEventFor(n)
		if err != nil {
			failures.Record(n, err)
			continue
		}
		order := event.MSOrder
		if order == core.MSOrderUnknown {
			desc, err := m.Store.FilterFor(n)
			if err != nil {
				failures.Record(n, err)
				continue
			}
			order = desc.MSOrder
		}
		if order != core.MS2 {
			continue
		}
		if len(event.Reactions) == 0 {
			failures.Record(n, fmt.Errorf("ms2 scan without precursor reaction"))
			continue
		}

		precursor := event.Reactions[0].PrecursorMass
		tolerance := math.Abs(precursor * m.RelativeTolerance)

		for i := range items {
			if m.Policy == FirstAssignmentWins && items[i].ScanNumber != 0 {
				continue
			}
			if items[i].Mass >= precursor-tolerance && items[i].Mass <= precursor+tolerance {
				items[i].ScanNumber = n
				break
			}
		}
	}

	return failures
}

// Sort orders items by descriptor, mass, threshold and scan number.
func Sort(items []core.InclusionItem) {
	sort.SliceStable(items, func(i, j int) bool {
		return core.Compare(items[i], items[j]) < 0
	})
}

// Unmatched returns the items no scan was assigned to.
func Unmatched(items []core.InclusionItem) []core.InclusionItem {
	var out []core.InclusionItem
	for _, it := range items {
		if !it.Matched() {
			out = append(out, it)
		}
	}
	return out
}
