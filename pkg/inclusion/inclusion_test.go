package inclusion

import (
	"testing"

	"github.com/ChrisMcGann/RawInspect/pkg/core"
	"github.com/ChrisMcGann/RawInspect/pkg/store/memory"
)

const methodText = `Method Summary
Scan Event 1: FTMS Full ms
Mass List Table
CompoundName|m/z|Threshold|Reserved
CompoundA|500.1|1000|0
CompoundB|620.2|500|0
End Mass List Table
Exclusion List Table
CompoundName|m/z|Threshold|Reserved
Background|445.12|0|0
End Exclusion List Table
`

func TestParse(t *testing.T) {
	items := Parse([]string{methodText}, InclusionTable)

	if len(items) != 2 {
		t.Fatalf("Expected 2 items, got %d", len(items))
	}
	if items[0].Descriptor != "CompoundA" || items[0].Mass != 500.1 || items[0].Threshold != 1000 {
		t.Errorf("Unexpected first item %+v", items[0])
	}
	if items[1].Mass != 620.2 {
		t.Errorf("Expected mass 620.2, got %v", items[1].Mass)
	}
	for _, it := range items {
		if it.ScanNumber != 0 || it.IsExclusion {
			t.Errorf("Expected unassigned inclusion item, got %+v", it)
		}
	}
}

func TestParseExclusion(t *testing.T) {
	items := Parse([]string{methodText}, ExclusionTable)
	if len(items) != 1 || !items[0].IsExclusion || items[0].Mass != 445.12 {
		t.Errorf("Expected one exclusion item at 445.12, got %+v", items)
	}
}

func TestParseSkipsMalformedRows(t *testing.T) {
	text := "Mass List Table\r\n" +
		"CompoundName|m/z|Threshold|Reserved\r\n" +
		"Short|500.1|1000\r\n" +
		"TooLong|500.1|1000|0|extra\r\n" +
		"BadMass|abc|1000|0\r\n" +
		"Good|300.5|10|0\r\n" +
		"End Mass List Table\r\n" +
		"Outside|700.0|1|0\r\n"

	items := Parse([]string{text}, InclusionTable)
	if len(items) != 1 || items[0].Descriptor != "Good" {
		t.Errorf("Expected only the Good row, got %+v", items)
	}
}

func TestParseHeaderMatchesFirstField(t *testing.T) {
	text := "Mass List Table\n" +
		"CompoundName|m/z|Threshold|Reserved\n" +
		"CompoundName-7|300.1|10|0\n" +
		"Sample|400.2|20|CompoundName\n" +
		"End Mass List Table\n"

	items := Parse([]string{text}, InclusionTable)
	if len(items) != 2 {
		t.Fatalf("Expected 2 items, got %+v", items)
	}
	if items[0].Descriptor != "CompoundName-7" || items[1].Descriptor != "Sample" {
		t.Errorf("Expected CompoundName-7 and Sample, got %q and %q", items[0].Descriptor, items[1].Descriptor)
	}
}

func TestParseAcrossMethods(t *testing.T) {
	second := "Mass List Table\nCompoundC|700.3|5|0\nEnd Mass List Table"
	items := Parse([]string{methodText, "no table here", second}, InclusionTable)
	if len(items) != 3 {
		t.Errorf("Expected 3 items across methods, got %d", len(items))
	}
}

func TestMatch(t *testing.T) {
	s := memory.New(memory.Run{Scans: []memory.Scan{
		memory.CentroidScan(41, 1.0, []float64{500.10002}, []float64{1}),
		memory.MS2Scan(42, 1.1, 500.10002, []float64{200}, []float64{1}),
	}})
	items := Parse([]string{methodText}, InclusionTable)

	failures := NewMatcher(s, 1e-5, nil).Match(items, 41, 42)

	if failures.Count != 0 {
		t.Errorf("Expected no failures, got %v", failures.Messages)
	}
	if items[0].ScanNumber != 42 {
		t.Errorf("Expected CompoundA matched to scan 42, got %d", items[0].ScanNumber)
	}
	if items[1].ScanNumber != 0 {
		t.Errorf("Expected CompoundB unmatched, got %d", items[1].ScanNumber)
	}
	if un := Unmatched(items); len(un) != 1 || un[0].Descriptor != "CompoundB" {
		t.Errorf("Expected CompoundB unmatched, got %+v", un)
	}
}

func TestMatchPolicies(t *testing.T) {
	run := memory.Run{Scans: []memory.Scan{
		memory.MS2Scan(10, 1.0, 500.1, nil, nil),
		memory.MS2Scan(11, 1.1, 500.1, nil, nil),
		memory.MS2Scan(12, 1.2, 500.1, nil, nil),
	}}
	fresh := func() []core.InclusionItem {
		return []core.InclusionItem{
			{Descriptor: "A", Mass: 500.1},
			{Descriptor: "A-dup", Mass: 500.1},
		}
	}

	items := fresh()
	NewMatcher(memory.New(run), 1e-5, nil).Match(items, 10, 12)
	if items[0].ScanNumber != 10 || items[1].ScanNumber != 11 {
		t.Errorf("First-assignment policy: expected scans 10 and 11, got %d and %d", items[0].ScanNumber, items[1].ScanNumber)
	}

	items = fresh()
	m := NewMatcher(memory.New(run), 1e-5, nil)
	m.Policy = LastMatchWins
	m.Match(items, 10, 12)
	if items[0].ScanNumber != 12 || items[1].ScanNumber != 0 {
		t.Errorf("Last-match policy: expected scans 12 and 0, got %d and %d", items[0].ScanNumber, items[1].ScanNumber)
	}
}

func TestMatchRecordsFailures(t *testing.T) {
	noPrecursor := memory.MS2Scan(2, 0.2, 500.1, nil, nil)
	noPrecursor.Event.Reactions = nil
	s := memory.New(memory.Run{Scans: []memory.Scan{
		memory.MS2Scan(1, 0.1, 620.2, nil, nil),
		noPrecursor,
	}})
	items := []core.InclusionItem{{Descriptor: "B", Mass: 620.2}}

	failures := NewMatcher(s, 1e-5, nil).Match(items, 1, 3)
	if failures.Count != 2 {
		t.Errorf("Expected 2 failures (no precursor, missing scan 3), got %d", failures.Count)
	}
	if items[0].ScanNumber != 1 {
		t.Errorf("Expected match on scan 1 despite later failures, got %d", items[0].ScanNumber)
	}
}

func TestMatchFallsBackToFilterOrder(t *testing.T) {
	sc := memory.MS2Scan(7, 0.7, 500.1, nil, nil)
	sc.Event.MSOrder = core.MSOrderUnknown
	full := memory.MS2Scan(8, 0.8, 620.2, nil, nil)
	full.Event.MSOrder = core.MSOrderUnknown
	full.Filter.MSOrder = core.MS1
	s := memory.New(memory.Run{Scans: []memory.Scan{sc, full}})
	items := []core.InclusionItem{
		{Descriptor: "A", Mass: 500.1},
		{Descriptor: "B", Mass: 620.2},
	}

	failures := NewMatcher(s, 1e-5, nil).Match(items, 7, 8)
	if failures.Count != 0 {
		t.Errorf("Expected no failures, got %v", failures.Messages)
	}
	if items[0].ScanNumber != 7 {
		t.Errorf("Expected A matched to scan 7, got %d", items[0].ScanNumber)
	}
	if items[1].ScanNumber != 0 {
		t.Errorf("Expected B unmatched on an ms1 filter, got %d", items[1].ScanNumber)
	}
}

func TestSortAndPolicyParse(t *testing.T) {
	items := []core.InclusionItem{{Descriptor: "b", Mass: 1}, {Descriptor: "B", Mass: 1}, {Descriptor: "a", Mass: 2}}
	Sort(items)
	if items[0].Descriptor != "B" || items[1].Descriptor != "a" || items[2].Descriptor != "b" {
		t.Errorf("Expected ordinal order B a b, got %v %v %v", items[0].Descriptor, items[1].Descriptor, items[2].Descriptor)
	}

	if p, err := ParsePolicy("last"); err != nil || p != LastMatchWins {
		t.Errorf("Expected LastMatchWins, got %v (%v)", p, err)
	}
	if _, err := ParsePolicy("sometimes"); err == nil {
		t.Error("Expected error for unknown policy")
	}
}
