package core

import (
	"cmp"
	"fmt"
	"strings"
)

// InclusionItem is one row of an inclusion or exclusion target table.
// ScanNumber is 0 until a matching MS2 scan has been assigned.
type InclusionItem struct {
	Descriptor  string
	Mass        float64
	Threshold   float64
	ScanNumber  int
	IsExclusion bool
}

// Compare orders items by descriptor (ordinal), then mass, then threshold,
// then scan number. The first non-equal key decides.
func Compare(a, b InclusionItem) int {
	if c := strings.Compare(a.Descriptor, b.Descriptor); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Mass, b.Mass); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Threshold, b.Threshold); c != 0 {
		return c
	}
	return cmp.Compare(a.ScanNumber, b.ScanNumber)
}

// Matched reports whether a scan has been assigned.
func (i InclusionItem) Matched() bool {
	return i.ScanNumber != 0
}

func (i InclusionItem) String() string {
	kind := "inclusion"
	if i.IsExclusion {
		kind = "exclusion"
	}
	return fmt.Sprintf("%s %s m/z=%.4f threshold=%g scan=%d", kind, i.Descriptor, i.Mass, i.Threshold, i.ScanNumber)
}

// ChromatogramPoint is one sample of an intensity trace.
type ChromatogramPoint struct {
	Time      float64
	Intensity float64
}
