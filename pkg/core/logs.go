package core

import (
	"fmt"
	"strconv"
	"strings"
)

// FieldType is the declared data type of a trailer or status field.
type FieldType int

const (
	FieldNull FieldType = iota
	FieldInt
	FieldDouble
	FieldString
)

func (t FieldType) String() string {
	switch t {
	case FieldInt:
		return "Int"
	case FieldDouble:
		return "Double"
	case FieldString:
		return "String"
	default:
		return "Null"
	}
}

// ParseFieldType maps a type name back to a FieldType. Unknown names are Null.
func ParseFieldType(s string) FieldType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "int", "long", "short", "uint":
		return FieldInt
	case "double", "float":
		return FieldDouble
	case "string", "text":
		return FieldString
	default:
		return FieldNull
	}
}

// TrailerField describes one trailer or status log column. Position is stable
// within a run.
type TrailerField struct {
	Position int
	Label    string
	DataType FieldType
}

// LogValue is one labelled value of a log entry.
type LogValue struct {
	Label string
	Value string
}

// LogEntry is an ordered set of label/value pairs for one scan or one
// retention-time sample.
type LogEntry struct {
	Time   float64 // Retention time of the sample, minutes
	Values []LogValue
}

// Get returns the value for an exact label. Trailing colons and surrounding
// spaces are ignored, as vendors label fields like "Ion Injection Time (ms):".
func (e LogEntry) Get(label string) (string, bool) {
	want := normalizeLabel(label)
	for _, v := range e.Values {
		if normalizeLabel(v.Label) == want {
			return v.Value, true
		}
	}
	return "", false
}

// Float returns the numeric value for an exact label.
func (e LogEntry) Float(label string) (float64, error) {
	raw, ok := e.Get(label)
	if !ok {
		return 0, fmt.Errorf("log field %q not present", label)
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, fmt.Errorf("log field %q: %w", label, err)
	}
	return f, nil
}

// FindPrefix returns the first entry whose normalized label starts with any
// of the given prefixes (case-insensitive).
func (e LogEntry) FindPrefix(prefixes ...string) (LogValue, bool) {
	for _, v := range e.Values {
		label := strings.ToLower(normalizeLabel(v.Label))
		for _, p := range prefixes {
			if strings.HasPrefix(label, strings.ToLower(p)) {
				return v, true
			}
		}
	}
	return LogValue{}, false
}

func normalizeLabel(label string) string {
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(label), ":"))
}
