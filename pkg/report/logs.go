package report

import (
	"github.com/ChrisMcGann/RawInspect/pkg/core"
	"github.com/ChrisMcGann/RawInspect/pkg/scan"
	"github.com/ChrisMcGann/RawInspect/pkg/trailer"
)

func (r *Runner) trailerFields(sess *session) (*scan.Failures, error) {
	return r.logReport(sess, trailer.TrailerLog)
}

func (r *Runner) statusLog(sess *session) (*scan.Failures, error) {
	return r.logReport(sess, trailer.StatusLog)
}

// logReport prints the field catalog of a log and its entry for the first
// scan of the range.
func (r *Runner) logReport(sess *session, log trailer.Log) (*scan.Failures, error) {
	fields, err := trailer.FieldCatalog(sess.store, log)
	if err != nil {
		return nil, err
	}
	shown := trailer.Displayable(fields)
	r.printf("%s fields: %d (%d displayable)\n", log, len(fields), len(shown))
	for _, f := range shown {
		r.printf("  %d\t%s\t%s\n", f.Position, f.Label, f.DataType)
	}

	entry, err := trailer.LookupByScan(sess.store, log, sess.first)
	if err != nil {
		return nil, err
	}
	r.printf("%s entry for scan %d (%.4f min):\n", log, sess.first, entry.Time)
	r.printEntry(entry, shown)
	return nil, nil
}

func (r *Runner) printEntry(entry core.LogEntry, fields []core.TrailerField) {
	printed := 0
	for _, f := range fields {
		if printed >= r.limit(len(fields)) {
			break
		}
		v, ok := entry.Get(f.Label)
		if !ok {
			continue
		}
		r.printf("  %s %s\n", f.Label, v)
		printed++
	}
}
