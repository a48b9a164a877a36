package diag

import "ember/internal/source"

// Reporter receives diagnostics from the passes. The pipeline chains
// CountingReporter -> DedupReporter -> BagReporter.
type Reporter interface {
	Report(code Code, sev Severity, primary source.Span, msg string, notes []Note, fixes []Fix)
}

// BagReporter stores into Bag.
type BagReporter struct{ Bag *Bag }

func (r BagReporter) Report(code Code, sev Severity, primary source.Span, msg string, notes []Note, fixes []Fix) {
	if r.Bag != nil {
		r.Bag.Add(Diagnostic{Severity: sev, Code: code, Message: msg, Primary: primary, Notes: notes, Fixes: fixes})
	}
}

// NopReporter drops everything.
type NopReporter struct{}

func (NopReporter) Report(Code, Severity, source.Span, string, []Note, []Fix) {}

// MultiReporter fans a diagnostic out to every non-nil reporter.
type MultiReporter []Reporter

func (m MultiReporter) Report(code Code, sev Severity, primary source.Span, msg string, notes []Note, fixes []Fix) {
	for _, r := range m {
		if r != nil {
			r.Report(code, sev, primary, msg, notes, fixes)
		}
	}
}

// DedupReporter forwards each (code, severity, span, message) once. The
// resolver can reach one bad type from several declarations. Reports without
// a span always pass: the same text may come from unrelated functions.
type DedupReporter struct {
	next Reporter
	seen map[dedupKey]struct{}
}

type dedupKey struct {
	code Code
	sev  Severity
	span source.Span
	msg  string
}

func NewDedupReporter(next Reporter) *DedupReporter {
	return &DedupReporter{next: next, seen: make(map[dedupKey]struct{})}
}

func (r *DedupReporter) Report(code Code, sev Severity, primary source.Span, msg string, notes []Note, fixes []Fix) {
	if r == nil {
		return
	}
	if primary != (source.Span{}) {
		k := dedupKey{code: code, sev: sev, span: primary, msg: msg}
		if _, dup := r.seen[k]; dup {
			return
		}
		r.seen[k] = struct{}{}
	}
	if r.next != nil {
		r.next.Report(code, sev, primary, msg, notes, fixes)
	}
}

// CountingReporter counts errors on their way to next; passes return the
// count as their checkpoint value.
type CountingReporter struct {
	next   Reporter
	errors int
}

func NewCountingReporter(next Reporter) *CountingReporter {
	return &CountingReporter{next: next}
}

func (r *CountingReporter) Report(code Code, sev Severity, primary source.Span, msg string, notes []Note, fixes []Fix) {
	if sev >= SevError {
		r.errors++
	}
	if r.next != nil {
		r.next.Report(code, sev, primary, msg, notes, fixes)
	}
}

// Errors returns how many errors passed through.
func (r *CountingReporter) Errors() int {
	if r == nil {
		return 0
	}
	return r.errors
}
