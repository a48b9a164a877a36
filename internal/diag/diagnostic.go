package diag

import "ember/internal/source"

// Severity orders diagnostics; anything at SevError stops the pipeline at
// the next checkpoint.
type Severity uint8

const (
	SevInfo Severity = iota
	SevWarning
	SevError
)

var severityNames = [...]string{SevInfo: "INFO", SevWarning: "WARNING", SevError: "ERROR"}

func (s Severity) String() string {
	if int(s) < len(severityNames) {
		return severityNames[s]
	}
	return "UNKNOWN"
}

// Note points at a related location, e.g. the first declaration of a
// duplicate.
type Note struct {
	Span source.Span
	Msg  string
}

// FixEdit replaces Span with NewText.
type FixEdit struct {
	Span    source.Span
	NewText string
}

// Fix is a suggested change made of edits applied together.
type Fix struct {
	Title string
	Edits []FixEdit
}

// Diagnostic is one reported problem.
type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Primary  source.Span
	Notes    []Note
	Fixes    []Fix
}

// New builds a diagnostic without notes or fixes.
func New(sev Severity, code Code, primary source.Span, msg string) Diagnostic {
	return Diagnostic{Severity: sev, Code: code, Primary: primary, Message: msg}
}

// NewError is New at SevError.
func NewError(code Code, primary source.Span, msg string) Diagnostic {
	return New(SevError, code, primary, msg)
}

// IsError reports whether d blocks the pipeline.
func (d *Diagnostic) IsError() bool { return d.Severity >= SevError }

func (d Diagnostic) WithNote(sp source.Span, msg string) Diagnostic {
	d.Notes = append(d.Notes, Note{Span: sp, Msg: msg})
	return d
}

func (d Diagnostic) WithFix(title string, edits ...FixEdit) Diagnostic {
	d.Fixes = append(d.Fixes, Fix{Title: title, Edits: edits})
	return d
}
