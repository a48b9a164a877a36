package diagfmt

import (
	"encoding/json"
	"io"

	"ember/internal/diag"
	"ember/internal/source"
)

// LocationJSON is a span, with a file and line/column when the source is
// loaded. Trees without a source keep only the byte offsets.
type LocationJSON struct {
	File      string `json:"file,omitempty"`
	StartByte uint32 `json:"start_byte"`
	EndByte   uint32 `json:"end_byte"`
	StartLine uint32 `json:"start_line,omitempty"`
	StartCol  uint32 `json:"start_col,omitempty"`
	EndLine   uint32 `json:"end_line,omitempty"`
	EndCol    uint32 `json:"end_col,omitempty"`
}

type NoteJSON struct {
	Message  string       `json:"message"`
	Location LocationJSON `json:"location"`
}

type EditJSON struct {
	Location LocationJSON `json:"location"`
	NewText  string       `json:"new_text"`
}

type FixJSON struct {
	Title string     `json:"title"`
	Edits []EditJSON `json:"edits"`
}

type DiagnosticJSON struct {
	Severity string       `json:"severity"`
	Code     string       `json:"code"`
	Message  string       `json:"message"`
	Location LocationJSON `json:"location"`
	Notes    []NoteJSON   `json:"notes,omitempty"`
	Fixes    []FixJSON    `json:"fixes,omitempty"`
}

// DiagnosticsOutput is the document written by JSON.
type DiagnosticsOutput struct {
	Diagnostics []DiagnosticJSON `json:"diagnostics"`
	Count       int              `json:"count"`
	Errors      int              `json:"errors"`
	// Dropped counts diagnostics past the bag limit or opts.Max.
	Dropped int `json:"dropped,omitempty"`
}

type locator struct {
	fs   *source.FileSet
	opts JSONOpts
}

func (l locator) at(sp source.Span) LocationJSON {
	loc := LocationJSON{StartByte: sp.Start, EndByte: sp.End}
	if l.fs == nil || l.fs.Get(sp.File) == nil {
		return loc
	}
	loc.File = formatPath(l.fs, sp.File, l.opts.PathMode, l.opts.BaseDir)
	if !l.opts.IncludePositions {
		return loc
	}
	if start, end, ok := l.fs.Resolve(sp); ok {
		loc.StartLine, loc.StartCol = start.Line, start.Col
		loc.EndLine, loc.EndCol = end.Line, end.Col
	}
	return loc
}

// BuildDiagnosticsOutput converts the bag without encoding it. Notes are
// included with opts.IncludeNotes, and always for the timings report.
func BuildDiagnosticsOutput(bag *diag.Bag, fs *source.FileSet, opts JSONOpts) DiagnosticsOutput {
	items := bag.Items()
	out := DiagnosticsOutput{Errors: bag.Errors(), Dropped: bag.Dropped()}
	if opts.Max > 0 && len(items) > opts.Max {
		out.Dropped += len(items) - opts.Max
		items = items[:opts.Max]
	}
	l := locator{fs: fs, opts: opts}
	out.Diagnostics = make([]DiagnosticJSON, 0, len(items))
	for i := range items {
		d := &items[i]
		dj := DiagnosticJSON{
			Severity: d.Severity.String(),
			Code:     d.Code.ID(),
			Message:  d.Message,
			Location: l.at(d.Primary),
		}
		if opts.IncludeNotes || d.Code == diag.ObsTimings {
			for _, n := range d.Notes {
				dj.Notes = append(dj.Notes, NoteJSON{Message: n.Msg, Location: l.at(n.Span)})
			}
		}
		for _, f := range d.Fixes {
			fj := FixJSON{Title: f.Title, Edits: make([]EditJSON, len(f.Edits))}
			for k, e := range f.Edits {
				fj.Edits[k] = EditJSON{Location: l.at(e.Span), NewText: e.NewText}
			}
			dj.Fixes = append(dj.Fixes, fj)
		}
		out.Diagnostics = append(out.Diagnostics, dj)
	}
	out.Count = len(out.Diagnostics)
	return out
}

// JSON writes the bag as one indented document.
func JSON(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts JSONOpts) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(BuildDiagnosticsOutput(bag, fs, opts))
}
