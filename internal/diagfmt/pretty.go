package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"ember/internal/diag"
	"ember/internal/source"
)

// Pretty форматирует диагностики в человекочитаемый вид.
// Идёт по bag.Items() (ожидается bag.Sort() заранее).
// Для каждого diag печатает:
// <path>:<line>:<col>: <SEV> <CODE>: <Message>
// затем строку исходника с подчёркиванием ^~~~ по Span, затем Notes.
// Диагностики без файла (дерево без позиций) печатаются одной строкой.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) {
	p := newPainter(opts.Color)
	for _, d := range bag.Items() {
		writeHeader(w, p, fs, opts, d.Primary, sevLabel(p, d.Severity), d.Code.ID(), d.Message)
		writeSnippet(w, p, fs, opts, d.Primary, d.Severity)
		if !opts.ShowNotes {
			continue
		}
		for _, n := range d.Notes {
			writeHeader(w, p, fs, opts, n.Span, p.note("note"), "", n.Msg)
			writeSnippet(w, p, fs, opts, n.Span, diag.SevInfo)
		}
	}
	if n := bag.Dropped(); n > 0 {
		fmt.Fprintf(w, "%s\n", p.note(fmt.Sprintf("... %d more diagnostics not shown (raise --max-diagnostics)", n)))
	}
}

type painter struct {
	err, warn, info, noteC, bold, gutter *color.Color
}

func newPainter(enabled bool) painter {
	mk := func(attrs ...color.Attribute) *color.Color {
		c := color.New(attrs...)
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
		return c
	}
	return painter{
		err:    mk(color.FgRed, color.Bold),
		warn:   mk(color.FgYellow, color.Bold),
		info:   mk(color.FgCyan, color.Bold),
		noteC:  mk(color.FgGreen),
		bold:   mk(color.Bold),
		gutter: mk(color.FgBlue),
	}
}

func (p painter) note(s string) string { return p.noteC.Sprint(s) }

func sevLabel(p painter, sev diag.Severity) string {
	switch sev {
	case diag.SevError:
		return p.err.Sprint("error")
	case diag.SevWarning:
		return p.warn.Sprint("warning")
	default:
		return p.info.Sprint("info")
	}
}

func writeHeader(w io.Writer, p painter, fs *source.FileSet, opts PrettyOpts, sp source.Span, label, code, msg string) {
	loc := ""
	if start, _, ok := fs.Resolve(sp); ok {
		loc = fmt.Sprintf("%s:%d:%d: ", formatPath(fs, sp.File, opts.PathMode, opts.BaseDir), start.Line, start.Col)
	}
	if code != "" {
		label = fmt.Sprintf("%s %s", label, code)
	}
	fmt.Fprintf(w, "%s%s: %s\n", p.bold.Sprint(loc), label, p.bold.Sprint(msg))
}

func writeSnippet(w io.Writer, p painter, fs *source.FileSet, opts PrettyOpts, sp source.Span, sev diag.Severity) {
	f := fs.Get(sp.File)
	if f == nil {
		return
	}
	start, end, ok := fs.Resolve(sp)
	if !ok {
		return
	}
	line := f.Line(start.Line)
	if opts.Width > 0 {
		line = runewidth.Truncate(line, int(opts.Width), "…")
	}
	num := fmt.Sprintf("%d", start.Line)
	pad := strings.Repeat(" ", len(num))
	fmt.Fprintf(w, "%s |\n", p.gutter.Sprint(pad))
	fmt.Fprintf(w, "%s | %s\n", p.gutter.Sprint(num), line)

	// колонки в байтах, выравниваем по ширине отображения
	col := int(start.Col) - 1
	if col > len(line) {
		col = len(line)
	}
	lead := runewidth.StringWidth(line[:col])
	width := 1
	if end.Line == start.Line && end.Col > start.Col {
		stop := int(end.Col) - 1
		if stop > len(line) {
			stop = len(line)
		}
		width = max(runewidth.StringWidth(line[col:stop]), 1)
	}
	marker := "^" + strings.Repeat("~", width-1)
	switch sev {
	case diag.SevError:
		marker = p.err.Sprint(marker)
	case diag.SevWarning:
		marker = p.warn.Sprint(marker)
	default:
		marker = p.noteC.Sprint(marker)
	}
	fmt.Fprintf(w, "%s | %s%s\n", p.gutter.Sprint(pad), strings.Repeat(" ", lead), marker)
}
