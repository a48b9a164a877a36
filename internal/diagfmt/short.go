package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"ember/internal/diag"
	"ember/internal/source"
)

// Short печатает по одной строке на диагностику:
// <severity> <CODE> <path>:<line>:<col> <message>
// Без позиции строка выглядит как <severity> <CODE> <message>.
func Short(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) {
	for _, d := range bag.Items() {
		writeShort(w, fs, opts, strings.ToLower(d.Severity.String()), d.Code.ID(), d.Primary, d.Message)
		if !opts.ShowNotes {
			continue
		}
		for _, n := range d.Notes {
			writeShort(w, fs, opts, "note", d.Code.ID(), n.Span, n.Msg)
		}
	}
	if n := bag.Dropped(); n > 0 {
		fmt.Fprintf(w, "info dropped %d diagnostics\n", n)
	}
}

func writeShort(w io.Writer, fs *source.FileSet, opts PrettyOpts, sev, code string, sp source.Span, msg string) {
	msg = strings.Join(strings.Fields(msg), " ")
	if start, _, ok := fs.Resolve(sp); ok {
		fmt.Fprintf(w, "%s %s %s:%d:%d %s\n", sev, code, formatPath(fs, sp.File, opts.PathMode, opts.BaseDir), start.Line, start.Col, msg)
		return
	}
	fmt.Fprintf(w, "%s %s %s\n", sev, code, msg)
}
