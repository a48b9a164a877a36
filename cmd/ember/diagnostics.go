package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"ember/internal/buildpipeline"
	"ember/internal/diagfmt"
)

type diagFormat string

const (
	diagFormatPretty diagFormat = "pretty"
	diagFormatShort  diagFormat = "short"
	diagFormatJSON   diagFormat = "json"
)

func readDiagFormat(value string) (diagFormat, error) {
	switch f := diagFormat(value); f {
	case diagFormatPretty, diagFormatShort, diagFormatJSON:
		return f, nil
	}
	return "", fmt.Errorf("unknown format %q (expected pretty|short|json)", value)
}

// printDiagnostics renders the bag of a compilation in pretty form.
func printDiagnostics(w io.Writer, res *buildpipeline.CompileResult) {
	_ = writeDiagnostics(w, res, diagFormatPretty, false)
}

func writeDiagnostics(w io.Writer, res *buildpipeline.CompileResult, format diagFormat, notes bool) error {
	if res == nil || res.Bag == nil {
		return nil
	}
	res.Bag.Sort()
	switch format {
	case diagFormatJSON:
		return diagfmt.JSON(w, res.Bag, res.Files, diagfmt.JSONOpts{
			IncludePositions: true,
			PathMode:         diagfmt.PathModeRelative,
			IncludeNotes:     notes,
		})
	case diagFormatShort:
		diagfmt.Short(w, res.Bag, res.Files, diagfmt.PrettyOpts{PathMode: diagfmt.PathModeRelative, ShowNotes: notes})
	default:
		diagfmt.Pretty(w, res.Bag, res.Files, diagfmt.PrettyOpts{
			Color:     !color.NoColor,
			PathMode:  diagfmt.PathModeRelative,
			ShowNotes: true,
		})
	}
	return nil
}
