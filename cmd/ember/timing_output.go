package main

import (
	"fmt"
	"io"

	"ember/internal/buildpipeline"
)

// printStageTimings prints the phase table of the compile timer.
func printStageTimings(out io.Writer, res buildpipeline.CompileResult) {
	if out == nil || res.Timer == nil {
		return
	}
	fmt.Fprint(out, res.Timer.Summary())
}

// attachTimings moves the timer into the diagnostics so JSON output
// stays one document.
func attachTimings(res *buildpipeline.CompileResult) {
	if res.Timer == nil || res.Bag == nil {
		return
	}
	res.Bag.Add(res.Timer.Diagnostic())
}
