package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"ember/internal/buildpipeline"
)

func applyColorFlag(cmd *cobra.Command) error {
	value, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return fmt.Errorf("failed to get color flag: %w", err)
	}
	mode, err := readSwitch("color", value)
	if err != nil {
		return err
	}
	color.NoColor = !mode.enabled(os.Stdout)
	return nil
}

// reportError prints the final error. Diagnostics were already printed, so
// ErrDiagnostics only gets a summary line; panics recovered from the
// pipeline are labelled as internal errors.
func reportError(w io.Writer, err error) {
	red := color.New(color.FgRed, color.Bold)
	if errors.Is(err, buildpipeline.ErrDiagnostics) {
		fmt.Fprintf(w, "%s compilation failed\n", red.Sprint("error:"))
		return
	}
	var ice *internalError
	if errors.As(err, &ice) {
		fmt.Fprintf(w, "%s internal compiler error: %v\n", red.Sprint("error:"), ice.value)
		return
	}
	fmt.Fprintf(w, "%s %v\n", red.Sprint("error:"), err)
}

// internalError wraps a panic raised by an IR assertion or a backend.
type internalError struct {
	value any
}

func (e *internalError) Error() string { return fmt.Sprintf("internal compiler error: %v", e.value) }

// guard turns a panic in fn into an internalError.
func guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &internalError{value: r}
		}
	}()
	return fn()
}
