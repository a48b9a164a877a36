package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"ember/internal/buildpipeline"
	"ember/internal/ir"
)

var irCmd = &cobra.Command{
	Use:   "ir [flags] [tree.json|tree.msgpack]",
	Short: "Print the lowered stack IR",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runIR,
}

func init() {
	addCompileFlags(irCmd)
	irCmd.Flags().String("format", "text", "dump format (text|json)")
	irCmd.Flags().StringP("output", "o", "", "write the dump to a file instead of stdout")
}

func runIR(cmd *cobra.Command, args []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	var dump func(io.Writer, *ir.Module) error
	switch format {
	case "text":
		dump = ir.DumpModule
	case "json":
		dump = ir.DumpJSON
	default:
		return fmt.Errorf("unknown format %q (expected text|json)", format)
	}
	output, err := cmd.Flags().GetString("output")
	if err != nil {
		return fmt.Errorf("failed to get output flag: %w", err)
	}
	t, err := resolveTarget(args)
	if err != nil {
		return err
	}
	req, err := compileRequest(cmd, t)
	if err != nil {
		return err
	}

	var res buildpipeline.CompileResult
	err = guard(func() error {
		var compileErr error
		res, compileErr = buildpipeline.Compile(cmd.Context(), &req)
		return compileErr
	})
	if err != nil {
		printDiagnostics(cmd.ErrOrStderr(), &res)
		var ice *internalError
		if errors.As(err, &ice) {
			dumpRing()
		}
		return err
	}

	w := cmd.OutOrStdout()
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", output, err)
		}
		defer f.Close()
		w = f
	}
	return dump(w, res.Module)
}
