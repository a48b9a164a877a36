package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"ember/internal/buildpipeline"
)

var checkCmd = &cobra.Command{
	Use:   "check [flags] [tree.json|tree.msgpack]",
	Short: "Resolve and lower a tree, reporting diagnostics only",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runCheck,
}

func init() {
	addCompileFlags(checkCmd)
	checkCmd.Flags().String("format", "pretty", "output format (pretty|short|json)")
	checkCmd.Flags().Bool("with-notes", false, "include diagnostic notes in short and json output")
}

func runCheck(cmd *cobra.Command, args []string) error {
	formatValue, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	format, err := readDiagFormat(formatValue)
	if err != nil {
		return err
	}
	withNotes, err := cmd.Flags().GetBool("with-notes")
	if err != nil {
		return fmt.Errorf("failed to get with-notes flag: %w", err)
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
	out := cmd.OutOrStdout()
	jsonTimings := timingsFlag(cmd) && format == diagFormatJSON
	if jsonTimings {
		attachTimings(&res)
	}
	if werr := writeDiagnostics(out, &res, format, withNotes); werr != nil {
		return werr
	}
	if err != nil {
		var ice *internalError
		if errors.As(err, &ice) {
			dumpRing()
		}
		return err
	}
	if timingsFlag(cmd) && !jsonTimings {
		printStageTimings(out, res)
	}
	if quietFlag(cmd) || format == diagFormatJSON {
		return nil
	}
	_, err = fmt.Fprintf(out, "ok: %d functions\n", len(res.Module.Funcs))
	return err
}
