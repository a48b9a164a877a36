package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"ember/internal/buildpipeline"
	"ember/internal/project"
)

var buildCmd = &cobra.Command{
	Use:   "build [flags] [tree.json|tree.msgpack]",
	Short: "Compile a resolved tree to C and/or LLVM IR",
	Long:  "Compile a resolved tree to C and/or LLVM IR. Without an argument the input is taken from ember.toml.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  buildExecution,
}

func init() {
	addCompileFlags(buildCmd)
	buildCmd.Flags().String("backend", "", "code generator (c|llvm|both|none)")
	buildCmd.Flags().String("out-dir", "", "output directory (default target)")
	buildCmd.Flags().StringP("output", "o", "", "artefact base name (default input stem)")
	buildCmd.Flags().String("lang", "", "symbol prefix for generated names (default ember)")
	buildCmd.Flags().String("target-triple", "", "LLVM target triple; also picks the C layout checks")
	buildCmd.Flags().Bool("emit-ir", false, "also write the text and JSON IR dumps")
	buildCmd.Flags().Bool("layout-asserts", false, "add static layout checks to the C output")
	buildCmd.Flags().String("ui", "auto", "user interface (auto|on|off)")
}

func buildExecution(cmd *cobra.Command, args []string) error {
	t, err := resolveTarget(args)
	if err != nil {
		return err
	}
	compileReq, err := compileRequest(cmd, t)
	if err != nil {
		return err
	}
	req := buildpipeline.BuildRequest{CompileRequest: compileReq}
	var cfg project.Build
	if t.manifest != nil {
		cfg = t.manifest.Config.Build
		cfg.OutDir = t.manifest.OutDir()
		req.OutputName = t.manifest.Config.Package.Name
	}

	backendValue, err := stringFlag(cmd, "backend", cfg.Backend)
	if err != nil {
		return err
	}
	if req.Backend, err = buildpipeline.ParseBackend(backendValue); err != nil {
		return err
	}
	if req.OutDir, err = stringFlag(cmd, "out-dir", cfg.OutDir); err != nil {
		return err
	}
	if req.OutputName, err = stringFlag(cmd, "output", req.OutputName); err != nil {
		return err
	}
	if req.Lang, err = stringFlag(cmd, "lang", cfg.Lang); err != nil {
		return err
	}
	if req.Triple, err = stringFlag(cmd, "target-triple", cfg.TargetTriple); err != nil {
		return err
	}
	if req.EmitIR, err = boolFlag(cmd, "emit-ir", cfg.EmitIR); err != nil {
		return err
	}
	if req.LayoutAsserts, err = boolFlag(cmd, "layout-asserts", false); err != nil {
		return err
	}
	uiValue, err := cmd.Flags().GetString("ui")
	if err != nil {
		return err
	}
	uiMode, err := readSwitch("ui", uiValue)
	if err != nil {
		return err
	}

	var res buildpipeline.BuildResult
	err = guard(func() error {
		var buildErr error
		if uiMode.enabled(os.Stdout) && !quietFlag(cmd) {
			res, buildErr = runBuildWithUI(cmd.Context(), "ember build", &req)
		} else {
			res, buildErr = buildpipeline.Build(cmd.Context(), &req)
		}
		return buildErr
	})
	out := cmd.OutOrStdout()
	printDiagnostics(out, &res.Compile)
	if err != nil {
		var ice *internalError
		if errors.As(err, &ice) {
			dumpRing()
		}
		return err
	}
	if timingsFlag(cmd) {
		printStageTimings(out, res.Compile)
	}
	if quietFlag(cmd) {
		return nil
	}
	for _, path := range []string{res.CPath, res.LLPath, res.IRPath, res.JSONPath} {
		if path == "" {
			continue
		}
		if _, err := fmt.Fprintf(out, "wrote %s\n", displayPath(path)); err != nil {
			return err
		}
	}
	return nil
}

// displayPath shortens path relative to the working directory.
func displayPath(path string) string {
	if path == "" {
		return path
	}
	cwd, err := os.Getwd()
	if err != nil {
		return path
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	rel, err := filepath.Rel(cwd, abs)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return filepath.ToSlash(rel)
}
