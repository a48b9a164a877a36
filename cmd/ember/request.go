package main

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"ember/internal/buildpipeline"
	"ember/internal/project"
)

const noManifestMessage = "no ember.toml found\nplease specify the input tree explicitly, e.g.:\n  ember build path/to/prog.json"

// target is the input tree together with the manifest it came from, if any.
type target struct {
	input    string
	manifest *project.Manifest
}

// resolveTarget picks the input tree: an explicit argument wins and skips
// the manifest, otherwise ember.toml is looked up from the working
// directory.
func resolveTarget(args []string) (target, error) {
	if len(args) > 0 && filepath.Clean(args[0]) != "." {
		return target{input: args[0]}, nil
	}
	manifest, found, err := project.Load(".")
	if err != nil {
		return target{}, err
	}
	if !found {
		return target{}, errors.New(noManifestMessage)
	}
	input, err := manifest.InputPath()
	if err != nil {
		return target{}, err
	}
	return target{input: input, manifest: manifest}, nil
}

func addCompileFlags(cmd *cobra.Command) {
	cmd.Flags().String("entry", "", "entry function name (default main)")
	cmd.Flags().Bool("library", false, "compile a library without an entry point")
}

// compileRequest merges manifest values and flags; flags set on the command
// line override the manifest.
func compileRequest(cmd *cobra.Command, t target) (buildpipeline.CompileRequest, error) {
	req := buildpipeline.CompileRequest{InputPath: t.input}
	if t.manifest != nil {
		req.Entry = t.manifest.Config.Build.Entry
		req.Library = t.manifest.Config.Build.Library
	}
	maxDiagnostics, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	if err != nil {
		return req, fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	req.MaxDiagnostics = maxDiagnostics
	if cmd.Flags().Changed("entry") {
		if req.Entry, err = cmd.Flags().GetString("entry"); err != nil {
			return req, fmt.Errorf("failed to get entry flag: %w", err)
		}
	}
	if cmd.Flags().Changed("library") {
		if req.Library, err = cmd.Flags().GetBool("library"); err != nil {
			return req, fmt.Errorf("failed to get library flag: %w", err)
		}
	}
	return req, nil
}

// stringFlag returns the flag value when set, else fallback.
func stringFlag(cmd *cobra.Command, name, fallback string) (string, error) {
	if !cmd.Flags().Changed(name) {
		return fallback, nil
	}
	v, err := cmd.Flags().GetString(name)
	if err != nil {
		return "", fmt.Errorf("failed to get %s flag: %w", name, err)
	}
	return v, nil
}

func boolFlag(cmd *cobra.Command, name string, fallback bool) (bool, error) {
	if !cmd.Flags().Changed(name) {
		return fallback, nil
	}
	v, err := cmd.Flags().GetBool(name)
	if err != nil {
		return false, fmt.Errorf("failed to get %s flag: %w", name, err)
	}
	return v, nil
}

func quietFlag(cmd *cobra.Command) bool {
	quiet, err := cmd.Root().PersistentFlags().GetBool("quiet")
	return err == nil && quiet
}

func timingsFlag(cmd *cobra.Command) bool {
	timings, err := cmd.Root().PersistentFlags().GetBool("timings")
	return err == nil && timings
}
