// Package buildpipeline orchestrates the compilation process.
package buildpipeline

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	llir "github.com/llir/llvm/ir"

	cgen "ember/internal/backend/c"
	"ember/internal/backend/llvm"
	"ember/internal/ir"
	"ember/internal/layout"
)

// BuildRequest configures output generation for a compilation.
type BuildRequest struct {
	CompileRequest
	Backend Backend
	// OutDir receives the artefacts; empty means "target" under the
	// working directory.
	OutDir string
	// OutputName is the artefact stem; derived from the input when empty.
	OutputName string
	Lang       string
	Triple     string
	// EmitIR also writes the text and JSON IR dumps.
	EmitIR bool
	// LayoutAsserts adds static size/offset checks to the C output.
	LayoutAsserts bool
}

// BuildResult captures build artefacts and timings.
type BuildResult struct {
	Compile  CompileResult
	CPath    string
	LLPath   string
	IRPath   string
	JSONPath string
	LLVM     *llir.Module
}

// Build compiles the input and runs the selected backends.
func Build(ctx context.Context, req *BuildRequest) (BuildResult, error) {
	var result BuildResult
	if req == nil {
		return result, fmt.Errorf("missing build request")
	}
	reqCopy := *req
	req = &reqCopy
	if req.Backend == "" {
		req.Backend = BackendC
	}
	if _, err := ParseBackend(string(req.Backend)); err != nil {
		return result, err
	}

	compileRes, err := Compile(ctx, &req.CompileRequest)
	result.Compile = compileRes
	if err != nil {
		return result, err
	}
	m := compileRes.Module
	if req.OutputName == "" {
		req.OutputName = outputStem(req.InputPath, m.Name)
	}
	outDir := req.OutDir
	if outDir == "" {
		outDir = "target"
	}
	if err := os.MkdirAll(outDir, 0o750); err != nil {
		return result, fmt.Errorf("failed to create output dir: %w", err)
	}
	base := filepath.Join(outDir, req.OutputName)

	if req.EmitIR {
		result.IRPath, result.JSONPath = base+".ir", base+".ir.json"
		if err := writeDumps(m, result.IRPath, result.JSONPath); err != nil {
			return result, err
		}
	}

	p := &passRunner{ctx: ctx, sink: req.Progress, label: InputLabel(&req.CompileRequest), result: &result.Compile}
	if req.Backend.WantsC() {
		if err := p.run(StageEmitC, func() (string, error) {
			opts := cgen.Options{Lang: req.Lang}
			if req.LayoutAsserts {
				opts.Layout = layout.New(layout.ForTriple(req.Triple))
			}
			out, err := cgen.Emit(m, opts)
			if err != nil {
				return "", fmt.Errorf("C emit failed: %w", err)
			}
			result.CPath = base + ".c"
			if err := writeFile(result.CPath, []byte(out)); err != nil {
				return "", err
			}
			return fmt.Sprintf("%d bytes", len(out)), nil
		}); err != nil {
			return result, err
		}
	}
	if req.Backend.WantsLLVM() {
		if err := p.run(StageEmitLLVM, func() (string, error) {
			mod, err := llvm.Emit(m, llvm.Options{Lang: req.Lang, Triple: req.Triple, Reporter: diagReporter(&result.Compile)})
			result.LLVM = mod
			if err != nil {
				return "", fmt.Errorf("LLVM emit failed: %w", err)
			}
			result.LLPath = base + ".ll"
			if err := writeFile(result.LLPath, []byte(mod.String())); err != nil {
				return "", err
			}
			return fmt.Sprintf("%d funcs", len(mod.Funcs)), nil
		}); err != nil {
			return result, err
		}
	}
	return result, nil
}

func writeDumps(m *ir.Module, textPath, jsonPath string) error {
	var text, js bytes.Buffer
	if err := ir.DumpModule(&text, m); err != nil {
		return fmt.Errorf("IR dump failed: %w", err)
	}
	if err := ir.DumpJSON(&js, m); err != nil {
		return fmt.Errorf("IR JSON dump failed: %w", err)
	}
	if err := writeFile(textPath, text.Bytes()); err != nil {
		return err
	}
	return writeFile(jsonPath, js.Bytes())
}

func writeFile(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write build output %q: %w", path, err)
	}
	return nil
}
