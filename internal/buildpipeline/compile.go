package buildpipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"ember/internal/ast"
	"ember/internal/diag"
	"ember/internal/ir"
	"ember/internal/observ"
	"ember/internal/sema"
	"ember/internal/source"
	"ember/internal/symbols"
	"ember/internal/trace"
)

// CompileRequest configures the shared front half of the pipeline.
type CompileRequest struct {
	// InputPath is a .json or .msgpack tree; ignored when Namespace is set.
	InputPath string
	Namespace *ast.Namespace

	Entry          string
	Library        bool
	MaxDiagnostics int
	Progress       ProgressSink
}

// CompileResult captures compilation artefacts and stage timings.
type CompileResult struct {
	Namespace *ast.Namespace
	Files     *source.FileSet
	Bag       *diag.Bag
	Table     *symbols.Table
	Module    *ir.Module
	Timer     *observ.Timer
	Timings   Timings
}

// Compile loads the tree, installs and resolves declarations, lowers every
// function and validates the result. A pass that reports errors stops the
// pipeline at the next checkpoint; the diagnostics stay in result.Bag.
func Compile(ctx context.Context, req *CompileRequest) (CompileResult, error) {
	result := CompileResult{Timer: observ.NewTimer(), Files: source.NewFileSet()}
	if ctx == nil {
		ctx = context.Background()
	}
	if req == nil {
		return result, fmt.Errorf("missing compile request")
	}
	if req.Namespace == nil && req.InputPath == "" {
		return result, fmt.Errorf("missing input path")
	}
	maxDiag := req.MaxDiagnostics
	if maxDiag <= 0 {
		maxDiag = 200
	}
	result.Bag = diag.NewBag(maxDiag)
	reporter := diag.NewDedupReporter(diag.BagReporter{Bag: result.Bag})
	p := &passRunner{ctx: ctx, sink: req.Progress, label: InputLabel(req), result: &result}
	p.queued()

	ns := req.Namespace
	if err := p.run(StageLoad, func() (string, error) {
		if ns != nil {
			return "in memory", nil
		}
		loaded, err := ast.Load(req.InputPath)
		if err != nil {
			return "", err
		}
		ns = loaded
		return fmt.Sprintf("%d decls", len(ns.Decls)), nil
	}); err != nil {
		return result, err
	}
	result.Namespace = ns
	loadSource(result.Files, req.InputPath, ns)

	table := symbols.NewTable(uint(len(ns.Decls)))
	result.Table = table
	if err := p.run(StageInstall, func() (string, error) {
		n := sema.Install(ns, table, reporter, sema.InstallOptions{Entry: req.Entry, Library: req.Library})
		return p.checkpoint(n)
	}); err != nil {
		return result, err
	}

	resolver := sema.NewResolver(table, reporter)
	if err := p.run(StageResolve, func() (string, error) {
		resolver.ResolveAll()
		if result.Bag.HasErrors() {
			return p.checkpoint(1)
		}
		return fmt.Sprintf("%d structs, %d enums", len(resolver.Structs()), len(resolver.Enums())), nil
	}); err != nil {
		return result, err
	}

	if err := p.run(StageLower, func() (string, error) {
		parent := trace.CurrentSpan(p.ctx).SpanID
		m, n := ir.Lower(ns, table, resolver, reporter, ir.LowerOptions{
			OnFunc: func(f *ir.Func) {
				trace.Point(trace.FromContext(ctx), trace.ScopeFunc, f.Name,
					fmt.Sprintf("%d instrs, %d slots", len(f.Instrs), len(f.Allocs)), parent)
			},
		})
		result.Module = m
		if n > 0 {
			return p.checkpoint(n)
		}
		return fmt.Sprintf("%d funcs", len(m.Funcs)), nil
	}); err != nil {
		return result, err
	}

	if err := p.run(StageValidate, func() (string, error) {
		if err := ir.Validate(result.Module); err != nil {
			return "", fmt.Errorf("IR validation failed: %w", err)
		}
		if err := ValidateEntrypoint(result.Module, req.Library); err != nil {
			return "", err
		}
		return "", nil
	}); err != nil {
		return result, err
	}
	return result, nil
}

// ErrDiagnostics is returned when a checkpoint finds reported errors.
var ErrDiagnostics = errors.New("diagnostics reported errors")

// passRunner wraps every pass in a trace span, a timer phase and progress
// events.
type passRunner struct {
	ctx    context.Context
	sink   ProgressSink
	label  string
	result *CompileResult
}

func (p *passRunner) queued() {
	emitStage(p.sink, p.label, StageLoad, StatusQueued, nil, 0)
}

func (p *passRunner) run(stage Stage, fn func() (string, error)) error {
	ctx, span := trace.StartSpan(p.ctx, trace.ScopePass, string(stage))
	outer := p.ctx
	p.ctx = ctx
	defer func() { p.ctx = outer }()

	emitStage(p.sink, p.label, stage, StatusWorking, nil, 0)
	start := time.Now()
	idx := p.result.Timer.Begin(string(stage))
	note, err := fn()
	elapsed := time.Since(start)
	p.result.Timer.End(idx, note)
	p.result.Timings.Set(stage, elapsed)
	if err != nil {
		span.WithExtra("error", err.Error()).End("failed")
		emitStage(p.sink, p.label, stage, StatusError, err, elapsed)
		return err
	}
	span.End(note)
	emitStage(p.sink, p.label, stage, StatusDone, nil, elapsed)
	return nil
}

func (p *passRunner) checkpoint(n int) (string, error) {
	if n == 0 && !p.result.Bag.HasErrors() {
		return "", nil
	}
	return fmt.Sprintf("%d errors", p.result.Bag.Errors()), ErrDiagnostics
}

// loadSource registers the source file named by the tree so diagnostics
// can quote it. A missing file only costs the snippets.
func loadSource(fs *source.FileSet, input string, ns *ast.Namespace) {
	if ns == nil || ns.Source == "" {
		return
	}
	path := ns.Source
	if !filepath.IsAbs(path) && input != "" {
		path = filepath.Join(filepath.Dir(input), path)
	}
	if _, err := fs.Load(path); err != nil {
		fs.Add(ns.Source, nil)
	}
}

// InputLabel is the file name progress events carry for req.
func InputLabel(req *CompileRequest) string {
	if req.InputPath != "" {
		return displayName(req.InputPath, "")
	}
	if req.Namespace != nil && req.Namespace.Name != "" {
		return req.Namespace.Name
	}
	return "<input>"
}

func emitStage(sink ProgressSink, file string, stage Stage, status Status, err error, elapsed time.Duration) {
	if sink == nil {
		return
	}
	sink.OnEvent(Event{Stage: stage, Status: status, Err: err, Elapsed: elapsed})
	if file != "" {
		sink.OnEvent(Event{File: file, Stage: stage, Status: status, Err: err, Elapsed: elapsed})
	}
}

func diagReporter(res *CompileResult) diag.Reporter {
	if res == nil || res.Bag == nil {
		return nil
	}
	return diag.BagReporter{Bag: res.Bag}
}
