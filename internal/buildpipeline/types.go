package buildpipeline

import (
	"fmt"
	"time"
)

// Stage describes a high-level pipeline phase.
type Stage string

const (
	// StageLoad decodes the input tree.
	StageLoad Stage = "load"
	// StageInstall records top-level declarations in the symbol table.
	StageInstall Stage = "install"
	// StageResolve solves declared types.
	StageResolve Stage = "resolve"
	// StageLower builds the stack-machine IR.
	StageLower Stage = "lower"
	// StageValidate checks IR structure.
	StageValidate Stage = "validate"
	// StageEmitC writes the C translation unit.
	StageEmitC Stage = "emit-c"
	// StageEmitLLVM writes the LLVM module.
	StageEmitLLVM Stage = "emit-llvm"
)

// Stages lists the stages in pipeline order.
var Stages = []Stage{StageLoad, StageInstall, StageResolve, StageLower, StageValidate, StageEmitC, StageEmitLLVM}

// Status captures progress state within a stage.
type Status string

const (
	// StatusQueued indicates the task is waiting to start.
	StatusQueued Status = "queued"
	// StatusWorking indicates the task is currently working.
	StatusWorking Status = "working"
	// StatusDone indicates the task is done.
	StatusDone Status = "done"
	// StatusError indicates the task encountered an error.
	StatusError Status = "error"
)

// Event reports progress for an input (or for the overall pipeline when File is empty).
type Event struct {
	File    string
	Stage   Stage
	Status  Status
	Err     error
	Elapsed time.Duration
}

// ProgressSink consumes progress events.
type ProgressSink interface {
	OnEvent(Event)
}

// Backend selects the code generators to run.
type Backend string

const (
	// BackendC emits a C translation unit.
	BackendC Backend = "c"
	// BackendLLVM emits an LLVM module.
	BackendLLVM Backend = "llvm"
	// BackendBoth runs both generators.
	BackendBoth Backend = "both"
	// BackendNone stops after validation.
	BackendNone Backend = "none"
)

// ParseBackend validates a backend name from flags or the manifest.
func ParseBackend(s string) (Backend, error) {
	switch b := Backend(s); b {
	case BackendC, BackendLLVM, BackendBoth, BackendNone:
		return b, nil
	case "":
		return BackendC, nil
	}
	return "", fmt.Errorf("unsupported backend: %s (supported: c, llvm, both, none)", s)
}

// WantsC reports whether the C generator runs.
func (b Backend) WantsC() bool { return b == BackendC || b == BackendBoth }

// WantsLLVM reports whether the LLVM generator runs.
func (b Backend) WantsLLVM() bool { return b == BackendLLVM || b == BackendBoth }

// Stages lists the stages a build with b runs, in order.
func (b Backend) Stages() []Stage {
	out := append([]Stage(nil), Stages[:5]...)
	if b.WantsC() {
		out = append(out, StageEmitC)
	}
	if b.WantsLLVM() {
		out = append(out, StageEmitLLVM)
	}
	return out
}

// Timings holds stage durations.
type Timings struct {
	stages map[Stage]time.Duration
}

func (t *Timings) ensure() {
	if t.stages == nil {
		t.stages = make(map[Stage]time.Duration)
	}
}

// Set stores a duration for the given stage.
func (t *Timings) Set(stage Stage, dur time.Duration) {
	if t == nil {
		return
	}
	t.ensure()
	t.stages[stage] = dur
}

// Has reports whether a duration for stage is recorded.
func (t Timings) Has(stage Stage) bool {
	if t.stages == nil {
		return false
	}
	_, ok := t.stages[stage]
	return ok
}

// Duration returns the recorded duration for stage.
func (t Timings) Duration(stage Stage) time.Duration {
	if t.stages == nil {
		return 0
	}
	return t.stages[stage]
}

// Sum returns the sum of durations across the provided stages.
func (t Timings) Sum(stages ...Stage) time.Duration {
	if t.stages == nil {
		return 0
	}
	var total time.Duration
	for _, stage := range stages {
		total += t.stages[stage]
	}
	return total
}
