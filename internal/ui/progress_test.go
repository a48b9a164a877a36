package ui

import (
	"errors"
	"strings"
	"testing"

	"ember/internal/buildpipeline"
)

func newBoard(t *testing.T, backend buildpipeline.Backend) *progressModel {
	t.Helper()
	return NewProgressModel("ember build", "prog.json", backend.Stages(), nil).(*progressModel)
}

func TestBoardFollowsPipelineEvents(t *testing.T) {
	m := newBoard(t, buildpipeline.BackendC)
	if len(m.rows) != 6 || m.rows[5].stage != buildpipeline.StageEmitC {
		t.Fatalf("rows = %+v", m.rows)
	}
	for _, st := range []buildpipeline.Stage{buildpipeline.StageLoad, buildpipeline.StageInstall, buildpipeline.StageResolve} {
		m.applyEvent(buildpipeline.Event{Stage: st, Status: buildpipeline.StatusDone})
	}
	m.applyEvent(buildpipeline.Event{Stage: buildpipeline.StageLower, Status: buildpipeline.StatusWorking})
	// события с файлом дублируют общие
	m.applyEvent(buildpipeline.Event{File: "prog.json", Stage: buildpipeline.StageLower, Status: buildpipeline.StatusDone})
	m.applyEvent(buildpipeline.Event{Stage: buildpipeline.StageEmitLLVM, Status: buildpipeline.StatusDone})

	if got := m.percent(); got != 0.5 {
		t.Fatalf("percent = %v", got)
	}
	if m.current != buildpipeline.StageLower || m.rows[3].status != buildpipeline.StatusWorking {
		t.Fatalf("lower row = %+v", m.rows[3])
	}
	view := m.View()
	if !strings.Contains(view, "ember build prog.json") || !strings.Contains(view, "> lower") {
		t.Fatalf("view:\n%s", view)
	}
}

func TestBoardShowsFailure(t *testing.T) {
	m := newBoard(t, buildpipeline.BackendNone)
	m.applyEvent(buildpipeline.Event{Stage: buildpipeline.StageResolve, Status: buildpipeline.StatusError, Err: errors.New("2 errors")})
	if m.percent() != 1 {
		t.Fatalf("a failure fills the bar")
	}
	if view := m.View(); !strings.Contains(view, "x resolve") || !strings.Contains(view, "2 errors") {
		t.Fatalf("view:\n%s", view)
	}
}

func TestTruncate(t *testing.T) {
	cases := []struct {
		in    string
		width int
		want  string
	}{
		{"short", 10, "short"},
		{"internal/buildpipeline", 10, "interna..."},
		{"abcdef", 3, "abc"},
		{"ширина", 0, "ширина"},
	}
	for _, tc := range cases {
		if got := truncate(tc.in, tc.width); got != tc.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tc.in, tc.width, got, tc.want)
		}
	}
}
