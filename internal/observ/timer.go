// Package observ measures how long the build passes take.
package observ

import (
	"fmt"
	"strings"
	"time"

	"ember/internal/diag"
	"ember/internal/source"
)

// Phase is one timed pass.
type Phase struct {
	Name  string
	Start time.Time
	Dur   time.Duration
	Note  string
	done  bool
}

// Timer records passes in the order they start. It is not safe for
// concurrent use; the pipeline runs passes one after another.
type Timer struct {
	phases []Phase
	now    func() time.Time
}

func NewTimer() *Timer { return &Timer{now: time.Now} }

// Begin opens a phase; the returned index goes to End.
func (t *Timer) Begin(name string) int {
	t.phases = append(t.phases, Phase{Name: name, Start: t.now()})
	return len(t.phases) - 1
}

// End closes phase idx. Unknown and already closed phases are ignored.
func (t *Timer) End(idx int, note string) {
	if idx < 0 || idx >= len(t.phases) || t.phases[idx].done {
		return
	}
	p := &t.phases[idx]
	p.Dur = t.now().Sub(p.Start)
	p.Note = note
	p.done = true
}

// Measure runs fn as one phase and keeps the note it returns.
func (t *Timer) Measure(name string, fn func() string) {
	idx := t.Begin(name)
	t.End(idx, fn())
}

type PhaseReport struct {
	Name       string  `json:"name"`
	DurationMS float64 `json:"duration_ms"`
	// Share is the percentage of the total.
	Share float64 `json:"share"`
	Note  string  `json:"note,omitempty"`
}

type Report struct {
	TotalMS float64       `json:"total_ms"`
	Slowest string        `json:"slowest,omitempty"`
	Phases  []PhaseReport `json:"phases"`
}

// Report covers closed phases only.
func (t *Timer) Report() Report {
	var rep Report
	var total, worst time.Duration
	for _, p := range t.phases {
		if !p.done {
			continue
		}
		total += p.Dur
		if rep.Slowest == "" || p.Dur > worst {
			rep.Slowest, worst = p.Name, p.Dur
		}
		rep.Phases = append(rep.Phases, PhaseReport{Name: p.Name, DurationMS: millis(p.Dur), Note: p.Note})
	}
	rep.TotalMS = millis(total)
	if total > 0 {
		for i := range rep.Phases {
			rep.Phases[i].Share = 100 * rep.Phases[i].DurationMS / rep.TotalMS
		}
	}
	return rep
}

// Summary renders the report as a table.
func (t *Timer) Summary() string {
	rep := t.Report()
	var sb strings.Builder
	sb.WriteString("timings:\n")
	for _, p := range rep.Phases {
		fmt.Fprintf(&sb, "  %-12s %8.2f ms %5.1f%%", p.Name, p.DurationMS, p.Share)
		if p.Note != "" {
			sb.WriteString("  (" + p.Note + ")")
		}
		sb.WriteByte('\n')
	}
	fmt.Fprintf(&sb, "  %-12s %8.2f ms\n", "total", rep.TotalMS)
	return sb.String()
}

// Diagnostic packs the report into an OBS6001 info diagnostic with one
// note per phase, for machine-readable diagnostic output.
func (t *Timer) Diagnostic() diag.Diagnostic {
	rep := t.Report()
	d := diag.New(diag.SevInfo, diag.ObsTimings, source.Span{}, fmt.Sprintf("pipeline took %.2f ms", rep.TotalMS))
	for _, p := range rep.Phases {
		msg := fmt.Sprintf("%s: %.2f ms", p.Name, p.DurationMS)
		if p.Note != "" {
			msg += " (" + p.Note + ")"
		}
		d = d.WithNote(source.Span{}, msg)
	}
	return d
}

func millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
