package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"ember/internal/buildpipeline"
)

// stageRow is one line of the board.
type stageRow struct {
	stage   buildpipeline.Stage
	status  buildpipeline.Status
	elapsed time.Duration
	err     string
}

// progressModel renders one build as a board of pipeline stages. Only
// pipeline-level events (empty File) move it.
type progressModel struct {
	title   string
	input   string
	events  <-chan buildpipeline.Event
	spinner spinner.Model
	bar     progress.Model
	rows    []stageRow
	current buildpipeline.Stage
	width   int
	done    bool
}

type eventMsg buildpipeline.Event
type doneMsg struct{}

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// NewProgressModel returns a Bubble Tea model for a build of input that
// runs stages.
func NewProgressModel(title, input string, stages []buildpipeline.Stage, events <-chan buildpipeline.Event) tea.Model {
	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))

	bar := progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage())
	bar.Width = 60

	rows := make([]stageRow, len(stages))
	for i, st := range stages {
		rows[i] = stageRow{stage: st, status: buildpipeline.StatusQueued}
	}
	return &progressModel{title: title, input: input, events: events, spinner: sp, bar: bar, rows: rows, width: 80}
}

func (m *progressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.next())
}

func (m *progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		return m, tea.Batch(m.applyEvent(buildpipeline.Event(msg)), m.next())
	case doneMsg:
		m.done = true
		return m, tea.Quit
	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			m.width = msg.Width
			m.bar.Width = min(msg.Width-4, 60)
		}
	case progress.FrameMsg:
		bar, cmd := m.bar.Update(msg)
		m.bar = bar.(progress.Model)
		return m, cmd
	}
	return m, nil
}

func (m *progressModel) next() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.events
		if !ok {
			return doneMsg{}
		}
		return eventMsg(ev)
	}
}

func (m *progressModel) applyEvent(ev buildpipeline.Event) tea.Cmd {
	if ev.File != "" || ev.Status == buildpipeline.StatusQueued {
		return nil
	}
	row := m.row(ev.Stage)
	if row == nil {
		return nil
	}
	row.status = ev.Status
	row.elapsed = ev.Elapsed
	if ev.Err != nil {
		row.err = ev.Err.Error()
	}
	m.current = ev.Stage
	return m.bar.SetPercent(m.percent())
}

func (m *progressModel) row(st buildpipeline.Stage) *stageRow {
	for i := range m.rows {
		if m.rows[i].stage == st {
			return &m.rows[i]
		}
	}
	return nil
}

// percent is the share of finished stages; a failure fills the bar.
func (m *progressModel) percent() float64 {
	if len(m.rows) == 0 {
		return 0
	}
	n := 0
	for _, r := range m.rows {
		switch r.status {
		case buildpipeline.StatusError:
			return 1
		case buildpipeline.StatusDone:
			n++
		}
	}
	return float64(n) / float64(len(m.rows))
}

func (m *progressModel) View() string {
	if len(m.rows) == 0 {
		return ""
	}
	header := m.title
	if m.input != "" {
		header += " " + truncate(m.input, m.width-len(header)-8)
	}
	if m.done {
		header = "done: " + header
	} else {
		header = m.spinner.View() + " " + header
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(header))
	b.WriteString("\n\n")
	for _, r := range m.rows {
		mark, style := rowMark(r.status)
		fmt.Fprintf(&b, "  %s %-10s", style.Render(mark), r.stage)
		if r.status == buildpipeline.StatusDone || r.status == buildpipeline.StatusError {
			b.WriteString(dimStyle.Render(fmt.Sprintf(" %8s", r.elapsed.Round(time.Microsecond))))
		}
		if r.err != "" {
			b.WriteString(" " + style.Render(truncate(r.err, m.width-26)))
		}
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	if m.done {
		b.WriteString(m.bar.ViewAs(m.percent()))
	} else {
		b.WriteString(m.bar.View())
	}
	b.WriteByte('\n')
	return b.String()
}

func rowMark(st buildpipeline.Status) (string, lipgloss.Style) {
	switch st {
	case buildpipeline.StatusWorking:
		return ">", lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	case buildpipeline.StatusDone:
		return "+", lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	case buildpipeline.StatusError:
		return "x", lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	}
	return ".", dimStyle
}

func truncate(value string, width int) string {
	if width <= 0 || runewidth.StringWidth(value) <= width {
		return value
	}
	if width <= 3 {
		return runewidth.Truncate(value, width, "")
	}
	// хвост входит в ширину
	return runewidth.Truncate(value, width, "...")
}
