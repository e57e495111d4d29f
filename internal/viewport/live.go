package viewport

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// StepMsg is pushed into the live model after every env step.
type StepMsg struct {
	Snapshot Snapshot
	Frame    uint64
	Steps    int
}

// DoneMsg ends the live view when the rollout finishes.
type DoneMsg struct{}

var statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))

// Live is a bubbletea model wrapping the viewport for interactive
// rollouts. The rollout loop feeds it StepMsg values via Program.Send.
type Live struct {
	view    *Extension
	frame   uint64
	steps   int
	started time.Time
	done    bool
}

func NewLive(view *Extension) *Live {
	return &Live{view: view, started: time.Now()}
}

func (m *Live) Init() tea.Cmd { return nil }

func (m *Live) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
	case StepMsg:
		m.view.Publish(msg.Snapshot)
		m.frame = msg.Frame
		m.steps = msg.Steps
	case DoneMsg:
		m.done = true
		return m, tea.Quit
	}
	return m, nil
}

func (m *Live) View() string {
	elapsed := time.Since(m.started).Seconds()
	sps := 0.0
	if elapsed > 0 {
		sps = float64(m.steps) / elapsed
	}
	status := statusStyle.Render(fmt.Sprintf("steps %d · %.0f steps/s · q to quit", m.steps, sps))
	return m.view.Render(m.frame) + status + "\n"
}
