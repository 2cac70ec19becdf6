package tui

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Zumgugger/reformat-sub001/internal/scheduler"
)

// Model renders live progress for one conversion run. It consumes the
// progress snapshots the scheduler publishes and quits when the channel
// closes. Ctrl+C (or q) requests cooperative cancellation instead of
// killing the process: in-flight conversions finish and their outputs
// survive.
type Model struct {
	updates   <-chan scheduler.Progress
	onCancel  func()
	started   time.Time
	width     int
	progress  scheduler.Progress
	canceling bool
	quitting  bool
}

type doneMsg struct{}

type updateMsg scheduler.Progress

// NewModel builds a progress model. onCancel fires at most once, on the
// first cancel keypress; nil disables the binding.
func NewModel(updates <-chan scheduler.Progress, onCancel func()) Model {
	return Model{updates: updates, onCancel: onCancel, started: time.Now()}
}

func (m Model) Init() tea.Cmd {
	return listenForUpdates(m.updates)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case updateMsg:
		m.progress = scheduler.Progress(msg)
		return m, listenForUpdates(m.updates)
	case doneMsg:
		m.quitting = true
		return m, tea.Quit
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			if !m.canceling {
				m.canceling = true
				if m.onCancel != nil {
					m.onCancel()
				}
			}
		}
		return m, nil
	default:
		return m, nil
	}
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	barWidth := 40
	if m.width > 0 {
		barWidth = int(math.Min(60, float64(m.width-10)))
		if barWidth < 20 {
			barWidth = 20
		}
	}

	p := m.progress
	ratio := 0.0
	if p.Total > 0 {
		ratio = float64(p.Done) / float64(p.Total)
		if ratio > 1 {
			ratio = 1
		}
	}

	bar := renderBar(barWidth, ratio)
	elapsed := time.Since(m.started).Round(time.Millisecond)

	lines := []string{
		titleStyle.Render("reformat"),
		labelStyle.Render(fmt.Sprintf("Converted: %d/%d", p.Done, p.Total)) +
			dimStyle.Render(fmt.Sprintf("  ok:%d failed:%d canceled:%d", p.Succeeded, p.Failed, p.Canceled)),
		dimStyle.Render(fmt.Sprintf("Elapsed: %s", elapsed)),
		barStyle.Render(bar),
	}

	if m.canceling {
		lines = append(lines, warnStyle.Render("canceling - waiting for in-flight conversions"))
	}

	return strings.Join(lines, "\n")
}

func listenForUpdates(updates <-chan scheduler.Progress) tea.Cmd {
	return func() tea.Msg {
		update, ok := <-updates
		if !ok {
			return doneMsg{}
		}
		return updateMsg(update)
	}
}

func renderBar(width int, ratio float64) string {
	filled := int(math.Round(ratio * float64(width)))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return "[" + strings.Repeat("=", filled) + strings.Repeat(" ", width-filled) + "]"
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	barStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	warnStyle  = lipgloss.NewStyle().Foreground(ColorWarn)
)
