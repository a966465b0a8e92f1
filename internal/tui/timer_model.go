package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/balkashynov/tally/internal/models"
	"github.com/balkashynov/tally/internal/timer"
)

// Outcome is how the live timer screen was left.
type Outcome int

const (
	// OutcomeDetached leaves the interval running.
	OutcomeDetached Outcome = iota
	OutcomePaused
	OutcomeStopped
)

type timerKeyMap struct {
	Pause key.Binding
	Stop  key.Binding
	Quit  key.Binding
}

func (k timerKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Pause, k.Stop, k.Quit}
}

func (k timerKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

var timerKeys = timerKeyMap{
	Pause: key.NewBinding(
		key.WithKeys("p", "P"),
		key.WithHelp("p", "pause"),
	),
	Stop: key.NewBinding(
		key.WithKeys("s", "S"),
		key.WithHelp("s", "stop & save"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "esc", "ctrl+c"),
		key.WithHelp("q/esc", "exit (keep running)"),
	),
}

// TimerModel is the live view of one running interval.
type TimerModel struct {
	ctx      context.Context
	engine   *timer.Engine
	interval *models.Interval
	project  *models.Project
	rate     float64

	width   int
	height  int
	elapsed int64
	frame   int // header animation frame
	help    help.Model

	busy    bool // an engine call is in flight
	outcome Outcome
	result  *models.Interval
	err     error
}

// timerTickMsg is sent every second to refresh the elapsed time
type timerTickMsg struct{}

// animationTickMsg drives the header animation
type animationTickMsg struct{}

// engineDoneMsg carries the result of a pause or stop
type engineDoneMsg struct {
	outcome  Outcome
	interval *models.Interval
	err      error
}

// NewTimerModel creates a live timer for a running interval of project.
func NewTimerModel(ctx context.Context, engine *timer.Engine, iv *models.Interval, project *models.Project) TimerModel {
	return TimerModel{
		ctx:      ctx,
		engine:   engine,
		interval: iv,
		project:  project,
		rate:     project.EffectiveRate(),
		elapsed:  timer.ClampElapsed(iv.StartTime, engine.Now()),
		help:     help.New(),
	}
}

// Init starts the tickers
func (m TimerModel) Init() tea.Cmd {
	return tea.Batch(tickEvery(), animate())
}

func tickEvery() tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg { return timerTickMsg{} })
}

func animate() tea.Cmd {
	return tea.Tick(250*time.Millisecond, func(time.Time) tea.Msg { return animationTickMsg{} })
}

// Update handles messages
func (m TimerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case timerTickMsg:
		m.elapsed = timer.ClampElapsed(m.interval.StartTime, m.engine.Now())
		if m.busy {
			return m, nil
		}
		return m, tickEvery()

	case animationTickMsg:
		m.frame = (m.frame + 1) % 4
		if m.busy {
			return m, nil
		}
		return m, animate()

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case engineDoneMsg:
		m.busy = false
		m.err = msg.err
		if msg.err == nil {
			m.outcome = msg.outcome
			m.result = msg.interval
		}
		return m, tea.Quit

	case tea.KeyMsg:
		if m.busy {
			return m, nil
		}
		switch {
		case key.Matches(msg, timerKeys.Pause):
			m.busy = true
			return m, m.pause()
		case key.Matches(msg, timerKeys.Stop):
			m.busy = true
			return m, m.stop()
		case key.Matches(msg, timerKeys.Quit):
			m.outcome = OutcomeDetached
			return m, tea.Quit
		}
	}

	return m, nil
}

func (m TimerModel) pause() tea.Cmd {
	return func() tea.Msg {
		iv, err := m.engine.Pause(m.ctx, m.interval.ProjectID)
		return engineDoneMsg{outcome: OutcomePaused, interval: iv, err: err}
	}
}

func (m TimerModel) stop() tea.Cmd {
	return func() tea.Msg {
		iv, err := m.engine.Stop(m.ctx, m.interval.ID)
		return engineDoneMsg{outcome: OutcomeStopped, interval: iv, err: err}
	}
}

// Outcome reports how the screen was left and the closed interval, if any.
func (m TimerModel) Outcome() (Outcome, *models.Interval, error) {
	return m.outcome, m.result, m.err
}

// View renders the timer TUI
func (m TimerModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	helpBar := lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorHelpText)).
		Align(lipgloss.Center).
		Width(m.width).
		Render(m.help.View(timerKeys))

	contentHeight := m.height - 2

	if m.width < 90 {
		return lipgloss.JoinVertical(lipgloss.Left, m.renderClockPanel(m.width, contentHeight), helpBar)
	}

	leftWidth := m.width / 2
	rightWidth := m.width - leftWidth - 2
	content := lipgloss.JoinHorizontal(
		lipgloss.Top,
		m.renderClockPanel(leftWidth, contentHeight),
		"  ",
		m.renderDetailsPanel(rightWidth, contentHeight),
	)
	return lipgloss.JoinVertical(lipgloss.Left, content, helpBar)
}

// renderClockPanel renders the header, the big clock and the running cost
func (m TimerModel) renderClockPanel(width, height int) string {
	center := lipgloss.NewStyle().Align(lipgloss.Center).Width(width)

	frames := []string{"◴", "◷", "◶", "◵"}
	header := fmt.Sprintf("%s  TRACKING  %s", frames[m.frame], frames[m.frame])
	if m.busy {
		header = "saving..."
	}

	parts := []string{
		center.Foreground(lipgloss.Color(ColorAccentBright)).Bold(true).Render(header),
		center.Foreground(lipgloss.Color(ColorPrimaryText)).Bold(true).Render(truncate(m.project.Label(), width-4)),
		renderBigClock(timer.FormatDuration(m.elapsed), width),
		center.Foreground(lipgloss.Color(ColorSuccess)).Bold(true).
			Render(timer.FormatCost(timer.Cost(m.elapsed, m.rate))),
		center.Foreground(lipgloss.Color(ColorSecondaryText)).Italic(true).
			Render("Started at " + m.interval.StartTime.Local().Format("15:04:05")),
	}
	if m.err != nil {
		parts = append(parts, center.Foreground(lipgloss.Color(ColorError)).Render(m.err.Error()))
	}

	return lipgloss.NewStyle().
		Width(width).
		Height(height).
		Align(lipgloss.Center, lipgloss.Center).
		Render(strings.Join(parts, "\n\n"))
}

// renderDetailsPanel renders the interval details on wide screens
func (m TimerModel) renderDetailsPanel(width, height int) string {
	label := lipgloss.NewStyle().Foreground(lipgloss.Color(ColorSecondaryText))
	value := lipgloss.NewStyle().Foreground(lipgloss.Color(ColorAccentBright)).Bold(true)
	muted := lipgloss.NewStyle().Foreground(lipgloss.Color(ColorDisabledText))

	notes := muted.Render("none")
	if m.interval.HasNotes() {
		notes = value.Render(*m.interval.Notes)
	}
	rateSource := "client rate"
	if m.project.HourlyRate != nil {
		rateSource = "project rate"
	}

	rows := []string{
		label.Render("Interval  ") + value.Render(fmt.Sprintf("#%d", m.interval.ID)),
		label.Render("Client    ") + value.Render(m.project.Client.Name),
		label.Render("Project   ") + value.Render(m.project.Name),
		label.Render("Rate      ") + value.Render(timer.FormatCost(m.rate)+"/h") + " " + muted.Render("("+rateSource+")"),
		label.Render("Notes     ") + notes,
	}

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(ColorAccentMain)).
		Padding(1, 2).
		Width(min(width-4, 60)).
		Render(strings.Join(rows, "\n"))

	return lipgloss.NewStyle().
		Width(width).
		Height(height).
		Align(lipgloss.Center, lipgloss.Center).
		Render(box)
}

// digit glyphs, five rows each
var glyphs = map[rune][5]string{
	'0': {" ███ ", "█   █", "█   █", "█   █", " ███ "},
	'1': {"  █  ", " ██  ", "  █  ", "  █  ", "█████"},
	'2': {" ███ ", "█   █", "   █ ", "  █  ", "█████"},
	'3': {" ███ ", "█   █", "  ██ ", "█   █", " ███ "},
	'4': {"█   █", "█   █", "█████", "    █", "    █"},
	'5': {"█████", "█    ", "████ ", "    █", "████ "},
	'6': {" ███ ", "█    ", "████ ", "█   █", " ███ "},
	'7': {"█████", "    █", "   █ ", "  █  ", " █   "},
	'8': {" ███ ", "█   █", " ███ ", "█   █", " ███ "},
	'9': {" ███ ", "█   █", " ████", "    █", " ███ "},
	':': {"     ", "  █  ", "     ", "  █  ", "     "},
}

// renderBigClock draws an HH:MM:SS string in block digits
func renderBigClock(text string, width int) string {
	var rows [5]strings.Builder
	for _, r := range text {
		g, ok := glyphs[r]
		if !ok {
			continue
		}
		for i := range rows {
			rows[i].WriteString(g[i])
			rows[i].WriteString(" ")
		}
	}

	style := lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorAccentBright)).
		Bold(true).
		Align(lipgloss.Center).
		Width(width)

	lines := make([]string, len(rows))
	for i := range rows {
		lines[i] = style.Render(rows[i].String())
	}
	return strings.Join(lines, "\n")
}

func truncate(s string, width int) string {
	if width < 4 || len(s) <= width {
		return s
	}
	return s[:width-3] + "..."
}
