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
	"github.com/balkashynov/tally/internal/parser"
	"github.com/balkashynov/tally/internal/timer"
)

// Focus represents what UI element has focus
type Focus int

const (
	FocusTable Focus = iota
	FocusSearch
)

type listKeyMap struct {
	Up       key.Binding
	Down     key.Binding
	PrevPage key.Binding
	NextPage key.Binding
	Search   key.Binding
	Stop     key.Binding
	Delete   key.Binding
	Quit     key.Binding
}

func (k listKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.PrevPage, k.NextPage, k.Search, k.Stop, k.Delete, k.Quit}
}

func (k listKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

var listKeys = listKeyMap{
	Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	PrevPage: key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "prev page")),
	NextPage: key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "next page")),
	Search:   key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "filter")),
	Stop:     key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "stop")),
	Delete:   key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "delete")),
	Quit:     key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q/esc", "quit")),
}

// listActionMsg reports the result of a stop or delete.
type listActionMsg struct {
	stopped *models.Interval
	deleted uint
	err     error
}

// ListModel browses intervals and can stop or delete the selected one.
type ListModel struct {
	ctx    context.Context
	engine *timer.Engine

	width  int
	height int

	all      []models.Interval
	rows     []models.Interval // all, filtered by query
	projects map[uint]models.Project
	selected int // index in rows
	now      time.Time

	focus         Focus
	query         string
	confirmDelete bool
	status        string
	help          help.Model

	currentPage int
	perPage     int
}

// NewListModel creates a browser over intervals. now is used for live
// durations and relative dates.
func NewListModel(ctx context.Context, engine *timer.Engine, intervals []models.Interval, projects []models.Project, now time.Time) ListModel {
	byID := make(map[uint]models.Project, len(projects))
	for _, p := range projects {
		byID[p.ID] = p
	}
	m := ListModel{
		ctx:      ctx,
		engine:   engine,
		all:      intervals,
		projects: byID,
		now:      now,
		focus:    FocusTable,
		help:     help.New(),
		perPage:  10,
	}
	m.applyFilter()
	return m
}

// Init initializes the model
func (m ListModel) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m ListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width

		// header, column headers, pagination, help and borders
		m.perPage = max(m.height-12, 3)
		m.currentPage = m.selected / m.perPage
		return m, nil

	case listActionMsg:
		return m.applyAction(msg), nil

	case tea.KeyMsg:
		if m.focus == FocusSearch {
			return m.handleSearchKeys(msg), nil
		}
		if m.confirmDelete {
			return m.handleConfirmKeys(msg)
		}

		switch {
		case key.Matches(msg, listKeys.Quit):
			if msg.String() == "esc" && m.query != "" {
				m.query = ""
				m.applyFilter()
				return m, nil
			}
			return m, tea.Quit
		case key.Matches(msg, listKeys.Up):
			return m.moveSelection(-1), nil
		case key.Matches(msg, listKeys.Down):
			return m.moveSelection(1), nil
		case key.Matches(msg, listKeys.PrevPage):
			return m.turnPage(-1), nil
		case key.Matches(msg, listKeys.NextPage):
			return m.turnPage(1), nil
		case key.Matches(msg, listKeys.Search):
			m.focus = FocusSearch
			return m, nil
		case key.Matches(msg, listKeys.Stop):
			return m.stopSelected()
		case key.Matches(msg, listKeys.Delete):
			iv, ok := m.current()
			if !ok {
				return m, nil
			}
			if iv.IsRunning {
				m.status = "Stop the timer before deleting it"
				return m, nil
			}
			m.confirmDelete = true
			m.status = fmt.Sprintf("Delete interval #%d? (y/n)", iv.ID)
			return m, nil
		}
	}

	return m, nil
}

// handleSearchKeys handles key input when in search mode
func (m ListModel) handleSearchKeys(msg tea.KeyMsg) ListModel {
	switch msg.Type {
	case tea.KeyEsc:
		m.focus = FocusTable
		m.query = ""
	case tea.KeyEnter:
		m.focus = FocusTable
	case tea.KeyBackspace:
		if len(m.query) > 0 {
			m.query = m.query[:len(m.query)-1]
		}
	case tea.KeySpace:
		m.query += " "
	case tea.KeyRunes:
		m.query += string(msg.Runes)
	}
	m.applyFilter()
	return m
}

func (m ListModel) handleConfirmKeys(msg tea.KeyMsg) (ListModel, tea.Cmd) {
	m.confirmDelete = false
	m.status = ""
	if msg.String() != "y" && msg.String() != "Y" {
		return m, nil
	}

	iv, ok := m.current()
	if !ok {
		return m, nil
	}
	ctx, engine, id := m.ctx, m.engine, iv.ID
	return m, func() tea.Msg {
		return listActionMsg{deleted: id, err: engine.DeleteInterval(ctx, id)}
	}
}

func (m ListModel) stopSelected() (ListModel, tea.Cmd) {
	iv, ok := m.current()
	if !ok {
		return m, nil
	}
	if !iv.IsRunning {
		m.status = fmt.Sprintf("Interval #%d is not running", iv.ID)
		return m, nil
	}
	ctx, engine, id := m.ctx, m.engine, iv.ID
	return m, func() tea.Msg {
		stopped, err := engine.Stop(ctx, id)
		return listActionMsg{stopped: stopped, err: err}
	}
}

// applyAction folds a finished engine call back into the list.
func (m ListModel) applyAction(msg listActionMsg) ListModel {
	if msg.err != nil {
		m.status = "Error: " + msg.err.Error()
		return m
	}

	all := make([]models.Interval, 0, len(m.all))
	for _, iv := range m.all {
		switch {
		case msg.deleted != 0 && iv.ID == msg.deleted:
			continue
		case msg.stopped != nil && iv.ID == msg.stopped.ID:
			iv = *msg.stopped
		}
		all = append(all, iv)
	}
	m.all = all

	if msg.stopped != nil {
		m.now = msg.stopped.EndTime.In(m.now.Location())
		m.status = fmt.Sprintf("Stopped interval #%d", msg.stopped.ID)
	} else {
		m.status = fmt.Sprintf("Deleted interval #%d", msg.deleted)
	}
	m.applyFilter()
	return m
}

// applyFilter keeps the intervals whose project or notes contain the query.
func (m *ListModel) applyFilter() {
	q := strings.ToLower(strings.TrimSpace(m.query))
	m.rows = m.rows[:0:0]
	for _, iv := range m.all {
		if q == "" ||
			strings.Contains(strings.ToLower(m.project(iv).Label()), q) ||
			strings.Contains(strings.ToLower(iv.NoteText()), q) {
			m.rows = append(m.rows, iv)
		}
	}
	if m.selected >= len(m.rows) {
		m.selected = max(len(m.rows)-1, 0)
	}
	m.currentPage = m.selected / m.perPage
}

func (m ListModel) project(iv models.Interval) models.Project {
	if p, ok := m.projects[iv.ProjectID]; ok {
		return p
	}
	return models.Project{ID: iv.ProjectID, Name: fmt.Sprintf("project #%d", iv.ProjectID)}
}

func (m ListModel) current() (models.Interval, bool) {
	if m.selected < 0 || m.selected >= len(m.rows) {
		return models.Interval{}, false
	}
	return m.rows[m.selected], true
}

// moveSelection moves the cursor and follows it across pages
func (m ListModel) moveSelection(delta int) ListModel {
	next := m.selected + delta
	if next < 0 || next >= len(m.rows) {
		return m
	}
	m.selected = next
	m.currentPage = m.selected / m.perPage
	m.status = ""
	return m
}

// turnPage flips a page and keeps the selection on it
func (m ListModel) turnPage(delta int) ListModel {
	pages := m.pageCount()
	next := m.currentPage + delta
	if next < 0 || next >= pages {
		return m
	}
	m.currentPage = next
	first := next * m.perPage
	last := min(first+m.perPage, len(m.rows)) - 1
	m.selected = min(max(m.selected, first), last)
	return m
}

func (m ListModel) pageCount() int {
	return max((len(m.rows)+m.perPage-1)/m.perPage, 1)
}

// View renders the TUI
func (m ListModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	leftWidth := m.width * 60 / 100
	rightWidth := m.width - leftWidth - 1

	content := lipgloss.JoinHorizontal(
		lipgloss.Top,
		m.renderTable(leftWidth),
		" ",
		m.renderDetails(rightWidth),
	)

	var bottom string
	switch {
	case m.focus == FocusSearch:
		bottom = m.renderSearchBar()
	case m.status != "":
		bottom = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorWarning)).Render(m.status)
	default:
		bottom = lipgloss.NewStyle().Width(m.width).Align(lipgloss.Center).Render(m.help.View(listKeys))
	}

	return lipgloss.JoinVertical(lipgloss.Left, "", content, "", bottom)
}

// renderTable renders the left panel with the interval table
func (m ListModel) renderTable(width int) string {
	var b strings.Builder

	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorAccentBright))
	title := "⏱️  Intervals"
	if m.query != "" {
		title += fmt.Sprintf("  (filter: %s)", m.query)
	}
	b.WriteString(headerStyle.Render(title))
	b.WriteString("\n\n")

	if len(m.rows) == 0 {
		b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(ColorSecondaryText)).Italic(true).Render("No intervals found"))
		return lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color(ColorBorder)).Width(width).Render(b.String())
	}

	const idWidth, whenWidth, durWidth = 5, 16, 9
	projectWidth := max(width-4-idWidth-whenWidth-durWidth-6, 12)

	columns := fmt.Sprintf("%-*s %-*s %-*s %-*s", idWidth, "ID", projectWidth, "PROJECT", whenWidth, "START", durWidth, "TIME")
	b.WriteString(headerStyle.Padding(0, 1).Render(columns))
	b.WriteString("\n\n")

	start := m.currentPage * m.perPage
	end := min(start+m.perPage, len(m.rows))
	for i := start; i < end; i++ {
		iv := m.rows[i]

		dur := timer.FormatDuration(timer.DurationOf(iv, m.now))
		durStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(ColorSecondaryText))
		if iv.IsRunning {
			durStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorSuccess))
		}

		row := fmt.Sprintf("%-*s %-*s %-*s %s",
			idWidth, fmt.Sprintf("#%d", iv.ID),
			projectWidth, truncate(m.project(iv).Label(), projectWidth),
			whenWidth, parser.FormatWhen(iv.StartTime, m.now),
			durStyle.Render(fmt.Sprintf("%-*s", durWidth, dur)))

		if i == m.selected {
			selectedStyle := lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color(ColorAccentMain)).
				Bold(true).
				Padding(0, 1)
			b.WriteString(selectedStyle.Render(row))
		} else {
			b.WriteString(" " + row)
		}
		b.WriteString("\n")
	}

	if m.perPage < len(m.rows) {
		pageInfo := fmt.Sprintf("Page %d/%d (%d intervals)", m.currentPage+1, m.pageCount(), len(m.rows))
		b.WriteString(lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorHelpText)).
			Align(lipgloss.Center).
			Width(width - 2).
			MarginTop(1).
			Render(pageInfo))
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(ColorBorder)).
		Width(width).
		Render(b.String())
}

// renderDetails renders the right panel with the selected interval
func (m ListModel) renderDetails(width int) string {
	var b strings.Builder

	iv, ok := m.current()
	if !ok {
		b.WriteString(lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorAccentMain)).
			Bold(true).
			Align(lipgloss.Center).
			Width(width).
			Render("tally"))
	} else {
		p := m.project(iv)
		d := timer.DurationOf(iv, m.now)
		label := lipgloss.NewStyle().Foreground(lipgloss.Color(ColorSecondaryText))
		value := lipgloss.NewStyle().Foreground(lipgloss.Color(ColorAccentBright))

		b.WriteString(lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorPrimaryText)).Width(width).Render(p.Label()))
		b.WriteString("\n\n")

		line := func(name, v string) {
			b.WriteString(label.Render(name+": ") + value.Render(v) + "\n")
		}

		state, stateColor := "stopped", ColorSecondaryText
		if iv.IsRunning {
			state, stateColor = "running", ColorSuccess
		} else if iv.IsManual {
			state = "manual entry"
		}
		b.WriteString(label.Render("State: ") + lipgloss.NewStyle().Foreground(lipgloss.Color(stateColor)).Bold(true).Render(state) + "\n")

		line("Start", parser.FormatWhen(iv.StartTime, m.now))
		if iv.EndTime != nil {
			line("End", parser.FormatWhen(*iv.EndTime, m.now))
		}
		line("Duration", timer.FormatDuration(d))
		line("Rate", timer.FormatCost(p.EffectiveRate())+"/h")
		line("Cost", timer.FormatCost(timer.Cost(d, p.EffectiveRate())))

		if iv.HasNotes() {
			b.WriteString("\n" + label.Render("Notes:") + "\n")
			b.WriteString(lipgloss.NewStyle().
				Foreground(lipgloss.Color(ColorSecondaryText)).
				Italic(true).
				Width(width - 2).
				Render(iv.NoteText()))
		}
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(ColorBorder)).
		Width(width).
		Render(b.String())
}

// renderSearchBar renders the filter prompt
func (m ListModel) renderSearchBar() string {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorPrimaryText)).
		Background(lipgloss.Color(ColorBorder)).
		Padding(0, 1).
		Width(m.width - 2).
		Render("Filter: " + m.query + "█")
}
