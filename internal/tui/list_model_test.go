package tui

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/balkashynov/tally/internal/models"
	"github.com/balkashynov/tally/internal/store/memory"
	"github.com/balkashynov/tally/internal/timer"
)

type listFixture struct {
	engine  *timer.Engine
	now     time.Time
	running *models.Interval
	closed  []*models.Interval
}

// newListFixture tracks one running interval on Website plus n manual
// entries alternating between Website and API.
func newListFixture(t *testing.T, n int) (*listFixture, ListModel) {
	t.Helper()
	ctx := context.Background()
	f := &listFixture{now: time.Date(2024, 7, 1, 17, 0, 0, 0, time.UTC)}
	f.engine = timer.New(memory.New(), timer.WithClock(timer.ClockFunc(func() time.Time { return f.now })))

	c, err := f.engine.CreateClient(ctx, "Acme", 60)
	if err != nil {
		t.Fatal(err)
	}
	web, err := f.engine.CreateProject(ctx, c.ID, "Website", nil)
	if err != nil {
		t.Fatal(err)
	}
	api, err := f.engine.CreateProject(ctx, c.ID, "API", nil)
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < n; i++ {
		pid, note := web.ID, "layout"
		if i%2 == 1 {
			pid, note = api.ID, "endpoints"
		}
		start := f.now.Add(-time.Duration(i+2) * time.Hour)
		iv, err := f.engine.CreateManualEntry(ctx, pid, start, start.Add(30*time.Minute), note)
		if err != nil {
			t.Fatal(err)
		}
		f.closed = append(f.closed, iv)
	}

	if f.running, err = f.engine.Start(ctx, web.ID, "hero"); err != nil {
		t.Fatal(err)
	}

	return f, f.model(t)
}

func (f *listFixture) model(t *testing.T) ListModel {
	t.Helper()
	ctx := context.Background()
	intervals, err := f.engine.List(ctx, timer.ListFilter{})
	if err != nil {
		t.Fatal(err)
	}
	projects, err := f.engine.Projects(ctx)
	if err != nil {
		t.Fatal(err)
	}
	return NewListModel(ctx, f.engine, intervals, projects, f.now)
}

func send(m ListModel, msg tea.Msg) (ListModel, tea.Cmd) {
	next, cmd := m.Update(msg)
	return next.(ListModel), cmd
}

func typeKey(m ListModel, s string) (ListModel, tea.Cmd) {
	switch s {
	case "up", "down", "left", "right", "enter", "esc":
		types := map[string]tea.KeyType{
			"up": tea.KeyUp, "down": tea.KeyDown, "left": tea.KeyLeft,
			"right": tea.KeyRight, "enter": tea.KeyEnter, "esc": tea.KeyEsc,
		}
		return send(m, tea.KeyMsg{Type: types[s]})
	}
	return send(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
}

// runCmd executes cmd and feeds its message back into the model.
func runCmd(t *testing.T, m ListModel, cmd tea.Cmd) ListModel {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command")
	}
	m, _ = send(m, cmd())
	return m
}

func TestListModelNavigation(t *testing.T) {
	_, m := newListFixture(t, 4)
	m, _ = send(m, tea.WindowSizeMsg{Width: 140, Height: 15}) // 3 rows per page

	if len(m.rows) != 5 || m.selected != 0 {
		t.Fatalf("rows = %d, selected = %d", len(m.rows), m.selected)
	}

	m, _ = typeKey(m, "up")
	if m.selected != 0 {
		t.Fatal("selection should not move above the first row")
	}

	for i := 0; i < 3; i++ {
		m, _ = typeKey(m, "j")
	}
	if m.selected != 3 || m.currentPage != 1 {
		t.Fatalf("selected = %d, page = %d; want 3, 1", m.selected, m.currentPage)
	}

	m, _ = typeKey(m, "left")
	if m.currentPage != 0 || m.selected != 2 {
		t.Fatalf("after prev page: selected = %d, page = %d", m.selected, m.currentPage)
	}

	m, _ = typeKey(m, "right")
	m, _ = typeKey(m, "right")
	if m.currentPage != 1 {
		t.Fatalf("page = %d, should stop at the last page", m.currentPage)
	}

	view := m.View()
	if !strings.Contains(view, "Page 2/2") {
		t.Errorf("view should show pagination:\n%s", view)
	}
}

func TestListModelFilter(t *testing.T) {
	_, m := newListFixture(t, 4)
	m, _ = send(m, tea.WindowSizeMsg{Width: 140, Height: 40})

	m, _ = typeKey(m, "/")
	if m.focus != FocusSearch {
		t.Fatal("/ should focus the filter")
	}
	for _, r := range "api" {
		m, _ = typeKey(m, string(r))
	}
	m, _ = typeKey(m, "enter")

	if m.focus != FocusTable || len(m.rows) != 2 {
		t.Fatalf("focus = %v, rows = %d; want table, 2", m.focus, len(m.rows))
	}
	for _, iv := range m.rows {
		if m.project(iv).Name != "API" {
			t.Fatalf("filtered row on %s", m.project(iv).Label())
		}
	}

	// notes match too
	m, _ = typeKey(m, "esc")
	if m.query != "" || len(m.rows) != 5 {
		t.Fatalf("esc should clear the filter, rows = %d", len(m.rows))
	}
	m, _ = typeKey(m, "/")
	for _, r := range "hero" {
		m, _ = typeKey(m, string(r))
	}
	if len(m.rows) != 1 || !m.rows[0].IsRunning {
		t.Fatalf("notes filter rows = %+v", m.rows)
	}
}

func TestListModelStop(t *testing.T) {
	f, m := newListFixture(t, 2)
	f.now = f.now.Add(20 * time.Minute)
	m, _ = send(m, tea.WindowSizeMsg{Width: 140, Height: 40})

	// newest first: the running interval is selected
	if !m.rows[0].IsRunning {
		t.Fatal("running interval should be first")
	}
	m, cmd := typeKey(m, "s")
	m = runCmd(t, m, cmd)

	if m.rows[0].IsRunning || m.rows[0].DurationSeconds == nil || *m.rows[0].DurationSeconds != 1200 {
		t.Fatalf("row after stop = %+v", m.rows[0])
	}
	if !strings.Contains(m.status, "Stopped interval") {
		t.Fatalf("status = %q", m.status)
	}

	running, err := f.engine.AllRunning(context.Background())
	if err != nil || len(running) != 0 {
		t.Fatalf("engine still has running intervals: %v, %v", running, err)
	}

	// stopping again is refused locally
	m, cmd = typeKey(m, "s")
	if cmd != nil || !strings.Contains(m.status, "not running") {
		t.Fatalf("status = %q", m.status)
	}
}

func TestListModelDelete(t *testing.T) {
	f, m := newListFixture(t, 2)
	m, _ = send(m, tea.WindowSizeMsg{Width: 140, Height: 40})

	// running intervals cannot be deleted
	m, cmd := typeKey(m, "x")
	if cmd != nil || m.confirmDelete {
		t.Fatal("delete of a running interval should be refused")
	}

	m, _ = typeKey(m, "j")
	target := m.rows[1].ID

	// anything but y cancels
	m, _ = typeKey(m, "x")
	m, cmd = typeKey(m, "n")
	if cmd != nil || m.confirmDelete || len(m.rows) != 3 {
		t.Fatal("n should cancel the delete")
	}

	m, _ = typeKey(m, "x")
	if !m.confirmDelete {
		t.Fatal("x should ask for confirmation")
	}
	m, cmd = typeKey(m, "y")
	m = runCmd(t, m, cmd)

	if len(m.rows) != 2 {
		t.Fatalf("rows = %d after delete, want 2", len(m.rows))
	}
	for _, iv := range m.rows {
		if iv.ID == target {
			t.Fatal("deleted interval still listed")
		}
	}
	if _, err := f.engine.Get(context.Background(), target); !timer.IsKind(err, timer.KindNotFound) {
		t.Fatalf("engine Get after delete: %v", err)
	}
}

func TestListModelEngineError(t *testing.T) {
	_, m := newListFixture(t, 1)
	m, _ = send(m, listActionMsg{err: &timer.Error{Kind: timer.KindNotFound, Message: "interval #9 not found"}})
	if !strings.HasPrefix(m.status, "Error:") || len(m.rows) != 2 {
		t.Fatalf("status = %q, rows = %d", m.status, len(m.rows))
	}
}

func TestListModelEmptyView(t *testing.T) {
	m := NewListModel(context.Background(), nil, nil, nil, time.Now())
	m, _ = send(m, tea.WindowSizeMsg{Width: 100, Height: 30})
	if !strings.Contains(m.View(), "No intervals found") {
		t.Fatal("empty list should say so")
	}
	if next, cmd := typeKey(m, "s"); cmd != nil || next.status != "" {
		t.Fatal("stop on an empty list should do nothing")
	}
	if _, cmd := typeKey(m, "q"); !isQuit(cmd) {
		t.Fatal("q should quit")
	}
}
