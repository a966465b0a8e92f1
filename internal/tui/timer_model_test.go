package tui

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/balkashynov/tally/internal/store/memory"
	"github.com/balkashynov/tally/internal/timer"
)

func newRunningModel(t *testing.T) (TimerModel, *timer.Engine, *time.Time) {
	t.Helper()
	ctx := context.Background()
	now := time.Date(2024, 7, 1, 9, 0, 0, 0, time.UTC)
	e := timer.New(memory.New(), timer.WithClock(timer.ClockFunc(func() time.Time { return now })))

	c, err := e.CreateClient(ctx, "Acme", 60)
	if err != nil {
		t.Fatal(err)
	}
	p, err := e.CreateProject(ctx, c.ID, "Website", nil)
	if err != nil {
		t.Fatal(err)
	}
	iv, err := e.Start(ctx, p.ID, "landing page")
	if err != nil {
		t.Fatal(err)
	}
	project, err := e.Project(ctx, p.ID)
	if err != nil {
		t.Fatal(err)
	}
	return NewTimerModel(ctx, e, iv, project), e, &now
}

func press(m TimerModel, r rune) (TimerModel, tea.Cmd) {
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	return next.(TimerModel), cmd
}

func isQuit(cmd tea.Cmd) bool {
	if cmd == nil {
		return false
	}
	_, ok := cmd().(tea.QuitMsg)
	return ok
}

func TestTimerModelTick(t *testing.T) {
	m, _, now := newRunningModel(t)
	*now = now.Add(75 * time.Second)

	next, cmd := m.Update(timerTickMsg{})
	m = next.(TimerModel)
	if m.elapsed != 75 {
		t.Fatalf("elapsed = %d, want 75", m.elapsed)
	}
	if cmd == nil {
		t.Fatal("tick should schedule the next tick")
	}

	next, _ = m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	view := next.(TimerModel).View()
	if !strings.Contains(view, "Acme / Website") {
		t.Fatal("view should show the project label")
	}
	if !strings.Contains(view, "1.25") {
		t.Fatal("view should show the running cost")
	}
}

func TestTimerModelStop(t *testing.T) {
	m, e, now := newRunningModel(t)
	*now = now.Add(90 * time.Second)

	m, cmd := press(m, 's')
	if !m.busy || cmd == nil {
		t.Fatal("s should start a stop")
	}
	next, cmd := m.Update(cmd())
	m = next.(TimerModel)
	if !isQuit(cmd) {
		t.Fatal("model should quit once the stop completes")
	}

	outcome, closed, err := m.Outcome()
	if err != nil {
		t.Fatal(err)
	}
	if outcome != OutcomeStopped || closed == nil || *closed.DurationSeconds != 90 {
		t.Fatalf("outcome = %v, interval = %+v", outcome, closed)
	}

	n, err := e.CountRunning(context.Background())
	if err != nil || n != 0 {
		t.Fatalf("running after stop = %d, %v", n, err)
	}

	var out bytes.Buffer
	if err := writeOutcome(&out, m, *now); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"Stopped Acme / Website", "Duration: 00:01:30 · cost 1.50"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("summary missing %q:\n%s", want, out.String())
		}
	}
}

func TestTimerModelPause(t *testing.T) {
	m, e, _ := newRunningModel(t)

	m, cmd := press(m, 'p')
	next, _ := m.Update(cmd())
	outcome, _, err := next.(TimerModel).Outcome()
	if err != nil {
		t.Fatal(err)
	}
	if outcome != OutcomePaused {
		t.Fatalf("outcome = %v, want paused", outcome)
	}
	state, err := e.Status(context.Background(), m.interval.ProjectID)
	if err != nil {
		t.Fatal(err)
	}
	if state != timer.StatePaused {
		t.Fatalf("state = %s, want paused", state)
	}
}

func TestTimerModelDetach(t *testing.T) {
	m, e, _ := newRunningModel(t)

	m, cmd := press(m, 'q')
	if !isQuit(cmd) {
		t.Fatal("q should quit")
	}
	if outcome, _, _ := m.Outcome(); outcome != OutcomeDetached {
		t.Fatalf("outcome = %v, want detached", outcome)
	}
	running, err := e.RunningForProject(context.Background(), m.interval.ProjectID)
	if err != nil || running == nil {
		t.Fatal("leaving the screen must not stop the timer")
	}

	var out bytes.Buffer
	if err := writeOutcome(&out, m, e.Now()); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "Timer is still running for Acme / Website") {
		t.Errorf("unexpected summary:\n%s", out.String())
	}
}

func TestRenderBigClock(t *testing.T) {
	out := renderBigClock("01:02:03", 80)
	if lines := strings.Split(out, "\n"); len(lines) != 5 {
		t.Fatalf("clock should be five rows, got %d", len(lines))
	}
}
