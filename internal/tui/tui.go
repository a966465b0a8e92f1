package tui

import (
	"context"
	"fmt"
	"io"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/balkashynov/tally/internal/models"
	"github.com/balkashynov/tally/internal/timer"
)

// RunTimerTUI shows the live timer for a running interval until the user
// pauses, stops or leaves it, and writes what happened to out.
func RunTimerTUI(ctx context.Context, engine *timer.Engine, iv *models.Interval, out io.Writer) error {
	project, err := engine.Project(ctx, iv.ProjectID)
	if err != nil {
		return err
	}

	p := tea.NewProgram(NewTimerModel(ctx, engine, iv, project), tea.WithAltScreen(), tea.WithContext(ctx))
	finalModel, err := p.Run()
	if err != nil {
		return err
	}

	m, ok := finalModel.(TimerModel)
	if !ok {
		return nil
	}
	return writeOutcome(out, m, engine.Now())
}

// writeOutcome prints the summary shown once the live timer closes.
func writeOutcome(out io.Writer, m TimerModel, now time.Time) error {
	outcome, closed, err := m.Outcome()
	if err != nil {
		return err
	}
	project := m.project

	switch outcome {
	case OutcomePaused, OutcomeStopped:
		verb := "Stopped"
		if outcome == OutcomePaused {
			verb = "Paused"
		}
		d := timer.DurationOf(*closed, now)
		fmt.Fprintf(out, "⏹️  %s %s (interval #%d)\n", verb, project.Label(), closed.ID)
		fmt.Fprintf(out, "📊 Duration: %s · cost %s\n",
			timer.FormatDuration(d), timer.FormatCost(timer.Cost(d, project.EffectiveRate())))
		if outcome == OutcomePaused {
			fmt.Fprintf(out, "   Use 'tally resume %d' to continue.\n", project.ID)
		}
	default:
		fmt.Fprintf(out, "\n💡 Timer is still running for %s (interval #%d)\n", project.Label(), m.interval.ID)
		fmt.Fprintf(out, "   Use 'tally status' to check it or 'tally stop %d' to stop it.\n", m.interval.ID)
	}
	return nil
}

// RunListTUI opens the interval browser.
func RunListTUI(ctx context.Context, engine *timer.Engine, intervals []models.Interval, projects []models.Project, now time.Time) error {
	p := tea.NewProgram(NewListModel(ctx, engine, intervals, projects, now), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
