package timer

import (
	"context"
	"time"

	"github.com/balkashynov/tally/internal/models"
)

// State is the derived classification of a project's timer.
type State string

const (
	StateRunning State = "running"
	StatePaused  State = "paused"
	StateStopped State = "stopped"
)

// Classify derives the state from the project's running interval and its
// most recent interval. It reads nothing but its arguments.
func Classify(running, latest *models.Interval, now time.Time, window time.Duration) State {
	if running != nil {
		return StateRunning
	}
	if latest != nil && latest.EndTime != nil && now.Sub(*latest.EndTime) <= window {
		return StatePaused
	}
	return StateStopped
}

// Snapshot is everything a status display needs about one project.
type Snapshot struct {
	ProjectID uint
	State     State
	Running   *models.Interval
	Latest    *models.Interval
	// Elapsed is the live duration of Running, zero otherwise.
	Elapsed int64
	Now     time.Time
}

// Status classifies the project's timer.
func (e *Engine) Status(ctx context.Context, projectID uint) (State, error) {
	snap, err := e.Snapshot(ctx, projectID)
	if err != nil {
		return "", err
	}
	return snap.State, nil
}

// Snapshot reads the project's timer state in one pass.
func (e *Engine) Snapshot(ctx context.Context, projectID uint) (*Snapshot, error) {
	running, err := e.RunningForProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	latest, err := e.MostRecent(ctx, projectID)
	if err != nil {
		return nil, err
	}

	now := e.Now()
	snap := &Snapshot{
		ProjectID: projectID,
		State:     Classify(running, latest, now, e.pausedWindow),
		Running:   running,
		Latest:    latest,
		Now:       now,
	}
	if running != nil {
		snap.Elapsed = ClampElapsed(running.StartTime, now)
	}
	return snap, nil
}

// EffectiveRate returns the hourly rate billed for the project.
func (e *Engine) EffectiveRate(ctx context.Context, projectID uint) (float64, error) {
	project, err := e.Project(ctx, projectID)
	if err != nil {
		return 0, err
	}
	return project.EffectiveRate(), nil
}

// IntervalCost prices an interval at its project's rate. Running intervals
// are priced on their live elapsed time.
func (e *Engine) IntervalCost(ctx context.Context, iv models.Interval) (float64, error) {
	rate, err := e.EffectiveRate(ctx, iv.ProjectID)
	if err != nil {
		return 0, err
	}
	return Cost(DurationOf(iv, e.Now()), rate), nil
}

// Project loads a project with its client.
func (e *Engine) Project(ctx context.Context, projectID uint) (*models.Project, error) {
	project, err := e.store.GetProject(ctx, projectID)
	if err != nil {
		return nil, storageErr("load project", err)
	}
	if project == nil {
		return nil, notFoundf("project #%d not found", projectID)
	}
	return project, nil
}
