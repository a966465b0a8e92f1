package timer

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/balkashynov/tally/internal/models"
	"github.com/balkashynov/tally/internal/store"
)

// Update describes an edit to an interval. Nil fields are left unchanged;
// an empty Notes clears the notes.
type Update struct {
	StartTime *time.Time
	EndTime   *time.Time
	Notes     *string
}

// Start opens a running interval on the project.
// Returns a conflict error if the project already has one.
func (e *Engine) Start(ctx context.Context, projectID uint, notes string) (*models.Interval, error) {
	var started *models.Interval
	err := e.atomically(ctx, func(s store.Store) error {
		iv, err := e.start(ctx, s, projectID, notes)
		started = iv
		return err
	})
	if err != nil {
		return nil, storageErr("start timer", err)
	}

	e.log.Info("timer started",
		slog.Uint64("project_id", uint64(projectID)),
		slog.Uint64("interval_id", uint64(started.ID)))
	return started, nil
}

func (e *Engine) start(ctx context.Context, s store.Store, projectID uint, notes string) (*models.Interval, error) {
	if err := requireProject(ctx, s, projectID); err != nil {
		return nil, err
	}

	running, err := runningFor(ctx, s, projectID)
	if err != nil {
		return nil, err
	}
	if running != nil {
		return nil, conflictf("a timer is already running for project #%d (interval #%d)", projectID, running.ID)
	}

	created, err := s.InsertInterval(ctx, &models.Interval{
		ProjectID: projectID,
		StartTime: e.Now(),
		IsRunning: true,
		Notes:     notePtr(notes),
	})
	if err != nil {
		return nil, storageErr("insert interval", err)
	}
	return created, nil
}

// Stop closes a running interval at the current time.
func (e *Engine) Stop(ctx context.Context, intervalID uint) (*models.Interval, error) {
	var stopped *models.Interval
	err := e.atomically(ctx, func(s store.Store) error {
		iv, err := e.stop(ctx, s, intervalID)
		stopped = iv
		return err
	})
	if err != nil {
		return nil, storageErr("stop timer", err)
	}
	e.logStopped("timer stopped", stopped)
	return stopped, nil
}

// StopForProject stops the project's running interval.
func (e *Engine) StopForProject(ctx context.Context, projectID uint) (*models.Interval, error) {
	var stopped *models.Interval
	err := e.atomically(ctx, func(s store.Store) error {
		running, err := runningFor(ctx, s, projectID)
		if err != nil {
			return err
		}
		if running == nil {
			return notFoundf("no running timer for project #%d", projectID)
		}
		stopped, err = e.stop(ctx, s, running.ID)
		return err
	})
	if err != nil {
		return nil, storageErr("stop timer", err)
	}
	e.logStopped("timer stopped", stopped)
	return stopped, nil
}

// Pause stops the project's running interval. It differs from StopForProject
// only in intent: the caller expects to Resume soon.
func (e *Engine) Pause(ctx context.Context, projectID uint) (*models.Interval, error) {
	iv, err := e.StopForProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	e.log.Debug("timer paused", slog.Uint64("project_id", uint64(projectID)))
	return iv, nil
}

func (e *Engine) stop(ctx context.Context, s store.Store, intervalID uint) (*models.Interval, error) {
	iv, err := getInterval(ctx, s, intervalID)
	if err != nil {
		return nil, err
	}
	if !iv.IsRunning {
		return nil, invalidStatef("interval #%d is not running", intervalID)
	}

	end := e.Now()
	if !end.After(iv.StartTime) {
		// stopped in the same instant it started, or the wall clock moved
		// backwards; end must stay strictly after start
		e.log.Warn("stop time does not follow start time, recording one second",
			slog.Uint64("interval_id", uint64(iv.ID)),
			slog.Time("start_time", iv.StartTime),
			slog.Time("now", end))
		end = iv.StartTime.Add(minInterval)
	}
	duration := ElapsedSeconds(iv.StartTime, end)
	running := false

	updated, err := s.UpdateInterval(ctx, intervalID, models.IntervalPatch{
		EndTime:         &end,
		DurationSeconds: &duration,
		IsRunning:       &running,
	})
	if errors.Is(err, store.ErrNotFound) {
		return nil, notFoundf("interval #%d not found", intervalID)
	}
	if err != nil {
		return nil, storageErr("update interval", err)
	}
	return updated, nil
}

// Resume starts a new interval on a project that has none running. With
// copyNotes the notes of the project's most recent interval carry over.
func (e *Engine) Resume(ctx context.Context, projectID uint, copyNotes bool) (*models.Interval, error) {
	var started *models.Interval
	err := e.atomically(ctx, func(s store.Store) error {
		running, err := runningFor(ctx, s, projectID)
		if err != nil {
			return err
		}
		if running != nil {
			return conflictf("project #%d already has a running timer (interval #%d)", projectID, running.ID)
		}

		notes := ""
		if copyNotes {
			last, err := mostRecentFor(ctx, s, projectID)
			if err != nil {
				return err
			}
			if last != nil && last.HasNotes() {
				notes = *last.Notes
			}
		}
		started, err = e.start(ctx, s, projectID, notes)
		return err
	})
	if err != nil {
		return nil, storageErr("resume timer", err)
	}

	e.log.Info("timer resumed",
		slog.Uint64("project_id", uint64(projectID)),
		slog.Uint64("interval_id", uint64(started.ID)),
		slog.Bool("notes_copied", started.HasNotes()))
	return started, nil
}

// CreateManualEntry records a closed interval that was not timed live.
func (e *Engine) CreateManualEntry(ctx context.Context, projectID uint, start, end time.Time, notes string) (*models.Interval, error) {
	if !end.After(start) {
		return nil, validationf("end time %s must be after start time %s",
			end.Format(time.RFC3339), start.Format(time.RFC3339))
	}
	if err := requireProject(ctx, e.store, projectID); err != nil {
		return nil, err
	}

	start, end = start.UTC(), end.UTC()
	duration := ElapsedSeconds(start, end)
	created, err := e.store.InsertInterval(ctx, &models.Interval{
		ProjectID:       projectID,
		StartTime:       start,
		EndTime:         &end,
		DurationSeconds: &duration,
		IsManual:        true,
		Notes:           notePtr(notes),
	})
	if err != nil {
		return nil, storageErr("insert interval", err)
	}

	e.log.Info("manual entry created",
		slog.Uint64("project_id", uint64(projectID)),
		slog.Uint64("interval_id", uint64(created.ID)),
		slog.Int64("duration_seconds", duration))
	return created, nil
}

// UpdateInterval edits an interval's times or notes. Supplying either time
// recomputes the duration from the resulting pair. The end time of a running
// interval cannot be edited; stop it first.
func (e *Engine) UpdateInterval(ctx context.Context, intervalID uint, upd Update) (*models.Interval, error) {
	var updated *models.Interval
	err := e.atomically(ctx, func(s store.Store) error {
		patch := models.IntervalPatch{Notes: upd.Notes}

		if upd.StartTime != nil || upd.EndTime != nil {
			existing, err := getInterval(ctx, s, intervalID)
			if err != nil {
				return err
			}
			if upd.EndTime != nil && existing.IsRunning {
				return invalidStatef("interval #%d is running; stop it before editing its end time", intervalID)
			}

			start := existing.StartTime
			if upd.StartTime != nil {
				start = upd.StartTime.UTC()
				patch.StartTime = &start
			}
			var end *time.Time
			if existing.EndTime != nil {
				t := existing.EndTime.UTC()
				end = &t
			}
			if upd.EndTime != nil {
				t := upd.EndTime.UTC()
				end = &t
				patch.EndTime = &t
			}

			if end != nil {
				if !end.After(start) {
					return validationf("end time %s must be after start time %s",
						end.Format(time.RFC3339), start.Format(time.RFC3339))
				}
				duration := ElapsedSeconds(start, *end)
				patch.DurationSeconds = &duration
			} else if start.After(e.Now()) {
				return validationf("start time of a running interval cannot be in the future")
			}
		}

		var err error
		if patch.Empty() {
			updated, err = getInterval(ctx, s, intervalID)
			return err
		}
		updated, err = s.UpdateInterval(ctx, intervalID, patch)
		if errors.Is(err, store.ErrNotFound) {
			return notFoundf("interval #%d not found", intervalID)
		}
		if err != nil {
			return storageErr("update interval", err)
		}
		return nil
	})
	if err != nil {
		return nil, storageErr("update interval", err)
	}

	e.log.Debug("interval updated", slog.Uint64("interval_id", uint64(intervalID)))
	return updated, nil
}

// DeleteInterval removes a closed interval.
func (e *Engine) DeleteInterval(ctx context.Context, intervalID uint) error {
	err := e.atomically(ctx, func(s store.Store) error {
		iv, err := getInterval(ctx, s, intervalID)
		if err != nil {
			return err
		}
		if iv.IsRunning {
			return invalidStatef("cannot delete a running timer (interval #%d)", intervalID)
		}
		err = s.DeleteInterval(ctx, intervalID)
		if errors.Is(err, store.ErrNotFound) {
			return notFoundf("interval #%d not found", intervalID)
		}
		if err != nil {
			return storageErr("delete interval", err)
		}
		return nil
	})
	if err != nil {
		return storageErr("delete interval", err)
	}

	e.log.Info("interval deleted", slog.Uint64("interval_id", uint64(intervalID)))
	return nil
}

func (e *Engine) logStopped(msg string, iv *models.Interval) {
	var duration int64
	if iv.DurationSeconds != nil {
		duration = *iv.DurationSeconds
	}
	e.log.Info(msg,
		slog.Uint64("project_id", uint64(iv.ProjectID)),
		slog.Uint64("interval_id", uint64(iv.ID)),
		slog.Int64("duration_seconds", duration))
}

func requireProject(ctx context.Context, s store.Catalog, projectID uint) error {
	project, err := s.GetProject(ctx, projectID)
	if err != nil {
		return storageErr("load project", err)
	}
	if project == nil {
		return notFoundf("project #%d not found", projectID)
	}
	return nil
}

func notePtr(notes string) *string {
	if notes == "" {
		return nil
	}
	return &notes
}
