package timer

import (
	"context"
	"time"

	"github.com/balkashynov/tally/internal/models"
	"github.com/balkashynov/tally/internal/store"
)

// ListFilter narrows List. Zero values mean no restriction.
type ListFilter struct {
	ProjectID uint
	From      time.Time // start_time >= From
	To        time.Time // start_time < To
	Limit     int
}

// RunningForProject returns the project's running interval, or nil.
func (e *Engine) RunningForProject(ctx context.Context, projectID uint) (*models.Interval, error) {
	iv, err := runningFor(ctx, e.store, projectID)
	if err != nil {
		return nil, storageErr("find running interval", err)
	}
	return iv, nil
}

// AllRunning returns every running interval, newest start first.
func (e *Engine) AllRunning(ctx context.Context) ([]models.Interval, error) {
	q := store.NewQuery(store.Where(store.FieldIsRunning, store.Eq, true)).
		Desc(store.FieldStartTime)
	rows, err := e.store.ListIntervals(ctx, q)
	if err != nil {
		return nil, storageErr("list running intervals", err)
	}
	return rows, nil
}

// CountRunning returns the number of running intervals.
func (e *Engine) CountRunning(ctx context.Context) (int, error) {
	rows, err := e.AllRunning(ctx)
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}

// MostRecent returns the project's interval with the latest start time, running or not.
func (e *Engine) MostRecent(ctx context.Context, projectID uint) (*models.Interval, error) {
	iv, err := mostRecentFor(ctx, e.store, projectID)
	if err != nil {
		return nil, storageErr("find most recent interval", err)
	}
	return iv, nil
}

// Get returns one interval.
func (e *Engine) Get(ctx context.Context, intervalID uint) (*models.Interval, error) {
	iv, err := getInterval(ctx, e.store, intervalID)
	if err != nil {
		return nil, storageErr("get interval", err)
	}
	return iv, nil
}

// List returns intervals matching f, newest start first.
func (e *Engine) List(ctx context.Context, f ListFilter) ([]models.Interval, error) {
	if f.Limit < 0 {
		return nil, validationf("limit must not be negative")
	}
	if !f.From.IsZero() && !f.To.IsZero() && !f.To.After(f.From) {
		return nil, validationf("range end must be after range start")
	}

	var filters []store.Filter
	if f.ProjectID != 0 {
		filters = append(filters, store.Where(store.FieldProjectID, store.Eq, f.ProjectID))
	}
	if !f.From.IsZero() {
		filters = append(filters, store.Where(store.FieldStartTime, store.Gte, f.From.UTC()))
	}
	if !f.To.IsZero() {
		filters = append(filters, store.Where(store.FieldStartTime, store.Lt, f.To.UTC()))
	}

	q := store.NewQuery(filters...).Desc(store.FieldStartTime).Take(f.Limit)
	rows, err := e.store.ListIntervals(ctx, q)
	if err != nil {
		return nil, storageErr("list intervals", err)
	}
	return rows, nil
}

// Closed returns stopped and manual intervals starting in [from, to), oldest first.
func (e *Engine) Closed(ctx context.Context, from, to time.Time) ([]models.Interval, error) {
	if !to.After(from) {
		return nil, validationf("range end must be after range start")
	}
	q := store.NewQuery(
		store.Where(store.FieldIsRunning, store.Eq, false),
		store.Where(store.FieldStartTime, store.Gte, from.UTC()),
		store.Where(store.FieldStartTime, store.Lt, to.UTC()),
	).Asc(store.FieldStartTime)

	rows, err := e.store.ListIntervals(ctx, q)
	if err != nil {
		return nil, storageErr("list closed intervals", err)
	}
	return rows, nil
}

func runningFor(ctx context.Context, s store.Intervals, projectID uint) (*models.Interval, error) {
	q := store.NewQuery(
		store.Where(store.FieldProjectID, store.Eq, projectID),
		store.Where(store.FieldIsRunning, store.Eq, true),
	)
	iv, err := s.FindInterval(ctx, q)
	if err != nil {
		return nil, storageErr("find running interval", err)
	}
	return iv, nil
}

func mostRecentFor(ctx context.Context, s store.Intervals, projectID uint) (*models.Interval, error) {
	q := store.NewQuery(store.Where(store.FieldProjectID, store.Eq, projectID)).
		Desc(store.FieldStartTime)
	iv, err := s.FindInterval(ctx, q)
	if err != nil {
		return nil, storageErr("find most recent interval", err)
	}
	return iv, nil
}

// getInterval loads an interval, reporting a missing row as NotFound.
func getInterval(ctx context.Context, s store.Intervals, id uint) (*models.Interval, error) {
	iv, err := s.FindInterval(ctx, store.NewQuery(store.Where(store.FieldID, store.Eq, id)))
	if err != nil {
		return nil, storageErr("get interval", err)
	}
	if iv == nil {
		return nil, notFoundf("interval #%d not found", id)
	}
	return iv, nil
}
