// Package store defines the storage boundary used by the timer engine.
//
// Implementations live in the memory and sqlstore subpackages. The engine
// depends only on the interfaces declared here.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/balkashynov/tally/internal/models"
)

// ErrNotFound is returned by update and delete when the row does not exist.
// Single-row queries report "no rows" as (nil, nil) instead.
var ErrNotFound = errors.New("record not found")

// Intervals is the record store for time intervals.
type Intervals interface {
	// InsertInterval stores iv and returns it with its generated id and timestamps.
	InsertInterval(ctx context.Context, iv *models.Interval) (*models.Interval, error)

	// UpdateInterval applies patch to the interval and returns the updated record.
	UpdateInterval(ctx context.Context, id uint, patch models.IntervalPatch) (*models.Interval, error)

	// DeleteInterval removes the interval.
	DeleteInterval(ctx context.Context, id uint) error

	// FindInterval returns the first match of q, or nil when nothing matches.
	FindInterval(ctx context.Context, q Query) (*models.Interval, error)

	// ListIntervals returns every match of q.
	ListIntervals(ctx context.Context, q Query) ([]models.Interval, error)
}

// Catalog holds clients and projects.
type Catalog interface {
	CreateClient(ctx context.Context, c *models.Client) (*models.Client, error)
	ListClients(ctx context.Context) ([]models.Client, error)

	CreateProject(ctx context.Context, p *models.Project) (*models.Project, error)
	// GetProject returns the project with its client loaded, or nil when missing.
	GetProject(ctx context.Context, id uint) (*models.Project, error)
	ListProjects(ctx context.Context) ([]models.Project, error)
	// SetProjectRate sets or, with a nil rate, clears the project's override.
	SetProjectRate(ctx context.Context, id uint, rate *float64) error
}

// Store is the full storage collaborator.
type Store interface {
	Intervals
	Catalog
	Close() error
}

// Transactor is implemented by stores that can run a sequence of operations
// atomically. fn receives a Store bound to the transaction; returning an
// error rolls it back.
type Transactor interface {
	InTx(ctx context.Context, fn func(Store) error) error
}

// Op is a filter comparison.
type Op int

const (
	Eq Op = iota
	Gt
	Gte
	Lt
	Lte
	IsNull
	NotNull
)

func (o Op) String() string {
	switch o {
	case Eq:
		return "="
	case Gt:
		return ">"
	case Gte:
		return ">="
	case Lt:
		return "<"
	case Lte:
		return "<="
	case IsNull:
		return "IS NULL"
	case NotNull:
		return "IS NOT NULL"
	default:
		return fmt.Sprintf("Op(%d)", int(o))
	}
}

// Interval columns that may be filtered and ordered on.
const (
	FieldID              = "id"
	FieldProjectID       = "project_id"
	FieldStartTime       = "start_time"
	FieldEndTime         = "end_time"
	FieldDurationSeconds = "duration_seconds"
	FieldIsRunning       = "is_running"
	FieldIsManual        = "is_manual"
)

var intervalFields = map[string]bool{
	FieldID:              true,
	FieldProjectID:       true,
	FieldStartTime:       true,
	FieldEndTime:         true,
	FieldDurationSeconds: true,
	FieldIsRunning:       true,
	FieldIsManual:        true,
}

// Filter restricts a query to rows where Field Op Value holds.
// Value is ignored for IsNull and NotNull.
type Filter struct {
	Field string
	Op    Op
	Value any
}

// Order sorts a query by one field.
type Order struct {
	Field string
	Desc  bool
}

// Query selects intervals. A zero Limit means no limit.
type Query struct {
	Filters []Filter
	OrderBy *Order
	Limit   int
}

// Where is shorthand for a Filter.
func Where(field string, op Op, value any) Filter {
	return Filter{Field: field, Op: op, Value: value}
}

// NewQuery builds a query from filters.
func NewQuery(filters ...Filter) Query {
	return Query{Filters: filters}
}

// Desc returns a copy of q ordered by field descending.
func (q Query) Desc(field string) Query {
	q.OrderBy = &Order{Field: field, Desc: true}
	return q
}

// Asc returns a copy of q ordered by field ascending.
func (q Query) Asc(field string) Query {
	q.OrderBy = &Order{Field: field}
	return q
}

// Take returns a copy of q limited to n rows.
func (q Query) Take(n int) Query {
	q.Limit = n
	return q
}

// Validate rejects unknown fields and malformed filters.
func (q Query) Validate() error {
	for _, f := range q.Filters {
		if !intervalFields[f.Field] {
			return fmt.Errorf("unknown filter field %q", f.Field)
		}
		if f.Op < Eq || f.Op > NotNull {
			return fmt.Errorf("invalid operator %v on %q", f.Op, f.Field)
		}
		if f.Op != IsNull && f.Op != NotNull && f.Value == nil {
			return fmt.Errorf("filter on %q needs a value", f.Field)
		}
	}
	if q.OrderBy != nil && !intervalFields[q.OrderBy.Field] {
		return fmt.Errorf("unknown order field %q", q.OrderBy.Field)
	}
	if q.Limit < 0 {
		return fmt.Errorf("negative limit %d", q.Limit)
	}
	return nil
}
