// Package timer is the timer engine: it opens, closes and edits time
// intervals through a store.Store while keeping at most one running interval
// per project.
//
// The invariant is enforced by check-then-act against storage. When the store
// implements store.Transactor the check and the write share a transaction;
// otherwise two concurrent writers can race. The tool targets a single
// interactive user, so that window is accepted.
package timer

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/balkashynov/tally/internal/store"
)

// DefaultPausedWindow is how long after its last stop a project still counts as paused.
const DefaultPausedWindow = 24 * time.Hour

// Engine runs timer operations against a store.
type Engine struct {
	store        store.Store
	clock        Clock
	pausedWindow time.Duration
	log          *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock replaces the wall clock.
func WithClock(c Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithPausedWindow sets the recency window used by Status. Non-positive values are ignored.
func WithPausedWindow(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.pausedWindow = d
		}
	}
}

// WithLogger sets the logger for lifecycle events.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// New creates an engine on s. The caller owns s and closes it.
func New(s store.Store, opts ...Option) *Engine {
	e := &Engine{
		store:        s,
		clock:        SystemClock{},
		pausedWindow: DefaultPausedWindow,
		log:          slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// PausedWindow returns the configured recency window.
func (e *Engine) PausedWindow() time.Duration { return e.pausedWindow }

// Now returns the engine clock's current time in UTC.
func (e *Engine) Now() time.Time { return e.clock.Now().UTC() }

// minInterval is the length recorded for a stop that does not come after
// its start.
const minInterval = time.Second

// atomically runs fn in a transaction when the store supports one.
func (e *Engine) atomically(ctx context.Context, fn func(store.Store) error) error {
	if tx, ok := e.store.(store.Transactor); ok {
		return tx.InTx(ctx, fn)
	}
	return fn(e.store)
}
