// Package memory is an in-process implementation of store.Store for tests and demos.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/balkashynov/tally/internal/models"
	"github.com/balkashynov/tally/internal/store"
)

// Store keeps every record in maps. One mutex serializes all calls,
// so a transaction never overlaps another read or write.
type Store struct {
	mu sync.Mutex
	t  *tables
}

// tables holds the records. It is not safe for concurrent use; Store
// guards it.
type tables struct {
	nextID    uint
	intervals map[uint]models.Interval
	clients   map[uint]models.Client
	projects  map[uint]models.Project

	now func() time.Time
}

var (
	_ store.Store      = (*Store)(nil)
	_ store.Transactor = (*Store)(nil)
	_ store.Store      = (*tables)(nil)
)

// New returns an empty store.
func New() *Store {
	return &Store{t: &tables{
		intervals: make(map[uint]models.Interval),
		clients:   make(map[uint]models.Client),
		projects:  make(map[uint]models.Project),
		now:       time.Now,
	}}
}

// Close is a no-op.
func (s *Store) Close() error { return nil }

func (s *Store) InsertInterval(ctx context.Context, iv *models.Interval) (*models.Interval, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.t.InsertInterval(ctx, iv)
}

func (s *Store) UpdateInterval(ctx context.Context, id uint, patch models.IntervalPatch) (*models.Interval, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.t.UpdateInterval(ctx, id, patch)
}

func (s *Store) DeleteInterval(ctx context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.t.DeleteInterval(ctx, id)
}

func (s *Store) FindInterval(ctx context.Context, q store.Query) (*models.Interval, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.t.FindInterval(ctx, q)
}

func (s *Store) ListIntervals(ctx context.Context, q store.Query) ([]models.Interval, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.t.ListIntervals(ctx, q)
}

func (s *Store) CreateClient(ctx context.Context, c *models.Client) (*models.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.t.CreateClient(ctx, c)
}

func (s *Store) ListClients(ctx context.Context) ([]models.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.t.ListClients(ctx)
}

func (s *Store) CreateProject(ctx context.Context, p *models.Project) (*models.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.t.CreateProject(ctx, p)
}

func (s *Store) GetProject(ctx context.Context, id uint) (*models.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.t.GetProject(ctx, id)
}

func (s *Store) ListProjects(ctx context.Context) ([]models.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.t.ListProjects(ctx)
}

func (s *Store) SetProjectRate(ctx context.Context, id uint, rate *float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.t.SetProjectRate(ctx, id, rate)
}

// InTx runs fn with the store locked and puts back the previous contents
// if fn fails. fn must use the Store it is given, not s.
func (s *Store) InTx(ctx context.Context, fn func(store.Store) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.t.clone()
	if err := fn(s.t); err != nil {
		s.t = snap
		return err
	}
	return nil
}

func (t *tables) Close() error { return nil }

func (t *tables) id() uint {
	t.nextID++
	return t.nextID
}

// ---------------------------------------------------------------------------
// Intervals
// ---------------------------------------------------------------------------

func (t *tables) InsertInterval(ctx context.Context, iv *models.Interval) (*models.Interval, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rec := cloneInterval(*iv)
	rec.ID = t.id()
	now := t.now().UTC()
	rec.CreatedAt, rec.UpdatedAt = now, now
	t.intervals[rec.ID] = rec

	out := cloneInterval(rec)
	return &out, nil
}

func (t *tables) UpdateInterval(ctx context.Context, id uint, patch models.IntervalPatch) (*models.Interval, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rec, ok := t.intervals[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if patch.StartTime != nil {
		rec.StartTime = *patch.StartTime
	}
	if patch.EndTime != nil {
		end := *patch.EndTime
		rec.EndTime = &end
	}
	if patch.DurationSeconds != nil {
		d := *patch.DurationSeconds
		rec.DurationSeconds = &d
	}
	if patch.IsRunning != nil {
		rec.IsRunning = *patch.IsRunning
	}
	if patch.Notes != nil {
		if *patch.Notes == "" {
			rec.Notes = nil
		} else {
			n := *patch.Notes
			rec.Notes = &n
		}
	}
	rec.UpdatedAt = t.now().UTC()
	t.intervals[id] = rec

	out := cloneInterval(rec)
	return &out, nil
}

func (t *tables) DeleteInterval(ctx context.Context, id uint) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, ok := t.intervals[id]; !ok {
		return store.ErrNotFound
	}
	delete(t.intervals, id)
	return nil
}

func (t *tables) FindInterval(ctx context.Context, q store.Query) (*models.Interval, error) {
	rows, err := t.ListIntervals(ctx, q.Take(1))
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func (t *tables) ListIntervals(ctx context.Context, q store.Query) ([]models.Interval, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}
	out := []models.Interval{}
	for _, iv := range t.intervals {
		ok, err := matches(iv, q.Filters)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, cloneInterval(iv))
		}
	}

	field, desc := store.FieldID, false
	if q.OrderBy != nil {
		field, desc = q.OrderBy.Field, q.OrderBy.Desc
	}
	var sortErr error
	sort.SliceStable(out, func(i, j int) bool {
		c, err := compareFields(out[i], out[j], field)
		if err != nil {
			sortErr = err
			return false
		}
		if c == 0 {
			return out[i].ID < out[j].ID
		}
		if desc {
			return c > 0
		}
		return c < 0
	})
	if sortErr != nil {
		return nil, sortErr
	}

	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Catalog
// ---------------------------------------------------------------------------

func (t *tables) CreateClient(ctx context.Context, c *models.Client) (*models.Client, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for _, existing := range t.clients {
		if strings.EqualFold(existing.Name, c.Name) {
			return nil, fmt.Errorf("client %q already exists", c.Name)
		}
	}
	rec := *c
	rec.Projects = nil
	rec.ID = t.id()
	now := t.now().UTC()
	rec.CreatedAt, rec.UpdatedAt = now, now
	t.clients[rec.ID] = rec
	return &rec, nil
}

func (t *tables) ListClients(ctx context.Context) ([]models.Client, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]models.Client, 0, len(t.clients))
	for _, c := range t.clients {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (t *tables) CreateProject(ctx context.Context, p *models.Project) (*models.Project, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	client, ok := t.clients[p.ClientID]
	if !ok {
		return nil, fmt.Errorf("client #%d not found", p.ClientID)
	}
	rec := *p
	rec.ID = t.id()
	rec.HourlyRate = cloneFloat(p.HourlyRate)
	now := t.now().UTC()
	rec.CreatedAt, rec.UpdatedAt = now, now
	rec.Client = models.Client{}
	t.projects[rec.ID] = rec

	rec.Client = client
	return &rec, nil
}

func (t *tables) GetProject(ctx context.Context, id uint) (*models.Project, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, ok := t.projects[id]
	if !ok {
		return nil, nil
	}
	p.HourlyRate = cloneFloat(p.HourlyRate)
	p.Client = t.clients[p.ClientID]
	return &p, nil
}

func (t *tables) ListProjects(ctx context.Context) ([]models.Project, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]models.Project, 0, len(t.projects))
	for _, p := range t.projects {
		p.HourlyRate = cloneFloat(p.HourlyRate)
		p.Client = t.clients[p.ClientID]
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (t *tables) SetProjectRate(ctx context.Context, id uint, rate *float64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p, ok := t.projects[id]
	if !ok {
		return store.ErrNotFound
	}
	p.HourlyRate = cloneFloat(rate)
	p.UpdatedAt = t.now().UTC()
	t.projects[id] = p
	return nil
}

func (t *tables) clone() *tables {
	c := &tables{
		nextID:    t.nextID,
		intervals: make(map[uint]models.Interval, len(t.intervals)),
		clients:   make(map[uint]models.Client, len(t.clients)),
		projects:  make(map[uint]models.Project, len(t.projects)),
		now:       t.now,
	}
	for k, v := range t.intervals {
		c.intervals[k] = cloneInterval(v)
	}
	for k, v := range t.clients {
		c.clients[k] = v
	}
	for k, v := range t.projects {
		v.HourlyRate = cloneFloat(v.HourlyRate)
		c.projects[k] = v
	}
	return c
}

func cloneInterval(iv models.Interval) models.Interval {
	if iv.EndTime != nil {
		t := *iv.EndTime
		iv.EndTime = &t
	}
	if iv.DurationSeconds != nil {
		d := *iv.DurationSeconds
		iv.DurationSeconds = &d
	}
	if iv.Notes != nil {
		n := *iv.Notes
		iv.Notes = &n
	}
	return iv
}

func cloneFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}
