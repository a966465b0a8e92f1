package sqlstore

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/balkashynov/tally/internal/models"
	"github.com/balkashynov/tally/internal/store"
	"github.com/balkashynov/tally/internal/timer"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "tally.db")
	s, err := OpenSQLite(dbPath, Options{})
	if err != nil {
		t.Fatalf("OpenSQLite(%q): %v", dbPath, err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func seedProject(t *testing.T, s *Store) *models.Project {
	t.Helper()
	ctx := context.Background()
	c, err := s.CreateClient(ctx, &models.Client{Name: "Hooli", HourlyRate: 90})
	if err != nil {
		t.Fatalf("CreateClient: %v", err)
	}
	p, err := s.CreateProject(ctx, &models.Project{ClientID: c.ID, Name: "Nucleus"})
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	return p
}

func TestOpenCreatesDirectory(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "dir", "tally.db")
	s, err := OpenSQLite(dbPath, Options{})
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	s.Close()
}

func TestIntervalRoundTrip(t *testing.T) {
	s := newTestStore(t)
	p := seedProject(t, s)
	ctx := context.Background()

	local := time.FixedZone("CET", 3600)
	start := time.Date(2024, 6, 3, 10, 0, 0, 0, local)
	notes := "kickoff"
	iv, err := s.InsertInterval(ctx, &models.Interval{ProjectID: p.ID, StartTime: start, IsRunning: true, Notes: &notes})
	if err != nil {
		t.Fatalf("InsertInterval: %v", err)
	}
	if !iv.StartTime.Equal(start) {
		t.Fatalf("start_time = %v, want %v", iv.StartTime, start)
	}

	end := start.Add(45 * time.Minute)
	d := int64(2700)
	running := false
	updated, err := s.UpdateInterval(ctx, iv.ID, models.IntervalPatch{EndTime: &end, DurationSeconds: &d, IsRunning: &running})
	if err != nil {
		t.Fatalf("UpdateInterval: %v", err)
	}
	if updated.IsRunning || updated.EndTime == nil || !updated.EndTime.Equal(end) || *updated.DurationSeconds != 2700 {
		t.Fatalf("unexpected update result %+v", updated)
	}
	if updated.NoteText() != "kickoff" {
		t.Fatal("untouched notes changed")
	}

	if err := s.DeleteInterval(ctx, iv.ID); err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteInterval(ctx, iv.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("second delete = %v, want ErrNotFound", err)
	}
	if _, err := s.UpdateInterval(ctx, iv.ID, models.IntervalPatch{IsRunning: &running}); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("update deleted = %v, want ErrNotFound", err)
	}
}

func TestQueries(t *testing.T) {
	s := newTestStore(t)
	p := seedProject(t, s)
	ctx := context.Background()
	base := time.Date(2024, 6, 3, 8, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		start := base.Add(time.Duration(i) * time.Hour)
		end := start.Add(30 * time.Minute)
		d := int64(1800)
		if _, err := s.InsertInterval(ctx, &models.Interval{ProjectID: p.ID, StartTime: start, EndTime: &end, DurationSeconds: &d}); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := s.InsertInterval(ctx, &models.Interval{ProjectID: p.ID, StartTime: base.Add(4 * time.Hour), IsRunning: true}); err != nil {
		t.Fatal(err)
	}

	running, err := s.FindInterval(ctx, store.NewQuery(
		store.Where(store.FieldProjectID, store.Eq, p.ID),
		store.Where(store.FieldIsRunning, store.Eq, true),
	))
	if err != nil {
		t.Fatal(err)
	}
	if running == nil || running.EndTime != nil {
		t.Fatalf("running lookup = %+v", running)
	}

	nulls, err := s.ListIntervals(ctx, store.NewQuery(store.Where(store.FieldEndTime, store.IsNull, nil)))
	if err != nil {
		t.Fatal(err)
	}
	if len(nulls) != 1 {
		t.Fatalf("IS NULL matched %d rows, want 1", len(nulls))
	}

	ranged, err := s.ListIntervals(ctx, store.NewQuery(
		store.Where(store.FieldIsRunning, store.Eq, false),
		store.Where(store.FieldStartTime, store.Gte, base.Add(time.Hour)),
	).Desc(store.FieldStartTime))
	if err != nil {
		t.Fatal(err)
	}
	if len(ranged) != 2 || !ranged[0].StartTime.After(ranged[1].StartTime) {
		t.Fatalf("range query = %+v", ranged)
	}

	limited, err := s.ListIntervals(ctx, store.Query{Limit: 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(limited) != 2 {
		t.Fatalf("limit returned %d rows", len(limited))
	}

	none, err := s.FindInterval(ctx, store.NewQuery(store.Where(store.FieldID, store.Eq, uint(12345))))
	if err != nil || none != nil {
		t.Fatalf("missing row should be (nil, nil), got %v, %v", none, err)
	}

	if _, err := s.ListIntervals(ctx, store.NewQuery(store.Where("1=1; --", store.Eq, 1))); err == nil {
		t.Fatal("unknown field should be rejected before reaching SQL")
	}
}

func TestOneRunningIndex(t *testing.T) {
	s := newTestStore(t)
	p := seedProject(t, s)
	ctx := context.Background()
	now := time.Now().UTC()

	if _, err := s.InsertInterval(ctx, &models.Interval{ProjectID: p.ID, StartTime: now, IsRunning: true}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.InsertInterval(ctx, &models.Interval{ProjectID: p.ID, StartTime: now, IsRunning: true}); err == nil {
		t.Fatal("second running interval on a project should violate the unique index")
	}
}

func TestInTxRollsBack(t *testing.T) {
	s := newTestStore(t)
	p := seedProject(t, s)
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.InTx(ctx, func(tx store.Store) error {
		if _, err := tx.InsertInterval(ctx, &models.Interval{ProjectID: p.ID, StartTime: time.Now(), IsRunning: true}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("InTx = %v, want boom", err)
	}
	rows, err := s.ListIntervals(ctx, store.Query{})
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 0 {
		t.Fatalf("rolled back insert is visible: %d rows", len(rows))
	}
}

func TestCatalog(t *testing.T) {
	s := newTestStore(t)
	p := seedProject(t, s)
	ctx := context.Background()

	if _, err := s.CreateClient(ctx, &models.Client{Name: "Hooli"}); err == nil {
		t.Fatal("duplicate client name should fail")
	}

	got, err := s.GetProject(ctx, p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Client.Name != "Hooli" || got.EffectiveRate() != 90 {
		t.Fatalf("GetProject = %+v", got)
	}

	rate := 120.0
	if err := s.SetProjectRate(ctx, p.ID, &rate); err != nil {
		t.Fatal(err)
	}
	if err := s.SetProjectRate(ctx, p.ID, &rate); err != nil {
		t.Fatalf("setting the same rate twice: %v", err)
	}
	got, _ = s.GetProject(ctx, p.ID)
	if got.EffectiveRate() != 120 {
		t.Fatalf("rate = %v, want 120", got.EffectiveRate())
	}
	if err := s.SetProjectRate(ctx, p.ID, nil); err != nil {
		t.Fatal(err)
	}
	got, _ = s.GetProject(ctx, p.ID)
	if got.HourlyRate != nil {
		t.Fatal("override should be cleared")
	}
	if err := s.SetProjectRate(ctx, 999, nil); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("SetProjectRate missing = %v", err)
	}

	projects, err := s.ListProjects(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(projects) != 1 || projects[0].Client.ID == 0 {
		t.Fatalf("ListProjects = %+v", projects)
	}

	missing, err := s.GetProject(ctx, 999)
	if err != nil || missing != nil {
		t.Fatalf("GetProject missing = %v, %v", missing, err)
	}
}

func TestCatalogTablesAreNotSoftDeleted(t *testing.T) {
	s := newTestStore(t)

	for _, model := range []any{&models.Client{}, &models.Project{}} {
		if s.db.Migrator().HasColumn(model, "deleted_at") {
			t.Errorf("%T has a deleted_at column", model)
		}
	}
	query := s.db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		return tx.Find(&[]models.Project{})
	})
	if strings.Contains(query, "deleted_at") {
		t.Errorf("project query filters on deleted_at: %s", query)
	}
}

func TestEngineOnSQLite(t *testing.T) {
	s := newTestStore(t)
	p := seedProject(t, s)
	ctx := context.Background()

	now := time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC)
	e := timer.New(s, timer.WithClock(timer.ClockFunc(func() time.Time { return now })))

	iv, err := e.Start(ctx, p.ID, "sqlite")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := e.Start(ctx, p.ID, ""); !timer.IsKind(err, timer.KindConflict) {
		t.Fatalf("second Start = %v, want CONFLICT", err)
	}

	now = now.Add(90 * time.Second)
	stopped, err := e.Stop(ctx, iv.ID)
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if *stopped.DurationSeconds != 90 || stopped.IsRunning {
		t.Fatalf("stopped = %+v", stopped)
	}

	resumed, err := e.Resume(ctx, p.ID, true)
	if err != nil {
		t.Fatalf("Resume: %v", err)
	}
	if resumed.NoteText() != "sqlite" {
		t.Fatalf("notes = %q", resumed.NoteText())
	}
	if err := e.DeleteInterval(ctx, resumed.ID); !timer.IsKind(err, timer.KindInvalidState) {
		t.Fatalf("delete running = %v, want INVALID_STATE", err)
	}

	state, err := e.Status(ctx, p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if state != timer.StateRunning {
		t.Fatalf("state = %s", state)
	}
}
