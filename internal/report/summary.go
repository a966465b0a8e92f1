// Package report turns intervals into billed summaries, grouped views,
// weekly timesheets and CSV exports. Nothing here touches storage.
package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/balkashynov/tally/internal/models"
	"github.com/balkashynov/tally/internal/timer"
)

// ProjectTotal is the billed time for one project.
type ProjectTotal struct {
	Project   models.Project
	Intervals int
	Seconds   int64
	Rate      float64
	Cost      float64
}

// Summary is the billed time per project plus the grand total.
type Summary struct {
	Projects []ProjectTotal
	Seconds  int64
	Cost     float64
}

// catalog indexes projects by id. Intervals whose project is missing get a placeholder.
type catalog map[uint]models.Project

func newCatalog(projects []models.Project) catalog {
	c := make(catalog, len(projects))
	for _, p := range projects {
		c[p.ID] = p
	}
	return c
}

func (c catalog) project(id uint) models.Project {
	if p, ok := c[id]; ok {
		return p
	}
	return models.Project{ID: id, Name: fmt.Sprintf("project #%d", id)}
}

// Summarize totals intervals per project at each project's effective rate.
// Running intervals count with their live elapsed time. Cost is summed
// unrounded; round only for display.
func Summarize(intervals []models.Interval, projects []models.Project, now time.Time) Summary {
	cat := newCatalog(projects)
	totals := make(map[uint]*ProjectTotal)

	for _, iv := range intervals {
		t, ok := totals[iv.ProjectID]
		if !ok {
			p := cat.project(iv.ProjectID)
			t = &ProjectTotal{Project: p, Rate: p.EffectiveRate()}
			totals[iv.ProjectID] = t
		}
		d := timer.DurationOf(iv, now)
		t.Intervals++
		t.Seconds += d
		t.Cost += timer.Cost(d, t.Rate)
	}

	var s Summary
	for _, t := range totals {
		s.Projects = append(s.Projects, *t)
		s.Seconds += t.Seconds
		s.Cost += t.Cost
	}
	sort.Slice(s.Projects, func(i, j int) bool {
		a, b := s.Projects[i].Project, s.Projects[j].Project
		if ca, cb := strings.ToLower(a.Client.Name), strings.ToLower(b.Client.Name); ca != cb {
			return ca < cb
		}
		if na, nb := strings.ToLower(a.Name), strings.ToLower(b.Name); na != nb {
			return na < nb
		}
		return a.ID < b.ID
	})
	return s
}
