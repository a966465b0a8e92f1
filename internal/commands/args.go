package commands

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/balkashynov/tally/internal/models"
	"github.com/balkashynov/tally/internal/parser"
	"github.com/balkashynov/tally/internal/timer"
)

// parseID parses a numeric id argument.
func parseID(kind, arg string) (uint, error) {
	id, err := strconv.ParseUint(arg, 10, 32)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid %s ID '%s'", kind, arg)
	}
	return uint(id), nil
}

// resolveProject accepts a project id or a unique, case-insensitive project
// name, optionally written as "client/project".
func resolveProject(ctx context.Context, engine *timer.Engine, arg string) (*models.Project, error) {
	if id, err := strconv.ParseUint(arg, 10, 32); err == nil {
		return engine.Project(ctx, uint(id))
	}

	projects, err := engine.Projects(ctx)
	if err != nil {
		return nil, err
	}

	clientName, projectName := "", arg
	if i := strings.Index(arg, "/"); i >= 0 {
		clientName, projectName = strings.TrimSpace(arg[:i]), strings.TrimSpace(arg[i+1:])
	}

	var matches []models.Project
	for _, p := range projects {
		if !strings.EqualFold(p.Name, projectName) {
			continue
		}
		if clientName != "" && !strings.EqualFold(p.Client.Name, clientName) {
			continue
		}
		matches = append(matches, p)
	}

	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("no project named '%s'", arg)
	case 1:
		return &matches[0], nil
	default:
		return nil, fmt.Errorf("project name '%s' is ambiguous, use its ID or client/project", arg)
	}
}

// parseRate parses a non-negative hourly rate.
func parseRate(s string) (float64, error) {
	rate, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || rate < 0 {
		return 0, fmt.Errorf("invalid rate '%s'", s)
	}
	return rate, nil
}

// dateRange resolves --from/--to date flags into a half-open [from, to) range
// of whole local days. Missing ends default to the current week.
func dateRange(fromFlag, toFlag string, now time.Time) (time.Time, time.Time, error) {
	from := parser.StartOfWeek(now)
	to := from.AddDate(0, 0, 7)

	if fromFlag != "" {
		d, err := parser.ParseDate(fromFlag, now)
		if err != nil {
			return from, to, fmt.Errorf("invalid --from: %w", err)
		}
		from = d
		if toFlag == "" {
			to = parser.StartOfDay(now).AddDate(0, 0, 1)
		}
	}
	if toFlag != "" {
		d, err := parser.ParseDate(toFlag, now)
		if err != nil {
			return from, to, fmt.Errorf("invalid --to: %w", err)
		}
		to = d.AddDate(0, 0, 1) // inclusive end day
	}
	if !to.After(from) {
		return from, to, fmt.Errorf("--to must not be before --from")
	}
	return from, to, nil
}

// localNow is the engine's clock in the user's timezone.
func localNow(engine *timer.Engine) time.Time {
	return engine.Now().In(time.Local)
}

func projectsByID(projects []models.Project) map[uint]models.Project {
	m := make(map[uint]models.Project, len(projects))
	for _, p := range projects {
		m[p.ID] = p
	}
	return m
}

func rateText(p models.Project) string {
	if p.HourlyRate == nil {
		return timer.FormatCost(p.EffectiveRate()) + "/h (client)"
	}
	return timer.FormatCost(*p.HourlyRate) + "/h"
}
