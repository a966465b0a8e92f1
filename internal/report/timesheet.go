package report

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/balkashynov/tally/internal/models"
	"github.com/balkashynov/tally/internal/timer"
)

var dayNames = [7]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

// TimesheetRow is one project's hours for each day of the week, Monday first.
type TimesheetRow struct {
	Project models.Project
	Hours   [7]float64
	Total   float64
}

// Timesheet is a Monday-based week of hours per project.
type Timesheet struct {
	WeekStart time.Time
	Rows      []TimesheetRow
	DayTotals [7]float64
	Total     float64
}

// BuildTimesheet sums hours per project per weekday for the week starting at
// weekStart. Intervals starting outside the week are ignored.
func BuildTimesheet(intervals []models.Interval, projects []models.Project, weekStart, now time.Time) Timesheet {
	cat := newCatalog(projects)
	weekEnd := weekStart.AddDate(0, 0, 7)
	rows := make(map[uint]*TimesheetRow)
	ts := Timesheet{WeekStart: weekStart}

	for _, iv := range intervals {
		start := iv.StartTime.In(weekStart.Location())
		if start.Before(weekStart) || !start.Before(weekEnd) {
			continue
		}

		row, ok := rows[iv.ProjectID]
		if !ok {
			row = &TimesheetRow{Project: cat.project(iv.ProjectID)}
			rows[iv.ProjectID] = row
		}

		day := (int(start.Weekday()) + 6) % 7 // Monday = 0
		hours := timer.Hours(timer.DurationOf(iv, now))
		row.Hours[day] += hours
		row.Total += hours
		ts.DayTotals[day] += hours
		ts.Total += hours
	}

	for _, row := range rows {
		ts.Rows = append(ts.Rows, *row)
	}
	sort.Slice(ts.Rows, func(i, j int) bool {
		a, b := ts.Rows[i].Project, ts.Rows[j].Project
		if a.Label() != b.Label() {
			return a.Label() < b.Label()
		}
		return a.ID < b.ID
	})
	return ts
}

// Days returns the columns worth showing: Monday to Friday whenever any work
// was tracked, plus weekend days that have hours.
func (ts Timesheet) Days() []int {
	if len(ts.Rows) == 0 {
		return nil
	}
	var days []int
	for i := range dayNames {
		if i < 5 || ts.DayTotals[i] > 0 {
			days = append(days, i)
		}
	}
	return days
}

// WriteTimesheet prints ts as a fixed-width table.
func WriteTimesheet(w io.Writer, ts Timesheet) {
	if len(ts.Rows) == 0 {
		fmt.Fprintln(w, "No time tracked this week.")
		return
	}

	days := ts.Days()
	nameWidth := 20
	for _, row := range ts.Rows {
		if n := len(row.Project.Label()); n > nameWidth {
			nameWidth = n
		}
	}
	if nameWidth > 40 {
		nameWidth = 40
	}
	const dayWidth, totalWidth = 5, 7

	separator := func() {
		fmt.Fprint(w, strings.Repeat("-", nameWidth))
		for range days {
			fmt.Fprint(w, "  "+strings.Repeat("-", dayWidth))
		}
		fmt.Fprintln(w, "  "+strings.Repeat("-", totalWidth))
	}
	cell := func(hours float64) string {
		if hours <= 0 {
			return "-"
		}
		return fmt.Sprintf("%.1f", hours)
	}

	fmt.Fprintf(w, "%-*s", nameWidth, "Project")
	for _, d := range days {
		fmt.Fprintf(w, "  %*s", dayWidth, dayNames[d])
	}
	fmt.Fprintf(w, "  %*s\n", totalWidth, "Total")
	separator()

	for _, row := range ts.Rows {
		label := row.Project.Label()
		if len(label) > nameWidth {
			label = label[:nameWidth-3] + "..."
		}
		fmt.Fprintf(w, "%-*s", nameWidth, label)
		for _, d := range days {
			fmt.Fprintf(w, "  %*s", dayWidth, cell(row.Hours[d]))
		}
		fmt.Fprintf(w, "  %*.1f\n", totalWidth, row.Total)
	}

	separator()
	fmt.Fprintf(w, "%-*s", nameWidth, "Total")
	for _, d := range days {
		fmt.Fprintf(w, "  %*.1f", dayWidth, ts.DayTotals[d])
	}
	fmt.Fprintf(w, "  %*.1f\n", totalWidth, ts.Total)

	fmt.Fprintf(w, "\nWeek of %s to %s\n",
		ts.WeekStart.Format("Jan 2"),
		ts.WeekStart.AddDate(0, 0, 6).Format("Jan 2, 2006"))
}

// WriteSummary prints the billed totals per project.
func WriteSummary(w io.Writer, s Summary) {
	if len(s.Projects) == 0 {
		fmt.Fprintln(w, "No time tracked in this period.")
		return
	}

	nameWidth := 20
	for _, t := range s.Projects {
		if n := len(t.Project.Label()); n > nameWidth {
			nameWidth = n
		}
	}

	fmt.Fprintf(w, "%-*s  %10s  %8s  %10s\n", nameWidth, "Project", "Time", "Rate", "Cost")
	fmt.Fprintln(w, strings.Repeat("-", nameWidth+36))
	for _, t := range s.Projects {
		fmt.Fprintf(w, "%-*s  %10s  %8s  %10s\n", nameWidth, t.Project.Label(),
			timer.FormatDuration(t.Seconds), timer.FormatCost(t.Rate), timer.FormatCost(t.Cost))
	}
	fmt.Fprintln(w, strings.Repeat("-", nameWidth+36))
	fmt.Fprintf(w, "%-*s  %10s  %8s  %10s\n", nameWidth, "Total",
		timer.FormatDuration(s.Seconds), "", timer.FormatCost(s.Cost))
}
