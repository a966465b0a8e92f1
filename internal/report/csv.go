package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/balkashynov/tally/internal/models"
	"github.com/balkashynov/tally/internal/timer"
)

// CSVHeader is the first line of every export.
var CSVHeader = []string{"date", "client", "project", "start", "end", "duration", "hours", "rate", "cost", "manual", "notes"}

// Row is one exported interval.
type Row struct {
	Start    time.Time
	End      time.Time
	Client   string
	Project  string
	Seconds  int64
	Rate     float64
	Manual   bool
	Notes    string
	Interval uint
}

// Rows prices closed intervals for export, in the location of now.
// Running intervals are skipped.
func Rows(intervals []models.Interval, projects []models.Project, now time.Time) []Row {
	cat := newCatalog(projects)
	loc := now.Location()

	rows := make([]Row, 0, len(intervals))
	for _, iv := range intervals {
		if iv.IsRunning || iv.EndTime == nil {
			continue
		}
		p := cat.project(iv.ProjectID)
		rows = append(rows, Row{
			Start:    iv.StartTime.In(loc),
			End:      iv.EndTime.In(loc),
			Client:   p.Client.Name,
			Project:  p.Name,
			Seconds:  timer.DurationOf(iv, now),
			Rate:     p.EffectiveRate(),
			Manual:   iv.IsManual,
			Notes:    iv.NoteText(),
			Interval: iv.ID,
		})
	}
	return rows
}

// WriteCSV writes rows with a header line.
func WriteCSV(w io.Writer, rows []Row) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(CSVHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, r := range rows {
		record := []string{
			r.Start.Format("2006-01-02"),
			r.Client,
			r.Project,
			r.Start.Format("15:04:05"),
			r.End.Format("15:04:05"),
			timer.FormatDuration(r.Seconds),
			strconv.FormatFloat(timer.Hours(r.Seconds), 'f', 2, 64),
			timer.FormatCost(r.Rate),
			timer.FormatCost(timer.Cost(r.Seconds, r.Rate)),
			strconv.FormatBool(r.Manual),
			r.Notes,
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("CSV writer error: %w", err)
	}
	return nil
}
