package report

import (
	"fmt"
	"sort"
	"time"

	"github.com/balkashynov/tally/internal/models"
	"github.com/balkashynov/tally/internal/timer"
)

// Grouping selects the bucket size for GroupBy.
type Grouping string

const (
	ByDay  Grouping = "day"
	ByWeek Grouping = "week"
)

// ParseGrouping validates a --by flag value.
func ParseGrouping(s string) (Grouping, error) {
	switch Grouping(s) {
	case ByDay, ByWeek:
		return Grouping(s), nil
	}
	return "", fmt.Errorf("unknown grouping %q (want day or week)", s)
}

// Group is one bucket of intervals.
type Group struct {
	Key       string
	Title     string
	Intervals []models.Interval
	Seconds   int64
}

// GroupKey returns the sortable bucket key for t.
func GroupKey(t time.Time, by Grouping) string {
	if by == ByWeek {
		year, week := t.ISOWeek()
		return fmt.Sprintf("%d-W%02d", year, week)
	}
	return t.Format("2006-01-02")
}

// GroupTitle returns a display title for t's bucket.
func GroupTitle(t time.Time, by Grouping) string {
	if by == ByWeek {
		start, end := weekRange(t)
		return fmt.Sprintf("%s - %s", start.Format("Jan 02"), end.Format("Jan 02, 2006"))
	}
	return t.Format("Monday, 02 Jan 2006")
}

// weekRange returns the Monday and Sunday of t's week.
func weekRange(t time.Time) (time.Time, time.Time) {
	offset := int(t.Weekday())
	if offset == 0 {
		offset = 7
	}
	start := t.AddDate(0, 0, -offset+1)
	return start, start.AddDate(0, 0, 6)
}

// GroupBy buckets intervals by the local day or ISO week of their start
// time. Groups come back in key order; intervals keep their input order.
func GroupBy(intervals []models.Interval, by Grouping, now time.Time) []Group {
	loc := now.Location()
	index := make(map[string]*Group)
	var keys []string

	for _, iv := range intervals {
		start := iv.StartTime.In(loc)
		key := GroupKey(start, by)
		g, ok := index[key]
		if !ok {
			g = &Group{Key: key, Title: GroupTitle(start, by)}
			index[key] = g
			keys = append(keys, key)
		}
		g.Intervals = append(g.Intervals, iv)
		g.Seconds += timer.DurationOf(iv, now)
	}

	sort.Strings(keys)
	groups := make([]Group, 0, len(keys))
	for _, k := range keys {
		groups = append(groups, *index[k])
	}
	return groups
}
