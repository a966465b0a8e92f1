package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	dateTimeRegex = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})(?:\s+(\d{1,2}):(\d{2}))?$`)
	isoDateRegex  = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})$`)
	clockRegex    = regexp.MustCompile(`^(\d{1,2}):(\d{2})$`)
	agoRegex      = regexp.MustCompile(`^(\d+)\s*(m|min|mins|minute|minutes|h|hour|hours|d|day|days)\s+ago$`)
)

// ParseWhen parses a point in time relative to now, in now's location.
// Supported formats:
// - dd/mm/yyyy HH:MM (e.g., "15/12/2024 09:30")
// - dd/mm/yyyy (midnight)
// - HH:MM (today)
// - now
// - X minutes|hours|days ago (e.g., "90 minutes ago", "2h ago")
func ParseWhen(input string, now time.Time) (time.Time, error) {
	input = strings.ToLower(strings.TrimSpace(input))
	if input == "" {
		return time.Time{}, fmt.Errorf("time is required")
	}

	if input == "now" {
		return now, nil
	}

	if t, ok, err := parseDateTime(input, now.Location()); ok {
		return t, err
	}

	if t, ok, err := parseClock(input, now); ok {
		return t, err
	}

	if t, ok, err := parseAgo(input, now); ok {
		return t, err
	}

	return time.Time{}, fmt.Errorf("invalid time %q. Use: dd/mm/yyyy HH:MM, HH:MM, now, or X minutes|hours|days ago", input)
}

// ParseDate parses a calendar day and returns its midnight in now's location.
// Supported formats: dd/mm/yyyy, yyyy-mm-dd, today, yesterday.
func ParseDate(input string, now time.Time) (time.Time, error) {
	input = strings.ToLower(strings.TrimSpace(input))
	today := StartOfDay(now)

	switch input {
	case "":
		return time.Time{}, fmt.Errorf("date is required")
	case "today":
		return today, nil
	case "yesterday":
		return today.AddDate(0, 0, -1), nil
	}

	if m := isoDateRegex.FindStringSubmatch(input); m != nil {
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		day, _ := strconv.Atoi(m[3])
		return buildDate(year, month, day, 0, 0, now.Location())
	}

	t, ok, err := parseDateTime(input, now.Location())
	if !ok {
		return time.Time{}, fmt.Errorf("invalid date %q. Use: dd/mm/yyyy, yyyy-mm-dd, today, or yesterday", input)
	}
	if err != nil {
		return time.Time{}, err
	}
	return StartOfDay(t), nil
}

// StartOfDay truncates t to local midnight.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// StartOfWeek returns midnight of the Monday on or before t.
func StartOfWeek(t time.Time) time.Time {
	day := StartOfDay(t)
	offset := (int(day.Weekday()) + 6) % 7 // Monday = 0
	return day.AddDate(0, 0, -offset)
}

// parseDateTime parses dd/mm/yyyy with an optional HH:MM
func parseDateTime(input string, loc *time.Location) (time.Time, bool, error) {
	matches := dateTimeRegex.FindStringSubmatch(input)
	if matches == nil {
		return time.Time{}, false, nil
	}

	day, _ := strconv.Atoi(matches[1])
	month, _ := strconv.Atoi(matches[2])
	year, _ := strconv.Atoi(matches[3])

	hour, minute := 0, 0
	if matches[4] != "" {
		hour, _ = strconv.Atoi(matches[4])
		minute, _ = strconv.Atoi(matches[5])
	}

	t, err := buildDate(year, month, day, hour, minute, loc)
	return t, true, err
}

// parseClock parses HH:MM as a time today
func parseClock(input string, now time.Time) (time.Time, bool, error) {
	matches := clockRegex.FindStringSubmatch(input)
	if matches == nil {
		return time.Time{}, false, nil
	}

	hour, _ := strconv.Atoi(matches[1])
	minute, _ := strconv.Atoi(matches[2])
	if hour > 23 {
		return time.Time{}, true, fmt.Errorf("hour must be between 0 and 23")
	}
	if minute > 59 {
		return time.Time{}, true, fmt.Errorf("minute must be between 0 and 59")
	}

	return time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location()), true, nil
}

// parseAgo parses relative formats like "3 hours ago"
func parseAgo(input string, now time.Time) (time.Time, bool, error) {
	matches := agoRegex.FindStringSubmatch(input)
	if matches == nil {
		return time.Time{}, false, nil
	}

	amount, err := strconv.Atoi(matches[1])
	if err != nil {
		return time.Time{}, true, fmt.Errorf("invalid number")
	}

	switch matches[2] {
	case "m", "min", "mins", "minute", "minutes":
		if amount > 525600 { // Max 1 year in minutes
			return time.Time{}, true, fmt.Errorf("minutes must be at most 525600")
		}
		return now.Add(-time.Duration(amount) * time.Minute), true, nil

	case "h", "hour", "hours":
		if amount > 8760 { // Max 1 year in hours
			return time.Time{}, true, fmt.Errorf("hours must be at most 8760")
		}
		return now.Add(-time.Duration(amount) * time.Hour), true, nil

	default:
		if amount > 365 {
			return time.Time{}, true, fmt.Errorf("days must be at most 365")
		}
		return now.AddDate(0, 0, -amount), true, nil
	}
}

func buildDate(year, month, day, hour, minute int, loc *time.Location) (time.Time, error) {
	// Validate ranges
	if day < 1 || day > 31 {
		return time.Time{}, fmt.Errorf("day must be between 1 and 31")
	}
	if month < 1 || month > 12 {
		return time.Time{}, fmt.Errorf("month must be between 1 and 12")
	}
	if year < 2000 || year > 2100 {
		return time.Time{}, fmt.Errorf("year must be between 2000 and 2100")
	}
	if hour > 23 {
		return time.Time{}, fmt.Errorf("hour must be between 0 and 23")
	}
	if minute > 59 {
		return time.Time{}, fmt.Errorf("minute must be between 0 and 59")
	}

	t := time.Date(year, time.Month(month), day, hour, minute, 0, 0, loc)

	// Check if date is valid (handles leap years, etc.)
	if t.Day() != day || t.Month() != time.Month(month) || t.Year() != year {
		return time.Time{}, fmt.Errorf("invalid date")
	}
	return t, nil
}

// FormatWhen formats a timestamp for display relative to now
func FormatWhen(t, now time.Time) string {
	t = t.In(now.Location())

	today := StartOfDay(now)
	day := StartOfDay(t)
	daysDiff := int(today.Sub(day).Hours() / 24)

	switch daysDiff {
	case 0:
		return "today " + t.Format("15:04")
	case 1:
		return "yesterday " + t.Format("15:04")
	default:
		return t.Format("02/01/2006 15:04")
	}
}
