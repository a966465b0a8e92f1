package timer

import (
	"fmt"
	"math"
	"time"

	"github.com/balkashynov/tally/internal/models"
)

// ElapsedSeconds returns floor(now - start) in whole seconds. The result is
// negative when now is before start; display code should use ClampElapsed.
func ElapsedSeconds(start, now time.Time) int64 {
	return int64(math.Floor(now.Sub(start).Seconds()))
}

// ClampElapsed is ElapsedSeconds floored at zero.
func ClampElapsed(start, now time.Time) int64 {
	if s := ElapsedSeconds(start, now); s > 0 {
		return s
	}
	return 0
}

// Cost returns (durationSeconds / 3600) * hourlyRate, unrounded.
func Cost(durationSeconds int64, hourlyRate float64) float64 {
	return float64(durationSeconds) / 3600 * hourlyRate
}

// EffectiveRate returns the project's override rate, or its client's rate.
func EffectiveRate(p models.Project) float64 {
	return p.EffectiveRate()
}

// FormatDuration renders seconds as HH:MM:SS. Hours do not wrap at 24.
func FormatDuration(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// FormatCost rounds a cost to cents for display.
func FormatCost(cost float64) string {
	return fmt.Sprintf("%.2f", cost)
}

// Hours converts seconds to fractional hours.
func Hours(seconds int64) float64 {
	return float64(seconds) / 3600
}

// DurationOf returns the stored duration, or the live elapsed time for a
// running interval.
func DurationOf(iv models.Interval, now time.Time) int64 {
	if iv.DurationSeconds != nil {
		return *iv.DurationSeconds
	}
	return ClampElapsed(iv.StartTime, now)
}
