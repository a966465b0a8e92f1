package models

import "time"

// Interval is a single contiguous span of tracked work on a project
type Interval struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	ProjectID       uint       `gorm:"not null;index" json:"project_id"`
	StartTime       time.Time  `gorm:"not null;index" json:"start_time"`
	EndTime         *time.Time `json:"end_time"`         // nil while running
	DurationSeconds *int64     `json:"duration_seconds"` // nil while running
	IsRunning       bool       `gorm:"not null;default:false;index" json:"is_running"`
	IsManual        bool       `gorm:"not null;default:false" json:"is_manual"`
	Notes           *string    `json:"notes"`
}

// IntervalPatch lists the fields to change on an interval. Nil fields are left alone.
// An empty Notes string clears the notes.
type IntervalPatch struct {
	StartTime       *time.Time
	EndTime         *time.Time
	DurationSeconds *int64
	IsRunning       *bool
	Notes           *string
}

// Empty reports whether the patch changes nothing
func (p IntervalPatch) Empty() bool {
	return p.StartTime == nil && p.EndTime == nil && p.DurationSeconds == nil &&
		p.IsRunning == nil && p.Notes == nil
}

// NoteText returns the notes or an empty string
func (i Interval) NoteText() string {
	if i.Notes == nil {
		return ""
	}
	return *i.Notes
}

// HasNotes reports whether the interval carries non-empty notes
func (i Interval) HasNotes() bool {
	return i.Notes != nil && *i.Notes != ""
}
