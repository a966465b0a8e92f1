package models

import "time"

// Client is a billed customer with a default hourly rate
type Client struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Name       string  `gorm:"uniqueIndex;size:191;not null" json:"name"`
	HourlyRate float64 `gorm:"not null;default:0" json:"hourly_rate"`

	// Relationships
	Projects []Project `gorm:"foreignKey:ClientID" json:"projects,omitempty"`
}

// Project belongs to a client and may override the client's rate
type Project struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	ClientID   uint     `gorm:"not null;index" json:"client_id"`
	Name       string   `gorm:"not null" json:"name"`
	HourlyRate *float64 `json:"hourly_rate"` // nil means use the client's rate

	// Relationships
	Client Client `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"client"`
}

// EffectiveRate returns the project's own rate if set, else its client's rate
func (p Project) EffectiveRate() float64 {
	if p.HourlyRate != nil {
		return *p.HourlyRate
	}
	return p.Client.HourlyRate
}

// Label returns "client / project" for display
func (p Project) Label() string {
	if p.Client.Name == "" {
		return p.Name
	}
	return p.Client.Name + " / " + p.Name
}
