package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// SessionState is the binary classification driving the timer.
type SessionState int

const (
	Inactive SessionState = iota
	Active
)

func (s SessionState) String() string {
	if s == Active {
		return "active"
	}
	return "inactive"
}

func (s SessionState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *SessionState) UnmarshalText(text []byte) error {
	switch string(text) {
	case "active":
		*s = Active
	case "inactive":
		*s = Inactive
	default:
		return fmt.Errorf("unknown session state %q", text)
	}
	return nil
}

// SessionSpan is one contiguous active period on a single slot.
type SessionSpan struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	SlotKey     int            `gorm:"not null;index" json:"slot_key"`
	PID         int            `gorm:"not null" json:"pid"`
	DisplayName string         `gorm:"not null" json:"display_name"`
	StartedAt   time.Time      `gorm:"not null;index" json:"started_at"`
	EndedAt     time.Time      `gorm:"not null" json:"ended_at"`
	Seconds     int64          `gorm:"not null;default:0" json:"seconds"` // counted ticks
	CreatedAt   time.Time      `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

type DaySummary struct {
	Date         string  `json:"date"`
	TotalSeconds int64   `json:"total_seconds"`
	TotalMinutes float64 `json:"total_minutes"`
	TotalHours   float64 `json:"total_hours"`
	SpanCount    int     `json:"span_count"`
}

type ReportPeriod struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Type  string    `json:"type"` // "day", "week", "month"
}

type Report struct {
	Period       ReportPeriod `json:"period"`
	Days         []DaySummary `json:"days"`
	TotalSeconds int64        `json:"total_seconds"`
	TotalMinutes float64      `json:"total_minutes"`
	TotalHours   float64      `json:"total_hours"`
	SpanCount    int          `json:"span_count"`
	GeneratedAt  time.Time    `json:"generated_at"`
}
