package model

import (
	"time"

	"github.com/md-rashed-zaman/turnos/services/booking-service/internal/timeofday"
)

const (
	DefaultServiceColor  = "#f472b6"
	FallbackServiceName  = "Service"
	FallbackServiceColor = "#64748b"
	DefaultBusinessColor = "#6366F1"

	// FallbackDurationMinutes applies when an appointment's service can no longer be read.
	FallbackDurationMinutes = 60
)

// Service is a bookable offering. Price is kept in minor units.
type Service struct {
	ID              string
	BusinessID      string
	Name            string
	DurationMinutes int
	PriceCents      int64
	Color           string
	Active          bool
	CreatedAt       time.Time
}

// Business is the tenant as seen by this service.
type Business struct {
	ID           string
	Slug         string
	Name         string
	Phone        string
	PrimaryColor string
}

// Block is one opening window inside a weekday.
type Block struct {
	Start   timeofday.Minutes `json:"start"`
	End     timeofday.Minutes `json:"end"`
	Enabled bool              `json:"enabled"`
}

func (b Block) Interval() timeofday.Interval {
	return timeofday.Interval{Start: b.Start, End: b.End}
}

// ScheduleDay is the stored opening hours for one weekday; no blocks means closed.
type ScheduleDay struct {
	BusinessID string
	Weekday    int
	Blocks     []Block
	UpdatedAt  time.Time
}
