package model

import (
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/civil"

	"github.com/md-rashed-zaman/turnos/services/booking-service/internal/timeofday"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrTokenConflict = errors.New("client token already in use")
)

// Status is the appointment lifecycle state.
type Status string

const (
	StatusRequest   Status = "request"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
	StatusRejected  Status = "rejected"
)

// ActiveStatuses occupy calendar time.
var ActiveStatuses = []Status{StatusRequest, StatusConfirmed}

var ErrUnknownStatus = errors.New("unknown appointment status")

func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusRequest, StatusConfirmed, StatusCancelled, StatusRejected:
		return st, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownStatus, s)
	}
}

// IsActive reports whether the appointment still blocks its slot.
func (s Status) IsActive() bool {
	switch s {
	case StatusRequest, StatusConfirmed:
		return true
	case StatusCancelled, StatusRejected:
		return false
	default:
		panic(fmt.Sprintf("model: unhandled status %q", string(s)))
	}
}

// IsTerminal is the complement of IsActive.
func (s Status) IsTerminal() bool { return !s.IsActive() }

type Appointment struct {
	ID                   string
	BusinessID           string
	ClientName           string
	ClientPhone          string
	ServiceID            string
	Date                 civil.Date
	Start                timeofday.Minutes
	End                  timeofday.Minutes
	Status               Status
	Notes                string
	ReminderSent         bool
	LastReminderAt       *time.Time
	ClientToken          string
	ClientTokenExpiresAt *time.Time
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

func (a Appointment) Interval() timeofday.Interval {
	return timeofday.Interval{Start: a.Start, End: a.End}
}

// TokenExpired reports whether the client link has passed its expiry at now.
func (a Appointment) TokenExpired(now time.Time) bool {
	return a.ClientTokenExpiresAt != nil && a.ClientTokenExpiresAt.Before(now)
}

// AppointmentFilter narrows an appointment listing. Zero values mean unbounded.
type AppointmentFilter struct {
	From     civil.Date
	To       civil.Date
	Statuses []Status
}

func (f AppointmentFilter) Match(a Appointment) bool {
	if f.From.IsValid() && a.Date.Before(f.From) {
		return false
	}
	if f.To.IsValid() && a.Date.After(f.To) {
		return false
	}
	if len(f.Statuses) == 0 {
		return true
	}
	for _, s := range f.Statuses {
		if a.Status == s {
			return true
		}
	}
	return false
}
