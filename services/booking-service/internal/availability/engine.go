// Package availability computes the free slots of a business day.
package availability

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/civil"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/md-rashed-zaman/turnos/services/booking-service/internal/calendar"
	"github.com/md-rashed-zaman/turnos/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/turnos/services/booking-service/internal/timeofday"
)

var ErrServiceNotFound = errors.New("service not found")

var tracer = otel.Tracer("github.com/md-rashed-zaman/turnos/services/booking-service/internal/availability")

// Services resolves active offerings. Missing or inactive ones yield model.ErrNotFound.
type Services interface {
	FindActiveService(ctx context.Context, businessID, serviceID string) (model.Service, error)
}

// Schedules returns the stored day or model.ErrNotFound when never configured.
type Schedules interface {
	GetDay(ctx context.Context, businessID string, weekday int) (model.ScheduleDay, error)
}

// Appointments lists request/confirmed appointments of one business day.
type Appointments interface {
	ListActiveOnDate(ctx context.Context, businessID string, date civil.Date) ([]model.Appointment, error)
}

type Engine struct {
	services  Services
	schedules Schedules
	appts     Appointments
	clock     calendar.Clock
}

func NewEngine(services Services, schedules Schedules, appts Appointments, clock calendar.Clock) *Engine {
	return &Engine{services: services, schedules: schedules, appts: appts, clock: clock}
}

// Slots returns the free slots for a service on date, in time order.
func (e *Engine) Slots(ctx context.Context, businessID, serviceID string, date civil.Date) ([]Slot, error) {
	ctx, span := tracer.Start(ctx, "availability.Slots")
	defer span.End()
	span.SetAttributes(attribute.String("business_id", businessID), attribute.String("date", date.String()))

	svc, err := e.services.FindActiveService(ctx, businessID, serviceID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, ErrServiceNotFound
		}
		return nil, fmt.Errorf("find service: %w", err)
	}
	return e.SlotsForDuration(ctx, businessID, date, svc.DurationMinutes, "")
}

// SlotsForDuration is Slots with an explicit duration. Appointment excludeID
// does not count as busy, so its owner sees its current slot as free.
func (e *Engine) SlotsForDuration(ctx context.Context, businessID string, date civil.Date, duration int, excludeID string) ([]Slot, error) {
	today, nowMinutes := e.clock.Today()
	if date.Before(today) {
		return []Slot{}, nil
	}
	notBefore := NoCutoff
	if date == today {
		notBefore = timeofday.Minutes(nowMinutes)
	}

	day, err := e.schedules.GetDay(ctx, businessID, calendar.Weekday(date))
	if errors.Is(err, model.ErrNotFound) || (err == nil && len(day.Blocks) == 0) {
		return []Slot{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get schedule day: %w", err)
	}

	appts, err := e.appts.ListActiveOnDate(ctx, businessID, date)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	busy := make([]timeofday.Interval, 0, len(appts))
	for _, a := range appts {
		if (excludeID != "" && a.ID == excludeID) || !a.Status.IsActive() {
			continue
		}
		busy = append(busy, a.Interval())
	}

	slots := Walk(day.Blocks, duration, busy, notBefore)
	if slots == nil {
		slots = []Slot{}
	}
	return slots, nil
}
