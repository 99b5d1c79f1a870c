package booking

import (
	"context"
	"encoding/json"
	"time"

	"github.com/md-rashed-zaman/turnos/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/turnos/services/booking-service/internal/outbox"
)

const aggregateAppointment = "appointment"

const (
	EventRequested   = "booking.appointment.requested.v1"
	EventConfirmed   = "booking.appointment.confirmed.v1"
	EventRejected    = "booking.appointment.rejected.v1"
	EventReminded    = "booking.appointment.reminded.v1"
	EventRescheduled = "booking.appointment.rescheduled.v1"
	EventCancelled   = "booking.appointment.cancelled.v1"
)

type appointmentEvent struct {
	AppointmentID     string    `json:"appointment_id"`
	BusinessID        string    `json:"business_id"`
	ServiceID         string    `json:"service_id"`
	Date              string    `json:"date"`
	StartTime         string    `json:"start_time"`
	EndTime           string    `json:"end_time"`
	Status            string    `json:"status"`
	PreviousDate      string    `json:"previous_date,omitempty"`
	PreviousStartTime string    `json:"previous_start_time,omitempty"`
	Actor             string    `json:"actor"`
	OccurredAt        time.Time `json:"occurred_at"`
}

// emit appends an event after a committed write. A failure is logged and
// counted; the mutation itself has already happened.
func (e *Engine) emit(ctx context.Context, eventType, actor string, a model.Appointment, prev *Placement) {
	if e.events == nil {
		return
	}
	evt := appointmentEvent{
		AppointmentID: a.ID,
		BusinessID:    a.BusinessID,
		ServiceID:     a.ServiceID,
		Date:          a.Date.String(),
		StartTime:     a.Start.String(),
		EndTime:       a.End.String(),
		Status:        string(a.Status),
		Actor:         actor,
		OccurredAt:    e.clock.Time().UTC(),
	}
	if prev != nil {
		evt.PreviousDate = prev.Date.String()
		evt.PreviousStartTime = prev.Start.String()
	}
	payload, err := json.Marshal(evt)
	if err == nil {
		err = e.events.Append(ctx, outbox.Event{
			AggregateType: aggregateAppointment,
			AggregateID:   a.ID,
			EventType:     eventType,
			Payload:       payload,
		})
	}
	e.metrics.ObserveEvent(eventType, err)
	if err != nil {
		e.logger.Warn("append outbox event failed", "event_type", eventType, "appointment_id", a.ID, "err", err)
	}
}
