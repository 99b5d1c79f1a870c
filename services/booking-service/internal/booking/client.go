package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/civil"

	"github.com/md-rashed-zaman/turnos/services/booking-service/internal/availability"
	"github.com/md-rashed-zaman/turnos/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/turnos/services/booking-service/internal/timeofday"
)

// ClientView is what the holder of a client link may see. Service and
// Business are nil when they no longer exist.
type ClientView struct {
	Appointment model.Appointment
	Service     *model.Service
	Business    *model.Business
}

// gate resolves token to an appointment that is still open for self-service.
func (e *Engine) gate(ctx context.Context, token string) (model.Appointment, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return model.Appointment{}, ErrInvalidOrExpiredLink
	}
	a, err := e.appts.GetAppointmentByToken(ctx, token)
	if errors.Is(err, model.ErrNotFound) {
		return model.Appointment{}, ErrInvalidOrExpiredLink
	}
	if err != nil {
		return model.Appointment{}, fmt.Errorf("get appointment by token: %w", err)
	}
	if a.TokenExpired(e.clock.Time()) {
		return model.Appointment{}, ErrLinkExpired
	}
	if a.Status.IsTerminal() {
		return model.Appointment{}, ErrAppointmentInactive
	}
	return a, nil
}

func (e *Engine) ClientAppointment(ctx context.Context, token string) (ClientView, error) {
	ctx, span := e.start(ctx, "booking.ClientAppointment", "")
	defer span.End()

	a, err := e.gate(ctx, token)
	if err != nil {
		return ClientView{}, err
	}
	view := ClientView{Appointment: a, Service: e.lookupService(ctx, a)}
	if e.businesses != nil {
		b, err := e.businesses.BusinessByID(ctx, a.BusinessID)
		switch {
		case err == nil:
			view.Business = &b
		case !errors.Is(err, model.ErrNotFound):
			return ClientView{}, fmt.Errorf("get business: %w", err)
		}
	}
	return view, nil
}

func (e *Engine) ClientCancel(ctx context.Context, token string) (a model.Appointment, err error) {
	ctx, span := e.start(ctx, "booking.ClientCancel", "")
	defer func() { e.finish(span, "cancel", err) }()

	a, err = e.gate(ctx, token)
	if err != nil {
		return model.Appointment{}, err
	}
	a.Status = model.StatusCancelled
	if err := e.appts.UpdateAppointment(ctx, &a); err != nil {
		return model.Appointment{}, fmt.Errorf("update appointment: %w", err)
	}
	e.emit(ctx, EventCancelled, "client", a, nil)
	return a, nil
}

func (e *Engine) ClientReschedule(ctx context.Context, token string, date civil.Date, start timeofday.Minutes) (a model.Appointment, err error) {
	ctx, span := e.start(ctx, "booking.ClientReschedule", "")
	defer func() { e.finish(span, "client_reschedule", err) }()

	a, err = e.gate(ctx, token)
	if err != nil {
		return model.Appointment{}, err
	}
	prev, err := e.move(ctx, &a, e.lookupService(ctx, a), date, start)
	if err != nil {
		return model.Appointment{}, err
	}
	e.emit(ctx, EventRescheduled, "client", a, &prev)
	return a, nil
}

// ClientSlots lists free slots for the link holder's service on date. The
// holder's own appointment does not block them.
func (e *Engine) ClientSlots(ctx context.Context, token string, date civil.Date) ([]availability.Slot, error) {
	ctx, span := e.start(ctx, "booking.ClientSlots", "")
	defer span.End()

	a, err := e.gate(ctx, token)
	if err != nil {
		return nil, err
	}
	duration := model.FallbackDurationMinutes
	if svc := e.lookupService(ctx, a); svc != nil && svc.DurationMinutes > 0 {
		duration = svc.DurationMinutes
	}
	slots, err := e.slots.SlotsForDuration(ctx, a.BusinessID, date, duration, a.ID)
	if err != nil {
		return nil, err
	}
	e.metrics.ObserveSlots("client", len(slots))
	return slots, nil
}
