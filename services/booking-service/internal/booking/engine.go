// Package booking applies appointment state changes: public requests, owner
// decisions and client self-service through the magic link.
package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/md-rashed-zaman/turnos/services/booking-service/internal/availability"
	"github.com/md-rashed-zaman/turnos/services/booking-service/internal/calendar"
	"github.com/md-rashed-zaman/turnos/services/booking-service/internal/metrics"
	"github.com/md-rashed-zaman/turnos/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/turnos/services/booking-service/internal/outbox"
	"github.com/md-rashed-zaman/turnos/services/booking-service/internal/timeofday"
)

var tracer = otel.Tracer("github.com/md-rashed-zaman/turnos/services/booking-service/internal/booking")

// DefaultTokenTTL is how long a client link stays usable after it is issued.
const DefaultTokenTTL = 30 * 24 * time.Hour

const tokenAttempts = 3

type Appointments interface {
	InsertAppointment(ctx context.Context, a *model.Appointment) error
	UpdateAppointment(ctx context.Context, a *model.Appointment) error
	GetAppointment(ctx context.Context, businessID, id string) (model.Appointment, error)
	GetAppointmentByToken(ctx context.Context, token string) (model.Appointment, error)
	ListActiveOnDate(ctx context.Context, businessID string, date civil.Date) ([]model.Appointment, error)
	ListAppointments(ctx context.Context, businessID string, f model.AppointmentFilter) ([]model.Appointment, error)
}

type Services interface {
	FindActiveService(ctx context.Context, businessID, serviceID string) (model.Service, error)
	FindService(ctx context.Context, businessID, serviceID string) (model.Service, error)
	ListServices(ctx context.Context, businessID string, activeOnly bool) ([]model.Service, error)
}

type Schedules interface {
	GetDay(ctx context.Context, businessID string, weekday int) (model.ScheduleDay, error)
}

type Businesses interface {
	BusinessByID(ctx context.Context, id string) (model.Business, error)
}

// Deps wires an Engine. Events, Metrics and Logger are optional.
type Deps struct {
	Appointments  Appointments
	Services      Services
	Schedules     Schedules
	Businesses    Businesses
	Availability  *availability.Engine
	Events        outbox.Sink
	Metrics       *metrics.BookingMetrics
	Logger        *slog.Logger
	Clock         calendar.Clock
	PublicBaseURL string
	TokenTTL      time.Duration
}

type Engine struct {
	appts      Appointments
	services   Services
	schedules  Schedules
	businesses Businesses
	slots      *availability.Engine
	events     outbox.Sink
	metrics    *metrics.BookingMetrics
	logger     *slog.Logger
	clock      calendar.Clock
	baseURL    string
	tokenTTL   time.Duration
}

func NewEngine(d Deps) *Engine {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	ttl := d.TokenTTL
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	slots := d.Availability
	if slots == nil {
		slots = availability.NewEngine(d.Services, d.Schedules, d.Appointments, d.Clock)
	}
	return &Engine{
		appts:      d.Appointments,
		services:   d.Services,
		schedules:  d.Schedules,
		businesses: d.Businesses,
		slots:      slots,
		events:     d.Events,
		metrics:    d.Metrics,
		logger:     logger,
		clock:      d.Clock,
		baseURL:    d.PublicBaseURL,
		tokenTTL:   ttl,
	}
}

// CreateInput is an already parsed public booking request.
type CreateInput struct {
	ClientName  string
	ClientPhone string
	ServiceID   string
	Date        civil.Date
	Start       timeofday.Minutes
	Notes       string
}

// Placement is where an appointment sat before a reschedule.
type Placement struct {
	Date  civil.Date
	Start timeofday.Minutes
	End   timeofday.Minutes
}

// Outcome is the result of an owner action.
type Outcome struct {
	Appointment  model.Appointment
	Notification Notification
	Previous     *Placement
}

// Create books a new request. Nothing is written unless every check passes.
func (e *Engine) Create(ctx context.Context, businessID string, in CreateInput) (a model.Appointment, err error) {
	ctx, span := e.start(ctx, "booking.Create", businessID)
	defer func() { e.finish(span, "create", err) }()

	in.ClientName = strings.TrimSpace(in.ClientName)
	in.ClientPhone = strings.TrimSpace(in.ClientPhone)
	in.ServiceID = strings.TrimSpace(in.ServiceID)
	if in.ClientName == "" || in.ClientPhone == "" || in.ServiceID == "" || !in.Date.IsValid() {
		return model.Appointment{}, ErrIncompleteData
	}

	svc, err := e.services.FindActiveService(ctx, businessID, in.ServiceID)
	if errors.Is(err, model.ErrNotFound) {
		e.logger.InfoContext(ctx, "booking rejected for unknown service", "business_id", businessID, "service_id", in.ServiceID)
		return model.Appointment{}, ErrInvalidService
	}
	if err != nil {
		return model.Appointment{}, fmt.Errorf("find service: %w", err)
	}
	iv := timeofday.Interval{Start: in.Start, End: in.Start.Add(svc.DurationMinutes)}

	day, err := e.schedules.GetDay(ctx, businessID, calendar.Weekday(in.Date))
	if errors.Is(err, model.ErrNotFound) {
		return model.Appointment{}, ErrOutsideBusinessHours
	}
	if err != nil {
		return model.Appointment{}, fmt.Errorf("get schedule day: %w", err)
	}
	if !availability.Fits(day.Blocks, iv) {
		return model.Appointment{}, ErrOutsideBusinessHours
	}

	sameDay, err := e.appts.ListActiveOnDate(ctx, businessID, in.Date)
	if err != nil {
		return model.Appointment{}, fmt.Errorf("list appointments: %w", err)
	}
	if availability.Conflicts(sameDay, iv, "") {
		return model.Appointment{}, ErrSlotTaken
	}

	a = model.Appointment{
		BusinessID:  businessID,
		ClientName:  in.ClientName,
		ClientPhone: in.ClientPhone,
		ServiceID:   svc.ID,
		Date:        in.Date,
		Start:       iv.Start,
		End:         iv.End,
		Status:      model.StatusRequest,
		Notes:       strings.TrimSpace(in.Notes),
	}
	if err := e.appts.InsertAppointment(ctx, &a); err != nil {
		return model.Appointment{}, fmt.Errorf("insert appointment: %w", err)
	}
	e.emit(ctx, EventRequested, "public", a, nil)
	return a, nil
}

// Confirm marks the appointment confirmed and makes sure it has a client link.
// A token that already exists is kept, expiry included.
func (e *Engine) Confirm(ctx context.Context, businessID, id string) (out Outcome, err error) {
	ctx, span := e.start(ctx, "booking.Confirm", businessID)
	defer func() { e.finish(span, "confirm", err) }()

	a, svc, err := e.ownerLoad(ctx, businessID, id)
	if err != nil {
		return Outcome{}, err
	}
	a.Status = model.StatusConfirmed
	if a.ClientToken == "" {
		err = e.issueToken(ctx, &a)
	} else {
		err = e.appts.UpdateAppointment(ctx, &a)
	}
	if err != nil {
		return Outcome{}, fmt.Errorf("update appointment: %w", err)
	}
	e.emit(ctx, EventConfirmed, "owner", a, nil)
	msg := confirmMessage(a, serviceLabel(svc), ClientLink(e.baseURL, a.ClientToken))
	return Outcome{Appointment: a, Notification: Notification{Phone: a.ClientPhone, Message: msg}}, nil
}

func (e *Engine) issueToken(ctx context.Context, a *model.Appointment) error {
	expires := e.clock.Time().Add(e.tokenTTL).UTC()
	for attempt := 0; ; attempt++ {
		token, err := newClientToken()
		if err != nil {
			return err
		}
		a.ClientToken = token
		a.ClientTokenExpiresAt = &expires
		err = e.appts.UpdateAppointment(ctx, a)
		if !errors.Is(err, model.ErrTokenConflict) || attempt+1 >= tokenAttempts {
			return err
		}
	}
}

func (e *Engine) Reject(ctx context.Context, businessID, id string) (out Outcome, err error) {
	ctx, span := e.start(ctx, "booking.Reject", businessID)
	defer func() { e.finish(span, "reject", err) }()

	a, svc, err := e.ownerLoad(ctx, businessID, id)
	if err != nil {
		return Outcome{}, err
	}
	a.Status = model.StatusRejected
	if err := e.appts.UpdateAppointment(ctx, &a); err != nil {
		return Outcome{}, fmt.Errorf("update appointment: %w", err)
	}
	e.emit(ctx, EventRejected, "owner", a, nil)
	return Outcome{Appointment: a, Notification: Notification{Phone: a.ClientPhone, Message: rejectMessage(a, serviceLabel(svc))}}, nil
}

// Remind records that a reminder went out. Status is untouched.
func (e *Engine) Remind(ctx context.Context, businessID, id string) (out Outcome, err error) {
	ctx, span := e.start(ctx, "booking.Remind", businessID)
	defer func() { e.finish(span, "remind", err) }()

	a, svc, err := e.ownerLoad(ctx, businessID, id)
	if err != nil {
		return Outcome{}, err
	}
	now := e.clock.Time().UTC()
	a.ReminderSent = true
	a.LastReminderAt = &now
	if err := e.appts.UpdateAppointment(ctx, &a); err != nil {
		return Outcome{}, fmt.Errorf("update appointment: %w", err)
	}
	e.emit(ctx, EventReminded, "owner", a, nil)
	return Outcome{Appointment: a, Notification: Notification{Phone: a.ClientPhone, Message: remindMessage(a, serviceLabel(svc))}}, nil
}

// Reschedule moves an appointment on behalf of the owner.
func (e *Engine) Reschedule(ctx context.Context, businessID, id string, date civil.Date, start timeofday.Minutes) (out Outcome, err error) {
	ctx, span := e.start(ctx, "booking.Reschedule", businessID)
	defer func() { e.finish(span, "reschedule", err) }()

	a, svc, err := e.ownerLoad(ctx, businessID, id)
	if err != nil {
		return Outcome{}, err
	}
	prev, err := e.move(ctx, &a, svc, date, start)
	if err != nil {
		return Outcome{}, err
	}
	e.emit(ctx, EventRescheduled, "owner", a, &prev)
	return Outcome{
		Appointment:  a,
		Notification: Notification{Phone: a.ClientPhone, Message: rescheduleMessage(a, serviceLabel(svc))},
		Previous:     &prev,
	}, nil
}

// move re-places a in its business calendar. Only collisions with other
// active appointments block it; opening hours are not rechecked.
func (e *Engine) move(ctx context.Context, a *model.Appointment, svc *model.Service, date civil.Date, start timeofday.Minutes) (Placement, error) {
	duration := model.FallbackDurationMinutes
	if svc != nil && svc.DurationMinutes > 0 {
		duration = svc.DurationMinutes
	}
	iv := timeofday.Interval{Start: start, End: start.Add(duration)}

	sameDay, err := e.appts.ListActiveOnDate(ctx, a.BusinessID, date)
	if err != nil {
		return Placement{}, fmt.Errorf("list appointments: %w", err)
	}
	if availability.Conflicts(sameDay, iv, a.ID) {
		return Placement{}, ErrSlotTaken
	}

	prev := Placement{Date: a.Date, Start: a.Start, End: a.End}
	a.Date, a.Start, a.End = date, iv.Start, iv.End
	if err := e.appts.UpdateAppointment(ctx, a); err != nil {
		return Placement{}, fmt.Errorf("update appointment: %w", err)
	}
	return prev, nil
}

// ownerLoad fetches an appointment the owner may still act on, plus its
// service when that can be read.
func (e *Engine) ownerLoad(ctx context.Context, businessID, id string) (model.Appointment, *model.Service, error) {
	a, err := e.appts.GetAppointment(ctx, businessID, id)
	if errors.Is(err, model.ErrNotFound) {
		return model.Appointment{}, nil, ErrAppointmentNotFound
	}
	if err != nil {
		return model.Appointment{}, nil, fmt.Errorf("get appointment: %w", err)
	}
	if a.Status.IsTerminal() {
		return model.Appointment{}, nil, ErrAppointmentInactive
	}
	return a, e.lookupService(ctx, a), nil
}

// lookupService returns nil when the service is gone or unreadable.
func (e *Engine) lookupService(ctx context.Context, a model.Appointment) *model.Service {
	svc, err := e.services.FindService(ctx, a.BusinessID, a.ServiceID)
	if err != nil {
		if !errors.Is(err, model.ErrNotFound) {
			e.logger.WarnContext(ctx, "service lookup failed", "service_id", a.ServiceID, "err", err)
		}
		return nil
	}
	return &svc
}

func (e *Engine) start(ctx context.Context, name, businessID string) (context.Context, trace.Span) {
	ctx, span := tracer.Start(ctx, name)
	if businessID != "" {
		span.SetAttributes(attribute.String("business_id", businessID))
	}
	return ctx, span
}

func (e *Engine) finish(span trace.Span, action string, err error) {
	if err != nil {
		span.RecordError(err)
	}
	span.End()
	e.metrics.ObserveMutation(action, errorKind(err))
}
