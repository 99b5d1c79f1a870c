package handlers

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/md-rashed-zaman/turnos/libs/httpx"
	"github.com/md-rashed-zaman/turnos/services/booking-service/internal/availability"
	"github.com/md-rashed-zaman/turnos/services/booking-service/internal/booking"
	"github.com/md-rashed-zaman/turnos/services/booking-service/internal/calendar"
	"github.com/md-rashed-zaman/turnos/services/booking-service/internal/catalog"
	"github.com/md-rashed-zaman/turnos/services/booking-service/internal/schedule"
	"github.com/md-rashed-zaman/turnos/services/booking-service/internal/tenancy"
	"github.com/md-rashed-zaman/turnos/services/booking-service/internal/timeofday"
)

// surface is the audience of a route. Some errors read differently per audience.
type surface int

const (
	publicSurface surface = iota
	ownerSurface
	clientSurface
)

// badRequest is a boundary validation failure whose text goes to the caller.
type badRequest string

func (e badRequest) Error() string { return string(e) }

var validate = newValidator()

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, s surface, err error) {
	status, msg := http.StatusInternalServerError, "internal error"
	var br badRequest
	switch {
	case errors.As(err, &br):
		status, msg = http.StatusBadRequest, string(br)
	case errors.Is(err, httpx.ErrInvalidJSON):
		status, msg = http.StatusBadRequest, "invalid json body"
	case errors.Is(err, booking.ErrIncompleteData),
		errors.Is(err, booking.ErrInvalidService),
		errors.Is(err, booking.ErrOutsideBusinessHours),
		errors.Is(err, timeofday.ErrInvalidFormat),
		errors.Is(err, timeofday.ErrStartPastDay),
		errors.Is(err, calendar.ErrInvalidDate),
		errors.Is(err, schedule.ErrInvalidWeekday),
		errors.Is(err, schedule.ErrInvalidTimeFormat),
		errors.Is(err, schedule.ErrInvalidBlockRange),
		errors.Is(err, schedule.ErrOverlappingBlocks),
		errors.Is(err, catalog.ErrNameRequired),
		errors.Is(err, catalog.ErrInvalidDuration),
		errors.Is(err, catalog.ErrInvalidPrice),
		errors.Is(err, catalog.ErrInvalidColor):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, availability.ErrServiceNotFound):
		if s == publicSurface {
			status, msg = http.StatusBadRequest, booking.ErrInvalidService.Error()
		} else {
			status, msg = http.StatusNotFound, err.Error()
		}
	case errors.Is(err, catalog.ErrServiceNotFound),
		errors.Is(err, tenancy.ErrUnknownBusiness),
		errors.Is(err, booking.ErrAppointmentNotFound),
		errors.Is(err, booking.ErrInvalidOrExpiredLink):
		status, msg = http.StatusNotFound, err.Error()
	case errors.Is(err, booking.ErrSlotTaken):
		status, msg = http.StatusConflict, err.Error()
	case errors.Is(err, booking.ErrLinkExpired):
		status, msg = http.StatusGone, err.Error()
	case errors.Is(err, booking.ErrAppointmentInactive):
		status, msg = http.StatusConflict, err.Error()
		if s == clientSurface {
			status = http.StatusGone
		}
	}
	if status == http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", httpx.RequestIDFromContext(r.Context()),
			"err", err,
		)
	}
	httpx.WriteError(w, status, msg)
}

// checkStruct runs the validator and turns the first failure into a
// badRequest, or into ErrIncompleteData when incomplete is set and a
// required field is missing.
func checkStruct(v any, incomplete bool) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var fields validator.ValidationErrors
	if !errors.As(err, &fields) || len(fields) == 0 {
		return err
	}
	fe := fields[0]
	if fe.Tag() == "required" && incomplete {
		return booking.ErrIncompleteData
	}
	switch fe.Tag() {
	case "required":
		return badRequest(fe.Field() + " is required")
	case "required_if":
		return badRequest("newDate and newStartTime are required to reschedule")
	default:
		return badRequest("invalid " + fe.Field())
	}
}
