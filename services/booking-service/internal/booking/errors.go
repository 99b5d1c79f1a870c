package booking

import "errors"

var (
	ErrIncompleteData       = errors.New("incomplete data")
	ErrInvalidService       = errors.New("invalid service")
	ErrOutsideBusinessHours = errors.New("outside business hours")
	ErrSlotTaken            = errors.New("that time is no longer available")
	ErrAppointmentNotFound  = errors.New("appointment not found")
	ErrAppointmentInactive  = errors.New("appointment is no longer active")

	ErrInvalidOrExpiredLink = errors.New("invalid link or appointment not found")
	ErrLinkExpired          = errors.New("this link has expired")
)

// errorKind is the metric label for err.
func errorKind(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrIncompleteData):
		return "incomplete_data"
	case errors.Is(err, ErrInvalidService):
		return "invalid_service"
	case errors.Is(err, ErrOutsideBusinessHours):
		return "outside_hours"
	case errors.Is(err, ErrSlotTaken):
		return "slot_taken"
	case errors.Is(err, ErrAppointmentNotFound), errors.Is(err, ErrInvalidOrExpiredLink):
		return "not_found"
	case errors.Is(err, ErrAppointmentInactive):
		return "inactive"
	case errors.Is(err, ErrLinkExpired):
		return "link_expired"
	default:
		return "error"
	}
}
