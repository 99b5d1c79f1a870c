package booking

import (
	"fmt"
	"strings"

	"github.com/md-rashed-zaman/turnos/services/booking-service/internal/model"
)

// Notification is a message for the client. Delivery is up to the caller.
type Notification struct {
	Phone   string
	Message string
}

const unnamedService = "your appointment"

func serviceLabel(svc *model.Service) string {
	if svc == nil || strings.TrimSpace(svc.Name) == "" {
		return unnamedService
	}
	return svc.Name
}

func confirmMessage(a model.Appointment, service, link string) string {
	return fmt.Sprintf("Hi %s! Your booking for %s on %s at %s is confirmed.\n\n"+
		"*Reschedule or cancel your booking*\n%s\n\n"+
		"Keep this link, it is unique to this booking.",
		a.ClientName, service, a.Date, a.Start, link)
}

func rejectMessage(a model.Appointment, service string) string {
	return fmt.Sprintf("Hi %s, unfortunately we cannot take your booking for %s on %s at %s. "+
		"You can request another time from our booking page.",
		a.ClientName, service, a.Date, a.Start)
}

func remindMessage(a model.Appointment, service string) string {
	return fmt.Sprintf("Hi %s! This is a reminder of your booking for %s on %s at %s. "+
		"If you cannot make it, let us know so we can free the slot.",
		a.ClientName, service, a.Date, a.Start)
}

func rescheduleMessage(a model.Appointment, service string) string {
	return fmt.Sprintf("Hi %s! Your booking for %s has been moved to %s at %s. "+
		"If you cannot make it, let us know so we can free the slot.",
		a.ClientName, service, a.Date, a.Start)
}

// ClientLink is the self-service page for token.
func ClientLink(baseURL, token string) string {
	return strings.TrimRight(baseURL, "/") + "/r/" + token
}
