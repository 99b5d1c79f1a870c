package booking

import (
	"context"
	"fmt"
	"sort"

	"github.com/md-rashed-zaman/turnos/services/booking-service/internal/model"
)

// AppointmentView is an appointment with display data of its service.
type AppointmentView struct {
	model.Appointment
	ServiceName  string
	ServiceColor string
}

// List returns the business's appointments matching f, ordered by date and start.
func (e *Engine) List(ctx context.Context, businessID string, f model.AppointmentFilter) ([]AppointmentView, error) {
	ctx, span := e.start(ctx, "booking.List", businessID)
	defer span.End()

	appts, err := e.appts.ListAppointments(ctx, businessID, f)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	services, err := e.services.ListServices(ctx, businessID, false)
	if err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}
	byID := make(map[string]model.Service, len(services))
	for _, s := range services {
		byID[s.ID] = s
	}

	out := make([]AppointmentView, 0, len(appts))
	for _, a := range appts {
		v := AppointmentView{Appointment: a, ServiceName: model.FallbackServiceName, ServiceColor: model.FallbackServiceColor}
		if s, ok := byID[a.ServiceID]; ok {
			v.ServiceName = s.Name
			if s.Color != "" {
				v.ServiceColor = s.Color
			}
		}
		out = append(out, v)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].Start < out[j].Start
	})
	return out, nil
}
