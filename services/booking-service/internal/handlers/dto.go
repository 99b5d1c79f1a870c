package handlers

import (
	"bytes"
	"encoding/json"
	"math"
	"time"

	"github.com/md-rashed-zaman/turnos/services/booking-service/internal/availability"
	"github.com/md-rashed-zaman/turnos/services/booking-service/internal/booking"
	"github.com/md-rashed-zaman/turnos/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/turnos/services/booking-service/internal/schedule"
)

type createAppointmentRequest struct {
	ClientName  string `json:"clientName" validate:"required"`
	ClientPhone string `json:"clientPhone" validate:"required"`
	ServiceID   string `json:"serviceId" validate:"required"`
	Date        string `json:"date" validate:"required"`
	StartTime   string `json:"startTime" validate:"required"`
	Notes       string `json:"notes" validate:"max=2000"`
}

type ownerActionRequest struct {
	Action       string `json:"action" validate:"required,oneof=confirm reject remind reschedule"`
	NewDate      string `json:"newDate" validate:"required_if=Action reschedule"`
	NewStartTime string `json:"newStartTime" validate:"required_if=Action reschedule"`
}

type clientActionRequest struct {
	Action       string `json:"action" validate:"required,oneof=cancel reschedule"`
	NewDate      string `json:"newDate" validate:"required_if=Action reschedule"`
	NewStartTime string `json:"newStartTime" validate:"required_if=Action reschedule"`
}

type scheduleDayRequest struct {
	Weekday *int           `json:"weekday" validate:"required"`
	Blocks  []blockRequest `json:"blocks"`
}

// blockRequest keeps enabled raw: only a literal false disables a block.
type blockRequest struct {
	Start   string          `json:"start"`
	End     string          `json:"end"`
	Enabled json.RawMessage `json:"enabled,omitempty"`
}

func (b blockRequest) input() schedule.BlockInput {
	in := schedule.BlockInput{Start: b.Start, End: b.End}
	if bytes.Equal(bytes.TrimSpace(b.Enabled), []byte("false")) {
		off := false
		in.Enabled = &off
	}
	return in
}

type createServiceRequest struct {
	Name            string  `json:"name" validate:"required"`
	DurationMinutes int     `json:"durationMinutes" validate:"required"`
	Price           float64 `json:"price"`
	Color           string  `json:"color"`
}

type updateServiceRequest struct {
	Name            *string  `json:"name"`
	DurationMinutes *int     `json:"durationMinutes"`
	Price           *float64 `json:"price"`
	Color           *string  `json:"color"`
	Active          *bool    `json:"active"`
}

func toCents(price float64) int64 { return int64(math.Round(price * 100)) }

type serviceResponse struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	DurationMinutes int       `json:"durationMinutes"`
	Price           float64   `json:"price"`
	Color           string    `json:"color"`
	Active          bool      `json:"active"`
	CreatedAt       time.Time `json:"createdAt"`
}

func serviceDTO(s model.Service) serviceResponse {
	return serviceResponse{
		ID:              s.ID,
		Name:            s.Name,
		DurationMinutes: s.DurationMinutes,
		Price:           float64(s.PriceCents) / 100,
		Color:           s.Color,
		Active:          s.Active,
		CreatedAt:       s.CreatedAt,
	}
}

func serviceDTOs(in []model.Service) []serviceResponse {
	out := make([]serviceResponse, 0, len(in))
	for _, s := range in {
		out = append(out, serviceDTO(s))
	}
	return out
}

type blockResponse struct {
	Start   string `json:"start"`
	End     string `json:"end"`
	Enabled bool   `json:"enabled"`
}

type scheduleDayResponse struct {
	Weekday int             `json:"weekday"`
	Blocks  []blockResponse `json:"blocks"`
}

func scheduleDayDTO(d model.ScheduleDay) scheduleDayResponse {
	out := scheduleDayResponse{Weekday: d.Weekday, Blocks: make([]blockResponse, 0, len(d.Blocks))}
	for _, b := range d.Blocks {
		out.Blocks = append(out.Blocks, blockResponse{Start: b.Start.String(), End: b.End.String(), Enabled: b.Enabled})
	}
	return out
}

type appointmentResponse struct {
	ID             string     `json:"id"`
	ClientName     string     `json:"clientName"`
	ClientPhone    string     `json:"clientPhone"`
	ServiceID      string     `json:"serviceId"`
	ServiceName    string     `json:"serviceName,omitempty"`
	ServiceColor   string     `json:"serviceColor,omitempty"`
	Date           string     `json:"date"`
	StartTime      string     `json:"startTime"`
	EndTime        string     `json:"endTime"`
	Status         string     `json:"status"`
	Notes          string     `json:"notes"`
	ReminderSent   bool       `json:"reminderSent"`
	LastReminderAt *time.Time `json:"lastReminderAt,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

func appointmentDTO(a model.Appointment) appointmentResponse {
	return appointmentResponse{
		ID:             a.ID,
		ClientName:     a.ClientName,
		ClientPhone:    a.ClientPhone,
		ServiceID:      a.ServiceID,
		Date:           a.Date.String(),
		StartTime:      a.Start.String(),
		EndTime:        a.End.String(),
		Status:         string(a.Status),
		Notes:          a.Notes,
		ReminderSent:   a.ReminderSent,
		LastReminderAt: a.LastReminderAt,
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
	}
}

func appointmentViewDTO(v booking.AppointmentView) appointmentResponse {
	out := appointmentDTO(v.Appointment)
	out.ServiceName = v.ServiceName
	out.ServiceColor = v.ServiceColor
	return out
}

type slotsResponse struct {
	Date      string              `json:"date,omitempty"`
	ServiceID string              `json:"serviceId,omitempty"`
	Slots     []availability.Slot `json:"slots"`
}

type notificationResponse struct {
	Phone   string  `json:"phone"`
	Message string  `json:"message"`
	URL     *string `json:"url"`
}

type placementResponse struct {
	Date      string `json:"date"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

type ownerActionResponse struct {
	ID           string                `json:"id"`
	Status       string                `json:"status"`
	Date         string                `json:"date"`
	StartTime    string                `json:"startTime"`
	EndTime      string                `json:"endTime"`
	ReminderSent bool                  `json:"reminderSent"`
	WaURL        *string               `json:"waUrl"`
	Notification *notificationResponse `json:"notification,omitempty"`
	Previous     *placementResponse    `json:"previous,omitempty"`
}

func ownerActionDTO(out booking.Outcome) ownerActionResponse {
	a := out.Appointment
	resp := ownerActionResponse{
		ID:           a.ID,
		Status:       string(a.Status),
		Date:         a.Date.String(),
		StartTime:    a.Start.String(),
		EndTime:      a.End.String(),
		ReminderSent: a.ReminderSent,
	}
	if out.Notification.Message != "" {
		url := WhatsAppURL(out.Notification.Phone, out.Notification.Message)
		resp.WaURL = url
		resp.Notification = &notificationResponse{Phone: out.Notification.Phone, Message: out.Notification.Message, URL: url}
	}
	if p := out.Previous; p != nil {
		resp.Previous = &placementResponse{Date: p.Date.String(), StartTime: p.Start.String(), EndTime: p.End.String()}
	}
	return resp
}

type clientServiceResponse struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	DurationMinutes int    `json:"durationMinutes"`
}

type clientBusinessResponse struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Slug         string `json:"slug"`
	PrimaryColor string `json:"primaryColor"`
}

type clientAppointmentResponse struct {
	ID          string                  `json:"id"`
	Date        string                  `json:"date"`
	StartTime   string                  `json:"startTime"`
	EndTime     string                  `json:"endTime"`
	Status      string                  `json:"status"`
	ClientName  string                  `json:"clientName"`
	ClientPhone string                  `json:"clientPhone"`
	Notes       string                  `json:"notes"`
	Service     *clientServiceResponse  `json:"service"`
	Business    *clientBusinessResponse `json:"business"`
}

func clientAppointmentDTO(v booking.ClientView) clientAppointmentResponse {
	a := v.Appointment
	out := clientAppointmentResponse{
		ID:          a.ID,
		Date:        a.Date.String(),
		StartTime:   a.Start.String(),
		EndTime:     a.End.String(),
		Status:      string(a.Status),
		ClientName:  a.ClientName,
		ClientPhone: a.ClientPhone,
		Notes:       a.Notes,
	}
	if s := v.Service; s != nil {
		d := s.DurationMinutes
		if d <= 0 {
			d = model.FallbackDurationMinutes
		}
		out.Service = &clientServiceResponse{ID: s.ID, Name: s.Name, DurationMinutes: d}
	}
	if b := v.Business; b != nil {
		color := b.PrimaryColor
		if color == "" {
			color = model.DefaultBusinessColor
		}
		out.Business = &clientBusinessResponse{ID: b.ID, Name: b.Name, Slug: b.Slug, PrimaryColor: color}
	}
	return out
}

type clientActionResponse struct {
	ID        string `json:"id"`
	Date      string `json:"date"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	Status    string `json:"status"`
}

func clientActionDTO(a model.Appointment) clientActionResponse {
	return clientActionResponse{ID: a.ID, Date: a.Date.String(), StartTime: a.Start.String(), EndTime: a.End.String(), Status: string(a.Status)}
}
