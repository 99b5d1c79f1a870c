package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/md-rashed-zaman/turnos/libs/httpx"
	"github.com/md-rashed-zaman/turnos/services/booking-service/internal/calendar"
	"github.com/md-rashed-zaman/turnos/services/booking-service/internal/model"
)

func (h *Handler) ClientAppointment(w http.ResponseWriter, r *http.Request) {
	view, err := h.booking.ClientAppointment(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		h.writeError(w, r, clientSurface, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, clientAppointmentDTO(view))
}

func (h *Handler) ClientUpdateAppointment(w http.ResponseWriter, r *http.Request) {
	var req clientActionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		h.writeError(w, r, clientSurface, err)
		return
	}
	req.Action = strings.TrimSpace(req.Action)
	if req.Action == "" {
		h.writeError(w, r, clientSurface, badRequest("action is required"))
		return
	}
	if err := checkStruct(req, false); err != nil {
		h.writeError(w, r, clientSurface, err)
		return
	}

	ctx, token := r.Context(), chi.URLParam(r, "token")
	var (
		a   model.Appointment
		err error
	)
	switch req.Action {
	case "cancel":
		a, err = h.booking.ClientCancel(ctx, token)
	case "reschedule":
		date, start, perr := parsePlacement(req.NewDate, req.NewStartTime)
		if perr != nil {
			h.writeError(w, r, clientSurface, perr)
			return
		}
		a, err = h.booking.ClientReschedule(ctx, token, date, start)
	}
	if err != nil {
		h.writeError(w, r, clientSurface, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, clientActionDTO(a))
}

func (h *Handler) ClientAvailability(w http.ResponseWriter, r *http.Request) {
	raw := strings.TrimSpace(r.URL.Query().Get("date"))
	if raw == "" {
		h.writeError(w, r, clientSurface, badRequest("date is required"))
		return
	}
	date, err := calendar.ParseDate(raw)
	if err != nil {
		h.writeError(w, r, clientSurface, err)
		return
	}
	slots, err := h.booking.ClientSlots(r.Context(), chi.URLParam(r, "token"), date)
	if err != nil {
		h.writeError(w, r, clientSurface, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, slotsResponse{Date: date.String(), Slots: slots})
}
