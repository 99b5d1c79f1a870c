package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/md-rashed-zaman/turnos/libs/httpx"
	"github.com/md-rashed-zaman/turnos/services/booking-service/internal/booking"
	"github.com/md-rashed-zaman/turnos/services/booking-service/internal/calendar"
	"github.com/md-rashed-zaman/turnos/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/turnos/services/booking-service/internal/timeofday"
)

func (h *Handler) tenant(w http.ResponseWriter, r *http.Request) (model.Business, bool) {
	biz, err := h.tenants.ResolveSlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		h.writeError(w, r, publicSurface, err)
		return model.Business{}, false
	}
	return biz, true
}

func (h *Handler) PublicServices(w http.ResponseWriter, r *http.Request) {
	biz, ok := h.tenant(w, r)
	if !ok {
		return
	}
	svcs, err := h.catalog.List(r.Context(), biz.ID, true)
	if err != nil {
		h.writeError(w, r, publicSurface, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"services": serviceDTOs(svcs)})
}

func (h *Handler) PublicAvailability(w http.ResponseWriter, r *http.Request) {
	biz, ok := h.tenant(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	serviceID, rawDate := strings.TrimSpace(q.Get("serviceId")), strings.TrimSpace(q.Get("date"))
	if serviceID == "" || rawDate == "" {
		h.writeError(w, r, publicSurface, badRequest("date and serviceId are required"))
		return
	}
	date, err := calendar.ParseDate(rawDate)
	if err != nil {
		h.writeError(w, r, publicSurface, err)
		return
	}
	slots, err := h.slots.Slots(r.Context(), biz.ID, serviceID, date)
	if err != nil {
		h.writeError(w, r, publicSurface, err)
		return
	}
	h.metrics.ObserveSlots("public", len(slots))
	httpx.WriteJSON(w, http.StatusOK, slotsResponse{Date: date.String(), ServiceID: serviceID, Slots: slots})
}

func (h *Handler) PublicCreateAppointment(w http.ResponseWriter, r *http.Request) {
	biz, ok := h.tenant(w, r)
	if !ok {
		return
	}
	var req createAppointmentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		h.writeError(w, r, publicSurface, err)
		return
	}
	req.ClientName = strings.TrimSpace(req.ClientName)
	req.ClientPhone = strings.TrimSpace(req.ClientPhone)
	req.ServiceID = strings.TrimSpace(req.ServiceID)
	req.Date = strings.TrimSpace(req.Date)
	req.StartTime = strings.TrimSpace(req.StartTime)
	req.Notes = strings.TrimSpace(req.Notes)
	if err := checkStruct(req, true); err != nil {
		h.writeError(w, r, publicSurface, err)
		return
	}
	date, err := calendar.ParseDate(req.Date)
	if err != nil {
		h.writeError(w, r, publicSurface, err)
		return
	}
	start, err := timeofday.ParseStart(req.StartTime)
	if err != nil {
		h.writeError(w, r, publicSurface, err)
		return
	}
	a, err := h.booking.Create(r.Context(), biz.ID, booking.CreateInput{
		ClientName:  req.ClientName,
		ClientPhone: req.ClientPhone,
		ServiceID:   req.ServiceID,
		Date:        date,
		Start:       start,
		Notes:       req.Notes,
	})
	if err != nil {
		h.writeError(w, r, publicSurface, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, map[string]any{"appointment": appointmentDTO(a)})
}
