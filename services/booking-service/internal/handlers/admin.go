package handlers

import (
	"net/http"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/go-chi/chi/v5"

	"github.com/md-rashed-zaman/turnos/libs/httpx"
	"github.com/md-rashed-zaman/turnos/services/booking-service/internal/booking"
	"github.com/md-rashed-zaman/turnos/services/booking-service/internal/calendar"
	"github.com/md-rashed-zaman/turnos/services/booking-service/internal/catalog"
	"github.com/md-rashed-zaman/turnos/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/turnos/services/booking-service/internal/schedule"
	"github.com/md-rashed-zaman/turnos/services/booking-service/internal/timeofday"
)

// owner returns the caller's business or writes a 401.
func (h *Handler) owner(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, ok := businessID(r)
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized")
	}
	return id, ok
}

func (h *Handler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	biz, ok := h.owner(w, r)
	if !ok {
		return
	}
	week, err := h.schedule.Week(r.Context(), biz)
	if err != nil {
		h.writeError(w, r, ownerSurface, err)
		return
	}
	days := make([]scheduleDayResponse, 0, len(week))
	for _, d := range week {
		days = append(days, scheduleDayDTO(d))
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"days": days})
}

func (h *Handler) PutScheduleDay(w http.ResponseWriter, r *http.Request) {
	biz, ok := h.owner(w, r)
	if !ok {
		return
	}
	var req scheduleDayRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		h.writeError(w, r, ownerSurface, err)
		return
	}
	if err := checkStruct(req, false); err != nil {
		h.writeError(w, r, ownerSurface, err)
		return
	}
	in := make([]schedule.BlockInput, 0, len(req.Blocks))
	for _, b := range req.Blocks {
		in = append(in, b.input())
	}
	day, err := h.schedule.SetDay(r.Context(), biz, *req.Weekday, in)
	if err != nil {
		h.writeError(w, r, ownerSurface, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, scheduleDayDTO(day))
}

func (h *Handler) AdminAvailability(w http.ResponseWriter, r *http.Request) {
	biz, ok := h.owner(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	serviceID, rawDate := strings.TrimSpace(q.Get("serviceId")), strings.TrimSpace(q.Get("date"))
	if serviceID == "" || rawDate == "" {
		h.writeError(w, r, ownerSurface, badRequest("date and serviceId are required"))
		return
	}
	date, err := calendar.ParseDate(rawDate)
	if err != nil {
		h.writeError(w, r, ownerSurface, err)
		return
	}
	slots, err := h.slots.Slots(r.Context(), biz, serviceID, date)
	if err != nil {
		h.writeError(w, r, ownerSurface, err)
		return
	}
	h.metrics.ObserveSlots("admin", len(slots))
	httpx.WriteJSON(w, http.StatusOK, slotsResponse{Slots: slots})
}

// ListAppointments accepts date, or from/to, plus status (a single status or "all").
func (h *Handler) ListAppointments(w http.ResponseWriter, r *http.Request) {
	biz, ok := h.owner(w, r)
	if !ok {
		return
	}
	f, err := listFilter(r)
	if err != nil {
		h.writeError(w, r, ownerSurface, err)
		return
	}
	views, err := h.booking.List(r.Context(), biz, f)
	if err != nil {
		h.writeError(w, r, ownerSurface, err)
		return
	}
	out := make([]appointmentResponse, 0, len(views))
	for _, v := range views {
		out = append(out, appointmentViewDTO(v))
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"appointments": out})
}

func listFilter(r *http.Request) (model.AppointmentFilter, error) {
	q := r.URL.Query()
	var f model.AppointmentFilter
	parse := func(key string) (bool, error) {
		raw := strings.TrimSpace(q.Get(key))
		if raw == "" {
			return false, nil
		}
		d, err := calendar.ParseDate(raw)
		if err != nil {
			return false, err
		}
		switch key {
		case "date":
			f.From, f.To = d, d
		case "from":
			f.From = d
		case "to":
			f.To = d
		}
		return true, nil
	}
	if set, err := parse("date"); err != nil {
		return f, err
	} else if !set {
		if _, err := parse("from"); err != nil {
			return f, err
		}
		if _, err := parse("to"); err != nil {
			return f, err
		}
	}
	if raw := strings.TrimSpace(q.Get("status")); raw != "" && raw != "all" {
		st, err := model.ParseStatus(raw)
		if err != nil {
			return f, badRequest("invalid status")
		}
		f.Statuses = []model.Status{st}
	}
	return f, nil
}

func (h *Handler) UpdateAppointment(w http.ResponseWriter, r *http.Request) {
	biz, ok := h.owner(w, r)
	if !ok {
		return
	}
	var req ownerActionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		h.writeError(w, r, ownerSurface, err)
		return
	}
	req.Action = strings.TrimSpace(req.Action)
	if req.Action == "" {
		h.writeError(w, r, ownerSurface, badRequest("action is required"))
		return
	}
	if err := checkStruct(req, false); err != nil {
		h.writeError(w, r, ownerSurface, err)
		return
	}

	ctx, id := r.Context(), chi.URLParam(r, "id")
	var (
		out booking.Outcome
		err error
	)
	switch req.Action {
	case "confirm":
		out, err = h.booking.Confirm(ctx, biz, id)
	case "reject":
		out, err = h.booking.Reject(ctx, biz, id)
	case "remind":
		out, err = h.booking.Remind(ctx, biz, id)
	case "reschedule":
		date, start, perr := parsePlacement(req.NewDate, req.NewStartTime)
		if perr != nil {
			h.writeError(w, r, ownerSurface, perr)
			return
		}
		out, err = h.booking.Reschedule(ctx, biz, id, date, start)
	}
	if err != nil {
		h.writeError(w, r, ownerSurface, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, ownerActionDTO(out))
}

func parsePlacement(rawDate, rawStart string) (date civil.Date, start timeofday.Minutes, err error) {
	date, err = calendar.ParseDate(strings.TrimSpace(rawDate))
	if err != nil {
		return date, 0, err
	}
	start, err = timeofday.ParseStart(strings.TrimSpace(rawStart))
	return date, start, err
}

func (h *Handler) ListServices(w http.ResponseWriter, r *http.Request) {
	biz, ok := h.owner(w, r)
	if !ok {
		return
	}
	all := r.URL.Query().Get("all") == "true"
	svcs, err := h.catalog.List(r.Context(), biz, !all)
	if err != nil {
		h.writeError(w, r, ownerSurface, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"services": serviceDTOs(svcs)})
}

func (h *Handler) CreateService(w http.ResponseWriter, r *http.Request) {
	biz, ok := h.owner(w, r)
	if !ok {
		return
	}
	var req createServiceRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		h.writeError(w, r, ownerSurface, err)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if err := checkStruct(req, false); err != nil {
		h.writeError(w, r, ownerSurface, err)
		return
	}
	svc, err := h.catalog.Create(r.Context(), biz, catalog.Input{
		Name:            req.Name,
		DurationMinutes: req.DurationMinutes,
		PriceCents:      toCents(req.Price),
		Color:           strings.TrimSpace(req.Color),
	})
	if err != nil {
		h.writeError(w, r, ownerSurface, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, map[string]any{"service": serviceDTO(svc)})
}

func (h *Handler) UpdateService(w http.ResponseWriter, r *http.Request) {
	biz, ok := h.owner(w, r)
	if !ok {
		return
	}
	var req updateServiceRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		h.writeError(w, r, ownerSurface, err)
		return
	}
	p := catalog.Patch{Name: req.Name, DurationMinutes: req.DurationMinutes, Color: req.Color, Active: req.Active}
	if req.Price != nil {
		cents := toCents(*req.Price)
		p.PriceCents = &cents
	}
	svc, err := h.catalog.Update(r.Context(), biz, chi.URLParam(r, "id"), p)
	if err != nil {
		h.writeError(w, r, ownerSurface, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"service": serviceDTO(svc)})
}

func (h *Handler) DeleteService(w http.ResponseWriter, r *http.Request) {
	biz, ok := h.owner(w, r)
	if !ok {
		return
	}
	if err := h.catalog.Delete(r.Context(), biz, chi.URLParam(r, "id")); err != nil {
		h.writeError(w, r, ownerSurface, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
