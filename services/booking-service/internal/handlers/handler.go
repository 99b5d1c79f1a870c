// Package handlers exposes the booking core over HTTP.
package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/md-rashed-zaman/turnos/libs/auth"
	"github.com/md-rashed-zaman/turnos/libs/httpx"
	"github.com/md-rashed-zaman/turnos/services/booking-service/internal/availability"
	"github.com/md-rashed-zaman/turnos/services/booking-service/internal/booking"
	"github.com/md-rashed-zaman/turnos/services/booking-service/internal/catalog"
	"github.com/md-rashed-zaman/turnos/services/booking-service/internal/metrics"
	"github.com/md-rashed-zaman/turnos/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/turnos/services/booking-service/internal/schedule"
)

// TenantResolver maps a public slug to its business.
type TenantResolver interface {
	ResolveSlug(ctx context.Context, slug string) (model.Business, error)
}

type Deps struct {
	Schedule     *schedule.Service
	Availability *availability.Engine
	Booking      *booking.Engine
	Catalog      *catalog.Catalog
	Tenants      TenantResolver
	Metrics      *metrics.BookingMetrics
	Logger       *slog.Logger
}

type Handler struct {
	schedule *schedule.Service
	slots    *availability.Engine
	booking  *booking.Engine
	catalog  *catalog.Catalog
	tenants  TenantResolver
	metrics  *metrics.BookingMetrics
	logger   *slog.Logger
}

func New(d Deps) *Handler {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		schedule: d.Schedule,
		slots:    d.Availability,
		booking:  d.Booking,
		catalog:  d.Catalog,
		tenants:  d.Tenants,
		metrics:  d.Metrics,
		logger:   logger,
	}
}

// Routes mounts the API. owner must authenticate the caller and put its
// claims on the context; anonymous, when set, guards the slug and token
// routes (rate limiting).
func (h *Handler) Routes(owner httpx.Middleware, anonymous httpx.Middleware) http.Handler {
	r := chi.NewRouter()
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httpx.WriteError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		httpx.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			if anonymous != nil {
				r.Use(anonymous)
			}
			r.Get("/public/{slug}/services", h.PublicServices)
			r.Get("/public/{slug}/availability", h.PublicAvailability)
			r.Post("/public/{slug}/appointments", h.PublicCreateAppointment)

			r.Get("/client/appointments/{token}", h.ClientAppointment)
			r.Patch("/client/appointments/{token}", h.ClientUpdateAppointment)
			r.Get("/client/appointments/{token}/availability", h.ClientAvailability)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(owner)
			r.Get("/schedule", h.GetSchedule)
			r.Put("/schedule", h.PutScheduleDay)
			r.Get("/availability", h.AdminAvailability)
			r.Get("/appointments", h.ListAppointments)
			r.Patch("/appointments/{id}", h.UpdateAppointment)
			r.Get("/services", h.ListServices)
			r.Post("/services", h.CreateService)
			r.Patch("/services/{id}", h.UpdateService)
			r.Delete("/services/{id}", h.DeleteService)
		})
	})
	return r
}

// businessID is the tenant of the authenticated owner.
func businessID(r *http.Request) (string, bool) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok || claims.BusinessID == "" {
		return "", false
	}
	return claims.BusinessID, true
}
