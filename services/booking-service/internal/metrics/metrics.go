// Package metrics exposes Prometheus instruments for the booking service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// BookingMetrics is safe to use through a nil pointer; every method is then a no-op.
type BookingMetrics struct {
	mutations     *prometheus.CounterVec
	slotsReturned *prometheus.HistogramVec
	events        *prometheus.CounterVec
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "turnos",
			Subsystem: "booking",
			Name:      "appointment_mutations_total",
			Help:      "Appointment mutations by action and outcome",
		}, []string{"action", "outcome"}),
		slotsReturned: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "turnos",
			Subsystem: "booking",
			Name:      "availability_slots",
			Help:      "Number of free slots returned per availability query",
			Buckets:   []float64{0, 1, 2, 4, 8, 16, 32, 64},
		}, []string{"surface"}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "turnos",
			Subsystem: "booking",
			Name:      "outbox_events_total",
			Help:      "Domain events appended to the outbox",
		}, []string{"event_type", "status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.mutations, m.slotsReturned, m.events)
	return m
}

// ObserveMutation records one create/confirm/reject/remind/reschedule/cancel call.
// outcome is "ok" or a short error kind.
func (m *BookingMetrics) ObserveMutation(action, outcome string) {
	if m == nil {
		return
	}
	m.mutations.WithLabelValues(action, outcome).Inc()
}

func (m *BookingMetrics) ObserveSlots(surface string, n int) {
	if m == nil {
		return
	}
	m.slotsReturned.WithLabelValues(surface).Observe(float64(n))
}

func (m *BookingMetrics) ObserveEvent(eventType string, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.events.WithLabelValues(eventType, status).Inc()
}

// NewRegistry returns a registry preloaded with the Go runtime and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}
