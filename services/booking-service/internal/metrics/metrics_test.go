package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestBookingMetricsObserve(t *testing.T) {
	reg := NewRegistry()
	m := NewBookingMetrics(reg)
	m.ObserveMutation("create", "ok")
	m.ObserveMutation("create", "ok")
	m.ObserveMutation("create", "slot_taken")
	m.ObserveSlots("public", 6)
	m.ObserveEvent("booking.appointment.requested.v1", nil)
	m.ObserveEvent("booking.appointment.requested.v1", errors.New("db"))

	if got := testutil.ToFloat64(m.mutations.WithLabelValues("create", "ok")); got != 2 {
		t.Fatalf("expected 2 ok creates, got %v", got)
	}
	if got := testutil.ToFloat64(m.events.WithLabelValues("booking.appointment.requested.v1", "error")); got != 1 {
		t.Fatalf("expected 1 failed event, got %v", got)
	}

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rec.Body.String(), "turnos_booking_appointment_mutations_total") {
		t.Fatal("expected mutation counter in exposition")
	}
}

func TestBookingMetricsNilSafe(t *testing.T) {
	var m *BookingMetrics
	m.ObserveMutation("confirm", "ok")
	m.ObserveSlots("admin", 0)
	m.ObserveEvent("x", nil)
}
