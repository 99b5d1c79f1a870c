package booking

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"cloud.google.com/go/civil"

	"github.com/md-rashed-zaman/turnos/services/booking-service/internal/availability"
	"github.com/md-rashed-zaman/turnos/services/booking-service/internal/calendar"
	"github.com/md-rashed-zaman/turnos/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/turnos/services/booking-service/internal/outbox"
	"github.com/md-rashed-zaman/turnos/services/booking-service/internal/storage/memstore"
	"github.com/md-rashed-zaman/turnos/services/booking-service/internal/timeofday"
)

// 2026-03-02 is a Monday; bookings go on Tuesday 2026-03-10.
var (
	startOfTest = time.Date(2026, 3, 2, 14, 35, 0, 0, time.UTC)
	nextTue     = civil.Date{Year: 2026, Month: time.March, Day: 10}
	nextWed     = civil.Date{Year: 2026, Month: time.March, Day: 11}
)

type fixture struct {
	store   *memstore.Store
	events  *outbox.Memory
	engine  *Engine
	slots   *availability.Engine
	now     time.Time
	biz     model.Business
	service model.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	f := &fixture{store: memstore.New(), events: outbox.NewMemory(), now: startOfTest}
	f.biz = f.store.PutBusiness(model.Business{Slug: "studio", Name: "Studio"})

	svc, err := f.store.CreateService(ctx, model.Service{BusinessID: f.biz.ID, Name: "Haircut", DurationMinutes: 30, Color: "#123456", Active: true})
	if err != nil {
		t.Fatalf("create service: %v", err)
	}
	f.service = svc
	if _, err := f.store.UpsertDay(ctx, model.ScheduleDay{BusinessID: f.biz.ID, Weekday: 2, Blocks: []model.Block{
		{Start: timeofday.MustParse("09:00"), End: timeofday.MustParse("12:00"), Enabled: true},
	}}); err != nil {
		t.Fatalf("upsert day: %v", err)
	}

	clock := calendar.Clock{Now: func() time.Time { return f.now }, Location: time.UTC}
	f.slots = availability.NewEngine(f.store, f.store, f.store, clock)
	f.engine = NewEngine(Deps{
		Appointments:  f.store,
		Services:      f.store,
		Schedules:     f.store,
		Businesses:    f.store,
		Availability:  f.slots,
		Events:        f.events,
		Logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
		Clock:         clock,
		PublicBaseURL: "https://turnos.test/",
	})
	return f
}

func (f *fixture) create(t *testing.T, date civil.Date, start string) model.Appointment {
	t.Helper()
	a, err := f.engine.Create(context.Background(), f.biz.ID, CreateInput{
		ClientName:  "Ana",
		ClientPhone: "+54 9 11 5555-0000",
		ServiceID:   f.service.ID,
		Date:        date,
		Start:       timeofday.MustParse(start),
	})
	if err != nil {
		t.Fatalf("create %s %s: %v", date, start, err)
	}
	return a
}

func (f *fixture) freeSlots(t *testing.T, date civil.Date) string {
	t.Helper()
	slots, err := f.slots.Slots(context.Background(), f.biz.ID, f.service.ID, date)
	if err != nil {
		t.Fatalf("slots: %v", err)
	}
	return joinSlots(slots)
}

func joinSlots(slots []availability.Slot) string {
	parts := make([]string, len(slots))
	for i, s := range slots {
		parts[i] = s.Start.String() + "-" + s.End.String()
	}
	return strings.Join(parts, ",")
}

func TestCreateRemovesSlot(t *testing.T) {
	f := newFixture(t)
	a := f.create(t, nextTue, "10:00")

	if a.ID == "" || a.Status != model.StatusRequest {
		t.Fatalf("unexpected appointment %+v", a)
	}
	if a.End != timeofday.MustParse("10:30") {
		t.Fatalf("end = %s, want 10:30", a.End)
	}
	want := "09:00-09:30,09:30-10:00,10:30-11:00,11:00-11:30,11:30-12:00"
	if got := f.freeSlots(t, nextTue); got != want {
		t.Fatalf("slots after booking\n got %s\nwant %s", got, want)
	}
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	inactive, err := f.store.CreateService(ctx, model.Service{BusinessID: f.biz.ID, Name: "Old", DurationMinutes: 30})
	if err != nil {
		t.Fatalf("create service: %v", err)
	}
	f.create(t, nextTue, "10:00")

	base := CreateInput{ClientName: "Bea", ClientPhone: "123", ServiceID: f.service.ID, Date: nextTue, Start: timeofday.MustParse("09:00")}
	cases := []struct {
		name string
		edit func(*CreateInput)
		want error
	}{
		{"blank name", func(in *CreateInput) { in.ClientName = "  " }, ErrIncompleteData},
		{"missing phone", func(in *CreateInput) { in.ClientPhone = "" }, ErrIncompleteData},
		{"missing date", func(in *CreateInput) { in.Date = civil.Date{} }, ErrIncompleteData},
		{"unknown service", func(in *CreateInput) { in.ServiceID = "nope" }, ErrInvalidService},
		{"inactive service", func(in *CreateInput) { in.ServiceID = inactive.ID }, ErrInvalidService},
		{"runs past closing", func(in *CreateInput) { in.Start = timeofday.MustParse("11:45") }, ErrOutsideBusinessHours},
		{"before opening", func(in *CreateInput) { in.Start = timeofday.MustParse("08:45") }, ErrOutsideBusinessHours},
		{"closed weekday", func(in *CreateInput) { in.Date = nextWed }, ErrOutsideBusinessHours},
		{"same slot", func(in *CreateInput) { in.Start = timeofday.MustParse("10:00") }, ErrSlotTaken},
		{"partial overlap", func(in *CreateInput) { in.Start = timeofday.MustParse("10:15") }, ErrSlotTaken},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := base
			tc.edit(&in)
			if _, err := f.engine.Create(ctx, f.biz.ID, in); !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
		})
	}

	all, err := f.store.ListAppointments(ctx, f.biz.ID, model.AppointmentFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("failed creates must not write, have %d appointments", len(all))
	}
}

func TestCreateAdjacentSlotsDoNotConflict(t *testing.T) {
	f := newFixture(t)
	f.create(t, nextTue, "10:00")
	f.create(t, nextTue, "10:30")
	f.create(t, nextTue, "09:30")
}

func TestConfirmIssuesTokenOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.create(t, nextTue, "10:00")

	out, err := f.engine.Confirm(ctx, f.biz.ID, a.ID)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	got := out.Appointment
	if got.Status != model.StatusConfirmed || got.ClientToken == "" {
		t.Fatalf("unexpected appointment %+v", got)
	}
	if got.ClientTokenExpiresAt == nil || !got.ClientTokenExpiresAt.Equal(startOfTest.Add(30*24*time.Hour)) {
		t.Fatalf("expiry = %v", got.ClientTokenExpiresAt)
	}
	if out.Notification.Phone != a.ClientPhone {
		t.Fatalf("phone = %q", out.Notification.Phone)
	}
	if !strings.Contains(out.Notification.Message, "https://turnos.test/r/"+got.ClientToken) {
		t.Fatalf("message lacks client link: %q", out.Notification.Message)
	}
	if !strings.Contains(out.Notification.Message, "Haircut") {
		t.Fatalf("message lacks service name: %q", out.Notification.Message)
	}

	f.now = f.now.Add(time.Hour)
	again, err := f.engine.Confirm(ctx, f.biz.ID, a.ID)
	if err != nil {
		t.Fatalf("second confirm: %v", err)
	}
	if again.Appointment.ClientToken != got.ClientToken {
		t.Fatal("second confirm must reuse the token")
	}
	if !again.Appointment.ClientTokenExpiresAt.Equal(*got.ClientTokenExpiresAt) {
		t.Fatal("second confirm must keep the expiry")
	}
}

func TestRejectFreesSlotAndIsTerminal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.create(t, nextTue, "10:00")

	out, err := f.engine.Reject(ctx, f.biz.ID, a.ID)
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if out.Appointment.Status != model.StatusRejected || out.Notification.Message == "" {
		t.Fatalf("unexpected outcome %+v", out)
	}
	if got := f.freeSlots(t, nextTue); !strings.Contains(got, "10:00-10:30") {
		t.Fatalf("rejected appointment still blocks: %s", got)
	}
	if _, err := f.engine.Confirm(ctx, f.biz.ID, a.ID); !errors.Is(err, ErrAppointmentInactive) {
		t.Fatalf("confirm after reject: %v", err)
	}
	if _, err := f.engine.Confirm(ctx, f.biz.ID, "missing"); !errors.Is(err, ErrAppointmentNotFound) {
		t.Fatalf("confirm unknown: %v", err)
	}
}

func TestRemindKeepsStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.create(t, nextTue, "10:00")

	out, err := f.engine.Remind(ctx, f.biz.ID, a.ID)
	if err != nil {
		t.Fatalf("remind: %v", err)
	}
	if out.Appointment.Status != model.StatusRequest || !out.Appointment.ReminderSent {
		t.Fatalf("unexpected appointment %+v", out.Appointment)
	}
	if !out.Appointment.LastReminderAt.Equal(startOfTest) {
		t.Fatalf("last reminder = %v", out.Appointment.LastReminderAt)
	}

	f.now = f.now.Add(2 * time.Hour)
	out, err = f.engine.Remind(ctx, f.biz.ID, a.ID)
	if err != nil {
		t.Fatalf("second remind: %v", err)
	}
	if !out.Appointment.LastReminderAt.Equal(startOfTest.Add(2 * time.Hour)) {
		t.Fatalf("second remind must refresh timestamp, got %v", out.Appointment.LastReminderAt)
	}
}

func TestRescheduleOntoItself(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.create(t, nextTue, "10:00")
	if _, err := f.engine.Confirm(ctx, f.biz.ID, a.ID); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	out, err := f.engine.Reschedule(ctx, f.biz.ID, a.ID, nextTue, timeofday.MustParse("10:00"))
	if err != nil {
		t.Fatalf("reschedule onto own slot: %v", err)
	}
	if out.Appointment.Status != model.StatusConfirmed {
		t.Fatalf("status = %s, want confirmed", out.Appointment.Status)
	}

	out, err = f.engine.Reschedule(ctx, f.biz.ID, a.ID, nextTue, timeofday.MustParse("10:15"))
	if err != nil {
		t.Fatalf("reschedule overlapping own slot: %v", err)
	}
	if out.Previous == nil || out.Previous.Start != timeofday.MustParse("10:00") {
		t.Fatalf("previous = %+v", out.Previous)
	}
	if out.Appointment.End != timeofday.MustParse("10:45") {
		t.Fatalf("end = %s", out.Appointment.End)
	}
}

func TestRescheduleConflict(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	x := f.create(t, nextTue, "09:00")
	y := f.create(t, nextTue, "11:00")

	if _, err := f.engine.Reschedule(ctx, f.biz.ID, x.ID, nextTue, timeofday.MustParse("11:00")); !errors.Is(err, ErrSlotTaken) {
		t.Fatalf("err = %v, want ErrSlotTaken", err)
	}
	stored, err := f.store.GetAppointment(ctx, f.biz.ID, x.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.Start != timeofday.MustParse("09:00") {
		t.Fatal("failed reschedule must not move the appointment")
	}

	if _, err := f.engine.Reject(ctx, f.biz.ID, y.ID); err != nil {
		t.Fatalf("reject: %v", err)
	}
	if _, err := f.engine.Reschedule(ctx, f.biz.ID, x.ID, nextTue, timeofday.MustParse("11:00")); err != nil {
		t.Fatalf("rejected appointment must not block: %v", err)
	}
}

func TestRescheduleFallsBackToDefaultDuration(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.create(t, nextTue, "09:00")
	if err := f.store.DeleteService(ctx, f.biz.ID, f.service.ID); err != nil {
		t.Fatalf("delete service: %v", err)
	}
	out, err := f.engine.Reschedule(ctx, f.biz.ID, a.ID, nextWed, timeofday.MustParse("15:00"))
	if err != nil {
		t.Fatalf("reschedule: %v", err)
	}
	if out.Appointment.End != timeofday.MustParse("16:00") {
		t.Fatalf("end = %s, want 16:00", out.Appointment.End)
	}
	if !strings.Contains(out.Notification.Message, unnamedService) {
		t.Fatalf("message = %q", out.Notification.Message)
	}
}

func TestEventsFollowMutations(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.create(t, nextTue, "09:00")
	if _, err := f.engine.Confirm(ctx, f.biz.ID, a.ID); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if _, err := f.engine.Reschedule(ctx, f.biz.ID, a.ID, nextTue, timeofday.MustParse("09:30")); err != nil {
		t.Fatalf("reschedule: %v", err)
	}
	if _, err := f.engine.Reschedule(ctx, f.biz.ID, "missing", nextTue, timeofday.MustParse("09:30")); err == nil {
		t.Fatal("expected error")
	}

	var types []string
	for _, e := range f.events.Events() {
		if e.AggregateID != a.ID {
			t.Fatalf("event for %q", e.AggregateID)
		}
		types = append(types, e.EventType)
	}
	want := []string{EventRequested, EventConfirmed, EventRescheduled}
	if strings.Join(types, " ") != strings.Join(want, " ") {
		t.Fatalf("events = %v, want %v", types, want)
	}
	if !strings.Contains(string(f.events.Events()[2].Payload), `"previous_start_time":"09:00"`) {
		t.Fatalf("payload = %s", f.events.Events()[2].Payload)
	}
}

func TestListOrdersAndLabels(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	late := f.create(t, nextTue, "11:00")
	early := f.create(t, nextTue, "09:00")
	orphan := model.Appointment{BusinessID: f.biz.ID, ServiceID: "gone", Date: nextWed, Start: timeofday.MustParse("10:00"), End: timeofday.MustParse("11:00"), Status: model.StatusConfirmed}
	if err := f.store.InsertAppointment(ctx, &orphan); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if _, err := f.engine.Reject(ctx, f.biz.ID, late.ID); err != nil {
		t.Fatalf("reject: %v", err)
	}

	views, err := f.engine.List(ctx, f.biz.ID, model.AppointmentFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(views) != 3 || views[0].ID != early.ID || views[1].ID != late.ID || views[2].ID != orphan.ID {
		t.Fatalf("unexpected order %+v", views)
	}
	if views[0].ServiceName != "Haircut" || views[0].ServiceColor != "#123456" {
		t.Fatalf("view = %+v", views[0])
	}
	if views[2].ServiceName != model.FallbackServiceName || views[2].ServiceColor != model.FallbackServiceColor {
		t.Fatalf("orphan view = %+v", views[2])
	}

	active, err := f.engine.List(ctx, f.biz.ID, model.AppointmentFilter{From: nextTue, To: nextTue, Statuses: model.ActiveStatuses})
	if err != nil {
		t.Fatalf("list active: %v", err)
	}
	if len(active) != 1 || active[0].ID != early.ID {
		t.Fatalf("active = %+v", active)
	}
}
