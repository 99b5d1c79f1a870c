package storage

import (
	"context"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/md-rashed-zaman/turnos/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/turnos/services/booking-service/internal/timeofday"
)

var apptColumns = []string{"id", "business_id", "client_name", "client_phone", "service_id", "date", "start_minute", "end_minute",
	"status", "notes", "reminder_sent", "last_reminder_at", "client_token", "client_token_expires_at", "created_at", "updated_at"}

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

func TestGetAppointmentScansRow(t *testing.T) {
	mock := newMock(t)
	ts := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	expires := ts.Add(30 * 24 * time.Hour)
	token := "tok"
	mock.ExpectQuery("FROM appointments WHERE id = \\$1 AND business_id = \\$2").
		WithArgs("a1", "biz").
		WillReturnRows(pgxmock.NewRows(apptColumns).AddRow(
			"a1", "biz", "Ana", "123", "svc", time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC), 600, 630,
			"confirmed", "", false, (*time.Time)(nil), &token, &expires, ts, ts))

	a, err := NewAppointmentRepository(mock).GetAppointment(context.Background(), "biz", "a1")
	require.NoError(t, err)
	assert.Equal(t, civil.Date{Year: 2026, Month: time.March, Day: 10}, a.Date)
	assert.Equal(t, timeofday.MustParse("10:00"), a.Start)
	assert.Equal(t, timeofday.MustParse("10:30"), a.End)
	assert.Equal(t, model.StatusConfirmed, a.Status)
	assert.Equal(t, "tok", a.ClientToken)
	assert.Nil(t, a.LastReminderAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetAppointmentNotFound(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery("FROM appointments").WithArgs("a1", "biz").WillReturnError(pgx.ErrNoRows)

	_, err := NewAppointmentRepository(mock).GetAppointment(context.Background(), "biz", "a1")
	require.ErrorIs(t, err, model.ErrNotFound)
}

func TestGetAppointmentByEmptyTokenSkipsQuery(t *testing.T) {
	mock := newMock(t)
	_, err := NewAppointmentRepository(mock).GetAppointmentByToken(context.Background(), "")
	require.ErrorIs(t, err, model.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateAppointmentTokenConflict(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery("UPDATE appointments").WillReturnError(&pgconn.PgError{Code: "23505"})

	a := &model.Appointment{ID: "a1", BusinessID: "biz", Status: model.StatusConfirmed, ClientToken: "dup"}
	err := NewAppointmentRepository(mock).UpdateAppointment(context.Background(), a)
	require.ErrorIs(t, err, model.ErrTokenConflict)
}

func TestInsertAppointmentReturnsID(t *testing.T) {
	mock := newMock(t)
	ts := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	date := civil.Date{Year: 2026, Month: time.March, Day: 10}
	mock.ExpectQuery("INSERT INTO appointments").
		WithArgs("biz", "Ana", "123", "svc", date.In(time.UTC), 600, 630, "request", "").
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow("new-id", ts, ts))

	a := &model.Appointment{BusinessID: "biz", ClientName: "Ana", ClientPhone: "123", ServiceID: "svc", Date: date,
		Start: timeofday.MustParse("10:00"), End: timeofday.MustParse("10:30"), Status: model.StatusRequest}
	require.NoError(t, NewAppointmentRepository(mock).InsertAppointment(context.Background(), a))
	assert.Equal(t, "new-id", a.ID)
	assert.Equal(t, ts, a.CreatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListActiveOnDateFilters(t *testing.T) {
	mock := newMock(t)
	date := civil.Date{Year: 2026, Month: time.March, Day: 10}
	day := date.In(time.UTC)
	mock.ExpectQuery("FROM appointments").
		WithArgs("biz", &day, &day, []string{"request", "confirmed"}).
		WillReturnRows(pgxmock.NewRows(apptColumns))

	got, err := NewAppointmentRepository(mock).ListActiveOnDate(context.Background(), "biz", date)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NotNil(t, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleGetDayDecodesBlocks(t *testing.T) {
	mock := newMock(t)
	ts := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery("FROM schedule_days").
		WithArgs("biz", 2).
		WillReturnRows(pgxmock.NewRows([]string{"blocks", "updated_at"}).
			AddRow([]byte(`[{"start":"09:00","end":"12:00","enabled":true},{"start":"14:00","end":"18:00","enabled":false}]`), ts))

	d, err := NewScheduleRepository(mock).GetDay(context.Background(), "biz", 2)
	require.NoError(t, err)
	require.Len(t, d.Blocks, 2)
	assert.Equal(t, timeofday.MustParse("09:00"), d.Blocks[0].Start)
	assert.False(t, d.Blocks[1].Enabled)
	assert.Equal(t, 2, d.Weekday)
}

func TestScheduleGetDayMissing(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery("FROM schedule_days").WithArgs("biz", 0).WillReturnError(pgx.ErrNoRows)

	_, err := NewScheduleRepository(mock).GetDay(context.Background(), "biz", 0)
	require.ErrorIs(t, err, model.ErrNotFound)
}

func TestScheduleUpsertStoresEmptyArray(t *testing.T) {
	mock := newMock(t)
	ts := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery("INSERT INTO schedule_days").
		WithArgs("biz", 3, []byte(`[]`)).
		WillReturnRows(pgxmock.NewRows([]string{"updated_at"}).AddRow(ts))

	d, err := NewScheduleRepository(mock).UpsertDay(context.Background(), model.ScheduleDay{BusinessID: "biz", Weekday: 3})
	require.NoError(t, err)
	assert.Equal(t, ts, d.UpdatedAt)
	assert.NotNil(t, d.Blocks)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFindActiveServiceNotFound(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery("FROM services WHERE id = \\$1 AND business_id = \\$2 AND active").
		WithArgs("svc", "biz").
		WillReturnError(pgx.ErrNoRows)

	_, err := NewServiceRepository(mock).FindActiveService(context.Background(), "biz", "svc")
	require.ErrorIs(t, err, model.ErrNotFound)
}

func TestMalformedIDIsNotFound(t *testing.T) {
	mock := newMock(t)
	badUUID := &pgconn.PgError{Code: "22P02", Message: `invalid input syntax for type uuid: "abc"`}
	mock.ExpectQuery("FROM services WHERE id = \\$1 AND business_id = \\$2 AND active").
		WithArgs("abc", "biz").
		WillReturnError(badUUID)
	mock.ExpectQuery("FROM appointments WHERE id = \\$1 AND business_id = \\$2").
		WithArgs("abc", "biz").
		WillReturnError(badUUID)

	_, err := NewServiceRepository(mock).FindActiveService(context.Background(), "biz", "abc")
	require.ErrorIs(t, err, model.ErrNotFound)
	_, err = NewAppointmentRepository(mock).GetAppointment(context.Background(), "biz", "abc")
	require.ErrorIs(t, err, model.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteService(t *testing.T) {
	mock := newMock(t)
	mock.ExpectExec("DELETE FROM services WHERE id = \\$1 AND business_id = \\$2").
		WithArgs("s1", "biz").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec("DELETE FROM services").
		WithArgs("s1", "biz").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectExec("DELETE FROM services").
		WithArgs("abc", "biz").
		WillReturnError(&pgconn.PgError{Code: "22P02"})

	repo := NewServiceRepository(mock)
	require.NoError(t, repo.DeleteService(context.Background(), "biz", "s1"))
	require.ErrorIs(t, repo.DeleteService(context.Background(), "biz", "s1"), model.ErrNotFound)
	require.ErrorIs(t, repo.DeleteService(context.Background(), "biz", "abc"), model.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListServices(t *testing.T) {
	mock := newMock(t)
	ts := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery("FROM services").
		WithArgs("biz", true).
		WillReturnRows(pgxmock.NewRows([]string{"id", "business_id", "name", "duration_minutes", "price_cents", "color", "active", "created_at"}).
			AddRow("s1", "biz", "Cut", 30, int64(1500), "#f472b6", true, ts))

	got, err := NewServiceRepository(mock).ListServices(context.Background(), "biz", true)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(1500), got[0].PriceCents)
	assert.Equal(t, 30, got[0].DurationMinutes)
}

func TestBusinessBySlug(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery("FROM businesses WHERE slug").
		WithArgs("studio").
		WillReturnRows(pgxmock.NewRows([]string{"id", "slug", "name", "phone", "primary_color"}).
			AddRow("b1", "studio", "Studio", "", "#6366F1"))

	b, err := NewBusinessRepository(mock).BusinessBySlug(context.Background(), "studio")
	require.NoError(t, err)
	assert.Equal(t, "b1", b.ID)

	mock.ExpectQuery("FROM businesses WHERE slug").WithArgs("nope").WillReturnError(pgx.ErrNoRows)
	_, err = NewBusinessRepository(mock).BusinessBySlug(context.Background(), "nope")
	require.ErrorIs(t, err, model.ErrNotFound)
}

func TestUpsertBusiness(t *testing.T) {
	mock := newMock(t)
	mock.ExpectExec("INSERT INTO businesses .* ON CONFLICT \\(id\\) DO UPDATE").
		WithArgs("b1", "studio", "Studio", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := NewBusinessRepository(mock).UpsertBusiness(context.Background(), model.Business{ID: "b1", Slug: "studio", Name: "Studio"})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
