package storage

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/jackc/pgx/v5"

	"github.com/md-rashed-zaman/turnos/libs/db"
	"github.com/md-rashed-zaman/turnos/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/turnos/services/booking-service/internal/timeofday"
)

type AppointmentRepository struct {
	db db.Querier
}

func NewAppointmentRepository(q db.Querier) *AppointmentRepository {
	return &AppointmentRepository{db: q}
}

const appointmentColumns = `id, business_id, client_name, client_phone, service_id, date, start_minute, end_minute,
	status, notes, reminder_sent, last_reminder_at, client_token, client_token_expires_at, created_at, updated_at`

func scanAppointment(row pgx.Row) (model.Appointment, error) {
	var (
		a          model.Appointment
		date       time.Time
		start, end int
		status     string
		token      *string
	)
	err := row.Scan(&a.ID, &a.BusinessID, &a.ClientName, &a.ClientPhone, &a.ServiceID, &date, &start, &end,
		&status, &a.Notes, &a.ReminderSent, &a.LastReminderAt, &token, &a.ClientTokenExpiresAt, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return model.Appointment{}, err
	}
	if a.Status, err = model.ParseStatus(status); err != nil {
		return model.Appointment{}, fmt.Errorf("appointment %s: %w", a.ID, err)
	}
	a.Date = civil.DateOf(date)
	a.Start, a.End = timeofday.Minutes(start), timeofday.Minutes(end)
	if token != nil {
		a.ClientToken = *token
	}
	return a, nil
}

func dateArg(d civil.Date) time.Time { return d.In(time.UTC) }

func (r *AppointmentRepository) InsertAppointment(ctx context.Context, a *model.Appointment) error {
	return r.db.QueryRow(ctx, `
		INSERT INTO appointments
			(business_id, client_name, client_phone, service_id, date, start_minute, end_minute, status, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at
	`, a.BusinessID, a.ClientName, a.ClientPhone, a.ServiceID, dateArg(a.Date), int(a.Start), int(a.End),
		string(a.Status), a.Notes).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
}

// UpdateAppointment writes every mutable column. A token already held by
// another appointment yields model.ErrTokenConflict.
func (r *AppointmentRepository) UpdateAppointment(ctx context.Context, a *model.Appointment) error {
	err := r.db.QueryRow(ctx, `
		UPDATE appointments
		SET date = $3,
			start_minute = $4,
			end_minute = $5,
			status = $6,
			reminder_sent = $7,
			last_reminder_at = $8,
			client_token = $9,
			client_token_expires_at = $10,
			updated_at = now()
		WHERE id = $1 AND business_id = $2
		RETURNING updated_at
	`, a.ID, a.BusinessID, dateArg(a.Date), int(a.Start), int(a.End), string(a.Status),
		a.ReminderSent, a.LastReminderAt, nullString(a.ClientToken), a.ClientTokenExpiresAt).Scan(&a.UpdatedAt)
	if db.IsUniqueViolation(err) {
		return model.ErrTokenConflict
	}
	return notFound(err)
}

func (r *AppointmentRepository) GetAppointment(ctx context.Context, businessID, id string) (model.Appointment, error) {
	a, err := scanAppointment(r.db.QueryRow(ctx, `
		SELECT `+appointmentColumns+` FROM appointments WHERE id = $1 AND business_id = $2
	`, id, businessID))
	return a, notFound(err)
}

func (r *AppointmentRepository) GetAppointmentByToken(ctx context.Context, token string) (model.Appointment, error) {
	if token == "" {
		return model.Appointment{}, model.ErrNotFound
	}
	a, err := scanAppointment(r.db.QueryRow(ctx, `
		SELECT `+appointmentColumns+` FROM appointments WHERE client_token = $1
	`, token))
	return a, notFound(err)
}

func (r *AppointmentRepository) ListActiveOnDate(ctx context.Context, businessID string, date civil.Date) ([]model.Appointment, error) {
	return r.ListAppointments(ctx, businessID, model.AppointmentFilter{From: date, To: date, Statuses: model.ActiveStatuses})
}

// ListAppointments orders by date, start and id. Zero filter bounds are open.
func (r *AppointmentRepository) ListAppointments(ctx context.Context, businessID string, f model.AppointmentFilter) ([]model.Appointment, error) {
	var from, to *time.Time
	if f.From.IsValid() {
		t := dateArg(f.From)
		from = &t
	}
	if f.To.IsValid() {
		t := dateArg(f.To)
		to = &t
	}
	statuses := make([]string, 0, len(f.Statuses))
	for _, s := range f.Statuses {
		statuses = append(statuses, string(s))
	}

	rows, err := r.db.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE business_id = $1
			AND ($2::date IS NULL OR date >= $2)
			AND ($3::date IS NULL OR date <= $3)
			AND (cardinality($4::text[]) = 0 OR status = ANY($4))
		ORDER BY date, start_minute, id
	`, businessID, from, to, statuses)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Appointment{}
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
