package storage

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/md-rashed-zaman/turnos/libs/db"
	"github.com/md-rashed-zaman/turnos/services/booking-service/internal/model"
)

type ServiceRepository struct {
	db db.Querier
}

func NewServiceRepository(q db.Querier) *ServiceRepository {
	return &ServiceRepository{db: q}
}

const serviceColumns = `id, business_id, name, duration_minutes, price_cents, color, active, created_at`

func scanService(row pgx.Row) (model.Service, error) {
	var s model.Service
	err := row.Scan(&s.ID, &s.BusinessID, &s.Name, &s.DurationMinutes, &s.PriceCents, &s.Color, &s.Active, &s.CreatedAt)
	return s, err
}

func (r *ServiceRepository) CreateService(ctx context.Context, svc model.Service) (model.Service, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO services (business_id, name, duration_minutes, price_cents, color, active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+serviceColumns,
		svc.BusinessID, svc.Name, svc.DurationMinutes, svc.PriceCents, svc.Color, svc.Active)
	return scanService(row)
}

func (r *ServiceRepository) UpdateService(ctx context.Context, svc model.Service) (model.Service, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE services
		SET name = $3, duration_minutes = $4, price_cents = $5, color = $6, active = $7
		WHERE id = $1 AND business_id = $2
		RETURNING `+serviceColumns,
		svc.ID, svc.BusinessID, svc.Name, svc.DurationMinutes, svc.PriceCents, svc.Color, svc.Active)
	out, err := scanService(row)
	return out, notFound(err)
}

// DeleteService removes the row only. Appointments keep their service_id.
func (r *ServiceRepository) DeleteService(ctx context.Context, businessID, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM services WHERE id = $1 AND business_id = $2`, id, businessID)
	if err != nil {
		return notFound(err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *ServiceRepository) FindService(ctx context.Context, businessID, id string) (model.Service, error) {
	row := r.db.QueryRow(ctx, `SELECT `+serviceColumns+` FROM services WHERE id = $1 AND business_id = $2`, id, businessID)
	out, err := scanService(row)
	return out, notFound(err)
}

func (r *ServiceRepository) FindActiveService(ctx context.Context, businessID, id string) (model.Service, error) {
	row := r.db.QueryRow(ctx, `SELECT `+serviceColumns+` FROM services WHERE id = $1 AND business_id = $2 AND active`, id, businessID)
	out, err := scanService(row)
	return out, notFound(err)
}

func (r *ServiceRepository) ListServices(ctx context.Context, businessID string, activeOnly bool) ([]model.Service, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+serviceColumns+`
		FROM services
		WHERE business_id = $1 AND (active OR NOT $2)
		ORDER BY name, id
	`, businessID, activeOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Service{}
	for rows.Next() {
		s, err := scanService(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
