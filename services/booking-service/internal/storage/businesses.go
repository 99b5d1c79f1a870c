package storage

import (
	"context"
	"fmt"

	"github.com/md-rashed-zaman/turnos/libs/db"
	"github.com/md-rashed-zaman/turnos/services/booking-service/internal/model"
)

// BusinessRepository reads tenants. Rows are a projection of business
// service events, written through UpsertBusiness.
type BusinessRepository struct {
	db db.Querier
}

func NewBusinessRepository(q db.Querier) *BusinessRepository {
	return &BusinessRepository{db: q}
}

const businessColumns = `id, slug, name, COALESCE(phone, ''), COALESCE(primary_color, '')`

func (r *BusinessRepository) BusinessBySlug(ctx context.Context, slug string) (model.Business, error) {
	var b model.Business
	err := r.db.QueryRow(ctx, `SELECT `+businessColumns+` FROM businesses WHERE slug = $1`, slug).
		Scan(&b.ID, &b.Slug, &b.Name, &b.Phone, &b.PrimaryColor)
	return b, notFound(err)
}

func (r *BusinessRepository) BusinessByID(ctx context.Context, id string) (model.Business, error) {
	var b model.Business
	err := r.db.QueryRow(ctx, `SELECT `+businessColumns+` FROM businesses WHERE id = $1`, id).
		Scan(&b.ID, &b.Slug, &b.Name, &b.Phone, &b.PrimaryColor)
	return b, notFound(err)
}

func (r *BusinessRepository) UpsertBusiness(ctx context.Context, b model.Business) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO businesses (id, slug, name, phone, primary_color)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE
		SET slug = EXCLUDED.slug, name = EXCLUDED.name, phone = EXCLUDED.phone, primary_color = EXCLUDED.primary_color
	`, b.ID, b.Slug, b.Name, nullString(b.Phone), nullString(b.PrimaryColor))
	if err != nil {
		return fmt.Errorf("upsert business: %w", err)
	}
	return nil
}
