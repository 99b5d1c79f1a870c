package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/md-rashed-zaman/turnos/libs/db"
	"github.com/md-rashed-zaman/turnos/services/booking-service/internal/model"
)

// ScheduleRepository stores one row per (business, weekday) with the blocks as jsonb.
type ScheduleRepository struct {
	db db.Querier
}

func NewScheduleRepository(q db.Querier) *ScheduleRepository {
	return &ScheduleRepository{db: q}
}

func (r *ScheduleRepository) ListDays(ctx context.Context, businessID string) ([]model.ScheduleDay, error) {
	rows, err := r.db.Query(ctx, `
		SELECT business_id, weekday, blocks, updated_at
		FROM schedule_days
		WHERE business_id = $1
		ORDER BY weekday
	`, businessID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var days []model.ScheduleDay
	for rows.Next() {
		var (
			d   model.ScheduleDay
			raw []byte
		)
		if err := rows.Scan(&d.BusinessID, &d.Weekday, &raw, &d.UpdatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(raw, &d.Blocks); err != nil {
			return nil, fmt.Errorf("decode blocks for weekday %d: %w", d.Weekday, err)
		}
		days = append(days, d)
	}
	return days, rows.Err()
}

func (r *ScheduleRepository) GetDay(ctx context.Context, businessID string, weekday int) (model.ScheduleDay, error) {
	var raw []byte
	d := model.ScheduleDay{BusinessID: businessID, Weekday: weekday}
	err := r.db.QueryRow(ctx, `
		SELECT blocks, updated_at FROM schedule_days WHERE business_id = $1 AND weekday = $2
	`, businessID, weekday).Scan(&raw, &d.UpdatedAt)
	if err != nil {
		return model.ScheduleDay{}, notFound(err)
	}
	if err := json.Unmarshal(raw, &d.Blocks); err != nil {
		return model.ScheduleDay{}, fmt.Errorf("decode blocks: %w", err)
	}
	return d, nil
}

// UpsertDay replaces the blocks of one weekday.
func (r *ScheduleRepository) UpsertDay(ctx context.Context, d model.ScheduleDay) (model.ScheduleDay, error) {
	if d.Blocks == nil {
		d.Blocks = []model.Block{}
	}
	raw, err := json.Marshal(d.Blocks)
	if err != nil {
		return model.ScheduleDay{}, err
	}
	err = r.db.QueryRow(ctx, `
		INSERT INTO schedule_days (business_id, weekday, blocks, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (business_id, weekday)
		DO UPDATE SET blocks = EXCLUDED.blocks, updated_at = EXCLUDED.updated_at
		RETURNING updated_at
	`, d.BusinessID, d.Weekday, raw).Scan(&d.UpdatedAt)
	if err != nil {
		return model.ScheduleDay{}, err
	}
	return d, nil
}
