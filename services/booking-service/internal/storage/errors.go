// Package storage holds the Postgres repositories of the booking service.
package storage

import (
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/md-rashed-zaman/turnos/libs/db"
	"github.com/md-rashed-zaman/turnos/services/booking-service/internal/model"
)

// notFound maps a missing row to model.ErrNotFound and leaves other errors alone.
// An id that is not a valid uuid cannot match a row either.
func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) || db.IsInvalidTextRepresentation(err) {
		return model.ErrNotFound
	}
	return err
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
