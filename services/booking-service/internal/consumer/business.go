package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/segmentio/kafka-go"

	"github.com/md-rashed-zaman/turnos/services/booking-service/internal/model"
)

// BusinessUpdatedTopic carries tenant profile changes from the business service.
const BusinessUpdatedTopic = "business.profile.updated.v1"

// Businesses is the local tenant projection.
type Businesses interface {
	BusinessByID(ctx context.Context, id string) (model.Business, error)
	UpsertBusiness(ctx context.Context, b model.Business) error
}

// SlugCache forgets cached slug lookups.
type SlugCache interface {
	Invalidate(ctx context.Context, slug string) error
}

type businessPayload struct {
	BusinessID   string `json:"business_id"`
	Slug         string `json:"slug"`
	Name         string `json:"name"`
	Phone        string `json:"phone"`
	PrimaryColor string `json:"primary_color"`
}

// ProjectBusiness upserts the tenant carried by msg and drops the cached
// entries of both its old and new slug. Malformed payloads are logged and skipped.
func ProjectBusiness(store Businesses, cache SlugCache, logger *slog.Logger) Handler {
	return func(ctx context.Context, msg kafka.Message) error {
		var p businessPayload
		if err := json.Unmarshal(msg.Value, &p); err != nil {
			logger.Error("invalid event payload", "err", err, "topic", msg.Topic)
			return nil
		}
		p.BusinessID = strings.TrimSpace(p.BusinessID)
		p.Slug = strings.ToLower(strings.TrimSpace(p.Slug))
		if p.BusinessID == "" || p.Slug == "" {
			logger.Error("missing required event fields", "topic", msg.Topic)
			return nil
		}

		prev, err := store.BusinessByID(ctx, p.BusinessID)
		if err != nil && !errors.Is(err, model.ErrNotFound) {
			return fmt.Errorf("load business: %w", err)
		}
		name := strings.TrimSpace(p.Name)
		if name == "" {
			name = p.Slug
		}
		if err := store.UpsertBusiness(ctx, model.Business{
			ID:           p.BusinessID,
			Slug:         p.Slug,
			Name:         name,
			Phone:        strings.TrimSpace(p.Phone),
			PrimaryColor: strings.TrimSpace(p.PrimaryColor),
		}); err != nil {
			return err
		}

		slugs := []string{p.Slug}
		if prev.Slug != "" && prev.Slug != p.Slug {
			slugs = append(slugs, prev.Slug)
		}
		for _, s := range slugs {
			if err := cache.Invalidate(ctx, s); err != nil {
				logger.Warn("tenant cache invalidation failed", "slug", s, "err", err)
			}
		}
		return nil
	}
}
