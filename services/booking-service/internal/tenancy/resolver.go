// Package tenancy turns public business slugs into tenants.
package tenancy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/md-rashed-zaman/turnos/services/booking-service/internal/model"
)

var ErrUnknownBusiness = errors.New("business not found")

type Lookup interface {
	BusinessBySlug(ctx context.Context, slug string) (model.Business, error)
}

const DefaultCacheTTL = 5 * time.Minute

// Resolver caches slug lookups in Redis when a client is configured. Cache
// failures are logged and the lookup goes to the store.
type Resolver struct {
	lookup Lookup
	rdb    redis.Cmdable
	ttl    time.Duration
	prefix string
	logger *slog.Logger
}

func NewResolver(lookup Lookup, rdb redis.Cmdable, ttl time.Duration, logger *slog.Logger) *Resolver {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{lookup: lookup, rdb: rdb, ttl: ttl, prefix: "turnos:tenant:slug:", logger: logger}
}

type cachedBusiness struct {
	ID           string `json:"id"`
	Slug         string `json:"slug"`
	Name         string `json:"name"`
	Phone        string `json:"phone,omitempty"`
	PrimaryColor string `json:"primary_color,omitempty"`
}

func (r *Resolver) ResolveSlug(ctx context.Context, slug string) (model.Business, error) {
	slug = strings.ToLower(strings.TrimSpace(slug))
	if slug == "" {
		return model.Business{}, ErrUnknownBusiness
	}
	if b, ok := r.fromCache(ctx, slug); ok {
		return b, nil
	}

	b, err := r.lookup.BusinessBySlug(ctx, slug)
	if errors.Is(err, model.ErrNotFound) {
		return model.Business{}, ErrUnknownBusiness
	}
	if err != nil {
		return model.Business{}, fmt.Errorf("lookup business: %w", err)
	}
	r.store(ctx, slug, b)
	return b, nil
}

func (r *Resolver) fromCache(ctx context.Context, slug string) (model.Business, bool) {
	if r.rdb == nil {
		return model.Business{}, false
	}
	raw, err := r.rdb.Get(ctx, r.prefix+slug).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.logger.WarnContext(ctx, "tenant cache read failed", "slug", slug, "err", err)
		}
		return model.Business{}, false
	}
	var c cachedBusiness
	if err := json.Unmarshal(raw, &c); err != nil || c.ID == "" {
		return model.Business{}, false
	}
	return model.Business{ID: c.ID, Slug: c.Slug, Name: c.Name, Phone: c.Phone, PrimaryColor: c.PrimaryColor}, true
}

func (r *Resolver) store(ctx context.Context, slug string, b model.Business) {
	if r.rdb == nil {
		return
	}
	raw, err := json.Marshal(cachedBusiness{ID: b.ID, Slug: b.Slug, Name: b.Name, Phone: b.Phone, PrimaryColor: b.PrimaryColor})
	if err != nil {
		return
	}
	if err := r.rdb.Set(ctx, r.prefix+slug, raw, r.ttl).Err(); err != nil {
		r.logger.WarnContext(ctx, "tenant cache write failed", "slug", slug, "err", err)
	}
}

// Invalidate drops a cached slug, for example after a business renames it.
func (r *Resolver) Invalidate(ctx context.Context, slug string) error {
	if r.rdb == nil {
		return nil
	}
	return r.rdb.Del(ctx, r.prefix+strings.ToLower(strings.TrimSpace(slug))).Err()
}
