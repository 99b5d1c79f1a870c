// Package catalog manages the services a business offers.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/md-rashed-zaman/turnos/services/booking-service/internal/model"
)

var (
	ErrNameRequired    = errors.New("name is required")
	ErrInvalidDuration = errors.New("durationMinutes must be a positive number of minutes")
	ErrInvalidPrice    = errors.New("price must not be negative")
	ErrInvalidColor    = errors.New("color must be a hex value like #f472b6")
	ErrServiceNotFound = errors.New("service not found")
)

var hexColor = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

type Repository interface {
	CreateService(ctx context.Context, svc model.Service) (model.Service, error)
	UpdateService(ctx context.Context, svc model.Service) (model.Service, error)
	DeleteService(ctx context.Context, businessID, id string) error
	FindService(ctx context.Context, businessID, id string) (model.Service, error)
	ListServices(ctx context.Context, businessID string, activeOnly bool) ([]model.Service, error)
}

// Input creates a service. Color defaults to model.DefaultServiceColor.
type Input struct {
	Name            string
	DurationMinutes int
	PriceCents      int64
	Color           string
}

// Patch edits a service; nil fields are left as they are.
type Patch struct {
	Name            *string
	DurationMinutes *int
	PriceCents      *int64
	Color           *string
	Active          *bool
}

type Catalog struct {
	repo Repository
}

func New(repo Repository) *Catalog {
	return &Catalog{repo: repo}
}

func (c *Catalog) List(ctx context.Context, businessID string, activeOnly bool) ([]model.Service, error) {
	out, err := c.repo.ListServices(ctx, businessID, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}
	return out, nil
}

func (c *Catalog) Create(ctx context.Context, businessID string, in Input) (model.Service, error) {
	svc := model.Service{
		BusinessID:      businessID,
		Name:            strings.TrimSpace(in.Name),
		DurationMinutes: in.DurationMinutes,
		PriceCents:      in.PriceCents,
		Color:           strings.TrimSpace(in.Color),
		Active:          true,
	}
	if svc.Color == "" {
		svc.Color = model.DefaultServiceColor
	}
	if err := validate(svc); err != nil {
		return model.Service{}, err
	}
	out, err := c.repo.CreateService(ctx, svc)
	if err != nil {
		return model.Service{}, fmt.Errorf("create service: %w", err)
	}
	return out, nil
}

func (c *Catalog) Update(ctx context.Context, businessID, id string, p Patch) (model.Service, error) {
	svc, err := c.repo.FindService(ctx, businessID, id)
	if errors.Is(err, model.ErrNotFound) {
		return model.Service{}, ErrServiceNotFound
	}
	if err != nil {
		return model.Service{}, fmt.Errorf("find service: %w", err)
	}
	if p.Name != nil {
		svc.Name = strings.TrimSpace(*p.Name)
	}
	if p.DurationMinutes != nil {
		svc.DurationMinutes = *p.DurationMinutes
	}
	if p.PriceCents != nil {
		svc.PriceCents = *p.PriceCents
	}
	if p.Color != nil {
		svc.Color = strings.TrimSpace(*p.Color)
	}
	if p.Active != nil {
		svc.Active = *p.Active
	}
	if err := validate(svc); err != nil {
		return model.Service{}, err
	}
	out, err := c.repo.UpdateService(ctx, svc)
	if errors.Is(err, model.ErrNotFound) {
		return model.Service{}, ErrServiceNotFound
	}
	if err != nil {
		return model.Service{}, fmt.Errorf("update service: %w", err)
	}
	return out, nil
}

// Delete removes a service from the catalog. Existing appointments keep
// pointing at it and render with the fallback name and color.
func (c *Catalog) Delete(ctx context.Context, businessID, id string) error {
	err := c.repo.DeleteService(ctx, businessID, id)
	if errors.Is(err, model.ErrNotFound) {
		return ErrServiceNotFound
	}
	if err != nil {
		return fmt.Errorf("delete service: %w", err)
	}
	return nil
}

func validate(s model.Service) error {
	switch {
	case s.Name == "":
		return ErrNameRequired
	case s.DurationMinutes <= 0 || s.DurationMinutes > 24*60:
		return ErrInvalidDuration
	case s.PriceCents < 0:
		return ErrInvalidPrice
	case !hexColor.MatchString(s.Color):
		return ErrInvalidColor
	}
	return nil
}
