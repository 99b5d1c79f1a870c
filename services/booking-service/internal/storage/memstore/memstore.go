// Package memstore keeps every booking-service table in process memory.
// It backs STORAGE_DRIVER=memory and the package tests.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"

	"github.com/md-rashed-zaman/turnos/services/booking-service/internal/model"
)

type Store struct {
	mu           sync.RWMutex
	now          func() time.Time
	businesses   map[string]model.Business
	services     map[string]model.Service
	days         map[dayKey]model.ScheduleDay
	appointments map[string]model.Appointment
}

type dayKey struct {
	businessID string
	weekday    int
}

func New() *Store {
	return &Store{
		now:          time.Now,
		businesses:   map[string]model.Business{},
		services:     map[string]model.Service{},
		days:         map[dayKey]model.ScheduleDay{},
		appointments: map[string]model.Appointment{},
	}
}

// PutBusiness registers a tenant. Tenants are owned elsewhere, so there is no other write path.
func (s *Store) PutBusiness(b model.Business) model.Business {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	s.businesses[b.ID] = b
	return b
}

func (s *Store) UpsertBusiness(_ context.Context, b model.Business) error {
	s.PutBusiness(b)
	return nil
}

func (s *Store) BusinessBySlug(_ context.Context, slug string) (model.Business, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, b := range s.businesses {
		if b.Slug == slug {
			return b, nil
		}
	}
	return model.Business{}, model.ErrNotFound
}

func (s *Store) BusinessByID(_ context.Context, id string) (model.Business, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.businesses[id]
	if !ok {
		return model.Business{}, model.ErrNotFound
	}
	return b, nil
}

func (s *Store) CreateService(_ context.Context, svc model.Service) (model.Service, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if svc.ID == "" {
		svc.ID = uuid.NewString()
	}
	if svc.CreatedAt.IsZero() {
		svc.CreatedAt = s.now().UTC()
	}
	s.services[svc.ID] = svc
	return svc, nil
}

func (s *Store) UpdateService(_ context.Context, svc model.Service) (model.Service, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.services[svc.ID]
	if !ok || cur.BusinessID != svc.BusinessID {
		return model.Service{}, model.ErrNotFound
	}
	svc.CreatedAt = cur.CreatedAt
	s.services[svc.ID] = svc
	return svc, nil
}

func (s *Store) DeleteService(_ context.Context, businessID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.services[id]
	if !ok || cur.BusinessID != businessID {
		return model.ErrNotFound
	}
	delete(s.services, id)
	return nil
}

func (s *Store) FindService(_ context.Context, businessID, id string) (model.Service, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	svc, ok := s.services[id]
	if !ok || svc.BusinessID != businessID {
		return model.Service{}, model.ErrNotFound
	}
	return svc, nil
}

func (s *Store) FindActiveService(ctx context.Context, businessID, id string) (model.Service, error) {
	svc, err := s.FindService(ctx, businessID, id)
	if err != nil {
		return model.Service{}, err
	}
	if !svc.Active {
		return model.Service{}, model.ErrNotFound
	}
	return svc, nil
}

func (s *Store) ListServices(_ context.Context, businessID string, activeOnly bool) ([]model.Service, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []model.Service{}
	for _, svc := range s.services {
		if svc.BusinessID != businessID || (activeOnly && !svc.Active) {
			continue
		}
		out = append(out, svc)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) ListDays(_ context.Context, businessID string) ([]model.ScheduleDay, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.ScheduleDay
	for k, d := range s.days {
		if k.businessID == businessID {
			out = append(out, cloneDay(d))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Weekday < out[j].Weekday })
	return out, nil
}

func (s *Store) GetDay(_ context.Context, businessID string, weekday int) (model.ScheduleDay, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.days[dayKey{businessID, weekday}]
	if !ok {
		return model.ScheduleDay{}, model.ErrNotFound
	}
	return cloneDay(d), nil
}

func (s *Store) UpsertDay(_ context.Context, d model.ScheduleDay) (model.ScheduleDay, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d = cloneDay(d)
	d.UpdatedAt = s.now().UTC()
	s.days[dayKey{d.BusinessID, d.Weekday}] = d
	return cloneDay(d), nil
}

func cloneDay(d model.ScheduleDay) model.ScheduleDay {
	blocks := make([]model.Block, len(d.Blocks))
	copy(blocks, d.Blocks)
	d.Blocks = blocks
	return d
}

func (s *Store) InsertAppointment(_ context.Context, a *model.Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	now := s.now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now
	s.appointments[a.ID] = *a
	return nil
}

func (s *Store) UpdateAppointment(_ context.Context, a *model.Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.appointments[a.ID]
	if !ok || cur.BusinessID != a.BusinessID {
		return model.ErrNotFound
	}
	if a.ClientToken != "" {
		for id, other := range s.appointments {
			if id != a.ID && other.ClientToken == a.ClientToken {
				return model.ErrTokenConflict
			}
		}
	}
	a.CreatedAt = cur.CreatedAt
	a.UpdatedAt = s.now().UTC()
	s.appointments[a.ID] = *a
	return nil
}

func (s *Store) GetAppointment(_ context.Context, businessID, id string) (model.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.appointments[id]
	if !ok || a.BusinessID != businessID {
		return model.Appointment{}, model.ErrNotFound
	}
	return a, nil
}

func (s *Store) GetAppointmentByToken(_ context.Context, token string) (model.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if token == "" {
		return model.Appointment{}, model.ErrNotFound
	}
	for _, a := range s.appointments {
		if a.ClientToken == token {
			return a, nil
		}
	}
	return model.Appointment{}, model.ErrNotFound
}

func (s *Store) ListActiveOnDate(ctx context.Context, businessID string, date civil.Date) ([]model.Appointment, error) {
	return s.ListAppointments(ctx, businessID, model.AppointmentFilter{From: date, To: date, Statuses: model.ActiveStatuses})
}

func (s *Store) ListAppointments(_ context.Context, businessID string, f model.AppointmentFilter) ([]model.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []model.Appointment{}
	for _, a := range s.appointments {
		if a.BusinessID == businessID && f.Match(a) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date.Before(out[j].Date)
		}
		if out[i].Start != out[j].Start {
			return out[i].Start < out[j].Start
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// Ping lets the store stand in for a database in readiness checks.
func (s *Store) Ping(context.Context) error { return nil }
