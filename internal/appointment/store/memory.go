// Package store persists appointments in memory or in Postgres.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"dlms/internal/appointment/models"
	id "dlms/pkg/domain"
	"dlms/pkg/platform/sentinel"
)

type InMemoryStore struct {
	mu           sync.RWMutex
	appointments map[id.AppointmentID]*models.Appointment
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{appointments: make(map[id.AppointmentID]*models.Appointment)}
}

func (s *InMemoryStore) Create(_ context.Context, a *models.Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.appointments[a.ID]; ok {
		return sentinel.ErrAlreadyUsed
	}
	s.appointments[a.ID] = clone(a)
	return nil
}

func (s *InMemoryStore) Update(_ context.Context, a *models.Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.appointments[a.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.appointments[a.ID] = clone(a)
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, appointmentID id.AppointmentID) (*models.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.appointments[appointmentID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clone(a), nil
}

func (s *InMemoryStore) ListByApplicant(_ context.Context, applicantID id.ApplicantID) ([]*models.Appointment, error) {
	return s.filter(func(a *models.Appointment) bool { return a.ApplicantID == applicantID }), nil
}

func (s *InMemoryStore) ListByResource(_ context.Context, resourceID id.ResourceID) ([]*models.Appointment, error) {
	return s.filter(func(a *models.Appointment) bool { return a.ResourceID == resourceID }), nil
}

// ListInPeriod returns appointments overlapping [from, to].
func (s *InMemoryStore) ListInPeriod(_ context.Context, from, to time.Time) ([]*models.Appointment, error) {
	return s.filter(func(a *models.Appointment) bool { return a.Overlaps(from, to) }), nil
}

// ListBlockingForResource returns reserved or confirmed appointments on the
// resource overlapping [start, end].
func (s *InMemoryStore) ListBlockingForResource(_ context.Context, resourceID id.ResourceID, start, end time.Time) ([]*models.Appointment, error) {
	return s.filter(func(a *models.Appointment) bool {
		return a.ResourceID == resourceID && a.Status.Blocks() && a.Overlaps(start, end)
	}), nil
}

// ListBlockingForApplicant returns the applicant's reserved or confirmed
// appointments of one type overlapping [start, end].
func (s *InMemoryStore) ListBlockingForApplicant(_ context.Context, applicantID id.ApplicantID, typ models.Type, start, end time.Time) ([]*models.Appointment, error) {
	return s.filter(func(a *models.Appointment) bool {
		return a.ApplicantID == applicantID && a.Type == typ && a.Status.Blocks() && a.Overlaps(start, end)
	}), nil
}

// filter returns matches ordered by start time.
func (s *InMemoryStore) filter(keep func(*models.Appointment) bool) []*models.Appointment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Appointment, 0)
	for _, a := range s.appointments {
		if keep(a) {
			out = append(out, clone(a))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartsAt.Before(out[j].StartsAt) })
	return out
}

func clone(a *models.Appointment) *models.Appointment {
	c := *a
	if a.ProcedureID != nil {
		p := *a.ProcedureID
		c.ProcedureID = &p
	}
	c.ConfirmedAt = cloneTime(a.ConfirmedAt)
	c.CompletedAt = cloneTime(a.CompletedAt)
	c.CancelledAt = cloneTime(a.CancelledAt)
	return &c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
