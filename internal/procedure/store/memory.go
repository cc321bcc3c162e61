// Package store persists procedures in memory or in Postgres.
package store

import (
	"context"
	"sort"
	"sync"

	"dlms/internal/procedure/models"
	id "dlms/pkg/domain"
	"dlms/pkg/platform/sentinel"
)

// InMemoryStore keeps procedures in a map. Create rejects a second active
// procedure for the same applicant, mirroring the Postgres partial index.
type InMemoryStore struct {
	mu         sync.RWMutex
	procedures map[id.ProcedureID]*models.Procedure
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{procedures: make(map[id.ProcedureID]*models.Procedure)}
}

func (s *InMemoryStore) Create(_ context.Context, p *models.Procedure) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.procedures[p.ID]; ok {
		return sentinel.ErrAlreadyUsed
	}
	if p.Status.IsActive() {
		for _, other := range s.procedures {
			if other.ApplicantID == p.ApplicantID && other.Status.IsActive() {
				return sentinel.ErrConflict
			}
		}
	}
	s.procedures[p.ID] = clone(p)
	return nil
}

func (s *InMemoryStore) Update(_ context.Context, p *models.Procedure) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.procedures[p.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.procedures[p.ID] = clone(p)
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, procedureID id.ProcedureID) (*models.Procedure, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.procedures[procedureID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clone(p), nil
}

// FindActiveByApplicant returns the applicant's non-terminal procedure or
// sentinel.ErrNotFound.
func (s *InMemoryStore) FindActiveByApplicant(_ context.Context, applicantID id.ApplicantID) (*models.Procedure, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.procedures {
		if p.ApplicantID == applicantID && p.Status.IsActive() {
			return clone(p), nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryStore) ListByApplicant(_ context.Context, applicantID id.ApplicantID) ([]*models.Procedure, error) {
	return s.filter(func(p *models.Procedure) bool { return p.ApplicantID == applicantID }), nil
}

func (s *InMemoryStore) ListByStatus(_ context.Context, status models.Status) ([]*models.Procedure, error) {
	return s.filter(func(p *models.Procedure) bool { return p.Status == status }), nil
}

// filter returns matches newest first.
func (s *InMemoryStore) filter(keep func(*models.Procedure) bool) []*models.Procedure {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Procedure, 0)
	for _, p := range s.procedures {
		if keep(p) {
			out = append(out, clone(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func clone(p *models.Procedure) *models.Procedure {
	c := *p
	if p.LicenseID != nil {
		licenseID := *p.LicenseID
		c.LicenseID = &licenseID
	}
	return &c
}
