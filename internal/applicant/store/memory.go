package store

import (
	"context"
	"sort"
	"sync"

	"dlms/internal/applicant/models"
	id "dlms/pkg/domain"
	"dlms/pkg/platform/sentinel"
	"dlms/pkg/requestcontext"
)

// InMemoryStore keeps applicants in a map. Records are copied on the way in
// and out so callers never share state with the store.
type InMemoryStore struct {
	mu           sync.RWMutex
	byID         map[id.ApplicantID]*models.Applicant
	byNationalID map[string]id.ApplicantID
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		byID:         make(map[id.ApplicantID]*models.Applicant),
		byNationalID: make(map[string]id.ApplicantID),
	}
}

// Create fails with sentinel.ErrAlreadyUsed when the national ID is taken.
func (s *InMemoryStore) Create(_ context.Context, a *models.Applicant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.byNationalID[a.NationalID]; taken {
		return sentinel.ErrAlreadyUsed
	}
	s.byID[a.ID] = clone(a)
	s.byNationalID[a.NationalID] = a.ID
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, applicantID id.ApplicantID) (*models.Applicant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.byID[applicantID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clone(a), nil
}

func (s *InMemoryStore) FindByNationalID(_ context.Context, nationalID string) (*models.Applicant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	applicantID, ok := s.byNationalID[nationalID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clone(s.byID[applicantID]), nil
}

func (s *InMemoryStore) UpdateAddress(ctx context.Context, applicantID id.ApplicantID, address string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.byID[applicantID]
	if !ok {
		return sentinel.ErrNotFound
	}
	a.Address = address
	a.UpdatedAt = requestcontext.Now(ctx)
	return nil
}

func (s *InMemoryStore) AddDisqualification(ctx context.Context, applicantID id.ApplicantID, d models.Disqualification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.byID[applicantID]
	if !ok {
		return sentinel.ErrNotFound
	}
	a.Disqualifications = append(a.Disqualifications, d)
	a.UpdatedAt = requestcontext.Now(ctx)
	return nil
}

// List returns every applicant ordered by last then first name.
func (s *InMemoryStore) List(_ context.Context) ([]*models.Applicant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Applicant, 0, len(s.byID))
	for _, a := range s.byID {
		out = append(out, clone(a))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].LastName != out[j].LastName {
			return out[i].LastName < out[j].LastName
		}
		return out[i].FirstName < out[j].FirstName
	})
	return out, nil
}

func clone(a *models.Applicant) *models.Applicant {
	c := *a
	c.Disqualifications = append([]models.Disqualification(nil), a.Disqualifications...)
	return &c
}
