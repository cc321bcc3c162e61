// Package store persists licenses in memory or in Postgres.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"dlms/internal/license/models"
	id "dlms/pkg/domain"
	"dlms/pkg/platform/sentinel"
)

// InMemoryStore keeps licenses in a map with a number index. Create enforces
// both uniqueness rules the Postgres schema enforces with indexes.
type InMemoryStore struct {
	mu       sync.RWMutex
	byID     map[id.LicenseID]*models.License
	byNumber map[string]id.LicenseID
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		byID:     make(map[id.LicenseID]*models.License),
		byNumber: make(map[string]id.LicenseID),
	}
}

// Create returns sentinel.ErrAlreadyUsed when the number is taken and
// sentinel.ErrConflict when a valid license of the same class already exists.
func (s *InMemoryStore) Create(_ context.Context, l *models.License) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.byNumber[l.Number]; taken {
		return sentinel.ErrAlreadyUsed
	}
	if l.Status == models.StatusValid && s.hasOtherValid(l) {
		return sentinel.ErrConflict
	}
	s.byID[l.ID] = clone(l)
	s.byNumber[l.Number] = l.ID
	return nil
}

// Update replaces the mutable fields of an existing license.
func (s *InMemoryStore) Update(_ context.Context, l *models.License) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[l.ID]; !ok {
		return sentinel.ErrNotFound
	}
	if l.Status == models.StatusValid && s.hasOtherValid(l) {
		return sentinel.ErrConflict
	}
	s.byID[l.ID] = clone(l)
	return nil
}

func (s *InMemoryStore) hasOtherValid(l *models.License) bool {
	for _, other := range s.byID {
		if other.ID != l.ID && other.ApplicantID == l.ApplicantID && other.Class == l.Class && other.Status == models.StatusValid {
			return true
		}
	}
	return false
}

func (s *InMemoryStore) FindByID(_ context.Context, licenseID id.LicenseID) (*models.License, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.byID[licenseID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clone(l), nil
}

func (s *InMemoryStore) FindByNumber(_ context.Context, number string) (*models.License, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	licenseID, ok := s.byNumber[number]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clone(s.byID[licenseID]), nil
}

// ListByApplicant returns the applicant's licenses, newest issue first.
func (s *InMemoryStore) ListByApplicant(_ context.Context, applicantID id.ApplicantID) ([]*models.License, error) {
	return s.filter(func(l *models.License) bool { return l.ApplicantID == applicantID }), nil
}

func (s *InMemoryStore) ListByStatus(_ context.Context, status models.Status) ([]*models.License, error) {
	return s.filter(func(l *models.License) bool { return l.Status == status }), nil
}

// ListValidExpiringBetween returns valid licenses with from <= expiry <= to.
func (s *InMemoryStore) ListValidExpiringBetween(_ context.Context, from, to time.Time) ([]*models.License, error) {
	return s.filter(func(l *models.License) bool {
		return l.Status == models.StatusValid && !l.ExpiresAt.Before(from) && !l.ExpiresAt.After(to)
	}), nil
}

// ExpireBefore flips every valid license with expiry < day to expired and
// returns the flipped records.
func (s *InMemoryStore) ExpireBefore(_ context.Context, day, now time.Time) ([]*models.License, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.License
	for _, l := range s.byID {
		if l.Status == models.StatusValid && l.ExpiresAt.Before(day) {
			l.Status = models.StatusExpired
			l.UpdatedAt = now
			out = append(out, clone(l))
		}
	}
	return out, nil
}

func (s *InMemoryStore) filter(keep func(*models.License) bool) []*models.License {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.License, 0)
	for _, l := range s.byID {
		if keep(l) {
			out = append(out, clone(l))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].IssuedAt.Equal(out[j].IssuedAt) {
			return out[i].IssuedAt.After(out[j].IssuedAt)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func clone(l *models.License) *models.License {
	c := *l
	if l.SupersededBy != nil {
		by := *l.SupersededBy
		c.SupersededBy = &by
	}
	return &c
}
