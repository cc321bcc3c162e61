// Package store holds the resource registry implementations.
package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"dlms/internal/resource/models"
	id "dlms/pkg/domain"
	"dlms/pkg/platform/sentinel"
)

type InMemoryStore struct {
	mu     sync.RWMutex
	byID   map[id.ResourceID]*models.Resource
	byName map[string]id.ResourceID
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		byID:   make(map[id.ResourceID]*models.Resource),
		byName: make(map[string]id.ResourceID),
	}
}

// Create fails with sentinel.ErrAlreadyUsed when the name is taken,
// compared case-insensitively.
func (s *InMemoryStore) Create(_ context.Context, r *models.Resource) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.ToLower(r.Name)
	if _, taken := s.byName[key]; taken {
		return sentinel.ErrAlreadyUsed
	}
	c := *r
	s.byID[r.ID] = &c
	s.byName[key] = r.ID
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, resourceID id.ResourceID) (*models.Resource, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.byID[resourceID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	c := *r
	return &c, nil
}

func (s *InMemoryStore) ListActiveByType(_ context.Context, typ models.ResourceType) ([]*models.Resource, error) {
	return s.filter(func(r *models.Resource) bool { return r.Active && r.Type == typ }), nil
}

func (s *InMemoryStore) List(_ context.Context) ([]*models.Resource, error) {
	return s.filter(func(*models.Resource) bool { return true }), nil
}

func (s *InMemoryStore) SetActive(_ context.Context, resourceID id.ResourceID, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.byID[resourceID]
	if !ok {
		return sentinel.ErrNotFound
	}
	r.Active = active
	return nil
}

func (s *InMemoryStore) filter(keep func(*models.Resource) bool) []*models.Resource {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Resource, 0)
	for _, r := range s.byID {
		if keep(r) {
			c := *r
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
