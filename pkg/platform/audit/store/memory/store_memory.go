package memory

import (
	"context"
	"sync"

	id "dlms/pkg/domain"
	audit "dlms/pkg/platform/audit"
)

// InMemoryStore keeps events per applicant. It doubles as a Publisher so
// single-process deployments and tests need no broker.
type InMemoryStore struct {
	mu     sync.RWMutex
	events map[id.ApplicantID][]audit.Event
	order  []audit.Event
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{events: make(map[id.ApplicantID][]audit.Event)}
}

func (s *InMemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = make(map[id.ApplicantID][]audit.Event)
	s.order = nil
}

func (s *InMemoryStore) Append(_ context.Context, event audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[event.ApplicantID] = append(s.events[event.ApplicantID], event)
	s.order = append(s.order, event)
	return nil
}

// Emit implements audit.Publisher.
func (s *InMemoryStore) Emit(ctx context.Context, event audit.Event) error {
	return s.Append(ctx, event)
}

func (s *InMemoryStore) ListByApplicant(_ context.Context, applicantID id.ApplicantID) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]audit.Event{}, s.events[applicantID]...), nil
}

// ListRecent returns up to limit events in emission order, newest last.
func (s *InMemoryStore) ListRecent(_ context.Context, limit int) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	start := max(len(s.order)-limit, 0)
	return append([]audit.Event{}, s.order[start:]...), nil
}

// Actions returns the action names recorded for an applicant, in order.
// Tests use it to assert on emitted events.
func (s *InMemoryStore) Actions(applicantID id.ApplicantID) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.events[applicantID]))
	for _, e := range s.events[applicantID] {
		out = append(out, e.Action)
	}
	return out
}
