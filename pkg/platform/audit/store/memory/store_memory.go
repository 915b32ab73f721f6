package memory

import (
	"context"
	"sync"

	audit "saral/pkg/platform/audit"
)

// InMemoryStore keeps events in append order. Intended for local runs and tests.
type InMemoryStore struct {
	mu      sync.RWMutex
	events  []audit.Event
	failErr error
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

// FailWith makes every subsequent Append return err (nil restores normal operation).
func (s *InMemoryStore) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failErr = err
}

func (s *InMemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = nil
}

func (s *InMemoryStore) Append(_ context.Context, event audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failErr != nil {
		return s.failErr
	}
	s.events = append(s.events, event)
	return nil
}

// ListByCase returns events for one case in append order.
func (s *InMemoryStore) ListByCase(_ context.Context, caseID string) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []audit.Event
	for _, e := range s.events {
		if e.CaseID == caseID {
			out = append(out, e)
		}
	}
	return out, nil
}

// ListRecent returns up to limit events, most recent first.
func (s *InMemoryStore) ListRecent(_ context.Context, limit int) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 || limit > len(s.events) {
		limit = len(s.events)
	}
	out := make([]audit.Event, 0, limit)
	for i := len(s.events) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.events[i])
	}
	return out, nil
}
