package cases

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"saral/internal/eligibility/models"
	id "saral/pkg/domain"
	"saral/pkg/platform/sentinel"
)

// InMemoryStore keeps cases in memory for tests and local runs. Cases are
// cloned on the way in and out.
type InMemoryStore struct {
	mu    sync.RWMutex
	cases map[id.CaseID]*models.Case
}

// NewInMemory constructs an empty store.
func NewInMemory() *InMemoryStore {
	return &InMemoryStore{cases: make(map[id.CaseID]*models.Case)}
}

func (s *InMemoryStore) Create(_ context.Context, c *models.Case) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.cases[c.ID]; exists {
		return fmt.Errorf("case %s: %w", c.ID, sentinel.ErrConflict)
	}
	s.cases[c.ID] = c.Clone()
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, caseID id.CaseID) (*models.Case, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.cases[caseID]
	if !ok {
		return nil, fmt.Errorf("case not found: %w", sentinel.ErrNotFound)
	}
	return c.Clone(), nil
}

func (s *InMemoryStore) List(_ context.Context, f Filter) ([]*models.Case, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Case, 0, len(s.cases))
	for _, c := range s.cases {
		if f.matches(c) {
			out = append(out, c.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

// Update runs fn on a copy under the write lock and stores the result only
// when fn succeeds.
func (s *InMemoryStore) Update(_ context.Context, caseID id.CaseID, fn func(*models.Case) error) (*models.Case, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.cases[caseID]
	if !ok {
		return nil, fmt.Errorf("case not found: %w", sentinel.ErrNotFound)
	}
	working := current.Clone()
	if err := fn(working); err != nil {
		return nil, err
	}
	s.cases[caseID] = working
	return working.Clone(), nil
}

func (s *InMemoryStore) RedactProfilesBefore(_ context.Context, cutoff, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.cases {
		if c.CreatedAt.Before(cutoff) && c.RedactProfile(now) {
			n++
		}
	}
	return n, nil
}

func (s *InMemoryStore) CountByStatus(_ context.Context) ([]StatusCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	type key struct {
		scheme string
		status models.DecisionStatus
	}
	counts := make(map[key]int)
	for _, c := range s.cases {
		counts[key{c.SchemeCode, c.Status}]++
	}
	out := make([]StatusCount, 0, len(counts))
	for k, n := range counts {
		out = append(out, StatusCount{SchemeCode: k.scheme, Status: k.status, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SchemeCode != out[j].SchemeCode {
			return out[i].SchemeCode < out[j].SchemeCode
		}
		return out[i].Status < out[j].Status
	})
	return out, nil
}

// Ping always succeeds.
func (s *InMemoryStore) Ping(context.Context) error {
	return nil
}
