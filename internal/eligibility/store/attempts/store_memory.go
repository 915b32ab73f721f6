package attempts

import (
	"context"
	"sync"
	"time"
)

// InMemoryStore implements a sliding window per key. It is not shared
// across instances; use RedisStore when running more than one. Keys whose
// window has fully expired are dropped.
type InMemoryStore struct {
	mu        sync.Mutex
	windows   map[string][]time.Time
	clock     func() time.Time
	lastSweep time.Time
}

// Option configures an InMemoryStore.
type Option func(*InMemoryStore)

// WithClock injects the time source.
func WithClock(clock func() time.Time) Option {
	return func(s *InMemoryStore) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// NewInMemory creates an empty store.
func NewInMemory(opts ...Option) *InMemoryStore {
	s := &InMemoryStore{windows: make(map[string][]time.Time), clock: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Allow records the attempt only when it fits under limit.
func (s *InMemoryStore) Allow(_ context.Context, key string, limit int, window time.Duration) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock()
	cutoff := now.Add(-window)
	s.sweep(now, cutoff, window)
	stamps := prune(s.windows[key], cutoff)

	if len(stamps) >= limit {
		if len(stamps) == 0 {
			delete(s.windows, key)
			return Result{Allowed: false, Limit: limit, ResetAt: now}, nil
		}
		s.windows[key] = stamps
		return Result{Allowed: false, Count: len(stamps), Limit: limit, ResetAt: stamps[0].Add(window)}, nil
	}
	stamps = append(stamps, now)
	s.windows[key] = stamps
	return Result{Allowed: true, Count: len(stamps), Limit: limit, ResetAt: stamps[0].Add(window)}, nil
}

// Reset clears the window for key.
func (s *InMemoryStore) Reset(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.windows, key)
	return nil
}

// sweep deletes every key with no attempt after cutoff. It runs at most
// once per window.
func (s *InMemoryStore) sweep(now, cutoff time.Time, window time.Duration) {
	if now.Sub(s.lastSweep) < window {
		return
	}
	s.lastSweep = now
	for key, stamps := range s.windows {
		if len(stamps) == 0 || !stamps[len(stamps)-1].After(cutoff) {
			delete(s.windows, key)
		}
	}
}

func prune(stamps []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for ; i < len(stamps); i++ {
		if stamps[i].After(cutoff) {
			break
		}
	}
	return stamps[i:]
}
