package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process ResultStore. Expired entries are invisible
// to Get and removed by Prune.
type MemoryStore[T any] struct {
	mu      sync.RWMutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]entry[T]
}

// NewMemoryStore creates an empty store keeping entries for ttl.
func NewMemoryStore[T any](ttl time.Duration) *MemoryStore[T] {
	return &MemoryStore[T]{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]entry[T]),
	}
}

func (s *MemoryStore[T]) Save(_ context.Context, id string, result T) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[id] = entry[T]{value: result, expires: s.now().Add(s.ttl)}
	return nil
}

func (s *MemoryStore[T]) Get(_ context.Context, id string) (T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[id]
	if !ok || !s.now().Before(e.expires) {
		var zero T
		return zero, ErrNotFound
	}
	return e.value, nil
}

func (s *MemoryStore[T]) Prune(context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for id, e := range s.entries {
		if !now.Before(e.expires) {
			delete(s.entries, id)
			removed++
		}
	}
	return removed, nil
}

func (s *MemoryStore[T]) Close() error { return nil }
