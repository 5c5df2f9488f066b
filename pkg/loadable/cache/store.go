package cache

import (
	"context"
	"sync"
	"time"
)

// Store persists loaded values by key. Implementations must be safe
// for concurrent use.
type Store[V any] interface {
	// Get returns the value for key and whether it was present. A
	// store error is returned as err; the caller treats it as a miss.
	Get(ctx context.Context, key string) (V, bool, error)

	// Set writes the value for key.
	Set(ctx context.Context, key string, value V) error
}

// Clock provides the current time. It can be mocked for testing.
type Clock interface {
	Now() time.Time
}

// SystemClock implements Clock using the system time.
type SystemClock struct{}

// Now returns the current system time.
func (SystemClock) Now() time.Time {
	return time.Now()
}

// MemoryStore is an in-process Store with per-entry TTL. A zero TTL
// keeps entries forever.
type MemoryStore[V any] struct {
	mu      sync.Mutex
	entries map[string]memoryEntry[V]
	ttl     time.Duration
	clock   Clock
}

type memoryEntry[V any] struct {
	value   V
	savedAt time.Time
}

// NewMemoryStore creates a MemoryStore whose entries expire after ttl.
func NewMemoryStore[V any](ttl time.Duration) *MemoryStore[V] {
	return NewMemoryStoreWithClock[V](ttl, SystemClock{})
}

// NewMemoryStoreWithClock creates a MemoryStore with a custom clock.
func NewMemoryStoreWithClock[V any](ttl time.Duration, clock Clock) *MemoryStore[V] {
	if clock == nil {
		clock = SystemClock{}
	}
	return &MemoryStore[V]{
		entries: make(map[string]memoryEntry[V]),
		ttl:     ttl,
		clock:   clock,
	}
}

// Get returns the stored value for key if present and not expired.
func (s *MemoryStore[V]) Get(_ context.Context, key string) (V, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok {
		var zero V
		return zero, false, nil
	}
	if s.ttl > 0 && s.clock.Now().Sub(entry.savedAt) >= s.ttl {
		delete(s.entries, key)
		var zero V
		return zero, false, nil
	}
	return entry.value, true, nil
}

// Set stores the value for key, restarting its TTL.
func (s *MemoryStore[V]) Set(_ context.Context, key string, value V) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = memoryEntry[V]{value: value, savedAt: s.clock.Now()}
	return nil
}

// Delete removes the entry for key, if any.
func (s *MemoryStore[V]) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, key)
	return nil
}

// Len returns the number of stored entries, including expired ones not
// yet evicted.
func (s *MemoryStore[V]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
