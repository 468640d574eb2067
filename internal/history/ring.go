// Package history provides a bounded, keyed ring buffer for per-monitor
// event retention. Eviction is strictly count-based (FIFO); entries never
// expire by age.
package history

import "sync"

// Store keeps up to capacity items per key, evicting the oldest first.
// Writers are the owning monitors; readers may query concurrently, so all
// access goes through a reader-writer lock.
type Store[T any] struct {
	mu       sync.RWMutex
	capacity int
	items    map[string][]T
}

// NewStore creates a Store with the given per-key capacity. Capacity must be
// at least 1.
func NewStore[T any](capacity int) *Store[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Store[T]{
		capacity: capacity,
		items:    make(map[string][]T),
	}
}

// Append adds an item under key, evicting the oldest entry when the key is
// at capacity.
func (s *Store[T]) Append(key string, item T) {
	s.mu.Lock()
	defer s.mu.Unlock()

	buf := append(s.items[key], item)
	if overflow := len(buf) - s.capacity; overflow > 0 {
		buf = append([]T(nil), buf[overflow:]...)
	}
	s.items[key] = buf
}

// List returns a copy of the items under key, oldest first.
func (s *Store[T]) List(key string) []T {
	s.mu.RLock()
	defer s.mu.RUnlock()

	buf := s.items[key]
	if len(buf) == 0 {
		return nil
	}
	out := make([]T, len(buf))
	copy(out, buf)
	return out
}

// Len returns the number of items currently stored under key.
func (s *Store[T]) Len(key string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items[key])
}

// Clear removes all items for key.
func (s *Store[T]) Clear(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, key)
}

// Capacity returns the per-key capacity.
func (s *Store[T]) Capacity() int {
	return s.capacity
}
