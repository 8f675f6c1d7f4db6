// Package safeset provides a generic set guarded by a read/write mutex. It is
// tuned for the read-mostly case: the dictionary is filled once and then
// queried by every connection.
package safeset

import "sync"

// SafeSet is a thread-safe set that stores a collection of unique elements of
// comparable type T. It is safe for concurrent use by multiple goroutines.
type SafeSet[T comparable] struct {
	m map[T]struct{}
	sync.RWMutex
}

// NewSafeSet creates a SafeSet holding the given elements.
func NewSafeSet[T comparable](values ...T) *SafeSet[T] {
	s := &SafeSet[T]{m: make(map[T]struct{}, len(values))}
	for _, v := range values {
		s.m[v] = struct{}{}
	}

	return s
}

// Add adds an element to the set.
func (s *SafeSet[T]) Add(value T) {
	s.Lock()
	defer s.Unlock()
	s.m[value] = struct{}{}
}

// AddAll adds every element of values under a single lock acquisition.
//
// Returns:
//   - The number of elements that were not already present
func (s *SafeSet[T]) AddAll(values []T) int {
	s.Lock()
	defer s.Unlock()

	added := 0
	for _, v := range values {
		if _, ok := s.m[v]; ok {
			continue
		}

		s.m[v] = struct{}{}
		added++
	}

	return added
}

// Contains reports whether the set contains the given element.
func (s *SafeSet[T]) Contains(value T) bool {
	s.RLock()
	defer s.RUnlock()
	_, ok := s.m[value]
	return ok
}

// Size returns the number of elements in the set.
func (s *SafeSet[T]) Size() int {
	s.RLock()
	defer s.RUnlock()
	return len(s.m)
}
