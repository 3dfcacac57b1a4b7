package cache

import (
	"sync"
)

// MemoryStore is an in-process Store. Entries live only as long as the
// process (CACHE_BACKEND=memory).
type MemoryStore struct {
	entries map[string][]byte
	mu      sync.RWMutex
}

// NewMemoryStore creates a new in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string][]byte),
	}
}

// Load retrieves an entry if present
func (s *MemoryStore) Load(key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, exists := s.entries[key]
	if !exists {
		return nil, ErrMiss
	}
	return append([]byte(nil), data...), nil
}

// Save stores an entry
func (s *MemoryStore) Save(key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = append([]byte(nil), data...)
	return nil
}

// Delete removes an entry
func (s *MemoryStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[key]; !exists {
		return ErrMiss
	}
	delete(s.entries, key)
	return nil
}
