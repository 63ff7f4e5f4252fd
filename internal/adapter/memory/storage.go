package memory

import (
	"context"
	"sync"

	"storefront/internal/domain"
)

var _ domain.LocalStorage = (*Storage)(nil)

// Storage is a LocalStorage kept in process memory.
type Storage struct {
	mu   sync.RWMutex
	data map[string]string
}

// NewStorage creates an empty Storage.
func NewStorage() *Storage {
	return &Storage{data: make(map[string]string)}
}

// Get returns the value stored under key.
func (s *Storage) Get(ctx context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	return v, ok, nil
}

// Set stores value under key.
func (s *Storage) Set(ctx context.Context, key, value string) error {
	s.mu.Lock()
	s.data[key] = value
	s.mu.Unlock()
	return nil
}

// Remove deletes key.
func (s *Storage) Remove(ctx context.Context, key string) error {
	s.mu.Lock()
	delete(s.data, key)
	s.mu.Unlock()
	return nil
}
