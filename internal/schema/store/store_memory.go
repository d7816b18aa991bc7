package store

import (
	"context"
	"sort"
	"sync"

	id "veriform/pkg/domain"
	"veriform/pkg/platform/sentinel"
)

// InMemory keeps schema text in a map. Used by unit tests and as the seed
// source in development.
type InMemory struct {
	mu      sync.RWMutex
	schemas map[id.ServiceID]string
}

func NewInMemory() *InMemory {
	return &InMemory{schemas: make(map[id.ServiceID]string)}
}

// Put registers or replaces the raw schema text for a service.
func (s *InMemory) Put(serviceID id.ServiceID, raw string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.schemas[serviceID] = raw
}

func (s *InMemory) Fetch(_ context.Context, serviceID id.ServiceID) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	raw, ok := s.schemas[serviceID]
	if !ok {
		return "", sentinel.ErrNotFound
	}
	return raw, nil
}

func (s *InMemory) Services(_ context.Context) ([]id.ServiceID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	services := make([]id.ServiceID, 0, len(s.schemas))
	for serviceID := range s.schemas {
		services = append(services, serviceID)
	}
	sort.Slice(services, func(i, j int) bool { return services[i] < services[j] })
	return services, nil
}
