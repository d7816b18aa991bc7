package cache

import (
	"context"
	"sync"
	"time"

	"veriform/internal/schema/models"
	id "veriform/pkg/domain"
)

type cachedSchema struct {
	schema   *models.FormSchema
	storedAt time.Time
}

// InMemory is a TTL map cache for single-process deployments and tests.
type InMemory struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[id.ServiceID]cachedSchema
}

func NewInMemory(ttl time.Duration) *InMemory {
	return &InMemory{ttl: ttl, entries: make(map[id.ServiceID]cachedSchema)}
}

func (c *InMemory) Get(_ context.Context, serviceID id.ServiceID) (*models.FormSchema, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[serviceID]
	if !ok {
		return nil, false
	}
	if c.ttl > 0 && time.Since(entry.storedAt) >= c.ttl {
		return nil, false
	}
	return entry.schema, true
}

func (c *InMemory) Set(_ context.Context, serviceID id.ServiceID, schema *models.FormSchema) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[serviceID] = cachedSchema{schema: schema, storedAt: time.Now()}
}
