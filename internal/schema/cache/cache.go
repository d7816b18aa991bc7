package cache

import (
	"context"

	"veriform/internal/schema/models"
	id "veriform/pkg/domain"
)

// Cache is a read-through cache for parsed schemas. Misses are reported with
// ok=false, never as errors; cache failures must not change registry
// behavior.
type Cache interface {
	Get(ctx context.Context, serviceID id.ServiceID) (*models.FormSchema, bool)
	Set(ctx context.Context, serviceID id.ServiceID, schema *models.FormSchema)
}
