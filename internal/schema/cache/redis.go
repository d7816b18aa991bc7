package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"veriform/internal/schema/models"
	id "veriform/pkg/domain"
)

// Redis caches parsed schemas across processes. Failures degrade to misses;
// the registry falls back to the source.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewRedis(client *redis.Client, ttl time.Duration, logger *slog.Logger) *Redis {
	return &Redis{client: client, ttl: ttl, logger: logger}
}

func (c *Redis) key(serviceID id.ServiceID) string {
	return "veriform:schema:" + string(serviceID)
}

func (c *Redis) Get(ctx context.Context, serviceID id.ServiceID) (*models.FormSchema, bool) {
	payload, err := c.client.Get(ctx, c.key(serviceID)).Bytes()
	if err != nil {
		if err != redis.Nil && c.logger != nil {
			c.logger.WarnContext(ctx, "schema cache read failed", "service_id", serviceID, "error", err)
		}
		return nil, false
	}
	var schema models.FormSchema
	if err := json.Unmarshal(payload, &schema); err != nil {
		// Corrupt cache entry; treat as a miss so the source re-populates it.
		return nil, false
	}
	schema.ServiceID = serviceID
	return &schema, true
}

func (c *Redis) Set(ctx context.Context, serviceID id.ServiceID, schema *models.FormSchema) {
	payload, err := json.Marshal(schema)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, c.key(serviceID), payload, c.ttl).Err(); err != nil && c.logger != nil {
		c.logger.WarnContext(ctx, "schema cache write failed", "service_id", serviceID, "error", err)
	}
}
