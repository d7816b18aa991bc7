// Package schema implements the form-schema registry: it fetches raw schema
// text per service, sanitizes serialization artifacts, parses the result and
// caches it. Schemas are data, not compiled code: new services and fields
// appear without a deployment.
package schema

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"veriform/internal/schema/cache"
	"veriform/internal/schema/metrics"
	"veriform/internal/schema/models"
	"veriform/internal/schema/store"
	id "veriform/pkg/domain"
	dErrors "veriform/pkg/domain-errors"
	"veriform/pkg/platform/sentinel"
)

// Registry resolves service IDs to parsed form schemas.
type Registry struct {
	source  store.Source
	cache   cache.Cache
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// Option configures optional registry collaborators.
type Option func(*Registry)

// WithCache enables the read-through cache. Without it every load goes to
// the source; behavior is identical either way.
func WithCache(c cache.Cache) Option {
	return func(r *Registry) { r.cache = c }
}

// WithMetrics attaches Prometheus metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Registry) { r.metrics = m }
}

// WithLogger attaches a structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) { r.logger = l }
}

func NewRegistry(source store.Source, opts ...Option) *Registry {
	r := &Registry{source: source}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// LoadSchema returns the parsed schema for a service.
//
// Error contract: CodeNotFound when no schema row exists for the service;
// CodeSchemaCorrupt when a row exists but its text does not parse after
// sanitization. Callers must be able to tell the two apart.
func (r *Registry) LoadSchema(ctx context.Context, serviceID id.ServiceID) (*models.FormSchema, error) {
	if serviceID == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "service id is required")
	}

	if r.cache != nil {
		if schema, ok := r.cache.Get(ctx, serviceID); ok {
			r.metrics.RecordCacheHit()
			return schema, nil
		}
		r.metrics.RecordCacheMiss()
	}

	raw, err := r.source.Fetch(ctx, serviceID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			r.metrics.RecordLoadFailure("not_found")
			return nil, dErrors.Newf(dErrors.CodeNotFound, "no schema for service %s", serviceID)
		}
		r.metrics.RecordLoadFailure("source")
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "fetch schema")
	}

	schema, err := Parse(serviceID, raw)
	if err != nil {
		r.metrics.RecordLoadFailure("corrupt")
		if r.logger != nil {
			r.logger.ErrorContext(ctx, "schema corrupt", "service_id", serviceID, "error", err)
		}
		return nil, err
	}

	if r.cache != nil {
		r.cache.Set(ctx, serviceID, schema)
	}
	return schema, nil
}

// Services lists the known service IDs from the source.
func (r *Registry) Services(ctx context.Context) ([]id.ServiceID, error) {
	services, err := r.source.Services(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list services")
	}
	return services, nil
}

// Parse sanitizes and decodes raw schema text. Sanitization touches only
// string-escaping artifacts in the schema text; parsed field values are
// never transformed.
func Parse(serviceID id.ServiceID, raw string) (*models.FormSchema, error) {
	var schema models.FormSchema
	if err := json.Unmarshal([]byte(Sanitize(raw)), &schema); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeSchemaCorrupt, "malformed schema for service "+string(serviceID))
	}
	schema.ServiceID = serviceID
	if err := schema.Validate(); err != nil {
		return nil, err
	}
	return &schema, nil
}
