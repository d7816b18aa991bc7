// Package shape keeps the physical shape of storage units in sync with the
// schemas that drive them. It is the only component allowed to mutate a
// unit's field set, and it only ever widens: columns are added, never
// dropped, renamed, or retyped.
package shape

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"veriform/internal/dyntable"
	"veriform/internal/shape/metrics"
	dErrors "veriform/pkg/domain-errors"
	"veriform/pkg/platform/sentinel"
)

// Synchronizer guarantees a storage unit exists with at least the required
// field set before any write touches it.
type Synchronizer struct {
	gateway dyntable.Gateway
	metrics *metrics.Metrics
	logger  *slog.Logger

	// group collapses duplicate in-flight EnsureShape calls per (unit, field
	// set) within this process; cross-process serialization is the gateway's
	// advisory lock.
	group singleflight.Group
}

// Option configures optional synchronizer collaborators.
type Option func(*Synchronizer)

// WithMetrics attaches Prometheus metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Synchronizer) { s.metrics = m }
}

// WithLogger attaches a structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Synchronizer) { s.logger = l }
}

func NewSynchronizer(gateway dyntable.Gateway, opts ...Option) *Synchronizer {
	s := &Synchronizer{gateway: gateway}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// EnsureShape makes sure unitName exists with at least requiredFields.
// Idempotent: a second call with the same arguments performs zero widening
// operations. A partially completed call leaves the unit valid; a retry
// finishes the remaining widening.
//
// Transient gateway failures are retried once before being surfaced as
// CodeShapeSync.
func (s *Synchronizer) EnsureShape(ctx context.Context, unitName string, requiredFields []string) error {
	start := time.Now()
	defer func() { s.metrics.ObserveEnsureDuration(time.Since(start).Seconds()) }()

	unit := NormalizeIdentifier(unitName)
	if unit == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "storage unit name is required")
	}
	fields := NormalizeFields(requiredFields)
	for _, field := range fields {
		if dyntable.IsBaselineColumn(field) {
			s.metrics.RecordSyncFailure()
			return dErrors.Newf(dErrors.CodeShapeSync, "field %q collides with a reserved column", field)
		}
	}

	// Concurrent callers for the same unit and field set share one
	// synchronization pass. A caller with a different field set must run its
	// own pass — joining a flight that creates fewer columns would ack a
	// shape the storage does not have. Distinct passes for the same unit
	// converge through the gateway's idempotent DDL and advisory lock.
	key := unit + "|" + strings.Join(fields, ",")
	_, err, _ := s.group.Do(key, func() (any, error) {
		if err := s.ensure(ctx, unit, fields); err != nil {
			if errors.Is(err, sentinel.ErrInvalidState) {
				return nil, err
			}
			// Retry once: a partially created unit is valid and reusable, so
			// a second pass completes the remaining widening.
			if err = s.ensure(ctx, unit, fields); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	if err != nil {
		s.metrics.RecordSyncFailure()
		return dErrors.Wrap(err, dErrors.CodeShapeSync, "ensure shape of "+unit)
	}
	return nil
}

func (s *Synchronizer) ensure(ctx context.Context, unit string, fields []string) error {
	current, err := s.gateway.UnitColumns(ctx, unit)
	if err != nil {
		if !isNotFound(err) {
			return err
		}
		if err := s.gateway.CreateUnit(ctx, unit, fields); err != nil {
			return err
		}
		s.metrics.RecordUnitCreated()
		if s.logger != nil {
			s.logger.InfoContext(ctx, "storage unit created", "unit", unit, "fields", len(fields))
		}
		// Re-read: a concurrent creator may have won with a different field
		// set, in which case this call still owes the missing columns.
		current, err = s.gateway.UnitColumns(ctx, unit)
		if err != nil {
			return err
		}
	}

	missing := missingFields(current, fields)
	for _, field := range missing {
		if err := s.gateway.AddColumn(ctx, unit, field); err != nil {
			return err
		}
	}
	if len(missing) > 0 {
		s.metrics.RecordColumnsAdded(len(missing))
		if s.logger != nil {
			s.logger.InfoContext(ctx, "storage unit widened", "unit", unit, "added", len(missing))
		}
	}
	return nil
}

// UnitName derives the storage-unit name for a schema-declared table.
func UnitName(prefix, table string) string {
	return NormalizeIdentifier(prefix + table)
}

func isNotFound(err error) bool {
	return errors.Is(err, sentinel.ErrNotFound)
}

func missingFields(current, required []string) []string {
	have := make(map[string]struct{}, len(current))
	for _, col := range current {
		have[col] = struct{}{}
	}
	var missing []string
	for _, field := range required {
		if _, ok := have[field]; !ok {
			missing = append(missing, field)
		}
	}
	return missing
}
