// Package annexure persists one record per (candidate, storage unit) on top
// of the dynamic-table gateway. The shape synchronizer must have guaranteed
// the unit's shape before any write lands here.
package annexure

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"veriform/internal/annexure/metrics"
	"veriform/internal/annexure/models"
	"veriform/internal/dyntable"
	"veriform/internal/shape"
	id "veriform/pkg/domain"
	dErrors "veriform/pkg/domain-errors"
	"veriform/pkg/platform/sentinel"
	"veriform/pkg/requestcontext"
)

// Store implements the annexure record operations.
type Store struct {
	gateway dyntable.Gateway
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// Option configures optional store collaborators.
type Option func(*Store)

// WithMetrics attaches Prometheus metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Store) { s.metrics = m }
}

// WithLogger attaches a structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

func NewStore(gateway dyntable.Gateway, opts ...Option) *Store {
	s := &Store{gateway: gateway}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Upsert writes the field map for (owner.CandidateID, unit). Empty values
// are stripped first so a partial submission never blanks previously stored
// fields. Exactly one record per pair survives arbitrary interleaving; a
// lost insert race is retried once with a fresh lookup.
func (s *Store) Upsert(ctx context.Context, owner models.Owner, unit string, fields map[string]string) (models.UpsertResult, error) {
	return s.upsert(ctx, owner, unit, fields, false)
}

// UpsertReplace is the explicit replace path: empty values are kept and
// overwrite stored ones. Use when the caller intends to clear fields.
func (s *Store) UpsertReplace(ctx context.Context, owner models.Owner, unit string, fields map[string]string) (models.UpsertResult, error) {
	return s.upsert(ctx, owner, unit, fields, true)
}

func (s *Store) upsert(ctx context.Context, owner models.Owner, unit string, fields map[string]string, keepBlanks bool) (models.UpsertResult, error) {
	if owner.CandidateID.IsZero() {
		return models.UpsertResult{}, dErrors.New(dErrors.CodeInvalidInput, "candidate id is required")
	}
	write := prepareFields(fields, keepBlanks)

	result, err := s.writeOnce(ctx, owner, unit, write)
	if err == nil {
		return result, nil
	}
	if errors.Is(err, sentinel.ErrConflict) {
		// Concurrent upsert won the insert; retry exactly once with a fresh
		// lookup, which lands on the update path.
		s.metrics.RecordConflictRetry()
		result, err = s.writeOnce(ctx, owner, unit, write)
		if err == nil {
			return result, nil
		}
		if errors.Is(err, sentinel.ErrConflict) {
			s.metrics.RecordConflictFailure()
			return models.UpsertResult{}, dErrors.Wrap(err, dErrors.CodeConflict, "concurrent upsert for candidate "+owner.CandidateID.String())
		}
	}
	if errors.Is(err, sentinel.ErrNotFound) {
		// The unit must exist before any record write: EnsureShape was not
		// called. A contract violation, not a user error.
		return models.UpsertResult{}, dErrors.Wrap(err, dErrors.CodeInvariantViolation, "storage unit "+unit+" does not exist")
	}
	return models.UpsertResult{}, dErrors.Wrap(err, dErrors.CodeInternal, "upsert annexure record")
}

func (s *Store) writeOnce(ctx context.Context, owner models.Owner, unit string, fields map[string]string) (models.UpsertResult, error) {
	now := requestcontext.Now(ctx)

	existing, err := s.gateway.FindByCandidate(ctx, unit, owner.CandidateID)
	switch {
	case err == nil:
		updated, err := s.gateway.Update(ctx, unit, owner.CandidateID, fields, now)
		if err != nil {
			return models.UpsertResult{}, err
		}
		if updated == 0 {
			// Row vanished between lookup and write; the caller's retry
			// takes the insert path.
			return models.UpsertResult{}, sentinel.ErrConflict
		}
		s.metrics.RecordUpdate()
		return models.UpsertResult{RecordID: existing.ID, Updated: updated}, nil

	case errors.Is(err, sentinel.ErrNotFound):
		row := &dyntable.Row{
			ID:            uuid.New(),
			CandidateID:   owner.CandidateID,
			BranchID:      owner.BranchID,
			CustomerID:    owner.CustomerID,
			ApplicationID: owner.ApplicationID,
			Status:        models.StatusSubmitted,
			CreatedAt:     now,
			UpdatedAt:     now,
			Fields:        fields,
		}
		if err := s.gateway.Insert(ctx, unit, row); err != nil {
			return models.UpsertResult{}, err
		}
		s.metrics.RecordInsert()
		if s.logger != nil {
			s.logger.InfoContext(ctx, "annexure record created",
				"unit", unit, "candidate_id", owner.CandidateID.String())
		}
		return models.UpsertResult{RecordID: row.ID, Inserted: true}, nil

	default:
		return models.UpsertResult{}, err
	}
}

// Get returns the record for (candidateID, unit), or CodeNotFound.
func (s *Store) Get(ctx context.Context, candidateID id.CandidateID, unit string) (*models.Record, error) {
	if candidateID.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "candidate id is required")
	}
	row, err := s.gateway.FindByCandidate(ctx, unit, candidateID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Newf(dErrors.CodeNotFound, "no annexure record for candidate in %s", unit)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "get annexure record")
	}
	return toRecord(unit, row), nil
}

// prepareFields normalizes keys, strips system-owned columns the caller may
// have smuggled in, and (outside the replace path) drops blank values.
func prepareFields(fields map[string]string, keepBlanks bool) map[string]string {
	prepared := make(map[string]string, len(fields))
	for name, value := range fields {
		normalized := shape.NormalizeIdentifier(name)
		if normalized == "" || dyntable.IsBaselineColumn(normalized) {
			continue
		}
		if !keepBlanks && value == "" {
			continue
		}
		prepared[normalized] = value
	}
	return prepared
}

func toRecord(unit string, row *dyntable.Row) *models.Record {
	return &models.Record{
		ID:            row.ID,
		Unit:          unit,
		CandidateID:   row.CandidateID,
		BranchID:      row.BranchID,
		CustomerID:    row.CustomerID,
		ApplicationID: row.ApplicationID,
		Status:        row.Status,
		CreatedAt:     row.CreatedAt,
		UpdatedAt:     row.UpdatedAt,
		Fields:        row.Fields,
	}
}
