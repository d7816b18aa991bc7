// Package engine is the facade the controller layer calls: it orchestrates
// schema registry, shape synchronizer, and annexure record store for
// submissions, and fronts the pure gap-validation computation.
package engine

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"veriform/internal/annexure"
	annexuremodels "veriform/internal/annexure/models"
	"veriform/internal/audit"
	"veriform/internal/engine/ports"
	"veriform/internal/gaps"
	"veriform/internal/schema"
	"veriform/internal/shape"
	id "veriform/pkg/domain"
	dErrors "veriform/pkg/domain-errors"
	"veriform/pkg/platform/sentinel"
)

// Engine wires the core components behind the three exposed operations.
type Engine struct {
	registry *schema.Registry
	shapes   *shape.Synchronizer
	records  *annexure.Store
	apps     ports.ApplicationDirectory
	audit    *audit.Publisher
	prefix   string
	tracer   trace.Tracer
	logger   *slog.Logger
}

// Option configures optional engine collaborators.
type Option func(*Engine)

// WithAudit attaches the submission audit publisher.
func WithAudit(p *audit.Publisher) Option {
	return func(e *Engine) { e.audit = p }
}

// WithLogger attaches a structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// New constructs the engine. prefix is prepended to every schema-declared
// table name to derive the storage-unit name.
func New(registry *schema.Registry, shapes *shape.Synchronizer, records *annexure.Store, apps ports.ApplicationDirectory, prefix string, opts ...Option) *Engine {
	e := &Engine{
		registry: registry,
		shapes:   shapes,
		records:  records,
		apps:     apps,
		prefix:   prefix,
		tracer:   otel.Tracer("veriform/engine"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SubmitRequest carries one service submission.
type SubmitRequest struct {
	CandidateID id.CandidateID
	BranchID    id.BranchID
	CustomerID  id.CustomerID
	ServiceID   id.ServiceID
	Fields      map[string]string
	// Replace keeps blank values so the caller can explicitly clear fields.
	Replace bool
}

// SubmitResult reports the persisted record.
type SubmitResult struct {
	RecordID uuid.UUID
	Unit     string
	Inserted bool
}

// SubmitService validates the application boundary, loads the schema,
// guarantees the storage unit's shape, and upserts the field map.
func (e *Engine) SubmitService(ctx context.Context, req SubmitRequest) (*SubmitResult, error) {
	ctx, span := e.tracer.Start(ctx, "engine.SubmitService",
		trace.WithAttributes(attribute.String("service_id", string(req.ServiceID))))
	defer span.End()

	app, err := e.lookupApplication(ctx, req.CandidateID, req.BranchID, req.CustomerID)
	if err != nil {
		return nil, err
	}

	formSchema, err := e.registry.LoadSchema(ctx, req.ServiceID)
	if err != nil {
		return nil, err
	}

	unit := shape.UnitName(e.prefix, formSchema.Table)
	declared := shape.NormalizeFields(formSchema.FieldNames())
	if err := e.shapes.EnsureShape(ctx, unit, declared); err != nil {
		return nil, err
	}

	owner := annexuremodels.Owner{
		CandidateID:   app.CandidateID,
		BranchID:      app.BranchID,
		CustomerID:    app.CustomerID,
		ApplicationID: app.ID,
	}
	fields := restrictToDeclared(req.Fields, declared)

	var result annexuremodels.UpsertResult
	if req.Replace {
		result, err = e.records.UpsertReplace(ctx, owner, unit, fields)
	} else {
		result, err = e.records.Upsert(ctx, owner, unit, fields)
	}
	if err != nil {
		return nil, err
	}

	e.emitAudit(ctx, req, unit, result)
	return &SubmitResult{RecordID: result.RecordID, Unit: unit, Inserted: result.Inserted}, nil
}

// FetchService returns the stored field map for (candidate, service).
func (e *Engine) FetchService(ctx context.Context, candidateID id.CandidateID, serviceID id.ServiceID) (map[string]string, error) {
	ctx, span := e.tracer.Start(ctx, "engine.FetchService",
		trace.WithAttributes(attribute.String("service_id", string(serviceID))))
	defer span.End()

	formSchema, err := e.registry.LoadSchema(ctx, serviceID)
	if err != nil {
		return nil, err
	}
	record, err := e.records.Get(ctx, candidateID, shape.UnitName(e.prefix, formSchema.Table))
	if err != nil {
		return nil, err
	}
	return record.Fields, nil
}

// ValidateGaps parses the stored field map into a timeline and computes the
// gap report. Pure: no storage access, no wall clock.
func (e *Engine) ValidateGaps(ctx context.Context, fields map[string]string) gaps.Result {
	_, span := e.tracer.Start(ctx, "engine.ValidateGaps")
	defer span.End()
	return gaps.ComputeGaps(gaps.ParseTimeline(fields))
}

func (e *Engine) lookupApplication(ctx context.Context, candidateID id.CandidateID, branchID id.BranchID, customerID id.CustomerID) (*ports.Application, error) {
	if candidateID.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "candidate id is required")
	}
	app, err := e.apps.ApplicationExists(ctx, candidateID, branchID, customerID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "no application for candidate")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "application lookup")
	}
	return app, nil
}

func (e *Engine) emitAudit(ctx context.Context, req SubmitRequest, unit string, result annexuremodels.UpsertResult) {
	action := audit.ActionSubmitted
	if req.Replace {
		action = audit.ActionReplaced
	}
	err := e.audit.Emit(ctx, audit.Event{
		CandidateID: req.CandidateID,
		ServiceID:   req.ServiceID,
		Unit:        unit,
		Action:      action,
		RecordID:    result.RecordID,
		Inserted:    result.Inserted,
	})
	if err != nil && e.logger != nil {
		e.logger.WarnContext(ctx, "audit emit failed", "unit", unit, "error", err)
	}
}

// restrictToDeclared drops submitted keys the schema does not declare, after
// normalization, so stray input can never reach the gateway as an unknown
// column.
func restrictToDeclared(fields map[string]string, declared []string) map[string]string {
	allowed := make(map[string]struct{}, len(declared))
	for _, name := range declared {
		allowed[name] = struct{}{}
	}
	restricted := make(map[string]string, len(fields))
	for name, value := range fields {
		normalized := shape.NormalizeIdentifier(name)
		if _, ok := allowed[normalized]; ok {
			restricted[normalized] = value
		}
	}
	return restricted
}
