// Package dyntable is the single gateway through which dynamically shaped
// storage units are created, widened, and written. Nothing else in the
// engine issues DDL; the shape synchronizer and the annexure record store
// both sit on top of this package.
package dyntable

import (
	"context"
	"time"

	"github.com/google/uuid"

	id "veriform/pkg/domain"
)

// Baseline columns every storage unit carries. Dynamic fields may not shadow
// these; the synchronizer rejects collisions before they reach the gateway.
var BaselineColumns = []string{
	"id",
	"candidate_id",
	"branch_id",
	"customer_id",
	"application_id",
	"status",
	"created_at",
	"updated_at",
}

// IsBaselineColumn reports whether name is system-owned.
func IsBaselineColumn(name string) bool {
	for _, col := range BaselineColumns {
		if col == name {
			return true
		}
	}
	return false
}

// Row is one annexure record as stored in a unit: the system-owned baseline
// plus the open-ended dynamic field map (wide text values).
type Row struct {
	ID            uuid.UUID
	CandidateID   id.CandidateID
	BranchID      id.BranchID
	CustomerID    id.CustomerID
	ApplicationID id.ApplicationID
	Status        string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	Fields        map[string]string
}

// Gateway is the storage contract for dynamically shaped units.
//
// Shape operations are append-only: units are created lazily, columns are
// only ever added, never dropped, renamed, or retyped. Record operations
// return sentinel.ErrNotFound for a missing unit or row and
// sentinel.ErrConflict when an insert loses the one-row-per-candidate race.
type Gateway interface {
	// UnitColumns returns the unit's current column set (baseline plus
	// dynamic), or sentinel.ErrNotFound when the unit does not exist.
	UnitColumns(ctx context.Context, unit string) ([]string, error)

	// CreateUnit creates the unit with baseline columns plus the given
	// dynamic fields. Creation is idempotent: concurrent or repeated calls
	// for the same unit converge on one unit without error.
	CreateUnit(ctx context.Context, unit string, fields []string) error

	// AddColumn widens the unit by one wide-text column. Idempotent.
	AddColumn(ctx context.Context, unit, column string) error

	// FindByCandidate returns the at-most-one row for (candidate, unit).
	FindByCandidate(ctx context.Context, unit string, candidateID id.CandidateID) (*Row, error)

	// Insert writes a new row. Returns sentinel.ErrConflict if a row for the
	// candidate already exists in the unit.
	Insert(ctx context.Context, unit string, row *Row) error

	// Update overwrites the given dynamic fields on the candidate's row and
	// bumps updated_at. Returns the number of rows updated (0 or 1).
	Update(ctx context.Context, unit string, candidateID id.CandidateID, fields map[string]string, updatedAt time.Time) (int64, error)
}
