package adapters

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"veriform/internal/engine/ports"
	id "veriform/pkg/domain"
	"veriform/pkg/platform/sentinel"
)

// PostgresApplications resolves applications from the collaborator-owned
// applications table. The engine trusts this boundary check and performs no
// authorization of its own.
type PostgresApplications struct {
	db *sql.DB
}

func NewPostgresApplications(db *sql.DB) *PostgresApplications {
	return &PostgresApplications{db: db}
}

func (a *PostgresApplications) ApplicationExists(ctx context.Context, candidateID id.CandidateID, branchID id.BranchID, customerID id.CustomerID) (*ports.Application, error) {
	var appID uuid.UUID
	err := a.db.QueryRowContext(ctx,
		`SELECT id FROM applications
		 WHERE candidate_id = $1 AND branch_id = $2 AND customer_id = $3`,
		uuid.UUID(candidateID), uuid.UUID(branchID), uuid.UUID(customerID),
	).Scan(&appID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("application lookup: %w", err)
	}
	return &ports.Application{
		ID:          id.ApplicationID(appID),
		CandidateID: candidateID,
		BranchID:    branchID,
		CustomerID:  customerID,
	}, nil
}
