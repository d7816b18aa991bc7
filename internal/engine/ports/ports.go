package ports

import (
	"context"

	id "veriform/pkg/domain"
)

// Application is the parent background-verification application a submission
// attaches to. Supplied by the collaborator, trusted as already validated.
type Application struct {
	ID          id.ApplicationID
	CandidateID id.CandidateID
	BranchID    id.BranchID
	CustomerID  id.CustomerID
}

// ApplicationDirectory is the boundary to the surrounding case-management
// system. The engine performs no authorization of its own: it trusts this
// check completely. Implementations return sentinel.ErrNotFound when no
// application matches.
type ApplicationDirectory interface {
	ApplicationExists(ctx context.Context, candidateID id.CandidateID, branchID id.BranchID, customerID id.CustomerID) (*Application, error)
}
