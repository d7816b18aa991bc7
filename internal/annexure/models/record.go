package models

import (
	"time"

	"github.com/google/uuid"

	id "veriform/pkg/domain"
)

// Statuses an annexure record moves through. The engine only ever writes
// Submitted; downstream verification workflows own the rest.
const (
	StatusPending   = "pending"
	StatusSubmitted = "submitted"
)

// Owner carries the foreign keys a new record is created with. The engine
// receives them already validated by the application-lookup boundary.
type Owner struct {
	CandidateID   id.CandidateID
	BranchID      id.BranchID
	CustomerID    id.CustomerID
	ApplicationID id.ApplicationID
}

// Record is the submitted data for one service attached to one candidate:
// at most one record per (candidate, storage unit).
type Record struct {
	ID            uuid.UUID
	Unit          string
	CandidateID   id.CandidateID
	BranchID      id.BranchID
	CustomerID    id.CustomerID
	ApplicationID id.ApplicationID
	Status        string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	Fields        map[string]string
}

// UpsertResult reports which path an upsert took.
type UpsertResult struct {
	RecordID uuid.UUID
	Inserted bool
	Updated  int64
}
