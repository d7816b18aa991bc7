// Package domain defines the shared identifier vocabulary of the engine.
//
// IDs are distinct uuid-backed types so a CandidateID can never be passed
// where a BranchID is expected. Parse helpers enforce the trust-boundary
// invariant: IDs must be valid, non-empty, non-nil UUIDs.
package domain

import (
	"strings"

	"github.com/google/uuid"

	dErrors "veriform/pkg/domain-errors"
)

// CandidateID identifies the person under verification.
type CandidateID uuid.UUID

// BranchID identifies the branch that owns the candidate's application.
type BranchID uuid.UUID

// CustomerID identifies the client company the check is performed for.
type CustomerID uuid.UUID

// ApplicationID identifies the parent background-verification application.
type ApplicationID uuid.UUID

// ServiceID names a verification service (education, employment, address...).
// Service IDs come from the schema source, not from user input, so they stay
// plain strings rather than UUIDs.
type ServiceID string

func (id CandidateID) String() string   { return uuid.UUID(id).String() }
func (id BranchID) String() string      { return uuid.UUID(id).String() }
func (id CustomerID) String() string    { return uuid.UUID(id).String() }
func (id ApplicationID) String() string { return uuid.UUID(id).String() }

// Typed IDs marshal as their canonical string form.
func (id CandidateID) MarshalText() ([]byte, error)   { return []byte(id.String()), nil }
func (id BranchID) MarshalText() ([]byte, error)      { return []byte(id.String()), nil }
func (id CustomerID) MarshalText() ([]byte, error)    { return []byte(id.String()), nil }
func (id ApplicationID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

func (id *CandidateID) UnmarshalText(text []byte) error {
	parsed, err := ParseCandidateID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *BranchID) UnmarshalText(text []byte) error {
	parsed, err := ParseBranchID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *CustomerID) UnmarshalText(text []byte) error {
	parsed, err := ParseCustomerID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *ApplicationID) UnmarshalText(text []byte) error {
	parsed, err := ParseApplicationID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// IsZero reports whether the ID is the nil UUID.
func (id CandidateID) IsZero() bool   { return uuid.UUID(id) == uuid.Nil }
func (id BranchID) IsZero() bool      { return uuid.UUID(id) == uuid.Nil }
func (id CustomerID) IsZero() bool    { return uuid.UUID(id) == uuid.Nil }
func (id ApplicationID) IsZero() bool { return uuid.UUID(id) == uuid.Nil }

// ParseCandidateID parses and validates a candidate ID.
func ParseCandidateID(raw string) (CandidateID, error) {
	parsed, err := parseUUID(raw, "candidate id")
	return CandidateID(parsed), err
}

// ParseBranchID parses and validates a branch ID.
func ParseBranchID(raw string) (BranchID, error) {
	parsed, err := parseUUID(raw, "branch id")
	return BranchID(parsed), err
}

// ParseCustomerID parses and validates a customer ID.
func ParseCustomerID(raw string) (CustomerID, error) {
	parsed, err := parseUUID(raw, "customer id")
	return CustomerID(parsed), err
}

// ParseApplicationID parses and validates an application ID.
func ParseApplicationID(raw string) (ApplicationID, error) {
	parsed, err := parseUUID(raw, "application id")
	return ApplicationID(parsed), err
}

// ParseServiceID validates a service identifier. Service IDs are free-form
// but must be non-empty after trimming.
func ParseServiceID(raw string) (ServiceID, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "service id is required")
	}
	return ServiceID(trimmed), nil
}

func parseUUID(raw, what string) (uuid.UUID, error) {
	if strings.TrimSpace(raw) == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, what+" is required")
	}
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid "+what)
	}
	if parsed == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, what+" must not be the nil uuid")
	}
	return parsed, nil
}
