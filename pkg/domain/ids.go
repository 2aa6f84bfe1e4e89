// Package domain holds value types shared across services: typed IDs, shared
// profile field names, and pipeline stages.
//
// IDs are distinct types over uuid.UUID so a CandidateID can never be passed
// where a JobID is expected. Construct from external input via the Parse
// functions; direct casting bypasses validation.
package domain

import (
	"github.com/google/uuid"

	dErrors "workbridge/pkg/domain-errors"
)

type (
	// CandidateID identifies a candidate profile owner.
	CandidateID uuid.UUID
	// OrganizationID identifies a hiring organization.
	OrganizationID uuid.UUID
	// JobID identifies a published job requirement.
	JobID uuid.UUID
	// MatchID identifies a scored match proposal.
	MatchID uuid.UUID
	// ConnectionID identifies a consent grant created from an accepted match.
	ConnectionID uuid.UUID
)

func NewCandidateID() CandidateID       { return CandidateID(uuid.New()) }
func NewOrganizationID() OrganizationID { return OrganizationID(uuid.New()) }
func NewJobID() JobID                   { return JobID(uuid.New()) }
func NewMatchID() MatchID               { return MatchID(uuid.New()) }
func NewConnectionID() ConnectionID     { return ConnectionID(uuid.New()) }

func (id CandidateID) String() string    { return uuid.UUID(id).String() }
func (id OrganizationID) String() string { return uuid.UUID(id).String() }
func (id JobID) String() string          { return uuid.UUID(id).String() }
func (id MatchID) String() string        { return uuid.UUID(id).String() }
func (id ConnectionID) String() string   { return uuid.UUID(id).String() }

func (id CandidateID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id OrganizationID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id JobID) IsNil() bool          { return uuid.UUID(id) == uuid.Nil }
func (id MatchID) IsNil() bool        { return uuid.UUID(id) == uuid.Nil }
func (id ConnectionID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }

// parseUUID enforces the shared invariant: IDs must be valid, non-empty,
// non-nil UUIDs.
func parseUUID(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id cannot be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "id is not a valid uuid")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id cannot be the nil uuid")
	}
	return u, nil
}

func ParseCandidateID(s string) (CandidateID, error) {
	u, err := parseUUID(s)
	return CandidateID(u), err
}

func ParseOrganizationID(s string) (OrganizationID, error) {
	u, err := parseUUID(s)
	return OrganizationID(u), err
}

func ParseJobID(s string) (JobID, error) {
	u, err := parseUUID(s)
	return JobID(u), err
}

func ParseMatchID(s string) (MatchID, error) {
	u, err := parseUUID(s)
	return MatchID(u), err
}

func ParseConnectionID(s string) (ConnectionID, error) {
	u, err := parseUUID(s)
	return ConnectionID(u), err
}
