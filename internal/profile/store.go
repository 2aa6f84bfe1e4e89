package profile

import (
	"context"

	"workbridge/pkg/domain"
)

// Store is interface-driven to keep domain logic testable and to allow
// swapping in-memory and Postgres persistence without rewiring business code.
// Implementations seal high-sensitivity fields before writing and open them
// after reading; callers only ever see plaintext.
type Store interface {
	Save(ctx context.Context, p CandidateProfile) error
	FindByID(ctx context.Context, id domain.CandidateID) (CandidateProfile, error)
	// ListEligible returns profiles that are visible and assessment-complete,
	// i.e. the discovery pool for batch matching.
	ListEligible(ctx context.Context) ([]CandidateProfile, error)
}
