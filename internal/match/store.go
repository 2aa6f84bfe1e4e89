package match

import (
	"context"
	"time"

	"workbridge/pkg/domain"
)

// Store persists matches. Save is an upsert: recalculation rewrites the score,
// breakdown, and justification of an existing row in place.
type Store interface {
	Save(ctx context.Context, m Match) error
	FindByID(ctx context.Context, id domain.MatchID) (Match, error)
	// FindPendingPair returns the pending match for a candidate/job pair, or
	// sentinel.ErrNotFound. At most one such match exists at a time.
	FindPendingPair(ctx context.Context, candidateID domain.CandidateID, jobID domain.JobID) (Match, error)
	ListPendingByJob(ctx context.Context, jobID domain.JobID) ([]Match, error)
	ListPendingByCandidate(ctx context.Context, candidateID domain.CandidateID) ([]Match, error)
	// UpdateStatus performs a compare-and-set transition. A current status
	// different from `from` yields sentinel.ErrInvalidState.
	UpdateStatus(ctx context.Context, id domain.MatchID, from, to Status, reason string, at time.Time) error
	// ExpireDue flips every pending match past its expiry to expired and
	// returns how many rows changed. Idempotent.
	ExpireDue(ctx context.Context, now time.Time) (int, error)
}
