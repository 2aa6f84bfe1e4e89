package connection

import (
	"context"

	"workbridge/pkg/domain"
)

// Store persists connections. Save enforces the one-connection-per-match
// invariant: inserting a second connection for the same match yields
// sentinel.ErrConflict.
type Store interface {
	Save(ctx context.Context, c Connection) error
	FindByID(ctx context.Context, id domain.ConnectionID) (Connection, error)
	FindByMatch(ctx context.Context, matchID domain.MatchID) (Connection, error)
	ListActiveByCandidate(ctx context.Context, candidateID domain.CandidateID) ([]Connection, error)
}
