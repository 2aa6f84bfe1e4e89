// Package match owns the scored pairing between a candidate and a job: the
// pure scoring engine that produces it and the state machine that governs it
// until it is accepted, rejected, or expires.
package match

import (
	"time"

	"workbridge/internal/profile"
	"workbridge/pkg/domain"
)

// TTL is how long a pending match stays actionable.
const TTL = 7 * 24 * time.Hour

// Threshold is the minimum total score for a match to be persisted.
const Threshold = 60

type Status string

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"
	StatusExpired  Status = "expired"
)

// Terminal reports whether no further transition may leave the status.
func (s Status) Terminal() bool { return s != StatusPending }

// Breakdown is the per-factor sub-score set, each in [0,100]. It is stored
// with the match and is the sole input to justification generation.
type Breakdown struct {
	Skills         int `json:"skills"`
	Accommodations int `json:"accommodations"`
	Preferences    int `json:"preferences"`
	Location       int `json:"location"`
}

// Snapshot is the anonymized, public-eligible view of the candidate frozen at
// scoring time. It carries no name, contact, or high-sensitivity field and is
// never refreshed from the live profile.
type Snapshot struct {
	Location           string              `json:"location"`
	Skills             []string            `json:"skills"`
	AccommodationNeeds []string            `json:"accommodationNeeds"`
	Experience         []string            `json:"experience"`
	Education          []string            `json:"education"`
	Preferences        profile.Preferences `json:"preferences"`
}

// NewSnapshot freezes the public-eligible attributes of a profile.
func NewSnapshot(p profile.CandidateProfile) Snapshot {
	return Snapshot{
		Location:           p.Location,
		Skills:             append([]string(nil), p.Skills...),
		AccommodationNeeds: append([]string(nil), p.AccommodationNeeds...),
		Experience:         append([]string(nil), p.Experience...),
		Education:          append([]string(nil), p.Education...),
		Preferences:        p.Preferences,
	}
}

// Match is a proposal, not a grant. It is created by a scoring run, mutated
// only through the lifecycle service, and never deleted.
type Match struct {
	ID          domain.MatchID
	CandidateID domain.CandidateID
	JobID       domain.JobID

	Score         int
	Breakdown     Breakdown
	Justification string
	Snapshot      Snapshot

	Status Status
	// RejectionReason is private to the candidate; it is never disclosed to
	// the counterparty organization.
	RejectionReason string

	CreatedAt  time.Time
	ExpiresAt  time.Time
	ResolvedAt *time.Time
}

// Actionable reports whether the match can still be accepted or rejected.
func (m Match) Actionable(now time.Time) bool {
	return m.Status == StatusPending && !now.After(m.ExpiresAt)
}
