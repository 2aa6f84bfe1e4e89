package match

import (
	"context"
	"sync"
	"time"

	"workbridge/pkg/domain"
	"workbridge/pkg/platform/sentinel"
)

type InMemoryStore struct {
	mu      sync.RWMutex
	matches map[domain.MatchID]Match
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{matches: make(map[domain.MatchID]Match)}
}

func (s *InMemoryStore) Save(_ context.Context, m Match) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if m.Status == StatusPending {
		for _, existing := range s.matches {
			if existing.ID != m.ID &&
				existing.Status == StatusPending &&
				existing.CandidateID == m.CandidateID &&
				existing.JobID == m.JobID {
				return sentinel.ErrConflict
			}
		}
	}
	s.matches[m.ID] = clone(m)
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id domain.MatchID) (Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.matches[id]
	if !ok {
		return Match{}, sentinel.ErrNotFound
	}
	return clone(m), nil
}

func (s *InMemoryStore) FindPendingPair(_ context.Context, candidateID domain.CandidateID, jobID domain.JobID) (Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, m := range s.matches {
		if m.Status == StatusPending && m.CandidateID == candidateID && m.JobID == jobID {
			return clone(m), nil
		}
	}
	return Match{}, sentinel.ErrNotFound
}

func (s *InMemoryStore) ListPendingByJob(_ context.Context, jobID domain.JobID) ([]Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Match
	for _, m := range s.matches {
		if m.Status == StatusPending && m.JobID == jobID {
			out = append(out, clone(m))
		}
	}
	return out, nil
}

func (s *InMemoryStore) ListPendingByCandidate(_ context.Context, candidateID domain.CandidateID) ([]Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Match
	for _, m := range s.matches {
		if m.Status == StatusPending && m.CandidateID == candidateID {
			out = append(out, clone(m))
		}
	}
	return out, nil
}

func (s *InMemoryStore) UpdateStatus(_ context.Context, id domain.MatchID, from, to Status, reason string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.matches[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	if m.Status != from {
		return sentinel.ErrInvalidState
	}
	m.Status = to
	m.RejectionReason = reason
	resolved := at
	m.ResolvedAt = &resolved
	s.matches[id] = m
	return nil
}

func (s *InMemoryStore) ExpireDue(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	expired := 0
	for id, m := range s.matches {
		if m.Status == StatusPending && now.After(m.ExpiresAt) {
			m.Status = StatusExpired
			resolved := now
			m.ResolvedAt = &resolved
			s.matches[id] = m
			expired++
		}
	}
	return expired, nil
}

func clone(m Match) Match {
	m.Snapshot.Skills = append([]string(nil), m.Snapshot.Skills...)
	m.Snapshot.AccommodationNeeds = append([]string(nil), m.Snapshot.AccommodationNeeds...)
	m.Snapshot.Experience = append([]string(nil), m.Snapshot.Experience...)
	m.Snapshot.Education = append([]string(nil), m.Snapshot.Education...)
	if m.ResolvedAt != nil {
		t := *m.ResolvedAt
		m.ResolvedAt = &t
	}
	return m
}

var _ Store = (*InMemoryStore)(nil)
