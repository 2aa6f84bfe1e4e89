package connection

import (
	"context"
	"sync"

	"workbridge/pkg/domain"
	"workbridge/pkg/platform/sentinel"
)

type InMemoryStore struct {
	mu          sync.RWMutex
	connections map[domain.ConnectionID]Connection
	byMatch     map[domain.MatchID]domain.ConnectionID
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		connections: make(map[domain.ConnectionID]Connection),
		byMatch:     make(map[domain.MatchID]domain.ConnectionID),
	}
}

func (s *InMemoryStore) Save(_ context.Context, c Connection) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.byMatch[c.MatchID]; ok && existing != c.ID {
		return sentinel.ErrConflict
	}
	s.connections[c.ID] = clone(c)
	s.byMatch[c.MatchID] = c.ID
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id domain.ConnectionID) (Connection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.connections[id]
	if !ok {
		return Connection{}, sentinel.ErrNotFound
	}
	return clone(c), nil
}

func (s *InMemoryStore) FindByMatch(_ context.Context, matchID domain.MatchID) (Connection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byMatch[matchID]
	if !ok {
		return Connection{}, sentinel.ErrNotFound
	}
	return clone(s.connections[id]), nil
}

func (s *InMemoryStore) ListActiveByCandidate(_ context.Context, candidateID domain.CandidateID) ([]Connection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Connection
	for _, c := range s.connections {
		if c.CandidateID == candidateID && c.Active() {
			out = append(out, clone(c))
		}
	}
	return out, nil
}

func clone(c Connection) Connection {
	c.SharedData = append([]domain.ProfileField(nil), c.SharedData...)
	if c.RevokedAt != nil {
		t := *c.RevokedAt
		c.RevokedAt = &t
	}
	return c
}

var _ Store = (*InMemoryStore)(nil)
