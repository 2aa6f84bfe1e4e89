package job

import (
	"context"
	"sync"

	"workbridge/pkg/domain"
	"workbridge/pkg/platform/sentinel"
)

type InMemoryStore struct {
	mu   sync.RWMutex
	jobs map[domain.JobID]Job
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{jobs: make(map[domain.JobID]Job)}
}

func (s *InMemoryStore) Save(_ context.Context, j Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[j.ID] = j
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id domain.JobID) (Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	j, ok := s.jobs[id]
	if !ok {
		return Job{}, sentinel.ErrNotFound
	}
	return j, nil
}

func (s *InMemoryStore) ListOpen(_ context.Context) ([]Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Job
	for _, j := range s.jobs {
		if j.Open() {
			out = append(out, j)
		}
	}
	return out, nil
}
