package profile

import (
	"context"
	"sync"

	"workbridge/pkg/domain"
	"workbridge/pkg/platform/sentinel"
)

type InMemoryStore struct {
	mu       sync.RWMutex
	profiles map[domain.CandidateID]CandidateProfile
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{profiles: make(map[domain.CandidateID]CandidateProfile)}
}

func (s *InMemoryStore) Save(_ context.Context, p CandidateProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[p.ID] = clone(p)
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id domain.CandidateID) (CandidateProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[id]
	if !ok {
		return CandidateProfile{}, sentinel.ErrNotFound
	}
	return clone(p), nil
}

func (s *InMemoryStore) ListEligible(_ context.Context) ([]CandidateProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []CandidateProfile
	for _, p := range s.profiles {
		if p.Erased() || !p.Privacy.Visible || !p.AssessmentCompleted {
			continue
		}
		out = append(out, clone(p))
	}
	return out, nil
}

// clone guards against callers mutating shared slices.
func clone(p CandidateProfile) CandidateProfile {
	p.Skills = append([]string(nil), p.Skills...)
	p.AccommodationNeeds = append([]string(nil), p.AccommodationNeeds...)
	p.Experience = append([]string(nil), p.Experience...)
	p.Education = append([]string(nil), p.Education...)
	p.Diagnoses = append([]string(nil), p.Diagnoses...)
	p.MedicalHistory = append([]string(nil), p.MedicalHistory...)
	return p
}
