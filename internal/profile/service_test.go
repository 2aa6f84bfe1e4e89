package profile

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"

	"workbridge/internal/audit"
	"workbridge/pkg/domain"
	dErrors "workbridge/pkg/domain-errors"
)

type ServiceSuite struct {
	suite.Suite
	ctx context.Context

	store      *InMemoryStore
	auditStore *audit.InMemoryStore
	svc        *Service

	expired int
	revoked int
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

type stubExpirer struct{ calls *int }

func (s stubExpirer) ExpireAllForCandidate(context.Context, domain.CandidateID) (int, error) {
	*s.calls++
	return 1, nil
}

type stubRevoker struct{ calls *int }

func (s stubRevoker) RevokeAllForCandidate(context.Context, domain.CandidateID) error {
	*s.calls++
	return nil
}

func (s *ServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = NewInMemoryStore()
	s.auditStore = audit.NewInMemoryStore()
	s.expired = 0
	s.revoked = 0

	recorder := audit.NewRecorder(s.auditStore, zap.NewNop(), nil)
	s.svc = NewService(s.store, recorder, zap.NewNop(), DefaultPrivacySettings())
	s.svc.SetCascades(stubExpirer{calls: &s.expired}, stubRevoker{calls: &s.revoked})
}

func boolPtr(b bool) *bool { return &b }

func (s *ServiceSuite) TestCreate() {
	s.Run("applies restrictive defaults", func() {
		s.SetupTest()
		p, err := s.svc.Create(s.ctx, NewProfileParams{Name: "Kim", Contact: "kim@example.com"})
		s.Require().NoError(err)
		s.False(p.Privacy.Visible)
		s.False(p.Privacy.ShareDiagnosis)
		s.False(p.Privacy.ShareProfessionalContact)
	})

	s.Run("explicit overrides beat defaults without mutating them", func() {
		s.SetupTest()
		p, err := s.svc.Create(s.ctx, NewProfileParams{
			Name: "Kim", Contact: "kim@example.com", Visible: boolPtr(true),
		})
		s.Require().NoError(err)
		s.True(p.Privacy.Visible)

		// The next profile still gets the untouched defaults.
		q, err := s.svc.Create(s.ctx, NewProfileParams{Name: "Lee", Contact: "lee@example.com"})
		s.Require().NoError(err)
		s.False(q.Privacy.Visible)
	})

	s.Run("dedupes term lists", func() {
		s.SetupTest()
		p, err := s.svc.Create(s.ctx, NewProfileParams{
			Name: "Kim", Contact: "kim@example.com",
			Skills: []string{"Go", " Go ", "", "SQL"},
		})
		s.Require().NoError(err)
		s.Equal([]string{"Go", "SQL"}, p.Skills)
	})

	s.Run("normalizes categorical preferences", func() {
		s.SetupTest()
		p, err := s.svc.Create(s.ctx, NewProfileParams{
			Name: "Kim", Contact: "kim@example.com",
			Preferences: Preferences{WorkMode: "Remote", TeamSize: " SMALL "},
		})
		s.Require().NoError(err)
		s.Equal(WorkModeRemote, p.Preferences.WorkMode)
		s.Equal(TeamSizeSmall, p.Preferences.TeamSize)
	})

	s.Run("unknown preference values collapse to undeclared", func() {
		s.SetupTest()
		p, err := s.svc.Create(s.ctx, NewProfileParams{
			Name: "Kim", Contact: "kim@example.com",
			Preferences: Preferences{WorkMode: "four-day week", TeamSize: "gigantic"},
		})
		s.Require().NoError(err)
		s.Empty(p.Preferences.WorkMode)
		s.Empty(p.Preferences.TeamSize)
	})

	s.Run("requires name and contact", func() {
		s.SetupTest()
		_, err := s.svc.Create(s.ctx, NewProfileParams{Contact: "x@example.com"})
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))

		_, err = s.svc.Create(s.ctx, NewProfileParams{Name: "Kim"})
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}

func (s *ServiceSuite) TestUpdate() {
	s.Run("normalizes updated preferences", func() {
		s.SetupTest()
		p, err := s.svc.Create(s.ctx, NewProfileParams{Name: "Kim", Contact: "kim@example.com"})
		s.Require().NoError(err)

		updated, err := s.svc.Update(s.ctx, p.ID, p.ID, UpdateParams{
			Preferences: &Preferences{WorkMode: "Hybrid", TeamSize: "Medium"},
		})
		s.Require().NoError(err)
		s.Equal(WorkModeHybrid, updated.Preferences.WorkMode)
		s.Equal(TeamSizeMedium, updated.Preferences.TeamSize)
	})
}

func (s *ServiceSuite) TestOwnerOnlyAccess() {
	s.SetupTest()
	p, err := s.svc.Create(s.ctx, NewProfileParams{Name: "Kim", Contact: "kim@example.com"})
	s.Require().NoError(err)
	stranger := domain.NewCandidateID()

	_, err = s.svc.Get(s.ctx, stranger, p.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))

	_, err = s.svc.Update(s.ctx, stranger, p.ID, UpdateParams{})
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))

	err = s.svc.Erase(s.ctx, stranger, p.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func (s *ServiceSuite) TestErase() {
	s.Run("scrubs PII, keeps the record, and cascades", func() {
		s.SetupTest()
		p, err := s.svc.Create(s.ctx, NewProfileParams{
			Name: "Kim", Contact: "kim@example.com",
			Diagnoses: []string{"ADHD"},
		})
		s.Require().NoError(err)

		s.Require().NoError(s.svc.Erase(s.ctx, p.ID, p.ID))

		stored, err := s.store.FindByID(s.ctx, p.ID)
		s.Require().NoError(err)
		s.True(stored.Erased())
		s.Empty(stored.Name)
		s.Empty(stored.Contact)
		s.Empty(stored.Diagnoses)

		s.Equal(1, s.expired)
		s.Equal(1, s.revoked)

		entries, err := s.auditStore.ListBySubject(s.ctx, p.ID.String())
		s.Require().NoError(err)
		var kinds []audit.EventKind
		for _, e := range entries {
			kinds = append(kinds, e.Kind)
		}
		s.Contains(kinds, audit.EventProfileErased)
	})

	s.Run("is idempotent", func() {
		s.SetupTest()
		p, err := s.svc.Create(s.ctx, NewProfileParams{Name: "Kim", Contact: "kim@example.com"})
		s.Require().NoError(err)

		s.Require().NoError(s.svc.Erase(s.ctx, p.ID, p.ID))
		s.Require().NoError(s.svc.Erase(s.ctx, p.ID, p.ID))
		s.Equal(1, s.expired)
	})

	s.Run("erased profile refuses updates", func() {
		s.SetupTest()
		p, err := s.svc.Create(s.ctx, NewProfileParams{Name: "Kim", Contact: "kim@example.com"})
		s.Require().NoError(err)
		s.Require().NoError(s.svc.Erase(s.ctx, p.ID, p.ID))

		_, err = s.svc.Update(s.ctx, p.ID, p.ID, UpdateParams{Visible: boolPtr(true)})
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
	})
}
