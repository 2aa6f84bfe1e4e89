package match

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"

	"workbridge/internal/audit"
	"workbridge/internal/connection"
	"workbridge/internal/job"
	"workbridge/internal/profile"
	"workbridge/pkg/domain"
	dErrors "workbridge/pkg/domain-errors"
	"workbridge/pkg/platform/tx"
)

type ServiceSuite struct {
	suite.Suite
	ctx context.Context

	profiles    *profile.InMemoryStore
	jobs        *job.InMemoryStore
	matches     *InMemoryStore
	connections *connection.InMemoryStore
	svc         *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.profiles = profile.NewInMemoryStore()
	s.jobs = job.NewInMemoryStore()
	s.matches = NewInMemoryStore()
	s.connections = connection.NewInMemoryStore()

	recorder := audit.NewRecorder(audit.NewInMemoryStore(), zap.NewNop(), nil)
	s.svc = NewService(
		s.matches, s.connections, s.profiles, s.jobs,
		tx.NewMemoryRunner(), recorder, zap.NewNop(), nil,
	)
}

func (s *ServiceSuite) seedPair() (profile.CandidateProfile, job.Job) {
	p := eligibleProfile()
	j := openJob()
	s.Require().NoError(s.profiles.Save(s.ctx, p))
	s.Require().NoError(s.jobs.Save(s.ctx, j))
	return p, j
}

func (s *ServiceSuite) computePersisted() (profile.CandidateProfile, job.Job, Match) {
	p, j := s.seedPair()
	res, err := s.svc.ComputeMatch(s.ctx, p.ID, j.ID)
	s.Require().NoError(err)
	s.Require().NotNil(res.Match)
	return p, j, *res.Match
}

func (s *ServiceSuite) TestComputeMatch() {
	s.Run("persists above the threshold with snapshot and expiry", func() {
		s.SetupTest()
		p, j, m := s.computePersisted()

		s.GreaterOrEqual(m.Score, Threshold)
		s.Equal(StatusPending, m.Status)
		s.Equal(p.Skills, m.Snapshot.Skills)
		s.WithinDuration(m.CreatedAt.Add(TTL), m.ExpiresAt, time.Second)

		stored, err := s.matches.FindByID(s.ctx, m.ID)
		s.Require().NoError(err)
		s.Equal(m.Score, stored.Score)
		_ = j
	})

	s.Run("ineligible candidate yields no result and no side effect", func() {
		s.SetupTest()
		p := eligibleProfile()
		p.Privacy.Visible = false
		j := openJob()
		s.Require().NoError(s.profiles.Save(s.ctx, p))
		s.Require().NoError(s.jobs.Save(s.ctx, j))

		res, err := s.svc.ComputeMatch(s.ctx, p.ID, j.ID)
		s.Require().NoError(err)
		s.False(res.Eligible)
		s.Nil(res.Match)

		pending, err := s.matches.ListPendingByCandidate(s.ctx, p.ID)
		s.Require().NoError(err)
		s.Empty(pending)
	})

	s.Run("score below threshold is computed but discarded", func() {
		s.SetupTest()
		p := eligibleProfile()
		p.Skills = []string{"Cobol"}
		p.Location = "Munich"
		p.AccommodationNeeds = []string{"Quiet workspace"}
		j := openJob()
		j.WorkMode = job.WorkModeOnsite
		j.Location = "Hamburg"
		s.Require().NoError(s.profiles.Save(s.ctx, p))
		s.Require().NoError(s.jobs.Save(s.ctx, j))

		res, err := s.svc.ComputeMatch(s.ctx, p.ID, j.ID)
		s.Require().NoError(err)
		s.True(res.Eligible)
		s.Less(res.Score, Threshold)
		s.Nil(res.Match)

		pending, err := s.matches.ListPendingByCandidate(s.ctx, p.ID)
		s.Require().NoError(err)
		s.Empty(pending)
	})

	s.Run("recomputing an existing pending pair updates it in place", func() {
		s.SetupTest()
		p, j, m := s.computePersisted()

		p.Skills = append(p.Skills, "CSS")
		s.Require().NoError(s.profiles.Save(s.ctx, p))

		res, err := s.svc.ComputeMatch(s.ctx, p.ID, j.ID)
		s.Require().NoError(err)
		s.Require().NotNil(res.Match)
		s.Equal(m.ID, res.Match.ID)
		s.Equal(StatusPending, res.Match.Status)
		// The snapshot is frozen at first scoring.
		s.NotContains(res.Match.Snapshot.Skills, "CSS")
	})
}

func (s *ServiceSuite) TestAccept() {
	s.Run("creates exactly one connection atomically", func() {
		s.SetupTest()
		p, _, m := s.computePersisted()

		accepted, conn, err := s.svc.Accept(s.ctx, p.ID, m.ID, connection.Overrides{})
		s.Require().NoError(err)
		s.Equal(StatusAccepted, accepted.Status)
		s.Equal(m.ID, conn.MatchID)
		s.True(conn.Active())

		j, err := s.jobs.FindByID(s.ctx, m.JobID)
		s.Require().NoError(err)
		s.Equal(j.OrganizationID, conn.OrganizationID)

		stored, err := s.connections.FindByMatch(s.ctx, m.ID)
		s.Require().NoError(err)
		s.Equal(conn.ID, stored.ID)
	})

	s.Run("second accept fails with invalid state and no second connection", func() {
		s.SetupTest()
		p, _, m := s.computePersisted()

		_, first, err := s.svc.Accept(s.ctx, p.ID, m.ID, connection.Overrides{})
		s.Require().NoError(err)

		_, _, err = s.svc.Accept(s.ctx, p.ID, m.ID, connection.Overrides{})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))

		stored, err := s.connections.FindByMatch(s.ctx, m.ID)
		s.Require().NoError(err)
		s.Equal(first.ID, stored.ID)
	})

	s.Run("only the owning candidate may accept", func() {
		s.SetupTest()
		_, _, m := s.computePersisted()

		_, _, err := s.svc.Accept(s.ctx, domain.NewCandidateID(), m.ID, connection.Overrides{})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("expired match cannot be accepted", func() {
		s.SetupTest()
		p, _, m := s.computePersisted()
		m.ExpiresAt = time.Now().Add(-time.Hour)
		s.Require().NoError(s.matches.Save(s.ctx, m))

		_, _, err := s.svc.Accept(s.ctx, p.ID, m.ID, connection.Overrides{})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))

		stored, err := s.matches.FindByID(s.ctx, m.ID)
		s.Require().NoError(err)
		s.Equal(StatusExpired, stored.Status)
	})
}

func (s *ServiceSuite) TestReject() {
	s.Run("stores the private reason", func() {
		s.SetupTest()
		p, _, m := s.computePersisted()

		rejected, err := s.svc.Reject(s.ctx, p.ID, m.ID, "not a fit for me")
		s.Require().NoError(err)
		s.Equal(StatusRejected, rejected.Status)

		stored, err := s.matches.FindByID(s.ctx, m.ID)
		s.Require().NoError(err)
		s.Equal("not a fit for me", stored.RejectionReason)
	})

	s.Run("rejected match cannot be accepted afterwards", func() {
		s.SetupTest()
		p, _, m := s.computePersisted()

		_, err := s.svc.Reject(s.ctx, p.ID, m.ID, "")
		s.Require().NoError(err)

		_, _, err = s.svc.Accept(s.ctx, p.ID, m.ID, connection.Overrides{})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
	})
}

func (s *ServiceSuite) TestRecalculate() {
	s.Run("falling below the threshold forces expiry", func() {
		s.SetupTest()
		p, _, m := s.computePersisted()

		p.Skills = nil
		p.AccommodationNeeds = []string{"Service animal"}
		p.Location = "Munich"
		s.Require().NoError(s.profiles.Save(s.ctx, p))
		j, err := s.jobs.FindByID(s.ctx, m.JobID)
		s.Require().NoError(err)
		j.WorkMode = job.WorkModeOnsite
		j.Location = "Hamburg"
		j.Accommodations = []string{"Remote work"}
		s.Require().NoError(s.jobs.Save(s.ctx, j))

		res, err := s.svc.Recalculate(s.ctx, m.ID)
		s.Require().NoError(err)
		s.Nil(res.Match)

		stored, err := s.matches.FindByID(s.ctx, m.ID)
		s.Require().NoError(err)
		s.Equal(StatusExpired, stored.Status)
	})

	s.Run("resolved match cannot be recalculated", func() {
		s.SetupTest()
		p, _, m := s.computePersisted()
		_, err := s.svc.Reject(s.ctx, p.ID, m.ID, "")
		s.Require().NoError(err)

		_, err = s.svc.Recalculate(s.ctx, m.ID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
	})
}

func (s *ServiceSuite) TestExpiry() {
	s.Run("sweep expires only overdue pending matches and reruns cleanly", func() {
		s.SetupTest()
		p, _, m := s.computePersisted()
		m.ExpiresAt = time.Now().Add(-time.Minute)
		s.Require().NoError(s.matches.Save(s.ctx, m))

		n, err := s.svc.ExpireSweep(s.ctx, time.Now())
		s.Require().NoError(err)
		s.Equal(1, n)

		n, err = s.svc.ExpireSweep(s.ctx, time.Now())
		s.Require().NoError(err)
		s.Equal(0, n)
		_ = p
	})

	s.Run("job close cascade expires pending and spares resolved", func() {
		s.SetupTest()
		p1, j, m1 := s.computePersisted()

		p2 := eligibleProfile()
		p2.ID = domain.NewCandidateID()
		s.Require().NoError(s.profiles.Save(s.ctx, p2))
		res, err := s.svc.ComputeMatch(s.ctx, p2.ID, j.ID)
		s.Require().NoError(err)
		s.Require().NotNil(res.Match)

		_, _, err = s.svc.Accept(s.ctx, p1.ID, m1.ID, connection.Overrides{})
		s.Require().NoError(err)

		n, err := s.svc.ExpireAllForJob(s.ctx, j.ID)
		s.Require().NoError(err)
		s.Equal(1, n)

		accepted, err := s.matches.FindByID(s.ctx, m1.ID)
		s.Require().NoError(err)
		s.Equal(StatusAccepted, accepted.Status)

		expired, err := s.matches.FindByID(s.ctx, res.Match.ID)
		s.Require().NoError(err)
		s.Equal(StatusExpired, expired.Status)
	})

	s.Run("candidate cascade expires all pending matches", func() {
		s.SetupTest()
		p, _, _ := s.computePersisted()

		j2 := openJob()
		j2.ID = domain.NewJobID()
		s.Require().NoError(s.jobs.Save(s.ctx, j2))
		res, err := s.svc.ComputeMatch(s.ctx, p.ID, j2.ID)
		s.Require().NoError(err)
		s.Require().NotNil(res.Match)

		n, err := s.svc.ExpireAllForCandidate(s.ctx, p.ID)
		s.Require().NoError(err)
		s.Equal(2, n)

		pending, err := s.matches.ListPendingByCandidate(s.ctx, p.ID)
		s.Require().NoError(err)
		s.Empty(pending)
	})
}

func (s *ServiceSuite) TestBatch() {
	s.Run("job batch scores every eligible candidate", func() {
		s.SetupTest()
		_, j := s.seedPair()

		p2 := eligibleProfile()
		p2.ID = domain.NewCandidateID()
		s.Require().NoError(s.profiles.Save(s.ctx, p2))

		res, err := s.svc.MatchJob(s.ctx, j.ID)
		s.Require().NoError(err)
		s.Equal(2, res.Considered)
		s.Equal(2, res.Persisted)
		s.Empty(res.Failures)
	})

	s.Run("candidate batch scores every open job", func() {
		s.SetupTest()
		p, _ := s.seedPair()

		j2 := openJob()
		j2.ID = domain.NewJobID()
		j2.Status = job.StatusClosed
		s.Require().NoError(s.jobs.Save(s.ctx, j2))

		res, err := s.svc.MatchCandidate(s.ctx, p.ID)
		s.Require().NoError(err)
		s.Equal(1, res.Considered)
		s.Equal(1, res.Persisted)
	})
}
