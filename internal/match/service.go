package match

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"workbridge/internal/audit"
	"workbridge/internal/connection"
	"workbridge/internal/job"
	"workbridge/internal/platform/metrics"
	"workbridge/internal/profile"
	"workbridge/pkg/domain"
	dErrors "workbridge/pkg/domain-errors"
	"workbridge/pkg/platform/sentinel"
	"workbridge/pkg/platform/tx"
)

// batchConcurrency bounds parallel scoring in batch runs.
const batchConcurrency = 8

// Service drives the match lifecycle: scoring runs, acceptance (with atomic
// connection creation), rejection, recalculation, and expiry.
type Service struct {
	matches     Store
	connections connection.Store
	profiles    profile.Store
	jobs        job.Store
	runner      tx.Runner
	recorder    *audit.Recorder
	logger      *zap.Logger
	metrics     *metrics.Metrics
}

func NewService(
	matches Store,
	connections connection.Store,
	profiles profile.Store,
	jobs job.Store,
	runner tx.Runner,
	recorder *audit.Recorder,
	logger *zap.Logger,
	m *metrics.Metrics,
) *Service {
	return &Service{
		matches:     matches,
		connections: connections,
		profiles:    profiles,
		jobs:        jobs,
		runner:      runner,
		recorder:    recorder,
		logger:      logger,
		metrics:     m,
	}
}

// Result is the outcome of one scoring run. An ineligible pair or a score
// below the persistence threshold is a normal outcome, not an error; Match is
// nil in both cases.
type Result struct {
	Eligible  bool
	Score     int
	Breakdown Breakdown
	Match     *Match
}

// ComputeMatch scores one candidate/job pair. When a pending match for the
// pair already exists it is recalculated instead of duplicated.
func (s *Service) ComputeMatch(ctx context.Context, candidateID domain.CandidateID, jobID domain.JobID) (Result, error) {
	p, err := s.profiles.FindByID(ctx, candidateID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return Result{}, dErrors.New(dErrors.CodeNotFound, "candidate not found")
	}
	if err != nil {
		return Result{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load candidate")
	}
	j, err := s.jobs.FindByID(ctx, jobID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return Result{}, dErrors.New(dErrors.CodeNotFound, "job not found")
	}
	if err != nil {
		return Result{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load job")
	}

	if existing, err := s.matches.FindPendingPair(ctx, candidateID, jobID); err == nil {
		return s.recalculate(ctx, existing, p, j)
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return Result{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up pending match")
	}

	return s.score(ctx, p, j)
}

func (s *Service) score(ctx context.Context, p profile.CandidateProfile, j job.Job) (Result, error) {
	if !Eligible(p, j) {
		return Result{}, nil
	}
	if s.metrics != nil {
		s.metrics.MatchesScored.Inc()
	}

	total, breakdown := Score(p, j)
	res := Result{Eligible: true, Score: total, Breakdown: breakdown}
	if total < Threshold {
		// Computed but discarded; no side effect below the threshold.
		return res, nil
	}

	now := time.Now()
	m := Match{
		ID:            domain.NewMatchID(),
		CandidateID:   p.ID,
		JobID:         j.ID,
		Score:         total,
		Breakdown:     breakdown,
		Justification: Justify(breakdown),
		Snapshot:      NewSnapshot(p),
		Status:        StatusPending,
		CreatedAt:     now,
		ExpiresAt:     now.Add(TTL),
	}
	if err := s.matches.Save(ctx, m); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			// A concurrent scoring run won the pending slot for this pair.
			return res, nil
		}
		return Result{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist match")
	}

	if s.metrics != nil {
		s.metrics.MatchesPersisted.Inc()
	}
	s.recorder.Record(ctx, audit.Event{
		Actor:       "scoring-engine",
		Kind:        audit.EventMatchScored,
		Subject:     p.ID.String(),
		Sensitivity: domain.SensitivityNormal,
	})

	res.Match = &m
	return res, nil
}

// recalculate re-scores an existing pending match against the live profile.
// The breakdown and justification are rewritten in place; the snapshot taken
// at first scoring is never refreshed. Falling below the threshold forces the
// match to expired rather than leaving it stale.
func (s *Service) recalculate(ctx context.Context, m Match, p profile.CandidateProfile, j job.Job) (Result, error) {
	if !Eligible(p, j) {
		if err := s.expireOne(ctx, m); err != nil {
			return Result{}, err
		}
		return Result{}, nil
	}

	total, breakdown := Score(p, j)
	res := Result{Eligible: true, Score: total, Breakdown: breakdown}
	if total < Threshold {
		if err := s.expireOne(ctx, m); err != nil {
			return Result{}, err
		}
		return res, nil
	}

	m.Score = total
	m.Breakdown = breakdown
	m.Justification = Justify(breakdown)
	if err := s.matches.Save(ctx, m); err != nil {
		return Result{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update match")
	}
	res.Match = &m
	return res, nil
}

// Recalculate re-runs scoring for a stored pending match by id.
func (s *Service) Recalculate(ctx context.Context, id domain.MatchID) (Result, error) {
	m, err := s.load(ctx, id)
	if err != nil {
		return Result{}, err
	}
	if m.Status != StatusPending {
		return Result{}, dErrors.New(dErrors.CodeInvalidState, "only pending matches can be recalculated")
	}
	return s.ComputeMatch(ctx, m.CandidateID, m.JobID)
}

// BatchFailure records one pair's failure inside a batch run.
type BatchFailure struct {
	CandidateID domain.CandidateID
	JobID       domain.JobID
	Err         error
}

// BatchResult aggregates a batch scoring run. Failures are per pair; one
// pair's failure never aborts the rest.
type BatchResult struct {
	Considered int
	Persisted  int
	Failures   []BatchFailure
}

// MatchJob scores every eligible candidate against one job.
func (s *Service) MatchJob(ctx context.Context, jobID domain.JobID) (BatchResult, error) {
	candidates, err := s.profiles.ListEligible(ctx)
	if err != nil {
		return BatchResult{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list eligible candidates")
	}

	pairs := make([]pair, len(candidates))
	for i, c := range candidates {
		pairs[i] = pair{candidateID: c.ID, jobID: jobID}
	}
	return s.runBatch(ctx, pairs), nil
}

// MatchCandidate scores one candidate against every open job.
func (s *Service) MatchCandidate(ctx context.Context, candidateID domain.CandidateID) (BatchResult, error) {
	jobs, err := s.jobs.ListOpen(ctx)
	if err != nil {
		return BatchResult{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list open jobs")
	}

	pairs := make([]pair, len(jobs))
	for i, j := range jobs {
		pairs[i] = pair{candidateID: candidateID, jobID: j.ID}
	}
	return s.runBatch(ctx, pairs), nil
}

type pair struct {
	candidateID domain.CandidateID
	jobID       domain.JobID
}

func (s *Service) runBatch(ctx context.Context, pairs []pair) BatchResult {
	var (
		mu  sync.Mutex
		res = BatchResult{Considered: len(pairs)}
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(batchConcurrency)
	for _, pr := range pairs {
		g.Go(func() error {
			r, err := s.ComputeMatch(gctx, pr.candidateID, pr.jobID)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				res.Failures = append(res.Failures, BatchFailure{
					CandidateID: pr.candidateID, JobID: pr.jobID, Err: err,
				})
				return nil
			}
			if r.Match != nil {
				res.Persisted++
			}
			return nil
		})
	}
	_ = g.Wait() // workers only report through res

	if len(res.Failures) > 0 {
		s.logger.Warn("batch scoring completed with failures",
			zap.Int("considered", res.Considered),
			zap.Int("persisted", res.Persisted),
			zap.Int("failed", len(res.Failures)),
		)
	}
	return res
}

// Get returns a match by id.
func (s *Service) Get(ctx context.Context, id domain.MatchID) (Match, error) {
	return s.load(ctx, id)
}

// Accept flips a pending match to accepted and creates its connection. The
// two writes are one atomic unit; a match accepted without a connection, or
// the reverse, never becomes visible.
func (s *Service) Accept(ctx context.Context, actor domain.CandidateID, id domain.MatchID, ov connection.Overrides) (Match, connection.Connection, error) {
	m, err := s.load(ctx, id)
	if err != nil {
		return Match{}, connection.Connection{}, err
	}
	if m.CandidateID != actor {
		return Match{}, connection.Connection{}, dErrors.New(dErrors.CodeUnauthorized, "only the matched candidate may accept")
	}

	now := time.Now()
	if m.Status == StatusPending && now.After(m.ExpiresAt) {
		if err := s.expireOne(ctx, m); err != nil {
			return Match{}, connection.Connection{}, err
		}
		return Match{}, connection.Connection{}, dErrors.New(dErrors.CodeInvalidState, "match has expired")
	}

	p, err := s.profiles.FindByID(ctx, m.CandidateID)
	if err != nil {
		return Match{}, connection.Connection{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load candidate")
	}
	j, err := s.jobs.FindByID(ctx, m.JobID)
	if err != nil {
		return Match{}, connection.Connection{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load job")
	}

	conn := connection.New(m.ID, p, ov, now)
	conn.JobID = m.JobID
	conn.OrganizationID = j.OrganizationID

	err = s.runner.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.matches.UpdateStatus(ctx, m.ID, StatusPending, StatusAccepted, "", now); err != nil {
			return err
		}
		return s.connections.Save(ctx, conn)
	})
	if errors.Is(err, sentinel.ErrInvalidState) || errors.Is(err, sentinel.ErrConflict) {
		return Match{}, connection.Connection{}, dErrors.New(dErrors.CodeInvalidState, "match is not pending")
	}
	if err != nil {
		return Match{}, connection.Connection{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to accept match")
	}

	m.Status = StatusAccepted
	m.ResolvedAt = &now

	if s.metrics != nil {
		s.metrics.ConnectionsCreated.Inc()
	}
	s.recorder.Record(ctx, audit.Event{
		Actor:       actor.String(),
		Kind:        audit.EventMatchAccepted,
		Subject:     m.CandidateID.String(),
		Sensitivity: domain.SensitivityNormal,
	})
	s.recorder.Record(ctx, audit.Event{
		Actor:       actor.String(),
		Kind:        audit.EventConsentGranted,
		Subject:     m.CandidateID.String(),
		Fields:      fieldNames(conn.SharedData),
		Sensitivity: domain.SensitivityHigh,
	})
	return m, conn, nil
}

func fieldNames(fields []domain.ProfileField) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = string(f)
	}
	return out
}

// Reject flips a pending match to rejected. The optional reason stays private
// to the candidate.
func (s *Service) Reject(ctx context.Context, actor domain.CandidateID, id domain.MatchID, reason string) (Match, error) {
	m, err := s.load(ctx, id)
	if err != nil {
		return Match{}, err
	}
	if m.CandidateID != actor {
		return Match{}, dErrors.New(dErrors.CodeUnauthorized, "only the matched candidate may reject")
	}

	now := time.Now()
	err = s.matches.UpdateStatus(ctx, m.ID, StatusPending, StatusRejected, reason, now)
	if errors.Is(err, sentinel.ErrInvalidState) {
		return Match{}, dErrors.New(dErrors.CodeInvalidState, "match is not pending")
	}
	if err != nil {
		return Match{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to reject match")
	}

	m.Status = StatusRejected
	m.RejectionReason = reason
	m.ResolvedAt = &now

	s.recorder.Record(ctx, audit.Event{
		Actor:       actor.String(),
		Kind:        audit.EventMatchRejected,
		Subject:     m.CandidateID.String(),
		Sensitivity: domain.SensitivityNormal,
	})
	return m, nil
}

// ExpireSweep flips every overdue pending match to expired. Idempotent under
// at-least-once scheduling.
func (s *Service) ExpireSweep(ctx context.Context, now time.Time) (int, error) {
	n, err := s.matches.ExpireDue(ctx, now)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "expiry sweep failed")
	}
	if n > 0 {
		if s.metrics != nil {
			s.metrics.MatchesExpired.Add(float64(n))
		}
		s.logger.Info("expired overdue matches", zap.Int("count", n))
	}
	return n, nil
}

// ExpireAllForJob expires every pending match of a closed job. Accepted and
// rejected matches are untouched.
func (s *Service) ExpireAllForJob(ctx context.Context, id domain.JobID) (int, error) {
	pending, err := s.matches.ListPendingByJob(ctx, id)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list pending matches")
	}
	return s.expireAll(ctx, pending)
}

// ExpireAllForCandidate expires every pending match of a deactivated
// candidate.
func (s *Service) ExpireAllForCandidate(ctx context.Context, id domain.CandidateID) (int, error) {
	pending, err := s.matches.ListPendingByCandidate(ctx, id)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list pending matches")
	}
	return s.expireAll(ctx, pending)
}

func (s *Service) expireAll(ctx context.Context, pending []Match) (int, error) {
	expired := 0
	var failures []error
	for _, m := range pending {
		if err := s.expireOne(ctx, m); err != nil {
			failures = append(failures, err)
			continue
		}
		expired++
	}
	return expired, errors.Join(failures...)
}

func (s *Service) expireOne(ctx context.Context, m Match) error {
	err := s.matches.UpdateStatus(ctx, m.ID, StatusPending, StatusExpired, "", time.Now())
	if errors.Is(err, sentinel.ErrInvalidState) {
		return nil // already resolved elsewhere; expiry is idempotent
	}
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to expire match")
	}
	if s.metrics != nil {
		s.metrics.MatchesExpired.Inc()
	}
	s.recorder.Record(ctx, audit.Event{
		Actor:       "lifecycle",
		Kind:        audit.EventMatchExpired,
		Subject:     m.CandidateID.String(),
		Sensitivity: domain.SensitivityNormal,
	})
	return nil
}

func (s *Service) load(ctx context.Context, id domain.MatchID) (Match, error) {
	m, err := s.matches.FindByID(ctx, id)
	if errors.Is(err, sentinel.ErrNotFound) {
		return Match{}, dErrors.New(dErrors.CodeNotFound, "match not found")
	}
	if err != nil {
		return Match{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load match")
	}
	return m, nil
}
