package job

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"workbridge/internal/audit"
	"workbridge/internal/classifier"
	"workbridge/pkg/domain"
	dErrors "workbridge/pkg/domain-errors"
	"workbridge/pkg/platform/sentinel"
)

// MatchCascader expires every pending match on a job. The match service
// satisfies this; the narrow interface keeps job from importing the lifecycle
// package.
type MatchCascader interface {
	ExpireAllForJob(ctx context.Context, id domain.JobID) (int, error)
}

// Service owns job posting lifecycle. Every posting passes inclusive-language
// review before it is stored; postings without accommodations never get that
// far.
type Service struct {
	store    Store
	recorder *audit.Recorder
	reviewer *classifier.Service
	logger   *zap.Logger

	cascader MatchCascader
}

func NewService(store Store, recorder *audit.Recorder, reviewer *classifier.Service, logger *zap.Logger) *Service {
	return &Service{
		store:    store,
		recorder: recorder,
		reviewer: reviewer,
		logger:   logger,
	}
}

// SetCascade wires the job-close cascade at composition time.
func (s *Service) SetCascade(c MatchCascader) { s.cascader = c }

// NewJobParams is the raw posting as submitted by an organization.
type NewJobParams struct {
	OrganizationID domain.OrganizationID
	Title          string
	Description    string
	RequiredSkills []string
	Accommodations []string
	WorkMode       string
	Location       string
	TeamSize       string
}

// Create validates and publishes a posting. Accommodation validation runs
// before any review or scoring: a posting with no accommodations is rejected
// outright.
func (s *Service) Create(ctx context.Context, params NewJobParams) (Job, error) {
	if params.OrganizationID.IsNil() {
		return Job{}, dErrors.New(dErrors.CodeInvalidInput, "organization id is required")
	}

	j := Normalize(Job{
		ID:             domain.NewJobID(),
		OrganizationID: params.OrganizationID,
		Title:          params.Title,
		Description:    params.Description,
		RequiredSkills: params.RequiredSkills,
		Accommodations: params.Accommodations,
		WorkMode:       params.WorkMode,
		Location:       params.Location,
		TeamSize:       params.TeamSize,
		Status:         StatusOpen,
		CreatedAt:      time.Now(),
	})

	if j.Title == "" {
		return Job{}, dErrors.New(dErrors.CodeInvalidInput, "title is required")
	}
	if len(j.Accommodations) == 0 {
		return Job{}, dErrors.New(dErrors.CodeInvalidInput, "at least one accommodation is required")
	}

	verdict := s.reviewer.Classify(ctx, classifier.Posting{
		Title:          j.Title,
		Description:    j.Description,
		Accommodations: j.Accommodations,
	})
	j.InclusivityScore = verdict.Score
	j.InclusivityIssues = verdict.Issues

	if err := s.store.Save(ctx, j); err != nil {
		return Job{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save job")
	}

	s.logger.Info("job posting created",
		zap.String("job_id", j.ID.String()),
		zap.Int("inclusivity_score", verdict.Score),
		zap.String("verdict_source", verdict.Source),
	)
	s.recorder.Record(ctx, audit.Event{
		Actor:       j.OrganizationID.String(),
		Kind:        audit.EventJobCreated,
		Subject:     j.ID.String(),
		Sensitivity: domain.SensitivityNormal,
	})
	return j, nil
}

// Get returns a posting by id.
func (s *Service) Get(ctx context.Context, id domain.JobID) (Job, error) {
	return s.load(ctx, id)
}

// Close marks a posting closed and expires all of its pending matches.
// Resolved matches and existing connections are untouched.
func (s *Service) Close(ctx context.Context, actor domain.OrganizationID, id domain.JobID) error {
	j, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if j.OrganizationID != actor {
		return dErrors.New(dErrors.CodeUnauthorized, "only the posting organization may close a job")
	}
	if !j.Open() {
		return nil // idempotent
	}

	now := time.Now()
	j.Status = StatusClosed
	j.ClosedAt = &now
	if err := s.store.Save(ctx, j); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to close job")
	}

	s.recorder.Record(ctx, audit.Event{
		Actor:       actor.String(),
		Kind:        audit.EventJobClosed,
		Subject:     id.String(),
		Sensitivity: domain.SensitivityNormal,
	})

	if s.cascader != nil {
		n, err := s.cascader.ExpireAllForJob(ctx, id)
		if err != nil {
			s.logger.Error("match expiry cascade failed after job close",
				zap.String("job_id", id.String()), zap.Error(err))
		} else if n > 0 {
			s.logger.Info("expired pending matches for closed job",
				zap.String("job_id", id.String()), zap.Int("count", n))
		}
	}
	return nil
}

func (s *Service) load(ctx context.Context, id domain.JobID) (Job, error) {
	j, err := s.store.FindByID(ctx, id)
	if errors.Is(err, sentinel.ErrNotFound) {
		return Job{}, dErrors.New(dErrors.CodeNotFound, "job not found")
	}
	if err != nil {
		return Job{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load job")
	}
	return j, nil
}
