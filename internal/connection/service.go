package connection

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"workbridge/internal/audit"
	"workbridge/internal/platform/metrics"
	"workbridge/internal/profile"
	"workbridge/pkg/domain"
	dErrors "workbridge/pkg/domain-errors"
	"workbridge/pkg/platform/sentinel"
)

// WithdrawalNotice is the only information a counterparty receives about a
// revocation. The private reason never leaves the candidate's record.
const WithdrawalNotice = "candidate withdrew"

// Service is the consent ledger and disclosure resolver. It depends on the
// profile and connection stores only; it never calls upward into the match
// lifecycle.
type Service struct {
	connections Store
	profiles    profile.Store
	recorder    *audit.Recorder
	logger      *zap.Logger
	metrics     *metrics.Metrics
}

func NewService(connections Store, profiles profile.Store, recorder *audit.Recorder, logger *zap.Logger, m *metrics.Metrics) *Service {
	return &Service{
		connections: connections,
		profiles:    profiles,
		recorder:    recorder,
		logger:      logger,
		metrics:     m,
	}
}

// Get returns the connection record itself.
func (s *Service) Get(ctx context.Context, id domain.ConnectionID) (Connection, error) {
	return s.load(ctx, id)
}

// ResolveVisibleFields computes the set of fields a counterparty may read
// right now. Recomputed on every call from the stored grant and flags; a
// previously returned set is never trusted.
func (s *Service) ResolveVisibleFields(ctx context.Context, id domain.ConnectionID) ([]domain.ProfileField, error) {
	c, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !c.Active() {
		return nil, dErrors.New(dErrors.CodeInvalidState, "connection is revoked")
	}

	p, err := s.profiles.FindByID(ctx, c.CandidateID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load candidate profile")
	}
	return visibleFields(c, p), nil
}

// visibleFields filters the shared set through the effective flags. Diagnosis
// needs both set membership and the flag; the professional contact needs the
// flag and an actually assigned professional.
func visibleFields(c Connection, p profile.CandidateProfile) []domain.ProfileField {
	out := make([]domain.ProfileField, 0, len(c.SharedData))
	for _, f := range c.SharedData {
		switch f {
		case domain.FieldDiagnosis:
			if !c.ShareDiagnosis {
				continue
			}
		case domain.FieldProfessionalContact:
			if !c.ShareProfessionalContact || !p.HasProfessional() {
				continue
			}
		}
		out = append(out, f)
	}
	return out
}

// SharedProfile is the partial profile a counterparty is authorized to see.
type SharedProfile struct {
	ConnectionID domain.ConnectionID
	Stage        domain.PipelineStage
	Fields       map[domain.ProfileField]any
}

// ReadSharedProfile returns the candidate profile restricted to the resolved
// field set. Every read is audited against the candidate.
func (s *Service) ReadSharedProfile(ctx context.Context, actor string, id domain.ConnectionID) (SharedProfile, error) {
	c, err := s.load(ctx, id)
	if err != nil {
		return SharedProfile{}, err
	}
	if !c.Active() {
		return SharedProfile{}, dErrors.New(dErrors.CodeInvalidState, "connection is revoked")
	}

	p, err := s.profiles.FindByID(ctx, c.CandidateID)
	if err != nil {
		return SharedProfile{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load candidate profile")
	}

	visible := visibleFields(c, p)
	shared := SharedProfile{
		ConnectionID: c.ID,
		Stage:        c.Stage,
		Fields:       make(map[domain.ProfileField]any, len(visible)),
	}

	sensitivity := domain.SensitivityNormal
	touched := make([]string, 0, len(visible))
	for _, f := range visible {
		shared.Fields[f] = fieldValue(p, f)
		touched = append(touched, string(f))
		if domain.SensitivityOf(f) == domain.SensitivityHigh {
			sensitivity = domain.SensitivityHigh
		}
	}

	if s.metrics != nil {
		s.metrics.SharedProfileReads.Inc()
	}
	s.recorder.Record(ctx, audit.Event{
		Actor:       actor,
		Kind:        audit.EventSharedProfileRead,
		Subject:     c.CandidateID.String(),
		Fields:      touched,
		Sensitivity: sensitivity,
	})
	return shared, nil
}

func fieldValue(p profile.CandidateProfile, f domain.ProfileField) any {
	switch f {
	case domain.FieldName:
		return p.Name
	case domain.FieldContact:
		return p.Contact
	case domain.FieldSkills:
		return p.Skills
	case domain.FieldAssessmentResults:
		return p.AssessmentResults
	case domain.FieldDiagnosis:
		return p.Diagnoses
	case domain.FieldProfessionalContact:
		return p.ProfessionalContact
	case domain.FieldAccommodations:
		return p.AccommodationNeeds
	case domain.FieldExperience:
		return p.Experience
	case domain.FieldEducation:
		return p.Education
	default:
		return nil
	}
}

// UpdateSharedFields edits the shared set on an active connection. Adding a
// field re-grants it; removing one strips it and flips the matching privacy
// flag off even when the caller only meant to edit the set.
func (s *Service) UpdateSharedFields(ctx context.Context, actor domain.CandidateID, id domain.ConnectionID, add, remove []domain.ProfileField) (Connection, error) {
	c, err := s.load(ctx, id)
	if err != nil {
		return Connection{}, err
	}
	if c.CandidateID != actor {
		return Connection{}, dErrors.New(dErrors.CodeUnauthorized, "only the granting candidate may edit shared fields")
	}
	if !c.Active() {
		return Connection{}, dErrors.New(dErrors.CodeInvalidState, "connection is revoked")
	}

	for _, f := range append(append([]domain.ProfileField{}, add...), remove...) {
		if !f.IsValid() {
			return Connection{}, dErrors.New(dErrors.CodeInvalidInput, "unknown profile field: "+f.String())
		}
	}

	for _, f := range add {
		if !c.HasField(f) {
			c.SharedData = append(c.SharedData, f)
		}
		switch f {
		case domain.FieldDiagnosis:
			c.ShareDiagnosis = true
		case domain.FieldProfessionalContact:
			c.ShareProfessionalContact = true
		}
	}
	for _, f := range remove {
		c.SharedData = without(c.SharedData, f)
		switch f {
		case domain.FieldDiagnosis:
			c.ShareDiagnosis = false
		case domain.FieldProfessionalContact:
			c.ShareProfessionalContact = false
		}
	}

	if err := s.connections.Save(ctx, c); err != nil {
		return Connection{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update shared fields")
	}

	s.recorder.Record(ctx, audit.Event{
		Actor:       actor.String(),
		Kind:        audit.EventConsentFieldsUpdated,
		Subject:     c.CandidateID.String(),
		Fields:      fieldNames(c.SharedData),
		Sensitivity: domain.SensitivityHigh,
	})
	return c, nil
}

func without(fields []domain.ProfileField, f domain.ProfileField) []domain.ProfileField {
	out := fields[:0]
	for _, x := range fields {
		if x != f {
			out = append(out, x)
		}
	}
	return out
}

func fieldNames(fields []domain.ProfileField) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = string(f)
	}
	return out
}

// Revoke withdraws the grant. Only the granting candidate may revoke, only
// while the connection is active, and never once the pipeline has reached the
// hired stage.
func (s *Service) Revoke(ctx context.Context, actor domain.CandidateID, id domain.ConnectionID, reason string) (Connection, error) {
	c, err := s.load(ctx, id)
	if err != nil {
		return Connection{}, err
	}
	if c.CandidateID != actor {
		return Connection{}, dErrors.New(dErrors.CodeUnauthorized, "only the granting candidate may revoke")
	}
	if c.Stage.Terminal() {
		return Connection{}, dErrors.New(dErrors.CodeForbidden, "consent cannot be withdrawn after hire")
	}
	if !c.Active() {
		return Connection{}, dErrors.New(dErrors.CodeInvalidState, "connection is already revoked")
	}

	now := time.Now()
	c.Status = StatusRevoked
	c.RevocationReason = reason
	c.RevokedAt = &now
	if err := s.connections.Save(ctx, c); err != nil {
		return Connection{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to revoke connection")
	}

	if s.metrics != nil {
		s.metrics.ConnectionsRevoked.Inc()
	}
	s.logger.Info("connection revoked",
		zap.String("connection_id", id.String()),
		zap.String("counterparty_notice", WithdrawalNotice),
	)
	s.recorder.Record(ctx, audit.Event{
		Actor:       actor.String(),
		Kind:        audit.EventConsentRevoked,
		Subject:     c.CandidateID.String(),
		Sensitivity: domain.SensitivityHigh,
	})
	return c, nil
}

// RevokeAllForCandidate revokes every active connection of the candidate.
// Each revocation is attempted independently; failures are collected into one
// aggregate error instead of aborting the sweep.
func (s *Service) RevokeAllForCandidate(ctx context.Context, id domain.CandidateID) error {
	active, err := s.connections.ListActiveByCandidate(ctx, id)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to list active connections")
	}

	var failures []error
	for _, c := range active {
		if _, err := s.Revoke(ctx, id, c.ID, ""); err != nil {
			failures = append(failures, err)
			s.logger.Warn("revocation sweep item failed",
				zap.String("connection_id", c.ID.String()), zap.Error(err))
		}
	}
	return errors.Join(failures...)
}

// UpdateStage advances the counterparty's pipeline tracking tag. Only the
// organization behind the connection's job may advance it, and the stage only
// ever moves forward. Reaching the hired stage permanently blocks revocation,
// so the actor check here is load-bearing.
func (s *Service) UpdateStage(ctx context.Context, actor domain.OrganizationID, id domain.ConnectionID, stage domain.PipelineStage) (Connection, error) {
	c, err := s.load(ctx, id)
	if err != nil {
		return Connection{}, err
	}
	if c.OrganizationID != actor {
		return Connection{}, dErrors.New(dErrors.CodeUnauthorized, "only the counterparty organization may advance the stage")
	}
	if !c.Active() {
		return Connection{}, dErrors.New(dErrors.CodeInvalidState, "connection is revoked")
	}
	if !c.Stage.Before(stage) {
		return Connection{}, dErrors.New(dErrors.CodeInvalidState, "pipeline stage cannot move backwards")
	}

	c.Stage = stage
	if err := s.connections.Save(ctx, c); err != nil {
		return Connection{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update stage")
	}
	return c, nil
}

func (s *Service) load(ctx context.Context, id domain.ConnectionID) (Connection, error) {
	c, err := s.connections.FindByID(ctx, id)
	if errors.Is(err, sentinel.ErrNotFound) {
		return Connection{}, dErrors.New(dErrors.CodeNotFound, "connection not found")
	}
	if err != nil {
		return Connection{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load connection")
	}
	return c, nil
}
