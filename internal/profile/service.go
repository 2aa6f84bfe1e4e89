package profile

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"workbridge/internal/audit"
	"workbridge/pkg/domain"
	dErrors "workbridge/pkg/domain-errors"
	"workbridge/pkg/platform/sentinel"
	pstrings "workbridge/pkg/platform/strings"
)

// MatchExpirer expires all pending matches of a deactivated candidate. The
// match service satisfies this; the narrow interface keeps profile from
// depending on the lifecycle package.
type MatchExpirer interface {
	ExpireAllForCandidate(ctx context.Context, id domain.CandidateID) (int, error)
}

// ConsentRevoker revokes all active connections of a candidate. Satisfied by
// the consent ledger.
type ConsentRevoker interface {
	RevokeAllForCandidate(ctx context.Context, id domain.CandidateID) error
}

// Service owns candidate profile lifecycle: creation with restrictive privacy
// defaults, owner-only mutation, and erasure with PII scrubbing.
type Service struct {
	store    Store
	recorder *audit.Recorder
	logger   *zap.Logger
	defaults PrivacySettings

	expirer MatchExpirer
	revoker ConsentRevoker
}

func NewService(store Store, recorder *audit.Recorder, logger *zap.Logger, defaults PrivacySettings) *Service {
	return &Service{
		store:    store,
		recorder: recorder,
		logger:   logger,
		defaults: defaults,
	}
}

// SetCascades wires the deactivation cascades. Called at composition time;
// nil cascades are tolerated (no-op) so the service stays testable alone.
func (s *Service) SetCascades(expirer MatchExpirer, revoker ConsentRevoker) {
	s.expirer = expirer
	s.revoker = revoker
}

// NewProfileParams is the caller-supplied slice of a new profile. Privacy
// flags not present here fall back to the service defaults.
type NewProfileParams struct {
	Name    string
	Contact string

	Location           string
	Skills             []string
	AccommodationNeeds []string
	Experience         []string
	Education          []string
	Preferences        Preferences

	Diagnoses            []string
	MedicalHistory       []string
	AssignedProfessional string
	ProfessionalContact  string

	// Overrides over the default privacy settings; nil keeps the default.
	Visible                  *bool
	ShareDiagnosis           *bool
	ShareProfessionalContact *bool
}

// Create registers a profile. The effective privacy configuration is the
// immutable restrictive default merged functionally with the explicit
// overrides, computed once here.
func (s *Service) Create(ctx context.Context, params NewProfileParams) (CandidateProfile, error) {
	if params.Name == "" {
		return CandidateProfile{}, dErrors.New(dErrors.CodeInvalidInput, "name is required")
	}
	if params.Contact == "" {
		return CandidateProfile{}, dErrors.New(dErrors.CodeInvalidInput, "contact is required")
	}

	privacy := s.defaults
	if params.Visible != nil {
		privacy.Visible = *params.Visible
	}
	if params.ShareDiagnosis != nil {
		privacy.ShareDiagnosis = *params.ShareDiagnosis
	}
	if params.ShareProfessionalContact != nil {
		privacy.ShareProfessionalContact = *params.ShareProfessionalContact
	}

	now := time.Now()
	p := CandidateProfile{
		ID:                   domain.NewCandidateID(),
		Name:                 params.Name,
		Contact:              params.Contact,
		Location:             params.Location,
		Skills:               pstrings.DedupeAndTrim(params.Skills),
		AccommodationNeeds:   pstrings.DedupeAndTrim(params.AccommodationNeeds),
		Experience:           pstrings.DedupeAndTrim(params.Experience),
		Education:            pstrings.DedupeAndTrim(params.Education),
		Preferences:          params.Preferences.Normalize(),
		Diagnoses:            pstrings.DedupeAndTrim(params.Diagnoses),
		MedicalHistory:       params.MedicalHistory,
		AssignedProfessional: params.AssignedProfessional,
		ProfessionalContact:  params.ProfessionalContact,
		Privacy:              privacy,
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	if err := s.store.Save(ctx, p); err != nil {
		return CandidateProfile{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save profile")
	}

	s.recorder.Record(ctx, audit.Event{
		Actor:       p.ID.String(),
		Kind:        audit.EventProfileWrite,
		Subject:     p.ID.String(),
		Sensitivity: domain.SensitivityHigh,
	})
	return p, nil
}

// Get returns the full profile to its owner only.
func (s *Service) Get(ctx context.Context, actor, id domain.CandidateID) (CandidateProfile, error) {
	if actor != id {
		return CandidateProfile{}, dErrors.New(dErrors.CodeUnauthorized, "only the profile owner may read the full profile")
	}
	p, err := s.load(ctx, id)
	if err != nil {
		return CandidateProfile{}, err
	}

	s.recorder.Record(ctx, audit.Event{
		Actor:       actor.String(),
		Kind:        audit.EventProfileRead,
		Subject:     id.String(),
		Sensitivity: domain.SensitivityHigh,
	})
	return p, nil
}

// UpdateParams are the owner-mutable attributes. Nil leaves a field unchanged.
type UpdateParams struct {
	Location           *string
	Skills             []string
	AccommodationNeeds []string
	Experience         []string
	Education          []string
	Preferences        *Preferences

	AssessmentCompleted *bool
	AssessmentResults   *string

	Diagnoses      []string
	MedicalHistory []string

	Visible                  *bool
	ShareDiagnosis           *bool
	ShareProfessionalContact *bool
}

// Update mutates the profile; only its owner may do so.
func (s *Service) Update(ctx context.Context, actor, id domain.CandidateID, params UpdateParams) (CandidateProfile, error) {
	if actor != id {
		return CandidateProfile{}, dErrors.New(dErrors.CodeUnauthorized, "only the profile owner may update the profile")
	}
	p, err := s.load(ctx, id)
	if err != nil {
		return CandidateProfile{}, err
	}
	if p.Erased() {
		return CandidateProfile{}, dErrors.New(dErrors.CodeInvalidState, "profile has been erased")
	}

	var touched []string
	if params.Location != nil {
		p.Location = *params.Location
		touched = append(touched, "location")
	}
	if params.Skills != nil {
		p.Skills = pstrings.DedupeAndTrim(params.Skills)
		touched = append(touched, string(domain.FieldSkills))
	}
	if params.AccommodationNeeds != nil {
		p.AccommodationNeeds = pstrings.DedupeAndTrim(params.AccommodationNeeds)
		touched = append(touched, string(domain.FieldAccommodations))
	}
	if params.Experience != nil {
		p.Experience = pstrings.DedupeAndTrim(params.Experience)
		touched = append(touched, string(domain.FieldExperience))
	}
	if params.Education != nil {
		p.Education = pstrings.DedupeAndTrim(params.Education)
		touched = append(touched, string(domain.FieldEducation))
	}
	if params.Preferences != nil {
		p.Preferences = params.Preferences.Normalize()
		touched = append(touched, "preferences")
	}
	if params.AssessmentCompleted != nil {
		p.AssessmentCompleted = *params.AssessmentCompleted
		touched = append(touched, "assessmentCompleted")
	}
	if params.AssessmentResults != nil {
		p.AssessmentResults = *params.AssessmentResults
		touched = append(touched, string(domain.FieldAssessmentResults))
	}
	if params.Diagnoses != nil {
		p.Diagnoses = pstrings.DedupeAndTrim(params.Diagnoses)
		touched = append(touched, string(domain.FieldDiagnosis))
	}
	if params.MedicalHistory != nil {
		p.MedicalHistory = params.MedicalHistory
		touched = append(touched, "medicalHistory")
	}
	if params.Visible != nil {
		p.Privacy.Visible = *params.Visible
		touched = append(touched, "visible")
	}
	if params.ShareDiagnosis != nil {
		p.Privacy.ShareDiagnosis = *params.ShareDiagnosis
		touched = append(touched, "shareDiagnosis")
	}
	if params.ShareProfessionalContact != nil {
		p.Privacy.ShareProfessionalContact = *params.ShareProfessionalContact
		touched = append(touched, "shareProfessionalContact")
	}

	p.UpdatedAt = time.Now()
	if err := s.store.Save(ctx, p); err != nil {
		return CandidateProfile{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update profile")
	}

	s.recorder.Record(ctx, audit.Event{
		Actor:       actor.String(),
		Kind:        audit.EventProfileWrite,
		Subject:     id.String(),
		Fields:      touched,
		Sensitivity: domain.SensitivityHigh,
	})
	return p, nil
}

// AssignProfessional sets the assigned-professional reference. Modeled as an
// explicit grant so the audit trail shows who attached the professional.
func (s *Service) AssignProfessional(ctx context.Context, actor, id domain.CandidateID, reference, contact string) error {
	if actor != id {
		return dErrors.New(dErrors.CodeUnauthorized, "only the profile owner may assign a professional")
	}
	if reference == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "professional reference is required")
	}
	p, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	p.AssignedProfessional = reference
	p.ProfessionalContact = contact
	p.UpdatedAt = time.Now()
	if err := s.store.Save(ctx, p); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to assign professional")
	}

	s.recorder.Record(ctx, audit.Event{
		Actor:       actor.String(),
		Kind:        audit.EventProfileWrite,
		Subject:     id.String(),
		Fields:      []string{string(domain.FieldProfessionalContact)},
		Sensitivity: domain.SensitivityHigh,
	})
	return nil
}

// Erase scrubs PII irreversibly while keeping the record for audit linkage,
// then cascades: every pending match expires and every active connection is
// revoked. Cascade failures are logged, not propagated; the scrub itself is
// the point of no return and has already happened.
func (s *Service) Erase(ctx context.Context, actor, id domain.CandidateID) error {
	if actor != id {
		return dErrors.New(dErrors.CodeUnauthorized, "only the profile owner may request erasure")
	}
	p, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if p.Erased() {
		return nil // idempotent
	}

	p.Scrub(time.Now())
	if err := s.store.Save(ctx, p); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to erase profile")
	}

	s.recorder.Record(ctx, audit.Event{
		Actor:       actor.String(),
		Kind:        audit.EventProfileErased,
		Subject:     id.String(),
		Sensitivity: domain.SensitivityHigh,
	})

	if s.expirer != nil {
		if _, err := s.expirer.ExpireAllForCandidate(ctx, id); err != nil {
			s.logger.Error("match expiry cascade failed after erasure",
				zap.String("candidate_id", id.String()), zap.Error(err))
		}
	}
	if s.revoker != nil {
		if err := s.revoker.RevokeAllForCandidate(ctx, id); err != nil {
			s.logger.Error("connection revocation cascade failed after erasure",
				zap.String("candidate_id", id.String()), zap.Error(err))
		}
	}
	return nil
}

func (s *Service) load(ctx context.Context, id domain.CandidateID) (CandidateProfile, error) {
	p, err := s.store.FindByID(ctx, id)
	if errors.Is(err, sentinel.ErrNotFound) {
		return CandidateProfile{}, dErrors.New(dErrors.CodeNotFound, "profile not found")
	}
	if err != nil {
		return CandidateProfile{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load profile")
	}
	return p, nil
}
