// Package connection owns the consent grant created when a candidate accepts
// a match, and the disclosure resolver that filters every counterparty read
// down to the granted field set.
package connection

import (
	"time"

	"workbridge/internal/profile"
	"workbridge/pkg/domain"
)

type Status string

const (
	StatusActive  Status = "active"
	StatusRevoked Status = "revoked"
)

// Overrides are connection-specific privacy flags supplied at accept time.
// Nil entries fall back to the candidate's standing defaults.
type Overrides struct {
	ShareDiagnosis           *bool
	ShareProfessionalContact *bool
}

// Connection is the unit of data-sharing authorization. Created exactly once,
// by accepting a pending match; once revoked it is terminal.
type Connection struct {
	ID          domain.ConnectionID
	MatchID     domain.MatchID
	CandidateID domain.CandidateID
	JobID       domain.JobID
	// OrganizationID is the counterparty that posted the job; the only actor
	// allowed to advance the pipeline stage.
	OrganizationID domain.OrganizationID

	Status Status
	// SharedData is the explicit set of field names the counterparty is
	// authorized to read. The resolver filters by this set on every call.
	SharedData []domain.ProfileField
	// Effective privacy flags after merging defaults with accept-time
	// overrides. Flipped off defensively when the matching field is removed.
	ShareDiagnosis           bool
	ShareProfessionalContact bool

	Stage domain.PipelineStage
	// RevocationReason is private to the candidate; the counterparty is told
	// only that the candidate withdrew.
	RevocationReason string

	GrantedAt time.Time
	RevokedAt *time.Time
}

func (c Connection) Active() bool { return c.Status == StatusActive }

// HasField reports membership in the shared-data set.
func (c Connection) HasField(f domain.ProfileField) bool {
	for _, s := range c.SharedData {
		if s == f {
			return true
		}
	}
	return false
}

// New builds the grant for an accepted match. The shared-field set is
// assembled additively and deterministically from the effective flags; the
// professional contact enters only when a professional is actually assigned.
func New(matchID domain.MatchID, p profile.CandidateProfile, ov Overrides, grantedAt time.Time) Connection {
	shareDiagnosis := p.Privacy.ShareDiagnosis
	if ov.ShareDiagnosis != nil {
		shareDiagnosis = *ov.ShareDiagnosis
	}
	shareProfessional := p.Privacy.ShareProfessionalContact
	if ov.ShareProfessionalContact != nil {
		shareProfessional = *ov.ShareProfessionalContact
	}

	return Connection{
		ID:                       domain.NewConnectionID(),
		MatchID:                  matchID,
		CandidateID:              p.ID,
		Status:                   StatusActive,
		SharedData:               buildSharedData(p, shareDiagnosis, shareProfessional),
		ShareDiagnosis:           shareDiagnosis,
		ShareProfessionalContact: shareProfessional && p.HasProfessional(),
		Stage:                    domain.StageApplied,
		GrantedAt:                grantedAt,
	}
}

func buildSharedData(p profile.CandidateProfile, shareDiagnosis, shareProfessional bool) []domain.ProfileField {
	fields := []domain.ProfileField{
		domain.FieldName,
		domain.FieldContact,
		domain.FieldSkills,
		domain.FieldAssessmentResults,
	}
	if shareDiagnosis {
		fields = append(fields, domain.FieldDiagnosis)
	}
	if shareProfessional && p.HasProfessional() {
		fields = append(fields, domain.FieldProfessionalContact)
	}
	fields = append(fields,
		domain.FieldAccommodations,
		domain.FieldExperience,
		domain.FieldEducation,
	)
	return fields
}
