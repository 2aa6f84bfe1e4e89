// Package profile owns the candidate profile: the identity-bearing record the
// candidate controls, split into public-eligible attributes and
// high-sensitivity attributes that are encrypted at rest.
package profile

import (
	"strings"
	"time"

	"workbridge/pkg/domain"
)

// PrivacySettings are the candidate's standing disclosure defaults. The
// zero/default value is the most restrictive configuration; it is merged
// functionally at profile creation and never mutated globally.
type PrivacySettings struct {
	// Visible permits discovery by organizations (scoring precondition).
	Visible bool
	// ShareDiagnosis allows diagnoses into a connection's shared-field set.
	ShareDiagnosis bool
	// ShareProfessionalContact allows the assigned professional's contact
	// into a connection's shared-field set.
	ShareProfessionalContact bool
}

// DefaultPrivacySettings returns the most-restrictive defaults merged into
// every new profile. Explicit value, not a mutable singleton.
func DefaultPrivacySettings() PrivacySettings {
	return PrivacySettings{}
}

// Preferences are the candidate's declared working preferences. All values
// come from closed categorical sets; empty means "no preference declared".
type Preferences struct {
	WorkMode      string // remote | hybrid | onsite | flexible
	FlexibleHours bool
	TeamSize      string // small | medium | large
}

// Candidate-side categorical sets. Work mode adds "flexible" (any mode suits)
// on top of the job-side values; team sizes mirror the job's exactly.
const (
	WorkModeRemote   = "remote"
	WorkModeHybrid   = "hybrid"
	WorkModeOnsite   = "onsite"
	WorkModeFlexible = "flexible"
)

const (
	TeamSizeSmall  = "small"
	TeamSizeMedium = "medium"
	TeamSizeLarge  = "large"
)

// Declared reports whether the candidate declared any preference at all.
func (p Preferences) Declared() bool {
	return p.WorkMode != "" || p.FlexibleHours || p.TeamSize != ""
}

// Normalize canonicalizes the categorical values. Preference matching is exact
// string comparison downstream, so anything not in the closed sets collapses
// to empty ("undeclared") rather than passing through and never matching.
func (p Preferences) Normalize() Preferences {
	p.WorkMode = normalizeCategory(p.WorkMode, WorkModeRemote, WorkModeHybrid, WorkModeOnsite, WorkModeFlexible)
	p.TeamSize = normalizeCategory(p.TeamSize, TeamSizeSmall, TeamSizeMedium, TeamSizeLarge)
	return p
}

func normalizeCategory(value string, allowed ...string) string {
	v := strings.ToLower(strings.TrimSpace(value))
	for _, a := range allowed {
		if v == a {
			return a
		}
	}
	return ""
}

// CandidateProfile is owned by the candidate; mutated only by its owner (or,
// for the assigned-professional fields, through an explicit grant/revoke).
type CandidateProfile struct {
	ID      domain.CandidateID
	Name    string
	Contact string

	// Public-eligible attributes.
	Location           string
	Skills             []string
	AccommodationNeeds []string
	Experience         []string
	Education          []string
	Preferences        Preferences

	AssessmentCompleted bool
	AssessmentResults   string

	// High-sensitivity attributes, encrypted at rest beneath every consumer.
	Diagnoses            []string
	MedicalHistory       []string
	AssignedProfessional string
	ProfessionalContact  string

	Privacy PrivacySettings

	ErasedAt  *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasProfessional reports whether a licensed professional is actually
// assigned; the professional-contact field is only ever shareable when true.
func (p *CandidateProfile) HasProfessional() bool {
	return strings.TrimSpace(p.AssignedProfessional) != ""
}

// Erased reports whether the profile was scrubbed after an erasure request.
func (p *CandidateProfile) Erased() bool {
	return p.ErasedAt != nil
}

// Scrub irreversibly removes PII while keeping the record for audit linkage.
func (p *CandidateProfile) Scrub(at time.Time) {
	p.Name = ""
	p.Contact = ""
	p.Location = ""
	p.Skills = nil
	p.AccommodationNeeds = nil
	p.Experience = nil
	p.Education = nil
	p.Preferences = Preferences{}
	p.AssessmentResults = ""
	p.Diagnoses = nil
	p.MedicalHistory = nil
	p.AssignedProfessional = ""
	p.ProfessionalContact = ""
	p.Privacy = PrivacySettings{}
	p.ErasedAt = &at
	p.UpdatedAt = at
}
