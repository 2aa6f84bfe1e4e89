package domain

// ProfileField names a candidate profile attribute that can appear in a
// connection's shared-field set. The set of names is closed; the disclosure
// resolver refuses anything outside it.
type ProfileField string

const (
	FieldName                ProfileField = "name"
	FieldContact             ProfileField = "contact"
	FieldSkills              ProfileField = "skills"
	FieldAssessmentResults   ProfileField = "assessmentResults"
	FieldDiagnosis           ProfileField = "diagnosis"
	FieldProfessionalContact ProfileField = "professionalContact"
	FieldAccommodations      ProfileField = "accommodationNeeds"
	FieldExperience          ProfileField = "experience"
	FieldEducation           ProfileField = "education"
)

// validProfileFields is the single source of truth for shareable field names.
var validProfileFields = map[ProfileField]bool{
	FieldName:                true,
	FieldContact:             true,
	FieldSkills:              true,
	FieldAssessmentResults:   true,
	FieldDiagnosis:           true,
	FieldProfessionalContact: true,
	FieldAccommodations:      true,
	FieldExperience:          true,
	FieldEducation:           true,
}

// IsValid checks whether the field is one of the shareable profile fields.
func (f ProfileField) IsValid() bool {
	return validProfileFields[f]
}

func (f ProfileField) String() string { return string(f) }

// Sensitivity classifies data touched by an audited event.
type Sensitivity string

const (
	SensitivityNormal Sensitivity = "normal"
	SensitivityHigh   Sensitivity = "high"
)

// SensitivityOf returns the at-rest classification for a profile field.
// Diagnosis and the assigned-professional reference are high-sensitivity and
// subject to mandatory field-level encryption.
func SensitivityOf(f ProfileField) Sensitivity {
	switch f {
	case FieldDiagnosis, FieldProfessionalContact, FieldAccommodations:
		return SensitivityHigh
	default:
		return SensitivityNormal
	}
}
