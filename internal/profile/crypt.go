package profile

import (
	"workbridge/internal/fieldcrypt"
)

// The fixed set of high-sensitivity paths sealed at rest: diagnoses, medical
// history, accommodation needs, and the assigned-professional reference.
// Everything else in the profile stays plaintext.

// EncryptSensitive returns a copy of the profile with its high-sensitivity
// fields sealed. Already-sealed values are left untouched, so the call is
// idempotent.
func EncryptSensitive(c *fieldcrypt.Crypter, p CandidateProfile) (CandidateProfile, error) {
	var err error
	if p.Diagnoses, err = c.EncryptAll(p.Diagnoses); err != nil {
		return p, err
	}
	if p.MedicalHistory, err = c.EncryptAll(p.MedicalHistory); err != nil {
		return p, err
	}
	if p.AccommodationNeeds, err = c.EncryptAll(p.AccommodationNeeds); err != nil {
		return p, err
	}
	if p.AssignedProfessional, err = c.Encrypt(p.AssignedProfessional); err != nil {
		return p, err
	}
	if p.ProfessionalContact, err = c.Encrypt(p.ProfessionalContact); err != nil {
		return p, err
	}
	return p, nil
}

// DecryptSensitive reverses EncryptSensitive. Plaintext written before
// encryption was introduced passes through unchanged; a failed authentication
// tag propagates (tampering is never silently recovered).
func DecryptSensitive(c *fieldcrypt.Crypter, p CandidateProfile) (CandidateProfile, error) {
	var err error
	if p.Diagnoses, err = c.DecryptAll(p.Diagnoses); err != nil {
		return p, err
	}
	if p.MedicalHistory, err = c.DecryptAll(p.MedicalHistory); err != nil {
		return p, err
	}
	if p.AccommodationNeeds, err = c.DecryptAll(p.AccommodationNeeds); err != nil {
		return p, err
	}
	if p.AssignedProfessional, err = c.Decrypt(p.AssignedProfessional); err != nil {
		return p, err
	}
	if p.ProfessionalContact, err = c.Decrypt(p.ProfessionalContact); err != nil {
		return p, err
	}
	return p, nil
}
