package profile

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"workbridge/internal/fieldcrypt"
	"workbridge/pkg/domain"
)

func TestSensitiveFieldRoundTrip(t *testing.T) {
	crypter, err := fieldcrypt.New(bytes.Repeat([]byte{7}, 32))
	require.NoError(t, err)

	original := CandidateProfile{
		ID:                   domain.NewCandidateID(),
		Name:                 "Robin",
		Location:             "Oslo",
		Skills:               []string{"Go", "SQL"},
		AccommodationNeeds:   []string{"Noise-cancelling headphones"},
		Diagnoses:            []string{"ASD", "ADHD"},
		MedicalHistory:       []string{"2023 assessment"},
		AssignedProfessional: "dr-holt",
		ProfessionalContact:  "holt@clinic.example",
	}

	sealed, err := EncryptSensitive(crypter, original)
	require.NoError(t, err)

	// Name, location, and skills stay plaintext; the sensitive paths do not.
	require.Equal(t, original.Name, sealed.Name)
	require.Equal(t, original.Skills, sealed.Skills)
	for _, v := range append(sealed.Diagnoses, sealed.MedicalHistory...) {
		require.True(t, strings.HasPrefix(v, fieldcrypt.Marker))
	}
	require.True(t, strings.HasPrefix(sealed.AssignedProfessional, fieldcrypt.Marker))
	require.True(t, strings.HasPrefix(sealed.AccommodationNeeds[0], fieldcrypt.Marker))

	// Sealing is idempotent.
	twice, err := EncryptSensitive(crypter, sealed)
	require.NoError(t, err)
	require.Equal(t, sealed.Diagnoses, twice.Diagnoses)

	opened, err := DecryptSensitive(crypter, sealed)
	require.NoError(t, err)
	require.Equal(t, original.Diagnoses, opened.Diagnoses)
	require.Equal(t, original.MedicalHistory, opened.MedicalHistory)
	require.Equal(t, original.AccommodationNeeds, opened.AccommodationNeeds)
	require.Equal(t, original.AssignedProfessional, opened.AssignedProfessional)
	require.Equal(t, original.ProfessionalContact, opened.ProfessionalContact)
}

func TestDecryptSensitiveLegacyPlaintext(t *testing.T) {
	crypter, err := fieldcrypt.New(bytes.Repeat([]byte{7}, 32))
	require.NoError(t, err)

	legacy := CandidateProfile{Diagnoses: []string{"written before encryption"}}
	opened, err := DecryptSensitive(crypter, legacy)
	require.NoError(t, err)
	require.Equal(t, legacy.Diagnoses, opened.Diagnoses)
}
