package profile

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"workbridge/internal/fieldcrypt"
	"workbridge/pkg/domain"
	"workbridge/pkg/platform/sentinel"
	txcontext "workbridge/pkg/platform/tx"
)

// PostgresStore persists candidate profiles. High-sensitivity columns are
// sealed through the crypter on the way in and opened on the way out, making
// the database itself untrusted for those attributes.
type PostgresStore struct {
	db      *sql.DB
	crypter *fieldcrypt.Crypter
}

func NewPostgres(db *sql.DB, crypter *fieldcrypt.Crypter) *PostgresStore {
	return &PostgresStore{db: db, crypter: crypter}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) Save(ctx context.Context, p CandidateProfile) error {
	sealed, err := EncryptSensitive(s.crypter, p)
	if err != nil {
		return fmt.Errorf("seal profile %s: %w", p.ID, err)
	}

	query := `
		INSERT INTO candidate_profiles (
			id, name, contact, location, skills, accommodation_needs,
			experience, education, diagnoses, medical_history,
			assigned_professional, professional_contact,
			assessment_completed, assessment_results,
			pref_work_mode, pref_flexible_hours, pref_team_size,
			visible, share_diagnosis, share_professional,
			erased_at, created_at, updated_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			contact = EXCLUDED.contact,
			location = EXCLUDED.location,
			skills = EXCLUDED.skills,
			accommodation_needs = EXCLUDED.accommodation_needs,
			experience = EXCLUDED.experience,
			education = EXCLUDED.education,
			diagnoses = EXCLUDED.diagnoses,
			medical_history = EXCLUDED.medical_history,
			assigned_professional = EXCLUDED.assigned_professional,
			professional_contact = EXCLUDED.professional_contact,
			assessment_completed = EXCLUDED.assessment_completed,
			assessment_results = EXCLUDED.assessment_results,
			pref_work_mode = EXCLUDED.pref_work_mode,
			pref_flexible_hours = EXCLUDED.pref_flexible_hours,
			pref_team_size = EXCLUDED.pref_team_size,
			visible = EXCLUDED.visible,
			share_diagnosis = EXCLUDED.share_diagnosis,
			share_professional = EXCLUDED.share_professional,
			erased_at = EXCLUDED.erased_at,
			updated_at = EXCLUDED.updated_at
	`
	_, err = s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(sealed.ID), sealed.Name, sealed.Contact, sealed.Location,
		pq.Array(sealed.Skills), pq.Array(sealed.AccommodationNeeds),
		pq.Array(sealed.Experience), pq.Array(sealed.Education),
		pq.Array(sealed.Diagnoses), pq.Array(sealed.MedicalHistory),
		sealed.AssignedProfessional, sealed.ProfessionalContact,
		sealed.AssessmentCompleted, sealed.AssessmentResults,
		sealed.Preferences.WorkMode, sealed.Preferences.FlexibleHours, sealed.Preferences.TeamSize,
		sealed.Privacy.Visible, sealed.Privacy.ShareDiagnosis, sealed.Privacy.ShareProfessionalContact,
		sealed.ErasedAt, sealed.CreatedAt, sealed.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}

const profileColumns = `
	id, name, contact, location, skills, accommodation_needs,
	experience, education, diagnoses, medical_history,
	assigned_professional, professional_contact,
	assessment_completed, assessment_results,
	pref_work_mode, pref_flexible_hours, pref_team_size,
	visible, share_diagnosis, share_professional,
	erased_at, created_at, updated_at
`

func (s *PostgresStore) FindByID(ctx context.Context, id domain.CandidateID) (CandidateProfile, error) {
	row := s.execer(ctx).QueryRowContext(ctx,
		`SELECT `+profileColumns+` FROM candidate_profiles WHERE id = $1`, uuid.UUID(id))
	p, err := s.scanProfile(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return CandidateProfile{}, sentinel.ErrNotFound
	}
	if err != nil {
		return CandidateProfile{}, fmt.Errorf("find profile: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) ListEligible(ctx context.Context) ([]CandidateProfile, error) {
	rows, err := s.execer(ctx).QueryContext(ctx,
		`SELECT `+profileColumns+`
		 FROM candidate_profiles
		 WHERE visible AND assessment_completed AND erased_at IS NULL`)
	if err != nil {
		return nil, fmt.Errorf("list eligible profiles: %w", err)
	}
	defer rows.Close()

	var out []CandidateProfile
	for rows.Next() {
		p, err := s.scanProfile(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate profiles: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) scanProfile(scan func(dest ...any) error) (CandidateProfile, error) {
	var (
		p        CandidateProfile
		id       uuid.UUID
		erasedAt sql.NullTime
	)
	err := scan(
		&id, &p.Name, &p.Contact, &p.Location,
		pq.Array(&p.Skills), pq.Array(&p.AccommodationNeeds),
		pq.Array(&p.Experience), pq.Array(&p.Education),
		pq.Array(&p.Diagnoses), pq.Array(&p.MedicalHistory),
		&p.AssignedProfessional, &p.ProfessionalContact,
		&p.AssessmentCompleted, &p.AssessmentResults,
		&p.Preferences.WorkMode, &p.Preferences.FlexibleHours, &p.Preferences.TeamSize,
		&p.Privacy.Visible, &p.Privacy.ShareDiagnosis, &p.Privacy.ShareProfessionalContact,
		&erasedAt, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return CandidateProfile{}, err
	}
	p.ID = domain.CandidateID(id)
	if erasedAt.Valid {
		t := erasedAt.Time
		p.ErasedAt = &t
	}
	return DecryptSensitive(s.crypter, p)
}

var _ Store = (*PostgresStore)(nil)
