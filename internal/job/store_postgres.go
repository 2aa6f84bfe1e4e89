package job

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"workbridge/pkg/domain"
	"workbridge/pkg/platform/sentinel"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Save(ctx context.Context, j Job) error {
	query := `
		INSERT INTO jobs (
			id, organization_id, title, description, required_skills, accommodations,
			work_mode, location, team_size, status,
			inclusivity_score, inclusivity_issues, created_at, closed_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			required_skills = EXCLUDED.required_skills,
			accommodations = EXCLUDED.accommodations,
			work_mode = EXCLUDED.work_mode,
			location = EXCLUDED.location,
			team_size = EXCLUDED.team_size,
			status = EXCLUDED.status,
			inclusivity_score = EXCLUDED.inclusivity_score,
			inclusivity_issues = EXCLUDED.inclusivity_issues,
			closed_at = EXCLUDED.closed_at
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(j.ID), uuid.UUID(j.OrganizationID), j.Title, j.Description,
		pq.Array(j.RequiredSkills), pq.Array(j.Accommodations),
		j.WorkMode, j.Location, j.TeamSize, string(j.Status),
		j.InclusivityScore, pq.Array(j.InclusivityIssues), j.CreatedAt, j.ClosedAt,
	)
	if err != nil {
		return fmt.Errorf("save job: %w", err)
	}
	return nil
}

const jobColumns = `
	id, organization_id, title, description, required_skills, accommodations,
	work_mode, location, team_size, status,
	inclusivity_score, inclusivity_issues, created_at, closed_at
`

func (s *PostgresStore) FindByID(ctx context.Context, id domain.JobID) (Job, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE id = $1`, uuid.UUID(id))
	j, err := scanJob(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return Job{}, sentinel.ErrNotFound
	}
	if err != nil {
		return Job{}, fmt.Errorf("find job: %w", err)
	}
	return j, nil
}

func (s *PostgresStore) ListOpen(ctx context.Context) ([]Job, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE status = 'open'`)
	if err != nil {
		return nil, fmt.Errorf("list open jobs: %w", err)
	}
	defer rows.Close()

	var out []Job
	for rows.Next() {
		j, err := scanJob(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		out = append(out, j)
	}
	return out, rows.Err()
}

func scanJob(scan func(dest ...any) error) (Job, error) {
	var (
		j        Job
		id       uuid.UUID
		orgID    uuid.UUID
		status   string
		closedAt sql.NullTime
	)
	err := scan(
		&id, &orgID, &j.Title, &j.Description,
		pq.Array(&j.RequiredSkills), pq.Array(&j.Accommodations),
		&j.WorkMode, &j.Location, &j.TeamSize, &status,
		&j.InclusivityScore, pq.Array(&j.InclusivityIssues), &j.CreatedAt, &closedAt,
	)
	if err != nil {
		return Job{}, err
	}
	j.ID = domain.JobID(id)
	j.OrganizationID = domain.OrganizationID(orgID)
	j.Status = Status(status)
	if closedAt.Valid {
		t := closedAt.Time
		j.ClosedAt = &t
	}
	return j, nil
}

var _ Store = (*PostgresStore)(nil)
