package connection

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"workbridge/pkg/domain"
	"workbridge/pkg/platform/sentinel"
	txcontext "workbridge/pkg/platform/tx"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
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

const uniqueViolation = "23505"

func (s *PostgresStore) Save(ctx context.Context, c Connection) error {
	shared := make([]string, len(c.SharedData))
	for i, f := range c.SharedData {
		shared[i] = string(f)
	}

	query := `
		INSERT INTO connections (
			id, match_id, candidate_id, job_id, organization_id, status, shared_data,
			share_diagnosis, share_professional, stage, revocation_reason,
			granted_at, revoked_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			shared_data = EXCLUDED.shared_data,
			share_diagnosis = EXCLUDED.share_diagnosis,
			share_professional = EXCLUDED.share_professional,
			stage = EXCLUDED.stage,
			revocation_reason = EXCLUDED.revocation_reason,
			revoked_at = EXCLUDED.revoked_at
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(c.ID), uuid.UUID(c.MatchID), uuid.UUID(c.CandidateID), uuid.UUID(c.JobID),
		uuid.UUID(c.OrganizationID), string(c.Status), pq.Array(shared),
		c.ShareDiagnosis, c.ShareProfessionalContact, string(c.Stage), c.RevocationReason,
		c.GrantedAt, c.RevokedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("save connection: %w", err)
	}
	return nil
}

const connectionColumns = `
	id, match_id, candidate_id, job_id, organization_id, status, shared_data,
	share_diagnosis, share_professional, stage, revocation_reason,
	granted_at, revoked_at
`

func (s *PostgresStore) FindByID(ctx context.Context, id domain.ConnectionID) (Connection, error) {
	row := s.execer(ctx).QueryRowContext(ctx,
		`SELECT `+connectionColumns+` FROM connections WHERE id = $1`, uuid.UUID(id))
	c, err := scanConnection(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return Connection{}, sentinel.ErrNotFound
	}
	if err != nil {
		return Connection{}, fmt.Errorf("find connection: %w", err)
	}
	return c, nil
}

func (s *PostgresStore) FindByMatch(ctx context.Context, matchID domain.MatchID) (Connection, error) {
	row := s.execer(ctx).QueryRowContext(ctx,
		`SELECT `+connectionColumns+` FROM connections WHERE match_id = $1`, uuid.UUID(matchID))
	c, err := scanConnection(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return Connection{}, sentinel.ErrNotFound
	}
	if err != nil {
		return Connection{}, fmt.Errorf("find connection by match: %w", err)
	}
	return c, nil
}

func (s *PostgresStore) ListActiveByCandidate(ctx context.Context, candidateID domain.CandidateID) ([]Connection, error) {
	rows, err := s.execer(ctx).QueryContext(ctx,
		`SELECT `+connectionColumns+`
		 FROM connections
		 WHERE candidate_id = $1 AND status = 'active'`, uuid.UUID(candidateID))
	if err != nil {
		return nil, fmt.Errorf("list active connections: %w", err)
	}
	defer rows.Close()

	var out []Connection
	for rows.Next() {
		c, err := scanConnection(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan connection: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func scanConnection(scan func(dest ...any) error) (Connection, error) {
	var (
		c           Connection
		id          uuid.UUID
		matchID     uuid.UUID
		candidateID uuid.UUID
		jobID       uuid.UUID
		orgID       uuid.UUID
		status      string
		shared      []string
		stage       string
		revokedAt   sql.NullTime
	)
	err := scan(
		&id, &matchID, &candidateID, &jobID, &orgID, &status, pq.Array(&shared),
		&c.ShareDiagnosis, &c.ShareProfessionalContact, &stage, &c.RevocationReason,
		&c.GrantedAt, &revokedAt,
	)
	if err != nil {
		return Connection{}, err
	}
	c.ID = domain.ConnectionID(id)
	c.MatchID = domain.MatchID(matchID)
	c.CandidateID = domain.CandidateID(candidateID)
	c.JobID = domain.JobID(jobID)
	c.OrganizationID = domain.OrganizationID(orgID)
	c.Status = Status(status)
	c.Stage = domain.PipelineStage(stage)
	c.SharedData = make([]domain.ProfileField, len(shared))
	for i, f := range shared {
		c.SharedData[i] = domain.ProfileField(f)
	}
	if revokedAt.Valid {
		t := revokedAt.Time
		c.RevokedAt = &t
	}
	return c, nil
}

var _ Store = (*PostgresStore)(nil)
