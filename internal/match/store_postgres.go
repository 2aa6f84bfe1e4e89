package match

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

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

func (s *PostgresStore) Save(ctx context.Context, m Match) error {
	breakdown, err := json.Marshal(m.Breakdown)
	if err != nil {
		return fmt.Errorf("marshal breakdown: %w", err)
	}
	snapshot, err := json.Marshal(m.Snapshot)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	query := `
		INSERT INTO matches (
			id, candidate_id, job_id, score, breakdown, justification,
			snapshot, status, rejection_reason, created_at, expires_at, resolved_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		ON CONFLICT (id) DO UPDATE SET
			score = EXCLUDED.score,
			breakdown = EXCLUDED.breakdown,
			justification = EXCLUDED.justification,
			status = EXCLUDED.status,
			rejection_reason = EXCLUDED.rejection_reason,
			resolved_at = EXCLUDED.resolved_at
	`
	_, err = s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(m.ID), uuid.UUID(m.CandidateID), uuid.UUID(m.JobID),
		m.Score, breakdown, m.Justification,
		snapshot, string(m.Status), m.RejectionReason,
		m.CreatedAt, m.ExpiresAt, m.ResolvedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("save match: %w", err)
	}
	return nil
}

const matchColumns = `
	id, candidate_id, job_id, score, breakdown, justification,
	snapshot, status, rejection_reason, created_at, expires_at, resolved_at
`

func (s *PostgresStore) FindByID(ctx context.Context, id domain.MatchID) (Match, error) {
	row := s.execer(ctx).QueryRowContext(ctx,
		`SELECT `+matchColumns+` FROM matches WHERE id = $1`, uuid.UUID(id))
	m, err := scanMatch(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return Match{}, sentinel.ErrNotFound
	}
	if err != nil {
		return Match{}, fmt.Errorf("find match: %w", err)
	}
	return m, nil
}

func (s *PostgresStore) FindPendingPair(ctx context.Context, candidateID domain.CandidateID, jobID domain.JobID) (Match, error) {
	row := s.execer(ctx).QueryRowContext(ctx,
		`SELECT `+matchColumns+`
		 FROM matches
		 WHERE candidate_id = $1 AND job_id = $2 AND status = 'pending'`,
		uuid.UUID(candidateID), uuid.UUID(jobID))
	m, err := scanMatch(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return Match{}, sentinel.ErrNotFound
	}
	if err != nil {
		return Match{}, fmt.Errorf("find pending match: %w", err)
	}
	return m, nil
}

func (s *PostgresStore) ListPendingByJob(ctx context.Context, jobID domain.JobID) ([]Match, error) {
	return s.list(ctx,
		`SELECT `+matchColumns+` FROM matches WHERE job_id = $1 AND status = 'pending'`,
		uuid.UUID(jobID))
}

func (s *PostgresStore) ListPendingByCandidate(ctx context.Context, candidateID domain.CandidateID) ([]Match, error) {
	return s.list(ctx,
		`SELECT `+matchColumns+` FROM matches WHERE candidate_id = $1 AND status = 'pending'`,
		uuid.UUID(candidateID))
}

func (s *PostgresStore) list(ctx context.Context, query string, args ...any) ([]Match, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	defer rows.Close()

	var out []Match
	for rows.Next() {
		m, err := scanMatch(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan match: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *PostgresStore) UpdateStatus(ctx context.Context, id domain.MatchID, from, to Status, reason string, at time.Time) error {
	res, err := s.execer(ctx).ExecContext(ctx,
		`UPDATE matches
		 SET status = $1, rejection_reason = $2, resolved_at = $3
		 WHERE id = $4 AND status = $5`,
		string(to), reason, at, uuid.UUID(id), string(from))
	if err != nil {
		return fmt.Errorf("update match status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update match status: %w", err)
	}
	if n == 0 {
		// Either missing or in a different state; disambiguate for the caller.
		var exists bool
		if err := s.execer(ctx).QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM matches WHERE id = $1)`, uuid.UUID(id)).Scan(&exists); err != nil {
			return fmt.Errorf("update match status: %w", err)
		}
		if !exists {
			return sentinel.ErrNotFound
		}
		return sentinel.ErrInvalidState
	}
	return nil
}

func (s *PostgresStore) ExpireDue(ctx context.Context, now time.Time) (int, error) {
	res, err := s.execer(ctx).ExecContext(ctx,
		`UPDATE matches
		 SET status = 'expired', resolved_at = $1
		 WHERE status = 'pending' AND expires_at < $1`, now)
	if err != nil {
		return 0, fmt.Errorf("expire matches: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("expire matches: %w", err)
	}
	return int(n), nil
}

func scanMatch(scan func(dest ...any) error) (Match, error) {
	var (
		m           Match
		id          uuid.UUID
		candidateID uuid.UUID
		jobID       uuid.UUID
		breakdown   []byte
		snapshot    []byte
		status      string
		resolvedAt  sql.NullTime
	)
	err := scan(
		&id, &candidateID, &jobID, &m.Score, &breakdown, &m.Justification,
		&snapshot, &status, &m.RejectionReason, &m.CreatedAt, &m.ExpiresAt, &resolvedAt,
	)
	if err != nil {
		return Match{}, err
	}
	if err := json.Unmarshal(breakdown, &m.Breakdown); err != nil {
		return Match{}, fmt.Errorf("unmarshal breakdown: %w", err)
	}
	if err := json.Unmarshal(snapshot, &m.Snapshot); err != nil {
		return Match{}, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	m.ID = domain.MatchID(id)
	m.CandidateID = domain.CandidateID(candidateID)
	m.JobID = domain.JobID(jobID)
	m.Status = Status(status)
	if resolvedAt.Valid {
		t := resolvedAt.Time
		m.ResolvedAt = &t
	}
	return m, nil
}

var _ Store = (*PostgresStore)(nil)
