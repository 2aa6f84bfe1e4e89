package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"workbridge/pkg/domain"
	txcontext "workbridge/pkg/platform/tx"
)

// PostgresStore materializes entries in audit_entries for querying and writes
// the same payload to the transactional outbox, which the Kafka publisher
// drains. Joining the caller's transaction (when present in context) keeps
// the audit row atomic with the operation it evidences.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

// outboxPayload is the JSON structure published to Kafka. Field names match
// Entry for deserialization by downstream consumers.
type outboxPayload struct {
	ID             string   `json:"ID"`
	Actor          string   `json:"Actor"`
	Kind           string   `json:"Kind"`
	Subject        string   `json:"Subject"`
	Fields         []string `json:"Fields,omitempty"`
	Sensitivity    string   `json:"Sensitivity"`
	Timestamp      string   `json:"Timestamp"`
	RetentionUntil string   `json:"RetentionUntil"`
}

func (s *PostgresStore) Append(ctx context.Context, entry Entry) error {
	exec := s.execer(ctx)

	// ON CONFLICT DO NOTHING keeps re-delivery idempotent.
	_, err := exec.ExecContext(ctx, `
		INSERT INTO audit_entries (id, actor, kind, subject, fields, sensitivity, ts, retention_until)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO NOTHING
	`, entry.ID, entry.Actor, string(entry.Kind), entry.Subject,
		pq.Array(entry.Fields), string(entry.Sensitivity), entry.Timestamp, entry.RetentionUntil)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}

	payload, err := json.Marshal(outboxPayload{
		ID:             entry.ID.String(),
		Actor:          entry.Actor,
		Kind:           string(entry.Kind),
		Subject:        entry.Subject,
		Fields:         entry.Fields,
		Sensitivity:    string(entry.Sensitivity),
		Timestamp:      entry.Timestamp.Format(time.RFC3339Nano),
		RetentionUntil: entry.RetentionUntil.Format(time.RFC3339Nano),
	})
	if err != nil {
		return fmt.Errorf("marshal audit payload: %w", err)
	}

	_, err = exec.ExecContext(ctx, `
		INSERT INTO audit_outbox (id, payload, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO NOTHING
	`, entry.ID, payload, time.Now())
	if err != nil {
		return fmt.Errorf("insert outbox entry: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListBySubject(ctx context.Context, subject string) ([]Entry, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, `
		SELECT id, actor, kind, subject, fields, sensitivity, ts, retention_until
		FROM audit_entries
		WHERE subject = $1
		ORDER BY ts DESC
	`, subject)
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e           Entry
			kind        string
			sensitivity string
		)
		if err := rows.Scan(&e.ID, &e.Actor, &kind, &e.Subject,
			pq.Array(&e.Fields), &sensitivity, &e.Timestamp, &e.RetentionUntil); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		e.Kind = EventKind(kind)
		e.Sensitivity = domain.Sensitivity(sensitivity)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit entries: %w", err)
	}
	return entries, nil
}

func (s *PostgresStore) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM audit_entries WHERE retention_until < $1`, now)
	if err != nil {
		return 0, fmt.Errorf("purge audit entries: %w", err)
	}
	return res.RowsAffected()
}

// NextOutbox returns up to limit undelivered outbox rows, oldest first.
func (s *PostgresStore) NextOutbox(ctx context.Context, limit int) ([]OutboxRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, payload FROM audit_outbox ORDER BY created_at ASC LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query outbox: %w", err)
	}
	defer rows.Close()

	var out []OutboxRow
	for rows.Next() {
		var r OutboxRow
		if err := rows.Scan(&r.ID, &r.Payload); err != nil {
			return nil, fmt.Errorf("scan outbox row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// DeleteOutbox removes rows that were successfully published.
func (s *PostgresStore) DeleteOutbox(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM audit_outbox WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("delete outbox rows: %w", err)
	}
	return nil
}

// OutboxRow is one undelivered audit payload.
type OutboxRow struct {
	ID      uuid.UUID
	Payload []byte
}
