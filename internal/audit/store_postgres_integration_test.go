//go:build integration

package audit_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"workbridge/internal/audit"
	"workbridge/pkg/domain"
	"workbridge/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	ctx   context.Context
	pg    *containers.PostgresContainer
	store *audit.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.ctx = context.Background()
	s.pg = containers.NewPostgresContainer(s.T())
	s.store = audit.NewPostgres(s.pg.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.pg.TruncateAll(s.ctx, "audit_entries", "audit_outbox"))
}

func (s *PostgresStoreSuite) entry(subject string, ts time.Time) audit.Entry {
	return audit.Entry{
		ID:             uuid.New(),
		Actor:          "org-1",
		Kind:           audit.EventSharedProfileRead,
		Subject:        subject,
		Fields:         []string{"name", "diagnosis"},
		Sensitivity:    domain.SensitivityHigh,
		Timestamp:      ts,
		RetentionUntil: ts.Add(audit.RetentionPeriod),
	}
}

func (s *PostgresStoreSuite) TestAppendAndList() {
	now := time.Now().UTC().Truncate(time.Microsecond)
	first := s.entry("candidate-1", now.Add(-time.Hour))
	second := s.entry("candidate-1", now)
	other := s.entry("candidate-2", now)

	for _, e := range []audit.Entry{first, second, other} {
		s.Require().NoError(s.store.Append(s.ctx, e))
	}

	entries, err := s.store.ListBySubject(s.ctx, "candidate-1")
	s.Require().NoError(err)
	s.Require().Len(entries, 2)

	// Newest first.
	s.Equal(second.ID, entries[0].ID)
	s.Equal(first.ID, entries[1].ID)
	s.Equal([]string{"name", "diagnosis"}, entries[0].Fields)
	s.Equal(domain.SensitivityHigh, entries[0].Sensitivity)
}

func (s *PostgresStoreSuite) TestAppendIsIdempotent() {
	e := s.entry("candidate-1", time.Now().UTC())
	s.Require().NoError(s.store.Append(s.ctx, e))
	s.Require().NoError(s.store.Append(s.ctx, e))

	entries, err := s.store.ListBySubject(s.ctx, "candidate-1")
	s.Require().NoError(err)
	s.Len(entries, 1)

	rows, err := s.store.NextOutbox(s.ctx, 10)
	s.Require().NoError(err)
	s.Len(rows, 1)
}

func (s *PostgresStoreSuite) TestOutboxDrain() {
	older := s.entry("candidate-1", time.Now().UTC().Add(-time.Minute))
	newer := s.entry("candidate-1", time.Now().UTC())
	s.Require().NoError(s.store.Append(s.ctx, older))
	s.Require().NoError(s.store.Append(s.ctx, newer))

	rows, err := s.store.NextOutbox(s.ctx, 10)
	s.Require().NoError(err)
	s.Require().Len(rows, 2)
	s.Equal(older.ID, rows[0].ID)

	var payload map[string]any
	s.Require().NoError(json.Unmarshal(rows[0].Payload, &payload))
	s.Equal(older.ID.String(), payload["ID"])
	s.Equal(string(audit.EventSharedProfileRead), payload["Kind"])

	s.Require().NoError(s.store.DeleteOutbox(s.ctx, []uuid.UUID{rows[0].ID}))
	rows, err = s.store.NextOutbox(s.ctx, 10)
	s.Require().NoError(err)
	s.Require().Len(rows, 1)
	s.Equal(newer.ID, rows[0].ID)
}

func (s *PostgresStoreSuite) TestPurgeExpired() {
	expired := s.entry("candidate-1", time.Now().UTC().Add(-audit.RetentionPeriod-time.Hour))
	live := s.entry("candidate-1", time.Now().UTC())
	s.Require().NoError(s.store.Append(s.ctx, expired))
	s.Require().NoError(s.store.Append(s.ctx, live))

	purged, err := s.store.PurgeExpired(s.ctx, time.Now().UTC())
	s.Require().NoError(err)
	s.Equal(int64(1), purged)

	entries, err := s.store.ListBySubject(s.ctx, "candidate-1")
	s.Require().NoError(err)
	s.Require().Len(entries, 1)
	s.Equal(live.ID, entries[0].ID)

	purged, err = s.store.PurgeExpired(s.ctx, time.Now().UTC())
	s.Require().NoError(err)
	s.Zero(purged)
}
