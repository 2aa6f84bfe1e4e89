package audit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"workbridge/pkg/domain"
)

func TestRecorderRecord(t *testing.T) {
	ctx := context.Background()

	t.Run("stamps a retention floor on every entry", func(t *testing.T) {
		store := NewInMemoryStore()
		frozen := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		rec := NewRecorder(store, zap.NewNop(), nil).WithClock(func() time.Time { return frozen })

		entry := rec.Record(ctx, Event{
			Actor:       "org-1",
			Kind:        EventSharedProfileRead,
			Subject:     "candidate-1",
			Fields:      []string{"diagnosis"},
			Sensitivity: domain.SensitivityHigh,
		})
		require.NotNil(t, entry)
		require.Equal(t, frozen, entry.Timestamp)
		require.Equal(t, frozen.Add(RetentionPeriod), entry.RetentionUntil)

		stored, err := store.ListBySubject(ctx, "candidate-1")
		require.NoError(t, err)
		require.Len(t, stored, 1)
		require.Equal(t, entry.ID, stored[0].ID)
	})

	t.Run("append failure is swallowed, never propagated", func(t *testing.T) {
		store := NewInMemoryStore()
		store.FailWith(errors.New("disk full"))
		rec := NewRecorder(store, zap.NewNop(), nil)

		entry := rec.Record(ctx, Event{Kind: EventMatchScored, Subject: "m-1"})
		require.Nil(t, entry)

		store.FailWith(nil)
		require.NotNil(t, rec.Record(ctx, Event{Kind: EventMatchScored, Subject: "m-1"}))
	})
}

func TestSweeper(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	base := time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC)
	rec := NewRecorder(store, zap.NewNop(), nil).WithClock(func() time.Time { return base })

	old := rec.Record(ctx, Event{Kind: EventProfileRead, Subject: "old"})
	require.NotNil(t, old)

	recent := NewRecorder(store, zap.NewNop(), nil).
		WithClock(func() time.Time { return base.AddDate(5, 0, 0) }).
		Record(ctx, Event{Kind: EventProfileRead, Subject: "recent"})
	require.NotNil(t, recent)

	sweeper := NewSweeper(store, zap.NewNop(), nil)

	t.Run("purges only entries past retention", func(t *testing.T) {
		now := old.RetentionUntil.Add(time.Hour)
		purged, err := sweeper.Sweep(ctx, now)
		require.NoError(t, err)
		require.Equal(t, int64(1), purged)

		kept, err := store.ListBySubject(ctx, "recent")
		require.NoError(t, err)
		require.Len(t, kept, 1)
	})

	t.Run("re-running purges nothing", func(t *testing.T) {
		purged, err := sweeper.Sweep(ctx, old.RetentionUntil.Add(time.Hour))
		require.NoError(t, err)
		require.Zero(t, purged)
	})

	t.Run("exact retention boundary is kept", func(t *testing.T) {
		purged, err := sweeper.Sweep(ctx, recent.RetentionUntil)
		require.NoError(t, err)
		require.Zero(t, purged)
	})
}
