package audit

import (
	"context"
	"time"
)

// Store persists audit entries. Append-only: there is no update, and the only
// delete path is PurgeExpired.
type Store interface {
	Append(ctx context.Context, entry Entry) error
	ListBySubject(ctx context.Context, subject string) ([]Entry, error)
	// PurgeExpired removes entries whose retention period has elapsed and
	// returns how many were removed. Safe to re-run on any schedule.
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}
