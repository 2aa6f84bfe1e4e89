package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"workbridge/internal/platform/metrics"
)

// Recorder appends audit entries. It is never allowed to abort the caller's
// primary operation: append failures are logged loudly and counted, and nil
// is returned instead of an error. Data access must not be blocked by
// audit-trail unavailability.
type Recorder struct {
	store   Store
	logger  *zap.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewRecorder(store Store, logger *zap.Logger, m *metrics.Metrics) *Recorder {
	return &Recorder{store: store, logger: logger, metrics: m, now: time.Now}
}

// WithClock overrides the clock for tests.
func (r *Recorder) WithClock(now func() time.Time) *Recorder {
	if now != nil {
		r.now = now
	}
	return r
}

// Record appends the event with a retention floor of creation time plus
// RetentionPeriod. Returns the stored entry, or nil when the append failed.
func (r *Recorder) Record(ctx context.Context, event Event) *Entry {
	ts := r.now()
	entry := Entry{
		ID:             uuid.New(),
		Actor:          event.Actor,
		Kind:           event.Kind,
		Subject:        event.Subject,
		Fields:         event.Fields,
		Sensitivity:    event.Sensitivity,
		Timestamp:      ts,
		RetentionUntil: ts.Add(RetentionPeriod),
	}

	if err := r.store.Append(ctx, entry); err != nil {
		if r.metrics != nil {
			r.metrics.AuditAppendFailures.Inc()
		}
		r.logger.Error("audit append failed",
			zap.String("kind", string(event.Kind)),
			zap.String("subject", event.Subject),
			zap.Error(err),
		)
		return nil
	}
	return &entry
}
