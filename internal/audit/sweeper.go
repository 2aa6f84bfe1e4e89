package audit

import (
	"context"
	"time"

	"go.uber.org/zap"

	"workbridge/internal/platform/metrics"
)

// Sweeper removes entries whose retention period has elapsed. It is the only
// legitimate delete path for audit entries and is idempotent: re-running
// against already-purged rows removes nothing and is not an error.
type Sweeper struct {
	store   Store
	logger  *zap.Logger
	metrics *metrics.Metrics
}

func NewSweeper(store Store, logger *zap.Logger, m *metrics.Metrics) *Sweeper {
	return &Sweeper{store: store, logger: logger, metrics: m}
}

// Sweep purges entries past their retention-until date as of now.
func (s *Sweeper) Sweep(ctx context.Context, now time.Time) (int64, error) {
	purged, err := s.store.PurgeExpired(ctx, now)
	if err != nil {
		return 0, err
	}
	if purged > 0 {
		if s.metrics != nil {
			s.metrics.AuditEntriesPurged.Add(float64(purged))
		}
		s.logger.Info("audit retention sweep completed", zap.Int64("purged", purged))
	}
	return purged, nil
}
