package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/twmb/franz-go/pkg/kgo"
	"go.uber.org/zap"
)

// Publisher drains the transactional outbox into Kafka so downstream
// compliance consumers see every audit entry at least once. Delivery is
// decoupled from request handling; a Kafka outage only delays publication.
type Publisher struct {
	store    *PostgresStore
	client   *kgo.Client
	topic    string
	interval time.Duration
	logger   *zap.Logger
}

const outboxBatchSize = 100

// NewPublisher connects to the given brokers. Returns nil when no brokers are
// configured (publishing disabled; entries still land in audit_entries).
func NewPublisher(store *PostgresStore, brokers []string, topic string, interval time.Duration, logger *zap.Logger) (*Publisher, error) {
	if len(brokers) == 0 || store == nil {
		return nil, nil
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, err
	}

	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &Publisher{
		store:    store,
		client:   client,
		topic:    topic,
		interval: interval,
		logger:   logger,
	}, nil
}

// Run polls the outbox until the context is cancelled.
func (p *Publisher) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := p.drain(ctx); err != nil {
				p.logger.Warn("audit outbox drain failed", zap.Error(err))
			}
		}
	}
}

func (p *Publisher) drain(ctx context.Context) error {
	rows, err := p.store.NextOutbox(ctx, outboxBatchSize)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}

	records := make([]*kgo.Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, &kgo.Record{
			Topic: p.topic,
			Key:   []byte(row.ID.String()),
			Value: row.Payload,
		})
	}

	// ProduceSync keeps outbox deletion strictly after acknowledged delivery;
	// a partial failure leaves rows behind for the next tick (at-least-once).
	if err := p.client.ProduceSync(ctx, records...).FirstErr(); err != nil {
		return err
	}

	ids := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	return p.store.DeleteOutbox(ctx, ids)
}

// Close flushes and releases the Kafka client.
func (p *Publisher) Close() {
	p.client.Close()
}
