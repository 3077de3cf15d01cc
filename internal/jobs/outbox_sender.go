// Package jobs holds the background workers: the reconciliation outbox
// sender and the stale transfer sweeper.
package jobs

import (
	"context"
	"time"

	"fundlink/internal/mq"
	"fundlink/internal/repositories"

	"go.uber.org/zap"
)

const (
	defaultSendInterval = 10 * time.Second
	defaultBatchSize    = 50
	defaultMaxRetries   = 5
)

// OutboxSender drains PENDING reconciliation events to Kafka. Events are
// written in the same database transaction as the ledger escalation, so a
// crash between write and publish loses nothing; the sender picks them up on
// the next tick.
type OutboxSender struct {
	outbox     repositories.OutboxRepository
	producer   mq.Producer
	logger     *zap.Logger
	interval   time.Duration
	batchSize  int
	maxRetries int
}

func NewOutboxSender(outbox repositories.OutboxRepository, producer mq.Producer, logger *zap.Logger) *OutboxSender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OutboxSender{
		outbox:     outbox,
		producer:   producer,
		logger:     logger,
		interval:   defaultSendInterval,
		batchSize:  defaultBatchSize,
		maxRetries: defaultMaxRetries,
	}
}

// Run polls until the context is cancelled.
func (s *OutboxSender) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *OutboxSender) runOnce(ctx context.Context) {
	events, err := s.outbox.GetPending(ctx, s.batchSize)
	if err != nil {
		s.logger.Error("failed to load pending reconciliation events", zap.Error(err))
		return
	}

	for _, event := range events {
		if err := s.producer.Send(event.TransactionID, event.Payload); err != nil {
			s.logger.Warn("failed to publish reconciliation event",
				zap.Uint("event_id", event.ID),
				zap.String("transaction_id", event.TransactionID),
				zap.Int("retry_count", event.RetryCount),
				zap.Error(err),
			)
			if err := s.outbox.IncrementRetry(ctx, event.ID); err != nil {
				s.logger.Error("failed to bump retry count", zap.Uint("event_id", event.ID), zap.Error(err))
				continue
			}
			if event.RetryCount+1 >= s.maxRetries {
				s.logger.Error("reconciliation event exhausted retries, marking failed",
					zap.Uint("event_id", event.ID),
					zap.String("transaction_id", event.TransactionID),
				)
				if err := s.outbox.MarkFailed(ctx, event.ID); err != nil {
					s.logger.Error("failed to mark event failed", zap.Uint("event_id", event.ID), zap.Error(err))
				}
			}
			continue
		}
		if err := s.outbox.MarkSent(ctx, event.ID); err != nil {
			// The event will be re-sent next tick; consumers must
			// deduplicate on transaction id.
			s.logger.Error("failed to mark event sent", zap.Uint("event_id", event.ID), zap.Error(err))
		}
	}
}
