package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"fundlink/internal/models"
	"fundlink/internal/repositories"

	"go.uber.org/zap"
)

const (
	defaultSweepInterval = time.Minute
	defaultStaleAge      = 5 * time.Minute
	sweepTopic           = "wallet.reconciliation"
)

// StaleSweeper escalates transfers stuck in PENDING. A row can only stay
// PENDING if the process died between reserve and finalization; whether the
// external settlement committed is unknowable from here, so the sweeper
// routes the row to reconciliation instead of guessing.
type StaleSweeper struct {
	ledger    repositories.LedgerRepository
	outbox    repositories.OutboxRepository
	logger    *zap.Logger
	interval  time.Duration
	staleAge  time.Duration
	batchSize int
}

func NewStaleSweeper(ledger repositories.LedgerRepository, outbox repositories.OutboxRepository, logger *zap.Logger) *StaleSweeper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StaleSweeper{
		ledger:    ledger,
		outbox:    outbox,
		logger:    logger,
		interval:  defaultSweepInterval,
		staleAge:  defaultStaleAge,
		batchSize: defaultBatchSize,
	}
}

// Run polls until the context is cancelled.
func (s *StaleSweeper) Run(ctx context.Context) {
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

func (s *StaleSweeper) runOnce(ctx context.Context) {
	cutoff := time.Now().Add(-s.staleAge)
	stale, err := s.ledger.ListStalePending(ctx, cutoff, s.batchSize)
	if err != nil {
		s.logger.Error("failed to list stale pending transfers", zap.Error(err))
		return
	}

	for _, txn := range stale {
		err := s.ledger.Transition(ctx, txn.TransactionID, models.TransactionStatusReconciliationRequired, nil, nil)
		if errors.Is(err, repositories.ErrInvalidTransition) {
			// Finalized by its owner between the list and the update.
			continue
		}
		if err != nil {
			s.logger.Error("failed to escalate stale transfer",
				zap.String("transaction_id", txn.TransactionID),
				zap.Error(err),
			)
			continue
		}

		payload, _ := json.Marshal(map[string]interface{}{
			"transaction_id": txn.TransactionID,
			"amount_paise":   txn.Amount,
			"cause":          "transfer abandoned mid-flight",
		})
		if err := s.outbox.Create(ctx, &models.ReconciliationEvent{
			TransactionID: txn.TransactionID,
			Topic:         sweepTopic,
			Payload:       string(payload),
		}); err != nil {
			s.logger.Error("failed to enqueue reconciliation event",
				zap.String("transaction_id", txn.TransactionID),
				zap.Error(err),
			)
			continue
		}

		s.logger.Warn("stale transfer escalated to reconciliation",
			zap.String("transaction_id", txn.TransactionID),
			zap.Time("created_at", txn.CreatedAt),
		)
	}
}
