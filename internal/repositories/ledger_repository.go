package repositories

import (
	"context"
	"time"

	"fundlink/internal/models"
)

// ReconciliationSums aggregates an account's SUCCESS ledger rows.
type ReconciliationSums struct {
	Debits  int64
	Credits int64
}

// LedgerRepository is the data access contract for the append-only
// transaction ledger. Rows are created once per transfer attempt; the only
// permitted mutation is the single PENDING->terminal status transition.
type LedgerRepository interface {
	Create(ctx context.Context, txn *models.Transaction) error
	GetByTransactionID(ctx context.Context, transactionID string) (*models.Transaction, error)
	GetBySettlementRef(ctx context.Context, ref string) (*models.Transaction, error)
	// Transition moves a PENDING row to the given status, recording the
	// settlement reference and sender-side balance-after when provided.
	// Moving a non-PENDING row returns ErrInvalidTransition.
	Transition(ctx context.Context, transactionID, toStatus string, settlementRef *string, balanceAfter *int64) error
	// HistoryByAccounts returns rows touching any of the accounts, newest
	// first.
	HistoryByAccounts(ctx context.Context, accountIDs []uint, limit, offset int) ([]*models.Transaction, error)
	// SuccessSums aggregates settled debits and credits for reconciliation.
	SuccessSums(ctx context.Context, accountID uint) (ReconciliationSums, error)
	// ListStalePending returns PENDING rows created before the cutoff, used
	// by the sweeper to escalate abandoned reserves.
	ListStalePending(ctx context.Context, cutoff time.Time, limit int) ([]*models.Transaction, error)
	DeleteAll(ctx context.Context) error
}
