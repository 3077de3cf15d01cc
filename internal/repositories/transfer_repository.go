package repositories

import (
	"context"

	"fundlink/internal/models"
)

// TransferRepository is the slice of the data layer the transfer engine
// drives. It spans accounts, the ledger and the reconciliation outbox so the
// engine can group a balance mutation, a ledger write and an escalation
// event into one database transaction.
type TransferRepository interface {
	GetAccount(ctx context.Context, id uint) (*models.BankAccount, error)
	GetPrimaryAccount(ctx context.Context, userID uint) (*models.BankAccount, error)
	ApplyBalanceChange(ctx context.Context, accountID uint, delta int64, expectedVersion int64) error
	CreateTransaction(ctx context.Context, txn *models.Transaction) error
	TransitionTransaction(ctx context.Context, transactionID, toStatus string, settlementRef *string, balanceAfter *int64) error
	GetBySettlementRef(ctx context.Context, ref string) (*models.Transaction, error)
	CreateReconciliationEvent(ctx context.Context, event *models.ReconciliationEvent) error
	ExecuteInTransaction(fn func(TransferRepository) error) error
}
