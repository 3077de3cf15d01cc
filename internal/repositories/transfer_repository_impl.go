package repositories

import (
	"context"
	"fmt"

	"fundlink/internal/models"

	"gorm.io/gorm"
)

type transferRepository struct {
	db       *gorm.DB
	accounts *accountRepository
	ledger   *ledgerRepository
}

func NewTransferRepository(db *gorm.DB) TransferRepository {
	return &transferRepository{
		db:       db,
		accounts: &accountRepository{db: db},
		ledger:   &ledgerRepository{db: db},
	}
}

func (r *transferRepository) GetAccount(ctx context.Context, id uint) (*models.BankAccount, error) {
	return r.accounts.GetByID(ctx, id)
}

func (r *transferRepository) GetPrimaryAccount(ctx context.Context, userID uint) (*models.BankAccount, error) {
	return r.accounts.GetPrimaryByUser(ctx, userID)
}

func (r *transferRepository) ApplyBalanceChange(ctx context.Context, accountID uint, delta int64, expectedVersion int64) error {
	return r.accounts.ApplyBalanceChange(ctx, accountID, delta, expectedVersion)
}

func (r *transferRepository) CreateTransaction(ctx context.Context, txn *models.Transaction) error {
	return r.ledger.Create(ctx, txn)
}

func (r *transferRepository) TransitionTransaction(ctx context.Context, transactionID, toStatus string, settlementRef *string, balanceAfter *int64) error {
	return r.ledger.Transition(ctx, transactionID, toStatus, settlementRef, balanceAfter)
}

func (r *transferRepository) GetBySettlementRef(ctx context.Context, ref string) (*models.Transaction, error) {
	return r.ledger.GetBySettlementRef(ctx, ref)
}

func (r *transferRepository) CreateReconciliationEvent(ctx context.Context, event *models.ReconciliationEvent) error {
	if err := r.db.WithContext(ctx).Create(event).Error; err != nil {
		return fmt.Errorf("failed to create reconciliation event: %w", err)
	}
	return nil
}

func (r *transferRepository) ExecuteInTransaction(fn func(TransferRepository) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(&transferRepository{
			db:       tx,
			accounts: &accountRepository{db: tx},
			ledger:   &ledgerRepository{db: tx},
		})
	})
}
