package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fundlink/internal/models"

	"gorm.io/gorm"
)

type ledgerRepository struct {
	db *gorm.DB
}

func NewLedgerRepository(db *gorm.DB) LedgerRepository {
	return &ledgerRepository{db: db}
}

func (r *ledgerRepository) Create(ctx context.Context, txn *models.Transaction) error {
	if err := r.db.WithContext(ctx).Create(txn).Error; err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

func (r *ledgerRepository) GetByTransactionID(ctx context.Context, transactionID string) (*models.Transaction, error) {
	var txn models.Transaction
	err := r.db.WithContext(ctx).Where("transaction_id = ?", transactionID).First(&txn).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return &txn, nil
}

func (r *ledgerRepository) GetBySettlementRef(ctx context.Context, ref string) (*models.Transaction, error) {
	var txn models.Transaction
	err := r.db.WithContext(ctx).Where("settlement_reference = ?", ref).First(&txn).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to get transaction by reference: %w", err)
	}
	return &txn, nil
}

func (r *ledgerRepository) Transition(ctx context.Context, transactionID, toStatus string, settlementRef *string, balanceAfter *int64) error {
	updates := map[string]interface{}{"status": toStatus}
	if settlementRef != nil {
		updates["settlement_reference"] = *settlementRef
	}
	if balanceAfter != nil {
		updates["balance_after"] = *balanceAfter
	}

	result := r.db.WithContext(ctx).Model(&models.Transaction{}).
		Where("transaction_id = ? AND status = ?", transactionID, models.TransactionStatusPending).
		Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to update transaction status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		// Either the row is missing or it already left PENDING.
		if _, err := r.GetByTransactionID(ctx, transactionID); err != nil {
			return err
		}
		return ErrInvalidTransition
	}
	return nil
}

func (r *ledgerRepository) HistoryByAccounts(ctx context.Context, accountIDs []uint, limit, offset int) ([]*models.Transaction, error) {
	if len(accountIDs) == 0 {
		return nil, nil
	}
	var txns []*models.Transaction
	err := r.db.WithContext(ctx).
		Where("sender_account_id IN ? OR receiver_account_id IN ?", accountIDs, accountIDs).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&txns).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction history: %w", err)
	}
	return txns, nil
}

func (r *ledgerRepository) SuccessSums(ctx context.Context, accountID uint) (ReconciliationSums, error) {
	var sums ReconciliationSums
	err := r.db.WithContext(ctx).Model(&models.Transaction{}).
		Where("sender_account_id = ? AND status = ?", accountID, models.TransactionStatusSuccess).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&sums.Debits).Error
	if err != nil {
		return sums, fmt.Errorf("failed to sum debits: %w", err)
	}
	err = r.db.WithContext(ctx).Model(&models.Transaction{}).
		Where("receiver_account_id = ? AND status = ?", accountID, models.TransactionStatusSuccess).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&sums.Credits).Error
	if err != nil {
		return sums, fmt.Errorf("failed to sum credits: %w", err)
	}
	return sums, nil
}

func (r *ledgerRepository) ListStalePending(ctx context.Context, cutoff time.Time, limit int) ([]*models.Transaction, error) {
	var txns []*models.Transaction
	err := r.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", models.TransactionStatusPending, cutoff).
		Order("created_at ASC").
		Limit(limit).
		Find(&txns).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list stale pending transactions: %w", err)
	}
	return txns, nil
}

func (r *ledgerRepository) DeleteAll(ctx context.Context) error {
	if err := r.db.WithContext(ctx).Where("1 = 1").Delete(&models.Transaction{}).Error; err != nil {
		return fmt.Errorf("failed to delete transactions: %w", err)
	}
	return nil
}
