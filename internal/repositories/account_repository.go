package repositories

import (
	"context"

	"fundlink/internal/models"
)

// AccountRepository is the data access contract for bank accounts.
type AccountRepository interface {
	Create(ctx context.Context, account *models.BankAccount) error
	GetByID(ctx context.Context, id uint) (*models.BankAccount, error)
	GetByAccountNumber(ctx context.Context, number string) (*models.BankAccount, error)
	ListByUser(ctx context.Context, userID uint) ([]*models.BankAccount, error)
	GetPrimaryByUser(ctx context.Context, userID uint) (*models.BankAccount, error)
	Update(ctx context.Context, account *models.BankAccount) error
	Delete(ctx context.Context, id uint) error
	// SetPrimary atomically makes accountID the owner's only primary.
	SetPrimary(ctx context.Context, userID, accountID uint) error
	// ApplyBalanceChange adjusts the balance by delta paise if and only if
	// the row still carries expectedVersion; otherwise ErrOptimisticLock.
	// The database check also rejects any change that would drive the
	// balance negative.
	ApplyBalanceChange(ctx context.Context, accountID uint, delta int64, expectedVersion int64) error
	// ResetBalances restores every account to its opening balance.
	ResetBalances(ctx context.Context) error
	ExecuteInTransaction(fn func(AccountRepository) error) error
}
