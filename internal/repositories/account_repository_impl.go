package repositories

import (
	"context"
	"errors"
	"fmt"

	"fundlink/internal/models"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

type accountRepository struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) AccountRepository {
	return &accountRepository{db: db}
}

func (r *accountRepository) Create(ctx context.Context, account *models.BankAccount) error {
	if err := r.db.WithContext(ctx).Create(account).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateAccount
		}
		return fmt.Errorf("failed to create bank account: %w", err)
	}
	return nil
}

func (r *accountRepository) GetByID(ctx context.Context, id uint) (*models.BankAccount, error) {
	var account models.BankAccount
	if err := r.db.WithContext(ctx).First(&account, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get bank account: %w", err)
	}
	return &account, nil
}

func (r *accountRepository) GetByAccountNumber(ctx context.Context, number string) (*models.BankAccount, error) {
	var account models.BankAccount
	if err := r.db.WithContext(ctx).Where("account_number = ?", number).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get bank account: %w", err)
	}
	return &account, nil
}

func (r *accountRepository) ListByUser(ctx context.Context, userID uint) ([]*models.BankAccount, error) {
	var accounts []*models.BankAccount
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&accounts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list bank accounts: %w", err)
	}
	return accounts, nil
}

func (r *accountRepository) GetPrimaryByUser(ctx context.Context, userID uint) (*models.BankAccount, error) {
	var account models.BankAccount
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND is_primary = ?", userID, true).
		First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get primary account: %w", err)
	}
	return &account, nil
}

func (r *accountRepository) Update(ctx context.Context, account *models.BankAccount) error {
	if err := r.db.WithContext(ctx).Save(account).Error; err != nil {
		return fmt.Errorf("failed to update bank account: %w", err)
	}
	return nil
}

func (r *accountRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.BankAccount{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete bank account: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrAccountNotFound
	}
	return nil
}

func (r *accountRepository) SetPrimary(ctx context.Context, userID, accountID uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.BankAccount{}).
			Where("id = ? AND user_id = ?", accountID, userID).
			Update("is_primary", true)
		if result.Error != nil {
			return fmt.Errorf("failed to set primary account: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrAccountNotFound
		}
		err := tx.Model(&models.BankAccount{}).
			Where("user_id = ? AND id <> ?", userID, accountID).
			Update("is_primary", false).Error
		if err != nil {
			return fmt.Errorf("failed to clear primary flags: %w", err)
		}
		return nil
	})
}

func (r *accountRepository) ApplyBalanceChange(ctx context.Context, accountID uint, delta int64, expectedVersion int64) error {
	result := r.db.WithContext(ctx).Model(&models.BankAccount{}).
		Where("id = ? AND version = ? AND balance + ? >= 0", accountID, expectedVersion, delta).
		Updates(map[string]interface{}{
			"balance": gorm.Expr("balance + ?", delta),
			"version": gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to apply balance change: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrOptimisticLock
	}
	return nil
}

func (r *accountRepository) ResetBalances(ctx context.Context) error {
	err := r.db.WithContext(ctx).Model(&models.BankAccount{}).
		Where("1 = 1").
		Updates(map[string]interface{}{
			"balance": gorm.Expr("opening_balance"),
			"version": gorm.Expr("version + 1"),
		}).Error
	if err != nil {
		return fmt.Errorf("failed to reset balances: %w", err)
	}
	return nil
}

func (r *accountRepository) ExecuteInTransaction(fn func(AccountRepository) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(&accountRepository{db: tx})
	})
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
