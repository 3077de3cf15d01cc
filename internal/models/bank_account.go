package models

import (
	"time"

	"fundlink/internal/money"
)

// BankAccount is a user's linked external bank account. Balance is the local
// authoritative view in paise once the account is linked; OpeningBalance is
// the gateway-reported balance at link time and serves as the reconciliation
// baseline. Version is bumped on every balance mutation for optimistic
// concurrency.
type BankAccount struct {
	ID                uint      `gorm:"primarykey" json:"id"`
	UserID            uint      `gorm:"index;not null" json:"user_id"`
	AccountNumber     string    `gorm:"uniqueIndex;not null" json:"account_number"`
	BankName          string    `gorm:"not null" json:"bank_name"`
	IFSCCode          string    `gorm:"column:ifsc_code;not null" json:"ifsc_code"`
	AccountHolderName string    `gorm:"not null" json:"account_holder_name"`
	PINHash           string    `gorm:"column:pin_hash;not null" json:"-"`
	Balance           int64     `gorm:"not null;default:0" json:"balance"`
	OpeningBalance    int64     `gorm:"not null;default:0" json:"opening_balance"`
	IsVerified        bool      `gorm:"not null;default:false" json:"is_verified"`
	IsPrimary         bool      `gorm:"not null;default:false" json:"is_primary"`
	Version           int64     `gorm:"not null;default:0" json:"-"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// BalanceAmount returns the balance as a money.Amount.
func (a *BankAccount) BalanceAmount() money.Amount { return money.Amount(a.Balance) }
