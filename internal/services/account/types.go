package account

import (
	"context"

	"fundlink/internal/models"
	"fundlink/internal/money"
)

// LinkAccountRequest carries the details needed to link an external bank
// account.
type LinkAccountRequest struct {
	AccountNumber     string `json:"account_number" validate:"required,min=9,max=18,numeric"`
	BankName          string `json:"bank_name" validate:"required"`
	IFSCCode          string `json:"ifsc_code" validate:"required,len=11,alphanum"`
	AccountHolderName string `json:"account_holder_name" validate:"required"`
	PIN               string `json:"pin" validate:"required,len=4,numeric"`
}

// Recipient is what a phone search reveals about another user: enough to
// address a transfer, nothing about their balance.
type Recipient struct {
	UserID          uint   `json:"user_id"`
	Name            string `json:"name"`
	Phone           string `json:"phone"`
	HasLinkedBank   bool   `json:"has_linked_bank"`
	BankName        string `json:"bank_name,omitempty"`
	MaskedAccountNo string `json:"masked_account_number,omitempty"`
}

// Service manages linked bank accounts.
type Service interface {
	LinkAccount(ctx context.Context, userID uint, req LinkAccountRequest) (*models.BankAccount, error)
	GetAccounts(ctx context.Context, userID uint) ([]*models.BankAccount, error)
	DeleteAccount(ctx context.Context, userID, accountID uint) error
	SetPrimaryAccount(ctx context.Context, userID, accountID uint) error
	// CheckBalance returns the locally tracked balance after PIN
	// verification. The database is authoritative; the gateway is not
	// consulted.
	CheckBalance(ctx context.Context, userID, accountID uint, pin string) (money.Amount, error)
	SearchByPhone(ctx context.Context, phone string) (*Recipient, error)
	SupportedBanks() []models.BankInfo
	// ResetAllMoneyData restores every balance to its opening value and
	// clears the ledger. Admin only.
	ResetAllMoneyData(ctx context.Context) error
}

// BalanceCache keeps cached balances coherent with the database. Balance
// reads are always served from the authoritative account row; the cache is
// written through on reads and dropped on every mutation.
type BalanceCache interface {
	SetBalance(ctx context.Context, accountID uint, balance money.Amount) error
	Invalidate(ctx context.Context, accountID uint) error
	InvalidateAll(ctx context.Context) error
}
