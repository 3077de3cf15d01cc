package models

import (
	"time"
)

// Transaction statuses. PENDING rows may transition exactly once to a
// terminal status; SUCCESS and FAILED rows are immutable.
// RECONCILIATION_REQUIRED marks rows where the external settlement committed
// but local finalization failed.
const (
	TransactionStatusPending                = "PENDING"
	TransactionStatusSuccess                = "SUCCESS"
	TransactionStatusFailed                 = "FAILED"
	TransactionStatusReconciliationRequired = "RECONCILIATION_REQUIRED"
)

// Transaction types.
const (
	TransactionTypeInternal = "INTERNAL_TRANSFER"
	TransactionTypeExternal = "EXTERNAL_TRANSFER"
)

// Transaction is one ledger row, created once per transfer attempt.
// Accounts are referenced by id only so rows survive account deletion for
// audit. ReceiverAccountID is nil for external transfers; the recipient
// descriptor fields identify the external beneficiary instead.
type Transaction struct {
	ID                     uint      `gorm:"primarykey" json:"id"`
	TransactionID          string    `gorm:"uniqueIndex;not null" json:"transaction_id"`
	Type                   string    `gorm:"not null" json:"type"`
	SenderAccountID        *uint     `gorm:"index" json:"sender_account_id"`
	ReceiverAccountID      *uint     `gorm:"index" json:"receiver_account_id"`
	RecipientName          string    `json:"recipient_name,omitempty"`
	RecipientAccountNumber string    `json:"recipient_account_number,omitempty"`
	RecipientIFSC          string    `json:"recipient_ifsc,omitempty"`
	Amount                 int64     `gorm:"not null" json:"amount"`
	Status                 string    `gorm:"not null;default:'PENDING'" json:"status"`
	SettlementReference    *string   `gorm:"uniqueIndex" json:"settlement_reference"`
	Description            string    `json:"description"`
	BalanceBefore          int64     `json:"balance_before"`
	BalanceAfter           int64     `json:"balance_after"`
	Metadata               JSON      `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt              time.Time `json:"created_at"`
	UpdatedAt              time.Time `json:"updated_at"`
}

// IsTerminal reports whether the row may no longer change status.
func (t *Transaction) IsTerminal() bool {
	return t.Status == TransactionStatusSuccess || t.Status == TransactionStatusFailed
}
