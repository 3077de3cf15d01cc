package models

import "time"

// Reconciliation event statuses.
const (
	ReconciliationEventPending = "PENDING"
	ReconciliationEventSent    = "SENT"
	ReconciliationEventFailed  = "FAILED"
)

// ReconciliationEvent is an outbox row describing a transfer that settled
// externally but could not be finalized locally. Rows are written in the same
// database transaction as the ledger escalation so they survive a crash, and
// a background sender publishes them to the operator queue.
type ReconciliationEvent struct {
	ID            uint   `gorm:"primarykey"`
	TransactionID string `gorm:"index;not null"`
	Topic         string `gorm:"not null"`
	Payload       string `gorm:"type:text;not null"`
	Status        string `gorm:"not null;default:'PENDING'"`
	RetryCount    int    `gorm:"not null;default:0"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
