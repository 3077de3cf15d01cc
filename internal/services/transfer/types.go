package transfer

import (
	"fundlink/internal/money"
)

// InternalTransferRequest moves money between two users of this system. Both
// sides are resolved to their primary linked accounts.
type InternalTransferRequest struct {
	SenderUserID    uint
	RecipientUserID uint
	Amount          money.Amount
	PIN             string
	Description     string
}

// ExternalTransferRequest moves money to a bank account outside this system,
// identified by the beneficiary details rather than a user id.
type ExternalTransferRequest struct {
	SenderUserID           uint
	RecipientName          string
	RecipientAccountNumber string
	RecipientIFSC          string
	Amount                 money.Amount
	PIN                    string
	Description            string
}

// Result describes a completed transfer.
type Result struct {
	TransactionID       string       `json:"transaction_id"`
	Status              string       `json:"status"`
	Amount              money.Amount `json:"amount"`
	SettlementReference string       `json:"settlement_reference"`
	BalanceAfter        money.Amount `json:"balance_after"`
}

// Stage names the phase of the transfer pipeline a failure occurred in, used
// for logging and metrics only.
type Stage string

const (
	StageValidating  Stage = "validating"
	StageAuthorizing Stage = "authorizing"
	StageLocking     Stage = "locking"
	StageReserving   Stage = "reserving"
	StageSettling    Stage = "settling"
	StageApplying    Stage = "applying"
	StageRecording   Stage = "recording"
)
