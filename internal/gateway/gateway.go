// Package gateway defines the boundary to the external banking network and a
// simulated implementation of it. Once ExecuteTransfer returns a settlement
// reference the external debit/credit is committed in the real world; callers
// must not treat a later local failure as "transfer never happened".
package gateway

import (
	"context"
	"errors"

	"fundlink/internal/money"
)

var (
	// ErrLimitExceeded is returned when the amount is above the network
	// ceiling. No settlement occurred.
	ErrLimitExceeded = errors.New("gateway: transaction limit exceeded")
	// ErrUnavailable is returned when no response was received before any
	// settlement could commit. Safe to retry.
	ErrUnavailable = errors.New("gateway: unavailable")
)

// Gateway is the contract consumed by the transfer engine.
type Gateway interface {
	// VerifyAccount checks beneficiary details with the banking network.
	VerifyAccount(ctx context.Context, accountNumber, ifsc, holderName string) (bool, error)
	// ExecuteTransfer moves money externally and returns a settlement
	// reference. An error guarantees nothing was committed.
	ExecuteTransfer(ctx context.Context, fromAccount, toAccount string, amount money.Amount) (string, error)
	// QueryBalance fetches the external balance, used to seed the local
	// cached balance at link time.
	QueryBalance(ctx context.Context, accountNumber string) (money.Amount, error)
}
