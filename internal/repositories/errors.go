package repositories

import "errors"

var (
	ErrAccountNotFound     = errors.New("bank account not found")
	ErrDuplicateAccount    = errors.New("account number already linked")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrUserNotFound        = errors.New("user not found")
	// ErrOptimisticLock means the account row changed between read and
	// write; the caller should re-read and retry under its lock.
	ErrOptimisticLock = errors.New("account version conflict")
	// ErrInvalidTransition guards the ledger's single PENDING->terminal
	// status transition.
	ErrInvalidTransition = errors.New("invalid transaction status transition")
)
