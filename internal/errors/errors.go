// Package errors defines the transfer engine's error taxonomy. Every error a
// caller can see is a typed value in one of five categories; the category
// determines both the transport mapping and, critically, whether any side
// effects exist when the error is returned.
package errors

import "errors"

// Category classifies a DomainError for transport translation.
type Category string

const (
	// CategoryValidation: bad input, zero side effects.
	CategoryValidation Category = "validation"
	// CategoryAuthorization: wrong PIN, zero side effects.
	CategoryAuthorization Category = "authorization"
	// CategoryState: account state prevents the operation, zero side effects.
	CategoryState Category = "state"
	// CategoryExternal: the gateway rejected or was unreachable before any
	// settlement committed, zero side effects.
	CategoryExternal Category = "external"
	// CategoryReconciliation: the external settlement committed but local
	// finalization failed. Side effects exist and must never be discarded.
	CategoryReconciliation Category = "reconciliation"
)

// DomainError is a stable, coded error value.
type DomainError struct {
	Code     string
	Message  string
	Category Category
}

func (e *DomainError) Error() string { return e.Message }

var (
	// Validation
	ErrInvalidAmount = &DomainError{
		Code:     "INVALID_AMOUNT",
		Message:  "amount must be greater than zero",
		Category: CategoryValidation,
	}
	ErrSameAccount = &DomainError{
		Code:     "SAME_ACCOUNT",
		Message:  "cannot transfer to the same account",
		Category: CategoryValidation,
	}
	ErrRecipientNotFound = &DomainError{
		Code:     "RECIPIENT_NOT_FOUND",
		Message:  "recipient has no linked bank account",
		Category: CategoryValidation,
	}
	ErrVerificationFailed = &DomainError{
		Code:     "VERIFICATION_FAILED",
		Message:  "bank account verification failed",
		Category: CategoryValidation,
	}
	ErrAccountAlreadyLinked = &DomainError{
		Code:     "ACCOUNT_ALREADY_LINKED",
		Message:  "this account number is already linked",
		Category: CategoryValidation,
	}

	// Authorization
	ErrIncorrectPIN = &DomainError{
		Code:     "INCORRECT_PIN",
		Message:  "incorrect PIN",
		Category: CategoryAuthorization,
	}

	// State
	ErrAccountNotLinked = &DomainError{
		Code:     "ACCOUNT_NOT_LINKED",
		Message:  "no bank account linked",
		Category: CategoryState,
	}
	ErrAccountNotVerified = &DomainError{
		Code:     "ACCOUNT_NOT_VERIFIED",
		Message:  "bank account is not verified",
		Category: CategoryState,
	}
	ErrInsufficientFunds = &DomainError{
		Code:     "INSUFFICIENT_FUNDS",
		Message:  "insufficient funds",
		Category: CategoryState,
	}
	ErrNotPrimaryCandidate = &DomainError{
		Code:     "ACCOUNT_NOT_FOUND",
		Message:  "bank account not found for this user",
		Category: CategoryState,
	}

	// External (pre-commit)
	ErrLimitExceeded = &DomainError{
		Code:     "LIMIT_EXCEEDED",
		Message:  "transfer amount exceeds the external bank limit",
		Category: CategoryExternal,
	}
	ErrGatewayUnavailable = &DomainError{
		Code:     "GATEWAY_UNAVAILABLE",
		Message:  "banking gateway is unavailable, no money has moved",
		Category: CategoryExternal,
	}
)

// ReconciliationRequiredError reports that the external settlement committed
// but the local ledger could not be finalized. It carries enough context for
// an operator to repair the books.
type ReconciliationRequiredError struct {
	TransactionID       string
	SettlementReference string
	Cause               error
}

func (e *ReconciliationRequiredError) Error() string {
	return "transfer settled externally but could not be finalized locally; reconciliation required (ref " +
		e.SettlementReference + ")"
}

func (e *ReconciliationRequiredError) Unwrap() error { return e.Cause }

func categoryOf(err error) (Category, bool) {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Category, true
	}
	var re *ReconciliationRequiredError
	if errors.As(err, &re) {
		return CategoryReconciliation, true
	}
	return "", false
}

// IsValidation reports whether err is a validation error.
func IsValidation(err error) bool { c, ok := categoryOf(err); return ok && c == CategoryValidation }

// IsAuthorization reports whether err is an authorization error.
func IsAuthorization(err error) bool {
	c, ok := categoryOf(err)
	return ok && c == CategoryAuthorization
}

// IsState reports whether err is a state error.
func IsState(err error) bool { c, ok := categoryOf(err); return ok && c == CategoryState }

// IsExternal reports whether err is a pre-commit external failure.
func IsExternal(err error) bool { c, ok := categoryOf(err); return ok && c == CategoryExternal }

// IsReconciliationRequired reports whether side effects exist despite the
// error. Callers must never treat such an error as "no money moved".
func IsReconciliationRequired(err error) bool {
	c, ok := categoryOf(err)
	return ok && c == CategoryReconciliation
}
