// Package ledger exposes read and audit operations over the transaction
// ledger: per-user history, settlement reference lookups and the balance
// reconciliation report operators use after a RECONCILIATION_REQUIRED event.
package ledger

import (
	"context"
	"errors"

	domainerr "fundlink/internal/errors"
	"fundlink/internal/models"
	"fundlink/internal/money"
	"fundlink/internal/repositories"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 200
)

// Report compares an account's ledger-implied balance against its live
// balance. Expected is opening balance minus settled debits plus settled
// credits; Balanced means the books agree.
type Report struct {
	AccountID       uint         `json:"account_id"`
	OpeningBalance  money.Amount `json:"opening_balance"`
	SettledDebits   money.Amount `json:"settled_debits"`
	SettledCredits  money.Amount `json:"settled_credits"`
	ExpectedBalance money.Amount `json:"expected_balance"`
	ActualBalance   money.Amount `json:"actual_balance"`
	Balanced        bool         `json:"balanced"`
}

// Service reads the ledger.
type Service interface {
	// History returns transactions touching any of the user's linked
	// accounts, newest first.
	History(ctx context.Context, userID uint, limit, offset int) ([]*models.Transaction, error)
	GetTransaction(ctx context.Context, transactionID string) (*models.Transaction, error)
	FindBySettlementRef(ctx context.Context, ref string) (*models.Transaction, error)
	Reconcile(ctx context.Context, accountID uint) (*Report, error)
}

type service struct {
	ledger   repositories.LedgerRepository
	accounts repositories.AccountRepository
}

func NewService(ledger repositories.LedgerRepository, accounts repositories.AccountRepository) Service {
	if ledger == nil {
		panic("ledger repository is required")
	}
	if accounts == nil {
		panic("account repository is required")
	}
	return &service{ledger: ledger, accounts: accounts}
}

func (s *service) History(ctx context.Context, userID uint, limit, offset int) ([]*models.Transaction, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	if offset < 0 {
		offset = 0
	}

	accounts, err := s.accounts.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(accounts) == 0 {
		return []*models.Transaction{}, nil
	}
	ids := make([]uint, len(accounts))
	for i, a := range accounts {
		ids[i] = a.ID
	}
	return s.ledger.HistoryByAccounts(ctx, ids, limit, offset)
}

func (s *service) GetTransaction(ctx context.Context, transactionID string) (*models.Transaction, error) {
	return s.ledger.GetByTransactionID(ctx, transactionID)
}

func (s *service) FindBySettlementRef(ctx context.Context, ref string) (*models.Transaction, error) {
	return s.ledger.GetBySettlementRef(ctx, ref)
}

func (s *service) Reconcile(ctx context.Context, accountID uint) (*Report, error) {
	acct, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, repositories.ErrAccountNotFound) {
			return nil, domainerr.ErrNotPrimaryCandidate
		}
		return nil, err
	}

	sums, err := s.ledger.SuccessSums(ctx, accountID)
	if err != nil {
		return nil, err
	}

	expected := acct.OpeningBalance - sums.Debits + sums.Credits
	return &Report{
		AccountID:       accountID,
		OpeningBalance:  money.Amount(acct.OpeningBalance),
		SettledDebits:   money.Amount(sums.Debits),
		SettledCredits:  money.Amount(sums.Credits),
		ExpectedBalance: money.Amount(expected),
		ActualBalance:   money.Amount(acct.Balance),
		Balanced:        expected == acct.Balance,
	}, nil
}
