// Package account implements the linked bank account registry: linking with
// external verification, primary account management, PIN-gated balance reads
// and the recipient search used by transfers.
package account

import (
	"context"
	"errors"
	"fmt"

	domainerr "fundlink/internal/errors"
	"fundlink/internal/gateway"
	"fundlink/internal/models"
	"fundlink/internal/money"
	"fundlink/internal/repositories"
	"fundlink/internal/services/pin"

	"go.uber.org/zap"
)

type service struct {
	accounts repositories.AccountRepository
	ledger   repositories.LedgerRepository
	users    repositories.UserRepository
	gateway  gateway.Gateway
	guard    *pin.Guard
	cache    BalanceCache
	logger   *zap.Logger
}

// NewService creates the account registry service. cache may be nil.
func NewService(
	accounts repositories.AccountRepository,
	ledger repositories.LedgerRepository,
	users repositories.UserRepository,
	gw gateway.Gateway,
	guard *pin.Guard,
	cache BalanceCache,
	logger *zap.Logger,
) Service {
	if accounts == nil {
		panic("account repository is required")
	}
	if gw == nil {
		panic("gateway is required")
	}
	if guard == nil {
		guard = pin.NewGuard()
	}
	if cache == nil {
		cache = noopCache{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &service{
		accounts: accounts,
		ledger:   ledger,
		users:    users,
		gateway:  gw,
		guard:    guard,
		cache:    cache,
		logger:   logger,
	}
}

func (s *service) LinkAccount(ctx context.Context, userID uint, req LinkAccountRequest) (*models.BankAccount, error) {
	if _, err := s.accounts.GetByAccountNumber(ctx, req.AccountNumber); err == nil {
		return nil, domainerr.ErrAccountAlreadyLinked
	} else if !errors.Is(err, repositories.ErrAccountNotFound) {
		return nil, err
	}

	verified, err := s.gateway.VerifyAccount(ctx, req.AccountNumber, req.IFSCCode, req.AccountHolderName)
	if err != nil {
		return nil, mapGatewayErr(err)
	}
	if !verified {
		return nil, domainerr.ErrVerificationFailed
	}

	// The gateway balance seeds the local ledger; from here on the local
	// balance is authoritative.
	opening, err := s.gateway.QueryBalance(ctx, req.AccountNumber)
	if err != nil {
		return nil, mapGatewayErr(err)
	}

	pinHash, err := s.guard.Hash(req.PIN)
	if err != nil {
		return nil, fmt.Errorf("failed to hash pin: %w", err)
	}

	existing, err := s.accounts.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	acct := &models.BankAccount{
		UserID:            userID,
		AccountNumber:     req.AccountNumber,
		BankName:          req.BankName,
		IFSCCode:          req.IFSCCode,
		AccountHolderName: req.AccountHolderName,
		PINHash:           pinHash,
		Balance:           opening.Paise(),
		OpeningBalance:    opening.Paise(),
		IsVerified:        true,
		IsPrimary:         len(existing) == 0,
	}

	if err := s.accounts.Create(ctx, acct); err != nil {
		if errors.Is(err, repositories.ErrDuplicateAccount) {
			return nil, domainerr.ErrAccountAlreadyLinked
		}
		return nil, err
	}

	s.cache.SetBalance(ctx, acct.ID, opening)
	s.logger.Info("bank account linked",
		zap.Uint("user_id", userID),
		zap.Uint("account_id", acct.ID),
		zap.String("bank", acct.BankName),
		zap.Bool("primary", acct.IsPrimary),
	)
	return acct, nil
}

func (s *service) GetAccounts(ctx context.Context, userID uint) ([]*models.BankAccount, error) {
	return s.accounts.ListByUser(ctx, userID)
}

func (s *service) DeleteAccount(ctx context.Context, userID, accountID uint) error {
	acct, err := s.ownedAccount(ctx, userID, accountID)
	if err != nil {
		return err
	}

	err = s.accounts.ExecuteInTransaction(func(repo repositories.AccountRepository) error {
		if err := repo.Delete(ctx, accountID); err != nil {
			return err
		}
		if !acct.IsPrimary {
			return nil
		}
		// The oldest remaining account inherits primary.
		remaining, err := repo.ListByUser(ctx, userID)
		if err != nil {
			return err
		}
		if len(remaining) == 0 {
			return nil
		}
		return repo.SetPrimary(ctx, userID, remaining[0].ID)
	})
	if err != nil {
		return err
	}

	s.cache.Invalidate(ctx, accountID)
	s.logger.Info("bank account unlinked",
		zap.Uint("user_id", userID),
		zap.Uint("account_id", accountID),
	)
	return nil
}

func (s *service) SetPrimaryAccount(ctx context.Context, userID, accountID uint) error {
	acct, err := s.ownedAccount(ctx, userID, accountID)
	if err != nil {
		return err
	}
	if !acct.IsVerified {
		return domainerr.ErrAccountNotVerified
	}
	if err := s.accounts.SetPrimary(ctx, userID, accountID); err != nil {
		if errors.Is(err, repositories.ErrAccountNotFound) {
			return domainerr.ErrNotPrimaryCandidate
		}
		return err
	}
	return nil
}

func (s *service) CheckBalance(ctx context.Context, userID, accountID uint, pinCode string) (money.Amount, error) {
	acct, err := s.ownedAccount(ctx, userID, accountID)
	if err != nil {
		return 0, err
	}
	if !s.guard.VerifyAccount(acct, pinCode) {
		return 0, domainerr.ErrIncorrectPIN
	}

	balance := acct.BalanceAmount()
	s.cache.SetBalance(ctx, accountID, balance)
	return balance, nil
}

func (s *service) SearchByPhone(ctx context.Context, phone string) (*Recipient, error) {
	user, err := s.users.GetByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, domainerr.ErrRecipientNotFound
		}
		return nil, err
	}

	rec := &Recipient{
		UserID: user.ID,
		Name:   user.Name,
		Phone:  user.Phone,
	}

	primary, err := s.accounts.GetPrimaryByUser(ctx, user.ID)
	if err != nil {
		if errors.Is(err, repositories.ErrAccountNotFound) {
			return rec, nil
		}
		return nil, err
	}
	rec.HasLinkedBank = true
	rec.BankName = primary.BankName
	rec.MaskedAccountNo = maskAccountNumber(primary.AccountNumber)
	return rec, nil
}

func (s *service) SupportedBanks() []models.BankInfo {
	return models.SupportedBanks
}

func (s *service) ResetAllMoneyData(ctx context.Context) error {
	err := s.accounts.ExecuteInTransaction(func(repo repositories.AccountRepository) error {
		if err := repo.ResetBalances(ctx); err != nil {
			return err
		}
		return s.ledger.DeleteAll(ctx)
	})
	if err != nil {
		return err
	}

	if err := s.cache.InvalidateAll(ctx); err != nil {
		s.logger.Warn("failed to flush balance cache after reset", zap.Error(err))
	}
	s.logger.Info("all money data reset to opening balances")
	return nil
}

// ownedAccount fetches accountID and confirms it belongs to userID. Accounts
// owned by someone else are reported as not found, never as forbidden.
func (s *service) ownedAccount(ctx context.Context, userID, accountID uint) (*models.BankAccount, error) {
	acct, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, repositories.ErrAccountNotFound) {
			return nil, domainerr.ErrNotPrimaryCandidate
		}
		return nil, err
	}
	if acct.UserID != userID {
		return nil, domainerr.ErrNotPrimaryCandidate
	}
	return acct, nil
}

func mapGatewayErr(err error) error {
	switch {
	case errors.Is(err, gateway.ErrUnavailable):
		return domainerr.ErrGatewayUnavailable
	case errors.Is(err, gateway.ErrLimitExceeded):
		return domainerr.ErrLimitExceeded
	default:
		return domainerr.ErrGatewayUnavailable
	}
}

func maskAccountNumber(number string) string {
	if len(number) <= 4 {
		return number
	}
	masked := make([]byte, len(number)-4)
	for i := range masked {
		masked[i] = 'X'
	}
	return string(masked) + number[len(number)-4:]
}

type noopCache struct{}

func (noopCache) SetBalance(context.Context, uint, money.Amount) error { return nil }
func (noopCache) Invalidate(context.Context, uint) error               { return nil }
func (noopCache) InvalidateAll(context.Context) error                  { return nil }
