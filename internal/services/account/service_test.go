package account

import (
	"context"
	"testing"
	"time"

	domainerr "fundlink/internal/errors"
	"fundlink/internal/models"
	"fundlink/internal/money"
	"fundlink/internal/repositories"
	"fundlink/internal/services/pin"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAccountRepo struct {
	accounts map[uint]*models.BankAccount
	nextID   uint
}

func newFakeAccountRepo() *fakeAccountRepo {
	return &fakeAccountRepo{accounts: make(map[uint]*models.BankAccount), nextID: 1}
}

func (f *fakeAccountRepo) Create(_ context.Context, a *models.BankAccount) error {
	for _, existing := range f.accounts {
		if existing.AccountNumber == a.AccountNumber {
			return repositories.ErrDuplicateAccount
		}
	}
	a.ID = f.nextID
	f.nextID++
	copied := *a
	f.accounts[a.ID] = &copied
	return nil
}

func (f *fakeAccountRepo) GetByID(_ context.Context, id uint) (*models.BankAccount, error) {
	a, ok := f.accounts[id]
	if !ok {
		return nil, repositories.ErrAccountNotFound
	}
	copied := *a
	return &copied, nil
}

func (f *fakeAccountRepo) GetByAccountNumber(_ context.Context, number string) (*models.BankAccount, error) {
	for _, a := range f.accounts {
		if a.AccountNumber == number {
			copied := *a
			return &copied, nil
		}
	}
	return nil, repositories.ErrAccountNotFound
}

func (f *fakeAccountRepo) ListByUser(_ context.Context, userID uint) ([]*models.BankAccount, error) {
	var out []*models.BankAccount
	for id := uint(1); id < f.nextID; id++ {
		if a, ok := f.accounts[id]; ok && a.UserID == userID {
			copied := *a
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (f *fakeAccountRepo) GetPrimaryByUser(_ context.Context, userID uint) (*models.BankAccount, error) {
	for _, a := range f.accounts {
		if a.UserID == userID && a.IsPrimary {
			copied := *a
			return &copied, nil
		}
	}
	return nil, repositories.ErrAccountNotFound
}

func (f *fakeAccountRepo) Update(_ context.Context, a *models.BankAccount) error {
	copied := *a
	f.accounts[a.ID] = &copied
	return nil
}

func (f *fakeAccountRepo) Delete(_ context.Context, id uint) error {
	if _, ok := f.accounts[id]; !ok {
		return repositories.ErrAccountNotFound
	}
	delete(f.accounts, id)
	return nil
}

func (f *fakeAccountRepo) SetPrimary(_ context.Context, userID, accountID uint) error {
	target, ok := f.accounts[accountID]
	if !ok || target.UserID != userID {
		return repositories.ErrAccountNotFound
	}
	for _, a := range f.accounts {
		if a.UserID == userID {
			a.IsPrimary = a.ID == accountID
		}
	}
	return nil
}

func (f *fakeAccountRepo) ApplyBalanceChange(_ context.Context, accountID uint, delta, expectedVersion int64) error {
	a, ok := f.accounts[accountID]
	if !ok || a.Version != expectedVersion || a.Balance+delta < 0 {
		return repositories.ErrOptimisticLock
	}
	a.Balance += delta
	a.Version++
	return nil
}

func (f *fakeAccountRepo) ResetBalances(_ context.Context) error {
	for _, a := range f.accounts {
		a.Balance = a.OpeningBalance
		a.Version++
	}
	return nil
}

func (f *fakeAccountRepo) ExecuteInTransaction(fn func(repositories.AccountRepository) error) error {
	return fn(f)
}

type fakeLedgerRepo struct {
	deleted bool
}

func (f *fakeLedgerRepo) Create(context.Context, *models.Transaction) error { return nil }
func (f *fakeLedgerRepo) GetByTransactionID(context.Context, string) (*models.Transaction, error) {
	return nil, repositories.ErrTransactionNotFound
}
func (f *fakeLedgerRepo) GetBySettlementRef(context.Context, string) (*models.Transaction, error) {
	return nil, repositories.ErrTransactionNotFound
}
func (f *fakeLedgerRepo) Transition(context.Context, string, string, *string, *int64) error {
	return nil
}
func (f *fakeLedgerRepo) HistoryByAccounts(context.Context, []uint, int, int) ([]*models.Transaction, error) {
	return nil, nil
}
func (f *fakeLedgerRepo) SuccessSums(context.Context, uint) (repositories.ReconciliationSums, error) {
	return repositories.ReconciliationSums{}, nil
}
func (f *fakeLedgerRepo) ListStalePending(context.Context, time.Time, int) ([]*models.Transaction, error) {
	return nil, nil
}
func (f *fakeLedgerRepo) DeleteAll(context.Context) error {
	f.deleted = true
	return nil
}

type fakeUserRepo struct {
	users map[string]*models.User
}

func (f *fakeUserRepo) GetByID(_ context.Context, id uint) (*models.User, error) {
	for _, u := range f.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (f *fakeUserRepo) GetByPhone(_ context.Context, phone string) (*models.User, error) {
	u, ok := f.users[phone]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	return u, nil
}

type fakeGateway struct {
	verifyOK   bool
	verifyErr  error
	balance    money.Amount
	balanceErr error
}

func (f *fakeGateway) VerifyAccount(context.Context, string, string, string) (bool, error) {
	return f.verifyOK, f.verifyErr
}

func (f *fakeGateway) ExecuteTransfer(context.Context, string, string, money.Amount) (string, error) {
	return "BNK-TESTREF0", nil
}

func (f *fakeGateway) QueryBalance(context.Context, string) (money.Amount, error) {
	return f.balance, f.balanceErr
}

func newTestService(repo *fakeAccountRepo, ledger *fakeLedgerRepo, users *fakeUserRepo, gw *fakeGateway) Service {
	return NewService(repo, ledger, users, gw, pin.NewGuard(), nil, nil)
}

func validLinkRequest() LinkAccountRequest {
	return LinkAccountRequest{
		AccountNumber:     "123456789012",
		BankName:          "HDFC Bank",
		IFSCCode:          "HDFC0001234",
		AccountHolderName: "Asha Rao",
		PIN:               "4321",
	}
}

func TestLinkAccount(t *testing.T) {
	repo := newFakeAccountRepo()
	gw := &fakeGateway{verifyOK: true, balance: money.MustParse("5000.00")}
	svc := newTestService(repo, &fakeLedgerRepo{}, &fakeUserRepo{}, gw)

	acct, err := svc.LinkAccount(context.Background(), 7, validLinkRequest())
	require.NoError(t, err)

	assert.True(t, acct.IsPrimary, "first linked account becomes primary")
	assert.True(t, acct.IsVerified)
	assert.Equal(t, int64(500000), acct.Balance, "balance seeded from gateway in paise")
	assert.Equal(t, acct.Balance, acct.OpeningBalance)
	assert.NotEmpty(t, acct.PINHash)
	assert.NotContains(t, acct.PINHash, "4321")
}

func TestLinkAccountSecondIsNotPrimary(t *testing.T) {
	repo := newFakeAccountRepo()
	gw := &fakeGateway{verifyOK: true, balance: money.MustParse("5000.00")}
	svc := newTestService(repo, &fakeLedgerRepo{}, &fakeUserRepo{}, gw)

	_, err := svc.LinkAccount(context.Background(), 7, validLinkRequest())
	require.NoError(t, err)

	second := validLinkRequest()
	second.AccountNumber = "998877665544"
	acct, err := svc.LinkAccount(context.Background(), 7, second)
	require.NoError(t, err)
	assert.False(t, acct.IsPrimary)
}

func TestLinkAccountDuplicate(t *testing.T) {
	repo := newFakeAccountRepo()
	gw := &fakeGateway{verifyOK: true, balance: money.MustParse("5000.00")}
	svc := newTestService(repo, &fakeLedgerRepo{}, &fakeUserRepo{}, gw)

	_, err := svc.LinkAccount(context.Background(), 7, validLinkRequest())
	require.NoError(t, err)

	_, err = svc.LinkAccount(context.Background(), 8, validLinkRequest())
	assert.ErrorIs(t, err, domainerr.ErrAccountAlreadyLinked)
}

func TestLinkAccountVerificationFailed(t *testing.T) {
	repo := newFakeAccountRepo()
	gw := &fakeGateway{verifyOK: false}
	svc := newTestService(repo, &fakeLedgerRepo{}, &fakeUserRepo{}, gw)

	_, err := svc.LinkAccount(context.Background(), 7, validLinkRequest())
	assert.ErrorIs(t, err, domainerr.ErrVerificationFailed)
	assert.Empty(t, repo.accounts, "nothing persisted on verification failure")
}

func TestDeleteAccountPromotesOldestRemaining(t *testing.T) {
	repo := newFakeAccountRepo()
	gw := &fakeGateway{verifyOK: true, balance: money.MustParse("5000.00")}
	svc := newTestService(repo, &fakeLedgerRepo{}, &fakeUserRepo{}, gw)

	first, err := svc.LinkAccount(context.Background(), 7, validLinkRequest())
	require.NoError(t, err)

	second := validLinkRequest()
	second.AccountNumber = "998877665544"
	acct2, err := svc.LinkAccount(context.Background(), 7, second)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteAccount(context.Background(), 7, first.ID))

	promoted, err := repo.GetByID(context.Background(), acct2.ID)
	require.NoError(t, err)
	assert.True(t, promoted.IsPrimary, "remaining account inherits primary")
}

func TestDeleteAccountNotOwned(t *testing.T) {
	repo := newFakeAccountRepo()
	gw := &fakeGateway{verifyOK: true, balance: money.MustParse("5000.00")}
	svc := newTestService(repo, &fakeLedgerRepo{}, &fakeUserRepo{}, gw)

	acct, err := svc.LinkAccount(context.Background(), 7, validLinkRequest())
	require.NoError(t, err)

	err = svc.DeleteAccount(context.Background(), 99, acct.ID)
	assert.ErrorIs(t, err, domainerr.ErrNotPrimaryCandidate)
}

func TestCheckBalance(t *testing.T) {
	repo := newFakeAccountRepo()
	gw := &fakeGateway{verifyOK: true, balance: money.MustParse("5000.00")}
	svc := newTestService(repo, &fakeLedgerRepo{}, &fakeUserRepo{}, gw)

	acct, err := svc.LinkAccount(context.Background(), 7, validLinkRequest())
	require.NoError(t, err)

	// The local balance is authoritative after linking; a gateway drift
	// must not leak through.
	gw.balance = money.MustParse("9999.99")

	balance, err := svc.CheckBalance(context.Background(), 7, acct.ID, "4321")
	require.NoError(t, err)
	assert.Equal(t, money.MustParse("5000.00"), balance)
}

func TestCheckBalanceWrongPIN(t *testing.T) {
	repo := newFakeAccountRepo()
	gw := &fakeGateway{verifyOK: true, balance: money.MustParse("5000.00")}
	svc := newTestService(repo, &fakeLedgerRepo{}, &fakeUserRepo{}, gw)

	acct, err := svc.LinkAccount(context.Background(), 7, validLinkRequest())
	require.NoError(t, err)

	_, err = svc.CheckBalance(context.Background(), 7, acct.ID, "0000")
	assert.ErrorIs(t, err, domainerr.ErrIncorrectPIN)
}

func TestSearchByPhone(t *testing.T) {
	repo := newFakeAccountRepo()
	gw := &fakeGateway{verifyOK: true, balance: money.MustParse("5000.00")}
	users := &fakeUserRepo{users: map[string]*models.User{
		"9876543210": {Name: "Asha Rao", Phone: "9876543210"},
	}}
	users.users["9876543210"].ID = 7
	svc := newTestService(repo, &fakeLedgerRepo{}, users, gw)

	_, err := svc.LinkAccount(context.Background(), 7, validLinkRequest())
	require.NoError(t, err)

	rec, err := svc.SearchByPhone(context.Background(), "9876543210")
	require.NoError(t, err)
	assert.True(t, rec.HasLinkedBank)
	assert.Equal(t, "XXXXXXXX9012", rec.MaskedAccountNo)

	_, err = svc.SearchByPhone(context.Background(), "0000000000")
	assert.ErrorIs(t, err, domainerr.ErrRecipientNotFound)
}

func TestResetAllMoneyData(t *testing.T) {
	repo := newFakeAccountRepo()
	ledger := &fakeLedgerRepo{}
	gw := &fakeGateway{verifyOK: true, balance: money.MustParse("5000.00")}
	svc := newTestService(repo, ledger, &fakeUserRepo{}, gw)

	acct, err := svc.LinkAccount(context.Background(), 7, validLinkRequest())
	require.NoError(t, err)
	require.NoError(t, repo.ApplyBalanceChange(context.Background(), acct.ID, -100000, 0))

	require.NoError(t, svc.ResetAllMoneyData(context.Background()))

	after, err := repo.GetByID(context.Background(), acct.ID)
	require.NoError(t, err)
	assert.Equal(t, after.OpeningBalance, after.Balance)
	assert.True(t, ledger.deleted)
}

func TestSupportedBanks(t *testing.T) {
	svc := newTestService(newFakeAccountRepo(), &fakeLedgerRepo{}, &fakeUserRepo{}, &fakeGateway{})
	banks := svc.SupportedBanks()
	assert.Len(t, banks, 15)
	assert.Equal(t, "SBI", banks[0].Code)
}
