// Package transfer implements the money movement engine. A transfer runs
// through validation, PIN authorization, per-account locking, a local debit
// reserve, external settlement and a final commit. The account locks are not
// held across the gateway call; the reserve keeps the books consistent while
// the network is in flight.
//
// Failure handling follows one rule: before the gateway returns a settlement
// reference, every failure is compensated and the caller may retry freely.
// After a reference exists, a local failure escalates the ledger row to
// RECONCILIATION_REQUIRED and queues an operator event instead of pretending
// the money never moved.
package transfer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	domainerr "fundlink/internal/errors"
	"fundlink/internal/gateway"
	"fundlink/internal/locks"
	"fundlink/internal/models"
	"fundlink/internal/money"
	"fundlink/internal/repositories"
	"fundlink/internal/services/pin"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// maxBalanceRetries bounds optimistic lock retries on a balance CAS.
	maxBalanceRetries = 3
	// maxSettleRetries bounds gateway retries when no settlement committed.
	maxSettleRetries = 3
	settleRetryDelay = 200 * time.Millisecond

	reconciliationTopic = "wallet.reconciliation"
)

type engine struct {
	repo    repositories.TransferRepository
	guard   *pin.Guard
	gateway gateway.Gateway
	locker  locks.Locker
	cache   BalanceInvalidator
	metrics MetricsCollector
	logger  *zap.Logger
}

// NewEngine creates the transfer engine. cache and metrics may be nil.
func NewEngine(
	repo repositories.TransferRepository,
	guard *pin.Guard,
	gw gateway.Gateway,
	locker locks.Locker,
	cache BalanceInvalidator,
	metrics MetricsCollector,
	logger *zap.Logger,
) Service {
	if repo == nil {
		panic("transfer repository is required")
	}
	if gw == nil {
		panic("gateway is required")
	}
	if locker == nil {
		locker = locks.NewKeyedLocker()
	}
	if guard == nil {
		guard = pin.NewGuard()
	}
	if cache == nil {
		cache = noopInvalidator{}
	}
	if metrics == nil {
		metrics = &NoopMetricsCollector{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &engine{
		repo:    repo,
		guard:   guard,
		gateway: gw,
		locker:  locker,
		cache:   cache,
		metrics: metrics,
		logger:  logger,
	}
}

func (e *engine) Transfer(ctx context.Context, req InternalTransferRequest) (*Result, error) {
	start := time.Now()
	res, err := e.transferInternal(ctx, req)
	e.observe("internal", start, res, err)
	return res, err
}

func (e *engine) TransferExternal(ctx context.Context, req ExternalTransferRequest) (*Result, error) {
	start := time.Now()
	res, err := e.transferExternal(ctx, req)
	e.observe("external", start, res, err)
	return res, err
}

func (e *engine) transferInternal(ctx context.Context, req InternalTransferRequest) (*Result, error) {
	if !req.Amount.IsPositive() {
		e.metrics.RecordStageFailure(StageValidating)
		return nil, domainerr.ErrInvalidAmount
	}
	if req.SenderUserID == req.RecipientUserID {
		e.metrics.RecordStageFailure(StageValidating)
		return nil, domainerr.ErrSameAccount
	}

	sender, err := e.senderAccount(ctx, req.SenderUserID)
	if err != nil {
		e.metrics.RecordStageFailure(StageValidating)
		return nil, err
	}

	recipient, err := e.repo.GetPrimaryAccount(ctx, req.RecipientUserID)
	if err != nil {
		e.metrics.RecordStageFailure(StageValidating)
		if errors.Is(err, repositories.ErrAccountNotFound) {
			return nil, domainerr.ErrRecipientNotFound
		}
		return nil, err
	}
	if sender.ID == recipient.ID {
		e.metrics.RecordStageFailure(StageValidating)
		return nil, domainerr.ErrSameAccount
	}
	if !recipient.IsVerified {
		e.metrics.RecordStageFailure(StageValidating)
		return nil, domainerr.ErrRecipientNotFound
	}

	if err := e.authorize(sender, req.PIN, req.Amount); err != nil {
		return nil, err
	}

	txn := &models.Transaction{
		TransactionID:     newTransactionID(),
		Type:              models.TransactionTypeInternal,
		SenderAccountID:   &sender.ID,
		ReceiverAccountID: &recipient.ID,
		Amount:            req.Amount.Paise(),
		Status:            models.TransactionStatusPending,
		Description:       req.Description,
	}

	if err := e.reserve(ctx, txn, sender.ID, recipient.ID); err != nil {
		return nil, err
	}

	// The reserve holds the debited funds; no account lock is held while
	// the gateway call is in flight.
	ref, err := e.settle(ctx, sender.AccountNumber, recipient.AccountNumber, req.Amount)
	if err != nil {
		e.metrics.RecordStageFailure(StageSettling)
		return nil, e.compensate(ctx, txn, sender.ID, recipient.ID, err)
	}

	return e.commit(ctx, txn, ref, sender.ID, &recipient.ID)
}

func (e *engine) transferExternal(ctx context.Context, req ExternalTransferRequest) (*Result, error) {
	if !req.Amount.IsPositive() {
		e.metrics.RecordStageFailure(StageValidating)
		return nil, domainerr.ErrInvalidAmount
	}

	sender, err := e.senderAccount(ctx, req.SenderUserID)
	if err != nil {
		e.metrics.RecordStageFailure(StageValidating)
		return nil, err
	}
	if sender.AccountNumber == req.RecipientAccountNumber {
		e.metrics.RecordStageFailure(StageValidating)
		return nil, domainerr.ErrSameAccount
	}

	ok, err := e.gateway.VerifyAccount(ctx, req.RecipientAccountNumber, req.RecipientIFSC, req.RecipientName)
	if err != nil {
		e.metrics.RecordStageFailure(StageValidating)
		return nil, mapGatewayErr(err)
	}
	if !ok {
		e.metrics.RecordStageFailure(StageValidating)
		return nil, domainerr.ErrVerificationFailed
	}

	if err := e.authorize(sender, req.PIN, req.Amount); err != nil {
		return nil, err
	}

	txn := &models.Transaction{
		TransactionID:          newTransactionID(),
		Type:                   models.TransactionTypeExternal,
		SenderAccountID:        &sender.ID,
		RecipientName:          req.RecipientName,
		RecipientAccountNumber: req.RecipientAccountNumber,
		RecipientIFSC:          req.RecipientIFSC,
		Amount:                 req.Amount.Paise(),
		Status:                 models.TransactionStatusPending,
		Description:            req.Description,
	}

	if err := e.reserve(ctx, txn, sender.ID, 0); err != nil {
		return nil, err
	}

	ref, err := e.settle(ctx, sender.AccountNumber, req.RecipientAccountNumber, req.Amount)
	if err != nil {
		e.metrics.RecordStageFailure(StageSettling)
		return nil, e.compensate(ctx, txn, sender.ID, 0, err)
	}

	return e.commit(ctx, txn, ref, sender.ID, nil)
}

func (e *engine) senderAccount(ctx context.Context, userID uint) (*models.BankAccount, error) {
	sender, err := e.repo.GetPrimaryAccount(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrAccountNotFound) {
			return nil, domainerr.ErrAccountNotLinked
		}
		return nil, err
	}
	if !sender.IsVerified {
		return nil, domainerr.ErrAccountNotVerified
	}
	return sender, nil
}

func (e *engine) authorize(sender *models.BankAccount, pinCode string, amount money.Amount) error {
	if !e.guard.VerifyAccount(sender, pinCode) {
		e.metrics.RecordStageFailure(StageAuthorizing)
		return domainerr.ErrIncorrectPIN
	}
	// Cheap pre-check; the reserve re-checks under lock.
	if sender.Balance < amount.Paise() {
		e.metrics.RecordStageFailure(StageAuthorizing)
		return domainerr.ErrInsufficientFunds
	}
	return nil
}

// reserve debits the sender and writes the PENDING ledger row in one database
// transaction, holding the sender lock. recipientID of zero means no local
// recipient (external transfer).
func (e *engine) reserve(ctx context.Context, txn *models.Transaction, senderID, recipientID uint) error {
	ids := []uint{senderID}
	if recipientID != 0 {
		ids = append(ids, recipientID)
	}
	release, err := e.locker.Acquire(ctx, ids...)
	if err != nil {
		e.metrics.RecordStageFailure(StageLocking)
		return fmt.Errorf("failed to lock accounts: %w", err)
	}
	defer release()

	for attempt := 0; attempt < maxBalanceRetries; attempt++ {
		sender, err := e.repo.GetAccount(ctx, senderID)
		if err != nil {
			e.metrics.RecordStageFailure(StageReserving)
			return err
		}
		if sender.Balance < txn.Amount {
			e.metrics.RecordStageFailure(StageReserving)
			return domainerr.ErrInsufficientFunds
		}
		txn.BalanceBefore = sender.Balance

		err = e.repo.ExecuteInTransaction(func(r repositories.TransferRepository) error {
			if err := r.ApplyBalanceChange(ctx, senderID, -txn.Amount, sender.Version); err != nil {
				return err
			}
			return r.CreateTransaction(ctx, txn)
		})
		if errors.Is(err, repositories.ErrOptimisticLock) {
			continue
		}
		if err != nil {
			e.metrics.RecordStageFailure(StageReserving)
			return fmt.Errorf("failed to reserve funds: %w", err)
		}
		e.cache.Invalidate(ctx, senderID)
		return nil
	}
	e.metrics.RecordStageFailure(StageReserving)
	return fmt.Errorf("failed to reserve funds: %w", repositories.ErrOptimisticLock)
}

// settle executes the external transfer, retrying while the gateway reports
// that nothing committed.
func (e *engine) settle(ctx context.Context, fromAccount, toAccount string, amount money.Amount) (string, error) {
	var lastErr error
	for attempt := 0; attempt < maxSettleRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", gateway.ErrUnavailable
			case <-time.After(settleRetryDelay):
			}
		}
		ref, err := e.gateway.ExecuteTransfer(ctx, fromAccount, toAccount, amount)
		if err == nil {
			return ref, nil
		}
		if !errors.Is(err, gateway.ErrUnavailable) {
			return "", err
		}
		lastErr = err
	}
	return "", lastErr
}

// compensate refunds the reserved debit and marks the ledger row FAILED. The
// gateway guaranteed nothing committed, so after compensation the transfer
// has zero side effects. If the refund itself cannot be applied the row is
// escalated instead; a silent stuck debit is never acceptable.
func (e *engine) compensate(ctx context.Context, txn *models.Transaction, senderID, recipientID uint, cause error) error {
	ids := []uint{senderID}
	if recipientID != 0 {
		ids = append(ids, recipientID)
	}
	release, err := e.locker.Acquire(ctx, ids...)
	if err == nil {
		defer release()
		err = e.refundAndFail(ctx, txn, senderID)
	}
	if err != nil {
		e.logger.Error("compensation failed, escalating to reconciliation",
			zap.String("transaction_id", txn.TransactionID),
			zap.Error(err),
		)
		return e.escalate(ctx, txn, "", fmt.Errorf("compensation failed: %w", err))
	}

	e.logger.Warn("transfer compensated after settlement failure",
		zap.String("transaction_id", txn.TransactionID),
		zap.Error(cause),
	)
	return mapGatewayErr(cause)
}

func (e *engine) refundAndFail(ctx context.Context, txn *models.Transaction, senderID uint) error {
	for attempt := 0; attempt < maxBalanceRetries; attempt++ {
		sender, err := e.repo.GetAccount(ctx, senderID)
		if err != nil {
			return err
		}
		err = e.repo.ExecuteInTransaction(func(r repositories.TransferRepository) error {
			if err := r.ApplyBalanceChange(ctx, senderID, txn.Amount, sender.Version); err != nil {
				return err
			}
			balanceAfter := sender.Balance + txn.Amount
			return r.TransitionTransaction(ctx, txn.TransactionID, models.TransactionStatusFailed, nil, &balanceAfter)
		})
		if errors.Is(err, repositories.ErrOptimisticLock) {
			continue
		}
		if err == nil {
			e.cache.Invalidate(ctx, senderID)
		}
		return err
	}
	return repositories.ErrOptimisticLock
}

// commit credits the recipient (when local) and finalizes the ledger row with
// the settlement reference. recipientID nil means external transfer. Any
// failure here happens after external settlement and escalates.
func (e *engine) commit(ctx context.Context, txn *models.Transaction, ref string, senderID uint, recipientID *uint) (*Result, error) {
	ids := []uint{senderID}
	if recipientID != nil {
		ids = append(ids, *recipientID)
	}
	release, err := e.locker.Acquire(ctx, ids...)
	if err != nil {
		return nil, e.escalate(ctx, txn, ref, err)
	}
	defer release()

	// Idempotency guard: a SUCCESS row already carrying this reference means
	// the commit happened; re-applying would double-credit.
	if existing, err := e.repo.GetBySettlementRef(ctx, ref); err == nil &&
		existing.Status == models.TransactionStatusSuccess {
		return &Result{
			TransactionID:       existing.TransactionID,
			Status:              existing.Status,
			Amount:              money.Amount(existing.Amount),
			SettlementReference: ref,
			BalanceAfter:        money.Amount(existing.BalanceAfter),
		}, nil
	}

	balanceAfter := txn.BalanceBefore - txn.Amount

	commitOnce := func() error {
		if recipientID == nil {
			return e.repo.ExecuteInTransaction(func(r repositories.TransferRepository) error {
				return r.TransitionTransaction(ctx, txn.TransactionID, models.TransactionStatusSuccess, &ref, &balanceAfter)
			})
		}
		recipient, err := e.repo.GetAccount(ctx, *recipientID)
		if err != nil {
			return err
		}
		return e.repo.ExecuteInTransaction(func(r repositories.TransferRepository) error {
			if err := r.ApplyBalanceChange(ctx, *recipientID, txn.Amount, recipient.Version); err != nil {
				return err
			}
			return r.TransitionTransaction(ctx, txn.TransactionID, models.TransactionStatusSuccess, &ref, &balanceAfter)
		})
	}

	for attempt := 0; attempt < maxBalanceRetries; attempt++ {
		err = commitOnce()
		if !errors.Is(err, repositories.ErrOptimisticLock) {
			break
		}
	}
	if err != nil {
		e.metrics.RecordStageFailure(StageApplying)
		return nil, e.escalate(ctx, txn, ref, err)
	}

	e.cache.Invalidate(ctx, senderID)
	if recipientID != nil {
		e.cache.Invalidate(ctx, *recipientID)
	}
	e.metrics.RecordTransferVolume(money.Amount(txn.Amount).Float())
	e.logger.Info("transfer completed",
		zap.String("transaction_id", txn.TransactionID),
		zap.String("settlement_reference", ref),
		zap.Int64("amount_paise", txn.Amount),
	)

	return &Result{
		TransactionID:       txn.TransactionID,
		Status:              models.TransactionStatusSuccess,
		Amount:              money.Amount(txn.Amount),
		SettlementReference: ref,
		BalanceAfter:        money.Amount(balanceAfter),
	}, nil
}

// escalate records that external settlement committed (or local state is
// otherwise unrecoverable) while local finalization failed. The ledger row
// and the outbox event are written in one transaction; the caller always
// receives a reconciliation error, never a claim that nothing happened.
func (e *engine) escalate(ctx context.Context, txn *models.Transaction, ref string, cause error) error {
	e.metrics.RecordStageFailure(StageRecording)
	e.metrics.RecordReconciliation()

	payload, _ := json.Marshal(map[string]interface{}{
		"transaction_id":       txn.TransactionID,
		"settlement_reference": ref,
		"amount_paise":         txn.Amount,
		"cause":                cause.Error(),
	})

	var refPtr *string
	if ref != "" {
		refPtr = &ref
	}
	err := e.repo.ExecuteInTransaction(func(r repositories.TransferRepository) error {
		if err := r.TransitionTransaction(ctx, txn.TransactionID, models.TransactionStatusReconciliationRequired, refPtr, nil); err != nil {
			return err
		}
		return r.CreateReconciliationEvent(ctx, &models.ReconciliationEvent{
			TransactionID: txn.TransactionID,
			Topic:         reconciliationTopic,
			Payload:       string(payload),
		})
	})
	if err != nil {
		// The row stays PENDING; the stale sweeper will escalate it.
		e.logger.Error("failed to record reconciliation escalation",
			zap.String("transaction_id", txn.TransactionID),
			zap.Error(err),
		)
	} else {
		e.logger.Error("transfer requires reconciliation",
			zap.String("transaction_id", txn.TransactionID),
			zap.String("settlement_reference", ref),
			zap.Error(cause),
		)
	}

	return &domainerr.ReconciliationRequiredError{
		TransactionID:       txn.TransactionID,
		SettlementReference: ref,
		Cause:               cause,
	}
}

func (e *engine) observe(kind string, start time.Time, res *Result, err error) {
	e.metrics.RecordTransferDuration(kind, time.Since(start))
	status := models.TransactionStatusSuccess
	switch {
	case domainerr.IsReconciliationRequired(err):
		status = models.TransactionStatusReconciliationRequired
	case err != nil:
		status = models.TransactionStatusFailed
	}
	e.metrics.RecordTransferResult(kind, status)
}

func mapGatewayErr(err error) error {
	switch {
	case errors.Is(err, gateway.ErrLimitExceeded):
		return domainerr.ErrLimitExceeded
	case errors.Is(err, gateway.ErrUnavailable):
		return domainerr.ErrGatewayUnavailable
	default:
		return domainerr.ErrGatewayUnavailable
	}
}

func newTransactionID() string {
	id := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", ""))
	return "TXN-" + id[:12]
}
