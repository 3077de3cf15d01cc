package gateway

import (
	"context"
	"hash/fnv"
	"strings"
	"time"

	"fundlink/internal/config"
	"fundlink/internal/money"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Simulated mimics the latency and rejection behavior of a real banking
// network SDK. Latency is applied before the commit point, so a context
// cancellation during the wait is always a safe pre-commit failure.
type Simulated struct {
	transferLatency time.Duration
	verifyLatency   time.Duration
	ceiling         money.Amount
	logger          *zap.Logger
}

// NewSimulated builds a simulated gateway from config. A zero ceiling falls
// back to the 100,000.00 default.
func NewSimulated(cfg config.GatewayConfig, logger *zap.Logger) *Simulated {
	ceiling, err := money.Parse(cfg.TransferCeiling)
	if err != nil || ceiling <= 0 {
		ceiling = money.FromRupees(100000)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Simulated{
		transferLatency: cfg.TransferLatency,
		verifyLatency:   cfg.VerifyLatency,
		ceiling:         ceiling,
		logger:          logger,
	}
}

func (s *Simulated) wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ErrUnavailable
	case <-timer.C:
		return nil
	}
}

// VerifyAccount applies the network's deterministic format checks: account
// number length 9-18, IFSC exactly 11 characters, non-blank holder name.
func (s *Simulated) VerifyAccount(ctx context.Context, accountNumber, ifsc, holderName string) (bool, error) {
	s.logger.Info("verifying bank account",
		zap.String("account", maskAccount(accountNumber)),
		zap.String("ifsc", ifsc))

	if err := s.wait(ctx, s.verifyLatency); err != nil {
		return false, err
	}

	if len(accountNumber) < 9 || len(accountNumber) > 18 {
		s.logger.Warn("invalid account number length")
		return false, nil
	}
	if len(ifsc) != 11 {
		s.logger.Warn("invalid IFSC code format")
		return false, nil
	}
	if strings.TrimSpace(holderName) == "" {
		s.logger.Warn("account holder name is required")
		return false, nil
	}
	return true, nil
}

// ExecuteTransfer simulates the external settlement call. Amounts above the
// ceiling are rejected before any commit. The returned reference marks the
// point of no return.
func (s *Simulated) ExecuteTransfer(ctx context.Context, fromAccount, toAccount string, amount money.Amount) (string, error) {
	s.logger.Info("initiating external bank transfer",
		zap.String("from", maskAccount(fromAccount)),
		zap.String("to", maskAccount(toAccount)),
		zap.String("amount", amount.String()))

	if err := s.wait(ctx, s.transferLatency); err != nil {
		return "", err
	}

	if amount > s.ceiling {
		s.logger.Error("transfer rejected by external bank: amount exceeds limit",
			zap.String("amount", amount.String()),
			zap.String("ceiling", s.ceiling.String()))
		return "", ErrLimitExceeded
	}

	ref := "BNK-" + strings.ToUpper(uuid.NewString()[:8])
	s.logger.Info("external bank transfer successful", zap.String("ref", ref))
	return ref, nil
}

// QueryBalance returns a deterministic balance between 1,000.00 and 49,999.00
// derived from the account number, mirroring a sandbox banking environment.
func (s *Simulated) QueryBalance(ctx context.Context, accountNumber string) (money.Amount, error) {
	if err := s.wait(ctx, s.verifyLatency); err != nil {
		return 0, err
	}
	if accountNumber == "" {
		return money.FromRupees(5000), nil
	}
	h := fnv.New64a()
	h.Write([]byte(accountNumber))
	rupees := 1000 + int64(h.Sum64()%49000)
	return money.FromRupees(rupees), nil
}

func maskAccount(number string) string {
	if len(number) <= 4 {
		return "****"
	}
	return "****" + number[len(number)-4:]
}
