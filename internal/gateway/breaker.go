package gateway

import (
	"context"
	"errors"
	"time"

	"fundlink/internal/money"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// Breaker wraps a Gateway with a circuit breaker so a struggling banking
// network sheds load fast instead of stacking up blocked transfers. An open
// breaker surfaces as ErrUnavailable, which is always a safe pre-commit
// failure. Limit rejections are business outcomes and do not trip the
// breaker.
type Breaker struct {
	next Gateway
	cb   *gobreaker.CircuitBreaker
}

// NewBreaker wraps next. The breaker opens after five consecutive failures
// and probes again after 30 seconds.
func NewBreaker(next Gateway, logger *zap.Logger) *Breaker {
	if logger == nil {
		logger = zap.NewNop()
	}
	settings := gobreaker.Settings{
		Name:    "settlement-gateway",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("gateway breaker state change",
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
		IsSuccessful: func(err error) bool {
			var lr *limitRejection
			return err == nil || errors.As(err, &lr)
		},
	}
	return &Breaker{next: next, cb: gobreaker.NewCircuitBreaker(settings)}
}

func (b *Breaker) VerifyAccount(ctx context.Context, accountNumber, ifsc, holderName string) (bool, error) {
	res, err := b.cb.Execute(func() (interface{}, error) {
		return b.next.VerifyAccount(ctx, accountNumber, ifsc, holderName)
	})
	if err != nil {
		return false, mapBreakerErr(err)
	}
	return res.(bool), nil
}

func (b *Breaker) ExecuteTransfer(ctx context.Context, fromAccount, toAccount string, amount money.Amount) (string, error) {
	res, err := b.cb.Execute(func() (interface{}, error) {
		ref, err := b.next.ExecuteTransfer(ctx, fromAccount, toAccount, amount)
		if errors.Is(err, ErrLimitExceeded) {
			// A limit rejection is a healthy gateway saying no; it must not
			// count toward opening the breaker.
			return "", &limitRejection{}
		}
		return ref, err
	})
	if err != nil {
		var lr *limitRejection
		if errors.As(err, &lr) {
			return "", ErrLimitExceeded
		}
		return "", mapBreakerErr(err)
	}
	return res.(string), nil
}

func (b *Breaker) QueryBalance(ctx context.Context, accountNumber string) (money.Amount, error) {
	res, err := b.cb.Execute(func() (interface{}, error) {
		return b.next.QueryBalance(ctx, accountNumber)
	})
	if err != nil {
		return 0, mapBreakerErr(err)
	}
	return res.(money.Amount), nil
}

// limitRejection carries a ceiling rejection through gobreaker without it
// counting as a failure; the caller unwraps it back to ErrLimitExceeded.
type limitRejection struct{}

func (*limitRejection) Error() string { return ErrLimitExceeded.Error() }

func mapBreakerErr(err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return ErrUnavailable
	}
	return err
}
