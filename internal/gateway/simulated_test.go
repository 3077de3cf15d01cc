package gateway

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"fundlink/internal/config"
	"fundlink/internal/money"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestGateway() *Simulated {
	// Zero latency keeps the suite fast; latency behavior is covered by the
	// cancellation test below.
	return NewSimulated(config.GatewayConfig{TransferCeiling: "100000.00"}, zap.NewNop())
}

func TestVerifyAccount(t *testing.T) {
	g := newTestGateway()
	ctx := context.Background()

	tests := []struct {
		name   string
		number string
		ifsc   string
		holder string
		want   bool
	}{
		{name: "valid", number: "123456789012", ifsc: "HDFC0001234", holder: "Asha Rao", want: true},
		{name: "number too short", number: "12345678", ifsc: "HDFC0001234", holder: "Asha Rao", want: false},
		{name: "number too long", number: strings.Repeat("9", 19), ifsc: "HDFC0001234", holder: "Asha Rao", want: false},
		{name: "ifsc wrong length", number: "123456789012", ifsc: "HDFC01234", holder: "Asha Rao", want: false},
		{name: "blank holder", number: "123456789012", ifsc: "SBIN0004321", holder: "   ", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := g.VerifyAccount(ctx, tt.number, tt.ifsc, tt.holder)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
		})
	}
}

func TestExecuteTransfer(t *testing.T) {
	g := newTestGateway()
	ctx := context.Background()

	t.Run("returns a settlement reference", func(t *testing.T) {
		ref, err := g.ExecuteTransfer(ctx, "123456789012", "210987654321", money.FromRupees(200))
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(ref, "BNK-"))
		assert.Len(t, ref, 12)
		assert.Equal(t, strings.ToUpper(ref), ref)
	})

	t.Run("rejects amounts above the ceiling", func(t *testing.T) {
		_, err := g.ExecuteTransfer(ctx, "123456789012", "210987654321", money.MustParse("100000.01"))
		assert.ErrorIs(t, err, ErrLimitExceeded)
	})

	t.Run("allows the ceiling exactly", func(t *testing.T) {
		_, err := g.ExecuteTransfer(ctx, "123456789012", "210987654321", money.MustParse("100000.00"))
		assert.NoError(t, err)
	})
}

func TestExecuteTransferCancelledBeforeCommit(t *testing.T) {
	g := NewSimulated(config.GatewayConfig{
		TransferLatency: 50 * time.Millisecond,
		TransferCeiling: "100000.00",
	}, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := g.ExecuteTransfer(ctx, "123456789012", "210987654321", money.FromRupees(10))
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestQueryBalanceDeterministic(t *testing.T) {
	g := newTestGateway()
	ctx := context.Background()

	b1, err := g.QueryBalance(ctx, "123456789012")
	require.NoError(t, err)
	b2, err := g.QueryBalance(ctx, "123456789012")
	require.NoError(t, err)
	assert.Equal(t, b1, b2, "same account must yield the same seed balance")

	assert.GreaterOrEqual(t, b1.Paise(), money.FromRupees(1000).Paise())
	assert.Less(t, b1.Paise(), money.FromRupees(50000).Paise())

	empty, err := g.QueryBalance(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, money.FromRupees(5000), empty)
}

func TestBreakerOpensOnConsecutiveFailures(t *testing.T) {
	failing := &stubGateway{transferErr: ErrUnavailable}
	b := NewBreaker(failing, zap.NewNop())
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := b.ExecuteTransfer(ctx, "a", "b", money.FromRupees(1))
		assert.ErrorIs(t, err, ErrUnavailable)
	}

	// Breaker is now open: calls fail fast without reaching the gateway.
	calls := failing.transferCalls
	_, err := b.ExecuteTransfer(ctx, "a", "b", money.FromRupees(1))
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, calls, failing.transferCalls)
}

func TestBreakerPassesThroughLimitExceeded(t *testing.T) {
	limited := &stubGateway{transferErr: ErrLimitExceeded}
	b := NewBreaker(limited, zap.NewNop())
	ctx := context.Background()

	// Limit rejections surface unchanged and never open the breaker.
	for i := 0; i < 10; i++ {
		_, err := b.ExecuteTransfer(ctx, "a", "b", money.FromRupees(1))
		assert.ErrorIs(t, err, ErrLimitExceeded)
	}
	assert.Equal(t, 10, limited.transferCalls)
}

type stubGateway struct {
	transferErr   error
	transferCalls int
}

func (s *stubGateway) VerifyAccount(ctx context.Context, number, ifsc, holder string) (bool, error) {
	return true, nil
}

func (s *stubGateway) ExecuteTransfer(ctx context.Context, from, to string, amount money.Amount) (string, error) {
	s.transferCalls++
	if s.transferErr != nil {
		return "", s.transferErr
	}
	return "BNK-TEST0001", nil
}

func (s *stubGateway) QueryBalance(ctx context.Context, number string) (money.Amount, error) {
	if s.transferErr != nil && !errors.Is(s.transferErr, ErrLimitExceeded) {
		return 0, s.transferErr
	}
	return money.FromRupees(5000), nil
}
