package transfer

import (
	"context"
	"time"
)

// Service executes money transfers.
type Service interface {
	Transfer(ctx context.Context, req InternalTransferRequest) (*Result, error)
	TransferExternal(ctx context.Context, req ExternalTransferRequest) (*Result, error)
}

// MetricsCollector receives transfer engine measurements.
type MetricsCollector interface {
	RecordTransferDuration(kind string, d time.Duration)
	RecordTransferResult(kind, status string)
	RecordStageFailure(stage Stage)
	RecordReconciliation()
	RecordTransferVolume(amountRupees float64)
}

// BalanceInvalidator drops cached balances after a balance mutation.
type BalanceInvalidator interface {
	Invalidate(ctx context.Context, accountID uint) error
}
