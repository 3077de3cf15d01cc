package transfer

import (
	"context"
	"time"
)

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (n *NoopMetricsCollector) RecordTransferDuration(string, time.Duration) {}
func (n *NoopMetricsCollector) RecordTransferResult(string, string)          {}
func (n *NoopMetricsCollector) RecordStageFailure(Stage)                     {}
func (n *NoopMetricsCollector) RecordReconciliation()                        {}
func (n *NoopMetricsCollector) RecordTransferVolume(float64)                 {}

type noopInvalidator struct{}

func (noopInvalidator) Invalidate(context.Context, uint) error { return nil }
