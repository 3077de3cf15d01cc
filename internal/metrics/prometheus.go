// Package metrics implements the transfer engine's MetricsCollector on
// Prometheus.
package metrics

import (
	"time"

	"fundlink/internal/services/transfer"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Collector struct {
	duration        *prometheus.HistogramVec
	results         *prometheus.CounterVec
	stageFailures   *prometheus.CounterVec
	reconciliations prometheus.Counter
	volume          prometheus.Counter
}

// NewCollector registers the transfer metrics on the given registerer.
func NewCollector(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)
	return &Collector{
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "fundlink",
			Name:      "transfer_duration_seconds",
			Help:      "End to end transfer latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind"}),
		results: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fundlink",
			Name:      "transfer_results_total",
			Help:      "Transfer outcomes by kind and final status.",
		}, []string{"kind", "status"}),
		stageFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fundlink",
			Name:      "transfer_stage_failures_total",
			Help:      "Failures by pipeline stage.",
		}, []string{"stage"}),
		reconciliations: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "fundlink",
			Name:      "transfer_reconciliations_total",
			Help:      "Transfers escalated to manual reconciliation.",
		}),
		volume: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "fundlink",
			Name:      "transfer_volume_rupees_total",
			Help:      "Total settled transfer volume in rupees.",
		}),
	}
}

var _ transfer.MetricsCollector = (*Collector)(nil)

func (c *Collector) RecordTransferDuration(kind string, d time.Duration) {
	c.duration.WithLabelValues(kind).Observe(d.Seconds())
}

func (c *Collector) RecordTransferResult(kind, status string) {
	c.results.WithLabelValues(kind, status).Inc()
}

func (c *Collector) RecordStageFailure(stage transfer.Stage) {
	c.stageFailures.WithLabelValues(string(stage)).Inc()
}

func (c *Collector) RecordReconciliation() {
	c.reconciliations.Inc()
}

func (c *Collector) RecordTransferVolume(amountRupees float64) {
	c.volume.Add(amountRupees)
}
