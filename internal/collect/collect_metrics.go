package collect

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// SamplesIngestedTotal counts accepted telemetry batches by platform.
	SamplesIngestedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kinetiq",
			Name:      "samples_ingested_total",
			Help:      "Total telemetry batches accepted by platform.",
		},
		[]string{"platform"},
	)

	// DataPointsIngestedTotal counts raw events ingested by platform.
	DataPointsIngestedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kinetiq",
			Name:      "data_points_ingested_total",
			Help:      "Total raw behavioral events ingested by platform.",
		},
		[]string{"platform"},
	)

	// CollectOpsTotal counts collector operations by type.
	CollectOpsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kinetiq",
			Name:      "collect_operations_total",
			Help:      "Total collector operations by type.",
		},
		[]string{"type"},
	)

	// CollectOpDuration observes operation latency by type.
	CollectOpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "kinetiq",
			Name:      "collect_operation_duration_seconds",
			Help:      "Collector operation duration in seconds.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
		},
		[]string{"type"},
	)
)

func init() {
	prometheus.MustRegister(
		SamplesIngestedTotal,
		DataPointsIngestedTotal,
		CollectOpsTotal,
		CollectOpDuration,
	)
}

// observeOp increments the operation counter and returns a function to observe duration.
func observeOp(opType string) func() {
	CollectOpsTotal.WithLabelValues(opType).Inc()
	start := time.Now()
	return func() {
		CollectOpDuration.WithLabelValues(opType).Observe(time.Since(start).Seconds())
	}
}
