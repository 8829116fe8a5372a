package verify

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// VerificationsTotal counts verifications by platform and outcome.
	VerificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kinetiq",
			Name:      "verifications_total",
			Help:      "Total verifications by platform and status.",
		},
		[]string{"platform", "status"},
	)

	// VerifyOpsTotal counts engine operations by type.
	VerifyOpsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kinetiq",
			Name:      "verify_operations_total",
			Help:      "Total verification engine operations by type.",
		},
		[]string{"type"},
	)

	// VerifyOpDuration observes operation latency by type.
	VerifyOpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "kinetiq",
			Name:      "verify_operation_duration_seconds",
			Help:      "Verification engine operation duration in seconds.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
		},
		[]string{"type"},
	)

	// VerificationConfidence observes the confidence distribution.
	VerificationConfidence = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "kinetiq",
			Name:      "verification_confidence",
			Help:      "Distribution of verification confidence scores.",
			Buckets:   prometheus.LinearBuckets(0, 0.1, 11),
		},
	)

	// VerificationRisk observes the risk score distribution.
	VerificationRisk = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "kinetiq",
			Name:      "verification_risk_score",
			Help:      "Distribution of verification risk scores.",
			Buckets:   prometheus.LinearBuckets(0, 0.1, 11),
		},
	)

	// AnomaliesTotal counts detected anomalies by tag.
	AnomaliesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kinetiq",
			Name:      "anomalies_detected_total",
			Help:      "Total anomalies detected by tag.",
		},
		[]string{"tag"},
	)
)

func init() {
	prometheus.MustRegister(
		VerificationsTotal,
		VerifyOpsTotal,
		VerifyOpDuration,
		VerificationConfidence,
		VerificationRisk,
		AnomaliesTotal,
	)
}

// observeOp increments the operation counter and returns a function to observe duration.
func observeOp(opType string) func() {
	VerifyOpsTotal.WithLabelValues(opType).Inc()
	start := time.Now()
	return func() {
		VerifyOpDuration.WithLabelValues(opType).Observe(time.Since(start).Seconds())
	}
}
