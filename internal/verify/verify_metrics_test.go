package verify

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestObserveOp_IncrementsCounter(t *testing.T) {
	// Reset counter for test
	VerifyOpsTotal.Reset()

	done := observeOp("test_op")
	done()

	// Read counter value
	m := &dto.Metric{}
	counter, err := VerifyOpsTotal.GetMetricWithLabelValues("test_op")
	if err != nil {
		t.Fatalf("GetMetricWithLabelValues failed: %v", err)
	}
	_ = counter.Write(m)

	if m.Counter.GetValue() != 1.0 {
		t.Errorf("expected counter value 1, got %f", m.Counter.GetValue())
	}
}

func TestObserveOp_ObservesHistogram(t *testing.T) {
	VerifyOpDuration.Reset()

	done := observeOp("hist_test")
	done()

	// Verify histogram has data by collecting from the HistogramVec
	ch := make(chan prometheus.Metric, 10)
	VerifyOpDuration.Collect(ch)
	close(ch)

	found := false
	for metric := range ch {
		m := &dto.Metric{}
		_ = metric.Write(m)
		if m.Histogram != nil && m.Histogram.GetSampleCount() == 1 {
			found = true
		}
	}
	if !found {
		t.Error("expected histogram with 1 sample")
	}
}

func TestMetrics_Registered(t *testing.T) {
	// Verify all metrics are registered
	metrics := []string{
		"kinetiq_verifications_total",
		"kinetiq_verify_operations_total",
		"kinetiq_verify_operation_duration_seconds",
		"kinetiq_verification_confidence",
		"kinetiq_verification_risk_score",
		"kinetiq_anomalies_detected_total",
	}

	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}

	registered := make(map[string]bool)
	for _, fam := range families {
		registered[fam.GetName()] = true
	}

	// Counters and histograms only appear after first use; touch them.
	VerificationsTotal.WithLabelValues("mobile", "success").Inc()
	VerificationConfidence.Observe(0.5)
	VerificationRisk.Observe(0.5)
	AnomaliesTotal.WithLabelValues("unfamiliar_device").Inc()
	VerifyOpsTotal.WithLabelValues("verify").Inc()
	done := observeOp("verify")
	done()

	families, err = prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}
	for _, fam := range families {
		registered[fam.GetName()] = true
	}

	for _, name := range metrics {
		if !registered[name] {
			t.Errorf("expected metric %s to be registered", name)
		}
	}
}
