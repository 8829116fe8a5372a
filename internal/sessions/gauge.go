package sessions

import (
	"context"
	"time"

	"github.com/kinetiq-id/kinetiq/internal/logging"
	"github.com/kinetiq-id/kinetiq/internal/metrics"
)

// StartActiveGauge periodically samples the active session count into
// the Prometheus gauge. Call in a goroutine; exits when ctx is done.
func StartActiveGauge(ctx context.Context, store Store, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := store.CountActive(ctx)
			if err != nil {
				logging.L(ctx).Warn("active session count failed", "error", err)
				continue
			}
			metrics.ActiveSessions.Set(float64(n))
		}
	}
}
