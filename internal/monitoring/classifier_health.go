package monitoring

import (
	"context"
	"log/slog"
	"time"

	"crowdpulse/internal/classifier"
)

const REARM_TIMER = 15

// MonitorClassifierHealth re-arms a tripped fallback chain on a timer, giving
// the primary backend a fresh chance after transient outages. Runs until the
// context is canceled.
func MonitorClassifierHealth(ctx context.Context, fallback *classifier.Fallback) {
	ticker := time.NewTicker(time.Second * REARM_TIMER)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if fallback.Healthy().Load() {
				continue
			}
			slog.Info("[HealthCheck] Re-arming primary classifier")
			fallback.Rearm()
		}
	}
}
