package classifier

import (
	"context"
	"log/slog"
	"sync/atomic"

	"crowdpulse/internal/models"
)

const FAILURE_THRESHOLD = 3

// Fallback routes items to the primary classifier until it trips unhealthy,
// then to the backup. The primary trips after FAILURE_THRESHOLD consecutive
// failures; a monitoring goroutine re-arms it on a timer (see
// internal/monitoring). Single items still fall through to the backup on a
// primary failure even while the primary is considered healthy.
type Fallback struct {
	primary Classifier
	backup  Classifier

	healthy  atomic.Bool
	failures atomic.Int32
}

func NewFallback(primary, backup Classifier) *Fallback {
	f := &Fallback{primary: primary, backup: backup}
	f.healthy.Store(true)
	return f
}

func (f *Fallback) Name() string {
	return f.primary.Name() + "+" + f.backup.Name()
}

// Healthy exposes the primary's health gate for the monitoring re-arm loop.
func (f *Fallback) Healthy() *atomic.Bool { return &f.healthy }

// Rearm resets the failure count and marks the primary healthy again.
func (f *Fallback) Rearm() {
	f.failures.Store(0)
	f.healthy.Store(true)
	slog.Info("[Fallback] Primary classifier re-armed",
		slog.String("primary", f.primary.Name()))
}

func (f *Fallback) Classify(ctx context.Context, item models.TextItem) (models.SentimentResult, error) {
	if f.healthy.Load() {
		result, err := f.primary.Classify(ctx, item)
		if err == nil {
			f.failures.Store(0)
			return result, nil
		}

		if f.failures.Add(1) >= FAILURE_THRESHOLD {
			f.healthy.Store(false)
			slog.Warn("[Fallback] Primary classifier tripped unhealthy",
				slog.String("primary", f.primary.Name()),
				slog.String("error", err.Error()))
		} else {
			slog.Warn("[Fallback] Primary classifier failed, using backup for this item",
				slog.String("primary", f.primary.Name()),
				slog.String("error", err.Error()))
		}
	}

	return f.backup.Classify(ctx, item)
}
