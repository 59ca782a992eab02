package classifier

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"crowdpulse/internal/models"
)

// DEFAULT_CONCURRENCY of 1 keeps classification sequential, matching the
// pacing a remote backend expects; local backends can go wider.
const DEFAULT_CONCURRENCY = 1

// Classified pairs an input item with its result. OK is false when the
// backend failed for this item; failed items are skipped by callers, never
// recorded.
type Classified struct {
	Item   models.TextItem
	Result models.SentimentResult
	OK     bool
}

// ClassifyAll classifies every item with bounded concurrency and returns the
// outcomes in input order. Per-item failures are logged and marked, not
// propagated; only context cancellation aborts the batch.
func ClassifyAll(ctx context.Context, c Classifier, items []models.TextItem, concurrency int) ([]Classified, error) {
	if concurrency <= 0 {
		concurrency = DEFAULT_CONCURRENCY
	}

	out := make([]Classified, len(items))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, item := range items {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			result, err := c.Classify(gctx, item)
			if err != nil {
				slog.Warn("[Classifier] Item classification failed, skipping",
					slog.String("classifier", c.Name()),
					slog.String("item_id", item.Source.ItemID),
					slog.String("error", err.Error()))
				out[i] = Classified{Item: item}
				return nil
			}

			out[i] = Classified{Item: item, Result: result, OK: true}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
