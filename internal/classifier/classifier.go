package classifier

import (
	"context"

	"crowdpulse/internal/models"
)

// Classifier turns one text item into exactly one sentiment result or an
// error. Callers surface the error themselves; a failed item is never
// recorded as evidence.
type Classifier interface {
	Name() string
	Classify(ctx context.Context, item models.TextItem) (models.SentimentResult, error)
}
