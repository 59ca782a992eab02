package classifier

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"crowdpulse/internal/models"
)

type flakyClassifier struct {
	failOn map[string]bool
}

func (f *flakyClassifier) Name() string { return "flaky" }

func (f *flakyClassifier) Classify(_ context.Context, item models.TextItem) (models.SentimentResult, error) {
	if f.failOn[item.Source.ItemID] {
		return models.SentimentResult{}, errors.New("nope")
	}
	return models.SentimentResult{
		Label:      models.SentimentNeutral,
		Confidence: 0.5,
		Rationale:  item.Source.ItemID,
	}, nil
}

func TestClassifyAllPreservesOrder(t *testing.T) {
	items := make([]models.TextItem, 20)
	for i := range items {
		items[i] = models.TextItem{
			Source: models.SourceRef{Platform: models.PlatformReddit, ItemID: fmt.Sprintf("c%d", i)},
			Body:   "body",
		}
	}

	out, err := ClassifyAll(context.Background(), &flakyClassifier{}, items, 4)
	if err != nil {
		t.Fatalf("ClassifyAll failed: %v", err)
	}
	if len(out) != len(items) {
		t.Fatalf("got %d outcomes, want %d", len(out), len(items))
	}
	for i, c := range out {
		if c.Item.Source.ItemID != fmt.Sprintf("c%d", i) {
			t.Fatalf("outcome %d is for %q, order lost", i, c.Item.Source.ItemID)
		}
		if !c.OK {
			t.Errorf("outcome %d unexpectedly failed", i)
		}
	}
}

func TestClassifyAllMarksFailures(t *testing.T) {
	items := []models.TextItem{
		{Source: models.SourceRef{Platform: models.PlatformReddit, ItemID: "good"}, Body: "a"},
		{Source: models.SourceRef{Platform: models.PlatformReddit, ItemID: "bad"}, Body: "b"},
	}

	out, err := ClassifyAll(context.Background(), &flakyClassifier{failOn: map[string]bool{"bad": true}}, items, 1)
	if err != nil {
		t.Fatalf("ClassifyAll failed: %v", err)
	}
	if !out[0].OK || out[1].OK {
		t.Errorf("OK flags = [%v, %v], want [true, false]", out[0].OK, out[1].OK)
	}
}

func TestClassifyAllCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	items := []models.TextItem{
		{Source: models.SourceRef{Platform: models.PlatformReddit, ItemID: "c"}, Body: "a"},
	}
	if _, err := ClassifyAll(ctx, &flakyClassifier{}, items, 1); !errors.Is(err, context.Canceled) {
		t.Fatalf("got %v, want context.Canceled", err)
	}
}
