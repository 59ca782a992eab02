package classifier

import (
	"context"
	"errors"
	"testing"

	"crowdpulse/internal/models"
)

type stubClassifier struct {
	name  string
	fail  bool
	calls int
	label models.SentimentLabel
}

func (s *stubClassifier) Name() string { return s.name }

func (s *stubClassifier) Classify(_ context.Context, _ models.TextItem) (models.SentimentResult, error) {
	s.calls++
	if s.fail {
		return models.SentimentResult{}, errors.New("backend down")
	}
	return models.SentimentResult{Label: s.label, Confidence: 0.7, Rationale: s.name}, nil
}

func TestFallbackRoutesToBackupOnFailure(t *testing.T) {
	primary := &stubClassifier{name: "primary", fail: true}
	backup := &stubClassifier{name: "backup", label: models.SentimentNeutral}
	f := NewFallback(primary, backup)

	result, err := f.Classify(context.Background(), vaderItem("whatever"))
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	if result.Rationale != "backup" {
		t.Errorf("result came from %q, want backup", result.Rationale)
	}
}

func TestFallbackTripsAfterThreshold(t *testing.T) {
	primary := &stubClassifier{name: "primary", fail: true}
	backup := &stubClassifier{name: "backup", label: models.SentimentNeutral}
	f := NewFallback(primary, backup)

	for i := 0; i < FAILURE_THRESHOLD+2; i++ {
		if _, err := f.Classify(context.Background(), vaderItem("x")); err != nil {
			t.Fatalf("Classify failed: %v", err)
		}
	}

	if f.Healthy().Load() {
		t.Fatal("primary still healthy after consecutive failures")
	}
	// Once tripped, the primary is no longer consulted.
	if primary.calls != FAILURE_THRESHOLD {
		t.Errorf("primary called %d times, want %d", primary.calls, FAILURE_THRESHOLD)
	}
}

func TestFallbackRearmRestoresPrimary(t *testing.T) {
	primary := &stubClassifier{name: "primary", fail: true, label: models.SentimentPositive}
	backup := &stubClassifier{name: "backup", label: models.SentimentNeutral}
	f := NewFallback(primary, backup)

	for i := 0; i < FAILURE_THRESHOLD; i++ {
		f.Classify(context.Background(), vaderItem("x"))
	}
	if f.Healthy().Load() {
		t.Fatal("primary did not trip")
	}

	primary.fail = false
	f.Rearm()

	result, err := f.Classify(context.Background(), vaderItem("x"))
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	if result.Rationale != "primary" {
		t.Errorf("result came from %q, want primary after re-arm", result.Rationale)
	}
}

func TestFallbackSuccessResetsFailureCount(t *testing.T) {
	primary := &stubClassifier{name: "primary", label: models.SentimentPositive}
	backup := &stubClassifier{name: "backup", label: models.SentimentNeutral}
	f := NewFallback(primary, backup)

	// Alternate failures below the threshold with successes; the breaker
	// must not trip.
	for i := 0; i < 10; i++ {
		primary.fail = i%2 == 0
		f.Classify(context.Background(), vaderItem("x"))
	}

	if !f.Healthy().Load() {
		t.Error("breaker tripped without consecutive failures")
	}
}
