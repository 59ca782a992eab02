package classifier

import (
	"context"
	"strings"
	"testing"

	"crowdpulse/internal/models"
)

func vaderItem(body string) models.TextItem {
	return models.TextItem{
		Source: models.SourceRef{Platform: models.PlatformReddit, ItemID: "x"},
		Body:   body,
	}
}

func TestVADERLabels(t *testing.T) {
	v := NewVADER()

	tests := []struct {
		name string
		body string
		want models.SentimentLabel
	}{
		{
			name: "strongly positive",
			body: "This is absolutely amazing, I love it! Fantastic work, truly wonderful.",
			want: models.SentimentPositive,
		},
		{
			name: "strongly negative",
			body: "This is terrible, I hate it. Worst garbage I have ever seen, awful.",
			want: models.SentimentNegative,
		},
		{
			name: "flat statement",
			body: "The update was released on Tuesday at noon.",
			want: models.SentimentNeutral,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := v.Classify(context.Background(), vaderItem(tt.body))
			if err != nil {
				t.Fatalf("Classify failed: %v", err)
			}
			if result.Label != tt.want {
				t.Errorf("label = %q, want %q", result.Label, tt.want)
			}
			if result.Confidence < 0 || result.Confidence > 1 {
				t.Errorf("confidence %v outside [0,1]", result.Confidence)
			}
			if result.Rationale == "" {
				t.Error("rationale is empty")
			}
		})
	}
}

func TestRemoveLinks(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		want       string
		wantAbsent string
	}{
		{
			name:  "markdown link keeps text",
			input: "check [this article](https://example.com/a) out",
			want:  "check this article out",
		},
		{
			name:       "bare url removed",
			input:      "look at https://example.com/thing now",
			wantAbsent: "example.com",
		},
		{
			name:       "www url removed",
			input:      "see www.example.com for details",
			wantAbsent: "www.example.com",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RemoveLinks(tt.input)
			if tt.want != "" && got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
			if tt.wantAbsent != "" && strings.Contains(got, tt.wantAbsent) {
				t.Errorf("got %q, still contains %q", got, tt.wantAbsent)
			}
		})
	}
}
