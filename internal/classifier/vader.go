package classifier

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/jonreiter/govader"
	"github.com/russross/blackfriday/v2"

	"crowdpulse/internal/models"
)

const (
	POSITIVE_THRESHOLD = 0.20
	NEGATIVE_THRESHOLD = -0.20
)

var (
	markdownLinkPattern = regexp.MustCompile(`\[(.*?)\]\((https?:\/\/[^\s\)]+)\)`)
	bareURLPattern      = regexp.MustCompile(`https?://\S+|www\.\S+`)
)

// VADER is the always-local lexicon backend. It needs no network and no
// model files, which makes it the default backup in a fallback chain.
type VADER struct {
	analyzer *govader.SentimentIntensityAnalyzer
}

func NewVADER() *VADER {
	return &VADER{analyzer: govader.NewSentimentIntensityAnalyzer()}
}

func (v *VADER) Name() string { return "vader" }

func (v *VADER) Classify(_ context.Context, item models.TextItem) (models.SentimentResult, error) {
	plainText := ConvertMarkdownToText(item.Body)

	sentiment := v.analyzer.PolarityScores(plainText)
	score := sentiment.Compound

	var label models.SentimentLabel
	if score >= POSITIVE_THRESHOLD {
		label = models.SentimentPositive
	} else if score <= NEGATIVE_THRESHOLD {
		label = models.SentimentNegative
	} else {
		label = models.SentimentNeutral
	}

	return models.SentimentResult{
		Label:      label,
		Confidence: vaderConfidence(score, label),
		Rationale: fmt.Sprintf("VADER compound=%.3f (pos=%.2f neu=%.2f neg=%.2f)",
			score, sentiment.Positive, sentiment.Neutral, sentiment.Negative),
	}, nil
}

// vaderConfidence maps the compound score to [0.5, 1]: valenced labels grow
// more confident as the score moves away from zero, neutral as it approaches
// zero.
func vaderConfidence(score float64, label models.SentimentLabel) float64 {
	magnitude := score
	if magnitude < 0 {
		magnitude = -magnitude
	}
	if label == models.SentimentNeutral {
		return 0.5 + (POSITIVE_THRESHOLD-magnitude)/POSITIVE_THRESHOLD*0.5
	}
	if magnitude > 1 {
		magnitude = 1
	}
	return 0.5 + magnitude/2
}

// RemoveLinks strips markdown links down to their text and drops bare URLs;
// link targets carry no sentiment and skew the lexicon scores.
func RemoveLinks(input string) string {
	input = markdownLinkPattern.ReplaceAllString(input, "$1")
	return bareURLPattern.ReplaceAllString(input, "")
}

func ConvertMarkdownToText(input string) string {
	output := blackfriday.Run([]byte(input), blackfriday.WithNoExtensions())
	plainText := strings.Join(strings.Fields(string(output)), " ")

	return RemoveLinks(plainText)
}
