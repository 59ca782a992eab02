package classifier

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/knights-analytics/hugot"
	"github.com/knights-analytics/hugot/pipelines"

	"crowdpulse/internal/models"
)

const (
	modelDir           = "./internal/transformers/models"
	sentimentModelName = "distilbert-base-uncased-finetuned-sst-2-english"

	// Below this top-vs-runner-up score margin the model is effectively
	// undecided and the item is labeled neutral.
	NEUTRAL_MARGIN = 0.20
)

// Transformer runs a local ONNX text-classification pipeline. The model is
// downloaded on first use and cached under modelDir.
type Transformer struct {
	session  *hugot.Session
	pipeline *pipelines.TextClassificationPipeline
}

func NewTransformer() (*Transformer, error) {
	if err := os.MkdirAll(modelDir, os.ModePerm); err != nil {
		return nil, fmt.Errorf("[Transformer] failed to create model directory: %w", err)
	}

	modelPath, err := hugot.DownloadModel(sentimentModelName, modelDir, hugot.NewDownloadOptions())
	if err != nil {
		return nil, fmt.Errorf("[Transformer] failed to download model: %w", err)
	}
	slog.Info("[Transformer] Model ready", slog.String("path", modelPath))

	session, err := hugot.NewORTSession()
	if err != nil {
		return nil, fmt.Errorf("[Transformer] failed to initialize Hugot session: %w", err)
	}

	config := hugot.TextClassificationConfig{
		ModelPath: modelPath,
		Name:      "sentimentClassificationPipeline",
	}
	pipeline, err := hugot.NewPipeline(session, config)
	if err != nil {
		session.Destroy()
		return nil, fmt.Errorf("[Transformer] failed to initialize pipeline: %w", err)
	}

	return &Transformer{session: session, pipeline: pipeline}, nil
}

func (t *Transformer) Name() string { return "transformer" }

func (t *Transformer) Close() {
	if t.session != nil {
		t.session.Destroy()
	}
}

func (t *Transformer) Classify(_ context.Context, item models.TextItem) (models.SentimentResult, error) {
	plainText := ConvertMarkdownToText(item.Body)

	output, err := t.pipeline.RunPipeline([]string{plainText})
	if err != nil {
		return models.SentimentResult{}, fmt.Errorf("[Transformer] pipeline failed: %w", err)
	}
	if len(output.ClassificationOutputs) == 0 || len(output.ClassificationOutputs[0]) == 0 {
		return models.SentimentResult{}, fmt.Errorf("[Transformer] pipeline returned no scores")
	}

	scores := output.ClassificationOutputs[0]
	top := scores[0]
	margin := float64(1)
	for _, score := range scores[1:] {
		if score.Score > top.Score {
			top = score
		}
	}
	if len(scores) > 1 {
		second := float32(0)
		for _, score := range scores {
			if score.Label != top.Label && score.Score > second {
				second = score.Score
			}
		}
		margin = float64(top.Score - second)
	}

	label := mapModelLabel(top.Label)
	if margin < NEUTRAL_MARGIN {
		label = models.SentimentNeutral
	}

	return models.SentimentResult{
		Label:      label,
		Confidence: float64(top.Score),
		Rationale: fmt.Sprintf("%s scored %s=%.3f (margin %.3f)",
			sentimentModelName, top.Label, top.Score, margin),
	}, nil
}

func mapModelLabel(label string) models.SentimentLabel {
	switch strings.ToUpper(label) {
	case "POSITIVE", "LABEL_2":
		return models.SentimentPositive
	case "NEGATIVE", "LABEL_0":
		return models.SentimentNegative
	default:
		return models.SentimentNeutral
	}
}
