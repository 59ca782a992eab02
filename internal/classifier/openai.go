package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/openai/openai-go"

	"crowdpulse/internal/clients"
	"crowdpulse/internal/models"
)

const sentimentPrompt = `Classify the sentiment of the user's text.

### **STRICT OUTPUT FORMAT**
You MUST return only **valid JSON**, formatted exactly as follows:
{"label": "positive|neutral|negative", "confidence": 0.0, "rationale": "XXX"}

### **REQUIREMENTS**
- **label** is exactly one of: positive, neutral, negative.
- **confidence** is a number between 0 and 1.
- **rationale** is one short sentence explaining the classification.
- **No Markdown formatting** (no triple backticks, no explanations).
- **No extra text before or after the JSON output**.`

const (
	openAIRetryAttempts = 3
	openAIRetryDelay    = 2 * time.Second
)

// OpenAI classifies text through a chat completion constrained to a strict
// JSON reply. Transient API failures and malformed replies are retried.
type OpenAI struct {
	model openai.ChatModel
}

func NewOpenAI() *OpenAI {
	return &OpenAI{model: openai.ChatModelGPT4oMini}
}

func (o *OpenAI) Name() string { return "openai" }

func (o *OpenAI) Classify(ctx context.Context, item models.TextItem) (models.SentimentResult, error) {
	var lastErr error

	for attempt := 1; attempt <= openAIRetryAttempts; attempt++ {
		chatCompletion, err := clients.GetAIClient().Client.Chat.Completions.New(ctx,
			openai.ChatCompletionNewParams{
				Messages: openai.F([]openai.ChatCompletionMessageParamUnion{
					openai.SystemMessage(sentimentPrompt),
					openai.UserMessage(item.Body),
				}),
				Model:       openai.F(o.model),
				Temperature: openai.Float(0.0),
			})
		if err != nil {
			lastErr = err
			slog.Warn("[OpenAIClassifier] API call failed, retrying",
				slog.Int("attempt", attempt),
				slog.String("error", err.Error()))
			if sleepCtx(ctx, openAIRetryDelay) != nil {
				return models.SentimentResult{}, ctx.Err()
			}
			continue
		}

		if len(chatCompletion.Choices) == 0 || strings.TrimSpace(chatCompletion.Choices[0].Message.Content) == "" {
			lastErr = fmt.Errorf("empty completion")
			slog.Warn("[OpenAIClassifier] Empty response, retrying",
				slog.Int("attempt", attempt))
			if sleepCtx(ctx, openAIRetryDelay) != nil {
				return models.SentimentResult{}, ctx.Err()
			}
			continue
		}

		raw := cleanJSONResponse(chatCompletion.Choices[0].Message.Content)

		result, err := parseSentimentReply(raw)
		if err != nil {
			lastErr = err
			slog.Warn("[OpenAIClassifier] Failed to parse reply, retrying",
				slog.Int("attempt", attempt),
				slog.String("error", err.Error()))
			if sleepCtx(ctx, openAIRetryDelay) != nil {
				return models.SentimentResult{}, ctx.Err()
			}
			continue
		}

		return result, nil
	}

	return models.SentimentResult{}, fmt.Errorf("[OpenAIClassifier] classification failed after %d attempts: %w",
		openAIRetryAttempts, lastErr)
}

func parseSentimentReply(raw string) (models.SentimentResult, error) {
	var reply struct {
		Label      string  `json:"label"`
		Confidence float64 `json:"confidence"`
		Rationale  string  `json:"rationale"`
	}
	if err := json.Unmarshal([]byte(raw), &reply); err != nil {
		return models.SentimentResult{}, fmt.Errorf("invalid JSON reply: %w", err)
	}

	label := models.SentimentLabel(strings.ToLower(strings.TrimSpace(reply.Label)))
	if !label.Valid() {
		return models.SentimentResult{}, fmt.Errorf("unknown label %q", reply.Label)
	}
	if reply.Confidence < 0 || reply.Confidence > 1 {
		return models.SentimentResult{}, fmt.Errorf("confidence %v outside [0,1]", reply.Confidence)
	}

	return models.SentimentResult{
		Label:      label,
		Confidence: reply.Confidence,
		Rationale:  reply.Rationale,
	}, nil
}

// cleanJSONResponse strips markdown fences the model sometimes adds despite
// the prompt.
func cleanJSONResponse(response string) string {
	response = strings.TrimSpace(response)
	response = strings.TrimPrefix(response, "```json")
	response = strings.TrimPrefix(response, "```")
	response = strings.TrimSuffix(response, "```")
	return strings.TrimSpace(response)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
