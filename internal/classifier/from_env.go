package classifier

import (
	"fmt"
	"log/slog"
	"os"
)

// FromEnv builds the classifier stack the environment asks for. Anything but
// plain VADER is wrapped in a fallback chain with VADER as the always-local
// backup; the returned *Fallback is nil when no chain is in play.
func FromEnv() (Classifier, *Fallback, error) {
	backend := os.Getenv("CLASSIFIER")
	if backend == "" {
		backend = "vader"
	}

	switch backend {
	case "vader":
		return NewVADER(), nil, nil
	case "openai":
		fallback := NewFallback(NewOpenAI(), NewVADER())
		return fallback, fallback, nil
	case "transformer":
		transformer, err := NewTransformer()
		if err != nil {
			return nil, nil, fmt.Errorf("transformer backend unavailable: %w", err)
		}
		fallback := NewFallback(transformer, NewVADER())
		return fallback, fallback, nil
	default:
		slog.Warn("[Classifier] Unknown CLASSIFIER backend, using vader",
			slog.String("backend", backend))
		return NewVADER(), nil, nil
	}
}
