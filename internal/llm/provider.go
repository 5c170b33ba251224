package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/codementor-ai/codementor-backend/internal/config"
)

// ErrEmptyCompletion is returned when the model answers with no text at all.
var ErrEmptyCompletion = errors.New("model returned an empty completion")

// Provider sends one system instruction and one user turn to a hosted model and
// returns the raw text of its reply. Implementations ask the model for a JSON object
// but make no promise that the reply is valid JSON.
type Provider interface {
	Complete(ctx context.Context, systemInstruction, userContent string) (string, error)
	Name() string
	Close() error
}

// NewProvider builds the provider selected in cfg. A nil Provider with a nil error
// means no credential is configured and callers must not attempt any network I/O.
func NewProvider(ctx context.Context, cfg *config.Config) (Provider, error) {
	if cfg.InferenceAPIKey() == "" {
		return nil, nil
	}
	switch cfg.InferenceProvider {
	case config.ProviderOpenAI:
		return NewOpenAIProvider(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL), nil
	case config.ProviderGemini:
		p, err := NewGeminiProvider(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unsupported inference provider: %s", cfg.InferenceProvider)
	}
}
