package inference

import (
	"context"
	"fmt"

	"github.com/xaenox/channel-bot/pkg/config"
	"go.uber.org/zap"
)

// Generator returns a text completion for prompt. ok is false when the
// request failed for any reason; the failure has already been logged.
type Generator interface {
	Generate(ctx context.Context, prompt string) (text string, ok bool)
}

// New builds the generator selected by cfg.Inference.Provider.
func New(cfg *config.Config, logger *zap.Logger) (Generator, error) {
	switch cfg.Inference.Provider {
	case config.ProviderOllama:
		return NewOllamaClient(cfg.Ollama, logger), nil
	case config.ProviderOpenAI:
		return NewOpenAIClient(cfg.Ollama, logger), nil
	default:
		return nil, fmt.Errorf("unknown inference provider %q", cfg.Inference.Provider)
	}
}
