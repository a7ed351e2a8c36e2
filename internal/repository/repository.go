package repository

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"stockgpt/internal/config"
	"stockgpt/internal/entity"
	"stockgpt/pkg/logger"
)

// AIRepository produces a natural-language insight from a composed prompt.
type AIRepository interface {
	GenerateInsight(ctx context.Context, prompt string) (string, error)
}

// NewAIRepository creates the AI client selected by the configuration.
// The configuration must already have passed ValidateAI.
func NewAIRepository(ctx context.Context, cfg *config.Config, log *logger.Logger) (AIRepository, error) {
	switch cfg.AI.Provider {
	case config.ProviderOpenAI:
		return NewOpenAIRepository(cfg, log), nil
	case config.ProviderAnthropic:
		return NewAnthropicRepository(cfg, log), nil
	case config.ProviderGemini:
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  cfg.Gemini.APIKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: failed to create gemini client: %v", entity.ErrExternalService, err)
		}
		return NewGeminiAIRepository(cfg, log, client), nil
	default:
		return nil, fmt.Errorf("%w: unknown provider %q", entity.ErrConfiguration, cfg.AI.Provider)
	}
}
