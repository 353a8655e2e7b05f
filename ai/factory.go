package ai

import (
	"context"
	"fmt"

	"sambou/internal"
	"sambou/models"
	"sambou/ports"
)

// NewLLMClient builds the transport for the configured provider. The heuristic
// provider has no transport and yields nil.
func NewLLMClient(ctx context.Context, cfg *models.AIConfig, logger *internal.Logger) (ports.LLMClient, error) {
	switch cfg.Provider {
	case models.ProviderOpenAI:
		c, err := NewOpenAIClient(cfg, logger)
		if err != nil {
			return nil, err
		}
		return c, nil
	case models.ProviderGemini:
		c, err := NewGeminiClient(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		return c, nil
	case models.ProviderHeuristic, "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
}
