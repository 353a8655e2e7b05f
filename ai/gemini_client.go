package ai

import (
	"context"
	"fmt"
	"strings"

	"sambou/internal"
	"sambou/models"

	"google.golang.org/genai"
)

const defaultGeminiModel = "gemini-2.0-flash"

// GeminiClient calls the Gemini API through the genai SDK in JSON response mode
type GeminiClient struct {
	client      *genai.Client
	modelName   string
	temperature float32
	maxTokens   int32
	logger      *internal.Logger
}

// NewGeminiClient creates a Gemini transport
func NewGeminiClient(ctx context.Context, cfg *models.AIConfig, logger *internal.Logger) (*GeminiClient, error) {
	if strings.TrimSpace(cfg.GeminiKey) == "" {
		return nil, fmt.Errorf("GenAI API key is required")
	}
	model := cfg.Model
	if model == "" || strings.HasPrefix(model, "gpt") {
		model = defaultGeminiModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	if logger == nil {
		logger = internal.NewNopLogger()
	}
	return &GeminiClient{
		client:      client,
		modelName:   model,
		temperature: float32(cfg.Temperature),
		maxTokens:   int32(cfg.MaxTokens),
		logger:      logger.With("provider", models.ProviderGemini),
	}, nil
}

func (c *GeminiClient) Provider() string { return models.ProviderGemini }

func (c *GeminiClient) Model() string { return c.modelName }

// ChatCompletionWithUsage generates one JSON response and reports token usage
func (c *GeminiClient) ChatCompletionWithUsage(ctx context.Context, systemMessage, prompt string) (*models.LLMResponse, error) {
	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		Temperature:      genai.Ptr(c.temperature),
	}
	if c.maxTokens > 0 {
		config.MaxOutputTokens = c.maxTokens
	}
	if strings.TrimSpace(systemMessage) != "" {
		config.SystemInstruction = genai.NewContentFromText(systemMessage, genai.RoleUser)
	}

	c.logger.Debug("sending generate content model=%s promptLength=%d", c.modelName, len(prompt))

	resp, err := c.client.Models.GenerateContent(ctx, c.modelName, genai.Text(prompt), config)
	if err != nil {
		return nil, fmt.Errorf("gemini generate content: %w", err)
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("gemini response has no text")
	}

	out := &models.LLMResponse{Content: text}
	if meta := resp.UsageMetadata; meta != nil {
		out.Usage = &models.UsageData{
			PromptTokens:     int(meta.PromptTokenCount),
			CompletionTokens: int(meta.CandidatesTokenCount),
			TotalTokens:      int(meta.TotalTokenCount),
			Model:            c.modelName,
			Provider:         models.ProviderGemini,
		}
	}
	return out, nil
}
