package models

import "time"

// LLM provider identifiers
const (
	ProviderOpenAI    = "openai"
	ProviderGemini    = "gemini"
	ProviderHeuristic = "heuristic"
)

// AIConfig holds the oracle transport configuration
type AIConfig struct {
	Provider      string
	OpenAIKey     string
	OpenAIBaseURL string
	GeminiKey     string
	Model         string
	SystemContext string
	MaxTokens     int
	Temperature   float64
	Timeout       time.Duration
	PromptsDir    string // optional override directory for prompt templates
}

// DefaultAIConfig returns sensible defaults for AI configuration
func DefaultAIConfig() *AIConfig {
	return &AIConfig{
		Provider:      ProviderHeuristic,
		OpenAIBaseURL: "https://api.openai.com/v1",
		Model:         "gpt-4o-mini",
		SystemContext: "You are a friendly academic advisor helping a student prepare university applications.",
		MaxTokens:     2000,
		Temperature:   0.2,
		Timeout:       60 * time.Second,
	}
}
