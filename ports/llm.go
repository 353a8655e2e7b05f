package ports

import (
	"context"

	"sambou/models"
)

// LLMClient is a chat-completion transport that reports token usage
type LLMClient interface {
	// ChatCompletionWithUsage sends one system and one user message and returns the raw reply
	ChatCompletionWithUsage(ctx context.Context, systemMessage, prompt string) (*models.LLMResponse, error)

	Provider() string
	Model() string
}
