package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"sambou/internal"
	"sambou/models"
	"sambou/ports"
)

// StructuredClient provides typed JSON responses from LLM calls
type StructuredClient[T any] struct {
	Client        ports.LLMClient
	PromptManager *PromptManager
	SystemContext string
	logger        *internal.Logger
}

// NewStructuredClient creates a new structured client over any LLM transport
func NewStructuredClient[T any](client ports.LLMClient, prompts *PromptManager, systemContext string, logger *internal.Logger) *StructuredClient[T] {
	if logger == nil {
		logger = internal.NewNopLogger()
	}
	if prompts == nil {
		prompts = NewPromptManager("")
	}
	return &StructuredClient[T]{
		Client:        client,
		PromptManager: prompts,
		SystemContext: systemContext,
		logger:        logger,
	}
}

// GetJsonResponseWithContext makes a typed LLM call and parses the JSON reply.
// Usage is returned even when parsing fails so the call can still be accounted for.
func (client *StructuredClient[T]) GetJsonResponseWithContext(ctx context.Context, prompt string, systemMessage string) (*T, *models.UsageData, error) {
	if systemMessage == "" {
		systemMessage = client.SystemContext
	}

	client.logger.Debug("[StructuredClient] request provider=%s model=%s promptLength=%d",
		client.Client.Provider(), client.Client.Model(), len(prompt))

	resp, err := client.Client.ChatCompletionWithUsage(ctx, systemMessage, prompt)
	if err != nil {
		return nil, nil, err
	}

	content := cleanJSONContent(resp.Content)
	if content == "" || content == "null" {
		return nil, resp.Usage, nil
	}

	var result T
	if err := json.Unmarshal([]byte(content), &result); err != nil {
		client.logger.Warn("[StructuredClient] failed to unmarshal JSON content: %v", err)
		return nil, resp.Usage, fmt.Errorf("failed to parse JSON content into result type: %w", err)
	}
	return &result, resp.Usage, nil
}

// GetJsonResponseFromPromptWithContext renders a named prompt and gets a structured response
func (client *StructuredClient[T]) GetJsonResponseFromPromptWithContext(ctx context.Context, promptName string, replacements map[string]string) (*T, *models.UsageData, error) {
	prompt, err := client.PromptManager.RenderPrompt(promptName, replacements)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load/render prompt: %w", err)
	}
	return client.GetJsonResponseWithContext(ctx, prompt, "")
}

// cleanJSONContent strips markdown fences and any chatter surrounding the JSON value
func cleanJSONContent(content string) string {
	content = strings.TrimSpace(content)

	if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimPrefix(content, "```")
		content = strings.TrimSuffix(content, "```")
		content = strings.TrimSpace(content)
	}

	start := strings.IndexAny(content, "{[")
	if start < 0 {
		return content
	}
	closer := byte('}')
	if content[start] == '[' {
		closer = ']'
	}
	end := strings.LastIndexByte(content, closer)
	if end < start {
		return content[start:]
	}
	return content[start : end+1]
}
