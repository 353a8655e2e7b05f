package llm

import (
	"context"
	"sync"

	"sambou/models"
)

// MockLLMClient is a scripted LLM transport for tests
type MockLLMClient struct {
	Response string // Set this for testing
	Error    error  // Set this to simulate errors
	Usage    *models.UsageData

	mu      sync.Mutex
	Prompts []string
}

func (m *MockLLMClient) ChatCompletionWithUsage(ctx context.Context, systemMessage, prompt string) (*models.LLMResponse, error) {
	m.mu.Lock()
	m.Prompts = append(m.Prompts, prompt)
	m.mu.Unlock()

	if m.Error != nil {
		return nil, m.Error
	}
	return &models.LLMResponse{Content: m.Response, Usage: m.Usage}, nil
}

func (m *MockLLMClient) Provider() string { return "mock" }

func (m *MockLLMClient) Model() string { return "mock-model" }

// LastPrompt returns the most recent rendered prompt
func (m *MockLLMClient) LastPrompt() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Prompts) == 0 {
		return ""
	}
	return m.Prompts[len(m.Prompts)-1]
}
