package models

import (
	"time"

	"github.com/google/uuid"
)

// LLMUsage represents a single oracle call's token usage
type LLMUsage struct {
	ID               uuid.UUID  `json:"id" db:"id"`
	SessionID        *uuid.UUID `json:"session_id,omitempty" db:"session_id"`
	Provider         string     `json:"provider" db:"provider"`             // 'openai', 'gemini', 'heuristic'
	Model            string     `json:"model" db:"model"`                   // e.g. 'gpt-4o-mini'
	OperationType    string     `json:"operation_type" db:"operation_type"` // see Op* constants
	PromptTokens     int        `json:"prompt_tokens" db:"prompt_tokens"`
	CompletionTokens int        `json:"completion_tokens" db:"completion_tokens"`
	TotalTokens      int        `json:"total_tokens" db:"total_tokens"`
	CreatedAt        time.Time  `json:"created_at" db:"created_at"`
}

// UsageData represents raw usage data from LLM provider APIs
type UsageData struct {
	PromptTokens     int    `json:"prompt_tokens"`
	CompletionTokens int    `json:"completion_tokens"`
	TotalTokens      int    `json:"total_tokens"`
	Model            string `json:"model"`
	Provider         string `json:"provider"`
}

// LLMResponse represents raw completion content with usage data
type LLMResponse struct {
	Content string
	Usage   *UsageData
}

// UsageSummary provides aggregated usage statistics for a period
type UsageSummary struct {
	PeriodStart           time.Time                 `json:"period_start"`
	PeriodEnd             time.Time                 `json:"period_end"`
	RequestCount          int                       `json:"request_count" db:"request_count"`
	TotalTokens           int                       `json:"total_tokens" db:"total_tokens"`
	TotalPromptTokens     int                       `json:"total_prompt_tokens" db:"total_prompt_tokens"`
	TotalCompletionTokens int                       `json:"total_completion_tokens" db:"total_completion_tokens"`
	ByOperation           map[string]OperationUsage `json:"by_operation"`
}

// OperationUsage represents usage aggregated by oracle operation
type OperationUsage struct {
	OperationType string `json:"operation_type"`
	TotalTokens   int    `json:"total_tokens"`
	RequestCount  int    `json:"request_count"`
}

// Operation types for categorization
const (
	OpProfileTurn         = "profile_turn"
	OpDepartmentRanking   = "department_ranking"
	OpApplicationSnippets = "application_snippets"
)
