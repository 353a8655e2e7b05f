package ports

import (
	"context"
	"time"

	"sambou/models"

	"github.com/google/uuid"
)

// LLMUsageRepository defines the interface for LLM usage data operations
type LLMUsageRepository interface {
	// Record usage for an oracle call
	RecordUsage(ctx context.Context, usage *models.LLMUsage) error

	// Get usage for a workflow session
	GetSessionUsage(ctx context.Context, sessionID uuid.UUID) ([]*models.LLMUsage, error)

	// Get aggregated usage summary for a period
	GetUsageSummary(ctx context.Context, start, end time.Time) (*models.UsageSummary, error)
}

// UsageRecorder accounts for the tokens an oracle call consumed
type UsageRecorder interface {
	RecordUsage(ctx context.Context, operationType string, usage *models.UsageData) error
}
