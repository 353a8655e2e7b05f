package postgres

import (
	"context"
	"time"

	"sambou/internal/errors"
	"sambou/models"
	"sambou/ports"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// LLMUsageRepositoryImpl implements LLMUsageRepository for PostgreSQL
type LLMUsageRepositoryImpl struct {
	db *sqlx.DB
}

// NewLLMUsageRepository creates a new PostgreSQL LLM usage repository
func NewLLMUsageRepository(db *sqlx.DB) ports.LLMUsageRepository {
	return &LLMUsageRepositoryImpl{db: db}
}

// RecordUsage records LLM usage for an oracle call
func (r *LLMUsageRepositoryImpl) RecordUsage(ctx context.Context, usage *models.LLMUsage) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO llm_usage (
			id, session_id, provider, model, operation_type,
			prompt_tokens, completion_tokens, total_tokens, created_at
		) VALUES (
			:id, :session_id, :provider, :model, :operation_type,
			:prompt_tokens, :completion_tokens, :total_tokens, :created_at
		)
	`, usage)
	if err != nil {
		return errors.DatabaseError("insert llm_usage", err)
	}
	return nil
}

// GetSessionUsage retrieves usage records for one workflow session
func (r *LLMUsageRepositoryImpl) GetSessionUsage(ctx context.Context, sessionID uuid.UUID) ([]*models.LLMUsage, error) {
	var usages []*models.LLMUsage
	err := r.db.SelectContext(ctx, &usages, `
		SELECT id, session_id, provider, model, operation_type,
		       prompt_tokens, completion_tokens, total_tokens, created_at
		FROM llm_usage
		WHERE session_id = $1
		ORDER BY created_at DESC
	`, sessionID)
	if err != nil {
		return nil, errors.DatabaseError("select session usage", err)
	}
	return usages, nil
}

type operationRow struct {
	OperationType string `db:"operation_type"`
	TotalTokens   int    `db:"total_tokens"`
	RequestCount  int    `db:"request_count"`
}

// GetUsageSummary returns aggregated usage statistics for a period
func (r *LLMUsageRepositoryImpl) GetUsageSummary(ctx context.Context, start, end time.Time) (*models.UsageSummary, error) {
	summary := &models.UsageSummary{
		PeriodStart: start,
		PeriodEnd:   end,
		ByOperation: make(map[string]models.OperationUsage),
	}

	err := r.db.GetContext(ctx, summary, `
		SELECT
			COUNT(*) AS request_count,
			COALESCE(SUM(total_tokens), 0) AS total_tokens,
			COALESCE(SUM(prompt_tokens), 0) AS total_prompt_tokens,
			COALESCE(SUM(completion_tokens), 0) AS total_completion_tokens
		FROM llm_usage
		WHERE created_at >= $1 AND created_at <= $2
	`, start, end)
	if err != nil {
		return nil, errors.DatabaseError("summarize usage", err)
	}

	var rows []operationRow
	err = r.db.SelectContext(ctx, &rows, `
		SELECT operation_type, SUM(total_tokens) AS total_tokens, COUNT(*) AS request_count
		FROM llm_usage
		WHERE created_at >= $1 AND created_at <= $2
		GROUP BY operation_type
	`, start, end)
	if err != nil {
		return nil, errors.DatabaseError("summarize usage by operation", err)
	}
	for _, row := range rows {
		summary.ByOperation[row.OperationType] = models.OperationUsage{
			OperationType: row.OperationType,
			TotalTokens:   row.TotalTokens,
			RequestCount:  row.RequestCount,
		}
	}
	return summary, nil
}
