package usage

import (
	"context"
	"sort"
	"sync"
	"time"

	"sambou/models"

	"github.com/google/uuid"
)

// MemoryRepository keeps usage records in process; used when no database is configured
type MemoryRepository struct {
	mu      sync.RWMutex
	records []*models.LLMUsage
}

// NewMemoryRepository creates an empty in-memory ledger
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

func (r *MemoryRepository) RecordUsage(ctx context.Context, usage *models.LLMUsage) error {
	cp := *usage
	r.mu.Lock()
	r.records = append(r.records, &cp)
	r.mu.Unlock()
	return nil
}

func (r *MemoryRepository) GetSessionUsage(ctx context.Context, sessionID uuid.UUID) ([]*models.LLMUsage, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*models.LLMUsage
	for _, rec := range r.records {
		if rec.SessionID != nil && *rec.SessionID == sessionID {
			cp := *rec
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *MemoryRepository) GetUsageSummary(ctx context.Context, start, end time.Time) (*models.UsageSummary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	summary := &models.UsageSummary{
		PeriodStart: start,
		PeriodEnd:   end,
		ByOperation: make(map[string]models.OperationUsage),
	}
	for _, rec := range r.records {
		if rec.CreatedAt.Before(start) || rec.CreatedAt.After(end) {
			continue
		}
		summary.RequestCount++
		summary.TotalTokens += rec.TotalTokens
		summary.TotalPromptTokens += rec.PromptTokens
		summary.TotalCompletionTokens += rec.CompletionTokens

		op := summary.ByOperation[rec.OperationType]
		op.OperationType = rec.OperationType
		op.TotalTokens += rec.TotalTokens
		op.RequestCount++
		summary.ByOperation[rec.OperationType] = op
	}
	return summary, nil
}
