package usage

import (
	"context"
	"sync"
	"time"

	"sambou/internal"
	"sambou/models"
	"sambou/ports"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"
)

const maxInFlightWrites = 8

type sessionKey struct{}

// WithSession tags ctx so usage recorded under it is attributed to the workflow session
func WithSession(ctx context.Context, sessionID uuid.UUID) context.Context {
	return context.WithValue(ctx, sessionKey{}, sessionID)
}

// SessionFromContext returns the session attached by WithSession
func SessionFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(sessionKey{}).(uuid.UUID)
	return id, ok
}

// Service handles LLM usage tracking and persistence
type Service struct {
	repo   ports.LLMUsageRepository
	sem    *semaphore.Weighted
	wg     sync.WaitGroup
	logger *internal.Logger

	retryDelay time.Duration
}

// NewService creates a new usage service
func NewService(repo ports.LLMUsageRepository, logger *internal.Logger) *Service {
	if logger == nil {
		logger = internal.NewNopLogger()
	}
	return &Service{
		repo:       repo,
		sem:        semaphore.NewWeighted(maxInFlightWrites),
		logger:     logger.With("component", "usage"),
		retryDelay: 100 * time.Millisecond,
	}
}

// RecordUsage asynchronously records LLM usage for an oracle operation.
// Tracking problems never fail the caller.
func (s *Service) RecordUsage(ctx context.Context, operationType string, usage *models.UsageData) error {
	if usage == nil {
		return nil
	}
	if usage.PromptTokens < 0 || usage.CompletionTokens < 0 || usage.TotalTokens < 0 {
		s.logger.Error("[UsageService] invalid token counts: %+v", usage)
		return nil
	}

	record := &models.LLMUsage{
		ID:               uuid.New(),
		Provider:         usage.Provider,
		Model:            usage.Model,
		OperationType:    operationType,
		PromptTokens:     usage.PromptTokens,
		CompletionTokens: usage.CompletionTokens,
		TotalTokens:      usage.TotalTokens,
		CreatedAt:        time.Now().UTC(),
	}
	if id, ok := SessionFromContext(ctx); ok {
		record.SessionID = &id
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.sem.Acquire(context.Background(), 1); err != nil {
			return
		}
		defer s.sem.Release(1)
		if err := s.persistWithRetry(record); err != nil {
			s.logger.Error("[UsageService] failed to persist usage after retries: %v", err)
		}
	}()
	return nil
}

// persistWithRetry attempts to persist usage with linear backoff
func (s *Service) persistWithRetry(record *models.LLMUsage) error {
	const maxRetries = 3

	var err error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if err = s.repo.RecordUsage(context.Background(), record); err == nil {
			return nil
		}
		if attempt < maxRetries-1 {
			time.Sleep(time.Duration(attempt+1) * s.retryDelay)
		}
	}
	return err
}

// Flush blocks until pending writes finish or ctx ends
func (s *Service) Flush(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// GetUsageSummary returns aggregated usage for a time period
func (s *Service) GetUsageSummary(ctx context.Context, start, end time.Time) (*models.UsageSummary, error) {
	return s.repo.GetUsageSummary(ctx, start, end)
}

// GetSessionUsage returns detailed usage records for one workflow session
func (s *Service) GetSessionUsage(ctx context.Context, sessionID uuid.UUID) ([]*models.LLMUsage, error) {
	return s.repo.GetSessionUsage(ctx, sessionID)
}
