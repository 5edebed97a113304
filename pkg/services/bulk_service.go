package services

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// bulkConcurrency bounds how many review or publish operations one bulk
// request runs at a time.
const bulkConcurrency = 8

// BulkError records why one term in a bulk request failed.
type BulkError struct {
	TermID string `json:"term_id"`
	Error  string `json:"error"`
}

// BulkResult reports the outcome of a bulk operation. Every requested id
// is counted exactly once, so Succeeded+Failed always equals the number of
// ids submitted. Errors is never nil, so the payload carries an empty list
// when everything succeeds.
type BulkResult struct {
	Succeeded int         `json:"succeeded"`
	Failed    int         `json:"failed"`
	Errors    []BulkError `json:"errors"`
}

// BulkService fans review and publish operations out over many term ids.
// Each id is processed independently: one failure never aborts the rest,
// and per-id exclusivity comes from the underlying check-and-set updates.
type BulkService struct {
	review  *ReviewService
	publish *PublishService
	logger  *zap.Logger
}

// NewBulkService creates a BulkService.
func NewBulkService(review *ReviewService, publish *PublishService, logger *zap.Logger) *BulkService {
	return &BulkService{
		review:  review,
		publish: publish,
		logger:  logger.Named("bulk-service"),
	}
}

// ApproveBulk approves each listed term without edits or notes.
func (s *BulkService) ApproveBulk(ctx context.Context, termIDs []uuid.UUID) *BulkResult {
	return s.forEach(ctx, "approve", termIDs, func(ctx context.Context, id uuid.UUID) error {
		_, err := s.review.Approve(ctx, id, "", "")
		return err
	})
}

// PublishBulk publishes each listed term.
func (s *BulkService) PublishBulk(ctx context.Context, termIDs []uuid.UUID) *BulkResult {
	return s.forEach(ctx, "publish", termIDs, func(ctx context.Context, id uuid.UUID) error {
		_, err := s.publish.Publish(ctx, id)
		return err
	})
}

func (s *BulkService) forEach(ctx context.Context, op string, termIDs []uuid.UUID, fn func(context.Context, uuid.UUID) error) *BulkResult {
	result := &BulkResult{Errors: []BulkError{}}
	if len(termIDs) == 0 {
		return result
	}

	var mu sync.Mutex
	var wg sync.WaitGroup
	sem := make(chan struct{}, bulkConcurrency)

	for _, id := range termIDs {
		wg.Add(1)
		go func(id uuid.UUID) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			err := fn(ctx, id)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.Failed++
				result.Errors = append(result.Errors, BulkError{TermID: id.String(), Error: err.Error()})
				return
			}
			result.Succeeded++
		}(id)
	}
	wg.Wait()

	s.logger.Info("bulk operation finished",
		zap.String("operation", op),
		zap.Int("requested", len(termIDs)),
		zap.Int("succeeded", result.Succeeded),
		zap.Int("failed", result.Failed))

	return result
}
