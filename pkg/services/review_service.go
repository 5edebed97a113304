package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/termforge/glossary-engine/pkg/apperrors"
	"github.com/termforge/glossary-engine/pkg/models"
	"github.com/termforge/glossary-engine/pkg/repositories"
)

// ReviewService applies human review decisions to term drafts. Both
// transitions are legal only from pending_review and go through the
// repository's check-and-set update, so two reviewers racing on one term
// cannot both win.
type ReviewService struct {
	repo   repositories.TermRepository
	logger *zap.Logger
}

// NewReviewService creates a ReviewService.
func NewReviewService(repo repositories.TermRepository, logger *zap.Logger) *ReviewService {
	return &ReviewService{
		repo:   repo,
		logger: logger.Named("review-service"),
	}
}

// Approve moves a pending term to approved. A non-empty editedDefinition
// that differs from the generated one is stored alongside the original;
// the original definition and the confidence are never touched.
func (s *ReviewService) Approve(ctx context.Context, termID uuid.UUID, editedDefinition, notes string) (*models.TermDraft, error) {
	term, err := s.repo.GetByID(ctx, termID)
	if err != nil {
		return nil, err
	}
	if !models.CanTransition(term.Status, models.TermStatusApproved) {
		return nil, &apperrors.TransitionError{
			TermID:    termID.String(),
			From:      string(term.Status),
			Attempted: string(models.TermStatusApproved),
		}
	}

	term.Status = models.TermStatusApproved
	if edited := strings.TrimSpace(editedDefinition); edited != "" && edited != term.Definition {
		term.EditedDefinition = &edited
	}
	if notes = strings.TrimSpace(notes); notes != "" {
		term.ReviewerNotes = &notes
	}

	if err := s.repo.UpdateWithStatusCheck(ctx, term, models.TermStatusPendingReview); err != nil {
		return nil, err
	}

	s.logger.Info("term approved",
		zap.String("term_id", termID.String()),
		zap.String("name", term.Name),
		zap.Bool("edited", term.EditedDefinition != nil))

	return term, nil
}

// Reject moves a pending term to rejected. The reason is mandatory and is
// recorded in the reviewer notes; rejected is terminal.
func (s *ReviewService) Reject(ctx context.Context, termID uuid.UUID, reason string) (*models.TermDraft, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, fmt.Errorf("%w: rejection requires a reason", apperrors.ErrEmptyReason)
	}

	term, err := s.repo.GetByID(ctx, termID)
	if err != nil {
		return nil, err
	}
	if !models.CanTransition(term.Status, models.TermStatusRejected) {
		return nil, &apperrors.TransitionError{
			TermID:    termID.String(),
			From:      string(term.Status),
			Attempted: string(models.TermStatusRejected),
		}
	}

	term.Status = models.TermStatusRejected
	term.ReviewerNotes = &reason

	if err := s.repo.UpdateWithStatusCheck(ctx, term, models.TermStatusPendingReview); err != nil {
		return nil, err
	}

	s.logger.Info("term rejected",
		zap.String("term_id", termID.String()),
		zap.String("name", term.Name))

	return term, nil
}
