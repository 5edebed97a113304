package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/termforge/glossary-engine/pkg/apperrors"
	"github.com/termforge/glossary-engine/pkg/catalog"
	"github.com/termforge/glossary-engine/pkg/models"
	"github.com/termforge/glossary-engine/pkg/repositories"
)

// PublishError wraps a catalog write failure. The term stays approved when
// this is returned, so the publish can be retried.
type PublishError struct {
	TermID string
	Cause  error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("failed to publish term %s: %v", e.TermID, e.Cause)
}

func (e *PublishError) Unwrap() error {
	return e.Cause
}

// PublishService pushes approved terms to the external catalog.
//
// Publish is idempotent: republishing an already published term succeeds
// without a second catalog write. Terms that are not approved fail before
// any catalog call is made.
type PublishService struct {
	repo           repositories.TermRepository
	catalog        catalog.CatalogClient
	targetGlossary string
	logger         *zap.Logger
}

// NewPublishService creates a PublishService.
func NewPublishService(repo repositories.TermRepository, catalogClient catalog.CatalogClient, targetGlossary string, logger *zap.Logger) *PublishService {
	return &PublishService{
		repo:           repo,
		catalog:        catalogClient,
		targetGlossary: targetGlossary,
		logger:         logger.Named("publish-service"),
	}
}

// Publish pushes one approved term to the catalog and marks it published.
func (s *PublishService) Publish(ctx context.Context, termID uuid.UUID) (*models.TermDraft, error) {
	term, err := s.repo.GetByID(ctx, termID)
	if err != nil {
		return nil, err
	}

	if term.Status == models.TermStatusPublished {
		return term, nil
	}
	if term.Status != models.TermStatusApproved {
		return nil, fmt.Errorf("%w: term %s is %s", apperrors.ErrNotApproved, termID, term.Status)
	}

	if s.catalog == nil {
		return nil, &PublishError{TermID: termID.String(), Cause: errors.New("no catalog configured")}
	}

	glossaryQN := term.TargetGlossary
	if glossaryQN == "" {
		glossaryQN = s.targetGlossary
	}

	payload := catalog.GlossaryTerm{
		Name:         term.Name,
		Definition:   term.FinalDefinition(),
		Synonyms:     term.Synonyms,
		GlossaryQN:   glossaryQN,
		SourceAssets: term.SourceAssets,
	}
	if term.ShortDescription != nil {
		payload.ShortDescription = *term.ShortDescription
	}

	qualifiedName, err := s.catalog.CreateGlossaryTerm(ctx, payload)
	if err != nil {
		return nil, &PublishError{TermID: termID.String(), Cause: err}
	}

	term.Status = models.TermStatusPublished
	if err := s.repo.UpdateWithStatusCheck(ctx, term, models.TermStatusApproved); err != nil {
		// The catalog write landed but the local transition lost a race.
		// A concurrent publisher reaching published first is still success.
		if apperrors.IsTransition(err) {
			current, getErr := s.repo.GetByID(ctx, termID)
			if getErr == nil && current.Status == models.TermStatusPublished {
				return current, nil
			}
		}
		return nil, err
	}

	s.logger.Info("term published",
		zap.String("term_id", termID.String()),
		zap.String("name", term.Name),
		zap.String("catalog_qualified_name", qualifiedName))

	return term, nil
}
