package services

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/termforge/glossary-engine/pkg/adapters/source"
	"github.com/termforge/glossary-engine/pkg/catalog"
	"github.com/termforge/glossary-engine/pkg/config"
	"github.com/termforge/glossary-engine/pkg/models"
	"github.com/termforge/glossary-engine/pkg/repositories"
	"github.com/termforge/glossary-engine/pkg/retry"
)

// GenerationRequest parameterizes one generation run. Zero values fall back
// to the configured defaults.
type GenerationRequest struct {
	AssetTypes     []string `json:"asset_types,omitempty"`
	MaxAssets      int      `json:"max_assets,omitempty"`
	TargetGlossary string   `json:"target_glossary,omitempty"`
	// IncludeColumns overrides the configured column pass setting when set.
	IncludeColumns *bool `json:"include_columns,omitempty"`
}

// GenerationReport summarizes a finished run.
type GenerationReport struct {
	AssetsProcessed int               `json:"assets_processed"`
	TermsGenerated  int               `json:"terms_generated"`
	ColumnTerms     int               `json:"column_terms"`
	TermsSkipped    int               `json:"terms_skipped"`
	TermsFailed     int               `json:"terms_failed"`
	Errors          map[string]string `json:"errors,omitempty"`
	DurationMS      int64             `json:"duration_ms"`
}

// WorkflowService orchestrates the full ingestion pipeline: fetch assets,
// draft terms, persist drafts for review. Transient generation failures are
// retried with backoff; permanent ones are reported and left behind.
type WorkflowService struct {
	aggregator *source.Aggregator
	generation *GenerationService
	repo       repositories.TermRepository
	catalog    catalog.CatalogClient
	cfg        config.GenerationConfig
	logger     *zap.Logger
}

// NewWorkflowService creates a WorkflowService. The catalog client may be
// nil, in which case the pre-generation duplicate check is skipped.
func NewWorkflowService(
	aggregator *source.Aggregator,
	generation *GenerationService,
	repo repositories.TermRepository,
	catalogClient catalog.CatalogClient,
	cfg config.GenerationConfig,
	logger *zap.Logger,
) *WorkflowService {
	return &WorkflowService{
		aggregator: aggregator,
		generation: generation,
		repo:       repo,
		catalog:    catalogClient,
		cfg:        cfg,
		logger:     logger.Named("workflow-service"),
	}
}

// Run executes one generation run end to end.
func (s *WorkflowService) Run(ctx context.Context, req GenerationRequest) (*GenerationReport, error) {
	started := time.Now()

	maxAssets := req.MaxAssets
	if maxAssets <= 0 {
		maxAssets = s.cfg.MaxAssets
	}
	targetGlossary := req.TargetGlossary
	if targetGlossary == "" {
		targetGlossary = s.cfg.TargetGlossary
	}
	includeColumns := s.cfg.IncludeColumns
	if req.IncludeColumns != nil {
		includeColumns = *req.IncludeColumns
	}

	assets := s.aggregator.Fetch(ctx, req.AssetTypes, maxAssets)
	s.logger.Info("assets aggregated", zap.Int("count", len(assets)))

	existingNames := s.existingTermNames(ctx, targetGlossary)

	outcome := s.generation.GenerateBatch(ctx, assets, existingNames)
	s.retryTransient(ctx, assets, outcome)

	report := &GenerationReport{
		AssetsProcessed: len(assets),
		TermsSkipped:    len(outcome.Skipped),
		Errors:          make(map[string]string),
	}

	taken := make(map[string]bool, len(existingNames))
	for _, name := range existingNames {
		taken[normalizeTermName(name)] = true
	}

	for _, draft := range outcome.Drafts {
		draft.TargetGlossary = targetGlossary
		if err := s.repo.Create(ctx, draft); err != nil {
			report.TermsFailed++
			report.Errors[draft.Name] = err.Error()
			continue
		}
		report.TermsGenerated++
		taken[normalizeTermName(draft.Name)] = true
	}
	for asset, err := range outcome.Errors {
		report.TermsFailed++
		report.Errors[asset] = err.Error()
	}

	if includeColumns {
		s.runColumnPass(ctx, assets, targetGlossary, taken, report)
	}

	report.DurationMS = time.Since(started).Milliseconds()
	s.logger.Info("generation run finished",
		zap.Int("assets", report.AssetsProcessed),
		zap.Int("generated", report.TermsGenerated),
		zap.Int("column_terms", report.ColumnTerms),
		zap.Int("skipped", report.TermsSkipped),
		zap.Int("failed", report.TermsFailed),
		zap.Int64("duration_ms", report.DurationMS))

	return report, nil
}

// runColumnPass classifies each asset's columns and drafts terms for the
// selected metric and dimension columns. A classification failure skips
// that asset; names already taken by existing or asset-level terms are
// dropped. Persisted column terms count toward TermsGenerated as well as
// ColumnTerms.
func (s *WorkflowService) runColumnPass(ctx context.Context, assets []models.AssetMetadata, targetGlossary string, taken map[string]bool, report *GenerationReport) {
	for _, asset := range assets {
		if len(asset.Columns) == 0 {
			continue
		}

		classifications, err := s.generation.ClassifyColumns(ctx, asset)
		if err != nil {
			s.logger.Warn("column classification failed",
				zap.String("asset", asset.QualifiedName),
				zap.Error(err))
			continue
		}

		var selected []models.ColumnClassification
		for _, cl := range classifications {
			if cl.ShouldGenerate && (cl.TermType == models.TermTypeMetric || cl.TermType == models.TermTypeDimension) {
				selected = append(selected, cl)
			}
		}
		if len(selected) == 0 {
			continue
		}

		outcome := s.generation.GenerateColumnTerms(ctx, asset, selected)
		report.TermsSkipped += len(outcome.Skipped)
		for id, genErr := range outcome.Errors {
			report.TermsFailed++
			report.Errors[id] = genErr.Error()
		}
		for _, draft := range outcome.Drafts {
			key := normalizeTermName(draft.Name)
			if taken[key] {
				report.TermsSkipped++
				continue
			}
			draft.TargetGlossary = targetGlossary
			if err := s.repo.Create(ctx, draft); err != nil {
				report.TermsFailed++
				report.Errors[draft.Name] = err.Error()
				continue
			}
			taken[key] = true
			report.ColumnTerms++
			report.TermsGenerated++
		}
	}
}

// existingTermNames fetches the target glossary's current term names for the
// duplicate check. Failures degrade to an empty list: generation proceeds and
// duplicates surface at publish time instead.
func (s *WorkflowService) existingTermNames(ctx context.Context, targetGlossary string) []string {
	if s.catalog == nil || targetGlossary == "" {
		return nil
	}
	names, err := s.catalog.ListGlossaryTermNames(ctx, targetGlossary)
	if err != nil {
		s.logger.Warn("failed to list existing glossary terms, skipping duplicate check",
			zap.String("glossary", targetGlossary),
			zap.Error(err))
		return nil
	}
	return names
}

// retryTransient re-runs generation for assets whose first attempt failed
// transiently. Successes move from the error bucket into the drafts.
func (s *WorkflowService) retryTransient(ctx context.Context, assets []models.AssetMetadata, outcome *BatchOutcome) {
	if s.cfg.MaxRetries <= 0 {
		return
	}

	byQN := make(map[string]models.AssetMetadata, len(assets))
	for _, asset := range assets {
		byQN[asset.QualifiedName] = asset
	}

	retryCfg := retry.DefaultConfig()
	retryCfg.MaxRetries = s.cfg.MaxRetries

	for qn, genErr := range outcome.Errors {
		var ge *GenerationError
		if !errors.As(genErr, &ge) || ge.Kind != GenerationTransient {
			continue
		}
		asset, ok := byQN[qn]
		if !ok {
			continue
		}

		draft, err := retry.DoWithResult(ctx, retryCfg, func() (*models.TermDraft, error) {
			return s.generation.Generate(ctx, asset)
		})
		if err != nil {
			outcome.Errors[qn] = err
			continue
		}
		delete(outcome.Errors, qn)
		outcome.Drafts = append(outcome.Drafts, draft)
	}
}
