package services

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/termforge/glossary-engine/pkg/jsonutil"
	"github.com/termforge/glossary-engine/pkg/llm"
	"github.com/termforge/glossary-engine/pkg/models"
	"github.com/termforge/glossary-engine/pkg/prompts"
)

// columnClassificationEntry is one element of the JSON array the model
// returns from a classification prompt.
type columnClassificationEntry struct {
	ColumnName     string `json:"column_name"`
	TermType       string `json:"term_type"`
	ShouldGenerate bool   `json:"should_generate"`
	Reason         string `json:"reason"`
}

// ClassifyColumns asks the model which of an asset's columns deserve their
// own glossary terms. One call covers the whole asset. Entries naming
// unknown columns or carrying an unknown term type are dropped.
func (s *GenerationService) ClassifyColumns(ctx context.Context, asset models.AssetMetadata) ([]models.ColumnClassification, error) {
	if len(asset.Columns) == 0 {
		return nil, nil
	}

	tc := s.builder.Build(asset)
	prompt := prompts.BuildColumnClassificationPrompt(tc)

	raw, err := s.client.Complete(ctx, prompt, prompts.SystemMessage, s.temperature)
	if err != nil {
		return nil, classifyGenerationError(asset.QualifiedName, err)
	}

	entries, err := llm.ParseJSONResponse[[]columnClassificationEntry](raw)
	if err != nil {
		return nil, newValidationError(asset.QualifiedName, "classification", err.Error())
	}

	known := make(map[string]bool, len(asset.Columns))
	for _, col := range asset.Columns {
		known[col.Name] = true
	}

	var classifications []models.ColumnClassification
	selected := 0
	for _, entry := range entries {
		termType := models.TermType(entry.TermType)
		if !known[entry.ColumnName] || !models.ValidTermType(termType) {
			s.logger.Warn("skipping invalid column classification",
				zap.String("asset", asset.QualifiedName),
				zap.String("column", entry.ColumnName),
				zap.String("term_type", entry.TermType))
			continue
		}
		classifications = append(classifications, models.ColumnClassification{
			ColumnName:     entry.ColumnName,
			TermType:       termType,
			ShouldGenerate: entry.ShouldGenerate,
			Reason:         entry.Reason,
		})
		if entry.ShouldGenerate {
			selected++
		}
	}

	s.logger.Info("classified asset columns",
		zap.String("asset", asset.QualifiedName),
		zap.Int("columns", len(asset.Columns)),
		zap.Int("selected", selected))

	return classifications, nil
}

// GenerateColumnTerm drafts one glossary term from a single column. The term
// type comes from classification, not from the model's answer.
func (s *GenerationService) GenerateColumnTerm(ctx context.Context, asset models.AssetMetadata, column models.ColumnMetadata, termType models.TermType) (*models.TermDraft, error) {
	cc := s.builder.BuildColumnContext(asset, column, termType)
	prompt := prompts.BuildColumnTermPrompt(cc)

	raw, err := s.client.Complete(ctx, prompt, prompts.SystemMessage, s.temperature)
	if err != nil {
		return nil, classifyGenerationError(asset.QualifiedName, err)
	}

	parsed, err := llm.ParseJSONResponse[termResponse](raw)
	if err != nil {
		return nil, newValidationError(asset.QualifiedName, "response", err.Error())
	}
	if strings.TrimSpace(parsed.Definition) == "" {
		return nil, newValidationError(asset.QualifiedName, "definition", "model returned an empty definition")
	}

	name := strings.TrimSpace(parsed.Name)
	if name == "" {
		name = strings.TrimSpace(column.Name)
	}

	suggested := models.Confidence(parsed.Confidence)
	if !models.ValidConfidence(suggested) {
		suggested = models.ConfidenceMedium
	}
	// The column's own description is the evidence a high confidence answer
	// has to stand on.
	confidence := applyConfidencePolicy(suggested, parsed.Definition, prompts.TermContext{Description: column.Description})

	sourceColumn := column.Name
	draft := &models.TermDraft{
		Name:         name,
		Definition:   strings.TrimSpace(parsed.Definition),
		Examples:     jsonutil.FlexibleStringList(parsed.Examples),
		Synonyms:     jsonutil.FlexibleStringList(parsed.Synonyms),
		SourceAssets: []string{asset.QualifiedName},
		SourceColumn: &sourceColumn,
		SignalTags:   signalTags(asset),
		TermType:     termType,
		Confidence:   confidence,
		Status:       models.TermStatusPendingReview,
	}
	if short := strings.TrimSpace(jsonutil.FlexibleStringValue(parsed.ShortDescription)); short != "" {
		draft.ShortDescription = &short
	}
	if reasoning := strings.TrimSpace(jsonutil.FlexibleStringValue(parsed.Reasoning)); reasoning != "" {
		draft.Reasoning = &reasoning
	}
	if asset.Usage != nil {
		draft.QueryFrequency = asset.Usage.QueryFrequency
		draft.UserAccessCount = asset.Usage.UniqueUsers
	}

	s.logger.Debug("drafted column glossary term",
		zap.String("asset", asset.QualifiedName),
		zap.String("column", column.Name),
		zap.String("term", draft.Name),
		zap.String("term_type", string(draft.TermType)),
		zap.String("confidence", string(draft.Confidence)))

	return draft, nil
}

// GenerateColumnTerms drafts terms for an asset's classified columns through
// the worker pool. Only classifications marked should_generate run; drafted
// names that collide within the asset keep the first completion.
func (s *GenerationService) GenerateColumnTerms(ctx context.Context, asset models.AssetMetadata, classifications []models.ColumnClassification) *BatchOutcome {
	outcome := &BatchOutcome{Errors: make(map[string]error)}

	byName := make(map[string]models.ColumnMetadata, len(asset.Columns))
	for _, col := range asset.Columns {
		byName[col.Name] = col
	}

	var items []llm.WorkItem[*models.TermDraft]
	for _, cl := range classifications {
		if !cl.ShouldGenerate {
			continue
		}
		column, ok := byName[cl.ColumnName]
		if !ok {
			s.logger.Warn("classified column not found in asset",
				zap.String("asset", asset.QualifiedName),
				zap.String("column", cl.ColumnName))
			continue
		}

		termType := cl.TermType
		items = append(items, llm.WorkItem[*models.TermDraft]{
			ID: asset.QualifiedName + "/" + column.Name,
			Execute: func(ctx context.Context) (*models.TermDraft, error) {
				return s.GenerateColumnTerm(ctx, asset, column, termType)
			},
		})
	}

	results := llm.Process(ctx, s.pool, items, nil)

	drafted := make(map[string]bool)
	for _, result := range results {
		if result.Err != nil {
			outcome.Errors[result.ID] = result.Err
			continue
		}
		key := normalizeTermName(result.Result.Name)
		if drafted[key] {
			outcome.Skipped = append(outcome.Skipped, result.ID)
			continue
		}
		drafted[key] = true
		outcome.Drafts = append(outcome.Drafts, result.Result)
	}

	return outcome
}
