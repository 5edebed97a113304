package services

import (
	"context"
	"encoding/json"
	"strings"

	"go.uber.org/zap"

	"github.com/termforge/glossary-engine/pkg/jsonutil"
	"github.com/termforge/glossary-engine/pkg/llm"
	"github.com/termforge/glossary-engine/pkg/models"
	"github.com/termforge/glossary-engine/pkg/prompts"
)

// highUsageQueryThreshold marks an asset as heavily queried for signal tagging.
const highUsageQueryThreshold = 50

// GenerationService drafts glossary terms from catalog asset metadata using
// an LLM. Drafts always start in pending_review; confidence is assigned here
// exactly once and never changed by later review steps.
type GenerationService struct {
	client      llm.LLMClient
	pool        *llm.WorkerPool
	builder     *ContextBuilder
	temperature float64
	logger      *zap.Logger
}

// NewGenerationService creates a GenerationService.
func NewGenerationService(client llm.LLMClient, pool *llm.WorkerPool, builder *ContextBuilder, temperature float64, logger *zap.Logger) *GenerationService {
	return &GenerationService{
		client:      client,
		pool:        pool,
		builder:     builder,
		temperature: temperature,
		logger:      logger.Named("generation-service"),
	}
}

// termResponse is the JSON shape the model is instructed to return.
// RawMessage fields tolerate models that answer with scalars where the
// contract asks for arrays, or vice versa.
type termResponse struct {
	Name             string          `json:"name"`
	Definition       string          `json:"definition"`
	ShortDescription json.RawMessage `json:"short_description"`
	Examples         json.RawMessage `json:"examples"`
	Synonyms         json.RawMessage `json:"synonyms"`
	TermType         string          `json:"term_type"`
	Confidence       string          `json:"confidence"`
	Reasoning        json.RawMessage `json:"reasoning"`
}

// Generate drafts one term from one asset. Transport failures come back as
// transient GenerationErrors, malformed model output as permanent ones.
func (s *GenerationService) Generate(ctx context.Context, asset models.AssetMetadata) (*models.TermDraft, error) {
	if strings.TrimSpace(asset.Name) == "" {
		return nil, newValidationError(asset.QualifiedName, "name", "asset has no name")
	}

	tc := s.builder.Build(asset)
	prompt := prompts.BuildTermDefinitionPrompt(tc)

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
		name = strings.TrimSpace(asset.Name)
	}

	termType := models.TermType(parsed.TermType)
	if !models.ValidTermType(termType) {
		termType = inferTermType(tc)
	}

	suggested := models.Confidence(parsed.Confidence)
	if !models.ValidConfidence(suggested) {
		suggested = models.ConfidenceMedium
	}
	confidence := applyConfidencePolicy(suggested, parsed.Definition, tc)

	draft := &models.TermDraft{
		Name:         name,
		Definition:   strings.TrimSpace(parsed.Definition),
		Examples:     jsonutil.FlexibleStringList(parsed.Examples),
		Synonyms:     jsonutil.FlexibleStringList(parsed.Synonyms),
		SourceAssets: []string{asset.QualifiedName},
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

	s.logger.Debug("drafted glossary term",
		zap.String("asset", asset.QualifiedName),
		zap.String("term", draft.Name),
		zap.String("confidence", string(draft.Confidence)))

	return draft, nil
}

// BatchOutcome summarizes one GenerateBatch run. Every input asset lands in
// exactly one of the three buckets.
type BatchOutcome struct {
	Drafts  []*models.TermDraft
	Skipped []string
	Errors  map[string]error
}

// GenerateBatch drafts terms for a set of assets through the worker pool.
// Assets whose names already exist in the glossary (or duplicate an earlier
// asset in the batch) are skipped before any model call; one asset's failure
// never stops the rest.
func (s *GenerationService) GenerateBatch(ctx context.Context, assets []models.AssetMetadata, existingNames []string) *BatchOutcome {
	outcome := &BatchOutcome{Errors: make(map[string]error)}

	taken := make(map[string]bool, len(existingNames))
	for _, name := range existingNames {
		taken[normalizeTermName(name)] = true
	}

	var items []llm.WorkItem[*models.TermDraft]
	for _, asset := range assets {
		key := normalizeTermName(asset.Name)
		if key == "" || taken[key] {
			outcome.Skipped = append(outcome.Skipped, asset.QualifiedName)
			continue
		}
		taken[key] = true

		asset := asset
		items = append(items, llm.WorkItem[*models.TermDraft]{
			ID: asset.QualifiedName,
			Execute: func(ctx context.Context) (*models.TermDraft, error) {
				return s.Generate(ctx, asset)
			},
		})
	}

	results := llm.Process(ctx, s.pool, items, func(completed, total int) {
		s.logger.Info("generation progress", zap.Int("completed", completed), zap.Int("total", total))
	})

	// Drafted names can still collide when distinct assets produce the same
	// term. First completion wins.
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

func normalizeTermName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// inferTermType falls back to structural signals when the model does not
// return a usable term type.
func inferTermType(tc prompts.TermContext) models.TermType {
	if tc.Expression != "" {
		return models.TermTypeMetric
	}
	return models.TermTypeBusinessTerm
}

func signalTags(asset models.AssetMetadata) []string {
	var tags []string
	if asset.Expression != "" {
		tags = append(tags, "formula_derived")
	}
	if asset.BestDescription() != "" {
		tags = append(tags, "described")
	}
	if asset.Usage != nil && asset.Usage.QueryFrequency >= highUsageQueryThreshold {
		tags = append(tags, "high_usage")
	}
	return tags
}

var hedgingMarkers = []string{"probably", "might", "appears to", "possibly", "likely", "unclear"}

// applyConfidencePolicy derives the stored confidence from the model's
// suggestion and the evidence actually present in the asset:
//
//   - no formula and no description: capped at medium, whatever the model said;
//   - a balanced formula floors confidence at medium, because the calculation
//     itself tells us what the term means;
//   - high stands only when the definition is anchored in evidence: it
//     references an operand of a balanced formula, or it restates the
//     description without hedging;
//   - medium suggestions pass through unchanged.
func applyConfidencePolicy(suggested models.Confidence, definition string, tc prompts.TermContext) models.Confidence {
	if suggested == models.ConfidenceLow {
		if tc.Expression != "" && balancedDelimiters(tc.Expression) {
			return models.ConfidenceMedium
		}
		return suggested
	}
	if suggested != models.ConfidenceHigh {
		return suggested
	}

	if formulaSupportsDefinition(tc.Expression, definition) {
		return models.ConfidenceHigh
	}
	if descriptionSupportsDefinition(tc.Description, definition) {
		return models.ConfidenceHigh
	}
	return models.ConfidenceMedium
}

func formulaSupportsDefinition(expression, definition string) bool {
	if expression == "" || !balancedDelimiters(expression) {
		return false
	}
	def := strings.ToLower(definition)
	for _, operand := range formulaOperands(expression) {
		if strings.Contains(def, strings.ToLower(operand)) {
			return true
		}
	}
	return false
}

func descriptionSupportsDefinition(description, definition string) bool {
	if description == "" {
		return false
	}
	def := strings.ToLower(definition)
	for _, marker := range hedgingMarkers {
		if strings.Contains(def, marker) {
			return false
		}
	}

	descWords := significantWords(description)
	if len(descWords) == 0 {
		return false
	}
	matched := 0
	for _, word := range descWords {
		if strings.Contains(def, word) {
			matched++
		}
	}
	return matched*2 >= len(descWords)
}

func balancedDelimiters(expression string) bool {
	depth := 0
	for _, r := range expression {
		switch r {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
			if depth < 0 {
				return false
			}
		}
	}
	return depth == 0
}

// formulaFunctions are calculation-language keywords that do not count as
// operands when checking whether a definition references the formula.
var formulaFunctions = map[string]bool{
	"sum": true, "sumx": true, "calculate": true, "filter": true,
	"divide": true, "average": true, "averagex": true, "count": true,
	"countrows": true, "distinctcount": true, "min": true, "max": true,
	"if": true, "and": true, "or": true, "not": true, "all": true,
	"values": true, "related": true, "blank": true, "var": true,
	"return": true, "select": true, "from": true, "where": true,
	"group": true, "by": true, "as": true, "case": true, "when": true,
}

func formulaOperands(expression string) []string {
	var operands []string
	var current strings.Builder
	flush := func() {
		word := current.String()
		current.Reset()
		if len(word) < 3 {
			return
		}
		if formulaFunctions[strings.ToLower(word)] {
			return
		}
		operands = append(operands, word)
	}
	for _, r := range expression {
		if r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' && current.Len() > 0 {
			current.WriteRune(r)
			continue
		}
		flush()
	}
	flush()
	return operands
}

var stopWords = map[string]bool{
	"the": true, "and": true, "that": true, "this": true, "with": true,
	"for": true, "from": true, "are": true, "was": true, "has": true,
	"have": true, "which": true, "each": true, "all": true, "per": true,
	"into": true, "over": true, "their": true, "its": true,
}

func significantWords(text string) []string {
	var words []string
	for _, word := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	}) {
		if len(word) <= 3 || stopWords[word] {
			continue
		}
		words = append(words, word)
	}
	return words
}
