package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/termforge/glossary-engine/pkg/llm"
	"github.com/termforge/glossary-engine/pkg/models"
	"github.com/termforge/glossary-engine/pkg/prompts"
)

func newGenerationService(mock *llm.MockLLMClient) *GenerationService {
	pool := llm.NewWorkerPool(llm.WorkerPoolConfig{MaxConcurrent: 2}, zap.NewNop())
	return NewGenerationService(mock, pool, NewContextBuilder(), 0.2, zap.NewNop())
}

func measureAsset() models.AssetMetadata {
	return models.AssetMetadata{
		QualifiedName:        "default/powerbi/finance/total-revenue",
		Name:                 "Total Revenue",
		TypeName:             "PowerBIMeasure",
		Expression:           "SUM(Sales[Amount])",
		DatasetQualifiedName: "default/powerbi/finance/dataset",
	}
}

func tableAsset() models.AssetMetadata {
	return models.AssetMetadata{
		QualifiedName: "default/pg/sales/orders",
		Name:          "orders",
		TypeName:      "Table",
		Description:   "Customer orders placed through the storefront checkout.",
		Usage:         &models.UsageSignals{QueryFrequency: 120, UniqueUsers: 14},
	}
}

func TestGenerateDraftsTermFromMeasure(t *testing.T) {
	mock := llm.NewMockLLMClient()
	mock.CompleteFunc = func(_ context.Context, prompt, _ string, _ float64) (string, error) {
		assert.Contains(t, prompt, "SUM(Sales[Amount])")
		return `{
			"name": "Total Revenue",
			"definition": "The sum of all sales amounts recorded in the Sales table.",
			"short_description": "Total income from sales.",
			"examples": ["Quarterly revenue reporting"],
			"synonyms": ["Gross Revenue"],
			"term_type": "metric",
			"confidence": "high",
			"reasoning": "Derived directly from the DAX formula."
		}`, nil
	}

	svc := newGenerationService(mock)
	draft, err := svc.Generate(context.Background(), measureAsset())
	require.NoError(t, err)

	assert.Equal(t, "Total Revenue", draft.Name)
	assert.Equal(t, models.TermTypeMetric, draft.TermType)
	assert.Equal(t, models.TermStatusPendingReview, draft.Status)
	assert.Equal(t, []string{"default/powerbi/finance/total-revenue"}, draft.SourceAssets)
	assert.Contains(t, draft.SignalTags, "formula_derived")
	require.NotNil(t, draft.ShortDescription)
	assert.Equal(t, "Total income from sales.", *draft.ShortDescription)
	// Definition references "Sales", an operand of the balanced formula.
	assert.Equal(t, models.ConfidenceHigh, draft.Confidence)
}

func TestGenerateTransportErrorIsTransient(t *testing.T) {
	mock := llm.NewMockLLMClient()
	mock.CompleteFunc = func(context.Context, string, string, float64) (string, error) {
		return "", llm.NewError(llm.ErrorTypeEndpoint, "connection failed", true, errors.New("connection refused"))
	}

	svc := newGenerationService(mock)
	_, err := svc.Generate(context.Background(), tableAsset())

	var genErr *GenerationError
	require.ErrorAs(t, err, &genErr)
	assert.Equal(t, GenerationTransient, genErr.Kind)
	assert.True(t, genErr.IsRetryable())
}

func TestGenerateAuthErrorIsPermanent(t *testing.T) {
	mock := llm.NewMockLLMClient()
	mock.CompleteFunc = func(context.Context, string, string, float64) (string, error) {
		return "", llm.NewError(llm.ErrorTypeAuth, "authentication failed", false, errors.New("401"))
	}

	svc := newGenerationService(mock)
	_, err := svc.Generate(context.Background(), tableAsset())

	var genErr *GenerationError
	require.ErrorAs(t, err, &genErr)
	assert.Equal(t, GenerationPermanent, genErr.Kind)
}

func TestGenerateMalformedOutputIsPermanent(t *testing.T) {
	mock := llm.NewMockLLMClient()
	mock.CompleteFunc = func(context.Context, string, string, float64) (string, error) {
		return "I cannot produce JSON today.", nil
	}

	svc := newGenerationService(mock)
	_, err := svc.Generate(context.Background(), tableAsset())

	var genErr *GenerationError
	require.ErrorAs(t, err, &genErr)
	assert.Equal(t, GenerationPermanent, genErr.Kind)

	var valErr *ValidationError
	assert.ErrorAs(t, err, &valErr)
}

func TestGenerateEmptyDefinitionIsPermanent(t *testing.T) {
	mock := llm.NewMockLLMClient()
	mock.CompleteFunc = func(context.Context, string, string, float64) (string, error) {
		return `{"name": "orders", "definition": "   ", "confidence": "high"}`, nil
	}

	svc := newGenerationService(mock)
	_, err := svc.Generate(context.Background(), tableAsset())

	var genErr *GenerationError
	require.ErrorAs(t, err, &genErr)
	assert.Equal(t, GenerationPermanent, genErr.Kind)
}

func TestGenerateToleratesScalarListFields(t *testing.T) {
	mock := llm.NewMockLLMClient()
	mock.CompleteFunc = func(context.Context, string, string, float64) (string, error) {
		return `{
			"name": "orders",
			"definition": "Customer orders placed through the storefront checkout flow.",
			"examples": "Used in daily order volume dashboards",
			"synonyms": null,
			"term_type": "business_term",
			"confidence": "medium"
		}`, nil
	}

	svc := newGenerationService(mock)
	draft, err := svc.Generate(context.Background(), tableAsset())
	require.NoError(t, err)

	assert.Equal(t, []string{"Used in daily order volume dashboards"}, draft.Examples)
	assert.Nil(t, draft.Synonyms)
}

func TestApplyConfidencePolicy(t *testing.T) {
	tests := []struct {
		name       string
		suggested  models.Confidence
		definition string
		expression string
		desc       string
		want       models.Confidence
	}{
		{
			name:       "high with formula operand reference stands",
			suggested:  models.ConfidenceHigh,
			definition: "The total of all Sales amounts.",
			expression: "SUM(Sales[Amount])",
			want:       models.ConfidenceHigh,
		},
		{
			name:       "high without operand reference drops to medium",
			suggested:  models.ConfidenceHigh,
			definition: "A financial aggregate used by the business.",
			expression: "SUM(Sales[Amount])",
			want:       models.ConfidenceMedium,
		},
		{
			name:       "high with unbalanced formula drops to medium",
			suggested:  models.ConfidenceHigh,
			definition: "The total of all Sales amounts.",
			expression: "SUM(Sales[Amount]",
			want:       models.ConfidenceMedium,
		},
		{
			name:       "high restating description stands",
			suggested:  models.ConfidenceHigh,
			definition: "Customer orders placed through the storefront checkout.",
			desc:       "Customer orders placed through the storefront checkout.",
			want:       models.ConfidenceHigh,
		},
		{
			name:       "high with hedging drops to medium",
			suggested:  models.ConfidenceHigh,
			definition: "This probably represents customer orders placed through the storefront checkout.",
			desc:       "Customer orders placed through the storefront checkout.",
			want:       models.ConfidenceMedium,
		},
		{
			name:       "no formula no description caps at medium",
			suggested:  models.ConfidenceHigh,
			definition: "Anything at all.",
			want:       models.ConfidenceMedium,
		},
		{
			name:       "medium passes through",
			suggested:  models.ConfidenceMedium,
			definition: "Anything at all.",
			want:       models.ConfidenceMedium,
		},
		{
			name:       "low floors at medium with balanced formula",
			suggested:  models.ConfidenceLow,
			definition: "The total of all Sales amounts.",
			expression: "SUM(Sales[Amount])",
			want:       models.ConfidenceMedium,
		},
		{
			name:       "low stays low with unbalanced formula",
			suggested:  models.ConfidenceLow,
			definition: "The total of all Sales amounts.",
			expression: "SUM(Sales[Amount]",
			want:       models.ConfidenceLow,
		},
		{
			name:       "low without formula passes through",
			suggested:  models.ConfidenceLow,
			definition: "Anything at all.",
			want:       models.ConfidenceLow,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tc := prompts.TermContext{Expression: tt.expression, Description: tt.desc}
			assert.Equal(t, tt.want, applyConfidencePolicy(tt.suggested, tt.definition, tc))
		})
	}
}

func TestGenerateBatchSkipsExistingAndDuplicateNames(t *testing.T) {
	mock := llm.NewMockLLMClient()
	mock.CompleteFunc = func(_ context.Context, prompt, _ string, _ float64) (string, error) {
		return `{"name": "", "definition": "A generated definition of the asset.", "confidence": "low"}`, nil
	}

	assets := []models.AssetMetadata{
		{QualifiedName: "sql/orders", Name: "orders", TypeName: "Table"},
		{QualifiedName: "sql/orders_copy", Name: "Orders", TypeName: "Table"}, // duplicate name, case-insensitive
		{QualifiedName: "sql/revenue", Name: "Revenue", TypeName: "Table"},    // already in glossary
		{QualifiedName: "sql/customers", Name: "customers", TypeName: "Table"},
	}

	svc := newGenerationService(mock)
	outcome := svc.GenerateBatch(context.Background(), assets, []string{"Revenue"})

	assert.Len(t, outcome.Drafts, 2)
	assert.ElementsMatch(t, []string{"sql/orders_copy", "sql/revenue"}, outcome.Skipped)
	assert.Empty(t, outcome.Errors)
	assert.Equal(t, 2, mock.CompleteCalls)
}

func TestGenerateBatchIsolatesFailures(t *testing.T) {
	mock := llm.NewMockLLMClient()
	mock.CompleteFunc = func(_ context.Context, prompt, _ string, _ float64) (string, error) {
		if strings.Contains(prompt, "orders") {
			return "", llm.NewError(llm.ErrorTypeEndpoint, "server error", true, errors.New("503"))
		}
		return `{"name": "", "definition": "A generated definition of the asset.", "confidence": "low"}`, nil
	}

	assets := []models.AssetMetadata{
		{QualifiedName: "sql/orders", Name: "orders", TypeName: "Table"},
		{QualifiedName: "sql/customers", Name: "customers", TypeName: "Table"},
	}

	svc := newGenerationService(mock)
	outcome := svc.GenerateBatch(context.Background(), assets, nil)

	assert.Len(t, outcome.Drafts, 1)
	require.Contains(t, outcome.Errors, "sql/orders")
	assert.Empty(t, outcome.Skipped)
}
