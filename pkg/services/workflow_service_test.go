package services

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/termforge/glossary-engine/pkg/adapters/source"
	"github.com/termforge/glossary-engine/pkg/config"
	"github.com/termforge/glossary-engine/pkg/llm"
	"github.com/termforge/glossary-engine/pkg/models"
	"github.com/termforge/glossary-engine/pkg/repositories"
)

type staticAdapter struct {
	name   string
	assets []models.AssetMetadata
	err    error
}

func (a *staticAdapter) Name() string { return a.name }

func (a *staticAdapter) Fetch(_ context.Context, _ []string, maxResults int) ([]models.AssetMetadata, error) {
	if a.err != nil {
		return nil, a.err
	}
	if len(a.assets) > maxResults {
		return a.assets[:maxResults], nil
	}
	return a.assets, nil
}

func workflowFixture(mock *llm.MockLLMClient, assets []models.AssetMetadata, cat *mockCatalog) (*WorkflowService, repositories.TermRepository) {
	repo := repositories.NewMemoryTermRepository()
	aggregator := source.NewAggregator([]source.SourceAdapter{
		&staticAdapter{name: "static", assets: assets},
	}, zap.NewNop())
	generation := newGenerationService(mock)

	cfg := config.GenerationConfig{MaxAssets: 100, BatchSize: 5, MaxRetries: 2, TargetGlossary: "default/glossary/business"}
	svc := NewWorkflowService(aggregator, generation, repo, cat, cfg, zap.NewNop())
	return svc, repo
}

func TestRunPersistsGeneratedDrafts(t *testing.T) {
	mock := llm.NewMockLLMClient()
	mock.CompleteFunc = func(context.Context, string, string, float64) (string, error) {
		return `{"name": "", "definition": "A generated definition of the asset.", "confidence": "medium"}`, nil
	}

	assets := []models.AssetMetadata{
		{QualifiedName: "sql/orders", Name: "orders", TypeName: "Table"},
		{QualifiedName: "sql/customers", Name: "customers", TypeName: "Table"},
	}
	svc, repo := workflowFixture(mock, assets, &mockCatalog{})

	report, err := svc.Run(context.Background(), GenerationRequest{})
	require.NoError(t, err)

	assert.Equal(t, 2, report.AssetsProcessed)
	assert.Equal(t, 2, report.TermsGenerated)
	assert.Equal(t, 0, report.TermsSkipped)
	assert.Equal(t, 0, report.TermsFailed)

	terms, err := repo.List(context.Background(), repositories.TermFilter{})
	require.NoError(t, err)
	require.Len(t, terms, 2)
	for _, term := range terms {
		assert.Equal(t, models.TermStatusPendingReview, term.Status)
		assert.Equal(t, "default/glossary/business", term.TargetGlossary)
	}
}

func TestRunSkipsExistingGlossaryTerms(t *testing.T) {
	mock := llm.NewMockLLMClient()
	mock.CompleteFunc = func(context.Context, string, string, float64) (string, error) {
		return `{"name": "", "definition": "A generated definition of the asset.", "confidence": "medium"}`, nil
	}

	cat := &mockCatalog{
		listFunc: func(_ context.Context, glossaryQN string) ([]string, error) {
			assert.Equal(t, "default/glossary/business", glossaryQN)
			return []string{"Orders"}, nil
		},
	}
	assets := []models.AssetMetadata{
		{QualifiedName: "sql/orders", Name: "orders", TypeName: "Table"},
		{QualifiedName: "sql/customers", Name: "customers", TypeName: "Table"},
	}
	svc, _ := workflowFixture(mock, assets, cat)

	report, err := svc.Run(context.Background(), GenerationRequest{})
	require.NoError(t, err)

	assert.Equal(t, 1, report.TermsGenerated)
	assert.Equal(t, 1, report.TermsSkipped)
}

func TestRunProceedsWhenGlossaryListingFails(t *testing.T) {
	mock := llm.NewMockLLMClient()
	mock.CompleteFunc = func(context.Context, string, string, float64) (string, error) {
		return `{"name": "", "definition": "A generated definition of the asset.", "confidence": "medium"}`, nil
	}

	cat := &mockCatalog{
		listFunc: func(context.Context, string) ([]string, error) {
			return nil, errors.New("catalog returned status 500")
		},
	}
	assets := []models.AssetMetadata{
		{QualifiedName: "sql/orders", Name: "orders", TypeName: "Table"},
	}
	svc, _ := workflowFixture(mock, assets, cat)

	report, err := svc.Run(context.Background(), GenerationRequest{})
	require.NoError(t, err)
	assert.Equal(t, 1, report.TermsGenerated)
}

func TestRunRetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	mock := llm.NewMockLLMClient()
	mock.CompleteFunc = func(_ context.Context, prompt, _ string, _ float64) (string, error) {
		if strings.Contains(prompt, "flaky") && calls.Add(1) == 1 {
			return "", llm.NewError(llm.ErrorTypeEndpoint, "server error", true, errors.New("503"))
		}
		return `{"name": "", "definition": "A generated definition of the asset.", "confidence": "medium"}`, nil
	}

	assets := []models.AssetMetadata{
		{QualifiedName: "sql/flaky", Name: "flaky", TypeName: "Table"},
	}
	svc, _ := workflowFixture(mock, assets, &mockCatalog{})

	report, err := svc.Run(context.Background(), GenerationRequest{})
	require.NoError(t, err)

	assert.Equal(t, 1, report.TermsGenerated)
	assert.Equal(t, 0, report.TermsFailed)
	assert.Empty(t, report.Errors)
}

func TestRunReportsPermanentFailures(t *testing.T) {
	mock := llm.NewMockLLMClient()
	mock.CompleteFunc = func(_ context.Context, prompt, _ string, _ float64) (string, error) {
		if strings.Contains(prompt, "broken") {
			return "not json at all", nil
		}
		return `{"name": "", "definition": "A generated definition of the asset.", "confidence": "medium"}`, nil
	}

	assets := []models.AssetMetadata{
		{QualifiedName: "sql/broken", Name: "broken", TypeName: "Table"},
		{QualifiedName: "sql/orders", Name: "orders", TypeName: "Table"},
	}
	svc, _ := workflowFixture(mock, assets, &mockCatalog{})

	report, err := svc.Run(context.Background(), GenerationRequest{})
	require.NoError(t, err)

	assert.Equal(t, 1, report.TermsGenerated)
	assert.Equal(t, 1, report.TermsFailed)
	assert.Contains(t, report.Errors, "sql/broken")
	// Permanent failures are not retried: one call per asset.
	assert.Equal(t, 2, mock.CompleteCalls)
}

func TestRunHonorsRequestOverrides(t *testing.T) {
	mock := llm.NewMockLLMClient()
	mock.CompleteFunc = func(context.Context, string, string, float64) (string, error) {
		return `{"name": "", "definition": "A generated definition of the asset.", "confidence": "medium"}`, nil
	}

	var assets []models.AssetMetadata
	for i := 0; i < 10; i++ {
		assets = append(assets, models.AssetMetadata{
			QualifiedName: "sql/table_" + string(rune('a'+i)),
			Name:          "table_" + string(rune('a'+i)),
			TypeName:      "Table",
		})
	}
	svc, repo := workflowFixture(mock, assets, &mockCatalog{})

	report, err := svc.Run(context.Background(), GenerationRequest{
		MaxAssets:      3,
		TargetGlossary: "default/glossary/finance",
	})
	require.NoError(t, err)

	assert.Equal(t, 3, report.AssetsProcessed)
	assert.Equal(t, 3, report.TermsGenerated)

	terms, err := repo.List(context.Background(), repositories.TermFilter{})
	require.NoError(t, err)
	for _, term := range terms {
		assert.Equal(t, "default/glossary/finance", term.TargetGlossary)
	}
}

func TestRunColumnPassDraftsColumnTerms(t *testing.T) {
	mock := llm.NewMockLLMClient()
	mock.CompleteFunc = func(_ context.Context, prompt, _ string, _ float64) (string, error) {
		switch {
		case strings.Contains(prompt, "Classify the columns"):
			return `[
				{"column_name": "sale_id", "term_type": "business_term", "should_generate": true, "reason": "Key concept"},
				{"column_name": "amount", "term_type": "metric", "should_generate": true, "reason": "Business measurement"},
				{"column_name": "region", "term_type": "dimension", "should_generate": true, "reason": "Slicing attribute"}
			]`, nil
		case strings.Contains(prompt, "- Name: amount"):
			return `{"name": "Sale Amount", "definition": "The invoiced amount of one completed sale.", "confidence": "medium"}`, nil
		case strings.Contains(prompt, "- Name: region"):
			// Collides with the asset-level term name and must be dropped.
			return `{"name": "Fact Sales", "definition": "The region a sale was booked in.", "confidence": "medium"}`, nil
		default:
			return `{"name": "Fact Sales", "definition": "One row per completed sale.", "confidence": "medium"}`, nil
		}
	}

	svc, repo := workflowFixture(mock, []models.AssetMetadata{salesTableAsset()}, &mockCatalog{})

	includeColumns := true
	report, err := svc.Run(context.Background(), GenerationRequest{IncludeColumns: &includeColumns})
	require.NoError(t, err)

	// One asset-level term plus the amount column term; sale_id is a
	// business_term classification and stays out of the column pass, and the
	// region draft collides with the asset-level name.
	assert.Equal(t, 2, report.TermsGenerated)
	assert.Equal(t, 1, report.ColumnTerms)
	assert.Equal(t, 1, report.TermsSkipped)
	assert.Equal(t, 0, report.TermsFailed)
	assert.Equal(t, 4, mock.CompleteCalls)

	terms, err := repo.List(context.Background(), repositories.TermFilter{})
	require.NoError(t, err)
	require.Len(t, terms, 2)
	for _, term := range terms {
		assert.Equal(t, "default/glossary/business", term.TargetGlossary)
		if term.SourceColumn != nil {
			assert.Equal(t, "amount", *term.SourceColumn)
			assert.Equal(t, models.TermTypeMetric, term.TermType)
		}
	}
}

func TestRunSkipsColumnPassWhenDisabled(t *testing.T) {
	mock := llm.NewMockLLMClient()
	mock.CompleteFunc = func(context.Context, string, string, float64) (string, error) {
		return `{"name": "", "definition": "One row per completed sale.", "confidence": "medium"}`, nil
	}

	svc, _ := workflowFixture(mock, []models.AssetMetadata{salesTableAsset()}, &mockCatalog{})

	report, err := svc.Run(context.Background(), GenerationRequest{})
	require.NoError(t, err)

	assert.Equal(t, 1, report.TermsGenerated)
	assert.Equal(t, 0, report.ColumnTerms)
	assert.Equal(t, 1, mock.CompleteCalls)
}
