package repositories_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/termforge/glossary-engine/pkg/apperrors"
	"github.com/termforge/glossary-engine/pkg/models"
	"github.com/termforge/glossary-engine/pkg/repositories"
	"github.com/termforge/glossary-engine/pkg/testhelpers"
)

func setupRepo(t *testing.T) repositories.TermRepository {
	t.Helper()
	testDB := testhelpers.GetTestDB(t)

	// Shared container: clear rows so each test starts clean.
	_, err := testDB.DB.Exec(context.Background(), "TRUNCATE glossary_term_drafts")
	require.NoError(t, err)

	return repositories.NewTermRepository(testDB.DB)
}

func fullDraft() *models.TermDraft {
	short := "Total income from sales."
	reasoning := "Derived from the measure formula."
	sourceColumn := "amount"
	return &models.TermDraft{
		Name:             "Total Revenue",
		Definition:       "The sum of all sales amounts recorded in the sales table.",
		ShortDescription: &short,
		Examples:         []string{"Quarterly revenue reporting"},
		Synonyms:         []string{"Gross Revenue"},
		SourceAssets:     []string{"default/powerbi/finance/total-revenue"},
		SourceColumn:     &sourceColumn,
		Reasoning:        &reasoning,
		SignalTags:       []string{"formula_derived"},
		TermType:         models.TermTypeMetric,
		Confidence:       models.ConfidenceHigh,
		Status:           models.TermStatusPendingReview,
		TargetGlossary:   "default/glossary/business",
		QueryFrequency:   120,
		UserAccessCount:  14,
	}
}

func TestPostgresCreateAndGet(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	term := fullDraft()
	require.NoError(t, repo.Create(ctx, term))
	require.NotEqual(t, uuid.Nil, term.ID)
	assert.False(t, term.CreatedAt.IsZero())

	got, err := repo.GetByID(ctx, term.ID)
	require.NoError(t, err)

	assert.Equal(t, term.Name, got.Name)
	assert.Equal(t, term.Definition, got.Definition)
	assert.Equal(t, term.Examples, got.Examples)
	assert.Equal(t, term.Synonyms, got.Synonyms)
	assert.Equal(t, term.SourceAssets, got.SourceAssets)
	assert.Equal(t, term.SignalTags, got.SignalTags)
	assert.Equal(t, models.ConfidenceHigh, got.Confidence)
	assert.Equal(t, models.TermStatusPendingReview, got.Status)
	assert.Equal(t, "default/glossary/business", got.TargetGlossary)
	assert.Equal(t, 120, got.QueryFrequency)
	require.NotNil(t, got.ShortDescription)
	assert.Equal(t, *term.ShortDescription, *got.ShortDescription)
	require.NotNil(t, got.SourceColumn)
	assert.Equal(t, "amount", *got.SourceColumn)
	assert.Nil(t, got.EditedDefinition)
}

func TestPostgresCreateWithEmptyOptionalFields(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	term := &models.TermDraft{
		Name:       "orders",
		Definition: "Customer orders placed through the storefront.",
		TermType:   models.TermTypeBusinessTerm,
		Confidence: models.ConfidenceMedium,
		Status:     models.TermStatusPendingReview,
	}
	require.NoError(t, repo.Create(ctx, term))

	got, err := repo.GetByID(ctx, term.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Examples)
	assert.Nil(t, got.Synonyms)
	assert.Nil(t, got.ShortDescription)
	assert.Nil(t, got.SourceColumn)
	assert.Nil(t, got.Reasoning)
}

func TestPostgresGetByIDNotFound(t *testing.T) {
	repo := setupRepo(t)
	_, err := repo.GetByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestPostgresListWithFilters(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	for i, status := range []models.TermStatus{
		models.TermStatusPendingReview,
		models.TermStatusApproved,
		models.TermStatusApproved,
	} {
		term := fullDraft()
		term.Name = term.Name + "-" + string(rune('a'+i))
		term.Status = status
		require.NoError(t, repo.Create(ctx, term))
	}

	approved, err := repo.List(ctx, repositories.TermFilter{Status: models.TermStatusApproved})
	require.NoError(t, err)
	assert.Len(t, approved, 2)

	all, err := repo.List(ctx, repositories.TermFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	limited, err := repo.List(ctx, repositories.TermFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestPostgresUpdateWithStatusCheck(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	term := fullDraft()
	require.NoError(t, repo.Create(ctx, term))

	term.Status = models.TermStatusApproved
	edited := "The sum of all invoiced sales amounts."
	term.EditedDefinition = &edited
	require.NoError(t, repo.UpdateWithStatusCheck(ctx, term, models.TermStatusPendingReview))

	got, err := repo.GetByID(ctx, term.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TermStatusApproved, got.Status)
	require.NotNil(t, got.EditedDefinition)
	assert.Equal(t, edited, *got.EditedDefinition)
}

func TestPostgresUpdateWithStatusCheckConflict(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	term := fullDraft()
	term.Status = models.TermStatusRejected
	require.NoError(t, repo.Create(ctx, term))

	term.Status = models.TermStatusApproved
	err := repo.UpdateWithStatusCheck(ctx, term, models.TermStatusPendingReview)

	var transErr *apperrors.TransitionError
	require.ErrorAs(t, err, &transErr)
	assert.Equal(t, string(models.TermStatusRejected), transErr.From)
	assert.Equal(t, string(models.TermStatusApproved), transErr.Attempted)
}

func TestPostgresUpdateWithStatusCheckMissing(t *testing.T) {
	repo := setupRepo(t)

	term := fullDraft()
	term.ID = uuid.New()
	term.Status = models.TermStatusApproved

	err := repo.UpdateWithStatusCheck(context.Background(), term, models.TermStatusPendingReview)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestPostgresDeleteNonPublished(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	published := fullDraft()
	published.Status = models.TermStatusPublished
	require.NoError(t, repo.Create(ctx, published))

	pending := fullDraft()
	pending.Name = "pending-draft"
	require.NoError(t, repo.Create(ctx, pending))

	deleted, err := repo.DeleteNonPublished(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)

	remaining, err := repo.List(ctx, repositories.TermFilter{})
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, models.TermStatusPublished, remaining[0].Status)
}

func TestPostgresStats(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	for _, tc := range []struct {
		status     models.TermStatus
		confidence models.Confidence
	}{
		{models.TermStatusPendingReview, models.ConfidenceHigh},
		{models.TermStatusPendingReview, models.ConfidenceLow},
		{models.TermStatusApproved, models.ConfidenceHigh},
	} {
		term := fullDraft()
		term.Status = tc.status
		term.Confidence = tc.confidence
		require.NoError(t, repo.Create(ctx, term))
	}

	stats, err := repo.Stats(ctx)
	require.NoError(t, err)

	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 2, stats.ByStatus[models.TermStatusPendingReview])
	assert.Equal(t, 1, stats.ByStatus[models.TermStatusApproved])
	assert.Equal(t, 0, stats.ByStatus[models.TermStatusRejected])
	assert.Equal(t, 2, stats.ByConfidence[models.ConfidenceHigh])
}
