package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/termforge/glossary-engine/pkg/apperrors"
	"github.com/termforge/glossary-engine/pkg/database"
	"github.com/termforge/glossary-engine/pkg/models"
)

// TermFilter narrows List results. Zero values mean "no filter".
type TermFilter struct {
	Status     models.TermStatus
	Confidence models.Confidence
	TermType   models.TermType
	Limit      int
}

// TermStats summarizes draft counts for the review dashboard.
type TermStats struct {
	Total        int                       `json:"total"`
	ByStatus     map[models.TermStatus]int `json:"by_status"`
	ByConfidence map[models.Confidence]int `json:"by_confidence"`
}

// TermRepository provides data access for glossary term drafts.
//
// UpdateWithStatusCheck is the single mutation path for review transitions:
// it compares-and-sets against the stored status so concurrent writers on
// one term id cannot both succeed.
type TermRepository interface {
	Create(ctx context.Context, term *models.TermDraft) error
	GetByID(ctx context.Context, termID uuid.UUID) (*models.TermDraft, error)
	List(ctx context.Context, filter TermFilter) ([]*models.TermDraft, error)
	UpdateWithStatusCheck(ctx context.Context, term *models.TermDraft, expected models.TermStatus) error
	DeleteNonPublished(ctx context.Context) (int, error)
	Stats(ctx context.Context) (*TermStats, error)
}

type termRepository struct {
	db *database.DB
}

// NewTermRepository creates a Postgres-backed TermRepository.
func NewTermRepository(db *database.DB) TermRepository {
	return &termRepository{db: db}
}

var _ TermRepository = (*termRepository)(nil)

const termColumns = `
	id, name, definition, edited_definition, short_description,
	examples, synonyms, source_assets, source_column, reasoning, signal_tags,
	term_type, confidence, status, reviewer_notes, target_glossary,
	query_frequency, user_access_count, created_at, updated_at`

func (r *termRepository) Create(ctx context.Context, term *models.TermDraft) error {
	now := time.Now().UTC()
	if term.ID == uuid.Nil {
		term.ID = uuid.New()
	}

	query := `
		INSERT INTO glossary_term_drafts (
			id, name, definition, edited_definition, short_description,
			examples, synonyms, source_assets, source_column, reasoning, signal_tags,
			term_type, confidence, status, reviewer_notes, target_glossary,
			query_frequency, user_access_count, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
		RETURNING created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		term.ID,
		term.Name,
		term.Definition,
		term.EditedDefinition,
		term.ShortDescription,
		jsonbValue(term.Examples),
		jsonbValue(term.Synonyms),
		jsonbValue(term.SourceAssets),
		term.SourceColumn,
		term.Reasoning,
		jsonbValue(term.SignalTags),
		term.TermType,
		term.Confidence,
		term.Status,
		term.ReviewerNotes,
		term.TargetGlossary,
		term.QueryFrequency,
		term.UserAccessCount,
		now,
		now,
	).Scan(&term.CreatedAt, &term.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create term draft: %w", err)
	}

	return nil
}

func (r *termRepository) GetByID(ctx context.Context, termID uuid.UUID) (*models.TermDraft, error) {
	query := `SELECT ` + termColumns + ` FROM glossary_term_drafts WHERE id = $1`

	row := r.db.QueryRow(ctx, query, termID)
	term, err := scanTermDraft(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}

	return term, nil
}

func (r *termRepository) List(ctx context.Context, filter TermFilter) ([]*models.TermDraft, error) {
	query := `SELECT ` + termColumns + ` FROM glossary_term_drafts WHERE 1=1`
	args := []any{}

	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filter.Confidence != "" {
		args = append(args, filter.Confidence)
		query += fmt.Sprintf(" AND confidence = $%d", len(args))
	}
	if filter.TermType != "" {
		args = append(args, filter.TermType)
		query += fmt.Sprintf(" AND term_type = $%d", len(args))
	}
	query += " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query term drafts: %w", err)
	}
	defer rows.Close()

	var terms []*models.TermDraft
	for rows.Next() {
		term, err := scanTermDraft(rows)
		if err != nil {
			return nil, err
		}
		terms = append(terms, term)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating term drafts: %w", err)
	}

	return terms, nil
}

// UpdateWithStatusCheck writes the term's mutable review fields and its new
// status, but only if the stored status still matches expected. When the
// check fails the stored row is re-read so the caller can report the status
// the loser actually observed.
func (r *termRepository) UpdateWithStatusCheck(ctx context.Context, term *models.TermDraft, expected models.TermStatus) error {
	query := `
		UPDATE glossary_term_drafts
		SET status = $3, edited_definition = $4, reviewer_notes = $5, updated_at = $6
		WHERE id = $1 AND status = $2
		RETURNING updated_at`

	err := r.db.QueryRow(ctx, query,
		term.ID,
		expected,
		term.Status,
		term.EditedDefinition,
		term.ReviewerNotes,
		time.Now().UTC(),
	).Scan(&term.UpdatedAt)
	if err == nil {
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("failed to update term draft: %w", err)
	}

	// Zero rows: either the term is gone or another writer moved it first.
	current, getErr := r.GetByID(ctx, term.ID)
	if getErr != nil {
		return getErr
	}
	return &apperrors.TransitionError{
		TermID:    term.ID.String(),
		From:      string(current.Status),
		Attempted: string(term.Status),
	}
}

func (r *termRepository) DeleteNonPublished(ctx context.Context) (int, error) {
	result, err := r.db.Exec(ctx, `DELETE FROM glossary_term_drafts WHERE status <> $1`, models.TermStatusPublished)
	if err != nil {
		return 0, fmt.Errorf("failed to delete term drafts: %w", err)
	}
	return int(result.RowsAffected()), nil
}

func (r *termRepository) Stats(ctx context.Context) (*TermStats, error) {
	rows, err := r.db.Query(ctx, `SELECT status, confidence, COUNT(*) FROM glossary_term_drafts GROUP BY status, confidence`)
	if err != nil {
		return nil, fmt.Errorf("failed to query term stats: %w", err)
	}
	defer rows.Close()

	stats := newTermStats()
	for rows.Next() {
		var status models.TermStatus
		var confidence models.Confidence
		var count int
		if err := rows.Scan(&status, &confidence, &count); err != nil {
			return nil, fmt.Errorf("failed to scan term stats: %w", err)
		}
		stats.Total += count
		stats.ByStatus[status] += count
		stats.ByConfidence[confidence] += count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating term stats: %w", err)
	}

	return stats, nil
}

func newTermStats() *TermStats {
	return &TermStats{
		ByStatus: map[models.TermStatus]int{
			models.TermStatusPendingReview: 0,
			models.TermStatusApproved:      0,
			models.TermStatusRejected:      0,
			models.TermStatusPublished:     0,
		},
		ByConfidence: map[models.Confidence]int{
			models.ConfidenceLow:    0,
			models.ConfidenceMedium: 0,
			models.ConfidenceHigh:   0,
		},
	}
}

func scanTermDraft(row pgx.Row) (*models.TermDraft, error) {
	var t models.TermDraft
	var examples, synonyms, sourceAssets, signalTags []byte

	err := row.Scan(
		&t.ID,
		&t.Name,
		&t.Definition,
		&t.EditedDefinition,
		&t.ShortDescription,
		&examples,
		&synonyms,
		&sourceAssets,
		&t.SourceColumn,
		&t.Reasoning,
		&signalTags,
		&t.TermType,
		&t.Confidence,
		&t.Status,
		&t.ReviewerNotes,
		&t.TargetGlossary,
		&t.QueryFrequency,
		&t.UserAccessCount,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan term draft: %w", err)
	}

	for _, field := range []struct {
		data []byte
		dest *[]string
	}{
		{examples, &t.Examples},
		{synonyms, &t.Synonyms},
		{sourceAssets, &t.SourceAssets},
		{signalTags, &t.SignalTags},
	} {
		if len(field.data) > 0 && string(field.data) != "null" {
			if err := json.Unmarshal(field.data, field.dest); err != nil {
				return nil, fmt.Errorf("failed to unmarshal term field: %w", err)
			}
		}
	}

	return &t, nil
}

// jsonbValue converts a string slice to JSONB for insertion.
// Returns nil for empty slices to store NULL in the database.
func jsonbValue(v []string) any {
	if len(v) == 0 {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return data
}
