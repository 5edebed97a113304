package repositories

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/termforge/glossary-engine/pkg/apperrors"
	"github.com/termforge/glossary-engine/pkg/models"
)

// memoryTermRepository is a mutex-guarded in-memory TermRepository. It is the
// default store when no database is configured, and it backs unit tests that
// exercise status transitions under concurrency.
type memoryTermRepository struct {
	mu    sync.Mutex
	terms map[uuid.UUID]*models.TermDraft
}

// NewMemoryTermRepository creates an in-memory TermRepository.
func NewMemoryTermRepository() TermRepository {
	return &memoryTermRepository{terms: make(map[uuid.UUID]*models.TermDraft)}
}

var _ TermRepository = (*memoryTermRepository)(nil)

func (r *memoryTermRepository) Create(_ context.Context, term *models.TermDraft) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if term.ID == uuid.Nil {
		term.ID = uuid.New()
	}
	now := time.Now().UTC()
	term.CreatedAt = now
	term.UpdatedAt = now

	r.terms[term.ID] = copyTerm(term)
	return nil
}

func (r *memoryTermRepository) GetByID(_ context.Context, termID uuid.UUID) (*models.TermDraft, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	term, ok := r.terms[termID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return copyTerm(term), nil
}

func (r *memoryTermRepository) List(_ context.Context, filter TermFilter) ([]*models.TermDraft, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var terms []*models.TermDraft
	for _, term := range r.terms {
		if filter.Status != "" && term.Status != filter.Status {
			continue
		}
		if filter.Confidence != "" && term.Confidence != filter.Confidence {
			continue
		}
		if filter.TermType != "" && term.TermType != filter.TermType {
			continue
		}
		terms = append(terms, copyTerm(term))
	}

	sort.Slice(terms, func(i, j int) bool {
		return terms[i].CreatedAt.After(terms[j].CreatedAt)
	})

	if filter.Limit > 0 && len(terms) > filter.Limit {
		terms = terms[:filter.Limit]
	}

	return terms, nil
}

func (r *memoryTermRepository) UpdateWithStatusCheck(_ context.Context, term *models.TermDraft, expected models.TermStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.terms[term.ID]
	if !ok {
		return apperrors.ErrNotFound
	}
	if stored.Status != expected {
		return &apperrors.TransitionError{
			TermID:    term.ID.String(),
			From:      string(stored.Status),
			Attempted: string(term.Status),
		}
	}

	stored.Status = term.Status
	stored.EditedDefinition = term.EditedDefinition
	stored.ReviewerNotes = term.ReviewerNotes
	stored.UpdatedAt = time.Now().UTC()
	term.UpdatedAt = stored.UpdatedAt

	return nil
}

func (r *memoryTermRepository) DeleteNonPublished(_ context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	deleted := 0
	for id, term := range r.terms {
		if term.Status != models.TermStatusPublished {
			delete(r.terms, id)
			deleted++
		}
	}
	return deleted, nil
}

func (r *memoryTermRepository) Stats(_ context.Context) (*TermStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stats := newTermStats()
	for _, term := range r.terms {
		stats.Total++
		stats.ByStatus[term.Status]++
		stats.ByConfidence[term.Confidence]++
	}
	return stats, nil
}

func copyTerm(t *models.TermDraft) *models.TermDraft {
	c := *t
	c.Examples = append([]string(nil), t.Examples...)
	c.Synonyms = append([]string(nil), t.Synonyms...)
	c.SourceAssets = append([]string(nil), t.SourceAssets...)
	c.SignalTags = append([]string(nil), t.SignalTags...)
	if t.SourceColumn != nil {
		v := *t.SourceColumn
		c.SourceColumn = &v
	}
	if t.EditedDefinition != nil {
		v := *t.EditedDefinition
		c.EditedDefinition = &v
	}
	if t.ShortDescription != nil {
		v := *t.ShortDescription
		c.ShortDescription = &v
	}
	if t.Reasoning != nil {
		v := *t.Reasoning
		c.Reasoning = &v
	}
	if t.ReviewerNotes != nil {
		v := *t.ReviewerNotes
		c.ReviewerNotes = &v
	}
	return &c
}
