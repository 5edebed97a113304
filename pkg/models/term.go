package models

import (
	"time"

	"github.com/google/uuid"
)

// TermStatus is the review lifecycle state of a term draft.
type TermStatus string

const (
	TermStatusPendingReview TermStatus = "pending_review"
	TermStatusApproved      TermStatus = "approved"
	TermStatusRejected      TermStatus = "rejected"
	TermStatusPublished     TermStatus = "published"
)

// TermType classifies what kind of glossary entry a draft describes.
type TermType string

const (
	TermTypeBusinessTerm TermType = "business_term"
	TermTypeMetric       TermType = "metric"
	TermTypeDimension    TermType = "dimension"
)

// Confidence is the three-level quality signal assigned at generation time.
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// termTransitions is the closed set of legal status transitions.
// The lifecycle only moves forward: pending_review -> approved -> published,
// or pending_review -> rejected. Rejected and published are terminal.
var termTransitions = map[TermStatus][]TermStatus{
	TermStatusPendingReview: {TermStatusApproved, TermStatusRejected},
	TermStatusApproved:      {TermStatusPublished},
	TermStatusRejected:      {},
	TermStatusPublished:     {},
}

// CanTransition reports whether moving a term from one status to another is legal.
func CanTransition(from, to TermStatus) bool {
	for _, next := range termTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ValidTermStatus reports whether s is a known status value.
func ValidTermStatus(s TermStatus) bool {
	_, ok := termTransitions[s]
	return ok
}

// ValidConfidence reports whether c is one of the three confidence levels.
func ValidConfidence(c Confidence) bool {
	return c == ConfidenceLow || c == ConfidenceMedium || c == ConfidenceHigh
}

// ValidTermType reports whether t is a known term type.
func ValidTermType(t TermType) bool {
	return t == TermTypeBusinessTerm || t == TermTypeMetric || t == TermTypeDimension
}

// TermDraft is a generated candidate glossary entry awaiting or having
// completed review. Stored in glossary_term_drafts.
//
// Confidence is assigned exactly once by the generation engine and is never
// touched by review actions. Once published, a draft is immutable.
type TermDraft struct {
	ID               uuid.UUID  `json:"id"`
	Name             string     `json:"name"`
	Definition       string     `json:"definition"`
	EditedDefinition *string    `json:"edited_definition,omitempty"`
	ShortDescription *string    `json:"short_description,omitempty"`
	Examples         []string   `json:"examples,omitempty"`
	Synonyms         []string   `json:"synonyms,omitempty"`
	SourceAssets     []string   `json:"source_assets"`
	SourceColumn     *string    `json:"source_column,omitempty"`
	Reasoning        *string    `json:"reasoning,omitempty"`
	SignalTags       []string   `json:"signal_tags,omitempty"`
	TermType         TermType   `json:"term_type"`
	Confidence       Confidence `json:"confidence"`
	Status           TermStatus `json:"status"`
	ReviewerNotes    *string    `json:"reviewer_notes,omitempty"`
	TargetGlossary   string     `json:"target_glossary,omitempty"`
	QueryFrequency   int        `json:"query_frequency"`
	UserAccessCount  int        `json:"user_access_count"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// FinalDefinition returns the reviewer-edited definition when present,
// otherwise the generated one. The original definition is never erased.
func (t *TermDraft) FinalDefinition() string {
	if t.EditedDefinition != nil && *t.EditedDefinition != "" {
		return *t.EditedDefinition
	}
	return t.Definition
}
