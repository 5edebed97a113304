package services

import (
	"fmt"

	"github.com/termforge/glossary-engine/pkg/llm"
)

// GenerationErrorKind splits generation failures into the two classes the
// workflow cares about: transient failures are worth retrying, permanent
// ones are not.
type GenerationErrorKind string

const (
	GenerationTransient GenerationErrorKind = "transient"
	GenerationPermanent GenerationErrorKind = "permanent"
)

// GenerationError wraps a failure to draft a term for one asset.
type GenerationError struct {
	Kind  GenerationErrorKind
	Asset string
	Cause error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed for asset %s (%s): %v", e.Asset, e.Kind, e.Cause)
}

func (e *GenerationError) Unwrap() error {
	return e.Cause
}

// IsRetryable satisfies the retry package's RetryableError interface.
func (e *GenerationError) IsRetryable() bool {
	return e.Kind == GenerationTransient
}

// classifyGenerationError maps an LLM transport error onto a
// GenerationError using the llm package's retryability classification.
func classifyGenerationError(asset string, err error) *GenerationError {
	kind := GenerationPermanent
	if llm.IsRetryable(err) {
		kind = GenerationTransient
	}
	return &GenerationError{Kind: kind, Asset: asset, Cause: err}
}

// ValidationError reports a model response that does not satisfy the
// drafting contract. Always permanent: the same prompt yields the same
// malformed shape.
type ValidationError struct {
	Field  string
	Detail string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid generation output: %s: %s", e.Field, e.Detail)
}

func newValidationError(asset, field, detail string) *GenerationError {
	return &GenerationError{
		Kind:  GenerationPermanent,
		Asset: asset,
		Cause: &ValidationError{Field: field, Detail: detail},
	}
}
