// Package llm provides clients for the language model endpoints used to
// draft glossary terms, plus shared helpers for bounded-concurrency call
// dispatch, response parsing, and error classification.
package llm

import (
	"context"
)

// LLMClient defines the interface for completion operations.
// Use this interface for dependency injection to enable mocking in tests.
type LLMClient interface {
	// Complete generates a completion for the given prompt.
	Complete(ctx context.Context, prompt string, systemMessage string, temperature float64) (string, error)

	// GetModel returns the configured model name.
	GetModel() string

	// GetEndpoint returns the configured endpoint.
	GetEndpoint() string
}

// Ensure both clients implement LLMClient at compile time.
var (
	_ LLMClient = (*Client)(nil)
	_ LLMClient = (*AnthropicClient)(nil)
)
