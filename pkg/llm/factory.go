package llm

import (
	"fmt"

	"go.uber.org/zap"
)

// LLMClientFactory is the interface for creating LLM clients.
// Use this interface for dependency injection and testing.
type LLMClientFactory interface {
	Create() (LLMClient, error)
}

// ProviderConfig selects the wire protocol and endpoint for clients built
// by the factory.
type ProviderConfig struct {
	Provider string // "openai" or "anthropic"
	Endpoint string
	Model    string
	APIKey   string
}

// ClientFactory creates LLM clients from server configuration.
type ClientFactory struct {
	cfg    ProviderConfig
	logger *zap.Logger
}

// NewClientFactory creates a new factory.
func NewClientFactory(cfg ProviderConfig, logger *zap.Logger) *ClientFactory {
	return &ClientFactory{cfg: cfg, logger: logger}
}

var _ LLMClientFactory = (*ClientFactory)(nil)

// Create builds an LLM client for the configured provider.
// Returns LLMClient interface to enable dependency injection of mocks.
func (f *ClientFactory) Create() (LLMClient, error) {
	cfg := &Config{
		Endpoint: f.cfg.Endpoint,
		Model:    f.cfg.Model,
		APIKey:   f.cfg.APIKey,
	}

	switch f.cfg.Provider {
	case "anthropic":
		return NewAnthropicClient(cfg, f.logger)
	case "openai", "":
		return NewClient(cfg, f.logger)
	default:
		return nil, fmt.Errorf("unknown llm provider: %q", f.cfg.Provider)
	}
}
