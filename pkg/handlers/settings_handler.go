package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/termforge/glossary-engine/pkg/config"
	"github.com/termforge/glossary-engine/pkg/logging"
)

// SettingsResponse for GET /api/v1/settings. Secrets are masked; this
// surface is read-only and secret rotation stays in the environment.
type SettingsResponse struct {
	AtlanBaseURL  string `json:"atlan_base_url"`
	CatalogAPIKey string `json:"catalog_api_key,omitempty"`
	LLMProvider   string `json:"llm_provider"`
	LLMModel      string `json:"llm_model"`
	LLMAPIKey     string `json:"llm_api_key,omitempty"`
	IsConfigured  bool   `json:"is_configured"`
}

// SettingsHandler exposes the effective runtime configuration.
type SettingsHandler struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewSettingsHandler creates a new settings handler.
func NewSettingsHandler(cfg *config.Config, logger *zap.Logger) *SettingsHandler {
	return &SettingsHandler{cfg: cfg, logger: logger}
}

// RegisterRoutes registers the settings handler's routes on the given mux.
func (h *SettingsHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/settings", h.Get)
}

// Get handles GET /api/v1/settings
func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	response := SettingsResponse{
		AtlanBaseURL:  h.cfg.Catalog.BaseURL,
		CatalogAPIKey: logging.MaskSecret(h.cfg.Catalog.APIKey),
		LLMProvider:   h.cfg.LLM.Provider,
		LLMModel:      h.cfg.LLM.Model,
		LLMAPIKey:     logging.MaskSecret(h.cfg.LLM.APIKey),
		IsConfigured:  h.cfg.Catalog.BaseURL != "" && h.cfg.Catalog.APIKey != "" && h.cfg.LLM.Model != "",
	}

	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
