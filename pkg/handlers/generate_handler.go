package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/termforge/glossary-engine/pkg/services"
)

// GenerateHandler triggers glossary generation runs.
type GenerateHandler struct {
	workflow *services.WorkflowService
	logger   *zap.Logger
}

// NewGenerateHandler creates a new generate handler.
func NewGenerateHandler(workflow *services.WorkflowService, logger *zap.Logger) *GenerateHandler {
	return &GenerateHandler{workflow: workflow, logger: logger}
}

// RegisterRoutes registers the generate handler's routes on the given mux.
func (h *GenerateHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/generate", h.Generate)
}

// Generate handles POST /api/v1/generate. The run is synchronous: the
// response is the full generation report.
func (h *GenerateHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req services.GenerationRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			if err := ErrorResponse(w, http.StatusBadRequest, "invalid request body"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return
		}
	}
	if req.MaxAssets < 0 {
		if err := ErrorResponse(w, http.StatusBadRequest, "max_assets must not be negative"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	report, err := h.workflow.Run(r.Context(), req)
	if err != nil {
		h.logger.Error("Generation run failed", zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, report); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
