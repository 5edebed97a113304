package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/termforge/glossary-engine/pkg/apperrors"
	"github.com/termforge/glossary-engine/pkg/models"
	"github.com/termforge/glossary-engine/pkg/repositories"
	"github.com/termforge/glossary-engine/pkg/services"
)

// TermListResponse for GET /api/v1/terms
type TermListResponse struct {
	Terms []*models.TermDraft `json:"terms"`
	Total int                 `json:"total"`
}

// ApproveTermRequest for POST /api/v1/terms/{id}/approve
type ApproveTermRequest struct {
	EditedDefinition string `json:"edited_definition,omitempty"`
	ReviewerNotes    string `json:"reviewer_notes,omitempty"`
}

// RejectTermRequest for POST /api/v1/terms/{id}/reject
type RejectTermRequest struct {
	Reason string `json:"reason"`
}

// BulkTermRequest for the bulk approve and publish endpoints.
type BulkTermRequest struct {
	TermIDs []string `json:"term_ids"`
}

// BulkApproveResponse for POST /api/v1/terms/bulk-approve. Errors is always
// present, an empty list when every term succeeded.
type BulkApproveResponse struct {
	Approved int                  `json:"approved"`
	Failed   int                  `json:"failed"`
	Errors   []services.BulkError `json:"errors"`
}

// BulkPublishResponse for POST /api/v1/terms/publish
type BulkPublishResponse struct {
	Published int                  `json:"published"`
	Failed    int                  `json:"failed"`
	Errors    []services.BulkError `json:"errors"`
}

// TermHandler handles glossary term draft HTTP requests.
type TermHandler struct {
	repo   repositories.TermRepository
	review *services.ReviewService
	bulk   *services.BulkService
	logger *zap.Logger
}

// NewTermHandler creates a new term handler.
func NewTermHandler(
	repo repositories.TermRepository,
	review *services.ReviewService,
	bulk *services.BulkService,
	logger *zap.Logger,
) *TermHandler {
	return &TermHandler{
		repo:   repo,
		review: review,
		bulk:   bulk,
		logger: logger,
	}
}

// RegisterRoutes registers the term handler's routes on the given mux.
func (h *TermHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/terms", h.List)
	mux.HandleFunc("GET /api/v1/terms/{id}", h.Get)
	mux.HandleFunc("POST /api/v1/terms/{id}/approve", h.Approve)
	mux.HandleFunc("POST /api/v1/terms/{id}/reject", h.Reject)
	mux.HandleFunc("POST /api/v1/terms/bulk-approve", h.BulkApprove)
	mux.HandleFunc("POST /api/v1/terms/publish", h.BulkPublish)
	mux.HandleFunc("DELETE /api/v1/terms", h.DeleteNonPublished)
	mux.HandleFunc("GET /api/v1/stats", h.Stats)
}

// List handles GET /api/v1/terms
func (h *TermHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := repositories.TermFilter{
		Status:     models.TermStatus(r.URL.Query().Get("status")),
		Confidence: models.Confidence(r.URL.Query().Get("confidence")),
		TermType:   models.TermType(r.URL.Query().Get("term_type")),
	}
	if filter.Status != "" && !models.ValidTermStatus(filter.Status) {
		h.writeError(w, http.StatusBadRequest, "invalid status filter")
		return
	}
	if filter.Confidence != "" && !models.ValidConfidence(filter.Confidence) {
		h.writeError(w, http.StatusBadRequest, "invalid confidence filter")
		return
	}
	if filter.TermType != "" && !models.ValidTermType(filter.TermType) {
		h.writeError(w, http.StatusBadRequest, "invalid term_type filter")
		return
	}
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit < 1 {
			h.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		filter.Limit = limit
	}

	terms, err := h.repo.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("Failed to list terms", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "failed to list terms")
		return
	}
	if terms == nil {
		terms = []*models.TermDraft{}
	}

	if err := WriteJSON(w, http.StatusOK, TermListResponse{Terms: terms, Total: len(terms)}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Get handles GET /api/v1/terms/{id}
func (h *TermHandler) Get(w http.ResponseWriter, r *http.Request) {
	termID, ok := h.parseTermID(w, r)
	if !ok {
		return
	}

	term, err := h.repo.GetByID(r.Context(), termID)
	if err != nil {
		h.writeServiceError(w, termID, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, term); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Approve handles POST /api/v1/terms/{id}/approve
func (h *TermHandler) Approve(w http.ResponseWriter, r *http.Request) {
	termID, ok := h.parseTermID(w, r)
	if !ok {
		return
	}

	var req ApproveTermRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	term, err := h.review.Approve(r.Context(), termID, req.EditedDefinition, req.ReviewerNotes)
	if err != nil {
		h.writeServiceError(w, termID, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, term); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Reject handles POST /api/v1/terms/{id}/reject
func (h *TermHandler) Reject(w http.ResponseWriter, r *http.Request) {
	termID, ok := h.parseTermID(w, r)
	if !ok {
		return
	}

	var req RejectTermRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	term, err := h.review.Reject(r.Context(), termID, req.Reason)
	if err != nil {
		h.writeServiceError(w, termID, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, term); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// BulkApprove handles POST /api/v1/terms/bulk-approve
func (h *TermHandler) BulkApprove(w http.ResponseWriter, r *http.Request) {
	termIDs, ok := h.parseBulkIDs(w, r)
	if !ok {
		return
	}

	result := h.bulk.ApproveBulk(r.Context(), termIDs)
	response := BulkApproveResponse{
		Approved: result.Succeeded,
		Failed:   result.Failed,
		Errors:   result.Errors,
	}

	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// BulkPublish handles POST /api/v1/terms/publish
func (h *TermHandler) BulkPublish(w http.ResponseWriter, r *http.Request) {
	termIDs, ok := h.parseBulkIDs(w, r)
	if !ok {
		return
	}

	result := h.bulk.PublishBulk(r.Context(), termIDs)
	response := BulkPublishResponse{
		Published: result.Succeeded,
		Failed:    result.Failed,
		Errors:    result.Errors,
	}

	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// DeleteNonPublished handles DELETE /api/v1/terms
func (h *TermHandler) DeleteNonPublished(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.repo.DeleteNonPublished(r.Context())
	if err != nil {
		h.logger.Error("Failed to delete terms", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "failed to delete terms")
		return
	}

	if err := WriteJSON(w, http.StatusOK, map[string]int{"deleted": deleted}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Stats handles GET /api/v1/stats
func (h *TermHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.repo.Stats(r.Context())
	if err != nil {
		h.logger.Error("Failed to compute term stats", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "failed to compute stats")
		return
	}

	if err := WriteJSON(w, http.StatusOK, stats); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

func (h *TermHandler) parseTermID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	termID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid term id")
		return uuid.Nil, false
	}
	return termID, true
}

func (h *TermHandler) parseBulkIDs(w http.ResponseWriter, r *http.Request) ([]uuid.UUID, bool) {
	var req BulkTermRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return nil, false
	}
	if len(req.TermIDs) == 0 {
		h.writeError(w, http.StatusBadRequest, "term_ids must not be empty")
		return nil, false
	}

	termIDs := make([]uuid.UUID, 0, len(req.TermIDs))
	for _, raw := range req.TermIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "invalid term id: "+raw)
			return nil, false
		}
		termIDs = append(termIDs, id)
	}
	return termIDs, true
}

// writeServiceError maps domain errors onto HTTP statuses for the
// single-term endpoints.
func (h *TermHandler) writeServiceError(w http.ResponseWriter, termID uuid.UUID, err error) {
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		h.writeError(w, http.StatusNotFound, "term not found")
	case errors.Is(err, apperrors.ErrEmptyReason):
		h.writeError(w, http.StatusBadRequest, err.Error())
	case apperrors.IsTransition(err):
		h.writeError(w, http.StatusConflict, err.Error())
	default:
		h.logger.Error("Term operation failed",
			zap.String("term_id", termID.String()),
			zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func (h *TermHandler) writeError(w http.ResponseWriter, status int, detail string) {
	if err := ErrorResponse(w, status, detail); err != nil {
		h.logger.Error("Failed to write error response", zap.Error(err))
	}
}
