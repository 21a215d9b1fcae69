package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/evaltrace/viewer/internal/api/response"
	apperrors "github.com/evaltrace/viewer/internal/errors"
	"github.com/evaltrace/viewer/internal/models"
)

// FeedbackService defines the interface for feedback business logic.
type FeedbackService interface {
	ListFeedbackForSample(ctx context.Context, sampleID uuid.UUID) ([]models.Feedback, error)
	CreateFeedback(ctx context.Context, sampleID uuid.UUID, req *models.CreateFeedbackRequest) (*models.Feedback, error)
	UpdateFeedback(ctx context.Context, id uuid.UUID, req *models.UpdateFeedbackRequest) (*models.Feedback, error)
	DeleteFeedback(ctx context.Context, id uuid.UUID) error
	GetFeedbackStats(ctx context.Context) (*models.FeedbackStats, error)
}

// FeedbackHandler handles HTTP requests for sample feedback.
type FeedbackHandler struct {
	service FeedbackService
}

// NewFeedbackHandler creates a new feedback handler.
func NewFeedbackHandler(service FeedbackService) *FeedbackHandler {
	return &FeedbackHandler{service: service}
}

// ListForSample handles GET /api/feedback/sample/{sampleId}/feedback.
func (h *FeedbackHandler) ListForSample(w http.ResponseWriter, r *http.Request) {
	sampleID, err := uuid.Parse(r.PathValue("sampleId"))
	if err != nil {
		response.RespondBadRequest(w, "Invalid UUID format")
		return
	}

	feedback, err := h.service.ListFeedbackForSample(r.Context(), sampleID)
	if err != nil {
		response.RespondInternalServerError(w, "An unexpected error occurred")
		return
	}

	response.RespondJSON(w, http.StatusOK, feedback)
}

// Create handles POST /api/feedback/sample/{sampleId}/feedback.
func (h *FeedbackHandler) Create(w http.ResponseWriter, r *http.Request) {
	sampleID, err := uuid.Parse(r.PathValue("sampleId"))
	if err != nil {
		response.RespondBadRequest(w, "Invalid UUID format")
		return
	}

	var req models.CreateFeedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.RespondBadRequest(w, "Invalid request body")
		return
	}

	feedback, err := h.service.CreateFeedback(r.Context(), sampleID, &req)
	if err != nil {
		if errors.Is(err, apperrors.ErrValidation) {
			response.RespondBadRequest(w, err.Error())
			return
		}
		if errors.Is(err, apperrors.ErrNotFound) {
			response.RespondNotFound(w, "Sample not found")
			return
		}
		response.RespondInternalServerError(w, "An unexpected error occurred")
		return
	}

	response.RespondJSON(w, http.StatusCreated, feedback)
}

// Update handles PATCH /api/feedback/{id}.
func (h *FeedbackHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		response.RespondBadRequest(w, "Invalid UUID format")
		return
	}

	var req models.UpdateFeedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.RespondBadRequest(w, "Invalid request body")
		return
	}

	feedback, err := h.service.UpdateFeedback(r.Context(), id, &req)
	if err != nil {
		if errors.Is(err, apperrors.ErrValidation) {
			response.RespondBadRequest(w, err.Error())
			return
		}
		if errors.Is(err, apperrors.ErrNotFound) {
			response.RespondNotFound(w, "Feedback not found")
			return
		}
		response.RespondInternalServerError(w, "An unexpected error occurred")
		return
	}

	response.RespondJSON(w, http.StatusOK, feedback)
}

// Delete handles DELETE /api/feedback/{id}.
func (h *FeedbackHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		response.RespondBadRequest(w, "Invalid UUID format")
		return
	}

	if err := h.service.DeleteFeedback(r.Context(), id); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			response.RespondNotFound(w, "Feedback not found")
			return
		}
		response.RespondInternalServerError(w, "An unexpected error occurred")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Stats handles GET /api/feedback/stats.
func (h *FeedbackHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.GetFeedbackStats(r.Context())
	if err != nil {
		response.RespondInternalServerError(w, "An unexpected error occurred")
		return
	}

	response.RespondJSON(w, http.StatusOK, stats)
}
