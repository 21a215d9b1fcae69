package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/evaltrace/viewer/internal/api/response"
	"github.com/evaltrace/viewer/internal/api/validation"
	apperrors "github.com/evaltrace/viewer/internal/errors"
	"github.com/evaltrace/viewer/internal/models"
)

// EvalRunsService defines the interface for evaluation run business logic.
type EvalRunsService interface {
	ListEvalRuns(ctx context.Context, filters *models.ListEvalRunsFilters) (*models.ListEvalRunsResponse, error)
	GetEvalRun(ctx context.Context, id uuid.UUID) (*models.EvalRun, error)
	DeleteEvalRun(ctx context.Context, id uuid.UUID) error
	ListResultFiles(ctx context.Context) (*models.ListResultFilesResponse, error)
	Ingest(ctx context.Context, req *models.IngestRequest) (*models.IngestResponse, error)
}

// EvalRunsHandler handles HTTP requests for evaluation runs and ingestion.
type EvalRunsHandler struct {
	service EvalRunsService
}

// NewEvalRunsHandler creates a new eval runs handler.
func NewEvalRunsHandler(service EvalRunsService) *EvalRunsHandler {
	return &EvalRunsHandler{service: service}
}

// List handles GET /api/evals.
func (h *EvalRunsHandler) List(w http.ResponseWriter, r *http.Request) {
	filters := &models.ListEvalRunsFilters{}
	if err := validation.ValidateAndDecodeQueryParams(r, filters); err != nil {
		validation.RespondValidationError(w, err)
		return
	}

	result, err := h.service.ListEvalRuns(r.Context(), filters)
	if err != nil {
		response.RespondInternalServerError(w, "An unexpected error occurred")
		return
	}

	response.RespondJSON(w, http.StatusOK, result)
}

// Get handles GET /api/evals/{id}.
func (h *EvalRunsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		response.RespondBadRequest(w, "Invalid UUID format")
		return
	}

	run, err := h.service.GetEvalRun(r.Context(), id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			response.RespondNotFound(w, "Eval run not found")
			return
		}
		response.RespondInternalServerError(w, "An unexpected error occurred")
		return
	}

	response.RespondJSON(w, http.StatusOK, run)
}

// Delete handles DELETE /api/evals/{id}.
func (h *EvalRunsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		response.RespondBadRequest(w, "Invalid UUID format")
		return
	}

	if err := h.service.DeleteEvalRun(r.Context(), id); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			response.RespondNotFound(w, "Eval run not found")
			return
		}
		response.RespondInternalServerError(w, "An unexpected error occurred")
		return
	}

	response.RespondJSON(w, http.StatusOK, models.DeleteResponse{Message: "Eval run deleted"})
}

// ListFiles handles GET /api/evals/files/list.
func (h *EvalRunsHandler) ListFiles(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.ListResultFiles(r.Context())
	if err != nil {
		response.RespondInternalServerError(w, "An unexpected error occurred")
		return
	}

	response.RespondJSON(w, http.StatusOK, result)
}

// Ingest handles POST /api/evals/ingest.
func (h *EvalRunsHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	var req models.IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.RespondBadRequest(w, "Invalid request body")
		return
	}

	result, err := h.service.Ingest(r.Context(), &req)
	if err != nil {
		if errors.Is(err, apperrors.ErrValidation) {
			response.RespondBadRequest(w, err.Error())
			return
		}
		response.RespondInternalServerError(w, "An unexpected error occurred")
		return
	}

	response.RespondJSON(w, http.StatusOK, result)
}
