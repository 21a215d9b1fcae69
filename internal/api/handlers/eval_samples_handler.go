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

// EvalSamplesService defines the interface for sample business logic.
type EvalSamplesService interface {
	ListSamples(ctx context.Context, runID uuid.UUID, filters *models.ListEvalSamplesFilters) (*models.ListEvalSamplesResponse, error)
	GetSample(ctx context.Context, id uuid.UUID) (*models.SampleDetail, error)
	CompareSamples(ctx context.Context, ids []uuid.UUID) (*models.CompareSamplesResponse, error)
}

// EvalSamplesHandler handles HTTP requests for evaluation samples.
type EvalSamplesHandler struct {
	service EvalSamplesService
}

// NewEvalSamplesHandler creates a new eval samples handler.
func NewEvalSamplesHandler(service EvalSamplesService) *EvalSamplesHandler {
	return &EvalSamplesHandler{service: service}
}

// List handles GET /api/samples/eval/{evalId}/samples.
func (h *EvalSamplesHandler) List(w http.ResponseWriter, r *http.Request) {
	runID, err := uuid.Parse(r.PathValue("evalId"))
	if err != nil {
		response.RespondBadRequest(w, "Invalid UUID format")
		return
	}

	filters := &models.ListEvalSamplesFilters{}
	if err := validation.ValidateAndDecodeQueryParams(r, filters); err != nil {
		validation.RespondValidationError(w, err)
		return
	}

	// metric_filters is a JSON object keyed by metric name; form decoding
	// cannot express it, so it is parsed separately.
	if raw := r.URL.Query().Get("metric_filters"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &filters.MetricFilters); err != nil {
			response.RespondBadRequest(w, "Invalid metric_filters, expected JSON object")
			return
		}
	}

	result, err := h.service.ListSamples(r.Context(), runID, filters)
	if err != nil {
		response.RespondInternalServerError(w, "An unexpected error occurred")
		return
	}

	response.RespondJSON(w, http.StatusOK, result)
}

// Get handles GET /api/samples/{id}.
func (h *EvalSamplesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		response.RespondBadRequest(w, "Invalid UUID format")
		return
	}

	sample, err := h.service.GetSample(r.Context(), id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			response.RespondNotFound(w, "Sample not found")
			return
		}
		response.RespondInternalServerError(w, "An unexpected error occurred")
		return
	}

	response.RespondJSON(w, http.StatusOK, sample)
}

// Compare handles GET /api/samples/compare?ids=<uuid>&ids=<uuid>.
func (h *EvalSamplesHandler) Compare(w http.ResponseWriter, r *http.Request) {
	rawIDs := r.URL.Query()["ids"]

	ids := make([]uuid.UUID, 0, len(rawIDs))
	for _, raw := range rawIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			response.RespondBadRequest(w, "Invalid UUID format in ids")
			return
		}
		ids = append(ids, id)
	}

	result, err := h.service.CompareSamples(r.Context(), ids)
	if err != nil {
		if errors.Is(err, apperrors.ErrValidation) {
			response.RespondBadRequest(w, err.Error())
			return
		}
		if errors.Is(err, apperrors.ErrNotFound) {
			response.RespondNotFound(w, "One or more samples not found")
			return
		}
		response.RespondInternalServerError(w, "An unexpected error occurred")
		return
	}

	response.RespondJSON(w, http.StatusOK, result)
}
