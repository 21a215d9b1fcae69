package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/evaltrace/viewer/internal/api/response"
	"github.com/evaltrace/viewer/internal/api/validation"
	apperrors "github.com/evaltrace/viewer/internal/errors"
	"github.com/evaltrace/viewer/internal/models"
)

// QuestionsService defines the interface for the grouped-by-question view.
type QuestionsService interface {
	ListQuestions(ctx context.Context, filters *models.ListQuestionsFilters) (*models.ListQuestionsResponse, error)
	GetQuestionSamples(ctx context.Context, question string) (*models.QuestionSamplesResponse, error)
}

// QuestionsHandler handles HTTP requests for question aggregation.
type QuestionsHandler struct {
	service QuestionsService
}

// NewQuestionsHandler creates a new questions handler.
func NewQuestionsHandler(service QuestionsService) *QuestionsHandler {
	return &QuestionsHandler{service: service}
}

// List handles GET /api/questions.
func (h *QuestionsHandler) List(w http.ResponseWriter, r *http.Request) {
	filters := &models.ListQuestionsFilters{}
	if err := validation.ValidateAndDecodeQueryParams(r, filters); err != nil {
		validation.RespondValidationError(w, err)
		return
	}

	result, err := h.service.ListQuestions(r.Context(), filters)
	if err != nil {
		response.RespondInternalServerError(w, "An unexpected error occurred")
		return
	}

	response.RespondJSON(w, http.StatusOK, result)
}

// Samples handles GET /api/questions/samples?question=<text>.
func (h *QuestionsHandler) Samples(w http.ResponseWriter, r *http.Request) {
	question := r.URL.Query().Get("question")

	result, err := h.service.GetQuestionSamples(r.Context(), question)
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
