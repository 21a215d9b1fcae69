package service

import (
	"context"

	apperrors "github.com/evaltrace/viewer/internal/errors"
	"github.com/evaltrace/viewer/internal/models"
)

// QuestionsRepository defines the question-aggregation data access the service needs.
type QuestionsRepository interface {
	List(ctx context.Context, filters *models.ListQuestionsFilters) ([]models.QuestionSummary, error)
	Count(ctx context.Context, filters *models.ListQuestionsFilters) (int64, error)
	SamplesForQuestion(ctx context.Context, question string) ([]models.QuestionSample, error)
}

// QuestionsService handles business logic for the grouped-by-question view.
type QuestionsService struct {
	repo QuestionsRepository
}

// NewQuestionsService creates a new questions service.
func NewQuestionsService(repo QuestionsRepository) *QuestionsService {
	return &QuestionsService{repo: repo}
}

// ListQuestions retrieves per-question aggregates with pagination.
func (s *QuestionsService) ListQuestions(
	ctx context.Context, filters *models.ListQuestionsFilters,
) (*models.ListQuestionsResponse, error) {
	filters.Limit = clampLimit(filters.Limit)

	questions, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, err
	}

	total, err := s.repo.Count(ctx, filters)
	if err != nil {
		return nil, err
	}

	return &models.ListQuestionsResponse{
		Items:  questions,
		Total:  total,
		Offset: filters.Offset,
		Limit:  filters.Limit,
	}, nil
}

// GetQuestionSamples retrieves every sample sharing one question text,
// joined with its owning run.
func (s *QuestionsService) GetQuestionSamples(ctx context.Context, question string) (*models.QuestionSamplesResponse, error) {
	if question == "" {
		return nil, apperrors.NewValidationError("question", "question is required")
	}

	samples, err := s.repo.SamplesForQuestion(ctx, question)
	if err != nil {
		return nil, err
	}

	return &models.QuestionSamplesResponse{Question: question, Samples: samples}, nil
}
