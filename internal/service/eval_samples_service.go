package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/evaltrace/viewer/internal/conversation"
	apperrors "github.com/evaltrace/viewer/internal/errors"
	"github.com/evaltrace/viewer/internal/models"
)

// Compare-set bounds; the data layer doesn't enforce these, the service does.
const (
	minCompareSamples = 2
	maxCompareSamples = 4
)

// EvalSamplesRepository defines the sample data access the service needs.
type EvalSamplesRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.EvalSample, error)
	ListByRun(ctx context.Context, runID uuid.UUID, filters *models.ListEvalSamplesFilters) ([]models.EvalSample, error)
	CountByRun(ctx context.Context, runID uuid.UUID, filters *models.ListEvalSamplesFilters) (int64, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]models.EvalSample, error)
}

// EvalSamplesService handles business logic for evaluation samples.
type EvalSamplesService struct {
	repo EvalSamplesRepository
}

// NewEvalSamplesService creates a new eval samples service.
func NewEvalSamplesService(repo EvalSamplesRepository) *EvalSamplesService {
	return &EvalSamplesService{repo: repo}
}

// ListSamples retrieves one run's samples matching the filters with pagination.
func (s *EvalSamplesService) ListSamples(
	ctx context.Context, runID uuid.UUID, filters *models.ListEvalSamplesFilters,
) (*models.ListEvalSamplesResponse, error) {
	filters.Limit = clampLimit(filters.Limit)

	samples, err := s.repo.ListByRun(ctx, runID, filters)
	if err != nil {
		return nil, err
	}

	total, err := s.repo.CountByRun(ctx, runID, filters)
	if err != nil {
		return nil, err
	}

	return &models.ListEvalSamplesResponse{
		Items:  samples,
		Total:  total,
		Offset: filters.Offset,
		Limit:  filters.Limit,
	}, nil
}

// GetSample retrieves a single sample with its conversation classified into
// message variants. Classification never fails the request; an unparseable
// conversation just yields no messages.
func (s *EvalSamplesService) GetSample(ctx context.Context, id uuid.UUID) (*models.SampleDetail, error) {
	sample, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	messages, err := conversation.ClassifyAll(sample.Conversation)
	if err != nil {
		slog.WarnContext(ctx, "Failed to classify conversation", "sample_id", id, "error", err)
	}

	return &models.SampleDetail{EvalSample: *sample, Messages: messages}, nil
}

// CompareSamples batch-fetches 2-4 samples and returns them in request order.
func (s *EvalSamplesService) CompareSamples(ctx context.Context, ids []uuid.UUID) (*models.CompareSamplesResponse, error) {
	if len(ids) < minCompareSamples {
		return nil, apperrors.NewValidationError("ids",
			fmt.Sprintf("at least %d sample IDs required for comparison", minCompareSamples))
	}

	if len(ids) > maxCompareSamples {
		return nil, apperrors.NewValidationError("ids",
			fmt.Sprintf("maximum %d samples can be compared at once", maxCompareSamples))
	}

	samples, err := s.repo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	if len(samples) != len(ids) {
		return nil, apperrors.NewNotFoundError("sample", "one or more samples not found")
	}

	byID := make(map[uuid.UUID]models.EvalSample, len(samples))
	for _, sample := range samples {
		byID[sample.ID] = sample
	}

	ordered := make([]models.EvalSample, 0, len(ids))
	for _, id := range ids {
		ordered = append(ordered, byID[id])
	}

	return &models.CompareSamplesResponse{Samples: ordered}, nil
}
