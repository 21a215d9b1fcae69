package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	apperrors "github.com/evaltrace/viewer/internal/errors"
	"github.com/evaltrace/viewer/internal/models"
)

const (
	minRating = 1
	maxRating = 5
)

// FeedbackRepository defines the feedback data access the service needs.
type FeedbackRepository interface {
	ListBySample(ctx context.Context, sampleID uuid.UUID) ([]models.Feedback, error)
	Create(ctx context.Context, sampleID uuid.UUID, req *models.CreateFeedbackRequest) (*models.Feedback, error)
	Update(ctx context.Context, id uuid.UUID, req *models.UpdateFeedbackRequest) (*models.Feedback, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Stats(ctx context.Context) (*models.FeedbackStats, error)
}

// SampleExistenceChecker verifies a sample exists before feedback is attached.
type SampleExistenceChecker interface {
	ExistsByID(ctx context.Context, id uuid.UUID) (bool, error)
}

// FeedbackService handles business logic for sample feedback.
type FeedbackService struct {
	repo    FeedbackRepository
	samples SampleExistenceChecker
}

// NewFeedbackService creates a new feedback service.
func NewFeedbackService(repo FeedbackRepository, samples SampleExistenceChecker) *FeedbackService {
	return &FeedbackService{repo: repo, samples: samples}
}

// ListFeedbackForSample retrieves all feedback for one sample, newest first.
func (s *FeedbackService) ListFeedbackForSample(ctx context.Context, sampleID uuid.UUID) ([]models.Feedback, error) {
	return s.repo.ListBySample(ctx, sampleID)
}

// validateRating rejects ratings outside the 1-5 range before any write.
func validateRating(rating *int) error {
	if rating != nil && (*rating < minRating || *rating > maxRating) {
		return apperrors.NewValidationError("rating",
			fmt.Sprintf("rating must be between %d and %d", minRating, maxRating))
	}
	return nil
}

// CreateFeedback creates feedback on a sample after validating the request.
func (s *FeedbackService) CreateFeedback(
	ctx context.Context, sampleID uuid.UUID, req *models.CreateFeedbackRequest,
) (*models.Feedback, error) {
	if req.FeedbackType == "" {
		return nil, apperrors.NewValidationError("feedback_type", "feedback_type is required")
	}

	if err := validateRating(req.Rating); err != nil {
		return nil, err
	}

	exists, err := s.samples.ExistsByID(ctx, sampleID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, apperrors.NewNotFoundError("sample", "sample not found")
	}

	return s.repo.Create(ctx, sampleID, req)
}

// UpdateFeedback applies a partial update; only supplied fields change.
func (s *FeedbackService) UpdateFeedback(
	ctx context.Context, id uuid.UUID, req *models.UpdateFeedbackRequest,
) (*models.Feedback, error) {
	if req.FeedbackType != nil && *req.FeedbackType == "" {
		return nil, apperrors.NewValidationError("feedback_type", "feedback_type cannot be empty")
	}

	if err := validateRating(req.Rating); err != nil {
		return nil, err
	}

	return s.repo.Update(ctx, id, req)
}

// DeleteFeedback deletes a feedback entry.
func (s *FeedbackService) DeleteFeedback(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

// GetFeedbackStats computes the aggregate feedback rollup.
func (s *FeedbackService) GetFeedbackStats(ctx context.Context) (*models.FeedbackStats, error) {
	return s.repo.Stats(ctx)
}
