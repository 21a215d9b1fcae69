// Package service implements the business rules between handlers and repositories.
package service

import (
	"context"

	"github.com/google/uuid"

	apperrors "github.com/evaltrace/viewer/internal/errors"
	"github.com/evaltrace/viewer/internal/models"
)

const (
	defaultPageLimit = 50
	maxPageLimit     = 100
)

// clampLimit applies the default and maximum page size.
func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultPageLimit
	}
	if limit > maxPageLimit {
		return maxPageLimit
	}
	return limit
}

// EvalRunsRepository defines the run data access the service needs.
type EvalRunsRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.EvalRun, error)
	List(ctx context.Context, filters *models.ListEvalRunsFilters) ([]models.EvalRun, error)
	Count(ctx context.Context, filters *models.ListEvalRunsFilters) (int64, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Ingestor defines the ingestion pipeline operations the service exposes.
type Ingestor interface {
	IngestFiles(ctx context.Context, filePaths []string) *models.IngestResponse
	ScanAndIngest(ctx context.Context) *models.IngestResponse
	ListResultFiles() ([]models.ResultFileInfo, error)
}

// EvalRunsService handles business logic for evaluation runs and ingestion.
type EvalRunsService struct {
	repo     EvalRunsRepository
	ingestor Ingestor
}

// NewEvalRunsService creates a new eval runs service.
func NewEvalRunsService(repo EvalRunsRepository, ingestor Ingestor) *EvalRunsService {
	return &EvalRunsService{repo: repo, ingestor: ingestor}
}

// ListEvalRuns retrieves runs matching the filters with pagination.
func (s *EvalRunsService) ListEvalRuns(
	ctx context.Context, filters *models.ListEvalRunsFilters,
) (*models.ListEvalRunsResponse, error) {
	filters.Limit = clampLimit(filters.Limit)

	runs, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, err
	}

	total, err := s.repo.Count(ctx, filters)
	if err != nil {
		return nil, err
	}

	return &models.ListEvalRunsResponse{
		Items:  runs,
		Total:  total,
		Offset: filters.Offset,
		Limit:  filters.Limit,
	}, nil
}

// GetEvalRun retrieves a single run by ID.
func (s *EvalRunsService) GetEvalRun(ctx context.Context, id uuid.UUID) (*models.EvalRun, error) {
	return s.repo.GetByID(ctx, id)
}

// DeleteEvalRun deletes a run; the store cascades to samples and feedback.
func (s *EvalRunsService) DeleteEvalRun(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

// ListResultFiles lists the ingestible files in the results directory.
func (s *EvalRunsService) ListResultFiles(_ context.Context) (*models.ListResultFilesResponse, error) {
	files, err := s.ingestor.ListResultFiles()
	if err != nil {
		return nil, err
	}

	return &models.ListResultFilesResponse{Files: files}, nil
}

// Ingest runs the ingestion pipeline for explicit paths or a directory scan.
func (s *EvalRunsService) Ingest(ctx context.Context, req *models.IngestRequest) (*models.IngestResponse, error) {
	switch {
	case req.ScanDirectory:
		return s.ingestor.ScanAndIngest(ctx), nil
	case len(req.FilePaths) > 0:
		return s.ingestor.IngestFiles(ctx, req.FilePaths), nil
	default:
		return nil, apperrors.NewValidationError("file_paths",
			"must provide either file_paths or scan_directory=true")
	}
}
