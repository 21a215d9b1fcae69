package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	apperrors "github.com/evaltrace/viewer/internal/errors"
	"github.com/evaltrace/viewer/internal/models"
)

const feedbackColumns = `id, sample_id, feedback_type, rating, notes, tags, created_at, updated_at`

// pgForeignKeyViolation is the Postgres error code for FK violations.
const pgForeignKeyViolation = "23503"

// FeedbackRepository handles data access for sample feedback.
type FeedbackRepository struct {
	db *pgxpool.Pool
}

// NewFeedbackRepository creates a new feedback repository.
func NewFeedbackRepository(db *pgxpool.Pool) *FeedbackRepository {
	return &FeedbackRepository{db: db}
}

// ListBySample retrieves all feedback for one sample, newest first.
func (r *FeedbackRepository) ListBySample(ctx context.Context, sampleID uuid.UUID) ([]models.Feedback, error) {
	query := `
		SELECT ` + feedbackColumns + `
		FROM feedback
		WHERE sample_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.Query(ctx, query, sampleID)
	if err != nil {
		return nil, fmt.Errorf("failed to list feedback: %w", err)
	}
	defer rows.Close()

	feedbacks := []models.Feedback{}

	for rows.Next() {
		var fb models.Feedback

		err := rows.Scan(
			&fb.ID, &fb.SampleID, &fb.FeedbackType, &fb.Rating, &fb.Notes, &fb.Tags,
			&fb.CreatedAt, &fb.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan feedback: %w", err)
		}

		feedbacks = append(feedbacks, fb)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating feedback: %w", err)
	}

	return feedbacks, nil
}

// Create inserts feedback for a sample. A foreign-key violation maps to not found.
func (r *FeedbackRepository) Create(
	ctx context.Context, sampleID uuid.UUID, req *models.CreateFeedbackRequest,
) (*models.Feedback, error) {
	tags := req.Tags
	if tags == nil {
		tags = []string{}
	}

	query := `
		INSERT INTO feedback (sample_id, feedback_type, rating, notes, tags)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + feedbackColumns

	var fb models.Feedback

	err := r.db.QueryRow(ctx, query, sampleID, req.FeedbackType, req.Rating, req.Notes, tags).Scan(
		&fb.ID, &fb.SampleID, &fb.FeedbackType, &fb.Rating, &fb.Notes, &fb.Tags,
		&fb.CreatedAt, &fb.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
			return nil, apperrors.NewNotFoundError("sample", "sample not found")
		}

		return nil, fmt.Errorf("failed to create feedback: %w", err)
	}

	return &fb, nil
}

// buildFeedbackUpdateQuery builds an UPDATE query with SET clause and arguments.
// Returns the query string, arguments, and whether any field updates were supplied.
func buildFeedbackUpdateQuery(
	req *models.UpdateFeedbackRequest, id uuid.UUID, updatedAt time.Time,
) (query string, args []any, hasUpdates bool) {
	var updates []string

	argCount := 1

	if req.FeedbackType != nil {
		updates = append(updates, fmt.Sprintf("feedback_type = $%d", argCount))
		args = append(args, *req.FeedbackType)
		argCount++
	}

	if req.Rating != nil {
		updates = append(updates, fmt.Sprintf("rating = $%d", argCount))
		args = append(args, *req.Rating)
		argCount++
	}

	if req.Notes != nil {
		updates = append(updates, fmt.Sprintf("notes = $%d", argCount))
		args = append(args, *req.Notes)
		argCount++
	}

	if req.Tags != nil {
		updates = append(updates, fmt.Sprintf("tags = $%d", argCount))
		args = append(args, *req.Tags)
		argCount++
	}

	if len(updates) == 0 {
		return "", nil, false
	}

	updates = append(updates, fmt.Sprintf("updated_at = $%d", argCount))
	args = append(args, updatedAt)
	argCount++

	args = append(args, id)

	query = fmt.Sprintf(`
		UPDATE feedback
		SET %s
		WHERE id = $%d
		RETURNING `+feedbackColumns, strings.Join(updates, ", "), argCount)

	return query, args, true
}

// Update applies a partial update; only supplied fields change and updated_at is refreshed.
func (r *FeedbackRepository) Update(
	ctx context.Context, id uuid.UUID, req *models.UpdateFeedbackRequest,
) (*models.Feedback, error) {
	query, args, hasUpdates := buildFeedbackUpdateQuery(req, id, time.Now())
	if !hasUpdates {
		return r.GetByID(ctx, id)
	}

	var fb models.Feedback

	err := r.db.QueryRow(ctx, query, args...).Scan(
		&fb.ID, &fb.SampleID, &fb.FeedbackType, &fb.Rating, &fb.Notes, &fb.Tags,
		&fb.CreatedAt, &fb.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("feedback", "feedback not found")
		}

		return nil, fmt.Errorf("failed to update feedback: %w", err)
	}

	return &fb, nil
}

// GetByID retrieves a single feedback entry.
func (r *FeedbackRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Feedback, error) {
	query := `SELECT ` + feedbackColumns + ` FROM feedback WHERE id = $1`

	var fb models.Feedback

	err := r.db.QueryRow(ctx, query, id).Scan(
		&fb.ID, &fb.SampleID, &fb.FeedbackType, &fb.Rating, &fb.Notes, &fb.Tags,
		&fb.CreatedAt, &fb.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("feedback", "feedback not found")
		}

		return nil, fmt.Errorf("failed to get feedback: %w", err)
	}

	return &fb, nil
}

// Delete removes a feedback entry.
func (r *FeedbackRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.Exec(ctx, `DELETE FROM feedback WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete feedback: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("feedback", "feedback not found")
	}

	return nil
}

// Stats computes the aggregate rollup: total count, counts per feedback type,
// and the rating distribution (NULL ratings excluded).
func (r *FeedbackRepository) Stats(ctx context.Context) (*models.FeedbackStats, error) {
	stats := &models.FeedbackStats{
		ByType:   map[string]int64{},
		ByRating: map[int]int64{},
	}

	rows, err := r.db.Query(ctx,
		`SELECT feedback_type, COUNT(*) FROM feedback GROUP BY feedback_type`)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate feedback by type: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			feedbackType string
			count        int64
		)

		if err := rows.Scan(&feedbackType, &count); err != nil {
			return nil, fmt.Errorf("failed to scan feedback type count: %w", err)
		}

		stats.ByType[feedbackType] = count
		stats.Total += count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating feedback type counts: %w", err)
	}

	ratingRows, err := r.db.Query(ctx,
		`SELECT rating, COUNT(*) FROM feedback WHERE rating IS NOT NULL GROUP BY rating`)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate feedback by rating: %w", err)
	}
	defer ratingRows.Close()

	for ratingRows.Next() {
		var (
			rating int
			count  int64
		)

		if err := ratingRows.Scan(&rating, &count); err != nil {
			return nil, fmt.Errorf("failed to scan rating count: %w", err)
		}

		stats.ByRating[rating] = count
	}

	if err := ratingRows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rating counts: %w", err)
	}

	return stats, nil
}
