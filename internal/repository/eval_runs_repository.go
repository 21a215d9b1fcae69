package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	apperrors "github.com/evaltrace/viewer/internal/errors"
	"github.com/evaltrace/viewer/internal/models"
)

// evalRunColumns is the select list shared by run queries; sample_count is
// derived per query.
const evalRunColumns = `id, name, model_name, eval_type, "timestamp", overall_score,
	metrics, metadata, file_path, created_at`

// EvalRunsRepository handles data access for evaluation runs.
type EvalRunsRepository struct {
	db *pgxpool.Pool
}

// NewEvalRunsRepository creates a new eval runs repository.
func NewEvalRunsRepository(db *pgxpool.Pool) *EvalRunsRepository {
	return &EvalRunsRepository{db: db}
}

// Create inserts a new evaluation run.
func (r *EvalRunsRepository) Create(ctx context.Context, req *models.CreateEvalRunRequest) (*models.EvalRun, error) {
	metrics := req.Metrics
	if metrics == nil {
		metrics = map[string]float64{}
	}

	metadata := req.Metadata
	if metadata == nil {
		metadata = json.RawMessage("{}")
	}

	query := `
		INSERT INTO eval_runs (name, model_name, eval_type, "timestamp", overall_score, metrics, metadata, file_path)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + evalRunColumns

	var run models.EvalRun

	err := r.db.QueryRow(ctx, query,
		req.Name, req.ModelName, req.EvalType, req.Timestamp, req.OverallScore,
		metrics, metadata, req.FilePath,
	).Scan(
		&run.ID, &run.Name, &run.ModelName, &run.EvalType, &run.Timestamp, &run.OverallScore,
		&run.Metrics, &run.Metadata, &run.FilePath, &run.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create eval run: %w", err)
	}

	return &run, nil
}

// ExistsByFilePath reports whether a run was already ingested from filePath.
func (r *EvalRunsRepository) ExistsByFilePath(ctx context.Context, filePath string) (bool, error) {
	var exists bool

	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM eval_runs WHERE file_path = $1)`, filePath,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check eval run existence: %w", err)
	}

	return exists, nil
}

// GetByID retrieves a single run with its derived sample count.
func (r *EvalRunsRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.EvalRun, error) {
	query := `
		SELECT ` + evalRunColumns + `,
			(SELECT COUNT(*) FROM eval_samples s WHERE s.eval_run_id = eval_runs.id) AS sample_count
		FROM eval_runs
		WHERE id = $1
	`

	var run models.EvalRun

	err := r.db.QueryRow(ctx, query, id).Scan(
		&run.ID, &run.Name, &run.ModelName, &run.EvalType, &run.Timestamp, &run.OverallScore,
		&run.Metrics, &run.Metadata, &run.FilePath, &run.CreatedAt,
		&run.SampleCount,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("eval run", "evaluation run not found")
		}

		return nil, fmt.Errorf("failed to get eval run: %w", err)
	}

	return &run, nil
}

// buildRunFilterConditions builds WHERE clause conditions and arguments from filters.
// Returns the WHERE clause (including " WHERE " prefix if conditions exist) and the args slice.
func buildRunFilterConditions(filters *models.ListEvalRunsFilters) (whereClause string, args []any) {
	var conditions []string

	argCount := 1

	if filters.ModelName != nil {
		conditions = append(conditions, fmt.Sprintf("model_name = $%d", argCount))
		args = append(args, *filters.ModelName)
		argCount++
	}

	if filters.EvalType != nil {
		conditions = append(conditions, fmt.Sprintf("eval_type = $%d", argCount))
		args = append(args, *filters.EvalType)
		argCount++
	}

	if filters.StartDate != nil {
		conditions = append(conditions, fmt.Sprintf(`"timestamp" >= $%d`, argCount))
		args = append(args, *filters.StartDate)
		argCount++
	}

	if filters.EndDate != nil {
		conditions = append(conditions, fmt.Sprintf(`"timestamp" <= $%d`, argCount))
		args = append(args, *filters.EndDate)
		argCount++
	}

	if filters.MinScore != nil {
		conditions = append(conditions, fmt.Sprintf("overall_score >= $%d", argCount))
		args = append(args, *filters.MinScore)
		argCount++
	}

	if filters.MaxScore != nil {
		conditions = append(conditions, fmt.Sprintf("overall_score <= $%d", argCount))
		args = append(args, *filters.MaxScore)
	}

	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	return whereClause, args
}

// List retrieves runs matching the filters, newest first, with sample counts.
func (r *EvalRunsRepository) List(ctx context.Context, filters *models.ListEvalRunsFilters) ([]models.EvalRun, error) {
	query := `
		SELECT ` + evalRunColumns + `,
			(SELECT COUNT(*) FROM eval_samples s WHERE s.eval_run_id = eval_runs.id) AS sample_count
		FROM eval_runs
	`

	whereClause, args := buildRunFilterConditions(filters)
	query += whereClause
	argCount := len(args) + 1

	query += ` ORDER BY "timestamp" DESC`

	if filters.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argCount)

		args = append(args, filters.Limit)
		argCount++
	}

	if filters.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argCount)

		args = append(args, filters.Offset)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list eval runs: %w", err)
	}
	defer rows.Close()

	runs := []models.EvalRun{} // Initialize as empty slice, not nil

	for rows.Next() {
		var run models.EvalRun

		err := rows.Scan(
			&run.ID, &run.Name, &run.ModelName, &run.EvalType, &run.Timestamp, &run.OverallScore,
			&run.Metrics, &run.Metadata, &run.FilePath, &run.CreatedAt,
			&run.SampleCount,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan eval run: %w", err)
		}

		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating eval runs: %w", err)
	}

	return runs, nil
}

// Count returns the total count of runs matching the filters.
func (r *EvalRunsRepository) Count(ctx context.Context, filters *models.ListEvalRunsFilters) (int64, error) {
	query := `SELECT COUNT(*) FROM eval_runs`

	whereClause, args := buildRunFilterConditions(filters)
	query += whereClause

	var count int64

	err := r.db.QueryRow(ctx, query, args...).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count eval runs: %w", err)
	}

	return count, nil
}

// Delete removes a run; samples and their feedback go with it via cascade.
func (r *EvalRunsRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.Exec(ctx, `DELETE FROM eval_runs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete eval run: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("eval run", "evaluation run not found")
	}

	return nil
}
