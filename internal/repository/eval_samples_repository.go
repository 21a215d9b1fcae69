package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	apperrors "github.com/evaltrace/viewer/internal/errors"
	"github.com/evaltrace/viewer/internal/models"
)

const evalSampleColumns = `id, eval_run_id, sample_index, question, score,
	metrics, conversation, html_report, example_metadata, created_at`

// EvalSamplesRepository handles data access for evaluation samples.
type EvalSamplesRepository struct {
	db *pgxpool.Pool
}

// NewEvalSamplesRepository creates a new eval samples repository.
func NewEvalSamplesRepository(db *pgxpool.Pool) *EvalSamplesRepository {
	return &EvalSamplesRepository{db: db}
}

// CreateBatch inserts the given samples in one pgx batch. Callers chunk the
// full sample set; a failed batch leaves earlier batches in place.
func (r *EvalSamplesRepository) CreateBatch(ctx context.Context, samples []models.CreateEvalSampleRequest) error {
	if len(samples) == 0 {
		return nil
	}

	query := `
		INSERT INTO eval_samples (eval_run_id, sample_index, question, score, metrics, conversation, html_report, example_metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	batch := &pgx.Batch{}
	for _, sample := range samples {
		metrics := sample.Metrics
		if metrics == nil {
			metrics = map[string]float64{}
		}

		conversation := sample.Conversation
		if conversation == nil {
			conversation = json.RawMessage("[]")
		}

		exampleMetadata := sample.ExampleMetadata
		if exampleMetadata == nil {
			exampleMetadata = json.RawMessage("{}")
		}

		batch.Queue(query,
			sample.EvalRunID, sample.SampleIndex, sample.Question, sample.Score,
			metrics, conversation, sample.HTMLReport, exampleMetadata,
		)
	}

	results := r.db.SendBatch(ctx, batch)
	defer results.Close()

	for i := range samples {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to insert sample %d: %w", samples[i].SampleIndex, err)
		}
	}

	return nil
}

// GetByID retrieves a single sample with its derived feedback count.
func (r *EvalSamplesRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.EvalSample, error) {
	query := `
		SELECT ` + evalSampleColumns + `,
			(SELECT COUNT(*) FROM feedback f WHERE f.sample_id = eval_samples.id) AS feedback_count
		FROM eval_samples
		WHERE id = $1
	`

	var sample models.EvalSample

	err := r.db.QueryRow(ctx, query, id).Scan(
		&sample.ID, &sample.EvalRunID, &sample.SampleIndex, &sample.Question, &sample.Score,
		&sample.Metrics, &sample.Conversation, &sample.HTMLReport, &sample.ExampleMetadata, &sample.CreatedAt,
		&sample.FeedbackCount,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("sample", "sample not found")
		}

		return nil, fmt.Errorf("failed to get sample: %w", err)
	}

	return &sample, nil
}

// ExistsByID reports whether a sample exists.
func (r *EvalSamplesRepository) ExistsByID(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool

	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM eval_samples WHERE id = $1)`, id,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check sample existence: %w", err)
	}

	return exists, nil
}

// buildSampleFilterConditions builds the WHERE tail (beyond eval_run_id = $1)
// and arguments for sample listing. Metric filters are applied via jsonb
// extraction and ANDed; metric names are sorted for deterministic SQL.
func buildSampleFilterConditions(filters *models.ListEvalSamplesFilters) (whereClause string, args []any) {
	var conditions []string

	argCount := 2 // $1 is eval_run_id

	if filters.SearchQuery != nil && *filters.SearchQuery != "" {
		conditions = append(conditions, fmt.Sprintf(`question ILIKE $%d ESCAPE '\'`, argCount))
		args = append(args, "%"+escapeILIKE(*filters.SearchQuery)+"%")
		argCount++
	}

	if filters.MinScore != nil {
		conditions = append(conditions, fmt.Sprintf("score >= $%d", argCount))
		args = append(args, *filters.MinScore)
		argCount++
	}

	if filters.MaxScore != nil {
		conditions = append(conditions, fmt.Sprintf("score <= $%d", argCount))
		args = append(args, *filters.MaxScore)
		argCount++
	}

	names := make([]string, 0, len(filters.MetricFilters))
	for name := range filters.MetricFilters {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		bounds := filters.MetricFilters[name]

		if bounds.Min != nil {
			conditions = append(conditions,
				fmt.Sprintf("(metrics->>$%d)::double precision >= $%d", argCount, argCount+1))
			args = append(args, name, *bounds.Min)
			argCount += 2
		}

		if bounds.Max != nil {
			conditions = append(conditions,
				fmt.Sprintf("(metrics->>$%d)::double precision <= $%d", argCount, argCount+1))
			args = append(args, name, *bounds.Max)
			argCount += 2
		}
	}

	if len(conditions) > 0 {
		whereClause = " AND " + strings.Join(conditions, " AND ")
	}

	return whereClause, args
}

// ListByRun retrieves samples of one run matching the filters, ordered by sample_index.
func (r *EvalSamplesRepository) ListByRun(
	ctx context.Context, runID uuid.UUID, filters *models.ListEvalSamplesFilters,
) ([]models.EvalSample, error) {
	query := `
		SELECT ` + evalSampleColumns + `,
			(SELECT COUNT(*) FROM feedback f WHERE f.sample_id = eval_samples.id) AS feedback_count
		FROM eval_samples
		WHERE eval_run_id = $1
	`

	whereClause, filterArgs := buildSampleFilterConditions(filters)
	query += whereClause

	args := append([]any{runID}, filterArgs...)
	argCount := len(args) + 1

	query += " ORDER BY sample_index"

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
		return nil, fmt.Errorf("failed to list samples: %w", err)
	}
	defer rows.Close()

	samples := []models.EvalSample{}

	for rows.Next() {
		var sample models.EvalSample

		err := rows.Scan(
			&sample.ID, &sample.EvalRunID, &sample.SampleIndex, &sample.Question, &sample.Score,
			&sample.Metrics, &sample.Conversation, &sample.HTMLReport, &sample.ExampleMetadata, &sample.CreatedAt,
			&sample.FeedbackCount,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sample: %w", err)
		}

		samples = append(samples, sample)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating samples: %w", err)
	}

	return samples, nil
}

// CountByRun returns the total count of one run's samples matching the filters.
func (r *EvalSamplesRepository) CountByRun(
	ctx context.Context, runID uuid.UUID, filters *models.ListEvalSamplesFilters,
) (int64, error) {
	query := `SELECT COUNT(*) FROM eval_samples WHERE eval_run_id = $1`

	whereClause, filterArgs := buildSampleFilterConditions(filters)
	query += whereClause

	args := append([]any{runID}, filterArgs...)

	var count int64

	err := r.db.QueryRow(ctx, query, args...).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count samples: %w", err)
	}

	return count, nil
}

// GetByIDs fetches the samples matching the id set in one query.
// Ordering is up to the caller; missing ids simply yield fewer rows.
func (r *EvalSamplesRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]models.EvalSample, error) {
	query := `
		SELECT ` + evalSampleColumns + `,
			(SELECT COUNT(*) FROM feedback f WHERE f.sample_id = eval_samples.id) AS feedback_count
		FROM eval_samples
		WHERE id = ANY($1)
	`

	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch samples by ids: %w", err)
	}
	defer rows.Close()

	samples := []models.EvalSample{}

	for rows.Next() {
		var sample models.EvalSample

		err := rows.Scan(
			&sample.ID, &sample.EvalRunID, &sample.SampleIndex, &sample.Question, &sample.Score,
			&sample.Metrics, &sample.Conversation, &sample.HTMLReport, &sample.ExampleMetadata, &sample.CreatedAt,
			&sample.FeedbackCount,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sample: %w", err)
		}

		samples = append(samples, sample)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating samples: %w", err)
	}

	return samples, nil
}
