package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/evaltrace/viewer/internal/models"
)

// QuestionsRepository aggregates samples across runs by exact question text.
// Samples with an empty question are excluded from grouping.
type QuestionsRepository struct {
	db *pgxpool.Pool
}

// NewQuestionsRepository creates a new questions repository.
func NewQuestionsRepository(db *pgxpool.Pool) *QuestionsRepository {
	return &QuestionsRepository{db: db}
}

// buildQuestionFilterConditions builds the WHERE clause for question grouping.
// The empty-question exclusion is always present.
func buildQuestionFilterConditions(filters *models.ListQuestionsFilters) (whereClause string, args []any) {
	conditions := []string{"s.question <> ''"}

	if filters.SearchQuery != nil && *filters.SearchQuery != "" {
		conditions = append(conditions, `s.question ILIKE $1 ESCAPE '\'`)
		args = append(args, "%"+escapeILIKE(*filters.SearchQuery)+"%")
	}

	return " WHERE " + strings.Join(conditions, " AND "), args
}

// List returns per-question aggregates: sample count, distinct run count, and
// the latest owning-run timestamp. Ordered by sample count, then question.
func (r *QuestionsRepository) List(ctx context.Context, filters *models.ListQuestionsFilters) ([]models.QuestionSummary, error) {
	query := `
		SELECT s.question, COUNT(*) AS sample_count,
			COUNT(DISTINCT s.eval_run_id) AS run_count,
			MAX(r."timestamp") AS latest_run
		FROM eval_samples s
		JOIN eval_runs r ON r.id = s.eval_run_id
	`

	whereClause, args := buildQuestionFilterConditions(filters)
	query += whereClause
	argCount := len(args) + 1

	query += " GROUP BY s.question ORDER BY sample_count DESC, s.question"

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
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}
	defer rows.Close()

	questions := []models.QuestionSummary{}

	for rows.Next() {
		var q models.QuestionSummary

		if err := rows.Scan(&q.Question, &q.SampleCount, &q.RunCount, &q.LatestRun); err != nil {
			return nil, fmt.Errorf("failed to scan question summary: %w", err)
		}

		questions = append(questions, q)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating question summaries: %w", err)
	}

	return questions, nil
}

// Count returns the number of distinct non-empty questions matching the filters.
func (r *QuestionsRepository) Count(ctx context.Context, filters *models.ListQuestionsFilters) (int64, error) {
	query := `
		SELECT COUNT(DISTINCT s.question)
		FROM eval_samples s
		JOIN eval_runs r ON r.id = s.eval_run_id
	`

	whereClause, args := buildQuestionFilterConditions(filters)
	query += whereClause

	var count int64

	err := r.db.QueryRow(ctx, query, args...).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count questions: %w", err)
	}

	return count, nil
}

// SamplesForQuestion returns every sample with exactly this question text,
// joined with its owning run's name, model, and timestamp. Newest run first.
func (r *QuestionsRepository) SamplesForQuestion(ctx context.Context, question string) ([]models.QuestionSample, error) {
	query := `
		SELECT s.id, s.eval_run_id, s.sample_index, s.question, s.score,
			s.metrics, s.conversation, s.html_report, s.example_metadata, s.created_at,
			(SELECT COUNT(*) FROM feedback f WHERE f.sample_id = s.id) AS feedback_count,
			r.name, r.model_name, r."timestamp"
		FROM eval_samples s
		JOIN eval_runs r ON r.id = s.eval_run_id
		WHERE s.question = $1
		ORDER BY r."timestamp" DESC, s.sample_index
	`

	rows, err := r.db.Query(ctx, query, question)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch samples for question: %w", err)
	}
	defer rows.Close()

	samples := []models.QuestionSample{}

	for rows.Next() {
		var qs models.QuestionSample

		err := rows.Scan(
			&qs.ID, &qs.EvalRunID, &qs.SampleIndex, &qs.Question, &qs.Score,
			&qs.Metrics, &qs.Conversation, &qs.HTMLReport, &qs.ExampleMetadata, &qs.CreatedAt,
			&qs.FeedbackCount,
			&qs.RunName, &qs.RunModelName, &qs.RunTimestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan question sample: %w", err)
		}

		samples = append(samples, qs)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating question samples: %w", err)
	}

	return samples, nil
}
