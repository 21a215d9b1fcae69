package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/evaltrace/viewer/internal/conversation"
)

// EvalSample represents one (question, conversation, score) triple within a run.
// Conversation is stored and returned verbatim; message shapes are not enforced.
type EvalSample struct {
	ID              uuid.UUID          `json:"id"`
	EvalRunID       uuid.UUID          `json:"eval_run_id"`
	SampleIndex     int                `json:"sample_index"`
	Question        string             `json:"question"`
	Score           *float64           `json:"score,omitempty"`
	Metrics         map[string]float64 `json:"metrics"`
	Conversation    json.RawMessage    `json:"conversation"`
	HTMLReport      *string            `json:"html_report,omitempty"`
	ExampleMetadata json.RawMessage    `json:"example_metadata,omitempty"`
	CreatedAt       time.Time          `json:"created_at"`

	// FeedbackCount is derived (count of feedback rows), never stored.
	FeedbackCount int64 `json:"feedback_count"`
}

// CreateEvalSampleRequest carries the fields the ingestion pipeline writes for a sample.
type CreateEvalSampleRequest struct {
	EvalRunID       uuid.UUID          `json:"eval_run_id"`
	SampleIndex     int                `json:"sample_index"`
	Question        string             `json:"question"`
	Score           *float64           `json:"score,omitempty"`
	Metrics         map[string]float64 `json:"metrics"`
	Conversation    json.RawMessage    `json:"conversation"`
	HTMLReport      *string            `json:"html_report,omitempty"`
	ExampleMetadata json.RawMessage    `json:"example_metadata,omitempty"`
}

// MetricRange bounds one metric; both bounds are inclusive and optional.
type MetricRange struct {
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`
}

// ListEvalSamplesFilters represents filters for listing samples of a run.
// MetricFilters maps metric name to a range; all supplied constraints are ANDed.
type ListEvalSamplesFilters struct {
	SearchQuery   *string                `form:"search_query"`
	MinScore      *float64               `form:"min_score"`
	MaxScore      *float64               `form:"max_score"`
	MetricFilters map[string]MetricRange `form:"-"`
	Limit         int                    `form:"limit" validate:"omitempty,min=1,max=100"`
	Offset        int                    `form:"offset" validate:"omitempty,min=0"`
}

// ListEvalSamplesResponse is the paginated sample listing.
type ListEvalSamplesResponse struct {
	Items  []EvalSample `json:"items"`
	Total  int64        `json:"total"`
	Offset int          `json:"offset"`
	Limit  int          `json:"limit"`
}

// CompareSamplesResponse holds the batch-fetched samples in request order.
type CompareSamplesResponse struct {
	Samples []EvalSample `json:"samples"`
}

// SampleDetail is one sample plus its conversation classified into message
// variants for rendering. The raw conversation stays untouched.
type SampleDetail struct {
	EvalSample

	Messages []conversation.Message `json:"messages"`
}
