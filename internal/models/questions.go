package models

import "time"

// QuestionSummary aggregates all samples sharing the same question text.
type QuestionSummary struct {
	Question    string    `json:"question"`
	SampleCount int64     `json:"sample_count"`
	RunCount    int64     `json:"run_count"`
	LatestRun   time.Time `json:"latest_run"`
}

// ListQuestionsFilters represents filters for the grouped-by-question listing.
type ListQuestionsFilters struct {
	SearchQuery *string `form:"search_query"`
	Limit       int     `form:"limit" validate:"omitempty,min=1,max=100"`
	Offset      int     `form:"offset" validate:"omitempty,min=0"`
}

// ListQuestionsResponse is the paginated question listing.
type ListQuestionsResponse struct {
	Items  []QuestionSummary `json:"items"`
	Total  int64             `json:"total"`
	Offset int               `json:"offset"`
	Limit  int               `json:"limit"`
}

// QuestionSample is one sample joined with its owning run for the drill-in view.
type QuestionSample struct {
	EvalSample

	RunName      string    `json:"run_name"`
	RunModelName *string   `json:"run_model_name,omitempty"`
	RunTimestamp time.Time `json:"run_timestamp"`
}

// QuestionSamplesResponse holds every sample for one question.
type QuestionSamplesResponse struct {
	Question string           `json:"question"`
	Samples  []QuestionSample `json:"samples"`
}
