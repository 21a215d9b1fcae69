package models

import (
	"time"

	"github.com/google/uuid"
)

// Feedback represents a user annotation on a sample.
type Feedback struct {
	ID           uuid.UUID `json:"id"`
	SampleID     uuid.UUID `json:"sample_id"`
	FeedbackType string    `json:"feedback_type"`
	Rating       *int      `json:"rating,omitempty"`
	Notes        *string   `json:"notes,omitempty"`
	Tags         []string  `json:"tags"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// CreateFeedbackRequest represents the request to create feedback on a sample.
type CreateFeedbackRequest struct {
	FeedbackType string   `json:"feedback_type" validate:"required,min=1,max=255"`
	Rating       *int     `json:"rating,omitempty" validate:"omitempty,min=1,max=5"`
	Notes        *string  `json:"notes,omitempty"`
	Tags         []string `json:"tags,omitempty"`
}

// UpdateFeedbackRequest represents a partial update; only supplied fields change.
type UpdateFeedbackRequest struct {
	FeedbackType *string   `json:"feedback_type,omitempty" validate:"omitempty,min=1,max=255"`
	Rating       *int      `json:"rating,omitempty" validate:"omitempty,min=1,max=5"`
	Notes        *string   `json:"notes,omitempty"`
	Tags         *[]string `json:"tags,omitempty"`
}

// FeedbackStats is the aggregate rollup over all feedback.
type FeedbackStats struct {
	Total    int64            `json:"total"`
	ByType   map[string]int64 `json:"by_type"`
	ByRating map[int]int64    `json:"by_rating"`
}
