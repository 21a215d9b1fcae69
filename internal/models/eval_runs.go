// Package models defines the API and persistence data structures.
package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EvalRun represents one ingested evaluation result file.
type EvalRun struct {
	ID           uuid.UUID          `json:"id"`
	Name         string             `json:"name"`
	ModelName    *string            `json:"model_name,omitempty"`
	EvalType     *string            `json:"eval_type,omitempty"`
	Timestamp    time.Time          `json:"timestamp"`
	OverallScore *float64           `json:"overall_score,omitempty"`
	Metrics      map[string]float64 `json:"metrics"`
	Metadata     json.RawMessage    `json:"metadata,omitempty"`
	FilePath     *string            `json:"file_path,omitempty"`
	CreatedAt    time.Time          `json:"created_at"`

	// SampleCount is derived (count of samples), never stored.
	SampleCount int64 `json:"sample_count"`
}

// CreateEvalRunRequest carries the fields the ingestion pipeline writes for a new run.
type CreateEvalRunRequest struct {
	Name         string             `json:"name"`
	ModelName    *string            `json:"model_name,omitempty"`
	EvalType     *string            `json:"eval_type,omitempty"`
	Timestamp    time.Time          `json:"timestamp"`
	OverallScore *float64           `json:"overall_score,omitempty"`
	Metrics      map[string]float64 `json:"metrics"`
	Metadata     json.RawMessage    `json:"metadata,omitempty"`
	FilePath     string             `json:"file_path"`
}

// ListEvalRunsFilters represents filters for listing evaluation runs.
type ListEvalRunsFilters struct {
	ModelName *string    `form:"model_name"`
	EvalType  *string    `form:"eval_type"`
	StartDate *time.Time `form:"start_date"`
	EndDate   *time.Time `form:"end_date"`
	MinScore  *float64   `form:"min_score"`
	MaxScore  *float64   `form:"max_score"`
	Limit     int        `form:"limit" validate:"omitempty,min=1,max=100"`
	Offset    int        `form:"offset" validate:"omitempty,min=0"`
}

// ListEvalRunsResponse is the paginated run listing.
type ListEvalRunsResponse struct {
	Items  []EvalRun `json:"items"`
	Total  int64     `json:"total"`
	Offset int       `json:"offset"`
	Limit  int       `json:"limit"`
}

// ResultFileInfo describes one ingestible file in the results directory.
type ResultFileInfo struct {
	Filename string    `json:"filename"`
	Path     string    `json:"path"`
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified"`
}

// ListResultFilesResponse wraps the files listing.
type ListResultFilesResponse struct {
	Files []ResultFileInfo `json:"files"`
}

// DeleteResponse acknowledges a successful delete.
type DeleteResponse struct {
	Message string `json:"message"`
}
