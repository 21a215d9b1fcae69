package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/evaltrace/viewer/internal/models"
)

// sampleBatchSize bounds the number of sample rows written per batch insert.
const sampleBatchSize = 100

// requiredKeys are the top-level fields a result file must carry.
var requiredKeys = []string{"score", "metrics", "htmls", "convos", "metadata"}

// RunStore is the run-level persistence the ingestor needs.
type RunStore interface {
	ExistsByFilePath(ctx context.Context, filePath string) (bool, error)
	Create(ctx context.Context, req *models.CreateEvalRunRequest) (*models.EvalRun, error)
}

// SampleStore is the sample-level persistence the ingestor needs.
type SampleStore interface {
	CreateBatch(ctx context.Context, samples []models.CreateEvalSampleRequest) error
}

// Ingestor loads result files into the store, one file at a time.
type Ingestor struct {
	runs       RunStore
	samples    SampleStore
	resultsDir string
}

// NewIngestor creates an ingestor over the given stores and results directory.
func NewIngestor(runs RunStore, samples SampleStore, resultsDir string) *Ingestor {
	return &Ingestor{runs: runs, samples: samples, resultsDir: resultsDir}
}

// Status is the per-file ingestion outcome.
type Status string

// Per-file outcomes.
const (
	StatusIngested Status = "ingested"
	StatusSkipped  Status = "skipped"
	StatusFailed   Status = "failed"
)

// FileResult reports the outcome of ingesting one file.
type FileResult struct {
	Path    string
	Status  Status
	Message string
	RunID   uuid.UUID
	Warning string
}

// resultFile is the expected body of a result file. Htmls and Convos are
// parallel arrays; index i of each together forms sample i.
type resultFile struct {
	Score   *float64           `json:"score"`
	Metrics map[string]float64 `json:"metrics"`
	Htmls   []string           `json:"htmls"`
	Convos  []json.RawMessage  `json:"convos"`
	Meta    json.RawMessage    `json:"metadata"`
}

// exampleMetadataEnvelope extracts the per-sample metadata list from the
// run-level metadata object.
type exampleMetadataEnvelope struct {
	ExampleLevelMetadata []json.RawMessage `json:"example_level_metadata"`
}

// IngestFile ingests a single result file. Duplicate file paths are skipped,
// not failed. The returned FileResult always has Status set.
func (ing *Ingestor) IngestFile(ctx context.Context, filePath string) FileResult {
	res := FileResult{Path: filePath, Status: StatusFailed}

	raw, err := os.ReadFile(filePath)
	if err != nil {
		res.Message = fmt.Sprintf("failed to read file: %v", err)
		return res
	}

	var keys map[string]json.RawMessage
	if err := json.Unmarshal(raw, &keys); err != nil {
		res.Message = fmt.Sprintf("failed to parse JSON: %v", err)
		return res
	}

	for _, key := range requiredKeys {
		if _, ok := keys[key]; !ok {
			res.Message = "invalid file structure: missing " + key
			return res
		}
	}

	var body resultFile
	if err := json.Unmarshal(raw, &body); err != nil {
		res.Message = fmt.Sprintf("failed to parse result body: %v", err)
		return res
	}

	exists, err := ing.runs.ExistsByFilePath(ctx, filePath)
	if err != nil {
		res.Message = fmt.Sprintf("failed to check for existing run: %v", err)
		return res
	}
	if exists {
		res.Status = StatusSkipped
		res.Message = "file already ingested"
		return res
	}

	filename := filepath.Base(filePath)
	meta := ParseFilename(filename)

	timestamp := time.Now()
	if meta.Timestamp != nil {
		timestamp = *meta.Timestamp
	}

	run, err := ing.runs.Create(ctx, &models.CreateEvalRunRequest{
		Name:         strings.TrimSuffix(filename, ResultFileSuffix),
		ModelName:    meta.ModelName,
		EvalType:     meta.EvalType,
		Timestamp:    timestamp,
		OverallScore: body.Score,
		Metrics:      body.Metrics,
		Metadata:     body.Meta,
		FilePath:     filePath,
	})
	if err != nil {
		res.Message = fmt.Sprintf("failed to create eval run: %v", err)
		return res
	}
	res.RunID = run.ID

	count := len(body.Htmls)
	if len(body.Convos) < count {
		count = len(body.Convos)
	}
	if len(body.Htmls) != len(body.Convos) {
		res.Warning = fmt.Sprintf("%s: htmls/convos length mismatch (%d vs %d), ingesting %d samples",
			filename, len(body.Htmls), len(body.Convos), count)
		slog.Warn("Result file arrays differ in length",
			"file", filename, "htmls", len(body.Htmls), "convos", len(body.Convos))
	}

	samples := buildSamples(run.ID, &body, count)

	for start := 0; start < len(samples); start += sampleBatchSize {
		end := start + sampleBatchSize
		if end > len(samples) {
			end = len(samples)
		}

		if err := ing.samples.CreateBatch(ctx, samples[start:end]); err != nil {
			// Earlier batches and the run row remain; a retry will skip on file_path.
			res.Message = fmt.Sprintf("failed to insert samples %d-%d: %v", start, end-1, err)
			return res
		}
	}

	res.Status = StatusIngested
	res.Message = fmt.Sprintf("ingested %d samples", len(samples))

	return res
}

// buildSamples assembles the sample rows for one run from the parallel arrays.
func buildSamples(runID uuid.UUID, body *resultFile, count int) []models.CreateEvalSampleRequest {
	var envelope exampleMetadataEnvelope
	// Metadata may be any JSON object; absence of example_level_metadata is normal.
	_ = json.Unmarshal(body.Meta, &envelope)

	sampleMetrics := filterSampleMetrics(body.Metrics)

	samples := make([]models.CreateEvalSampleRequest, 0, count)
	for i := 0; i < count; i++ {
		exampleMeta := json.RawMessage("{}")
		exampleMetaMap := map[string]any{}
		if i < len(envelope.ExampleLevelMetadata) {
			exampleMeta = envelope.ExampleLevelMetadata[i]
			_ = json.Unmarshal(exampleMeta, &exampleMetaMap)
		}

		html := body.Htmls[i]

		samples = append(samples, models.CreateEvalSampleRequest{
			EvalRunID:       runID,
			SampleIndex:     i,
			Question:        ExtractQuestion(exampleMetaMap, body.Convos[i]),
			Score:           body.Score,
			Metrics:         sampleMetrics,
			Conversation:    body.Convos[i],
			HTMLReport:      &html,
			ExampleMetadata: exampleMeta,
		})
	}

	return samples
}

// filterSampleMetrics drops aggregate-only keys (":std", ":min", ":max" suffixes)
// from the run metrics before attaching them to each sample.
func filterSampleMetrics(metrics map[string]float64) map[string]float64 {
	filtered := make(map[string]float64, len(metrics))
	for key, value := range metrics {
		if strings.HasSuffix(key, ":std") || strings.HasSuffix(key, ":min") || strings.HasSuffix(key, ":max") {
			continue
		}
		filtered[key] = value
	}
	return filtered
}

// IngestFiles ingests the given paths sequentially; one file failing does not
// abort the others.
func (ing *Ingestor) IngestFiles(ctx context.Context, filePaths []string) *models.IngestResponse {
	summary := &models.IngestResponse{Errors: []string{}}

	for _, filePath := range filePaths {
		if _, err := os.Stat(filePath); err != nil {
			summary.Errors = append(summary.Errors, fmt.Sprintf("%s: file not found", filePath))
			continue
		}

		result := ing.IngestFile(ctx, filePath)

		switch result.Status {
		case StatusIngested:
			summary.Ingested++
		case StatusSkipped:
			summary.Skipped++
		case StatusFailed:
			summary.Errors = append(summary.Errors, fmt.Sprintf("%s: %s", filePath, result.Message))
		}

		if result.Warning != "" {
			summary.Warnings = append(summary.Warnings, result.Warning)
		}
	}

	return summary
}

// ScanAndIngest ingests every result file in the configured results directory.
func (ing *Ingestor) ScanAndIngest(ctx context.Context) *models.IngestResponse {
	entries, err := os.ReadDir(ing.resultsDir)
	if err != nil {
		return &models.IngestResponse{
			Errors: []string{fmt.Sprintf("directory not found: %s", ing.resultsDir)},
		}
	}

	var filePaths []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ResultFileSuffix) {
			filePaths = append(filePaths, filepath.Join(ing.resultsDir, entry.Name()))
		}
	}

	return ing.IngestFiles(ctx, filePaths)
}

// ListResultFiles returns the ingestible files in the results directory, newest first.
func (ing *Ingestor) ListResultFiles() ([]models.ResultFileInfo, error) {
	entries, err := os.ReadDir(ing.resultsDir)
	if err != nil {
		return nil, fmt.Errorf("read results directory: %w", err)
	}

	files := []models.ResultFileInfo{}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ResultFileSuffix) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		files = append(files, models.ResultFileInfo{
			Filename: entry.Name(),
			Path:     filepath.Join(ing.resultsDir, entry.Name()),
			Size:     info.Size(),
			Modified: info.ModTime(),
		})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Modified.After(files[j].Modified)
	})

	return files, nil
}
