package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evaltrace/viewer/internal/models"
)

// fakeRunStore records created runs in memory.
type fakeRunStore struct {
	existing map[string]bool
	created  []*models.CreateEvalRunRequest

	createErr error
}

func (f *fakeRunStore) ExistsByFilePath(_ context.Context, filePath string) (bool, error) {
	return f.existing[filePath], nil
}

func (f *fakeRunStore) Create(_ context.Context, req *models.CreateEvalRunRequest) (*models.EvalRun, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}

	f.created = append(f.created, req)

	return &models.EvalRun{ID: uuid.New(), Name: req.Name}, nil
}

// fakeSampleStore records batch sizes and can fail on a chosen batch.
type fakeSampleStore struct {
	batches    [][]models.CreateEvalSampleRequest
	failOnCall int
}

func (f *fakeSampleStore) CreateBatch(_ context.Context, samples []models.CreateEvalSampleRequest) error {
	if f.failOnCall > 0 && len(f.batches)+1 == f.failOnCall {
		return errors.New("insert failed")
	}

	f.batches = append(f.batches, samples)

	return nil
}

// writeResultFile writes a minimal valid result file with n html/convo pairs.
func writeResultFile(t *testing.T, dir, name string, htmls, convos int) string {
	t.Helper()

	hs := make([]string, htmls)
	for i := range hs {
		hs[i] = fmt.Sprintf("<html>%d</html>", i)
	}

	cs := make([]json.RawMessage, convos)
	for i := range cs {
		cs[i] = json.RawMessage(fmt.Sprintf(`[{"role":"user","content":"Question: q%d"}]`, i))
	}

	body := map[string]any{
		"score":    0.75,
		"metrics":  map[string]float64{"accuracy": 0.75, "accuracy:std": 0.1},
		"htmls":    hs,
		"convos":   cs,
		"metadata": map[string]any{},
	}

	raw, err := json.Marshal(body)
	require.NoError(t, err)

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, raw, 0o600))

	return path
}

func TestIngestor_IngestFile(t *testing.T) {
	ctx := context.Background()

	t.Run("ingests a valid file", func(t *testing.T) {
		dir := t.TempDir()
		path := writeResultFile(t, dir, "math_gpt-4_temp1.0_20250601_120000_allresults.json", 3, 3)

		runs := &fakeRunStore{existing: map[string]bool{}}
		samples := &fakeSampleStore{}
		ing := NewIngestor(runs, samples, dir)

		res := ing.IngestFile(ctx, path)

		assert.Equal(t, StatusIngested, res.Status)
		assert.Empty(t, res.Warning)

		require.Len(t, runs.created, 1)
		run := runs.created[0]
		assert.Equal(t, "math_gpt-4_temp1.0_20250601_120000", run.Name)
		require.NotNil(t, run.ModelName)
		assert.Equal(t, "gpt-4", *run.ModelName)
		require.NotNil(t, run.OverallScore)
		assert.InDelta(t, 0.75, *run.OverallScore, 1e-9)

		require.Len(t, samples.batches, 1)
		batch := samples.batches[0]
		require.Len(t, batch, 3)
		assert.Equal(t, "q1", batch[1].Question)
		assert.Equal(t, 1, batch[1].SampleIndex)

		// aggregate-only metric keys are dropped from sample metrics
		assert.Contains(t, batch[0].Metrics, "accuracy")
		assert.NotContains(t, batch[0].Metrics, "accuracy:std")
	})

	t.Run("skips already ingested file", func(t *testing.T) {
		dir := t.TempDir()
		path := writeResultFile(t, dir, "eval_temp1.0_20250601_120000_allresults.json", 1, 1)

		runs := &fakeRunStore{existing: map[string]bool{path: true}}
		samples := &fakeSampleStore{}
		ing := NewIngestor(runs, samples, dir)

		res := ing.IngestFile(ctx, path)

		assert.Equal(t, StatusSkipped, res.Status)
		assert.Empty(t, runs.created)
		assert.Empty(t, samples.batches)
	})

	t.Run("fails on missing required key", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "broken_allresults.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"score":1,"metrics":{},"htmls":[],"metadata":{}}`), 0o600))

		ing := NewIngestor(&fakeRunStore{existing: map[string]bool{}}, &fakeSampleStore{}, dir)

		res := ing.IngestFile(ctx, path)

		assert.Equal(t, StatusFailed, res.Status)
		assert.Contains(t, res.Message, "missing convos")
	})

	t.Run("truncates to shorter array with warning", func(t *testing.T) {
		dir := t.TempDir()
		path := writeResultFile(t, dir, "mismatch_temp1.0_20250601_120000_allresults.json", 5, 3)

		runs := &fakeRunStore{existing: map[string]bool{}}
		samples := &fakeSampleStore{}
		ing := NewIngestor(runs, samples, dir)

		res := ing.IngestFile(ctx, path)

		assert.Equal(t, StatusIngested, res.Status)
		assert.Contains(t, res.Warning, "length mismatch")

		require.Len(t, samples.batches, 1)
		assert.Len(t, samples.batches[0], 3)
	})

	t.Run("chunks samples into batches of 100", func(t *testing.T) {
		dir := t.TempDir()
		path := writeResultFile(t, dir, "big_temp1.0_20250601_120000_allresults.json", 250, 250)

		runs := &fakeRunStore{existing: map[string]bool{}}
		samples := &fakeSampleStore{}
		ing := NewIngestor(runs, samples, dir)

		res := ing.IngestFile(ctx, path)

		assert.Equal(t, StatusIngested, res.Status)
		require.Len(t, samples.batches, 3)
		assert.Len(t, samples.batches[0], 100)
		assert.Len(t, samples.batches[1], 100)
		assert.Len(t, samples.batches[2], 50)
	})

	t.Run("aborts on batch failure", func(t *testing.T) {
		dir := t.TempDir()
		path := writeResultFile(t, dir, "fail_temp1.0_20250601_120000_allresults.json", 250, 250)

		runs := &fakeRunStore{existing: map[string]bool{}}
		samples := &fakeSampleStore{failOnCall: 2}
		ing := NewIngestor(runs, samples, dir)

		res := ing.IngestFile(ctx, path)

		assert.Equal(t, StatusFailed, res.Status)
		assert.Contains(t, res.Message, "failed to insert samples")
		assert.Len(t, samples.batches, 1)
	})
}

func TestIngestor_IngestFiles(t *testing.T) {
	ctx := context.Background()

	t.Run("aggregates outcomes across files", func(t *testing.T) {
		dir := t.TempDir()
		ok := writeResultFile(t, dir, "a_temp1.0_20250601_120000_allresults.json", 1, 1)
		dup := writeResultFile(t, dir, "b_temp1.0_20250601_130000_allresults.json", 1, 1)

		runs := &fakeRunStore{existing: map[string]bool{dup: true}}
		ing := NewIngestor(runs, &fakeSampleStore{}, dir)

		summary := ing.IngestFiles(ctx, []string{ok, dup, filepath.Join(dir, "missing.json")})

		assert.Equal(t, 1, summary.Ingested)
		assert.Equal(t, 1, summary.Skipped)
		require.Len(t, summary.Errors, 1)
		assert.Contains(t, summary.Errors[0], "file not found")
	})
}

func TestIngestor_ScanAndIngest(t *testing.T) {
	ctx := context.Background()

	t.Run("only picks up result files", func(t *testing.T) {
		dir := t.TempDir()
		writeResultFile(t, dir, "a_temp1.0_20250601_120000_allresults.json", 1, 1)
		require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o600))

		runs := &fakeRunStore{existing: map[string]bool{}}
		ing := NewIngestor(runs, &fakeSampleStore{}, dir)

		summary := ing.ScanAndIngest(ctx)

		assert.Equal(t, 1, summary.Ingested)
		assert.Empty(t, summary.Errors)
	})

	t.Run("missing directory reports one error", func(t *testing.T) {
		ing := NewIngestor(&fakeRunStore{}, &fakeSampleStore{}, "/does/not/exist")

		summary := ing.ScanAndIngest(ctx)

		assert.Equal(t, 0, summary.Ingested)
		require.Len(t, summary.Errors, 1)
		assert.Contains(t, summary.Errors[0], "directory not found")
	})
}

func TestBuildSamples_ExampleMetadata(t *testing.T) {
	body := &resultFile{
		Metrics: map[string]float64{"accuracy": 1},
		Htmls:   []string{"<a>", "<b>"},
		Convos: []json.RawMessage{
			json.RawMessage(`[{"role":"user","content":"Question: ignored"}]`),
			json.RawMessage(`[]`),
		},
		Meta: json.RawMessage(`{"example_level_metadata":[{"question":"from metadata"}]}`),
	}

	samples := buildSamples(uuid.New(), body, 2)

	require.Len(t, samples, 2)
	assert.Equal(t, "from metadata", samples[0].Question)
	assert.JSONEq(t, `{"question":"from metadata"}`, string(samples[0].ExampleMetadata))

	// second sample has no metadata entry; falls back to conversation (empty here)
	assert.Equal(t, "", samples[1].Question)
	assert.JSONEq(t, `{}`, string(samples[1].ExampleMetadata))
}
