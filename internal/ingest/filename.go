// Package ingest implements the evaluation-result ingestion pipeline: filename
// metadata parsing, question extraction, and per-file loading into the store.
package ingest

import (
	"strings"
	"time"
)

// ResultFileSuffix is the naming convention for ingestible result files.
const ResultFileSuffix = "_allresults.json"

// timestampLayout matches the two filename segments following the temp marker,
// e.g. "20251112" + "025328".
const timestampLayout = "20060102150405"

// FileMetadata is the run-level metadata recovered from a result filename.
// Fields are nil when the corresponding segment is missing or malformed.
type FileMetadata struct {
	EvalType  *string
	ModelName *string
	Timestamp *time.Time
}

// ParseFilename extracts run metadata from a filename of the form
// {eval_type}_{model}_{config}_temp{t}_{date}_{time}_allresults.json, e.g.
// polymarket_openai__gpt-oss-20b-high_temp1.0_20251112_025328_allresults.json.
// Parsing is best-effort: a non-conforming name yields nil fields, never an error.
func ParseFilename(filename string) FileMetadata {
	var meta FileMetadata

	trimmed := strings.TrimSuffix(filename, ResultFileSuffix)
	parts := strings.Split(trimmed, "_")

	if len(parts) > 0 && parts[0] != "" {
		evalType := parts[0]
		meta.EvalType = &evalType
	}

	for i, part := range parts {
		if !strings.HasPrefix(part, "temp") {
			continue
		}

		if i > 0 {
			model := strings.Join(parts[1:i], "_")
			if model != "" {
				meta.ModelName = &model
			}
		}

		if i+2 < len(parts) {
			if ts, err := time.Parse(timestampLayout, parts[i+1]+parts[i+2]); err == nil {
				meta.Timestamp = &ts
			}
		}

		break
	}

	return meta
}
