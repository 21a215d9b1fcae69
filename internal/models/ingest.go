package models

// IngestRequest triggers ingestion of explicit paths or a results-directory scan.
type IngestRequest struct {
	FilePaths     []string `json:"file_paths,omitempty"`
	ScanDirectory bool     `json:"scan_directory,omitempty"`
}

// IngestResponse summarizes a multi-file ingestion.
// Warnings carry non-fatal anomalies such as htmls/convos length mismatches.
type IngestResponse struct {
	Ingested int      `json:"ingested"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings,omitempty"`
}
