// Package main provides a CLI tool to ingest result files without the API.
//
// Usage:
//
//	go run cmd/ingest/main.go path/to/run_allresults.json [more files...]
//	go run cmd/ingest/main.go -scan-dir
//
// Environment variables:
//   - DATABASE_URL: PostgreSQL connection string (required)
//   - RESULTS_DIR: directory scanned with -scan-dir (default: ./results)
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"github.com/evaltrace/viewer/internal/config"
	"github.com/evaltrace/viewer/internal/ingest"
	"github.com/evaltrace/viewer/internal/models"
	"github.com/evaltrace/viewer/internal/repository"
	"github.com/evaltrace/viewer/pkg/database"
)

func main() {
	scanDir := flag.Bool("scan-dir", false, "ingest every result file in RESULTS_DIR")
	flag.Parse()

	ctx := context.Background()

	// Configure logging
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	if !*scanDir && flag.NArg() == 0 {
		slog.Error("No input: pass result file paths or -scan-dir")
		os.Exit(1)
	}

	// Connect to database
	db, err := database.NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	ingestor := ingest.NewIngestor(
		repository.NewEvalRunsRepository(db),
		repository.NewEvalSamplesRepository(db),
		cfg.ResultsDir,
	)

	var summary *models.IngestResponse
	if *scanDir {
		summary = ingestor.ScanAndIngest(ctx)
	} else {
		summary = ingestor.IngestFiles(ctx, flag.Args())
	}

	for _, warning := range summary.Warnings {
		slog.Warn("Ingestion warning", "warning", warning)
	}
	for _, ingestErr := range summary.Errors {
		slog.Error("Ingestion error", "error", ingestErr)
	}

	slog.Info("Ingestion finished",
		"ingested", summary.Ingested,
		"skipped", summary.Skipped,
		"errors", len(summary.Errors),
	)

	if len(summary.Errors) > 0 {
		os.Exit(1)
	}
}
