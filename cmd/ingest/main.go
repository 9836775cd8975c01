package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"scotustician-pipeline/client"
	"scotustician-pipeline/config"
	"scotustician-pipeline/ingest"
	"scotustician-pipeline/storage"
)

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.LoadIngest()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	store, err := storage.NewStorageFromEnv()
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	corpus := storage.NewCorpusStore(store)

	clientCfg := client.DefaultConfig()
	clientCfg.Timeout = cfg.RequestTimeout
	clientCfg.MaxAttempts = cfg.MaxRetries
	api := client.NewOyez(client.New(clientCfg))

	controller := ingest.NewController(context.Background())
	defer controller.Stop()
	ctx := controller.Context()

	reporter := ingest.NewReporter()
	started := time.Now()
	runTimestamp := started.Format("20060102_150405")

	log.Printf("Starting ingestion run %s | terms %d-%d | %d workers | dry-run: %v",
		runTimestamp, cfg.StartTerm, cfg.EndTerm, cfg.MaxWorkers, cfg.DryRun)

	// Failing to read the ingested set is fatal: without it every document
	// would be re-fetched.
	existing, err := corpus.ExistingOAIDs(ctx)
	if err != nil {
		log.Fatalf("Failed to list existing oral arguments: %v", err)
	}

	enumerator := ingest.NewEnumerator(api, corpus, reporter)
	units := enumerator.Discover(ctx, cfg.StartTerm, cfg.EndTerm, existing)
	log.Printf("Discovered %d new oral argument(s)", len(units))

	dispatcher, err := ingest.NewDispatcher(api, corpus, reporter, cfg.MaxWorkers,
		ingest.WithDryRun(cfg.DryRun))
	if err != nil {
		log.Fatalf("Failed to create dispatcher: %v", err)
	}
	defer dispatcher.Release()

	dispatcher.Run(ctx, units, runTimestamp)

	summary := reporter.Summary(runTimestamp, cfg.StartTerm, cfg.EndTerm, started, controller.Interrupted())
	// The summary is written even for interrupted runs; use a fresh context
	// since the run context is cancelled by then.
	if err := corpus.PutSummary(context.Background(), runTimestamp, summary); err != nil {
		log.Printf("Failed to upload run summary: %v", err)
	}

	log.Printf("Run %s finished | uploaded %d | failures %d | %.1fs",
		runTimestamp, summary.OAsUploaded, summary.Failures, summary.DurationSeconds)

	os.Exit(controller.ExitCode(reporter.Failures()))
}
