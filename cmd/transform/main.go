package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"scotustician-pipeline/config"
	"scotustician-pipeline/ingest"
	"scotustician-pipeline/models"
	"scotustician-pipeline/repository"
	"scotustician-pipeline/service"
	"scotustician-pipeline/storage"
	"scotustician-pipeline/transform"
)

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.LoadTransform()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	store, err := storage.NewStorageFromEnv()
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	corpus := storage.NewCorpusStore(store)

	pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	if err := pool.Ping(context.Background()); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}

	tokenizer, err := transform.NewTokenizer()
	if err != nil {
		log.Fatalf("Failed to initialize tokenizer: %v", err)
	}

	controller := ingest.NewController(context.Background())
	defer controller.Stop()
	ctx := controller.Context()

	embedder, err := service.NewGeminiEmbedder(ctx, cfg.GeminiAPIKey, cfg.ModelName, cfg.ModelDimension)
	if err != nil {
		log.Fatalf("Failed to initialize embedder: %v", err)
	}
	defer embedder.Close()

	opts := []service.TransformOption{
		service.WithIncremental(cfg.Incremental),
		service.WithUtteranceEmbeddings(cfg.UtteranceEmbeddings),
		service.WithBatchSize(cfg.BatchSize),
	}
	if cfg.DocumentEmbeddings {
		opts = append(opts, service.WithDocumentEmbeddings(repository.NewDocumentEmbeddingRepository(pool)))
	}

	svc := service.NewTransformService(
		corpus,
		repository.NewUtteranceRepository(pool),
		repository.NewSectionChunkRepository(pool),
		embedder,
		tokenizer,
		opts...,
	)

	started := time.Now()
	runTimestamp := started.Format("20060102_150405")
	log.Printf("Starting transform run %s | model %s (%d dims) | incremental: %v",
		runTimestamp, cfg.ModelName, cfg.ModelDimension, cfg.Incremental)

	result, err := svc.ProcessAll(ctx)
	if err != nil && result == nil {
		log.Fatalf("Transform run failed: %v", err)
	}
	if err != nil {
		log.Printf("Transform run stopped early: %v", err)
	}

	summary := models.TransformSummary{
		RunTimestamp:    runTimestamp,
		DocumentsFound:  result.DocumentsFound,
		Skipped:         result.Skipped,
		Processed:       result.Processed,
		Failed:          result.Failed,
		ChunksWritten:   result.ChunksWritten,
		DurationSeconds: time.Since(started).Seconds(),
		Interrupted:     controller.Interrupted(),
	}
	if err := corpus.PutSummary(context.Background(), runTimestamp, summary); err != nil {
		log.Printf("Failed to upload run summary: %v", err)
	}

	log.Printf("Run %s finished | processed %d | skipped %d | failed %d | %.1fs",
		runTimestamp, summary.Processed, summary.Skipped, summary.Failed, summary.DurationSeconds)

	os.Exit(controller.ExitCode(int64(result.Failed)))
}
