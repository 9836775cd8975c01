package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// IngestConfig holds settings for the ingestion pass.
type IngestConfig struct {
	StartTerm      int
	EndTerm        int
	MaxWorkers     int
	DryRun         bool
	RequestTimeout time.Duration
	MaxRetries     int
}

// TransformConfig holds settings for the transformation pass.
type TransformConfig struct {
	DatabaseURL         string
	GeminiAPIKey        string
	ModelName           string
	ModelDimension      int
	BatchSize           int
	Incremental         bool
	UtteranceEmbeddings bool
	DocumentEmbeddings  bool
}

// APIConfig holds settings for the read-through API server.
type APIConfig struct {
	Port string
}

// LoadIngest reads ingestion settings from the environment.
func LoadIngest() (*IngestConfig, error) {
	cfg := &IngestConfig{
		StartTerm:      envInt("START_TERM", 1980),
		EndTerm:        envInt("END_TERM", 2025),
		MaxWorkers:     envInt("MAX_WORKERS", 8),
		DryRun:         envBool("DRY_RUN", false),
		RequestTimeout: time.Duration(envInt("REQUEST_TIMEOUT", 30)) * time.Second,
		MaxRetries:     envInt("MAX_RETRIES", 3),
	}

	if cfg.StartTerm > cfg.EndTerm {
		return nil, fmt.Errorf("START_TERM %d is after END_TERM %d", cfg.StartTerm, cfg.EndTerm)
	}
	if cfg.MaxWorkers < 1 {
		return nil, fmt.Errorf("MAX_WORKERS must be positive, got %d", cfg.MaxWorkers)
	}
	return cfg, nil
}

// LoadTransform reads transformation settings from the environment.
// DATABASE_URL and GEMINI_API_KEY are required.
func LoadTransform() (*TransformConfig, error) {
	cfg := &TransformConfig{
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		GeminiAPIKey:        os.Getenv("GEMINI_API_KEY"),
		ModelName:           envString("MODEL_NAME", "gemini-embedding-001"),
		ModelDimension:      envInt("MODEL_DIMENSION", 768),
		BatchSize:           envInt("BATCH_SIZE", 24),
		Incremental:         envBool("INCREMENTAL", true),
		UtteranceEmbeddings: envBool("UTTERANCE_EMBEDDINGS", false),
		DocumentEmbeddings:  envBool("DOCUMENT_EMBEDDINGS", false),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY environment variable is required")
	}
	if cfg.ModelDimension < 1 {
		return nil, fmt.Errorf("MODEL_DIMENSION must be positive, got %d", cfg.ModelDimension)
	}
	return cfg, nil
}

// LoadAPI reads API server settings from the environment.
func LoadAPI() *APIConfig {
	return &APIConfig{
		Port: envString("PORT", "8080"),
	}
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
