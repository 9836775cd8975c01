package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	connString := os.Getenv("DATABASE_URL")
	if connString == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	dimension := 768
	if v := os.Getenv("MODEL_DIMENSION"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			log.Fatalf("Invalid MODEL_DIMENSION: %s", v)
		}
		dimension = n
	}

	pool, err := pgxpool.New(context.Background(), connString)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	ctx := context.Background()

	// Enable pgvector extension
	_, err = pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector")
	if err != nil {
		log.Printf("Warning: Failed to create pgvector extension: %v", err)
	} else {
		log.Println("✓ pgvector extension enabled")
	}

	_, err = pool.Exec(ctx, "CREATE SCHEMA IF NOT EXISTS scotustician")
	if err != nil {
		log.Fatalf("Failed to create schema: %v", err)
	}
	log.Println("✓ Created scotustician schema")

	tables := []struct {
		name string
		sql  string
	}{
		{
			name: "utterance_text",
			sql: fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS scotustician.utterance_text (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),

    case_id VARCHAR(64) NOT NULL,
    oa_id VARCHAR(64) NOT NULL,
    utterance_index INTEGER NOT NULL,

    speaker_id VARCHAR(255),
    speaker_name VARCHAR(255) NOT NULL,

    text TEXT NOT NULL,
    word_count INTEGER NOT NULL,
    token_count INTEGER NOT NULL,
    char_start_offset INTEGER NOT NULL,
    char_end_offset INTEGER NOT NULL,
    start_time_ms BIGINT,
    end_time_ms BIGINT,

    embedding vector(%d),
    embedding_model VARCHAR(128),

    created_at TIMESTAMP DEFAULT NOW(),
    updated_at TIMESTAMP DEFAULT NOW(),

    CONSTRAINT utterance_order_unique UNIQUE (case_id, utterance_index)
);`, dimension),
		},
		{
			name: "document_chunk_embeddings",
			sql: fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS scotustician.document_chunk_embeddings (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),

    case_id VARCHAR(64) NOT NULL,
    oa_id VARCHAR(64) NOT NULL,
    section_id INTEGER NOT NULL,

    chunk_text TEXT NOT NULL,
    word_count INTEGER NOT NULL,
    token_count INTEGER NOT NULL,
    start_utterance_index INTEGER NOT NULL,
    end_utterance_index INTEGER NOT NULL,

    embedding vector(%d) NOT NULL,
    embedding_model VARCHAR(128) NOT NULL,
    embedding_dimension INTEGER NOT NULL,

    source_key TEXT NOT NULL,

    created_at TIMESTAMP DEFAULT NOW(),
    updated_at TIMESTAMP DEFAULT NOW(),

    CONSTRAINT chunk_section_unique UNIQUE (case_id, section_id)
);`, dimension),
		},
		{
			name: "document_embeddings",
			sql: fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS scotustician.document_embeddings (
    oa_id VARCHAR(64) PRIMARY KEY,
    case_id VARCHAR(64) NOT NULL,

    embedding vector(%d) NOT NULL,
    embedding_model VARCHAR(128) NOT NULL,

    created_at TIMESTAMP DEFAULT NOW(),
    updated_at TIMESTAMP DEFAULT NOW()
);`, dimension),
		},
	}

	for _, table := range tables {
		_, err = pool.Exec(ctx, table.sql)
		if err != nil {
			log.Fatalf("Failed to create %s table: %v", table.name, err)
		}
		log.Printf("✓ Created table: scotustician.%s", table.name)
	}

	indexes := []struct {
		name string
		sql  string
	}{
		{
			name: "Utterance case lookup",
			sql:  "CREATE INDEX IF NOT EXISTS idx_utterance_case ON scotustician.utterance_text(case_id);",
		},
		{
			name: "Utterance speaker filtering",
			sql:  "CREATE INDEX IF NOT EXISTS idx_utterance_speaker ON scotustician.utterance_text(speaker_id) WHERE speaker_id IS NOT NULL;",
		},
		{
			name: "Chunk case lookup",
			sql:  "CREATE INDEX IF NOT EXISTS idx_chunk_case ON scotustician.document_chunk_embeddings(case_id);",
		},
		{
			name: "Chunk source key lookup",
			sql:  "CREATE INDEX IF NOT EXISTS idx_chunk_source_key ON scotustician.document_chunk_embeddings(source_key);",
		},
		{
			name: "Chunk vector similarity search (HNSW)",
			sql: `CREATE INDEX IF NOT EXISTS idx_chunk_embedding_hnsw ON scotustician.document_chunk_embeddings
USING hnsw (embedding vector_cosine_ops)
WITH (m = 16, ef_construction = 64);`,
		},
	}

	for _, idx := range indexes {
		_, err = pool.Exec(ctx, idx.sql)
		if err != nil {
			log.Printf("Warning: Failed to create index %s: %v", idx.name, err)
		} else {
			log.Printf("✓ Created index: %s", idx.name)
		}
	}

	fmt.Println("\n✅ Database schema created successfully!")
	fmt.Println("   Schema: scotustician")
	fmt.Println("   Tables: utterance_text, document_chunk_embeddings, document_embeddings")
}
