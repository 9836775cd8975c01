package repository

import (
	"context"
	"fmt"

	"scotustician-pipeline/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

// SectionChunkRepository handles database operations for section chunk embeddings
type SectionChunkRepository struct {
	db *pgxpool.Pool
}

// NewSectionChunkRepository creates a new section chunk repository
func NewSectionChunkRepository(db *pgxpool.Pool) *SectionChunkRepository {
	return &SectionChunkRepository{db: db}
}

// UpsertChunk writes one section chunk, keyed on (case_id, section_id).
func (r *SectionChunkRepository) UpsertChunk(ctx context.Context, chunk *models.SectionChunk) error {
	if len(chunk.Embedding) != chunk.EmbeddingDimension {
		return fmt.Errorf("embedding must be %d dimensions, got %d", chunk.EmbeddingDimension, len(chunk.Embedding))
	}

	_, err := r.db.Exec(ctx, `
		INSERT INTO scotustician.document_chunk_embeddings (
			case_id, oa_id, section_id, chunk_text,
			word_count, token_count,
			start_utterance_index, end_utterance_index,
			embedding, embedding_model, embedding_dimension,
			source_key, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9::vector, $10, $11, $12, NOW())
		ON CONFLICT (case_id, section_id) DO UPDATE SET
			oa_id = EXCLUDED.oa_id,
			chunk_text = EXCLUDED.chunk_text,
			word_count = EXCLUDED.word_count,
			token_count = EXCLUDED.token_count,
			start_utterance_index = EXCLUDED.start_utterance_index,
			end_utterance_index = EXCLUDED.end_utterance_index,
			embedding = EXCLUDED.embedding,
			embedding_model = EXCLUDED.embedding_model,
			embedding_dimension = EXCLUDED.embedding_dimension,
			source_key = EXCLUDED.source_key,
			updated_at = NOW()`,
		chunk.CaseID,
		chunk.OAID,
		chunk.SectionID,
		chunk.ChunkText,
		chunk.WordCount,
		chunk.TokenCount,
		chunk.StartUtteranceIndex,
		chunk.EndUtteranceIndex,
		formatVector(chunk.Embedding),
		chunk.EmbeddingModel,
		chunk.EmbeddingDimension,
		chunk.SourceKey,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert section chunk: %w", err)
	}
	return nil
}

// ProcessedSourceKeys returns the set of raw-store keys that already
// produced chunks.
func (r *SectionChunkRepository) ProcessedSourceKeys(ctx context.Context) (map[string]struct{}, error) {
	rows, err := r.db.Query(ctx, `
		SELECT DISTINCT source_key
		FROM scotustician.document_chunk_embeddings
		WHERE source_key IS NOT NULL AND source_key != ''`)
	if err != nil {
		return nil, fmt.Errorf("failed to query processed keys: %w", err)
	}
	defer rows.Close()

	keys := make(map[string]struct{})
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("failed to scan processed key: %w", err)
		}
		keys[key] = struct{}{}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating processed keys: %w", err)
	}
	return keys, nil
}

// ChunksByCase returns a case's section chunks in section order, without
// their embedding vectors.
func (r *SectionChunkRepository) ChunksByCase(ctx context.Context, caseID string) ([]models.SectionChunk, error) {
	rows, err := r.db.Query(ctx, `
		SELECT case_id, oa_id, section_id, chunk_text,
		       word_count, token_count,
		       start_utterance_index, end_utterance_index,
		       embedding_model, embedding_dimension, source_key
		FROM scotustician.document_chunk_embeddings
		WHERE case_id = $1
		ORDER BY section_id`,
		caseID)
	if err != nil {
		return nil, fmt.Errorf("failed to query section chunks: %w", err)
	}
	defer rows.Close()

	var chunks []models.SectionChunk
	for rows.Next() {
		var chunk models.SectionChunk
		err := rows.Scan(
			&chunk.CaseID,
			&chunk.OAID,
			&chunk.SectionID,
			&chunk.ChunkText,
			&chunk.WordCount,
			&chunk.TokenCount,
			&chunk.StartUtteranceIndex,
			&chunk.EndUtteranceIndex,
			&chunk.EmbeddingModel,
			&chunk.EmbeddingDimension,
			&chunk.SourceKey,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan section chunk: %w", err)
		}
		chunks = append(chunks, chunk)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating section chunks: %w", err)
	}
	return chunks, nil
}

// SearchSimilar performs a vector similarity search over section chunks.
func (r *SectionChunkRepository) SearchSimilar(ctx context.Context, embedding []float64, limit int) ([]models.SectionChunk, error) {
	rows, err := r.db.Query(ctx, `
		SELECT case_id, oa_id, section_id, chunk_text,
		       word_count, token_count,
		       start_utterance_index, end_utterance_index,
		       embedding_model, embedding_dimension, source_key
		FROM scotustician.document_chunk_embeddings
		ORDER BY embedding <=> $1::vector
		LIMIT $2`,
		formatVector(embedding), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search section chunks: %w", err)
	}
	defer rows.Close()

	var chunks []models.SectionChunk
	for rows.Next() {
		var chunk models.SectionChunk
		err := rows.Scan(
			&chunk.CaseID,
			&chunk.OAID,
			&chunk.SectionID,
			&chunk.ChunkText,
			&chunk.WordCount,
			&chunk.TokenCount,
			&chunk.StartUtteranceIndex,
			&chunk.EndUtteranceIndex,
			&chunk.EmbeddingModel,
			&chunk.EmbeddingDimension,
			&chunk.SourceKey,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan section chunk: %w", err)
		}
		chunks = append(chunks, chunk)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating section chunks: %w", err)
	}
	return chunks, nil
}
