package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DocumentEmbeddingRepository handles database operations for whole-document
// embeddings
type DocumentEmbeddingRepository struct {
	db *pgxpool.Pool
}

// NewDocumentEmbeddingRepository creates a new document embedding repository
func NewDocumentEmbeddingRepository(db *pgxpool.Pool) *DocumentEmbeddingRepository {
	return &DocumentEmbeddingRepository{db: db}
}

// UpsertDocumentEmbedding writes one whole-document vector, keyed on oa_id.
func (r *DocumentEmbeddingRepository) UpsertDocumentEmbedding(ctx context.Context, oaID, caseID string, vector []float64, model string) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO scotustician.document_embeddings (
			oa_id, case_id, embedding, embedding_model, updated_at
		) VALUES ($1, $2, $3::vector, $4, NOW())
		ON CONFLICT (oa_id) DO UPDATE SET
			case_id = EXCLUDED.case_id,
			embedding = EXCLUDED.embedding,
			embedding_model = EXCLUDED.embedding_model,
			updated_at = NOW()`,
		oaID, caseID, formatVector(vector), model)
	if err != nil {
		return fmt.Errorf("failed to upsert document embedding: %w", err)
	}
	return nil
}
