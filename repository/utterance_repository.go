package repository

import (
	"context"
	"fmt"

	"scotustician-pipeline/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

// UtteranceRepository handles database operations for transcript utterances
type UtteranceRepository struct {
	db *pgxpool.Pool
}

// NewUtteranceRepository creates a new utterance repository
func NewUtteranceRepository(db *pgxpool.Pool) *UtteranceRepository {
	return &UtteranceRepository{db: db}
}

// UpsertUtterances writes a document's utterances in one transaction,
// keyed on (case_id, utterance_index). Re-upserting an unchanged document
// is a no-op apart from updated_at.
func (r *UtteranceRepository) UpsertUtterances(ctx context.Context, utterances []models.Utterance) error {
	if len(utterances) == 0 {
		return nil
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO scotustician.utterance_text (
			case_id, oa_id, utterance_index, speaker_id, speaker_name,
			text, word_count, token_count,
			char_start_offset, char_end_offset,
			start_time_ms, end_time_ms, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW())
		ON CONFLICT (case_id, utterance_index) DO UPDATE SET
			oa_id = EXCLUDED.oa_id,
			speaker_id = EXCLUDED.speaker_id,
			speaker_name = EXCLUDED.speaker_name,
			text = EXCLUDED.text,
			word_count = EXCLUDED.word_count,
			token_count = EXCLUDED.token_count,
			char_start_offset = EXCLUDED.char_start_offset,
			char_end_offset = EXCLUDED.char_end_offset,
			start_time_ms = EXCLUDED.start_time_ms,
			end_time_ms = EXCLUDED.end_time_ms,
			updated_at = NOW()`

	for _, utt := range utterances {
		_, err := tx.Exec(ctx, query,
			utt.CaseID,
			utt.OAID,
			utt.UtteranceIndex,
			utt.SpeakerID,
			utt.SpeakerName,
			utt.Text,
			utt.WordCount,
			utt.TokenCount,
			utt.CharStart,
			utt.CharEnd,
			utt.StartMs,
			utt.EndMs,
		)
		if err != nil {
			return fmt.Errorf("failed to upsert utterance %d: %w", utt.UtteranceIndex, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit utterances: %w", err)
	}
	return nil
}

// EmbeddedTexts returns utterance_index → text for the case's utterances
// that already carry an embedding under the given model.
func (r *UtteranceRepository) EmbeddedTexts(ctx context.Context, caseID, model string) (map[int]string, error) {
	rows, err := r.db.Query(ctx, `
		SELECT utterance_index, text
		FROM scotustician.utterance_text
		WHERE case_id = $1
		  AND embedding IS NOT NULL
		  AND embedding_model = $2`,
		caseID, model)
	if err != nil {
		return nil, fmt.Errorf("failed to query embedded utterances: %w", err)
	}
	defer rows.Close()

	texts := make(map[int]string)
	for rows.Next() {
		var index int
		var text string
		if err := rows.Scan(&index, &text); err != nil {
			return nil, fmt.Errorf("failed to scan embedded utterance: %w", err)
		}
		texts[index] = text
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating embedded utterances: %w", err)
	}
	return texts, nil
}

// UpdateEmbedding stores the vector for one utterance.
func (r *UtteranceRepository) UpdateEmbedding(ctx context.Context, caseID string, utteranceIndex int, vector []float64, model string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE scotustician.utterance_text
		SET embedding = $1::vector,
		    embedding_model = $2,
		    updated_at = NOW()
		WHERE case_id = $3 AND utterance_index = $4`,
		formatVector(vector), model, caseID, utteranceIndex)
	if err != nil {
		return fmt.Errorf("failed to update utterance embedding: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("utterance %s/%d not found", caseID, utteranceIndex)
	}
	return nil
}

// UtterancesByCase returns a case's utterances in index order.
func (r *UtteranceRepository) UtterancesByCase(ctx context.Context, caseID string) ([]models.Utterance, error) {
	rows, err := r.db.Query(ctx, `
		SELECT case_id, oa_id, utterance_index, speaker_id, speaker_name,
		       text, word_count, token_count,
		       char_start_offset, char_end_offset,
		       start_time_ms, end_time_ms
		FROM scotustician.utterance_text
		WHERE case_id = $1
		ORDER BY utterance_index`,
		caseID)
	if err != nil {
		return nil, fmt.Errorf("failed to query utterances: %w", err)
	}
	defer rows.Close()

	var utterances []models.Utterance
	for rows.Next() {
		var utt models.Utterance
		err := rows.Scan(
			&utt.CaseID,
			&utt.OAID,
			&utt.UtteranceIndex,
			&utt.SpeakerID,
			&utt.SpeakerName,
			&utt.Text,
			&utt.WordCount,
			&utt.TokenCount,
			&utt.CharStart,
			&utt.CharEnd,
			&utt.StartMs,
			&utt.EndMs,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan utterance: %w", err)
		}
		utterances = append(utterances, utt)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating utterances: %w", err)
	}
	return utterances, nil
}
