package models

// SectionChunk is one transcript section's concatenated utterances,
// embedded as a single vector. SectionID is the section's ordinal position
// in the transcript; together with CaseID it forms the upsert key.
type SectionChunk struct {
	CaseID              string    `json:"case_id"`
	OAID                string    `json:"oa_id"`
	SectionID           int       `json:"section_id"`
	ChunkText           string    `json:"chunk_text"`
	WordCount           int       `json:"word_count"`
	TokenCount          int       `json:"token_count"`
	StartUtteranceIndex int       `json:"start_utterance_index"`
	EndUtteranceIndex   int       `json:"end_utterance_index"`
	Embedding           []float64 `json:"embedding,omitempty"`
	EmbeddingModel      string    `json:"embedding_model"`
	EmbeddingDimension  int       `json:"embedding_dimension"`

	// SourceKey is the object-store key of the raw document this chunk was
	// derived from, used for incremental processed-file checks.
	SourceKey string `json:"source_key"`
}
