package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"scotustician-pipeline/models"
	"scotustician-pipeline/transform"
)

// CorpusReader is the slice of the corpus store the transform pass reads.
type CorpusReader interface {
	ListRawKeys(ctx context.Context) ([]string, error)
	GetRawDocument(ctx context.Context, key string) ([]byte, error)
	LogJunk(ctx context.Context, term int, item interface{}, tag string)
}

// UtteranceStore persists normalized utterances and their optional
// per-utterance embeddings.
type UtteranceStore interface {
	UpsertUtterances(ctx context.Context, utterances []models.Utterance) error
	// EmbeddedTexts returns utterance_index → stored text for utterances of
	// the given case that already carry an embedding under the given model.
	EmbeddedTexts(ctx context.Context, caseID, model string) (map[int]string, error)
	UpdateEmbedding(ctx context.Context, caseID string, utteranceIndex int, vector []float64, model string) error
}

// ChunkStore persists section chunks with their embeddings.
type ChunkStore interface {
	UpsertChunk(ctx context.Context, chunk *models.SectionChunk) error
	// ProcessedSourceKeys returns raw-store keys that already produced
	// chunks, for incremental skip.
	ProcessedSourceKeys(ctx context.Context) (map[string]struct{}, error)
}

// DocumentEmbeddingStore persists the legacy whole-document vector.
type DocumentEmbeddingStore interface {
	UpsertDocumentEmbedding(ctx context.Context, oaID, caseID string, vector []float64, model string) error
}

// TransformResult aggregates counters for one transform run.
type TransformResult struct {
	DocumentsFound int
	Skipped        int
	Processed      int
	Failed         int
	ChunksWritten  int
}

// TransformService runs the second pass: list the raw store, normalize each
// document, chunk and embed it, and upsert the derived records. Reruns on
// unchanged input converge to the same final state.
type TransformService struct {
	corpus         CorpusReader
	utterances     UtteranceStore
	chunks         ChunkStore
	documents      DocumentEmbeddingStore
	embedder       Embedder
	tokenizer      transform.Tokenizer
	incremental    bool
	embedUtterance bool
	batchSize      int
}

// TransformOption configures a TransformService.
type TransformOption func(*TransformService)

// WithIncremental toggles skipping of already-processed documents and of
// unchanged per-utterance embeddings.
func WithIncremental(incremental bool) TransformOption {
	return func(s *TransformService) { s.incremental = incremental }
}

// WithUtteranceEmbeddings enables per-utterance embedding in addition to
// section chunks.
func WithUtteranceEmbeddings(enabled bool) TransformOption {
	return func(s *TransformService) { s.embedUtterance = enabled }
}

// WithDocumentEmbeddings enables the legacy whole-document vector.
func WithDocumentEmbeddings(store DocumentEmbeddingStore) TransformOption {
	return func(s *TransformService) { s.documents = store }
}

// WithBatchSize sets the per-call batch size for utterance embedding.
func WithBatchSize(n int) TransformOption {
	return func(s *TransformService) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

// NewTransformService creates a transform service.
func NewTransformService(
	corpus CorpusReader,
	utterances UtteranceStore,
	chunks ChunkStore,
	embedder Embedder,
	tokenizer transform.Tokenizer,
	opts ...TransformOption,
) *TransformService {
	s := &TransformService{
		corpus:      corpus,
		utterances:  utterances,
		chunks:      chunks,
		embedder:    embedder,
		tokenizer:   tokenizer,
		incremental: true,
		batchSize:   24,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ProcessAll transforms every unprocessed raw document. Item-level failures
// are counted and never abort the run; cancellation is observed between
// documents.
func (s *TransformService) ProcessAll(ctx context.Context) (*TransformResult, error) {
	keys, err := s.corpus.ListRawKeys(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list raw documents: %w", err)
	}

	result := &TransformResult{DocumentsFound: len(keys)}

	var processed map[string]struct{}
	if s.incremental {
		processed, err = s.chunks.ProcessedSourceKeys(ctx)
		if err != nil {
			log.Printf("Could not fetch processed keys, processing all: %v", err)
			processed = nil
		} else {
			log.Printf("Found %d already processed document(s)", len(processed))
		}
	}

	for _, key := range keys {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}

		if _, done := processed[key]; done {
			result.Skipped++
			continue
		}

		chunksWritten, err := s.ProcessDocument(ctx, key)
		if err != nil {
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
			log.Printf("Failed: %s | %v", key, err)
			result.Failed++
			continue
		}

		result.Processed++
		result.ChunksWritten += chunksWritten
		log.Printf("Processed: %s (%d section chunks)", key, chunksWritten)
	}

	return result, nil
}

// ProcessDocument normalizes, chunks, embeds and upserts one raw document.
// It returns the number of chunks written. All embeddings are computed
// before any chunk write so a dimension failure leaves the store untouched.
func (s *TransformService) ProcessDocument(ctx context.Context, key string) (int, error) {
	body, err := s.corpus.GetRawDocument(ctx, key)
	if err != nil {
		return 0, fmt.Errorf("failed to read raw document: %w", err)
	}

	var doc models.RawDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		s.corpus.LogJunk(ctx, docTerm(doc), body, "invalid_json")
		return 0, fmt.Errorf("failed to decode raw document: %w", err)
	}

	nd, err := transform.Normalize(doc, s.tokenizer)
	if err != nil {
		s.corpus.LogJunk(ctx, docTerm(doc), body, "missing_transcript_sections")
		return 0, err
	}

	if len(nd.Utterances) == 0 {
		return 0, nil
	}

	chunks := transform.BuildSectionChunks(nd, s.tokenizer)

	// Embed every chunk before writing anything.
	for i := range chunks {
		vector, err := s.embedder.EmbedText(ctx, chunks[i].ChunkText)
		if err != nil {
			return 0, fmt.Errorf("failed to embed section %d: %w", chunks[i].SectionID, err)
		}
		if err := CheckDimension(vector, s.embedder.Dimension()); err != nil {
			return 0, err
		}
		chunks[i].Embedding = vector
		chunks[i].EmbeddingModel = s.embedder.ModelName()
		chunks[i].EmbeddingDimension = s.embedder.Dimension()
		chunks[i].SourceKey = key
	}

	if err := s.utterances.UpsertUtterances(ctx, nd.Utterances); err != nil {
		return 0, fmt.Errorf("failed to upsert utterances: %w", err)
	}

	for i := range chunks {
		if err := s.chunks.UpsertChunk(ctx, &chunks[i]); err != nil {
			return 0, fmt.Errorf("failed to upsert chunk %d: %w", chunks[i].SectionID, err)
		}
	}

	if s.embedUtterance {
		if err := s.embedUtterances(ctx, nd); err != nil {
			return 0, err
		}
	}

	if s.documents != nil {
		if err := s.embedDocument(ctx, nd, chunks); err != nil {
			return 0, err
		}
	}

	return len(chunks), nil
}

// embedUtterances computes per-utterance vectors, skipping any utterance
// whose text is byte-identical to the one already embedded for this case
// and model. Changed text is flagged and re-embedded.
func (s *TransformService) embedUtterances(ctx context.Context, nd *transform.NormalizedDocument) error {
	existing := map[int]string{}
	if s.incremental {
		var err error
		existing, err = s.utterances.EmbeddedTexts(ctx, nd.CaseID, s.embedder.ModelName())
		if err != nil {
			return fmt.Errorf("failed to look up embedded utterances: %w", err)
		}
	}

	var pending []models.Utterance
	for _, utt := range nd.Utterances {
		prev, ok := existing[utt.UtteranceIndex]
		if ok && prev == utt.Text {
			continue
		}
		if ok {
			log.Printf("Utterance %s/%d text changed, re-embedding", nd.CaseID, utt.UtteranceIndex)
		}
		pending = append(pending, utt)
	}

	for start := 0; start < len(pending); start += s.batchSize {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		end := start + s.batchSize
		if end > len(pending) {
			end = len(pending)
		}
		batch := pending[start:end]

		texts := make([]string, len(batch))
		for i, utt := range batch {
			texts[i] = utt.Text
		}

		vectors, err := s.embedder.EmbedTexts(ctx, texts)
		if err != nil {
			return fmt.Errorf("failed to embed utterances: %w", err)
		}

		for i, utt := range batch {
			if err := CheckDimension(vectors[i], s.embedder.Dimension()); err != nil {
				return err
			}
			if err := s.utterances.UpdateEmbedding(ctx, utt.CaseID, utt.UtteranceIndex, vectors[i], s.embedder.ModelName()); err != nil {
				return fmt.Errorf("failed to store utterance embedding: %w", err)
			}
		}
	}

	return nil
}

// embedDocument computes the legacy whole-document vector from the chunk
// texts, truncated to the chunk token budget.
func (s *TransformService) embedDocument(ctx context.Context, nd *transform.NormalizedDocument, chunks []models.SectionChunk) error {
	text := ""
	for i, chunk := range chunks {
		if i > 0 {
			text += "\n"
		}
		text += chunk.ChunkText
	}
	text = s.tokenizer.Truncate(text, transform.ChunkTokenBudget)

	vector, err := s.embedder.EmbedText(ctx, text)
	if err != nil {
		return fmt.Errorf("failed to embed document: %w", err)
	}
	if err := CheckDimension(vector, s.embedder.Dimension()); err != nil {
		return err
	}

	if err := s.documents.UpsertDocumentEmbedding(ctx, nd.OAID, nd.CaseID, vector, s.embedder.ModelName()); err != nil {
		return fmt.Errorf("failed to upsert document embedding: %w", err)
	}
	return nil
}

// docTerm extracts the term for junk tagging; zero when absent.
func docTerm(doc models.RawDocument) int {
	if doc == nil {
		return 0
	}
	if f, ok := doc["term"].(float64); ok {
		return int(f)
	}
	return 0
}
