package service

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scotustician-pipeline/models"
)

// mockEmbedder derives deterministic vectors from an FNV hash of the text.
type mockEmbedder struct {
	dimension int
	calls     int
	batchLens []int
}

func newMockEmbedder(dimension int) *mockEmbedder {
	return &mockEmbedder{dimension: dimension}
}

func (m *mockEmbedder) vector(text string) []float64 {
	h := fnv.New64a()
	h.Write([]byte(text))
	seed := h.Sum64()

	vec := make([]float64, m.dimension)
	for i := range vec {
		seed = seed*6364136223846793005 + 1442695040888963407
		vec[i] = float64(seed%2000)/1000.0 - 1.0
	}
	NormalizeVector(vec)
	return vec
}

func (m *mockEmbedder) EmbedText(ctx context.Context, text string) ([]float64, error) {
	m.calls++
	return m.vector(text), nil
}

func (m *mockEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float64, error) {
	m.calls++
	m.batchLens = append(m.batchLens, len(texts))
	vectors := make([][]float64, len(texts))
	for i, text := range texts {
		vectors[i] = m.vector(text)
	}
	return vectors, nil
}

func (m *mockEmbedder) ModelName() string { return "mock-embedding-001" }
func (m *mockEmbedder) Dimension() int    { return m.dimension }

// badEmbedder returns vectors of the wrong length.
type badEmbedder struct{ mockEmbedder }

func (b *badEmbedder) EmbedText(ctx context.Context, text string) ([]float64, error) {
	return make([]float64, b.dimension+1), nil
}

// fakeCorpus serves in-memory raw documents.
type fakeCorpus struct {
	docs     map[string][]byte
	junkTags []string
}

func (f *fakeCorpus) ListRawKeys(ctx context.Context) ([]string, error) {
	var keys []string
	for k := range f.docs {
		keys = append(keys, k)
	}
	return keys, nil
}

func (f *fakeCorpus) GetRawDocument(ctx context.Context, key string) ([]byte, error) {
	body, ok := f.docs[key]
	if !ok {
		return nil, fmt.Errorf("object not found: %s", key)
	}
	return body, nil
}

func (f *fakeCorpus) LogJunk(ctx context.Context, term int, item interface{}, tag string) {
	f.junkTags = append(f.junkTags, tag)
}

// fakeUtteranceStore records writes.
type fakeUtteranceStore struct {
	upserted   []models.Utterance
	embedded   map[string]map[int]string
	embedCalls int
}

func newFakeUtteranceStore() *fakeUtteranceStore {
	return &fakeUtteranceStore{embedded: make(map[string]map[int]string)}
}

func (f *fakeUtteranceStore) UpsertUtterances(ctx context.Context, utterances []models.Utterance) error {
	f.upserted = append(f.upserted, utterances...)
	return nil
}

func (f *fakeUtteranceStore) EmbeddedTexts(ctx context.Context, caseID, model string) (map[int]string, error) {
	texts := make(map[int]string)
	for idx, text := range f.embedded[caseID] {
		texts[idx] = text
	}
	return texts, nil
}

func (f *fakeUtteranceStore) UpdateEmbedding(ctx context.Context, caseID string, utteranceIndex int, vector []float64, model string) error {
	f.embedCalls++
	return nil
}

// fakeChunkStore records chunk writes.
type fakeChunkStore struct {
	chunks    []models.SectionChunk
	processed map[string]struct{}
}

func newFakeChunkStore() *fakeChunkStore {
	return &fakeChunkStore{processed: make(map[string]struct{})}
}

func (f *fakeChunkStore) UpsertChunk(ctx context.Context, chunk *models.SectionChunk) error {
	f.chunks = append(f.chunks, *chunk)
	return nil
}

func (f *fakeChunkStore) ProcessedSourceKeys(ctx context.Context) (map[string]struct{}, error) {
	return f.processed, nil
}

func rawDoc(t *testing.T, oaID, caseID string) []byte {
	t.Helper()
	body := fmt.Sprintf(`{
		"id": %s,
		"case_id": "%s",
		"term": 2019,
		"transcript": {
			"sections": [
				{
					"turns": [
						{
							"speaker": {"name": "John G. Roberts, Jr.", "identifier": "john_g_roberts_jr"},
							"text_blocks": [
								{"text": "We will hear argument first this morning in case one.", "start": 0, "stop": 5}
							]
						}
					]
				},
				{
					"turns": [
						{
							"speaker": {"name": "Paul Smith", "identifier": "paul_smith"},
							"text_blocks": [
								{"text": "Thank you Mr. Chief Justice and may it please the Court.", "start": 5, "stop": 10}
							]
						}
					]
				}
			]
		}
	}`, oaID, caseID)

	var check map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(body), &check))
	return []byte(body)
}

// wordTokenizer mirrors the transform package test tokenizer.
type wordTokenizer struct{}

func (wordTokenizer) Count(text string) int {
	n := 0
	inWord := false
	for _, r := range text {
		if r == ' ' || r == '\n' || r == '\t' {
			inWord = false
		} else if !inWord {
			inWord = true
			n++
		}
	}
	return n
}

func (wordTokenizer) Truncate(text string, maxTokens int) string {
	return text
}

func TestProcessAllEndToEnd(t *testing.T) {
	corpus := &fakeCorpus{docs: map[string][]byte{
		"raw/oa/25236_ts.json": rawDoc(t, "25236", "2019/17-1618"),
	}}
	utterances := newFakeUtteranceStore()
	chunks := newFakeChunkStore()
	embedder := newMockEmbedder(8)

	svc := NewTransformService(corpus, utterances, chunks, embedder, wordTokenizer{})
	result, err := svc.ProcessAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result.DocumentsFound)
	assert.Equal(t, 1, result.Processed)
	assert.Equal(t, 0, result.Failed)
	assert.Equal(t, 2, result.ChunksWritten)

	require.Len(t, utterances.upserted, 2)
	require.Len(t, chunks.chunks, 2)

	for _, chunk := range chunks.chunks {
		assert.Equal(t, "2019/17-1618", chunk.CaseID)
		assert.Equal(t, "raw/oa/25236_ts.json", chunk.SourceKey)
		assert.Equal(t, "mock-embedding-001", chunk.EmbeddingModel)
		assert.Equal(t, 8, chunk.EmbeddingDimension)
		assert.Len(t, chunk.Embedding, 8)
	}
}

func TestProcessAllSkipsProcessedKeys(t *testing.T) {
	corpus := &fakeCorpus{docs: map[string][]byte{
		"raw/oa/1_ts.json": rawDoc(t, "1", "case-1"),
		"raw/oa/2_ts.json": rawDoc(t, "2", "case-2"),
	}}
	utterances := newFakeUtteranceStore()
	chunks := newFakeChunkStore()
	chunks.processed["raw/oa/1_ts.json"] = struct{}{}

	svc := NewTransformService(corpus, utterances, chunks, newMockEmbedder(8), wordTokenizer{})
	result, err := svc.ProcessAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, 1, result.Processed)
	for _, chunk := range chunks.chunks {
		assert.Equal(t, "case-2", chunk.CaseID)
	}
}

func TestProcessAllReprocessesWhenNotIncremental(t *testing.T) {
	corpus := &fakeCorpus{docs: map[string][]byte{
		"raw/oa/1_ts.json": rawDoc(t, "1", "case-1"),
	}}
	chunks := newFakeChunkStore()
	chunks.processed["raw/oa/1_ts.json"] = struct{}{}

	svc := NewTransformService(corpus, newFakeUtteranceStore(), chunks, newMockEmbedder(8), wordTokenizer{},
		WithIncremental(false))
	result, err := svc.ProcessAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, result.Skipped)
	assert.Equal(t, 1, result.Processed)
}

func TestProcessDocumentRoutesMalformedToJunk(t *testing.T) {
	corpus := &fakeCorpus{docs: map[string][]byte{
		"raw/oa/bad_ts.json": []byte(`{"id": 9, "term": 2019, "title": "no transcript"}`),
	}}
	utterances := newFakeUtteranceStore()
	chunks := newFakeChunkStore()

	svc := NewTransformService(corpus, utterances, chunks, newMockEmbedder(8), wordTokenizer{})
	result, err := svc.ProcessAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, []string{"missing_transcript_sections"}, corpus.junkTags)
	assert.Empty(t, utterances.upserted)
	assert.Empty(t, chunks.chunks)
}

func TestProcessDocumentDimensionMismatchWritesNothing(t *testing.T) {
	corpus := &fakeCorpus{docs: map[string][]byte{
		"raw/oa/1_ts.json": rawDoc(t, "1", "case-1"),
	}}
	utterances := newFakeUtteranceStore()
	chunks := newFakeChunkStore()
	bad := &badEmbedder{mockEmbedder{dimension: 8}}

	svc := NewTransformService(corpus, utterances, chunks, bad, wordTokenizer{})
	_, err := svc.ProcessDocument(context.Background(), "raw/oa/1_ts.json")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidDimension)

	assert.Empty(t, utterances.upserted, "no writes after a dimension failure")
	assert.Empty(t, chunks.chunks)
}

func TestUtteranceEmbeddingSkipsUnchangedText(t *testing.T) {
	corpus := &fakeCorpus{docs: map[string][]byte{
		"raw/oa/1_ts.json": rawDoc(t, "1", "case-1"),
	}}
	utterances := newFakeUtteranceStore()
	// First utterance already embedded with identical text.
	utterances.embedded["case-1"] = map[int]string{
		0: "We will hear argument first this morning in case one.",
	}
	chunks := newFakeChunkStore()
	embedder := newMockEmbedder(8)

	svc := NewTransformService(corpus, utterances, chunks, embedder, wordTokenizer{},
		WithUtteranceEmbeddings(true), WithBatchSize(10))
	_, err := svc.ProcessDocument(context.Background(), "raw/oa/1_ts.json")
	require.NoError(t, err)

	// Only the second utterance is new; one vector stored.
	assert.Equal(t, 1, utterances.embedCalls)
	require.Len(t, embedder.batchLens, 1)
	assert.Equal(t, 1, embedder.batchLens[0])
}

func TestUtteranceEmbeddingReembedsChangedText(t *testing.T) {
	corpus := &fakeCorpus{docs: map[string][]byte{
		"raw/oa/1_ts.json": rawDoc(t, "1", "case-1"),
	}}
	utterances := newFakeUtteranceStore()
	utterances.embedded["case-1"] = map[int]string{
		0: "a stale older version of this utterance",
	}
	chunks := newFakeChunkStore()
	embedder := newMockEmbedder(8)

	svc := NewTransformService(corpus, utterances, chunks, embedder, wordTokenizer{},
		WithUtteranceEmbeddings(true), WithBatchSize(10))
	_, err := svc.ProcessDocument(context.Background(), "raw/oa/1_ts.json")
	require.NoError(t, err)

	// Both utterances embedded: one changed, one new.
	assert.Equal(t, 2, utterances.embedCalls)
}

func TestUtteranceEmbeddingBatches(t *testing.T) {
	corpus := &fakeCorpus{docs: map[string][]byte{
		"raw/oa/1_ts.json": rawDoc(t, "1", "case-1"),
	}}
	utterances := newFakeUtteranceStore()
	chunks := newFakeChunkStore()
	embedder := newMockEmbedder(8)

	svc := NewTransformService(corpus, utterances, chunks, embedder, wordTokenizer{},
		WithUtteranceEmbeddings(true), WithBatchSize(1))
	_, err := svc.ProcessDocument(context.Background(), "raw/oa/1_ts.json")
	require.NoError(t, err)

	assert.Equal(t, []int{1, 1}, embedder.batchLens)
}

type fakeDocumentStore struct {
	calls int
	oaID  string
}

func (f *fakeDocumentStore) UpsertDocumentEmbedding(ctx context.Context, oaID, caseID string, vector []float64, model string) error {
	f.calls++
	f.oaID = oaID
	return nil
}

func TestDocumentEmbeddingOptional(t *testing.T) {
	corpus := &fakeCorpus{docs: map[string][]byte{
		"raw/oa/1_ts.json": rawDoc(t, "1", "case-1"),
	}}
	docs := &fakeDocumentStore{}

	svc := NewTransformService(corpus, newFakeUtteranceStore(), newFakeChunkStore(), newMockEmbedder(8), wordTokenizer{},
		WithDocumentEmbeddings(docs))
	_, err := svc.ProcessDocument(context.Background(), "raw/oa/1_ts.json")
	require.NoError(t, err)

	assert.Equal(t, 1, docs.calls)
	assert.Equal(t, "1", docs.oaID)
}
