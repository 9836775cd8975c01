package service

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// ErrInvalidDimension marks a vector whose length does not match the
// configured model dimension. It is fatal to the document being processed,
// never to the run, and is raised before any write occurs.
var ErrInvalidDimension = errors.New("embedding dimension mismatch")

// Embedder turns text into fixed-length vectors. Implementations must
// return vectors of exactly Dimension() entries.
type Embedder interface {
	EmbedText(ctx context.Context, text string) ([]float64, error)
	EmbedTexts(ctx context.Context, texts []string) ([][]float64, error)
	ModelName() string
	Dimension() int
}

// GeminiEmbedder implements Embedder with the Gemini embedding API.
type GeminiEmbedder struct {
	client    *genai.Client
	model     *genai.EmbeddingModel
	name      string
	dimension int
}

// NewGeminiEmbedder creates a Gemini-backed embedder for the given model
// name and expected dimension.
func NewGeminiEmbedder(ctx context.Context, apiKey, modelName string, dimension int) (*GeminiEmbedder, error) {
	if apiKey == "" {
		return nil, errors.New("GEMINI_API_KEY is required")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Gemini client: %w", err)
	}

	return &GeminiEmbedder{
		client:    client,
		model:     client.EmbeddingModel(modelName),
		name:      modelName,
		dimension: dimension,
	}, nil
}

// Close releases the underlying client.
func (g *GeminiEmbedder) Close() error {
	return g.client.Close()
}

// ModelName returns the configured model name.
func (g *GeminiEmbedder) ModelName() string { return g.name }

// Dimension returns the configured vector dimension.
func (g *GeminiEmbedder) Dimension() int { return g.dimension }

// EmbedText embeds one text.
func (g *GeminiEmbedder) EmbedText(ctx context.Context, text string) ([]float64, error) {
	res, err := g.model.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, fmt.Errorf("failed to embed content: %w", err)
	}
	if res.Embedding == nil {
		return nil, errors.New("empty embedding response")
	}
	return g.validate(res.Embedding.Values)
}

// EmbedTexts embeds a batch of texts in one API call.
func (g *GeminiEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	batch := g.model.NewBatch()
	for _, text := range texts {
		batch.AddContent(genai.Text(text))
	}

	res, err := g.model.BatchEmbedContents(ctx, batch)
	if err != nil {
		return nil, fmt.Errorf("failed to embed batch: %w", err)
	}
	if len(res.Embeddings) != len(texts) {
		return nil, fmt.Errorf("embedding count mismatch: expected %d, got %d", len(texts), len(res.Embeddings))
	}

	vectors := make([][]float64, len(texts))
	for i, emb := range res.Embeddings {
		if emb == nil {
			return nil, fmt.Errorf("empty embedding for batch item %d", i)
		}
		vec, err := g.validate(emb.Values)
		if err != nil {
			return nil, err
		}
		vectors[i] = vec
	}
	return vectors, nil
}

// validate asserts the dimension invariant and returns the L2-normalized
// vector.
func (g *GeminiEmbedder) validate(values []float32) ([]float64, error) {
	if len(values) != g.dimension {
		return nil, fmt.Errorf("%w: expected %d, got %d", ErrInvalidDimension, g.dimension, len(values))
	}

	vec := make([]float64, len(values))
	for i, v := range values {
		vec[i] = float64(v)
	}
	NormalizeVector(vec)
	return vec, nil
}

// NormalizeVector scales a vector to unit L2 norm in place. Zero vectors
// are left unchanged.
func NormalizeVector(vec []float64) {
	var sumSq float64
	for _, v := range vec {
		sumSq += v * v
	}
	if sumSq == 0 {
		return
	}

	norm := math.Sqrt(sumSq)
	for i := range vec {
		vec[i] /= norm
	}
}

// CheckDimension asserts that a vector matches the expected dimension.
func CheckDimension(vec []float64, dimension int) error {
	if len(vec) != dimension {
		return fmt.Errorf("%w: expected %d, got %d", ErrInvalidDimension, dimension, len(vec))
	}
	return nil
}
