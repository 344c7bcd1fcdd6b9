package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/yanqian/krishi-vaani/pkg/metrics"
)

const defaultEmbeddingModel = "gemini-embedding-001"

// Embedder produces document embeddings with the Gemini API.
type Embedder struct {
	models     *genai.Models
	model      string
	dimensions int32
}

// NewEmbedder builds a Gemini backed document.Embedder. dimensions of zero
// keeps the model's native size.
func NewEmbedder(ctx context.Context, apiKey, model string, dimensions int) (*Embedder, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("gemini api key cannot be empty")
	}
	if strings.TrimSpace(model) == "" {
		model = defaultEmbeddingModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &Embedder{models: client.Models, model: model, dimensions: int32(dimensions)}, nil
}

// Embed implements document.Embedder.
func (e *Embedder) Embed(ctx context.Context, texts []string) (vectors [][]float32, err error) {
	if len(texts) == 0 {
		return nil, nil
	}
	started := time.Now()
	defer func() { metrics.ObserveUpstream("gemini_embeddings", started, err) }()

	contents := make([]*genai.Content, len(texts))
	for i, text := range texts {
		contents[i] = genai.NewContentFromText(text, genai.RoleUser)
	}
	result, err := e.models.EmbedContent(ctx, e.model, contents, e.embedConfig())
	if err != nil {
		return nil, fmt.Errorf("gemini embed: %w", err)
	}
	if len(result.Embeddings) != len(texts) {
		return nil, fmt.Errorf("gemini returned %d embeddings for %d texts", len(result.Embeddings), len(texts))
	}
	vectors = make([][]float32, len(texts))
	for i, emb := range result.Embeddings {
		vectors[i] = emb.Values
	}
	return vectors, nil
}

func (e *Embedder) embedConfig() *genai.EmbedContentConfig {
	if e.dimensions <= 0 {
		return nil
	}
	return &genai.EmbedContentConfig{OutputDimensionality: genai.Ptr(e.dimensions)}
}
