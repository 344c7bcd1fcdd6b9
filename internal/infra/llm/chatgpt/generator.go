package chatgpt

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/yanqian/krishi-vaani/internal/domain/textgen"
	"github.com/yanqian/krishi-vaani/pkg/metrics"
)

// Generator adapts Client to textgen.Generator.
type Generator struct {
	client      *Client
	model       string
	temperature float32
	maxTokens   int
}

// NewGenerator wraps client with fixed model settings.
func NewGenerator(client *Client, model string, temperature float32, maxTokens int) *Generator {
	if strings.TrimSpace(model) == "" {
		model = "gpt-4o-mini"
	}
	return &Generator{client: client, model: model, temperature: temperature, maxTokens: maxTokens}
}

// Generate implements textgen.Generator.
func (g *Generator) Generate(ctx context.Context, prompt textgen.Prompt) (text string, err error) {
	started := time.Now()
	defer func() { metrics.ObserveUpstream("chatgpt", started, err) }()

	messages := make([]turn, 0, 2)
	if system := strings.TrimSpace(prompt.System); system != "" {
		messages = append(messages, turn{Role: "system", Content: system})
	}
	messages = append(messages, turn{Role: "user", Content: prompt.Text()})

	content, err := g.client.complete(ctx, completionRequest{
		Model:       g.model,
		Messages:    messages,
		Temperature: g.temperature,
		MaxTokens:   g.maxTokens,
	})
	if err != nil {
		return "", err
	}
	text = strings.TrimSpace(content)
	if text == "" {
		return "", errors.New("chatgpt returned an empty message")
	}
	return text, nil
}

// Embedder produces document embeddings through the embeddings endpoint.
type Embedder struct {
	client     *Client
	model      string
	dimensions int
}

// NewEmbedder wraps client for embedding requests. dimensions of zero keeps
// the model's native size.
func NewEmbedder(client *Client, model string, dimensions int) *Embedder {
	if strings.TrimSpace(model) == "" {
		model = "text-embedding-3-small"
	}
	return &Embedder{client: client, model: model, dimensions: dimensions}
}

// Embed implements document.Embedder.
func (e *Embedder) Embed(ctx context.Context, texts []string) (vectors [][]float32, err error) {
	if len(texts) == 0 {
		return nil, nil
	}
	started := time.Now()
	defer func() { metrics.ObserveUpstream("chatgpt_embeddings", started, err) }()

	return e.client.embed(ctx, embeddingRequest{Model: e.model, Input: texts, Dimensions: e.dimensions})
}
