package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/yanqian/krishi-vaani/internal/domain/textgen"
	"github.com/yanqian/krishi-vaani/pkg/metrics"
)

const defaultModel = "gemini-2.5-flash"

// Config selects the Gemini model.
type Config struct {
	APIKey          string
	Model           string
	Temperature     float32
	MaxOutputTokens int32
}

// Generator answers prompts with the Gemini API.
type Generator struct {
	models *genai.Models
	cfg    Config
}

// NewGenerator builds a Gemini backed textgen.Generator.
func NewGenerator(ctx context.Context, cfg Config) (*Generator, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("gemini api key cannot be empty")
	}
	if strings.TrimSpace(cfg.Model) == "" {
		cfg.Model = defaultModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &Generator{models: client.Models, cfg: cfg}, nil
}

// Generate implements textgen.Generator.
func (g *Generator) Generate(ctx context.Context, prompt textgen.Prompt) (text string, err error) {
	started := time.Now()
	defer func() { metrics.ObserveUpstream("gemini", started, err) }()

	resp, err := g.models.GenerateContent(ctx, g.cfg.Model, genai.Text(prompt.Text()), g.contentConfig(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	text = strings.TrimSpace(resp.Text())
	if text == "" {
		return "", errors.New("gemini returned no text")
	}
	return text, nil
}

func (g *Generator) contentConfig(prompt textgen.Prompt) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{}
	if g.cfg.Temperature > 0 {
		cfg.Temperature = genai.Ptr(g.cfg.Temperature)
	}
	if g.cfg.MaxOutputTokens > 0 {
		cfg.MaxOutputTokens = g.cfg.MaxOutputTokens
	}
	if system := strings.TrimSpace(prompt.System); system != "" {
		cfg.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}
	return cfg
}
