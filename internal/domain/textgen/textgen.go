package textgen

import (
	"context"
	"strings"

	"github.com/yanqian/krishi-vaani/internal/domain/locale"
)

// Prompt is a single stateless generation request.
type Prompt struct {
	System string
	User   string
	Locale locale.Code
}

// Generator produces free text from a prompt. One configured instance is
// shared by every flow.
type Generator interface {
	Generate(ctx context.Context, prompt Prompt) (string, error)
}

// Text returns the user prompt with the language directive applied.
func (p Prompt) Text() string {
	return locale.WithDirective(strings.TrimSpace(p.User), p.Locale)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, prompt Prompt) (string, error)

// Generate implements Generator.
func (f GeneratorFunc) Generate(ctx context.Context, prompt Prompt) (string, error) {
	return f(ctx, prompt)
}
