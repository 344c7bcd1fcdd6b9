package tokens

import (
	"log/slog"

	"github.com/pkoukk/tiktoken-go"

	"github.com/yanqian/krishi-vaani/internal/domain/chat"
)

// DefaultEncoding matches the tokenizer used by current chat models.
const DefaultEncoding = "cl100k_base"

type encoder interface {
	Encode(text string, allowedSpecial []string, disallowedSpecial []string) []int
	Decode(tokens []int) string
}

// Counter measures prompts in BPE tokens.
type Counter struct {
	enc encoder
}

// NewCounter loads the named encoding. When the encoding cannot be loaded the
// word based approximation is returned instead.
func NewCounter(encoding string, logger *slog.Logger) chat.TokenCounter {
	return newCounter(encoding, func(name string) (encoder, error) {
		return tiktoken.GetEncoding(name)
	}, logger)
}

func newCounter(encoding string, load func(string) (encoder, error), logger *slog.Logger) chat.TokenCounter {
	if encoding == "" {
		encoding = DefaultEncoding
	}
	enc, err := load(encoding)
	if err != nil {
		logger.With("component", "tokens.counter").Warn("tiktoken unavailable, counting words", "encoding", encoding, "error", err)
		return chat.WordCounter{}
	}
	return &Counter{enc: enc}
}

func (c *Counter) Count(text string) int {
	return len(c.enc.Encode(text, nil, nil))
}

func (c *Counter) Truncate(text string, limit int) string {
	if limit <= 0 {
		return text
	}
	ids := c.enc.Encode(text, nil, nil)
	if len(ids) <= limit {
		return text
	}
	return c.enc.Decode(ids[:limit])
}
