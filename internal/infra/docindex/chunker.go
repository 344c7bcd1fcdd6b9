package docindex

import (
	"strings"

	"github.com/yanqian/krishi-vaani/internal/domain/document"
)

// Counter measures text in model tokens.
type Counter interface {
	Count(text string) int
}

// Chunker splits text into segments of at most MaxTokens tokens. Each chunk
// after the first repeats the last Overlap words of its predecessor.
type Chunker struct {
	MaxTokens int
	Overlap   int
	counter   Counter
}

// NewChunker constructs a chunker. A nil counter counts words.
func NewChunker(maxTokens, overlap int, counter Counter) *Chunker {
	if maxTokens <= 0 {
		maxTokens = 400
	}
	if overlap < 0 || overlap >= maxTokens {
		overlap = 0
	}
	if counter == nil {
		counter = wordCounter{}
	}
	return &Chunker{MaxTokens: maxTokens, Overlap: overlap, counter: counter}
}

// Chunk implements document.Chunker.
func (c *Chunker) Chunk(text string) []document.Candidate {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	var (
		out     []document.Candidate
		current []string
		tokens  int
	)
	flush := func() {
		content := strings.TrimSpace(strings.Join(current, " "))
		if content != "" {
			out = append(out, document.Candidate{
				Index:      len(out),
				Content:    content,
				TokenCount: c.counter.Count(content),
			})
		}
		current, tokens = nil, 0
	}

	for _, word := range strings.Fields(text) {
		cost := c.counter.Count(word)
		if tokens > 0 && tokens+cost > c.MaxTokens {
			tail := tailWords(current, c.Overlap)
			flush()
			for _, w := range tail {
				current = append(current, w)
				tokens += c.counter.Count(w)
			}
		}
		current = append(current, word)
		tokens += cost
	}
	flush()
	return out
}

func tailWords(words []string, n int) []string {
	if n <= 0 || len(words) == 0 {
		return nil
	}
	if len(words) > n {
		words = words[len(words)-n:]
	}
	return append([]string(nil), words...)
}

type wordCounter struct{}

func (wordCounter) Count(text string) int { return len(strings.Fields(text)) }

var _ document.Chunker = (*Chunker)(nil)
