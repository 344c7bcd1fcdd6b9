package docindex

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"

	"github.com/yanqian/krishi-vaani/internal/domain/document"
)

// HashingEmbedder maps the words of a text onto a fixed number of buckets and
// normalizes the counts, so texts sharing vocabulary score a high cosine
// similarity. It needs no network access.
type HashingEmbedder struct {
	dim int
}

// NewHashingEmbedder constructs the embedder.
func NewHashingEmbedder(dim int) *HashingEmbedder {
	if dim <= 0 {
		dim = 256
	}
	return &HashingEmbedder{dim: dim}
}

// Embed implements document.Embedder.
func (e *HashingEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vector := make([]float32, e.dim)
		for _, term := range terms(text) {
			hash := fnv.New64a()
			_, _ = hash.Write([]byte(term))
			sum := hash.Sum64()
			sign := float32(1)
			if sum>>63 == 1 {
				sign = -1
			}
			vector[sum%uint64(e.dim)] += sign
		}
		normalize(vector)
		vectors[i] = vector
	}
	return vectors, nil
}

func terms(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && !unicode.Is(unicode.Mn, r) && !unicode.Is(unicode.Mc, r)
	})
	out := fields[:0]
	for _, f := range fields {
		if len([]rune(f)) > 1 && !stopWords[f] {
			out = append(out, f)
		}
	}
	return out
}

func normalize(v []float32) {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return
	}
	norm := float32(math.Sqrt(sum))
	for i := range v {
		v[i] /= norm
	}
}

var stopWords = map[string]bool{
	"the": true, "and": true, "for": true, "are": true, "was": true, "with": true,
	"this": true, "that": true, "from": true, "what": true, "how": true, "is": true,
	"of": true, "to": true, "in": true, "on": true, "my": true, "do": true, "it": true,
	"be": true, "an": true, "or": true, "at": true, "by": true, "should": true, "much": true,
}

var _ document.Embedder = (*HashingEmbedder)(nil)
