package docindex

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestChunkerSplitsWithOverlap(t *testing.T) {
	words := make([]string, 25)
	for i := range words {
		words[i] = "w" + string(rune('a'+i))
	}
	chunks := NewChunker(10, 2, nil).Chunk(strings.Join(words, " "))

	require.Len(t, chunks, 3)
	for i, c := range chunks {
		require.Equal(t, i, c.Index)
		require.LessOrEqual(t, c.TokenCount, 10)
	}
	first := strings.Fields(chunks[0].Content)
	second := strings.Fields(chunks[1].Content)
	require.Equal(t, first[len(first)-2:], second[:2])
	require.True(t, strings.HasSuffix(chunks[2].Content, words[24]))
}

func TestChunkerHandlesShortAndBlankText(t *testing.T) {
	c := NewChunker(0, 0, nil)
	require.Nil(t, c.Chunk("  \n "))

	chunks := c.Chunk("apply lime before sowing")
	require.Len(t, chunks, 1)
	require.Equal(t, "apply lime before sowing", chunks[0].Content)
	require.Equal(t, 4, chunks[0].TokenCount)
}

func TestHashingEmbedderRanksSharedVocabularyHigher(t *testing.T) {
	e := NewHashingEmbedder(512)
	vectors, err := e.Embed(context.Background(), []string{
		"urea dose for paddy nitrogen",
		"Apply urea in split doses; paddy needs nitrogen.",
		"Neem extract controls armyworm larvae in maize.",
		"",
	})
	require.NoError(t, err)
	require.Len(t, vectors, 4)
	for _, v := range vectors {
		require.Len(t, v, 512)
	}

	related := dot(vectors[0], vectors[1])
	unrelated := dot(vectors[0], vectors[2])
	require.Greater(t, related, unrelated)
	require.InDelta(t, 1.0, dot(vectors[1], vectors[1]), 1e-5)
	require.Zero(t, dot(vectors[3], vectors[3]))
}

func TestTermsDropsStopWordsAndKeepsMalayalam(t *testing.T) {
	require.Equal(t, []string{"നെല്ല്", "urea"}, terms("The നെല്ല് and urea, a"))
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
