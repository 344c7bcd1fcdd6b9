package chatgpt

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/krishi-vaani/internal/domain/locale"
	"github.com/yanqian/krishi-vaani/internal/domain/textgen"
	"github.com/yanqian/krishi-vaani/internal/infra/httpretry"
)

func TestGeneratorSendsSystemAndUserMessages(t *testing.T) {
	var got completionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":" Plant ragi. "}}]}`))
	}))
	defer srv.Close()

	client, err := NewClient("test-key", srv.URL, 0, 0)
	require.NoError(t, err)
	gen := NewGenerator(client, "gpt-test", 0.2, 300)

	text, err := gen.Generate(context.Background(), textgen.Prompt{
		System: "You advise farmers.",
		User:   "What grows in red soil?",
		Locale: locale.Malayalam,
	})
	require.NoError(t, err)
	require.Equal(t, "Plant ragi.", text)
	require.Equal(t, "gpt-test", got.Model)
	require.Equal(t, 300, got.MaxTokens)
	require.Len(t, got.Messages, 2)
	require.Equal(t, "system", got.Messages[0].Role)
	require.Equal(t, "What grows in red soil?\n\n"+locale.Directive(locale.Malayalam), got.Messages[1].Content)
}

func TestGeneratorRetriesRateLimit(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "rate limited", http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"Sow after the rains."}}]}`))
	}))
	defer srv.Close()

	client, err := NewClient("test-key", srv.URL, 0, 5*time.Second)
	require.NoError(t, err)
	client.retry.InitialInterval = time.Millisecond

	text, err := NewGenerator(client, "", 0, 0).Generate(context.Background(), textgen.Prompt{User: "hi"})
	require.NoError(t, err)
	require.Equal(t, "Sow after the rains.", text)
	require.EqualValues(t, 2, calls.Load())
}

func TestGeneratorErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad key", http.StatusUnauthorized)
	}))
	defer srv.Close()

	client, err := NewClient("test-key", srv.URL, 0, 0)
	require.NoError(t, err)
	_, err = NewGenerator(client, "", 0, 0).Generate(context.Background(), textgen.Prompt{User: "hi"})
	var statusErr *httpretry.StatusError
	require.True(t, errors.As(err, &statusErr))
	require.Equal(t, http.StatusUnauthorized, statusErr.Status)

	_, err = NewClient(" ", "", 0, 0)
	require.Error(t, err)
}

func TestEmbedderOrdersVectorsByIndex(t *testing.T) {
	var got embeddingRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/embeddings", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"data":[{"index":1,"embedding":[0,1]},{"index":0,"embedding":[1,0]}]}`))
	}))
	defer srv.Close()

	client, err := NewClient("test-key", srv.URL, 0, 0)
	require.NoError(t, err)
	vectors, err := NewEmbedder(client, "", 2).Embed(context.Background(), []string{"urea", "neem"})
	require.NoError(t, err)
	require.Equal(t, [][]float32{{1, 0}, {0, 1}}, vectors)
	require.Equal(t, "text-embedding-3-small", got.Model)
	require.Equal(t, 2, got.Dimensions)
	require.Equal(t, []string{"urea", "neem"}, got.Input)
}

func TestEmbedderRejectsMissingVectors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[{"index":0,"embedding":[1,0]}]}`))
	}))
	defer srv.Close()

	client, err := NewClient("test-key", srv.URL, 0, 0)
	require.NoError(t, err)
	_, err = NewEmbedder(client, "m", 0).Embed(context.Background(), []string{"a", "b"})
	require.ErrorContains(t, err, "missing embedding for input 1")
}
