package docrepo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/krishi-vaani/internal/domain/document"
)

func seed(t *testing.T, repo *MemoryRepository, id, owner string, status document.Status, threads []string, embedding []float32) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, document.Document{
		ID:        id,
		Owner:     owner,
		Filename:  id + ".txt",
		FileType:  document.FileTypeText,
		Status:    status,
		Threads:   threads,
		CreatedAt: time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC),
	}))
	require.NoError(t, repo.InsertChunks(ctx, []document.Chunk{{ID: id + "-0", DocumentID: id, Content: "chunk of " + id, Embedding: embedding}}))
}

func TestMemorySearchFiltersAndRanks(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	seed(t, repo, "close", "alice", document.StatusProcessed, []string{"t1"}, []float32{1, 0.1})
	seed(t, repo, "far", "alice", document.StatusProcessed, []string{"t2"}, []float32{0.2, 1})
	seed(t, repo, "pending", "alice", document.StatusProcessing, []string{"t1"}, []float32{1, 0})
	seed(t, repo, "foreign", "bob", document.StatusProcessed, []string{"t1"}, []float32{1, 0})

	hits, err := repo.Search(ctx, "alice", []float32{1, 0}, document.SearchFilter{})
	require.NoError(t, err)
	require.Len(t, hits, 2)
	require.Equal(t, "close", hits[0].DocumentID)
	require.Equal(t, "far", hits[1].DocumentID)
	require.Greater(t, hits[0].Score, hits[1].Score)

	hits, err = repo.Search(ctx, "alice", []float32{1, 0}, document.SearchFilter{ThreadID: "t2"})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	require.Equal(t, "far", hits[0].DocumentID)

	hits, err = repo.Search(ctx, "alice", []float32{1, 0}, document.SearchFilter{MinScore: 0.5, Limit: 5})
	require.NoError(t, err)
	require.Len(t, hits, 1)

	hits, err = repo.Search(ctx, "alice", []float32{1, 0}, document.SearchFilter{Limit: 1})
	require.NoError(t, err)
	require.Len(t, hits, 1)
}

func TestMemoryAssociateAndDetachAreOwnerScoped(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	seed(t, repo, "doc", "alice", document.StatusProcessed, nil, []float32{1})

	require.NoError(t, repo.Associate(ctx, "bob", "doc", "t9"))
	require.NoError(t, repo.Associate(ctx, "alice", "doc", "t1"))
	require.NoError(t, repo.Associate(ctx, "alice", "doc", "t1"))

	doc, ok, err := repo.Get(ctx, "alice", "doc")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []string{"t1"}, doc.Threads)

	_, ok, err = repo.Get(ctx, "bob", "doc")
	require.NoError(t, err)
	require.False(t, ok)

	n, err := repo.DetachThread(ctx, "bob", "t1")
	require.NoError(t, err)
	require.Zero(t, n)
	n, err = repo.DetachThread(ctx, "alice", "t1")
	require.NoError(t, err)
	require.Equal(t, 1, n)

	listed, err := repo.List(ctx, "alice", "t1")
	require.NoError(t, err)
	require.Empty(t, listed)
}

func TestMemoryGetReturnsCopy(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	seed(t, repo, "doc", "alice", document.StatusProcessed, []string{"t1"}, []float32{1})

	doc, _, err := repo.Get(ctx, "alice", "doc")
	require.NoError(t, err)
	doc.Threads[0] = "mutated"

	again, _, err := repo.Get(ctx, "alice", "doc")
	require.NoError(t, err)
	require.Equal(t, []string{"t1"}, again.Threads)
}
