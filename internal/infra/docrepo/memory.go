package docrepo

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/yanqian/krishi-vaani/internal/domain/document"
)

// MemoryRepository keeps documents and chunks in process memory and ranks
// chunks by cosine similarity.
type MemoryRepository struct {
	mu     sync.RWMutex
	docs   map[string]document.Document
	chunks map[string][]document.Chunk
}

// NewMemoryRepository constructs an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		docs:   make(map[string]document.Document),
		chunks: make(map[string][]document.Chunk),
	}
}

func (r *MemoryRepository) Create(_ context.Context, doc document.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc.Threads = append([]string{}, doc.Threads...)
	r.docs[doc.ID] = doc
	return nil
}

func (r *MemoryRepository) UpdateStatus(_ context.Context, id string, status document.Status, failureReason string, textLength int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[id]
	if !ok {
		return nil
	}
	doc.Status = status
	doc.FailureReason = failureReason
	doc.TextLength = textLength
	r.docs[id] = doc
	return nil
}

func (r *MemoryRepository) Get(_ context.Context, owner, id string) (document.Document, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	doc, ok := r.docs[id]
	if !ok || doc.Owner != owner {
		return document.Document{}, false, nil
	}
	return clone(doc), true, nil
}

// List returns the owner's documents, newest first. A non-empty threadID
// keeps only documents attached to that thread.
func (r *MemoryRepository) List(_ context.Context, owner, threadID string) ([]document.Document, error) {
	r.mu.RLock()
	out := make([]document.Document, 0)
	for _, doc := range r.docs {
		if doc.Owner != owner || (threadID != "" && !attached(doc, threadID)) {
			continue
		}
		out = append(out, clone(doc))
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *MemoryRepository) Associate(_ context.Context, owner, id, threadID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[id]
	if !ok || doc.Owner != owner || attached(doc, threadID) {
		return nil
	}
	doc.Threads = append(doc.Threads, threadID)
	r.docs[id] = doc
	return nil
}

func (r *MemoryRepository) DetachThread(_ context.Context, owner, threadID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int
	for id, doc := range r.docs {
		if doc.Owner != owner || !attached(doc, threadID) {
			continue
		}
		kept := make([]string, 0, len(doc.Threads)-1)
		for _, t := range doc.Threads {
			if t != threadID {
				kept = append(kept, t)
			}
		}
		doc.Threads = kept
		r.docs[id] = doc
		n++
	}
	return n, nil
}

func (r *MemoryRepository) InsertChunks(_ context.Context, chunks []document.Chunk) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range chunks {
		c.Embedding = append([]float32(nil), c.Embedding...)
		r.chunks[c.DocumentID] = append(r.chunks[c.DocumentID], c)
	}
	return nil
}

func (r *MemoryRepository) Search(_ context.Context, owner string, embedding []float32, filter document.SearchFilter) ([]document.Hit, error) {
	r.mu.RLock()
	var hits []document.Hit
	for id, doc := range r.docs {
		if doc.Owner != owner || doc.Status != document.StatusProcessed {
			continue
		}
		if filter.ThreadID != "" && !attached(doc, filter.ThreadID) {
			continue
		}
		for _, c := range r.chunks[id] {
			score := cosine(embedding, c.Embedding)
			if score < filter.MinScore {
				continue
			}
			hits = append(hits, document.Hit{
				DocumentID: id,
				Filename:   doc.Filename,
				FileType:   doc.FileType,
				ChunkIndex: c.Index,
				Score:      score,
				Snippet:    c.Content,
			})
		}
	}
	r.mu.RUnlock()

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		if hits[i].DocumentID != hits[j].DocumentID {
			return hits[i].DocumentID < hits[j].DocumentID
		}
		return hits[i].ChunkIndex < hits[j].ChunkIndex
	})
	if filter.Limit > 0 && len(hits) > filter.Limit {
		hits = hits[:filter.Limit]
	}
	return hits, nil
}

func attached(doc document.Document, threadID string) bool {
	for _, t := range doc.Threads {
		if t == threadID {
			return true
		}
	}
	return false
}

func clone(doc document.Document) document.Document {
	doc.Threads = append([]string{}, doc.Threads...)
	return doc
}

func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

var _ document.Repository = (*MemoryRepository)(nil)
