package document

import "context"

// Storage keeps the original bytes of uploaded files.
type Storage interface {
	PutObject(ctx context.Context, key string, data []byte, contentType, filename string) error
}

// Embedder produces embeddings for free form text.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Chunker splits extracted text into pieces small enough to embed.
type Chunker interface {
	Chunk(text string) []Candidate
}

// Candidate is produced by the chunker before embedding.
type Candidate struct {
	Index      int
	Content    string
	TokenCount int
}

// SearchFilter restricts a similarity search.
type SearchFilter struct {
	// ThreadID limits the search to documents attached to one thread.
	ThreadID string
	Limit    int
	MinScore float64
}

// Repository persists documents, their thread attachments and chunks.
// Every lookup is scoped to the owning session.
type Repository interface {
	Create(ctx context.Context, doc Document) error
	UpdateStatus(ctx context.Context, id string, status Status, failureReason string, textLength int) error
	Get(ctx context.Context, owner, id string) (Document, bool, error)
	List(ctx context.Context, owner, threadID string) ([]Document, error)
	Associate(ctx context.Context, owner, id, threadID string) error
	DetachThread(ctx context.Context, owner, threadID string) (int, error)
	InsertChunks(ctx context.Context, chunks []Chunk) error
	Search(ctx context.Context, owner string, embedding []float32, filter SearchFilter) ([]Hit, error)
}
