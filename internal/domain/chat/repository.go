package chat

import "context"

// Repository persists conversations. A thread exists while it holds at least
// one message and is visible only to the session that owns it.
type Repository interface {
	Append(ctx context.Context, msg Message) error
	History(ctx context.Context, owner, threadID string) ([]Message, error)
	Threads(ctx context.Context, owner string) ([]Thread, error)
	Delete(ctx context.Context, owner, threadID string) (int, error)
}

// TokenCounter measures and trims prompt text.
type TokenCounter interface {
	Count(text string) int
	Truncate(text string, limit int) string
}

// Retriever finds excerpts of the documents attached to a thread that are
// relevant to a question.
type Retriever interface {
	Retrieve(ctx context.Context, owner, threadID, question string) ([]Reference, error)
}

// RetrieverFunc adapts a function to Retriever.
type RetrieverFunc func(ctx context.Context, owner, threadID, question string) ([]Reference, error)

// Retrieve implements Retriever.
func (f RetrieverFunc) Retrieve(ctx context.Context, owner, threadID, question string) ([]Reference, error) {
	return f(ctx, owner, threadID, question)
}
