package chatrepo

import (
	"context"
	"sort"
	"sync"

	"github.com/yanqian/krishi-vaani/internal/domain/chat"
)

type memoryThread struct {
	owner    string
	messages []chat.Message
}

// MemoryRepository keeps conversations in process memory.
type MemoryRepository struct {
	mu      sync.RWMutex
	threads map[string]*memoryThread
}

// NewMemoryRepository constructs an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{threads: make(map[string]*memoryThread)}
}

// Append stores msg. The first message of a thread fixes its owner.
func (r *MemoryRepository) Append(_ context.Context, msg chat.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	thread, ok := r.threads[msg.ThreadID]
	if !ok {
		thread = &memoryThread{owner: msg.Owner}
		r.threads[msg.ThreadID] = thread
	}
	if thread.owner != msg.Owner {
		return errForeignThread
	}
	thread.messages = append(thread.messages, msg)
	return nil
}

func (r *MemoryRepository) History(_ context.Context, owner, threadID string) ([]chat.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	thread, ok := r.threads[threadID]
	if !ok || thread.owner != owner {
		return nil, nil
	}
	out := make([]chat.Message, len(thread.messages))
	copy(out, thread.messages)
	return out, nil
}

func (r *MemoryRepository) Threads(_ context.Context, owner string) ([]chat.Thread, error) {
	r.mu.RLock()
	out := make([]chat.Thread, 0, len(r.threads))
	for id, thread := range r.threads {
		if thread.owner != owner || len(thread.messages) == 0 {
			continue
		}
		out = append(out, chat.Thread{
			ID:           id,
			LastActivity: thread.messages[len(thread.messages)-1].Timestamp,
			MessageCount: len(thread.messages),
		})
	}
	r.mu.RUnlock()
	sortThreads(out)
	return out, nil
}

func (r *MemoryRepository) Delete(_ context.Context, owner, threadID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	thread, ok := r.threads[threadID]
	if !ok || thread.owner != owner {
		return 0, nil
	}
	delete(r.threads, threadID)
	return len(thread.messages), nil
}

// sortThreads orders by most recent activity first.
func sortThreads(threads []chat.Thread) {
	sort.SliceStable(threads, func(i, j int) bool {
		if threads[i].LastActivity.Equal(threads[j].LastActivity) {
			return threads[i].ID < threads[j].ID
		}
		return threads[i].LastActivity.After(threads[j].LastActivity)
	})
}

var _ chat.Repository = (*MemoryRepository)(nil)
