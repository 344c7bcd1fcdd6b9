package chat

import "time"

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry of a conversation. Messages are never edited once
// stored. Owner is the session that opened the thread.
type Message struct {
	ID        string    `json:"id"`
	ThreadID  string    `json:"threadId"`
	Owner     string    `json:"-"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Thread summarizes one conversation.
type Thread struct {
	ID           string    `json:"id"`
	LastActivity time.Time `json:"lastActivity"`
	MessageCount int       `json:"messageCount"`
}

// Reference is a document excerpt that grounded a reply.
type Reference struct {
	DocumentID string  `json:"documentId"`
	Filename   string  `json:"filename"`
	Snippet    string  `json:"snippet"`
	Score      float64 `json:"score"`
}

// SendResult is what a send appended to the thread. Both messages are nil
// when the input was blank.
type SendResult struct {
	User    *Message    `json:"user,omitempty"`
	Reply   *Message    `json:"reply,omitempty"`
	Sources []Reference `json:"sources,omitempty"`
}
