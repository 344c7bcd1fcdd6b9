package chat

import "time"

// DefaultSystemPrompt frames every chat request.
const DefaultSystemPrompt = "You are an AI agricultural assistant. Please provide helpful, accurate information about farming, crops, diseases, weather, and agricultural practices."

// Config holds runtime knobs for the chat service.
type Config struct {
	SystemPrompt string
	// MaxPromptTokens trims the user question to this many tokens. Zero
	// disables trimming.
	MaxPromptTokens int
	ReplyTimeout    time.Duration
}
