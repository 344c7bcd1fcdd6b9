package chat

import "strings"

// WordCounter approximates tokens with whitespace separated words.
type WordCounter struct{}

func (WordCounter) Count(text string) int {
	return len(strings.Fields(text))
}

func (WordCounter) Truncate(text string, limit int) string {
	words := strings.Fields(text)
	if limit <= 0 || len(words) <= limit {
		return text
	}
	return strings.Join(words[:limit], " ")
}
