package domain

import (
	"context"
	"fmt"
	"unicode/utf8"
)

// Embedder is the shared text vectorization contract between layers.
// Text longer than maxLength runes is truncated, never rejected.
type Embedder interface {
	Embed(ctx context.Context, text string, maxLength int) (EmbeddingResult, error)
}

// HealthChecker verifies AI provider availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// EmbeddingResult carries the embedding vector and token usage through the decorator chain.
// An empty Embedding with a nil error means "no signal available".
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// Empty reports whether the result carries no vector.
func (r EmbeddingResult) Empty() bool { return len(r.Embedding) == 0 }

// Truncate cuts text to at most maxLength runes. maxLength <= 0 disables truncation.
func Truncate(text string, maxLength int) string {
	if maxLength <= 0 || utf8.RuneCountInString(text) <= maxLength {
		return text
	}
	runes := []rune(text)
	return string(runes[:maxLength])
}

// InstructionEmbedder is a domain decorator that prepends a task prefix before embedding
// (e.g. "search_query: " for nomic-embed-text).
type InstructionEmbedder struct {
	inner       Embedder
	instruction string
}

// NewInstructionEmbedder creates a decorator that prepends instruction text.
func NewInstructionEmbedder(inner Embedder, instruction string) *InstructionEmbedder {
	return &InstructionEmbedder{inner: inner, instruction: instruction}
}

// Embed prepends the instruction and delegates to the inner embedder.
// The instruction does not count against maxLength.
func (e *InstructionEmbedder) Embed(ctx context.Context, text string, maxLength int) (EmbeddingResult, error) {
	limit := maxLength
	if limit > 0 {
		limit += utf8.RuneCountInString(e.instruction)
	}
	result, err := e.inner.Embed(ctx, e.instruction+Truncate(text, maxLength), limit)
	if err != nil {
		return EmbeddingResult{}, fmt.Errorf("instruction embed: %w", err)
	}
	return result, nil
}
