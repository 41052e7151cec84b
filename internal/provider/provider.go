// Package provider defines the AI capability every backend implements and
// resolves which backend serves the process.
package provider

import (
	"context"

	"github.com/kailas-cloud/talentrag/internal/domain"
	"github.com/kailas-cloud/talentrag/internal/domain/document"
)

// Provider names.
const (
	NameOpenAI = "openai"
	NameGemini = "gemini"
	NameOllama = "ollama"
)

// Provider is one AI backend: embeddings, structured extraction and answer generation.
// Transports return typed domain errors; absorbing them is the caller's business.
type Provider interface {
	Name() string
	Models() Models
	// Probe is a cheap liveness check used by provider selection.
	Probe(ctx context.Context) error
	Embed(ctx context.Context, text string, maxLength int) (domain.EmbeddingResult, error)
	ExtractStructured(ctx context.Context, text string) (Extraction, error)
	GenerateAnswer(ctx context.Context, p Prompt) (string, error)
}

// Models names the models a provider uses.
type Models struct {
	Embedding  string `json:"embedding"`
	Generation string `json:"generation"`
}

// Prompt is a single-turn generation request.
type Prompt struct {
	System      string
	User        string
	Temperature float32
	MaxTokens   int
	// JSON asks the backend for a JSON object when it supports a JSON mode.
	JSON bool
}

// Extraction is the structured view of a résumé produced by a model.
type Extraction struct {
	PersonalInfo document.PersonalInfo `json:"personalInfo"`
	Structured   document.Structured   `json:"structured"`
}
