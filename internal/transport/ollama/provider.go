// Package ollama is the local AI provider. Ollama serves an OpenAI-compatible
// API under /v1, so the OpenAI transport does the wire work.
package ollama

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/talentrag/internal/domain"
	"github.com/kailas-cloud/talentrag/internal/provider"
	"github.com/kailas-cloud/talentrag/internal/transport/openai"
)

// Defaults for a stock local Ollama install.
const (
	DefaultBaseURL        = "http://localhost:11434/v1"
	DefaultEmbeddingModel = "nomic-embed-text"
	DefaultChatModel      = "llama3.2"
)

// Config holds the local provider settings.
type Config struct {
	BaseURL        string
	EmbeddingModel string
	ChatModel      string
	Logger         *zap.Logger
}

// Provider is the Ollama-backed provider.
type Provider struct {
	*openai.Provider
	embeddingModel string
	logger         *zap.Logger
}

// New creates a local provider. JSON mode is off: llama models answer with
// prose around the object, and the first {...} block is parsed instead.
func New(cfg *Config) *Provider {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if !strings.HasSuffix(baseURL, "/v1") {
		baseURL += "/v1"
	}
	embModel := cfg.EmbeddingModel
	if embModel == "" {
		embModel = DefaultEmbeddingModel
	}
	chatModel := cfg.ChatModel
	if chatModel == "" {
		chatModel = DefaultChatModel
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Provider{
		Provider: openai.New(&openai.Config{
			Name: provider.NameOllama,
			// Ollama ignores the key but the client insists on one.
			APIKey:          "ollama",
			BaseURL:         baseURL,
			EmbeddingModel:  embModel,
			ChatModel:       chatModel,
			JSONMode:        false,
			ExtractionChars: provider.LocalExtractionChars,
			Logger:          logger,
		}),
		embeddingModel: embModel,
		logger:         logger,
	}
}

// Probe lists local models. A running daemon without the embedding model
// pulled is reported, since every embed call would fail.
func (p *Provider) Probe(ctx context.Context) error {
	ids, err := p.ListModels(ctx)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if id == p.embeddingModel || strings.TrimSuffix(id, ":latest") == p.embeddingModel {
			return nil
		}
	}
	p.logger.Warn("embedding model not pulled", zap.String("model", p.embeddingModel), zap.Strings("available", ids))
	return fmt.Errorf("model %q not available, run: ollama pull %s: %w",
		p.embeddingModel, p.embeddingModel, domain.ErrProviderUnavailable)
}
