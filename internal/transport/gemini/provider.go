package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/kailas-cloud/talentrag/internal/domain"
	"github.com/kailas-cloud/talentrag/internal/metrics"
	"github.com/kailas-cloud/talentrag/internal/provider"
)

const (
	defaultEmbeddingModel = "text-embedding-004"
	defaultChatModel      = "gemini-2.5-flash"
)

// modelsAPI is the slice of genai.Models the provider uses.
type modelsAPI interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
	EmbedContent(ctx context.Context, model string, contents []*genai.Content, config *genai.EmbedContentConfig) (*genai.EmbedContentResponse, error)
}

// Provider is the hosted Gemini backend.
type Provider struct {
	models         modelsAPI
	embeddingModel string
	chatModel      string
	dimensions     int32
	logger         *zap.Logger
}

// Config holds the Gemini settings.
type Config struct {
	APIKey         string
	EmbeddingModel string
	ChatModel      string
	Dimensions     int
	Logger         *zap.Logger
}

// New creates a Gemini provider configured for the Gemini API backend.
func New(ctx context.Context, cfg *Config) (*Provider, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return newProvider(client.Models, cfg), nil
}

func newProvider(models modelsAPI, cfg *Config) *Provider {
	p := &Provider{
		models:         models,
		embeddingModel: strings.TrimSpace(cfg.EmbeddingModel),
		chatModel:      strings.TrimSpace(cfg.ChatModel),
		dimensions:     int32(cfg.Dimensions), //nolint:gosec // bounded by config validation
		logger:         cfg.Logger,
	}
	if p.embeddingModel == "" {
		p.embeddingModel = defaultEmbeddingModel
	}
	if p.chatModel == "" {
		p.chatModel = defaultChatModel
	}
	if p.logger == nil {
		p.logger = zap.NewNop()
	}
	return p
}

// Name implements provider.Provider.
func (p *Provider) Name() string { return provider.NameGemini }

// Models implements provider.Provider.
func (p *Provider) Models() provider.Models {
	return provider.Models{Embedding: p.embeddingModel, Generation: p.chatModel}
}

// Probe embeds a tiny text.
func (p *Provider) Probe(ctx context.Context) error {
	res, err := p.Embed(ctx, "test", 0)
	if err != nil {
		return err
	}
	if res.Empty() {
		return fmt.Errorf("probe returned empty vector: %w", domain.ErrEmbeddingProviderError)
	}
	return nil
}

// Embed implements provider.Provider.
func (p *Provider) Embed(ctx context.Context, text string, maxLength int) (domain.EmbeddingResult, error) {
	text = domain.Truncate(text, maxLength)
	if strings.TrimSpace(text) == "" {
		return domain.EmbeddingResult{}, fmt.Errorf("empty input: %w", domain.ErrEmbeddingProviderError)
	}

	var cfg *genai.EmbedContentConfig
	if p.dimensions > 0 {
		dims := p.dimensions
		cfg = &genai.EmbedContentConfig{OutputDimensionality: &dims}
	}

	start := time.Now()
	resp, err := p.models.EmbedContent(ctx, p.embeddingModel, genai.Text(text), cfg)
	if err != nil {
		err = classify("embedding", err, domain.ErrEmbeddingProviderError)
		metrics.ObserveProviderCall(provider.NameGemini, p.embeddingModel, "embed", start, err)
		return domain.EmbeddingResult{}, err
	}
	if resp == nil || len(resp.Embeddings) == 0 || resp.Embeddings[0] == nil || len(resp.Embeddings[0].Values) == 0 {
		err = fmt.Errorf("empty embedding response: %w", domain.ErrEmbeddingProviderError)
		metrics.ObserveProviderCall(provider.NameGemini, p.embeddingModel, "embed", start, err)
		return domain.EmbeddingResult{}, err
	}
	metrics.ObserveProviderCall(provider.NameGemini, p.embeddingModel, "embed", start, nil)

	return domain.EmbeddingResult{Embedding: resp.Embeddings[0].Values}, nil
}

// ExtractStructured implements provider.Provider.
func (p *Provider) ExtractStructured(ctx context.Context, text string) (provider.Extraction, error) {
	prompt := provider.ExtractionPrompt(text, provider.HostedExtractionChars)

	start := time.Now()
	raw, err := p.generate(ctx, prompt)
	if err != nil {
		metrics.ObserveProviderCall(provider.NameGemini, p.chatModel, "extract", start, err)
		return provider.Extraction{}, err
	}
	ex, err := provider.ParseExtraction(raw)
	metrics.ObserveProviderCall(provider.NameGemini, p.chatModel, "extract", start, err)
	if err != nil {
		return provider.Extraction{}, fmt.Errorf("parse extraction: %w", err)
	}
	return ex, nil
}

// GenerateAnswer implements provider.Provider.
func (p *Provider) GenerateAnswer(ctx context.Context, prompt provider.Prompt) (string, error) {
	start := time.Now()
	out, err := p.generate(ctx, prompt)
	metrics.ObserveProviderCall(provider.NameGemini, p.chatModel, "generate", start, err)
	return out, err
}

func (p *Provider) generate(ctx context.Context, prompt provider.Prompt) (string, error) {
	temperature := prompt.Temperature
	cfg := &genai.GenerateContentConfig{
		Temperature:     &temperature,
		MaxOutputTokens: int32(prompt.MaxTokens), //nolint:gosec // small constant
	}
	if prompt.System != "" {
		cfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: prompt.System}}}
	}
	if prompt.JSON {
		cfg.ResponseMIMEType = "application/json"
	}

	resp, err := p.models.GenerateContent(ctx, p.chatModel, genai.Text(prompt.User), cfg)
	if err != nil {
		return "", classify("generation", err, domain.ErrGenerationProviderError)
	}

	var builder strings.Builder
	if resp != nil {
		for _, candidate := range resp.Candidates {
			if candidate == nil || candidate.Content == nil {
				continue
			}
			for _, part := range candidate.Content.Parts {
				if part == nil {
					continue
				}
				text := strings.TrimSpace(part.Text)
				if text == "" {
					continue
				}
				if builder.Len() > 0 {
					builder.WriteString("\n")
				}
				builder.WriteString(text)
			}
		}
	}

	output := strings.TrimSpace(builder.String())
	if output == "" {
		return "", fmt.Errorf("gemini api returned empty response: %w", domain.ErrGenerationProviderError)
	}
	return output, nil
}

// classify turns a genai error into a typed domain error.
func classify(op string, err error, wrap error) error {
	code := 0
	var apiErr genai.APIError
	var apiErrPtr *genai.APIError
	switch {
	case errors.As(err, &apiErr):
		code = apiErr.Code
	case errors.As(err, &apiErrPtr):
		code = apiErrPtr.Code
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%s request timed out: %w: %w", op, domain.ErrProviderUnavailable, wrap)
	default:
		return fmt.Errorf("%s request failed: %v: %w", op, err, wrap)
	}

	switch {
	case code == http.StatusTooManyRequests:
		return fmt.Errorf("%s API error %d: %v: %w: %w", op, code, err, domain.ErrRateLimited, wrap)
	case code >= http.StatusInternalServerError:
		return fmt.Errorf("%s API error %d: %v: %w: %w", op, code, err, domain.ErrProviderUnavailable, wrap)
	default:
		return fmt.Errorf("%s API error %d: %v: %w", op, code, err, wrap)
	}
}
