package openai

import (
	"context"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/talentrag/internal/domain"
	"github.com/kailas-cloud/talentrag/internal/metrics"
	"github.com/kailas-cloud/talentrag/internal/provider"
)

// Defaults for the hosted OpenAI API.
const (
	DefaultEmbeddingModel = "text-embedding-3-small"
	DefaultChatModel      = "gpt-3.5-turbo"
)

// Provider talks to an OpenAI-compatible API (OpenAI itself, Ollama's /v1, Nebius, ...).
type Provider struct {
	client          *openai.Client
	name            string
	embeddingModel  string
	chatModel       string
	dimensions      int
	jsonMode        bool
	extractionChars int
	logger          *zap.Logger
}

// Config holds the provider settings.
type Config struct {
	// Name labels logs and metrics, and is matched by explicit provider selection.
	Name           string
	APIKey         string
	BaseURL        string
	EmbeddingModel string
	ChatModel      string
	Dimensions     int
	// JSONMode requests response_format=json_object for extraction.
	JSONMode        bool
	ExtractionChars int
	Logger          *zap.Logger
}

// New creates an OpenAI-compatible provider.
func New(cfg *Config) *Provider {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	p := &Provider{
		client:          openai.NewClientWithConfig(clientCfg),
		name:            cfg.Name,
		embeddingModel:  cfg.EmbeddingModel,
		chatModel:       cfg.ChatModel,
		dimensions:      cfg.Dimensions,
		jsonMode:        cfg.JSONMode,
		extractionChars: cfg.ExtractionChars,
		logger:          cfg.Logger,
	}
	if p.name == "" {
		p.name = provider.NameOpenAI
	}
	if p.embeddingModel == "" {
		p.embeddingModel = DefaultEmbeddingModel
	}
	if p.chatModel == "" {
		p.chatModel = DefaultChatModel
	}
	if p.extractionChars <= 0 {
		p.extractionChars = provider.HostedExtractionChars
	}
	if p.logger == nil {
		p.logger = zap.NewNop()
	}
	return p
}

// Name implements provider.Provider.
func (p *Provider) Name() string { return p.name }

// Models implements provider.Provider.
func (p *Provider) Models() provider.Models {
	return provider.Models{Embedding: p.embeddingModel, Generation: p.chatModel}
}

// Probe embeds a tiny text; a hosted key that cannot embed is useless to us.
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

	req := openai.EmbeddingRequest{
		Input:          []string{text},
		Model:          openai.EmbeddingModel(p.embeddingModel),
		EncodingFormat: openai.EmbeddingEncodingFormatFloat,
	}
	if p.dimensions > 0 {
		req.Dimensions = p.dimensions
	}

	start := time.Now()
	resp, err := p.client.CreateEmbeddings(ctx, req)
	if err != nil {
		err = classify("embedding", err, domain.ErrEmbeddingProviderError)
		metrics.ObserveProviderCall(p.name, p.embeddingModel, "embed", start, err)
		return domain.EmbeddingResult{}, err
	}
	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		err = fmt.Errorf("empty embedding response: %w", domain.ErrEmbeddingProviderError)
		metrics.ObserveProviderCall(p.name, p.embeddingModel, "embed", start, err)
		return domain.EmbeddingResult{}, err
	}
	metrics.ObserveProviderCall(p.name, p.embeddingModel, "embed", start, nil)

	if resp.Usage.TotalTokens > 0 {
		metrics.EmbeddingTokensTotal.WithLabelValues(p.name, p.embeddingModel, "prompt").Add(float64(resp.Usage.PromptTokens))
		metrics.EmbeddingTokensTotal.WithLabelValues(p.name, p.embeddingModel, "total").Add(float64(resp.Usage.TotalTokens))
	}

	return domain.EmbeddingResult{
		Embedding:    resp.Data[0].Embedding,
		PromptTokens: resp.Usage.PromptTokens,
		TotalTokens:  resp.Usage.TotalTokens,
	}, nil
}

// ExtractStructured implements provider.Provider.
func (p *Provider) ExtractStructured(ctx context.Context, text string) (provider.Extraction, error) {
	prompt := provider.ExtractionPrompt(text, p.extractionChars)
	prompt.JSON = p.jsonMode

	start := time.Now()
	raw, err := p.complete(ctx, prompt)
	if err != nil {
		err = classify("extraction", err, domain.ErrGenerationProviderError)
		metrics.ObserveProviderCall(p.name, p.chatModel, "extract", start, err)
		return provider.Extraction{}, err
	}
	ex, err := provider.ParseExtraction(raw)
	metrics.ObserveProviderCall(p.name, p.chatModel, "extract", start, err)
	if err != nil {
		return provider.Extraction{}, fmt.Errorf("parse extraction: %w", err)
	}
	return ex, nil
}

// GenerateAnswer implements provider.Provider.
func (p *Provider) GenerateAnswer(ctx context.Context, prompt provider.Prompt) (string, error) {
	start := time.Now()
	out, err := p.complete(ctx, prompt)
	if err != nil {
		err = classify("generation", err, domain.ErrGenerationProviderError)
	}
	metrics.ObserveProviderCall(p.name, p.chatModel, "generate", start, err)
	return out, err
}

// ListModels returns the model ids served by the endpoint.
func (p *Provider) ListModels(ctx context.Context) ([]string, error) {
	start := time.Now()
	list, err := p.client.ListModels(ctx)
	if err != nil {
		err = classify("list models", err, domain.ErrProviderUnavailable)
		metrics.ObserveProviderCall(p.name, "", "probe", start, err)
		return nil, err
	}
	metrics.ObserveProviderCall(p.name, "", "probe", start, nil)
	ids := make([]string, 0, len(list.Models))
	for _, m := range list.Models {
		ids = append(ids, m.ID)
	}
	return ids, nil
}

// HealthCheck verifies API availability via ListModels (free endpoint).
func (p *Provider) HealthCheck(ctx context.Context) error {
	if _, err := p.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

func (p *Provider) complete(ctx context.Context, prompt provider.Prompt) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if prompt.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: prompt.System})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: prompt.User})

	req := openai.ChatCompletionRequest{
		Model:       p.chatModel,
		Messages:    messages,
		Temperature: prompt.Temperature,
		MaxTokens:   prompt.MaxTokens,
	}
	if prompt.JSON {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject}
	}

	resp, err := p.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty completion response: %w", domain.ErrGenerationProviderError)
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("empty completion content: %w", domain.ErrGenerationProviderError)
	}
	return content, nil
}
