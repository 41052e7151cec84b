package provider

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/talentrag/internal/domain"
)

// Mode is the configured provider selection strategy.
type Mode string

// Selection modes.
const (
	ModeAuto   Mode = "auto"
	ModeOpenAI Mode = NameOpenAI
	ModeGemini Mode = NameGemini
	ModeOllama Mode = NameOllama
)

// DefaultProbeTimeout bounds each liveness probe during auto selection.
const DefaultProbeTimeout = 5 * time.Second

// Selector resolves the active provider once per process; the first caller wins.
// It implements Provider itself by delegating to the resolved backend.
type Selector struct {
	mode         Mode
	hosted       []Provider
	local        Provider
	probeTimeout time.Duration
	logger       *zap.Logger

	once   sync.Once
	active Provider
	err    error
}

// NewSelector creates a Selector. hosted is probed in order; local may be nil.
func NewSelector(mode Mode, hosted []Provider, local Provider, probeTimeout time.Duration, logger *zap.Logger) *Selector {
	if probeTimeout <= 0 {
		probeTimeout = DefaultProbeTimeout
	}
	if mode == "" {
		mode = ModeAuto
	}
	return &Selector{
		mode:         mode,
		hosted:       hosted,
		local:        local,
		probeTimeout: probeTimeout,
		logger:       logger,
	}
}

// Active returns the resolved provider, resolving it on first use.
// Resolution ignores the first caller's cancellation; every provider check has its own timeout.
func (s *Selector) Active(ctx context.Context) (Provider, error) {
	s.once.Do(func() {
		s.active, s.err = s.resolve(context.WithoutCancel(ctx))
		if s.err != nil {
			s.logger.Error("provider selection failed", zap.String("mode", string(s.mode)), zap.Error(s.err))
			return
		}
		s.logger.Info("provider selected",
			zap.String("mode", string(s.mode)),
			zap.String("provider", s.active.Name()),
			zap.String("embedding_model", s.active.Models().Embedding),
			zap.String("generation_model", s.active.Models().Generation),
		)
	})
	return s.active, s.err
}

func (s *Selector) resolve(ctx context.Context) (Provider, error) {
	if s.mode != ModeAuto {
		for _, p := range s.all() {
			if p.Name() == string(s.mode) {
				return p, nil
			}
		}
		return nil, fmt.Errorf("%w: provider %q is not configured", domain.ErrProviderUnavailable, s.mode)
	}

	for _, p := range s.hosted {
		if err := s.probe(ctx, p); err != nil {
			s.logger.Warn("hosted provider probe failed", zap.String("provider", p.Name()), zap.Error(err))
			continue
		}
		return p, nil
	}
	if s.local == nil {
		return nil, fmt.Errorf("%w: no provider answered and no local provider configured", domain.ErrProviderUnavailable)
	}
	if err := s.probe(ctx, s.local); err != nil {
		// keep the local handle anyway; it may come up later
		s.logger.Warn("local provider probe failed, keeping it", zap.String("provider", s.local.Name()), zap.Error(err))
	}
	return s.local, nil
}

func (s *Selector) probe(ctx context.Context, p Provider) error {
	ctx, cancel := context.WithTimeout(ctx, s.probeTimeout)
	defer cancel()
	return p.Probe(ctx)
}

func (s *Selector) all() []Provider {
	out := make([]Provider, 0, len(s.hosted)+1)
	out = append(out, s.hosted...)
	if s.local != nil {
		out = append(out, s.local)
	}
	return out
}

// Name returns the active provider name, or "none" before a successful resolution.
func (s *Selector) Name() string {
	if p, err := s.Active(context.Background()); err == nil {
		return p.Name()
	}
	return "none"
}

// Models returns the active provider models.
func (s *Selector) Models() Models {
	if p, err := s.Active(context.Background()); err == nil {
		return p.Models()
	}
	return Models{}
}

// Probe checks the active provider.
func (s *Selector) Probe(ctx context.Context) error {
	p, err := s.Active(ctx)
	if err != nil {
		return err
	}
	return p.Probe(ctx)
}

// Embed delegates to the active provider.
func (s *Selector) Embed(ctx context.Context, text string, maxLength int) (domain.EmbeddingResult, error) {
	p, err := s.Active(ctx)
	if err != nil {
		return domain.EmbeddingResult{}, err
	}
	return p.Embed(ctx, text, maxLength)
}

// ExtractStructured delegates to the active provider.
func (s *Selector) ExtractStructured(ctx context.Context, text string) (Extraction, error) {
	p, err := s.Active(ctx)
	if err != nil {
		return Extraction{}, err
	}
	return p.ExtractStructured(ctx, text)
}

// GenerateAnswer delegates to the active provider.
func (s *Selector) GenerateAnswer(ctx context.Context, prompt Prompt) (string, error) {
	p, err := s.Active(ctx)
	if err != nil {
		return "", err
	}
	return p.GenerateAnswer(ctx, prompt)
}

// HealthCheck probes the active provider with a fresh timeout.
func (s *Selector) HealthCheck(ctx context.Context) error {
	p, err := s.Active(ctx)
	if err != nil {
		return err
	}
	return s.probe(ctx, p)
}
