package embedding

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/talentrag/internal/domain"
	"github.com/kailas-cloud/talentrag/internal/metrics"
)

// Defaults for the resilient decorator.
const (
	DefaultTimeout  = 30 * time.Second
	DefaultCooldown = 60 * time.Second
)

// Config holds the resilient decorator settings.
type Config struct {
	// MaxInputChars caps every request; callers may ask for less.
	MaxInputChars int
	Timeout       time.Duration
	Cooldown      time.Duration
}

// Resilient wraps an embedder so provider failures never reach the caller.
// Failures become an empty vector. Rate limits and outages additionally put
// the provider in a cool-down window during which it is not called at all.
type Resilient struct {
	inner  domain.Embedder
	cfg    Config
	logger *zap.Logger
	now    func() time.Time

	mu            sync.Mutex
	degradedUntil time.Time
}

// NewResilient creates the decorator.
func NewResilient(inner domain.Embedder, cfg Config, logger *zap.Logger) *Resilient {
	if cfg.MaxInputChars <= 0 {
		cfg.MaxInputChars = domain.DefaultMaxInputChars
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = DefaultCooldown
	}
	return &Resilient{inner: inner, cfg: cfg, logger: logger, now: time.Now}
}

// Embed implements domain.Embedder. The only error it returns is the
// caller's own context cancellation.
func (r *Resilient) Embed(ctx context.Context, text string, maxLength int) (domain.EmbeddingResult, error) {
	if maxLength <= 0 || maxLength > r.cfg.MaxInputChars {
		maxLength = r.cfg.MaxInputChars
	}

	if r.Degraded() {
		metrics.EmbeddingAbsorbedTotal.WithLabelValues("cooldown").Inc()
		return domain.EmbeddingResult{}, nil
	}

	callCtx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	start := time.Now()
	result, err := r.inner.Embed(callCtx, domain.Truncate(text, maxLength), maxLength)
	if err != nil {
		if ctx.Err() != nil {
			return domain.EmbeddingResult{}, ctx.Err()
		}
		reason := "error"
		if errors.Is(err, domain.ErrEmbeddingQuotaExceeded) {
			reason = "quota"
		}
		metrics.EmbeddingAbsorbedTotal.WithLabelValues(reason).Inc()
		if domain.IsTransient(err) || callCtx.Err() != nil {
			r.markDegraded()
		}
		r.logger.Warn("Embedding failed, continuing without vector",
			zap.Duration("duration", time.Since(start)),
			zap.Bool("degraded", r.Degraded()),
			zap.Error(err),
		)
		return domain.EmbeddingResult{}, nil
	}

	r.clearDegraded()
	r.logger.Debug("Embedding request completed",
		zap.Duration("duration", time.Since(start)),
		zap.Int("dimensions", len(result.Embedding)),
		zap.Int("total_tokens", result.TotalTokens),
	)
	return result, nil
}

// Degraded reports whether the provider is inside its cool-down window.
func (r *Resilient) Degraded() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.now().Before(r.degradedUntil)
}

func (r *Resilient) markDegraded() {
	r.mu.Lock()
	r.degradedUntil = r.now().Add(r.cfg.Cooldown)
	r.mu.Unlock()
	metrics.EmbeddingDegraded.Set(1)
}

func (r *Resilient) clearDegraded() {
	r.mu.Lock()
	wasSet := !r.degradedUntil.IsZero()
	r.degradedUntil = time.Time{}
	r.mu.Unlock()
	if wasSet {
		metrics.EmbeddingDegraded.Set(0)
	}
}
