// Package usage tracks embedding token consumption against daily and monthly budgets.
package usage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/talentrag/internal/domain"
)

// scope namespaces the counters; only embeddings are budgeted.
const scope = "embedding"

// Period selects the report window.
type Period string

// Report periods.
const (
	PeriodDay   Period = "day"
	PeriodMonth Period = "month"
)

// ParsePeriod accepts "day" or "month" (case-insensitive). Empty means day.
func ParsePeriod(s string) (Period, error) {
	switch Period(strings.ToLower(strings.TrimSpace(s))) {
	case "", PeriodDay:
		return PeriodDay, nil
	case PeriodMonth:
		return PeriodMonth, nil
	default:
		return "", fmt.Errorf("%w: period must be day or month, got %q", domain.ErrInvalidQuery, s)
	}
}

// Limits are token caps. Zero means unlimited.
type Limits struct {
	Daily   int64
	Monthly int64
}

// Report is the token usage of one period.
type Report struct {
	Period    Period    `json:"period"`
	Start     time.Time `json:"periodStart"`
	End       time.Time `json:"periodEnd"`
	Limit     int64     `json:"tokensLimit"`
	Used      int64     `json:"tokensUsed"`
	Remaining int64     `json:"tokensRemaining"`
	Exhausted bool      `json:"exhausted"`
}

// Service handles budget enforcement and usage reporting.
type Service struct {
	store  BudgetStore
	limits Limits
	logger *zap.Logger
	now    func() time.Time
}

// New creates a Service.
func New(store BudgetStore, limits Limits, logger *zap.Logger) *Service {
	return &Service{store: store, limits: limits, logger: logger, now: time.Now}
}

// Allow returns domain.ErrEmbeddingQuotaExceeded once either limit is reached.
// A store failure lets the call through.
func (s *Service) Allow(ctx context.Context) error {
	now := s.now()
	checks := []struct {
		name  string
		limit int64
		key   string
	}{
		{"daily", s.limits.Daily, dailyKey(now)},
		{"monthly", s.limits.Monthly, monthlyKey(now)},
	}
	for _, c := range checks {
		if c.limit <= 0 {
			continue
		}
		used, err := s.store.Get(ctx, c.key)
		if err != nil {
			s.logger.Warn("Budget read failed, allowing call", zap.String("window", c.name), zap.Error(err))
			continue
		}
		if used >= c.limit {
			return fmt.Errorf("%s budget of %d tokens used: %w", c.name, c.limit, domain.ErrEmbeddingQuotaExceeded)
		}
	}
	return nil
}

// Record adds consumed tokens to the current day and month.
func (s *Service) Record(ctx context.Context, tokens int) {
	if tokens <= 0 {
		return
	}
	now := s.now()
	for _, key := range []string{dailyKey(now), monthlyKey(now)} {
		if err := s.store.IncrBy(ctx, key, int64(tokens)); err != nil {
			s.logger.Warn("Budget write failed", zap.String("key", key), zap.Error(err))
		}
	}
}

// Report builds the usage report for the given period.
func (s *Service) Report(ctx context.Context, period Period) (Report, error) {
	now := s.now().UTC()
	r := Report{Period: period}
	var key string

	switch period {
	case PeriodMonth:
		r.Start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		r.End = r.Start.AddDate(0, 1, 0)
		r.Limit = s.limits.Monthly
		key = monthlyKey(now)
	default:
		r.Period = PeriodDay
		r.Start = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		r.End = r.Start.Add(24 * time.Hour)
		r.Limit = s.limits.Daily
		key = dailyKey(now)
	}

	used, err := s.store.Get(ctx, key)
	if err != nil {
		return Report{}, fmt.Errorf("read usage: %w", err)
	}
	r.Used = used
	if r.Limit > 0 {
		r.Remaining = max(r.Limit-used, 0)
		r.Exhausted = r.Remaining == 0
	}
	return r, nil
}

// Guard wraps inner so every call is checked against the budget and its tokens recorded.
func (s *Service) Guard(inner domain.Embedder) *Guard {
	return &Guard{inner: inner, svc: s}
}

// Guard is an embedder decorator enforcing the token budget.
type Guard struct {
	inner domain.Embedder
	svc   *Service
}

// Embed implements domain.Embedder.
func (g *Guard) Embed(ctx context.Context, text string, maxLength int) (domain.EmbeddingResult, error) {
	if err := g.svc.Allow(ctx); err != nil {
		return domain.EmbeddingResult{}, err
	}
	result, err := g.inner.Embed(ctx, text, maxLength)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("budgeted embed: %w", err)
	}
	g.svc.Record(ctx, result.TotalTokens)
	return result, nil
}

func dailyKey(t time.Time) string {
	return domain.KeyPrefix + "budget:" + scope + ":daily:" + t.UTC().Format("2006-01-02")
}

func monthlyKey(t time.Time) string {
	return domain.KeyPrefix + "budget:" + scope + ":monthly:" + t.UTC().Format("2006-01")
}
