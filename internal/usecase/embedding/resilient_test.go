package embedding

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/talentrag/internal/domain"
	"github.com/kailas-cloud/talentrag/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.RegisterProviderMetrics()
	os.Exit(m.Run())
}

// --- Mocks ---

type mockEmbedder struct {
	mu      sync.Mutex
	result  domain.EmbeddingResult
	err     error
	calls   int
	gotText string
	gotMax  int
}

func (m *mockEmbedder) Embed(_ context.Context, text string, maxLength int) (domain.EmbeddingResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.gotText = text
	m.gotMax = maxLength
	return m.result, m.err
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func newTestResilient(inner domain.Embedder, clock *fakeClock) *Resilient {
	r := NewResilient(inner, Config{MaxInputChars: 10, Cooldown: time.Minute}, zap.NewNop())
	r.now = clock.now
	return r
}

// --- Tests ---

func TestResilient_Success(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{0.1, 0.2}}}
	r := newTestResilient(inner, &fakeClock{t: time.Unix(0, 0)})

	res, err := r.Embed(context.Background(), "hello", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Embedding) != 2 {
		t.Errorf("expected 2 dims, got %d", len(res.Embedding))
	}
}

func TestResilient_TruncatesToConfiguredMax(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{1}}}
	r := newTestResilient(inner, &fakeClock{t: time.Unix(0, 0)})

	if _, err := r.Embed(context.Background(), "0123456789abcdef", 100); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.gotText != "0123456789" || inner.gotMax != 10 {
		t.Errorf("expected cap at 10 chars, got %q (max %d)", inner.gotText, inner.gotMax)
	}

	if _, err := r.Embed(context.Background(), "0123456789abcdef", 4); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.gotText != "0123" {
		t.Errorf("expected caller limit to win when smaller, got %q", inner.gotText)
	}
}

func TestResilient_TransientErrorStartsCooldown(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	inner := &mockEmbedder{err: fmt.Errorf("429: %w", domain.ErrRateLimited)}
	r := newTestResilient(inner, clock)

	res, err := r.Embed(context.Background(), "hello", 0)
	if err != nil {
		t.Fatalf("provider error must be absorbed, got %v", err)
	}
	if !res.Empty() {
		t.Error("expected empty vector")
	}
	if !r.Degraded() {
		t.Fatal("expected degraded state")
	}

	// within the window the provider is skipped
	clock.t = clock.t.Add(30 * time.Second)
	if _, err := r.Embed(context.Background(), "hello", 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.calls != 1 {
		t.Errorf("expected provider to be skipped during cool-down, calls=%d", inner.calls)
	}

	// after the window it is retried and recovers
	clock.t = clock.t.Add(31 * time.Second)
	inner.err = nil
	inner.result = domain.EmbeddingResult{Embedding: []float32{1}}
	res, err = r.Embed(context.Background(), "hello", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Empty() || r.Degraded() {
		t.Error("expected recovery after cool-down")
	}
	if inner.calls != 2 {
		t.Errorf("expected 2 provider calls, got %d", inner.calls)
	}
}

func TestResilient_PermanentErrorNoCooldown(t *testing.T) {
	inner := &mockEmbedder{err: fmt.Errorf("401: %w", domain.ErrEmbeddingProviderError)}
	r := newTestResilient(inner, &fakeClock{t: time.Unix(0, 0)})

	res, err := r.Embed(context.Background(), "hello", 0)
	if err != nil || !res.Empty() {
		t.Fatalf("expected absorbed empty result, got %v / %v", res, err)
	}
	if r.Degraded() {
		t.Error("non-transient error should not start a cool-down")
	}
}

func TestResilient_QuotaAbsorbed(t *testing.T) {
	inner := &mockEmbedder{err: fmt.Errorf("daily budget: %w", domain.ErrEmbeddingQuotaExceeded)}
	r := newTestResilient(inner, &fakeClock{t: time.Unix(0, 0)})

	res, err := r.Embed(context.Background(), "hello", 0)
	if err != nil || !res.Empty() {
		t.Fatalf("expected absorbed empty result, got %v / %v", res, err)
	}
	if r.Degraded() {
		t.Error("exhausted budget should not start a cool-down")
	}
}

func TestResilient_CallerCancellationPropagates(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	inner := &mockEmbedder{err: context.Canceled}
	r := newTestResilient(inner, &fakeClock{t: time.Unix(0, 0)})

	_, err := r.Embed(ctx, "hello", 0)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if r.Degraded() {
		t.Error("caller cancellation must not degrade the provider")
	}
}
