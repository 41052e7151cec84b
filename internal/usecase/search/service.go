package search

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/talentrag/internal/domain"
	"github.com/kailas-cloud/talentrag/internal/domain/document"
	"github.com/kailas-cloud/talentrag/internal/domain/search/filter"
	"github.com/kailas-cloud/talentrag/internal/domain/vector"
	"github.com/kailas-cloud/talentrag/internal/metrics"
	"github.com/kailas-cloud/talentrag/internal/redact"
)

const (
	// MinSimilarity is the floor applied to the raw cosine before ranking.
	MinSimilarity = 0.1

	// DefaultWorkers bounds the parallel scoring goroutines.
	DefaultWorkers = 8
)

// Hit is one ranked, role-shaped search result.
type Hit struct {
	Document   document.View `json:"document"`
	Similarity float64       `json:"similarity"`
}

// Index runs brute-force similarity search over the filtered corpus.
// Every query re-scores the full candidate set; there is no ANN index to rebuild.
type Index struct {
	repo    Repository
	workers int
	logger  *zap.Logger
}

// New creates a similarity index. workers <= 0 uses DefaultWorkers.
func New(repo Repository, workers int, logger *zap.Logger) *Index {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Index{repo: repo, workers: workers, logger: logger}
}

type scored struct {
	doc *document.Document
	sim float64
}

// Search returns up to k hits for the query vector, best first.
// An empty vector or empty candidate set yields no hits and no error.
func (ix *Index) Search(
	ctx context.Context, queryVector []float32, k int, f filter.Filter, role domain.Role,
) ([]Hit, error) {
	if len(queryVector) == 0 || k <= 0 {
		return nil, nil
	}
	start := time.Now()
	defer func() {
		metrics.SearchDuration.WithLabelValues("resume").Observe(time.Since(start).Seconds())
	}()

	candidates, err := ix.repo.Find(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("find candidates: %w", err)
	}
	metrics.SearchCandidates.Observe(float64(len(candidates)))
	if len(candidates) == 0 {
		return nil, nil
	}

	sims, err := ix.scoreAll(ctx, queryVector, candidates)
	if err != nil {
		return nil, err
	}

	ranked := make([]scored, 0, len(candidates))
	for i, d := range candidates {
		if sims[i] >= MinSimilarity {
			ranked = append(ranked, scored{doc: d, sim: sims[i]})
		}
	}
	Rank(ranked, func(s scored) (float64, time.Time, string) {
		return s.sim, s.doc.CreatedAt, s.doc.ID
	})
	if len(ranked) > k {
		ranked = ranked[:k]
	}

	hits := make([]Hit, len(ranked))
	for i, s := range ranked {
		hits[i] = Hit{
			Document:   redact.Strip(s.doc, role),
			Similarity: domain.RoundScore(s.sim),
		}
	}

	ix.logger.Debug("Similarity search",
		zap.Int("candidates", len(candidates)),
		zap.Int("hits", len(hits)),
		zap.Duration("took", time.Since(start)),
	)
	return hits, nil
}

// scoreAll computes cosine for every candidate. Each worker writes only its own slot.
func (ix *Index) scoreAll(ctx context.Context, q []float32, docs []*document.Document) ([]float64, error) {
	sims := make([]float64, len(docs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ix.workers)
	for i, d := range docs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			sims[i] = vector.Cosine(q, d.Embedding)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("score candidates: %w", err)
	}
	return sims, nil
}

// Rank sorts items by score desc, then creation time desc, then id asc.
func Rank[T any](items []T, key func(T) (float64, time.Time, string)) {
	sort.SliceStable(items, func(a, b int) bool {
		sa, ta, ia := key(items[a])
		sb, tb, ib := key(items[b])
		if sa != sb {
			return sa > sb
		}
		if !ta.Equal(tb) {
			return ta.After(tb)
		}
		return ia < ib
	})
}
