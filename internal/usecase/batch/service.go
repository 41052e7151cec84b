// Package batch ingests many résumés at once with per-item error reporting.
package batch

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/talentrag/internal/domain"
	"github.com/kailas-cloud/talentrag/internal/usecase/ingest"
)

// Defaults for the batch service.
const (
	MaxBatchSize   = 100
	DefaultWorkers = 4
)

// ItemStatus is the processing outcome of a single batch item.
type ItemStatus string

// Batch item status values.
const (
	StatusOK    ItemStatus = "ok"
	StatusError ItemStatus = "error"
)

// Result is the outcome of one item. Results keep the input order.
type Result struct {
	ID     string
	Status ItemStatus
	// Ingested is set when Status is ok.
	Ingested ingest.Result
	Err      error
}

// Summary counts a batch outcome.
type Summary struct {
	OK       int `json:"ok"`
	Failed   int `json:"failed"`
	Fallback int `json:"fallbackExtractions"`
	// Unsearchable counts résumés stored without an embedding.
	Unsearchable int `json:"unsearchable"`
}

// Summarize counts results.
func Summarize(results []Result) Summary {
	var s Summary
	for _, r := range results {
		if r.Status != StatusOK {
			s.Failed++
			continue
		}
		s.OK++
		if r.Ingested.Fallback {
			s.Fallback++
		}
		if r.Ingested.Document != nil && !r.Ingested.Document.Searchable() {
			s.Unsearchable++
		}
	}
	return s
}

// Service runs résumé ingestion over a bounded worker pool.
type Service struct {
	ingest       ResumeIngester
	workers      int
	maxBatchSize int
	logger       *zap.Logger
}

// New creates a batch service. workers <= 0 means DefaultWorkers.
func New(ingest ResumeIngester, workers int, logger *zap.Logger) *Service {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Service{
		ingest:       ingest,
		workers:      workers,
		maxBatchSize: MaxBatchSize,
		logger:       logger,
	}
}

// WithMaxBatchSize configures the maximum batch size.
func (s *Service) WithMaxBatchSize(size int) *Service {
	if size > 0 {
		s.maxBatchSize = size
	}
	return s
}

// MaxBatchSize returns the configured maximum batch size.
func (s *Service) MaxBatchSize() int { return s.maxBatchSize }

// Ingest ingests items concurrently. One failing item never stops the others;
// a cancelled context fails every item not yet started. Items repeating an
// earlier non-empty ID fail without being ingested.
func (s *Service) Ingest(ctx context.Context, items []ingest.Input) []Result {
	results := make([]Result, len(items))

	if len(items) > s.maxBatchSize {
		for i, item := range items {
			results[i] = errorResult(item.ID,
				fmt.Errorf("batch size exceeds %d: %w", s.maxBatchSize, domain.ErrInvalidDocument))
		}
		return results
	}

	seen := make(map[string]bool, len(items))
	g := new(errgroup.Group)
	g.SetLimit(s.workers)
	for i, item := range items {
		if item.ID != "" {
			if seen[item.ID] {
				results[i] = errorResult(item.ID,
					fmt.Errorf("duplicate id %q in batch: %w", item.ID, domain.ErrInvalidDocument))
				continue
			}
			seen[item.ID] = true
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i] = errorResult(item.ID, err)
				return nil
			}
			res, err := s.ingest.IngestResume(ctx, item)
			if err != nil {
				results[i] = errorResult(item.ID, err)
				return nil
			}
			results[i] = Result{ID: res.Document.ID, Status: StatusOK, Ingested: res}
			return nil
		})
	}
	_ = g.Wait()

	sum := Summarize(results)
	s.logger.Info("Batch ingested",
		zap.Int("items", len(items)),
		zap.Int("ok", sum.OK),
		zap.Int("failed", sum.Failed),
		zap.Int("unsearchable", sum.Unsearchable),
	)
	return results
}

func errorResult(id string, err error) Result {
	return Result{ID: id, Status: StatusError, Err: err}
}
