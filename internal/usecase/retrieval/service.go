// Package retrieval orchestrates the query paths: embed, filter, score, shape, answer.
package retrieval

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/talentrag/internal/domain"
	domanswer "github.com/kailas-cloud/talentrag/internal/domain/answer"
	"github.com/kailas-cloud/talentrag/internal/domain/job"
	"github.com/kailas-cloud/talentrag/internal/domain/search/filter"
	"github.com/kailas-cloud/talentrag/internal/domain/search/query"
	"github.com/kailas-cloud/talentrag/internal/logger"
	"github.com/kailas-cloud/talentrag/internal/metrics"
	"github.com/kailas-cloud/talentrag/internal/provider"
	"github.com/kailas-cloud/talentrag/internal/usecase/analytics"
	"github.com/kailas-cloud/talentrag/internal/usecase/answer"
	"github.com/kailas-cloud/talentrag/internal/usecase/search"
)

// Fixed response messages.
const (
	EmptyCorpusText     = "No resumes found in the database. Please upload some resumes first."
	NoMatchText         = "I couldn't find any resumes that match your query. Please try rephrasing your question or adjusting your filters."
	NoResumesToMatch    = "No resumes found for matching"
	DegradedMessage     = "AI service is temporarily unavailable. Results may be incomplete, please try again later."
	NoResultsMessage    = "No matching resumes found"
	jobContextHeader    = "\nCurrent job openings context:\n"
	jobContextDescChars = 200
)

// Defaults.
const (
	DefaultSearchK         = 10
	DefaultAskK            = 5
	DefaultCandidatesK     = 10
	DefaultTopN            = 10
	DefaultJobContextLimit = 3
)

// Config tunes the orchestrator.
type Config struct {
	MaxEvidence     int
	JobContextLimit int
	Workers         int
}

// ApplyDefaults fills zero fields.
func (c *Config) ApplyDefaults() {
	if c.MaxEvidence <= 0 {
		c.MaxEvidence = answer.DefaultMaxEvidence
	}
	if c.JobContextLimit <= 0 {
		c.JobContextLimit = DefaultJobContextLimit
	}
	if c.Workers <= 0 {
		c.Workers = search.DefaultWorkers
	}
}

// Deps are the collaborators of the orchestrator. Events, Tracker and Models may be nil.
type Deps struct {
	Embedder domain.Embedder
	Index    *search.Index
	Corpus   Corpus
	Jobs     JobRepository
	Answerer Answerer
	Scorer   Scorer
	Events   Events
	Tracker  Tracker
	Models   ModelInfo
}

// Service is the single entry point for Search, Ask, CandidatesForRequirements and MatchJob.
// Provider failures never escape it; input errors are typed domain sentinels.
type Service struct {
	d      Deps
	cfg    Config
	logger *zap.Logger
}

// New creates the orchestrator.
func New(d Deps, cfg Config, logger *zap.Logger) *Service {
	cfg.ApplyDefaults()
	if d.Events == nil {
		d.Events = noopEvents{}
	}
	return &Service{d: d, cfg: cfg, logger: logger}
}

// SearchResponse is the result of a semantic search.
type SearchResponse struct {
	Documents    []search.Hit `json:"documents"`
	TotalResults int          `json:"totalResults"`
	Message      string       `json:"message,omitempty"`
	Degraded     bool         `json:"degraded,omitempty"`
	QueryID      string       `json:"queryId,omitempty"`
}

// Search embeds the query and returns the top-k role-shaped hits.
func (s *Service) Search(ctx context.Context, qc query.Context) (SearchResponse, error) {
	start := time.Now()
	vec, err := s.embed(ctx, qc.Text())
	if err != nil {
		return SearchResponse{}, err
	}
	if len(vec) == 0 {
		metrics.SearchResultsTotal.WithLabelValues("degraded").Inc()
		return SearchResponse{Documents: []search.Hit{}, Message: DegradedMessage, Degraded: true}, nil
	}

	hits, err := s.d.Index.Search(ctx, vec, qc.K(), qc.Filter(), qc.Role())
	if err != nil {
		return SearchResponse{}, fmt.Errorf("search: %w", err)
	}

	resp := SearchResponse{Documents: hits, TotalResults: len(hits)}
	if len(hits) == 0 {
		resp.Documents = []search.Hit{}
		resp.Message = NoResultsMessage
		metrics.SearchResultsTotal.WithLabelValues("empty").Inc()
	} else {
		metrics.SearchResultsTotal.WithLabelValues("hits").Inc()
		s.d.Events.ResumesViewed(hitIDs(hits)...)
	}
	resp.QueryID = s.track(ctx, "search", qc.Text(), len(hits), start)
	return resp, nil
}

// AskRequest is one question over the corpus.
type AskRequest struct {
	Context query.Context
	// IncludeJobContext adds the caller's open jobs to the prompt; privileged callers only.
	IncludeJobContext bool
	UserID            string
}

// Metadata describes how an answer was produced.
type Metadata struct {
	// ProcessingTime is in milliseconds.
	ProcessingTime int64           `json:"processingTime"`
	Models         provider.Models `json:"models"`
}

// AskResponse is the answer to a question plus its evidence.
type AskResponse struct {
	Query        string               `json:"query"`
	Answer       string               `json:"answer"`
	Sources      []domanswer.Evidence `json:"sources"`
	TotalResults int                  `json:"totalResults"`
	Filters      Filters              `json:"filters"`
	Message      string               `json:"message,omitempty"`
	Degraded     bool                 `json:"degraded,omitempty"`
	QueryID      string               `json:"queryId,omitempty"`
	Metadata     *Metadata            `json:"metadata,omitempty"`
}

// Ask retrieves evidence for a question and synthesizes an answer.
func (s *Service) Ask(ctx context.Context, req AskRequest) (AskResponse, error) {
	start := time.Now()
	qc := req.Context
	resp := AskResponse{
		Query:   qc.Text(),
		Sources: []domanswer.Evidence{},
		Filters: FiltersOf(qc.Filter()),
	}

	total, err := s.d.Corpus.CountSearchable(ctx)
	if err != nil {
		return AskResponse{}, fmt.Errorf("count resumes: %w", err)
	}
	if total == 0 {
		resp.Answer = EmptyCorpusText
		resp.Message = "No resumes available"
		metrics.SearchResultsTotal.WithLabelValues("empty").Inc()
		return resp, nil
	}

	vec, err := s.embed(ctx, qc.Text())
	if err != nil {
		return AskResponse{}, err
	}
	if len(vec) == 0 {
		resp.Answer = answer.UnavailableText
		resp.Message = DegradedMessage
		resp.Degraded = true
		metrics.SearchResultsTotal.WithLabelValues("degraded").Inc()
		return resp, nil
	}

	hits, err := s.d.Index.Search(ctx, vec, qc.K(), qc.Filter(), qc.Role())
	if err != nil {
		return AskResponse{}, fmt.Errorf("search: %w", err)
	}
	if len(hits) == 0 {
		resp.Answer = NoMatchText
		resp.Message = NoResultsMessage
		metrics.SearchResultsTotal.WithLabelValues("empty").Inc()
		return resp, nil
	}
	metrics.SearchResultsTotal.WithLabelValues("hits").Inc()

	var secondary string
	if req.IncludeJobContext && qc.Role().Privileged() && req.UserID != "" {
		secondary = s.jobContext(ctx, req.UserID)
	}

	ans := s.d.Answerer.Answer(ctx, answer.Request{
		Query:            qc.Text(),
		Hits:             hits,
		MaxEvidence:      s.cfg.MaxEvidence,
		SecondaryContext: secondary,
		Role:             qc.Role(),
	})
	s.d.Events.ResumesViewed(hitIDs(hits)...)

	resp.Answer = ans.Text
	resp.Sources = ans.Evidence
	resp.TotalResults = len(hits)
	resp.Message = "Query processed successfully"
	resp.QueryID = s.track(ctx, "ask", qc.Text(), len(hits), start)
	resp.Metadata = &Metadata{ProcessingTime: time.Since(start).Milliseconds(), Models: s.models()}
	return resp, nil
}

// jobContext renders up to JobContextLimit active jobs of the caller. Failures only log.
func (s *Service) jobContext(ctx context.Context, userID string) string {
	jobs, err := s.d.Jobs.ListByPoster(ctx, userID, job.StatusActive, s.cfg.JobContextLimit)
	if err != nil {
		logger.FromContext(ctx).Warn("Failed to load job context", zap.String("user_id", userID), zap.Error(err))
		return ""
	}
	if len(jobs) == 0 {
		return ""
	}
	lines := make([]string, len(jobs))
	for i, j := range jobs {
		lines[i] = "- " + j.Title + ": " + domain.Truncate(j.Description, jobContextDescChars) + "..."
	}
	return jobContextHeader + strings.Join(lines, "\n")
}

// embed vectorizes query text. An empty vector with nil error means the provider is degraded;
// the only error is the caller's own cancellation.
func (s *Service) embed(ctx context.Context, text string) ([]float32, error) {
	res, err := s.d.Embedder.Embed(ctx, text, 0)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		s.logger.Warn("Query embedding failed", zap.Error(err))
		return nil, nil
	}
	return res.Embedding, nil
}

func (s *Service) track(ctx context.Context, kind, text string, results int, start time.Time) string {
	if s.d.Tracker == nil {
		return ""
	}
	return s.d.Tracker.TrackQuery(ctx, analytics.Query{
		Text:    text,
		Kind:    kind,
		Results: results,
		Took:    time.Since(start),
	})
}

func (s *Service) models() provider.Models {
	if s.d.Models == nil {
		return provider.Models{}
	}
	return s.d.Models.Models()
}

// Filters echoes the structural filter of a request.
type Filters struct {
	ExperienceLevel job.Tier `json:"experienceLevel,omitempty"`
	Location        string   `json:"location,omitempty"`
	Skills          []string `json:"skills,omitempty"`
	Companies       []string `json:"companies,omitempty"`
	Education       string   `json:"education,omitempty"`
}

// FiltersOf summarises a filter for responses.
func FiltersOf(f filter.Filter) Filters {
	return Filters{
		ExperienceLevel: f.Tier(),
		Location:        f.Location(),
		Skills:          f.Skills(),
		Companies:       f.Companies(),
		Education:       f.Education(),
	}
}

func hitIDs(hits []search.Hit) []string {
	ids := make([]string, len(hits))
	for i, h := range hits {
		ids[i] = h.Document.ID
	}
	return ids
}

type noopEvents struct{}

func (noopEvents) ResumesViewed(...string)  {}
func (noopEvents) ResumesMatched(...string) {}
func (noopEvents) JobMatched(string)        {}
