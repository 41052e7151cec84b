package retrieval

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/talentrag/internal/domain"
	"github.com/kailas-cloud/talentrag/internal/domain/document"
	"github.com/kailas-cloud/talentrag/internal/domain/match"
	"github.com/kailas-cloud/talentrag/internal/domain/search/filter"
	"github.com/kailas-cloud/talentrag/internal/domain/search/query"
	"github.com/kailas-cloud/talentrag/internal/metrics"
	"github.com/kailas-cloud/talentrag/internal/usecase/scoring"
	"github.com/kailas-cloud/talentrag/internal/usecase/search"
)

const anonymousName = "Anonymous"

// CandidateMatch is one scored résumé for a job.
type CandidateMatch struct {
	match.Result
	CandidateName     string    `json:"candidateName"`
	YearsOfExperience float64   `json:"yearsOfExperience"`
	CurrentPosition   string    `json:"currentPosition,omitempty"`
	UploadedAt        time.Time `json:"uploadedAt"`
}

// Criteria states the blend weights as percentages.
type Criteria struct {
	Semantic   string `json:"semanticSimilarity"`
	Skills     string `json:"skillsMatch"`
	Experience string `json:"experienceMatch"`
}

// MatchResponse ranks every searchable résumé against one job.
type MatchResponse struct {
	JobID           string           `json:"jobId"`
	JobTitle        string           `json:"jobTitle"`
	Company         string           `json:"company,omitempty"`
	Matches         []CandidateMatch `json:"matches"`
	TotalCandidates int              `json:"totalCandidates"`
	Criteria        *Criteria        `json:"matchingCriteria,omitempty"`
	Message         string           `json:"message,omitempty"`
}

// MatchJob scores all searchable résumés against the job and returns the best topN.
// Non-privileged callers see "Candidate N" instead of names.
func (s *Service) MatchJob(ctx context.Context, jobID string, topN int, role domain.Role) (MatchResponse, error) {
	if jobID == "" {
		return MatchResponse{}, fmt.Errorf("%w: job id is required", domain.ErrInvalidQuery)
	}
	if topN < 0 {
		return MatchResponse{}, fmt.Errorf("%w: top_n must be positive, got %d", domain.ErrInvalidQuery, topN)
	}
	if topN == 0 {
		topN = DefaultTopN
	}
	if topN > query.MaxK {
		topN = query.MaxK
	}

	j, err := s.d.Jobs.Get(ctx, jobID)
	if err != nil {
		return MatchResponse{}, fmt.Errorf("get job: %w", err)
	}
	resp := MatchResponse{JobID: j.ID, JobTitle: j.Title, Company: j.Company, Matches: []CandidateMatch{}}

	start := time.Now()
	defer func() {
		metrics.SearchDuration.WithLabelValues("match").Observe(time.Since(start).Seconds())
	}()

	docs, err := s.d.Corpus.Find(ctx, filter.Filter{})
	if err != nil {
		return MatchResponse{}, fmt.Errorf("find resumes: %w", err)
	}
	if len(docs) == 0 {
		resp.Message = NoResumesToMatch
		return resp, nil
	}

	results := make([]match.Result, len(docs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Workers)
	for i, d := range docs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = s.d.Scorer.Score(j, d)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return MatchResponse{}, fmt.Errorf("score resumes: %w", err)
	}

	type pair struct {
		res match.Result
		doc *document.Document
	}
	ranked := make([]pair, len(docs))
	for i := range docs {
		ranked[i] = pair{res: results[i], doc: docs[i]}
	}
	search.Rank(ranked, func(p pair) (float64, time.Time, string) {
		return p.res.Overall, p.doc.CreatedAt, p.doc.ID
	})
	if len(ranked) > topN {
		ranked = ranked[:topN]
	}

	ids := make([]string, len(ranked))
	for i, p := range ranked {
		resp.Matches = append(resp.Matches, CandidateMatch{
			Result:            p.res,
			CandidateName:     matchName(p.doc, i, role),
			YearsOfExperience: p.doc.YearsOfExperience,
			CurrentPosition:   p.doc.CurrentPosition,
			UploadedAt:        p.doc.CreatedAt,
		})
		ids[i] = p.doc.ID
	}
	resp.TotalCandidates = len(docs)
	resp.Criteria = criteriaOf(s.d.Scorer)
	resp.Message = "Found " + strconv.Itoa(len(resp.Matches)) + " matching candidates"

	s.d.Events.JobMatched(j.ID)
	s.d.Events.ResumesMatched(ids...)
	s.logger.Debug("Job matched",
		zap.String("job_id", j.ID),
		zap.Int("candidates", len(docs)),
		zap.Int("matches", len(resp.Matches)),
	)
	return resp, nil
}

func matchName(d *document.Document, i int, role domain.Role) string {
	if !role.Privileged() {
		return "Candidate " + strconv.Itoa(i+1)
	}
	if d.PersonalInfo.Name == "" {
		return anonymousName
	}
	return d.PersonalInfo.Name
}

func criteriaOf(sc Scorer) *Criteria {
	w := scoring.DefaultWeights
	if ws, ok := sc.(interface{ Weights() scoring.Weights }); ok {
		w = ws.Weights()
	}
	return &Criteria{
		Semantic:   percent(w.Semantic),
		Skills:     percent(w.Skill),
		Experience: percent(w.Experience),
	}
}

func percent(v float64) string {
	return strconv.Itoa(int(math.Round(v*100))) + "%"
}
