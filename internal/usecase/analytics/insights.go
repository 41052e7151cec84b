package analytics

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/talentrag/internal/domain/job"
	"github.com/kailas-cloud/talentrag/internal/domain/search/filter"
	"github.com/kailas-cloud/talentrag/internal/logger"
)

// Aggregation bounds.
const (
	RecentWindow = 30 * 24 * time.Hour
	TopSkills    = 20
)

var tierOrder = []job.Tier{job.TierEntry, job.TierMid, job.TierSenior, job.TierLead, job.TierExecutive}

// SkillCount is one row of the skill distribution.
type SkillCount struct {
	Skill string `json:"skill"`
	Count int    `json:"count"`
}

// TierCount is one row of the experience distribution.
type TierCount struct {
	Tier  job.Tier `json:"tier"`
	Count int      `json:"count"`
}

// Insights summarises the searchable corpus.
type Insights struct {
	TotalResumes           int          `json:"totalResumes"`
	RecentResumes          int          `json:"recentResumes"`
	SkillDistribution      []SkillCount `json:"skillDistribution"`
	ExperienceDistribution []TierCount  `json:"experienceDistribution"`
	Timeframe              string       `json:"timeframe"`
}

// Query is one tracked retrieval request.
type Query struct {
	Text    string
	UserID  string
	Kind    string
	Results int
	Took    time.Duration
}

// Service computes corpus insights and logs queries.
type Service struct {
	corpus Corpus
	now    func() time.Time
}

// New creates an analytics service.
func New(corpus Corpus) *Service {
	return &Service{corpus: corpus, now: time.Now}
}

// TrackQuery logs one query line and returns its id. It never fails.
func (s *Service) TrackQuery(ctx context.Context, q Query) string {
	id := uuid.NewString()
	logger.FromContext(ctx).Info("Query tracked",
		zap.String("query_id", id),
		zap.String("kind", q.Kind),
		zap.String("user_id", q.UserID),
		zap.Int("query_len", len(q.Text)),
		zap.Int("results", q.Results),
		zap.Duration("took", q.Took),
	)
	return id
}

// Insights aggregates the searchable corpus: totals, the last 30 days,
// the top skills by exact name and the experience tier histogram.
func (s *Service) Insights(ctx context.Context) (Insights, error) {
	docs, err := s.corpus.Find(ctx, filter.Filter{})
	if err != nil {
		return Insights{}, fmt.Errorf("list resumes: %w", err)
	}

	cutoff := s.now().Add(-RecentWindow)
	skills := make(map[string]int)
	tiers := make(map[job.Tier]int)
	out := Insights{TotalResumes: len(docs), Timeframe: "30d"}

	for _, d := range docs {
		if !d.CreatedAt.Before(cutoff) {
			out.RecentResumes++
		}
		for _, name := range d.Structured.SkillNames() {
			skills[name]++
		}
		tiers[TierOf(d.YearsOfExperience)]++
	}

	out.SkillDistribution = make([]SkillCount, 0, len(skills))
	for name, n := range skills {
		out.SkillDistribution = append(out.SkillDistribution, SkillCount{Skill: name, Count: n})
	}
	sort.Slice(out.SkillDistribution, func(i, j int) bool {
		a, b := out.SkillDistribution[i], out.SkillDistribution[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Skill < b.Skill
	})
	if len(out.SkillDistribution) > TopSkills {
		out.SkillDistribution = out.SkillDistribution[:TopSkills]
	}

	out.ExperienceDistribution = make([]TierCount, 0, len(tierOrder))
	for _, t := range tierOrder {
		if n := tiers[t]; n > 0 {
			out.ExperienceDistribution = append(out.ExperienceDistribution, TierCount{Tier: t, Count: n})
		}
	}
	return out, nil
}

// TierOf maps years of experience to the tier whose band contains it.
func TierOf(years float64) job.Tier {
	for _, t := range tierOrder {
		if b, ok := t.Band(); ok && b.Contains(years) {
			return t
		}
	}
	return job.TierEntry
}
