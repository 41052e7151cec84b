package chi

import (
	"context"

	"github.com/kailas-cloud/talentrag/internal/domain"
	"github.com/kailas-cloud/talentrag/internal/domain/search/query"
	"github.com/kailas-cloud/talentrag/internal/usecase/analytics"
	"github.com/kailas-cloud/talentrag/internal/usecase/health"
	"github.com/kailas-cloud/talentrag/internal/usecase/retrieval"
	"github.com/kailas-cloud/talentrag/internal/usecase/usage"
)

// Retriever serves the query endpoints.
type Retriever interface {
	Search(ctx context.Context, qc query.Context) (retrieval.SearchResponse, error)
	Ask(ctx context.Context, req retrieval.AskRequest) (retrieval.AskResponse, error)
	CandidatesForRequirements(ctx context.Context, req retrieval.CandidateRequest) (retrieval.CandidatesResponse, error)
	MatchJob(ctx context.Context, jobID string, topN int, role domain.Role) (retrieval.MatchResponse, error)
}

// InsightsReader serves corpus analytics.
type InsightsReader interface {
	Insights(ctx context.Context) (analytics.Insights, error)
}

// HealthChecker reports component health.
type HealthChecker interface {
	Check(ctx context.Context) health.Report
}

// UsageReporter reports embedding token consumption.
type UsageReporter interface {
	Report(ctx context.Context, period usage.Period) (usage.Report, error)
}
