package retrieval

import (
	"context"

	domanswer "github.com/kailas-cloud/talentrag/internal/domain/answer"
	"github.com/kailas-cloud/talentrag/internal/domain/document"
	"github.com/kailas-cloud/talentrag/internal/domain/job"
	"github.com/kailas-cloud/talentrag/internal/domain/match"
	"github.com/kailas-cloud/talentrag/internal/domain/search/filter"
	"github.com/kailas-cloud/talentrag/internal/provider"
	"github.com/kailas-cloud/talentrag/internal/usecase/analytics"
	"github.com/kailas-cloud/talentrag/internal/usecase/answer"
)

// Corpus reads the searchable résumés.
type Corpus interface {
	Find(ctx context.Context, f filter.Filter) ([]*document.Document, error)
	CountSearchable(ctx context.Context) (int, error)
}

// JobRepository reads job postings.
type JobRepository interface {
	Get(ctx context.Context, id string) (*job.Job, error)
	ListByPoster(ctx context.Context, poster string, status job.Status, limit int) ([]*job.Job, error)
}

// Answerer synthesizes a grounded answer from hits.
type Answerer interface {
	Answer(ctx context.Context, req answer.Request) domanswer.Answer
}

// Scorer rates one résumé against one job.
type Scorer interface {
	Score(j *job.Job, d *document.Document) match.Result
}

// Events receives best-effort counter increments.
type Events interface {
	ResumesViewed(ids ...string)
	ResumesMatched(ids ...string)
	JobMatched(id string)
}

// Tracker logs queries.
type Tracker interface {
	TrackQuery(ctx context.Context, q analytics.Query) string
}

// ModelInfo names the models serving the process.
type ModelInfo interface {
	Models() provider.Models
}
