package batch

import (
	"context"

	"github.com/kailas-cloud/talentrag/internal/usecase/ingest"
)

// ResumeIngester ingests one résumé.
type ResumeIngester interface {
	IngestResume(ctx context.Context, in ingest.Input) (ingest.Result, error)
}
