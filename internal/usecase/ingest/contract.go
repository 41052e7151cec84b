package ingest

import (
	"context"

	"github.com/kailas-cloud/talentrag/internal/domain/document"
	"github.com/kailas-cloud/talentrag/internal/domain/job"
	"github.com/kailas-cloud/talentrag/internal/usecase/extraction"
)

// Extractor turns raw text into structured fields. It never fails.
type Extractor interface {
	Extract(ctx context.Context, text string) extraction.Result
}

// ResumeWriter persists résumés.
type ResumeWriter interface {
	Save(ctx context.Context, d *document.Document) error
}

// JobWriter persists job postings.
type JobWriter interface {
	Save(ctx context.Context, j *job.Job) error
}
