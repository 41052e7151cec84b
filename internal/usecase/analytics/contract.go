package analytics

import (
	"context"

	"github.com/kailas-cloud/talentrag/internal/domain/document"
	"github.com/kailas-cloud/talentrag/internal/domain/search/filter"
)

// CounterStore increments the analytics counters of one entity kind.
type CounterStore interface {
	IncrementViews(ctx context.Context, id string) error
	IncrementMatches(ctx context.Context, id string) error
}

// Corpus lists searchable résumés for aggregate insights.
type Corpus interface {
	Find(ctx context.Context, f filter.Filter) ([]*document.Document, error)
}
