package search

import (
	"context"

	"github.com/kailas-cloud/talentrag/internal/domain/document"
	"github.com/kailas-cloud/talentrag/internal/domain/search/filter"
)

// Repository defines the storage contract for similarity search.
// Find must apply the structural filter, including the searchable check.
type Repository interface {
	Find(ctx context.Context, f filter.Filter) ([]*document.Document, error)
}
