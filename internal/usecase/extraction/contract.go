package extraction

import (
	"context"

	"github.com/kailas-cloud/talentrag/internal/provider"
)

// Extractor is the structured-extraction capability of the active AI provider.
type Extractor interface {
	Name() string
	ExtractStructured(ctx context.Context, text string) (provider.Extraction, error)
}
