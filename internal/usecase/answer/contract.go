package answer

import (
	"context"

	"github.com/kailas-cloud/talentrag/internal/provider"
)

// Generator is the generation capability of the active AI provider.
type Generator interface {
	Name() string
	GenerateAnswer(ctx context.Context, p provider.Prompt) (string, error)
}
