package domain

import "errors"

var (
	// ErrDocumentNotFound signals a missing résumé document.
	ErrDocumentNotFound = errors.New("document not found")
	// ErrJobNotFound signals a missing job posting.
	ErrJobNotFound = errors.New("job not found")
	// ErrInvalidQuery signals a missing or malformed query.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrInvalidFilter signals a malformed structural filter.
	ErrInvalidFilter = errors.New("invalid filter")
	// ErrInvalidDocument signals a document that violates its lifecycle invariants.
	ErrInvalidDocument = errors.New("invalid document")

	// ErrRateLimited signals a provider rate limit hit.
	ErrRateLimited = errors.New("rate limited")
	// ErrProviderUnavailable signals an unreachable AI provider (connection refused, timeout).
	ErrProviderUnavailable = errors.New("ai provider unavailable")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrGenerationProviderError signals a text generation failure.
	ErrGenerationProviderError = errors.New("generation provider error")
	// ErrEmbeddingQuotaExceeded signals an exhausted daily or monthly token budget.
	ErrEmbeddingQuotaExceeded = errors.New("embedding quota exceeded")
	// ErrMalformedOutput signals model output that could not be parsed.
	ErrMalformedOutput = errors.New("malformed model output")
)

// IsTransient reports whether err is a provider failure that may heal on its own.
func IsTransient(err error) bool {
	return errors.Is(err, ErrRateLimited) || errors.Is(err, ErrProviderUnavailable)
}
