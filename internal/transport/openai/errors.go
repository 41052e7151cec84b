package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"

	openai "github.com/sashabaranov/go-openai"

	"github.com/kailas-cloud/talentrag/internal/domain"
)

// classify turns a client error into a typed domain error.
// Rate limits and outages get their own sentinel on top of wrap.
func classify(op string, err error, wrap error) error {
	if errors.Is(err, wrap) {
		return err
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		detail := extractDetail(reqErr.Body)
		if detail == "" {
			detail = string(reqErr.Body)
		}
		return statusError(op, reqErr.HTTPStatusCode, detail, wrap)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return statusError(op, apiErr.HTTPStatusCode, apiErr.Message, wrap)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s request timed out: %w: %w", op, domain.ErrProviderUnavailable, wrap)
	}
	var urlErr *url.Error
	var netErr net.Error
	if errors.As(err, &urlErr) || errors.As(err, &netErr) {
		return fmt.Errorf("%s request failed: %v: %w: %w", op, err, domain.ErrProviderUnavailable, wrap)
	}

	return fmt.Errorf("%s request failed: %v: %w", op, err, wrap)
}

func statusError(op string, status int, detail string, wrap error) error {
	switch {
	case status == http.StatusTooManyRequests:
		return fmt.Errorf("%s API error %d: %s: %w: %w", op, status, detail, domain.ErrRateLimited, wrap)
	case status >= http.StatusInternalServerError:
		return fmt.Errorf("%s API error %d: %s: %w: %w", op, status, detail, domain.ErrProviderUnavailable, wrap)
	default:
		return fmt.Errorf("%s API error %d: %s: %w", op, status, detail, wrap)
	}
}

// extractDetail extracts the "detail" field from a JSON error body (Nebius error format).
func extractDetail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Detail != "" {
		return parsed.Detail
	}
	return ""
}
