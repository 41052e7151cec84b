package talentrag

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Health fetches GET /health. The server answers 503 when the database is
// unreachable; that report is still returned, together with ErrUnavailable.
func (c *Client) Health(ctx context.Context) (status HealthStatus, err error) {
	start := time.Now()
	defer func() { c.obs.observe("health", start, err) }()

	req, err := c.newRequest(ctx, http.MethodGet, "/health", nil)
	if err != nil {
		return status, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return status, fmt.Errorf("talentrag: GET /health: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusServiceUnavailable:
		if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
			return status, fmt.Errorf("talentrag: decode health: %w", err)
		}
		if resp.StatusCode == http.StatusServiceUnavailable {
			return status, &APIError{StatusCode: resp.StatusCode, Code: "unhealthy", Message: status.Status}
		}
		return status, nil
	default:
		return status, decodeError(resp)
	}
}
