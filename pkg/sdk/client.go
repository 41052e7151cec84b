package talentrag

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// maxErrorBody caps how much of an error response is read.
const maxErrorBody = 64 << 10

// Client talks to a talentrag server. Safe for concurrent use.
type Client struct {
	base   *url.URL
	apiKey string
	http   *http.Client
	obs    *observer
}

// New creates a Client for the server at baseURL (e.g. "http://localhost:8080").
func New(baseURL string, opts ...Option) (*Client, error) {
	cfg := &clientConfig{timeout: defaultTimeout}
	for _, o := range opts {
		o.apply(cfg)
	}

	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New("talentrag: base URL is required")
	}
	base, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("talentrag: parse base URL: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("talentrag: unsupported scheme %q", base.Scheme)
	}

	hc := cfg.httpClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.timeout}
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, fmt.Errorf("talentrag: init observer: %w", err)
	}

	return &Client{base: base, apiKey: cfg.apiKey, http: hc, obs: obs}, nil
}

// Search runs a semantic résumé search.
func (c *Client) Search(ctx context.Context, req SearchRequest) (resp SearchResponse, err error) {
	start := time.Now()
	defer func() { c.obs.observe("search", start, err) }()
	err = c.do(ctx, http.MethodPost, "/api/search", req, &resp)
	return resp, err
}

// Ask answers a question from the best matching résumés.
func (c *Client) Ask(ctx context.Context, req AskRequest) (resp AskResponse, err error) {
	start := time.Now()
	defer func() { c.obs.observe("ask", start, err) }()
	err = c.do(ctx, http.MethodPost, "/api/ask", req, &resp)
	return resp, err
}

// Candidates ranks résumés against free-text requirements and a skill list.
func (c *Client) Candidates(ctx context.Context, req CandidatesRequest) (resp CandidatesResponse, err error) {
	start := time.Now()
	defer func() { c.obs.observe("candidates", start, err) }()
	err = c.do(ctx, http.MethodPost, "/api/candidates", req, &resp)
	return resp, err
}

// MatchJob scores stored résumés against a job posting. topN = 0 means the server default.
func (c *Client) MatchJob(ctx context.Context, jobID string, topN int) (resp MatchResponse, err error) {
	start := time.Now()
	defer func() { c.obs.observe("match_job", start, err) }()
	if strings.TrimSpace(jobID) == "" {
		return resp, fmt.Errorf("job id is required: %w", ErrInvalidRequest)
	}
	body := struct {
		TopN int `json:"top_n,omitempty"`
	}{TopN: topN}
	err = c.do(ctx, http.MethodPost, "/api/jobs/"+url.PathEscape(jobID)+"/match", body, &resp)
	return resp, err
}

// Insights returns corpus statistics.
func (c *Client) Insights(ctx context.Context) (resp Insights, err error) {
	start := time.Now()
	defer func() { c.obs.observe("insights", start, err) }()
	err = c.do(ctx, http.MethodGet, "/api/insights", nil, &resp)
	return resp, err
}

// Usage returns embedding token usage for period ("day" or "month"). Needs an admin key.
func (c *Client) Usage(ctx context.Context, period string) (resp UsageReport, err error) {
	start := time.Now()
	defer func() { c.obs.observe("usage", start, err) }()
	path := "/api/usage"
	if period != "" {
		path += "?" + url.Values{"period": {period}}.Encode()
	}
	err = c.do(ctx, http.MethodGet, path, nil, &resp)
	return resp, err
}

// do sends one request. in is JSON-encoded when non-nil; a 2xx body is decoded into out.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	req, err := c.newRequest(ctx, method, path, in)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("talentrag: %s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("talentrag: decode %s response: %w", path, err)
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, in any) (*http.Request, error) {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("talentrag: encode request: %w", err)
		}
		body = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base.String()+path, body)
	if err != nil {
		return nil, fmt.Errorf("talentrag: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	return req, nil
}

// decodeError turns a non-2xx response into an *APIError.
func decodeError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var body struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if json.Unmarshal(raw, &body) == nil && body.Code != "" {
		apiErr.Code, apiErr.Message = body.Code, body.Message
		return apiErr
	}
	apiErr.Code = strings.ToLower(strings.ReplaceAll(http.StatusText(resp.StatusCode), " ", "_"))
	apiErr.Message = strings.TrimSpace(string(raw))
	return apiErr
}
