// Package client fetches pipeline graph payloads from the recorder API and
// turns them into validated dag.Graph values. Payloads may arrive wrapped in
// API envelopes; a jq extraction query unwraps them before validation.
package client

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/strevlab/pipeview/internal/validation"
	"github.com/strevlab/pipeview/pkg/dag"
)

const defaultTimeout = 15 * time.Second

// maxPayloadBytes caps response bodies so a misbehaving endpoint cannot
// exhaust memory.
const maxPayloadBytes = 8 << 20

// Config holds the settings for a recorder API client.
type Config struct {
	// BaseURL is the recorder API root, e.g. http://localhost:12555/api.
	BaseURL string
	// Query is an optional jq expression that unwraps the graph from the
	// response envelope, e.g. `.data.dag`.
	Query string
	// APIKey, when set, is sent as a Bearer token.
	APIKey string
	// Timeout bounds each request. Zero means defaultTimeout.
	Timeout time.Duration
}

// Client fetches and decodes pipeline graphs. Safe for concurrent use.
type Client struct {
	httpClient *http.Client
	baseURL    string
	query      string
	apiKey     string
	extractor  *Extractor
	validator  *validation.GraphValidator
	logger     *slog.Logger
}

// New creates a Client from the given config.
func New(cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, dag.NewError(dag.ErrCodeValidation, "client base URL is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	validator, err := validation.NewGraphValidator()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize graph validator: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		query:      cfg.Query,
		apiKey:     cfg.APIKey,
		extractor:  NewExtractor(),
		validator:  validator,
		logger:     logger,
	}, nil
}

// FetchGraph retrieves the DAG for one pipeline, unwraps the payload if a jq
// query is configured, and validates it. Findings report non-fatal data
// problems in the payload.
func (c *Client) FetchGraph(ctx context.Context, pipelineID string) (*dag.Graph, []validation.Finding, error) {
	if pipelineID == "" {
		return nil, nil, dag.NewError(dag.ErrCodeValidation, "pipeline id is required")
	}

	url := fmt.Sprintf("%s/pipelines/%s/dag", c.baseURL, pipelineID)
	payload, err := c.get(ctx, url)
	if err != nil {
		return nil, nil, err
	}

	extracted, err := c.extractor.Extract(payload, c.query)
	if err != nil {
		return nil, nil, err
	}

	g, findings, err := c.validator.ValidatePayload(extracted)
	if err != nil {
		return nil, nil, err
	}

	c.logger.DebugContext(ctx, "fetched pipeline graph",
		"pipeline_id", pipelineID,
		"nodes", len(g.Nodes),
		"edges", len(g.Edges),
		"findings", len(findings))

	return g, findings, nil
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, dag.NewError(dag.ErrCodeFetch, "failed to build request").WithCause(err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, dag.NewErrorf(dag.ErrCodeFetch, "request to %s failed", url).WithCause(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPayloadBytes))
	if err != nil {
		return nil, dag.NewError(dag.ErrCodeFetch, "failed to read response body").WithCause(err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, dag.NewErrorf(dag.ErrCodeNotFound, "pipeline not found at %s", url)
	case resp.StatusCode != http.StatusOK:
		return nil, dag.NewErrorf(dag.ErrCodeFetch, "unexpected status %d from %s", resp.StatusCode, url).
			WithDetails(map[string]any{"status": resp.StatusCode, "body": truncate(string(body), 512)})
	}

	return body, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}
