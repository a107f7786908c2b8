// Package httpclient holds the JSON-over-GET plumbing shared by the
// metadata providers.
package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/hashicorp/go-hclog"
	metadataerrors "github.com/mantonx/catalog/internal/modules/metadatamodule/errors"
)

// DefaultTimeout applies when the configured request timeout is zero
const DefaultTimeout = 10 * time.Second

// maxBodyBytes caps how much of an upstream response is read
const maxBodyBytes = 4 << 20

// StatusError carries the status of a non-200 answer
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%v: %d", metadataerrors.ErrUpstreamStatus, e.Code)
}

// Is matches metadataerrors.ErrUpstreamStatus
func (e *StatusError) Is(target error) bool {
	return target == metadataerrors.ErrUpstreamStatus
}

// StatusCode returns the upstream status carried by err, or 0
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code
	}
	return 0
}

// APIClient makes GET requests against one provider and decodes JSON bodies
type APIClient struct {
	provider   string
	baseURL    string
	httpClient *http.Client
	logger     hclog.Logger
}

// NewAPIClient creates a client for provider rooted at baseURL
func NewAPIClient(provider, baseURL string, timeout time.Duration, logger hclog.Logger) *APIClient {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &APIClient{
		provider: provider,
		baseURL:  baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// Provider returns the provider name used in errors
func (c *APIClient) Provider() string {
	return c.provider
}

// GetJSON requests baseURL+path with query and decodes the body into result.
// Transport failures and non-200 answers come back as upstream errors.
func (c *APIClient) GetJSON(ctx context.Context, op, path string, query url.Values, result interface{}) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return metadataerrors.Upstream(op, c.provider, fmt.Errorf("failed to build request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	c.logger.Debug("metadata request", "provider", c.provider, "path", path)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return metadataerrors.Upstream(op, c.provider, fmt.Errorf("HTTP request failed: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return metadataerrors.Upstream(op, c.provider, &StatusError{Code: resp.StatusCode})
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return metadataerrors.Upstream(op, c.provider, fmt.Errorf("failed to read response body: %w", err))
	}

	if err := json.Unmarshal(body, result); err != nil {
		return metadataerrors.Upstream(op, c.provider, fmt.Errorf("failed to unmarshal JSON response: %w", err))
	}
	return nil
}
