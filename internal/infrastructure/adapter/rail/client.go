package rail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	errs "github.com/fairwaymarket/escrow-processor/internal/domain/error"
	coreport "github.com/fairwaymarket/escrow-processor/internal/domain/port/core"
)

// client is the shared HTTP plumbing for the rail adapters. One request per
// call, no internal retries; the sweep owns retry policy.
type client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     coreport.Logger
	railName   string
}

func newClient(railName, baseURL, apiKey string, timeout time.Duration, logger coreport.Logger) *client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
		railName:   railName,
	}
}

// post sends a JSON request and decodes the JSON response into out. Errors
// come back as *error.RailError with the transient/permanent split decided
// by the response status.
func (c *client) post(ctx context.Context, path string, payload any, idempotencyKey string, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return errs.NewRailError(c.railName, path, true, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return errs.NewRailError(c.railName, path, true, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Network failures are always worth another sweep.
		return errs.NewRailError(c.railName, path, false, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return errs.NewRailError(c.railName, path, false, err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil {
			return nil
		}
		if err := json.Unmarshal(respBody, out); err != nil {
			return errs.NewRailError(c.railName, path, false,
				fmt.Errorf("malformed provider response: %w", err))
		}
		return nil
	}

	providerErr := fmt.Errorf("provider returned %d: %s", resp.StatusCode, string(respBody))
	c.logger.Warn("Rail call rejected by provider", map[string]any{
		"rail":        c.railName,
		"path":        path,
		"status_code": resp.StatusCode,
	})

	return errs.NewRailError(c.railName, path, isPermanentStatus(resp.StatusCode), providerErr)
}

// isPermanentStatus decides whether a provider rejection can be fixed by a
// blind retry. Client errors other than throttling and timeouts mean the
// request itself is unpayable; server errors and throttling are transient.
func isPermanentStatus(status int) bool {
	switch {
	case status == http.StatusRequestTimeout, status == http.StatusTooManyRequests:
		return false
	case status >= 500:
		return false
	default:
		return true
	}
}
