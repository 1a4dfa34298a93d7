package directions

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"
)

// DefaultTimeout bounds a single routes API call.
const DefaultTimeout = 15 * time.Second

// Failure classes of a routes API call.
var (
	ErrAuthFailure      = errors.New("routes API rejected the credentials")
	ErrServerFailure    = errors.New("routes API server error")
	ErrTimeout          = errors.New("routes API did not answer in time")
	ErrUnexpectedStatus = errors.New("routes API returned an unexpected status")
)

// HTTPClient defines the interface for making HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client calls the routes endpoint.
type Client struct {
	client   HTTPClient
	endpoint string
	apiKey   string
	timeout  time.Duration
	log      *slog.Logger
}

// NewClient creates a Client using a plain http.Client.
func NewClient(endpoint, apiKey string, timeout time.Duration, log *slog.Logger) *Client {
	return NewClientWithHTTP(&http.Client{}, endpoint, apiKey, timeout, log)
}

// NewClientWithHTTP allows injecting a custom HTTP client.
func NewClientWithHTTP(
	client HTTPClient,
	endpoint string,
	apiKey string,
	timeout time.Duration,
	log *slog.Logger,
) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Client{client: client, endpoint: endpoint, apiKey: apiKey, timeout: timeout, log: log}
}

// Route posts the request and returns the raw response body. Failures are wrapped
// in ErrAuthFailure, ErrServerFailure, ErrTimeout or ErrUnexpectedStatus.
func (c *Client) Route(ctx context.Context, request Request) (json.RawMessage, error) {
	payload, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to encode route request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", c.apiKey)

	c.log.DebugContext(ctx, "Sending route request", "steps", len(request.Steps), "payload", string(payload))

	resp, err := c.client.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, fmt.Errorf("%w: %w", ErrTimeout, err)
		}
		return nil, fmt.Errorf("failed to execute route request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if isTimeout(err) {
			return nil, fmt.Errorf("%w: %w", ErrTimeout, err)
		}
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, ErrAuthFailure
	case resp.StatusCode >= http.StatusInternalServerError:
		c.log.ErrorContext(ctx, "Routes API error", "status", resp.StatusCode, "body", string(body))
		return nil, fmt.Errorf("%w: status %d", ErrServerFailure, resp.StatusCode)
	case resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices:
		c.log.ErrorContext(ctx, "Routes API error", "status", resp.StatusCode, "body", string(body))
		return nil, fmt.Errorf("%w: status %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	return body, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
