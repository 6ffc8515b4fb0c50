package webhook

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const (
	DefaultUserAgent = "Feedlane-Webhook/1.0"
	defaultTimeout   = 10 * time.Second
	maxDrainBytes    = 4 << 10
)

// Sender posts a rendered payload to a destination and reports the HTTP status.
type Sender interface {
	Send(ctx context.Context, destURL string, payload []byte) (int, error)
}

// StatusError is returned for a non-2xx response.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("destination responded with status %d", e.StatusCode)
}

// Client delivers webhook payloads over HTTP.
type Client struct {
	httpClient *http.Client
	userAgent  string
}

// ClientOption is a function that configures the client
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout bounds every delivery, including reading the response.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// NewClient creates a webhook client with a 10 second timeout.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		userAgent:  DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Send POSTs payload as JSON. The returned status is 0 when no response was
// received. Error messages never include destURL since webhook URLs embed
// credentials.
func (c *Client) Send(ctx context.Context, destURL string, payload []byte) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, destURL, bytes.NewReader(payload))
	if err != nil {
		return 0, errors.New("invalid destination URL")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return 0, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	// Drain a bounded amount so the connection can be reused.
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrainBytes))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp.StatusCode, &StatusError{StatusCode: resp.StatusCode}
	}
	return resp.StatusCode, nil
}
