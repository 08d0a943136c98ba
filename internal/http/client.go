package http

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"gitlab.com/tozd/go/errors"
)

// DefaultTimeout is applied to every request when no timeout is configured.
const DefaultTimeout = 30 * time.Second

// DefaultUserAgent identifies the archiver to podcast hosts.
const DefaultUserAgent = "podcast-backup/1.0"

// StatusError reports a non-200 response.
//
// Kind returns "HTTPStatus" so the error policy can group all status
// failures under one remembered decision.
type StatusError struct {
	URL        string
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Status)
}

// Kind returns the error class name.
func (e *StatusError) Kind() string {
	return "HTTPStatus"
}

// Client wraps HTTP operations with archiver-specific configuration.
//
// Client provides:
//   - Configured User-Agent header (some hosts reject Go's default)
//   - A fixed per-request timeout applied uniformly to every fetch
//   - Streaming bodies for large audio files
//   - File size retrieval via HEAD requests
//
// Example usage:
//
//	client := NewClient(30*time.Second, "podcast-backup/1.0")
//
//	// Fetch feed XML
//	data, err := client.Get(ctx, "https://example.com/feed.xml")
//
//	// Stream an episode
//	body, size, err := client.Open(ctx, enclosureURL)
//	defer body.Close()
type Client struct {
	httpClient *http.Client
	userAgent  string
}

// NewClient creates a new HTTP client.
//
// A zero timeout or empty user agent falls back to DefaultTimeout and
// DefaultUserAgent.
func NewClient(timeout time.Duration, userAgent string) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		userAgent: userAgent,
	}
}

func (c *Client) do(ctx context.Context, method, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return resp, nil
}

// Get performs a GET request and returns the response body as bytes.
//
// Returns an error if:
//   - The request fails
//   - The response status is not 200 OK (a *StatusError)
//   - Reading the body fails
//
// Example:
//
//	data, err := client.Get(ctx, "https://example.com/image.jpg")
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	body, _, err := c.Open(ctx, url)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return data, nil
}

// Open performs a GET request and returns the unread body together with the
// Content-Length (-1 when unknown). The caller must close the body.
func (c *Client) Open(ctx context.Context, url string) (io.ReadCloser, int64, error) {
	resp, err := c.do(ctx, http.MethodGet, url)
	if err != nil {
		return nil, 0, err
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, 0, errors.WithStack(&StatusError{URL: url, StatusCode: resp.StatusCode, Status: resp.Status})
	}

	return resp.Body, resp.ContentLength, nil
}

// GetFileSize returns the size of a file at the given URL via HEAD request.
//
// Used to fill in unknown enclosure sizes for the download estimate.
//
// Example:
//
//	size, err := client.GetFileSize(ctx, mp3URL)
func (c *Client) GetFileSize(ctx context.Context, url string) (int64, error) {
	resp, err := c.do(ctx, http.MethodHead, url)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, errors.WithStack(&StatusError{URL: url, StatusCode: resp.StatusCode, Status: resp.Status})
	}
	if resp.ContentLength < 0 {
		return 0, errors.Errorf("no Content-Length header for %s", url)
	}

	return resp.ContentLength, nil
}
