package fal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// defaultBaseURL is the fal queue endpoint.
const defaultBaseURL = "https://queue.fal.run"

// Static errors for fal client operations.
var (
	// ErrAppRequired is returned when the application ID is not provided.
	ErrAppRequired = errors.New("fal: app ID is required")
	// ErrKeyNotSet is returned when the FAL_KEY is not provided.
	ErrKeyNotSet = errors.New("fal: key is required")
	// ErrRequestIDRequired is returned when the request ID is not provided.
	ErrRequestIDRequired = errors.New("fal: request ID is required")
	// ErrNoRequestID is returned when the submit response contains no request ID.
	ErrNoRequestID = errors.New("fal: submit failed: no request ID returned")
	// ErrServerError is returned when the server returns a 5xx status code.
	ErrServerError = errors.New("fal: server error")
	// ErrRateLimited is returned when the server returns a 429 status code.
	ErrRateLimited = errors.New("fal: rate limited")
	// ErrRequestFailed is returned when the request fails with a non-2xx status code.
	ErrRequestFailed = errors.New("fal: request failed")
	// ErrNoVideoURL is returned when a completed request has no video URL.
	ErrNoVideoURL = errors.New("fal: no video URL in completed request")
)

// Client defines the interface for interacting with the fal queue API.
type Client interface {
	// Submit enqueues a generation request and returns the request ID.
	Submit(ctx context.Context, input GenerateInput) (requestID string, err error)

	// Status fetches the queue status of a request, including any new logs.
	Status(ctx context.Context, requestID string) (Update, error)

	// Result fetches the output of a completed request.
	Result(ctx context.Context, requestID string) (GenerateOutput, error)

	// Subscribe enqueues a request and drives its own wait loop until the
	// request reaches a terminal state, invoking onUpdate per observed
	// transition. It returns the fetched output.
	Subscribe(ctx context.Context, input GenerateInput, onUpdate func(Update)) (GenerateOutput, error)

	// DownloadVideo downloads the generated video to the specified path.
	DownloadVideo(ctx context.Context, videoURL, destPath string) error
}

// HTTPClient is the HTTP implementation of the fal Client interface.
type HTTPClient struct {
	key          string
	app          string
	baseURL      string
	httpClient   *http.Client
	maxRetries   int
	baseBackoff  time.Duration
	pollInterval time.Duration
}

// ClientOption is a function that configures an HTTPClient.
type ClientOption func(*HTTPClient)

// WithKey sets the API key for authentication.
func WithKey(key string) ClientOption {
	return func(hc *HTTPClient) {
		hc.key = key
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(hc *HTTPClient) {
		hc.httpClient = c
	}
}

// WithBaseURL sets a custom API base URL (useful for testing).
func WithBaseURL(url string) ClientOption {
	return func(hc *HTTPClient) {
		hc.baseURL = strings.TrimSuffix(url, "/")
	}
}

// WithMaxRetries sets the maximum number of retries for transient failures.
func WithMaxRetries(n int) ClientOption {
	return func(hc *HTTPClient) {
		hc.maxRetries = n
	}
}

// WithBaseBackoff sets the initial backoff duration for retries.
func WithBaseBackoff(d time.Duration) ClientOption {
	return func(hc *HTTPClient) {
		hc.baseBackoff = d
	}
}

// WithPollInterval sets the status poll interval used by Subscribe.
func WithPollInterval(d time.Duration) ClientOption {
	return func(hc *HTTPClient) {
		hc.pollInterval = d
	}
}

// NewClient creates a new fal HTTP client for the given application ID
// (for example "fal-ai/longcat-video").
// The key can be set via the WithKey option. If not provided, it is read
// from the environment variable FAL_KEY.
func NewClient(app string, opts ...ClientOption) (*HTTPClient, error) {
	if app == "" {
		return nil, ErrAppRequired
	}

	c := &HTTPClient{
		app:          app,
		baseURL:      defaultBaseURL,
		httpClient:   &http.Client{Timeout: 60 * time.Second},
		maxRetries:   3,
		baseBackoff:  1 * time.Second,
		pollInterval: 3 * time.Second,
	}

	// Apply options first to allow WithKey to set the key
	for _, opt := range opts {
		opt(c)
	}

	// If key was not set via option, try environment variable
	if c.key == "" {
		c.key = os.Getenv("FAL_KEY")
	}

	if c.key == "" {
		return nil, ErrKeyNotSet
	}

	return c, nil
}

// App returns the application ID the client submits to.
func (c *HTTPClient) App() string {
	return c.app
}

// Submit enqueues a generation request and returns the request ID.
func (c *HTTPClient) Submit(ctx context.Context, input GenerateInput) (string, error) {
	bodyBytes, err := json.Marshal(input)
	if err != nil {
		return "", fmt.Errorf("fal: marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/%s", c.baseURL, c.app)

	var resp submitResponse
	if err := c.doRequestWithRetry(ctx, http.MethodPost, url, bodyBytes, &resp); err != nil {
		return "", err
	}

	if resp.RequestID == "" {
		return "", ErrNoRequestID
	}

	return resp.RequestID, nil
}

// Status fetches the queue status of a request. The returned Update carries
// the full log history; Subscribe handles deduplication for its callbacks.
func (c *HTTPClient) Status(ctx context.Context, requestID string) (Update, error) {
	if requestID == "" {
		return Update{}, ErrRequestIDRequired
	}

	url := fmt.Sprintf("%s/%s/requests/%s/status?logs=1", c.baseURL, c.app, requestID)

	var resp statusResponse
	if err := c.doRequestWithRetry(ctx, http.MethodGet, url, nil, &resp); err != nil {
		return Update{}, err
	}

	return Update{
		Status:        Status(resp.Status),
		QueuePosition: resp.QueuePosition,
		Logs:          resp.Logs,
	}, nil
}

// Result fetches the output of a completed request. A request that failed
// inside the model surfaces here as a non-2xx response.
func (c *HTTPClient) Result(ctx context.Context, requestID string) (GenerateOutput, error) {
	if requestID == "" {
		return GenerateOutput{}, ErrRequestIDRequired
	}

	url := fmt.Sprintf("%s/%s/requests/%s", c.baseURL, c.app, requestID)

	var out GenerateOutput
	if err := c.doRequestWithRetry(ctx, http.MethodGet, url, nil, &out); err != nil {
		return GenerateOutput{}, err
	}

	if out.Video.URL == "" {
		return GenerateOutput{}, ErrNoVideoURL
	}

	return out, nil
}

// Subscribe enqueues a request and waits in-process until it completes,
// invoking onUpdate on every poll with any logs not yet delivered.
// The wait is unbounded; callers control the ceiling through ctx.
func (c *HTTPClient) Subscribe(ctx context.Context, input GenerateInput, onUpdate func(Update)) (GenerateOutput, error) {
	requestID, err := c.Submit(ctx, input)
	if err != nil {
		return GenerateOutput{}, err
	}

	seenLogs := 0
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		update, err := c.Status(ctx, requestID)
		if err != nil {
			return GenerateOutput{}, err
		}

		if onUpdate != nil {
			delivered := update
			if seenLogs < len(update.Logs) {
				delivered.Logs = update.Logs[seenLogs:]
				seenLogs = len(update.Logs)
			} else {
				// The queue can respond with a shorter log window than
				// already delivered; re-delivering history would dupe.
				delivered.Logs = nil
			}
			onUpdate(delivered)
		}

		if update.Status.IsTerminal() {
			return c.Result(ctx, requestID)
		}

		select {
		case <-ctx.Done():
			return GenerateOutput{}, fmt.Errorf("fal: subscribe cancelled: %w", ctx.Err())
		case <-ticker.C:
		}
	}
}

// DownloadVideo downloads the generated video to the specified path.
// Output URLs are served from the public CDN and need no authentication.
func (c *HTTPClient) DownloadVideo(ctx context.Context, videoURL, destPath string) error {
	if videoURL == "" {
		return ErrNoVideoURL
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, videoURL, nil)
	if err != nil {
		return fmt.Errorf("fal: create download request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("fal: download request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fal: download failed with status %d", resp.StatusCode)
	}

	out, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("fal: create output file: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, resp.Body); err != nil {
		return fmt.Errorf("fal: copy download data: %w", err)
	}

	return nil
}

// doRequestWithRetry performs an HTTP request with exponential backoff retry.
func (c *HTTPClient) doRequestWithRetry(ctx context.Context, method, url string, body []byte, result interface{}) error {
	var lastErr error
	backoff := c.baseBackoff

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return fmt.Errorf("fal: context cancelled: %w", ctx.Err())
			case <-time.After(backoff):
				backoff *= 2 // Exponential backoff
			}
		}

		err := c.doRequest(ctx, method, url, body, result)
		if err == nil {
			return nil
		}

		// Check if error is retryable
		if !isRetryable(err) {
			return err
		}

		lastErr = err
	}

	return fmt.Errorf("fal: max retries exceeded: %w", lastErr)
}

// doRequest performs a single HTTP request.
func (c *HTTPClient) doRequest(ctx context.Context, method, url string, body []byte, result interface{}) error {
	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return fmt.Errorf("fal: create request: %w", err)
	}

	req.Header.Set("Authorization", "Key "+c.key)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &retryableError{err: fmt.Errorf("fal: request failed: %w", err)}
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &retryableError{err: fmt.Errorf("fal: read response: %w", err)}
	}

	// Handle non-2xx status codes
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// 5xx errors are retryable
		if resp.StatusCode >= 500 {
			return &retryableError{err: fmt.Errorf("%w %d: %s", ErrServerError, resp.StatusCode, string(respBody))}
		}
		// 429 (rate limit) is retryable
		if resp.StatusCode == 429 {
			return &retryableError{err: fmt.Errorf("%w: %s", ErrRateLimited, string(respBody))}
		}
		// Failed generations surface as 422 with a detail payload
		var detail errorDetail
		if json.Unmarshal(respBody, &detail) == nil && detail.Detail != nil {
			return fmt.Errorf("%w with status %d: %v", ErrRequestFailed, resp.StatusCode, detail.Detail)
		}
		return fmt.Errorf("%w with status %d: %s", ErrRequestFailed, resp.StatusCode, string(respBody))
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("fal: unmarshal response: %w", err)
		}
	}

	return nil
}

// retryableError wraps errors that should be retried.
type retryableError struct {
	err error
}

func (e *retryableError) Error() string {
	return e.err.Error()
}

func (e *retryableError) Unwrap() error {
	return e.err
}

// isRetryable returns true if the error should be retried.
func isRetryable(err error) bool {
	var re *retryableError
	return errors.As(err, &re)
}
