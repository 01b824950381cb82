package veo

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

// defaultBaseURL is the Gemini API endpoint serving Veo models.
const defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// Static errors for Veo client operations.
var (
	// ErrModelRequired is returned when the model name is not provided.
	ErrModelRequired = errors.New("veo: model is required")
	// ErrAPIKeyNotSet is returned when the GEMINI_API_KEY is not provided.
	ErrAPIKeyNotSet = errors.New("veo: API key is required")
	// ErrOperationNameRequired is returned when the operation name is not provided.
	ErrOperationNameRequired = errors.New("veo: operation name is required")
	// ErrNoOperationName is returned when the generate response contains no operation name.
	ErrNoOperationName = errors.New("veo: generate failed: no operation name returned")
	// ErrServerError is returned when the server returns a 5xx status code.
	ErrServerError = errors.New("veo: server error")
	// ErrRateLimited is returned when the server returns a 429 status code.
	ErrRateLimited = errors.New("veo: rate limited")
	// ErrRequestFailed is returned when the request fails with a non-2xx status code.
	ErrRequestFailed = errors.New("veo: request failed")
	// ErrNoVideoURI is returned when a finished operation has no video URI.
	ErrNoVideoURI = errors.New("veo: no video URI in finished operation")
)

// Client defines the interface for interacting with the Veo API.
type Client interface {
	// Generate starts a long-running video generation and returns the
	// operation name used to poll for completion.
	Generate(ctx context.Context, req GenerateRequest) (operationName string, err error)

	// GetOperation fetches the current state of a long-running operation.
	GetOperation(ctx context.Context, name string) (Operation, error)

	// DownloadVideo downloads the generated video to the specified path.
	DownloadVideo(ctx context.Context, videoURI, destPath string) error
}

// HTTPClient is the HTTP implementation of the Veo Client interface.
type HTTPClient struct {
	apiKey      string
	model       string
	baseURL     string
	httpClient  *http.Client
	maxRetries  int
	baseBackoff time.Duration
}

// ClientOption is a function that configures an HTTPClient.
type ClientOption func(*HTTPClient)

// WithAPIKey sets the API key for authentication.
func WithAPIKey(key string) ClientOption {
	return func(hc *HTTPClient) {
		hc.apiKey = key
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

// NewClient creates a new Veo HTTP client for the given model.
// The API key can be set via the WithAPIKey option. If not provided,
// it is read from the environment variable GEMINI_API_KEY.
func NewClient(model string, opts ...ClientOption) (*HTTPClient, error) {
	if model == "" {
		return nil, ErrModelRequired
	}

	c := &HTTPClient{
		model:       model,
		baseURL:     defaultBaseURL,
		httpClient:  &http.Client{Timeout: 60 * time.Second},
		maxRetries:  3,
		baseBackoff: 1 * time.Second,
	}

	// Apply options first to allow WithAPIKey to set the key
	for _, opt := range opts {
		opt(c)
	}

	// If key was not set via option, try environment variable
	if c.apiKey == "" {
		c.apiKey = os.Getenv("GEMINI_API_KEY")
	}

	if c.apiKey == "" {
		return nil, ErrAPIKeyNotSet
	}

	return c, nil
}

// Model returns the model name the client generates with.
func (c *HTTPClient) Model() string {
	return c.model
}

// Generate starts a long-running video generation and returns the operation name.
func (c *HTTPClient) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	inst := instance{
		Prompt:    req.Prompt,
		Image:     req.Image,
		LastFrame: req.LastFrame,
		Video:     req.Video,
	}
	for _, ref := range req.ReferenceImages {
		r := ref
		inst.ReferenceImages = append(inst.ReferenceImages, referenceImage{
			Image:         &r,
			ReferenceType: "asset",
		})
	}

	reqBody := generateRequestBody{
		Instances: []instance{inst},
		Parameters: parameters{
			AspectRatio:      req.AspectRatio,
			NegativePrompt:   req.NegativePrompt,
			PersonGeneration: req.PersonGeneration,
			DurationSeconds:  req.DurationSeconds,
			Resolution:       req.Resolution,
		},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("veo: marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:predictLongRunning", c.baseURL, c.model)

	var resp operationResponse
	if err := c.doRequestWithRetry(ctx, http.MethodPost, url, bodyBytes, &resp); err != nil {
		return "", err
	}

	if resp.Name == "" {
		return "", ErrNoOperationName
	}

	return resp.Name, nil
}

// GetOperation fetches the current state of a long-running operation.
func (c *HTTPClient) GetOperation(ctx context.Context, name string) (Operation, error) {
	if name == "" {
		return Operation{}, ErrOperationNameRequired
	}

	// Operation names are path-shaped: models/<model>/operations/<id>
	url := fmt.Sprintf("%s/%s", c.baseURL, strings.TrimPrefix(name, "/"))

	var resp operationResponse
	if err := c.doRequestWithRetry(ctx, http.MethodGet, url, nil, &resp); err != nil {
		return Operation{}, err
	}

	op := Operation{
		Name: resp.Name,
		Done: resp.Done,
	}

	if !resp.Done {
		return op, nil
	}

	if resp.Error != nil {
		op.Error = fmt.Sprintf("code %d: %s", resp.Error.Code, resp.Error.Message)
		return op, nil
	}

	if resp.Response != nil && resp.Response.GenerateVideoResponse != nil {
		gvr := resp.Response.GenerateVideoResponse
		op.FilteredReasons = gvr.RAIMediaFilteredReasons
		if len(gvr.GeneratedSamples) > 0 && gvr.GeneratedSamples[0].Video != nil {
			op.VideoURI = gvr.GeneratedSamples[0].Video.URI
		}
	}

	if op.VideoURI == "" && op.Error == "" {
		if len(op.FilteredReasons) > 0 {
			op.Error = fmt.Sprintf("media filtered: %s", strings.Join(op.FilteredReasons, "; "))
		} else {
			op.Error = "no video URI in finished operation"
		}
	}

	return op, nil
}

// DownloadVideo downloads the generated video to the specified path.
// Video URIs served by the API require the same key as the generation calls.
func (c *HTTPClient) DownloadVideo(ctx context.Context, videoURI, destPath string) error {
	if videoURI == "" {
		return ErrNoVideoURI
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, videoURI, nil)
	if err != nil {
		return fmt.Errorf("veo: create download request: %w", err)
	}
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("veo: download request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("veo: download failed with status %d", resp.StatusCode)
	}

	out, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("veo: create output file: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, resp.Body); err != nil {
		return fmt.Errorf("veo: copy download data: %w", err)
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
				return fmt.Errorf("veo: context cancelled: %w", ctx.Err())
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

	return fmt.Errorf("veo: max retries exceeded: %w", lastErr)
}

// doRequest performs a single HTTP request.
func (c *HTTPClient) doRequest(ctx context.Context, method, url string, body []byte, result interface{}) error {
	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return fmt.Errorf("veo: create request: %w", err)
	}

	req.Header.Set("x-goog-api-key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &retryableError{err: fmt.Errorf("veo: request failed: %w", err)}
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &retryableError{err: fmt.Errorf("veo: read response: %w", err)}
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
		// Other errors are not retryable
		return fmt.Errorf("%w with status %d: %s", ErrRequestFailed, resp.StatusCode, string(respBody))
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("veo: unmarshal response: %w", err)
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
