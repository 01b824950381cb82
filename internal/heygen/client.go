package heygen

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

// defaultBaseURL is the HeyGen API endpoint.
const defaultBaseURL = "https://api.heygen.com"

// Static errors for HeyGen client operations.
var (
	// ErrAPIKeyNotSet is returned when the HEYGEN_API_KEY is not provided.
	ErrAPIKeyNotSet = errors.New("heygen: API key is required")
	// ErrScriptRequired is returned when the script text is not provided.
	ErrScriptRequired = errors.New("heygen: script is required")
	// ErrAvatarIDRequired is returned when the avatar ID is not provided.
	ErrAvatarIDRequired = errors.New("heygen: avatar ID is required")
	// ErrVoiceIDRequired is returned when the voice ID is not provided.
	ErrVoiceIDRequired = errors.New("heygen: voice ID is required")
	// ErrVideoIDRequired is returned when the video ID is not provided.
	ErrVideoIDRequired = errors.New("heygen: video ID is required")
	// ErrNoVideoID is returned when the generate response contains no video ID.
	ErrNoVideoID = errors.New("heygen: generate failed: no video ID returned")
	// ErrAPIError is returned when the API envelope carries an error object.
	ErrAPIError = errors.New("heygen: API error")
	// ErrServerError is returned when the server returns a 5xx status code.
	ErrServerError = errors.New("heygen: server error")
	// ErrRateLimited is returned when the server returns a 429 status code.
	ErrRateLimited = errors.New("heygen: rate limited")
	// ErrRequestFailed is returned when the request fails with a non-2xx status code.
	ErrRequestFailed = errors.New("heygen: request failed")
	// ErrNoVideoURL is returned when a completed video has no URL.
	ErrNoVideoURL = errors.New("heygen: no video URL in completed video")
)

// Client defines the interface for interacting with the HeyGen API.
type Client interface {
	// GenerateVideo starts an avatar video generation and returns the video ID.
	GenerateVideo(ctx context.Context, req GenerateVideoRequest) (videoID string, err error)

	// GetVideoStatus fetches the current state of a generation.
	GetVideoStatus(ctx context.Context, videoID string) (VideoStatus, error)

	// ListAvatars fetches the avatar catalog.
	ListAvatars(ctx context.Context) ([]Avatar, error)

	// ListVoices fetches the voice catalog.
	ListVoices(ctx context.Context) ([]Voice, error)

	// DownloadVideo downloads the finished video to the specified path.
	DownloadVideo(ctx context.Context, videoURL, destPath string) error
}

// HTTPClient is the HTTP implementation of the HeyGen Client interface.
type HTTPClient struct {
	apiKey      string
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

// NewClient creates a new HeyGen HTTP client.
// The API key can be set via the WithAPIKey option. If not provided,
// it is read from the environment variable HEYGEN_API_KEY.
func NewClient(opts ...ClientOption) (*HTTPClient, error) {
	c := &HTTPClient{
		baseURL:     defaultBaseURL,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		maxRetries:  3,
		baseBackoff: 1 * time.Second,
	}

	// Apply options first to allow WithAPIKey to set the key
	for _, opt := range opts {
		opt(c)
	}

	// If key was not set via option, try environment variable
	if c.apiKey == "" {
		c.apiKey = os.Getenv("HEYGEN_API_KEY")
	}

	if c.apiKey == "" {
		return nil, ErrAPIKeyNotSet
	}

	return c, nil
}

// GenerateVideo starts an avatar video generation and returns the video ID.
// The full script is spoken in a single generation.
func (c *HTTPClient) GenerateVideo(ctx context.Context, req GenerateVideoRequest) (string, error) {
	if req.Script == "" {
		return "", ErrScriptRequired
	}
	if req.AvatarID == "" {
		return "", ErrAvatarIDRequired
	}
	if req.VoiceID == "" {
		return "", ErrVoiceIDRequired
	}

	style := req.AvatarStyle
	if style == "" {
		style = "normal"
	}

	reqBody := generateRequestBody{
		VideoInputs: []videoInput{
			{
				Character: character{
					Type:        "avatar",
					AvatarID:    req.AvatarID,
					AvatarStyle: style,
				},
				Voice: voiceInput{
					Type:      "text",
					InputText: req.Script,
					VoiceID:   req.VoiceID,
				},
			},
		},
		Dimension: dimension{Width: req.Width, Height: req.Height},
		Title:     req.Title,
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("heygen: marshal request: %w", err)
	}

	var resp generateResponse
	if err := c.doRequestWithRetry(ctx, http.MethodPost, c.baseURL+"/v2/video/generate", bodyBytes, &resp); err != nil {
		return "", err
	}

	if resp.Error != nil {
		return "", fmt.Errorf("%w: %s (%s)", ErrAPIError, resp.Error.Message, resp.Error.Code)
	}
	if resp.Data.VideoID == "" {
		return "", ErrNoVideoID
	}

	return resp.Data.VideoID, nil
}

// GetVideoStatus fetches the current state of a generation.
func (c *HTTPClient) GetVideoStatus(ctx context.Context, videoID string) (VideoStatus, error) {
	if videoID == "" {
		return VideoStatus{}, ErrVideoIDRequired
	}

	u := fmt.Sprintf("%s/v1/video_status.get?video_id=%s", c.baseURL, url.QueryEscape(videoID))

	var resp statusResponse
	if err := c.doRequestWithRetry(ctx, http.MethodGet, u, nil, &resp); err != nil {
		return VideoStatus{}, err
	}

	st := VideoStatus{
		ID:           resp.Data.ID,
		Status:       Status(resp.Data.Status),
		VideoURL:     resp.Data.VideoURL,
		ThumbnailURL: resp.Data.ThumbnailURL,
		Duration:     resp.Data.Duration,
	}

	if resp.Data.Error != nil {
		st.Error = resp.Data.Error.Message
		if resp.Data.Error.Detail != "" {
			st.Error = fmt.Sprintf("%s: %s", resp.Data.Error.Message, resp.Data.Error.Detail)
		}
	}

	return st, nil
}

// ListAvatars fetches the avatar catalog.
func (c *HTTPClient) ListAvatars(ctx context.Context) ([]Avatar, error) {
	var resp avatarsResponse
	if err := c.doRequestWithRetry(ctx, http.MethodGet, c.baseURL+"/v2/avatars", nil, &resp); err != nil {
		return nil, err
	}

	if resp.Error != nil {
		return nil, fmt.Errorf("%w: %s (%s)", ErrAPIError, resp.Error.Message, resp.Error.Code)
	}

	return resp.Data.Avatars, nil
}

// ListVoices fetches the voice catalog.
func (c *HTTPClient) ListVoices(ctx context.Context) ([]Voice, error) {
	var resp voicesResponse
	if err := c.doRequestWithRetry(ctx, http.MethodGet, c.baseURL+"/v2/voices", nil, &resp); err != nil {
		return nil, err
	}

	if resp.Error != nil {
		return nil, fmt.Errorf("%w: %s (%s)", ErrAPIError, resp.Error.Message, resp.Error.Code)
	}

	return resp.Data.Voices, nil
}

// DownloadVideo downloads the finished video to the specified path.
// Video URLs are pre-signed; no authentication header is needed.
func (c *HTTPClient) DownloadVideo(ctx context.Context, videoURL, destPath string) error {
	if videoURL == "" {
		return ErrNoVideoURL
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, videoURL, nil)
	if err != nil {
		return fmt.Errorf("heygen: create download request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("heygen: download request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("heygen: download failed with status %d", resp.StatusCode)
	}

	out, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("heygen: create output file: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, resp.Body); err != nil {
		return fmt.Errorf("heygen: copy download data: %w", err)
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
				return fmt.Errorf("heygen: context cancelled: %w", ctx.Err())
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

	return fmt.Errorf("heygen: max retries exceeded: %w", lastErr)
}

// doRequest performs a single HTTP request.
func (c *HTTPClient) doRequest(ctx context.Context, method, url string, body []byte, result interface{}) error {
	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return fmt.Errorf("heygen: create request: %w", err)
	}

	req.Header.Set("X-Api-Key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &retryableError{err: fmt.Errorf("heygen: request failed: %w", err)}
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &retryableError{err: fmt.Errorf("heygen: read response: %w", err)}
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
			return fmt.Errorf("heygen: unmarshal response: %w", err)
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
