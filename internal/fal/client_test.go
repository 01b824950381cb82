package fal

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient_Validation(t *testing.T) {
	t.Run("missing app returns error", func(t *testing.T) {
		_, err := NewClient("", WithKey("key"))
		assert.ErrorIs(t, err, ErrAppRequired)
	})

	t.Run("missing key returns error", func(t *testing.T) {
		t.Setenv("FAL_KEY", "")
		_, err := NewClient("fal-ai/longcat-video")
		assert.ErrorIs(t, err, ErrKeyNotSet)
	})

	t.Run("key from environment", func(t *testing.T) {
		t.Setenv("FAL_KEY", "env-key")
		c, err := NewClient("fal-ai/longcat-video")
		require.NoError(t, err)
		assert.Equal(t, "env-key", c.key)
	})
}

func TestSubmit_Success(t *testing.T) {
	var gotPath, gotAuth string
	var gotInput GenerateInput

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotInput))

		w.WriteHeader(http.StatusAccepted)
		json.NewEncoder(w).Encode(submitResponse{RequestID: "req-123"})
	}))
	defer server.Close()

	c, err := NewClient("fal-ai/longcat-video", WithKey("test-key"), WithBaseURL(server.URL))
	require.NoError(t, err)

	id, err := c.Submit(context.Background(), GenerateInput{
		Prompt:          "a documentary flyover of a coastline",
		DurationSeconds: 300,
		AspectRatio:     "16:9",
	})
	require.NoError(t, err)

	assert.Equal(t, "req-123", id)
	assert.Equal(t, "/fal-ai/longcat-video", gotPath)
	assert.Equal(t, "Key test-key", gotAuth)
	assert.Equal(t, 300, gotInput.DurationSeconds)
}

func TestSubmit_NoRequestID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(submitResponse{})
	}))
	defer server.Close()

	c, err := NewClient("fal-ai/longcat-video", WithKey("test-key"), WithBaseURL(server.URL))
	require.NoError(t, err)

	_, err = c.Submit(context.Background(), GenerateInput{Prompt: "test"})
	assert.ErrorIs(t, err, ErrNoRequestID)
}

func TestStatus_MapsQueueStates(t *testing.T) {
	tests := []struct {
		raw      string
		expected Status
		terminal bool
	}{
		{"IN_QUEUE", StatusInQueue, false},
		{"IN_PROGRESS", StatusInProgress, false},
		{"COMPLETED", StatusCompleted, true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/fal-ai/longcat-video/requests/req-1/status", r.URL.Path)
				assert.Equal(t, "1", r.URL.Query().Get("logs"))
				json.NewEncoder(w).Encode(statusResponse{Status: tt.raw, QueuePosition: 2})
			}))
			defer server.Close()

			c, err := NewClient("fal-ai/longcat-video", WithKey("test-key"), WithBaseURL(server.URL))
			require.NoError(t, err)

			update, err := c.Status(context.Background(), "req-1")
			require.NoError(t, err)
			assert.Equal(t, tt.expected, update.Status)
			assert.Equal(t, tt.terminal, update.Status.IsTerminal())
		})
	}
}

func TestStatus_EmptyRequestID(t *testing.T) {
	c, err := NewClient("fal-ai/longcat-video", WithKey("test-key"))
	require.NoError(t, err)

	_, err = c.Status(context.Background(), "")
	assert.ErrorIs(t, err, ErrRequestIDRequired)
}

func TestResult_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/fal-ai/longcat-video/requests/req-1", r.URL.Path)
		json.NewEncoder(w).Encode(GenerateOutput{
			Video:           File{URL: "https://fal.media/files/out.mp4", ContentType: "video/mp4"},
			DurationSeconds: 300,
		})
	}))
	defer server.Close()

	c, err := NewClient("fal-ai/longcat-video", WithKey("test-key"), WithBaseURL(server.URL))
	require.NoError(t, err)

	out, err := c.Result(context.Background(), "req-1")
	require.NoError(t, err)
	assert.Equal(t, "https://fal.media/files/out.mp4", out.Video.URL)
	assert.Equal(t, float64(300), out.DurationSeconds)
}

func TestResult_FailedGeneration(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"detail": "generation failed: NSFW content detected"}`))
	}))
	defer server.Close()

	c, err := NewClient("fal-ai/longcat-video", WithKey("test-key"), WithBaseURL(server.URL))
	require.NoError(t, err)

	_, err = c.Result(context.Background(), "req-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRequestFailed)
	assert.Contains(t, err.Error(), "NSFW content detected")
}

func TestResult_NoVideoURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(GenerateOutput{})
	}))
	defer server.Close()

	c, err := NewClient("fal-ai/longcat-video", WithKey("test-key"), WithBaseURL(server.URL))
	require.NoError(t, err)

	_, err = c.Result(context.Background(), "req-1")
	assert.ErrorIs(t, err, ErrNoVideoURL)
}

func TestSubscribe_DrivesToCompletion(t *testing.T) {
	var statusCalls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost:
			json.NewEncoder(w).Encode(submitResponse{RequestID: "req-42"})
		case r.URL.Path == "/fal-ai/longcat-video/requests/req-42/status":
			n := statusCalls.Add(1)
			switch n {
			case 1:
				json.NewEncoder(w).Encode(statusResponse{Status: "IN_QUEUE", QueuePosition: 3})
			case 2:
				json.NewEncoder(w).Encode(statusResponse{
					Status: "IN_PROGRESS",
					Logs:   []LogEntry{{Message: "rendering frames"}},
				})
			default:
				json.NewEncoder(w).Encode(statusResponse{
					Status: "COMPLETED",
					Logs:   []LogEntry{{Message: "rendering frames"}, {Message: "encoding"}},
				})
			}
		case r.URL.Path == "/fal-ai/longcat-video/requests/req-42":
			json.NewEncoder(w).Encode(GenerateOutput{
				Video:           File{URL: "https://fal.media/files/final.mp4"},
				DurationSeconds: 120,
			})
		default:
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
	}))
	defer server.Close()

	c, err := NewClient("fal-ai/longcat-video",
		WithKey("test-key"),
		WithBaseURL(server.URL),
		WithPollInterval(time.Millisecond),
	)
	require.NoError(t, err)

	var updates []Update
	out, err := c.Subscribe(context.Background(), GenerateInput{Prompt: "test"}, func(u Update) {
		updates = append(updates, u)
	})
	require.NoError(t, err)

	assert.Equal(t, "https://fal.media/files/final.mp4", out.Video.URL)
	require.Len(t, updates, 3)
	assert.Equal(t, StatusInQueue, updates[0].Status)
	assert.Equal(t, 3, updates[0].QueuePosition)
	assert.Equal(t, StatusInProgress, updates[1].Status)

	// Logs are deduplicated across updates
	require.Len(t, updates[1].Logs, 1)
	assert.Equal(t, "rendering frames", updates[1].Logs[0].Message)
	require.Len(t, updates[2].Logs, 1)
	assert.Equal(t, "encoding", updates[2].Logs[0].Message)
}

func TestSubscribe_ShrunkLogWindowDeliversNothing(t *testing.T) {
	var statusCalls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost:
			json.NewEncoder(w).Encode(submitResponse{RequestID: "req-42"})
		case r.URL.Path == "/fal-ai/longcat-video/requests/req-42/status":
			n := statusCalls.Add(1)
			switch n {
			case 1:
				json.NewEncoder(w).Encode(statusResponse{
					Status: "IN_PROGRESS",
					Logs:   []LogEntry{{Message: "rendering frames"}, {Message: "encoding"}},
				})
			default:
				// Shorter log window than already delivered.
				json.NewEncoder(w).Encode(statusResponse{
					Status: "COMPLETED",
					Logs:   []LogEntry{{Message: "rendering frames"}},
				})
			}
		case r.URL.Path == "/fal-ai/longcat-video/requests/req-42":
			json.NewEncoder(w).Encode(GenerateOutput{
				Video: File{URL: "https://fal.media/files/final.mp4"},
			})
		default:
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
	}))
	defer server.Close()

	c, err := NewClient("fal-ai/longcat-video",
		WithKey("test-key"),
		WithBaseURL(server.URL),
		WithPollInterval(time.Millisecond),
	)
	require.NoError(t, err)

	var updates []Update
	_, err = c.Subscribe(context.Background(), GenerateInput{Prompt: "test"}, func(u Update) {
		updates = append(updates, u)
	})
	require.NoError(t, err)

	require.Len(t, updates, 2)
	require.Len(t, updates[0].Logs, 2)
	assert.Empty(t, updates[1].Logs, "already-delivered logs must not repeat")
}

func TestSubscribe_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			json.NewEncoder(w).Encode(submitResponse{RequestID: "req-42"})
			return
		}
		json.NewEncoder(w).Encode(statusResponse{Status: "IN_PROGRESS"})
	}))
	defer server.Close()

	c, err := NewClient("fal-ai/longcat-video",
		WithKey("test-key"),
		WithBaseURL(server.URL),
		WithPollInterval(10*time.Millisecond),
	)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 25*time.Millisecond)
	defer cancel()

	_, err = c.Subscribe(ctx, GenerateInput{Prompt: "test"}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestDoRequestWithRetry_RetriesOn5xx(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 2 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(submitResponse{RequestID: "req-1"})
	}))
	defer server.Close()

	c, err := NewClient("fal-ai/longcat-video",
		WithKey("test-key"),
		WithBaseURL(server.URL),
		WithMaxRetries(2),
		WithBaseBackoff(time.Millisecond),
	)
	require.NoError(t, err)

	id, err := c.Submit(context.Background(), GenerateInput{Prompt: "test"})
	require.NoError(t, err)
	assert.Equal(t, "req-1", id)
	assert.Equal(t, 2, attempts)
}

func TestDoRequestWithRetry_NoRetryOn4xx(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	c, err := NewClient("fal-ai/longcat-video",
		WithKey("test-key"),
		WithBaseURL(server.URL),
		WithMaxRetries(3),
		WithBaseBackoff(time.Millisecond),
	)
	require.NoError(t, err)

	_, err = c.Submit(context.Background(), GenerateInput{Prompt: "test"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRequestFailed)
	assert.Equal(t, 1, attempts)
}

func TestDownloadVideo(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// CDN downloads carry no Authorization header
		assert.Empty(t, r.Header.Get("Authorization"))
		w.Write([]byte("video-bytes"))
	}))
	defer server.Close()

	c, err := NewClient("fal-ai/longcat-video", WithKey("test-key"))
	require.NoError(t, err)

	dest := filepath.Join(t.TempDir(), "out.mp4")
	err = c.DownloadVideo(context.Background(), server.URL+"/files/out.mp4", dest)
	require.NoError(t, err)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "video-bytes", string(data))
}
