package video

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOperation() *Operation {
	return &Operation{
		Provider:  ProviderShortClip,
		Kind:      KindPolled,
		Token:     "op-123",
		StartedAt: time.Now(),
	}
}

func TestPollerAwait_CompletesAfterPending(t *testing.T) {
	poller := NewPoller(time.Millisecond, 10, testLogger())
	op := newTestOperation()

	calls := 0
	check := func(ctx context.Context, token string) (Snapshot, error) {
		calls++
		if calls < 3 {
			return Snapshot{}, nil
		}
		return Snapshot{
			Done:    true,
			Payload: FinalPayload{VideoURL: "https://videos.example/final.mp4", ProviderHandle: "h-1"},
		}, nil
	}

	payload, err := poller.Await(context.Background(), op, check)

	require.NoError(t, err)
	assert.Equal(t, "https://videos.example/final.mp4", payload.VideoURL)
	assert.Equal(t, 3, calls)
	assert.Equal(t, 3, op.Attempts)
}

func TestPollerAwait_TerminalFailure(t *testing.T) {
	poller := NewPoller(time.Millisecond, 10, testLogger())
	op := newTestOperation()

	check := func(ctx context.Context, token string) (Snapshot, error) {
		return Snapshot{Done: true, Failed: true, Error: "safety filters rejected the prompt"}, nil
	}

	_, err := poller.Await(context.Background(), op, check)

	var genErr *GenerationError
	require.ErrorAs(t, err, &genErr)
	assert.Equal(t, ProviderShortClip, genErr.Provider)
	assert.Contains(t, genErr.Message, "safety filters")
}

func TestPollerAwait_StatusCheckError(t *testing.T) {
	poller := NewPoller(time.Millisecond, 10, testLogger())
	op := newTestOperation()

	checkErr := errors.New("connection reset")
	check := func(ctx context.Context, token string) (Snapshot, error) {
		return Snapshot{}, checkErr
	}

	_, err := poller.Await(context.Background(), op, check)

	require.ErrorIs(t, err, checkErr)
	// A transport error surfaces immediately instead of burning the
	// remaining attempts.
	assert.Equal(t, 1, op.Attempts)
}

func TestPollerAwait_AttemptCeiling(t *testing.T) {
	poller := NewPoller(time.Millisecond, 5, testLogger())
	op := newTestOperation()

	calls := 0
	check := func(ctx context.Context, token string) (Snapshot, error) {
		calls++
		return Snapshot{}, nil
	}

	_, err := poller.Await(context.Background(), op, check)

	var timeoutErr *TimeoutError
	require.ErrorAs(t, err, &timeoutErr)
	assert.Equal(t, 5, calls)
	assert.Equal(t, 5, timeoutErr.Attempts)
	assert.Equal(t, ProviderShortClip, timeoutErr.Provider)
	// The timeout is local; the message must not suggest the remote job
	// was cancelled.
	assert.Contains(t, timeoutErr.Error(), "state unknown")
}

func TestPollerAwait_ContextCancelled(t *testing.T) {
	poller := NewPoller(time.Minute, 10, testLogger())
	op := newTestOperation()

	ctx, cancel := context.WithCancel(context.Background())
	check := func(ctx context.Context, token string) (Snapshot, error) {
		cancel()
		return Snapshot{}, nil
	}

	_, err := poller.Await(ctx, op, check)

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, op.Attempts)
}

func TestPollerAwait_SubscribedOperationBypassesPolling(t *testing.T) {
	poller := NewPoller(time.Millisecond, 10, testLogger())
	op := newTestOperation()
	op.Kind = KindSubscribed
	op.Payload = &FinalPayload{LocalPath: "/tmp/clip.mp4", DurationSeconds: 12}

	check := func(ctx context.Context, token string) (Snapshot, error) {
		t.Fatal("subscribed operations must not be polled")
		return Snapshot{}, nil
	}

	payload, err := poller.Await(context.Background(), op, check)

	require.NoError(t, err)
	assert.Equal(t, "/tmp/clip.mp4", payload.LocalPath)
	assert.Equal(t, float64(12), payload.DurationSeconds)
}

func TestNewPoller_Defaults(t *testing.T) {
	poller := NewPoller(0, 0, nil)

	assert.Equal(t, DefaultPollInterval, poller.interval)
	assert.Equal(t, DefaultPollMaxAttempts, poller.maxAttempts)
	assert.NotNil(t, poller.logger)
}
