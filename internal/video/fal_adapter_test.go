package video

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/lumora/creative-api/internal/fal"
	"github.com/lumora/creative-api/internal/storage"
)

// mockFalClient is a simple mock for testing LongFormAdapter.
type mockFalClient struct {
	mock.Mock
}

func (m *mockFalClient) Submit(ctx context.Context, input fal.GenerateInput) (string, error) {
	args := m.Called(ctx, input)
	return args.String(0), args.Error(1)
}

func (m *mockFalClient) Status(ctx context.Context, requestID string) (fal.Update, error) {
	args := m.Called(ctx, requestID)
	return args.Get(0).(fal.Update), args.Error(1)
}

func (m *mockFalClient) Result(ctx context.Context, requestID string) (fal.GenerateOutput, error) {
	args := m.Called(ctx, requestID)
	return args.Get(0).(fal.GenerateOutput), args.Error(1)
}

func (m *mockFalClient) Subscribe(ctx context.Context, input fal.GenerateInput, onUpdate func(fal.Update)) (fal.GenerateOutput, error) {
	args := m.Called(ctx, input, onUpdate)
	return args.Get(0).(fal.GenerateOutput), args.Error(1)
}

func (m *mockFalClient) DownloadVideo(ctx context.Context, videoURL, destPath string) error {
	args := m.Called(ctx, videoURL, destPath)
	return args.Error(0)
}

func newLongFormAdapter(t *testing.T, client fal.Client) *LongFormAdapter {
	t.Helper()
	arena, err := storage.NewArena(t.TempDir(), "run-test")
	require.NoError(t, err)
	t.Cleanup(func() { _ = arena.Cleanup(context.Background()) })
	return NewLongFormAdapter(client, arena, testLogger())
}

func TestLongFormAdapter_Submit(t *testing.T) {
	ctx := context.Background()
	mockClient := &mockFalClient{}
	adapter := newLongFormAdapter(t, mockClient)

	req := Request{
		Prompt:          "a documentary about tides",
		NegativePrompt:  "text",
		DurationSeconds: 200,
		AspectRatio:     Aspect16x9,
		Resolution:      Resolution1080p,
		Mode:            ModeFaceless,
		FirstFrame:      &ImageRef{URI: "https://images.example/first.png"},
	}

	out := fal.GenerateOutput{
		Video:           fal.File{URL: "https://cdn.example/final.mp4"},
		DurationSeconds: 198.4,
	}

	mockClient.On("Subscribe", ctx, mock.MatchedBy(func(in fal.GenerateInput) bool {
		return in.Prompt == req.Prompt &&
			in.DurationSeconds == 200 &&
			in.AspectRatio == Aspect16x9 &&
			in.ImageURL == "https://images.example/first.png"
	}), mock.AnythingOfType("func(fal.Update)")).Return(out, nil)
	mockClient.On("DownloadVideo", ctx, "https://cdn.example/final.mp4", mock.AnythingOfType("string")).Return(nil)

	op, err := adapter.Submit(ctx, req.Prompt, req)

	require.NoError(t, err)
	assert.Equal(t, KindSubscribed, op.Kind)
	require.NotNil(t, op.Payload)
	assert.Equal(t, "https://cdn.example/final.mp4", op.Payload.VideoURL)
	assert.NotEmpty(t, op.Payload.LocalPath)
	assert.Equal(t, 198.4, op.Payload.DurationSeconds)
	mockClient.AssertExpectations(t)
}

func TestLongFormAdapter_Submit_DurationFallback(t *testing.T) {
	ctx := context.Background()
	mockClient := &mockFalClient{}
	adapter := newLongFormAdapter(t, mockClient)

	out := fal.GenerateOutput{Video: fal.File{URL: "https://cdn.example/final.mp4"}}
	mockClient.On("Subscribe", ctx, mock.Anything, mock.Anything).Return(out, nil)
	mockClient.On("DownloadVideo", ctx, mock.Anything, mock.Anything).Return(nil)

	op, err := adapter.Submit(ctx, "p", Request{Prompt: "p", DurationSeconds: 160, Mode: ModeFaceless})

	require.NoError(t, err)
	assert.Equal(t, float64(160), op.Payload.DurationSeconds)
}

func TestLongFormAdapter_Submit_GenerationFailure(t *testing.T) {
	ctx := context.Background()
	mockClient := &mockFalClient{}
	adapter := newLongFormAdapter(t, mockClient)

	mockClient.On("Subscribe", ctx, mock.Anything, mock.Anything).
		Return(fal.GenerateOutput{}, fmt.Errorf("result: %w: nsfw content detected", fal.ErrRequestFailed))

	_, err := adapter.Submit(ctx, "p", Request{Prompt: "p", DurationSeconds: 160, Mode: ModeFaceless})

	var genErr *GenerationError
	require.ErrorAs(t, err, &genErr)
	assert.Equal(t, ProviderLongForm, genErr.Provider)
	assert.Contains(t, genErr.Message, "nsfw")
	mockClient.AssertNotCalled(t, "DownloadVideo", mock.Anything, mock.Anything, mock.Anything)
}

func TestLongFormAdapter_Submit_TransportErrorIsNotGenerationError(t *testing.T) {
	ctx := context.Background()
	mockClient := &mockFalClient{}
	adapter := newLongFormAdapter(t, mockClient)

	mockClient.On("Subscribe", ctx, mock.Anything, mock.Anything).
		Return(fal.GenerateOutput{}, context.DeadlineExceeded)

	_, err := adapter.Submit(ctx, "p", Request{Prompt: "p", DurationSeconds: 160, Mode: ModeFaceless})

	require.Error(t, err)
	var genErr *GenerationError
	assert.False(t, errors.As(err, &genErr), "transport problems must stay retryable errors, not terminal generation failures")
}

func TestLongFormAdapter_Extend(t *testing.T) {
	adapter := newLongFormAdapter(t, &mockFalClient{})

	_, err := adapter.Extend(context.Background(), "handle", "p", Request{})

	require.ErrorIs(t, err, ErrExtendUnsupported)
}

func TestLongFormAdapter_Await(t *testing.T) {
	adapter := newLongFormAdapter(t, &mockFalClient{})

	payload := FinalPayload{VideoURL: "https://cdn.example/final.mp4", LocalPath: "/scratch/final.mp4"}
	op := &Operation{Provider: ProviderLongForm, Kind: KindSubscribed, Token: "t", StartedAt: time.Now(), Payload: &payload}

	got, err := adapter.Await(context.Background(), op)

	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestLongFormAdapter_Await_Unresolved(t *testing.T) {
	adapter := newLongFormAdapter(t, &mockFalClient{})

	op := &Operation{Provider: ProviderLongForm, Kind: KindSubscribed, Token: "t", StartedAt: time.Now()}
	_, err := adapter.Await(context.Background(), op)

	require.ErrorIs(t, err, ErrOperationUnresolved)
}

func TestLongFormAdapter_MaterializeURI(t *testing.T) {
	adapter := newLongFormAdapter(t, &mockFalClient{})

	videoURL, localPath, err := adapter.MaterializeURI(context.Background(), FinalPayload{
		VideoURL:  "https://cdn.example/final.mp4",
		LocalPath: "/scratch/final.mp4",
	})

	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example/final.mp4", videoURL)
	assert.Equal(t, "/scratch/final.mp4", localPath)
}
