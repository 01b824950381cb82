package video

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lumora/creative-api/internal/heygen"
)

// AvatarAdapter serves the avatar role on HeyGen. One call covers the
// full spoken script; completion is a status-endpoint poll.
type AvatarAdapter struct {
	client heygen.Client
	poller *Poller
	logger *slog.Logger
}

// Compile-time interface check.
var _ Adapter = (*AvatarAdapter)(nil)

// NewAvatarAdapter creates the avatar adapter.
func NewAvatarAdapter(client heygen.Client, poller *Poller, logger *slog.Logger) *AvatarAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &AvatarAdapter{
		client: client,
		poller: poller,
		logger: logger,
	}
}

// Provider returns the avatar role.
func (a *AvatarAdapter) Provider() Provider {
	return ProviderAvatar
}

// Submit starts an avatar video speaking the prompt as its script.
func (a *AvatarAdapter) Submit(ctx context.Context, prompt string, req Request) (*Operation, error) {
	width, height := dimensionsFor(req.AspectRatio, req.Resolution)

	videoID, err := a.client.GenerateVideo(ctx, heygen.GenerateVideoRequest{
		Script:   prompt,
		AvatarID: req.AvatarID,
		VoiceID:  req.VoiceID,
		Width:    width,
		Height:   height,
	})
	if err != nil {
		return nil, fmt.Errorf("avatar submit: %w", err)
	}

	a.logger.Debug("avatar video submitted", slog.String("video_id", videoID))
	return &Operation{
		Provider:  ProviderAvatar,
		Kind:      KindPolled,
		Token:     videoID,
		StartedAt: time.Now(),
	}, nil
}

// Extend is not supported: a single call covers any script length the
// provider allows.
func (a *AvatarAdapter) Extend(ctx context.Context, previousHandle, prompt string, req Request) (*Operation, error) {
	return nil, ErrExtendUnsupported
}

// Await polls the status endpoint to a terminal state.
func (a *AvatarAdapter) Await(ctx context.Context, op *Operation) (FinalPayload, error) {
	return a.poller.Await(ctx, op, a.check)
}

// check is the poll probe: one status request for the video.
func (a *AvatarAdapter) check(ctx context.Context, token string) (Snapshot, error) {
	st, err := a.client.GetVideoStatus(ctx, token)
	if err != nil {
		return Snapshot{}, err
	}

	if !st.Status.IsTerminal() {
		return Snapshot{}, nil
	}
	if st.Status == heygen.StatusFailed {
		return Snapshot{Done: true, Failed: true, Error: st.Error}, nil
	}
	return Snapshot{
		Done: true,
		Payload: FinalPayload{
			VideoURL:        st.VideoURL,
			DurationSeconds: st.Duration,
		},
	}, nil
}

// MaterializeURI passes the pre-signed video URL through; it is
// directly consumable without credentials.
func (a *AvatarAdapter) MaterializeURI(ctx context.Context, payload FinalPayload) (string, string, error) {
	return payload.VideoURL, payload.LocalPath, nil
}

// dimensionsFor maps aspect ratio and resolution onto pixel dimensions.
func dimensionsFor(aspectRatio, resolution string) (width, height int) {
	long, short := 1280, 720
	if resolution == Resolution1080p {
		long, short = 1920, 1080
	}

	switch aspectRatio {
	case Aspect9x16:
		return short, long
	case Aspect1x1:
		return short, short
	default:
		return long, short
	}
}
