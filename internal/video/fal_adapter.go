package video

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lumora/creative-api/internal/fal"
	"github.com/lumora/creative-api/internal/storage"
)

// LongFormAdapter serves the long-form role on the fal queue. The
// provider accepts the full requested duration in one call and
// completes through an in-process subscribe loop instead of the shared
// poller, so Submit returns an already-resolved operation.
type LongFormAdapter struct {
	client fal.Client
	store  storage.Storage
	logger *slog.Logger
}

// Compile-time interface check.
var _ Adapter = (*LongFormAdapter)(nil)

// NewLongFormAdapter creates the long-form adapter.
func NewLongFormAdapter(client fal.Client, store storage.Storage, logger *slog.Logger) *LongFormAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &LongFormAdapter{
		client: client,
		store:  store,
		logger: logger,
	}
}

// Provider returns the long-form role.
func (a *LongFormAdapter) Provider() Provider {
	return ProviderLongForm
}

// Submit runs the whole generation through the queue's subscribe loop,
// then downloads the asset to scratch storage. The returned operation
// is already terminal; Await only unwraps it.
func (a *LongFormAdapter) Submit(ctx context.Context, prompt string, req Request) (*Operation, error) {
	input := fal.GenerateInput{
		Prompt:          prompt,
		NegativePrompt:  req.NegativePrompt,
		DurationSeconds: req.DurationSeconds,
		AspectRatio:     req.AspectRatio,
		Resolution:      req.Resolution,
	}
	if req.FirstFrame != nil && req.FirstFrame.URI != "" {
		input.ImageURL = req.FirstFrame.URI
	}

	started := time.Now()
	out, err := a.client.Subscribe(ctx, input, func(u fal.Update) {
		attrs := []any{
			slog.String("status", string(u.Status)),
		}
		if u.Status == fal.StatusInQueue {
			attrs = append(attrs, slog.Int("queue_position", u.QueuePosition))
		}
		a.logger.Debug("long-form progress", attrs...)
		for _, line := range u.Logs {
			a.logger.Debug("long-form provider log", slog.String("message", line.Message))
		}
	})
	if err != nil {
		// A terminal model failure surfaces on the response fetch.
		if errors.Is(err, fal.ErrRequestFailed) {
			return nil, &GenerationError{Provider: ProviderLongForm, Message: err.Error()}
		}
		return nil, fmt.Errorf("long-form submit: %w", err)
	}

	local := a.store.NewFile("mp4")
	if err := a.client.DownloadVideo(ctx, out.Video.URL, local); err != nil {
		return nil, fmt.Errorf("download long-form asset: %w", err)
	}

	duration := out.DurationSeconds
	if duration == 0 {
		duration = float64(req.DurationSeconds)
	}

	payload := FinalPayload{
		VideoURL:        out.Video.URL,
		LocalPath:       local,
		DurationSeconds: duration,
	}

	a.logger.Info("long-form generation resolved",
		slog.Duration("elapsed", time.Since(started)),
		slog.Float64("duration_seconds", duration),
	)

	return &Operation{
		Provider:  ProviderLongForm,
		Kind:      KindSubscribed,
		Token:     out.Video.URL,
		StartedAt: started,
		Payload:   &payload,
	}, nil
}

// Extend is not supported: the provider has no continuation concept.
func (a *LongFormAdapter) Extend(ctx context.Context, previousHandle, prompt string, req Request) (*Operation, error) {
	return nil, ErrExtendUnsupported
}

// Await unwraps the payload resolved during Submit.
func (a *LongFormAdapter) Await(ctx context.Context, op *Operation) (FinalPayload, error) {
	if op.Payload == nil {
		return FinalPayload{}, ErrOperationUnresolved
	}
	return *op.Payload, nil
}

// MaterializeURI is a no-op: Submit already downloaded the asset.
func (a *LongFormAdapter) MaterializeURI(ctx context.Context, payload FinalPayload) (string, string, error) {
	return payload.VideoURL, payload.LocalPath, nil
}
