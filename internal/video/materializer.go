package video

import (
	"context"
	"fmt"
	"strings"
)

// Materializer normalizes provider output into the unified Result
// shape. It performs no pixel work: assembling a chain's clips into one
// continuous file belongs to an external compositing collaborator.
type Materializer struct{}

// NewMaterializer creates a materializer.
func NewMaterializer() *Materializer {
	return &Materializer{}
}

// FromClips builds the result for a chained generation. The video
// location comes from the last clip only and is materialized through
// the adapter, so key-gated provider URIs become consumable URLs or
// local files the same way single-shot results do. The reported
// duration is the sum over completed clips, never the requested
// duration. Materializing the same clip list twice yields identical
// results.
func (m *Materializer) FromClips(ctx context.Context, adapter Adapter, clips []Clip, req Request) (Result, error) {
	res := Result{
		Type:     ResultTypeVideo,
		Provider: adapter.Provider(),
		Clips:    clips,
		Config:   req,
	}

	if len(clips) == 0 {
		return res, nil
	}

	last := clips[len(clips)-1]
	payload := FinalPayload{ProviderHandle: last.ProviderHandle}
	if strings.HasPrefix(last.SourceURI, "http://") || strings.HasPrefix(last.SourceURI, "https://") {
		payload.VideoURL = last.SourceURI
	} else {
		payload.LocalPath = last.SourceURI
	}

	videoURL, localPath, err := adapter.MaterializeURI(ctx, payload)
	if err != nil {
		return Result{}, fmt.Errorf("materialize %s chain result: %w", adapter.Provider(), err)
	}
	res.VideoURL = videoURL
	res.LocalPath = localPath

	total := 0
	for _, c := range clips {
		if c.Status == ClipCompleted {
			total += c.DurationSeconds
		}
	}
	res.DurationSeconds = float64(total)

	return res, nil
}

// FromPayload builds the result for a single-shot generation, asking
// the adapter to materialize a consumable URI first. When the provider
// did not report a duration, the requested duration stands in.
func (m *Materializer) FromPayload(ctx context.Context, adapter Adapter, payload FinalPayload, req Request) (Result, error) {
	videoURL, localPath, err := adapter.MaterializeURI(ctx, payload)
	if err != nil {
		return Result{}, fmt.Errorf("materialize %s result: %w", adapter.Provider(), err)
	}

	duration := payload.DurationSeconds
	if duration == 0 {
		duration = float64(req.DurationSeconds)
	}

	return Result{
		Type:            ResultTypeVideo,
		Provider:        adapter.Provider(),
		VideoURL:        videoURL,
		LocalPath:       localPath,
		DurationSeconds: duration,
		Config:          req,
	}, nil
}
