package video

import (
	"context"
	"fmt"
	"log/slog"
)

// Short-clip chain arithmetic. The provider emits a fixed 8-second base
// clip and fixed 7-second extensions, at most 20 of them, so a chain
// tops out at 8 + 20*7 = 148 seconds.
const (
	BaseClipSeconds  = 8
	ExtensionSeconds = 7
	MaxExtensions    = 20
	MaxChainSeconds  = BaseClipSeconds + MaxExtensions*ExtensionSeconds
)

// ExtensionCount returns how many extension calls a requested duration
// needs on top of the base clip, capped at MaxExtensions.
func ExtensionCount(durationSeconds int) int {
	if durationSeconds <= BaseClipSeconds {
		return 0
	}
	n := (durationSeconds - BaseClipSeconds + ExtensionSeconds - 1) / ExtensionSeconds
	if n > MaxExtensions {
		n = MaxExtensions
	}
	return n
}

// ChainDurationSeconds returns the duration covered by a base clip plus
// the given number of completed extensions.
func ChainDurationSeconds(completedExtensions int) int {
	return BaseClipSeconds + ExtensionSeconds*completedExtensions
}

// ChainDriver assembles a long video from a provider that only emits
// short fixed-length clips, feeding each clip's continuation handle
// into the next request. Steps are strictly sequential: extension i
// cannot start before clip i-1 exists.
type ChainDriver struct {
	logger *slog.Logger
}

// NewChainDriver creates a chain driver.
func NewChainDriver(logger *slog.Logger) *ChainDriver {
	if logger == nil {
		logger = slog.Default()
	}
	return &ChainDriver{logger: logger}
}

// Run generates the base clip and every needed extension, awaiting each
// to completion before the next begins.
//
// On base-clip failure it returns no clips and the error. On failure at
// extension i it returns the clips completed so far and a ChainError
// naming the failing segment and the accumulated duration; completed
// clips are never discarded and failed extensions are never retried.
// The produced duration is always 8 + 7 x completed extensions, which
// can overshoot the request (rounded up to the next extension) or, on
// partial failure, undershoot it.
func (d *ChainDriver) Run(ctx context.Context, adapter Adapter, req Request) ([]Clip, error) {
	extensions := ExtensionCount(req.DurationSeconds)

	d.logger.Info("starting clip chain",
		slog.String("provider", string(adapter.Provider())),
		slog.Int("requested_seconds", req.DurationSeconds),
		slog.Int("extensions", extensions),
		slog.Int("planned_seconds", ChainDurationSeconds(extensions)),
	)

	base, err := d.step(ctx, adapter, req, 0, "", req.Prompt)
	if err != nil {
		return nil, fmt.Errorf("base clip: %w", err)
	}
	clips := []Clip{base}

	for i := 1; i <= extensions; i++ {
		prompt := req.ExtensionPrompt(i)
		clip, err := d.step(ctx, adapter, req, i, clips[i-1].ProviderHandle, prompt)
		if err != nil {
			completed := len(clips) - 1
			d.logger.Warn("chain stopped early",
				slog.Int("failed_extension", i),
				slog.Int("completed_clips", len(clips)),
				slog.Int("accumulated_seconds", ChainDurationSeconds(completed)),
			)
			return clips, &ChainError{
				Segment:            i,
				AccumulatedSeconds: ChainDurationSeconds(completed),
				Err:                err,
			}
		}
		clips = append(clips, clip)
	}

	return clips, nil
}

// step runs one clip generation to completion. Index 0 is the base
// clip; higher indices extend the clip behind previousHandle.
func (d *ChainDriver) step(ctx context.Context, adapter Adapter, req Request, index int, previousHandle, prompt string) (Clip, error) {
	var (
		op  *Operation
		err error
	)
	if index == 0 {
		op, err = adapter.Submit(ctx, prompt, req)
	} else {
		op, err = adapter.Extend(ctx, previousHandle, prompt, req)
	}
	if err != nil {
		return Clip{}, err
	}

	payload, err := adapter.Await(ctx, op)
	if err != nil {
		return Clip{}, err
	}

	seconds := BaseClipSeconds
	if index > 0 {
		seconds = ExtensionSeconds
	}

	d.logger.Debug("clip completed",
		slog.Int("index", index),
		slog.Int("seconds", seconds),
	)

	return Clip{
		Index:           index,
		Prompt:          prompt,
		ProviderHandle:  payload.ProviderHandle,
		DurationSeconds: seconds,
		SourceURI:       payload.SourceURI(),
		Status:          ClipCompleted,
	}, nil
}
