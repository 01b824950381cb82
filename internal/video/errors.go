package video

import (
	"errors"
	"fmt"
	"time"
)

// Static errors for request validation and provider selection.
var (
	// ErrPromptRequired is returned when the prompt is empty.
	ErrPromptRequired = errors.New("video: prompt is required")
	// ErrDurationOutOfRange is returned when the duration is outside 8..900 seconds.
	ErrDurationOutOfRange = errors.New("video: duration must be between 8 and 900 seconds")
	// ErrInvalidAspectRatio is returned for an unknown aspect ratio.
	ErrInvalidAspectRatio = errors.New("video: aspect ratio must be 16:9, 9:16 or 1:1")
	// ErrInvalidResolution is returned for an unknown resolution.
	ErrInvalidResolution = errors.New("video: resolution must be 720p or 1080p")
	// ErrInvalidMode is returned for an unknown generation mode.
	ErrInvalidMode = errors.New("video: mode must be faceless or avatar")
	// ErrInvalidProvider is returned for an unknown explicit provider.
	ErrInvalidProvider = errors.New("video: provider must be short-clip, long-form or avatar")
	// ErrModeProviderConflict is returned when faceless mode is combined
	// with an explicit avatar provider.
	ErrModeProviderConflict = errors.New("video: faceless mode cannot use the avatar provider")
	// ErrAvatarIdentityRequired is returned when avatar mode lacks an
	// avatar or voice identifier.
	ErrAvatarIdentityRequired = errors.New("video: avatar mode requires avatar and voice identifiers")
	// ErrTooManyReferenceImages is returned when more than three
	// reference images are provided.
	ErrTooManyReferenceImages = errors.New("video: at most 3 reference images are allowed")

	// ErrProviderUnavailable is returned when the selected strategy needs
	// a provider that has no configured adapter or credential. Selection
	// fails fast instead of silently truncating the request.
	ErrProviderUnavailable = errors.New("video: required provider is not available")
	// ErrChainCapExceeded is returned when an explicit short-clip
	// override asks for a duration past the 20-extension ceiling.
	ErrChainCapExceeded = errors.New("video: requested duration exceeds the short-clip chain cap")
	// ErrExtendUnsupported is returned by adapters without a continuation
	// concept.
	ErrExtendUnsupported = errors.New("video: adapter does not support extension")
	// ErrOperationUnresolved is returned when a subscribed operation is
	// awaited without a resolved payload.
	ErrOperationUnresolved = errors.New("video: subscribed operation carries no payload")
	// ErrHandleRequired is returned when an extension is attempted
	// without the previous clip's continuation handle.
	ErrHandleRequired = errors.New("video: continuation handle is required")
)

// TimeoutError reports that the local polling ceiling was reached.
// The remote job may still be running; nothing was cancelled.
type TimeoutError struct {
	Provider Provider
	Attempts int
	Elapsed  time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("video: %s operation still pending after %d attempts (%s); remote job state unknown", e.Provider, e.Attempts, e.Elapsed.Round(time.Second))
}

// GenerationError reports a terminal failure from the provider,
// carrying the provider's reported error payload.
type GenerationError struct {
	Provider Provider
	Message  string
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("video: %s generation failed: %s", e.Provider, e.Message)
}

// ChainError reports a chain that stopped mid-way. Clips generated
// before the failing segment remain usable; callers convert this into a
// partial result rather than discarding them.
type ChainError struct {
	Segment            int // index of the failing segment (1-based extension index)
	AccumulatedSeconds int // duration covered by completed clips
	Err                error
}

func (e *ChainError) Error() string {
	return fmt.Sprintf("video: chain stopped at extension %d with %ds generated: %v", e.Segment, e.AccumulatedSeconds, e.Err)
}

func (e *ChainError) Unwrap() error {
	return e.Err
}
