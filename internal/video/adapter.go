package video

import "context"

// FinalPayload is the terminal outcome of one provider operation,
// normalized so nothing provider-specific leaks past the adapter.
type FinalPayload struct {
	// VideoURL is the remote location of the generated clip, when the
	// provider serves one.
	VideoURL string
	// LocalPath is set when the adapter has already downloaded the clip
	// to scratch storage.
	LocalPath string
	// ProviderHandle is the opaque continuation reference a subsequent
	// extension call needs. Empty for providers without extension.
	ProviderHandle string
	// DurationSeconds is the provider-reported clip length, 0 when the
	// provider does not report one.
	DurationSeconds float64
}

// SourceURI returns the clip location, preferring the remote URL.
func (p FinalPayload) SourceURI() string {
	if p.VideoURL != "" {
		return p.VideoURL
	}
	return p.LocalPath
}

// Snapshot is one observation of a remote operation's state, produced
// by an adapter's status check.
type Snapshot struct {
	Done    bool
	Failed  bool
	Error   string       // provider-reported failure payload
	Payload FinalPayload // valid when Done and not Failed
}

// CheckFunc asks the provider whether the operation behind token is
// done. Implementations belong to adapters; the Poller drives them.
type CheckFunc func(ctx context.Context, token string) (Snapshot, error)

// Adapter is the uniform surface over one generation backend. Callers
// never branch on provider transport: submit, optionally extend, await,
// materialize.
type Adapter interface {
	// Provider returns the role this adapter serves.
	Provider() Provider

	// Submit starts a generation for the given prompt. Polled providers
	// return an operation to be awaited; subscribed providers resolve
	// in place and return an operation with its payload already set.
	Submit(ctx context.Context, prompt string, req Request) (*Operation, error)

	// Extend starts a continuation of a previous clip. Only the
	// short-clip adapter supports this; others return
	// ErrExtendUnsupported.
	Extend(ctx context.Context, previousHandle, prompt string, req Request) (*Operation, error)

	// Await blocks until the operation reaches a terminal state and
	// returns its payload.
	Await(ctx context.Context, op *Operation) (FinalPayload, error)

	// MaterializeURI normalizes a payload into a video URL and/or local
	// path, downloading to scratch storage when the provider's URL is
	// not directly consumable.
	MaterializeURI(ctx context.Context, payload FinalPayload) (videoURL, localPath string, err error)
}
