package video

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
	"time"

	"github.com/lumora/creative-api/internal/storage"
	"github.com/lumora/creative-api/internal/veo"
)

// ShortClipAdapter serves the short-clip role on Veo. The provider
// emits fixed 8-second base clips and extends them in 7-second
// increments, taking the previous clip's video reference as explicit
// continuation input.
type ShortClipAdapter struct {
	client veo.Client
	poller *Poller
	store  storage.Storage
	logger *slog.Logger
}

// Compile-time interface check.
var _ Adapter = (*ShortClipAdapter)(nil)

// NewShortClipAdapter creates the short-clip adapter.
func NewShortClipAdapter(client veo.Client, poller *Poller, store storage.Storage, logger *slog.Logger) *ShortClipAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &ShortClipAdapter{
		client: client,
		poller: poller,
		store:  store,
		logger: logger,
	}
}

// Provider returns the short-clip role.
func (a *ShortClipAdapter) Provider() Provider {
	return ProviderShortClip
}

// Submit starts a base clip generation. Reference images and first and
// last frame pins are forwarded when present; faceless mode sets the
// disallow-person flag.
func (a *ShortClipAdapter) Submit(ctx context.Context, prompt string, req Request) (*Operation, error) {
	gen := veo.GenerateRequest{
		Prompt:           prompt,
		NegativePrompt:   req.NegativePrompt,
		AspectRatio:      req.AspectRatio,
		Resolution:       req.Resolution,
		DurationSeconds:  BaseClipSeconds,
		PersonGeneration: personGeneration(req.Mode),
	}

	var err error
	if gen.Image, err = mediaFromRef(req.FirstFrame); err != nil {
		return nil, fmt.Errorf("first frame: %w", err)
	}
	if gen.LastFrame, err = mediaFromRef(req.LastFrame); err != nil {
		return nil, fmt.Errorf("last frame: %w", err)
	}
	for i := range req.ReferenceImages {
		m, err := mediaFromRef(&req.ReferenceImages[i])
		if err != nil {
			return nil, fmt.Errorf("reference image %d: %w", i, err)
		}
		gen.ReferenceImages = append(gen.ReferenceImages, *m)
	}

	name, err := a.client.Generate(ctx, gen)
	if err != nil {
		return nil, fmt.Errorf("short-clip submit: %w", err)
	}

	a.logger.Debug("base clip submitted", slog.String("operation", name))
	return &Operation{
		Provider:  ProviderShortClip,
		Kind:      KindPolled,
		Token:     name,
		StartedAt: time.Now(),
	}, nil
}

// Extend starts a 7-second continuation of the clip behind
// previousHandle.
func (a *ShortClipAdapter) Extend(ctx context.Context, previousHandle, prompt string, req Request) (*Operation, error) {
	if previousHandle == "" {
		return nil, fmt.Errorf("short-clip extend: %w", ErrHandleRequired)
	}

	gen := veo.GenerateRequest{
		Prompt:           prompt,
		NegativePrompt:   req.NegativePrompt,
		AspectRatio:      req.AspectRatio,
		Resolution:       req.Resolution,
		DurationSeconds:  ExtensionSeconds,
		PersonGeneration: personGeneration(req.Mode),
		Video:            &veo.Media{URI: previousHandle, MimeType: "video/mp4"},
	}

	name, err := a.client.Generate(ctx, gen)
	if err != nil {
		return nil, fmt.Errorf("short-clip extend: %w", err)
	}

	a.logger.Debug("extension submitted", slog.String("operation", name))
	return &Operation{
		Provider:  ProviderShortClip,
		Kind:      KindPolled,
		Token:     name,
		StartedAt: time.Now(),
	}, nil
}

// Await polls the operation to a terminal state.
func (a *ShortClipAdapter) Await(ctx context.Context, op *Operation) (FinalPayload, error) {
	return a.poller.Await(ctx, op, a.check)
}

// check is the poll probe: one status request against the operation.
func (a *ShortClipAdapter) check(ctx context.Context, token string) (Snapshot, error) {
	res, err := a.client.GetOperation(ctx, token)
	if err != nil {
		return Snapshot{}, err
	}

	if !res.Done {
		return Snapshot{}, nil
	}
	if res.Error != "" {
		return Snapshot{Done: true, Failed: true, Error: res.Error}, nil
	}
	return Snapshot{
		Done: true,
		Payload: FinalPayload{
			VideoURL: res.VideoURI,
			// The generated video URI doubles as the continuation
			// reference for the next extension.
			ProviderHandle: res.VideoURI,
		},
	}, nil
}

// MaterializeURI downloads the clip to scratch storage. The provider's
// URL needs the API key on every fetch, so downstream consumers get a
// local copy.
func (a *ShortClipAdapter) MaterializeURI(ctx context.Context, payload FinalPayload) (string, string, error) {
	if payload.LocalPath != "" {
		return payload.VideoURL, payload.LocalPath, nil
	}

	dest := a.store.NewFile("mp4")
	if err := a.client.DownloadVideo(ctx, payload.VideoURL, dest); err != nil {
		return "", "", fmt.Errorf("download short clip: %w", err)
	}
	return payload.VideoURL, dest, nil
}

// personGeneration maps the request mode onto the provider's person
// policy. Faceless requests must never produce people.
func personGeneration(mode Mode) string {
	if mode == ModeFaceless {
		return veo.PersonGenerationDontAllow
	}
	return veo.PersonGenerationAllowAdult
}

// mediaFromRef turns an image reference into provider media: local
// paths are inlined as base64, remote URIs pass through.
func mediaFromRef(ref *ImageRef) (*veo.Media, error) {
	if ref == nil {
		return nil, nil
	}

	if ref.URI != "" {
		return &veo.Media{URI: ref.URI, MimeType: ref.MimeType}, nil
	}

	data, err := os.ReadFile(ref.Path) // #nosec G304 - path comes from the request author
	if err != nil {
		return nil, fmt.Errorf("read image %s: %w", ref.Path, err)
	}

	mimeType := ref.MimeType
	if mimeType == "" {
		mimeType = mime.TypeByExtension(filepath.Ext(ref.Path))
	}
	if mimeType == "" {
		mimeType = "image/png"
	}

	return &veo.Media{
		BytesBase64Encoded: base64.StdEncoding.EncodeToString(data),
		MimeType:           mimeType,
	}, nil
}
