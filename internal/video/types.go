// Package video implements the provider coordination layer for video
// generation: selecting a provider for a requested duration and style,
// chaining dependent scene-extension calls, polling remote operations
// and materializing a uniform result across providers.
package video

import "time"

// Provider identifies a generation backend by its role.
type Provider string

// Provider roles. Each role is served by exactly one adapter.
const (
	ProviderShortClip Provider = "short-clip"
	ProviderLongForm  Provider = "long-form"
	ProviderAvatar    Provider = "avatar"
)

// Mode constrains what the generated video may contain.
type Mode string

// Generation modes.
const (
	// ModeFaceless forbids any human figure in the output. It forces the
	// disallow-person flag on providers that support it and rules out the
	// avatar adapter.
	ModeFaceless Mode = "faceless"
	// ModeAvatar generates a talking persona speaking the prompt as a
	// full script.
	ModeAvatar Mode = "avatar"
)

// Strategy describes how a request is executed against its adapter.
type Strategy string

// Execution strategies.
const (
	StrategySingleShot Strategy = "single-shot"
	StrategyChained    Strategy = "chained"
)

// Aspect ratios accepted by all providers.
const (
	Aspect16x9 = "16:9"
	Aspect9x16 = "9:16"
	Aspect1x1  = "1:1"
)

// Resolutions accepted by all providers.
const (
	Resolution720p  = "720p"
	Resolution1080p = "1080p"
)

// Request duration bounds in seconds.
const (
	MinDurationSeconds = 8
	MaxDurationSeconds = 900
)

// MaxReferenceImages is the most reference images a request may carry.
const MaxReferenceImages = 3

// ImageRef references an image by local path or remote URI.
type ImageRef struct {
	Path     string `json:"path,omitempty"`
	URI      string `json:"uri,omitempty"`
	MimeType string `json:"mime_type,omitempty"`
}

// Request is the immutable input for one generation.
type Request struct {
	Prompt           string     `json:"prompt"`
	DurationSeconds  int        `json:"duration_seconds"`
	AspectRatio      string     `json:"aspect_ratio"`
	Resolution       string     `json:"resolution"`
	Mode             Mode       `json:"mode"`
	ExplicitProvider Provider   `json:"explicit_provider,omitempty"`
	NegativePrompt   string     `json:"negative_prompt,omitempty"`
	ReferenceImages  []ImageRef `json:"reference_images,omitempty"`
	FirstFrame       *ImageRef  `json:"first_frame,omitempty"`
	LastFrame        *ImageRef  `json:"last_frame,omitempty"`
	ExtensionPrompts []string   `json:"extension_prompts,omitempty"`

	// Avatar mode only.
	AvatarID string `json:"avatar_id,omitempty"`
	VoiceID  string `json:"voice_id,omitempty"`
}

// withDefaults returns a copy of the request with unset enum fields
// resolved to their defaults. The copy is what selection and adapters
// operate on, and what results echo back.
func (r Request) withDefaults() Request {
	if r.AspectRatio == "" {
		r.AspectRatio = Aspect16x9
	}
	if r.Resolution == "" {
		r.Resolution = Resolution720p
	}
	if r.Mode == "" {
		r.Mode = ModeFaceless
	}
	return r
}

// ExtensionPrompt returns the prompt for extension i (1-based). When no
// per-extension prompt was provided, the base prompt carries through.
func (r Request) ExtensionPrompt(i int) string {
	if i >= 1 && i <= len(r.ExtensionPrompts) && r.ExtensionPrompts[i-1] != "" {
		return r.ExtensionPrompts[i-1]
	}
	return r.Prompt
}

// Validate checks the request against the documented bounds and the
// mode/provider compatibility rules. It is called once, by the
// Coordinator, before any selection happens.
func (r Request) Validate() error {
	if r.Prompt == "" {
		return ErrPromptRequired
	}
	if r.DurationSeconds < MinDurationSeconds || r.DurationSeconds > MaxDurationSeconds {
		return ErrDurationOutOfRange
	}
	switch r.AspectRatio {
	case Aspect16x9, Aspect9x16, Aspect1x1:
	default:
		return ErrInvalidAspectRatio
	}
	switch r.Resolution {
	case Resolution720p, Resolution1080p:
	default:
		return ErrInvalidResolution
	}
	switch r.Mode {
	case ModeFaceless, ModeAvatar:
	default:
		return ErrInvalidMode
	}
	switch r.ExplicitProvider {
	case "", ProviderShortClip, ProviderLongForm, ProviderAvatar:
	default:
		return ErrInvalidProvider
	}
	if r.Mode == ModeFaceless && r.ExplicitProvider == ProviderAvatar {
		return ErrModeProviderConflict
	}
	if r.Mode == ModeAvatar && (r.AvatarID == "" || r.VoiceID == "") {
		return ErrAvatarIdentityRequired
	}
	if len(r.ReferenceImages) > MaxReferenceImages {
		return ErrTooManyReferenceImages
	}
	return nil
}

// ClipStatus is the terminal state of one clip.
type ClipStatus string

// Clip statuses.
const (
	ClipCompleted ClipStatus = "completed"
	ClipFailed    ClipStatus = "failed"
)

// Clip is one unit of provider output. Clips form an ordered sequence:
// clip[i+1] was generated using clip[i].ProviderHandle as continuation
// context. Clips are never mutated after creation.
type Clip struct {
	Index           int        `json:"index"`
	Prompt          string     `json:"prompt"`
	ProviderHandle  string     `json:"provider_handle"`
	DurationSeconds int        `json:"duration_seconds"`
	SourceURI       string     `json:"source_uri"`
	Status          ClipStatus `json:"status"`
}

// OperationKind distinguishes the two provider completion models.
type OperationKind string

// Operation kinds.
const (
	// KindPolled operations are submitted, then repeatedly asked about.
	KindPolled OperationKind = "polled"
	// KindSubscribed operations resolve inside the adapter's own submit
	// call; they never enter the poll loop.
	KindSubscribed OperationKind = "subscribed"
)

// Operation is a handle for one outstanding remote request. A polled
// operation is owned by the Poller until it reaches a terminal state;
// a subscribed operation arrives already resolved, with Payload set.
type Operation struct {
	Provider  Provider
	Kind      OperationKind
	Token     string
	Attempts  int
	StartedAt time.Time

	// Payload is set only for subscribed operations, which resolve
	// during submit.
	Payload *FinalPayload
}

// Result is the unified output shape across all providers and
// strategies. It is immutable once constructed; external collaborators
// persist it as-is.
type Result struct {
	Type            string   `json:"type"`
	Provider        Provider `json:"provider"`
	VideoURL        string   `json:"video_url,omitempty"`
	LocalPath       string   `json:"local_path,omitempty"`
	DurationSeconds float64  `json:"duration_seconds"`
	Clips           []Clip   `json:"clips,omitempty"`
	Error           string   `json:"error,omitempty"`
	Config          Request  `json:"config"`
}

// ResultTypeVideo is the Type stamp shared by all video results.
const ResultTypeVideo = "video"
