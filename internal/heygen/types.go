// Package heygen provides an HTTP client for the HeyGen avatar video API.
package heygen

// Status represents the status of a HeyGen video generation.
type Status string

// Video statuses aligned with the HeyGen API.
const (
	StatusPending    Status = "pending"
	StatusWaiting    Status = "waiting"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// IsTerminal returns true if the status is a terminal state.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusFailed:
		return true
	default:
		return false
	}
}

// GenerateVideoRequest describes a single avatar video generation.
// The script is spoken in full by the chosen avatar; there is no
// segment or extension concept on this provider.
type GenerateVideoRequest struct {
	Script      string
	AvatarID    string
	AvatarStyle string // defaults to "normal"
	VoiceID     string
	Width       int
	Height      int
	Title       string
}

// VideoStatus is the client-side view of a generation in progress.
type VideoStatus struct {
	ID           string
	Status       Status
	VideoURL     string
	ThumbnailURL string
	Duration     float64 // seconds, set when completed
	Error        string  // set when failed
}

// Avatar is a catalog entry from the avatars listing.
type Avatar struct {
	AvatarID        string `json:"avatar_id"`
	AvatarName      string `json:"avatar_name"`
	Gender          string `json:"gender,omitempty"`
	PreviewImageURL string `json:"preview_image_url,omitempty"`
	PreviewVideoURL string `json:"preview_video_url,omitempty"`
}

// Voice is a catalog entry from the voices listing.
type Voice struct {
	VoiceID      string `json:"voice_id"`
	Name         string `json:"name"`
	Language     string `json:"language,omitempty"`
	Gender       string `json:"gender,omitempty"`
	PreviewAudio string `json:"preview_audio,omitempty"`
}

// character is the avatar section of a video input.
type character struct {
	Type        string `json:"type"`
	AvatarID    string `json:"avatar_id"`
	AvatarStyle string `json:"avatar_style,omitempty"`
}

// voiceInput is the voice section of a video input.
type voiceInput struct {
	Type      string `json:"type"`
	InputText string `json:"input_text"`
	VoiceID   string `json:"voice_id"`
}

// videoInput pairs a character with the script it speaks.
type videoInput struct {
	Character character  `json:"character"`
	Voice     voiceInput `json:"voice"`
}

// dimension is the output resolution of the video.
type dimension struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// generateRequestBody is the request body for the v2 generate endpoint.
type generateRequestBody struct {
	VideoInputs []videoInput `json:"video_inputs"`
	Dimension   dimension    `json:"dimension"`
	Title       string       `json:"title,omitempty"`
}

// apiError is the error object carried in v2 response envelopes.
type apiError struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// generateResponse is the v2 generate endpoint envelope.
type generateResponse struct {
	Error *apiError `json:"error,omitempty"`
	Data  struct {
		VideoID string `json:"video_id"`
	} `json:"data"`
}

// statusError is the error detail of a failed generation.
type statusError struct {
	Code    any    `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
	Detail  string `json:"detail,omitempty"`
}

// statusResponse is the v1 video_status.get envelope.
type statusResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"message,omitempty"`
	Data struct {
		ID           string       `json:"id"`
		Status       string       `json:"status"`
		VideoURL     string       `json:"video_url,omitempty"`
		ThumbnailURL string       `json:"thumbnail_url,omitempty"`
		Duration     float64      `json:"duration,omitempty"`
		Error        *statusError `json:"error,omitempty"`
	} `json:"data"`
}

// avatarsResponse is the v2 avatars listing envelope.
type avatarsResponse struct {
	Error *apiError `json:"error,omitempty"`
	Data  struct {
		Avatars []Avatar `json:"avatars"`
	} `json:"data"`
}

// voicesResponse is the v2 voices listing envelope.
type voicesResponse struct {
	Error *apiError `json:"error,omitempty"`
	Data  struct {
		Voices []Voice `json:"voices"`
	} `json:"data"`
}
