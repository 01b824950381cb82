// Package veo provides an HTTP client for the Veo video generation API
// exposed through the Gemini API long-running operations surface.
package veo

// Person generation policy values accepted by the API.
const (
	PersonGenerationAllowAdult = "allow_adult"
	PersonGenerationAllowAll   = "allow_all"
	PersonGenerationDontAllow  = "dont_allow"
)

// Media references an image or video, either by provider URI or inline bytes.
type Media struct {
	URI                string `json:"uri,omitempty"`
	BytesBase64Encoded string `json:"bytesBase64Encoded,omitempty"`
	MimeType           string `json:"mimeType,omitempty"`
}

// GenerateRequest describes a single generation call.
// For a fresh clip, Prompt drives the generation and Image optionally pins
// the first frame. For an extension, Video carries the provider URI of the
// clip being extended; the API continues from its final frames.
type GenerateRequest struct {
	Prompt           string
	NegativePrompt   string
	AspectRatio      string // "16:9", "9:16" or "1:1"
	Resolution       string // "720p" or "1080p"
	DurationSeconds  int
	PersonGeneration string
	Image            *Media  // first frame
	LastFrame        *Media  // last frame, for interpolation
	Video            *Media  // clip to extend
	ReferenceImages  []Media // subject/style anchors, at most three
}

// Operation is the client-side view of a long-running generation operation.
type Operation struct {
	Name            string
	Done            bool
	VideoURI        string   // set when Done and the generation succeeded
	Error           string   // set when Done and the generation failed
	FilteredReasons []string // responsible-AI filter reasons, if any
}

// instance is a single prediction instance in the request body.
type instance struct {
	Prompt          string           `json:"prompt"`
	Image           *Media           `json:"image,omitempty"`
	LastFrame       *Media           `json:"lastFrame,omitempty"`
	Video           *Media           `json:"video,omitempty"`
	ReferenceImages []referenceImage `json:"referenceImages,omitempty"`
}

// referenceImage wraps a media reference with its role in the generation.
type referenceImage struct {
	Image         *Media `json:"image"`
	ReferenceType string `json:"referenceType,omitempty"`
}

// parameters is the generation configuration section of the request body.
type parameters struct {
	AspectRatio      string `json:"aspectRatio,omitempty"`
	NegativePrompt   string `json:"negativePrompt,omitempty"`
	PersonGeneration string `json:"personGeneration,omitempty"`
	DurationSeconds  int    `json:"durationSeconds,omitempty"`
	Resolution       string `json:"resolution,omitempty"`
}

// generateRequestBody is the request body for the predictLongRunning endpoint.
type generateRequestBody struct {
	Instances  []instance `json:"instances"`
	Parameters parameters `json:"parameters"`
}

// operationResponse is the wire shape of a long-running operation.
type operationResponse struct {
	Name     string          `json:"name"`
	Done     bool            `json:"done"`
	Error    *operationError `json:"error,omitempty"`
	Response *operationBody  `json:"response,omitempty"`
}

// operationError is the error detail of a failed operation.
type operationError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// operationBody holds the typed response of a finished operation.
type operationBody struct {
	GenerateVideoResponse *generateVideoResponse `json:"generateVideoResponse,omitempty"`
}

// generateVideoResponse carries the generated samples.
type generateVideoResponse struct {
	GeneratedSamples        []generatedSample `json:"generatedSamples,omitempty"`
	RAIMediaFilteredCount   int               `json:"raiMediaFilteredCount,omitempty"`
	RAIMediaFilteredReasons []string          `json:"raiMediaFilteredReasons,omitempty"`
}

// generatedSample is a single generated video.
type generatedSample struct {
	Video *Media `json:"video,omitempty"`
}
