// Package publish uploads finished videos to social platforms.
package publish

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"github.com/lumora/creative-api/internal/brand"
	"github.com/lumora/creative-api/internal/video"
)

// Privacy values accepted by the upload endpoint.
const (
	PrivacyPrivate  = "private"
	PrivacyUnlisted = "unlisted"
	PrivacyPublic   = "public"
)

// maxTitleLength is the platform's title limit.
const maxTitleLength = 100

var (
	// ErrNotConfigured is returned when the OAuth client or token file
	// is missing from the configuration.
	ErrNotConfigured = errors.New("publish: YouTube credentials are not configured")

	// ErrInvalidPrivacy is returned for privacy values the platform
	// does not accept.
	ErrInvalidPrivacy = errors.New("publish: privacy must be private, unlisted or public")
)

// Metadata describes one upload.
type Metadata struct {
	Title       string
	Description string
	Tags        []string
	CategoryID  string
	Privacy     string
	// PublishAt schedules the video; scheduling forces private until
	// the platform flips it at the given time.
	PublishAt time.Time
}

// Upload is the platform's reference to a published video.
type Upload struct {
	VideoID  string `json:"video_id"`
	WatchURL string `json:"watch_url"`
}

// YouTube uploads videos through the Data API v3 with a stored OAuth
// token. Credentials are read per upload; publishing is rare enough
// that caching a service would only hide token expiry problems.
type YouTube struct {
	credentialsFile string
	tokenFile       string
	logger          *slog.Logger
}

// NewYouTube creates a YouTube publisher from an OAuth client file and
// a stored token file.
func NewYouTube(credentialsFile, tokenFile string, logger *slog.Logger) *YouTube {
	if logger == nil {
		logger = slog.Default()
	}
	return &YouTube{
		credentialsFile: credentialsFile,
		tokenFile:       tokenFile,
		logger:          logger,
	}
}

// Publish uploads the video file with the given metadata and returns
// the platform reference. Files above the simple-upload limit go
// through the API client's resumable upload automatically.
func (y *YouTube) Publish(ctx context.Context, videoPath string, meta Metadata) (*Upload, error) {
	if err := validPrivacy(meta.Privacy); err != nil {
		return nil, err
	}

	svc, err := y.service(ctx)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(videoPath) // #nosec G304 - path comes from a completed job record
	if err != nil {
		return nil, fmt.Errorf("open video file: %w", err)
	}
	defer f.Close()

	y.logger.Info("uploading video",
		slog.String("title", meta.Title),
		slog.String("privacy", meta.Privacy),
		slog.Bool("scheduled", !meta.PublishAt.IsZero()),
	)

	call := svc.Videos.Insert([]string{"snippet", "status"}, buildVideo(meta))
	uploaded, err := call.Media(f).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("upload video: %w", err)
	}

	up := &Upload{
		VideoID:  uploaded.Id,
		WatchURL: "https://www.youtube.com/watch?v=" + uploaded.Id,
	}
	y.logger.Info("video published", slog.String("video_id", up.VideoID))
	return up, nil
}

// service builds an authenticated API client from the configured
// credential files.
func (y *YouTube) service(ctx context.Context) (*youtube.Service, error) {
	if y.credentialsFile == "" || y.tokenFile == "" {
		return nil, ErrNotConfigured
	}

	data, err := os.ReadFile(y.credentialsFile) // #nosec G304 - path comes from configuration
	if err != nil {
		return nil, fmt.Errorf("read oauth client file: %w", err)
	}
	conf, err := google.ConfigFromJSON(data, youtube.YoutubeUploadScope)
	if err != nil {
		return nil, fmt.Errorf("parse oauth client file: %w", err)
	}

	tokenData, err := os.ReadFile(y.tokenFile) // #nosec G304 - path comes from configuration
	if err != nil {
		return nil, fmt.Errorf("read oauth token file: %w", err)
	}
	var token oauth2.Token
	if err := json.Unmarshal(tokenData, &token); err != nil {
		return nil, fmt.Errorf("parse oauth token file: %w", err)
	}

	svc, err := youtube.NewService(ctx, option.WithHTTPClient(conf.Client(ctx, &token)))
	if err != nil {
		return nil, fmt.Errorf("create youtube service: %w", err)
	}
	return svc, nil
}

// buildVideo maps upload metadata onto the platform's resource shape.
func buildVideo(meta Metadata) *youtube.Video {
	categoryID := meta.CategoryID
	if categoryID == "" {
		categoryID = "22" // People & Blogs
	}

	status := &youtube.VideoStatus{
		PrivacyStatus:           meta.Privacy,
		SelfDeclaredMadeForKids: false,
	}
	if !meta.PublishAt.IsZero() {
		// Scheduling requires private until the publish time.
		status.PrivacyStatus = PrivacyPrivate
		status.PublishAt = meta.PublishAt.UTC().Format(time.RFC3339)
	}

	return &youtube.Video{
		Snippet: &youtube.VideoSnippet{
			Title:       truncate(meta.Title, maxTitleLength),
			Description: meta.Description,
			Tags:        meta.Tags,
			CategoryId:  categoryID,
		},
		Status: status,
	}
}

// BuildMetadata derives upload metadata from the generation request and
// the brand kit.
func BuildMetadata(req video.Request, kit *brand.Kit, privacy string) Metadata {
	title := firstSentence(req.Prompt)

	var desc strings.Builder
	desc.WriteString(req.Prompt)
	if kit != nil && kit.Tagline != "" {
		desc.WriteString("\n\n")
		desc.WriteString(kit.Tagline)
	}

	tags := []string{string(req.Mode)}
	if kit != nil && kit.Name != "" {
		tags = append(tags, strings.ToLower(kit.Name))
	}

	return Metadata{
		Title:       truncate(title, maxTitleLength),
		Description: desc.String(),
		Tags:        tags,
		Privacy:     privacy,
	}
}

func validPrivacy(p string) error {
	switch p {
	case PrivacyPrivate, PrivacyUnlisted, PrivacyPublic:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidPrivacy, p)
	}
}

// firstSentence takes the prompt up to the first sentence break.
func firstSentence(s string) string {
	s = strings.TrimSpace(s)
	for _, sep := range []string{". ", "! ", "? ", "\n"} {
		if i := strings.Index(s, sep); i > 0 {
			return s[:i+1]
		}
	}
	return s
}

// truncate limits a string to n runes.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
