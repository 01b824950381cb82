// Package brand loads the brand kit and applies it to generation
// requests and publishing metadata.
package brand

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/lumora/creative-api/internal/video"
)

// Kit is the brand kit loaded from a YAML file. All fields are
// optional; an empty kit applies nothing.
type Kit struct {
	Name        string   `yaml:"name"`
	Tagline     string   `yaml:"tagline"`
	Tone        string   `yaml:"tone"`
	Palette     []string `yaml:"palette"`
	BannedTerms []string `yaml:"banned_terms"`
	Defaults    Defaults `yaml:"defaults"`
}

// Defaults are request fields the kit fills when a request leaves them
// unset.
type Defaults struct {
	AspectRatio    string `yaml:"aspect_ratio"`
	Resolution     string `yaml:"resolution"`
	NegativePrompt string `yaml:"negative_prompt"`
	AvatarID       string `yaml:"avatar_id"`
	VoiceID        string `yaml:"voice_id"`
}

// Load reads a brand kit from a YAML file.
func Load(path string) (*Kit, error) {
	data, err := os.ReadFile(path) // #nosec G304 - path comes from configuration
	if err != nil {
		return nil, fmt.Errorf("read brand kit: %w", err)
	}
	var kit Kit
	if err := yaml.Unmarshal(data, &kit); err != nil {
		return nil, fmt.Errorf("parse brand kit: %w", err)
	}
	return &kit, nil
}

// Apply returns a copy of the request with kit defaults filled in and
// style guidance prefixed to the prompt. Explicit request values always
// win; Apply never overwrites a set field.
func (k *Kit) Apply(req video.Request) video.Request {
	if req.AspectRatio == "" {
		req.AspectRatio = k.Defaults.AspectRatio
	}
	if req.Resolution == "" {
		req.Resolution = k.Defaults.Resolution
	}
	if req.NegativePrompt == "" {
		req.NegativePrompt = k.Defaults.NegativePrompt
	}
	if req.Mode == video.ModeAvatar {
		if req.AvatarID == "" {
			req.AvatarID = k.Defaults.AvatarID
		}
		if req.VoiceID == "" {
			req.VoiceID = k.Defaults.VoiceID
		}
	}

	if style := k.styleClause(); style != "" && !strings.HasPrefix(req.Prompt, style) {
		req.Prompt = style + req.Prompt
	}
	return req
}

// styleClause renders the tone and palette as a prompt prefix.
func (k *Kit) styleClause() string {
	var parts []string
	if k.Tone != "" {
		parts = append(parts, k.Tone+" tone")
	}
	if len(k.Palette) > 0 {
		parts = append(parts, "color palette "+strings.Join(k.Palette, ", "))
	}
	if len(parts) == 0 {
		return ""
	}
	return "Brand style: " + strings.Join(parts, "; ") + ". "
}

// Lint returns the banned terms found in the text, case-insensitively.
// An empty result means the text is clean for publishing.
func (k *Kit) Lint(text string) []string {
	lower := strings.ToLower(text)
	var found []string
	for _, term := range k.BannedTerms {
		if term == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(term)) {
			found = append(found, term)
		}
	}
	return found
}
