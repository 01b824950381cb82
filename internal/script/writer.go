package script

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// speakingWordsPerMinute sizes avatar scripts for a natural
// text-to-speech pace.
const speakingWordsPerMinute = 150

// Writer turns briefs into generation prompts.
type Writer struct {
	model  Model
	logger *slog.Logger
}

// NewWriter creates a writer over a text model.
func NewWriter(model Model, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{model: model, logger: logger}
}

// ExtensionBeats expands a base prompt into up to n continuation beats,
// one per chain extension. Fewer beats than requested is fine; the
// chain reuses the base prompt for the extensions left uncovered.
func (w *Writer) ExtensionBeats(ctx context.Context, prompt string, n int) ([]string, error) {
	if n <= 0 {
		return nil, nil
	}

	out, err := w.model.GenerateText(ctx, extensionBeatsPrompt(prompt, n))
	if err != nil {
		return nil, fmt.Errorf("extension beats: %w", err)
	}

	beats := parseBeats(out)
	if len(beats) == 0 {
		return nil, ErrEmptyResponse
	}
	if len(beats) > n {
		beats = beats[:n]
	}

	w.logger.Debug("extension beats drafted",
		slog.Int("requested", n),
		slog.Int("produced", len(beats)),
	)
	return beats, nil
}

// AvatarScript drafts a spoken script of roughly the target duration
// from a campaign brief.
func (w *Writer) AvatarScript(ctx context.Context, brief string, seconds int) (string, error) {
	out, err := w.model.GenerateText(ctx, avatarScriptPrompt(brief, seconds))
	if err != nil {
		return "", fmt.Errorf("avatar script: %w", err)
	}

	script := strings.TrimSpace(stripFences(out))
	if script == "" {
		return "", ErrEmptyResponse
	}

	w.logger.Debug("avatar script drafted",
		slog.Int("target_seconds", seconds),
		slog.Int("words", len(strings.Fields(script))),
	)
	return script, nil
}

func extensionBeatsPrompt(prompt string, n int) string {
	return fmt.Sprintf(`A video is generated in chained segments from this prompt:

%s

Write %d short continuation beats, one per line, each describing what the next 7-second segment shows. Keep the subject, setting and style consistent across beats. No numbering, no commentary.`, prompt, n)
}

func avatarScriptPrompt(brief string, seconds int) string {
	words := seconds * speakingWordsPerMinute / 60
	return fmt.Sprintf(`Write a spoken script for a presenter video based on this brief:

%s

Target length is %d seconds, roughly %d words at a natural speaking pace. Plain sentences only: the text is read verbatim by a text-to-speech voice. No stage directions, no headings, no emphasis markers.`, brief, seconds, words)
}

// parseBeats splits model output into clean beat lines, tolerating the
// numbering and bullets models add despite instructions.
func parseBeats(out string) []string {
	var beats []string
	for _, line := range strings.Split(stripFences(out), "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "-*• \t")
		if i := strings.IndexAny(line, ".)"); i > 0 && i <= 3 && isDigits(line[:i]) {
			line = strings.TrimSpace(line[i+1:])
		}
		if line == "" {
			continue
		}
		beats = append(beats, line)
	}
	return beats
}

// stripFences removes a wrapping markdown code fence when present.
func stripFences(out string) string {
	out = strings.TrimSpace(out)
	if !strings.HasPrefix(out, "```") {
		return out
	}
	out = strings.TrimPrefix(out, "```")
	if i := strings.Index(out, "\n"); i >= 0 {
		out = out[i+1:]
	}
	return strings.TrimSuffix(strings.TrimSpace(out), "```")
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}
