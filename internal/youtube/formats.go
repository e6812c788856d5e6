package youtube

import (
	"encoding/json"
	"fmt"
	"strings"
)

// TranscriptFormat selects how captions are rendered for saving/display.
type TranscriptFormat string

const (
	FormatText TranscriptFormat = "text"
	FormatVTT  TranscriptFormat = "vtt"
	FormatSRT  TranscriptFormat = "srt"
	FormatJSON TranscriptFormat = "json"
)

// ParseTranscriptFormat validates a user-supplied format name.
func ParseTranscriptFormat(s string) (TranscriptFormat, error) {
	switch TranscriptFormat(s) {
	case FormatText, FormatVTT, FormatSRT, FormatJSON:
		return TranscriptFormat(s), nil
	case "":
		return FormatText, nil
	}
	return "", fmt.Errorf("youtube: unknown transcript format %q", s)
}

// Ext returns the artifact file extension for the format.
func (f TranscriptFormat) Ext() string {
	switch f {
	case FormatVTT:
		return ".vtt"
	case FormatSRT:
		return ".srt"
	case FormatJSON:
		return ".json"
	}
	return ".txt"
}

// Render converts caption entries into the requested format.
func Render(entries []CaptionEntry, format TranscriptFormat) (string, error) {
	switch format {
	case FormatText:
		return toPlainText(entries), nil
	case FormatVTT:
		return toVTT(entries), nil
	case FormatSRT:
		return toSRT(entries), nil
	case FormatJSON:
		data, err := json.MarshalIndent(map[string]any{"entries": entries}, "", "  ")
		if err != nil {
			return "", fmt.Errorf("youtube: render json: %w", err)
		}
		return string(data), nil
	}
	return "", fmt.Errorf("youtube: unknown format: %s", format)
}

// toPlainText joins caption lines with spaces, the shape best suited to
// feeding language models.
func toPlainText(entries []CaptionEntry) string {
	parts := make([]string, 0, len(entries))
	for _, e := range entries {
		parts = append(parts, strings.ReplaceAll(e.Text, "\n", " "))
	}
	return strings.Join(parts, " ")
}

func toVTT(entries []CaptionEntry) string {
	var sb strings.Builder
	sb.WriteString("WEBVTT\n\n")
	for _, e := range entries {
		fmt.Fprintf(&sb, "%s --> %s\n%s\n\n",
			vttTime(e.Start), vttTime(e.Start+e.Duration), e.Text)
	}
	return sb.String()
}

func toSRT(entries []CaptionEntry) string {
	var sb strings.Builder
	for i, e := range entries {
		fmt.Fprintf(&sb, "%d\n%s --> %s\n%s\n\n",
			i+1, srtTime(e.Start), srtTime(e.Start+e.Duration), e.Text)
	}
	return sb.String()
}

func vttTime(sec float64) string {
	h, m, s, ms := splitTime(sec)
	return fmt.Sprintf("%02d:%02d:%02d.%03d", h, m, s, ms)
}

func srtTime(sec float64) string {
	h, m, s, ms := splitTime(sec)
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms)
}

func splitTime(sec float64) (h, m, s, ms int) {
	total := int(sec * 1000)
	ms = total % 1000
	total /= 1000
	return total / 3600, (total % 3600) / 60, total % 60, ms
}
