// Package clipboard reads the current system clipboard text. Clipboard
// content is ambient rather than identity-addressable, so nothing here is
// ever cached.
package clipboard

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"augments/internal/apperr"
)

// Reader abstracts clipboard access so consumers can substitute fixed
// content in tests.
type Reader interface {
	Read(ctx context.Context) (string, error)
}

// SystemReader reads through the host clipboard tools.
type SystemReader struct{}

func (SystemReader) Read(ctx context.Context) (string, error) { return Read(ctx) }

// tools are tried in order; the first one present on PATH wins.
var tools = [][]string{
	{"pbpaste"},
	{"wl-paste", "--no-newline"},
	{"xclip", "-selection", "clipboard", "-o"},
	{"xsel", "-b"},
	{"powershell.exe", "-noprofile", "-command", "Get-Clipboard"},
}

// Read returns the clipboard text. It fails with apperr.ErrSourceUnavailable
// when no clipboard tool is available or the clipboard is empty.
func Read(ctx context.Context) (string, error) {
	for _, tool := range tools {
		if _, err := exec.LookPath(tool[0]); err != nil {
			continue
		}
		cmd := exec.CommandContext(ctx, tool[0], tool[1:]...)
		var out bytes.Buffer
		cmd.Stdout = &out
		if err := cmd.Run(); err != nil {
			continue
		}
		text := strings.TrimRight(out.String(), "\n")
		if text == "" {
			return "", fmt.Errorf("clipboard: empty: %w", apperr.ErrSourceUnavailable)
		}
		return text, nil
	}
	return "", fmt.Errorf("clipboard: no clipboard tool found: %w", apperr.ErrSourceUnavailable)
}

// Title derives a display title from the first line of text, capped at 50
// runes.
func Title(text string) string {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	if len(lines) == 0 || strings.TrimSpace(lines[0]) == "" {
		return "ClipboardContent"
	}
	first := strings.TrimSpace(lines[0])
	runes := []rune(first)
	if len(runes) > 50 {
		return string(runes[:50])
	}
	return first
}
