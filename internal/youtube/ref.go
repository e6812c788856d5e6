// Package youtube implements the video side of acquisition: reference
// parsing, metadata, caption download, and media download.
package youtube

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"augments/internal/apperr"
)

var videoIDRe = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

// ParseVideoID extracts the 11-character video ID from any of the common
// YouTube URL shapes, or accepts a bare ID. Anything else fails with
// apperr.ErrInvalidReference.
func ParseVideoID(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if videoIDRe.MatchString(ref) {
		return ref, nil
	}

	u, err := url.Parse(ref)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("youtube: %q: %w", ref, apperr.ErrInvalidReference)
	}

	host := strings.TrimPrefix(u.Host, "www.")
	var id string
	switch host {
	case "youtu.be":
		id = strings.Trim(u.Path, "/")
	case "youtube.com", "m.youtube.com", "music.youtube.com":
		switch {
		case u.Path == "/watch":
			id = u.Query().Get("v")
		case strings.HasPrefix(u.Path, "/shorts/"):
			id = strings.TrimPrefix(u.Path, "/shorts/")
		case strings.HasPrefix(u.Path, "/embed/"):
			id = strings.TrimPrefix(u.Path, "/embed/")
		case strings.HasPrefix(u.Path, "/live/"):
			id = strings.TrimPrefix(u.Path, "/live/")
		}
	}

	id = strings.Split(strings.Trim(id, "/"), "/")[0]
	if !videoIDRe.MatchString(id) {
		return "", fmt.Errorf("youtube: %q: %w", ref, apperr.ErrInvalidReference)
	}
	return id, nil
}

// WatchURL returns the canonical watch URL for a video ID.
func WatchURL(videoID string) string {
	return "https://www.youtube.com/watch?v=" + videoID
}
