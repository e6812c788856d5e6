package youtube

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"augments/internal/artifact"
	"augments/internal/store"
)

// DownloadFormat selects what yt-dlp should produce.
type DownloadFormat string

const (
	DownloadMP4   DownloadFormat = "mp4"
	DownloadWebM  DownloadFormat = "webm"
	DownloadAudio DownloadFormat = "audio"
)

// ParseDownloadFormat validates a user-supplied download format.
func ParseDownloadFormat(s string) (DownloadFormat, error) {
	switch DownloadFormat(s) {
	case DownloadMP4, DownloadWebM, DownloadAudio:
		return DownloadFormat(s), nil
	case "":
		return DownloadMP4, nil
	}
	return "", fmt.Errorf("youtube: unknown download format %q", s)
}

// Downloader downloads video or audio media into the downloads category
// by shelling out to yt-dlp.
type Downloader struct {
	store *store.Store
	// YtdlpPath is the yt-dlp executable; "yt-dlp" from PATH when empty.
	YtdlpPath string
}

// NewDownloader creates a Downloader writing into the store.
func NewDownloader(s *store.Store, ytdlpPath string) *Downloader {
	return &Downloader{store: s, YtdlpPath: ytdlpPath}
}

// Download fetches the media and returns the resulting artifact. The
// output name is <id>-<safeTitle>.<ext> when metadata is available.
func (d *Downloader) Download(ctx context.Context, videoID string, meta *Metadata, format DownloadFormat) (artifact.Artifact, error) {
	path := d.YtdlpPath
	if path == "" {
		path = "yt-dlp"
	}

	base := videoID
	if meta != nil {
		base = meta.FilenamePrefix()
	}
	outDir := d.store.Dir(artifact.Download)
	template := filepath.Join(outDir, store.Sanitize(base)+".%(ext)s")

	args := []string{
		"-o", template,
		"--no-warnings",
		"--print", "after_move:filepath",
	}
	switch format {
	case DownloadAudio:
		args = append(args, "-x", "--audio-format", "mp3")
	default:
		args = append(args, "-f",
			fmt.Sprintf("bestvideo[ext=%s]+bestaudio/best[ext=%s]/best", format, format))
	}
	args = append(args, WatchURL(videoID))

	cmd := exec.CommandContext(ctx, path, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return artifact.Artifact{}, fmt.Errorf("youtube: yt-dlp download: %w (%s)",
			err, strings.TrimSpace(stderr.String()))
	}

	// yt-dlp prints the final path; fall back to the template base when
	// the print is missing (older yt-dlp).
	final := strings.TrimSpace(stdout.String())
	if final == "" {
		return artifact.Artifact{}, fmt.Errorf("youtube: yt-dlp reported no output file")
	}
	if lines := strings.Split(final, "\n"); len(lines) > 1 {
		final = strings.TrimSpace(lines[len(lines)-1])
	}
	return d.store.Stat(final)
}
