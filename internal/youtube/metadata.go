package youtube

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"

	"google.golang.org/api/option"
	yt "google.golang.org/api/youtube/v3"

	"augments/internal/store"
)

// Metadata holds the video fields the pipeline and reports use.
type Metadata struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Author      string `json:"uploader"`
	Duration    int    `json:"duration"`
	ViewCount   int64  `json:"view_count"`
	UploadDate  string `json:"upload_date"` // YYYYMMDD
	Description string `json:"description"`
}

// SafeTitle returns a filesystem-safe version of the title.
func (m *Metadata) SafeTitle() string {
	t := store.Sanitize(m.Title)
	if t == "" {
		return "Untitled"
	}
	return t
}

// FilenamePrefix returns the standard artifact name prefix for the video.
func (m *Metadata) FilenamePrefix() string {
	return m.ID + "-" + m.SafeTitle()
}

// MetadataSource fetches metadata for a video ID.
type MetadataSource interface {
	Fetch(ctx context.Context, videoID string) (*Metadata, error)
}

// YtdlpSource fetches metadata by shelling out to yt-dlp.
type YtdlpSource struct {
	// Path to the yt-dlp executable; "yt-dlp" from PATH when empty.
	Path string
}

// Fetch runs yt-dlp -J and parses the JSON metadata dump.
func (s *YtdlpSource) Fetch(ctx context.Context, videoID string) (*Metadata, error) {
	path := s.Path
	if path == "" {
		path = "yt-dlp"
	}
	cmd := exec.CommandContext(ctx, path, "-J", "--no-warnings", WatchURL(videoID))

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("youtube: yt-dlp metadata: %w (%s)", err, strings.TrimSpace(stderr.String()))
	}

	var m Metadata
	if err := json.Unmarshal(stdout.Bytes(), &m); err != nil {
		return nil, fmt.Errorf("youtube: parse yt-dlp metadata: %w", err)
	}
	if m.ID == "" {
		m.ID = videoID
	}
	return &m, nil
}

// APISource fetches metadata through the YouTube Data API v3. It keeps a
// yt-dlp fallback for quota or network failures.
type APISource struct {
	service  *yt.Service
	fallback MetadataSource
}

// NewAPISource builds an APISource with the given API key.
func NewAPISource(ctx context.Context, apiKey string, fallback MetadataSource) (*APISource, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("youtube: api key required")
	}
	service, err := yt.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("youtube: create service: %w", err)
	}
	return &APISource{service: service, fallback: fallback}, nil
}

// Fetch queries the Data API, falling back to yt-dlp on any failure.
func (s *APISource) Fetch(ctx context.Context, videoID string) (*Metadata, error) {
	resp, err := s.service.Videos.
		List([]string{"snippet", "contentDetails", "statistics"}).
		Id(videoID).
		Context(ctx).
		Do()
	if err != nil || len(resp.Items) == 0 {
		if s.fallback != nil {
			return s.fallback.Fetch(ctx, videoID)
		}
		if err == nil {
			err = fmt.Errorf("video %s not found", videoID)
		}
		return nil, fmt.Errorf("youtube: data api: %w", err)
	}

	item := resp.Items[0]
	m := &Metadata{
		ID:          videoID,
		Title:       item.Snippet.Title,
		Author:      item.Snippet.ChannelTitle,
		Description: item.Snippet.Description,
		Duration:    int(parseISO8601Duration(item.ContentDetails.Duration).Seconds()),
	}
	if item.Statistics != nil {
		m.ViewCount = int64(item.Statistics.ViewCount)
	}
	// snippet.publishedAt is RFC 3339; reports want YYYYMMDD.
	if len(item.Snippet.PublishedAt) >= 10 {
		m.UploadDate = strings.ReplaceAll(item.Snippet.PublishedAt[:10], "-", "")
	}
	return m, nil
}

var iso8601Re = regexp.MustCompile(`^PT(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?$`)

// parseISO8601Duration handles the PT#H#M#S durations the Data API returns.
func parseISO8601Duration(s string) time.Duration {
	m := iso8601Re.FindStringSubmatch(s)
	if m == nil {
		return 0
	}
	atoi := func(v string) int {
		if v == "" {
			return 0
		}
		n, _ := strconv.Atoi(v)
		return n
	}
	secs := atoi(m[1])*3600 + atoi(m[2])*60 + atoi(m[3])
	return time.Duration(secs) * time.Second
}

// FormatDuration renders seconds as HH:MM:SS.
func FormatDuration(seconds int) string {
	return fmt.Sprintf("%02d:%02d:%02d", seconds/3600, (seconds%3600)/60, seconds%60)
}

// FormatUploadDate converts YYYYMMDD to YYYY-MM-DD, passing through
// anything that does not look like a yt-dlp upload date.
func FormatUploadDate(d string) string {
	if len(d) != 8 {
		return d
	}
	return d[:4] + "-" + d[4:6] + "-" + d[6:]
}
