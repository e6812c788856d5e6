package youtube

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"augments/internal/apperr"
)

const defaultTimedtextURL = "https://www.youtube.com/api/timedtext"

// CaptionEntry is a single timed caption line.
type CaptionEntry struct {
	Start    float64 `json:"start"`
	Duration float64 `json:"duration"`
	Text     string  `json:"text"`
}

// TimedtextClient fetches captions from YouTube's timedtext endpoint.
type TimedtextClient struct {
	BaseURL string
	hc      *http.Client
}

// NewTimedtextClient creates a client with sane timeouts.
func NewTimedtextClient() *TimedtextClient {
	return &TimedtextClient{
		BaseURL: defaultTimedtextURL,
		hc:      &http.Client{Timeout: 30 * time.Second},
	}
}

// FetchCaptions downloads captions for a video, preferring the structured
// caption track and degrading to auto-generated (ASR) captions when none
// exists. A video with neither fails with apperr.ErrSourceUnavailable.
func (c *TimedtextClient) FetchCaptions(ctx context.Context, videoID, lang string) ([]CaptionEntry, error) {
	if lang == "" {
		lang = "en"
	}

	entries, err := c.fetch(ctx, videoID, lang, "")
	if err == nil && len(entries) > 0 {
		return entries, nil
	}
	if err != nil && !isNoTrack(err) {
		return nil, err
	}

	entries, err = c.fetch(ctx, videoID, lang, "asr")
	if err != nil {
		if isNoTrack(err) {
			return nil, fmt.Errorf("youtube: no captions for %s: %w", videoID, apperr.ErrSourceUnavailable)
		}
		return nil, err
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("youtube: no captions for %s: %w", videoID, apperr.ErrSourceUnavailable)
	}
	return entries, nil
}

type noTrackError struct{ videoID string }

func (e *noTrackError) Error() string { return "no caption track for " + e.videoID }

func isNoTrack(err error) bool {
	var nt *noTrackError
	return errors.As(err, &nt)
}

func (c *TimedtextClient) fetch(ctx context.Context, videoID, lang, kind string) ([]CaptionEntry, error) {
	params := url.Values{}
	params.Set("v", videoID)
	params.Set("lang", lang)
	params.Set("fmt", "json3")
	if kind != "" {
		params.Set("kind", kind)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("youtube: build request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("youtube: timedtext request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, &noTrackError{videoID}
	case http.StatusTooManyRequests:
		return nil, fmt.Errorf("youtube: timedtext: %w", apperr.ErrRateLimited)
	default:
		return nil, fmt.Errorf("youtube: timedtext status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("youtube: read timedtext body: %w", err)
	}
	// An empty body means the track does not exist for the requested kind.
	if len(strings.TrimSpace(string(body))) == 0 {
		return nil, &noTrackError{videoID}
	}
	return parseTimedtext(body)
}

type timedtextResponse struct {
	Events []struct {
		TStartMs    int64 `json:"tStartMs"`
		DDurationMs int64 `json:"dDurationMs"`
		Segs        []struct {
			UTF8 string `json:"utf8"`
		} `json:"segs"`
	} `json:"events"`
}

func parseTimedtext(data []byte) ([]CaptionEntry, error) {
	var resp timedtextResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("youtube: parse timedtext: %w", err)
	}

	var entries []CaptionEntry
	for _, ev := range resp.Events {
		if len(ev.Segs) == 0 {
			continue
		}
		var text strings.Builder
		for _, seg := range ev.Segs {
			text.WriteString(seg.UTF8)
		}
		t := strings.TrimSpace(text.String())
		if t == "" || t == "\n" {
			continue
		}
		entries = append(entries, CaptionEntry{
			Start:    float64(ev.TStartMs) / 1000.0,
			Duration: float64(ev.DDurationMs) / 1000.0,
			Text:     t,
		})
	}
	return entries, nil
}
