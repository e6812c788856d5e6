package youtube

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"augments/internal/apperr"
)

func TestParseVideoID(t *testing.T) {
	cases := []struct{ in, want string }{
		{"dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ&t=42s", "dQw4w9WgXcQ"},
		{"https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://www.youtube.com/shorts/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://www.youtube.com/embed/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
	}
	for _, c := range cases {
		got, err := ParseVideoID(c.in)
		if err != nil {
			t.Fatalf("ParseVideoID(%q): %v", c.in, err)
		}
		if got != c.want {
			t.Errorf("ParseVideoID(%q) = %q", c.in, got)
		}
	}
}

func TestParseVideoIDInvalid(t *testing.T) {
	for _, in := range []string{"", "short", "https://example.com/watch?v=x", "not a url at all"} {
		if _, err := ParseVideoID(in); !errors.Is(err, apperr.ErrInvalidReference) {
			t.Errorf("ParseVideoID(%q): err = %v, want ErrInvalidReference", in, err)
		}
	}
}

func TestRenderFormats(t *testing.T) {
	entries := []CaptionEntry{
		{Start: 0, Duration: 2.5, Text: "Hello world."},
		{Start: 2.5, Duration: 3, Text: "This is a test."},
	}

	text, err := Render(entries, FormatText)
	if err != nil {
		t.Fatalf("Render text: %v", err)
	}
	if text != "Hello world. This is a test." {
		t.Errorf("text = %q", text)
	}

	vtt, err := Render(entries, FormatVTT)
	if err != nil {
		t.Fatalf("Render vtt: %v", err)
	}
	if !strings.HasPrefix(vtt, "WEBVTT") {
		t.Errorf("vtt missing header: %q", vtt[:20])
	}
	if !strings.Contains(vtt, "00:00:00.000 --> 00:00:02.500") {
		t.Errorf("vtt missing cue timing:\n%s", vtt)
	}

	srt, err := Render(entries, FormatSRT)
	if err != nil {
		t.Fatalf("Render srt: %v", err)
	}
	if !strings.Contains(srt, "00:00:02,500 --> 00:00:05,500") {
		t.Errorf("srt missing cue timing:\n%s", srt)
	}

	if _, err := Render(entries, FormatJSON); err != nil {
		t.Fatalf("Render json: %v", err)
	}
}

func TestParseTranscriptFormat(t *testing.T) {
	if _, err := ParseTranscriptFormat("tab-separated"); err == nil {
		t.Error("expected error for unknown format")
	}
	f, err := ParseTranscriptFormat("srt")
	if err != nil {
		t.Fatalf("ParseTranscriptFormat: %v", err)
	}
	if f.Ext() != ".srt" {
		t.Errorf("ext = %q", f.Ext())
	}
}

const manualTrack = `{"events":[
  {"tStartMs":0,"dDurationMs":2500,"segs":[{"utf8":"Hello "},{"utf8":"world."}]},
  {"tStartMs":2500,"dDurationMs":3000,"segs":[{"utf8":"This is a test."}]}
]}`

func timedtextServer(t *testing.T, handler http.HandlerFunc) *TimedtextClient {
	t.Helper()
	r := chi.NewRouter()
	r.Get("/api/timedtext", handler)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	c := NewTimedtextClient()
	c.BaseURL = srv.URL + "/api/timedtext"
	return c
}

func TestFetchCaptionsManualTrack(t *testing.T) {
	c := timedtextServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("kind") == "asr" {
			t.Error("fell through to ASR despite manual track")
		}
		w.Write([]byte(manualTrack))
	})

	entries, err := c.FetchCaptions(context.Background(), "dQw4w9WgXcQ", "en")
	if err != nil {
		t.Fatalf("FetchCaptions: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries", len(entries))
	}
	if entries[0].Text != "Hello world." {
		t.Errorf("text = %q", entries[0].Text)
	}
}

func TestFetchCaptionsFallsBackToASR(t *testing.T) {
	c := timedtextServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("kind") != "asr" {
			// Empty body signals a missing manual track.
			return
		}
		w.Write([]byte(manualTrack))
	})

	entries, err := c.FetchCaptions(context.Background(), "dQw4w9WgXcQ", "en")
	if err != nil {
		t.Fatalf("FetchCaptions: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("got %d entries", len(entries))
	}
}

func TestFetchCaptionsNoTracks(t *testing.T) {
	c := timedtextServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	if _, err := c.FetchCaptions(context.Background(), "dQw4w9WgXcQ", "en"); !errors.Is(err, apperr.ErrSourceUnavailable) {
		t.Errorf("err = %v, want ErrSourceUnavailable", err)
	}
}

func TestFetchCaptionsRateLimited(t *testing.T) {
	c := timedtextServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	if _, err := c.FetchCaptions(context.Background(), "dQw4w9WgXcQ", "en"); !errors.Is(err, apperr.ErrRateLimited) {
		t.Errorf("err = %v, want ErrRateLimited", err)
	}
}

func TestFormatDuration(t *testing.T) {
	cases := []struct {
		in   int
		want string
	}{
		{59, "00:00:59"},
		{61, "00:01:01"},
		{3661, "01:01:01"},
	}
	for _, c := range cases {
		if got := FormatDuration(c.in); got != c.want {
			t.Errorf("FormatDuration(%d) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestFormatUploadDate(t *testing.T) {
	if got := FormatUploadDate("20240131"); got != "2024-01-31" {
		t.Errorf("got %q", got)
	}
	if got := FormatUploadDate("junk"); got != "junk" {
		t.Errorf("malformed input rewritten: %q", got)
	}
}

func TestFilenamePrefix(t *testing.T) {
	m := &Metadata{ID: "dQw4w9WgXcQ", Title: "Never / Gonna: Give?"}
	got := m.FilenamePrefix()
	if strings.ContainsAny(got, `<>:"/\|?*`) {
		t.Errorf("prefix has illegal chars: %q", got)
	}
	if !strings.HasPrefix(got, "dQw4w9WgXcQ-") {
		t.Errorf("prefix = %q", got)
	}
}

func TestParseISO8601Duration(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"PT1H2M3S", 3723},
		{"PT15M", 900},
		{"PT45S", 45},
		{"garbage", 0},
	}
	for _, c := range cases {
		if got := int(parseISO8601Duration(c.in).Seconds()); got != c.want {
			t.Errorf("parseISO8601Duration(%q) = %ds, want %ds", c.in, got, c.want)
		}
	}
}
