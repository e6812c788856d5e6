package youtube_test

import (
	"context"
	"testing"

	"augments/internal/testutil"
	"augments/internal/youtube"
)

type fakeCaptions struct {
	entries []youtube.CaptionEntry
	calls   int
}

func (f *fakeCaptions) FetchCaptions(_ context.Context, _, _ string) ([]youtube.CaptionEntry, error) {
	f.calls++
	return f.entries, nil
}

func TestTranscriptGetCachesResult(t *testing.T) {
	c, s := testutil.TestCache(t)
	captions := &fakeCaptions{entries: []youtube.CaptionEntry{
		{Start: 0, Duration: 2, Text: "Hello world."},
		{Start: 2, Duration: 2, Text: "This is a test."},
	}}
	svc := youtube.NewTranscriptService(s, c, captions, "en", testutil.Logger())

	text, art, err := svc.Get(context.Background(), "dQw4w9WgXcQ", youtube.FormatText)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if text != "Hello world. This is a test." {
		t.Errorf("text = %q", text)
	}
	if art.Name != "dQw4w9WgXcQ.txt" {
		t.Errorf("artifact = %q", art.Name)
	}
	if captions.calls != 1 {
		t.Fatalf("fetch calls = %d", captions.calls)
	}

	// Second get is served from the cache without a network fetch.
	text2, _, err := svc.Get(context.Background(), "dQw4w9WgXcQ", youtube.FormatText)
	if err != nil {
		t.Fatalf("Get again: %v", err)
	}
	if text2 != text {
		t.Errorf("cached text = %q", text2)
	}
	if captions.calls != 1 {
		t.Errorf("fetch calls after cache hit = %d", captions.calls)
	}
}

func TestTranscriptFormatsCachedSeparately(t *testing.T) {
	c, s := testutil.TestCache(t)
	captions := &fakeCaptions{entries: []youtube.CaptionEntry{{Start: 0, Duration: 1, Text: "Hi."}}}
	svc := youtube.NewTranscriptService(s, c, captions, "en", testutil.Logger())

	if _, _, err := svc.Get(context.Background(), "dQw4w9WgXcQ", youtube.FormatText); err != nil {
		t.Fatalf("Get text: %v", err)
	}
	if _, art, err := svc.Get(context.Background(), "dQw4w9WgXcQ", youtube.FormatSRT); err != nil {
		t.Fatalf("Get srt: %v", err)
	} else if art.Name != "dQw4w9WgXcQ.srt" {
		t.Errorf("artifact = %q", art.Name)
	}
	if captions.calls != 2 {
		t.Errorf("fetch calls = %d", captions.calls)
	}
}
