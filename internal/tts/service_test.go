package tts_test

import (
	"context"
	"testing"

	"augments/internal/testutil"
	"augments/internal/tts"
)

type countingProvider struct {
	calls int
}

func (p *countingProvider) Name() string { return "counting" }
func (p *countingProvider) Synthesize(context.Context, string) ([]byte, error) {
	p.calls++
	return []byte("mp3"), nil
}

func TestServiceCachesByText(t *testing.T) {
	c, s := testutil.TestCache(t)
	provider := &countingProvider{}
	svc := tts.NewService(tts.NewChain(testutil.Logger(), provider), s, c, testutil.Logger())

	art, name, err := svc.Synthesize(context.Background(), "video-summary", "hello world")
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if name != "counting" {
		t.Errorf("provider = %q", name)
	}
	if art.Name != "video-summary.mp3" {
		t.Errorf("artifact = %q", art.Name)
	}

	// Identical text hits the cache regardless of base name.
	art2, name2, err := svc.Synthesize(context.Background(), "other-name", "hello world")
	if err != nil {
		t.Fatalf("Synthesize again: %v", err)
	}
	if name2 != "cache" {
		t.Errorf("provider = %q, want cache", name2)
	}
	if art2.Path != art.Path {
		t.Errorf("paths differ: %q vs %q", art2.Path, art.Path)
	}
	if provider.calls != 1 {
		t.Errorf("provider calls = %d", provider.calls)
	}

	// Different text synthesizes fresh audio.
	if _, name3, err := svc.Synthesize(context.Background(), "video-summary", "different text"); err != nil {
		t.Fatalf("Synthesize different: %v", err)
	} else if name3 != "counting" {
		t.Errorf("provider = %q", name3)
	}
	if provider.calls != 2 {
		t.Errorf("provider calls = %d", provider.calls)
	}
}
