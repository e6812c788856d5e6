package youtube

import (
	"context"
	"fmt"
	"log/slog"

	"augments/internal/artifact"
	"augments/internal/cache"
	"augments/internal/store"
)

// CaptionFetcher is the caption download dependency of TranscriptService.
type CaptionFetcher interface {
	FetchCaptions(ctx context.Context, videoID, lang string) ([]CaptionEntry, error)
}

// TranscriptService fetches transcripts through the cache: a valid cached
// transcript artifact short-circuits the network fetch entirely.
type TranscriptService struct {
	store    *store.Store
	cache    *cache.Cache
	captions CaptionFetcher
	lang     string
	logger   *slog.Logger
}

// NewTranscriptService wires the transcript fetch path.
func NewTranscriptService(s *store.Store, c *cache.Cache, captions CaptionFetcher, lang string, logger *slog.Logger) *TranscriptService {
	if lang == "" {
		lang = "en"
	}
	return &TranscriptService{store: s, cache: c, captions: captions, lang: lang, logger: logger}
}

// CacheKey builds the source key for a transcript lookup: video identity
// plus requested format.
func CacheKey(videoID string, format TranscriptFormat) string {
	return fmt.Sprintf("transcript:%s:%s", videoID, format)
}

// Get returns the transcript text in the requested format together with
// the backing artifact. Cache hit: the artifact is read back from disk
// with no network cost. Cache miss: captions are fetched, rendered, saved
// (category transcript), and the cache is populated.
func (t *TranscriptService) Get(ctx context.Context, videoID string, format TranscriptFormat) (string, artifact.Artifact, error) {
	key := CacheKey(videoID, format)

	if hit, err := t.cache.Lookup(key); err != nil {
		return "", artifact.Artifact{}, err
	} else if hit != nil {
		data, err := t.store.Load(artifact.Transcript, hit.Name)
		if err == nil {
			t.logger.Debug("transcript: cache hit",
				slog.String("video_id", videoID),
				slog.String("name", hit.Name))
			return string(data), *hit, nil
		}
		// Entry went stale between Lookup and Load; fall through to fetch.
	}

	entries, err := t.captions.FetchCaptions(ctx, videoID, t.lang)
	if err != nil {
		return "", artifact.Artifact{}, err
	}
	text, err := Render(entries, format)
	if err != nil {
		return "", artifact.Artifact{}, err
	}

	art, err := t.store.Save(artifact.Transcript, videoID+format.Ext(), []byte(text))
	if err != nil {
		return "", artifact.Artifact{}, err
	}
	if err := t.cache.Put(key, art); err != nil {
		t.logger.Warn("transcript: cache put failed",
			slog.String("key", key),
			slog.String("error", err.Error()))
	}
	t.logger.Info("transcript: fetched",
		slog.String("video_id", videoID),
		slog.Int("entries", len(entries)),
		slog.String("artifact", art.Name))
	return text, art, nil
}
