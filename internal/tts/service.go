package tts

import (
	"context"
	"log/slog"

	"augments/internal/artifact"
	"augments/internal/cache"
	"augments/internal/checksum"
	"augments/internal/store"
)

// Synthesizer is what the pipeline depends on for the synthesis stage.
type Synthesizer interface {
	// Synthesize produces an audio artifact named after the originating
	// text artifact and reports which provider produced it.
	Synthesize(ctx context.Context, baseName, text string) (artifact.Artifact, string, error)
}

// Service runs the provider chain and persists the result as an audio
// artifact, consulting the cache first so identical text is never
// synthesized twice.
type Service struct {
	chain  *Chain
	store  *store.Store
	cache  *cache.Cache
	logger *slog.Logger
}

// NewService wires the synthesis path.
func NewService(chain *Chain, s *store.Store, c *cache.Cache, logger *slog.Logger) *Service {
	return &Service{chain: chain, store: s, cache: c, logger: logger}
}

// Synthesize implements Synthesizer. The cache key is content-addressed:
// the digest of the text being spoken.
func (s *Service) Synthesize(ctx context.Context, baseName, text string) (artifact.Artifact, string, error) {
	key := "tts:" + checksum.Sum([]byte(text))

	if hit, err := s.cache.Lookup(key); err != nil {
		return artifact.Artifact{}, "", err
	} else if hit != nil {
		s.logger.Debug("tts: cache hit", slog.String("name", hit.Name))
		return *hit, "cache", nil
	}

	data, provider, err := s.chain.Synthesize(ctx, text)
	if err != nil {
		return artifact.Artifact{}, "", err
	}

	art, err := s.store.Save(artifact.Audio, baseName+".mp3", data)
	if err != nil {
		return artifact.Artifact{}, "", err
	}
	if err := s.cache.Put(key, art); err != nil {
		s.logger.Warn("tts: cache put failed",
			slog.String("key", key),
			slog.String("error", err.Error()))
	}
	return art, provider, nil
}
