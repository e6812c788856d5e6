// Package tts converts text into spoken audio through an ordered provider
// chain with automatic fallback.
package tts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"augments/internal/apperr"
)

// Provider is a single text-to-speech backend producing MP3 bytes.
type Provider interface {
	Name() string
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// Chain tries each provider in order until one succeeds. Provider-level
// failures (missing credentials, quota, network) are absorbed and logged,
// never surfaced, unless every provider fails.
type Chain struct {
	providers []Provider
	logger    *slog.Logger
}

// NewChain builds a fallback chain over the given providers.
func NewChain(logger *slog.Logger, providers ...Provider) *Chain {
	return &Chain{providers: providers, logger: logger}
}

// Synthesize returns the audio bytes and the name of the provider that
// produced them. When the whole chain fails it returns
// apperr.ErrSynthesisUnavailable wrapping every provider error.
func (c *Chain) Synthesize(ctx context.Context, text string) ([]byte, string, error) {
	var errs []error
	for _, p := range c.providers {
		data, err := p.Synthesize(ctx, text)
		if err == nil {
			c.logger.Info("tts: synthesized",
				slog.String("provider", p.Name()),
				slog.Int("bytes", len(data)))
			return data, p.Name(), nil
		}
		if ctx.Err() != nil {
			return nil, "", ctx.Err()
		}
		c.logger.Warn("tts: provider failed, trying next",
			slog.String("provider", p.Name()),
			slog.String("error", err.Error()))
		errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
	}
	return nil, "", fmt.Errorf("tts: %w: %w", apperr.ErrSynthesisUnavailable, errors.Join(errs...))
}
