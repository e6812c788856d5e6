package analysis

import (
	"context"
	"log/slog"

	"golang.org/x/time/rate"
)

// Runner applies patterns through a provider behind a token-bucket rate
// limiter. Retry on throttling is the orchestrator's job, not the
// runner's: a rate-limited call surfaces apperr.ErrRateLimited directly.
type Runner struct {
	provider Provider
	limiter  *rate.Limiter
	logger   *slog.Logger
}

// NewRunner builds a Runner. rps caps outgoing provider calls; zero or
// negative disables limiting.
func NewRunner(p Provider, rps float64, logger *slog.Logger) *Runner {
	var lim *rate.Limiter
	if rps > 0 {
		lim = rate.NewLimiter(rate.Limit(rps), 1)
	}
	return &Runner{provider: p, limiter: lim, logger: logger}
}

// Provider returns the backing provider.
func (r *Runner) Provider() Provider { return r.provider }

// Analyze applies the named pattern to text.
func (r *Runner) Analyze(ctx context.Context, p Pattern, text string) (string, error) {
	prompt, err := Prompt(p, text)
	if err != nil {
		return "", err
	}
	out, err := r.Generate(ctx, prompt)
	if err != nil {
		return "", err
	}
	r.logger.Debug("analysis: pattern complete",
		slog.String("pattern", string(p)),
		slog.Int("output_len", len(out)))
	return out, nil
}

// Generate completes a raw prompt, respecting the rate limit.
func (r *Runner) Generate(ctx context.Context, prompt string) (string, error) {
	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			return "", err
		}
	}
	return r.provider.Generate(ctx, prompt)
}
