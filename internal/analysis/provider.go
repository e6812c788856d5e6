package analysis

import "context"

// Provider is a language-model backend capable of completing a prompt.
// Implementations map throttling to apperr.ErrRateLimited and any other
// request failure to apperr.ErrAnalysisProvider.
type Provider interface {
	Name() string
	Generate(ctx context.Context, prompt string) (string, error)
}
