// Package apperr defines the sentinel errors shared across the pipeline.
package apperr

import "errors"

var (
	// ErrNotFound signals a missing artifact or cache entry. Callers treat
	// it as control flow, not a user-visible failure.
	ErrNotFound = errors.New("not found")

	// ErrInvalidReference signals a source reference that cannot be parsed.
	ErrInvalidReference = errors.New("invalid source reference")

	// ErrSourceUnavailable signals a source with no transcript or captions.
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrRateLimited signals provider throttling. The orchestrator may retry
	// with backoff; stages never retry themselves.
	ErrRateLimited = errors.New("rate limited")

	// ErrAnalysisProvider signals a failed language-model request.
	ErrAnalysisProvider = errors.New("analysis provider error")

	// ErrSynthesisUnavailable signals that every TTS provider in the chain
	// failed.
	ErrSynthesisUnavailable = errors.New("synthesis unavailable")
)
