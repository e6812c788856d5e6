package internal

import (
	"log/slog"

	"augments/internal/clipboard"
	"augments/internal/pipeline"
)

// Option is a functional option for configuring the application.
type Option func(*App)

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *App) {
		a.cfg = cfg
	}
}

// WithLogger overrides the default JSON logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *App) {
		a.logger = logger
	}
}

// WithProgress installs a pipeline status callback for display collaborators.
func WithProgress(fn pipeline.ProgressFunc) Option {
	return func(a *App) {
		a.progress = fn
	}
}

// WithClipboard substitutes the clipboard reader, used by tests.
func WithClipboard(r clipboard.Reader) Option {
	return func(a *App) {
		a.clip = r
	}
}
